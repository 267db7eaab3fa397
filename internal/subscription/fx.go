package subscription

import (
	"github.com/smallbiznis/mealplan/internal/config"
	subscriptiondomain "github.com/smallbiznis/mealplan/internal/subscription/domain"
	"github.com/smallbiznis/mealplan/internal/subscription/repository"
	"github.com/smallbiznis/mealplan/internal/subscription/service"
	"go.uber.org/fx"
)

var Module = fx.Module("subscription.service",
	fx.Provide(newCalendar),
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)

func newCalendar(cfg config.Config) (subscriptiondomain.Calendar, error) {
	return subscriptiondomain.NewCalendar(cfg.DeliveryTimezone)
}
