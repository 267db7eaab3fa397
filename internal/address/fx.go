package address

import (
	"github.com/smallbiznis/mealplan/internal/address/repository"
	"github.com/smallbiznis/mealplan/internal/address/service"
	"go.uber.org/fx"
)

var Module = fx.Module("address.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
