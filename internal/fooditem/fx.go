package fooditem

import (
	"github.com/smallbiznis/mealplan/internal/fooditem/repository"
	"github.com/smallbiznis/mealplan/internal/fooditem/service"
	"go.uber.org/fx"
)

var Module = fx.Module("fooditem.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
