package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	fooddomain "github.com/smallbiznis/mealplan/internal/fooditem/domain"
	"github.com/smallbiznis/mealplan/pkg/repository"
	"gorm.io/gorm"
)

type repo struct {
	store repository.Repository[fooddomain.FoodItem]
}

func Provide(db *gorm.DB) fooddomain.Repository {
	return &repo{store: repository.ProvideStore[fooddomain.FoodItem](db)}
}

func (r *repo) FindByID(ctx context.Context, id snowflake.ID) (*fooddomain.FoodItem, error) {
	return r.store.FindOne(ctx, &fooddomain.FoodItem{ID: id})
}
