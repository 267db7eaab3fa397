package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	addressdomain "github.com/smallbiznis/mealplan/internal/address/domain"
	"github.com/smallbiznis/mealplan/pkg/repository"
	"gorm.io/gorm"
)

type repo struct {
	store repository.Repository[addressdomain.Address]
}

func Provide(db *gorm.DB) addressdomain.Repository {
	return &repo{store: repository.ProvideStore[addressdomain.Address](db)}
}

func (r *repo) FindByID(ctx context.Context, id snowflake.ID) (*addressdomain.Address, error) {
	return r.store.FindOne(ctx, &addressdomain.Address{ID: id})
}
