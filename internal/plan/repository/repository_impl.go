package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	plandomain "github.com/smallbiznis/mealplan/internal/plan/domain"
	"github.com/smallbiznis/mealplan/pkg/db/option"
	"github.com/smallbiznis/mealplan/pkg/repository"
	"gorm.io/gorm"
)

// Repository wraps the generic store with the plan catalog's orderings.
type Repository struct {
	store repository.Repository[plandomain.Plan]
}

func Provide(db *gorm.DB) *Repository {
	return &Repository{store: repository.ProvideStore[plandomain.Plan](db)}
}

func (r *Repository) WithTrx(tx *gorm.DB) *Repository {
	return &Repository{store: r.store.WithTrx(tx)}
}

func (r *Repository) ListActive(ctx context.Context) ([]*plandomain.Plan, error) {
	return r.store.Find(ctx, &plandomain.Plan{},
		option.WithWhere("is_active = ?", true),
		option.WithSortBy("sort_order", "asc"),
		option.WithSortBy("days", "asc"),
	)
}

func (r *Repository) List(ctx context.Context) ([]*plandomain.Plan, error) {
	return r.store.Find(ctx, &plandomain.Plan{},
		option.WithSortBy("sort_order", "asc"),
		option.WithSortBy("days", "asc"),
	)
}

func (r *Repository) FindByID(ctx context.Context, id snowflake.ID) (*plandomain.Plan, error) {
	return r.store.FindOne(ctx, &plandomain.Plan{ID: id})
}

func (r *Repository) FindBySlug(ctx context.Context, slug string) (*plandomain.Plan, error) {
	return r.store.FindOne(ctx, &plandomain.Plan{Slug: slug})
}

func (r *Repository) Insert(ctx context.Context, plan *plandomain.Plan) error {
	return r.store.Create(ctx, plan)
}

// Save writes every column, zero values included.
func (r *Repository) Save(ctx context.Context, plan *plandomain.Plan) (int64, error) {
	return r.store.Update(ctx, int64(plan.ID), map[string]any{
		"name":          plan.Name,
		"slug":          plan.Slug,
		"days":          plan.Days,
		"validity_days": plan.ValidityDays,
		"skip_days":     plan.SkipDays,
		"mrp":           plan.MRP,
		"price":         plan.Price,
		"discount":      plan.Discount,
		"tagline":       plan.Tagline,
		"best_for":      plan.BestFor,
		"features":      plan.Features,
		"is_popular":    plan.IsPopular,
		"is_best_value": plan.IsBestValue,
		"is_active":     plan.IsActive,
		"sort_order":    plan.SortOrder,
		"updated_at":    plan.UpdatedAt,
	})
}

func (r *Repository) Delete(ctx context.Context, id snowflake.ID) (int64, error) {
	return r.store.Delete(ctx, int64(id))
}
