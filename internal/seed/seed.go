// Package seed bootstraps a starter catalog for local and staging databases.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	fooditemdomain "github.com/smallbiznis/mealplan/internal/fooditem/domain"
	plandomain "github.com/smallbiznis/mealplan/internal/plan/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type planSeed struct {
	Name         string
	Days         int
	ValidityDays int
	SkipDays     int
	MRP          int64
	Price        int64
	Tagline      string
	Features     []string
	IsPopular    bool
	IsBestValue  bool
}

var defaultPlans = []planSeed{
	{
		Name: "Weekly Starter", Days: 6, ValidityDays: 8, SkipDays: 2,
		MRP: 179400, Price: 149900, Tagline: "Try a week of fresh bowls",
		Features: []string{"6 deliveries", "2 skips"},
	},
	{
		Name: "Monthly Regular", Days: 24, ValidityDays: 30, SkipDays: 6,
		MRP: 717600, Price: 549900, Tagline: "Lunch sorted for the month",
		Features: []string{"24 deliveries", "6 skips", "Free protein upgrade weekly"},
		IsPopular: true,
	},
	{
		Name: "Quarterly Saver", Days: 72, ValidityDays: 90, SkipDays: 18,
		MRP: 2152800, Price: 1499900, Tagline: "Best price per bowl",
		Features: []string{"72 deliveries", "18 skips"},
		IsBestValue: true,
	},
}

var defaultFoodItems = []fooditemdomain.FoodItem{
	{Name: "Greek Bowl", Image: "greek-bowl.png", Price: 24900, IsVeg: true, IsAvailable: true},
	{Name: "Chicken Caesar", Image: "chicken-caesar.png", Price: 29900, IsVeg: false, IsAvailable: true},
	{Name: "Paneer Tikka Salad", Image: "paneer-tikka.png", Price: 27900, IsVeg: true, IsAvailable: true},
}

// EnsureCatalog inserts the starter plans and salads that are missing.
// Existing rows are left untouched, so it is safe to run repeatedly.
func EnsureCatalog(ctx context.Context, db *gorm.DB, node *snowflake.Node) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	if node == nil {
		return errors.New("seed id generator is required")
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, p := range defaultPlans {
			if err := ensurePlanTx(ctx, tx, node, p, i); err != nil {
				return err
			}
		}
		for _, item := range defaultFoodItems {
			if err := ensureFoodItemTx(ctx, tx, node, item); err != nil {
				return err
			}
		}
		return nil
	})
}

func ensurePlanTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, p planSeed, order int) error {
	planSlug := slug.Make(p.Name)

	var existing plandomain.Plan
	err := tx.WithContext(ctx).Where("slug = ?", planSlug).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	now := time.Now().UTC()
	plan := plandomain.Plan{
		ID:           node.Generate(),
		Name:         p.Name,
		Slug:         planSlug,
		Days:         p.Days,
		ValidityDays: p.ValidityDays,
		SkipDays:     p.SkipDays,
		MRP:          p.MRP,
		Price:        p.Price,
		Discount:     plandomain.Discount(p.MRP, p.Price),
		Tagline:      p.Tagline,
		Features:     datatypes.JSONSlice[string](p.Features),
		IsPopular:    p.IsPopular,
		IsBestValue:  p.IsBestValue,
		IsActive:     true,
		SortOrder:    order,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return tx.WithContext(ctx).Create(&plan).Error
}

func ensureFoodItemTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, item fooditemdomain.FoodItem) error {
	var count int64
	if err := tx.WithContext(ctx).
		Model(&fooditemdomain.FoodItem{}).
		Where("name = ?", item.Name).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	item.ID = node.Generate()
	return tx.WithContext(ctx).Create(&item).Error
}
