package seed

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	fooditemdomain "github.com/smallbiznis/mealplan/internal/fooditem/domain"
	plandomain "github.com/smallbiznis/mealplan/internal/plan/domain"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestEnsureCatalogIsIdempotent(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&plandomain.Plan{}, &fooditemdomain.FoodItem{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, EnsureCatalog(ctx, db, node))
	require.NoError(t, EnsureCatalog(ctx, db, node))

	var plans []plandomain.Plan
	require.NoError(t, db.Order("sort_order").Find(&plans).Error)
	require.Len(t, plans, len(defaultPlans))
	require.Equal(t, "weekly-starter", plans[0].Slug)
	require.Equal(t, 16, plans[0].Discount)
	require.True(t, plans[1].IsPopular)

	var items int64
	require.NoError(t, db.Model(&fooditemdomain.FoodItem{}).Count(&items).Error)
	require.Equal(t, int64(len(defaultFoodItems)), items)
}

func TestEnsureCatalogRequiresHandles(t *testing.T) {
	require.Error(t, EnsureCatalog(context.Background(), nil, nil))
}
