package service

import (
	"context"
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	fooddomain "github.com/smallbiznis/mealplan/internal/fooditem/domain"
	"github.com/smallbiznis/mealplan/internal/fooditem/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestGet(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&fooddomain.FoodItem{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	item := fooddomain.FoodItem{ID: 42, Name: "Caesar Bowl", Image: "caesar.jpg", Price: 24900, IsVeg: true, IsAvailable: true}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	svc := New(Params{Log: zap.NewNop(), Repo: repository.Provide(db)})
	ctx := context.Background()

	got, err := svc.Get(ctx, "42")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Caesar Bowl" || got.Price != 24900 {
		t.Fatalf("unexpected item %+v", got)
	}

	if _, err := svc.Get(ctx, "43"); !errors.Is(err, fooddomain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := svc.Get(ctx, "salad"); !errors.Is(err, fooddomain.ErrInvalidID) {
		t.Fatalf("expected invalid id, got %v", err)
	}
}
