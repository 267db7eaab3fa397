package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/go-playground/validator/v10"
	"github.com/smallbiznis/mealplan/internal/clock"
	plandomain "github.com/smallbiznis/mealplan/internal/plan/domain"
	"github.com/smallbiznis/mealplan/internal/plan/repository"
	"github.com/smallbiznis/mealplan/internal/validation"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupService(t *testing.T) (plandomain.Service, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&plandomain.Plan{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("node: %v", err)
	}
	svc := New(Params{
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    clock.NewFakeClock(time.Date(2026, 3, 1, 4, 0, 0, 0, time.UTC)),
		Repo:     repository.Provide(db),
		Validate: validation.New(),
	})
	return svc, db
}

func intPtr(v int) *int { return &v }

func TestCreateComputesSlugAndDiscount(t *testing.T) {
	svc, _ := setupService(t)

	resp, err := svc.Create(context.Background(), plandomain.CreateRequest{
		Name:         "  Weekly Green Box ",
		Days:         5,
		ValidityDays: 10,
		MRP:          150000,
		Price:        99900,
		Features:     []string{"Free delivery"},
	})
	require.NoError(t, err)
	require.Equal(t, "weekly-green-box", resp.Slug)
	require.Equal(t, "Weekly Green Box", resp.Name)
	require.Equal(t, 33, resp.Discount) // 50100/150000 = 33.4%
	require.Equal(t, int64(50100), resp.Savings)
	require.Equal(t, 2, resp.SkipDays)
	require.True(t, resp.IsActive)
}

func TestCreateRejectsBadTerms(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, plandomain.CreateRequest{Name: "Too many", Days: 12, ValidityDays: 10, Price: 100})
	require.True(t, errors.Is(err, plandomain.ErrDaysExceedValid))

	_, err = svc.Create(ctx, plandomain.CreateRequest{Name: "Markup", Days: 1, ValidityDays: 1, MRP: 100, Price: 200})
	require.True(t, errors.Is(err, plandomain.ErrPriceExceedsMRP))

	_, err = svc.Create(ctx, plandomain.CreateRequest{Days: 1, ValidityDays: 1})
	var vErrs validator.ValidationErrors
	require.True(t, errors.As(err, &vErrs), "got %v", err)

	_, err = svc.Create(ctx, plandomain.CreateRequest{Name: "Dup", Days: 1, ValidityDays: 1})
	require.NoError(t, err)
	_, err = svc.Create(ctx, plandomain.CreateRequest{Name: "dup", Days: 1, ValidityDays: 1})
	require.True(t, errors.Is(err, plandomain.ErrDuplicateSlug), "got %v", err)
}

func TestListActiveOrderingAndCacheInvalidation(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	long, err := svc.Create(ctx, plandomain.CreateRequest{Name: "Monthly", Days: 20, ValidityDays: 30, SortOrder: 1})
	require.NoError(t, err)
	short, err := svc.Create(ctx, plandomain.CreateRequest{Name: "Trial", Days: 3, ValidityDays: 5, SortOrder: 1})
	require.NoError(t, err)
	first, err := svc.Create(ctx, plandomain.CreateRequest{Name: "Featured", Days: 10, ValidityDays: 14, SortOrder: 0})
	require.NoError(t, err)

	active, err := svc.ListActive(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{first.ID, short.ID, long.ID}, ids(active))

	off := false
	_, err = svc.Update(ctx, short.ID, plandomain.UpdateRequest{IsActive: &off})
	require.NoError(t, err)

	active, err = svc.ListActive(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{first.ID, long.ID}, ids(active), "cache must be dropped on update")

	_, err = svc.GetActive(ctx, short.ID)
	require.True(t, errors.Is(err, plandomain.ErrNotFound))
}

func TestUpdateKeepsTermsConsistent(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	plan, err := svc.Create(ctx, plandomain.CreateRequest{Name: "Basic", Days: 5, ValidityDays: 10, MRP: 1000, Price: 800})
	require.NoError(t, err)

	_, err = svc.Update(ctx, plan.ID, plandomain.UpdateRequest{ValidityDays: intPtr(4)})
	require.True(t, errors.Is(err, plandomain.ErrDaysExceedValid))

	name := "Basic Plus"
	price := int64(500)
	updated, err := svc.Update(ctx, plan.ID, plandomain.UpdateRequest{Name: &name, Price: &price, SkipDays: intPtr(0)})
	require.NoError(t, err)
	require.Equal(t, "basic-plus", updated.Slug)
	require.Equal(t, 50, updated.Discount)
	require.Equal(t, 0, updated.SkipDays)

	got, err := svc.Get(ctx, plan.ID)
	require.NoError(t, err)
	require.Equal(t, 0, got.SkipDays)
	require.Equal(t, int64(500), got.Price)
}

func TestDeleteIsHard(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	plan, err := svc.Create(ctx, plandomain.CreateRequest{Name: "Gone", Days: 1, ValidityDays: 2})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, plan.ID))

	var count int64
	require.NoError(t, db.Model(&plandomain.Plan{}).Count(&count).Error)
	require.Zero(t, count)

	require.True(t, errors.Is(svc.Delete(ctx, plan.ID), plandomain.ErrNotFound))
	require.True(t, errors.Is(svc.Delete(ctx, "abc"), plandomain.ErrInvalidID))
}

func TestDiscountRounding(t *testing.T) {
	cases := []struct {
		mrp, price int64
		want       int
	}{
		{0, 0, 0},
		{1000, 1000, 0},
		{1000, 0, 100},
		{300, 200, 33},
		{300, 100, 67},
		{200, 300, 0},
	}
	for _, tc := range cases {
		if got := plandomain.Discount(tc.mrp, tc.price); got != tc.want {
			t.Fatalf("Discount(%d, %d) = %d, want %d", tc.mrp, tc.price, got, tc.want)
		}
	}
}

func ids(items []plandomain.Response) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}
