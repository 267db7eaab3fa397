package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	addressdomain "github.com/smallbiznis/mealplan/internal/address/domain"
	"github.com/smallbiznis/mealplan/internal/address/repository"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestResolve(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&addressdomain.Address{}))

	lat, lng := 12.97, 77.59
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create(&addressdomain.Address{
		ID: 10, UserID: 1, FullName: "Asha", Phone: "9000000000",
		HouseNumber: "12B", Street: "MG Road", City: "Bengaluru", State: "Karnataka", Pincode: "560001",
		Latitude: &lat, Longitude: &lng, CreatedAt: now, UpdatedAt: now,
	}).Error)

	svc := New(Params{Log: zap.NewNop(), Repo: repository.Provide(db)})
	ctx := context.Background()

	got, err := svc.Resolve(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, "12B, MG Road, Bengaluru, Karnataka - 560001", got.FullText)
	require.NotNil(t, got.Lat)
	require.InDelta(t, 12.97, *got.Lat, 1e-9)

	_, err = svc.Resolve(ctx, 2, 10)
	require.True(t, errors.Is(err, addressdomain.ErrNotFound), "foreign address must not resolve")

	_, err = svc.Resolve(ctx, 1, 11)
	require.True(t, errors.Is(err, addressdomain.ErrNotFound))
}
