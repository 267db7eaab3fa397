package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	auditdomain "github.com/smallbiznis/mealplan/internal/audit/domain"
	"github.com/smallbiznis/mealplan/internal/audit/repository"
	"github.com/smallbiznis/mealplan/internal/clock"
	obscontext "github.com/smallbiznis/mealplan/internal/observability/context"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setup(t *testing.T) (*Service, *clock.FakeClock) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&auditdomain.AuditLog{}))
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC))
	svc := NewService(Params{DB: db, Log: zap.NewNop(), GenID: node, Clock: clk, Repo: repository.Provide()})
	return svc.(*Service), clk
}

func TestAuditLogResolvesActorAndMasks(t *testing.T) {
	svc, _ := setup(t)

	ctx := obscontext.WithActor(context.Background(), "user", "42")
	ctx = obscontext.WithClient(ctx, "10.0.0.1", "curl/8")
	ctx = obscontext.WithRequestID(ctx, "req-1")
	target := "900"

	err := svc.AuditLog(ctx, "", nil, "subscription.payment_confirmed", "subscription", &target, map[string]any{
		"signature": "abcdef123456",
		"order_id":  "order_1",
	})
	require.NoError(t, err)

	resp, err := svc.List(context.Background(), auditdomain.ListAuditLogRequest{Action: "subscription.payment_confirmed"})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)

	entry := resp.AuditLogs[0]
	require.Equal(t, "user", entry.ActorType)
	require.Equal(t, "42", *entry.ActorID)
	require.Equal(t, "10.0.0.1", *entry.IPAddress)
	require.Equal(t, "****3456", entry.Metadata["signature"])
	require.Equal(t, "order_1", entry.Metadata["order_id"])
	require.Equal(t, "req-1", entry.Metadata["request_id"])

	require.True(t, errors.Is(svc.AuditLog(ctx, "", nil, " ", "x", nil, nil), auditdomain.ErrInvalidAction))
}

func TestListPages(t *testing.T) {
	svc, clk := setup(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, svc.AuditLog(ctx, "admin", nil, "plan.updated", "plan", nil, nil))
		clk.Advance(time.Minute)
	}

	req := auditdomain.ListAuditLogRequest{}
	req.PageSize = 2
	first, err := svc.List(ctx, req)
	require.NoError(t, err)
	require.Len(t, first.AuditLogs, 2)
	require.True(t, first.HasMore)
	require.True(t, first.AuditLogs[0].CreatedAt.After(first.AuditLogs[1].CreatedAt))

	seen := map[snowflake.ID]bool{}
	for _, l := range first.AuditLogs {
		seen[l.ID] = true
	}
	req.PageToken = first.NextPageToken
	total := len(first.AuditLogs)
	for req.PageToken != "" {
		page, err := svc.List(ctx, req)
		require.NoError(t, err)
		for _, l := range page.AuditLogs {
			require.False(t, seen[l.ID], "duplicate row across pages")
			seen[l.ID] = true
		}
		total += len(page.AuditLogs)
		req.PageToken = page.NextPageToken
	}
	require.Equal(t, 5, total)

	req.PageToken = "%%%"
	_, err = svc.List(ctx, req)
	require.True(t, errors.Is(err, auditdomain.ErrInvalidPageToken))

	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	_, err = svc.List(ctx, auditdomain.ListAuditLogRequest{StartAt: &start, EndAt: &end})
	require.True(t, errors.Is(err, auditdomain.ErrInvalidTimeRange))
}
