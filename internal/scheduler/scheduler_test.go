package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/smallbiznis/mealplan/internal/clock"
	subscriptiondomain "github.com/smallbiznis/mealplan/internal/subscription/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeExpirer struct {
	subscriptiondomain.Service

	backlog int
	err     error
	block   bool

	calls   int
	cutoffs []time.Time
}

func (f *fakeExpirer) ExpirePending(ctx context.Context, createdBefore time.Time, limit int) (int, error) {
	f.calls++
	f.cutoffs = append(f.cutoffs, createdBefore)
	if f.block {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	if f.err != nil {
		return 0, f.err
	}
	n := limit
	if f.backlog < n {
		n = f.backlog
	}
	f.backlog -= n
	return n, nil
}

func newTestScheduler(t *testing.T, svc *fakeExpirer, cfg Config) (*Scheduler, *clock.FakeClock) {
	t.Helper()
	clk := clock.NewFakeClock(time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC))
	s, err := New(Params{Log: zap.NewNop(), Clock: clk, SubscriptionSvc: svc, Config: cfg})
	require.NoError(t, err)
	return s, clk
}

func TestExpirePendingDrainsBacklogInBatches(t *testing.T) {
	svc := &fakeExpirer{backlog: 5}
	s, clk := newTestScheduler(t, svc, Config{BatchSize: 2, PendingTTL: 24 * time.Hour})

	require.NoError(t, s.RunOnce(context.Background()))
	assert.Equal(t, 3, svc.calls)
	assert.Equal(t, 0, svc.backlog)
	for _, cutoff := range svc.cutoffs {
		assert.True(t, cutoff.Equal(clk.Now().Add(-24*time.Hour)))
	}
}

func TestExpirePendingDisabledWithoutTTL(t *testing.T) {
	svc := &fakeExpirer{backlog: 5}
	s, _ := newTestScheduler(t, svc, Config{})

	require.NoError(t, s.RunOnce(context.Background()))
	assert.Equal(t, 0, svc.calls)
}

func TestRunJobWrapsErrors(t *testing.T) {
	svc := &fakeExpirer{err: errors.New("db down")}
	s, _ := newTestScheduler(t, svc, Config{PendingTTL: time.Hour})

	err := s.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), jobExpirePending)
}

func TestRunJobTimeoutIsSoft(t *testing.T) {
	svc := &fakeExpirer{block: true}
	s, _ := newTestScheduler(t, svc, Config{PendingTTL: time.Hour, JobTimeout: 5 * time.Millisecond})

	require.NoError(t, s.RunOnce(context.Background()))
	assert.Equal(t, 1, svc.calls)
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Params{Log: zap.NewNop()})
	require.ErrorIs(t, err, ErrInvalidConfig)
}
