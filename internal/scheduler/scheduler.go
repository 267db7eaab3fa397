// Package scheduler runs periodic maintenance jobs over subscriptions.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	auditdomain "github.com/smallbiznis/mealplan/internal/audit/domain"
	"github.com/smallbiznis/mealplan/internal/clock"
	obscontext "github.com/smallbiznis/mealplan/internal/observability/context"
	obsmetrics "github.com/smallbiznis/mealplan/internal/observability/metrics"
	subscriptiondomain "github.com/smallbiznis/mealplan/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const jobExpirePending = "expire_pending"

var ErrInvalidConfig = errors.New("invalid_scheduler_config")

type Params struct {
	fx.In

	Log             *zap.Logger
	Clock           clock.Clock
	SubscriptionSvc subscriptiondomain.Service
	Config          Config              `optional:"true"`
	Metrics         *obsmetrics.Metrics `optional:"true"`
}

type Scheduler struct {
	log             *zap.Logger
	cfg             Config
	clock           clock.Clock
	subscriptionSvc subscriptiondomain.Service
	metrics         *obsmetrics.Metrics
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.Clock == nil || p.SubscriptionSvc == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:             p.Log.Named("scheduler"),
		cfg:             p.Config.withDefaults(),
		clock:           p.Clock,
		subscriptionSvc: p.SubscriptionSvc,
		metrics:         p.Metrics,
	}, nil
}

// RunForever runs every job once per interval until ctx is cancelled.
func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) RunOnce(ctx context.Context) error {
	if s.cfg.PendingTTL <= 0 {
		return nil
	}
	return s.runJob(ctx, jobExpirePending, s.cfg.JobTimeout, s.ExpirePendingJob)
}

// ExpirePendingJob cancels unpaid checkouts older than the pending TTL in
// batches until a short batch signals the backlog is drained.
func (s *Scheduler) ExpirePendingJob(ctx context.Context) error {
	cutoff := s.clock.Now().Add(-s.cfg.PendingTTL)
	total := 0
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		expired, err := s.subscriptionSvc.ExpirePending(ctx, cutoff, s.cfg.BatchSize)
		total += expired
		if err != nil {
			return err
		}
		if expired < s.cfg.BatchSize {
			break
		}
	}

	if total > 0 {
		s.log.Info("pending subscriptions expired",
			zap.Int("count", total),
			zap.Time("created_before", cutoff),
		)
	}
	return nil
}

func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	timeout time.Duration,
	fn func(ctx context.Context) error,
) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	ctx = obscontext.WithActor(ctx, string(auditdomain.ActorTypeSystem), "scheduler")
	log := s.log.With(zap.String("job", name))

	err := fn(ctx)
	duration := s.clock.Now().Sub(start)
	if err == nil {
		s.metrics.RecordJobRun(ctx, name, "ok")
		log.Debug("job finished", zap.Duration("duration", duration))
		return nil
	}

	// Deadlines are soft: the next tick resumes where this run stopped.
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		s.metrics.RecordJobRun(context.WithoutCancel(ctx), name, "timeout")
		log.Warn("job timed out",
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}

	s.metrics.RecordJobRun(ctx, name, "error")
	return fmt.Errorf("%s: %w", name, err)
}
