package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/mealplan/internal/config"
	"github.com/smallbiznis/mealplan/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	keyReschedule     = "mealplan:reschedule:user:%s"
	keyPaymentConfirm = "mealplan:payment:confirm:%s"
	paymentConfirmTTL = 30 * time.Second
)

type Params struct {
	fx.In

	Client   *redis.Client `optional:"true"`
	Policies *config.PolicyHolder
	Log      *zap.Logger
	Metrics  *metrics.Metrics `optional:"true"`
}

// Limiter throttles user schedule edits and serializes payment
// confirmations. A nil or disabled limiter allows everything.
type Limiter struct {
	enabled bool

	bucket   *TokenBucket
	locker   *Locker
	policies *config.PolicyHolder
	log      *zap.Logger
	metrics  *metrics.Metrics
}

func NewLimiter(p Params) *Limiter {
	l := &Limiter{
		policies: p.Policies,
		log:      p.Log.Named("ratelimit"),
		metrics:  p.Metrics,
	}
	if p.Client == nil {
		return l
	}
	l.enabled = true
	l.bucket = NewTokenBucket(p.Client)
	l.locker = NewLocker(p.Client)
	return l
}

func (l *Limiter) Enabled() bool {
	return l != nil && l.enabled
}

// AllowReschedule takes one token from the user's bucket. Redis failures
// fail open.
func (l *Limiter) AllowReschedule(ctx context.Context, userID string) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}
	policy := l.policies.Get()
	res, err := l.bucket.Allow(ctx, fmt.Sprintf(keyReschedule, userID), policy.RescheduleRate, policy.RescheduleBurst)
	if err != nil {
		l.log.Warn("reschedule limiter unavailable", zap.String("user_id", userID), zap.Error(err))
		return &Result{Allowed: true}, nil
	}
	if !res.Allowed {
		l.metrics.RecordRateLimitDenied(ctx, "reschedule", "token_bucket")
	}
	return res, nil
}

// LockPaymentConfirmation serializes confirmations of one subscription. It
// returns ErrLockHeld while another confirmation holds the lock. Redis
// failures fail open.
func (l *Limiter) LockPaymentConfirmation(ctx context.Context, subscriptionID string) (release func(), err error) {
	noop := func() {}
	if !l.Enabled() {
		return noop, nil
	}
	lease, err := l.locker.Acquire(ctx, fmt.Sprintf(keyPaymentConfirm, subscriptionID), paymentConfirmTTL)
	if errors.Is(err, ErrLockHeld) {
		return noop, err
	}
	if err != nil {
		l.log.Warn("payment confirmation lock unavailable", zap.String("subscription_id", subscriptionID), zap.Error(err))
		return noop, nil
	}
	return func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			l.log.Warn("payment confirmation unlock failed", zap.String("subscription_id", subscriptionID), zap.Error(err))
		}
	}, nil
}
