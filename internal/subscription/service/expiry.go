package service

import (
	"context"
	"errors"
	"time"

	auditdomain "github.com/smallbiznis/mealplan/internal/audit/domain"
	"github.com/smallbiznis/mealplan/internal/events"
	subscriptiondomain "github.com/smallbiznis/mealplan/internal/subscription/domain"
	"go.uber.org/zap"
)

// ExpirePending cancels abandoned checkouts so their owners can buy again.
// Rows that lost a race with a payment confirmation are skipped.
func (s *Service) ExpirePending(ctx context.Context, createdBefore time.Time, limit int) (int, error) {
	stale, err := s.repo.ListStalePending(ctx, s.db, createdBefore.UTC(), limit)
	if err != nil {
		return 0, err
	}

	now := s.now()
	expired := 0
	var errs error
	for i := range stale {
		sub := &stale[i]
		if err := sub.Expire(now); err != nil {
			continue
		}
		if err := s.repo.Update(ctx, s.db, sub); err != nil {
			if errors.Is(err, subscriptiondomain.ErrConcurrentModification) {
				s.log.Info("pending subscription changed during expiry, skipping",
					zap.String("subscription_id", sub.ID.String()),
				)
				continue
			}
			errs = errors.Join(errs, err)
			continue
		}

		expired++
		metadata := map[string]any{
			"previous_status": string(subscriptiondomain.StatusPending),
			"status":          string(sub.Status),
			"created_at":      sub.CreatedAt,
		}
		s.auditLog(ctx, string(auditdomain.ActorTypeSystem), nil, "subscription.expire", sub, metadata)
		s.publish(ctx, events.SubscriptionExpired, sub, metadata)
	}

	if expired > 0 {
		s.log.Info("expired pending subscriptions", zap.Int("count", expired))
	}
	return expired, errs
}
