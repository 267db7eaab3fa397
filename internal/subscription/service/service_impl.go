package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/go-playground/validator/v10"
	addressdomain "github.com/smallbiznis/mealplan/internal/address/domain"
	auditdomain "github.com/smallbiznis/mealplan/internal/audit/domain"
	"github.com/smallbiznis/mealplan/internal/clock"
	"github.com/smallbiznis/mealplan/internal/config"
	"github.com/smallbiznis/mealplan/internal/events"
	fooditemdomain "github.com/smallbiznis/mealplan/internal/fooditem/domain"
	"github.com/smallbiznis/mealplan/internal/observability/metrics"
	paymentdomain "github.com/smallbiznis/mealplan/internal/payment/domain"
	plandomain "github.com/smallbiznis/mealplan/internal/plan/domain"
	"github.com/smallbiznis/mealplan/internal/providers/pdf"
	"github.com/smallbiznis/mealplan/internal/ratelimit"
	subscriptiondomain "github.com/smallbiznis/mealplan/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Calendar subscriptiondomain.Calendar
	Policies *config.PolicyHolder
	Validate *validator.Validate
	Repo     subscriptiondomain.Repository

	Plans     plandomain.Service
	FoodItems fooditemdomain.Service
	Addresses addressdomain.Service
	Payments  paymentdomain.Service

	Publisher events.Publisher    `optional:"true"`
	Audit     auditdomain.Service `optional:"true"`
	Limiter   *ratelimit.Limiter  `optional:"true"`
	PDF       pdf.Provider        `optional:"true"`
	Metrics   *metrics.Metrics    `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	cal      subscriptiondomain.Calendar
	policies *config.PolicyHolder
	validate *validator.Validate
	repo     subscriptiondomain.Repository

	plans     plandomain.Service
	foodItems fooditemdomain.Service
	addresses addressdomain.Service
	payments  paymentdomain.Service

	publisher   events.Publisher
	audit       auditdomain.Service
	confirmLock confirmationLock
	pdf         pdf.Provider
	metrics     *metrics.Metrics
}

// confirmationLock serializes payment confirmations per subscription.
// *ratelimit.Limiter is nil-safe and allows everything when Redis is absent.
type confirmationLock interface {
	LockPaymentConfirmation(ctx context.Context, subscriptionID string) (func(), error)
}

func NewService(p Params) subscriptiondomain.Service {
	publisher := p.Publisher
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	renderer := p.PDF
	if renderer == nil {
		renderer = pdf.New()
	}
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("subscription.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		cal:      p.Calendar,
		policies: p.Policies,
		validate: p.Validate,
		repo:     p.Repo,

		plans:     p.Plans,
		foodItems: p.FoodItems,
		addresses: p.Addresses,
		payments:  p.Payments,

		publisher:   publisher,
		audit:       p.Audit,
		confirmLock: p.Limiter,
		pdf:         renderer,
		metrics:     p.Metrics,
	}
}

// now is the service clock in UTC so stored timestamps compare consistently
// across dialects.
func (s *Service) now() time.Time {
	return s.clock.Now().UTC()
}

func (s *Service) cutoff() time.Duration {
	if s.policies == nil {
		return subscriptiondomain.DefaultCutoff
	}
	hours := s.policies.Get().CutoffHours
	if hours <= 0 {
		return subscriptiondomain.DefaultCutoff
	}
	return time.Duration(hours) * time.Hour
}

// load returns the subscription or ErrSubscriptionNotFound.
func (s *Service) load(ctx context.Context, id snowflake.ID) (*subscriptiondomain.Subscription, error) {
	sub, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, subscriptiondomain.ErrSubscriptionNotFound
	}
	return sub, nil
}

// loadOwned hides subscriptions owned by someone else behind NotFound.
func (s *Service) loadOwned(ctx context.Context, userID, id snowflake.ID) (*subscriptiondomain.Subscription, error) {
	sub, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.UserID != userID {
		return nil, subscriptiondomain.ErrSubscriptionNotFound
	}
	return sub, nil
}

func (s *Service) save(ctx context.Context, db *gorm.DB, sub *subscriptiondomain.Subscription) error {
	if err := s.repo.Update(ctx, db, sub); err != nil {
		if !errors.Is(err, subscriptiondomain.ErrConcurrentModification) {
			return err
		}
		return &subscriptiondomain.RuleError{
			Err:     subscriptiondomain.ErrConcurrentModification,
			Message: "subscription " + sub.ID.String() + " was changed by another request, reload and retry",
		}
	}
	return nil
}

func (s *Service) publish(ctx context.Context, eventType string, sub *subscriptiondomain.Subscription, extra map[string]any) {
	data := map[string]any{
		"subscription_id": sub.ID.String(),
		"user_id":         sub.UserID.String(),
		"status":          sub.Status,
		"payment_status":  sub.PaymentStatus,
		"revision":        sub.Revision,
	}
	for k, v := range extra {
		data[k] = v
	}
	if err := s.publisher.Publish(ctx, eventType, data); err != nil {
		s.log.Warn("failed to publish event",
			zap.String("event_type", eventType),
			zap.String("subscription_id", sub.ID.String()),
			zap.Error(err),
		)
	}
}

func (s *Service) auditLog(ctx context.Context, actorType string, actorID *string, action string, sub *subscriptiondomain.Subscription, metadata map[string]any) {
	if s.audit == nil {
		return
	}
	targetID := sub.ID.String()
	if err := s.audit.AuditLog(ctx, actorType, actorID, action, "subscription", &targetID, metadata); err != nil {
		s.log.Warn("failed to write audit log", zap.String("action", action), zap.Error(err))
	}
}

func (s *Service) reject(ctx context.Context, operation string, err error) {
	reason := "internal"
	if rErr, ok := subscriptiondomain.AsRuleError(err); ok {
		reason = rErr.Err.Error()
	} else if subscriptiondomain.IsValidation(err) || subscriptiondomain.IsNotFound(err) ||
		subscriptiondomain.IsConflict(err) || subscriptiondomain.IsInvalidState(err) {
		reason = err.Error()
	}
	s.metrics.RecordScheduleRejection(ctx, operation, reason)
}

func parseID(raw string, field string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return 0, &subscriptiondomain.RuleError{
			Err:     subscriptiondomain.ErrInvalidID,
			Field:   field,
			Message: "invalid id " + strings.TrimSpace(raw),
		}
	}
	return id, nil
}

func toResponses(items []subscriptiondomain.Subscription) []subscriptiondomain.SubscriptionResponse {
	out := make([]subscriptiondomain.SubscriptionResponse, 0, len(items))
	for i := range items {
		out = append(out, subscriptiondomain.ToResponse(&items[i]))
	}
	return out
}
