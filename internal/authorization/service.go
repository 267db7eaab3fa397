package authorization

import (
	"context"
	"errors"
)

const (
	ObjectPlan         = "plan"
	ObjectSubscription = "subscription"
	ObjectSchedule     = "schedule"
	ObjectStats        = "stats"
	ObjectAuditLog     = "audit_log"
)

const (
	ActionPlanView   = "plan.view"
	ActionPlanCreate = "plan.create"
	ActionPlanUpdate = "plan.update"
	ActionPlanDelete = "plan.delete"

	ActionSubscriptionView   = "subscription.view"
	ActionSubscriptionUpdate = "subscription.update"
	ActionSubscriptionExport = "subscription.export"

	ActionScheduleUpdate = "schedule.update"

	ActionStatsView    = "stats.view"
	ActionAuditLogView = "audit_log.view"
)

// Service decides whether an authenticated principal may perform an admin
// action. Ownership checks on user routes live in the feature services.
type Service interface {
	Authorize(ctx context.Context, userID string, role string, object string, action string) error
}

var (
	ErrInvalidActor  = errors.New("invalid_actor")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
	ErrForbidden     = errors.New("forbidden")
)
