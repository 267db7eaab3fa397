package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/mealplan/internal/events"
	subscriptiondomain "github.com/smallbiznis/mealplan/internal/subscription/domain"
	"go.uber.org/zap"
)

// Reschedule applies an owner's change to one schedule entry. The ledger and
// its recounted totals are written in one revision-guarded update.
func (s *Service) Reschedule(ctx context.Context, userID, subscriptionID, entryID string, req subscriptiondomain.RescheduleRequest) (*subscriptiondomain.SubscriptionResponse, error) {
	owner, err := parseID(userID, "userId")
	if err != nil {
		return nil, err
	}
	subID, err := parseID(subscriptionID, "id")
	if err != nil {
		return nil, err
	}
	entry, err := parseID(entryID, "scheduleId")
	if err != nil {
		return nil, err
	}

	change, err := s.parseChange(req)
	if err != nil {
		return nil, err
	}

	sub, err := s.loadOwned(ctx, owner, subID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var before time.Time
	if idx := indexOf(sub, entry); idx >= 0 {
		before = sub.DeliverySchedule[idx].Date
	}
	updated, err := sub.Reschedule(entry, change, s.lookupAddress(ctx, owner), now, s.cal, s.cutoff())
	if err != nil {
		s.reject(ctx, "reschedule", err)
		return nil, err
	}
	sub.UpdatedAt = now

	if err := s.save(ctx, s.db, sub); err != nil {
		s.reject(ctx, "reschedule", err)
		return nil, err
	}

	s.log.Info("schedule entry updated",
		zap.String("subscription_id", sub.ID.String()),
		zap.String("entry_id", updated.ID.String()),
		zap.String("date", s.cal.FormatDay(updated.Date)),
		zap.String("status", string(updated.Status)),
	)
	s.metrics.RecordScheduleMutation(ctx, "reschedule")
	actor := owner.String()
	metadata := map[string]any{
		"entry_id":      updated.ID.String(),
		"previous_date": s.cal.FormatDay(before),
		"date":          s.cal.FormatDay(updated.Date),
		"time_slot":     updated.TimeSlot,
		"entry_status":  string(updated.Status),
	}
	s.auditLog(ctx, "user", &actor, "subscription.schedule.update", sub, metadata)
	s.publish(ctx, events.SubscriptionScheduleUpdated, sub, metadata)

	resp := subscriptiondomain.ToResponse(sub)
	return &resp, nil
}

// AdminSetEntryStatus records a delivery outcome. No cutoff applies and the
// subscription status is not checked.
func (s *Service) AdminSetEntryStatus(ctx context.Context, subscriptionID, entryID string, req subscriptiondomain.SetEntryStatusRequest) (*subscriptiondomain.SubscriptionResponse, error) {
	subID, err := parseID(subscriptionID, "id")
	if err != nil {
		return nil, err
	}
	entry, err := parseID(entryID, "scheduleId")
	if err != nil {
		return nil, err
	}

	sub, err := s.load(ctx, subID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	status := subscriptiondomain.EntryStatus(strings.ToLower(strings.TrimSpace(string(req.Status))))
	updated, err := sub.SetEntryStatus(entry, status, now)
	if err != nil {
		s.reject(ctx, "entry_status", err)
		return nil, err
	}
	sub.UpdatedAt = now

	if err := s.save(ctx, s.db, sub); err != nil {
		s.reject(ctx, "entry_status", err)
		return nil, err
	}

	s.log.Info("schedule entry status set",
		zap.String("subscription_id", sub.ID.String()),
		zap.String("entry_id", updated.ID.String()),
		zap.String("status", string(updated.Status)),
		zap.Int("deliveries_completed", sub.DeliveriesCompleted),
		zap.Int("skips_used", sub.SkipsUsed),
	)
	s.metrics.RecordScheduleMutation(ctx, "entry_status")
	metadata := map[string]any{
		"entry_id":             updated.ID.String(),
		"entry_status":         string(updated.Status),
		"deliveries_completed": sub.DeliveriesCompleted,
		"skips_used":           sub.SkipsUsed,
	}
	s.auditLog(ctx, "", nil, "subscription.schedule.status", sub, metadata)
	s.publish(ctx, events.SubscriptionEntryStatusUpdated, sub, metadata)

	resp := subscriptiondomain.ToResponse(sub)
	return &resp, nil
}

// AdminSetStatus overwrites the lifecycle status without a transition check.
func (s *Service) AdminSetStatus(ctx context.Context, subscriptionID string, req subscriptiondomain.SetStatusRequest) (*subscriptiondomain.SubscriptionResponse, error) {
	subID, err := parseID(subscriptionID, "id")
	if err != nil {
		return nil, err
	}

	sub, err := s.load(ctx, subID)
	if err != nil {
		return nil, err
	}

	previous := sub.Status
	now := s.now()
	status := subscriptiondomain.SubscriptionStatus(strings.ToLower(strings.TrimSpace(string(req.Status))))
	if err := sub.SetStatus(status, req.AdminNotes, now); err != nil {
		return nil, err
	}

	if err := s.save(ctx, s.db, sub); err != nil {
		return nil, err
	}

	s.log.Info("subscription status set",
		zap.String("subscription_id", sub.ID.String()),
		zap.String("from", string(previous)),
		zap.String("to", string(sub.Status)),
	)
	metadata := map[string]any{
		"previous_status": string(previous),
		"status":          string(sub.Status),
	}
	s.auditLog(ctx, "", nil, "subscription.status.update", sub, metadata)
	s.publish(ctx, events.SubscriptionStatusUpdated, sub, metadata)

	resp := subscriptiondomain.ToResponse(sub)
	return &resp, nil
}

func (s *Service) parseChange(req subscriptiondomain.RescheduleRequest) (subscriptiondomain.ScheduleChange, error) {
	var change subscriptiondomain.ScheduleChange
	if req.Date != nil {
		day, err := s.cal.ParseDay(strings.TrimSpace(*req.Date))
		if err != nil {
			return change, &subscriptiondomain.RuleError{
				Err:     subscriptiondomain.ErrInvalidRequest,
				Field:   "date",
				Message: "invalid date " + *req.Date,
			}
		}
		change.Date = &day
	}
	if req.Time != nil {
		slot := strings.TrimSpace(*req.Time)
		if slot == "" {
			return change, &subscriptiondomain.RuleError{
				Err:     subscriptiondomain.ErrInvalidRequest,
				Field:   "time",
				Message: "time slot must not be empty",
			}
		}
		change.TimeSlot = &slot
	}
	if req.AddressID != nil {
		id := parseAddressID(*req.AddressID)
		change.AddressID = &id
	}
	if change.Empty() {
		return change, &subscriptiondomain.RuleError{
			Err:     subscriptiondomain.ErrInvalidRequest,
			Message: "nothing to change: provide date, time or addressId",
		}
	}
	return change, nil
}

func indexOf(sub *subscriptiondomain.Subscription, id snowflake.ID) int {
	for i := range sub.DeliverySchedule {
		if sub.DeliverySchedule[i].ID == id {
			return i
		}
	}
	return -1
}
