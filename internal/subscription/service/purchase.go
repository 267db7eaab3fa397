package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	addressdomain "github.com/smallbiznis/mealplan/internal/address/domain"
	"github.com/smallbiznis/mealplan/internal/events"
	fooditemdomain "github.com/smallbiznis/mealplan/internal/fooditem/domain"
	paymentdomain "github.com/smallbiznis/mealplan/internal/payment/domain"
	plandomain "github.com/smallbiznis/mealplan/internal/plan/domain"
	"github.com/smallbiznis/mealplan/internal/ratelimit"
	subscriptiondomain "github.com/smallbiznis/mealplan/internal/subscription/domain"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Create validates the purchase, opens a gateway order and stores the
// subscription as pending. The one-open-subscription check is a plain read
// before the insert; two concurrent purchases by the same user can both pass.
func (s *Service) Create(ctx context.Context, userID string, req subscriptiondomain.CreateRequest) (*subscriptiondomain.CreateResponse, error) {
	owner, err := parseID(userID, "userId")
	if err != nil {
		return nil, err
	}
	if s.validate != nil {
		if err := s.validate.Struct(req); err != nil {
			return nil, err
		}
	}

	existing, err := s.repo.FindOpenByUser(ctx, s.db, owner)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &subscriptiondomain.RuleError{
			Err:     subscriptiondomain.ErrActiveSubscriptionExists,
			Message: "active subscription exists: " + existing.ID.String() + " is " + string(existing.Status),
		}
	}

	plan, err := s.plans.GetActive(ctx, req.PlanID)
	if err != nil {
		if errors.Is(err, plandomain.ErrNotFound) {
			return nil, &subscriptiondomain.RuleError{Err: plandomain.ErrNotFound, Field: "planId", Message: "plan " + req.PlanID + " not found"}
		}
		return nil, err
	}
	snapshot := subscriptiondomain.PlanSnapshot{
		Name:         plan.Name,
		Days:         plan.Days,
		ValidityDays: plan.ValidityDays,
		SkipDays:     plan.SkipDays,
		Price:        plan.Price,
		Discount:     plan.Discount,
	}

	dates, err := s.parseDates(req.SelectedDates)
	if err != nil {
		return nil, err
	}

	salad, err := s.foodItems.Get(ctx, req.SaladID)
	if err != nil {
		if errors.Is(err, fooditemdomain.ErrNotFound) || errors.Is(err, fooditemdomain.ErrInvalidID) {
			return nil, &subscriptiondomain.RuleError{Err: subscriptiondomain.ErrSaladNotFound, Field: "saladId", Message: "salad " + req.SaladID + " not found"}
		}
		return nil, err
	}

	details, defaults, err := s.resolveDelivery(ctx, owner, req.DeliveryDetails)
	if err != nil {
		return nil, err
	}

	now := s.now()
	entries, err := subscriptiondomain.BuildSchedule(snapshot, dates, defaults, now, s.cal, s.genID)
	if err != nil {
		s.reject(ctx, "create", err)
		return nil, err
	}

	proteinCost, total, err := req.Customization.Price(snapshot)
	if err != nil {
		s.reject(ctx, "create", err)
		return nil, err
	}

	sub := &subscriptiondomain.Subscription{
		ID:     s.genID.Generate(),
		UserID: owner,

		PlanID:       plan.ID,
		PlanSnapshot: snapshot,

		SaladID: salad.ID,
		SaladSnapshot: subscriptiondomain.SaladSnapshot{
			Name:  salad.Name,
			Image: salad.Image,
			Price: salad.Price,
		},
		Customization:    req.Customization,
		DeliveryDetails:  details,
		DeliverySchedule: datatypes.JSONSlice[subscriptiondomain.ScheduleEntry](entries),

		BasePrice:         plan.Price,
		ProteinAddOnsCost: proteinCost,
		TotalAmount:       total,

		PaymentStatus:   subscriptiondomain.PaymentPending,
		PaymentProvider: s.payments.Provider(),
		Status:          subscriptiondomain.StatusPending,

		CreatedAt: now,
		UpdatedAt: now,
	}
	sub.Project()

	// The order is opened before the row exists so a gateway outage never
	// leaves a pending subscription blocking the next attempt.
	order, err := s.payments.CreateOrder(ctx, paymentdomain.OrderRequest{
		Amount:  total,
		Receipt: "sub_" + sub.ID.String(),
		Notes: map[string]string{
			"subscriptionId": sub.ID.String(),
			"userId":         owner.String(),
			"planName":       plan.Name,
		},
		Customer: &paymentdomain.Customer{Name: details.Name, Phone: details.Phone},
	})
	if err != nil {
		return nil, err
	}
	sub.ProviderOrderID = order.ID
	if order.Provider != "" {
		sub.PaymentProvider = order.Provider
	}

	if err := s.repo.Insert(ctx, s.db, sub); err != nil {
		return nil, err
	}

	s.log.Info("subscription created",
		zap.String("subscription_id", sub.ID.String()),
		zap.String("user_id", owner.String()),
		zap.String("plan_id", plan.ID.String()),
		zap.Int64("total_amount", total),
		zap.String("order_id", order.ID),
	)
	s.metrics.RecordSubscriptionCreated(ctx, plan.Days)
	actor := owner.String()
	s.auditLog(ctx, "user", &actor, "subscription.create", sub, map[string]any{
		"plan_id":      plan.ID.String(),
		"total_amount": total,
		"order_id":     order.ID,
	})
	s.publish(ctx, events.SubscriptionCreated, sub, map[string]any{
		"plan_id":      plan.ID.String(),
		"total_amount": total,
	})

	return &subscriptiondomain.CreateResponse{
		Subscription: subscriptiondomain.ToResponse(sub),
		Order: subscriptiondomain.PaymentOrder{
			Provider:    sub.PaymentProvider,
			ID:          order.ID,
			Amount:      order.Amount,
			Currency:    order.Currency,
			Key:         order.Key,
			RedirectURL: order.RedirectURL,
		},
	}, nil
}

// ConfirmPayment verifies the gateway proof and activates the subscription.
// The payment row and the activation commit together.
func (s *Service) ConfirmPayment(ctx context.Context, userID string, req subscriptiondomain.ConfirmPaymentRequest) (*subscriptiondomain.SubscriptionResponse, error) {
	owner, err := parseID(userID, "userId")
	if err != nil {
		return nil, err
	}
	if s.validate != nil {
		if err := s.validate.Struct(req); err != nil {
			return nil, err
		}
	}
	subID, err := parseID(req.SubscriptionID, "subscriptionId")
	if err != nil {
		return nil, err
	}

	proof := paymentdomain.Proof{
		OrderID:     strings.TrimSpace(req.OrderID),
		PaymentID:   strings.TrimSpace(req.PaymentID),
		Signature:   strings.TrimSpace(req.Signature),
		StatusCode:  strings.TrimSpace(req.StatusCode),
		GrossAmount: strings.TrimSpace(req.GrossAmount),
	}
	if !s.payments.VerifySignature(ctx, proof) {
		s.metrics.RecordPaymentEvent(ctx, s.payments.Provider(), "signature_rejected")
		return nil, &subscriptiondomain.RuleError{
			Err:     subscriptiondomain.ErrInvalidSignature,
			Field:   "signature",
			Message: "payment signature does not match order " + proof.OrderID,
		}
	}

	release, err := s.confirmLock.LockPaymentConfirmation(ctx, subID.String())
	if errors.Is(err, ratelimit.ErrLockHeld) {
		return nil, &subscriptiondomain.RuleError{
			Err:     subscriptiondomain.ErrConfirmationInProgress,
			Message: "payment for subscription " + subID.String() + " is already being confirmed",
		}
	}
	if err != nil {
		return nil, err
	}
	defer release()

	sub, err := s.load(ctx, subID)
	if err != nil {
		return nil, err
	}
	if sub.UserID != owner {
		return nil, &subscriptiondomain.RuleError{
			Err:     subscriptiondomain.ErrNotOwned,
			Message: "subscription " + subID.String() + " belongs to another user",
		}
	}
	if sub.ProviderOrderID == "" || sub.ProviderOrderID != proof.OrderID {
		return nil, &subscriptiondomain.RuleError{
			Err:     subscriptiondomain.ErrOrderMismatch,
			Field:   "orderId",
			Message: "order " + proof.OrderID + " does not belong to subscription " + subID.String(),
		}
	}

	now := s.now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := sub.Activate(subscriptiondomain.PaymentConfirmation{
			Provider:  s.payments.Provider(),
			OrderID:   proof.OrderID,
			PaymentID: proof.PaymentID,
			Signature: proof.Signature,
		}, now, s.cal); err != nil {
			return err
		}

		paidAt := now
		if err := s.payments.Record(ctx, tx, &paymentdomain.Payment{
			ID:                s.genID.Generate(),
			UserID:            owner,
			SubscriptionID:    sub.ID,
			Provider:          sub.PaymentProvider,
			Amount:            sub.TotalAmount,
			Status:            paymentdomain.StatusCaptured,
			ProviderOrderID:   proof.OrderID,
			ProviderPaymentID: proof.PaymentID,
			ProviderSignature: proof.Signature,
			PaidAt:            &paidAt,
			CreatedAt:         now,
			UpdatedAt:         now,
		}); err != nil {
			return err
		}

		return s.save(ctx, tx, sub)
	})
	if err != nil {
		if errors.Is(err, paymentdomain.ErrDuplicatePayment) {
			return nil, &subscriptiondomain.RuleError{
				Err:     subscriptiondomain.ErrConcurrentModification,
				Message: "payment " + proof.PaymentID + " was already recorded",
			}
		}
		return nil, err
	}

	s.log.Info("subscription activated",
		zap.String("subscription_id", sub.ID.String()),
		zap.String("payment_id", proof.PaymentID),
		zap.Time("start_date", *sub.StartDate),
		zap.Time("end_date", *sub.EndDate),
	)
	s.metrics.RecordPaymentEvent(ctx, sub.PaymentProvider, "captured")
	actor := owner.String()
	s.auditLog(ctx, "user", &actor, "subscription.activate", sub, map[string]any{
		"order_id":           proof.OrderID,
		"payment_id":         proof.PaymentID,
		"provider_signature": proof.Signature,
	})
	s.publish(ctx, events.SubscriptionActivated, sub, map[string]any{
		"start_date": s.cal.FormatDay(*sub.StartDate),
		"end_date":   s.cal.FormatDay(*sub.EndDate),
	})

	resp := subscriptiondomain.ToResponse(sub)
	return &resp, nil
}

func (s *Service) parseDates(raw []string) ([]time.Time, error) {
	dates := make([]time.Time, 0, len(raw))
	for _, value := range raw {
		day, err := s.cal.ParseDay(strings.TrimSpace(value))
		if err != nil {
			return nil, &subscriptiondomain.RuleError{
				Err:     subscriptiondomain.ErrInvalidRequest,
				Field:   "selectedDates",
				Message: "invalid date " + value,
			}
		}
		dates = append(dates, day)
	}
	return dates, nil
}

// resolveDelivery turns the delivery input into stored details. A saved
// address reference wins over free text and must belong to the buyer.
func (s *Service) resolveDelivery(ctx context.Context, owner snowflake.ID, in subscriptiondomain.DeliveryDetailsInput) (subscriptiondomain.DeliveryDetails, subscriptiondomain.ScheduleDefaults, error) {
	details := subscriptiondomain.DeliveryDetails{
		Name:         strings.TrimSpace(in.Name),
		Phone:        strings.TrimSpace(in.Phone),
		Address:      strings.TrimSpace(in.Address),
		DeliveryTime: strings.TrimSpace(in.DeliveryTime),
	}
	defaults := subscriptiondomain.ScheduleDefaults{
		TimeSlot: details.DeliveryTime,
		Address:  details.Address,
	}

	rawID := strings.TrimSpace(in.AddressID)
	if rawID == "" {
		if details.Address == "" {
			return details, defaults, &subscriptiondomain.RuleError{
				Err:     subscriptiondomain.ErrInvalidAddress,
				Field:   "deliveryDetails.address",
				Message: "a delivery address or saved address id is required",
			}
		}
		return details, defaults, nil
	}

	resolved, err := s.lookupAddress(ctx, owner)(parseAddressID(rawID))
	if err != nil {
		if subscriptiondomain.IsValidation(err) {
			return details, defaults, &subscriptiondomain.RuleError{
				Err:     subscriptiondomain.ErrInvalidAddress,
				Field:   "deliveryDetails.addressId",
				Message: "address " + rawID + " could not be resolved",
			}
		}
		return details, defaults, err
	}

	id := resolved.ID
	details.Address = resolved.FullText
	details.AddressID = &id
	defaults.Address = resolved.FullText
	defaults.AddressID = &id
	defaults.Lat = resolved.Lat
	defaults.Lng = resolved.Lng
	return details, defaults, nil
}

// lookupAddress adapts the address collaborator to the ledger's lookup. A
// missing or foreign address becomes ErrInvalidAddress.
func (s *Service) lookupAddress(ctx context.Context, owner snowflake.ID) subscriptiondomain.AddressLookup {
	return func(id snowflake.ID) (subscriptiondomain.ResolvedAddress, error) {
		if id == 0 {
			return subscriptiondomain.ResolvedAddress{}, subscriptiondomain.ErrInvalidAddress
		}
		resolved, err := s.addresses.Resolve(ctx, owner, id)
		if err != nil {
			if errors.Is(err, addressdomain.ErrNotFound) {
				return subscriptiondomain.ResolvedAddress{}, subscriptiondomain.ErrInvalidAddress
			}
			return subscriptiondomain.ResolvedAddress{}, err
		}
		return subscriptiondomain.ResolvedAddress{
			ID:       resolved.ID,
			FullText: resolved.FullText,
			Lat:      resolved.Lat,
			Lng:      resolved.Lng,
		}, nil
	}
}

// parseAddressID yields 0 for malformed ids so the lookup rejects them.
func parseAddressID(raw string) snowflake.ID {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return id
}
