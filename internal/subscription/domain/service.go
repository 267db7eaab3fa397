package domain

import (
	"context"
	"io"
	"time"

	"github.com/smallbiznis/mealplan/pkg/db/pagination"
)

type DeliveryDetailsInput struct {
	Name         string `json:"name" validate:"required"`
	Phone        string `json:"phone" validate:"required"`
	Address      string `json:"address"`
	AddressID    string `json:"addressId"`
	DeliveryTime string `json:"deliveryTime" validate:"required"`
}

type CreateRequest struct {
	PlanID          string               `json:"planId" validate:"required"`
	SaladID         string               `json:"saladId" validate:"required"`
	Customization   Customization        `json:"customization"`
	DeliveryDetails DeliveryDetailsInput `json:"deliveryDetails" validate:"required"`
	SelectedDates   []string             `json:"selectedDates" validate:"required,min=1,dive,required"`
}

// PaymentOrder is what the client needs to open the gateway checkout.
type PaymentOrder struct {
	Provider    string `json:"provider"`
	ID          string `json:"id"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Key         string `json:"key,omitempty"`
	RedirectURL string `json:"redirectUrl,omitempty"`
}

type CreateResponse struct {
	Subscription SubscriptionResponse `json:"subscription"`
	Order        PaymentOrder         `json:"order"`
}

// ConfirmPaymentRequest carries the gateway proof. StatusCode and GrossAmount
// are only used by providers that sign them.
type ConfirmPaymentRequest struct {
	SubscriptionID string `json:"subscriptionId" validate:"required"`
	OrderID        string `json:"orderId" validate:"required"`
	PaymentID      string `json:"paymentId" validate:"required"`
	Signature      string `json:"signature" validate:"required"`
	StatusCode     string `json:"statusCode,omitempty"`
	GrossAmount    string `json:"grossAmount,omitempty"`
}

type RescheduleRequest struct {
	Date      *string `json:"date"`
	Time      *string `json:"time"`
	AddressID *string `json:"addressId"`
}

type SetStatusRequest struct {
	Status     SubscriptionStatus `json:"status" validate:"required"`
	AdminNotes *string            `json:"adminNotes"`
}

type SetEntryStatusRequest struct {
	Status EntryStatus `json:"status" validate:"required"`
}

type AdminListRequest struct {
	Status    string
	PageToken string
	PageSize  int
}

type AdminListResponse struct {
	Subscriptions []SubscriptionResponse `json:"subscriptions"`
	PageInfo      pagination.PageInfo    `json:"page_info"`
}

type SubscriptionResponse struct {
	ID                  string             `json:"id"`
	UserID              string             `json:"userId"`
	PlanID              string             `json:"planId"`
	PlanSnapshot        PlanSnapshot       `json:"planSnapshot"`
	SaladID             string             `json:"saladId"`
	SaladSnapshot       SaladSnapshot      `json:"saladSnapshot"`
	Customization       Customization      `json:"customization"`
	DeliveryDetails     DeliveryDetails    `json:"deliveryDetails"`
	DeliverySchedule    []ScheduleEntry    `json:"deliverySchedule"`
	BasePrice           int64              `json:"basePrice"`
	ProteinAddOnsCost   int64              `json:"proteinAddOnsCost"`
	TotalAmount         int64              `json:"totalAmount"`
	PaymentStatus       PaymentStatus      `json:"paymentStatus"`
	PaymentProvider     string             `json:"paymentProvider,omitempty"`
	ProviderOrderID     string             `json:"providerOrderId,omitempty"`
	PaidAt              *time.Time         `json:"paidAt,omitempty"`
	Status              SubscriptionStatus `json:"status"`
	StartDate           *time.Time         `json:"startDate,omitempty"`
	EndDate             *time.Time         `json:"endDate,omitempty"`
	DeliveriesCompleted int                `json:"deliveriesCompleted"`
	SkipsUsed           int                `json:"skipsUsed"`
	RemainingDeliveries int                `json:"remainingDeliveries"`
	RemainingSkips      int                `json:"remainingSkips"`
	AdminNotes          string             `json:"adminNotes,omitempty"`
	CreatedAt           time.Time          `json:"createdAt"`
	UpdatedAt           time.Time          `json:"updatedAt"`
}

type ActiveResponse struct {
	HasActive    bool                  `json:"hasActive"`
	Subscription *SubscriptionResponse `json:"subscription,omitempty"`
}

type Stats struct {
	Total     int64 `json:"total"`
	Active    int64 `json:"active"`
	Pending   int64 `json:"pending"`
	Completed int64 `json:"completed"`
	Revenue   int64 `json:"revenue"`
}

type Service interface {
	Create(ctx context.Context, userID string, req CreateRequest) (*CreateResponse, error)
	ConfirmPayment(ctx context.Context, userID string, req ConfirmPaymentRequest) (*SubscriptionResponse, error)
	Reschedule(ctx context.Context, userID, subscriptionID, entryID string, req RescheduleRequest) (*SubscriptionResponse, error)
	ListMine(ctx context.Context, userID string) ([]SubscriptionResponse, error)
	Get(ctx context.Context, userID, subscriptionID string) (*SubscriptionResponse, error)
	GetActive(ctx context.Context, userID string) (*ActiveResponse, error)

	AdminList(ctx context.Context, req AdminListRequest) (*AdminListResponse, error)
	AdminGet(ctx context.Context, subscriptionID string) (*SubscriptionResponse, error)
	AdminSetStatus(ctx context.Context, subscriptionID string, req SetStatusRequest) (*SubscriptionResponse, error)
	AdminSetEntryStatus(ctx context.Context, subscriptionID, entryID string, req SetEntryStatusRequest) (*SubscriptionResponse, error)
	Stats(ctx context.Context) (*Stats, error)
	// ScheduleManifest renders the schedule as a printable PDF.
	ScheduleManifest(ctx context.Context, subscriptionID string) (io.Reader, error)

	// ExpirePending cancels up to limit unpaid subscriptions created before
	// createdBefore and reports how many were cancelled.
	ExpirePending(ctx context.Context, createdBefore time.Time, limit int) (int, error)
}

// ToResponse builds the read projection, including the derived remaining counts.
func ToResponse(s *Subscription) SubscriptionResponse {
	schedule := make([]ScheduleEntry, len(s.DeliverySchedule))
	copy(schedule, s.DeliverySchedule)
	return SubscriptionResponse{
		ID:                  s.ID.String(),
		UserID:              s.UserID.String(),
		PlanID:              s.PlanID.String(),
		PlanSnapshot:        s.PlanSnapshot,
		SaladID:             s.SaladID.String(),
		SaladSnapshot:       s.SaladSnapshot,
		Customization:       s.Customization,
		DeliveryDetails:     s.DeliveryDetails,
		DeliverySchedule:    schedule,
		BasePrice:           s.BasePrice,
		ProteinAddOnsCost:   s.ProteinAddOnsCost,
		TotalAmount:         s.TotalAmount,
		PaymentStatus:       s.PaymentStatus,
		PaymentProvider:     s.PaymentProvider,
		ProviderOrderID:     s.ProviderOrderID,
		PaidAt:              s.PaidAt,
		Status:              s.Status,
		StartDate:           s.StartDate,
		EndDate:             s.EndDate,
		DeliveriesCompleted: s.DeliveriesCompleted,
		SkipsUsed:           s.SkipsUsed,
		RemainingDeliveries: s.RemainingDeliveries(),
		RemainingSkips:      s.RemainingSkips(),
		AdminNotes:          s.AdminNotes,
		CreatedAt:           s.CreatedAt,
		UpdatedAt:           s.UpdatedAt,
	}
}
