// Package domain contains the meal subscription aggregate and its delivery schedule.
package domain

import (
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// SubscriptionStatus represents lifecycle states for a subscription.
type SubscriptionStatus string

const (
	StatusPending   SubscriptionStatus = "pending"
	StatusActive    SubscriptionStatus = "active"
	StatusPaused    SubscriptionStatus = "paused"
	StatusCompleted SubscriptionStatus = "completed"
	StatusCancelled SubscriptionStatus = "cancelled"
	StatusRefunded  SubscriptionStatus = "refunded"
)

func (s SubscriptionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusPaused, StatusCompleted, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// EntryStatus is the delivery outcome of one schedule entry.
type EntryStatus string

const (
	EntryScheduled   EntryStatus = "scheduled"
	EntryDelivered   EntryStatus = "delivered"
	EntrySkipped     EntryStatus = "skipped"
	EntryRescheduled EntryStatus = "rescheduled"
)

func (s EntryStatus) Valid() bool {
	switch s {
	case EntryScheduled, EntryDelivered, EntrySkipped, EntryRescheduled:
		return true
	}
	return false
}

// PlanSnapshot freezes the plan terms at purchase time.
type PlanSnapshot struct {
	Name         string `json:"name"`
	Days         int    `json:"days"`
	ValidityDays int    `json:"validityDays"`
	SkipDays     int    `json:"skipDays"`
	Price        int64  `json:"price"`
	Discount     int    `json:"discount"`
}

type SaladSnapshot struct {
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
	Price int64  `json:"price"`
}

type ProteinAddOn struct {
	Name  string `json:"name" validate:"required"`
	Price int64  `json:"price" validate:"gte=0"`
}

type Customization struct {
	SelectedVeggies     []string       `json:"selectedVeggies,omitempty"`
	SelectedProteins    []ProteinAddOn `json:"selectedProteins,omitempty" validate:"omitempty,dive"`
	RemovedIngredients  []string       `json:"removedIngredients,omitempty"`
	SpecialInstructions string         `json:"specialInstructions,omitempty"`
}

// ProteinCost is the per-delivery add-on cost.
func (c Customization) ProteinCost() int64 {
	var total int64
	for _, p := range c.SelectedProteins {
		total += p.Price
	}
	return total
}

// Price returns the per-delivery add-on cost and the order total for plan.
// Add-ons can only raise the total above the plan price.
func (c Customization) Price(plan PlanSnapshot) (protein int64, total int64, err error) {
	for i, p := range c.SelectedProteins {
		if p.Price < 0 {
			return 0, 0, ruleError(ErrInvalidAmount, fmt.Sprintf("customization.selectedProteins[%d].price", i),
				"protein %q has negative price %d", p.Name, p.Price)
		}
	}
	protein = c.ProteinCost()
	total = plan.Price + protein*int64(plan.Days)
	if total < plan.Price {
		return 0, 0, ruleError(ErrInvalidAmount, "customization.selectedProteins",
			"total %d is below the plan price %d", total, plan.Price)
	}
	return protein, total, nil
}

type DeliveryDetails struct {
	Name         string        `json:"name"`
	Phone        string        `json:"phone"`
	Address      string        `json:"address"`
	AddressID    *snowflake.ID `json:"addressId,omitempty"`
	DeliveryTime string        `json:"deliveryTime"`
}

// ScheduleEntry is one delivery occurrence. Date is always midnight in the delivery time zone.
type ScheduleEntry struct {
	ID         snowflake.ID  `json:"id"`
	Date       time.Time     `json:"date"`
	TimeSlot   string        `json:"timeSlot"`
	Address    string        `json:"address"`
	AddressID  *snowflake.ID `json:"addressId,omitempty"`
	AddressLat *float64      `json:"addressLat,omitempty"`
	AddressLng *float64      `json:"addressLng,omitempty"`
	Status     EntryStatus   `json:"status"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

// Subscription is the aggregate root. The schedule lives on the same row so a
// ledger change and its counters are always written together.
type Subscription struct {
	ID     snowflake.ID `gorm:"primaryKey"`
	UserID snowflake.ID `gorm:"column:user_id;not null;index"`

	PlanID       snowflake.ID `gorm:"column:plan_id;not null"`
	PlanSnapshot PlanSnapshot `gorm:"column:plan_snapshot;type:json;serializer:json;not null"`

	SaladID         snowflake.ID    `gorm:"column:salad_id;not null"`
	SaladSnapshot   SaladSnapshot   `gorm:"column:salad_snapshot;type:json;serializer:json;not null"`
	Customization   Customization   `gorm:"column:customization;type:json;serializer:json"`
	DeliveryDetails DeliveryDetails `gorm:"column:delivery_details;type:json;serializer:json;not null"`

	DeliverySchedule datatypes.JSONSlice[ScheduleEntry] `gorm:"column:delivery_schedule;type:json;not null"`

	BasePrice         int64 `gorm:"column:base_price;not null"`
	ProteinAddOnsCost int64 `gorm:"column:protein_add_ons_cost;not null;default:0"`
	TotalAmount       int64 `gorm:"column:total_amount;not null"`

	PaymentStatus     PaymentStatus `gorm:"column:payment_status;type:text;not null"`
	PaymentProvider   string        `gorm:"column:payment_provider;type:text"`
	ProviderOrderID   string        `gorm:"column:provider_order_id;type:text;index"`
	ProviderPaymentID string        `gorm:"column:provider_payment_id;type:text"`
	ProviderSignature string        `gorm:"column:provider_signature;type:text"`
	PaidAt            *time.Time    `gorm:"column:paid_at"`

	Status    SubscriptionStatus `gorm:"column:status;type:text;not null;index"`
	StartDate *time.Time         `gorm:"column:start_date"`
	EndDate   *time.Time         `gorm:"column:end_date"`

	DeliveriesCompleted int `gorm:"column:deliveries_completed;not null;default:0"`
	SkipsUsed           int `gorm:"column:skips_used;not null;default:0"`

	AdminNotes string `gorm:"column:admin_notes;type:text"`
	Revision   int64  `gorm:"column:revision;not null;default:0"`

	CreatedAt time.Time `gorm:"not null;index;autoCreateTime:false"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime:false"`
}

// TableName sets the database table name.
func (Subscription) TableName() string { return "meal_subscriptions" }

// RemainingDeliveries is derived at read time and never stored.
func (s *Subscription) RemainingDeliveries() int {
	return s.PlanSnapshot.Days - s.DeliveriesCompleted
}

func (s *Subscription) RemainingSkips() int {
	return s.PlanSnapshot.SkipDays - s.SkipsUsed
}

func (s *Subscription) entryIndex(id snowflake.ID) int {
	for i := range s.DeliverySchedule {
		if s.DeliverySchedule[i].ID == id {
			return i
		}
	}
	return -1
}
