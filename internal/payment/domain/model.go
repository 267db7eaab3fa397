// Package domain contains payment records and the gateway abstraction.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Status string

const (
	StatusCaptured Status = "captured"
	StatusFailed   Status = "failed"
	StatusRefunded Status = "refunded"
)

// Payment is the immutable record of one confirmed gateway payment.
type Payment struct {
	ID                snowflake.ID      `json:"id" gorm:"primaryKey"`
	UserID            snowflake.ID      `json:"user_id" gorm:"not null;index"`
	SubscriptionID    snowflake.ID      `json:"subscription_id" gorm:"not null;index"`
	Provider          string            `json:"provider" gorm:"type:text;not null;uniqueIndex:ux_payments_provider_payment"`
	Method            string            `json:"method" gorm:"type:text"`
	Amount            int64             `json:"amount" gorm:"not null"`
	Currency          string            `json:"currency" gorm:"type:text;not null"`
	Status            Status            `json:"status" gorm:"type:text;not null"`
	ProviderOrderID   string            `json:"provider_order_id" gorm:"type:text;not null;index"`
	ProviderPaymentID string            `json:"provider_payment_id" gorm:"type:text;not null;uniqueIndex:ux_payments_provider_payment"`
	ProviderSignature string            `json:"-" gorm:"type:text"`
	GatewayResponse   datatypes.JSONMap `json:"gateway_response,omitempty" gorm:"type:json"`
	PaidAt            *time.Time        `json:"paid_at"`
	CreatedAt         time.Time         `json:"created_at" gorm:"not null;autoCreateTime:false"`
	UpdatedAt         time.Time         `json:"updated_at" gorm:"not null;autoUpdateTime:false"`
}

func (Payment) TableName() string { return "payments" }

// OrderRequest is a gateway order for an amount in minor units.
type OrderRequest struct {
	Amount   int64
	Currency string
	Receipt  string
	Notes    map[string]string
	Customer *Customer
}

type Customer struct {
	Name  string
	Phone string
}

// Order is the gateway's answer. Key is the public key the checkout needs;
// RedirectURL is set by hosted-page providers.
type Order struct {
	Provider    string
	ID          string
	Amount      int64
	Currency    string
	Key         string
	RedirectURL string
}

// Proof is what the client sends back after checkout. StatusCode and
// GrossAmount are only signed by some providers.
type Proof struct {
	OrderID     string
	PaymentID   string
	Signature   string
	StatusCode  string
	GrossAmount string
}

// AdapterConfig carries provider credentials.
type AdapterConfig struct {
	KeyID       string
	KeySecret   string
	BaseURL     string
	Environment string
}
