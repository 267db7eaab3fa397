package domain

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Gateway is one payment provider.
type Gateway interface {
	Provider() string
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)
	VerifySignature(proof Proof) bool
}

type AdapterFactory interface {
	Provider() string
	NewAdapter(cfg AdapterConfig) (Gateway, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, payment *Payment) error
	FindByProviderPaymentID(ctx context.Context, db *gorm.DB, provider, paymentID string) (*Payment, error)
}

//go:generate mockgen -source=service.go -destination=./mocks/mock_service.go -package=mocks
type Service interface {
	Provider() string
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)
	VerifySignature(ctx context.Context, proof Proof) bool
	// Record persists the payment inside the caller's transaction.
	Record(ctx context.Context, tx *gorm.DB, payment *Payment) error
}

var (
	ErrProviderNotFound = errors.New("payment_provider_not_found")
	ErrInvalidConfig    = errors.New("payment_provider_invalid_config")
	ErrInvalidOrder     = errors.New("invalid_payment_order")
	ErrDuplicatePayment = errors.New("payment_already_recorded")
	// ErrProviderUnavailable marks transient gateway failures. It is not a
	// business rejection and is never retried here.
	ErrProviderUnavailable = errors.New("provider_unavailable")
)
