package repository

import (
	"context"

	"github.com/smallbiznis/mealplan/internal/payment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return db.WithContext(ctx).Create(payment).Error
}

func (r *repo) FindByProviderPaymentID(ctx context.Context, db *gorm.DB, provider, paymentID string) (*domain.Payment, error) {
	var items []domain.Payment
	err := db.WithContext(ctx).
		Where("provider = ? AND provider_payment_id = ?", provider, paymentID).
		Limit(1).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}
