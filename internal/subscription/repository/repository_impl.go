package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	subscriptiondomain "github.com/smallbiznis/mealplan/internal/subscription/domain"
	"gorm.io/gorm"
)

// updatableColumns is everything a ledger or lifecycle change may touch.
var updatableColumns = []string{
	"delivery_schedule",
	"deliveries_completed",
	"skips_used",
	"payment_status",
	"payment_provider",
	"provider_order_id",
	"provider_payment_id",
	"provider_signature",
	"paid_at",
	"status",
	"start_date",
	"end_date",
	"admin_notes",
	"revision",
	"updated_at",
}

type repo struct{}

func Provide() subscriptiondomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, sub *subscriptiondomain.Subscription) error {
	return db.WithContext(ctx).Create(sub).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*subscriptiondomain.Subscription, error) {
	var sub subscriptiondomain.Subscription
	err := db.WithContext(ctx).Where("id = ?", id).First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (r *repo) ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]subscriptiondomain.Subscription, error) {
	var items []subscriptiondomain.Subscription
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindOpenByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*subscriptiondomain.Subscription, error) {
	return r.findLatest(ctx, db, "user_id = ? AND status IN ?", userID,
		[]subscriptiondomain.SubscriptionStatus{subscriptiondomain.StatusPending, subscriptiondomain.StatusActive})
}

func (r *repo) FindActiveByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*subscriptiondomain.Subscription, error) {
	return r.findLatest(ctx, db, "user_id = ? AND status = ?", userID, subscriptiondomain.StatusActive)
}

func (r *repo) findLatest(ctx context.Context, db *gorm.DB, query string, args ...any) (*subscriptiondomain.Subscription, error) {
	var items []subscriptiondomain.Subscription
	err := db.WithContext(ctx).
		Where(query, args...).
		Order("created_at DESC").
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

func (r *repo) Update(ctx context.Context, db *gorm.DB, sub *subscriptiondomain.Subscription) error {
	expected := sub.Revision
	next := *sub
	next.Revision = expected + 1

	res := db.WithContext(ctx).
		Model(&subscriptiondomain.Subscription{ID: sub.ID}).
		Where("revision = ?", expected).
		Select(updatableColumns).
		Updates(&next)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return subscriptiondomain.ErrConcurrentModification
	}
	sub.Revision = next.Revision
	return nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter subscriptiondomain.ListFilter) ([]subscriptiondomain.Subscription, error) {
	stmt := db.WithContext(ctx).Model(&subscriptiondomain.Subscription{})
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.AfterCreatedAt != nil {
		stmt = stmt.Where("(created_at < ? OR (created_at = ? AND id < ?))",
			*filter.AfterCreatedAt, *filter.AfterCreatedAt, filter.AfterID)
	}
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit)
	}

	var items []subscriptiondomain.Subscription
	if err := stmt.Order("created_at DESC").Order("id DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListStalePending(ctx context.Context, db *gorm.DB, createdBefore time.Time, limit int) ([]subscriptiondomain.Subscription, error) {
	stmt := db.WithContext(ctx).
		Where("status = ? AND created_at < ?", subscriptiondomain.StatusPending, createdBefore).
		Order("created_at ASC").
		Order("id ASC")
	if limit > 0 {
		stmt = stmt.Limit(limit)
	}

	var items []subscriptiondomain.Subscription
	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Stats(ctx context.Context, db *gorm.DB) (subscriptiondomain.Stats, error) {
	var stats subscriptiondomain.Stats
	err := db.WithContext(ctx).Raw(
		`SELECT
			COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS active,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS pending,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS completed,
			COALESCE(SUM(CASE WHEN payment_status = ? THEN total_amount ELSE 0 END), 0) AS revenue
		 FROM meal_subscriptions`,
		subscriptiondomain.StatusActive,
		subscriptiondomain.StatusPending,
		subscriptiondomain.StatusCompleted,
		subscriptiondomain.PaymentPaid,
	).Scan(&stats).Error
	if err != nil {
		return subscriptiondomain.Stats{}, err
	}
	return stats, nil
}
