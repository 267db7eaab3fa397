package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// ListFilter selects a page in created_at desc, id desc order. After* is the
// last row of the previous page.
type ListFilter struct {
	Status         SubscriptionStatus
	AfterCreatedAt *time.Time
	AfterID        snowflake.ID
	Limit          int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, sub *Subscription) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Subscription, error)
	ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]Subscription, error)
	FindOpenByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*Subscription, error)
	FindActiveByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*Subscription, error)
	// Update writes the whole aggregate when the stored revision still equals
	// sub.Revision, then bumps sub.Revision. A lost race yields ErrConcurrentModification.
	Update(ctx context.Context, db *gorm.DB, sub *Subscription) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Subscription, error)
	Stats(ctx context.Context, db *gorm.DB) (Stats, error)
	// ListStalePending returns pending subscriptions created before the
	// cutoff, oldest first.
	ListStalePending(ctx context.Context, db *gorm.DB, createdBefore time.Time, limit int) ([]Subscription, error)
}
