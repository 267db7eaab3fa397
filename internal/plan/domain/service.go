package domain

import (
	"context"
	"errors"
	"time"
)

type CreateRequest struct {
	Name         string   `json:"name" validate:"required,max=120"`
	Days         int      `json:"days" validate:"required,gte=1,lte=365"`
	ValidityDays int      `json:"validityDays" validate:"required,gte=1,lte=730"`
	SkipDays     *int     `json:"skipDays" validate:"omitempty,gte=0"`
	MRP          int64    `json:"mrp" validate:"gte=0"`
	Price        int64    `json:"price" validate:"gte=0"`
	Tagline      string   `json:"tagline" validate:"max=200"`
	BestFor      string   `json:"bestFor" validate:"max=200"`
	Features     []string `json:"features" validate:"omitempty,dive,required"`
	IsPopular    bool     `json:"isPopular"`
	IsBestValue  bool     `json:"isBestValue"`
	IsActive     *bool    `json:"isActive"`
	SortOrder    int      `json:"sortOrder"`
}

// UpdateRequest is a partial update; nil fields are left unchanged.
type UpdateRequest struct {
	Name         *string   `json:"name" validate:"omitempty,min=1,max=120"`
	Days         *int      `json:"days" validate:"omitempty,gte=1,lte=365"`
	ValidityDays *int      `json:"validityDays" validate:"omitempty,gte=1,lte=730"`
	SkipDays     *int      `json:"skipDays" validate:"omitempty,gte=0"`
	MRP          *int64    `json:"mrp" validate:"omitempty,gte=0"`
	Price        *int64    `json:"price" validate:"omitempty,gte=0"`
	Tagline      *string   `json:"tagline" validate:"omitempty,max=200"`
	BestFor      *string   `json:"bestFor" validate:"omitempty,max=200"`
	Features     *[]string `json:"features"`
	IsPopular    *bool     `json:"isPopular"`
	IsBestValue  *bool     `json:"isBestValue"`
	IsActive     *bool     `json:"isActive"`
	SortOrder    *int      `json:"sortOrder"`
}

type Response struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Days         int       `json:"days"`
	ValidityDays int       `json:"validityDays"`
	SkipDays     int       `json:"skipDays"`
	MRP          int64     `json:"mrp"`
	Price        int64     `json:"price"`
	Discount     int       `json:"discount"`
	Savings      int64     `json:"savings"`
	Tagline      string    `json:"tagline,omitempty"`
	BestFor      string    `json:"bestFor,omitempty"`
	Features     []string  `json:"features"`
	IsPopular    bool      `json:"isPopular"`
	IsBestValue  bool      `json:"isBestValue"`
	IsActive     bool      `json:"isActive"`
	SortOrder    int       `json:"sortOrder"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Service interface {
	ListActive(ctx context.Context) ([]Response, error)
	// GetActive is the lookup used at purchase; inactive plans are not found.
	GetActive(ctx context.Context, id string) (*Plan, error)

	List(ctx context.Context) ([]Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) error
}

var (
	ErrInvalidID       = errors.New("invalid_plan_id")
	ErrInvalidRequest  = errors.New("invalid_plan")
	ErrDaysExceedValid = errors.New("days_exceed_validity")
	ErrPriceExceedsMRP = errors.New("price_exceeds_mrp")
	ErrDuplicateSlug   = errors.New("plan_slug_exists")
	ErrNotFound        = errors.New("plan_not_found")
)
