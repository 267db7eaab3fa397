// Package domain contains subscription plan definitions.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Plan is an admin-defined template. Purchases copy its terms, so edits here
// never reach existing subscriptions.
type Plan struct {
	ID           snowflake.ID               `json:"id" gorm:"primaryKey"`
	Name         string                     `json:"name" gorm:"type:text;not null"`
	Slug         string                     `json:"slug" gorm:"type:text;not null;uniqueIndex"`
	Days         int                        `json:"days" gorm:"not null"`
	ValidityDays int                        `json:"validityDays" gorm:"column:validity_days;not null"`
	SkipDays     int                        `json:"skipDays" gorm:"column:skip_days;not null"`
	MRP          int64                      `json:"mrp" gorm:"column:mrp;not null"`
	Price        int64                      `json:"price" gorm:"not null"`
	Discount     int                        `json:"discount" gorm:"not null;default:0"`
	Tagline      string                     `json:"tagline,omitempty" gorm:"type:text"`
	BestFor      string                     `json:"bestFor,omitempty" gorm:"column:best_for;type:text"`
	Features     datatypes.JSONSlice[string] `json:"features" gorm:"type:json"`
	IsPopular    bool                       `json:"isPopular" gorm:"column:is_popular;not null;default:false"`
	IsBestValue  bool                       `json:"isBestValue" gorm:"column:is_best_value;not null;default:false"`
	IsActive     bool                       `json:"isActive" gorm:"column:is_active;not null"`
	SortOrder    int                        `json:"sortOrder" gorm:"column:sort_order;not null;default:0"`
	CreatedAt    time.Time                  `json:"createdAt" gorm:"not null;autoCreateTime:false"`
	UpdatedAt    time.Time                  `json:"updatedAt" gorm:"not null;autoUpdateTime:false"`
}

// TableName sets the database table name.
func (Plan) TableName() string { return "subscription_plans" }

// Discount is the rounded percentage saved against the MRP.
func Discount(mrp, price int64) int {
	if mrp <= 0 || price >= mrp {
		return 0
	}
	saved := mrp - price
	return int((saved*100 + mrp/2) / mrp)
}
