// Package domain contains the read-only food catalog used for salad snapshots.
package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type FoodItem struct {
	ID          snowflake.ID `json:"id" gorm:"primaryKey"`
	Name        string       `json:"name" gorm:"type:text;not null"`
	Image       string       `json:"image" gorm:"type:text"`
	Price       int64        `json:"price" gorm:"not null"`
	IsVeg       bool         `json:"isVeg" gorm:"column:is_veg;not null"`
	IsAvailable bool         `json:"isAvailable" gorm:"column:is_available;not null"`
}

// TableName sets the database table name.
func (FoodItem) TableName() string { return "food_items" }

type Repository interface {
	FindByID(ctx context.Context, id snowflake.ID) (*FoodItem, error)
}

type Service interface {
	// Get returns the item regardless of availability; snapshots are taken
	// from whatever the catalog holds at purchase time.
	Get(ctx context.Context, id string) (*FoodItem, error)
}

var (
	ErrInvalidID = errors.New("invalid_food_item_id")
	ErrNotFound  = errors.New("salad_not_found")
)
