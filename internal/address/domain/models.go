// Package domain contains saved delivery addresses.
package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Address struct {
	ID          snowflake.ID `json:"id" gorm:"primaryKey"`
	UserID      snowflake.ID `json:"userId" gorm:"column:user_id;not null;index"`
	FullName    string       `json:"fullName" gorm:"column:full_name;type:text;not null"`
	Phone       string       `json:"phone" gorm:"type:text;not null"`
	HouseNumber string       `json:"houseNumber" gorm:"column:house_number;type:text;not null"`
	Building    string       `json:"building,omitempty" gorm:"type:text"`
	Street      string       `json:"street" gorm:"type:text;not null"`
	Landmark    string       `json:"landmark,omitempty" gorm:"type:text"`
	City        string       `json:"city" gorm:"type:text;not null"`
	State       string       `json:"state" gorm:"type:text;not null"`
	Pincode     string       `json:"pincode" gorm:"type:text;not null"`
	Latitude    *float64     `json:"latitude,omitempty"`
	Longitude   *float64     `json:"longitude,omitempty"`
	IsDefault   bool         `json:"isDefault" gorm:"column:is_default;not null"`
	CreatedAt   time.Time    `json:"createdAt" gorm:"not null;autoCreateTime:false"`
	UpdatedAt   time.Time    `json:"updatedAt" gorm:"not null;autoUpdateTime:false"`
}

// TableName sets the database table name.
func (Address) TableName() string { return "addresses" }

// FullText renders the single-line form printed on delivery labels:
// "house, [building, ]street, city, state - pincode[, landmark]".
func (a Address) FullText() string {
	var b strings.Builder
	b.WriteString(a.HouseNumber)
	b.WriteString(", ")
	if a.Building != "" {
		b.WriteString(a.Building)
		b.WriteString(", ")
	}
	b.WriteString(a.Street)
	b.WriteString(", ")
	b.WriteString(a.City)
	b.WriteString(", ")
	b.WriteString(a.State)
	b.WriteString(" - ")
	b.WriteString(a.Pincode)
	if a.Landmark != "" {
		b.WriteString(", ")
		b.WriteString(a.Landmark)
	}
	return b.String()
}

// Resolved is what a schedule entry stores for an address reference.
type Resolved struct {
	ID       snowflake.ID
	FullText string
	Lat      *float64
	Lng      *float64
}

type Repository interface {
	FindByID(ctx context.Context, id snowflake.ID) (*Address, error)
}

type Service interface {
	// Resolve returns ErrNotFound both for missing addresses and for
	// addresses that belong to someone else.
	Resolve(ctx context.Context, userID, addressID snowflake.ID) (*Resolved, error)
}

var ErrNotFound = errors.New("address_not_found")
