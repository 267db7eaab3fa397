// Package option holds composable query modifiers for the generic repository.
package option

import (
	"fmt"

	"gorm.io/gorm"
)

type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type queryFunc func(db *gorm.DB) *gorm.DB

func (f queryFunc) Apply(db *gorm.DB) *gorm.DB { return f(db) }

// WithSortBy orders by column; dir is asc or desc.
func WithSortBy(column, dir string) QueryOption {
	return queryFunc(func(db *gorm.DB) *gorm.DB {
		if dir != "desc" {
			dir = "asc"
		}
		return db.Order(fmt.Sprintf("%s %s", column, dir))
	})
}

func WithLimit(limit int) QueryOption {
	return queryFunc(func(db *gorm.DB) *gorm.DB {
		if limit <= 0 {
			return db
		}
		return db.Limit(limit)
	})
}

func WithOffset(offset int) QueryOption {
	return queryFunc(func(db *gorm.DB) *gorm.DB {
		if offset <= 0 {
			return db
		}
		return db.Offset(offset)
	})
}

// WithWhere appends a raw condition, e.g. WithWhere("is_active = ?", true).
func WithWhere(query string, args ...any) QueryOption {
	return queryFunc(func(db *gorm.DB) *gorm.DB {
		return db.Where(query, args...)
	})
}

func WithIDs(ids []int64) QueryOption {
	return queryFunc(func(db *gorm.DB) *gorm.DB {
		return db.Where("id IN ?", ids)
	})
}
