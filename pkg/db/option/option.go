// Package option holds composable gorm query modifiers.
package option

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type QueryOptionFunc func(db *gorm.DB) *gorm.DB

func (f QueryOptionFunc) Apply(db *gorm.DB) *gorm.DB { return f(db) }

type SortBy struct {
	Column string
	Desc   bool
}

// WithQuerySortBy validates a user supplied column against allowed and falls back to created_at.
func WithQuerySortBy(column, order string, allowed map[string]bool) SortBy {
	column = strings.ToLower(strings.TrimSpace(column))
	if !allowed[column] {
		column = "created_at"
	}
	return SortBy{Column: column, Desc: strings.EqualFold(strings.TrimSpace(order), "desc")}
}

func WithSortBy(s SortBy) QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if s.Column == "" {
			return db
		}
		dir := "ASC"
		if s.Desc {
			dir = "DESC"
		}
		return db.Order(fmt.Sprintf("%s %s, id %s", s.Column, dir, dir))
	})
}

func WithOrder(order string) QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB { return db.Order(order) })
}

func WithLimit(limit int) QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if limit <= 0 {
			return db
		}
		return db.Limit(limit)
	})
}

func WithWhere(query string, args ...any) QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB { return db.Where(query, args...) })
}

func WithPreload(assoc string) QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB { return db.Preload(assoc) })
}

// WithUnscoped includes soft-deleted rows.
func WithUnscoped() QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB { return db.Unscoped() })
}
