package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type ListFilter struct {
	UserID   *int64
	Status   Status
	BeforeID *int64
	Limit    int
}

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, order *Order, items []Item) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Order, error)
	ItemsByOrder(ctx context.Context, db *gorm.DB, orderIDs []int64) (map[int64][]Item, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Order, error)
	Count(ctx context.Context, db *gorm.DB, filter ListFilter) (int64, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id int64, status Status, now time.Time) (int64, error)
	MarkViewed(ctx context.Context, db *gorm.DB, id int64) error
}
