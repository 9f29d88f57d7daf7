package domain

import (
	"context"

	"gorm.io/gorm"
)

type ListFilter struct {
	CategoryIDs    []int64
	ProductBrandID *int64
	CarModelID     *int64
	Search         string
	IncludeHidden  bool
	BeforeID       *int64
	Limit          int
}

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, product *Product) error
	Update(ctx context.Context, db *gorm.DB, id int64, fields map[string]any) (int64, error)
	SoftDelete(ctx context.Context, db *gorm.DB, id int64) (int64, error)
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Product, error)
	// FindActive returns nil when the product is missing, soft-deleted, or hidden.
	FindActive(ctx context.Context, db *gorm.DB, id int64) (*Product, error)
	FindActiveByIDs(ctx context.Context, db *gorm.DB, ids []int64) (map[int64]Product, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Product, error)
	Count(ctx context.Context, db *gorm.DB, filter ListFilter) (int64, error)
	// DecrementStock subtracts qty only while enough stock remains; false means it did not.
	DecrementStock(ctx context.Context, db *gorm.DB, id int64, qty int) (bool, error)
	ReplaceCarModels(ctx context.Context, db *gorm.DB, productID int64, carModelIDs []int64) error
	CarModelIDs(ctx context.Context, db *gorm.DB, productIDs []int64) (map[int64][]int64, error)
}
