package repository

import (
	"context"

	"github.com/smallbiznis/autoparts/pkg/db/option"
	"gorm.io/gorm"
)

// Repository is a generic gorm store. Soft-deletable models are filtered by gorm
// unless option.WithUnscoped is passed.
type Repository[T any] interface {
	WithTrx(tx *gorm.DB) Repository[T]
	Find(ctx context.Context, query *T, opts ...option.QueryOption) ([]*T, error)
	FindOne(ctx context.Context, query *T, opts ...option.QueryOption) (*T, error)
	FindByID(ctx context.Context, id int64, opts ...option.QueryOption) (*T, error)
	Create(ctx context.Context, resource *T) error
	Update(ctx context.Context, id int64, fields map[string]any) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)
	Count(ctx context.Context, query *T) (int64, error)
	BatchCreate(ctx context.Context, resources []*T) error
}
