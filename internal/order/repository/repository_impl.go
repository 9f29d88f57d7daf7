package repository

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/autoparts/internal/order/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, order *domain.Order, items []domain.Item) error {
	if err := db.WithContext(ctx).Create(order).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&items).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Order, error) {
	var order domain.Order
	err := db.WithContext(ctx).Where("id = ?", id).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (r *repo) ItemsByOrder(ctx context.Context, db *gorm.DB, orderIDs []int64) (map[int64][]domain.Item, error) {
	out := make(map[int64][]domain.Item, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}
	var items []domain.Item
	err := db.WithContext(ctx).
		Where("order_id IN ?", orderIDs).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		out[item.OrderID] = append(out[item.OrderID], item)
	}
	return out, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.Order, error) {
	stmt := r.filtered(ctx, db, filter)
	if filter.BeforeID != nil {
		stmt = stmt.Where("id < ?", *filter.BeforeID)
	}
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit)
	}
	var orders []domain.Order
	if err := stmt.Order("id DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repo) Count(ctx context.Context, db *gorm.DB, filter domain.ListFilter) (int64, error) {
	var total int64
	err := r.filtered(ctx, db, filter).Count(&total).Error
	return total, err
}

func (r *repo) filtered(ctx context.Context, db *gorm.DB, filter domain.ListFilter) *gorm.DB {
	stmt := db.WithContext(ctx).Model(&domain.Order{})
	if filter.UserID != nil {
		stmt = stmt.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	return stmt
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id int64, status domain.Status, now time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": now})
	return res.RowsAffected, res.Error
}

func (r *repo) MarkViewed(ctx context.Context, db *gorm.DB, id int64) error {
	return db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ? AND is_viewed = ?", id, false).
		UpdateColumn("is_viewed", true).Error
}
