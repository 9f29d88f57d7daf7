package repository

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/autoparts/internal/cart/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindCart(ctx context.Context, db *gorm.DB, userID int64) (*domain.Cart, error) {
	var cart domain.Cart
	err := db.WithContext(ctx).Where("user_id = ?", userID).First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cart, nil
}

func (r *repo) LockCart(ctx context.Context, db *gorm.DB, cart *domain.Cart) (*domain.Cart, error) {
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(cart).Error
	if err != nil {
		return nil, err
	}

	var locked domain.Cart
	err = forUpdate(db.WithContext(ctx)).
		Where("user_id = ?", cart.UserID).
		First(&locked).Error
	if err != nil {
		return nil, err
	}
	return &locked, nil
}

func (r *repo) LockExistingCart(ctx context.Context, db *gorm.DB, userID int64) (*domain.Cart, error) {
	var cart domain.Cart
	err := forUpdate(db.WithContext(ctx)).Where("user_id = ?", userID).First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cart, nil
}

func (r *repo) ListItems(ctx context.Context, db *gorm.DB, cartID int64) ([]domain.Item, error) {
	var items []domain.Item
	err := db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Order("created_at ASC, id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindItem(ctx context.Context, db *gorm.DB, cartID, productID int64) (*domain.Item, error) {
	var item domain.Item
	err := db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *repo) CreateItem(ctx context.Context, db *gorm.DB, item *domain.Item) error {
	return db.WithContext(ctx).Create(item).Error
}

func (r *repo) UpdateQuantity(ctx context.Context, db *gorm.DB, itemID int64, quantity int, now time.Time) error {
	return db.WithContext(ctx).
		Model(&domain.Item{}).
		Where("id = ?", itemID).
		Updates(map[string]any{"quantity": quantity, "updated_at": now}).Error
}

func (r *repo) DeleteItem(ctx context.Context, db *gorm.DB, itemID int64) error {
	return db.WithContext(ctx).Where("id = ?", itemID).Delete(&domain.Item{}).Error
}

func (r *repo) DeleteItems(ctx context.Context, db *gorm.DB, cartID int64) ([]int64, error) {
	var ids []int64
	err := db.WithContext(ctx).
		Model(&domain.Item{}).
		Where("cart_id = ?", cartID).
		Order("id ASC").
		Pluck("id", &ids).Error
	if err != nil || len(ids) == 0 {
		return nil, err
	}
	if err := db.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&domain.Item{}).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repo) VoidBundle(ctx context.Context, db *gorm.DB, cartID int64, groupID string, now time.Time) ([]int64, error) {
	var ids []int64
	err := db.WithContext(ctx).
		Model(&domain.Item{}).
		Where("cart_id = ? AND bundle_group_id = ?", cartID, groupID).
		Order("id ASC").
		Pluck("id", &ids).Error
	if err != nil || len(ids) == 0 {
		return nil, err
	}

	err = db.WithContext(ctx).
		Model(&domain.Item{}).
		Where("cart_id = ? AND bundle_group_id = ?", cartID, groupID).
		Updates(map[string]any{
			"final_unit_price":    gorm.Expr("original_unit_price"),
			"bundle_group_id":     nil,
			"bundle_offer_id":     nil,
			"discount_percentage": nil,
			"updated_at":          now,
		}).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// forUpdate adds a row lock on dialects that support one.
func forUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "sqlite" {
		return db
	}
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}
