package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	FindCart(ctx context.Context, db *gorm.DB, userID int64) (*Cart, error)
	// LockCart creates the user's cart when missing and returns it locked FOR UPDATE.
	LockCart(ctx context.Context, db *gorm.DB, cart *Cart) (*Cart, error)
	// LockExistingCart locks the user's cart FOR UPDATE, or returns nil when there is none.
	LockExistingCart(ctx context.Context, db *gorm.DB, userID int64) (*Cart, error)
	ListItems(ctx context.Context, db *gorm.DB, cartID int64) ([]Item, error)
	FindItem(ctx context.Context, db *gorm.DB, cartID, productID int64) (*Item, error)
	CreateItem(ctx context.Context, db *gorm.DB, item *Item) error
	UpdateQuantity(ctx context.Context, db *gorm.DB, itemID int64, quantity int, now time.Time) error
	DeleteItem(ctx context.Context, db *gorm.DB, itemID int64) error
	DeleteItems(ctx context.Context, db *gorm.DB, cartID int64) ([]int64, error)
	// VoidBundle resets every item of the group to its original price in one statement.
	VoidBundle(ctx context.Context, db *gorm.DB, cartID int64, groupID string, now time.Time) ([]int64, error)
}
