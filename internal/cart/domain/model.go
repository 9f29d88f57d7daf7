package domain

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

type Cart struct {
	ID        int64     `gorm:"primaryKey"`
	UserID    int64     `gorm:"not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (Cart) TableName() string { return "carts" }

// Item prices are fixed when the item is added and never recomputed on read.
type Item struct {
	ID                 int64               `gorm:"primaryKey"`
	CartID             int64               `gorm:"not null;uniqueIndex:idx_cart_items_cart_product"`
	ProductID          int64               `gorm:"not null;uniqueIndex:idx_cart_items_cart_product;index"`
	Quantity           int                 `gorm:"not null"`
	BundleGroupID      *string             `gorm:"type:varchar(64);index"`
	BundleOfferID      *int64              `gorm:"index"`
	DiscountPercentage decimal.NullDecimal `gorm:"type:numeric(5,2)"`
	OriginalUnitPrice  decimal.Decimal     `gorm:"type:numeric(12,2);not null"`
	FinalUnitPrice     decimal.Decimal     `gorm:"type:numeric(12,2);not null"`
	CreatedAt          time.Time           `gorm:"not null"`
	UpdatedAt          time.Time           `gorm:"not null"`
}

func (Item) TableName() string { return "cart_items" }

func (i Item) InBundle() bool {
	return i.BundleGroupID != nil
}

// LockKey names the writer lock shared by every mutation of a user's cart.
func LockKey(userID int64) string {
	return "cart:" + strconv.FormatInt(userID, 10)
}
