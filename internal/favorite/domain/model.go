package domain

import (
	"time"

	"gorm.io/gorm"
)

// Favorite marks a product on a user's wishlist. Un-favoriting soft-deletes the
// row so the pair stays unique and a later toggle restores it.
type Favorite struct {
	ID        int64          `gorm:"primaryKey"`
	UserID    int64          `gorm:"not null;uniqueIndex:idx_favorites_user_product"`
	ProductID int64          `gorm:"not null;uniqueIndex:idx_favorites_user_product;index"`
	CreatedAt time.Time      `gorm:"not null"`
	UpdatedAt time.Time      `gorm:"not null;index"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (Favorite) TableName() string { return "favorites" }
