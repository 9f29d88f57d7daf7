package domain

import (
	"time"

	"gorm.io/gorm"
)

// Comment is a product review. The author's name and picture are copied at
// write time so listings need no user lookup.
type Comment struct {
	ID          int64          `gorm:"primaryKey"`
	ProductID   int64          `gorm:"not null;index"`
	UserID      int64          `gorm:"not null;index"`
	UserName    string         `gorm:"type:varchar(255);not null"`
	UserPicture *string        `gorm:"type:text"`
	Text        string         `gorm:"type:text;not null"`
	Rating      *int           `gorm:"type:smallint"`
	CreatedAt   time.Time      `gorm:"not null"`
	UpdatedAt   time.Time      `gorm:"not null;index"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (Comment) TableName() string { return "comments" }
