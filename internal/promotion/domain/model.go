package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type BundleOffer struct {
	ID                 int64           `gorm:"primaryKey"`
	Name               string          `gorm:"type:varchar(255);not null"`
	NameAr             *string         `gorm:"type:varchar(255)"`
	Description        *string         `gorm:"type:text"`
	DescriptionAr      *string         `gorm:"type:text"`
	DiscountPercentage decimal.Decimal `gorm:"type:numeric(5,2);not null"`
	ProductIDs         datatypes.JSON
	ImageURL           *string        `gorm:"type:text"`
	IsActive           bool           `gorm:"not null;index"`
	CreatedAt          time.Time      `gorm:"not null"`
	UpdatedAt          time.Time      `gorm:"not null"`
	DeletedAt          gorm.DeletedAt `gorm:"index"`
}

func (BundleOffer) TableName() string { return "bundle_offers" }

type PromotionType string

const (
	PromotionTypeSlider PromotionType = "slider"
	PromotionTypeBanner PromotionType = "banner"
)

func (t PromotionType) Valid() bool {
	return t == PromotionTypeSlider || t == PromotionTypeBanner
}

type Promotion struct {
	ID               int64          `gorm:"primaryKey"`
	Title            string         `gorm:"type:varchar(255);not null"`
	TitleAr          *string        `gorm:"type:varchar(255)"`
	ImageURL         *string        `gorm:"type:text"`
	Type             PromotionType  `gorm:"column:promotion_type;type:varchar(20);not null;default:'slider'"`
	TargetProductID  *int64         `gorm:"index"`
	TargetCategoryID *int64         `gorm:"index"`
	SortOrder        int            `gorm:"not null;default:0"`
	IsActive         bool           `gorm:"not null;index"`
	CreatedAt        time.Time      `gorm:"not null"`
	UpdatedAt        time.Time      `gorm:"not null"`
	DeletedAt        gorm.DeletedAt `gorm:"index"`
}

func (Promotion) TableName() string { return "promotions" }
