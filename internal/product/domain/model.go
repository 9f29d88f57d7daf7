package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Product struct {
	ID             int64           `gorm:"primaryKey"`
	Name           string          `gorm:"type:varchar(255);not null"`
	NameAr         string          `gorm:"type:varchar(255);not null"`
	Description    *string         `gorm:"type:text"`
	DescriptionAr  *string         `gorm:"type:text"`
	Price          decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	SKU            string          `gorm:"column:sku;type:varchar(100);not null;uniqueIndex"`
	ProductBrandID *int64          `gorm:"index"`
	CategoryID     *int64          `gorm:"index"`
	ImageURL       *string         `gorm:"type:text"`
	Images         datatypes.JSON
	StockQuantity  int            `gorm:"not null;default:0"`
	HiddenStatus   bool           `gorm:"not null;default:false"`
	CreatedAt      time.Time      `gorm:"not null"`
	UpdatedAt      time.Time      `gorm:"not null"`
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}

func (Product) TableName() string { return "products" }

// Purchasable reports whether shoppers may add the product to a cart.
func (p *Product) Purchasable() bool {
	return p != nil && !p.DeletedAt.Valid && !p.HiddenStatus
}

// ProductCarModel links a product to the car models it fits.
type ProductCarModel struct {
	ProductID  int64 `gorm:"primaryKey"`
	CarModelID int64 `gorm:"primaryKey;index"`
}

func (ProductCarModel) TableName() string { return "product_car_models" }
