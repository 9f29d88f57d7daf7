package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

const DefaultPaymentMethod = "cash_on_delivery"

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Terminal statuses accept no further transitions.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

type Order struct {
	ID              int64           `gorm:"primaryKey"`
	OrderNumber     string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	UserID          *int64          `gorm:"index"`
	CustomerName    *string         `gorm:"type:varchar(255)"`
	CustomerEmail   *string         `gorm:"type:varchar(255)"`
	Phone           *string         `gorm:"type:varchar(50)"`
	Subtotal        decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	ShippingCost    decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Discount        decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Total           decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Status          Status          `gorm:"type:varchar(20);not null;index"`
	PaymentMethod   string          `gorm:"type:varchar(50);not null"`
	Notes           *string         `gorm:"type:text"`
	IsViewed        bool            `gorm:"not null"`
	DeliveryAddress datatypes.JSON
	CreatedAt       time.Time      `gorm:"not null"`
	UpdatedAt       time.Time      `gorm:"not null"`
	DeletedAt       gorm.DeletedAt `gorm:"index"`
}

func (Order) TableName() string { return "orders" }

// Item is a snapshot of a cart line; it outlives the product it was taken from.
type Item struct {
	ID            int64           `gorm:"primaryKey"`
	OrderID       int64           `gorm:"not null;index"`
	ProductID     *int64          `gorm:"index"`
	ProductName   string          `gorm:"type:varchar(255);not null"`
	ProductNameAr *string         `gorm:"type:varchar(255)"`
	Quantity      int             `gorm:"not null"`
	Price         decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	OriginalPrice decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	ImageURL      *string         `gorm:"type:text"`
}

func (Item) TableName() string { return "order_items" }
