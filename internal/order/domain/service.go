package domain

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/smallbiznis/autoparts/pkg/db/pagination"
)

type Service interface {
	// Create materializes the caller's cart into an order.
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	ListMine(ctx context.Context, req ListRequest) (*ListResponse, error)
	GetMine(ctx context.Context, id string) (*Response, error)
	List(ctx context.Context, req ListRequest) (*ListResponse, error)
	Get(ctx context.Context, id string) (*Response, error)
	UpdateStatus(ctx context.Context, req UpdateStatusRequest) (*Response, error)
}

type CreateRequest struct {
	CustomerName    *string         `json:"customer_name"`
	CustomerEmail   *string         `json:"customer_email"`
	Phone           *string         `json:"phone"`
	DeliveryAddress json.RawMessage `json:"delivery_address"`
	Notes           *string         `json:"notes"`
	PaymentMethod   *string         `json:"payment_method"`
}

type ListRequest struct {
	pagination.Pagination
	Status string `form:"status"`
}

type UpdateStatusRequest struct {
	ID     string `json:"-"`
	Status string `json:"status"`
}

type ItemResponse struct {
	ID            string  `json:"id"`
	ProductID     *string `json:"product_id"`
	ProductName   string  `json:"product_name"`
	ProductNameAr *string `json:"product_name_ar,omitempty"`
	Quantity      int     `json:"quantity"`
	Price         float64 `json:"price"`
	OriginalPrice float64 `json:"original_price"`
	ImageURL      *string `json:"image_url,omitempty"`
}

type Response struct {
	ID              string          `json:"id"`
	OrderNumber     string          `json:"order_number"`
	UserID          *string         `json:"user_id"`
	CustomerName    *string         `json:"customer_name,omitempty"`
	CustomerEmail   *string         `json:"customer_email,omitempty"`
	Phone           *string         `json:"phone,omitempty"`
	Subtotal        float64         `json:"subtotal"`
	ShippingCost    float64         `json:"shipping_cost"`
	Discount        float64         `json:"discount"`
	Total           float64         `json:"total"`
	Status          string          `json:"status"`
	PaymentMethod   string          `json:"payment_method"`
	Notes           *string         `json:"notes,omitempty"`
	IsViewed        bool            `json:"is_viewed"`
	DeliveryAddress json.RawMessage `json:"delivery_address"`
	Items           []ItemResponse  `json:"items"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type ListResponse struct {
	Orders []Response `json:"orders"`
	Total  int64      `json:"total"`
	pagination.PageInfo
}

var (
	ErrInvalidID        = errors.New("invalid_id")
	ErrInvalidStatus    = errors.New("invalid_status")
	ErrInvalidAddress   = errors.New("invalid_delivery_address")
	ErrInvalidCursor    = errors.New("invalid_cursor")
	ErrEmptyCart        = errors.New("empty_cart")
	ErrStatusTransition = errors.New("invalid_status_transition")
	ErrNotFound         = errors.New("not_found")
)
