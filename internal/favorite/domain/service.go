package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidID       = errors.New("invalid_id")
	ErrProductNotFound = errors.New("product_not_found")
	ErrConflict        = errors.New("favorite_conflict")
)

type Service interface {
	// Toggle adds the product to the caller's favorites, or removes it when already present.
	Toggle(ctx context.Context, productID string) (*ToggleResponse, error)
	List(ctx context.Context) ([]Response, error)
}

type ToggleResponse struct {
	ProductID  string `json:"product_id"`
	IsFavorite bool   `json:"is_favorite"`
}

type ProductSummary struct {
	Name          string  `json:"name"`
	NameAr        string  `json:"name_ar"`
	Price         float64 `json:"price"`
	ImageURL      *string `json:"image_url,omitempty"`
	StockQuantity int     `json:"stock_quantity"`
}

type Response struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	CreatedAt time.Time       `json:"created_at"`
	Product   *ProductSummary `json:"product,omitempty"`
}
