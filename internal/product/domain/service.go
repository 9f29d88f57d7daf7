package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/autoparts/pkg/db/pagination"
)

type Service interface {
	List(ctx context.Context, req ListRequest) (*ListResponse, error)
	Get(ctx context.Context, id string) (*Response, error)
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) error
}

type ListRequest struct {
	pagination.Pagination
	CategoryID     string `form:"category_id"`
	ProductBrandID string `form:"product_brand_id"`
	CarModelID     string `form:"car_model_id"`
	Search         string `form:"search"`
}

type CreateRequest struct {
	Name           string          `json:"name"`
	NameAr         string          `json:"name_ar"`
	Description    *string         `json:"description"`
	DescriptionAr  *string         `json:"description_ar"`
	Price          decimal.Decimal `json:"price"`
	SKU            string          `json:"sku"`
	ProductBrandID *string         `json:"product_brand_id"`
	CategoryID     *string         `json:"category_id"`
	ImageURL       *string         `json:"image_url"`
	Images         []string        `json:"images"`
	StockQuantity  int             `json:"stock_quantity"`
	HiddenStatus   bool            `json:"hidden_status"`
	CarModelIDs    []string        `json:"car_model_ids"`
}

type UpdateRequest struct {
	ID             string           `json:"-"`
	Name           *string          `json:"name"`
	NameAr         *string          `json:"name_ar"`
	Description    *string          `json:"description"`
	DescriptionAr  *string          `json:"description_ar"`
	Price          *decimal.Decimal `json:"price"`
	ProductBrandID *string          `json:"product_brand_id"`
	CategoryID     *string          `json:"category_id"`
	ImageURL       *string          `json:"image_url"`
	Images         []string         `json:"images"`
	StockQuantity  *int             `json:"stock_quantity"`
	HiddenStatus   *bool            `json:"hidden_status"`
	CarModelIDs    []string         `json:"car_model_ids"`
}

type Response struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	NameAr         string    `json:"name_ar"`
	Description    *string   `json:"description,omitempty"`
	DescriptionAr  *string   `json:"description_ar,omitempty"`
	Price          float64   `json:"price"`
	SKU            string    `json:"sku"`
	ProductBrandID *string   `json:"product_brand_id"`
	CategoryID     *string   `json:"category_id"`
	ImageURL       *string   `json:"image_url,omitempty"`
	Images         []string  `json:"images"`
	StockQuantity  int       `json:"stock_quantity"`
	HiddenStatus   bool      `json:"hidden_status"`
	CarModelIDs    []string  `json:"car_model_ids"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type ListResponse struct {
	Products []Response `json:"products"`
	Total    int64      `json:"total"`
	pagination.PageInfo
}

var (
	ErrInvalidID       = errors.New("invalid_id")
	ErrInvalidName     = errors.New("invalid_name")
	ErrInvalidSKU      = errors.New("invalid_sku")
	ErrInvalidPrice    = errors.New("invalid_price")
	ErrInvalidStock    = errors.New("invalid_stock_quantity")
	ErrInvalidCursor   = errors.New("invalid_cursor")
	ErrInvalidCategory = errors.New("invalid_category")
	ErrInvalidBrand    = errors.New("invalid_product_brand")
	ErrInvalidCarModel = errors.New("invalid_car_model")
	ErrDuplicateSKU    = errors.New("duplicate_sku")
	ErrNotFound        = errors.New("not_found")
)
