package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	promotiondomain "github.com/smallbiznis/autoparts/internal/promotion/domain"
)

type Service interface {
	Get(ctx context.Context) (*CartResponse, error)
	AddItem(ctx context.Context, req AddItemRequest) (*ItemResponse, error)
	UpdateItem(ctx context.Context, req UpdateItemRequest) (*ItemResponse, error)
	RemoveItem(ctx context.Context, productID string) error
	VoidBundle(ctx context.Context, groupID string) ([]ItemResponse, error)
	Clear(ctx context.Context) error
	ValidateStock(ctx context.Context) (*StockValidationResponse, error)
}

// ShippingResolver supplies the flat shipping cost added to cart totals.
type ShippingResolver interface {
	ShippingCost(ctx context.Context) decimal.Decimal
}

type BundleResolver interface {
	ResolveBundle(ctx context.Context, offerID int64) (*promotiondomain.BundleOffer, error)
}

type AddItemRequest struct {
	ProductID     string  `json:"product_id"`
	Quantity      int     `json:"quantity"`
	BundleOfferID *string `json:"bundle_offer_id"`
	BundleGroupID *string `json:"bundle_group_id"`
}

type UpdateItemRequest struct {
	ProductID string `json:"-"`
	Quantity  int    `json:"quantity"`
}

type DiscountDetails struct {
	DiscountType  string  `json:"discount_type"`
	DiscountValue float64 `json:"discount_value"`
}

type ProductSummary struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	NameAr        string  `json:"name_ar"`
	SKU           string  `json:"sku"`
	ImageURL      *string `json:"image_url,omitempty"`
	StockQuantity int     `json:"stock_quantity"`
}

type ItemResponse struct {
	ID                string           `json:"id"`
	ProductID         string           `json:"product_id"`
	Quantity          int              `json:"quantity"`
	OriginalUnitPrice float64          `json:"original_unit_price"`
	FinalUnitPrice    float64          `json:"final_unit_price"`
	ItemSubtotal      float64          `json:"item_subtotal"`
	BundleGroupID     *string          `json:"bundle_group_id"`
	BundleOfferID     *string          `json:"bundle_offer_id"`
	DiscountDetails   *DiscountDetails `json:"discount_details"`
	Product           *ProductSummary  `json:"product,omitempty"`
}

type CartResponse struct {
	ID            string         `json:"id,omitempty"`
	Items         []ItemResponse `json:"items"`
	Subtotal      float64        `json:"subtotal"`
	TotalDiscount float64        `json:"total_discount"`
	ShippingCost  float64        `json:"shipping_cost"`
	Total         float64        `json:"total"`
}

type StockIssue struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name,omitempty"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

type StockValidationResponse struct {
	Valid  bool         `json:"valid"`
	Issues []StockIssue `json:"issues"`
}

var (
	ErrInvalidID          = errors.New("invalid_id")
	ErrInvalidQuantity    = errors.New("invalid_quantity")
	ErrInvalidDiscount    = errors.New("invalid_discount_percentage")
	ErrInvalidBundle      = errors.New("invalid_bundle")
	ErrProductNotFound    = errors.New("product_not_found")
	ErrItemNotFound       = errors.New("cart_item_not_found")
	ErrConflict           = errors.New("cart_item_exists")
	ErrInsufficientStock  = errors.New("insufficient_stock")
	ErrInvariantViolation = errors.New("cart_invariant_violation")
)

// StockError reports a quantity the product cannot cover.
type StockError struct {
	ProductID int64
	Requested int
	Available int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient_stock: product %d requested %d available %d", e.ProductID, e.Requested, e.Available)
}

func (e *StockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
