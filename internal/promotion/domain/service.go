package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Service interface {
	ListBundleOffers(ctx context.Context) ([]BundleOfferResponse, error)
	GetBundleOffer(ctx context.Context, id string) (*BundleOfferResponse, error)
	// ResolveBundle returns the active offer with the given id.
	ResolveBundle(ctx context.Context, offerID int64) (*BundleOffer, error)
	ListPromotions(ctx context.Context, req ListPromotionsRequest) ([]PromotionResponse, error)
	HomeSlider(ctx context.Context) ([]PromotionResponse, error)

	CreateBundleOffer(ctx context.Context, req BundleOfferRequest) (*BundleOfferResponse, error)
	UpdateBundleOffer(ctx context.Context, id string, req BundleOfferRequest) (*BundleOfferResponse, error)
	DeleteBundleOffer(ctx context.Context, id string) error

	CreatePromotion(ctx context.Context, req PromotionRequest) (*PromotionResponse, error)
	UpdatePromotion(ctx context.Context, id string, req PromotionRequest) (*PromotionResponse, error)
	DeletePromotion(ctx context.Context, id string) error
}

type ListPromotionsRequest struct {
	Type string `form:"type"`
}

type BundleOfferRequest struct {
	Name               string          `json:"name"`
	NameAr             *string         `json:"name_ar"`
	Description        *string         `json:"description"`
	DescriptionAr      *string         `json:"description_ar"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	ProductIDs         []string        `json:"product_ids"`
	ImageURL           *string         `json:"image_url"`
	IsActive           *bool           `json:"is_active"`
}

type PromotionRequest struct {
	Title            string  `json:"title"`
	TitleAr          *string `json:"title_ar"`
	ImageURL         *string `json:"image_url"`
	Type             string  `json:"promotion_type"`
	TargetProductID  *string `json:"target_product_id"`
	TargetCategoryID *string `json:"target_category_id"`
	SortOrder        int     `json:"sort_order"`
	IsActive         *bool   `json:"is_active"`
}

type BundleOfferResponse struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	NameAr             *string   `json:"name_ar,omitempty"`
	Description        *string   `json:"description,omitempty"`
	DescriptionAr      *string   `json:"description_ar,omitempty"`
	DiscountPercentage float64   `json:"discount_percentage"`
	ProductIDs         []string  `json:"product_ids"`
	ImageURL           *string   `json:"image_url,omitempty"`
	IsActive           bool      `json:"is_active"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type PromotionResponse struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	TitleAr          *string   `json:"title_ar,omitempty"`
	ImageURL         *string   `json:"image_url,omitempty"`
	Type             string    `json:"promotion_type"`
	TargetProductID  *string   `json:"target_product_id"`
	TargetCategoryID *string   `json:"target_category_id"`
	SortOrder        int       `json:"sort_order"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

var (
	ErrInvalidID       = errors.New("invalid_id")
	ErrInvalidName     = errors.New("invalid_name")
	ErrInvalidDiscount = errors.New("invalid_discount_percentage")
	ErrInvalidType     = errors.New("invalid_promotion_type")
	ErrInvalidTarget   = errors.New("invalid_promotion_target")
	ErrNotFound        = errors.New("not_found")
)
