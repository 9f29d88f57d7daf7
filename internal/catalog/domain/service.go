package domain

import (
	"context"
	"encoding/json"
	"errors"
)

type Service interface {
	ListCarBrands(ctx context.Context) ([]CarBrand, error)
	ListCarModels(ctx context.Context, req ListCarModelsRequest) ([]CarModel, error)
	GetCarModel(ctx context.Context, id string) (*CarModel, error)
	ListProductBrands(ctx context.Context) ([]ProductBrand, error)
	ListCategories(ctx context.Context) ([]Category, error)
	GetCategory(ctx context.Context, key string) (*Category, error)
	CategoryTree(ctx context.Context) ([]CategoryNode, error)
	DescendantIDs(ctx context.Context, categoryID int64) ([]int64, error)

	CreateCarBrand(ctx context.Context, req CarBrandRequest) (*CarBrand, error)
	UpdateCarBrand(ctx context.Context, id string, req CarBrandRequest) (*CarBrand, error)
	DeleteCarBrand(ctx context.Context, id string) error

	CreateCarModel(ctx context.Context, req CarModelRequest) (*CarModel, error)
	UpdateCarModel(ctx context.Context, id string, req CarModelRequest) (*CarModel, error)
	DeleteCarModel(ctx context.Context, id string) error

	CreateProductBrand(ctx context.Context, req ProductBrandRequest) (*ProductBrand, error)
	UpdateProductBrand(ctx context.Context, id string, req ProductBrandRequest) (*ProductBrand, error)
	DeleteProductBrand(ctx context.Context, id string) error

	CreateCategory(ctx context.Context, req CategoryRequest) (*Category, error)
	UpdateCategory(ctx context.Context, id string, req CategoryRequest) (*Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

type ListCarModelsRequest struct {
	BrandID string `form:"brand_id"`
}

type CarBrandRequest struct {
	Name   string  `json:"name"`
	NameAr string  `json:"name_ar"`
	Logo   *string `json:"logo"`
}

type CarModelRequest struct {
	BrandID       string          `json:"brand_id"`
	Name          string          `json:"name"`
	NameAr        string          `json:"name_ar"`
	YearStart     *int            `json:"year_start"`
	YearEnd       *int            `json:"year_end"`
	ImageURL      *string         `json:"image_url"`
	Description   *string         `json:"description"`
	DescriptionAr *string         `json:"description_ar"`
	Variants      json.RawMessage `json:"variants"`
}

type ProductBrandRequest struct {
	Name              string  `json:"name"`
	NameAr            *string `json:"name_ar"`
	Logo              *string `json:"logo"`
	CountryOfOrigin   *string `json:"country_of_origin"`
	CountryOfOriginAr *string `json:"country_of_origin_ar"`
}

type CategoryRequest struct {
	Name      string  `json:"name"`
	NameAr    string  `json:"name_ar"`
	ParentID  *string `json:"parent_id"`
	Icon      *string `json:"icon"`
	SortOrder int     `json:"sort_order"`
}

var (
	ErrInvalidID        = errors.New("invalid_id")
	ErrInvalidName      = errors.New("invalid_name")
	ErrInvalidYearRange = errors.New("invalid_year_range")
	ErrInvalidVariants  = errors.New("invalid_variants")
	ErrInvalidParent    = errors.New("invalid_parent")
	ErrInvalidBrand     = errors.New("invalid_brand")
	ErrNotFound         = errors.New("not_found")
)
