package domain

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CarBrand struct {
	ID        int64          `json:"id,string" gorm:"primaryKey"`
	Name      string         `json:"name" gorm:"type:varchar(255);not null"`
	NameAr    string         `json:"name_ar" gorm:"type:varchar(255);not null"`
	Slug      string         `json:"slug" gorm:"type:varchar(255);index"`
	Logo      *string        `json:"logo,omitempty" gorm:"type:text"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (CarBrand) TableName() string { return "car_brands" }

type CarModel struct {
	ID            int64          `json:"id,string" gorm:"primaryKey"`
	BrandID       int64          `json:"brand_id,string" gorm:"not null;index"`
	Name          string         `json:"name" gorm:"type:varchar(255);not null"`
	NameAr        string         `json:"name_ar" gorm:"type:varchar(255);not null"`
	YearStart     *int           `json:"year_start,omitempty"`
	YearEnd       *int           `json:"year_end,omitempty"`
	ImageURL      *string        `json:"image_url,omitempty" gorm:"type:text"`
	Description   *string        `json:"description,omitempty" gorm:"type:text"`
	DescriptionAr *string        `json:"description_ar,omitempty" gorm:"type:text"`
	Variants      datatypes.JSON `json:"variants"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`
}

func (CarModel) TableName() string { return "car_models" }

type ProductBrand struct {
	ID                int64          `json:"id,string" gorm:"primaryKey"`
	Name              string         `json:"name" gorm:"type:varchar(255);not null"`
	NameAr            *string        `json:"name_ar,omitempty" gorm:"type:varchar(255)"`
	Slug              string         `json:"slug" gorm:"type:varchar(255);index"`
	Logo              *string        `json:"logo,omitempty" gorm:"type:text"`
	CountryOfOrigin   *string        `json:"country_of_origin,omitempty" gorm:"type:varchar(255)"`
	CountryOfOriginAr *string        `json:"country_of_origin_ar,omitempty" gorm:"type:varchar(255)"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `json:"-" gorm:"index"`
}

func (ProductBrand) TableName() string { return "product_brands" }

type Category struct {
	ID        int64          `json:"id,string" gorm:"primaryKey"`
	Name      string         `json:"name" gorm:"type:varchar(255);not null"`
	NameAr    string         `json:"name_ar" gorm:"type:varchar(255);not null"`
	Slug      string         `json:"slug" gorm:"type:varchar(255);index"`
	ParentID  *int64         `json:"parent_id,string,omitempty" gorm:"index"`
	Icon      *string        `json:"icon,omitempty" gorm:"type:varchar(100)"`
	SortOrder int            `json:"sort_order" gorm:"not null;default:0"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Category) TableName() string { return "categories" }
