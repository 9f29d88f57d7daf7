package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/smallbiznis/autoparts/internal/product/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, product *domain.Product) error {
	return db.WithContext(ctx).Create(product).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, id int64, fields map[string]any) (int64, error) {
	res := db.WithContext(ctx).Model(&domain.Product{}).Where("id = ?", id).Updates(fields)
	return res.RowsAffected, res.Error
}

func (r *repo) SoftDelete(ctx context.Context, db *gorm.DB, id int64) (int64, error) {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Product{})
	return res.RowsAffected, res.Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Product, error) {
	var p domain.Product
	err := db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *repo) FindActive(ctx context.Context, db *gorm.DB, id int64) (*domain.Product, error) {
	p, err := r.FindByID(ctx, db, id)
	if err != nil || !p.Purchasable() {
		return nil, err
	}
	return p, nil
}

func (r *repo) FindActiveByIDs(ctx context.Context, db *gorm.DB, ids []int64) (map[int64]domain.Product, error) {
	out := make(map[int64]domain.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var items []domain.Product
	err := db.WithContext(ctx).
		Where("id IN ? AND hidden_status = ?", ids, false).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	for _, p := range items {
		out[p.ID] = p
	}
	return out, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.Product, error) {
	stmt := r.filtered(ctx, db, filter)
	if filter.BeforeID != nil {
		stmt = stmt.Where("id < ?", *filter.BeforeID)
	}
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit)
	}

	var items []domain.Product
	if err := stmt.Order("id DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Count(ctx context.Context, db *gorm.DB, filter domain.ListFilter) (int64, error) {
	var total int64
	err := r.filtered(ctx, db, filter).Count(&total).Error
	return total, err
}

func (r *repo) filtered(ctx context.Context, db *gorm.DB, filter domain.ListFilter) *gorm.DB {
	stmt := db.WithContext(ctx).Model(&domain.Product{})
	if !filter.IncludeHidden {
		stmt = stmt.Where("hidden_status = ?", false)
	}
	if len(filter.CategoryIDs) > 0 {
		stmt = stmt.Where("category_id IN ?", filter.CategoryIDs)
	}
	if filter.ProductBrandID != nil {
		stmt = stmt.Where("product_brand_id = ?", *filter.ProductBrandID)
	}
	if filter.CarModelID != nil {
		stmt = stmt.Where("id IN (?)", db.Model(&domain.ProductCarModel{}).
			Select("product_id").
			Where("car_model_id = ?", *filter.CarModelID))
	}
	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		like := "%" + search + "%"
		stmt = stmt.Where("(LOWER(name) LIKE ? OR name_ar LIKE ? OR LOWER(sku) LIKE ?)", like, like, like)
	}
	return stmt
}

func (r *repo) DecrementStock(ctx context.Context, db *gorm.DB, id int64, qty int) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("id = ? AND stock_quantity >= ?", id, qty).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repo) ReplaceCarModels(ctx context.Context, db *gorm.DB, productID int64, carModelIDs []int64) error {
	if err := db.WithContext(ctx).Where("product_id = ?", productID).Delete(&domain.ProductCarModel{}).Error; err != nil {
		return err
	}
	if len(carModelIDs) == 0 {
		return nil
	}
	links := make([]domain.ProductCarModel, 0, len(carModelIDs))
	for _, id := range carModelIDs {
		links = append(links, domain.ProductCarModel{ProductID: productID, CarModelID: id})
	}
	return db.WithContext(ctx).Create(&links).Error
}

func (r *repo) CarModelIDs(ctx context.Context, db *gorm.DB, productIDs []int64) (map[int64][]int64, error) {
	out := make(map[int64][]int64, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}
	var links []domain.ProductCarModel
	err := db.WithContext(ctx).
		Where("product_id IN ?", productIDs).
		Order("car_model_id ASC").
		Find(&links).Error
	if err != nil {
		return nil, err
	}
	for _, l := range links {
		out[l.ProductID] = append(out[l.ProductID], l.CarModelID)
	}
	return out, nil
}
