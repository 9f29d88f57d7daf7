package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/autoparts/internal/catalog/domain"
	"github.com/smallbiznis/autoparts/internal/clock"
	syncdomain "github.com/smallbiznis/autoparts/internal/synclog/domain"
	"github.com/smallbiznis/autoparts/pkg/db/option"
	"github.com/smallbiznis/autoparts/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Sync  syncdomain.Recorder
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	sync  syncdomain.Recorder

	carBrands     repository.Repository[domain.CarBrand]
	carModels     repository.Repository[domain.CarModel]
	productBrands repository.Repository[domain.ProductBrand]
	categories    repository.Repository[domain.Category]
}

func New(p Params) domain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("catalog.service"),
		genID:         p.GenID,
		clock:         p.Clock,
		sync:          p.Sync,
		carBrands:     repository.ProvideStore[domain.CarBrand](p.DB),
		carModels:     repository.ProvideStore[domain.CarModel](p.DB),
		productBrands: repository.ProvideStore[domain.ProductBrand](p.DB),
		categories:    repository.ProvideStore[domain.Category](p.DB),
	}
}

func (s *Service) ListCarBrands(ctx context.Context) ([]domain.CarBrand, error) {
	items, err := s.carBrands.Find(ctx, nil, option.WithOrder("name ASC"))
	return deref(items), err
}

func (s *Service) ListCarModels(ctx context.Context, req domain.ListCarModelsRequest) ([]domain.CarModel, error) {
	opts := []option.QueryOption{option.WithOrder("name ASC")}
	if brand := strings.TrimSpace(req.BrandID); brand != "" {
		brandID, err := parseID(brand)
		if err != nil {
			return nil, err
		}
		opts = append(opts, option.WithWhere("brand_id = ?", brandID))
	}
	items, err := s.carModels.Find(ctx, nil, opts...)
	return deref(items), err
}

func (s *Service) GetCarModel(ctx context.Context, id string) (*domain.CarModel, error) {
	modelID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return found(s.carModels.FindByID(ctx, modelID))
}

func (s *Service) ListProductBrands(ctx context.Context) ([]domain.ProductBrand, error) {
	items, err := s.productBrands.Find(ctx, nil, option.WithOrder("name ASC"))
	return deref(items), err
}

func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	items, err := s.categories.Find(ctx, nil, option.WithOrder("sort_order ASC, name ASC"))
	return deref(items), err
}

// GetCategory resolves key as a snowflake id first and as a slug otherwise.
func (s *Service) GetCategory(ctx context.Context, key string) (*domain.Category, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, domain.ErrNotFound
	}
	if id, err := snowflake.ParseString(key); err == nil {
		if item, err := s.categories.FindByID(ctx, id.Int64()); err != nil || item != nil {
			return item, err
		}
	}
	return found(s.categories.FindOne(ctx, &domain.Category{Slug: strings.ToLower(key)}))
}

func (s *Service) CategoryTree(ctx context.Context) ([]domain.CategoryNode, error) {
	tree, err := s.tree(ctx, s.db)
	if err != nil {
		return nil, err
	}
	return tree.Nested(), nil
}

// DescendantIDs returns categoryID and every live category beneath it.
func (s *Service) DescendantIDs(ctx context.Context, categoryID int64) ([]int64, error) {
	tree, err := s.tree(ctx, s.db)
	if err != nil {
		return nil, err
	}
	ids := tree.Descendants(categoryID)
	if ids == nil {
		return nil, domain.ErrNotFound
	}
	return ids, nil
}

func (s *Service) tree(ctx context.Context, db *gorm.DB) (*domain.Tree, error) {
	items, err := s.categories.WithTrx(db).Find(ctx, nil)
	if err != nil {
		return nil, err
	}
	return domain.BuildTree(deref(items)), nil
}

func (s *Service) CreateCarBrand(ctx context.Context, req domain.CarBrandRequest) (*domain.CarBrand, error) {
	name, nameAr, err := names(req.Name, req.NameAr, true)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	item := &domain.CarBrand{
		ID:        s.genID.Generate().Int64(),
		Name:      name,
		NameAr:    nameAr,
		Slug:      slug.Make(name),
		Logo:      trimPtr(req.Logo),
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = s.mutate(ctx, syncdomain.TableCarBrands, item.ID, syncdomain.ActionCreated, func(tx *gorm.DB) error {
		return s.carBrands.WithTrx(tx).Create(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) UpdateCarBrand(ctx context.Context, id string, req domain.CarBrandRequest) (*domain.CarBrand, error) {
	brandID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	name, nameAr, err := names(req.Name, req.NameAr, true)
	if err != nil {
		return nil, err
	}
	fields := map[string]any{
		"name":       name,
		"name_ar":    nameAr,
		"slug":       slug.Make(name),
		"logo":       trimPtr(req.Logo),
		"updated_at": s.clock.Now(),
	}
	return updateAndReload(ctx, s, s.carBrands, syncdomain.TableCarBrands, brandID, fields)
}

func (s *Service) DeleteCarBrand(ctx context.Context, id string) error {
	return softDelete(ctx, s, s.carBrands, syncdomain.TableCarBrands, id)
}

func (s *Service) CreateCarModel(ctx context.Context, req domain.CarModelRequest) (*domain.CarModel, error) {
	fields, brandID, err := s.carModelFields(ctx, req)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	item := &domain.CarModel{
		ID:            s.genID.Generate().Int64(),
		BrandID:       brandID,
		Name:          fields["name"].(string),
		NameAr:        fields["name_ar"].(string),
		YearStart:     req.YearStart,
		YearEnd:       req.YearEnd,
		ImageURL:      trimPtr(req.ImageURL),
		Description:   trimPtr(req.Description),
		DescriptionAr: trimPtr(req.DescriptionAr),
		Variants:      fields["variants"].(datatypes.JSON),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err = s.mutate(ctx, syncdomain.TableCarModels, item.ID, syncdomain.ActionCreated, func(tx *gorm.DB) error {
		return s.carModels.WithTrx(tx).Create(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) UpdateCarModel(ctx context.Context, id string, req domain.CarModelRequest) (*domain.CarModel, error) {
	modelID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	fields, _, err := s.carModelFields(ctx, req)
	if err != nil {
		return nil, err
	}
	fields["updated_at"] = s.clock.Now()
	return updateAndReload(ctx, s, s.carModels, syncdomain.TableCarModels, modelID, fields)
}

func (s *Service) carModelFields(ctx context.Context, req domain.CarModelRequest) (map[string]any, int64, error) {
	name, nameAr, err := names(req.Name, req.NameAr, true)
	if err != nil {
		return nil, 0, err
	}
	brandID, err := parseID(req.BrandID)
	if err != nil {
		return nil, 0, domain.ErrInvalidBrand
	}
	brand, err := s.carBrands.FindByID(ctx, brandID)
	if err != nil {
		return nil, 0, err
	}
	if brand == nil {
		return nil, 0, domain.ErrInvalidBrand
	}
	if req.YearStart != nil && req.YearEnd != nil && *req.YearEnd < *req.YearStart {
		return nil, 0, domain.ErrInvalidYearRange
	}

	variants := datatypes.JSON("[]")
	if len(req.Variants) > 0 && string(req.Variants) != "null" {
		if !json.Valid(req.Variants) {
			return nil, 0, domain.ErrInvalidVariants
		}
		variants = datatypes.JSON(req.Variants)
	}

	return map[string]any{
		"brand_id":       brandID,
		"name":           name,
		"name_ar":        nameAr,
		"year_start":     req.YearStart,
		"year_end":       req.YearEnd,
		"image_url":      trimPtr(req.ImageURL),
		"description":    trimPtr(req.Description),
		"description_ar": trimPtr(req.DescriptionAr),
		"variants":       variants,
	}, brandID, nil
}

func (s *Service) DeleteCarModel(ctx context.Context, id string) error {
	return softDelete(ctx, s, s.carModels, syncdomain.TableCarModels, id)
}

func (s *Service) CreateProductBrand(ctx context.Context, req domain.ProductBrandRequest) (*domain.ProductBrand, error) {
	name, _, err := names(req.Name, "", false)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	item := &domain.ProductBrand{
		ID:                s.genID.Generate().Int64(),
		Name:              name,
		NameAr:            trimPtr(req.NameAr),
		Slug:              slug.Make(name),
		Logo:              trimPtr(req.Logo),
		CountryOfOrigin:   trimPtr(req.CountryOfOrigin),
		CountryOfOriginAr: trimPtr(req.CountryOfOriginAr),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	err = s.mutate(ctx, syncdomain.TableProductBrands, item.ID, syncdomain.ActionCreated, func(tx *gorm.DB) error {
		return s.productBrands.WithTrx(tx).Create(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) UpdateProductBrand(ctx context.Context, id string, req domain.ProductBrandRequest) (*domain.ProductBrand, error) {
	brandID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	name, _, err := names(req.Name, "", false)
	if err != nil {
		return nil, err
	}
	fields := map[string]any{
		"name":                 name,
		"name_ar":              trimPtr(req.NameAr),
		"slug":                 slug.Make(name),
		"logo":                 trimPtr(req.Logo),
		"country_of_origin":    trimPtr(req.CountryOfOrigin),
		"country_of_origin_ar": trimPtr(req.CountryOfOriginAr),
		"updated_at":           s.clock.Now(),
	}
	return updateAndReload(ctx, s, s.productBrands, syncdomain.TableProductBrands, brandID, fields)
}

func (s *Service) DeleteProductBrand(ctx context.Context, id string) error {
	return softDelete(ctx, s, s.productBrands, syncdomain.TableProductBrands, id)
}

func (s *Service) CreateCategory(ctx context.Context, req domain.CategoryRequest) (*domain.Category, error) {
	name, nameAr, err := names(req.Name, req.NameAr, true)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	item := &domain.Category{
		ID:        s.genID.Generate().Int64(),
		Name:      name,
		NameAr:    nameAr,
		Slug:      slug.Make(name),
		Icon:      trimPtr(req.Icon),
		SortOrder: req.SortOrder,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = s.mutate(ctx, syncdomain.TableCategories, item.ID, syncdomain.ActionCreated, func(tx *gorm.DB) error {
		parentID, err := s.resolveParent(ctx, tx, item.ID, req.ParentID)
		if err != nil {
			return err
		}
		item.ParentID = parentID
		return s.categories.WithTrx(tx).Create(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) UpdateCategory(ctx context.Context, id string, req domain.CategoryRequest) (*domain.Category, error) {
	categoryID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	name, nameAr, err := names(req.Name, req.NameAr, true)
	if err != nil {
		return nil, err
	}

	var item *domain.Category
	err = s.mutate(ctx, syncdomain.TableCategories, categoryID, syncdomain.ActionUpdated, func(tx *gorm.DB) error {
		parentID, err := s.resolveParent(ctx, tx, categoryID, req.ParentID)
		if err != nil {
			return err
		}
		store := s.categories.WithTrx(tx)
		n, err := store.Update(ctx, categoryID, map[string]any{
			"name":       name,
			"name_ar":    nameAr,
			"slug":       slug.Make(name),
			"parent_id":  parentID,
			"icon":       trimPtr(req.Icon),
			"sort_order": req.SortOrder,
			"updated_at": s.clock.Now(),
		})
		if err != nil {
			return err
		}
		if n == 0 {
			return domain.ErrNotFound
		}
		item, err = store.FindByID(ctx, categoryID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// resolveParent rejects unknown parents and parents that sit below the category itself.
func (s *Service) resolveParent(ctx context.Context, tx *gorm.DB, categoryID int64, raw *string) (*int64, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	parentID, err := parseID(*raw)
	if err != nil {
		return nil, domain.ErrInvalidParent
	}
	tree, err := s.tree(ctx, tx)
	if err != nil {
		return nil, err
	}
	if !tree.Contains(parentID) {
		return nil, domain.ErrInvalidParent
	}
	for _, id := range tree.Descendants(categoryID) {
		if id == parentID {
			return nil, domain.ErrInvalidParent
		}
	}
	return &parentID, nil
}

func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	return softDelete(ctx, s, s.categories, syncdomain.TableCategories, id)
}

// mutate runs fn and its sync log entry in one transaction and notifies
// subscribers once it commits.
func (s *Service) mutate(ctx context.Context, table string, id int64, action syncdomain.Action, fn func(tx *gorm.DB) error) error {
	var entry *syncdomain.Entry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := fn(tx); err != nil {
			return err
		}
		var err error
		entry, err = s.sync.Record(ctx, tx, table, id, action)
		return err
	})
	if err != nil {
		return err
	}
	s.sync.Notify(*entry)
	s.log.Info("catalog changed",
		zap.String("table", table),
		zap.Int64("id", id),
		zap.String("action", string(action)),
	)
	return nil
}

func updateAndReload[T any](ctx context.Context, s *Service, store repository.Repository[T], table string, id int64, fields map[string]any) (*T, error) {
	var item *T
	err := s.mutate(ctx, table, id, syncdomain.ActionUpdated, func(tx *gorm.DB) error {
		scoped := store.WithTrx(tx)
		n, err := scoped.Update(ctx, id, fields)
		if err != nil {
			return err
		}
		if n == 0 {
			return domain.ErrNotFound
		}
		item, err = scoped.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func softDelete[T any](ctx context.Context, s *Service, store repository.Repository[T], table string, rawID string) error {
	id, err := parseID(rawID)
	if err != nil {
		return err
	}
	return s.mutate(ctx, table, id, syncdomain.ActionDeleted, func(tx *gorm.DB) error {
		n, err := store.WithTrx(tx).Delete(ctx, id)
		if err != nil {
			return err
		}
		if n == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

func parseID(raw string) (int64, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id.Int64(), nil
}

func names(name, nameAr string, arabicRequired bool) (string, string, error) {
	name = strings.TrimSpace(name)
	nameAr = strings.TrimSpace(nameAr)
	if name == "" || (arabicRequired && nameAr == "") {
		return "", "", domain.ErrInvalidName
	}
	return name, nameAr, nil
}

func found[T any](item *T, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

func trimPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func deref[T any](items []*T) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if item != nil {
			out = append(out, *item)
		}
	}
	return out
}
