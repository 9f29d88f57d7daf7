package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/autoparts/internal/authctx"
	catalogdomain "github.com/smallbiznis/autoparts/internal/catalog/domain"
	"github.com/smallbiznis/autoparts/internal/clock"
	"github.com/smallbiznis/autoparts/internal/product/domain"
	syncdomain "github.com/smallbiznis/autoparts/internal/synclog/domain"
	"github.com/smallbiznis/autoparts/pkg/db"
	"github.com/smallbiznis/autoparts/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	Catalog catalogdomain.Service
	Sync    syncdomain.Recorder
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	catalog catalogdomain.Service
	sync    syncdomain.Recorder
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("product.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		catalog: p.Catalog,
		sync:    p.Sync,
	}
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (*domain.ListResponse, error) {
	page := req.Pagination.Normalize()
	filter := domain.ListFilter{
		Search:        req.Search,
		IncludeHidden: isAdmin(ctx),
	}

	if raw := strings.TrimSpace(req.CategoryID); raw != "" {
		categoryID, err := parseID(raw)
		if err != nil {
			return nil, err
		}
		ids, err := s.catalog.DescendantIDs(ctx, categoryID)
		if err != nil {
			if err == catalogdomain.ErrNotFound {
				return nil, domain.ErrInvalidCategory
			}
			return nil, err
		}
		filter.CategoryIDs = ids
	}
	if raw := strings.TrimSpace(req.ProductBrandID); raw != "" {
		id, err := parseID(raw)
		if err != nil {
			return nil, err
		}
		filter.ProductBrandID = &id
	}
	if raw := strings.TrimSpace(req.CarModelID); raw != "" {
		id, err := parseID(raw)
		if err != nil {
			return nil, err
		}
		filter.CarModelID = &id
	}

	total, err := s.repo.Count(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}

	if cursor := strings.TrimSpace(page.Cursor); cursor != "" {
		decoded, err := pagination.DecodeCursor(cursor)
		if err != nil {
			return nil, domain.ErrInvalidCursor
		}
		before, err := snowflake.ParseString(decoded.ID)
		if err != nil {
			return nil, domain.ErrInvalidCursor
		}
		beforeID := before.Int64()
		filter.BeforeID = &beforeID
	}
	filter.Limit = page.PageSize + 1

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}

	items, info := pagination.BuildCursorPageInfo(items, page.PageSize, page.Cursor, func(p domain.Product) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        snowflake.ID(p.ID).String(),
			CreatedAt: p.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		})
		if err != nil {
			return ""
		}
		return token
	})

	resp, err := s.toResponses(ctx, items)
	if err != nil {
		return nil, err
	}
	return &domain.ListResponse{Products: resp, Total: total, PageInfo: info}, nil
}

// Get hides hidden products from everyone but admins.
func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	productID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.FindByID(ctx, s.db, productID)
	if err != nil {
		return nil, err
	}
	if item == nil || (item.HiddenStatus && !isAdmin(ctx)) {
		return nil, domain.ErrNotFound
	}
	resp, err := s.toResponses(ctx, []domain.Product{*item})
	if err != nil {
		return nil, err
	}
	return &resp[0], nil
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	name, nameAr := strings.TrimSpace(req.Name), strings.TrimSpace(req.NameAr)
	if name == "" || nameAr == "" {
		return nil, domain.ErrInvalidName
	}
	sku := strings.TrimSpace(req.SKU)
	if sku == "" {
		return nil, domain.ErrInvalidSKU
	}
	if req.Price.IsNegative() {
		return nil, domain.ErrInvalidPrice
	}
	if req.StockQuantity < 0 {
		return nil, domain.ErrInvalidStock
	}

	brandID, err := s.resolveBrand(ctx, req.ProductBrandID)
	if err != nil {
		return nil, err
	}
	categoryID, err := s.resolveCategory(ctx, req.CategoryID)
	if err != nil {
		return nil, err
	}
	carModelIDs, err := s.resolveCarModels(ctx, req.CarModelIDs)
	if err != nil {
		return nil, err
	}
	images, err := encodeImages(req.Images)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	p := &domain.Product{
		ID:             s.genID.Generate().Int64(),
		Name:           name,
		NameAr:         nameAr,
		Description:    trimPtr(req.Description),
		DescriptionAr:  trimPtr(req.DescriptionAr),
		Price:          req.Price.Round(2),
		SKU:            sku,
		ProductBrandID: brandID,
		CategoryID:     categoryID,
		ImageURL:       trimPtr(req.ImageURL),
		Images:         images,
		StockQuantity:  req.StockQuantity,
		HiddenStatus:   req.HiddenStatus,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = s.mutate(ctx, p.ID, syncdomain.ActionCreated, func(tx *gorm.DB) error {
		if err := s.repo.Create(ctx, tx, p); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrDuplicateSKU
			}
			return err
		}
		return s.repo.ReplaceCarModels(ctx, tx, p.ID, carModelIDs)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, snowflake.ID(p.ID).String())
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Response, error) {
	productID, err := parseID(req.ID)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{"updated_at": s.clock.Now()}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		fields["name"] = name
	}
	if req.NameAr != nil {
		nameAr := strings.TrimSpace(*req.NameAr)
		if nameAr == "" {
			return nil, domain.ErrInvalidName
		}
		fields["name_ar"] = nameAr
	}
	if req.Description != nil {
		fields["description"] = trimPtr(req.Description)
	}
	if req.DescriptionAr != nil {
		fields["description_ar"] = trimPtr(req.DescriptionAr)
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, domain.ErrInvalidPrice
		}
		fields["price"] = req.Price.Round(2)
	}
	if req.StockQuantity != nil {
		if *req.StockQuantity < 0 {
			return nil, domain.ErrInvalidStock
		}
		fields["stock_quantity"] = *req.StockQuantity
	}
	if req.HiddenStatus != nil {
		fields["hidden_status"] = *req.HiddenStatus
	}
	if req.ImageURL != nil {
		fields["image_url"] = trimPtr(req.ImageURL)
	}
	if req.Images != nil {
		images, err := encodeImages(req.Images)
		if err != nil {
			return nil, err
		}
		fields["images"] = images
	}
	if req.ProductBrandID != nil {
		brandID, err := s.resolveBrand(ctx, req.ProductBrandID)
		if err != nil {
			return nil, err
		}
		fields["product_brand_id"] = brandID
	}
	if req.CategoryID != nil {
		categoryID, err := s.resolveCategory(ctx, req.CategoryID)
		if err != nil {
			return nil, err
		}
		fields["category_id"] = categoryID
	}
	var carModelIDs []int64
	if req.CarModelIDs != nil {
		carModelIDs, err = s.resolveCarModels(ctx, req.CarModelIDs)
		if err != nil {
			return nil, err
		}
	}

	err = s.mutate(ctx, productID, syncdomain.ActionUpdated, func(tx *gorm.DB) error {
		n, err := s.repo.Update(ctx, tx, productID, fields)
		if err != nil {
			return err
		}
		if n == 0 {
			return domain.ErrNotFound
		}
		if req.CarModelIDs != nil {
			return s.repo.ReplaceCarModels(ctx, tx, productID, carModelIDs)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, req.ID)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	productID, err := parseID(id)
	if err != nil {
		return err
	}
	return s.mutate(ctx, productID, syncdomain.ActionDeleted, func(tx *gorm.DB) error {
		n, err := s.repo.SoftDelete(ctx, tx, productID)
		if err != nil {
			return err
		}
		if n == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

func (s *Service) mutate(ctx context.Context, id int64, action syncdomain.Action, fn func(tx *gorm.DB) error) error {
	var entry *syncdomain.Entry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := fn(tx); err != nil {
			return err
		}
		var err error
		entry, err = s.sync.Record(ctx, tx, syncdomain.TableProducts, id, action)
		return err
	})
	if err != nil {
		return err
	}
	s.sync.Notify(*entry)
	s.log.Info("product changed", zap.Int64("product_id", id), zap.String("action", string(action)))
	return nil
}

func (s *Service) resolveBrand(ctx context.Context, raw *string) (*int64, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	id, err := parseID(*raw)
	if err != nil {
		return nil, domain.ErrInvalidBrand
	}
	brands, err := s.catalog.ListProductBrands(ctx)
	if err != nil {
		return nil, err
	}
	for _, b := range brands {
		if b.ID == id {
			return &id, nil
		}
	}
	return nil, domain.ErrInvalidBrand
}

func (s *Service) resolveCategory(ctx context.Context, raw *string) (*int64, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	id, err := parseID(*raw)
	if err != nil {
		return nil, domain.ErrInvalidCategory
	}
	if _, err := s.catalog.DescendantIDs(ctx, id); err != nil {
		if err == catalogdomain.ErrNotFound {
			return nil, domain.ErrInvalidCategory
		}
		return nil, err
	}
	return &id, nil
}

func (s *Service) resolveCarModels(ctx context.Context, raw []string) ([]int64, error) {
	seen := make(map[int64]bool, len(raw))
	out := make([]int64, 0, len(raw))
	for _, r := range raw {
		id, err := parseID(r)
		if err != nil {
			return nil, domain.ErrInvalidCarModel
		}
		if seen[id] {
			continue
		}
		if _, err := s.catalog.GetCarModel(ctx, r); err != nil {
			if err == catalogdomain.ErrNotFound {
				return nil, domain.ErrInvalidCarModel
			}
			return nil, err
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}

func (s *Service) toResponses(ctx context.Context, items []domain.Product) ([]domain.Response, error) {
	ids := make([]int64, 0, len(items))
	for _, p := range items {
		ids = append(ids, p.ID)
	}
	models, err := s.repo.CarModelIDs(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Response, 0, len(items))
	for _, p := range items {
		out = append(out, toResponse(p, models[p.ID]))
	}
	return out, nil
}

func toResponse(p domain.Product, carModelIDs []int64) domain.Response {
	resp := domain.Response{
		ID:             snowflake.ID(p.ID).String(),
		Name:           p.Name,
		NameAr:         p.NameAr,
		Description:    p.Description,
		DescriptionAr:  p.DescriptionAr,
		Price:          p.Price.InexactFloat64(),
		SKU:            p.SKU,
		ProductBrandID: idString(p.ProductBrandID),
		CategoryID:     idString(p.CategoryID),
		ImageURL:       p.ImageURL,
		Images:         decodeImages(p.Images),
		StockQuantity:  p.StockQuantity,
		HiddenStatus:   p.HiddenStatus,
		CarModelIDs:    make([]string, 0, len(carModelIDs)),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
	for _, id := range carModelIDs {
		resp.CarModelIDs = append(resp.CarModelIDs, snowflake.ID(id).String())
	}
	return resp
}

func encodeImages(images []string) (datatypes.JSON, error) {
	clean := make([]string, 0, len(images))
	for _, img := range images {
		if img = strings.TrimSpace(img); img != "" {
			clean = append(clean, img)
		}
	}
	raw, err := json.Marshal(clean)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

func decodeImages(raw datatypes.JSON) []string {
	out := []string{}
	if len(raw) == 0 {
		return out
	}
	_ = json.Unmarshal(raw, &out)
	return out
}

func isAdmin(ctx context.Context) bool {
	actor, ok := authctx.ActorFromContext(ctx)
	return ok && actor.IsAdmin
}

func parseID(raw string) (int64, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id.Int64(), nil
}

func idString(id *int64) *string {
	if id == nil {
		return nil
	}
	s := snowflake.ID(*id).String()
	return &s
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
