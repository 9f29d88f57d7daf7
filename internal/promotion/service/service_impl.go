package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/autoparts/internal/authctx"
	catalogdomain "github.com/smallbiznis/autoparts/internal/catalog/domain"
	"github.com/smallbiznis/autoparts/internal/clock"
	productdomain "github.com/smallbiznis/autoparts/internal/product/domain"
	"github.com/smallbiznis/autoparts/internal/promotion/domain"
	syncdomain "github.com/smallbiznis/autoparts/internal/synclog/domain"
	"github.com/smallbiznis/autoparts/pkg/db/option"
	"github.com/smallbiznis/autoparts/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var hundred = decimal.NewFromInt(100)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Products productdomain.Repository
	Catalog  catalogdomain.Service
	Sync     syncdomain.Recorder
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	products productdomain.Repository
	catalog  catalogdomain.Service
	sync     syncdomain.Recorder

	offers     repository.Repository[domain.BundleOffer]
	promotions repository.Repository[domain.Promotion]
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("promotion.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		products:   p.Products,
		catalog:    p.Catalog,
		sync:       p.Sync,
		offers:     repository.ProvideStore[domain.BundleOffer](p.DB),
		promotions: repository.ProvideStore[domain.Promotion](p.DB),
	}
}

// ListBundleOffers returns active offers; admins also see inactive ones.
func (s *Service) ListBundleOffers(ctx context.Context) ([]domain.BundleOfferResponse, error) {
	opts := []option.QueryOption{option.WithOrder("created_at DESC")}
	if !isAdmin(ctx) {
		opts = append(opts, option.WithWhere("is_active = ?", true))
	}
	items, err := s.offers.Find(ctx, nil, opts...)
	if err != nil {
		return nil, err
	}
	out := make([]domain.BundleOfferResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toOfferResponse(item))
	}
	return out, nil
}

func (s *Service) GetBundleOffer(ctx context.Context, id string) (*domain.BundleOfferResponse, error) {
	offerID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	item, err := s.offers.FindByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if item == nil || (!item.IsActive && !isAdmin(ctx)) {
		return nil, domain.ErrNotFound
	}
	resp := toOfferResponse(item)
	return &resp, nil
}

func (s *Service) ResolveBundle(ctx context.Context, offerID int64) (*domain.BundleOffer, error) {
	item, err := s.offers.FindByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if item == nil || !item.IsActive {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

func (s *Service) ListPromotions(ctx context.Context, req domain.ListPromotionsRequest) ([]domain.PromotionResponse, error) {
	opts := []option.QueryOption{option.WithOrder("sort_order ASC, id ASC")}
	if !isAdmin(ctx) {
		opts = append(opts, option.WithWhere("is_active = ?", true))
	}
	if raw := strings.TrimSpace(req.Type); raw != "" {
		t := domain.PromotionType(raw)
		if !t.Valid() {
			return nil, domain.ErrInvalidType
		}
		opts = append(opts, option.WithWhere("promotion_type = ?", t))
	}
	return s.listPromotions(ctx, opts...)
}

func (s *Service) HomeSlider(ctx context.Context) ([]domain.PromotionResponse, error) {
	return s.listPromotions(ctx,
		option.WithWhere("is_active = ? AND promotion_type = ?", true, domain.PromotionTypeSlider),
		option.WithOrder("sort_order ASC, id ASC"),
	)
}

func (s *Service) listPromotions(ctx context.Context, opts ...option.QueryOption) ([]domain.PromotionResponse, error) {
	items, err := s.promotions.Find(ctx, nil, opts...)
	if err != nil {
		return nil, err
	}
	out := make([]domain.PromotionResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toPromotionResponse(item))
	}
	return out, nil
}

func (s *Service) CreateBundleOffer(ctx context.Context, req domain.BundleOfferRequest) (*domain.BundleOfferResponse, error) {
	fields, err := s.offerFields(ctx, req)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	item := &domain.BundleOffer{
		ID:                 s.genID.Generate().Int64(),
		Name:               fields["name"].(string),
		NameAr:             trimPtr(req.NameAr),
		Description:        trimPtr(req.Description),
		DescriptionAr:      trimPtr(req.DescriptionAr),
		DiscountPercentage: fields["discount_percentage"].(decimal.Decimal),
		ProductIDs:         fields["product_ids"].(datatypes.JSON),
		ImageURL:           trimPtr(req.ImageURL),
		IsActive:           req.IsActive == nil || *req.IsActive,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	err = s.mutate(ctx, syncdomain.TableBundleOffers, item.ID, syncdomain.ActionCreated, func(tx *gorm.DB) error {
		return s.offers.WithTrx(tx).Create(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	resp := toOfferResponse(item)
	return &resp, nil
}

func (s *Service) UpdateBundleOffer(ctx context.Context, id string, req domain.BundleOfferRequest) (*domain.BundleOfferResponse, error) {
	offerID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	fields, err := s.offerFields(ctx, req)
	if err != nil {
		return nil, err
	}
	fields["name_ar"] = trimPtr(req.NameAr)
	fields["description"] = trimPtr(req.Description)
	fields["description_ar"] = trimPtr(req.DescriptionAr)
	fields["image_url"] = trimPtr(req.ImageURL)
	fields["updated_at"] = s.clock.Now()
	if req.IsActive != nil {
		fields["is_active"] = *req.IsActive
	}

	var item *domain.BundleOffer
	err = s.mutate(ctx, syncdomain.TableBundleOffers, offerID, syncdomain.ActionUpdated, func(tx *gorm.DB) error {
		store := s.offers.WithTrx(tx)
		n, err := store.Update(ctx, offerID, fields)
		if err != nil {
			return err
		}
		if n == 0 {
			return domain.ErrNotFound
		}
		item, err = store.FindByID(ctx, offerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	resp := toOfferResponse(item)
	return &resp, nil
}

func (s *Service) offerFields(ctx context.Context, req domain.BundleOfferRequest) (map[string]any, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	pct := req.DiscountPercentage
	if pct.IsNegative() || pct.GreaterThan(hundred) {
		return nil, domain.ErrInvalidDiscount
	}
	ids := make([]string, 0, len(req.ProductIDs))
	seen := make(map[int64]bool, len(req.ProductIDs))
	for _, raw := range req.ProductIDs {
		productID, err := parseID(raw)
		if err != nil {
			return nil, domain.ErrInvalidTarget
		}
		if seen[productID] {
			continue
		}
		p, err := s.products.FindByID(ctx, s.db, productID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, domain.ErrInvalidTarget
		}
		seen[productID] = true
		ids = append(ids, snowflake.ID(productID).String())
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"name":                name,
		"discount_percentage": pct.Round(2),
		"product_ids":         datatypes.JSON(raw),
	}, nil
}

func (s *Service) DeleteBundleOffer(ctx context.Context, id string) error {
	offerID, err := parseID(id)
	if err != nil {
		return err
	}
	return s.mutate(ctx, syncdomain.TableBundleOffers, offerID, syncdomain.ActionDeleted, func(tx *gorm.DB) error {
		n, err := s.offers.WithTrx(tx).Delete(ctx, offerID)
		if err != nil {
			return err
		}
		if n == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

func (s *Service) CreatePromotion(ctx context.Context, req domain.PromotionRequest) (*domain.PromotionResponse, error) {
	fields, err := s.promotionFields(ctx, req)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	item := &domain.Promotion{
		ID:               s.genID.Generate().Int64(),
		Title:            fields["title"].(string),
		TitleAr:          trimPtr(req.TitleAr),
		ImageURL:         trimPtr(req.ImageURL),
		Type:             fields["promotion_type"].(domain.PromotionType),
		TargetProductID:  fields["target_product_id"].(*int64),
		TargetCategoryID: fields["target_category_id"].(*int64),
		SortOrder:        req.SortOrder,
		IsActive:         req.IsActive == nil || *req.IsActive,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	err = s.mutate(ctx, syncdomain.TablePromotions, item.ID, syncdomain.ActionCreated, func(tx *gorm.DB) error {
		return s.promotions.WithTrx(tx).Create(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	resp := toPromotionResponse(item)
	return &resp, nil
}

func (s *Service) UpdatePromotion(ctx context.Context, id string, req domain.PromotionRequest) (*domain.PromotionResponse, error) {
	promotionID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	fields, err := s.promotionFields(ctx, req)
	if err != nil {
		return nil, err
	}
	fields["title_ar"] = trimPtr(req.TitleAr)
	fields["image_url"] = trimPtr(req.ImageURL)
	fields["sort_order"] = req.SortOrder
	fields["updated_at"] = s.clock.Now()
	if req.IsActive != nil {
		fields["is_active"] = *req.IsActive
	}

	var item *domain.Promotion
	err = s.mutate(ctx, syncdomain.TablePromotions, promotionID, syncdomain.ActionUpdated, func(tx *gorm.DB) error {
		store := s.promotions.WithTrx(tx)
		n, err := store.Update(ctx, promotionID, fields)
		if err != nil {
			return err
		}
		if n == 0 {
			return domain.ErrNotFound
		}
		item, err = store.FindByID(ctx, promotionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	resp := toPromotionResponse(item)
	return &resp, nil
}

func (s *Service) promotionFields(ctx context.Context, req domain.PromotionRequest) (map[string]any, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, domain.ErrInvalidName
	}
	t := domain.PromotionTypeSlider
	if raw := strings.TrimSpace(req.Type); raw != "" {
		t = domain.PromotionType(raw)
	}
	if !t.Valid() {
		return nil, domain.ErrInvalidType
	}

	var productID, categoryID *int64
	if req.TargetProductID != nil && strings.TrimSpace(*req.TargetProductID) != "" {
		id, err := parseID(*req.TargetProductID)
		if err != nil {
			return nil, domain.ErrInvalidTarget
		}
		p, err := s.products.FindByID(ctx, s.db, id)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, domain.ErrInvalidTarget
		}
		productID = &id
	}
	if req.TargetCategoryID != nil && strings.TrimSpace(*req.TargetCategoryID) != "" {
		id, err := parseID(*req.TargetCategoryID)
		if err != nil {
			return nil, domain.ErrInvalidTarget
		}
		if _, err := s.catalog.DescendantIDs(ctx, id); err != nil {
			if errors.Is(err, catalogdomain.ErrNotFound) {
				return nil, domain.ErrInvalidTarget
			}
			return nil, err
		}
		categoryID = &id
	}

	return map[string]any{
		"title":              title,
		"promotion_type":     t,
		"target_product_id":  productID,
		"target_category_id": categoryID,
	}, nil
}

func (s *Service) DeletePromotion(ctx context.Context, id string) error {
	promotionID, err := parseID(id)
	if err != nil {
		return err
	}
	return s.mutate(ctx, syncdomain.TablePromotions, promotionID, syncdomain.ActionDeleted, func(tx *gorm.DB) error {
		n, err := s.promotions.WithTrx(tx).Delete(ctx, promotionID)
		if err != nil {
			return err
		}
		if n == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

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
	s.log.Info("promotion changed",
		zap.String("table", table),
		zap.Int64("record_id", id),
		zap.String("action", string(action)),
	)
	return nil
}

func toOfferResponse(o *domain.BundleOffer) domain.BundleOfferResponse {
	ids := []string{}
	if len(o.ProductIDs) > 0 {
		_ = json.Unmarshal(o.ProductIDs, &ids)
	}
	return domain.BundleOfferResponse{
		ID:                 snowflake.ID(o.ID).String(),
		Name:               o.Name,
		NameAr:             o.NameAr,
		Description:        o.Description,
		DescriptionAr:      o.DescriptionAr,
		DiscountPercentage: o.DiscountPercentage.InexactFloat64(),
		ProductIDs:         ids,
		ImageURL:           o.ImageURL,
		IsActive:           o.IsActive,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
}

func toPromotionResponse(p *domain.Promotion) domain.PromotionResponse {
	return domain.PromotionResponse{
		ID:               snowflake.ID(p.ID).String(),
		Title:            p.Title,
		TitleAr:          p.TitleAr,
		ImageURL:         p.ImageURL,
		Type:             string(p.Type),
		TargetProductID:  idString(p.TargetProductID),
		TargetCategoryID: idString(p.TargetCategoryID),
		SortOrder:        p.SortOrder,
		IsActive:         p.IsActive,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
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
