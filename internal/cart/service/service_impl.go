package service

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/autoparts/internal/authctx"
	"github.com/smallbiznis/autoparts/internal/cart/domain"
	"github.com/smallbiznis/autoparts/internal/clock"
	"github.com/smallbiznis/autoparts/internal/observability/metrics"
	productdomain "github.com/smallbiznis/autoparts/internal/product/domain"
	promotiondomain "github.com/smallbiznis/autoparts/internal/promotion/domain"
	syncdomain "github.com/smallbiznis/autoparts/internal/synclog/domain"
	"github.com/smallbiznis/autoparts/pkg/db"
	"github.com/smallbiznis/autoparts/pkg/lock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	Products productdomain.Repository
	Bundles  domain.BundleResolver
	Shipping domain.ShippingResolver
	Locker   lock.Locker
	Sync     syncdomain.Recorder
	Metrics  *metrics.Metrics `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	products productdomain.Repository
	bundles  domain.BundleResolver
	shipping domain.ShippingResolver
	locker   lock.Locker
	sync     syncdomain.Recorder
	metrics  *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("cart.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		products: p.Products,
		bundles:  p.Bundles,
		shipping: p.Shipping,
		locker:   p.Locker,
		sync:     p.Sync,
		metrics:  p.Metrics,
	}
}

func (s *Service) Get(ctx context.Context) (*domain.CartResponse, error) {
	userID, err := authctx.UserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	resp := &domain.CartResponse{Items: []domain.ItemResponse{}}
	cart, err := s.repo.FindCart(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return resp, nil
	}
	resp.ID = snowflake.ID(cart.ID).String()

	items, err := s.repo.ListItems(ctx, s.db, cart.ID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return resp, nil
	}

	totals, err := domain.ComputeTotals(items, s.shipping.ShippingCost(ctx))
	if err != nil {
		s.log.Error("cart totals violate pricing invariants", zap.Int64("cart_id", cart.ID), zap.Error(err))
		return nil, err
	}
	resp.Items, err = s.itemResponses(ctx, items)
	if err != nil {
		return nil, err
	}
	resp.Subtotal = totals.Subtotal.InexactFloat64()
	resp.TotalDiscount = totals.TotalDiscount.InexactFloat64()
	resp.ShippingCost = totals.ShippingCost.InexactFloat64()
	resp.Total = totals.Total.InexactFloat64()
	return resp, nil
}

func (s *Service) AddItem(ctx context.Context, req domain.AddItemRequest) (*domain.ItemResponse, error) {
	productID, err := parseID(req.ProductID)
	if err != nil {
		return nil, err
	}
	if req.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	bundle, err := s.resolveBundle(ctx, productID, req)
	if err != nil {
		return nil, err
	}
	if bundle != nil {
		if err := bundle.Validate(); err != nil {
			return nil, err
		}
	}

	var item *domain.Item
	err = s.withCart(ctx, func(tx *gorm.DB, cart *domain.Cart) ([]syncdomain.Entry, error) {
		existing, err := s.repo.FindItem(ctx, tx, cart.ID, productID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, domain.ErrConflict
		}

		product, err := s.products.FindActive(ctx, tx, productID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, domain.ErrProductNotFound
		}
		if req.Quantity > product.StockQuantity {
			s.metrics.IncStockRejection(metrics.StockRejectCart)
			return nil, &domain.StockError{ProductID: productID, Requested: req.Quantity, Available: product.StockQuantity}
		}

		now := s.clock.Now()
		item = &domain.Item{
			ID:                s.genID.Generate().Int64(),
			CartID:            cart.ID,
			ProductID:         productID,
			Quantity:          req.Quantity,
			OriginalUnitPrice: product.Price,
			FinalUnitPrice:    domain.UnitPrice(product.Price, bundle),
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if bundle != nil {
			item.BundleGroupID = &bundle.GroupID
			item.BundleOfferID = bundle.OfferID
			item.DiscountPercentage = decimal.NewNullDecimal(bundle.DiscountPercentage)
		}
		if err := s.repo.CreateItem(ctx, tx, item); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return nil, domain.ErrConflict
			}
			return nil, err
		}

		entry, err := s.sync.RecordOwned(ctx, tx, syncdomain.TableCartItems, item.ID, cart.UserID, syncdomain.ActionCreated)
		if err != nil {
			return nil, err
		}
		return []syncdomain.Entry{*entry}, nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncCartMutation(metrics.CartOpAdd)
	return s.itemResponse(ctx, *item)
}

// resolveBundle turns a referenced offer into the bundle the item joins.
func (s *Service) resolveBundle(ctx context.Context, productID int64, req domain.AddItemRequest) (*domain.Bundle, error) {
	if req.BundleOfferID == nil || strings.TrimSpace(*req.BundleOfferID) == "" {
		if req.BundleGroupID != nil && strings.TrimSpace(*req.BundleGroupID) != "" {
			return nil, domain.ErrInvalidBundle
		}
		return nil, nil
	}
	offerID, err := parseID(*req.BundleOfferID)
	if err != nil {
		return nil, domain.ErrInvalidBundle
	}
	offer, err := s.bundles.ResolveBundle(ctx, offerID)
	if err != nil {
		if errors.Is(err, promotiondomain.ErrNotFound) {
			return nil, domain.ErrInvalidBundle
		}
		return nil, err
	}
	if !offerCovers(offer, productID) {
		return nil, domain.ErrInvalidBundle
	}

	groupID := snowflake.ID(offerID).String()
	if req.BundleGroupID != nil && strings.TrimSpace(*req.BundleGroupID) != "" {
		groupID = strings.TrimSpace(*req.BundleGroupID)
	}
	return &domain.Bundle{
		GroupID:            groupID,
		OfferID:            &offerID,
		DiscountPercentage: offer.DiscountPercentage,
	}, nil
}

func (s *Service) UpdateItem(ctx context.Context, req domain.UpdateItemRequest) (*domain.ItemResponse, error) {
	productID, err := parseID(req.ProductID)
	if err != nil {
		return nil, err
	}
	if req.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	var item *domain.Item
	err = s.withExistingCart(ctx, func(tx *gorm.DB, cart *domain.Cart) ([]syncdomain.Entry, error) {
		item, err = s.repo.FindItem(ctx, tx, cart.ID, productID)
		if err != nil {
			return nil, err
		}
		if item == nil {
			return nil, domain.ErrItemNotFound
		}

		product, err := s.products.FindActive(ctx, tx, productID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, domain.ErrProductNotFound
		}
		if req.Quantity > product.StockQuantity {
			s.metrics.IncStockRejection(metrics.StockRejectCart)
			return nil, &domain.StockError{ProductID: productID, Requested: req.Quantity, Available: product.StockQuantity}
		}

		now := s.clock.Now()
		if err := s.repo.UpdateQuantity(ctx, tx, item.ID, req.Quantity, now); err != nil {
			return nil, err
		}
		item.Quantity = req.Quantity
		item.UpdatedAt = now

		entry, err := s.sync.RecordOwned(ctx, tx, syncdomain.TableCartItems, item.ID, cart.UserID, syncdomain.ActionUpdated)
		if err != nil {
			return nil, err
		}
		return []syncdomain.Entry{*entry}, nil
	})
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrItemNotFound
	}

	s.metrics.IncCartMutation(metrics.CartOpUpdate)
	return s.itemResponse(ctx, *item)
}

func (s *Service) RemoveItem(ctx context.Context, productID string) error {
	id, err := parseID(productID)
	if err != nil {
		return err
	}
	removed := false
	err = s.withExistingCart(ctx, func(tx *gorm.DB, cart *domain.Cart) ([]syncdomain.Entry, error) {
		item, err := s.repo.FindItem(ctx, tx, cart.ID, id)
		if err != nil {
			return nil, err
		}
		if item == nil {
			return nil, domain.ErrItemNotFound
		}
		removed = true
		if err := s.repo.DeleteItem(ctx, tx, item.ID); err != nil {
			return nil, err
		}
		entry, err := s.sync.RecordOwned(ctx, tx, syncdomain.TableCartItems, item.ID, cart.UserID, syncdomain.ActionDeleted)
		if err != nil {
			return nil, err
		}
		return []syncdomain.Entry{*entry}, nil
	})
	if err != nil {
		return err
	}
	if !removed {
		return domain.ErrItemNotFound
	}
	s.metrics.IncCartMutation(metrics.CartOpRemove)
	return nil
}

// VoidBundle drops the discount of every item in the group; an unknown group is a no-op.
func (s *Service) VoidBundle(ctx context.Context, groupID string) ([]domain.ItemResponse, error) {
	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return nil, domain.ErrInvalidBundle
	}

	var items []domain.Item
	err := s.withExistingCart(ctx, func(tx *gorm.DB, cart *domain.Cart) ([]syncdomain.Entry, error) {
		ids, err := s.repo.VoidBundle(ctx, tx, cart.ID, groupID, s.clock.Now())
		if err != nil || len(ids) == 0 {
			return nil, err
		}

		entries := make([]syncdomain.Entry, 0, len(ids))
		for _, id := range ids {
			entry, err := s.sync.RecordOwned(ctx, tx, syncdomain.TableCartItems, id, cart.UserID, syncdomain.ActionUpdated)
			if err != nil {
				return nil, err
			}
			entries = append(entries, *entry)
		}

		all, err := s.repo.ListItems(ctx, tx, cart.ID)
		if err != nil {
			return nil, err
		}
		for _, item := range all {
			if slices.Contains(ids, item.ID) {
				items = append(items, item)
			}
		}
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		s.metrics.IncCartMutation(metrics.CartOpUpdate)
		s.log.Info("bundle voided", zap.String("bundle_group_id", groupID), zap.Int("items", len(items)))
	}
	return s.itemResponses(ctx, items)
}

func (s *Service) Clear(ctx context.Context) error {
	err := s.withExistingCart(ctx, func(tx *gorm.DB, cart *domain.Cart) ([]syncdomain.Entry, error) {
		ids, err := s.repo.DeleteItems(ctx, tx, cart.ID)
		if err != nil {
			return nil, err
		}
		entries := make([]syncdomain.Entry, 0, len(ids))
		for _, id := range ids {
			entry, err := s.sync.RecordOwned(ctx, tx, syncdomain.TableCartItems, id, cart.UserID, syncdomain.ActionDeleted)
			if err != nil {
				return nil, err
			}
			entries = append(entries, *entry)
		}
		return entries, nil
	})
	if err != nil {
		return err
	}
	s.metrics.IncCartMutation(metrics.CartOpClear)
	return nil
}

// ValidateStock lists items whose quantity exceeds what the product can currently cover.
func (s *Service) ValidateStock(ctx context.Context) (*domain.StockValidationResponse, error) {
	userID, err := authctx.UserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	resp := &domain.StockValidationResponse{Valid: true, Issues: []domain.StockIssue{}}
	cart, err := s.repo.FindCart(ctx, s.db, userID)
	if err != nil || cart == nil {
		return resp, err
	}
	items, err := s.repo.ListItems(ctx, s.db, cart.ID)
	if err != nil {
		return nil, err
	}
	products, err := s.products.FindActiveByIDs(ctx, s.db, productIDs(items))
	if err != nil {
		return nil, err
	}

	for _, item := range items {
		issue := domain.StockIssue{
			ProductID: snowflake.ID(item.ProductID).String(),
			Requested: item.Quantity,
		}
		p, ok := products[item.ProductID]
		if ok {
			issue.Name = p.Name
			issue.Available = p.StockQuantity
		}
		if !ok || item.Quantity > p.StockQuantity {
			resp.Issues = append(resp.Issues, issue)
		}
	}
	resp.Valid = len(resp.Issues) == 0
	return resp, nil
}

type cartFunc func(tx *gorm.DB, cart *domain.Cart) ([]syncdomain.Entry, error)

// withCart serializes fn with every other writer of the caller's cart,
// creating the cart first when needed. The returned entries are published
// after commit.
func (s *Service) withCart(ctx context.Context, fn cartFunc) error {
	return s.mutateCart(ctx, true, fn)
}

// withExistingCart is withCart for paths that never create a cart; fn is
// skipped and nothing is written when the caller has none.
func (s *Service) withExistingCart(ctx context.Context, fn cartFunc) error {
	return s.mutateCart(ctx, false, fn)
}

func (s *Service) mutateCart(ctx context.Context, create bool, fn cartFunc) error {
	userID, err := authctx.UserIDFromContext(ctx)
	if err != nil {
		return err
	}
	release, err := s.locker.Acquire(ctx, domain.LockKey(userID))
	if err != nil {
		return err
	}
	defer release()

	var entries []syncdomain.Entry
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cart *domain.Cart
		if create {
			now := s.clock.Now()
			cart, err = s.repo.LockCart(ctx, tx, &domain.Cart{
				ID:        s.genID.Generate().Int64(),
				UserID:    userID,
				CreatedAt: now,
				UpdatedAt: now,
			})
		} else {
			cart, err = s.repo.LockExistingCart(ctx, tx, userID)
		}
		if err != nil || cart == nil {
			return err
		}
		entries, err = fn(tx, cart)
		return err
	})
	if err != nil {
		return err
	}
	s.sync.Notify(entries...)
	return nil
}

func (s *Service) itemResponse(ctx context.Context, item domain.Item) (*domain.ItemResponse, error) {
	out, err := s.itemResponses(ctx, []domain.Item{item})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

func (s *Service) itemResponses(ctx context.Context, items []domain.Item) ([]domain.ItemResponse, error) {
	out := make([]domain.ItemResponse, 0, len(items))
	if len(items) == 0 {
		return out, nil
	}
	products, err := s.products.FindActiveByIDs(ctx, s.db, productIDs(items))
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		resp := toItemResponse(item)
		if p, ok := products[item.ProductID]; ok {
			resp.Product = &domain.ProductSummary{
				ID:            snowflake.ID(p.ID).String(),
				Name:          p.Name,
				NameAr:        p.NameAr,
				SKU:           p.SKU,
				ImageURL:      p.ImageURL,
				StockQuantity: p.StockQuantity,
			}
		}
		out = append(out, resp)
	}
	return out, nil
}

func toItemResponse(item domain.Item) domain.ItemResponse {
	resp := domain.ItemResponse{
		ID:                snowflake.ID(item.ID).String(),
		ProductID:         snowflake.ID(item.ProductID).String(),
		Quantity:          item.Quantity,
		OriginalUnitPrice: item.OriginalUnitPrice.InexactFloat64(),
		FinalUnitPrice:    item.FinalUnitPrice.InexactFloat64(),
		ItemSubtotal:      item.Subtotal().InexactFloat64(),
		BundleGroupID:     item.BundleGroupID,
	}
	if item.BundleOfferID != nil {
		offer := snowflake.ID(*item.BundleOfferID).String()
		resp.BundleOfferID = &offer
	}
	if item.InBundle() && item.DiscountPercentage.Valid {
		resp.DiscountDetails = &domain.DiscountDetails{
			DiscountType:  "bundle",
			DiscountValue: item.DiscountPercentage.Decimal.InexactFloat64(),
		}
	}
	return resp
}

func offerCovers(offer *promotiondomain.BundleOffer, productID int64) bool {
	ids := decodeIDs(offer.ProductIDs)
	return len(ids) == 0 || slices.Contains(ids, snowflake.ID(productID).String())
}

func productIDs(items []domain.Item) []int64 {
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	return ids
}

func parseID(raw string) (int64, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id.Int64(), nil
}

func decodeIDs(raw datatypes.JSON) []string {
	var ids []string
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil
	}
	return ids
}
