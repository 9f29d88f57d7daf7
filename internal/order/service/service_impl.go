package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/autoparts/internal/authctx"
	cartdomain "github.com/smallbiznis/autoparts/internal/cart/domain"
	"github.com/smallbiznis/autoparts/internal/clock"
	"github.com/smallbiznis/autoparts/internal/observability/metrics"
	"github.com/smallbiznis/autoparts/internal/order/domain"
	productdomain "github.com/smallbiznis/autoparts/internal/product/domain"
	syncdomain "github.com/smallbiznis/autoparts/internal/synclog/domain"
	"github.com/smallbiznis/autoparts/pkg/db/pagination"
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
	Carts    cartdomain.Repository
	Products productdomain.Repository
	Shipping cartdomain.ShippingResolver
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
	carts    cartdomain.Repository
	products productdomain.Repository
	shipping cartdomain.ShippingResolver
	locker   lock.Locker
	sync     syncdomain.Recorder
	metrics  *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("order.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		carts:    p.Carts,
		products: p.Products,
		shipping: p.Shipping,
		locker:   p.Locker,
		sync:     p.Sync,
		metrics:  p.Metrics,
	}
}

// Create snapshots the cart, takes stock, and empties the cart in one
// transaction. A stock shortfall on any line rolls the whole order back.
func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	userID, err := authctx.UserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	address, err := normalizeAddress(req.DeliveryAddress)
	if err != nil {
		return nil, err
	}
	paymentMethod := domain.DefaultPaymentMethod
	if req.PaymentMethod != nil && strings.TrimSpace(*req.PaymentMethod) != "" {
		paymentMethod = strings.TrimSpace(*req.PaymentMethod)
	}

	release, err := s.locker.Acquire(ctx, cartdomain.LockKey(userID))
	if err != nil {
		return nil, err
	}
	defer release()

	var (
		order   *domain.Order
		items   []domain.Item
		entries []syncdomain.Entry
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.carts.FindCart(ctx, tx, userID)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.ErrEmptyCart
		}
		now := s.clock.Now()
		cart, err := s.carts.LockCart(ctx, tx, &cartdomain.Cart{
			ID:        s.genID.Generate().Int64(),
			UserID:    userID,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return err
		}
		lines, err := s.carts.ListItems(ctx, tx, cart.ID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return domain.ErrEmptyCart
		}

		totals, err := cartdomain.ComputeTotals(lines, s.shipping.ShippingCost(ctx))
		if err != nil {
			return err
		}
		products, err := s.products.FindActiveByIDs(ctx, tx, productIDs(lines))
		if err != nil {
			return err
		}

		number, err := ulid.New(ulid.Timestamp(now), ulid.DefaultEntropy())
		if err != nil {
			return err
		}
		order = &domain.Order{
			ID:              s.genID.Generate().Int64(),
			OrderNumber:     "ORD-" + number.String(),
			UserID:          &userID,
			CustomerName:    trimPtr(req.CustomerName),
			CustomerEmail:   trimPtr(req.CustomerEmail),
			Phone:           trimPtr(req.Phone),
			Subtotal:        totals.Subtotal,
			ShippingCost:    totals.ShippingCost,
			Discount:        totals.TotalDiscount,
			Total:           totals.Total,
			Status:          domain.StatusPending,
			PaymentMethod:   paymentMethod,
			Notes:           trimPtr(req.Notes),
			DeliveryAddress: address,
			CreatedAt:       now,
			UpdatedAt:       now,
		}

		items = make([]domain.Item, 0, len(lines))
		for _, line := range lines {
			product, ok := products[line.ProductID]
			if !ok {
				return s.stockFailure(line.ProductID, line.Quantity, 0)
			}
			taken, err := s.products.DecrementStock(ctx, tx, line.ProductID, line.Quantity)
			if err != nil {
				return err
			}
			if !taken {
				available := product.StockQuantity
				if current, err := s.products.FindByID(ctx, tx, line.ProductID); err == nil && current != nil {
					available = current.StockQuantity
				}
				return s.stockFailure(line.ProductID, line.Quantity, available)
			}

			productID := line.ProductID
			nameAr := product.NameAr
			items = append(items, domain.Item{
				ID:            s.genID.Generate().Int64(),
				OrderID:       order.ID,
				ProductID:     &productID,
				ProductName:   product.Name,
				ProductNameAr: &nameAr,
				Quantity:      line.Quantity,
				Price:         line.FinalUnitPrice,
				OriginalPrice: line.OriginalUnitPrice,
				ImageURL:      product.ImageURL,
			})
		}

		if err := s.repo.Create(ctx, tx, order, items); err != nil {
			return err
		}
		cleared, err := s.carts.DeleteItems(ctx, tx, cart.ID)
		if err != nil {
			return err
		}

		record := func(table string, id int64, action syncdomain.Action) error {
			var (
				entry *syncdomain.Entry
				err   error
			)
			if syncdomain.IsPrivate(table) {
				entry, err = s.sync.RecordOwned(ctx, tx, table, id, userID, action)
			} else {
				entry, err = s.sync.Record(ctx, tx, table, id, action)
			}
			if err != nil {
				return err
			}
			entries = append(entries, *entry)
			return nil
		}
		if err := record(syncdomain.TableOrders, order.ID, syncdomain.ActionCreated); err != nil {
			return err
		}
		for _, id := range cleared {
			if err := record(syncdomain.TableCartItems, id, syncdomain.ActionDeleted); err != nil {
				return err
			}
		}
		for _, line := range lines {
			if err := record(syncdomain.TableProducts, line.ProductID, syncdomain.ActionUpdated); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		var stockErr *cartdomain.StockError
		if errors.As(err, &stockErr) {
			s.metrics.IncOrderRollback()
			s.log.Warn("order rolled back on stock",
				zap.Int64("product_id", stockErr.ProductID),
				zap.Int("requested", stockErr.Requested),
				zap.Int("available", stockErr.Available),
			)
		}
		return nil, err
	}

	s.sync.Notify(entries...)
	s.metrics.IncOrderCreated()
	s.log.Info("order created",
		zap.Int64("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.Int("items", len(items)),
		zap.String("total", order.Total.StringFixed(2)),
	)
	return toResponse(*order, items), nil
}

func (s *Service) stockFailure(productID int64, requested, available int) error {
	s.metrics.IncStockRejection(metrics.StockRejectOrder)
	return &cartdomain.StockError{ProductID: productID, Requested: requested, Available: available}
}

func (s *Service) ListMine(ctx context.Context, req domain.ListRequest) (*domain.ListResponse, error) {
	userID, err := authctx.UserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, req, &userID)
}

func (s *Service) GetMine(ctx context.Context, id string) (*domain.Response, error) {
	userID, err := authctx.UserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	order, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID == nil || *order.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return s.withItems(ctx, *order)
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (*domain.ListResponse, error) {
	return s.list(ctx, req, nil)
}

// Get is the back-office lookup; the first read marks the order viewed.
func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	order, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !order.IsViewed {
		if err := s.repo.MarkViewed(ctx, s.db, order.ID); err != nil {
			return nil, err
		}
		order.IsViewed = true
	}
	return s.withItems(ctx, *order)
}

func (s *Service) UpdateStatus(ctx context.Context, req domain.UpdateStatusRequest) (*domain.Response, error) {
	orderID, err := parseID(req.ID)
	if err != nil {
		return nil, err
	}
	status := domain.Status(strings.TrimSpace(req.Status))
	if !status.Valid() {
		return nil, domain.ErrInvalidStatus
	}

	var (
		order *domain.Order
		entry *syncdomain.Entry
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err = s.repo.FindByID(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrNotFound
		}
		if order.Status == status {
			return nil
		}
		if order.Status.Terminal() {
			return domain.ErrStatusTransition
		}

		now := s.clock.Now()
		if _, err := s.repo.UpdateStatus(ctx, tx, orderID, status, now); err != nil {
			return err
		}
		order.Status = status
		order.UpdatedAt = now

		var owner int64
		if order.UserID != nil {
			owner = *order.UserID
		}
		entry, err = s.sync.RecordOwned(ctx, tx, syncdomain.TableOrders, orderID, owner, syncdomain.ActionUpdated)
		return err
	})
	if err != nil {
		return nil, err
	}
	if entry != nil {
		s.sync.Notify(*entry)
		s.log.Info("order status changed", zap.Int64("order_id", orderID), zap.String("status", string(status)))
	}
	return s.withItems(ctx, *order)
}

func (s *Service) list(ctx context.Context, req domain.ListRequest, userID *int64) (*domain.ListResponse, error) {
	page := req.Pagination.Normalize()
	filter := domain.ListFilter{UserID: userID}
	if raw := strings.TrimSpace(req.Status); raw != "" {
		filter.Status = domain.Status(raw)
		if !filter.Status.Valid() {
			return nil, domain.ErrInvalidStatus
		}
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

	orders, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}
	orders, info := pagination.BuildCursorPageInfo(orders, page.PageSize, page.Cursor, func(o domain.Order) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{ID: snowflake.ID(o.ID).String()})
		return token
	})

	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	items, err := s.repo.ItemsByOrder(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}
	resp := &domain.ListResponse{Orders: make([]domain.Response, 0, len(orders)), Total: total, PageInfo: info}
	for _, o := range orders {
		resp.Orders = append(resp.Orders, *toResponse(o, items[o.ID]))
	}
	return resp, nil
}

func (s *Service) find(ctx context.Context, id string) (*domain.Order, error) {
	orderID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	order, err := s.repo.FindByID(ctx, s.db, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	return order, nil
}

func (s *Service) withItems(ctx context.Context, order domain.Order) (*domain.Response, error) {
	items, err := s.repo.ItemsByOrder(ctx, s.db, []int64{order.ID})
	if err != nil {
		return nil, err
	}
	return toResponse(order, items[order.ID]), nil
}

func toResponse(o domain.Order, items []domain.Item) *domain.Response {
	resp := &domain.Response{
		ID:              snowflake.ID(o.ID).String(),
		OrderNumber:     o.OrderNumber,
		UserID:          idString(o.UserID),
		CustomerName:    o.CustomerName,
		CustomerEmail:   o.CustomerEmail,
		Phone:           o.Phone,
		Subtotal:        o.Subtotal.InexactFloat64(),
		ShippingCost:    o.ShippingCost.InexactFloat64(),
		Discount:        o.Discount.InexactFloat64(),
		Total:           o.Total.InexactFloat64(),
		Status:          string(o.Status),
		PaymentMethod:   o.PaymentMethod,
		Notes:           o.Notes,
		IsViewed:        o.IsViewed,
		DeliveryAddress: json.RawMessage(o.DeliveryAddress),
		Items:           make([]domain.ItemResponse, 0, len(items)),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	if len(resp.DeliveryAddress) == 0 {
		resp.DeliveryAddress = json.RawMessage("null")
	}
	for _, item := range items {
		resp.Items = append(resp.Items, domain.ItemResponse{
			ID:            snowflake.ID(item.ID).String(),
			ProductID:     idString(item.ProductID),
			ProductName:   item.ProductName,
			ProductNameAr: item.ProductNameAr,
			Quantity:      item.Quantity,
			Price:         item.Price.InexactFloat64(),
			OriginalPrice: item.OriginalPrice.InexactFloat64(),
			ImageURL:      item.ImageURL,
		})
	}
	return resp
}

// normalizeAddress accepts a JSON object or nothing.
func normalizeAddress(raw json.RawMessage) (datatypes.JSON, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(trimmed), &fields); err != nil {
		return nil, domain.ErrInvalidAddress
	}
	return datatypes.JSON(trimmed), nil
}

func productIDs(lines []cartdomain.Item) []int64 {
	ids := make([]int64, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
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
