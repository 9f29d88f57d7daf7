package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/autoparts/internal/authctx"
	"github.com/smallbiznis/autoparts/internal/clock"
	"github.com/smallbiznis/autoparts/internal/comment/domain"
	productdomain "github.com/smallbiznis/autoparts/internal/product/domain"
	syncdomain "github.com/smallbiznis/autoparts/internal/synclog/domain"
	"github.com/smallbiznis/autoparts/pkg/db/option"
	"github.com/smallbiznis/autoparts/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Products productdomain.Repository
	Users    domain.UserDirectory
	Sync     syncdomain.Recorder
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	products productdomain.Repository
	users    domain.UserDirectory
	sync     syncdomain.Recorder
	comments repository.Repository[domain.Comment]
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("comment.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		products: p.Products,
		users:    p.Users,
		sync:     p.Sync,
		comments: repository.ProvideStore[domain.Comment](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	actor, ok := authctx.ActorFromContext(ctx)
	if !ok {
		return nil, authctx.ErrMissingActor
	}
	productID, err := parseID(req.ProductID)
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, domain.ErrInvalidText
	}
	if req.Rating != nil && (*req.Rating < domain.MinRating || *req.Rating > domain.MaxRating) {
		return nil, domain.ErrInvalidRating
	}

	users, err := s.users.FindUsers(ctx, []int64{actor.UserID})
	if err != nil {
		return nil, err
	}
	author, ok := users[actor.UserID]
	if !ok {
		return nil, authctx.ErrMissingActor
	}

	now := s.clock.Now()
	row := &domain.Comment{
		ID:          s.genID.Generate().Int64(),
		ProductID:   productID,
		UserID:      actor.UserID,
		UserName:    author.Name,
		UserPicture: author.Picture,
		Text:        text,
		Rating:      req.Rating,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err = s.mutate(ctx, row.ID, syncdomain.ActionCreated, func(tx *gorm.DB) error {
		product, err := s.products.FindActive(ctx, tx, productID)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrProductNotFound
		}
		return s.comments.WithTrx(tx).Create(ctx, row)
	})
	if err != nil {
		return nil, err
	}

	resp := toResponse(row)
	return &resp, nil
}

func (s *Service) ListByProduct(ctx context.Context, rawProductID string) ([]domain.Response, error) {
	productID, err := parseID(rawProductID)
	if err != nil {
		return nil, err
	}
	rows, err := s.comments.Find(ctx, nil,
		option.WithWhere("product_id = ?", productID),
		option.WithOrder("created_at DESC, id DESC"),
	)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Response, 0, len(rows))
	for _, row := range rows {
		out = append(out, toResponse(row))
	}
	return out, nil
}

func (s *Service) Delete(ctx context.Context, rawID string) error {
	actor, ok := authctx.ActorFromContext(ctx)
	if !ok {
		return authctx.ErrMissingActor
	}
	id, err := parseID(rawID)
	if err != nil {
		return err
	}

	return s.mutate(ctx, id, syncdomain.ActionDeleted, func(tx *gorm.DB) error {
		store := s.comments.WithTrx(tx)
		row, err := store.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if row == nil {
			return domain.ErrNotFound
		}
		if row.UserID != actor.UserID && !actor.IsAdmin {
			return domain.ErrForbidden
		}
		_, err = store.Delete(ctx, id)
		return err
	})
}

func (s *Service) mutate(ctx context.Context, id int64, action syncdomain.Action, fn func(tx *gorm.DB) error) error {
	var entry *syncdomain.Entry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := fn(tx); err != nil {
			return err
		}
		var err error
		entry, err = s.sync.Record(ctx, tx, syncdomain.TableComments, id, action)
		return err
	})
	if err != nil {
		return err
	}
	s.sync.Notify(*entry)
	s.log.Info("comment changed", zap.Int64("comment_id", id), zap.String("action", string(action)))
	return nil
}

func toResponse(c *domain.Comment) domain.Response {
	return domain.Response{
		ID:          snowflake.ID(c.ID).String(),
		ProductID:   snowflake.ID(c.ProductID).String(),
		UserID:      snowflake.ID(c.UserID).String(),
		UserName:    c.UserName,
		UserPicture: c.UserPicture,
		Text:        c.Text,
		Rating:      c.Rating,
		CreatedAt:   c.CreatedAt,
	}
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

var _ domain.Service = (*Service)(nil)
