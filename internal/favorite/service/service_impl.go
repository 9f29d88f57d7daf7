package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/autoparts/internal/authctx"
	"github.com/smallbiznis/autoparts/internal/clock"
	"github.com/smallbiznis/autoparts/internal/favorite/domain"
	productdomain "github.com/smallbiznis/autoparts/internal/product/domain"
	syncdomain "github.com/smallbiznis/autoparts/internal/synclog/domain"
	"github.com/smallbiznis/autoparts/pkg/db"
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
	Sync     syncdomain.Recorder
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	products  productdomain.Repository
	sync      syncdomain.Recorder
	favorites repository.Repository[domain.Favorite]
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("favorite.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		products:  p.Products,
		sync:      p.Sync,
		favorites: repository.ProvideStore[domain.Favorite](p.DB),
	}
}

func (s *Service) Toggle(ctx context.Context, rawProductID string) (*domain.ToggleResponse, error) {
	userID, err := authctx.UserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	productID, err := strconv.ParseInt(strings.TrimSpace(rawProductID), 10, 64)
	if err != nil || productID <= 0 {
		return nil, domain.ErrInvalidID
	}

	var (
		entry    *syncdomain.Entry
		favorite bool
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		store := s.favorites.WithTrx(tx.Unscoped())
		existing, err := store.FindOne(ctx, nil,
			option.WithWhere("user_id = ? AND product_id = ?", userID, productID),
		)
		if err != nil {
			return err
		}

		var (
			recordID int64
			action   syncdomain.Action
		)
		switch {
		case existing != nil && !existing.DeletedAt.Valid:
			if _, err := s.favorites.WithTrx(tx).Delete(ctx, existing.ID); err != nil {
				return err
			}
			recordID, action = existing.ID, syncdomain.ActionDeleted
		default:
			product, err := s.products.FindActive(ctx, tx, productID)
			if err != nil {
				return err
			}
			if product == nil {
				return domain.ErrProductNotFound
			}
			now := s.clock.Now()
			if existing != nil {
				if _, err := store.Update(ctx, existing.ID, map[string]any{
					"deleted_at": nil,
					"updated_at": now,
				}); err != nil {
					return err
				}
				recordID = existing.ID
			} else {
				row := &domain.Favorite{
					ID:        s.genID.Generate().Int64(),
					UserID:    userID,
					ProductID: productID,
					CreatedAt: now,
					UpdatedAt: now,
				}
				if err := store.Create(ctx, row); err != nil {
					if db.IsDuplicateKeyErr(err) {
						return domain.ErrConflict
					}
					return err
				}
				recordID = row.ID
			}
			action, favorite = syncdomain.ActionCreated, true
		}

		entry, err = s.sync.RecordOwned(ctx, tx, syncdomain.TableFavorites, recordID, userID, action)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.sync.Notify(*entry)
	s.log.Info("favorite toggled",
		zap.Int64("user_id", userID),
		zap.Int64("product_id", productID),
		zap.Bool("is_favorite", favorite),
	)
	return &domain.ToggleResponse{
		ProductID:  snowflake.ID(productID).String(),
		IsFavorite: favorite,
	}, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Response, error) {
	userID, err := authctx.UserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.favorites.Find(ctx, nil,
		option.WithWhere("user_id = ?", userID),
		option.WithOrder("created_at DESC, id DESC"),
	)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ProductID)
	}
	products, err := s.products.FindActiveByIDs(ctx, s.db.WithContext(ctx), ids)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Response, 0, len(rows))
	for _, row := range rows {
		resp := domain.Response{
			ID:        snowflake.ID(row.ID).String(),
			ProductID: snowflake.ID(row.ProductID).String(),
			CreatedAt: row.CreatedAt,
		}
		if p, ok := products[row.ProductID]; ok {
			resp.Product = &domain.ProductSummary{
				Name:          p.Name,
				NameAr:        p.NameAr,
				Price:         p.Price.InexactFloat64(),
				ImageURL:      p.ImageURL,
				StockQuantity: p.StockQuantity,
			}
		}
		out = append(out, resp)
	}
	return out, nil
}

var _ domain.Service = (*Service)(nil)
