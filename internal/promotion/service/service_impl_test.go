package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/autoparts/internal/authctx"
	catalogdomain "github.com/smallbiznis/autoparts/internal/catalog/domain"
	catalogservice "github.com/smallbiznis/autoparts/internal/catalog/service"
	"github.com/smallbiznis/autoparts/internal/clock"
	productdomain "github.com/smallbiznis/autoparts/internal/product/domain"
	productrepo "github.com/smallbiznis/autoparts/internal/product/repository"
	"github.com/smallbiznis/autoparts/internal/promotion/domain"
	syncdomain "github.com/smallbiznis/autoparts/internal/synclog/domain"
	syncrepo "github.com/smallbiznis/autoparts/internal/synclog/repository"
	syncservice "github.com/smallbiznis/autoparts/internal/synclog/service"
	"github.com/smallbiznis/autoparts/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setup(t *testing.T) (*Service, *gorm.DB, syncdomain.Service) {
	t.Helper()
	db := dbtest.Open(t,
		&catalogdomain.Category{},
		&productdomain.Product{},
		&domain.BundleOffer{},
		&domain.Promotion{},
		&syncdomain.Entry{},
	)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fc := clock.NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	sync := syncservice.New(syncservice.Params{DB: db, Log: zap.NewNop(), GenID: node, Clock: fc, Repo: syncrepo.Provide()})
	catalog := catalogservice.New(catalogservice.Params{DB: db, Log: zap.NewNop(), GenID: node, Clock: fc, Sync: sync})
	svc := New(Params{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    fc,
		Products: productrepo.Provide(),
		Catalog:  catalog,
		Sync:     sync,
	}).(*Service)
	return svc, db, sync
}

func adminCtx() context.Context {
	return authctx.WithActor(context.Background(), authctx.Actor{UserID: 1, IsAdmin: true})
}

func seedProduct(t *testing.T, db *gorm.DB, sku string) int64 {
	t.Helper()
	p := &productdomain.Product{
		ID:        time.Now().UnixNano(),
		Name:      sku,
		NameAr:    sku,
		Price:     decimal.NewFromInt(100),
		SKU:       sku,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, db.Create(p).Error)
	return p.ID
}

func TestBundleOffer_LifecycleAndResolve(t *testing.T) {
	svc, db, sync := setup(t)
	ctx := adminCtx()
	productID := snowflake.ID(seedProduct(t, db, "BP-1")).String()

	_, err := svc.CreateBundleOffer(ctx, domain.BundleOfferRequest{Name: "Brake kit", DiscountPercentage: decimal.NewFromInt(101)})
	assert.ErrorIs(t, err, domain.ErrInvalidDiscount)
	_, err = svc.CreateBundleOffer(ctx, domain.BundleOfferRequest{Name: "Brake kit", ProductIDs: []string{"42"}})
	assert.ErrorIs(t, err, domain.ErrInvalidTarget)

	offer, err := svc.CreateBundleOffer(ctx, domain.BundleOfferRequest{
		Name:               "Brake kit",
		DiscountPercentage: decimal.NewFromInt(15),
		ProductIDs:         []string{productID, productID},
	})
	require.NoError(t, err)
	assert.Equal(t, 15.0, offer.DiscountPercentage)
	assert.Equal(t, []string{productID}, offer.ProductIDs)
	assert.True(t, offer.IsActive)

	offerID, err := snowflake.ParseString(offer.ID)
	require.NoError(t, err)
	resolved, err := svc.ResolveBundle(ctx, offerID.Int64())
	require.NoError(t, err)
	assert.True(t, resolved.DiscountPercentage.Equal(decimal.NewFromInt(15)))

	inactive := false
	_, err = svc.UpdateBundleOffer(ctx, offer.ID, domain.BundleOfferRequest{Name: "Brake kit", DiscountPercentage: decimal.NewFromInt(15), IsActive: &inactive})
	require.NoError(t, err)
	_, err = svc.ResolveBundle(ctx, offerID.Int64())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	public, err := svc.ListBundleOffers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, public)
	all, err := svc.ListBundleOffers(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, svc.DeleteBundleOffer(ctx, offer.ID))
	assert.ErrorIs(t, svc.DeleteBundleOffer(ctx, offer.ID), domain.ErrNotFound)

	var actions []syncdomain.Action
	for e, err := range sync.EntriesSince(ctx, syncdomain.TableBundleOffers, 0) {
		require.NoError(t, err)
		actions = append(actions, e.Action)
	}
	assert.Equal(t, []syncdomain.Action{syncdomain.ActionCreated, syncdomain.ActionUpdated, syncdomain.ActionDeleted}, actions)
}

func TestHomeSlider_ActiveSlidersInSortOrder(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := adminCtx()
	off := false

	_, err := svc.CreatePromotion(ctx, domain.PromotionRequest{Title: "Second", SortOrder: 2})
	require.NoError(t, err)
	_, err = svc.CreatePromotion(ctx, domain.PromotionRequest{Title: "First", SortOrder: 1})
	require.NoError(t, err)
	_, err = svc.CreatePromotion(ctx, domain.PromotionRequest{Title: "Banner", Type: "banner"})
	require.NoError(t, err)
	_, err = svc.CreatePromotion(ctx, domain.PromotionRequest{Title: "Off", IsActive: &off})
	require.NoError(t, err)

	_, err = svc.CreatePromotion(ctx, domain.PromotionRequest{Title: "Bad", Type: "popup"})
	assert.ErrorIs(t, err, domain.ErrInvalidType)
	_, err = svc.CreatePromotion(ctx, domain.PromotionRequest{Title: "Bad", TargetCategoryID: ptr("77")})
	assert.ErrorIs(t, err, domain.ErrInvalidTarget)

	slides, err := svc.HomeSlider(context.Background())
	require.NoError(t, err)
	require.Len(t, slides, 2)
	assert.Equal(t, "First", slides[0].Title)
	assert.Equal(t, "Second", slides[1].Title)

	banners, err := svc.ListPromotions(context.Background(), domain.ListPromotionsRequest{Type: "banner"})
	require.NoError(t, err)
	require.Len(t, banners, 1)
	assert.Equal(t, "Banner", banners[0].Title)

	all, err := svc.ListPromotions(context.Background(), domain.ListPromotionsRequest{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func ptr[T any](v T) *T { return &v }
