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
	"github.com/smallbiznis/autoparts/internal/product/domain"
	"github.com/smallbiznis/autoparts/internal/product/repository"
	syncdomain "github.com/smallbiznis/autoparts/internal/synclog/domain"
	syncrepo "github.com/smallbiznis/autoparts/internal/synclog/repository"
	syncservice "github.com/smallbiznis/autoparts/internal/synclog/service"
	"github.com/smallbiznis/autoparts/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db      *gorm.DB
	svc     *Service
	catalog catalogdomain.Service
	sync    syncdomain.Service
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := dbtest.Open(t,
		&catalogdomain.CarBrand{},
		&catalogdomain.CarModel{},
		&catalogdomain.ProductBrand{},
		&catalogdomain.Category{},
		&domain.Product{},
		&domain.ProductCarModel{},
		&syncdomain.Entry{},
	)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fc := clock.NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	sync := syncservice.New(syncservice.Params{DB: db, Log: zap.NewNop(), GenID: node, Clock: fc, Repo: syncrepo.Provide()})
	catalog := catalogservice.New(catalogservice.Params{DB: db, Log: zap.NewNop(), GenID: node, Clock: fc, Sync: sync})
	svc := New(Params{
		DB:      db,
		Log:     zap.NewNop(),
		GenID:   node,
		Clock:   fc,
		Repo:    repository.Provide(),
		Catalog: catalog,
		Sync:    sync,
	}).(*Service)
	return fixture{db: db, svc: svc, catalog: catalog, sync: sync}
}

func adminCtx() context.Context {
	return authctx.WithActor(context.Background(), authctx.Actor{UserID: 1, IsAdmin: true})
}

func ptr[T any](v T) *T { return &v }

func (f fixture) createProduct(t *testing.T, req domain.CreateRequest) *domain.Response {
	t.Helper()
	if req.NameAr == "" {
		req.NameAr = req.Name
	}
	if req.Price.IsZero() {
		req.Price = decimal.NewFromInt(100)
	}
	resp, err := f.svc.Create(adminCtx(), req)
	require.NoError(t, err)
	return resp
}

func TestCreate_ValidatesAndLogs(t *testing.T) {
	f := setup(t)
	ctx := adminCtx()

	_, err := f.svc.Create(ctx, domain.CreateRequest{Name: "", NameAr: "x", SKU: "A", Price: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, domain.ErrInvalidName)
	_, err = f.svc.Create(ctx, domain.CreateRequest{Name: "Pad", NameAr: "x", SKU: " ", Price: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, domain.ErrInvalidSKU)
	_, err = f.svc.Create(ctx, domain.CreateRequest{Name: "Pad", NameAr: "x", SKU: "A", Price: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)
	_, err = f.svc.Create(ctx, domain.CreateRequest{Name: "Pad", NameAr: "x", SKU: "A", Price: decimal.NewFromInt(1), StockQuantity: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidStock)
	_, err = f.svc.Create(ctx, domain.CreateRequest{Name: "Pad", NameAr: "x", SKU: "A", Price: decimal.NewFromInt(1), CategoryID: ptr("12345")})
	assert.ErrorIs(t, err, domain.ErrInvalidCategory)

	p := f.createProduct(t, domain.CreateRequest{Name: "Brake Pad", SKU: "BP-1", Price: decimal.RequireFromString("49.99"), StockQuantity: 5, Images: []string{" a.jpg ", ""}})
	assert.Equal(t, 49.99, p.Price)
	assert.Equal(t, []string{"a.jpg"}, p.Images)
	assert.Empty(t, p.CarModelIDs)

	_, err = f.svc.Create(ctx, domain.CreateRequest{Name: "Other", NameAr: "x", SKU: "BP-1", Price: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, domain.ErrDuplicateSKU)

	var entries []syncdomain.Entry
	for e, err := range f.sync.EntriesSince(ctx, syncdomain.TableProducts, 0) {
		require.NoError(t, err)
		entries = append(entries, e)
	}
	require.Len(t, entries, 1)
	assert.Equal(t, syncdomain.ActionCreated, entries[0].Action)
	assert.Equal(t, p.ID, snowflake.ID(entries[0].RecordID).String())
}

func TestList_FiltersByCategoryDescendantsAndCarModel(t *testing.T) {
	f := setup(t)
	ctx := adminCtx()

	engine, err := f.catalog.CreateCategory(ctx, catalogdomain.CategoryRequest{Name: "Engine", NameAr: "محرك"})
	require.NoError(t, err)
	engineID := snowflake.ID(engine.ID).String()
	filters, err := f.catalog.CreateCategory(ctx, catalogdomain.CategoryRequest{Name: "Filters", NameAr: "فلاتر", ParentID: &engineID})
	require.NoError(t, err)
	filtersID := snowflake.ID(filters.ID).String()

	brand, err := f.catalog.CreateCarBrand(ctx, catalogdomain.CarBrandRequest{Name: "Toyota", NameAr: "تويوتا"})
	require.NoError(t, err)
	model, err := f.catalog.CreateCarModel(ctx, catalogdomain.CarModelRequest{BrandID: snowflake.ID(brand.ID).String(), Name: "Camry", NameAr: "كامري"})
	require.NoError(t, err)
	modelID := snowflake.ID(model.ID).String()

	oil := f.createProduct(t, domain.CreateRequest{Name: "Oil Filter", SKU: "OF-1", CategoryID: &filtersID, CarModelIDs: []string{modelID, modelID}})
	f.createProduct(t, domain.CreateRequest{Name: "Gasket", SKU: "GK-1", CategoryID: &engineID})
	f.createProduct(t, domain.CreateRequest{Name: "Wiper", SKU: "WP-1"})

	require.Equal(t, []string{modelID}, oil.CarModelIDs)

	res, err := f.svc.List(context.Background(), domain.ListRequest{CategoryID: engineID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.Total)
	assert.Len(t, res.Products, 2)

	res, err = f.svc.List(context.Background(), domain.ListRequest{CarModelID: modelID})
	require.NoError(t, err)
	require.Len(t, res.Products, 1)
	assert.Equal(t, oil.ID, res.Products[0].ID)

	res, err = f.svc.List(context.Background(), domain.ListRequest{Search: "wip"})
	require.NoError(t, err)
	require.Len(t, res.Products, 1)
	assert.Equal(t, "Wiper", res.Products[0].Name)

	_, err = f.svc.List(context.Background(), domain.ListRequest{CategoryID: "999"})
	assert.ErrorIs(t, err, domain.ErrInvalidCategory)
}

func TestList_PaginatesNewestFirst(t *testing.T) {
	f := setup(t)
	var ids []string
	for _, sku := range []string{"A", "B", "C", "D", "E"} {
		ids = append(ids, f.createProduct(t, domain.CreateRequest{Name: "Part " + sku, SKU: sku}).ID)
	}

	req := domain.ListRequest{}
	req.PageSize = 2
	var seen []string
	for {
		res, err := f.svc.List(context.Background(), req)
		require.NoError(t, err)
		assert.EqualValues(t, 5, res.Total)
		for _, p := range res.Products {
			seen = append(seen, p.ID)
		}
		if !res.HasMore {
			assert.Nil(t, res.NextCursor)
			break
		}
		require.NotNil(t, res.NextCursor)
		req.Cursor = *res.NextCursor
	}
	assert.Equal(t, []string{ids[4], ids[3], ids[2], ids[1], ids[0]}, seen)

	req.Cursor = "%%%"
	_, err := f.svc.List(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidCursor)
}

func TestHiddenProducts_OnlyVisibleToAdmins(t *testing.T) {
	f := setup(t)
	hidden := f.createProduct(t, domain.CreateRequest{Name: "Secret", SKU: "S-1", HiddenStatus: true})
	f.createProduct(t, domain.CreateRequest{Name: "Public", SKU: "P-1"})

	res, err := f.svc.List(context.Background(), domain.ListRequest{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Total)

	res, err = f.svc.List(adminCtx(), domain.ListRequest{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.Total)

	_, err = f.svc.Get(context.Background(), hidden.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	got, err := f.svc.Get(adminCtx(), hidden.ID)
	require.NoError(t, err)
	assert.True(t, got.HiddenStatus)
}

func TestUpdateAndDelete(t *testing.T) {
	f := setup(t)
	ctx := adminCtx()
	p := f.createProduct(t, domain.CreateRequest{Name: "Spark Plug", SKU: "SP-1", StockQuantity: 3})

	updated, err := f.svc.Update(ctx, domain.UpdateRequest{
		ID:            p.ID,
		Price:         ptr(decimal.RequireFromString("12.345")),
		StockQuantity: ptr(10),
	})
	require.NoError(t, err)
	assert.Equal(t, 12.35, updated.Price)
	assert.Equal(t, 10, updated.StockQuantity)
	assert.Equal(t, "Spark Plug", updated.Name)

	_, err = f.svc.Update(ctx, domain.UpdateRequest{ID: p.ID, Name: ptr("  ")})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	require.NoError(t, f.svc.Delete(ctx, p.ID))
	_, err = f.svc.Get(ctx, p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, p.ID), domain.ErrNotFound)

	var actions []syncdomain.Action
	for e, err := range f.sync.EntriesSince(ctx, syncdomain.TableProducts, 0) {
		require.NoError(t, err)
		actions = append(actions, e.Action)
	}
	assert.Equal(t, []syncdomain.Action{syncdomain.ActionCreated, syncdomain.ActionUpdated, syncdomain.ActionDeleted}, actions)
}

func TestDecrementStock_NeverGoesNegative(t *testing.T) {
	f := setup(t)
	p := f.createProduct(t, domain.CreateRequest{Name: "Belt", SKU: "BT-1", StockQuantity: 3})
	id, err := snowflake.ParseString(p.ID)
	require.NoError(t, err)

	repo := repository.Provide()
	ctx := context.Background()

	ok, err := repo.DecrementStock(ctx, f.db, id.Int64(), 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.DecrementStock(ctx, f.db, id.Int64(), 2)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.FindByID(ctx, f.db, id.Int64())
	require.NoError(t, err)
	assert.Equal(t, 1, got.StockQuantity)
}
