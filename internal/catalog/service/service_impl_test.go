package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/autoparts/internal/catalog/domain"
	"github.com/smallbiznis/autoparts/internal/clock"
	syncdomain "github.com/smallbiznis/autoparts/internal/synclog/domain"
	syncrepo "github.com/smallbiznis/autoparts/internal/synclog/repository"
	syncservice "github.com/smallbiznis/autoparts/internal/synclog/service"
	"github.com/smallbiznis/autoparts/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupService(t *testing.T) (*Service, syncdomain.Service) {
	t.Helper()
	db := dbtest.Open(t,
		&domain.CarBrand{},
		&domain.CarModel{},
		&domain.ProductBrand{},
		&domain.Category{},
		&syncdomain.Entry{},
	)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fc := clock.NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	sync := syncservice.New(syncservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fc,
		Repo:  syncrepo.Provide(),
	})
	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fc,
		Sync:  sync,
	}).(*Service)
	return svc, sync
}

func entriesFor(t *testing.T, sync syncdomain.Service, table string) []syncdomain.Entry {
	t.Helper()
	var out []syncdomain.Entry
	for e, err := range sync.EntriesSince(context.Background(), table, 0) {
		require.NoError(t, err)
		out = append(out, e)
	}
	return out
}

func idOf(id int64) string { return snowflake.ID(id).String() }

func TestCategory_CreateTreeAndSlugLookup(t *testing.T) {
	svc, sync := setupService(t)
	ctx := context.Background()

	engine, err := svc.CreateCategory(ctx, domain.CategoryRequest{Name: "Engine Parts", NameAr: "قطع المحرك"})
	require.NoError(t, err)
	assert.Equal(t, "engine-parts", engine.Slug)

	parent := idOf(engine.ID)
	filters, err := svc.CreateCategory(ctx, domain.CategoryRequest{Name: "Filters", NameAr: "فلاتر", ParentID: &parent})
	require.NoError(t, err)
	require.NotNil(t, filters.ParentID)

	tree, err := svc.CategoryTree(ctx)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, filters.ID, tree[0].Children[0].ID)

	ids, err := svc.DescendantIDs(ctx, engine.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{engine.ID, filters.ID}, ids)

	bySlug, err := svc.GetCategory(ctx, "engine-parts")
	require.NoError(t, err)
	assert.Equal(t, engine.ID, bySlug.ID)

	byID, err := svc.GetCategory(ctx, idOf(filters.ID))
	require.NoError(t, err)
	assert.Equal(t, "Filters", byID.Name)

	assert.Len(t, entriesFor(t, sync, syncdomain.TableCategories), 2)
}

func TestCategory_RejectsParentCycle(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	root, err := svc.CreateCategory(ctx, domain.CategoryRequest{Name: "Root", NameAr: "جذر"})
	require.NoError(t, err)
	rootID := idOf(root.ID)
	child, err := svc.CreateCategory(ctx, domain.CategoryRequest{Name: "Child", NameAr: "فرع", ParentID: &rootID})
	require.NoError(t, err)

	childID := idOf(child.ID)
	_, err = svc.UpdateCategory(ctx, rootID, domain.CategoryRequest{Name: "Root", NameAr: "جذر", ParentID: &childID})
	assert.ErrorIs(t, err, domain.ErrInvalidParent)

	_, err = svc.UpdateCategory(ctx, rootID, domain.CategoryRequest{Name: "Root", NameAr: "جذر", ParentID: &rootID})
	assert.ErrorIs(t, err, domain.ErrInvalidParent)

	missing := idOf(12345)
	_, err = svc.CreateCategory(ctx, domain.CategoryRequest{Name: "X", NameAr: "س", ParentID: &missing})
	assert.ErrorIs(t, err, domain.ErrInvalidParent)
}

func TestCategory_SoftDeleteIsLoggedAndHidden(t *testing.T) {
	svc, sync := setupService(t)
	ctx := context.Background()

	cat, err := svc.CreateCategory(ctx, domain.CategoryRequest{Name: "Lights", NameAr: "أضواء"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteCategory(ctx, idOf(cat.ID)))
	assert.ErrorIs(t, svc.DeleteCategory(ctx, idOf(cat.ID)), domain.ErrNotFound)

	items, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = svc.GetCategory(ctx, idOf(cat.ID))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	entries := entriesFor(t, sync, syncdomain.TableCategories)
	require.Len(t, entries, 2)
	assert.Equal(t, syncdomain.ActionDeleted, entries[1].Action)

	var count int64
	require.NoError(t, svc.db.Unscoped().Model(&domain.Category{}).Where("id = ?", cat.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCarModel_Validation(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	brand, err := svc.CreateCarBrand(ctx, domain.CarBrandRequest{Name: "Toyota", NameAr: "تويوتا"})
	require.NoError(t, err)

	start, end := 2015, 2010
	_, err = svc.CreateCarModel(ctx, domain.CarModelRequest{
		BrandID: idOf(brand.ID), Name: "Camry", NameAr: "كامري", YearStart: &start, YearEnd: &end,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidYearRange)

	_, err = svc.CreateCarModel(ctx, domain.CarModelRequest{BrandID: idOf(999), Name: "Camry", NameAr: "كامري"})
	assert.ErrorIs(t, err, domain.ErrInvalidBrand)

	_, err = svc.CreateCarModel(ctx, domain.CarModelRequest{
		BrandID: idOf(brand.ID), Name: "Camry", NameAr: "كامري", Variants: []byte(`{bad`),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidVariants)

	model, err := svc.CreateCarModel(ctx, domain.CarModelRequest{
		BrandID: idOf(brand.ID), Name: "Camry", NameAr: "كامري", Variants: []byte(`["LE","SE"]`),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `["LE","SE"]`, string(model.Variants))

	models, err := svc.ListCarModels(ctx, domain.ListCarModelsRequest{BrandID: idOf(brand.ID)})
	require.NoError(t, err)
	require.Len(t, models, 1)

	_, err = svc.ListCarModels(ctx, domain.ListCarModelsRequest{BrandID: "nope"})
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestProductBrand_Update(t *testing.T) {
	svc, sync := setupService(t)
	ctx := context.Background()

	_, err := svc.CreateProductBrand(ctx, domain.ProductBrandRequest{Name: " "})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	brand, err := svc.CreateProductBrand(ctx, domain.ProductBrandRequest{Name: "Bosch"})
	require.NoError(t, err)

	country := "Germany"
	updated, err := svc.UpdateProductBrand(ctx, idOf(brand.ID), domain.ProductBrandRequest{Name: "Bosch Auto", CountryOfOrigin: &country})
	require.NoError(t, err)
	assert.Equal(t, "bosch-auto", updated.Slug)
	require.NotNil(t, updated.CountryOfOrigin)
	assert.Equal(t, "Germany", *updated.CountryOfOrigin)

	_, err = svc.UpdateProductBrand(ctx, idOf(424242), domain.ProductBrandRequest{Name: "Ghost"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	entries := entriesFor(t, sync, syncdomain.TableProductBrands)
	require.Len(t, entries, 2)
	assert.Equal(t, syncdomain.ActionUpdated, entries[1].Action)
}
