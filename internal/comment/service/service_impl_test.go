package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	authdomain "github.com/smallbiznis/autoparts/internal/auth/domain"
	"github.com/smallbiznis/autoparts/internal/authctx"
	"github.com/smallbiznis/autoparts/internal/clock"
	"github.com/smallbiznis/autoparts/internal/comment/domain"
	productdomain "github.com/smallbiznis/autoparts/internal/product/domain"
	productrepo "github.com/smallbiznis/autoparts/internal/product/repository"
	syncdomain "github.com/smallbiznis/autoparts/internal/synclog/domain"
	syncrepo "github.com/smallbiznis/autoparts/internal/synclog/repository"
	syncservice "github.com/smallbiznis/autoparts/internal/synclog/service"
	"github.com/smallbiznis/autoparts/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type usersMock struct {
	mock.Mock
}

func (m *usersMock) FindUsers(ctx context.Context, ids []int64) (map[int64]authdomain.User, error) {
	args := m.Called(ctx, ids)
	users, _ := args.Get(0).(map[int64]authdomain.User)
	return users, args.Error(1)
}

type fixture struct {
	db    *gorm.DB
	svc   domain.Service
	users *usersMock
	node  *snowflake.Node
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t, &productdomain.Product{}, &domain.Comment{}, &syncdomain.Entry{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fc := clock.NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	users := &usersMock{}
	sync := syncservice.New(syncservice.Params{DB: db, Log: zap.NewNop(), GenID: node, Clock: fc, Repo: syncrepo.Provide()})
	svc := New(Params{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    fc,
		Products: productrepo.Provide(),
		Users:    users,
		Sync:     sync,
	})
	return &fixture{db: db, svc: svc, users: users, node: node}
}

func (f *fixture) user(id int64, name string) context.Context {
	f.users.On("FindUsers", mock.Anything, []int64{id}).Return(map[int64]authdomain.User{
		id: {ID: id, Name: name},
	}, nil)
	return authctx.WithActor(context.Background(), authctx.Actor{UserID: id})
}

func (f *fixture) product(t *testing.T) string {
	t.Helper()
	p := &productdomain.Product{
		ID:            f.node.Generate().Int64(),
		Name:          "Brake pad",
		NameAr:        "فحمات فرامل",
		Price:         decimal.NewFromInt(120),
		SKU:           f.node.Generate().String(),
		StockQuantity: 10,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	require.NoError(t, f.db.Create(p).Error)
	return snowflake.ID(p.ID).String()
}

func rating(v int) *int { return &v }

func TestCreate_SnapshotsAuthor(t *testing.T) {
	f := setup(t)
	ctx := f.user(1, "Alice")
	productID := f.product(t)

	created, err := f.svc.Create(ctx, domain.CreateRequest{ProductID: productID, Text: "  Fits perfectly  ", Rating: rating(5)})
	require.NoError(t, err)
	assert.Equal(t, "Alice", created.UserName)
	assert.Equal(t, "Fits perfectly", created.Text)
	assert.Equal(t, 5, *created.Rating)

	_, err = f.svc.Create(ctx, domain.CreateRequest{ProductID: productID, Text: "No stars"})
	require.NoError(t, err)

	list, err := f.svc.ListByProduct(context.Background(), productID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "No stars", list[0].Text)
	assert.Nil(t, list[0].Rating)

	var count int64
	require.NoError(t, f.db.Model(&syncdomain.Entry{}).Where("table_name = ?", syncdomain.TableComments).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestCreate_Validation(t *testing.T) {
	f := setup(t)
	ctx := f.user(1, "Alice")
	productID := f.product(t)

	cases := []struct {
		name string
		req  domain.CreateRequest
		err  error
	}{
		{name: "blank text", req: domain.CreateRequest{ProductID: productID, Text: "   "}, err: domain.ErrInvalidText},
		{name: "rating low", req: domain.CreateRequest{ProductID: productID, Text: "ok", Rating: rating(0)}, err: domain.ErrInvalidRating},
		{name: "rating high", req: domain.CreateRequest{ProductID: productID, Text: "ok", Rating: rating(6)}, err: domain.ErrInvalidRating},
		{name: "bad id", req: domain.CreateRequest{ProductID: "x", Text: "ok"}, err: domain.ErrInvalidID},
		{name: "unknown product", req: domain.CreateRequest{ProductID: "999", Text: "ok"}, err: domain.ErrProductNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, tc.req)
			assert.ErrorIs(t, err, tc.err)
		})
	}

	_, err := f.svc.Create(context.Background(), domain.CreateRequest{ProductID: productID, Text: "ok"})
	assert.ErrorIs(t, err, authctx.ErrMissingActor)
}

func TestDelete_OwnerOrAdmin(t *testing.T) {
	f := setup(t)
	alice := f.user(1, "Alice")
	bob := f.user(2, "Bob")
	admin := authctx.WithActor(context.Background(), authctx.Actor{UserID: 3, IsAdmin: true})
	productID := f.product(t)

	first, err := f.svc.Create(alice, domain.CreateRequest{ProductID: productID, Text: "first"})
	require.NoError(t, err)
	second, err := f.svc.Create(alice, domain.CreateRequest{ProductID: productID, Text: "second"})
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Delete(bob, first.ID), domain.ErrForbidden)
	require.NoError(t, f.svc.Delete(alice, first.ID))
	assert.ErrorIs(t, f.svc.Delete(alice, first.ID), domain.ErrNotFound)
	require.NoError(t, f.svc.Delete(admin, second.ID))

	list, err := f.svc.ListByProduct(context.Background(), productID)
	require.NoError(t, err)
	assert.Empty(t, list)
}
