package authorization

import (
	"context"
	"testing"

	"github.com/smallbiznis/autoparts/internal/authctx"
	"github.com/smallbiznis/autoparts/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	enforcer, err := NewEnforcer(dbtest.Open(t))
	require.NoError(t, err)
	return NewService(Params{Log: zap.NewNop(), Enforcer: enforcer})
}

func TestAuthorize(t *testing.T) {
	svc := newTestService(t)
	admin := authctx.WithActor(context.Background(), authctx.Actor{UserID: 1, IsAdmin: true})
	shopper := authctx.WithActor(context.Background(), authctx.Actor{UserID: 2})

	cases := []struct {
		name   string
		ctx    context.Context
		object string
		action string
		err    error
	}{
		{name: "admin manages products", ctx: admin, object: ObjectProduct, action: ActionCreate},
		{name: "admin manages catalog", ctx: admin, object: ObjectCatalog, action: ActionDelete},
		{name: "admin updates order status", ctx: admin, object: ObjectOrder, action: ActionUpdateStatus},
		{name: "admin cannot delete orders", ctx: admin, object: ObjectOrder, action: ActionDelete, err: ErrForbidden},
		{name: "shopper denied", ctx: shopper, object: ObjectProduct, action: ActionCreate, err: ErrForbidden},
		{name: "anonymous", ctx: context.Background(), object: ObjectProduct, action: ActionCreate, err: ErrInvalidActor},
		{name: "blank object", ctx: admin, object: " ", action: ActionCreate, err: ErrInvalidObject},
		{name: "blank action", ctx: admin, object: ObjectProduct, action: "", err: ErrInvalidAction},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.Authorize(tc.ctx, tc.object, tc.action)
			if tc.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestAuthorize_FollowsAdminFlag(t *testing.T) {
	svc := newTestService(t)

	promoted := authctx.WithActor(context.Background(), authctx.Actor{UserID: 9, IsAdmin: true})
	require.NoError(t, svc.Authorize(promoted, ObjectPromotion, ActionUpdate))

	demoted := authctx.WithActor(context.Background(), authctx.Actor{UserID: 9})
	assert.ErrorIs(t, svc.Authorize(demoted, ObjectPromotion, ActionUpdate), ErrForbidden)
}

func TestNewEnforcer_SeedIsIdempotent(t *testing.T) {
	db := dbtest.Open(t)
	_, err := NewEnforcer(db)
	require.NoError(t, err)
	enforcer, err := NewEnforcer(db)
	require.NoError(t, err)

	policies, err := enforcer.GetPolicy()
	require.NoError(t, err)
	assert.Len(t, policies, 6)
}
