package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/autoparts/internal/auth/domain"
	"github.com/smallbiznis/autoparts/internal/auth/repository"
	"github.com/smallbiznis/autoparts/internal/authctx"
	"github.com/smallbiznis/autoparts/internal/clock"
	"github.com/smallbiznis/autoparts/internal/config"
	"github.com/smallbiznis/autoparts/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (domain.Service, *clock.FakeClock) {
	t.Helper()

	conn := dbtest.Open(t, &domain.User{}, &domain.Session{})
	repo, sessionRepo := repository.New(conn)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fc := clock.NewFakeClock(time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC))
	svc := New(Params{
		Log:         zap.NewNop(),
		Repo:        repo,
		SessionRepo: sessionRepo,
		GenID:       node,
		Clock:       fc,
		Config:      config.Config{SessionTTLHours: 24},
	})
	return svc, fc
}

func TestCreateUserValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, domain.CreateUserRequest{Email: "not-an-email", Password: "long-enough"})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)

	_, err = svc.CreateUser(ctx, domain.CreateUserRequest{Email: "a@example.com", Password: "short"})
	assert.ErrorIs(t, err, domain.ErrWeakPassword)

	user, err := svc.CreateUser(ctx, domain.CreateUserRequest{Email: "Alice@Example.com", Password: "long-enough"})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, "alice", user.Name)
	assert.False(t, user.IsAdmin)

	_, err = svc.CreateUser(ctx, domain.CreateUserRequest{Email: "alice@example.com", Password: "long-enough"})
	assert.ErrorIs(t, err, domain.ErrUserExists)
}

func TestLoginAndAuthenticate(t *testing.T) {
	svc, fc := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, domain.CreateUserRequest{Email: "alice@example.com", Name: "Alice", Password: "correct-password"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, domain.LoginRequest{Email: "alice@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = svc.Login(ctx, domain.LoginRequest{Email: "nobody@example.com", Password: "correct-password"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	res, err := svc.Login(ctx, domain.LoginRequest{Email: "alice@example.com", Password: "correct-password"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.RawToken)
	assert.Equal(t, "Alice", res.User.Name)
	assert.Equal(t, fc.Now().Add(24*time.Hour), res.ExpiresAt)

	session, user, err := svc.Authenticate(ctx, res.RawToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.UserID)
	assert.NotEqual(t, res.RawToken, session.SessionTokenHash)

	_, _, err = svc.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, domain.ErrInvalidSession)

	fc.Advance(25 * time.Hour)
	_, _, err = svc.Authenticate(ctx, res.RawToken)
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
}

func TestLogoutRevokesSession(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, domain.CreateUserRequest{Email: "bob@example.com", Password: "strong-password"})
	require.NoError(t, err)
	res, err := svc.Login(ctx, domain.LoginRequest{Email: "bob@example.com", Password: "strong-password"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, res.RawToken))
	_, _, err = svc.Authenticate(ctx, res.RawToken)
	assert.ErrorIs(t, err, domain.ErrSessionRevoked)

	assert.ErrorIs(t, svc.Logout(ctx, ""), domain.ErrInvalidSession)
}

func TestEnsureUserPromotesAdmin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, domain.CreateUserRequest{Email: "owner@example.com"})
	require.NoError(t, err)
	assert.Nil(t, created.PasswordHash)

	ensured, err := svc.EnsureUser(ctx, domain.CreateUserRequest{Email: "owner@example.com", Password: "admin-password", IsAdmin: true})
	require.NoError(t, err)
	assert.Equal(t, created.ID, ensured.ID)
	assert.True(t, ensured.IsAdmin)
	require.NotNil(t, ensured.PasswordHash)

	again, err := svc.EnsureUser(ctx, domain.CreateUserRequest{Email: "owner@example.com", Password: "other-password", IsAdmin: true})
	require.NoError(t, err)
	assert.Equal(t, *ensured.PasswordHash, *again.PasswordHash)
}

func TestCurrentUserAndFindUsers(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CurrentUser(ctx)
	assert.ErrorIs(t, err, domain.ErrInvalidSession)

	user, err := svc.CreateUser(ctx, domain.CreateUserRequest{Email: "carol@example.com", Name: "Carol"})
	require.NoError(t, err)

	me, err := svc.CurrentUser(authctx.WithActor(ctx, authctx.Actor{UserID: user.ID}))
	require.NoError(t, err)
	assert.Equal(t, snowflake.ID(user.ID).String(), me.ID)
	assert.Equal(t, "Carol", me.Name)

	found, err := svc.FindUsers(ctx, []int64{user.ID, 42})
	require.NoError(t, err)
	assert.Len(t, found, 1)
	assert.Equal(t, "Carol", found[user.ID].Name)
}
