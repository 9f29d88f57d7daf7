package seed

import (
	"context"
	"testing"

	authdomain "github.com/smallbiznis/autoparts/internal/auth/domain"
	"github.com/smallbiznis/autoparts/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type usersMock struct {
	mock.Mock
	authdomain.Service
}

func (m *usersMock) EnsureUser(ctx context.Context, req authdomain.CreateUserRequest) (*authdomain.User, error) {
	args := m.Called(ctx, req)
	user, _ := args.Get(0).(*authdomain.User)
	return user, args.Error(1)
}

func TestEnsureAdmin(t *testing.T) {
	users := &usersMock{}
	users.On("EnsureUser", mock.Anything, authdomain.CreateUserRequest{
		Email:    "admin@example.com",
		Name:     defaultAdminName,
		Password: "secret-pass",
		IsAdmin:  true,
	}).Return(&authdomain.User{ID: 1, Email: "admin@example.com", IsAdmin: true}, nil).Once()

	err := EnsureAdmin(context.Background(), users, config.Config{
		AdminEmail:    " admin@example.com ",
		AdminPassword: "secret-pass",
	}, zap.NewNop())
	require.NoError(t, err)
	users.AssertExpectations(t)
}

func TestEnsureAdmin_SkipsWithoutEmail(t *testing.T) {
	users := &usersMock{}
	assert.NoError(t, EnsureAdmin(context.Background(), users, config.Config{}, zap.NewNop()))
	users.AssertNotCalled(t, "EnsureUser", mock.Anything, mock.Anything)
}
