package seed

import (
	"context"
	"errors"
	"strings"

	authdomain "github.com/smallbiznis/autoparts/internal/auth/domain"
	"github.com/smallbiznis/autoparts/internal/config"
	"go.uber.org/zap"
)

const defaultAdminName = "Store Admin"

// EnsureAdmin creates or promotes the back-office account named by ADMIN_EMAIL.
// It is a no-op when no admin email is configured.
func EnsureAdmin(ctx context.Context, users authdomain.Service, cfg config.Config, log *zap.Logger) error {
	email := strings.TrimSpace(cfg.AdminEmail)
	if email == "" {
		return nil
	}
	if users == nil {
		return errors.New("seed user service is required")
	}

	user, err := users.EnsureUser(ctx, authdomain.CreateUserRequest{
		Email:    email,
		Name:     defaultAdminName,
		Password: cfg.AdminPassword,
		IsAdmin:  true,
	})
	if err != nil {
		return err
	}

	log.Info("admin account ensured", zap.Int64("user_id", user.ID), zap.String("email", user.Email))
	return nil
}
