package migration

import (
	"context"

	authdomain "github.com/smallbiznis/autoparts/internal/auth/domain"
	"github.com/smallbiznis/autoparts/internal/config"
	"github.com/smallbiznis/autoparts/internal/seed"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, users authdomain.Service, log *zap.Logger) error {
		if err := Migrate(conn); err != nil {
			return err
		}
		return seed.EnsureAdmin(context.Background(), users, cfg, log)
	}),
)
