package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	authdomain "github.com/smallbiznis/autoparts/internal/auth/domain"
	cartdomain "github.com/smallbiznis/autoparts/internal/cart/domain"
	catalogdomain "github.com/smallbiznis/autoparts/internal/catalog/domain"
	commentdomain "github.com/smallbiznis/autoparts/internal/comment/domain"
	favoritedomain "github.com/smallbiznis/autoparts/internal/favorite/domain"
	orderdomain "github.com/smallbiznis/autoparts/internal/order/domain"
	productdomain "github.com/smallbiznis/autoparts/internal/product/domain"
	promotiondomain "github.com/smallbiznis/autoparts/internal/promotion/domain"
	syncdomain "github.com/smallbiznis/autoparts/internal/synclog/domain"
	"gorm.io/gorm"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// RunMigrations applies the embedded PostgreSQL migrations.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// migrator.Close would close the shared *sql.DB.

	return nil
}

// Models lists every persisted model in dependency order.
func Models() []any {
	return []any{
		&authdomain.User{},
		&authdomain.Session{},
		&catalogdomain.CarBrand{},
		&catalogdomain.CarModel{},
		&catalogdomain.ProductBrand{},
		&catalogdomain.Category{},
		&productdomain.Product{},
		&productdomain.ProductCarModel{},
		&promotiondomain.BundleOffer{},
		&promotiondomain.Promotion{},
		&cartdomain.Cart{},
		&cartdomain.Item{},
		&orderdomain.Order{},
		&orderdomain.Item{},
		&favoritedomain.Favorite{},
		&commentdomain.Comment{},
		&syncdomain.Entry{},
	}
}

// Migrate runs the SQL migrations on PostgreSQL and falls back to gorm
// AutoMigrate for the other dialects.
func Migrate(conn *gorm.DB) error {
	if conn.Dialector.Name() == "postgres" {
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}
	return conn.AutoMigrate(Models()...)
}
