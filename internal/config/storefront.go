package config

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// StorefrontConfig carries the settings the storefront clients read through /api/version
// and the cart uses to resolve shipping.
type StorefrontConfig struct {
	ShippingCost       float64  `mapstructure:"shippingCost"`
	APIVersion         string   `mapstructure:"apiVersion"`
	BuildDate          string   `mapstructure:"buildDate"`
	MinFrontendVersion string   `mapstructure:"minFrontendVersion"`
	Features           []string `mapstructure:"features"`
}

func DefaultStorefrontConfig() StorefrontConfig {
	return StorefrontConfig{
		ShippingCost:       150,
		APIVersion:         "4.1.0",
		BuildDate:          "2026-01-15",
		MinFrontendVersion: "1.0.0",
		Features: []string{
			"cursor_pagination",
			"offline_sync",
			"websocket_realtime",
			"modular_backend",
			"bundle_pricing",
		},
	}
}

type StorefrontHolder struct {
	current atomic.Value // holds StorefrontConfig
}

// NewStorefrontHolder reads storefront.yml and keeps it reloaded on change.
// Missing files fall back to DefaultStorefrontConfig.
func NewStorefrontHolder(cfg Config) (*StorefrontHolder, error) {
	v := viper.New()

	v.SetConfigName("storefront")
	v.SetConfigType("yml")
	if cfg.StorefrontConfigPath != "" {
		v.AddConfigPath(cfg.StorefrontConfigPath)
	} else {
		v.AddConfigPath("/etc/autoparts")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("AUTOPARTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultStorefrontConfig()
	v.SetDefault("storefront.shippingCost", defaults.ShippingCost)
	v.SetDefault("storefront.apiVersion", defaults.APIVersion)
	v.SetDefault("storefront.buildDate", defaults.BuildDate)
	v.SetDefault("storefront.minFrontendVersion", defaults.MinFrontendVersion)
	v.SetDefault("storefront.features", defaults.Features)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		fileLoaded = false
	}

	var sf StorefrontConfig
	if err := v.UnmarshalKey("storefront", &sf); err != nil {
		return nil, err
	}
	sf = withDefaults(sf, defaults)
	if err := validateStorefrontConfig(sf); err != nil {
		return nil, err
	}

	holder := &StorefrontHolder{}
	holder.current.Store(sf)

	if fileLoaded {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			var updated StorefrontConfig
			if err := v.UnmarshalKey("storefront", &updated); err != nil {
				log.Printf("[storefront-config] reload failed: %v", err)
				return
			}
			updated = withDefaults(updated, defaults)
			if err := validateStorefrontConfig(updated); err != nil {
				log.Printf("[storefront-config] invalid config ignored: %v", err)
				return
			}
			holder.current.Store(updated)
			log.Printf("[storefront-config] reloaded from %s", e.Name)
		})
	}

	return holder, nil
}

// NewStaticStorefrontHolder returns a holder pinned to cfg.
func NewStaticStorefrontHolder(cfg StorefrontConfig) *StorefrontHolder {
	holder := &StorefrontHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *StorefrontHolder) Get() StorefrontConfig {
	return h.current.Load().(StorefrontConfig)
}

// ShippingCost is the flat shipping fee added to cart and order totals.
func (h *StorefrontHolder) ShippingCost(ctx context.Context) decimal.Decimal {
	_ = ctx
	return decimal.NewFromFloat(h.Get().ShippingCost).Round(2)
}

// withDefaults fills fields a partial storefront section left empty.
func withDefaults(cfg, defaults StorefrontConfig) StorefrontConfig {
	if strings.TrimSpace(cfg.APIVersion) == "" {
		cfg.APIVersion = defaults.APIVersion
	}
	if strings.TrimSpace(cfg.BuildDate) == "" {
		cfg.BuildDate = defaults.BuildDate
	}
	if strings.TrimSpace(cfg.MinFrontendVersion) == "" {
		cfg.MinFrontendVersion = defaults.MinFrontendVersion
	}
	if len(cfg.Features) == 0 {
		cfg.Features = defaults.Features
	}
	return cfg
}

func validateStorefrontConfig(cfg StorefrontConfig) error {
	if cfg.ShippingCost < 0 {
		return errors.New("storefront.shippingCost cannot be negative")
	}
	if strings.TrimSpace(cfg.APIVersion) == "" {
		return errors.New("storefront.apiVersion cannot be empty")
	}
	return nil
}
