package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string
	NodeID      int64

	CORSAllowedOrigins []string
	AuthCookieSecure   bool
	AdminEmail         string
	AdminPassword      string
	SessionTTLHours    int

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	StorefrontConfigPath string

	SchedulerEnabled         bool
	SchedulerIntervalMinutes int
}

var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewStorefrontHolder),
)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	environment := getenv("ENVIRONMENT", "development")
	authCookieSecure := environment == "production"
	if !authCookieSecure {
		authCookieSecure = getenvBool("AUTH_COOKIE_SECURE", false)
	}

	return Config{
		AppName:              getenv("APP_SERVICE", "autoparts"),
		AppVersion:           getenv("APP_VERSION", "4.1.0"),
		Environment:          environment,
		HTTPAddr:             getenv("HTTP_ADDR", ":8001"),
		NodeID:               getenvInt64("SNOWFLAKE_NODE_ID", 1),
		CORSAllowedOrigins:   parseList(getenv("CORS_ALLOWED_ORIGINS", "*")),
		AuthCookieSecure:     authCookieSecure,
		AdminEmail:           strings.TrimSpace(getenv("ADMIN_EMAIL", "")),
		AdminPassword:        getenv("ADMIN_PASSWORD", ""),
		SessionTTLHours:      int(getenvInt64("SESSION_TTL_HOURS", 7*24)),
		OTLPEndpoint:         getenv("OTLP_ENDPOINT", "localhost:4317"),
		DBType:               getenv("DATABASE_TYPE", "postgres"),
		DBHost:               getenv("DATABASE_HOST", "localhost"),
		DBPort:               getenv("DATABASE_PORT", "5432"),
		DBName:               getenv("DATABASE_NAME", "autoparts"),
		DBUser:               getenv("DATABASE_USER", "postgres"),
		DBPassword:           getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:            getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:        int(getenvInt64("DATABASE_MAX_IDLE_CONN", 10)),
		DBMaxOpenConn:        int(getenvInt64("DATABASE_MAX_OPEN_CONN", 50)),
		DBConnMaxLifetime:    int(getenvInt64("DATABASE_CONN_MAX_LIFETIME", 300)),
		DBConnMaxIdleTime:    int(getenvInt64("DATABASE_CONN_MAX_IDLE_TIME", 60)),
		RedisAddr:            strings.TrimSpace(getenv("REDIS_ADDR", "")),
		RedisPassword:        getenv("REDIS_PASSWORD", ""),
		RedisDB:              int(getenvInt64("REDIS_DB", 0)),
		StorefrontConfigPath: strings.TrimSpace(getenv("STOREFRONT_CONFIG_PATH", "")),

		SchedulerEnabled:         getenvBool("SCHEDULER_ENABLED", true),
		SchedulerIntervalMinutes: int(getenvInt64("SCHEDULER_INTERVAL_MINUTES", 15)),
	}
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func parseList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
