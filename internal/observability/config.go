package observability

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/smallbiznis/autoparts/internal/config"
)

const defaultMetricsPath = "/metrics"

// Config holds observability configuration derived from environment variables.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string

	// SlowQueryThreshold marks a SQL statement as slow in the gorm log.
	// Zero turns slow query logging off.
	SlowQueryThreshold time.Duration
	// LogSQL logs every statement, not just slow or failed ones.
	LogSQL bool
	// MetricsPath is where the Prometheus registry is served. Empty disables it.
	MetricsPath string

	OtelEnabled          bool
	OtelExporterEndpoint string
	OtelExporterProtocol string
	OtelSamplingRatio    float64
}

func LoadConfig(cfg config.Config) Config {
	c := Config{
		ServiceName:          strings.TrimSpace(cfg.AppName),
		Environment:          env("DEPLOYMENT_ENV", cfg.Environment),
		Version:              env("SERVICE_VERSION", cfg.AppVersion),
		LogLevel:             strings.ToLower(env("LOG_LEVEL", "info")),
		LogFormat:            strings.ToLower(env("LOG_FORMAT", "json")),
		SlowQueryThreshold:   time.Duration(envInt("DB_SLOW_QUERY_MS", 200)) * time.Millisecond,
		LogSQL:               envBool("DB_LOG_SQL", false),
		MetricsPath:          metricsPath(env("METRICS_PATH", defaultMetricsPath)),
		OtelEnabled:          envBool("OTEL_ENABLED", false),
		OtelExporterEndpoint: env("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.OTLPEndpoint),
		OtelExporterProtocol: strings.ToLower(env("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL", env("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"))),
		OtelSamplingRatio:    envFloat("OTEL_SAMPLING_RATIO", 0.1),
	}
	if c.ServiceName == "" {
		c.ServiceName = "autoparts"
	}
	if c.SlowQueryThreshold < 0 {
		c.SlowQueryThreshold = 0
	}
	return c
}

// Debug is true for LOG_LEVEL=debug and for development environments.
func (c Config) Debug() bool {
	if strings.EqualFold(strings.TrimSpace(c.LogLevel), "debug") {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(c.Environment)) {
	case "dev", "development", "local", "test":
		return true
	}
	return false
}

// metricsPath normalizes METRICS_PATH; "off" or "false" disables the endpoint.
func metricsPath(raw string) string {
	switch strings.ToLower(raw) {
	case "", "off", "false", "none":
		return ""
	}
	if !strings.HasPrefix(raw, "/") {
		raw = "/" + raw
	}
	return raw
}

func env(key, def string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return strings.TrimSpace(def)
}

func envBool(key string, def bool) bool {
	parsed, err := strconv.ParseBool(env(key, ""))
	if err != nil {
		return def
	}
	return parsed
}

func envInt(key string, def int) int {
	parsed, err := strconv.Atoi(env(key, ""))
	if err != nil {
		return def
	}
	return parsed
}

func envFloat(key string, def float64) float64 {
	parsed, err := strconv.ParseFloat(env(key, ""), 64)
	if err != nil {
		return def
	}
	return parsed
}
