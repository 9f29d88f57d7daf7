package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	gormlogger "gorm.io/gorm/logger"

	"github.com/smallbiznis/autoparts/internal/config"
)

func clearObservabilityEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DEPLOYMENT_ENV", "SERVICE_VERSION", "LOG_LEVEL", "LOG_FORMAT",
		"DB_SLOW_QUERY_MS", "DB_LOG_SQL", "METRICS_PATH", "OTEL_ENABLED",
		"OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_TRACES_PROTOCOL",
		"OTEL_EXPORTER_OTLP_PROTOCOL", "OTEL_SAMPLING_RATIO",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearObservabilityEnv(t)

	cfg := LoadConfig(config.Config{Environment: "production", AppVersion: "4.1.0"})

	assert.Equal(t, "autoparts", cfg.ServiceName)
	assert.Equal(t, "4.1.0", cfg.Version)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThreshold)
	assert.False(t, cfg.LogSQL)
	assert.Equal(t, "/metrics", cfg.MetricsPath)
	assert.Equal(t, "grpc", cfg.OtelExporterProtocol)
	assert.InDelta(t, 0.1, cfg.OtelSamplingRatio, 1e-9)
	assert.False(t, cfg.Debug())
}

func TestLoadConfig_MetricsPath(t *testing.T) {
	cases := map[string]string{
		"off":          "",
		"false":        "",
		"/internal/m":  "/internal/m",
		"prom/metrics": "/prom/metrics",
	}
	for raw, want := range cases {
		t.Run(raw, func(t *testing.T) {
			clearObservabilityEnv(t)
			t.Setenv("METRICS_PATH", raw)
			assert.Equal(t, want, LoadConfig(config.Config{}).MetricsPath)
		})
	}
}

func TestLoadConfig_SlowQueryAndSQLLogging(t *testing.T) {
	clearObservabilityEnv(t)
	t.Setenv("DB_SLOW_QUERY_MS", "750")
	t.Setenv("DB_LOG_SQL", "true")

	cfg := LoadConfig(config.Config{})
	assert.Equal(t, 750*time.Millisecond, cfg.SlowQueryThreshold)
	assert.True(t, cfg.LogSQL)

	gormCfg := provideGormLoggerConfig(cfg)
	assert.Equal(t, 750*time.Millisecond, gormCfg.SlowThreshold)
	assert.Equal(t, gormlogger.Info, gormCfg.Level)

	t.Setenv("DB_SLOW_QUERY_MS", "-5")
	t.Setenv("DB_LOG_SQL", "nope")
	cfg = LoadConfig(config.Config{})
	assert.Zero(t, cfg.SlowQueryThreshold)
	assert.False(t, cfg.LogSQL)
	assert.Equal(t, gormlogger.Warn, provideGormLoggerConfig(cfg).Level)
}

func TestConfig_Debug(t *testing.T) {
	assert.True(t, Config{LogLevel: "DEBUG"}.Debug())
	assert.True(t, Config{Environment: "development"}.Debug())
	assert.False(t, Config{LogLevel: "info", Environment: "staging"}.Debug())
}
