package config

import (
	"strings"
	"testing"
	"time"

	"github.com/riskibarqy/focus-tracker/internal/platform/logging"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
	}
}

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t, "APP_ENV", "STORAGE_DRIVER", "POLL_INTERVAL", "POLL_INITIAL_DELAY", "POLL_BATCH_SIZE",
		"POLL_HISTORY_SIZE", "POLL_ENTITY_DELAY", "POLL_GROUP_DELAY", "POLL_MATCH_DELAY", "TRACK_DEFAULT_REGION",
		"RIOT_RATE_LIMIT", "RIOT_RATE_WINDOW", "RIOT_RATE_BURST", "TELEGRAM_ENABLED", "UPTRACE_ENABLED",
		"PYROSCOPE_ENABLED", "PPROF_ENABLED", "APP_LOG_LEVEL", "RIOT_BASE_URL_TEMPLATE", "STORAGE_CACHE_TTL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.AppEnv != EnvDev || cfg.StorageDriver != StorageMemory {
		t.Fatalf("unexpected env/storage: %q %q", cfg.AppEnv, cfg.StorageDriver)
	}
	if cfg.PollInterval != 30*time.Second || cfg.PollInitialDelay != 10*time.Second {
		t.Fatalf("unexpected poll timing: %s %s", cfg.PollInterval, cfg.PollInitialDelay)
	}
	if cfg.PollBatchSize != 5 || cfg.PollHistorySize != 10 {
		t.Fatalf("unexpected poll sizes: batch=%d history=%d", cfg.PollBatchSize, cfg.PollHistorySize)
	}
	if cfg.PollMatchDelay != 0 || cfg.PollEntityDelay != time.Second || cfg.PollGroupDelay != 5*time.Second {
		t.Fatalf("unexpected pacing: %s %s %s", cfg.PollMatchDelay, cfg.PollEntityDelay, cfg.PollGroupDelay)
	}
	if cfg.RiotRateLimit != 100 || cfg.RiotRateWindow != 2*time.Minute || cfg.RiotRateBurst != 20 {
		t.Fatalf("unexpected riot rate limit: %d/%s burst %d", cfg.RiotRateLimit, cfg.RiotRateWindow, cfg.RiotRateBurst)
	}
	if cfg.StorageCacheTTL != 30*time.Second {
		t.Fatalf("unexpected storage cache ttl: %s", cfg.StorageCacheTTL)
	}
	if cfg.TrackDefaultRegion != "euw1" {
		t.Fatalf("unexpected default region: %q", cfg.TrackDefaultRegion)
	}
	if cfg.LogLevel != logging.LevelInfo {
		t.Fatalf("unexpected log level: %s", cfg.LogLevel)
	}
}

func TestLoad_Validation(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{name: "storage driver", env: map[string]string{"STORAGE_DRIVER": "redis"}, want: "STORAGE_DRIVER"},
		{name: "cache ttl", env: map[string]string{"STORAGE_CACHE_TTL": "-1s"}, want: "STORAGE_CACHE_TTL must be >= 0"},
		{name: "poll interval", env: map[string]string{"POLL_INTERVAL": "0s"}, want: "POLL_INTERVAL must be > 0"},
		{name: "poll interval parse", env: map[string]string{"POLL_INTERVAL": "soon"}, want: "parse POLL_INTERVAL"},
		{name: "batch size", env: map[string]string{"POLL_BATCH_SIZE": "0"}, want: "POLL_BATCH_SIZE"},
		{name: "history size", env: map[string]string{"POLL_HISTORY_SIZE": "2"}, want: "POLL_HISTORY_SIZE must be >= 3"},
		{name: "negative delay", env: map[string]string{"POLL_GROUP_DELAY": "-1s"}, want: "POLL_GROUP_DELAY must be >= 0"},
		{name: "telegram token", env: map[string]string{"TELEGRAM_ENABLED": "true", "TELEGRAM_BOT_TOKEN": ""}, want: "TELEGRAM_BOT_TOKEN is required"},
		{name: "uptrace dsn", env: map[string]string{"UPTRACE_ENABLED": "true", "UPTRACE_DSN": "", "OTEL_EXPORTER_OTLP_HEADERS": ""}, want: "UPTRACE_DSN is required"},
		{name: "base url template", env: map[string]string{"RIOT_BASE_URL_TEMPLATE": "https://europe.api.riotgames.com"}, want: "{routing}"},
		{name: "rate burst", env: map[string]string{"RIOT_RATE_BURST": "0"}, want: "RIOT_RATE_BURST must be >= 1"},
		{name: "bool parse", env: map[string]string{"POLL_ENABLED": "maybe"}, want: "parse POLL_ENABLED"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("APP_ENV", EnvDev)
			for key, value := range tc.env {
				t.Setenv(key, value)
			}
			_, err := Load()
			if err == nil {
				t.Fatalf("expected error containing %q", tc.want)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got=%v", tc.want, err)
			}
		})
	}
}

func TestLoad_UptraceDSNFromOTLPHeaders(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "foo=bar, uptrace-dsn=\"https://token@api.uptrace.dev?grpc=4317\"")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.UptraceDSN != "https://token@api.uptrace.dev?grpc=4317" {
		t.Fatalf("unexpected UptraceDSN: %q", cfg.UptraceDSN)
	}
}

func TestLoad_TelegramAndRiotOverrides(t *testing.T) {
	t.Setenv("APP_ENV", EnvProd)
	t.Setenv("TELEGRAM_ENABLED", "true")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_SEND_INTERVAL", "1500ms")
	t.Setenv("RIOT_API_KEY", " RGAPI-test ")
	t.Setenv("TRACK_DEFAULT_REGION", "KR")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.TelegramEnabled || cfg.TelegramSendInterval != 1500*time.Millisecond {
		t.Fatalf("unexpected telegram config: %+v", cfg)
	}
	if cfg.RiotAPIKey != "RGAPI-test" || cfg.TrackDefaultRegion != "kr" {
		t.Fatalf("unexpected riot config: key=%q region=%q", cfg.RiotAPIKey, cfg.TrackDefaultRegion)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("unexpected CORS origins: %v", cfg.CORSAllowedOrigins)
	}
}
