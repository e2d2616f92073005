package config

import (
	"testing"
	"time"

	"github.com/fantamercato/trade-engine/internal/platform/logging"
)

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected HTTPAddr: %q", cfg.HTTPAddr)
	}
	if cfg.DBURL != "" {
		t.Fatalf("expected empty DB_URL default, got %q", cfg.DBURL)
	}
	if cfg.MarketTickInterval != time.Minute {
		t.Fatalf("unexpected MarketTickInterval: %s", cfg.MarketTickInterval)
	}
	if cfg.NotifyDedupWindow != 5*time.Minute {
		t.Fatalf("unexpected NotifyDedupWindow: %s", cfg.NotifyDedupWindow)
	}
	if cfg.SettlementMaxAttempts != 3 {
		t.Fatalf("unexpected SettlementMaxAttempts: %d", cfg.SettlementMaxAttempts)
	}
	if cfg.LogLevel != logging.LevelInfo {
		t.Fatalf("unexpected LogLevel: %v", cfg.LogLevel)
	}
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_WebhookRequiresEndpointWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("WEBHOOK_ENABLED", "true")
	t.Setenv("WEBHOOK_ENDPOINT", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when WEBHOOK_ENABLED=true without WEBHOOK_ENDPOINT")
	}
}

func TestLoad_WebhookConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvStage)
	t.Setenv("WEBHOOK_ENABLED", "true")
	t.Setenv("WEBHOOK_ENDPOINT", "https://hooks.example.com/league")
	t.Setenv("WEBHOOK_TOKEN", "token-123")
	t.Setenv("WEBHOOK_TIMEOUT", "7s")
	t.Setenv("WEBHOOK_MAX_RETRIES", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.WebhookEnabled {
		t.Fatalf("expected WebhookEnabled=true")
	}
	if cfg.WebhookEndpoint != "https://hooks.example.com/league" {
		t.Fatalf("unexpected WebhookEndpoint: %q", cfg.WebhookEndpoint)
	}
	if cfg.WebhookTimeout != 7*time.Second {
		t.Fatalf("unexpected WebhookTimeout: %s", cfg.WebhookTimeout)
	}
	if cfg.WebhookMaxRetries != 5 {
		t.Fatalf("unexpected WebhookMaxRetries: %d", cfg.WebhookMaxRetries)
	}
}

func TestLoad_SettlementDelayOrdering(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("SETTLEMENT_INITIAL_DELAY", "3s")
	t.Setenv("SETTLEMENT_MAX_DELAY", "1s")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when SETTLEMENT_MAX_DELAY < SETTLEMENT_INITIAL_DELAY")
	}
}

func TestLoad_LogLevelParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("APP_LOG_LEVEL", "warn")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.LogLevel != logging.LevelWarn {
		t.Fatalf("unexpected LogLevel: %v", cfg.LogLevel)
	}
}
