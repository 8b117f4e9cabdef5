package main

import (
	"testing"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/app"
)

func mapLookup(values map[string]string) envLookup {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}

func TestReadConfigFromEnv_Defaults(t *testing.T) {
	cfg, warnings := readConfigFromEnv(mapLookup(nil))

	if len(warnings) != 0 {
		t.Fatalf("expected no warnings, got %d", len(warnings))
	}
	if cfg != app.DefaultConfig() {
		t.Fatalf("expected default config, got %#v", cfg)
	}
}

func TestReadConfigFromEnv_ValidOverrides(t *testing.T) {
	cfg, warnings := readConfigFromEnv(mapLookup(map[string]string{
		envGatewayURL:      " https://gateway.example/ ",
		envIssuerURL:       "https://idp.example/realms/shop",
		envClientID:        "web-client",
		envRedirectURL:     "https://shop.example/callback",
		envRefreshToken:    " stored-refresh-token ",
		envMetricsAddr:     "localhost:9191",
		envRefreshInterval: "30s",
	}))

	if len(warnings) != 0 {
		t.Fatalf("expected no warnings, got %d", len(warnings))
	}
	if cfg.GatewayURL != "https://gateway.example" {
		t.Fatalf("unexpected gateway url: %s", cfg.GatewayURL)
	}
	if cfg.IssuerURL != "https://idp.example/realms/shop" {
		t.Fatalf("unexpected issuer url: %s", cfg.IssuerURL)
	}
	if cfg.ClientID != "web-client" {
		t.Fatalf("unexpected client id: %s", cfg.ClientID)
	}
	if cfg.RefreshToken != "stored-refresh-token" {
		t.Fatalf("unexpected refresh token: %s", cfg.RefreshToken)
	}
	if cfg.MetricsAddr != "localhost:9191" {
		t.Fatalf("unexpected metrics addr: %s", cfg.MetricsAddr)
	}
	if cfg.RefreshInterval != 30*time.Second {
		t.Fatalf("unexpected refresh interval: %s", cfg.RefreshInterval)
	}
}

func TestReadConfigFromEnv_InvalidIntervalFallsBack(t *testing.T) {
	defaultCfg := app.DefaultConfig()

	cfg, warnings := readConfigFromEnv(mapLookup(map[string]string{
		envRefreshInterval: "not-a-duration",
	}))

	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(warnings))
	}
	if cfg.RefreshInterval != defaultCfg.RefreshInterval {
		t.Fatal("expected RefreshInterval to keep default on invalid value")
	}

	cfg, warnings = readConfigFromEnv(mapLookup(map[string]string{
		envRefreshInterval: "-5s",
	}))
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(warnings))
	}
	if cfg.RefreshInterval != defaultCfg.RefreshInterval {
		t.Fatal("expected RefreshInterval to keep default on negative value")
	}
}

func TestParseDuration(t *testing.T) {
	value, err := parseDuration(" 250ms ", func(v time.Duration) bool { return v >= 0 }, "must be >= 0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != 250*time.Millisecond {
		t.Fatalf("unexpected value: %s", value)
	}

	if _, err := parseDuration("-1ms", func(v time.Duration) bool { return v >= 0 }, "must be >= 0"); err == nil {
		t.Fatal("expected validation error")
	}
}
