package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/app"
	"github.com/vladislavdragonenkov/storefront/internal/version"
)

const (
	envGatewayURL      = "STOREFRONT_GATEWAY_URL"
	envIssuerURL       = "STOREFRONT_ISSUER_URL"
	envClientID        = "STOREFRONT_CLIENT_ID"
	envRedirectURL     = "STOREFRONT_REDIRECT_URL"
	envRefreshToken    = "STOREFRONT_REFRESH_TOKEN"
	envMetricsAddr     = "STOREFRONT_METRICS_ADDR"
	envRefreshInterval = "STOREFRONT_REFRESH_INTERVAL"
)

// envLookup позволяет подменять окружение в тестах.
type envLookup func(key string) (string, bool)

// setupLogger настраивает формат и уровень логирования приложения.
func setupLogger() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)
}

// readConfigFromEnv формирует конфигурацию, позволяя переопределить
// дефолты через переменные окружения. Некорректные значения не роняют
// запуск, а оставляют дефолт и попадают в предупреждения.
func readConfigFromEnv(lookup envLookup) (app.Config, []string) {
	cfg := app.DefaultConfig()
	var warnings []string

	if v, ok := lookup(envGatewayURL); ok && strings.TrimSpace(v) != "" {
		cfg.GatewayURL = strings.TrimRight(strings.TrimSpace(v), "/")
	}
	if v, ok := lookup(envIssuerURL); ok && strings.TrimSpace(v) != "" {
		cfg.IssuerURL = strings.TrimRight(strings.TrimSpace(v), "/")
	}
	if v, ok := lookup(envClientID); ok && strings.TrimSpace(v) != "" {
		cfg.ClientID = strings.TrimSpace(v)
	}
	if v, ok := lookup(envRedirectURL); ok && strings.TrimSpace(v) != "" {
		cfg.RedirectURL = strings.TrimSpace(v)
	}
	if v, ok := lookup(envRefreshToken); ok {
		cfg.RefreshToken = strings.TrimSpace(v)
	}
	if v, ok := lookup(envMetricsAddr); ok && strings.TrimSpace(v) != "" {
		cfg.MetricsAddr = strings.TrimSpace(v)
	}
	if v, ok := lookup(envRefreshInterval); ok {
		interval, err := parseDuration(v, func(d time.Duration) bool { return d > 0 }, "must be > 0")
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", envRefreshInterval, err))
		} else {
			cfg.RefreshInterval = interval
		}
	}

	return cfg, warnings
}

func parseDuration(value string, valid func(time.Duration) bool, constraint string) (time.Duration, error) {
	parsed, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", value)
	}
	if !valid(parsed) {
		return 0, fmt.Errorf("duration %s %s", parsed, constraint)
	}
	return parsed, nil
}

func main() {
	setupLogger()

	cfg, warnings := readConfigFromEnv(os.LookupEnv)
	for _, warning := range warnings {
		log.Warn(warning)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"version":      version.GetVersion(),
		"gateway_url":  cfg.GatewayURL,
		"issuer_url":   cfg.IssuerURL,
		"client_id":    cfg.ClientID,
		"metrics_addr": cfg.MetricsAddr,
	}).Info("запускаем витрину")

	if err := app.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("приложение завершилось с ошибкой")
	}

	log.Info("витрина остановлена")
}
