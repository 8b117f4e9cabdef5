// Package app собирает витрину в работающее приложение.
package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/storefront/internal/health"
	"github.com/vladislavdragonenkov/storefront/internal/version"
)

// Config описывает настройки запуска приложения.
type Config struct {
	GatewayURL      string
	IssuerURL       string
	ClientID        string
	RedirectURL     string
	RefreshToken    string
	MetricsAddr     string
	RefreshInterval time.Duration
}

// DefaultConfig возвращает адреса локального окружения разработки.
func DefaultConfig() Config {
	return Config{
		GatewayURL:      "http://localhost:8080",
		IssuerURL:       "http://localhost:8180/realms/storefront",
		ClientID:        "storefront-client",
		RedirectURL:     "http://localhost:3000",
		MetricsAddr:     ":9090",
		RefreshInterval: time.Minute,
	}
}

func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")
	deps := NewDependencies(cfg, logger)

	// Тихий вход: пробуем восстановить сессию до первого запроса.
	// Недоступный IdP не мешает анонимному просмотру каталога.
	if authenticated, err := deps.Session.Initialize(ctx); err != nil {
		logger.WithError(err).Warn("инициализация сессии завершилась с ошибкой")
	} else if authenticated {
		if user, ok := deps.Session.User(); ok {
			logger.WithField("username", user.Username).Info("сессия восстановлена")
		}
	} else {
		logger.Info("работаем анонимно, выполните login для входа")
	}

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	healthHandler.RegisterChecker("gateway",
		healthcheck.NewHTTPChecker("gateway", cfg.GatewayURL+"/actuator/health", nil))
	healthHandler.RegisterChecker("idp",
		healthcheck.NewHTTPChecker("idp", cfg.IssuerURL+"/.well-known/openid-configuration", nil))

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	go deps.Refresher.Run(ctx)

	shell := NewShell(deps, os.Stdin, os.Stdout)
	errCh := make(chan error, 1)
	go func() {
		errCh <- shell.Run(ctx)
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки")
		shutdownHTTP(metricsSrv, logger)
		_ = deps.Session.Logout(context.Background())
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(metricsSrv, logger)
		return err
	}
}

// startMetricsServer запускает HTTP-обработчик /metrics для Prometheus.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler http.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/livez", addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("metrics shutdown with error")
	}
}
