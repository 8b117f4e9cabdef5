package app

import (
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/auth"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/service/catalog"
	"github.com/vladislavdragonenkov/storefront/internal/service/checkout"
	"github.com/vladislavdragonenkov/storefront/internal/service/orders"
	"github.com/vladislavdragonenkov/storefront/internal/transport"
)

// Dependencies содержит все зависимости приложения.
type Dependencies struct {
	Session   *auth.Session
	Refresher *auth.Refresher
	Catalog   domain.CatalogService
	Orders    domain.OrderService
	Cart      *domain.Cart
	Checkout  *checkout.Service
	Metrics   *metrics.StorefrontMetrics
	Logger    *log.Entry
}

// NewDependencies создаёт и связывает все зависимости приложения:
// OIDC провайдер, сессию, HTTP клиент с токеном и клиенты сервисов шлюза.
func NewDependencies(cfg Config, logger *log.Entry) *Dependencies {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	provider := auth.NewOIDCProvider(auth.ProviderConfig{
		IssuerURL:    cfg.IssuerURL,
		ClientID:     cfg.ClientID,
		RedirectURL:  cfg.RedirectURL,
		RefreshToken: cfg.RefreshToken,
	}, nil, logger.WithField("component", "oidc"))

	session := auth.NewSession(provider, logger.WithField("component", "session"))
	refresher := auth.NewRefresher(session,
		auth.WithLogger(logger.WithField("component", "refresher")),
		auth.WithInterval(cfg.RefreshInterval),
	)

	httpClient := transport.NewClient(session, logger.WithField("component", "transport"))

	cart := domain.NewCart()
	storefrontMetrics := metrics.NewStorefrontMetrics()
	orderClient := orders.NewClient(httpClient, cfg.GatewayURL, logger.WithField("component", "orders"))

	return &Dependencies{
		Session:   session,
		Refresher: refresher,
		Catalog:   catalog.NewClient(httpClient, cfg.GatewayURL, logger.WithField("component", "catalog")),
		Orders:    orderClient,
		Cart:      cart,
		Checkout:  checkout.NewService(cart, orderClient, storefrontMetrics, logger.WithField("component", "checkout")),
		Metrics:   storefrontMetrics,
		Logger:    logger,
	}
}
