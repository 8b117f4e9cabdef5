package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/vladislavdragonenkov/storefront/internal/auth"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/service/catalog"
	"github.com/vladislavdragonenkov/storefront/internal/service/checkout"
	"github.com/vladislavdragonenkov/storefront/internal/service/orders"
	"github.com/vladislavdragonenkov/storefront/internal/transport"
)

// fakeGateway имитирует API шлюза: каталог, заказы и проверку токена.
type fakeGateway struct {
	mu sync.Mutex

	products []domain.Product

	validTokens map[string]bool
	rejectOnce  bool

	seenTokens      []string
	idempotencyKeys []string
	orderRequests   []domain.OrderRequest
	failCreate      bool

	nextOrderID int64
}

func (g *fakeGateway) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/product-service/api/products", g.listProducts)
	mux.HandleFunc("/command-service/api/orders", g.createOrder)
	return mux
}

func (g *fakeGateway) authorize(r *http.Request) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	token := r.Header.Get("Authorization")
	g.seenTokens = append(g.seenTokens, token)

	if g.rejectOnce {
		g.rejectOnce = false
		return false
	}
	if len(g.validTokens) == 0 {
		return true
	}
	return g.validTokens[token]
}

func (g *fakeGateway) listProducts(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	products := g.products
	g.mu.Unlock()
	_ = json.NewEncoder(w).Encode(products)
}

func (g *fakeGateway) createOrder(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	g.idempotencyKeys = append(g.idempotencyKeys, r.Header.Get("Idempotency-Key"))
	g.mu.Unlock()

	if !g.authorize(r) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var req domain.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	g.mu.Lock()
	g.orderRequests = append(g.orderRequests, req)
	fail := g.failCreate
	g.nextOrderID++
	orderID := fmt.Sprintf("order-%d", g.nextOrderID)
	g.mu.Unlock()

	if fail {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(domain.Order{
		ID:        orderID,
		Status:    domain.OrderStatusPending,
		OrderDate: time.Now(),
	})
}

// StorefrontFlowTestSuite тестирует полный путь покупателя:
// каталог, корзина, оформление заказа и обновление токена.
type StorefrontFlowTestSuite struct {
	suite.Suite
	gateway  *fakeGateway
	server   *httptest.Server
	provider *auth.MockProvider
	session  *auth.Session
	cart     *domain.Cart
	catalog  domain.CatalogService
	checkout *checkout.Service
}

func (s *StorefrontFlowTestSuite) SetupTest() {
	baseLogger := log.New()
	baseLogger.SetLevel(log.WarnLevel) // Уменьшаем шум в тестах
	logger := baseLogger.WithField("component", "integration-test")

	s.gateway = &fakeGateway{
		products: []domain.Product{
			{ID: "1", Name: "Ноутбук", Price: decimal.RequireFromString("999.99"), StockQuantity: 5},
			{ID: "2", Name: "Мышь", Price: decimal.RequireFromString("25.50"), StockQuantity: 50},
		},
	}
	s.server = httptest.NewServer(s.gateway.handler())

	s.provider = &auth.MockProvider{
		HandshakeAuth: true,
		HandshakeCred: domain.Credential{
			AccessToken: "access-1",
			Expiry:      time.Now().Add(time.Hour),
			Subject:     "user-1",
			Username:    "ivan",
			Roles:       []string{domain.RoleClient},
		},
	}
	s.session = auth.NewSession(s.provider, logger)
	_, err := s.session.Initialize(context.Background())
	require.NoError(s.T(), err)

	client := transport.NewClient(s.session, logger)
	s.cart = domain.NewCart()
	orderClient := orders.NewClient(client, s.server.URL, logger)
	s.catalog = catalog.NewClient(client, s.server.URL, logger)
	s.checkout = checkout.NewServiceWithoutMetrics(s.cart, orderClient, logger)
}

func (s *StorefrontFlowTestSuite) TearDownTest() {
	s.server.Close()
}

func (s *StorefrontFlowTestSuite) TestBrowseAddCheckout() {
	ctx := context.Background()

	products, err := s.catalog.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(products, 2)

	admitted := s.cart.Add(products[0], 2)
	s.Equal(2, admitted)
	admitted = s.cart.Add(products[1], 1)
	s.Equal(1, admitted)

	order, err := s.checkout.Submit(ctx)
	s.Require().NoError(err)
	s.Equal(domain.OrderStatusPending, order.Status)

	s.Require().Len(s.gateway.orderRequests, 1)
	s.Len(s.gateway.orderRequests[0].Items, 2)
	s.Require().Len(s.gateway.idempotencyKeys, 1)
	s.NotEmpty(s.gateway.idempotencyKeys[0])

	s.Empty(s.cart.Lines(), "корзина должна очиститься после успешного заказа")
}

func (s *StorefrontFlowTestSuite) TestFailedSubmitPreservesCart() {
	ctx := context.Background()

	products, err := s.catalog.List(ctx)
	s.Require().NoError(err)

	s.cart.Add(products[0], 3)
	s.gateway.failCreate = true

	_, err = s.checkout.Submit(ctx)
	s.Require().Error(err)

	lines := s.cart.Lines()
	s.Require().Len(lines, 1)
	s.Equal(3, lines[0].Quantity)
}

func (s *StorefrontFlowTestSuite) TestExpiredTokenIsRefreshedAndRetried() {
	ctx := context.Background()

	// Шлюз один раз отклонит запрос, после обновления примет новый токен.
	s.gateway.rejectOnce = true
	s.gateway.validTokens = map[string]bool{"Bearer access-2": true}
	s.provider.RefreshCred = domain.Credential{
		AccessToken: "access-2",
		Expiry:      time.Now().Add(time.Hour),
		Subject:     "user-1",
		Username:    "ivan",
		Roles:       []string{domain.RoleClient},
	}

	products, err := s.catalog.List(ctx)
	s.Require().NoError(err)
	s.cart.Add(products[0], 1)

	order, err := s.checkout.Submit(ctx)
	s.Require().NoError(err)
	s.NotEmpty(order.ID)

	// Повтор после 401 обязан нести тот же ключ идемпотентности.
	s.Require().Len(s.gateway.idempotencyKeys, 2)
	s.Equal(s.gateway.idempotencyKeys[0], s.gateway.idempotencyKeys[1])

	_, refreshCalls := s.provider.Calls()
	s.Equal(1, refreshCalls, "401 должен вызвать ровно одно обновление токена")

	token, ok := s.session.Token()
	s.Require().True(ok)
	s.Equal("access-2", token)
}

func TestStorefrontFlowTestSuite(t *testing.T) {
	suite.Run(t, new(StorefrontFlowTestSuite))
}
