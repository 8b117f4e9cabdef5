package domain

import (
	"context"
	"time"
)

// CatalogService описывает чтение и администрирование каталога товаров за шлюзом.
type CatalogService interface {
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id string) (Product, error)
	Search(ctx context.Context, name string) ([]Product, error)
	InStock(ctx context.Context) ([]Product, error)
	LowStock(ctx context.Context, threshold int) ([]Product, error)
	// CheckStock спрашивает у каталога, хватает ли остатка под количество.
	CheckStock(ctx context.Context, id string, quantity int) (bool, error)
	ReduceStock(ctx context.Context, id string, quantity int) error
	Create(ctx context.Context, req ProductRequest) (Product, error)
	Update(ctx context.Context, id string, req ProductRequest) (Product, error)
	Delete(ctx context.Context, id string) error
}

// OrderService описывает работу с заказами за шлюзом.
type OrderService interface {
	MyOrders(ctx context.Context) ([]Order, error)
	// Create создаёт заказ; idempotencyKey защищает от двойной отправки
	// при повторе запроса.
	Create(ctx context.Context, req OrderRequest, idempotencyKey string) (Order, error)
	Get(ctx context.Context, id string) (Order, error)
	Items(ctx context.Context, id string) ([]OrderItem, error)
	Cancel(ctx context.Context, id string) error
	List(ctx context.Context) ([]Order, error)
	ByStatus(ctx context.Context, status OrderStatus) ([]Order, error)
	UpdateStatus(ctx context.Context, id string, status OrderStatus) (Order, error)
}

// LoginRequest — подготовленный переход на страницу входа identity provider.
type LoginRequest struct {
	// URL — адрес авторизации с PKCE-челленджем и state.
	URL   string
	State string
	// Verifier — PKCE-verifier, предъявляется при обмене кода авторизации.
	Verifier string
}

// IdentityProvider описывает обмены с identity provider:
// authorization code + PKCE, refresh-грант и завершение сессии.
type IdentityProvider interface {
	// Handshake выполняет тихую инициализацию сессии; возвращает учётные
	// данные и флаг authenticated.
	Handshake(ctx context.Context) (Credential, bool, error)
	// Refresh обменивает refresh-токен на свежие учётные данные.
	Refresh(ctx context.Context, refreshToken string) (Credential, error)
	// BeginLogin готовит переход на страницу входа.
	BeginLogin(ctx context.Context) (LoginRequest, error)
	// Exchange обменивает код авторизации на учётные данные.
	Exchange(ctx context.Context, code, verifier string) (Credential, error)
	// Logout завершает сессию на стороне identity provider.
	Logout(ctx context.Context, refreshToken string) error
}

// TokenSession — то, что пайплайн запросов требует от хранилища сессии.
type TokenSession interface {
	// Refresh обновляет токен, если тот истекает в ближайшие minValidity;
	// minValidity < 0 означает принудительное обновление. Для анонимной
	// сессии — успешный no-op: false без ошибки.
	Refresh(ctx context.Context, minValidity time.Duration) (bool, error)
	// Token возвращает текущий bearer-токен; false — учётных данных нет.
	Token() (string, bool)
	// PromptLogin переводит сессию в anonymous и инициирует повторный вход.
	PromptLogin(ctx context.Context)
}
