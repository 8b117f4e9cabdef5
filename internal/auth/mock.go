package auth

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// MockProvider — конфигурируемая заглушка IdentityProvider для тестов.
// Потокобезопасна: счётчики вызовов читаются из конкурентных сценариев.
type MockProvider struct {
	mu sync.Mutex

	HandshakeCred domain.Credential
	HandshakeAuth bool
	HandshakeErr  error
	RefreshCred   domain.Credential
	RefreshErr    error
	ExchangeCred  domain.Credential
	ExchangeErr   error
	LogoutErr     error

	HandshakeCalls  int
	RefreshCalls    int
	BeginLoginCalls int
	ExchangeCalls   int
	LogoutCalls     int
}

// NewMockProvider возвращает mock с анонимным handshake по умолчанию.
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

// Handshake возвращает настроенный результат и считает вызовы.
func (m *MockProvider) Handshake(_ context.Context) (domain.Credential, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.HandshakeCalls++
	if m.HandshakeErr != nil {
		return domain.Credential{}, false, m.HandshakeErr
	}
	return m.HandshakeCred, m.HandshakeAuth, nil
}

// Refresh возвращает настроенные учётные данные и считает вызовы.
func (m *MockProvider) Refresh(_ context.Context, _ string) (domain.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RefreshCalls++
	if m.RefreshErr != nil {
		return domain.Credential{}, m.RefreshErr
	}
	return m.RefreshCred, nil
}

// BeginLogin возвращает фиксированный переход на страницу входа.
func (m *MockProvider) BeginLogin(_ context.Context) (domain.LoginRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BeginLoginCalls++
	return domain.LoginRequest{
		URL:      "https://idp.example/auth?state=test",
		State:    "test-state",
		Verifier: "test-verifier",
	}, nil
}

// Exchange возвращает настроенные учётные данные и считает вызовы.
func (m *MockProvider) Exchange(_ context.Context, _, _ string) (domain.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ExchangeCalls++
	if m.ExchangeErr != nil {
		return domain.Credential{}, m.ExchangeErr
	}
	return m.ExchangeCred, nil
}

// Logout возвращает заранее настроенную ошибку и считает вызовы.
func (m *MockProvider) Logout(_ context.Context, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LogoutCalls++
	return m.LogoutErr
}

// Calls возвращает снимок счётчиков для конкурентных проверок.
func (m *MockProvider) Calls() (handshake, refresh int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.HandshakeCalls, m.RefreshCalls
}

var _ domain.IdentityProvider = (*MockProvider)(nil)
