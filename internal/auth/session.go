package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Ключи singleflight-группы: вся сессия делит одно обращение на операцию.
const (
	initFlightKey         = "init"
	refreshFlightKey      = "refresh"
	forceRefreshFlightKey = "refresh-force"
)

// Session владеет учётными данными текущей сессии и их жизненным циклом:
// однократная инициализация, тихое обновление токена, вход и выход.
// Credential не покидает Session иначе как производным значением (токен,
// User); при logout значение уничтожается.
type Session struct {
	provider domain.IdentityProvider
	logger   *log.Entry

	group singleflight.Group

	mu            sync.RWMutex
	initialized   bool
	authenticated bool
	cred          domain.Credential
	pending       *domain.LoginRequest
}

// NewSession создаёт хранилище сессии поверх identity provider.
func NewSession(provider domain.IdentityProvider, logger *log.Entry) *Session {
	if logger == nil {
		logger = log.WithField("component", "session")
	}
	return &Session{provider: provider, logger: logger}
}

// Initialize выполняет handshake с identity provider не более одного раза:
// конкурентные вызовы делят одно обращение, повторные получают сохранённый
// результат. Неудачный handshake переводит сессию в anonymous и тоже
// завершает инициализацию — бесконечных повторов при каждом вызове нет.
func (s *Session) Initialize(ctx context.Context) (bool, error) {
	result, err, _ := s.group.Do(initFlightKey, func() (interface{}, error) {
		s.mu.RLock()
		if s.initialized {
			authenticated := s.authenticated
			s.mu.RUnlock()
			return authenticated, nil
		}
		s.mu.RUnlock()

		cred, authenticated, herr := s.provider.Handshake(ctx)

		s.mu.Lock()
		s.initialized = true
		if herr != nil {
			s.authenticated = false
			s.mu.Unlock()
			s.logger.WithError(herr).Warn("handshake с identity provider не удался, продолжаем анонимно")
			return false, nil
		}
		s.authenticated = authenticated
		if authenticated {
			s.cred = cred
		}
		s.mu.Unlock()
		return authenticated, nil
	})
	if err != nil {
		return false, err
	}
	return result.(bool), nil
}

// Refresh обновляет access-токен, если тот истекает в ближайшие
// minValidity; minValidity < 0 — принудительно. Для анонимной сессии это
// успешный no-op: false без ошибки. Фоновый таймер и pre-flight пайплайна
// могут прийти сюда одновременно — singleflight сводит их к одному
// обращению, опоздавший получает «уже обновлено».
func (s *Session) Refresh(ctx context.Context, minValidity time.Duration) (bool, error) {
	if !s.needsRefresh(minValidity) {
		return false, nil
	}

	// Принудительное обновление летит отдельным ключом: присоединившись к
	// оконному pre-flight, чьё замыкание решило «токен ещё свеж», оно
	// получило бы false без обращения к провайдеру и зря эскалировало бы
	// 401 до повторного входа.
	key := refreshFlightKey
	if minValidity < 0 {
		key = forceRefreshFlightKey
	}

	result, err, _ := s.group.Do(key, func() (interface{}, error) {
		// Параллельный вызов мог успеть обновить токен, пока мы ждали.
		if !s.needsRefresh(minValidity) {
			return false, nil
		}

		s.mu.RLock()
		refreshToken := s.cred.RefreshToken
		s.mu.RUnlock()

		cred, rerr := s.provider.Refresh(ctx, refreshToken)
		if rerr != nil {
			return false, rerr
		}

		s.mu.Lock()
		if s.authenticated {
			s.cred = cred
		}
		s.mu.Unlock()
		return true, nil
	})
	if err != nil {
		return false, err
	}
	return result.(bool), nil
}

func (s *Session) needsRefresh(minValidity time.Duration) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.authenticated {
		return false
	}
	if minValidity < 0 {
		return true
	}
	return s.cred.ExpiresWithin(minValidity)
}

// Token возвращает текущий bearer-токен; false — учётных данных нет.
func (s *Session) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.authenticated || s.cred.Zero() {
		return "", false
	}
	return s.cred.AccessToken, true
}

// Authenticated сообщает, аутентифицирована ли сессия.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

// HasRole проверяет realm-роль текущих учётных данных.
func (s *Session) HasRole(role string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated && s.cred.HasRole(role)
}

// User возвращает владельца сессии.
func (s *Session) User() (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.authenticated {
		return domain.User{}, false
	}
	return domain.User{
		ID:       s.cred.Subject,
		Username: s.cred.Username,
		Email:    s.cred.Email,
		Roles:    append([]string(nil), s.cred.Roles...),
	}, true
}

// BeginLogin готовит переход на страницу входа и запоминает PKCE-verifier
// до завершения обмена кода. Возвращает адрес для перехода.
func (s *Session) BeginLogin(ctx context.Context) (string, error) {
	req, err := s.provider.BeginLogin(ctx)
	if err != nil {
		return "", fmt.Errorf("begin login: %w", err)
	}

	s.mu.Lock()
	s.pending = &req
	s.mu.Unlock()
	return req.URL, nil
}

// CompleteLogin обменивает код авторизации на учётные данные сессии.
func (s *Session) CompleteLogin(ctx context.Context, code string) error {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()
	if pending == nil {
		return domain.ErrNoPendingLogin
	}

	cred, err := s.provider.Exchange(ctx, code, pending.Verifier)
	if err != nil {
		return fmt.Errorf("exchange authorization code: %w", err)
	}

	s.mu.Lock()
	s.initialized = true
	s.authenticated = true
	s.cred = cred
	s.mu.Unlock()

	s.logger.WithField("subject", cred.Subject).Info("сессия аутентифицирована")
	return nil
}

// Logout завершает сессию. Учётные данные уничтожаются локально в любом
// случае; ошибка identity provider возвращается вызывающему.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	refreshToken := s.cred.RefreshToken
	wasAuthenticated := s.authenticated
	s.authenticated = false
	s.cred = domain.Credential{}
	s.mu.Unlock()

	if !wasAuthenticated {
		return nil
	}
	if err := s.provider.Logout(ctx, refreshToken); err != nil {
		return fmt.Errorf("identity provider logout: %w", err)
	}
	s.logger.Info("сессия завершена")
	return nil
}

// PromptLogin вызывается пайплайном, когда 401 не удалось закрыть
// обновлением токена: сессия деаутентифицируется, пользователю остаётся
// только повторный вход по опубликованному адресу.
func (s *Session) PromptLogin(ctx context.Context) {
	s.mu.Lock()
	s.authenticated = false
	s.cred = domain.Credential{}
	s.mu.Unlock()

	url, err := s.BeginLogin(ctx)
	if err != nil {
		s.logger.WithError(err).Error("не удалось подготовить переход на страницу входа")
		return
	}
	s.logger.WithField("login_url", url).Warn("сессия отклонена сервером, требуется повторный вход")
}

var _ domain.TokenSession = (*Session)(nil)
