package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// ProviderConfig описывает подключение к Keycloak-совместимому identity provider.
type ProviderConfig struct {
	// IssuerURL — базовый адрес realm, например
	// http://localhost:8180/realms/storefront.
	IssuerURL   string
	ClientID    string
	RedirectURL string
	// RefreshToken — необязательный токен для тихой инициализации сессии
	// без участия пользователя (аналог check-sso).
	RefreshToken string
}

// OIDCProvider реализует IdentityProvider поверх authorization code + PKCE
// и refresh-грантов.
type OIDCProvider struct {
	oauth      oauth2.Config
	httpClient *http.Client
	logoutURL  string
	bootstrap  string
	logger     *log.Entry
}

// NewOIDCProvider создаёт провайдера. httpClient используется для всех
// обменов с identity provider и не должен проходить через пайплайн
// запросов: bearer-токен к token endpoint не прикладывается.
func NewOIDCProvider(cfg ProviderConfig, httpClient *http.Client, logger *log.Entry) *OIDCProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = log.WithField("component", "oidc-provider")
	}
	issuer := strings.TrimRight(cfg.IssuerURL, "/")
	return &OIDCProvider{
		oauth: oauth2.Config{
			ClientID:    cfg.ClientID,
			RedirectURL: cfg.RedirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:  issuer + "/protocol/openid-connect/auth",
				TokenURL: issuer + "/protocol/openid-connect/token",
			},
			Scopes: []string{"openid", "profile", "email"},
		},
		httpClient: httpClient,
		logoutURL:  issuer + "/protocol/openid-connect/logout",
		bootstrap:  cfg.RefreshToken,
		logger:     logger,
	}
}

// withClient подкладывает собственный http.Client в обмены oauth2.
func (p *OIDCProvider) withClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
}

// Handshake — тихая инициализация: если задан bootstrap refresh-токен,
// обмениваем его на свежие учётные данные, иначе остаёмся анонимными.
func (p *OIDCProvider) Handshake(ctx context.Context) (domain.Credential, bool, error) {
	if p.bootstrap == "" {
		return domain.Credential{}, false, nil
	}
	cred, err := p.Refresh(ctx, p.bootstrap)
	if err != nil {
		return domain.Credential{}, false, err
	}
	return cred, true, nil
}

// Refresh выполняет refresh-грант и разбирает полученный access-токен.
func (p *OIDCProvider) Refresh(ctx context.Context, refreshToken string) (domain.Credential, error) {
	if refreshToken == "" {
		return domain.Credential{}, domain.ErrNotAuthenticated
	}
	source := p.oauth.TokenSource(p.withClient(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := source.Token()
	if err != nil {
		return domain.Credential{}, fmt.Errorf("refresh grant: %w", err)
	}
	return credentialFromToken(tok)
}

// BeginLogin генерирует PKCE-verifier и адрес страницы входа.
func (p *OIDCProvider) BeginLogin(_ context.Context) (domain.LoginRequest, error) {
	verifier := oauth2.GenerateVerifier()
	state := uuid.NewString()
	authURL := p.oauth.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
	return domain.LoginRequest{URL: authURL, State: state, Verifier: verifier}, nil
}

// Exchange обменивает код авторизации на учётные данные.
func (p *OIDCProvider) Exchange(ctx context.Context, code, verifier string) (domain.Credential, error) {
	tok, err := p.oauth.Exchange(p.withClient(ctx), code, oauth2.VerifierOption(verifier))
	if err != nil {
		return domain.Credential{}, fmt.Errorf("authorization code exchange: %w", err)
	}
	return credentialFromToken(tok)
}

// Logout отзывает refresh-токен на identity provider.
func (p *OIDCProvider) Logout(ctx context.Context, refreshToken string) error {
	form := url.Values{
		"client_id":     {p.oauth.ClientID},
		"refresh_token": {refreshToken},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.logoutURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("identity provider logout: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("identity provider logout: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// tokenClaims — подмножество claims access-токена, нужное клиенту.
type tokenClaims struct {
	jwt.RegisteredClaims
	PreferredUsername string `json:"preferred_username"`
	Email             string `json:"email"`
	RealmAccess       struct {
		Roles []string `json:"roles"`
	} `json:"realm_access"`
}

// credentialFromToken разбирает claims access-токена. Подпись не
// проверяется: токен получен напрямую от token endpoint по TLS, а
// авторизацию по ролям всё равно принуждает сервер.
func credentialFromToken(tok *oauth2.Token) (domain.Credential, error) {
	var claims tokenClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tok.AccessToken, &claims); err != nil {
		return domain.Credential{}, fmt.Errorf("parse access token claims: %w", err)
	}

	expiry := tok.Expiry
	if expiry.IsZero() && claims.ExpiresAt != nil {
		expiry = claims.ExpiresAt.Time
	}

	return domain.Credential{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       expiry,
		Subject:      claims.Subject,
		Username:     claims.PreferredUsername,
		Email:        claims.Email,
		Roles:        claims.RealmAccess.Roles,
	}, nil
}

var _ domain.IdentityProvider = (*OIDCProvider)(nil)
