package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// signAccessToken собирает подписанный access-токен с claims realm-а.
func signAccessToken(t *testing.T, roles []string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":                "user-42",
		"preferred_username": "shopper",
		"email":              "shopper@example.com",
		"exp":                time.Now().Add(5 * time.Minute).Unix(),
		"realm_access":       map[string]interface{}{"roles": roles},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

// fakeIdP поднимает token/logout endpoint-ы Keycloak-совместимого realm-а.
func fakeIdP(t *testing.T, accessToken string, lastForm *url.Values) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/protocol/openid-connect/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		*lastForm = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token":  accessToken,
			"refresh_token": "new-refresh-token",
			"token_type":    "Bearer",
			"expires_in":    300,
		})
	})
	mux.HandleFunc("/protocol/openid-connect/logout", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		*lastForm = r.PostForm
		w.WriteHeader(http.StatusNoContent)
	})
	return httptest.NewServer(mux)
}

func TestOIDCProviderRefresh(t *testing.T) {
	accessToken := signAccessToken(t, []string{domain.RoleClient, domain.RoleAdmin})
	var form url.Values
	server := fakeIdP(t, accessToken, &form)
	defer server.Close()

	provider := NewOIDCProvider(ProviderConfig{
		IssuerURL: server.URL,
		ClientID:  "storefront-client",
	}, server.Client(), testLogger())

	cred, err := provider.Refresh(context.Background(), "old-refresh-token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if form.Get("grant_type") != "refresh_token" {
		t.Fatalf("unexpected grant type: %s", form.Get("grant_type"))
	}
	if form.Get("refresh_token") != "old-refresh-token" {
		t.Fatalf("unexpected refresh token: %s", form.Get("refresh_token"))
	}

	if cred.Subject != "user-42" || cred.Username != "shopper" {
		t.Fatalf("unexpected identity: %+v", cred)
	}
	if !cred.HasRole(domain.RoleAdmin) || !cred.HasRole(domain.RoleClient) {
		t.Fatalf("expected realm roles to be parsed, got %v", cred.Roles)
	}
	if cred.RefreshToken != "new-refresh-token" {
		t.Fatalf("expected rotated refresh token, got %s", cred.RefreshToken)
	}
	if cred.ExpiresWithin(time.Minute) {
		t.Fatal("expected fresh expiry from token response")
	}
}

func TestOIDCProviderRefreshWithoutToken(t *testing.T) {
	provider := NewOIDCProvider(ProviderConfig{IssuerURL: "http://idp.invalid"}, nil, testLogger())

	if _, err := provider.Refresh(context.Background(), ""); err == nil {
		t.Fatal("expected error without refresh token")
	}
}

func TestOIDCProviderHandshake(t *testing.T) {
	accessToken := signAccessToken(t, []string{domain.RoleClient})
	var form url.Values
	server := fakeIdP(t, accessToken, &form)
	defer server.Close()

	// Без bootstrap-токена handshake анонимен и не ходит в сеть.
	anonymous := NewOIDCProvider(ProviderConfig{IssuerURL: server.URL}, server.Client(), testLogger())
	_, authenticated, err := anonymous.Handshake(context.Background())
	if err != nil || authenticated {
		t.Fatalf("expected silent anonymous handshake, got auth=%v err=%v", authenticated, err)
	}

	bootstrapped := NewOIDCProvider(ProviderConfig{
		IssuerURL:    server.URL,
		ClientID:     "storefront-client",
		RefreshToken: "bootstrap-token",
	}, server.Client(), testLogger())
	cred, authenticated, err := bootstrapped.Handshake(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !authenticated || cred.Username != "shopper" {
		t.Fatalf("expected authenticated handshake, got auth=%v cred=%+v", authenticated, cred)
	}
}

func TestOIDCProviderBeginLogin(t *testing.T) {
	provider := NewOIDCProvider(ProviderConfig{
		IssuerURL:   "http://localhost:8180/realms/storefront",
		ClientID:    "storefront-client",
		RedirectURL: "http://localhost:3000",
	}, nil, testLogger())

	req, err := provider.BeginLogin(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	parsed, err := url.Parse(req.URL)
	if err != nil {
		t.Fatalf("parse login url: %v", err)
	}
	query := parsed.Query()
	if query.Get("code_challenge") == "" || query.Get("code_challenge_method") != "S256" {
		t.Fatalf("expected PKCE challenge in url: %s", req.URL)
	}
	if query.Get("state") != req.State || req.State == "" {
		t.Fatalf("expected state in url, got %q vs %q", query.Get("state"), req.State)
	}
	if req.Verifier == "" {
		t.Fatal("expected verifier to be generated")
	}
}

func TestOIDCProviderExchange(t *testing.T) {
	accessToken := signAccessToken(t, []string{domain.RoleClient})
	var form url.Values
	server := fakeIdP(t, accessToken, &form)
	defer server.Close()

	provider := NewOIDCProvider(ProviderConfig{
		IssuerURL:   server.URL,
		ClientID:    "storefront-client",
		RedirectURL: "http://localhost:3000",
	}, server.Client(), testLogger())

	cred, err := provider.Exchange(context.Background(), "auth-code", "pkce-verifier")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if form.Get("grant_type") != "authorization_code" {
		t.Fatalf("unexpected grant type: %s", form.Get("grant_type"))
	}
	if form.Get("code") != "auth-code" || form.Get("code_verifier") != "pkce-verifier" {
		t.Fatalf("expected code and verifier in form: %v", form)
	}
	if cred.Zero() {
		t.Fatal("expected credential from exchange")
	}
}

func TestOIDCProviderLogout(t *testing.T) {
	accessToken := signAccessToken(t, nil)
	var form url.Values
	server := fakeIdP(t, accessToken, &form)
	defer server.Close()

	provider := NewOIDCProvider(ProviderConfig{
		IssuerURL: server.URL,
		ClientID:  "storefront-client",
	}, server.Client(), testLogger())

	if err := provider.Logout(context.Background(), "refresh-token"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if form.Get("client_id") != "storefront-client" || form.Get("refresh_token") != "refresh-token" {
		t.Fatalf("unexpected logout form: %v", form)
	}

	if !strings.HasSuffix(provider.logoutURL, "/protocol/openid-connect/logout") {
		t.Fatalf("unexpected logout url: %s", provider.logoutURL)
	}
}
