package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/taskdeck/taskdeck-api/internal/config"
)

func TestNewClient_DiscoveryEndpoints(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/.well-known/openid-configuration" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"authorization_endpoint": "https://auth.example.com/authorize",
			"token_endpoint": "https://auth.example.com/token"
		}`))
	}))
	defer srv.Close()

	client := NewClient(&config.Config{
		OIDCIssuer:      srv.URL,
		OIDCClientID:    "test-client-id",
		OIDCRedirectURI: "http://localhost:3000/callback",
	})

	if client.config.Endpoint.AuthURL != "https://auth.example.com/authorize" {
		t.Errorf("AuthURL = %q, want discovery value", client.config.Endpoint.AuthURL)
	}
	if client.config.Endpoint.TokenURL != "https://auth.example.com/token" {
		t.Errorf("TokenURL = %q, want discovery value", client.config.Endpoint.TokenURL)
	}
}

func TestNewClient_FallbackEndpoints(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	client := NewClient(&config.Config{
		OIDCIssuer:   srv.URL + "/",
		OIDCClientID: "test-client-id",
	})

	if want := srv.URL + "/oauth2/authorize"; client.config.Endpoint.AuthURL != want {
		t.Errorf("AuthURL = %q, want %q", client.config.Endpoint.AuthURL, want)
	}
	if want := srv.URL + "/oauth2/token"; client.config.Endpoint.TokenURL != want {
		t.Errorf("TokenURL = %q, want %q", client.config.Endpoint.TokenURL, want)
	}
}

func TestClient_AuthCodeURL(t *testing.T) {
	t.Parallel()

	client := NewClient(&config.Config{
		OIDCClientID:    "test-client-id",
		OIDCRedirectURI: "http://localhost:3000/callback",
	})

	url := client.AuthCodeURL("test-state-123")
	if !strings.Contains(url, "state=test-state-123") {
		t.Errorf("AuthCodeURL missing state: %s", url)
	}
	if !strings.Contains(url, "client_id=test-client-id") {
		t.Errorf("AuthCodeURL missing client id: %s", url)
	}
}

func TestClient_LoginConfig(t *testing.T) {
	t.Parallel()

	client := NewClient(&config.Config{
		OIDCClientID:    "cid",
		OIDCRedirectURI: "http://localhost:3000/callback",
	})

	lc := client.LoginConfig()
	if lc.ClientID != "cid" {
		t.Errorf("ClientID = %q", lc.ClientID)
	}
	if lc.Scope != "openid email profile" {
		t.Errorf("Scope = %q", lc.Scope)
	}
}
