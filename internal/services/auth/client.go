package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/taskdeck/taskdeck-api/internal/config"
)

// Client wraps the OAuth2 authorization-code flow against the configured
// OIDC provider
type Client struct {
	config *oauth2.Config
}

// NewClient builds an OAuth2 client from the application configuration.
// Endpoints come from the issuer's discovery document when reachable, with
// issuer-derived fallbacks otherwise.
func NewClient(cfg *config.Config) *Client {
	authURL, tokenURL := discoverEndpoints(cfg.OIDCIssuer)

	return &Client{
		config: &oauth2.Config{
			ClientID:     cfg.OIDCClientID,
			ClientSecret: cfg.OIDCClientSecret,
			RedirectURL:  cfg.OIDCRedirectURI,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  authURL,
				TokenURL: tokenURL,
			},
		},
	}
}

// ExchangeCode exchanges an authorization code for tokens
func (c *Client) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	return c.config.Exchange(ctx, code)
}

// AuthCodeURL returns the authorization URL for the given state
func (c *Client) AuthCodeURL(state string) string {
	return c.config.AuthCodeURL(state)
}

// LoginConfig is the OIDC login configuration handed to the frontend
type LoginConfig struct {
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	ClientID              string `json:"client_id"`
	RedirectURI           string `json:"redirect_uri"`
	Scope                 string `json:"scope"`
}

// LoginConfig returns the configuration needed for frontend OIDC login
func (c *Client) LoginConfig() *LoginConfig {
	return &LoginConfig{
		AuthorizationEndpoint: c.config.Endpoint.AuthURL,
		TokenEndpoint:         c.config.Endpoint.TokenURL,
		ClientID:              c.config.ClientID,
		RedirectURI:           c.config.RedirectURL,
		Scope:                 strings.Join(c.config.Scopes, " "),
	}
}

// discoverEndpoints reads the issuer's discovery document, falling back to
// issuer-relative paths when it is unreachable
func discoverEndpoints(issuer string) (authURL, tokenURL string) {
	base := strings.TrimSuffix(issuer, "/")
	authURL = base + "/oauth2/authorize"
	tokenURL = base + "/oauth2/token"

	if issuer == "" {
		return authURL, tokenURL
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(base + "/.well-known/openid-configuration")
	if err != nil || resp.StatusCode != http.StatusOK {
		if resp != nil {
			resp.Body.Close()
		}
		return authURL, tokenURL
	}
	defer resp.Body.Close()

	var discovery struct {
		AuthorizationEndpoint string `json:"authorization_endpoint"`
		TokenEndpoint         string `json:"token_endpoint"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&discovery); err != nil {
		return authURL, tokenURL
	}
	if discovery.AuthorizationEndpoint != "" {
		authURL = discovery.AuthorizationEndpoint
	}
	if discovery.TokenEndpoint != "" {
		tokenURL = discovery.TokenEndpoint
	}
	return authURL, tokenURL
}
