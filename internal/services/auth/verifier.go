package auth

import (
	"context"
	"fmt"

	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/taskdeck/taskdeck-api/internal/models"
)

// Verifier validates bearer tokens against the provider's signing keys
type Verifier struct {
	jwksManager *JWKSManager
	jwksURL     string
	issuer      string
}

// NewVerifier creates a verifier bound to one JWKS URL. issuer may be empty,
// in which case the issuer claim is accepted as-is.
func NewVerifier(jwksManager *JWKSManager, jwksURL, issuer string) *Verifier {
	return &Verifier{
		jwksManager: jwksManager,
		jwksURL:     jwksURL,
		issuer:      issuer,
	}
}

// Verify checks the token signature and validity window and extracts claims
func (v *Verifier) Verify(ctx context.Context, tokenString string) (*models.JWTClaims, error) {
	keys, err := v.jwksManager.GetJWKS(ctx, v.jwksURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get JWKS: %w", err)
	}

	token, err := jwt.Parse([]byte(tokenString), jwt.WithKeySet(keys), jwt.WithValidate(true))
	if err != nil {
		return nil, fmt.Errorf("failed to parse/verify token: %w", err)
	}

	if v.issuer != "" {
		iss, ok := token.Get("iss")
		if !ok {
			return nil, fmt.Errorf("token missing issuer claim")
		}
		if issStr, ok := iss.(string); !ok || issStr != v.issuer {
			return nil, fmt.Errorf("token issuer mismatch: expected %s, got %v", v.issuer, iss)
		}
	}

	claims := &models.JWTClaims{}

	if sub, ok := token.Get("sub"); ok {
		if s, ok := sub.(string); ok {
			claims.Sub = s
		}
	}
	if email, ok := token.Get("email"); ok {
		if s, ok := email.(string); ok {
			claims.Email = s
		}
	}
	if name, ok := token.Get("name"); ok {
		if s, ok := name.(string); ok {
			claims.Name = s
		}
	}
	if exp, ok := token.Get("exp"); ok {
		if f, ok := exp.(float64); ok {
			claims.Exp = int64(f)
		}
	}
	if iat, ok := token.Get("iat"); ok {
		if f, ok := iat.(float64); ok {
			claims.Iat = int64(f)
		}
	}
	if iss, ok := token.Get("iss"); ok {
		if s, ok := iss.(string); ok {
			claims.Iss = s
		}
	}
	if aud, ok := token.Get("aud"); ok {
		if s, ok := aud.(string); ok {
			claims.Aud = s
		} else if arr, ok := aud.([]any); ok && len(arr) > 0 {
			if s, ok := arr[0].(string); ok {
				claims.Aud = s
			}
		}
	}

	return claims, nil
}
