package services

import (
	"fmt"
	"time"

	appconfig "matchdeck-backend/internal/config"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// TokenVerifier validates bearer tokens issued by the identity provider.
// Tokens are checked against a JWKS endpoint when one is configured and
// against a shared HMAC secret otherwise.
type TokenVerifier struct {
	keyfunc  jwt.Keyfunc
	secret   []byte
	issuer   string
	audience string
	options  []jwt.ParserOption
}

// NewTokenVerifier creates a verifier from auth configuration
func NewTokenVerifier(cfg appconfig.AuthConfig) (*TokenVerifier, error) {
	v := &TokenVerifier{issuer: cfg.Issuer, audience: cfg.Audience}

	if cfg.JWKSURL != "" {
		jwks, err := keyfunc.NewDefault([]string{cfg.JWKSURL})
		if err != nil {
			return nil, fmt.Errorf("failed to load JWKS: %w", err)
		}
		v.keyfunc = jwks.Keyfunc
		v.options = append(v.options, jwt.WithValidMethods([]string{"RS256", "ES256"}))
	} else {
		v.secret = []byte(cfg.Secret)
		v.keyfunc = func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return v.secret, nil
		}
	}

	if cfg.Issuer != "" {
		v.options = append(v.options, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		v.options = append(v.options, jwt.WithAudience(cfg.Audience))
	}

	return v, nil
}

// Verify validates a token and returns the user ID it was issued for
func (v *TokenVerifier) Verify(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, v.keyfunc, v.options...)
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}

	if sub, _ := claims["sub"].(string); sub != "" {
		return sub, nil
	}
	if userID, _ := claims["user_id"].(string); userID != "" {
		return userID, nil
	}
	return "", fmt.Errorf("subject not found in token")
}

// Issue signs a token for userID with the shared secret. It is meant for
// local development and tests; JWKS deployments get tokens from the provider.
func (v *TokenVerifier) Issue(userID string, ttl time.Duration) (string, error) {
	if len(v.secret) == 0 {
		return "", fmt.Errorf("token issuing requires a shared secret")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": now.Add(ttl).Unix(),
		"iat": now.Unix(),
	}
	if v.issuer != "" {
		claims["iss"] = v.issuer
	}
	if v.audience != "" {
		claims["aud"] = v.audience
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}
