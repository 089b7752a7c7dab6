package services

import (
	"testing"
	"time"

	appconfig "matchdeck-backend/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenRoundTrip(t *testing.T) {
	v, err := NewTokenVerifier(appconfig.AuthConfig{Secret: "test-secret"})
	if err != nil {
		t.Fatalf("NewTokenVerifier failed: %v", err)
	}

	token, err := v.Issue("user-1", time.Hour)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	userID, err := v.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if userID != "user-1" {
		t.Fatalf("expected user-1, got %q", userID)
	}
}

func TestVerifyRejects(t *testing.T) {
	v, _ := NewTokenVerifier(appconfig.AuthConfig{Secret: "test-secret", Issuer: "matchdeck"})
	other, _ := NewTokenVerifier(appconfig.AuthConfig{Secret: "other-secret", Issuer: "matchdeck"})
	noIssuer, _ := NewTokenVerifier(appconfig.AuthConfig{Secret: "test-secret"})

	wrongKey, _ := other.Issue("user-1", time.Hour)
	expired, _ := v.Issue("user-1", -time.Minute)
	missingIssuer, _ := noIssuer.Issue("user-1", time.Hour)
	noSubject, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss": "matchdeck",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))

	tests := map[string]string{
		"garbage":        "not-a-token",
		"wrong key":      wrongKey,
		"expired":        expired,
		"missing issuer": missingIssuer,
		"no subject":     noSubject,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := v.Verify(token); err == nil {
				t.Fatal("expected verification to fail")
			}
		})
	}
}

func TestVerifyUserIDClaim(t *testing.T) {
	v, _ := NewTokenVerifier(appconfig.AuthConfig{Secret: "test-secret"})
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "legacy-user",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))

	userID, err := v.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if userID != "legacy-user" {
		t.Fatalf("expected legacy-user, got %q", userID)
	}
}

func TestVerifyRejectsNoneAlg(t *testing.T) {
	v, _ := NewTokenVerifier(appconfig.AuthConfig{Secret: "test-secret"})
	token, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	if _, err := v.Verify(token); err == nil {
		t.Fatal("expected unsigned token to be rejected")
	}
}
