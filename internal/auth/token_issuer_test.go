package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenIssuerIssuesBearerTokens(t *testing.T) {
	issuer := NewTokenIssuer(TokenIssuerConfig{
		SigningSecret: []byte("super-secret"),
		Issuer:        "snipvault-auth",
		Audience:      "snipvault-api",
		TokenTTL:      30 * time.Minute,
	})

	tokenString, expiresIn, err := issuer.IssueToken(context.Background(), "anon-123")
	if err != nil {
		t.Fatalf("expected successful issuance: %v", err)
	}
	if expiresIn <= 0 {
		t.Fatalf("expected positive expiry seconds, got %d", expiresIn)
	}

	parser := jwt.Parser{}
	claims := &jwt.RegisteredClaims{}
	_, err = parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("super-secret"), nil
	})
	if err != nil {
		t.Fatalf("failed to parse generated token: %v", err)
	}

	if claims.Subject != "anon-123" {
		t.Fatalf("unexpected subject %s", claims.Subject)
	}
	if claims.Issuer != "snipvault-auth" {
		t.Fatalf("unexpected issuer %s", claims.Issuer)
	}
	if len(claims.Audience) == 0 || claims.Audience[0] != "snipvault-api" {
		t.Fatalf("unexpected audience %#v", claims.Audience)
	}
}

func TestTokenIssuerRejectsMissingSecret(t *testing.T) {
	issuer := NewTokenIssuer(TokenIssuerConfig{
		Issuer:   "snipvault-auth",
		Audience: "snipvault-api",
	})
	if _, _, err := issuer.IssueToken(context.Background(), "anon-123"); err == nil {
		t.Fatalf("expected issuance error for missing secret")
	}
}

func TestTokenIssuerRejectsEmptySubject(t *testing.T) {
	issuer := NewTokenIssuer(TokenIssuerConfig{
		SigningSecret: []byte("secret"),
		Issuer:        "snipvault-auth",
		Audience:      "snipvault-api",
	})
	if _, _, err := issuer.IssueToken(context.Background(), ""); err == nil {
		t.Fatalf("expected issuance error for empty subject")
	}
}

func TestTokenIssuerValidatesIssuedTokens(t *testing.T) {
	issuer := NewTokenIssuer(TokenIssuerConfig{
		SigningSecret: []byte("another-secret"),
		Issuer:        "snipvault-auth",
		Audience:      "snipvault-api",
		TokenTTL:      15 * time.Minute,
	})

	tokenString, _, err := issuer.IssueToken(context.Background(), "anon-321")
	if err != nil {
		t.Fatalf("unexpected error issuing token: %v", err)
	}

	subject, err := issuer.ValidateToken(tokenString)
	if err != nil {
		t.Fatalf("expected validation success: %v", err)
	}
	if subject != "anon-321" {
		t.Fatalf("unexpected subject %s", subject)
	}

	if _, err := issuer.ValidateToken("invalid.token"); err == nil {
		t.Fatalf("expected validation to fail for malformed token")
	}
}

func TestTokenIssuerRejectsExpiredTokens(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	clock := func() time.Time { return now }
	issuer := NewTokenIssuer(TokenIssuerConfig{
		SigningSecret: []byte("secret"),
		Issuer:        "snipvault-auth",
		Audience:      "snipvault-api",
		TokenTTL:      time.Minute,
		Clock:         clock,
	})

	tokenString, _, err := issuer.IssueToken(context.Background(), "anon-9")
	if err != nil {
		t.Fatalf("unexpected error issuing token: %v", err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := issuer.ValidateToken(tokenString); err == nil {
		t.Fatalf("expected validation to fail after expiry")
	}
}
