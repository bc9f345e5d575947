package auth_test

import (
	"errors"
	"testing"
	"time"

	"github.com/geocoder89/contacthub/internal/auth"
)

const testSecret = "test-secret"

func newManager(t *testing.T) *auth.Manager {
	t.Helper()

	return auth.NewManager(testSecret, "HS256", 15*time.Minute, 7*24*time.Hour, time.Hour)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := newManager(t)

	token, err := m.GenerateAccessToken("alice@example.com")

	if err != nil {
		t.Fatalf("generate access token: %v", err)
	}

	claims, err := m.VerifyAccessToken(token)

	if err != nil {
		t.Fatalf("verify access token: %v", err)
	}

	if claims.Subject != "alice@example.com" {
		t.Fatalf("got subject %q, want %q", claims.Subject, "alice@example.com")
	}

	if claims.Scope != auth.ScopeAccess {
		t.Fatalf("got scope %q, want %q", claims.Scope, auth.ScopeAccess)
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	m := newManager(t)

	token, err := m.GenerateRefreshToken("bob@example.com")

	if err != nil {
		t.Fatalf("generate refresh token: %v", err)
	}

	email, err := m.DecodeRefreshToken(token)

	if err != nil {
		t.Fatalf("decode refresh token: %v", err)
	}

	if email != "bob@example.com" {
		t.Fatalf("got email %q, want %q", email, "bob@example.com")
	}
}

func TestEmailTokenRoundTrip(t *testing.T) {
	m := newManager(t)

	token, err := m.GenerateEmailToken("carol@example.com")

	if err != nil {
		t.Fatalf("generate email token: %v", err)
	}

	email, err := m.EmailFromToken(token)

	if err != nil {
		t.Fatalf("email from token: %v", err)
	}

	if email != "carol@example.com" {
		t.Fatalf("got email %q, want %q", email, "carol@example.com")
	}
}

// A token minted for one scope must be useless in every other scope.

func TestScopeIsEnforced(t *testing.T) {
	m := newManager(t)

	access, _ := m.GenerateAccessToken("a@example.com")
	refresh, _ := m.GenerateRefreshToken("a@example.com")
	email, _ := m.GenerateEmailToken("a@example.com")

	if _, err := m.VerifyAccessToken(refresh); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("refresh token accepted as access token, err=%v", err)
	}

	if _, err := m.VerifyAccessToken(email); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("email token accepted as access token, err=%v", err)
	}

	if _, err := m.DecodeRefreshToken(access); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("access token accepted as refresh token, err=%v", err)
	}

	if _, err := m.EmailFromToken(access); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("access token accepted as email token, err=%v", err)
	}
}

func TestMalformedAndForgedTokens(t *testing.T) {
	m := newManager(t)

	if _, err := m.VerifyAccessToken("not-a-jwt"); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("got err=%v, want ErrInvalidToken", err)
	}

	// signed with a different secret
	other := auth.NewManager("another-secret", "HS256", time.Minute, time.Minute, time.Minute)
	forged, _ := other.GenerateAccessToken("a@example.com")

	if _, err := m.VerifyAccessToken(forged); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("got err=%v, want ErrInvalidToken", err)
	}
}

func TestExpiredEmailTokenKeepsDistinctError(t *testing.T) {
	m := auth.NewManager(testSecret, "HS256", time.Minute, time.Minute, -time.Minute)

	token, err := m.GenerateEmailToken("late@example.com")

	if err != nil {
		t.Fatalf("generate email token: %v", err)
	}

	if _, err := m.EmailFromToken(token); !errors.Is(err, auth.ErrTokenExpired) {
		t.Fatalf("got err=%v, want ErrTokenExpired", err)
	}
}

func TestExpiredRefreshTokenIsJustInvalid(t *testing.T) {
	m := auth.NewManager(testSecret, "HS256", time.Minute, -time.Minute, time.Minute)

	token, err := m.GenerateRefreshToken("late@example.com")

	if err != nil {
		t.Fatalf("generate refresh token: %v", err)
	}

	if _, err := m.DecodeRefreshToken(token); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("got err=%v, want ErrInvalidToken", err)
	}
}

func TestUnknownAlgorithmFallsBackToHMAC(t *testing.T) {
	m := auth.NewManager(testSecret, "RS256", time.Minute, time.Minute, time.Minute)

	token, err := m.GenerateAccessToken("a@example.com")

	if err != nil {
		t.Fatalf("generate with fallback method: %v", err)
	}

	if _, err := m.VerifyAccessToken(token); err != nil {
		t.Fatalf("verify with fallback method: %v", err)
	}
}
