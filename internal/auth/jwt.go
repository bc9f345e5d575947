package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token scopes. Every token this service issues carries exactly one of
// these in its "scope" claim so an access token can never be replayed as a
// refresh token or vice versa.
const (
	ScopeAccess  = "access_token"
	ScopeRefresh = "refresh_token"
	ScopeEmail   = "email_token"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

type Claims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

type Manager struct {
	secret     []byte
	method     jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration
	emailTTL   time.Duration
}

// NewManager builds a token manager. algorithm must be one of the HMAC
// family (HS256/HS384/HS512); anything else falls back to HS256.
func NewManager(secret, algorithm string, accessTTL, refreshTTL, emailTTL time.Duration) *Manager {
	method := jwt.GetSigningMethod(algorithm)

	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		method = jwt.SigningMethodHS256
	}

	return &Manager{
		secret:     []byte(secret),
		method:     method,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		emailTTL:   emailTTL,
	}
}

func (m *Manager) generate(email, scope string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()

	claims := Claims{
		Scope: scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(m.method, claims)

	return token.SignedString(m.secret)
}

// GenerateAccessToken issues a short-lived token authorizing API calls.
func (m *Manager) GenerateAccessToken(email string) (string, error) {
	return m.generate(email, ScopeAccess, m.accessTTL)
}

// GenerateRefreshToken issues a long-lived token exchangeable for a new
// token pair. The caller is responsible for persisting it as the user's
// single valid refresh token.
func (m *Manager) GenerateRefreshToken(email string) (string, error) {
	return m.generate(email, ScopeRefresh, m.refreshTTL)
}

// GenerateEmailToken issues a medium-lived token proving control of an
// email address, embedded in the confirmation link.
func (m *Manager) GenerateEmailToken(email string) (string, error) {
	return m.generate(email, ScopeEmail, m.emailTTL)
}

func (m *Manager) parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		// Enforce the HMAC family regardless of what the token header says.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)

	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// VerifyAccessToken validates signature, expiry and scope of an access token.
func (m *Manager) VerifyAccessToken(tokenStr string) (*Claims, error) {
	claims, err := m.parse(tokenStr)

	if err != nil {
		return nil, err
	}

	if claims.Scope != ScopeAccess {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// DecodeRefreshToken validates a refresh token and returns its subject
// (the user's email). Expiry is folded into ErrInvalidToken: a stale
// refresh token simply means re-login.
func (m *Manager) DecodeRefreshToken(tokenStr string) (string, error) {
	claims, err := m.parse(tokenStr)

	if err != nil {
		return "", ErrInvalidToken
	}

	if claims.Scope != ScopeRefresh {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}

// EmailFromToken validates an email-confirmation token and returns its
// subject. Expired tokens keep their distinct error so the handler can tell
// the user to request a fresh confirmation email.
func (m *Manager) EmailFromToken(tokenStr string) (string, error) {
	claims, err := m.parse(tokenStr)

	if err != nil {
		return "", err
	}

	if claims.Scope != ScopeEmail {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}
