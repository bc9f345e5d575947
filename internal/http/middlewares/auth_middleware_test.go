package middlewares_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geocoder89/contacthub/internal/auth"
	"github.com/geocoder89/contacthub/internal/cache"
	"github.com/geocoder89/contacthub/internal/domain/user"
	"github.com/geocoder89/contacthub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Fakes for the middlewares.TokenVerifier and middlewares.UserLoader interfaces

type fakeVerifier struct {
	verifyFn func(token string) (*auth.Claims, error)
}

func (f *fakeVerifier) VerifyAccessToken(token string) (*auth.Claims, error) {
	if f.verifyFn != nil {
		return f.verifyFn(token)
	}

	return nil, auth.ErrInvalidToken
}

type fakeLoader struct {
	calls int
	getFn func(ctx context.Context, email string) (user.User, error)
}

func (f *fakeLoader) GetByEmail(ctx context.Context, email string) (user.User, error) {
	f.calls++

	if f.getFn != nil {
		return f.getFn(ctx, email)
	}

	return user.User{}, user.ErrNotFound
}

func claimsFor(email string) *auth.Claims {
	return &auth.Claims{
		Scope: auth.ScopeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: email,
		},
	}
}

func protectedRouter(mw *middlewares.AuthMiddleware) *gin.Engine {
	r := gin.New()

	r.GET("/me", mw.RequireAuth(), func(c *gin.Context) {
		u, ok := middlewares.CurrentUser(c)

		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}

		c.JSON(http.StatusOK, u)
	})

	return r
}

func TestRequireAuth(t *testing.T) {
	tests := []struct {
		name           string
		authHeader     string
		verifier       *fakeVerifier
		loader         *fakeLoader
		wantStatusCode int
	}{
		{
			name:       "success",
			authHeader: "Bearer good-token",
			verifier: &fakeVerifier{
				verifyFn: func(token string) (*auth.Claims, error) {
					if token != "good-token" {
						return nil, auth.ErrInvalidToken
					}
					return claimsFor("ada@example.com"), nil
				},
			},
			loader: &fakeLoader{
				getFn: func(ctx context.Context, email string) (user.User, error) {
					return user.User{ID: 1, Email: email, Confirmed: true}, nil
				},
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "missing_header",
			authHeader:     "",
			verifier:       &fakeVerifier{},
			loader:         &fakeLoader{},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "wrong_scheme",
			authHeader:     "Basic dXNlcjpwYXNz",
			verifier:       &fakeVerifier{},
			loader:         &fakeLoader{},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:       "invalid_token",
			authHeader: "Bearer bad-token",
			verifier: &fakeVerifier{
				verifyFn: func(token string) (*auth.Claims, error) {
					return nil, auth.ErrInvalidToken
				},
			},
			loader:         &fakeLoader{},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:       "expired_token",
			authHeader: "Bearer expired-token",
			verifier: &fakeVerifier{
				verifyFn: func(token string) (*auth.Claims, error) {
					return nil, auth.ErrTokenExpired
				},
			},
			loader:         &fakeLoader{},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:       "token_for_deleted_user",
			authHeader: "Bearer good-token",
			verifier: &fakeVerifier{
				verifyFn: func(token string) (*auth.Claims, error) {
					return claimsFor("gone@example.com"), nil
				},
			},
			loader: &fakeLoader{
				getFn: func(ctx context.Context, email string) (user.User, error) {
					return user.User{}, user.ErrNotFound
				},
			},
			wantStatusCode: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			mw := middlewares.NewAuthMiddleware(tt.verifier, tt.loader, nil)
			r := protectedRouter(mw)

			req := httptest.NewRequest(http.MethodGet, "/me", nil)

			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestRequireAuthCachesUserLookups(t *testing.T) {
	verifier := &fakeVerifier{
		verifyFn: func(token string) (*auth.Claims, error) {
			return claimsFor("ada@example.com"), nil
		},
	}

	loader := &fakeLoader{
		getFn: func(ctx context.Context, email string) (user.User, error) {
			return user.User{ID: 1, Email: email, Confirmed: true}, nil
		},
	}

	userCache := cache.New(time.Minute)
	mw := middlewares.NewAuthMiddleware(verifier, loader, userCache)
	r := protectedRouter(mw)

	doAuthed := func() {
		t.Helper()

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer good-token")

		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
		}
	}

	for i := 0; i < 3; i++ {
		doAuthed()
	}

	if loader.calls != 1 {
		t.Fatalf("store hit %d times for 3 requests, want 1 (cached)", loader.calls)
	}

	// an emptied cache forces the next request back to the store
	userCache.Clear()
	doAuthed()

	if loader.calls != 2 {
		t.Fatalf("store hit %d times after cache clear, want 2", loader.calls)
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		wantToken string
		wantOK    bool
	}{
		{"well_formed", "Bearer abc.def.ghi", "abc.def.ghi", true},
		{"empty_credential", "Bearer ", "", false},
		{"no_header", "", "", false},
		{"wrong_scheme", "Token abc", "", false},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			if tt.header != "" {
				c.Request.Header.Set("Authorization", tt.header)
			}

			token, ok := middlewares.BearerToken(c)

			if ok != tt.wantOK || token != tt.wantToken {
				t.Fatalf("got (%q, %v), want (%q, %v)", token, ok, tt.wantToken, tt.wantOK)
			}
		})
	}
}
