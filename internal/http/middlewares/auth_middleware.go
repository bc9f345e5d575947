package middlewares

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/contacthub/internal/auth"
	"github.com/geocoder89/contacthub/internal/cache"
	"github.com/geocoder89/contacthub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// Keep these interfaces small so tests can fake them easily.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*auth.Claims, error)
}

type UserLoader interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

type AuthMiddleware struct {
	jwt   TokenVerifier
	users UserLoader
	cache *cache.Cache
}

// NewAuthMiddleware builds the bearer-token gate. userCache may be nil to
// hit the store on every request.
func NewAuthMiddleware(jwt TokenVerifier, users UserLoader, userCache *cache.Cache) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt, users: users, cache: userCache}
}

// RequireAuth extracts the bearer access token, verifies it and resolves
// the full user row, aborting with 401 when any step fails.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := BearerToken(c)

		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "unauthorized",
					"message": "Missing or invalid Authorization header",
				},
			})
			return
		}

		claims, err := m.jwt.VerifyAccessToken(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "unauthorized",
					"message": "Could not validate credentials",
				},
			})
			return
		}

		u, err := m.lookupUser(c.Request.Context(), claims.Subject)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "unauthorized",
					"message": "Could not validate credentials",
				},
			})
			return
		}

		c.Set(ctxUserKey, u)

		c.Next()
	}
}

func (m *AuthMiddleware) lookupUser(ctx context.Context, email string) (user.User, error) {
	if m.cache != nil {
		if v, ok := m.cache.Get(email); ok {
			if u, ok := v.(user.User); ok {
				return u, nil
			}
		}
	}

	lctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	u, err := m.users.GetByEmail(lctx, email)

	if err != nil {
		return user.User{}, err
	}

	if m.cache != nil {
		m.cache.Set(email, u)
	}

	return u, nil
}

// BearerToken pulls the raw credential out of the Authorization header.
func BearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")

	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}

	raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer"))

	return raw, raw != ""
}
