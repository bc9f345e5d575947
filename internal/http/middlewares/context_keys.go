package middlewares

import (
	"github.com/geocoder89/contacthub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

const ctxUserKey = "auth.user"

// CurrentUser returns the user resolved by RequireAuth for this request.
func CurrentUser(c *gin.Context) (user.User, bool) {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return user.User{}, false
	}

	u, ok := v.(user.User)
	return u, ok
}

// SetCurrentUser stashes a user on the request context. Exported for
// handler tests that bypass RequireAuth.
func SetCurrentUser(c *gin.Context, u user.User) {
	c.Set(ctxUserKey, u)
}
