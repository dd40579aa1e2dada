package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"social-service/internal/session"
)

const principalContextKey = "principal"

// SessionResolver resolves an opaque token to a principal.
type SessionResolver interface {
	Lookup(ctx context.Context, token string) (session.Principal, error)
}

// AuthMiddleware resolves the session cookie into a request-scoped principal.
func AuthMiddleware(sessions SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, err := c.Cookie(session.CookieName)
		if err != nil || cookie == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}

		principal, err := sessions.Lookup(c.Request.Context(), cookie)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid session"})
			return
		}

		c.Set(principalContextKey, principal)
		c.Set("userID", principal.UserID)
		c.Next()
	}
}

// PrincipalFromContext returns the authenticated identity set by AuthMiddleware.
func PrincipalFromContext(c *gin.Context) (session.Principal, bool) {
	val, ok := c.Get(principalContextKey)
	if !ok {
		return session.Principal{}, false
	}
	principal, ok := val.(session.Principal)
	return principal, ok
}
