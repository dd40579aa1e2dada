package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"social-service/internal/mocks"
	"social-service/internal/session"
)

func setupAuthRouter(resolver SessionResolver) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/whoami", AuthMiddleware(resolver), func(c *gin.Context) {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "principal missing"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": principal.UserID, "ctx_user_id": c.GetInt("userID")})
	})
	return r
}

func TestAuthMiddlewareResolvesCookie(t *testing.T) {
	resolver := new(mocks.SessionResolverMock)
	router := setupAuthRouter(resolver)

	resolver.On("Lookup", mock.Anything, "token-123").
		Return(session.Principal{UserID: 7, Username: "alice"}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "token-123"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user_id":7`)
	assert.Contains(t, rec.Body.String(), `"ctx_user_id":7`)
	resolver.AssertExpectations(t)
}

func TestAuthMiddlewareMissingCookie(t *testing.T) {
	resolver := new(mocks.SessionResolverMock)
	router := setupAuthRouter(resolver)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	resolver.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything)
}

func TestAuthMiddlewareBadToken(t *testing.T) {
	resolver := new(mocks.SessionResolverMock)
	router := setupAuthRouter(resolver)

	resolver.On("Lookup", mock.Anything, "stale").
		Return(session.Principal{}, session.ErrSessionNotFound).Once()

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "stale"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
