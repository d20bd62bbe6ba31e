package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func authTestRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", Middleware(secret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"aid": c.GetString("aid")})
	})
	return r
}

func TestMiddleware_ValidToken(t *testing.T) {
	token, err := Issue("secret", "agency-1", time.Hour)
	assert.NoError(t, err)

	r := authTestRouter("secret")
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "agency-1")
}

func TestMiddleware_MissingToken(t *testing.T) {
	r := authTestRouter("secret")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddleware_WrongSecret(t *testing.T) {
	token, err := Issue("other-secret", "agency-1", time.Hour)
	assert.NoError(t, err)

	r := authTestRouter("secret")
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddleware_ExpiredToken(t *testing.T) {
	token, err := Issue("secret", "agency-1", -time.Minute)
	assert.NoError(t, err)

	r := authTestRouter("secret")
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
