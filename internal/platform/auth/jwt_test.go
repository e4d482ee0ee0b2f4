package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateToken(testSecret, "user-1", "accountant")
	require.NoError(t, err)

	claims, err := ValidateToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "accountant", claims.Role)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	token, err := GenerateToken(testSecret, "user-1", "accountant")
	require.NoError(t, err)

	_, err = ValidateToken([]byte("other-secret"), token)
	assert.Error(t, err)
}

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware(testSecret))
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": c.GetString("x-user-id")})
	})
	return r
}

func TestMiddleware(t *testing.T) {
	r := newAuthRouter()

	// 无 Authorization 头
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// 缺 Bearer 前缀
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Basic abc")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// 合法 Token
	token, err := GenerateToken(testSecret, "user-1", "accountant")
	require.NoError(t, err)
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "user-1")
}
