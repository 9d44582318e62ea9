package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"nitpickr-api/config"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "middleware-secret"

func sign(t *testing.T, claims jwt.MapClaims, method jwt.SigningMethod) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func authRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	config.JWT_SECRET = testSecret

	r := gin.New()
	r.GET("/private", AuthMiddleware(), func(c *gin.Context) {
		id, _ := CurrentUserID(c)
		c.String(http.StatusOK, id)
	})
	r.GET("/optional", OptionalAuth(), func(c *gin.Context) {
		id, ok := CurrentUserID(c)
		if !ok {
			id = "anonymous"
		}
		c.String(http.StatusOK, id)
	})
	r.GET("/admin", AuthMiddleware(), RequireRole("admin"), func(c *gin.Context) {
		c.String(http.StatusOK, "admin")
	})
	return r
}

func get(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := authRouter()
	valid := sign(t, jwt.MapClaims{"user_id": "u1", "role": "user", "exp": time.Now().Add(time.Hour).Unix()}, jwt.SigningMethodHS256)

	w := get(r, "/private", valid)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, get(r, "/private", "").Code)

	expired := sign(t, jwt.MapClaims{"user_id": "u1", "exp": time.Now().Add(-time.Hour).Unix()}, jwt.SigningMethodHS256)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/private", expired).Code)

	numericID := sign(t, jwt.MapClaims{"user_id": 42, "exp": time.Now().Add(time.Hour).Unix()}, jwt.SigningMethodHS256)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/private", numericID).Code)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Token abc")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOptionalAuth(t *testing.T) {
	r := authRouter()
	valid := sign(t, jwt.MapClaims{"user_id": "u1", "exp": time.Now().Add(time.Hour).Unix()}, jwt.SigningMethodHS256)

	assert.Equal(t, "u1", get(r, "/optional", valid).Body.String())
	assert.Equal(t, "anonymous", get(r, "/optional", "").Body.String())
	assert.Equal(t, "anonymous", get(r, "/optional", "garbage").Body.String())
}

func TestRequireRole(t *testing.T) {
	r := authRouter()
	exp := time.Now().Add(time.Hour).Unix()

	admin := sign(t, jwt.MapClaims{"user_id": "a", "role": "admin", "exp": exp}, jwt.SigningMethodHS256)
	user := sign(t, jwt.MapClaims{"user_id": "u", "role": "user", "exp": exp}, jwt.SigningMethodHS256)

	assert.Equal(t, http.StatusOK, get(r, "/admin", admin).Code)
	assert.Equal(t, http.StatusForbidden, get(r, "/admin", user).Code)
}
