package middleware_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SscSPs/school_finance_core/internal/middleware"
)

const secret = "middleware-test-secret"

func signedToken(t *testing.T, key string, claims jwt.RegisteredClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return token
}

func validClaims(subject string) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
}

func newRouter(extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append([]gin.HandlerFunc{middleware.AuthMiddleware(secret)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		actor, ok := middleware.GetActorIDFromContext(c)
		if !ok {
			c.Status(http.StatusTeapot)
			return
		}
		c.String(http.StatusOK, actor)
	})
	r.GET("/whoami", handlers...)
	return r
}

func serve(r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	expired := validClaims("bursar-1")
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"valid token", "Bearer " + signedToken(t, secret, validClaims("bursar-1")), http.StatusOK, "bursar-1"},
		{"missing header", "", http.StatusUnauthorized, "Authorization header required"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "Bearer {token}"},
		{"wrong key", "Bearer " + signedToken(t, "other-secret", validClaims("bursar-1")), http.StatusUnauthorized, "Invalid token"},
		{"expired", "Bearer " + signedToken(t, secret, expired), http.StatusUnauthorized, "Token has expired"},
		{"no subject", "Bearer " + signedToken(t, secret, validClaims("")), http.StatusUnauthorized, "Invalid token claims"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(newRouter(), tt.header)
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
		})
	}
}

func TestRateLimit_PerActor(t *testing.T) {
	limiter, err := middleware.NewRateLimiter("2-M")
	require.NoError(t, err)
	r := newRouter(middleware.RateLimit(limiter))
	first := "Bearer " + signedToken(t, secret, validClaims("bursar-1"))
	second := "Bearer " + signedToken(t, secret, validClaims("bursar-2"))

	assert.Equal(t, http.StatusOK, serve(r, first).Code)
	w := serve(r, first)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, http.StatusTooManyRequests, serve(r, first).Code)

	assert.Equal(t, http.StatusOK, serve(r, second).Code, "limits are kept per actor")
}

func TestNewRateLimiter_InvalidFormat(t *testing.T) {
	_, err := middleware.NewRateLimiter("lots")
	assert.Error(t, err)
}

func TestStructuredLoggingMiddleware_RequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(logger))
	r.GET("/ping", func(c *gin.Context) {
		middleware.GetLoggerFromCtx(c.Request.Context()).Info("inside handler")
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, buf.String(), `"request_id":"req-123"`)
	assert.Contains(t, buf.String(), "inside handler")
}
