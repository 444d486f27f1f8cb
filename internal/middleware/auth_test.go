package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"fidolity-token-api/internal/models"
	"fidolity-token-api/internal/services"
	"fidolity-token-api/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAuth struct {
	keys map[string]*models.APIKey
	err  error
}

func (f *fakeAuth) ValidateAPIKey(_ context.Context, key string) (*models.APIKey, error) {
	if f.err != nil {
		return nil, f.err
	}
	k, ok := f.keys[key]
	if !ok {
		return nil, services.ErrInvalidAPIKey
	}
	if !k.Active {
		return nil, services.ErrInactiveAPIKey
	}
	return k, nil
}

func newEngine(auth services.AuthServiceInterface, scope string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger.SetLogger(zap.NewNop())

	engine := gin.New()
	handlers := []gin.HandlerFunc{AuthMiddleware(auth)}
	if scope != "" {
		handlers = append(handlers, RequireScope(scope))
	}
	handlers = append(handlers, func(c *gin.Context) {
		key := c.MustGet(ContextKeyAPIKey).(*models.APIKey)
		c.JSON(http.StatusOK, gin.H{"name": key.Name})
	})
	engine.GET("/protected", handlers...)
	return engine
}

func TestAuthMiddleware(t *testing.T) {
	auth := &fakeAuth{keys: map[string]*models.APIKey{
		"good":    {Key: "good", Name: "good key", Active: true},
		"revoked": {Key: "revoked", Name: "revoked key", Active: false},
	}}
	engine := newEngine(auth, "")

	tests := []struct {
		name     string
		header   string
		expected int
		code     string
	}{
		{"Missing", "", http.StatusUnauthorized, string(models.ErrorCodeMissingAPIKey)},
		{"EmptyBearer", "Bearer   ", http.StatusUnauthorized, string(models.ErrorCodeInvalidAPIKey)},
		{"Unknown", "Bearer nope", http.StatusUnauthorized, string(models.ErrorCodeInvalidAPIKey)},
		{"Inactive", "Bearer revoked", http.StatusUnauthorized, string(models.ErrorCodeInactiveAPIKey)},
		{"Bearer", "Bearer good", http.StatusOK, ""},
		{"BareKey", "good", http.StatusOK, ""},
		{"LowercaseBearer", "bearer good", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)

			require.Equal(t, tt.expected, w.Code, w.Body.String())
			if tt.code != "" {
				assert.Contains(t, w.Body.String(), tt.code)
			} else {
				assert.Contains(t, w.Body.String(), "good key")
			}
		})
	}
}

func TestAuthMiddlewareDatabaseError(t *testing.T) {
	engine := newEngine(&fakeAuth{err: errors.Join(services.ErrDatabaseError, errors.New("timeout"))}, "")

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer any")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), string(models.ErrorCodeDatabaseError))
}

func TestRequireScope(t *testing.T) {
	auth := &fakeAuth{keys: map[string]*models.APIKey{
		"admin":  {Key: "admin", Name: "admin", Active: true, Scopes: []string{models.ScopeTokenAdmin}},
		"reader": {Key: "reader", Name: "reader", Active: true},
	}}
	engine := newEngine(auth, models.ScopeTokenAdmin)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer reader")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), models.ScopeTokenAdmin)

	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer admin")
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireScopeWithoutAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger.SetLogger(zap.NewNop())

	engine := gin.New()
	engine.GET("/scoped", RequireScope(models.ScopeTokenAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/scoped", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestParseAPIKey(t *testing.T) {
	assert.Equal(t, "abc", parseAPIKey("Bearer abc"))
	assert.Equal(t, "abc", parseAPIKey("Bearerabc"))
	assert.Equal(t, "abc", parseAPIKey("  abc  "))
	assert.Equal(t, "", parseAPIKey("Bearer"))
}
