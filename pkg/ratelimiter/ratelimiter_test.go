package ratelimiter

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestCheckWindow(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := New(2, time.Minute)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Check("ip").Allowed)
	d := rl.Check("ip")
	assert.True(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.False(t, rl.Check("ip").Allowed)
	assert.True(t, rl.Check("other").Allowed)

	now = now.Add(2 * time.Minute)
	assert.True(t, rl.Check("ip").Allowed)

	now = now.Add(2 * time.Minute)
	rl.Cleanup()
	assert.Equal(t, 0, rl.Size())
}

func TestMiddlewareRejects(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := New(1, time.Minute)

	engine := gin.New()
	engine.Use(rl.Middleware())
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}
