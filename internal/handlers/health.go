package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"fidolity-token-api/internal/services"

	"github.com/gin-gonic/gin"
)

// Version is reported by the info and health endpoints
const Version = "1.0.0"

// HealthHandler handles health check endpoints
type HealthHandler struct {
	database services.HealthChecker
	checkers map[string]services.HealthChecker
}

// NewHealthHandler creates a health handler. database gates readiness; extra checkers only
// contribute to the aggregate status.
func NewHealthHandler(database services.HealthChecker, extra map[string]services.HealthChecker) *HealthHandler {
	checkers := map[string]services.HealthChecker{"database": database}
	for name, checker := range extra {
		checkers[name] = checker
	}
	return &HealthHandler{database: database, checkers: checkers}
}

// HealthResponse represents the overall health response
type HealthResponse struct {
	Status    services.HealthStatus            `json:"status"`
	Timestamp time.Time                        `json:"timestamp"`
	Services  map[string]*services.HealthCheck `json:"services"`
	Version   string                           `json:"version,omitempty"`
}

// Check runs every checker and folds their statuses: any unhealthy makes the whole unhealthy,
// otherwise any degraded makes it degraded.
func (h *HealthHandler) Check(ctx context.Context) *HealthResponse {
	names := make([]string, 0, len(h.checkers))
	for name := range h.checkers {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make(map[string]*services.HealthCheck, len(names))
	overall := services.HealthStatusHealthy
	for _, name := range names {
		check := h.checkers[name].CheckHealth(ctx)
		results[name] = check

		switch {
		case check.Status == services.HealthStatusUnhealthy:
			overall = services.HealthStatusUnhealthy
		case check.Status == services.HealthStatusDegraded && overall == services.HealthStatusHealthy:
			overall = services.HealthStatusDegraded
		}
	}

	return &HealthResponse{
		Status:    overall,
		Timestamp: time.Now(),
		Services:  results,
		Version:   Version,
	}
}

// GetHealth handles GET /health
func (h *HealthHandler) GetHealth(c *gin.Context) {
	response := h.Check(c.Request.Context())

	statusCode := http.StatusOK
	if response.Status == services.HealthStatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}
	c.JSON(statusCode, response)
}

// GetLiveness returns a simple liveness check
func (h *HealthHandler) GetLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now(),
	})
}

// GetReadiness reports ready once the database answers
func (h *HealthHandler) GetReadiness(c *gin.Context) {
	if h.database.CheckHealth(c.Request.Context()).Status == services.HealthStatusUnhealthy {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "not_ready",
			"message":   "database not available",
			"timestamp": time.Now(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"timestamp": time.Now(),
	})
}

// GetDatabaseHealth returns detailed database health information
func (h *HealthHandler) GetDatabaseHealth(c *gin.Context) {
	check := h.database.CheckHealth(c.Request.Context())

	statusCode := http.StatusOK
	if check.Status == services.HealthStatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}
	c.JSON(statusCode, check)
}

// GetAPIHealth handles GET /api/health. It always answers 200 and reports the database state in the body.
func (h *HealthHandler) GetAPIHealth(c *gin.Context) {
	check := h.database.CheckHealth(c.Request.Context())
	if check.Status == services.HealthStatusUnhealthy {
		c.JSON(http.StatusOK, gin.H{
			"status":   "unhealthy",
			"database": "disconnected",
			"error":    check.Message,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "database": "connected"})
}

// GetInfo handles GET /api/
func (h *HealthHandler) GetInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Fidolity API", "version": Version})
}
