package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/timmy/gamedata/internal/logger"
)

// Pinger checks that a dependency is reachable.
type Pinger func(ctx context.Context) error

// HealthHandler handles health check endpoints
type HealthHandler struct {
	pingDB  Pinger
	timeout time.Duration
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(pingDB Pinger) *HealthHandler {
	return &HealthHandler{pingDB: pingDB, timeout: 2 * time.Second}
}

// Root handles GET /.
func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Welcome to Game Data API"})
}

// Health reports API and database status. It always answers 200 so load
// balancers can tell a degraded service from a dead one.
func (h *HealthHandler) Health(c *gin.Context) {
	resp := gin.H{
		"status":   "healthy",
		"api":      "ok",
		"database": "ok",
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()
	if err := h.pingDB(ctx); err != nil {
		logger.CtxWarn(ctx, "Database health check failed: %v", err)
		resp["status"] = "degraded"
		resp["database"] = "error"
		resp["database_error"] = err.Error()
	}

	c.JSON(http.StatusOK, resp)
}
