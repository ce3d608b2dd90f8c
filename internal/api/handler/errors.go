package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timmy/gamedata/internal/logger"
	"github.com/timmy/gamedata/internal/service"
	"github.com/timmy/gamedata/internal/source"
)

// respondError maps service errors to HTTP statuses.
func respondError(c *gin.Context, err error) {
	var fetchErr *source.FetchError
	var validationErr *service.ValidationError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": validationErr.Err})
	case errors.As(err, &fetchErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": fetchErr.Error()})
	case errors.Is(err, service.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
	case errors.Is(err, service.ErrShuttingDown):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		logger.CtxError(c.Request.Context(), "Request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
