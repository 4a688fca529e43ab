package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	ozzo "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap"

	"github.com/ad-tracker/youtube-seo-workflow-go/internal/db"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/service/quota"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/workflow"
	"github.com/ad-tracker/youtube-seo-workflow-go/pkg/logger"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// ErrorResponse represents an error response.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type ErrorResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Path      string    `json:"path"`
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{
		Status:    status,
		Error:     http.StatusText(status),
		Message:   message,
		Timestamp: time.Now(),
		Path:      c.Request.URL.Path,
	})
}

// handleError maps service errors to HTTP statuses.
func handleError(c *gin.Context, err error) {
	var verrs ozzo.Errors

	switch {
	case db.IsNotFound(err):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.As(err, &verrs):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, workflow.ErrInvalidTransition), db.IsStatusConflict(err):
		respondError(c, http.StatusConflict, err.Error())
	case errors.Is(err, workflow.ErrVideoLocked):
		respondError(c, http.StatusConflict, err.Error())
	case errors.Is(err, quota.ErrExhausted):
		respondError(c, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, workflow.ErrNotConfigured):
		respondError(c, http.StatusServiceUnavailable, err.Error())
	default:
		logger.L().Error("Unexpected error",
			zap.Error(err),
			zap.String("path", c.Request.URL.Path),
		)
		respondError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}

// parseLimit reads ?limit=, falling back to def and capping at maxLimit.
func parseLimit(c *gin.Context, def int) int {
	if def <= 0 {
		def = defaultLimit
	}
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 {
		return def
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}
