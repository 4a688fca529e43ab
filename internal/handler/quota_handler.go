package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ad-tracker/youtube-seo-workflow-go/internal/db/models"
)

// QuotaReader reports YouTube API quota usage. *quota.Manager implements it.
type QuotaReader interface {
	GetQuotaInfo(ctx context.Context) (*models.QuotaInfo, error)
	GetQuotaHistory(ctx context.Context, days int) ([]*models.APIQuotaUsage, error)
	GetRemainingQuota(ctx context.Context) (int, error)
}

// QuotaHandler serves quota usage.
type QuotaHandler struct {
	quota QuotaReader
}

// NewQuotaHandler creates a new QuotaHandler.
func NewQuotaHandler(q QuotaReader) *QuotaHandler {
	return &QuotaHandler{quota: q}
}

// Register mounts the quota routes on rg.
func (h *QuotaHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/quota", h.Today)
	rg.GET("/quota/history", h.History)
}

// Today handles GET /quota.
func (h *QuotaHandler) Today(c *gin.Context) {
	ctx := c.Request.Context()

	info, err := h.quota.GetQuotaInfo(ctx)
	if err != nil {
		handleError(c, err)
		return
	}
	remaining, err := h.quota.GetRemainingQuota(ctx)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"quota_used":           info.QuotaUsed,
		"quota_limit":          info.QuotaLimit,
		"quota_remaining":      info.QuotaRemaining,
		"operations_count":     info.OperationsCount,
		"available_before_cap": remaining,
	})
}

// History handles GET /quota/history?days=.
func (h *QuotaHandler) History(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "7"))
	if err != nil || days <= 0 || days > 90 {
		respondError(c, http.StatusBadRequest, "days must be between 1 and 90")
		return
	}

	history, err := h.quota.GetQuotaHistory(c.Request.Context(), days)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": history, "count": len(history)})
}
