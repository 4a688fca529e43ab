package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ad-tracker/youtube-seo-workflow-go/internal/db/models"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/validation"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/workflow"
	"github.com/ad-tracker/youtube-seo-workflow-go/pkg/logger"
)

// VideoWorkflow is the part of the engine the video routes use.
type VideoWorkflow interface {
	Video(ctx context.Context, videoID string) (*models.Video, error)
	ListVideos(ctx context.Context, status *models.Status, limit int) ([]*models.Video, error)
	History(ctx context.Context, videoID, lang string) ([]*models.Suggestion, error)
	LatestSuggestion(ctx context.Context, videoID, lang string) (*models.Suggestion, error)
	AppliedChanges(ctx context.Context, videoID string, limit int) ([]*models.AppliedChange, error)
	Approve(ctx context.Context, videoID string) error
	Reject(ctx context.Context, videoID string) (int64, error)
	Regenerate(ctx context.Context, videoID, lang string) (*models.Suggestion, error)
	LinkEpisode(ctx context.Context, videoID, episodeID string) error
	Stats(ctx context.Context) (*workflow.Stats, error)
}

// VideoHandler serves the registry and the operator actions.
type VideoHandler struct {
	wf  VideoWorkflow
	log *zap.Logger
}

// NewVideoHandler creates a new VideoHandler.
func NewVideoHandler(wf VideoWorkflow) *VideoHandler {
	return &VideoHandler{wf: wf, log: logger.L().Named("http")}
}

// VideoDetail is a registry row with its newest suggestion.
type VideoDetail struct {
	*models.Video
	LatestSuggestion *models.Suggestion `json:"latest_suggestion"`
}

// LinkEpisodeRequest links or, with an empty episode_id, unlinks an episode.
type LinkEpisodeRequest struct {
	EpisodeID string `json:"episode_id"`
}

// Register mounts the video routes on rg.
func (h *VideoHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/stats", h.Stats)

	videos := rg.Group("/videos")
	videos.GET("", h.List)
	videos.GET("/:id", h.Get)
	videos.GET("/:id/suggestions", h.Suggestions)
	videos.GET("/:id/applied", h.Applied)
	videos.POST("/:id/approve", h.Approve)
	videos.POST("/:id/reject", h.Reject)
	videos.POST("/:id/regenerate", h.Regenerate)
	videos.PUT("/:id/episode", h.LinkEpisode)
}

// videoID reads and validates the :id path parameter. It writes the error
// response itself and returns false when the id is malformed.
func videoID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if !validation.IsValidVideoID(id) {
		respondError(c, http.StatusBadRequest, "invalid video id: "+id)
		return "", false
	}
	return id, true
}

func languageQuery(c *gin.Context) (string, bool) {
	lang := c.Query("lang")
	if lang != "" && !validation.IsValidLanguageCode(lang) {
		respondError(c, http.StatusBadRequest, "invalid language code: "+lang)
		return "", false
	}
	return lang, true
}

// List handles GET /videos?status=&limit=.
func (h *VideoHandler) List(c *gin.Context) {
	var status *models.Status
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		s, err := models.ParseStatus(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		status = &s
	}

	videos, err := h.wf.ListVideos(c.Request.Context(), status, parseLimit(c, defaultLimit))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"videos": videos, "count": len(videos)})
}

// Get handles GET /videos/:id.
func (h *VideoHandler) Get(c *gin.Context) {
	id, ok := videoID(c)
	if !ok {
		return
	}

	v, err := h.wf.Video(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	latest, err := h.wf.LatestSuggestion(c.Request.Context(), id, "")
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, VideoDetail{Video: v, LatestSuggestion: latest})
}

// Suggestions handles GET /videos/:id/suggestions?lang=.
func (h *VideoHandler) Suggestions(c *gin.Context) {
	id, ok := videoID(c)
	if !ok {
		return
	}
	lang, ok := languageQuery(c)
	if !ok {
		return
	}

	history, err := h.wf.History(c.Request.Context(), id, lang)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": history, "count": len(history)})
}

// Applied handles GET /videos/:id/applied.
func (h *VideoHandler) Applied(c *gin.Context) {
	id, ok := videoID(c)
	if !ok {
		return
	}

	changes, err := h.wf.AppliedChanges(c.Request.Context(), id, parseLimit(c, defaultLimit))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"changes": changes, "count": len(changes)})
}

// Approve handles POST /videos/:id/approve.
func (h *VideoHandler) Approve(c *gin.Context) {
	id, ok := videoID(c)
	if !ok {
		return
	}

	if err := h.wf.Approve(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}
	h.log.Info("Video approved", zap.String("videoId", id))
	c.JSON(http.StatusOK, gin.H{"video_id": id, "status": models.StatusApproved})
}

// Reject handles POST /videos/:id/reject.
func (h *VideoHandler) Reject(c *gin.Context) {
	id, ok := videoID(c)
	if !ok {
		return
	}

	deleted, err := h.wf.Reject(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	h.log.Info("Video rejected", zap.String("videoId", id), zap.Int64("deletedSuggestions", deleted))
	c.JSON(http.StatusOK, gin.H{
		"video_id":            id,
		"status":              models.StatusPending,
		"suggestions_deleted": deleted,
	})
}

// Regenerate handles POST /videos/:id/regenerate?lang=.
func (h *VideoHandler) Regenerate(c *gin.Context) {
	id, ok := videoID(c)
	if !ok {
		return
	}
	lang, ok := languageQuery(c)
	if !ok {
		return
	}

	s, err := h.wf.Regenerate(c.Request.Context(), id, lang)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// LinkEpisode handles PUT /videos/:id/episode.
func (h *VideoHandler) LinkEpisode(c *gin.Context) {
	id, ok := videoID(c)
	if !ok {
		return
	}

	var req LinkEpisodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	episodeID := strings.TrimSpace(req.EpisodeID)
	if err := h.wf.LinkEpisode(c.Request.Context(), id, episodeID); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"video_id": id, "episode_id": episodeID})
}

// Stats handles GET /stats.
func (h *VideoHandler) Stats(c *gin.Context) {
	st, err := h.wf.Stats(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}
