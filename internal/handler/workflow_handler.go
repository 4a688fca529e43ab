package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	ozzo "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap"

	"github.com/ad-tracker/youtube-seo-workflow-go/internal/db/models"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/validation"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/workflow"
	"github.com/ad-tracker/youtube-seo-workflow-go/pkg/logger"
)

// BatchWorkflow is the part of the engine the batch routes use.
type BatchWorkflow interface {
	SyncChannel(ctx context.Context, handle string, limit int) (*workflow.BatchResult, error)
	GenerateSuggestions(ctx context.Context, limit int, lang string, priority models.Priority) (*workflow.BatchResult, error)
	GenerateSuggestionsForVideo(ctx context.Context, videoID, lang string) (int, error)
	ApplySuggestions(ctx context.Context, limit int, dryRun bool) (*workflow.BatchResult, error)
	PendingByPriority(ctx context.Context, priority models.Priority, limit int) ([]*models.Video, error)
}

// Enqueuer hands work to the background worker. *queue.Client implements it.
type Enqueuer interface {
	EnqueueGenerateVideo(ctx context.Context, videoID, language string) (string, error)
	EnqueuePendingVideo(ctx context.Context, videoID, language string) (string, error)
	EnqueueSyncChannel(ctx context.Context, handle string, limit int) (string, error)
}

// BatchDefaults fill in request fields the caller leaves out.
type BatchDefaults struct {
	ChannelHandle string
	Language      string
	Priority      models.Priority
	SyncLimit     int
	GenerateLimit int
	ApplyLimit    int
	// DryRun is the apply mode used when a request does not say.
	DryRun bool
}

// WorkflowHandler runs sync, generate and apply batches. With an Enqueuer,
// sync and generate are handed to the worker and answered with 202.
type WorkflowHandler struct {
	wf       BatchWorkflow
	queue    Enqueuer
	defaults BatchDefaults
	log      *zap.Logger
}

// NewWorkflowHandler creates a new WorkflowHandler. queue may be nil.
func NewWorkflowHandler(wf BatchWorkflow, queue Enqueuer, defaults BatchDefaults) *WorkflowHandler {
	return &WorkflowHandler{
		wf:       wf,
		queue:    queue,
		defaults: defaults,
		log:      logger.L().Named("http"),
	}
}

// SyncRequest is the body of POST /workflow/sync.
type SyncRequest struct {
	Handle string `json:"handle"`
	Limit  int    `json:"limit"`
}

// GenerateRequest is the body of POST /workflow/generate. With VideoID set
// only that video is generated.
type GenerateRequest struct {
	VideoID  string `json:"video_id"`
	Language string `json:"language"`
	Priority string `json:"priority"`
	Limit    int    `json:"limit"`
}

func (r GenerateRequest) Validate() error {
	return ozzo.ValidateStruct(&r,
		ozzo.Field(&r.VideoID, validation.VideoIDRule),
		ozzo.Field(&r.Language, validation.LanguageCodeRule),
		ozzo.Field(&r.Priority, ozzo.In("recent", "oldest", "linked")),
		ozzo.Field(&r.Limit, ozzo.Min(0), ozzo.Max(maxLimit)),
	)
}

// ApplyRequest is the body of POST /workflow/apply. DryRun nil means the
// configured default.
type ApplyRequest struct {
	DryRun *bool `json:"dry_run"`
	Limit  int   `json:"limit"`
}

// QueuedResponse acknowledges work handed to the worker.
type QueuedResponse struct {
	Queued  int      `json:"queued"`
	TaskIDs []string `json:"task_ids"`
}

// Register mounts the batch routes on rg.
func (h *WorkflowHandler) Register(rg *gin.RouterGroup) {
	wf := rg.Group("/workflow")
	wf.POST("/sync", h.Sync)
	wf.POST("/generate", h.Generate)
	wf.POST("/apply", h.Apply)
}

// bindOptional binds a JSON body when one was sent. An empty body keeps the
// zero value.
func bindOptional(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return false
	}
	return true
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

// Sync handles POST /workflow/sync.
func (h *WorkflowHandler) Sync(c *gin.Context) {
	var req SyncRequest
	if !bindOptional(c, &req) {
		return
	}

	handle := req.Handle
	if handle == "" {
		handle = h.defaults.ChannelHandle
	}
	if !validation.IsValidChannelHandle(handle) && !validation.IsValidChannelID(handle) {
		respondError(c, http.StatusBadRequest, "invalid channel handle: "+handle)
		return
	}
	limit := orDefault(req.Limit, h.defaults.SyncLimit)

	if h.queue != nil {
		taskID, err := h.queue.EnqueueSyncChannel(c.Request.Context(), handle, limit)
		if err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, QueuedResponse{Queued: 1, TaskIDs: []string{taskID}})
		return
	}

	result, err := h.wf.SyncChannel(c.Request.Context(), handle, limit)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Generate handles POST /workflow/generate.
func (h *WorkflowHandler) Generate(c *gin.Context) {
	var req GenerateRequest
	if !bindOptional(c, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := c.Request.Context()
	lang := req.Language
	if lang == "" {
		lang = h.defaults.Language
	}

	if req.VideoID != "" {
		h.generateOne(c, req.VideoID, lang)
		return
	}

	limit := orDefault(req.Limit, h.defaults.GenerateLimit)
	priority := h.defaults.Priority
	if req.Priority != "" {
		priority = models.ParsePriority(req.Priority)
	}

	if h.queue != nil {
		videos, err := h.wf.PendingByPriority(ctx, priority, limit)
		if err != nil {
			handleError(c, err)
			return
		}
		resp := QueuedResponse{TaskIDs: []string{}}
		for _, v := range videos {
			taskID, err := h.queue.EnqueuePendingVideo(ctx, v.VideoID, lang)
			if err != nil {
				h.log.Warn("Failed to enqueue video", zap.String("videoId", v.VideoID), zap.Error(err))
				continue
			}
			resp.TaskIDs = append(resp.TaskIDs, taskID)
		}
		resp.Queued = len(resp.TaskIDs)
		c.JSON(http.StatusAccepted, resp)
		return
	}

	result, err := h.wf.GenerateSuggestions(ctx, limit, lang, priority)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *WorkflowHandler) generateOne(c *gin.Context, videoID, lang string) {
	ctx := c.Request.Context()

	if h.queue != nil {
		taskID, err := h.queue.EnqueueGenerateVideo(ctx, videoID, lang)
		if err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, QueuedResponse{Queued: 1, TaskIDs: []string{taskID}})
		return
	}

	n, err := h.wf.GenerateSuggestionsForVideo(ctx, videoID, lang)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"video_id": videoID, "generated": n})
}

// Apply handles POST /workflow/apply. It always runs inline so the caller
// sees each outcome.
func (h *WorkflowHandler) Apply(c *gin.Context) {
	var req ApplyRequest
	if !bindOptional(c, &req) {
		return
	}

	dryRun := h.defaults.DryRun
	if req.DryRun != nil {
		dryRun = *req.DryRun
	}

	result, err := h.wf.ApplySuggestions(c.Request.Context(), orDefault(req.Limit, h.defaults.ApplyLimit), dryRun)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
