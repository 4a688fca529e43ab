package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/ad-tracker/youtube-seo-workflow-go/internal/service/quota"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/workflow"
	"github.com/ad-tracker/youtube-seo-workflow-go/pkg/logger"
)

// Workflow is the part of the engine the worker drives.
type Workflow interface {
	GenerateSuggestionsForVideo(ctx context.Context, videoID, lang string) (int, error)
	GeneratePendingVideo(ctx context.Context, videoID, lang string) (int, error)
	SyncChannel(ctx context.Context, handle string, limit int) (*workflow.BatchResult, error)
}

// TaskHandler runs queued workflow tasks.
type TaskHandler struct {
	workflow Workflow
	log      *zap.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(wf Workflow) *TaskHandler {
	return &TaskHandler{
		workflow: wf,
		log:      logger.L().Named("worker"),
	}
}

// HandleGenerateVideo returns an asynq.HandlerFunc for suggestion generation
func (h *TaskHandler) HandleGenerateVideo() asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		payload, err := UnmarshalGenerateVideoPayload(task.Payload())
		if err != nil {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}

		log := h.log.With(zap.String("video_id", payload.VideoID), zap.String("task_id", taskID(task)))
		log.Info("Processing suggestion generation", zap.Bool("pending_only", payload.PendingOnly))

		generate := h.workflow.GenerateSuggestionsForVideo
		if payload.PendingOnly {
			generate = h.workflow.GeneratePendingVideo
		}
		n, err := generate(ctx, payload.VideoID, payload.Language)
		if err != nil {
			return retryable(err)
		}

		log.Info("Suggestion generation finished", zap.Int("generated", n))
		return nil
	}
}

// HandleSyncChannel returns an asynq.HandlerFunc for channel syncs
func (h *TaskHandler) HandleSyncChannel() asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		payload, err := UnmarshalSyncChannelPayload(task.Payload())
		if err != nil {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}

		log := h.log.With(zap.String("handle", payload.Handle), zap.String("task_id", taskID(task)))
		log.Info("Processing channel sync", zap.Int("limit", payload.Limit))

		result, err := h.workflow.SyncChannel(ctx, payload.Handle, payload.Limit)
		if err != nil {
			return retryable(err)
		}

		tally := result.Tally()
		log.Info("Channel sync finished",
			zap.Int("synced", tally[workflow.OutcomeSuccess]),
			zap.Int("failed", tally[workflow.OutcomeFailed]))
		return nil
	}
}

// retryable marks errors that retrying cannot fix.
func retryable(err error) error {
	switch {
	case errors.Is(err, quota.ErrExhausted),
		errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, workflow.ErrNotConfigured):
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	default:
		return err
	}
}

func taskID(task *asynq.Task) string {
	if rw := task.ResultWriter(); rw != nil {
		return rw.TaskID()
	}
	return ""
}

// Server wraps asynq server for processing tasks
type Server struct {
	asynqServer *asynq.Server
	mux         *asynq.ServeMux
	log         *zap.Logger
}

// NewServer creates a new task processing server
func NewServer(redisURL string, concurrency int, handler *TaskHandler) (*Server, error) {
	redisOpt, err := ParseRedisURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	log := logger.L().Named("worker")

	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				QueueDefault: 10,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Error("Task failed", zap.String("type", task.Type()), zap.Error(err))
			}),
			Logger: log.Sugar(),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeGenerateVideo, handler.HandleGenerateVideo())
	mux.HandleFunc(TypeSyncChannel, handler.HandleSyncChannel())

	return &Server{
		asynqServer: srv,
		mux:         mux,
		log:         log,
	}, nil
}

// Start starts the server
func (s *Server) Start() error {
	s.log.Info("Starting task processing server")
	return s.asynqServer.Start(s.mux)
}

// Stop gracefully stops the server
func (s *Server) Stop() {
	s.log.Info("Shutting down task processing server")
	s.asynqServer.Shutdown()
}
