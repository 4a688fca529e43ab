package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/ad-tracker/youtube-seo-workflow-go/pkg/logger"
)

const (
	// QueueDefault carries sync and generation work.
	QueueDefault = "default"

	taskRetention = 24 * time.Hour
)

// Client enqueues workflow tasks.
type Client struct {
	asynqClient *asynq.Client
	log         *zap.Logger
}

// NewClient creates a new queue client
func NewClient(redisURL string) (*Client, error) {
	redisOpt, err := ParseRedisURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	return &Client{
		asynqClient: asynq.NewClient(redisOpt),
		log:         logger.L().Named("queue"),
	}, nil
}

// Close closes the client connection
func (c *Client) Close() error {
	return c.asynqClient.Close()
}

// EnqueueGenerateVideo enqueues suggestion generation for one video in any
// status. A task for the same video is deduplicated while one is still queued.
func (c *Client) EnqueueGenerateVideo(ctx context.Context, videoID, language string) (string, error) {
	return c.enqueueGenerate(ctx, videoID, language, false)
}

// EnqueuePendingVideo enqueues generation for a video picked by a batch. The
// worker skips it if the video has left pending by the time it runs.
func (c *Client) EnqueuePendingVideo(ctx context.Context, videoID, language string) (string, error) {
	return c.enqueueGenerate(ctx, videoID, language, true)
}

func (c *Client) enqueueGenerate(ctx context.Context, videoID, language string, pendingOnly bool) (string, error) {
	payload, err := NewGenerateVideoTask(videoID, language, pendingOnly)
	if err != nil {
		return "", fmt.Errorf("failed to create task payload: %w", err)
	}

	payloadBytes, err := payload.Marshal()
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	info, err := c.asynqClient.EnqueueContext(ctx, asynq.NewTask(TypeGenerateVideo, payloadBytes),
		asynq.MaxRetry(3),
		asynq.Timeout(5*time.Minute),
		asynq.Queue(QueueDefault),
		asynq.Unique(30*time.Minute),
		asynq.Retention(taskRetention),
	)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue task: %w", err)
	}

	c.log.Info("Enqueued suggestion generation",
		zap.String("video_id", videoID),
		zap.Bool("pending_only", pendingOnly),
		zap.String("task_id", info.ID))
	return info.ID, nil
}

// EnqueueSyncChannel enqueues a channel sync.
func (c *Client) EnqueueSyncChannel(ctx context.Context, handle string, limit int) (string, error) {
	payload, err := NewSyncChannelTask(handle, limit)
	if err != nil {
		return "", fmt.Errorf("failed to create task payload: %w", err)
	}

	payloadBytes, err := payload.Marshal()
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	info, err := c.asynqClient.EnqueueContext(ctx, asynq.NewTask(TypeSyncChannel, payloadBytes),
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
		asynq.Queue(QueueDefault),
		asynq.Unique(10*time.Minute),
		asynq.Retention(taskRetention),
	)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue task: %w", err)
	}

	c.log.Info("Enqueued channel sync",
		zap.String("handle", handle),
		zap.String("task_id", info.ID))
	return info.ID, nil
}
