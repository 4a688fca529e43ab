package queue

import (
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/ad-tracker/youtube-seo-workflow-go/pkg/logger"
)

// Scheduler enqueues a channel sync on a fixed interval.
type Scheduler struct {
	scheduler *asynq.Scheduler
	entryID   string
	log       *zap.Logger
}

// SyncSchedule is the asynq schedule expression for a recurring sync.
func SyncSchedule(interval time.Duration) string {
	return "@every " + interval.String()
}

// NewScheduler registers a recurring sync of handle. interval must be at
// least one minute.
func NewScheduler(redisURL, handle string, limit int, interval time.Duration) (*Scheduler, error) {
	if interval < time.Minute {
		return nil, fmt.Errorf("sync interval %s is shorter than one minute", interval)
	}

	redisOpt, err := ParseRedisURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	payload, err := NewSyncChannelTask(handle, limit)
	if err != nil {
		return nil, err
	}
	payloadBytes, err := payload.Marshal()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	log := logger.L().Named("scheduler")
	s := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{Logger: log.Sugar()})

	entryID, err := s.Register(SyncSchedule(interval), asynq.NewTask(TypeSyncChannel, payloadBytes),
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(1),
		asynq.Unique(interval/2),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register sync schedule: %w", err)
	}

	return &Scheduler{scheduler: s, entryID: entryID, log: log}, nil
}

// Start runs the scheduler in the background.
func (s *Scheduler) Start() error {
	s.log.Info("Starting sync scheduler", zap.String("entry_id", s.entryID))
	return s.scheduler.Start()
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.scheduler.Shutdown()
}
