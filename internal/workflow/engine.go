// Package workflow moves videos through pending -> suggested -> approved ->
// applied. It owns the batch operations (sync, generate, apply) and the
// operator actions (approve, reject, regenerate, link).
package workflow

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ad-tracker/youtube-seo-workflow-go/internal/db/models"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/db/repository"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/enrichment"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/seo"
	"github.com/ad-tracker/youtube-seo-workflow-go/pkg/logger"
)

// VideoSource reads videos from YouTube.
type VideoSource interface {
	ListVideos(ctx context.Context, handle string, limit int) ([]*models.Video, error)
	// FetchVideo returns nil, nil when the video does not exist.
	FetchVideo(ctx context.Context, videoID string) (*models.Video, error)
}

// ChannelResolver is implemented by sources that can describe a channel.
// SyncChannel uses it to record the channel title.
type ChannelResolver interface {
	ResolveChannel(ctx context.Context, handle string) (*models.Channel, error)
}

// VideoSink writes approved metadata to YouTube.
type VideoSink interface {
	UpdateMetadata(ctx context.Context, videoID string, changes models.MetadataChanges, opts models.ApplyOptions) (*models.ApplyOutcome, error)
}

// SuggestionGenerator drafts metadata. It must not fail because a single
// field could not be generated.
type SuggestionGenerator interface {
	Generate(ctx context.Context, vc *seo.VideoContext) (*models.SuggestionFields, error)
}

// EpisodeLookup fetches episode context. Errors are logged and ignored.
type EpisodeLookup interface {
	GetEpisode(ctx context.Context, episodeID string) (*enrichment.Episode, error)
}

// EventPublisher announces status changes.
type EventPublisher interface {
	PublishStatusChange(ctx context.Context, event *models.StatusChangeEvent) error
}

// TxRunner runs fn in one transaction. db.TxManager implements it.
type TxRunner interface {
	ExecTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Deps are the collaborators of an Engine. Source, Sink, Locker, Episodes,
// Events and Metrics are optional; operations that need a missing Source or
// Sink return ErrNotConfigured.
type Deps struct {
	Videos      repository.VideoRepository
	Suggestions repository.SuggestionRepository
	Changes     repository.AppliedChangeRepository
	Channels    repository.ChannelRepository
	Tx          TxRunner
	Locker      repository.VideoLocker
	Source      VideoSource
	Sink        VideoSink
	Generator   SuggestionGenerator
	Episodes    EpisodeLookup
	Events      EventPublisher
	Metrics     *Metrics
}

// Options are engine-wide defaults.
type Options struct {
	Language string
	Priority models.Priority
}

// Engine runs workflow operations. It is safe for concurrent use; per-video
// work is serialized through the Locker.
type Engine struct {
	Deps
	opts Options
	log  *zap.Logger
	now  func() time.Time
}

func New(deps Deps, opts Options) *Engine {
	if opts.Language == "" {
		opts.Language = "en"
	}
	if opts.Priority == "" {
		opts.Priority = models.PriorityRecent
	}
	if deps.Tx == nil {
		deps.Tx = noTx{}
	}
	if deps.Locker == nil {
		deps.Locker = noLock{}
	}

	return &Engine{
		Deps: deps,
		opts: opts,
		log:  logger.L().Named("workflow"),
		now:  time.Now,
	}
}

func (e *Engine) language(lang string) string {
	if lang == "" {
		return e.opts.Language
	}
	return lang
}

func newRunID() string {
	return uuid.NewString()
}

func (e *Engine) emit(ctx context.Context, runID, videoID string, from, to models.Status, op string) {
	e.Metrics.transition(from, to)
	if e.Events == nil {
		return
	}

	event := &models.StatusChangeEvent{
		EventID:    uuid.NewString(),
		RunID:      runID,
		VideoID:    videoID,
		From:       from,
		To:         to,
		Operation:  op,
		OccurredAt: e.now().UTC(),
	}
	if err := e.Events.PublishStatusChange(ctx, event); err != nil {
		e.log.Warn("failed to publish status change",
			zap.String("videoId", videoID),
			zap.String("to", string(to)),
			zap.Error(err))
	}
}

type noTx struct{}

func (noTx) ExecTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type noLock struct{}

func (noLock) TryLock(context.Context, string) (func(), bool, error) {
	return func() {}, true, nil
}

// Allowed source states for each conditional status update, derived from the
// lifecycle table.
var (
	generateFrom = models.SourcesOf(models.StatusSuggested)
	approveFrom  = models.SourcesOf(models.StatusApproved)
	applyFrom    = models.SourcesOf(models.StatusApplied)
	// resetFrom is what reject and regenerate may return to pending. Applied
	// videos are excluded; their suggestions back the audit trail.
	resetFrom = append([]models.Status{models.StatusPending}, without(models.SourcesOf(models.StatusPending), models.StatusApplied)...)
	// reopenFrom is what a single-video refresh returns to pending first.
	reopenFrom = without(models.SourcesOf(models.StatusPending), generateFrom...)
)

func without(set []models.Status, drop ...models.Status) []models.Status {
	out := make([]models.Status, 0, len(set))
	for _, s := range set {
		if !statusIn(s, drop) {
			out = append(out, s)
		}
	}
	return out
}
