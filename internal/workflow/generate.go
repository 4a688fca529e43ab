package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ad-tracker/youtube-seo-workflow-go/internal/db"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/db/models"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/enrichment"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/seo"
)

const (
	opGenerate   = "generate"
	opRegenerate = "regenerate"
)

// GenerateSuggestions drafts a suggestion for up to limit pending videos,
// picked in priority order. Each video is independent: a failure is recorded
// in the result and the batch moves on.
func (e *Engine) GenerateSuggestions(ctx context.Context, limit int, lang string, priority models.Priority) (*BatchResult, error) {
	lang = e.language(lang)
	if priority == "" {
		priority = e.opts.Priority
	}

	result := newBatch(opGenerate)
	log := e.log.With(zap.String("runId", result.RunID))

	videos, err := e.Videos.GetPendingByPriority(ctx, priority, limit)
	if err != nil {
		return nil, fmt.Errorf("generate: list pending: %w", err)
	}

	log.Info("generating suggestions",
		zap.Int("videos", len(videos)),
		zap.String("language", lang),
		zap.String("priority", string(priority)))

	for _, v := range videos {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		started := time.Now()
		_, o, _ := e.generateOne(ctx, result.RunID, v.VideoID, lang, opGenerate, models.StatusPending)
		result.add(o)
		e.Metrics.observe(opGenerate, o, started)
	}

	log.Info("generation finished", zap.Int("succeeded", result.Count()), zap.Int("total", len(videos)))
	return result, nil
}

// GenerateSuggestionsForVideo drafts a new suggestion for one video whatever
// its status. An approved or applied video is returned to pending first, so
// the fresh suggestion goes through review again. It returns 0 when the video
// is not in the registry.
func (e *Engine) GenerateSuggestionsForVideo(ctx context.Context, videoID, lang string) (int, error) {
	runID := newRunID()

	if err := e.reopen(ctx, runID, videoID); err != nil {
		if db.IsNotFound(err) {
			return 0, nil
		}
		return 0, err
	}

	started := time.Now()
	s, o, err := e.generateOne(ctx, runID, videoID, e.language(lang), opGenerate, generateFrom...)
	e.Metrics.observe(opGenerate, o, started)

	if db.IsNotFound(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if s == nil {
		return 0, nil
	}
	return 1, nil
}

// GeneratePendingVideo drafts a suggestion for one video only while it is
// still pending, the per-video step of a generation batch handed to the
// worker. A video that moved on since it was selected, or that is gone,
// returns 0 without error.
func (e *Engine) GeneratePendingVideo(ctx context.Context, videoID, lang string) (int, error) {
	started := time.Now()
	s, o, err := e.generateOne(ctx, newRunID(), videoID, e.language(lang), opGenerate, models.StatusPending)
	e.Metrics.observe(opGenerate, o, started)

	switch {
	case db.IsNotFound(err), errors.Is(err, ErrInvalidTransition):
		e.log.Info("video no longer pending, skipping",
			zap.String("videoId", videoID),
			zap.String("reason", o.Reason))
		return 0, nil
	case err != nil:
		return 0, err
	case s == nil:
		return 0, nil
	}
	return 1, nil
}

// PendingByPriority lists up to limit pending videos in the order a
// generation batch takes them.
func (e *Engine) PendingByPriority(ctx context.Context, priority models.Priority, limit int) ([]*models.Video, error) {
	if priority == "" {
		priority = e.opts.Priority
	}
	return e.Videos.GetPendingByPriority(ctx, priority, limit)
}

// reopen returns an approved or applied video to pending under the video
// lock. Videos in any other state are left alone.
func (e *Engine) reopen(ctx context.Context, runID, videoID string) error {
	unlock, ok, err := e.Locker.TryLock(ctx, videoID)
	if err != nil {
		return fmt.Errorf("reopen %s: %w", videoID, err)
	}
	if !ok {
		return ErrVideoLocked
	}
	defer unlock()

	v, err := e.Videos.GetVideoByID(ctx, videoID)
	if err != nil {
		return err
	}
	if !statusIn(v.Status, reopenFrom) {
		return nil
	}

	prev, err := e.Videos.TransitionStatus(ctx, videoID, reopenFrom, models.StatusPending)
	if err != nil {
		return e.transitionError(err, videoID, prev, models.StatusPending, opGenerate)
	}
	e.emit(ctx, runID, videoID, prev, models.StatusPending, opGenerate)
	e.log.Info("video reopened for a new suggestion",
		zap.String("videoId", videoID),
		zap.String("from", string(prev)))
	return nil
}

// Regenerate discards the current workflow position of a video, returns it to
// pending and drafts a fresh suggestion. Earlier suggestions are kept as
// history. Applied videos cannot be regenerated.
func (e *Engine) Regenerate(ctx context.Context, videoID, lang string) (*models.Suggestion, error) {
	runID := newRunID()

	unlock, ok, err := e.Locker.TryLock(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("regenerate %s: %w", videoID, err)
	}
	if !ok {
		return nil, ErrVideoLocked
	}
	prev, err := e.Videos.TransitionStatus(ctx, videoID, resetFrom, models.StatusPending)
	unlock()
	if err != nil {
		return nil, e.transitionError(err, videoID, prev, models.StatusPending, opRegenerate)
	}
	if prev != models.StatusPending {
		e.emit(ctx, runID, videoID, prev, models.StatusPending, opRegenerate)
	}

	started := time.Now()
	s, o, err := e.generateOne(ctx, runID, videoID, e.language(lang), opRegenerate, models.StatusPending)
	e.Metrics.observe(opRegenerate, o, started)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// generateOne runs the per-video unit of work under the video lock. The
// video must currently be in one of allowed.
func (e *Engine) generateOne(ctx context.Context, runID, videoID, lang, op string, allowed ...models.Status) (*models.Suggestion, Outcome, error) {
	log := e.log.With(zap.String("runId", runID), zap.String("videoId", videoID))

	unlock, ok, err := e.Locker.TryLock(ctx, videoID)
	if err != nil {
		log.Error("failed to lock video", zap.Error(err))
		return nil, failed(videoID, err), err
	}
	if !ok {
		log.Warn("video locked by another worker, skipping")
		return nil, skipped(videoID, ErrVideoLocked.Error()), ErrVideoLocked
	}
	defer unlock()

	video, err := e.Videos.GetVideoByID(ctx, videoID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, skipped(videoID, "video not found"), err
		}
		return nil, failed(videoID, err), err
	}
	if !statusIn(video.Status, allowed) {
		terr := &TransitionError{VideoID: videoID, From: video.Status, To: models.StatusSuggested, Op: op}
		return nil, skipped(videoID, terr.Error()), terr
	}

	vc := &seo.VideoContext{Video: video, Episode: e.episode(ctx, video)}

	fields, err := e.Generator.Generate(ctx, vc)
	if err != nil {
		log.Error("generation failed", zap.Error(err))
		return nil, failed(videoID, err), fmt.Errorf("generate %s: %w", videoID, err)
	}

	s := models.NewSuggestion(videoID, lang, *fields)
	var prev models.Status
	err = e.Tx.ExecTx(ctx, func(ctx context.Context) error {
		if err := e.Suggestions.CreateSuggestion(ctx, s); err != nil {
			return err
		}
		p, err := e.Videos.TransitionStatus(ctx, videoID, allowed, models.StatusSuggested)
		if err != nil {
			return e.transitionError(err, videoID, p, models.StatusSuggested, op)
		}
		prev = p
		return nil
	})
	if err != nil {
		log.Error("failed to store suggestion", zap.Error(err))
		return nil, failed(videoID, err), fmt.Errorf("generate %s: %w", videoID, err)
	}

	e.emit(ctx, runID, videoID, prev, models.StatusSuggested, op)
	log.Info("suggestion stored",
		zap.Int64("suggestionId", s.ID),
		zap.String("language", lang),
		zap.Bool("episodeContext", vc.Episode != nil))

	return s, success(videoID), nil
}

// episode loads enrichment context. Any failure means no context.
func (e *Engine) episode(ctx context.Context, v *models.Video) *enrichment.Episode {
	if e.Episodes == nil || v.EpisodeID == nil || *v.EpisodeID == "" {
		return nil
	}

	ep, err := e.Episodes.GetEpisode(ctx, *v.EpisodeID)
	if err != nil {
		e.log.Warn("episode lookup failed, generating without context",
			zap.String("videoId", v.VideoID),
			zap.String("episodeId", *v.EpisodeID),
			zap.Error(err))
		return nil
	}
	return ep
}

func (e *Engine) transitionError(err error, videoID string, current, to models.Status, op string) error {
	if errors.Is(err, db.ErrStatusConflict) {
		return &TransitionError{VideoID: videoID, From: current, To: to, Op: op}
	}
	return err
}

func statusIn(s models.Status, set []models.Status) bool {
	for _, x := range set {
		if x == s {
			return true
		}
	}
	return false
}
