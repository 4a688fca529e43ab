package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ad-tracker/youtube-seo-workflow-go/internal/db"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/db/models"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/service/quota"
)

const opApply = "apply"

// ApplySuggestions pushes the latest suggestion of up to limit approved
// videos to YouTube. Live writes require confirmation. In dry-run mode
// nothing changes anywhere and videos stay approved.
func (e *Engine) ApplySuggestions(ctx context.Context, limit int, dryRun bool) (*BatchResult, error) {
	if e.Sink == nil {
		return nil, fmt.Errorf("apply: sink: %w", ErrNotConfigured)
	}

	result := newBatch(opApply)
	log := e.log.With(zap.String("runId", result.RunID), zap.Bool("dryRun", dryRun))

	approved := models.StatusApproved
	videos, err := e.Videos.GetVideosByStatus(ctx, &approved, limit)
	if err != nil {
		return nil, fmt.Errorf("apply: list approved: %w", err)
	}

	log.Info("applying suggestions", zap.Int("videos", len(videos)))

	quotaSpent := false
	for _, v := range videos {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if quotaSpent {
			result.add(skipped(v.VideoID, quota.ErrExhausted.Error()))
			continue
		}

		started := time.Now()
		o, err := e.applyOne(ctx, result.RunID, v.VideoID, dryRun)
		result.add(o)
		e.Metrics.observe(opApply, o, started)

		if errors.Is(err, quota.ErrExhausted) {
			log.Warn("quota exhausted, skipping the rest of the batch")
			quotaSpent = true
		}
	}

	log.Info("apply finished",
		zap.Int("processed", result.Count()),
		zap.Int("total", len(videos)))

	return result, nil
}

// applyOne returns the outcome and, for failures, the underlying error.
func (e *Engine) applyOne(ctx context.Context, runID, videoID string, dryRun bool) (Outcome, error) {
	log := e.log.With(zap.String("runId", runID), zap.String("videoId", videoID))

	unlock, ok, err := e.Locker.TryLock(ctx, videoID)
	if err != nil {
		return failed(videoID, err), err
	}
	if !ok {
		log.Warn("video locked by another worker, skipping")
		return skipped(videoID, ErrVideoLocked.Error()), nil
	}
	defer unlock()

	video, err := e.Videos.GetVideoByID(ctx, videoID)
	if err != nil {
		return failed(videoID, err), err
	}
	if video.Status != models.StatusApproved {
		return skipped(videoID, fmt.Sprintf("status is %s", video.Status)), nil
	}

	s, err := e.Suggestions.GetLatestAnyLanguage(ctx, videoID)
	if err != nil {
		if db.IsNotFound(err) {
			log.Warn("approved video has no suggestion")
			return skipped(videoID, ErrNoSuggestion.Error()), nil
		}
		return failed(videoID, err), err
	}

	out, err := e.Sink.UpdateMetadata(ctx, videoID, s.Changes(), models.ApplyOptions{
		DryRun:              dryRun,
		RequireConfirmation: !dryRun,
	})
	if err != nil {
		log.Error("failed to update video on YouTube", zap.Error(err))
		return failed(videoID, err), err
	}

	switch {
	case out.DryRun:
		log.Info("dry run, video stays approved")
		return Outcome{VideoID: videoID, Status: OutcomeDryRun}, nil
	case out.Declined:
		return failed(videoID, ErrConfirmationDeclined), nil
	case !out.Applied:
		err := errors.New("sink reported no change")
		return failed(videoID, err), err
	}

	err = e.Tx.ExecTx(ctx, func(ctx context.Context) error {
		if e.Changes != nil {
			if err := e.Changes.CreateAppliedChange(ctx, models.NewAppliedChange(videoID, s.ID, out)); err != nil {
				return err
			}
		}
		prev, err := e.Videos.TransitionStatus(ctx, videoID, applyFrom, models.StatusApplied)
		if err != nil {
			return e.transitionError(err, videoID, prev, models.StatusApplied, opApply)
		}
		return nil
	})
	if err != nil {
		log.Error("video updated on YouTube but registry update failed", zap.Error(err))
		err = fmt.Errorf("record apply: %w", err)
		return failed(videoID, err), err
	}

	e.emit(ctx, runID, videoID, models.StatusApproved, models.StatusApplied, opApply)
	log.Info("suggestion applied", zap.Int64("suggestionId", s.ID))

	return success(videoID), nil
}
