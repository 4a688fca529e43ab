package workflow

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ad-tracker/youtube-seo-workflow-go/internal/db"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/db/models"
)

const (
	opApprove = "approve"
	opReject  = "reject"
	opLink    = "link"
)

// Approve marks a suggested video ready to apply.
func (e *Engine) Approve(ctx context.Context, videoID string) error {
	prev, err := e.Videos.TransitionStatus(ctx, videoID, approveFrom, models.StatusApproved)
	if err != nil {
		return e.transitionError(err, videoID, prev, models.StatusApproved, opApprove)
	}

	e.emit(ctx, newRunID(), videoID, prev, models.StatusApproved, opApprove)
	e.log.Info("video approved", zap.String("videoId", videoID))
	return nil
}

// Reject deletes every suggestion of a video and returns it to pending, in
// one transaction. Applied videos cannot be rejected. It returns the number
// of suggestions removed.
func (e *Engine) Reject(ctx context.Context, videoID string) (int64, error) {
	unlock, ok, err := e.Locker.TryLock(ctx, videoID)
	if err != nil {
		return 0, fmt.Errorf("reject %s: %w", videoID, err)
	}
	if !ok {
		return 0, ErrVideoLocked
	}
	defer unlock()

	var (
		deleted int64
		prev    models.Status
	)
	err = e.Tx.ExecTx(ctx, func(ctx context.Context) error {
		v, err := e.Videos.GetVideoByID(ctx, videoID)
		if err != nil {
			return err
		}
		if v.Status == models.StatusApplied {
			return &TransitionError{VideoID: videoID, From: v.Status, To: models.StatusPending, Op: opReject}
		}

		if deleted, err = e.Suggestions.DeleteAllForVideo(ctx, videoID); err != nil {
			return err
		}

		p, err := e.Videos.TransitionStatus(ctx, videoID, resetFrom, models.StatusPending)
		if err != nil {
			return e.transitionError(err, videoID, p, models.StatusPending, opReject)
		}
		prev = p
		return nil
	})
	if err != nil {
		return 0, err
	}

	if prev != models.StatusPending {
		e.emit(ctx, newRunID(), videoID, prev, models.StatusPending, opReject)
	}
	e.log.Info("video rejected", zap.String("videoId", videoID), zap.Int64("suggestionsDeleted", deleted))
	return deleted, nil
}

// LinkEpisode maps a video to an AI-EWG episode. An empty episodeID removes
// the mapping. The episode is not required to exist in the enrichment
// database; a missing one is only logged.
func (e *Engine) LinkEpisode(ctx context.Context, videoID, episodeID string) error {
	var ep *string
	if episodeID != "" {
		ep = &episodeID

		if e.Episodes != nil {
			found, err := e.Episodes.GetEpisode(ctx, episodeID)
			if err == nil && found == nil {
				e.log.Warn("linking to an episode unknown to the enrichment database",
					zap.String("videoId", videoID), zap.String("episodeId", episodeID))
			}
		}
	}

	if err := e.Videos.SetEpisode(ctx, videoID, ep); err != nil {
		return fmt.Errorf("%s %s: %w", opLink, videoID, err)
	}
	return nil
}

// Video returns one registry row.
func (e *Engine) Video(ctx context.Context, videoID string) (*models.Video, error) {
	return e.Videos.GetVideoByID(ctx, videoID)
}

// ListVideos returns registry rows, newest first. A nil status lists all.
func (e *Engine) ListVideos(ctx context.Context, status *models.Status, limit int) ([]*models.Video, error) {
	return e.Videos.GetVideosByStatus(ctx, status, limit)
}

// Stats is the number of videos in each status.
type Stats struct {
	Counts map[models.Status]int `json:"counts"`
	Total  int                   `json:"total"`
}

func (e *Engine) Stats(ctx context.Context) (*Stats, error) {
	counts, err := e.Videos.CountsByStatus(ctx)
	if err != nil {
		return nil, err
	}

	st := &Stats{Counts: make(map[models.Status]int, len(models.AllStatuses))}
	for _, s := range models.AllStatuses {
		st.Counts[s] = counts[s]
		st.Total += counts[s]
	}
	return st, nil
}

// History returns every suggestion of a video, newest first. An empty lang
// returns all languages.
func (e *Engine) History(ctx context.Context, videoID, lang string) ([]*models.Suggestion, error) {
	return e.Suggestions.GetHistory(ctx, videoID, lang)
}

// LatestSuggestion returns the newest suggestion for lang, or for any
// language when lang is empty. It returns nil, nil when there is none.
func (e *Engine) LatestSuggestion(ctx context.Context, videoID, lang string) (*models.Suggestion, error) {
	var (
		s   *models.Suggestion
		err error
	)
	if lang == "" {
		s, err = e.Suggestions.GetLatestAnyLanguage(ctx, videoID)
	} else {
		s, err = e.Suggestions.GetLatest(ctx, videoID, lang)
	}
	if db.IsNotFound(err) {
		return nil, nil
	}
	return s, err
}

// AppliedChanges returns the audit trail of live writes for a video.
func (e *Engine) AppliedChanges(ctx context.Context, videoID string, limit int) ([]*models.AppliedChange, error) {
	if e.Changes == nil {
		return nil, fmt.Errorf("applied changes: %w", ErrNotConfigured)
	}
	return e.Changes.GetChangesByVideoID(ctx, videoID, limit)
}
