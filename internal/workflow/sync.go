package workflow

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ad-tracker/youtube-seo-workflow-go/internal/db/models"
)

const opSync = "sync"

// SyncChannel lists up to limit uploads of a channel and upserts them into
// the registry. Existing rows keep their status. A Source failure fails the
// call; rows already written stay written.
func (e *Engine) SyncChannel(ctx context.Context, handle string, limit int) (*BatchResult, error) {
	if e.Source == nil {
		return nil, fmt.Errorf("sync: source: %w", ErrNotConfigured)
	}

	result := newBatch(opSync)
	log := e.log.With(zap.String("runId", result.RunID), zap.String("channel", handle))

	videos, err := e.Source.ListVideos(ctx, handle, limit)
	if err != nil {
		return nil, fmt.Errorf("sync %s: %w", handle, err)
	}

	for _, v := range videos {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		started := time.Now()
		o := success(v.VideoID)
		if err := e.Videos.UpsertVideo(ctx, v); err != nil {
			log.Error("failed to upsert video", zap.String("videoId", v.VideoID), zap.Error(err))
			o = failed(v.VideoID, err)
		}
		result.add(o)
		e.Metrics.observe(opSync, o, started)
	}

	e.recordChannel(ctx, handle, videos)

	log.Info("channel synced",
		zap.Int("listed", len(videos)),
		zap.Int("upserted", result.Count()))

	return result, nil
}

func (e *Engine) recordChannel(ctx context.Context, handle string, videos []*models.Video) {
	if e.Channels == nil {
		return
	}

	var ch *models.Channel
	if r, ok := e.Source.(ChannelResolver); ok {
		resolved, err := r.ResolveChannel(ctx, handle)
		if err == nil {
			ch = models.NewChannel(resolved.ChannelID, handle, resolved.Title)
		}
	}
	if ch == nil && len(videos) > 0 {
		ch = models.NewChannel(videos[0].ChannelID, handle, "")
	}
	if ch == nil || ch.ChannelID == "" {
		return
	}

	now := e.now()
	ch.LastSyncedAt = &now
	if err := e.Channels.UpsertChannel(ctx, ch); err != nil {
		e.log.Warn("failed to record channel sync", zap.String("channel", handle), zap.Error(err))
	}
}

// FetchAndProcessVideo pulls one video from YouTube, upserts it and generates
// a suggestion. It returns 0 when YouTube does not know the video.
func (e *Engine) FetchAndProcessVideo(ctx context.Context, videoID, lang string) (int, error) {
	if e.Source == nil {
		return 0, fmt.Errorf("fetch: source: %w", ErrNotConfigured)
	}

	v, err := e.Source.FetchVideo(ctx, videoID)
	if err != nil {
		return 0, fmt.Errorf("fetch %s: %w", videoID, err)
	}
	if v == nil {
		e.log.Info("video not found on YouTube", zap.String("videoId", videoID))
		return 0, nil
	}

	if err := e.Videos.UpsertVideo(ctx, v); err != nil {
		return 0, fmt.Errorf("fetch %s: %w", videoID, err)
	}

	return e.GenerateSuggestionsForVideo(ctx, videoID, lang)
}
