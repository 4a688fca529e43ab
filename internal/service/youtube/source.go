package youtube

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/api/youtube/v3"

	"github.com/ad-tracker/youtube-seo-workflow-go/internal/db/models"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/service/quota"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/validation"
	"github.com/ad-tracker/youtube-seo-workflow-go/pkg/logger"
)

// Source lists channel uploads and fetches single videos.
type Source struct {
	svc   *youtube.Service
	quota QuotaTracker
	log   *zap.Logger

	mu       sync.Mutex
	channels map[string]*resolvedChannel
}

type resolvedChannel struct {
	channel *models.Channel
	uploads string
}

// NewSource creates a Source. quota may be nil.
func NewSource(svc *youtube.Service, q QuotaTracker) *Source {
	return &Source{
		svc:      svc,
		quota:    q,
		log:      logger.L().Named("youtube"),
		channels: map[string]*resolvedChannel{},
	}
}

// ResolveChannel maps an @handle or UC channel id to its channel record.
// Results are cached for the life of the Source.
func (s *Source) ResolveChannel(ctx context.Context, handle string) (*models.Channel, error) {
	rc, err := s.resolve(ctx, handle)
	if err != nil {
		return nil, err
	}
	return rc.channel, nil
}

func (s *Source) resolve(ctx context.Context, handle string) (*resolvedChannel, error) {
	key := strings.ToLower(strings.TrimSpace(handle))

	s.mu.Lock()
	rc, ok := s.channels[key]
	s.mu.Unlock()
	if ok {
		return rc, nil
	}

	if err := reserve(ctx, s.quota, quota.CostChannelsList); err != nil {
		return nil, err
	}

	call := s.svc.Channels.List([]string{"id", "snippet", "contentDetails"}).Context(ctx)
	if validation.IsValidChannelID(handle) {
		call = call.Id(handle)
	} else {
		call = call.ForHandle(strings.TrimPrefix(handle, "@"))
	}

	resp, err := call.Do()
	if err != nil {
		return nil, wrapAPIError("channels.list", err)
	}
	record(ctx, s.quota, quota.CostChannelsList, "channels.list")

	if len(resp.Items) == 0 || resp.Items[0].ContentDetails == nil || resp.Items[0].ContentDetails.RelatedPlaylists == nil {
		return nil, fmt.Errorf("%w: %s", ErrChannelNotFound, handle)
	}

	item := resp.Items[0]
	title := ""
	if item.Snippet != nil {
		title = item.Snippet.Title
	}
	rc = &resolvedChannel{
		channel: models.NewChannel(item.Id, handle, title),
		uploads: item.ContentDetails.RelatedPlaylists.Uploads,
	}

	s.mu.Lock()
	s.channels[key] = rc
	s.mu.Unlock()

	return rc, nil
}

// ListVideos returns up to limit of the channel's most recent uploads.
func (s *Source) ListVideos(ctx context.Context, handle string, limit int) ([]*models.Video, error) {
	if limit <= 0 {
		return []*models.Video{}, nil
	}

	rc, err := s.resolve(ctx, handle)
	if err != nil {
		return nil, err
	}

	ids, err := s.uploadIDs(ctx, rc.uploads, limit)
	if err != nil {
		return nil, err
	}

	videos := make([]*models.Video, 0, len(ids))
	for _, batch := range BatchVideoIDs(ids, maxBatchSize) {
		items, err := s.videosList(ctx, batch)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			videos = append(videos, videoFromAPI(item, handle))
		}
	}

	s.log.Info("listed channel uploads",
		zap.String("channel", handle),
		zap.String("channelId", rc.channel.ChannelID),
		zap.Int("count", len(videos)))

	return videos, nil
}

func (s *Source) uploadIDs(ctx context.Context, playlistID string, limit int) ([]string, error) {
	ids := make([]string, 0, limit)
	pageToken := ""

	for len(ids) < limit {
		if err := reserve(ctx, s.quota, quota.CostPlaylistItemsList); err != nil {
			return nil, err
		}

		call := s.svc.PlaylistItems.List([]string{"contentDetails"}).
			PlaylistId(playlistID).
			MaxResults(int64(min(limit-len(ids), maxBatchSize))).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, wrapAPIError("playlistItems.list", err)
		}
		record(ctx, s.quota, quota.CostPlaylistItemsList, "playlistItems.list")

		for _, item := range resp.Items {
			if item.ContentDetails != nil && item.ContentDetails.VideoId != "" {
				ids = append(ids, item.ContentDetails.VideoId)
			}
		}

		if resp.NextPageToken == "" || len(resp.Items) == 0 {
			break
		}
		pageToken = resp.NextPageToken
	}

	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (s *Source) videosList(ctx context.Context, ids []string) ([]*youtube.Video, error) {
	if err := reserve(ctx, s.quota, quota.CostVideosList); err != nil {
		return nil, err
	}

	resp, err := s.svc.Videos.List([]string{"snippet"}).Id(ids...).Context(ctx).Do()
	if err != nil {
		return nil, wrapAPIError("videos.list", err)
	}
	record(ctx, s.quota, quota.CostVideosList, "videos.list")

	return resp.Items, nil
}

// FetchVideo returns nil, nil when the video does not exist.
func (s *Source) FetchVideo(ctx context.Context, videoID string) (*models.Video, error) {
	items, err := s.videosList(ctx, []string{videoID})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return videoFromAPI(items[0], ""), nil
}
