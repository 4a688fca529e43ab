// Package youtube reads channel uploads from and writes metadata back to the
// YouTube Data API v3.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/ad-tracker/youtube-seo-workflow-go/internal/db/models"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/service/quota"
)

const maxBatchSize = 50

var (
	ErrQuotaExhausted  = quota.ErrExhausted
	ErrChannelNotFound = errors.New("youtube channel not found")
	ErrVideoNotFound   = errors.New("youtube video not found")
)

// QuotaTracker is the subset of quota.Manager the API wrappers need.
type QuotaTracker interface {
	CheckQuotaAvailable(ctx context.Context, requiredQuota int) (bool, *models.QuotaInfo, error)
	RecordQuotaUsage(ctx context.Context, quotaCost int, operation string) error
}

// NewAPIKeyService creates a read-only Data API service.
func NewAPIKeyService(ctx context.Context, apiKey string) (*youtube.Service, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("YouTube API key is required")
	}

	svc, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}
	return svc, nil
}

// NewHTTPService creates a service on top of an already authorized client.
func NewHTTPService(ctx context.Context, client *http.Client) (*youtube.Service, error) {
	svc, err := youtube.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}
	return svc, nil
}

// wrapAPIError maps googleapi quota errors to ErrQuotaExhausted.
func wrapAPIError(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusForbidden {
		for _, item := range gerr.Errors {
			if item.Reason == "quotaExceeded" || item.Reason == "dailyLimitExceeded" {
				return fmt.Errorf("%s: %w", op, ErrQuotaExhausted)
			}
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func reserve(ctx context.Context, q QuotaTracker, cost int) error {
	if q == nil {
		return nil
	}
	ok, _, err := q.CheckQuotaAvailable(ctx, cost)
	if err != nil {
		return err
	}
	if !ok {
		return ErrQuotaExhausted
	}
	return nil
}

func record(ctx context.Context, q QuotaTracker, cost int, op string) {
	if q == nil {
		return
	}
	// Usage accounting failures must not fail a call that already happened.
	_ = q.RecordQuotaUsage(ctx, cost, op)
}

func videoFromAPI(item *youtube.Video, handle string) *models.Video {
	s := item.Snippet
	if s == nil {
		s = &youtube.VideoSnippet{}
	}

	var published *time.Time
	if s.PublishedAt != "" {
		if t, err := parseYouTubeTime(s.PublishedAt); err == nil {
			published = &t
		}
	}

	v := models.NewVideo(item.Id, s.ChannelId, s.Title, s.Description, s.Tags, published)
	if handle != "" {
		v.ChannelHandle = &handle
	}
	return v
}

// parseYouTubeTime parses RFC3339 timestamps from YouTube API
func parseYouTubeTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// BatchVideoIDs splits a large list of video IDs into batches of 50
func BatchVideoIDs(videoIDs []string, batchSize int) [][]string {
	if batchSize <= 0 || batchSize > maxBatchSize {
		batchSize = maxBatchSize
	}

	var batches [][]string
	for i := 0; i < len(videoIDs); i += batchSize {
		end := i + batchSize
		if end > len(videoIDs) {
			end = len(videoIDs)
		}
		batches = append(batches, videoIDs[i:end])
	}

	return batches
}
