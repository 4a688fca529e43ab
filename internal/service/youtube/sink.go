package youtube

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/api/youtube/v3"

	"github.com/ad-tracker/youtube-seo-workflow-go/internal/confirm"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/db/models"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/service/quota"
	"github.com/ad-tracker/youtube-seo-workflow-go/pkg/logger"
)

// SinkConfig controls the write path.
type SinkConfig struct {
	// DryRun blocks every write regardless of the per-call option.
	DryRun          bool
	WritesPerSecond float64
}

// Sink writes approved metadata to YouTube. It never removes a tag and never
// blanks a title or description.
type Sink struct {
	svc     *youtube.Service
	quota   QuotaTracker
	confirm confirm.Provider
	limiter *rate.Limiter
	dryRun  bool
	log     *zap.Logger
}

// NewSink creates a Sink. quota may be nil; a nil confirmation provider
// declines every write that requires confirmation.
func NewSink(svc *youtube.Service, q QuotaTracker, c confirm.Provider, cfg SinkConfig) *Sink {
	if c == nil {
		c = confirm.Deny()
	}
	limit := rate.Inf
	if cfg.WritesPerSecond > 0 {
		limit = rate.Limit(cfg.WritesPerSecond)
	}

	return &Sink{
		svc:     svc,
		quota:   q,
		confirm: c,
		limiter: rate.NewLimiter(limit, 1),
		dryRun:  cfg.DryRun,
		log:     logger.L().Named("youtube"),
	}
}

// DryRun reports whether the sink was configured to never write.
func (s *Sink) DryRun() bool {
	return s.dryRun
}

// UpdateMetadata applies changes to one video. In dry-run mode it makes no
// API call at all and returns the intended values.
func (s *Sink) UpdateMetadata(ctx context.Context, videoID string, changes models.MetadataChanges, opts models.ApplyOptions) (*models.ApplyOutcome, error) {
	log := s.log.With(zap.String("videoId", videoID))

	if s.dryRun || opts.DryRun {
		log.Info("dry run, not updating video",
			zap.String("title", changes.Title),
			zap.Int("descriptionLength", len(changes.Description)),
			zap.Strings("tags", changes.Tags))
		return &models.ApplyOutcome{
			DryRun: true,
			After: models.MetadataSnapshot{
				Title:       changes.Title,
				Description: changes.Description,
				Tags:        append([]string{}, changes.Tags...),
			},
		}, nil
	}

	if opts.RequireConfirmation {
		ok, err := s.confirm.Confirm(ctx, videoID, changes)
		if err != nil {
			return nil, fmt.Errorf("confirmation: %w", err)
		}
		if !ok {
			log.Info("update declined")
			return &models.ApplyOutcome{Declined: true}, nil
		}
	}

	if err := reserve(ctx, s.quota, quota.CostVideosList+quota.CostVideosUpdate); err != nil {
		return nil, err
	}

	resp, err := s.svc.Videos.List([]string{"snippet"}).Id(videoID).Context(ctx).Do()
	if err != nil {
		return nil, wrapAPIError("videos.list", err)
	}
	record(ctx, s.quota, quota.CostVideosList, "videos.list")

	if len(resp.Items) == 0 || resp.Items[0].Snippet == nil {
		return nil, fmt.Errorf("%w: %s", ErrVideoNotFound, videoID)
	}

	snippet := resp.Items[0].Snippet
	before := snapshot(snippet)

	if strings.TrimSpace(changes.Title) != "" {
		snippet.Title = changes.Title
	}
	if strings.TrimSpace(changes.Description) != "" {
		snippet.Description = changes.Description
	}
	var skipped []string
	snippet.Tags, skipped = MergeTags(snippet.Tags, changes.Tags)
	if len(skipped) > 0 {
		log.Warn("tag budget reached, skipping suggested tags",
			zap.Int("budget", MaxTagBudget),
			zap.Strings("skipped", skipped))
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	updated, err := s.svc.Videos.Update([]string{"snippet"}, &youtube.Video{Id: videoID, Snippet: snippet}).Context(ctx).Do()
	if err != nil {
		return nil, wrapAPIError("videos.update", err)
	}
	record(ctx, s.quota, quota.CostVideosUpdate, "videos.update")

	after := snapshot(snippet)
	if updated != nil && updated.Snippet != nil {
		after = snapshot(updated.Snippet)
	}

	log.Info("video metadata updated",
		zap.String("titleBefore", before.Title),
		zap.String("titleAfter", after.Title),
		zap.Int("tagsBefore", len(before.Tags)),
		zap.Int("tagsAfter", len(after.Tags)))

	return &models.ApplyOutcome{Applied: true, Before: before, After: after}, nil
}

func snapshot(s *youtube.VideoSnippet) models.MetadataSnapshot {
	return models.MetadataSnapshot{
		Title:       s.Title,
		Description: s.Description,
		Tags:        append([]string{}, s.Tags...),
	}
}

// MaxTagBudget is the character budget YouTube allows for a video's tags.
const MaxTagBudget = 500

// tagCost is what a tag counts against MaxTagBudget. Tags with spaces are
// quoted by YouTube, and tags after the first take a separating comma.
func tagCost(tag string, first bool) int {
	n := utf8.RuneCountInString(tag)
	if strings.ContainsRune(tag, ' ') {
		n += 2
	}
	if !first {
		n++
	}
	return n
}

// MergeTags returns the union of existing and added tags. Every existing tag
// is kept as is; added tags already present (ignoring case) are dropped.
// Added tags that would push the union past MaxTagBudget are returned in
// skipped instead. Existing tags are never trimmed, even when they alone
// exceed the budget.
func MergeTags(existing, added []string) (merged, skipped []string) {
	merged = make([]string, 0, len(existing)+len(added))
	seen := make(map[string]struct{}, len(existing)+len(added))
	used := 0

	for _, t := range existing {
		seen[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
		used += tagCost(t, len(merged) == 0)
		merged = append(merged, t)
	}
	for _, t := range added {
		key := strings.ToLower(strings.TrimSpace(t))
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		cost := tagCost(t, len(merged) == 0)
		if used+cost > MaxTagBudget {
			skipped = append(skipped, t)
			continue
		}
		used += cost
		merged = append(merged, t)
	}
	return merged, skipped
}
