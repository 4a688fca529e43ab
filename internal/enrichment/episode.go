// Package enrichment reads episode context (guests, topics, summaries) from the
// AI-EWG pipeline database so generated metadata can reference real content.
package enrichment

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when the episode database is not configured or missing.
var ErrUnavailable = errors.New("episode database unavailable")

// Episode is the subset of an AI-EWG episode that feeds prompt context.
type Episode struct {
	EpisodeID       string   `json:"episode_id"`
	Title           string   `json:"title"`
	ShowName        string   `json:"show_name,omitempty"`
	Date            string   `json:"date,omitempty"`
	DurationSeconds int      `json:"duration_seconds,omitempty"`
	GuestNames      []string `json:"guest_names,omitempty"`
	Topics          []string `json:"topics,omitempty"`
	Summary         string   `json:"summary,omitempty"`
	Entities        []string `json:"entities,omitempty"`
	KeyMoments      []string `json:"key_moments,omitempty"`
	HasTranscript   bool     `json:"has_transcript"`
	HasEnrichment   bool     `json:"has_enrichment"`
}

// EpisodeSummary is a search hit used for manual video to episode mapping.
type EpisodeSummary struct {
	EpisodeID  string   `json:"episode_id"`
	Title      string   `json:"title"`
	ShowName   string   `json:"show_name,omitempty"`
	Date       string   `json:"date,omitempty"`
	GuestNames []string `json:"guest_names,omitempty"`
}

// Lookup finds episodes. GetEpisode returns (nil, nil) when the id is unknown.
type Lookup interface {
	GetEpisode(ctx context.Context, episodeID string) (*Episode, error)
	SearchByTitle(ctx context.Context, title string, limit int) ([]*EpisodeSummary, error)
}

// Disabled is the Lookup used when no episode database is configured.
type Disabled struct{}

func (Disabled) GetEpisode(context.Context, string) (*Episode, error) {
	return nil, nil
}

func (Disabled) SearchByTitle(context.Context, string, int) ([]*EpisodeSummary, error) {
	return nil, ErrUnavailable
}
