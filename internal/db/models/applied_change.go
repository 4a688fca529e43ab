package models

import "time"

// AppliedChange is the audit record of one real write to YouTube.
// This table is immutable - records are only created, never updated or deleted.
type AppliedChange struct {
	ID           int64            `db:"id" json:"id"`
	VideoID      string           `db:"video_id" json:"video_id"`
	SuggestionID *int64           `db:"suggestion_id" json:"suggestion_id,omitempty"`
	Before       MetadataSnapshot `db:"before_state" json:"before"`
	After        MetadataSnapshot `db:"after_state" json:"after"`
	DiffHash     string           `db:"diff_hash" json:"diff_hash"`
	AppliedAt    time.Time        `db:"applied_at" json:"applied_at"`
}

// NewAppliedChange records an outcome returned by the sink.
func NewAppliedChange(videoID string, suggestionID int64, outcome *ApplyOutcome) *AppliedChange {
	id := suggestionID
	return &AppliedChange{
		VideoID:      videoID,
		SuggestionID: &id,
		Before:       outcome.Before,
		After:        outcome.After,
	}
}
