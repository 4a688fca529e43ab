package models

import "time"

// StatusChangeEvent is published whenever the workflow moves a video between states.
type StatusChangeEvent struct {
	EventID    string    `json:"event_id"`
	RunID      string    `json:"run_id,omitempty"`
	VideoID    string    `json:"video_id"`
	From       Status    `json:"from"`
	To         Status    `json:"to"`
	Operation  string    `json:"operation"`
	OccurredAt time.Time `json:"occurred_at"`
}
