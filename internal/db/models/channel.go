package models

import "time"

// Channel records a synced channel and when it was last listed.
type Channel struct {
	ChannelID    string     `db:"channel_id" json:"channel_id"`
	Handle       string     `db:"handle" json:"handle"`
	Title        string     `db:"title" json:"title"`
	LastSyncedAt *time.Time `db:"last_synced_at" json:"last_synced_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// NewChannel creates a Channel marked as synced now.
func NewChannel(channelID, handle, title string) *Channel {
	now := time.Now()
	return &Channel{
		ChannelID:    channelID,
		Handle:       handle,
		Title:        title,
		LastSyncedAt: &now,
	}
}
