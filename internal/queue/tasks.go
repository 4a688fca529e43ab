package queue

import (
	"encoding/json"
	"fmt"
)

// Task types
const (
	TypeGenerateVideo = "seo:generate_video"
	TypeSyncChannel   = "seo:sync_channel"
)

// GenerateVideoPayload asks a worker to draft suggestions for one video.
// PendingOnly marks a task picked by a generation batch: the worker drafts
// only if the video is still pending when the task runs.
type GenerateVideoPayload struct {
	VideoID     string `json:"video_id"`
	Language    string `json:"language,omitempty"`
	PendingOnly bool   `json:"pending_only,omitempty"`
}

// NewGenerateVideoTask creates a new generation task payload
func NewGenerateVideoTask(videoID, language string, pendingOnly bool) (*GenerateVideoPayload, error) {
	if videoID == "" {
		return nil, fmt.Errorf("video ID is required")
	}
	return &GenerateVideoPayload{VideoID: videoID, Language: language, PendingOnly: pendingOnly}, nil
}

// Marshal serializes the payload to JSON
func (p *GenerateVideoPayload) Marshal() ([]byte, error) {
	return json.Marshal(p)
}

// UnmarshalGenerateVideoPayload deserializes JSON to payload
func UnmarshalGenerateVideoPayload(data []byte) (*GenerateVideoPayload, error) {
	var payload GenerateVideoPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	if payload.VideoID == "" {
		return nil, fmt.Errorf("payload missing video_id")
	}
	return &payload, nil
}

// SyncChannelPayload asks a worker to sync a channel's recent uploads.
type SyncChannelPayload struct {
	Handle string `json:"handle"`
	Limit  int    `json:"limit"`
}

// NewSyncChannelTask creates a new channel sync task payload
func NewSyncChannelTask(handle string, limit int) (*SyncChannelPayload, error) {
	if handle == "" {
		return nil, fmt.Errorf("channel handle is required")
	}
	if limit < 0 {
		return nil, fmt.Errorf("limit must not be negative")
	}
	return &SyncChannelPayload{Handle: handle, Limit: limit}, nil
}

// Marshal serializes the payload to JSON
func (p *SyncChannelPayload) Marshal() ([]byte, error) {
	return json.Marshal(p)
}

// UnmarshalSyncChannelPayload deserializes JSON to payload
func UnmarshalSyncChannelPayload(data []byte) (*SyncChannelPayload, error) {
	var payload SyncChannelPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	if payload.Handle == "" {
		return nil, fmt.Errorf("payload missing handle")
	}
	return &payload, nil
}
