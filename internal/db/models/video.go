package models

import "time"

// Video is the local registry row for one YouTube video. The *Original fields
// are the metadata as last synced from YouTube; suggestions never overwrite them.
type Video struct {
	VideoID             string     `db:"video_id" json:"video_id"`
	ChannelID           string     `db:"channel_id" json:"channel_id"`
	ChannelHandle       *string    `db:"channel_handle" json:"channel_handle,omitempty"`
	TitleOriginal       string     `db:"title_original" json:"title_original"`
	DescriptionOriginal string     `db:"description_original" json:"description_original"`
	TagsOriginal        []string   `db:"tags_original" json:"tags_original"`
	PublishedAt         *time.Time `db:"published_at" json:"published_at,omitempty"`
	EpisodeID           *string    `db:"episode_id" json:"episode_id,omitempty"`
	Status              Status     `db:"status" json:"status"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}

// NewVideo creates a Video snapshot as read from YouTube. Status is left empty
// so an upsert preserves whatever the registry already holds.
func NewVideo(videoID, channelID, title, description string, tags []string, publishedAt *time.Time) *Video {
	if tags == nil {
		tags = []string{}
	}
	return &Video{
		VideoID:             videoID,
		ChannelID:           channelID,
		TitleOriginal:       title,
		DescriptionOriginal: description,
		TagsOriginal:        tags,
		PublishedAt:         publishedAt,
	}
}

// Snapshot returns the original metadata in the shape used by apply diffs.
func (v *Video) Snapshot() MetadataSnapshot {
	return MetadataSnapshot{
		Title:       v.TitleOriginal,
		Description: v.DescriptionOriginal,
		Tags:        append([]string(nil), v.TagsOriginal...),
	}
}
