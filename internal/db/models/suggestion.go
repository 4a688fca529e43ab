package models

import "time"

// SuggestionFields is the generated metadata for one video, before it is stored.
type SuggestionFields struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Tags          []string `json:"tags"`
	Hashtags      []string `json:"hashtags"`
	ThumbnailText []string `json:"thumbnail_text"`
	PinnedComment string   `json:"pinned_comment"`
	Playlists     []string `json:"playlists"`
}

// Suggestion is one immutable generation result. Rows are only ever appended;
// the newest row per (video, language) is the one shown and applied.
type Suggestion struct {
	ID           int64     `db:"id" json:"id"`
	VideoID      string    `db:"video_id" json:"video_id"`
	LanguageCode string    `db:"language_code" json:"language_code"`
	SuggestionFields
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// NewSuggestion wraps generated fields for storage.
func NewSuggestion(videoID, languageCode string, fields SuggestionFields) *Suggestion {
	for _, list := range []*[]string{&fields.Tags, &fields.Hashtags, &fields.ThumbnailText, &fields.Playlists} {
		if *list == nil {
			*list = []string{}
		}
	}
	return &Suggestion{
		VideoID:          videoID,
		LanguageCode:     languageCode,
		SuggestionFields: fields,
	}
}

// Changes returns the subset of a suggestion that the apply step pushes to YouTube.
func (s *Suggestion) Changes() MetadataChanges {
	return MetadataChanges{
		Title:       s.Title,
		Description: s.Description,
		Tags:        append([]string(nil), s.Tags...),
	}
}
