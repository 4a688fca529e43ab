// Package validation holds the input rules shared by the registry, the HTTP
// API and the CLI.
package validation

import (
	"regexp"

	ozzo "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/ad-tracker/youtube-seo-workflow-go/internal/db/models"
)

const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 5000
	MaxTags              = 30
	MaxHashtags          = 10
	MaxThumbnailOptions  = 5
)

var (
	videoIDRegex      = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)
	channelIDRegex    = regexp.MustCompile(`^UC[a-zA-Z0-9_-]{22}$`)
	channelHandleRe   = regexp.MustCompile(`^@?[a-zA-Z0-9._-]{3,30}$`)
	languageCodeRegex = regexp.MustCompile(`^[a-z]{2,3}(-[A-Za-z0-9]{2,8})?$`)
)

// VideoIDRule checks the 11 character YouTube video id format.
var VideoIDRule = ozzo.Match(videoIDRegex).Error("must be an 11 character YouTube video id")

// LanguageCodeRule checks a BCP 47 style code such as "en" or "fr-CA".
var LanguageCodeRule = ozzo.Match(languageCodeRegex).Error("must be a language code such as en or fr-CA")

func IsValidVideoID(videoID string) bool {
	return videoIDRegex.MatchString(videoID)
}

func IsValidChannelID(channelID string) bool {
	return channelIDRegex.MatchString(channelID)
}

func IsValidChannelHandle(handle string) bool {
	return channelHandleRe.MatchString(handle)
}

func IsValidLanguageCode(code string) bool {
	return languageCodeRegex.MatchString(code)
}

// ValidateVideo checks a registry row before it is written.
func ValidateVideo(v *models.Video) error {
	return ozzo.ValidateStruct(v,
		ozzo.Field(&v.VideoID, ozzo.Required, VideoIDRule),
		ozzo.Field(&v.ChannelID, ozzo.Required),
		ozzo.Field(&v.Status, ozzo.By(func(value interface{}) error {
			s, _ := value.(models.Status)
			if s == "" || s.Valid() {
				return nil
			}
			return ozzo.NewError("validation_status", "must be pending, suggested, approved or applied")
		})),
	)
}

// ValidateSuggestion checks a generated suggestion before it is stored.
func ValidateSuggestion(s *models.Suggestion) error {
	return ozzo.ValidateStruct(s,
		ozzo.Field(&s.VideoID, ozzo.Required),
		ozzo.Field(&s.LanguageCode, ozzo.Required, LanguageCodeRule),
		ozzo.Field(&s.Title, ozzo.RuneLength(0, MaxTitleLength)),
		ozzo.Field(&s.Description, ozzo.RuneLength(0, MaxDescriptionLength)),
		ozzo.Field(&s.Tags, ozzo.Length(0, MaxTags)),
		ozzo.Field(&s.Hashtags, ozzo.Length(0, MaxHashtags)),
		ozzo.Field(&s.ThumbnailText, ozzo.Length(0, MaxThumbnailOptions)),
	)
}
