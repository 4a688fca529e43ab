package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ad-tracker/youtube-seo-workflow-go/internal/db/models"
)

func TestIsValidVideoID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"dQw4w9WgXcQ", true},
		{"abc_DEF-123", true},
		{"short", false},
		{"dQw4w9WgXcQQ", false},
		{"dQw4w9WgX!Q", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidVideoID(tt.id))
		})
	}
}

func TestIsValidChannelID(t *testing.T) {
	assert.True(t, IsValidChannelID("UCuAXFkgsw1L7xaCfnd5JJOw"))
	assert.False(t, IsValidChannelID("uCuAXFkgsw1L7xaCfnd5JJOw"))
	assert.False(t, IsValidChannelID("UC123"))
}

func TestIsValidChannelHandle(t *testing.T) {
	assert.True(t, IsValidChannelHandle("@TheNewsForum"))
	assert.True(t, IsValidChannelHandle("TheNewsForum"))
	assert.False(t, IsValidChannelHandle("@a"))
	assert.False(t, IsValidChannelHandle("@has space"))
}

func TestIsValidLanguageCode(t *testing.T) {
	for _, code := range []string{"en", "fr", "fr-CA", "pt-BR", "fil"} {
		assert.True(t, IsValidLanguageCode(code), code)
	}
	for _, code := range []string{"", "EN", "english", "en_US"} {
		assert.False(t, IsValidLanguageCode(code), code)
	}
}

func TestValidateVideo(t *testing.T) {
	valid := func() *models.Video {
		return models.NewVideo("dQw4w9WgXcQ", "UCuAXFkgsw1L7xaCfnd5JJOw", "t", "d", nil, nil)
	}

	t.Run("empty status is accepted", func(t *testing.T) {
		assert.NoError(t, ValidateVideo(valid()))
	})

	t.Run("known status is accepted", func(t *testing.T) {
		v := valid()
		v.Status = models.StatusApproved
		assert.NoError(t, ValidateVideo(v))
	})

	t.Run("unknown status is rejected", func(t *testing.T) {
		v := valid()
		v.Status = models.Status("published")
		assert.Error(t, ValidateVideo(v))
	})

	t.Run("bad video id is rejected", func(t *testing.T) {
		v := valid()
		v.VideoID = "nope"
		assert.Error(t, ValidateVideo(v))
	})

	t.Run("missing channel is rejected", func(t *testing.T) {
		v := valid()
		v.ChannelID = ""
		assert.Error(t, ValidateVideo(v))
	})
}

func TestValidateSuggestion(t *testing.T) {
	t.Run("valid suggestion", func(t *testing.T) {
		s := models.NewSuggestion("dQw4w9WgXcQ", "en", models.SuggestionFields{
			Title: "A title",
			Tags:  []string{"news"},
		})
		assert.NoError(t, ValidateSuggestion(s))
	})

	t.Run("title over the YouTube limit", func(t *testing.T) {
		s := models.NewSuggestion("dQw4w9WgXcQ", "en", models.SuggestionFields{
			Title: strings.Repeat("x", MaxTitleLength+1),
		})
		assert.Error(t, ValidateSuggestion(s))
	})

	t.Run("too many tags", func(t *testing.T) {
		tags := make([]string, MaxTags+1)
		for i := range tags {
			tags[i] = "tag"
		}
		s := models.NewSuggestion("dQw4w9WgXcQ", "en", models.SuggestionFields{Tags: tags})
		assert.Error(t, ValidateSuggestion(s))
	})

	t.Run("bad language code", func(t *testing.T) {
		s := models.NewSuggestion("dQw4w9WgXcQ", "English", models.SuggestionFields{})
		assert.Error(t, ValidateSuggestion(s))
	})
}
