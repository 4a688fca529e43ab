package seo

import (
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/db/models"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/enrichment"
)

// VideoContext is everything known about a video when its suggestion is generated.
// Episode is nil when the video is unlinked or the lookup failed.
type VideoContext struct {
	Video   *models.Video
	Episode *enrichment.Episode
}

type promptData struct {
	Title       string
	Description string
	Tags        []string
	ShowName    string
	Topics      []string
	Guests      []string
	Entities    []string
	KeyMoments  []string
	Summary     string
}

func (vc *VideoContext) promptData() promptData {
	d := promptData{
		Title:       vc.Video.TitleOriginal,
		Description: vc.Video.DescriptionOriginal,
		Tags:        vc.Video.TagsOriginal,
	}

	if ep := vc.Episode; ep != nil {
		d.ShowName = ep.ShowName
		d.Topics = ep.Topics
		d.Guests = ep.GuestNames
		d.Entities = ep.Entities
		d.KeyMoments = ep.KeyMoments
		if len(d.KeyMoments) > 5 {
			d.KeyMoments = d.KeyMoments[:5]
		}
		d.Summary = ep.Summary
	}

	// Without episode topics the original title is the best topic signal.
	if len(d.Topics) == 0 && d.Title != "" {
		d.Topics = []string{d.Title}
	}

	return d
}
