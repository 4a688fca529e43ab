// Package seo drafts replacement YouTube metadata for a video using an LLM.
// Each field is generated independently and falls back to a safe value when
// its generation fails, so a suggestion is always produced.
package seo

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ad-tracker/youtube-seo-workflow-go/internal/config"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/db/models"
	"github.com/ad-tracker/youtube-seo-workflow-go/internal/llm"
	"github.com/ad-tracker/youtube-seo-workflow-go/pkg/logger"
)

// Fallbacks are the values used when a field cannot be generated.
type Fallbacks struct {
	ShowName         string
	DefaultTags      []string
	DefaultHashtags  []string
	PinnedCommentFmt string // one %s for the show name
}

// FallbacksFromConfig maps the seo config section.
func FallbacksFromConfig(c config.SEOConfig) Fallbacks {
	return Fallbacks{
		ShowName:         c.ShowName,
		DefaultTags:      c.DefaultTags,
		DefaultHashtags:  c.DefaultHashtags,
		PinnedCommentFmt: c.PinnedCommentFmt,
	}
}

// Generator produces SuggestionFields for a video.
type Generator struct {
	client     llm.Client
	prompts    *Prompts
	fallbacks  Fallbacks
	onFallback func(Field)
	log        *zap.Logger
}

// Option customizes a Generator.
type Option func(*Generator)

// WithFallbackObserver registers a callback run whenever a field falls back.
func WithFallbackObserver(fn func(Field)) Option {
	return func(g *Generator) { g.onFallback = fn }
}

// NewGenerator creates a Generator. A nil prompts uses the embedded defaults.
func NewGenerator(client llm.Client, prompts *Prompts, fallbacks Fallbacks, opts ...Option) (*Generator, error) {
	if prompts == nil {
		p, err := DefaultPrompts()
		if err != nil {
			return nil, err
		}
		prompts = p
	}
	if fallbacks.ShowName == "" {
		fallbacks.ShowName = "The News Forum"
	}
	if fallbacks.PinnedCommentFmt == "" {
		fallbacks.PinnedCommentFmt = "Thanks for watching! Subscribe to %s for more Canadian news and analysis."
	}

	g := &Generator{
		client:    client,
		prompts:   prompts,
		fallbacks: fallbacks,
		log:       logger.L().Named("seo"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Generate drafts all six fields. It only returns an error when ctx is done;
// any other failure is absorbed by that field's fallback.
func (g *Generator) Generate(ctx context.Context, vc *VideoContext) (*models.SuggestionFields, error) {
	data := vc.promptData()
	video := vc.Video
	log := g.log.With(zap.String("videoId", video.VideoID))

	out := &models.SuggestionFields{Playlists: []string{}}

	// title
	if raw, err := g.complete(ctx, FieldTitle, data); err == nil && cleanTitle(raw) != "" {
		out.Title = cleanTitle(raw)
	} else {
		g.fellBack(log, FieldTitle, err)
		out.Title = cleanTitle(video.TitleOriginal)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// description
	if raw, err := g.complete(ctx, FieldDescription, data); err == nil && cleanDescription(raw) != "" {
		out.Description = cleanDescription(raw)
	} else {
		g.fellBack(log, FieldDescription, err)
		out.Description = cleanDescription(video.DescriptionOriginal)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// tags: never fewer than the video already has
	if raw, err := g.complete(ctx, FieldTags, data); err == nil {
		out.Tags = mergeTags(video.TagsOriginal, parseTags(raw))
	} else {
		g.fellBack(log, FieldTags, err)
		out.Tags = mergeTags(video.TagsOriginal, g.fallbacks.DefaultTags)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// hashtags
	if raw, err := g.complete(ctx, FieldHashtags, data); err == nil && len(parseHashtags(raw)) > 0 {
		out.Hashtags = parseHashtags(raw)
	} else {
		g.fellBack(log, FieldHashtags, err)
		out.Hashtags = append([]string{}, g.fallbacks.DefaultHashtags...)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// thumbnail text
	if raw, err := g.complete(ctx, FieldThumbnailText, data); err == nil && len(parseThumbnailText(raw)) > 0 {
		out.ThumbnailText = parseThumbnailText(raw)
	} else {
		g.fellBack(log, FieldThumbnailText, err)
		out.ThumbnailText = thumbnailFallback(video.TitleOriginal)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// pinned comment
	if raw, err := g.complete(ctx, FieldPinnedComment, data); err == nil && strings.TrimSpace(raw) != "" {
		out.PinnedComment = trimQuotes(raw)
	} else {
		g.fellBack(log, FieldPinnedComment, err)
		show := data.ShowName
		if show == "" {
			show = g.fallbacks.ShowName
		}
		out.PinnedComment = fmt.Sprintf(g.fallbacks.PinnedCommentFmt, show)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

func (g *Generator) complete(ctx context.Context, f Field, data promptData) (string, error) {
	def, prompt, err := g.prompts.render(f, data)
	if err != nil {
		return "", err
	}

	return g.client.Generate(ctx, llm.Request{
		System:      def.System,
		Prompt:      prompt,
		MaxTokens:   def.MaxTokens,
		Temperature: def.Temperature,
	})
}

func (g *Generator) fellBack(log *zap.Logger, f Field, err error) {
	if err != nil {
		log.Warn("field generation failed, using fallback", zap.String("field", string(f)), zap.Error(err))
	} else {
		log.Debug("field generation produced nothing usable, using fallback", zap.String("field", string(f)))
	}
	if g.onFallback != nil {
		g.onFallback(f)
	}
}

func thumbnailFallback(title string) []string {
	r := []rune(strings.TrimSpace(title))
	if len(r) == 0 {
		return []string{}
	}
	if len(r) > 40 {
		r = r[:40]
	}
	return []string{string(r)}
}
