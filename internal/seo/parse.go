package seo

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/ad-tracker/youtube-seo-workflow-go/internal/validation"
)

const maxThumbnailWords = 10

var (
	hashtagRe       = regexp.MustCompile(`#\w+`)
	whitespaceRe    = regexp.MustCompile(`\s+`)
	listNumberingRe = regexp.MustCompile(`^[\d\-\.\)\*•]+\s*`)
)

func trimQuotes(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"'`)
}

// cleanTitle strips wrapping quotes and enforces the YouTube title limit.
func cleanTitle(raw string) string {
	title := trimQuotes(raw)
	if r := []rune(title); len(r) > validation.MaxTitleLength {
		title = string(r[:validation.MaxTitleLength-3]) + "..."
	}
	return title
}

func cleanDescription(raw string) string {
	desc := strings.TrimSpace(raw)
	if r := []rune(desc); len(r) > validation.MaxDescriptionLength {
		desc = string(r[:validation.MaxDescriptionLength-3]) + "..."
	}
	return desc
}

// parseTags accepts a JSON array or a comma-separated list. Tags must be
// longer than 2 and shorter than 100 characters.
func parseTags(raw string) []string {
	raw = strings.TrimSpace(raw)

	var parts []string
	var arr []any
	if err := json.Unmarshal([]byte(raw), &arr); err == nil {
		for _, v := range arr {
			if s, ok := v.(string); ok {
				parts = append(parts, s)
			}
		}
	} else {
		parts = strings.Split(raw, ",")
	}

	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.Trim(strings.TrimSpace(p), `"'[]`)
		if n := len([]rune(t)); n > 2 && n < 100 {
			tags = append(tags, t)
		}
	}
	return tags
}

// mergeTags appends generated tags after the originals, dropping
// case-insensitive duplicates, capped at the YouTube tag count.
func mergeTags(original, generated []string) []string {
	seen := make(map[string]struct{}, len(original)+len(generated))
	out := make([]string, 0, validation.MaxTags)

	for _, list := range [][]string{original, generated} {
		for _, t := range list {
			key := strings.ToLower(strings.TrimSpace(t))
			if len([]rune(key)) <= 2 {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, t)
			if len(out) == validation.MaxTags {
				return out
			}
		}
	}
	return out
}

// parseHashtags pulls #words out of the response; bare phrases without
// sentence punctuation are turned into hashtags.
func parseHashtags(raw string) []string {
	var found []string
	for _, part := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == '\n' }) {
		part = strings.TrimSpace(part)
		if tags := hashtagRe.FindAllString(part, -1); len(tags) > 0 {
			found = append(found, tags...)
			continue
		}
		if part == "" || strings.ContainsAny(part, ":?.") {
			continue
		}
		clean := whitespaceRe.ReplaceAllString(strings.Trim(part, "# "), "")
		if len([]rune(clean)) > 2 {
			found = append(found, "#"+clean)
		}
	}

	seen := map[string]struct{}{}
	out := make([]string, 0, validation.MaxHashtags)
	for _, h := range found {
		key := strings.ToLower(h)
		if _, dup := seen[key]; dup || len(h) <= 2 {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, h)
		if len(out) == validation.MaxHashtags {
			break
		}
	}
	return out
}

// parseThumbnailText reads one option per line, stripping list numbering.
func parseThumbnailText(raw string) []string {
	out := make([]string, 0, validation.MaxThumbnailOptions)
	for _, line := range strings.Split(raw, "\n") {
		text := trimQuotes(listNumberingRe.ReplaceAllString(strings.TrimSpace(line), ""))
		if text == "" || len(strings.Fields(text)) > maxThumbnailWords {
			continue
		}
		out = append(out, text)
		if len(out) == validation.MaxThumbnailOptions {
			break
		}
	}
	return out
}
