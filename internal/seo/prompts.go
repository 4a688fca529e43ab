package seo

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var defaultPrompts []byte

// Field names a generated metadata field.
type Field string

const (
	FieldTitle         Field = "title"
	FieldDescription   Field = "description"
	FieldTags          Field = "tags"
	FieldHashtags      Field = "hashtags"
	FieldThumbnailText Field = "thumbnail_text"
	FieldPinnedComment Field = "pinned_comment"
)

var allFields = []Field{
	FieldTitle, FieldDescription, FieldTags, FieldHashtags, FieldThumbnailText, FieldPinnedComment,
}

type promptDef struct {
	System      string  `yaml:"system"`
	User        string  `yaml:"user"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`

	tmpl *template.Template
}

// Prompts holds one parsed template per field.
type Prompts struct {
	defs map[Field]*promptDef
}

var templateFuncs = template.FuncMap{
	// join renders up to n items (n <= 0 means all) or the fallback when empty.
	"join": func(items []string, n int, fallback string) string {
		if len(items) == 0 {
			return fallback
		}
		if n > 0 && len(items) > n {
			items = items[:n]
		}
		return strings.Join(items, ", ")
	},
	"truncate": func(s string, n int) string {
		r := []rune(s)
		if len(r) <= n {
			return s
		}
		return string(r[:n])
	},
}

// DefaultPrompts parses the embedded prompt set.
func DefaultPrompts() (*Prompts, error) {
	return ParsePrompts(defaultPrompts)
}

// ParsePrompts parses a YAML prompt set. Every field must be present.
func ParsePrompts(data []byte) (*Prompts, error) {
	raw := map[Field]*promptDef{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse prompts: %w", err)
	}

	for _, f := range allFields {
		def, ok := raw[f]
		if !ok || def == nil {
			return nil, fmt.Errorf("prompts: missing %q", f)
		}
		tmpl, err := template.New(string(f)).Funcs(templateFuncs).Option("missingkey=error").Parse(def.User)
		if err != nil {
			return nil, fmt.Errorf("prompts: %s: %w", f, err)
		}
		def.tmpl = tmpl
	}

	return &Prompts{defs: raw}, nil
}

func (p *Prompts) render(f Field, data promptData) (*promptDef, string, error) {
	def := p.defs[f]
	var buf bytes.Buffer
	if err := def.tmpl.Execute(&buf, data); err != nil {
		return nil, "", fmt.Errorf("render %s prompt: %w", f, err)
	}
	return def, buf.String(), nil
}
