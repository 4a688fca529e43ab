package seo

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanTitle(t *testing.T) {
	assert.Equal(t, "Budget 2025 explained", cleanTitle(`  "Budget 2025 explained" `))

	long := strings.Repeat("a", 150)
	got := cleanTitle(long)
	assert.Len(t, []rune(got), 100)
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestParseTags(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"json array", `["federal budget", "canada", "ai"]`, []string{"federal budget", "canada"}},
		{"comma list", "federal budget, canada ,  interest rates", []string{"federal budget", "canada", "interest rates"}},
		{"quoted items", `"housing", 'ottawa'`, []string{"housing", "ottawa"}},
		{"empty", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseTags(tt.raw))
		})
	}
}

func TestMergeTags(t *testing.T) {
	t.Run("originals first, case-insensitive dedupe", func(t *testing.T) {
		got := mergeTags([]string{"News", "Canada"}, []string{"news", "ottawa", "canada", "politics"})
		assert.Equal(t, []string{"News", "Canada", "ottawa", "politics"}, got)
	})

	t.Run("capped at 30", func(t *testing.T) {
		var gen []string
		for i := 0; i < 50; i++ {
			gen = append(gen, fmt.Sprintf("tag%02d", i))
		}
		got := mergeTags([]string{"original"}, gen)
		assert.Len(t, got, 30)
		assert.Equal(t, "original", got[0])
	})

	t.Run("never drops an original", func(t *testing.T) {
		orig := []string{"alpha", "beta", "gamma"}
		got := mergeTags(orig, nil)
		assert.Equal(t, orig, got)
	})
}

func TestParseHashtags(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"inline hashtags", "#CanadianNews #Budget2025 #Ottawa", []string{"#CanadianNews", "#Budget2025", "#Ottawa"}},
		{"bare phrases", "Canadian News, Federal Budget", []string{"#CanadianNews", "#FederalBudget"}},
		{"dedupe", "#News, #news, #Canada", []string{"#News", "#Canada"}},
		{"drops sentences", "Here are some hashtags: \n#Canada", []string{"#Canada"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseHashtags(tt.raw))
		})
	}

	t.Run("capped at 10", func(t *testing.T) {
		var b strings.Builder
		for i := 0; i < 15; i++ {
			fmt.Fprintf(&b, "#tag%d ", i)
		}
		assert.Len(t, parseHashtags(b.String()), 10)
	})
}

func TestParseThumbnailText(t *testing.T) {
	raw := "1. BUDGET SHOCK\n2) \"WHO PAYS?\"\n- RATES CUT\n\nthis line has far too many words to ever fit on a thumbnail image\n* OTTAWA BLINKS\n• HOUSING CRISIS\n6. ONE MORE"
	got := parseThumbnailText(raw)
	assert.Equal(t, []string{"BUDGET SHOCK", "WHO PAYS?", "RATES CUT", "OTTAWA BLINKS", "HOUSING CRISIS"}, got)
}
