package digest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFormat verifies the rendered layout
func TestFormat(t *testing.T) {
	d := &Digest{
		Headline:        "The Headline",
		CombinedSummary: "Everything at once.",
		ArticleSummaries: []ArticleSummary{
			{Title: "First", Author: "Ann", Summary: "Argues one thing."},
			{Summary: "Missing title and author."},
		},
	}

	want := strings.Join([]string{
		"The Headline",
		"",
		"Everything at once.",
		"",
		"Articles",
		"",
		"1. **First**",
		"*Ann*",
		"Argues one thing.",
		"",
		"2. **Untitled**",
		"*Unknown Author*",
		"Missing title and author.",
		"",
	}, "\n")

	assert.Equal(t, want, Format(d))
}

// TestFormat_NoCombinedSummary verifies the combined summary block is
// omitted when empty
func TestFormat_NoCombinedSummary(t *testing.T) {
	out := Format(&Digest{Headline: "H"})

	assert.Equal(t, "H\n\nArticles\n", out)
}

// TestFormat_EnforcesWordLimit verifies summaries are truncated at format
// time
func TestFormat_EnforcesWordLimit(t *testing.T) {
	d := &Digest{ArticleSummaries: []ArticleSummary{{Summary: strings.Repeat("w ", 60)}}}

	out := Format(d)
	assert.Contains(t, out, strings.TrimSpace(strings.Repeat("w ", 50))+"...")

	out = FormatWithLimit(d, 3)
	assert.Contains(t, out, "\nw w w...\n")
}

// TestFormat_SocialPosts verifies the social section
func TestFormat_SocialPosts(t *testing.T) {
	d := &Digest{
		Headline:    "H",
		SocialPosts: []SocialPost{{Headline: "Post", Summary: "Click.", URL: "https://example.com/a"}},
	}

	out := Format(d)

	assert.True(t, strings.HasSuffix(out, "Social Posts\n\n1. **Post**\nClick.\nhttps://example.com/a\n"))
}

// TestFormat_TruncatesSocialPosts verifies the word limit covers posts
func TestFormat_TruncatesSocialPosts(t *testing.T) {
	d := &Digest{
		Headline:    "H",
		SocialPosts: []SocialPost{{Headline: "Post", Summary: "a b c d e"}},
	}

	out := FormatWithLimit(d, 2)

	assert.Contains(t, out, "1. **Post**\na b...\n")
}

// TestFormat_Nil verifies a nil digest renders as empty text
func TestFormat_Nil(t *testing.T) {
	assert.Empty(t, Format(nil))
}

// TestRenderHTML verifies markdown is converted to HTML
func TestRenderHTML(t *testing.T) {
	d := &Digest{
		Headline:         "H",
		ArticleSummaries: []ArticleSummary{{Title: "First", Author: "Ann", Summary: "S"}},
	}

	out, err := RenderHTML(d, DefaultMaxSummaryWords)

	require.NoError(t, err)
	assert.Contains(t, out, "<strong>First</strong>")
	assert.Contains(t, out, "<em>Ann</em>")
	assert.Contains(t, out, "<p>H</p>")
}
