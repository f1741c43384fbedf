package digest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
)

const (
	untitled      = "Untitled"
	unknownAuthor = "Unknown Author"
)

// Format renders d as markdown text with the default word limit.
func Format(d *Digest) string {
	return FormatWithLimit(d, DefaultMaxSummaryWords)
}

// FormatWithLimit renders d as markdown text, enforcing maxWords on every
// article summary.
func FormatWithLimit(d *Digest, maxWords int) string {
	if d == nil {
		return ""
	}

	var lines []string

	lines = append(lines, d.Headline, "")

	if d.CombinedSummary != "" {
		lines = append(lines, d.CombinedSummary, "")
	}

	lines = append(lines, "Articles", "")

	for i, s := range d.ArticleSummaries {
		title := s.Title
		if title == "" {
			title = untitled
		}
		author := s.Author
		if author == "" {
			author = unknownAuthor
		}

		lines = append(lines,
			fmt.Sprintf("%d. **%s**", i+1, title),
			fmt.Sprintf("*%s*", author),
			TruncateWords(s.Summary, maxWords),
			"",
		)
	}

	if len(d.SocialPosts) > 0 {
		lines = append(lines, "Social Posts", "")
		for i, post := range d.SocialPosts {
			lines = append(lines, fmt.Sprintf("%d. **%s**", i+1, post.Headline), TruncateWords(post.Summary, maxWords))
			if post.URL != "" {
				lines = append(lines, post.URL)
			}
			lines = append(lines, "")
		}
	}

	return strings.Join(lines, "\n")
}

// RenderHTML converts the markdown form of d to an HTML fragment.
func RenderHTML(d *Digest, maxWords int) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(FormatWithLimit(d, maxWords)), &buf); err != nil {
		return "", fmt.Errorf("failed to render HTML: %w", err)
	}
	return buf.String(), nil
}
