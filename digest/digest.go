// Package digest turns scraped articles into a model prompt and parses the
// model's reply into a structured digest.
package digest

import (
	"strings"
)

// Defaults for Options.
const (
	DefaultMaxSummaryWords = 50
	DefaultContentBudget   = 5000
)

const ellipsis = "..."

// Digest is the parsed model reply.
type Digest struct {
	Headline         string           `json:"headline"`
	CombinedSummary  string           `json:"combined_summary,omitempty"`
	ArticleSummaries []ArticleSummary `json:"article_summaries"`
	SocialPosts      []SocialPost     `json:"social_posts,omitempty"`
	Style            Style            `json:"style"`
}

// ArticleSummary is one per-article entry. URL always comes from the input
// article at the same position, never from the model.
type ArticleSummary struct {
	Title   string `json:"title"`
	Author  string `json:"author"`
	Summary string `json:"summary"`
	URL     string `json:"url"`
}

// SocialPost is one social media post, matched to an article by position.
type SocialPost struct {
	Headline string `json:"headline"`
	Summary  string `json:"summary"`
	URL      string `json:"url"`
}

// Options tune prompt building and parsing.
type Options struct {
	// MaxSummaryWords is the hard word limit for article and social post
	// summaries.
	MaxSummaryWords int `json:"max_summary_words" yaml:"max_summary_words"`

	// ContentBudget is how many characters of each article are sent to the
	// model.
	ContentBudget int `json:"content_budget" yaml:"content_budget"`
}

// WithDefaults returns a copy with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	if o.MaxSummaryWords <= 0 {
		o.MaxSummaryWords = DefaultMaxSummaryWords
	}
	if o.ContentBudget <= 0 {
		o.ContentBudget = DefaultContentBudget
	}
	return o
}

// TruncateWords limits s to max words, appending "..." when words were
// dropped. Text within the limit is returned unchanged.
func TruncateWords(s string, max int) string {
	if max <= 0 {
		return s
	}
	words := strings.Fields(s)
	if len(words) <= max {
		return s
	}
	return strings.Join(words[:max], " ") + ellipsis
}
