package digest

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownStyle is returned for style names outside the supported set.
var ErrUnknownStyle = errors.New("unknown digest style")

// Style selects the prompt variant and the sections the parser keeps. The
// same Style must be used to build the prompt and to parse the reply.
type Style string

const (
	StyleClassic       Style = "classic"
	StyleAuthorFirst   Style = "author-first"
	StyleSocial        Style = "social"
	StyleAuthorSocial  Style = "author-social"
	StyleSummariesOnly Style = "summaries-only"

	DefaultStyle = StyleClassic
)

type styleProfile struct {
	combinedSummary bool
	authorFirst     bool
	socialPosts     bool
	description     string
}

var styleProfiles = map[Style]styleProfile{
	StyleClassic: {
		combinedSummary: true,
		description:     "headline, combined summary and verb-first article summaries",
	},
	StyleAuthorFirst: {
		combinedSummary: true,
		authorFirst:     true,
		description:     "headline, combined summary and summaries that open with the author's name",
	},
	StyleSocial: {
		combinedSummary: true,
		socialPosts:     true,
		description:     "classic digest plus a social media post per article",
	},
	StyleAuthorSocial: {
		combinedSummary: true,
		authorFirst:     true,
		socialPosts:     true,
		description:     "author-first digest plus a social media post per article",
	},
	StyleSummariesOnly: {
		description: "headline and verb-first article summaries without a combined summary",
	},
}

// Styles lists every supported style, default first.
func Styles() []Style {
	return []Style{
		StyleClassic,
		StyleAuthorFirst,
		StyleSocial,
		StyleAuthorSocial,
		StyleSummariesOnly,
	}
}

// ParseStyle resolves a style name. An empty name selects DefaultStyle.
func ParseStyle(name string) (Style, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return DefaultStyle, nil
	}
	style := Style(name)
	if _, ok := styleProfiles[style]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStyle, name)
	}
	return style, nil
}

// Valid reports whether s is a supported style.
func (s Style) Valid() bool {
	_, ok := styleProfiles[s]
	return ok
}

// CombinedSummary reports whether the style asks for a combined summary.
func (s Style) CombinedSummary() bool {
	return styleProfiles[s].combinedSummary
}

// AuthorFirst reports whether summaries open with the author's name rather
// than an active verb.
func (s Style) AuthorFirst() bool {
	return styleProfiles[s].authorFirst
}

// SocialPosts reports whether the style asks for social media posts.
func (s Style) SocialPosts() bool {
	return styleProfiles[s].socialPosts
}

// Description is a one-line human readable summary of the style.
func (s Style) Description() string {
	return styleProfiles[s].description
}

func (s Style) String() string {
	return string(s)
}
