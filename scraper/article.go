package scraper

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	nethtml "golang.org/x/net/html"
)

// UnknownAuthor is used when no author could be extracted from a page.
const UnknownAuthor = "Unknown Author"

// Length limits applied to extracted articles, in characters.
const (
	MaxTitleLength   = 500
	MaxAuthorLength  = 100
	MaxContentLength = 10000
	MinContentLength = 100
)

// Article is a successfully extracted article. Values are only produced by
// the Extractor and are not modified afterwards.
type Article struct {
	Title   string `json:"title"`
	Author  string `json:"author"`
	Content string `json:"content"`
	URL     string `json:"url"`
}

// nonContentSelectors lists subtrees dropped before reading element text.
const nonContentSelectors = "script, style, nav, footer, header"

// extractText returns the visible text of a selection with non-content
// subtrees removed, entities decoded and whitespace collapsed. The document
// itself is left untouched.
func extractText(sel *goquery.Selection) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}

	clone := sel.First().Clone()
	clone.Find(nonContentSelectors).Remove()

	var parts []string
	for _, node := range clone.Nodes {
		collectText(node, &parts)
	}

	text := html.UnescapeString(strings.Join(parts, " "))
	return normalizeWhitespace(text)
}

// collectText appends the trimmed, non-empty text nodes under n in document
// order.
func collectText(n *nethtml.Node, parts *[]string) {
	if n.Type == nethtml.TextNode {
		if t := strings.TrimSpace(n.Data); t != "" {
			*parts = append(*parts, t)
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, parts)
	}
}

// paragraphText joins the text of every non-empty <p> inside sel.
func paragraphText(sel *goquery.Selection) string {
	var parts []string
	sel.Find("p").Each(func(_ int, p *goquery.Selection) {
		if text := extractText(p); text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, " ")
}

// blockText is the paragraph text of sel, or the whole text of sel when it
// holds no paragraphs.
func blockText(sel *goquery.Selection) string {
	if sel.Find("p").Length() == 0 {
		return extractText(sel)
	}
	return paragraphText(sel)
}

// normalizeWhitespace collapses whitespace runs to single spaces.
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// runeLen counts characters rather than bytes.
func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// truncateRunes clamps s to at most n characters.
func truncateRunes(s string, n int) string {
	if runeLen(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
