package scraper

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"go.uber.org/zap"
)

const (
	// maxTitleCandidate and maxAuthorCandidate reject selector matches that
	// are too long to be a real title or byline.
	maxTitleCandidate  = 300
	maxAuthorCandidate = 100

	// minContentCandidate is the length a content selector match must exceed
	// to stop the cascade.
	minContentCandidate = 200

	// authorCutLength is the length above which an author string is cut at
	// its first separator.
	authorCutLength = 60
	authorCutMax    = 50

	authorTrimChars = ".,;:-|/\\\"'"
)

// bylinePrefix matches "By ", "Written by " and "Author: " at a word start.
var bylinePrefix = regexp.MustCompile(`\b(?:Written by|written by|By|by|Author:|author:) `)

// authorBoilerplate is removed from author strings, longest phrase first.
var authorBoilerplate = compileBoilerplate([]string{
	"About the Authors",
	"Follow on Twitter",
	"About the Author",
	"View all posts",
	"More articles",
	"Follow on X",
	"Subscribe",
	"Read more",
	"Facebook",
	"LinkedIn",
	"Twitter",
	"Contact",
	"Follow",
	"About",
	"Share",
	"Email",
	" | ",
	" - ",
})

// authorSeparators are tried in order when cutting an overlong author.
var authorSeparators = []string{",", " and ", " & ", "."}

func compileBoilerplate(phrases []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(phrases))
	for i, phrase := range phrases {
		patterns[i] = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(phrase))
	}
	return patterns
}

// Extractor pulls an Article out of a parsed article page.
type Extractor struct {
	selectors   SelectorConfig
	readability bool
	logger      *zap.Logger
}

// NewExtractor creates an extractor from the given configuration.
func NewExtractor(cfg Config) *Extractor {
	cfg = cfg.WithDefaults()
	return &Extractor{
		selectors:   cfg.Selectors,
		readability: !cfg.DisableReadability,
		logger:      cfg.Logger,
	}
}

// Extract returns the article found in doc, or nil when the page does not
// hold a usable article. It never panics.
func (e *Extractor) Extract(doc *goquery.Document, pageURL string) (article *Article) {
	if doc == nil {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("recovered from panic during extraction",
				zap.String("url", pageURL),
				zap.Any("panic", r),
			)
			article = nil
		}
	}()

	title := e.extractTitle(doc)
	author := e.extractAuthor(doc)
	content := e.extractContent(doc)

	if runeLen(content) < MinContentLength && e.readability {
		title, author, content = e.applyReadability(doc, pageURL, title, author, content)
	}

	if title == "" || content == "" || runeLen(content) < MinContentLength {
		e.logger.Debug("page has no usable article",
			zap.String("url", pageURL),
			zap.Bool("has_title", title != ""),
			zap.Int("content_length", runeLen(content)),
		)
		return nil
	}

	return &Article{
		Title:   truncateRunes(title, MaxTitleLength),
		Author:  truncateRunes(author, MaxAuthorLength),
		Content: truncateRunes(content, MaxContentLength),
		URL:     pageURL,
	}
}

// extractTitle returns the first selector match that is non-empty and short
// enough to be a title.
func (e *Extractor) extractTitle(doc *goquery.Document) string {
	for _, selector := range e.selectors.Title {
		el := doc.Find(selector).First()
		if el.Length() == 0 {
			continue
		}
		if title := extractText(el); title != "" && runeLen(title) < maxTitleCandidate {
			return title
		}
	}
	return ""
}

// extractAuthor returns the first cleaned selector match that looks like a
// byline, or UnknownAuthor.
func (e *Extractor) extractAuthor(doc *goquery.Document) string {
	for _, selector := range e.selectors.Author {
		el := doc.Find(selector).First()
		if el.Length() == 0 {
			continue
		}
		if author := cleanAuthorName(extractText(el)); author != "" && runeLen(author) < maxAuthorCandidate {
			return author
		}
	}
	return UnknownAuthor
}

// extractContent walks the content cascade and falls back to the paragraphs
// of the first article, main or .post element when nothing long enough was
// found.
func (e *Extractor) extractContent(doc *goquery.Document) string {
	var content string
	for _, selector := range e.selectors.Content {
		el := doc.Find(selector).First()
		if el.Length() == 0 {
			continue
		}
		content = blockText(el)
		if runeLen(content) > minContentCandidate {
			return content
		}
	}

	for _, selector := range e.selectors.ContentFallback {
		el := doc.Find(selector).First()
		if el.Length() == 0 {
			continue
		}
		if fallback := paragraphText(el); runeLen(fallback) > runeLen(content) {
			content = fallback
		}
		break
	}

	return content
}

// applyReadability replaces thin content with the readability extraction of
// the whole page. The title and author are only filled in when missing.
func (e *Extractor) applyReadability(doc *goquery.Document, pageURL, title, author, content string) (string, string, string) {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return title, author, content
	}

	page, err := doc.Html()
	if err != nil || strings.TrimSpace(page) == "" {
		return title, author, content
	}

	result, err := readability.FromReader(strings.NewReader(page), parsedURL)
	if err != nil {
		e.logger.Debug("readability extraction failed", zap.String("url", pageURL), zap.Error(err))
		return title, author, content
	}

	if text := normalizeWhitespace(result.TextContent); runeLen(text) > runeLen(content) {
		content = text
	}
	if title == "" {
		title = normalizeWhitespace(result.Title)
	}
	if author == UnknownAuthor {
		if byline := cleanAuthorName(result.Byline); byline != "" && runeLen(byline) < maxAuthorCandidate {
			author = byline
		}
	}

	return title, author, content
}

// cleanAuthorName strips byline prefixes, social and navigation boilerplate
// and trailing punctuation from a raw author string.
func cleanAuthorName(author string) string {
	if author == "" {
		return ""
	}

	author = bylinePrefix.ReplaceAllString(author, "")

	for _, pattern := range authorBoilerplate {
		for pattern.MatchString(author) {
			author = pattern.ReplaceAllString(author, "")
		}
	}

	author = normalizeWhitespace(author)

	if runeLen(author) > authorCutLength {
		for _, sep := range authorSeparators {
			if !strings.Contains(author, sep) {
				continue
			}
			first := strings.TrimSpace(strings.SplitN(author, sep, 2)[0])
			if first != "" && runeLen(first) < authorCutMax {
				author = first
				break
			}
		}
	}

	author = strings.Trim(author, authorTrimChars)
	return strings.TrimSpace(author)
}
