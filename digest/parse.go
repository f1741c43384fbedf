package digest

import (
	"regexp"
	"strings"

	"github.com/pevans/newsdigest/scraper"
)

// Grammar tokens of the model reply.
const (
	tokenHeadline        = "HEADLINE:"
	tokenCombinedSummary = "COMBINED_SUMMARY:"
	tokenArticles        = "ARTICLE_SUMMARIES:"
	tokenSocialPosts     = "SOCIAL_POSTS:"
	tokenTitle           = "TITLE:"
	tokenAuthor          = "AUTHOR:"
	tokenSummary         = "SUMMARY:"
	tokenPostHeadline    = "POST_HEADLINE:"
	tokenPostSummary     = "POST_SUMMARY:"
)

var (
	numberedTitle        = regexp.MustCompile(`^\d+\.\s*TITLE:(.*)$`)
	numberedPostHeadline = regexp.MustCompile(`^\d+\.\s*POST_HEADLINE:(.*)$`)
)

type parseState int

const (
	stateNone parseState = iota
	stateHeadline
	stateCombined
	stateArticles
	stateSocial
)

// record is an article summary or social post still being read.
type record struct {
	title      string
	author     string
	summary    string
	hasSummary bool
}

type parser struct {
	state    parseState
	current  *record
	articles []record
	posts    []record
	digest   Digest
}

// Parse reads a model reply into a Digest. It never fails: unrecognized
// lines are skipped and missing records are simply absent.
func Parse(raw string, articles []scraper.Article, style Style, opts Options) *Digest {
	opts = opts.WithDefaults()
	if !style.Valid() {
		style = DefaultStyle
	}

	p := &parser{}
	for _, line := range strings.Split(strings.TrimSpace(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		p.line(line)
	}
	p.flush()

	d := p.digest
	d.Style = style
	d.CombinedSummary = normalizeSpace(d.CombinedSummary)
	if !style.CombinedSummary() {
		d.CombinedSummary = ""
	}

	d.ArticleSummaries = make([]ArticleSummary, 0, len(p.articles))
	for i, r := range p.articles {
		summary := ArticleSummary{
			Title:   r.title,
			Author:  r.author,
			Summary: TruncateWords(r.summary, opts.MaxSummaryWords),
		}
		if i < len(articles) {
			summary.URL = articles[i].URL
		}
		d.ArticleSummaries = append(d.ArticleSummaries, summary)
	}

	if style.SocialPosts() {
		for i, r := range p.posts {
			post := SocialPost{
				Headline: r.title,
				Summary:  TruncateWords(r.summary, opts.MaxSummaryWords),
			}
			if i < len(articles) {
				post.URL = articles[i].URL
			}
			d.SocialPosts = append(d.SocialPosts, post)
		}
	}

	return &d
}

func (p *parser) line(line string) {
	switch {
	case strings.HasPrefix(line, tokenHeadline):
		p.flush()
		p.state = stateHeadline
		p.digest.Headline = value(line, tokenHeadline)
		return
	case strings.HasPrefix(line, tokenCombinedSummary):
		p.flush()
		p.state = stateCombined
		p.digest.CombinedSummary = value(line, tokenCombinedSummary)
		return
	case strings.HasPrefix(line, tokenArticles):
		p.flush()
		p.state = stateArticles
		return
	case strings.HasPrefix(line, tokenSocialPosts):
		p.flush()
		p.state = stateSocial
		return
	}

	switch p.state {
	case stateArticles:
		p.articleLine(line)
	case stateSocial:
		p.socialLine(line)
	}
}

func (p *parser) articleLine(line string) {
	if m := numberedTitle.FindStringSubmatch(line); m != nil {
		p.open(strings.TrimSpace(m[1]))
		return
	}

	switch {
	case strings.HasPrefix(line, tokenTitle):
		p.open(value(line, tokenTitle))
	case strings.HasPrefix(line, tokenAuthor):
		p.record().author = value(line, tokenAuthor)
	case strings.HasPrefix(line, tokenSummary):
		p.setSummary(value(line, tokenSummary))
	default:
		p.continueSummary(line)
	}
}

func (p *parser) socialLine(line string) {
	if m := numberedPostHeadline.FindStringSubmatch(line); m != nil {
		p.open(strings.TrimSpace(m[1]))
		return
	}

	switch {
	case strings.HasPrefix(line, tokenPostHeadline):
		p.open(value(line, tokenPostHeadline))
	case strings.HasPrefix(line, tokenPostSummary):
		p.setSummary(value(line, tokenPostSummary))
	default:
		p.continueSummary(line)
	}
}

// open flushes the current record and starts a new one.
func (p *parser) open(title string) {
	p.flush()
	p.current = &record{title: title}
}

// record returns the open record, opening an untitled one if needed.
func (p *parser) record() *record {
	if p.current == nil {
		p.current = &record{}
	}
	return p.current
}

func (p *parser) setSummary(summary string) {
	r := p.record()
	r.summary = summary
	r.hasSummary = true
}

// continueSummary appends a wrapped summary line to the open record.
func (p *parser) continueSummary(line string) {
	if p.current == nil || !p.current.hasSummary {
		return
	}
	if p.current.summary == "" {
		p.current.summary = line
		return
	}
	p.current.summary += " " + line
}

// flush stores the open record in the section it was read from.
func (p *parser) flush() {
	if p.current == nil {
		return
	}
	switch p.state {
	case stateArticles:
		p.articles = append(p.articles, *p.current)
	case stateSocial:
		p.posts = append(p.posts, *p.current)
	}
	p.current = nil
}

func value(line, token string) string {
	return strings.TrimSpace(strings.TrimPrefix(line, token))
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
