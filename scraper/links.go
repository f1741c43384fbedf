package scraper

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// skipPatterns mark URLs that point at listing, taxonomy or utility pages
// rather than articles.
var skipPatterns = []string{
	"/tag/", "/tags/", "/category/", "/categories/",
	"/author/", "/page/", "/search", "/login", "/signup",
	"/contact", "/about", "/privacy", "/terms", "/subscribe",
	"/feed", "/rss", "#", "javascript:", "mailto:",
	"/blog-tag/", "/blog-category/", "/blog-author/",
	"-tag/", "-category/", "-author/",
}

// isArticleURL reports whether rawURL contains none of the skip patterns.
func isArticleURL(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, pattern := range skipPatterns {
		if strings.Contains(lower, pattern) {
			return false
		}
	}
	return true
}

// linkCollector accumulates resolved candidate links for one listing page.
type linkCollector struct {
	base     *url.URL
	baseHost string
	seen     map[string]bool
	links    []string
}

func newLinkCollector(base *url.URL) *linkCollector {
	return &linkCollector{
		base:     base,
		baseHost: strings.TrimPrefix(strings.ToLower(base.Hostname()), "www."),
		seen:     make(map[string]bool),
	}
}

// resolve turns href into an absolute URL that passes the shared filters.
func (c *linkCollector) resolve(href string) (*url.URL, bool) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return nil, false
	}

	u := c.base.ResolveReference(ref)
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, false
	}
	if !c.sameDomain(u) {
		return nil, false
	}
	if !isArticleURL(u.String()) {
		return nil, false
	}

	return u, true
}

// sameDomain reports whether u is on the base host or one of its subdomains.
func (c *linkCollector) sameDomain(u *url.URL) bool {
	host := strings.ToLower(u.Hostname())
	return host == c.baseHost || strings.HasSuffix(host, "."+c.baseHost)
}

// add records u unless it was already seen.
func (c *linkCollector) add(u *url.URL) {
	s := u.String()
	if c.seen[s] {
		return
	}
	c.seen[s] = true
	c.links = append(c.links, s)
}

// pathSegments returns the non-empty segments of a URL path.
func pathSegments(path string) []string {
	var segments []string
	for _, part := range strings.Split(path, "/") {
		if part != "" {
			segments = append(segments, part)
		}
	}
	return segments
}

// linkStrategy finds candidate links in a listing page.
type linkStrategy func(doc *goquery.Document, c *linkCollector, selectors SelectorConfig)

// linkStrategies are tried in order; the first to produce a link wins.
var linkStrategies = []linkStrategy{
	cardLinks,
	containerLinks,
	mainContentLinks,
	wholePageLinks,
}

// DiscoverLinks returns candidate article URLs from a listing page, in
// document order and without duplicates.
func DiscoverLinks(doc *goquery.Document, baseURL string, selectors SelectorConfig) []string {
	base, err := url.Parse(baseURL)
	if err != nil || doc == nil {
		return nil
	}
	selectors = selectors.withDefaults()

	for _, strategy := range linkStrategies {
		c := newLinkCollector(base)
		strategy(doc, c, selectors)
		if len(c.links) > 0 {
			return c.links
		}
	}

	return nil
}

func cardLinks(doc *goquery.Document, c *linkCollector, selectors SelectorConfig) {
	firstLinkPerMatch(doc, c, selectors.Card)
}

func containerLinks(doc *goquery.Document, c *linkCollector, selectors SelectorConfig) {
	firstLinkPerMatch(doc, c, selectors.Container)
}

// firstLinkPerMatch takes the first anchor inside every element matching a
// selector, stopping at the first selector that yields any link.
func firstLinkPerMatch(doc *goquery.Document, c *linkCollector, selectors []string) {
	for _, selector := range selectors {
		doc.Find(selector).Each(func(_ int, el *goquery.Selection) {
			href, ok := el.Find("a[href]").First().Attr("href")
			if !ok {
				return
			}
			if u, ok := c.resolve(href); ok {
				c.add(u)
			}
		})
		if len(c.links) > 0 {
			return
		}
	}
}

// mainContentLinks takes every link with a non-empty path inside the first
// main content region.
func mainContentLinks(doc *goquery.Document, c *linkCollector, selectors SelectorConfig) {
	var region *goquery.Selection
	for _, selector := range selectors.Main {
		if found := doc.Find(selector).First(); found.Length() > 0 {
			region = found
			break
		}
	}
	if region == nil {
		return
	}

	region.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		u, ok := c.resolve(href)
		if !ok || len(pathSegments(u.Path)) < 1 {
			return
		}
		c.add(u)
	})
}

// wholePageLinks takes every link on the page whose path has at least two
// segments, such as /blog/some-slug or /2024/01/some-slug. Single-segment
// paths like /blog or /posts are index pages.
func wholePageLinks(doc *goquery.Document, c *linkCollector, _ SelectorConfig) {
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		u, ok := c.resolve(href)
		if !ok || len(pathSegments(u.Path)) < 2 {
			return
		}
		c.add(u)
	})
}
