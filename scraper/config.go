package scraper

import (
	"time"

	"go.uber.org/zap"
)

// Default configuration values.
const (
	DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	DefaultTimeout         = 30 * time.Second
	DefaultRobotsTimeout   = 10 * time.Second
	DefaultMaxRetries      = 3
	DefaultRetryDelay      = 2 * time.Second
	DefaultPolitenessDelay = 500 * time.Millisecond

	// maxCrawlDelay caps how long a robots.txt Crawl-delay may stretch the
	// politeness delay.
	maxCrawlDelay = 10 * time.Second
)

// ProgressFunc receives human-readable progress messages. It carries no
// control-flow significance.
type ProgressFunc func(message string)

// Config holds scraper configuration. Zero-value fields are replaced by
// defaults in WithDefaults.
type Config struct {
	UserAgent       string        `json:"user_agent" yaml:"user_agent"`
	Timeout         time.Duration `json:"timeout" yaml:"timeout"`
	RobotsTimeout   time.Duration `json:"robots_timeout" yaml:"robots_timeout"`
	MaxRetries      int           `json:"max_retries" yaml:"max_retries"`
	RetryDelay      time.Duration `json:"retry_delay" yaml:"retry_delay"`
	PolitenessDelay time.Duration `json:"politeness_delay" yaml:"politeness_delay"`

	// DisableReadability turns off the readability pass that runs when the
	// selector cascades find no usable content.
	DisableReadability bool `json:"disable_readability" yaml:"disable_readability"`

	Selectors SelectorConfig `json:"selectors" yaml:"selectors"`

	Logger   *zap.Logger  `json:"-" yaml:"-"`
	Progress ProgressFunc `json:"-" yaml:"-"`
}

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() Config {
	return Config{}.WithDefaults()
}

// WithDefaults returns a copy of the config with default values applied for
// zero-value fields.
func (c Config) WithDefaults() Config {
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RobotsTimeout <= 0 {
		c.RobotsTimeout = DefaultRobotsTimeout
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.PolitenessDelay <= 0 {
		c.PolitenessDelay = DefaultPolitenessDelay
	}
	c.Selectors = c.Selectors.withDefaults()
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c
}

// SelectorConfig lists the CSS selectors tried, most specific first, by
// link discovery and article extraction. Empty lists fall back to the
// built-in defaults.
type SelectorConfig struct {
	// Listing page: card layouts, then generic post containers, then the
	// main content region.
	Card      []string `json:"card,omitempty" yaml:"card,omitempty"`
	Container []string `json:"container,omitempty" yaml:"container,omitempty"`
	Main      []string `json:"main,omitempty" yaml:"main,omitempty"`

	// Article page.
	Title           []string `json:"title,omitempty" yaml:"title,omitempty"`
	Author          []string `json:"author,omitempty" yaml:"author,omitempty"`
	Content         []string `json:"content,omitempty" yaml:"content,omitempty"`
	ContentFallback []string `json:"content_fallback,omitempty" yaml:"content_fallback,omitempty"`
}

// DefaultSelectors returns the built-in selector cascades.
func DefaultSelectors() SelectorConfig {
	return SelectorConfig{
		Card: []string{
			".section--listing--card",
			".post-card",
			".article-card",
			".entry-card",
			".blog-card",
			"[class*='blog-card']",
			"[class*='post-card']",
			"[class*='article-card']",
			"[class*='card']",
		},
		Container: []string{
			"article",
			".post",
			".entry",
			".blog-post",
			".article-item",
			"[class*='post']",
			"[class*='article']",
		},
		Main: []string{
			"main",
			".content, .posts, .blog, .articles",
		},
		Title: []string{
			"h1.entry-title",
			"h1.post-title",
			"h1.article-title",
			"article h1",
			".post h1",
			"main h1",
			"h1",
		},
		Author: []string{
			".author-name",
			".post-author",
			".entry-author",
			".byline",
			"[rel='author']",
			".author",
			"[class*='author']",
		},
		Content: []string{
			// Webflow
			".blog-content__copy",
			".w-richtext",
			// Common blog platforms
			".entry-content",
			".post-content",
			".article-content",
			".post-body",
			".blog-post-content",
			".article-body",
			".story-content",
			".post__content",
			".content-body",
			// Generic
			"article .content",
			"[class*='post-content']",
			"[class*='article-content']",
			"[class*='entry-content']",
			"[class*='blog-content']",
			"article",
		},
		ContentFallback: []string{
			"article",
			"main",
			".post",
		},
	}
}

func (s SelectorConfig) withDefaults() SelectorConfig {
	d := DefaultSelectors()
	if len(s.Card) == 0 {
		s.Card = d.Card
	}
	if len(s.Container) == 0 {
		s.Container = d.Container
	}
	if len(s.Main) == 0 {
		s.Main = d.Main
	}
	if len(s.Title) == 0 {
		s.Title = d.Title
	}
	if len(s.Author) == 0 {
		s.Author = d.Author
	}
	if len(s.Content) == 0 {
		s.Content = d.Content
	}
	if len(s.ContentFallback) == 0 {
		s.ContentFallback = d.ContentFallback
	}
	return s
}
