// Package generator runs the end-to-end digest pipeline: scrape, prompt,
// model call, parse and format.
package generator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pevans/newsdigest/digest"
	"github.com/pevans/newsdigest/history"
	"github.com/pevans/newsdigest/llm"
	"github.com/pevans/newsdigest/scraper"
	"go.uber.org/zap"
)

// Article count bounds.
const (
	DefaultCount = 10
	MinCount     = 1
	MaxCount     = 20
)

var (
	// ErrMissingAPIKey is returned when the model provider has no API key.
	ErrMissingAPIKey = llm.ErrMissingAPIKey

	// ErrInvalidURL is returned when the source URL is empty or malformed.
	ErrInvalidURL = errors.New("a valid source URL is required")

	// ErrSummarize is returned when the model call fails.
	ErrSummarize = errors.New("failed to generate summaries")

	// ErrUnexpected wraps failures that have no more specific error.
	ErrUnexpected = errors.New("unexpected error")
)

// Recorder stores finished digests.
type Recorder interface {
	Save(sourceURL string, articleCount int, d *digest.Digest, markdown string) (*history.Record, error)
}

// Config configures a Generator.
type Config struct {
	Scraper scraper.Config
	Digest  digest.Options
	Style   digest.Style

	// Recorder is optional; when set every digest is saved to it.
	Recorder Recorder
	Logger   *zap.Logger
}

// Request describes one digest generation.
type Request struct {
	URL string `json:"url"`
	// Count is clamped to [MinCount, MaxCount]; zero selects DefaultCount.
	Count int      `json:"count"`
	URLs  []string `json:"urls,omitempty"`
	Feed  bool     `json:"feed,omitempty"`
	Style string   `json:"style,omitempty"`

	Progress scraper.ProgressFunc `json:"-"`
}

// Result is a generated digest and the articles it was built from.
type Result struct {
	ID        uuid.UUID         `json:"id,omitempty"`
	SourceURL string            `json:"source_url"`
	Style     digest.Style      `json:"style"`
	Digest    *digest.Digest    `json:"digest"`
	Articles  []scraper.Article `json:"articles"`
	Markdown  string            `json:"markdown"`
}

// Generator produces digests. It is safe for concurrent use; every call
// builds its own scraper.
type Generator struct {
	client   llm.Client
	cfg      Config
	recorder Recorder
	logger   *zap.Logger
}

// New creates a generator that summarises with client.
func New(client llm.Client, cfg Config) (*Generator, error) {
	if client == nil {
		return nil, ErrMissingAPIKey
	}

	if cfg.Style == "" {
		cfg.Style = digest.DefaultStyle
	}
	if !cfg.Style.Valid() {
		return nil, fmt.Errorf("%w: %q", digest.ErrUnknownStyle, cfg.Style)
	}
	cfg.Digest = cfg.Digest.WithDefaults()
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Scraper.Logger == nil {
		cfg.Scraper.Logger = cfg.Logger.Named("scraper")
	}

	return &Generator{
		client:   client,
		cfg:      cfg,
		recorder: cfg.Recorder,
		logger:   cfg.Logger,
	}, nil
}

// NewFromSettings creates the model client from settings and then the
// generator. Configuration errors surface here, before any network call.
func NewFromSettings(settings llm.Settings, cfg Config) (*Generator, error) {
	client, err := llm.NewClient(settings)
	if err != nil {
		return nil, err
	}
	return New(client, cfg)
}

// Generate runs the full pipeline for req. Scrape and configuration errors
// are returned as-is; anything else, including panics, is wrapped in
// ErrUnexpected.
func (g *Generator) Generate(ctx context.Context, req Request) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("recovered from panic during generation", zap.Any("panic", r))
			result = nil
			err = fmt.Errorf("%w: %v", ErrUnexpected, r)
		}
	}()

	result, err = g.generate(ctx, req)
	if err != nil && !isKnown(err) {
		return nil, fmt.Errorf("%w: %w", ErrUnexpected, err)
	}
	return result, err
}

func (g *Generator) generate(ctx context.Context, req Request) (*Result, error) {
	style := g.cfg.Style
	if req.Style != "" {
		parsed, err := digest.ParseStyle(req.Style)
		if err != nil {
			return nil, err
		}
		style = parsed
	}

	sourceURL, err := validateURL(req.URL)
	if err != nil && len(req.URLs) == 0 {
		return nil, err
	}

	progress := req.Progress
	if progress == nil {
		progress = func(string) {}
	}

	scraperCfg := g.cfg.Scraper
	scraperCfg.Progress = progress
	s := scraper.New(scraperCfg)

	count := clampCount(req.Count)

	var articles []scraper.Article
	switch {
	case len(req.URLs) > 0:
		urls := make([]string, 0, len(req.URLs))
		for _, u := range req.URLs {
			if len(urls) == MaxCount {
				break
			}
			if normalized, err := validateURL(u); err == nil {
				urls = append(urls, normalized)
			}
		}
		if sourceURL == "" && len(urls) > 0 {
			sourceURL = urls[0]
		}
		articles, err = s.ScrapeSpecific(ctx, urls)
	case req.Feed:
		articles, err = s.ScrapeFeed(ctx, sourceURL, count)
	default:
		articles, err = s.Scrape(ctx, sourceURL, count)
	}
	if err != nil {
		return nil, err
	}

	g.logger.Info("scraped articles",
		zap.String("url", sourceURL),
		zap.Int("articles", len(articles)),
	)

	progress("Sending articles for summarization...")

	prompt := digest.BuildPrompt(articles, style, g.cfg.Digest)
	reply, err := g.client.Complete(ctx, prompt)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %w", ErrSummarize, err)
	}

	progress("Parsing response...")

	d := digest.Parse(reply, articles, style, g.cfg.Digest)
	if len(d.ArticleSummaries) < len(articles) {
		g.logger.Warn("model omitted article summaries",
			zap.Int("expected", len(articles)),
			zap.Int("parsed", len(d.ArticleSummaries)),
		)
	}

	result := &Result{
		SourceURL: sourceURL,
		Style:     style,
		Digest:    d,
		Articles:  articles,
		Markdown:  digest.FormatWithLimit(d, g.cfg.Digest.MaxSummaryWords),
	}

	if g.recorder != nil {
		record, err := g.recorder.Save(sourceURL, len(articles), d, result.Markdown)
		if err != nil {
			g.logger.Warn("failed to record digest", zap.Error(err))
		} else {
			result.ID = record.ID
		}
	}

	return result, nil
}

// isKnown reports whether err already carries a specific, documented cause.
func isKnown(err error) bool {
	var fetchErr *scraper.FetchError
	switch {
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, ErrInvalidURL),
		errors.Is(err, ErrSummarize),
		errors.Is(err, digest.ErrUnknownStyle),
		errors.Is(err, scraper.ErrListingFetch),
		errors.Is(err, scraper.ErrNoLinks),
		errors.Is(err, scraper.ErrNoArticles),
		errors.Is(err, scraper.ErrFeedFetch),
		errors.As(err, &fetchErr):
		return true
	}
	return false
}

// ClampCount parses a requested article count. Non-numeric input selects
// DefaultCount; numbers, including ones too large for an int, are clamped
// to [MinCount, MaxCount].
func ClampCount(s string) int {
	s = strings.TrimSpace(s)
	n, err := strconv.Atoi(s)
	if errors.Is(err, strconv.ErrRange) {
		if strings.HasPrefix(s, "-") {
			return MinCount
		}
		return MaxCount
	}
	if err != nil {
		return DefaultCount
	}
	return ClampInt(n)
}

// ClampFloat clamps a JSON number to [MinCount, MaxCount] before it is
// truncated to an int.
func ClampFloat(f float64) int {
	if math.IsNaN(f) {
		return DefaultCount
	}
	return ClampInt(int(max(float64(MinCount), min(f, float64(MaxCount)))))
}

// clampCount treats an unset count as DefaultCount.
func clampCount(n int) int {
	if n == 0 {
		return DefaultCount
	}
	return ClampInt(n)
}

// ClampInt clamps n to [MinCount, MaxCount].
func ClampInt(n int) int {
	return max(MinCount, min(n, MaxCount))
}

// NormalizeURL trims raw and adds https:// when no http(s) scheme is given.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	return raw
}

func validateURL(raw string) (string, error) {
	normalized := NormalizeURL(raw)
	if normalized == "" {
		return "", ErrInvalidURL
	}
	u, err := url.Parse(normalized)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	return normalized, nil
}
