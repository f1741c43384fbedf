// Package scraper finds recent articles on a publication's website and
// extracts their title, author and body text.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrListingFetch is returned when the listing page cannot be fetched.
	ErrListingFetch = errors.New("failed to fetch listing page")

	// ErrNoLinks is returned when the listing page holds no candidate
	// article links.
	ErrNoLinks = errors.New("no article links found on the page; the website structure may not be supported")

	// ErrNoArticles is returned when no candidate yielded an article.
	ErrNoArticles = errors.New("failed to scrape any articles; the website structure may not be supported")

	// ErrFeedFetch is returned when a feed cannot be fetched or parsed.
	ErrFeedFetch = errors.New("failed to read feed")
)

// progressURLLength bounds how much of a URL appears in progress messages.
const progressURLLength = 60

// Scraper runs one scrape: listing fetch, link discovery and article
// extraction. A Scraper holds its own HTTP clients and is not shared
// between generations.
type Scraper struct {
	cfg       Config
	fetcher   *Fetcher
	robots    *RobotsChecker
	extractor *Extractor
	logger    *zap.Logger
}

// New creates a scraper from the given configuration.
func New(cfg Config) *Scraper {
	cfg = cfg.WithDefaults()
	return &Scraper{
		cfg:       cfg,
		fetcher:   NewFetcher(cfg),
		robots:    NewRobotsChecker(cfg),
		extractor: NewExtractor(cfg),
		logger:    cfg.Logger,
	}
}

// Scrape discovers up to count articles from the listing page at baseURL.
// At most 2*count candidates are tried; individual failures are skipped.
func (s *Scraper) Scrape(ctx context.Context, baseURL string, count int) ([]Article, error) {
	if count < 1 {
		count = 1
	}

	policy := s.robots.Check(ctx, baseURL)
	if !policy.Allowed {
		s.logger.Warn("robots.txt may disallow scraping, proceeding with caution",
			zap.String("url", baseURL))
	}
	delay := s.politenessDelay(policy)

	s.progress("Fetching main page...")

	doc, err := s.fetcher.Fetch(ctx, baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrListingFetch, err)
	}

	s.progress("Extracting article links...")

	links := DiscoverLinks(doc, baseURL, s.cfg.Selectors)
	if len(links) == 0 {
		return nil, ErrNoLinks
	}

	s.logger.Info("discovered candidate links",
		zap.String("url", baseURL),
		zap.Int("links", len(links)),
	)
	s.progress(fmt.Sprintf("Found %d potential articles. Scraping up to %d...", len(links), count))

	if limit := count * 2; len(links) > limit {
		links = links[:limit]
	}

	return s.collect(ctx, links, count, delay)
}

// ScrapeSpecific extracts each of urls in order, skipping failures.
func (s *Scraper) ScrapeSpecific(ctx context.Context, urls []string) ([]Article, error) {
	return s.collect(ctx, urls, len(urls), s.cfg.PolitenessDelay)
}

// ScrapeFeed extracts up to count articles linked from an RSS or Atom feed.
// Feed links are not filtered by domain.
func (s *Scraper) ScrapeFeed(ctx context.Context, feedURL string, count int) ([]Article, error) {
	if count < 1 {
		count = 1
	}

	s.progress("Fetching feed...")

	links, err := FeedLinks(ctx, s.fetcher, feedURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFeedFetch, err)
	}
	if len(links) == 0 {
		return nil, ErrNoLinks
	}

	s.progress(fmt.Sprintf("Found %d feed items. Scraping up to %d...", len(links), count))

	if limit := count * 2; len(links) > limit {
		links = links[:limit]
	}

	return s.collect(ctx, links, count, s.cfg.PolitenessDelay)
}

// collect extracts candidates in order until want articles were found,
// pausing for delay after each success that is not the last one needed.
func (s *Scraper) collect(ctx context.Context, links []string, want int, delay time.Duration) ([]Article, error) {
	articles := make([]Article, 0, want)

	for _, link := range links {
		if len(articles) >= want {
			break
		}

		s.progress(fmt.Sprintf("Scraping article %d/%d: %s...",
			len(articles)+1, want, truncateRunes(link, progressURLLength)))

		article, err := s.scrapeArticle(ctx, link)
		if err != nil {
			return nil, err
		}
		if article == nil {
			continue
		}

		articles = append(articles, *article)

		if len(articles) < want {
			if err := sleep(ctx, delay); err != nil {
				return nil, err
			}
		}
	}

	if len(articles) == 0 {
		return nil, ErrNoArticles
	}

	return articles, nil
}

// scrapeArticle fetches and extracts a single page. Fetch failures are
// logged and reported as a nil article; only cancellation is returned.
func (s *Scraper) scrapeArticle(ctx context.Context, link string) (*Article, error) {
	doc, err := s.fetcher.Fetch(ctx, link)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.logger.Warn("failed to scrape article", zap.String("url", link), zap.Error(err))
		return nil, nil
	}

	article := s.extractor.Extract(doc, link)
	if article == nil {
		s.logger.Info("skipping page without article content", zap.String("url", link))
	}
	return article, nil
}

// politenessDelay stretches the configured delay to honour a robots.txt
// Crawl-delay, up to maxCrawlDelay.
func (s *Scraper) politenessDelay(policy RobotsPolicy) time.Duration {
	delay := s.cfg.PolitenessDelay
	crawlDelay := min(policy.CrawlDelay, maxCrawlDelay)
	if crawlDelay > delay {
		s.logger.Debug("using robots.txt crawl delay", zap.Duration("delay", crawlDelay))
		delay = crawlDelay
	}
	return delay
}

func (s *Scraper) progress(message string) {
	if s.cfg.Progress != nil {
		s.cfg.Progress(message)
	}
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
