package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/temoto/robotstxt"
	"go.uber.org/zap"
)

// RobotsPolicy is the advisory result of reading a site's robots.txt.
type RobotsPolicy struct {
	// Allowed is false only when a wildcard group blocks the whole site.
	Allowed bool

	// CrawlDelay is the Crawl-delay declared for the wildcard agent, or zero.
	CrawlDelay time.Duration
}

// RobotsChecker performs a best-effort robots.txt check. It never blocks a
// scrape; callers decide what to do with the result.
type RobotsChecker struct {
	client    *http.Client
	userAgent string
	logger    *zap.Logger
}

// NewRobotsChecker creates a checker from the given configuration.
func NewRobotsChecker(cfg Config) *RobotsChecker {
	cfg = cfg.WithDefaults()
	return &RobotsChecker{
		client:    &http.Client{Timeout: cfg.RobotsTimeout},
		userAgent: cfg.UserAgent,
		logger:    cfg.Logger,
	}
}

// IsAllowed reports whether scraping baseURL appears to be permitted. Any
// failure to retrieve or read robots.txt counts as permitted.
func (r *RobotsChecker) IsAllowed(ctx context.Context, baseURL string) bool {
	return r.Check(ctx, baseURL).Allowed
}

// Check fetches robots.txt for the host of baseURL and returns the policy
// derived from it.
func (r *RobotsChecker) Check(ctx context.Context, baseURL string) RobotsPolicy {
	policy := RobotsPolicy{Allowed: true}

	body, err := r.fetch(ctx, baseURL)
	if err != nil {
		r.logger.Debug("robots.txt unavailable", zap.String("url", baseURL), zap.Error(err))
		return policy
	}

	policy.Allowed = !blanketDisallow(string(body))

	if data, err := robotstxt.FromBytes(body); err == nil {
		if group := data.FindGroup("*"); group != nil {
			policy.CrawlDelay = group.CrawlDelay
		}
	}

	return policy
}

func (r *RobotsChecker) fetch(ctx context.Context, baseURL string) ([]byte, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("URL has no scheme or host: %s", baseURL)
	}

	robotsURL := u.Scheme + "://" + u.Host + "/robots.txt"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch robots.txt: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("HTTP error: %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read robots.txt: %w", err)
	}

	return body, nil
}

// blanketDisallow reports whether a "user-agent: *" line is followed within
// the next four lines by a bare "disallow: /". Matching is case-insensitive
// and the rest of the file is not interpreted.
func blanketDisallow(body string) bool {
	lines := strings.Split(strings.ToLower(body), "\n")
	for i, line := range lines {
		if !strings.Contains(line, "user-agent: *") {
			continue
		}
		for j := i + 1; j < len(lines) && j < i+5; j++ {
			if strings.TrimSpace(lines[j]) == "disallow: /" {
				return true
			}
		}
	}
	return false
}
