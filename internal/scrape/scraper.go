// Package scrape turns raw page fetches into normalized plain text plus the
// original HTML for structural signal extraction.
package scrape

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/siteintel/internal/fetch"
)

// Content is a scraped page: the raw HTML for DOM-level signals and the
// normalized plain text for AI extraction.
type Content struct {
	URL        string
	Title      string
	HTML       string
	Text       string
	StatusCode int
	LoadTimeMs int64
	SizeBytes  int64
}

// Fetcher retrieves raw content for a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string, headers map[string]string) fetch.Result
}

// Scraper fetches and normalizes a single page.
type Scraper struct {
	fetcher Fetcher
}

// New creates a Scraper backed by the given fetcher.
func New(fetcher Fetcher) *Scraper {
	return &Scraper{fetcher: fetcher}
}

// Scrape fetches the URL and returns its content. Unlike the fetcher it
// returns an error on failure; callers treat that as "no content available",
// not as a fatal pipeline error.
func (s *Scraper) Scrape(ctx context.Context, targetURL string) (*Content, error) {
	start := time.Now()
	result := s.fetcher.Fetch(ctx, targetURL, nil)
	elapsed := time.Since(start).Milliseconds()

	if !result.OK {
		if result.Status > 0 {
			return nil, eris.Errorf("scrape: %s returned status %d", targetURL, result.Status)
		}
		return nil, eris.Errorf("scrape: no content available for %s", targetURL)
	}

	return &Content{
		URL:        targetURL,
		Title:      ExtractTitle(result.Body),
		HTML:       result.Body,
		Text:       StripHTML(result.Body),
		StatusCode: result.Status,
		LoadTimeMs: elapsed,
		SizeBytes:  int64(len(result.Body)),
	}, nil
}
