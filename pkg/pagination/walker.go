package pagination

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var pagesFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "inat_pages_fetched_total",
	Help: "Total number of search result pages fetched",
})

// Config holds walker configuration.
type Config struct {
	// MaxPages stops the walk after this many pages (0 = no limit).
	MaxPages int
}

// DefaultConfig returns a configuration without a page limit.
func DefaultConfig() Config {
	return Config{}
}

// Page describes one fetched page.
type Page struct {
	Number       int
	PerPage      int
	TotalResults int
	// Results is the number of records on this page.
	Results int
}

// PageFetcher fetches and consumes a single page.
type PageFetcher interface {
	FetchPage(ctx context.Context, pageNum int) (Page, error)
}

// PageFetcherFunc adapts a function to PageFetcher.
type PageFetcherFunc func(ctx context.Context, pageNum int) (Page, error)

// FetchPage implements PageFetcher.
func (f PageFetcherFunc) FetchPage(ctx context.Context, pageNum int) (Page, error) {
	return f(ctx, pageNum)
}

// Summary reports what a walk did.
type Summary struct {
	Pages        int
	Results      int
	TotalResults int
	Duration     time.Duration
}

// Walker fetches pages sequentially.
type Walker struct {
	fetcher PageFetcher
	config  Config
	logger  zerolog.Logger
}

// NewWalker creates a new walker.
func NewWalker(fetcher PageFetcher, config Config, logger zerolog.Logger) *Walker {
	if config.MaxPages < 0 {
		config.MaxPages = 0
	}
	return &Walker{
		fetcher: fetcher,
		config:  config,
		logger:  logger,
	}
}

// Done reports whether page is the last page of a result set.
func Done(page, perPage, totalResults int) bool {
	return page*perPage >= totalResults
}

// Walk fetches pages 1..n and returns once the last page has been consumed.
// An error from the fetcher aborts the walk; the summary then covers the
// pages completed before it.
func (w *Walker) Walk(ctx context.Context) (Summary, error) {
	start := time.Now()
	var summary Summary

	for pageNum := 1; ; pageNum++ {
		if err := ctx.Err(); err != nil {
			summary.Duration = time.Since(start)
			return summary, fmt.Errorf("walk cancelled before page %d: %w", pageNum, err)
		}

		page, err := w.fetcher.FetchPage(ctx, pageNum)
		if err != nil {
			summary.Duration = time.Since(start)
			return summary, fmt.Errorf("fetch page %d: %w", pageNum, err)
		}
		pagesFetchedTotal.Inc()

		summary.Pages++
		summary.Results += page.Results
		summary.TotalResults = page.TotalResults

		w.logger.Debug().
			Int("page", pageNum).
			Int("per_page", page.PerPage).
			Int("total_results", page.TotalResults).
			Int("results", page.Results).
			Msg("Page fetched")

		if stop, reason := w.shouldStop(pageNum, page); stop {
			w.logger.Debug().
				Int("pages", summary.Pages).
				Int("results", summary.Results).
				Str("reason", reason).
				Msg("Pagination complete")
			break
		}
	}

	summary.Duration = time.Since(start)
	return summary, nil
}

func (w *Walker) shouldStop(pageNum int, page Page) (bool, string) {
	switch {
	case page.PerPage <= 0:
		return true, "no per_page"
	case Done(pageNum, page.PerPage, page.TotalResults):
		return true, "last page"
	case page.Results == 0:
		return true, "empty page"
	case w.config.MaxPages > 0 && pageNum >= w.config.MaxPages:
		return true, "page limit"
	default:
		return false, ""
	}
}
