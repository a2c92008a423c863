// Package crawler runs crawl cycles: every configured site is walked
// through its pagination driver and the extracted articles are
// persisted. One cycle is also what the one-shot crawl command runs.
package crawler

import (
	"context"
	"fmt"
	"sync"

	"github.com/jonesrussell/secnews/internal/config"
	"github.com/jonesrussell/secnews/internal/logger"
	"github.com/jonesrussell/secnews/internal/scraper"
	"github.com/jonesrussell/secnews/internal/sources"
	"github.com/jonesrussell/secnews/internal/storage"
)

// ListingFactory builds the listing source for one site. Swapped out in
// tests to avoid the network.
type ListingFactory func(site *sources.Site, cfg scraper.FetchConfig) (scraper.ListingSource, error)

// SiteResult is the outcome of crawling one site within a cycle.
type SiteResult struct {
	// Site is the site name.
	Site string
	// Stats summarizes the site crawl.
	Stats scraper.Stats
	// Err is the site's failure, nil on success.
	Err error
}

// CycleStats aggregates one crawl cycle across all sites.
type CycleStats struct {
	// Results holds the per-site outcomes.
	Results []SiteResult
	// Saved is the total number of articles persisted.
	Saved int
	// Duplicates is the total number of already-seen URLs skipped.
	Duplicates int
	// Skipped is the total number of items dropped for item failures.
	Skipped int
	// Failed is the number of sites whose crawl failed.
	Failed int
}

// Crawler crawls all configured sites. Sites run concurrently and
// share one deduplication tracker and one storage backend; a site
// failure never aborts the other sites.
type Crawler struct {
	sites      []sources.Site
	store      storage.Interface
	tracker    *scraper.Tracker
	scorer     scraper.Scorer
	cfg        *config.ScraperConfig
	logger     logger.Interface
	newListing ListingFactory
}

// Option customizes a Crawler.
type Option func(*Crawler)

// WithListingFactory overrides how listing sources are built.
func WithListingFactory(f ListingFactory) Option {
	return func(c *Crawler) {
		c.newListing = f
	}
}

// WithScorer overrides the sentiment scorer.
func WithScorer(s scraper.Scorer) Option {
	return func(c *Crawler) {
		c.scorer = s
	}
}

// New creates a crawler over the given sites.
func New(
	sites []sources.Site,
	store storage.Interface,
	tracker *scraper.Tracker,
	cfg *config.ScraperConfig,
	log logger.Interface,
	opts ...Option,
) *Crawler {
	c := &Crawler{
		sites:   sites,
		store:   store,
		tracker: tracker,
		scorer:  scraper.NewRandomScorer(),
		cfg:     cfg,
		logger:  log.WithComponent("crawler"),
		newListing: func(site *sources.Site, fetchCfg scraper.FetchConfig) (scraper.ListingSource, error) {
			return scraper.NewHTTPListingSource(site, fetchCfg)
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run executes one crawl cycle over every site. The returned error is
// non-nil when at least one site failed; per-site outcomes are always
// in the stats.
func (c *Crawler) Run(ctx context.Context) (CycleStats, error) {
	results := make([]SiteResult, len(c.sites))
	var wg sync.WaitGroup

	for i := range c.sites {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			site := &c.sites[i]
			stats, err := c.crawlSite(ctx, site)
			results[i] = SiteResult{Site: site.Name, Stats: stats, Err: err}
		}(i)
	}
	wg.Wait()

	var cycle CycleStats
	cycle.Results = results
	for i := range results {
		cycle.Saved += results[i].Stats.Saved
		cycle.Duplicates += results[i].Stats.Duplicates
		cycle.Skipped += results[i].Stats.Skipped
		if results[i].Err != nil {
			cycle.Failed++
			c.logger.Error("Site crawl failed", "source", results[i].Site, "error", results[i].Err)
		}
	}

	if cycle.Failed > 0 {
		return cycle, fmt.Errorf("%d of %d site crawls failed", cycle.Failed, len(c.sites))
	}
	return cycle, nil
}

// RunSite executes one crawl of a single site by name.
func (c *Crawler) RunSite(ctx context.Context, name string) (scraper.Stats, error) {
	site := sources.FindByName(c.sites, name)
	if site == nil {
		return scraper.Stats{}, fmt.Errorf("unknown source %q", name)
	}
	return c.crawlSite(ctx, site)
}

// crawlSite walks one site through a fresh driver. A panic inside the
// crawl is converted into a site failure so one broken site cannot take
// down a cycle.
func (c *Crawler) crawlSite(ctx context.Context, site *sources.Site) (stats scraper.Stats, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("source %q panicked: %v", site.Name, r)
		}
	}()

	listing, err := c.newListing(site, scraper.FetchConfig{
		UserAgent: c.cfg.UserAgent,
		Timeout:   c.cfg.RequestTimeout,
	})
	if err != nil {
		return scraper.Stats{}, fmt.Errorf("source %q: %w", site.Name, err)
	}

	extractor := scraper.NewExtractor(site, c.scorer, c.cfg.SnippetLength)
	driver := scraper.NewDriver(site, listing, extractor, c.tracker, c.store, c.logger, c.cfg.MaxPages)
	return driver.Run(ctx)
}
