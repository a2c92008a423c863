package crawler_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/secnews/internal/config"
	"github.com/jonesrussell/secnews/internal/crawler"
	"github.com/jonesrussell/secnews/internal/logger"
	"github.com/jonesrussell/secnews/internal/scraper"
	"github.com/jonesrussell/secnews/internal/sources"
	"github.com/jonesrussell/secnews/internal/storage"
)

func testSite(name, baseURL string) sources.Site {
	return sources.Site{
		Name:    name,
		BaseURL: baseURL,
		Selectors: sources.Selectors{
			ArticleList: "div.card",
			ArticleLink: "a.card-link",
			Title:       "div.card-title",
			Content:     "div.text-body-secondary",
			Date:        "span.published",
		},
		DateLayout: "2006-01-02",
	}
}

func testScraperConfig() *config.ScraperConfig {
	return &config.ScraperConfig{
		UserAgent:      "secnews-test",
		RequestTimeout: time.Second,
		SnippetLength:  100,
		MaxPages:       5,
	}
}

// staticListing serves one fixed page and never advances.
type staticListing struct {
	html string
}

func (l *staticListing) Snapshot(_ context.Context) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(l.html))
}

func (l *staticListing) Advance(_ context.Context) (bool, error) {
	return false, nil
}

// panickingListing panics on snapshot, standing in for a driver bug.
type panickingListing struct{}

func (panickingListing) Snapshot(_ context.Context) (*goquery.Document, error) {
	panic("selector engine blew up")
}

func (panickingListing) Advance(_ context.Context) (bool, error) {
	return false, nil
}

// sitePage renders n cards whose URLs embed the site name.
func sitePage(site string, n int) string {
	var b strings.Builder
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, `
<div class="card">
  <a class="card-link" href="https://%s.example.com/resource/%d"></a>
  <div class="card-title">%s article %d</div>
  <div class="text-body-secondary">Content %d.</div>
  <span class="published">2024-11-15</span>
</div>`, site, i, site, i, i)
	}
	return b.String()
}

func TestCrawlerRunAggregatesAllSites(t *testing.T) {
	t.Parallel()
	store := storage.NewMemoryStorage()
	sites := []sources.Site{
		testSite("alpha", "https://alpha.example.com/"),
		testSite("beta", "https://beta.example.com/"),
	}

	c := crawler.New(sites, store, scraper.NewTracker(), testScraperConfig(), logger.NewNoOp(),
		crawler.WithListingFactory(func(site *sources.Site, _ scraper.FetchConfig) (scraper.ListingSource, error) {
			return &staticListing{html: sitePage(site.Name, 2)}, nil
		}))

	stats, err := c.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, stats.Saved)
	assert.Zero(t, stats.Failed)
	assert.Len(t, stats.Results, 2)

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)
}

func TestCrawlerSiteFailureIsIsolated(t *testing.T) {
	t.Parallel()
	store := storage.NewMemoryStorage()
	sites := []sources.Site{
		testSite("healthy", "https://healthy.example.com/"),
		testSite("broken", "https://broken.example.com/"),
	}

	c := crawler.New(sites, store, scraper.NewTracker(), testScraperConfig(), logger.NewNoOp(),
		crawler.WithListingFactory(func(site *sources.Site, _ scraper.FetchConfig) (scraper.ListingSource, error) {
			if site.Name == "broken" {
				return nil, errors.New("connection refused")
			}
			return &staticListing{html: sitePage(site.Name, 2)}, nil
		}))

	stats, err := c.Run(context.Background())
	require.Error(t, err, "a failed site surfaces as a cycle error")

	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 2, stats.Saved, "the healthy site's articles persist")
}

func TestCrawlerRecoversSitePanic(t *testing.T) {
	t.Parallel()
	store := storage.NewMemoryStorage()
	sites := []sources.Site{testSite("panicky", "https://panicky.example.com/")}

	c := crawler.New(sites, store, scraper.NewTracker(), testScraperConfig(), logger.NewNoOp(),
		crawler.WithListingFactory(func(_ *sources.Site, _ scraper.FetchConfig) (scraper.ListingSource, error) {
			return panickingListing{}, nil
		}))

	stats, err := c.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, stats.Failed)
	require.Error(t, stats.Results[0].Err)
	assert.Contains(t, stats.Results[0].Err.Error(), "panicked")
}

func TestCrawlerRunSite(t *testing.T) {
	t.Parallel()
	store := storage.NewMemoryStorage()
	sites := []sources.Site{
		testSite("alpha", "https://alpha.example.com/"),
		testSite("beta", "https://beta.example.com/"),
	}

	c := crawler.New(sites, store, scraper.NewTracker(), testScraperConfig(), logger.NewNoOp(),
		crawler.WithListingFactory(func(site *sources.Site, _ scraper.FetchConfig) (scraper.ListingSource, error) {
			return &staticListing{html: sitePage(site.Name, 3)}, nil
		}))

	stats, err := c.RunSite(context.Background(), "alpha")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Saved)

	_, err = c.RunSite(context.Background(), "missing")
	assert.Error(t, err)
}
