package scraper_test

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

	"github.com/jonesrussell/secnews/internal/domain"
	"github.com/jonesrussell/secnews/internal/logger"
	"github.com/jonesrussell/secnews/internal/scraper"
	"github.com/jonesrussell/secnews/internal/storage"
)

// testArticleRecord builds a persistable article for seeding stores.
func testArticleRecord(title, url string) *domain.Article {
	return &domain.Article{
		Title:     title,
		Content:   "Seeded content for " + title + ".",
		Source:    "talkback.sh",
		Date:      "2024-11-15",
		SourceURL: url,
	}
}

// fakeListing serves pre-built pages; Advance moves to the next one.
type fakeListing struct {
	pages      []string
	index      int
	advanceErr error
}

func (f *fakeListing) Snapshot(_ context.Context) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(f.pages[f.index]))
}

func (f *fakeListing) Advance(_ context.Context) (bool, error) {
	if f.advanceErr != nil {
		return false, f.advanceErr
	}
	if f.index+1 >= len(f.pages) {
		return false, nil
	}
	f.index++
	return true, nil
}

// listingPage renders n cards with sequential resource ids starting at
// first, all dated "Fri 15 Nov".
func listingPage(first, n int) string {
	var b strings.Builder
	for i := first; i < first+n; i++ {
		fmt.Fprintf(&b, `
<div class="card">
  <a class="card-link" href="/resource/%d"></a>
  <div class="card-title">Article %d</div>
  <div class="text-body-secondary">Content for article %d.</div>
  <span class="published">Fri 15 Nov</span>
</div>`, i, i, i)
	}
	return b.String()
}

// failingWriter fails every save.
type failingWriter struct{}

func (failingWriter) Save(_ context.Context, _ *domain.Article) (string, error) {
	return "", errors.New("backend unavailable")
}

func newTestDriver(listing scraper.ListingSource, tracker *scraper.Tracker, writer scraper.ArticleWriter, maxPages int) *scraper.Driver {
	site := testSite()
	extractor := scraper.NewExtractor(site, &fixedScorer{domain.SentimentNeutral, 0.5}, 100,
		scraper.WithClock(pinnedClock(2024, time.December, 1)))
	return scraper.NewDriver(site, listing, extractor, tracker, writer, logger.NewNoOp(), maxPages)
}

func TestDriverCrawlsAllPages(t *testing.T) {
	t.Parallel()
	store := storage.NewMemoryStorage()
	listing := &fakeListing{pages: []string{listingPage(1, 3), listingPage(4, 2)}}
	driver := newTestDriver(listing, scraper.NewTracker(), store, 10)

	stats, err := driver.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Pages)
	assert.Equal(t, 5, stats.Items)
	assert.Equal(t, 5, stats.Saved)
	assert.Zero(t, stats.Duplicates)
	assert.Equal(t, scraper.StateDone, driver.State())

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)
}

func TestDriverSecondRunSavesNothing(t *testing.T) {
	t.Parallel()
	store := storage.NewMemoryStorage()
	tracker := scraper.NewTracker()

	first := newTestDriver(&fakeListing{pages: []string{listingPage(1, 3)}}, tracker, store, 10)
	_, err := first.Run(context.Background())
	require.NoError(t, err)

	second := newTestDriver(&fakeListing{pages: []string{listingPage(1, 3)}}, tracker, store, 10)
	stats, err := second.Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, stats.Saved, "a second crawl of unchanged content saves nothing")
	assert.Equal(t, 3, stats.Duplicates)

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestDriverAdvanceFailureKeepsEarlierPages(t *testing.T) {
	t.Parallel()
	store := storage.NewMemoryStorage()
	listing := &fakeListing{
		pages:      []string{listingPage(1, 3)},
		advanceErr: errors.New("timed out waiting for content"),
	}
	driver := newTestDriver(listing, scraper.NewTracker(), store, 10)

	stats, err := driver.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, scraper.StateFailed, driver.State())

	assert.Equal(t, 3, stats.Saved, "page one articles stay persisted")
	count, countErr := store.Count(context.Background())
	require.NoError(t, countErr)
	assert.Equal(t, int64(3), count)
}

func TestDriverStopsAtMaxPages(t *testing.T) {
	t.Parallel()
	store := storage.NewMemoryStorage()
	listing := &fakeListing{pages: []string{listingPage(1, 2), listingPage(3, 2), listingPage(5, 2)}}
	driver := newTestDriver(listing, scraper.NewTracker(), store, 2)

	stats, err := driver.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Pages)
	assert.Equal(t, 4, stats.Saved)
	assert.Equal(t, scraper.StateDone, driver.State())
}

func TestDriverBoundaryStopsWithoutPersisting(t *testing.T) {
	t.Parallel()
	store := storage.NewMemoryStorage()
	tracker := scraper.NewTracker()

	// Second card crosses into the boundary month.
	page := listingPage(1, 1) + strings.Replace(listingPage(2, 1), "Fri 15 Nov", "Sun 22 Oct", 1)
	site := testSite()
	site.BoundaryMonth = "october"
	extractor := scraper.NewExtractor(site, &fixedScorer{domain.SentimentNeutral, 0.5}, 100,
		scraper.WithClock(pinnedClock(2024, time.December, 1)))
	driver := scraper.NewDriver(site, &fakeListing{pages: []string{page}}, extractor, tracker, store, logger.NewNoOp(), 10)

	stats, err := driver.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, scraper.StateDone, driver.State())
	assert.Equal(t, 1, stats.Saved, "only the pre-boundary article persists")

	exists, err := store.ExistsByURL(context.Background(), "https://talkback.sh/resource/2")
	require.NoError(t, err)
	assert.False(t, exists, "the boundary article itself is not persisted")
	assert.False(t, tracker.Seen("https://talkback.sh/resource/2"))
}

func TestDriverSaveFailureReleasesURL(t *testing.T) {
	t.Parallel()
	tracker := scraper.NewTracker()
	driver := newTestDriver(&fakeListing{pages: []string{listingPage(1, 2)}}, tracker, failingWriter{}, 10)

	stats, err := driver.Run(context.Background())
	require.NoError(t, err, "item failures never fail the crawl")

	assert.Zero(t, stats.Saved)
	assert.Equal(t, 2, stats.Skipped)
	assert.Zero(t, tracker.Len(), "failed saves release their URLs for retry")
}

func TestDriverSkipsCardsWithoutLinks(t *testing.T) {
	t.Parallel()
	store := storage.NewMemoryStorage()
	page := listingPage(1, 1) + `<div class="card"><div class="card-title">Linkless</div></div>`
	driver := newTestDriver(&fakeListing{pages: []string{page}}, scraper.NewTracker(), store, 10)

	stats, err := driver.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Items)
	assert.Equal(t, 1, stats.Saved)
	assert.Equal(t, 1, stats.Skipped)
}
