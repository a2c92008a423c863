package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/secnews/internal/domain"
	"github.com/jonesrussell/secnews/internal/logger"
	"github.com/jonesrussell/secnews/internal/sources"
)

// ArticleWriter persists extracted articles. The driver only needs the
// save operation, so the full storage interface stays out of this
// package.
type ArticleWriter interface {
	Save(ctx context.Context, article *domain.Article) (string, error)
}

// DriverState is the pagination driver's position in its state machine.
type DriverState int

const (
	// StateIdle is the state before Run is called.
	StateIdle DriverState = iota
	// StateFetchingListing is the state while retrieving a listing page.
	StateFetchingListing
	// StateProcessingItems is the state while walking listing cards.
	StateProcessingItems
	// StateRequestingMore is the state while triggering a continuation.
	StateRequestingMore
	// StateDone is the terminal state of an exhausted crawl.
	StateDone
	// StateFailed is the terminal state after an unrecoverable error.
	StateFailed
)

// String returns the state name.
func (s DriverState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetchingListing:
		return "fetching_listing"
	case StateProcessingItems:
		return "processing_items"
	case StateRequestingMore:
		return "requesting_more"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Stats summarizes one site crawl.
type Stats struct {
	// Pages is the number of listing pages processed.
	Pages int
	// Items is the number of listing cards encountered.
	Items int
	// Saved is the number of articles persisted.
	Saved int
	// Duplicates is the number of already-seen URLs skipped.
	Duplicates int
	// Skipped is the number of items dropped for extraction or
	// persistence failures.
	Skipped int
}

// Driver walks one site's listing: fetch a page, process its cards
// through the deduplication tracker, extractor and writer, then request
// the next continuation until a termination condition is met. Item
// failures never abort a page; only a listing fetch or advance failure
// fails the site.
type Driver struct {
	site      *sources.Site
	listing   ListingSource
	extractor *Extractor
	tracker   *Tracker
	writer    ArticleWriter
	logger    logger.Interface

	maxPages int
	boundary func(time.Time) bool
	state    DriverState
}

// NewDriver creates a pagination driver for one site. defaultMaxPages
// applies when the site does not set its own page bound.
func NewDriver(
	site *sources.Site,
	listing ListingSource,
	extractor *Extractor,
	tracker *Tracker,
	writer ArticleWriter,
	log logger.Interface,
	defaultMaxPages int,
) *Driver {
	maxPages := site.MaxPages
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}
	return &Driver{
		site:      site,
		listing:   listing,
		extractor: extractor,
		tracker:   tracker,
		writer:    writer,
		logger:    log.With("source", site.Name),
		maxPages:  maxPages,
		boundary:  site.Boundary(),
		state:     StateIdle,
	}
}

// State returns the driver's current state.
func (d *Driver) State() DriverState {
	return d.state
}

// Run executes the crawl for this site. Articles persisted before a
// failure stay persisted; there is no rollback.
func (d *Driver) Run(ctx context.Context) (Stats, error) {
	var stats Stats

	for page := 1; ; page++ {
		d.state = StateFetchingListing
		doc, err := d.listing.Snapshot(ctx)
		if err != nil {
			d.state = StateFailed
			return stats, fmt.Errorf("source %q page %d: %w", d.site.Name, page, err)
		}
		stats.Pages++

		d.state = StateProcessingItems
		done := d.processPage(ctx, doc, &stats)
		if done {
			d.state = StateDone
			d.logger.Info("Crawl boundary reached", "pages", stats.Pages, "saved", stats.Saved)
			return stats, nil
		}

		if page >= d.maxPages {
			d.state = StateDone
			d.logger.Info("Max page count reached", "pages", stats.Pages, "saved", stats.Saved)
			return stats, nil
		}

		d.state = StateRequestingMore
		more, err := d.listing.Advance(ctx)
		if err != nil {
			d.state = StateFailed
			return stats, fmt.Errorf("source %q after page %d: %w", d.site.Name, page, err)
		}
		if !more {
			d.state = StateDone
			d.logger.Info("Listing exhausted", "pages", stats.Pages, "saved", stats.Saved)
			return stats, nil
		}
	}
}

// processPage walks the cards on one listing page. It reports true when
// the site's boundary predicate fired and the crawl should stop.
func (d *Driver) processPage(ctx context.Context, doc *goquery.Document, stats *Stats) bool {
	cards := doc.Find(d.site.Selectors.ArticleList)
	d.logger.Debug("Processing listing page", "cards", cards.Length())

	boundaryHit := false
	cards.EachWithBreak(func(_ int, card *goquery.Selection) bool {
		if ctx.Err() != nil {
			return false
		}
		stats.Items++

		sourceURL, err := d.extractor.ResolveLink(card)
		if err != nil {
			stats.Skipped++
			d.logger.Debug("Skipping card without link", "error", err)
			return true
		}

		if !d.tracker.MarkIfNew(sourceURL) {
			stats.Duplicates++
			d.logger.Debug("Skipping duplicate article", "url", sourceURL)
			return true
		}

		article, err := d.extractor.Extract(card)
		if err != nil {
			// Release the URL so a later cycle can retry the item.
			d.tracker.Forget(sourceURL)
			stats.Skipped++
			d.logger.Warn("Skipping item", "url", sourceURL, "error", err)
			return true
		}

		if d.boundary != nil {
			date, parseErr := time.Parse(domain.DateLayout, article.Date)
			if parseErr == nil && d.boundary(date) {
				d.tracker.Forget(sourceURL)
				boundaryHit = true
				return false
			}
		}

		if _, saveErr := d.writer.Save(ctx, article); saveErr != nil {
			d.tracker.Forget(sourceURL)
			stats.Skipped++
			d.logger.Error("Failed to save article", "url", sourceURL, "error", saveErr)
			return true
		}
		stats.Saved++
		d.logger.Info("Saved article", "title", article.Title, "url", sourceURL)
		return true
	})

	return boundaryHit
}
