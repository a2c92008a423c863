package scraper

import (
	"context"
	"fmt"
	"sync"
)

// URLSource supplies the persisted source URLs the tracker rebuilds
// from at process start.
type URLSource interface {
	SourceURLs(ctx context.Context) ([]string, error)
}

// Tracker is the in-memory set of article URLs already processed. It is
// shared across concurrent per-site crawls, so the check-and-mark step
// is atomic per URL.
type Tracker struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{seen: make(map[string]struct{})}
}

// Load rebuilds the tracker from storage. The tracker is not persisted
// incrementally; this runs once at process start.
func (t *Tracker) Load(ctx context.Context, source URLSource) error {
	urls, err := source.SourceURLs(ctx)
	if err != nil {
		return fmt.Errorf("failed to load seen URLs: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for _, u := range urls {
		t.seen[u] = struct{}{}
	}
	return nil
}

// Seen reports whether the URL has already been processed.
func (t *Tracker) Seen(url string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.seen[url]
	return ok
}

// MarkIfNew atomically marks the URL as seen and reports whether it was
// new. Two concurrent crawls of the same URL cannot both observe true.
func (t *Tracker) MarkIfNew(url string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.seen[url]; ok {
		return false
	}
	t.seen[url] = struct{}{}
	return true
}

// Forget releases a URL whose extraction or persistence failed, so a
// later cycle can retry it.
func (t *Tracker) Forget(url string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.seen, url)
}

// Len returns the number of tracked URLs.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.seen)
}
