package scraper

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/jonesrussell/secnews/internal/sources"
)

// ListingSource abstracts a paginated or load-more listing so the
// pagination driver can be tested without a network. Snapshot returns
// the current listing state; Advance triggers the next continuation and
// reports whether new content appeared.
type ListingSource interface {
	Snapshot(ctx context.Context) (*goquery.Document, error)
	Advance(ctx context.Context) (bool, error)
}

// FetchConfig bounds listing requests.
type FetchConfig struct {
	// UserAgent sent with every request.
	UserAgent string
	// Timeout bounds a single page fetch, the HTTP analogue of the
	// bounded wait for dynamic content.
	Timeout time.Duration
}

// httpListingSource walks load-more pagination over HTTP: the "load
// more" control on these listings issues a plain GET for the next page
// fragment, so advancing is fetching baseURL with an incremented page
// parameter.
type httpListingSource struct {
	site      *sources.Site
	collector *colly.Collector

	page       int
	body       []byte
	lastStatus int
}

// NewHTTPListingSource creates a listing source for the given site.
func NewHTTPListingSource(site *sources.Site, cfg FetchConfig) (ListingSource, error) {
	collector := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
	)
	collector.SetRequestTimeout(cfg.Timeout)

	if delay := site.RateLimitDuration(); delay > 0 {
		if err := collector.Limit(&colly.LimitRule{DomainGlob: "*", Delay: delay}); err != nil {
			return nil, fmt.Errorf("failed to set rate limit: %w", err)
		}
	}

	s := &httpListingSource{
		site:      site,
		collector: collector,
	}

	collector.OnResponse(func(r *colly.Response) {
		s.body = r.Body
		s.lastStatus = r.StatusCode
	})
	collector.OnError(func(r *colly.Response, _ error) {
		if r != nil {
			s.lastStatus = r.StatusCode
		}
	})

	return s, nil
}

// Snapshot returns the current listing page, fetching the first page on
// initial use.
func (s *httpListingSource) Snapshot(ctx context.Context) (*goquery.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.page == 0 {
		if err := s.fetch(1); err != nil {
			return nil, fmt.Errorf("failed to fetch listing %s: %w", s.site.BaseURL, err)
		}
		s.page = 1
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(s.body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing: %w", err)
	}
	return doc, nil
}

// Advance fetches the next page continuation. It reports false without
// error when the listing is exhausted: the continuation is gone (404),
// produced no growth, or contains no listing items.
func (s *httpListingSource) Advance(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	previous := s.body
	if err := s.fetch(s.page + 1); err != nil {
		if s.lastStatus == http.StatusNotFound || s.lastStatus == http.StatusGone {
			return false, nil
		}
		return false, fmt.Errorf("failed to advance listing %s: %w", s.site.BaseURL, err)
	}
	s.page++

	// No detectable growth: an empty or unchanged continuation means
	// the listing has run out even though the control still answered.
	if len(s.body) == 0 || bytes.Equal(s.body, previous) {
		return false, nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(s.body))
	if err != nil {
		return false, fmt.Errorf("failed to parse listing: %w", err)
	}
	if doc.Find(s.site.Selectors.ArticleList).Length() == 0 {
		return false, nil
	}

	return true, nil
}

// fetch loads the given listing page into the source's buffer.
func (s *httpListingSource) fetch(page int) error {
	target, err := s.pageURL(page)
	if err != nil {
		return err
	}
	s.body = nil
	s.lastStatus = 0
	return s.collector.Visit(target)
}

// pageURL builds the URL for a listing page. Page one is the bare base
// URL; later pages add the site's page parameter.
func (s *httpListingSource) pageURL(page int) (string, error) {
	if page <= 1 {
		return s.site.BaseURL, nil
	}
	u, err := url.Parse(s.site.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", s.site.BaseURL, err)
	}
	q := u.Query()
	q.Set(s.site.PageParam, fmt.Sprintf("%d", page))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
