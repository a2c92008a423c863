// Package scraper implements the scraping pipeline: selector-driven
// extraction of article records from listing cards, seen-URL tracking,
// and a pagination driver that walks load-more listings.
package scraper

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/secnews/internal/domain"
	"github.com/jonesrussell/secnews/internal/sources"
)

// tagPattern matches embedded markup left in extracted text.
var tagPattern = regexp.MustCompile(`<[^>]+>`)

// Extractor turns one listing card into an article record using a
// site's selector configuration. It is a pure function of its inputs
// apart from the pluggable sentiment scorer.
type Extractor struct {
	site       *sources.Site
	scorer     Scorer
	snippetLen int
	now        func() time.Time
}

// ExtractorOption customizes an Extractor.
type ExtractorOption func(*Extractor)

// WithClock overrides the clock used for year inference. Tests use this
// to pin "now".
func WithClock(now func() time.Time) ExtractorOption {
	return func(e *Extractor) {
		e.now = now
	}
}

// NewExtractor creates an extractor for the given site.
func NewExtractor(site *sources.Site, scorer Scorer, snippetLen int, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		site:       site,
		scorer:     scorer,
		snippetLen: snippetLen,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ResolveLink resolves the card's canonical article URL. The driver
// calls this before full extraction so the deduplication check happens
// first.
func (e *Extractor) ResolveLink(card *goquery.Selection) (string, error) {
	link := card.Find(e.site.Selectors.ArticleLink).First()
	href, exists := link.Attr("href")
	href = strings.TrimSpace(href)
	if !exists || href == "" {
		return "", &ExtractionError{Kind: FailureMissingLink}
	}

	resolved, err := resolveURL(e.site.BaseURL, href)
	if err != nil {
		return "", &ExtractionError{Kind: FailureMissingLink, Err: err}
	}
	return resolved, nil
}

// Extract produces an article record from one listing card, or an
// ExtractionError describing why the item must be skipped. The returned
// article has no ID; the storage layer assigns one at save time.
func (e *Extractor) Extract(card *goquery.Selection) (*domain.Article, error) {
	sel := e.site.Selectors

	sourceURL, err := e.ResolveLink(card)
	if err != nil {
		return nil, err
	}

	title := selectionText(card, sel.Title)
	if title == "" {
		return nil, &ExtractionError{Kind: FailureMissingRequiredField, Field: "title", URL: sourceURL}
	}

	content := StripTags(selectionText(card, sel.Content))
	if content == "" {
		return nil, &ExtractionError{Kind: FailureMissingRequiredField, Field: "content", URL: sourceURL}
	}

	date, err := e.parseDate(selectionText(card, sel.Date))
	if err != nil {
		return nil, &ExtractionError{Kind: FailureDateParse, Field: "date", URL: sourceURL, Err: err}
	}

	source := selectionText(card, sel.Source)
	if source == "" {
		source = e.site.Name
	}

	category := selectionText(card, sel.Category)
	if category == "" {
		// Some sites carry the category in a title attribute rather
		// than element text.
		category, _ = card.Find(sel.Category).First().Attr("title")
		category = strings.TrimSpace(category)
	}
	if category == "" {
		category = e.site.DefaultCategory
	}

	author := selectionText(card, sel.Author)
	if author == "" {
		author = domain.DomainLabel(source)
	}
	if author == "" {
		author = e.site.DefaultAuthor
	}

	sentiment, score := e.scorer.Score(title, content)

	article := &domain.Article{
		Title:          title,
		Content:        content,
		Snippet:        Truncate(content, e.snippetLen),
		Source:         source,
		Category:       category,
		Date:           date.Format(domain.DateLayout),
		Author:         author,
		SourceURL:      sourceURL,
		Sentiment:      sentiment,
		SentimentScore: score,
	}
	return article, nil
}

// parseDate parses the site's date text into a calendar date. When the
// site's layout carries no year, the current year is assumed; a result
// in the future steps back one year, since listings only show history.
func (e *Extractor) parseDate(text string) (time.Time, error) {
	text = strings.TrimSpace(text)
	now := e.now()

	if !e.site.YearInference {
		return time.Parse(e.site.DateLayout, text)
	}

	layout := e.site.DateLayout + " 2006"
	parsed, err := time.Parse(layout, text+" "+now.Format("2006"))
	if err != nil {
		return time.Time{}, err
	}
	if parsed.After(now) {
		parsed = parsed.AddDate(-1, 0, 0)
	}
	return parsed, nil
}

// selectionText returns the trimmed text of the first match, or "" when
// the selector is empty or matches nothing.
func selectionText(card *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return strings.TrimSpace(card.Find(selector).First().Text())
}

// StripTags removes embedded markup from text. This is tag removal for
// content that arrived with residual HTML, not sanitization.
func StripTags(text string) string {
	return strings.TrimSpace(tagPattern.ReplaceAllString(text, ""))
}

// Truncate derives a snippet: the first limit runes of text, with an
// ellipsis marker when truncated.
func Truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}

// resolveURL resolves href against base, returning absolute URLs as-is.
func resolveURL(base, href string) (string, error) {
	hrefURL, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	if hrefURL.IsAbs() {
		return hrefURL.String(), nil
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	return baseURL.ResolveReference(hrefURL).String(), nil
}
