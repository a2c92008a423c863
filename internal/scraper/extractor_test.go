package scraper_test

import (
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/secnews/internal/domain"
	"github.com/jonesrussell/secnews/internal/scraper"
	"github.com/jonesrussell/secnews/internal/sources"
)

// fixedScorer returns the same sentiment for every article.
type fixedScorer struct {
	sentiment domain.Sentiment
	score     float64
}

func (f *fixedScorer) Score(_, _ string) (domain.Sentiment, float64) {
	return f.sentiment, f.score
}

func testSite() *sources.Site {
	return &sources.Site{
		Name:    "talkback",
		BaseURL: "https://talkback.sh/",
		Selectors: sources.Selectors{
			ArticleList: "div.card",
			ArticleLink: "a.card-link",
			Title:       "div.card-title",
			Content:     "div.text-body-secondary",
			Date:        "span.published",
			Author:      "span.author",
			Category:    "span.badge",
			Source:      "span.origin",
		},
		DefaultAuthor:   "Unknown",
		DefaultCategory: "Uncategorized",
		DateLayout:      "Mon 2 Jan",
		YearInference:   true,
	}
}

func cardFromHTML(t *testing.T, html string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	card := doc.Find("div.card").First()
	require.Equal(t, 1, card.Length())
	return card
}

const fullCard = `
<div class="card">
  <a class="card-link" href="/resource/abc123"></a>
  <div class="card-title">Critical flaw in VPN appliance</div>
  <div class="text-body-secondary">Researchers disclosed a critical flaw affecting enterprise VPN appliances.</div>
  <span class="badge" title="Vulnerability">vuln</span>
  <span class="published">Fri 15 Nov</span>
  <span class="origin">bleepingcomputer.com</span>
</div>`

// pinnedClock fixes "now" so year inference is deterministic.
func pinnedClock(year int, month time.Month, day int) func() time.Time {
	return func() time.Time {
		return time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
	}
}

func TestExtractFullCard(t *testing.T) {
	t.Parallel()
	site := testSite()
	extractor := scraper.NewExtractor(site, &fixedScorer{domain.SentimentPositive, 0.8}, 100,
		scraper.WithClock(pinnedClock(2024, time.December, 1)))

	article, err := extractor.Extract(cardFromHTML(t, fullCard))
	require.NoError(t, err)

	assert.Equal(t, "Critical flaw in VPN appliance", article.Title)
	assert.Equal(t, "Researchers disclosed a critical flaw affecting enterprise VPN appliances.", article.Content)
	assert.Equal(t, "2024-11-15", article.Date)
	assert.Equal(t, "https://talkback.sh/resource/abc123", article.SourceURL)
	assert.Equal(t, "bleepingcomputer.com", article.Source)
	assert.Equal(t, "vuln", article.Category)
	assert.Equal(t, "bleepingcomputer", article.Author, "author derives from the source domain")
	assert.Equal(t, domain.SentimentPositive, article.Sentiment)
	assert.InDelta(t, 0.8, article.SentimentScore, 1e-9)
	assert.Empty(t, article.ID, "id assignment belongs to storage")
}

func TestExtractYearInferenceStepsBackForFutureDates(t *testing.T) {
	t.Parallel()
	html := strings.Replace(fullCard, "Fri 15 Nov", "Sun 15 Dec", 1)
	extractor := scraper.NewExtractor(testSite(), &fixedScorer{domain.SentimentNeutral, 0.5}, 100,
		scraper.WithClock(pinnedClock(2024, time.December, 1)))

	article, err := extractor.Extract(cardFromHTML(t, html))
	require.NoError(t, err)
	assert.Equal(t, "2023-12-15", article.Date, "a listing never shows future dates")
}

func TestExtractMissingLink(t *testing.T) {
	t.Parallel()
	html := `<div class="card"><div class="card-title">No link</div></div>`
	extractor := scraper.NewExtractor(testSite(), &fixedScorer{domain.SentimentNeutral, 0.5}, 100)

	_, err := extractor.Extract(cardFromHTML(t, html))
	require.Error(t, err)
	assert.True(t, scraper.IsFailure(err, scraper.FailureMissingLink))
}

func TestExtractMissingRequiredFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		remove string
		field  string
	}{
		{name: "missing title", remove: `<div class="card-title">Critical flaw in VPN appliance</div>`, field: "title"},
		{name: "missing content", remove: `<div class="text-body-secondary">Researchers disclosed a critical flaw affecting enterprise VPN appliances.</div>`, field: "content"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			html := strings.Replace(fullCard, tt.remove, "", 1)
			extractor := scraper.NewExtractor(testSite(), &fixedScorer{domain.SentimentNeutral, 0.5}, 100)

			_, err := extractor.Extract(cardFromHTML(t, html))
			require.Error(t, err)
			assert.True(t, scraper.IsFailure(err, scraper.FailureMissingRequiredField))

			var extractionErr *scraper.ExtractionError
			require.ErrorAs(t, err, &extractionErr)
			assert.Equal(t, tt.field, extractionErr.Field)
		})
	}
}

func TestExtractUnparseableDate(t *testing.T) {
	t.Parallel()
	html := strings.Replace(fullCard, "Fri 15 Nov", "sometime recently", 1)
	extractor := scraper.NewExtractor(testSite(), &fixedScorer{domain.SentimentNeutral, 0.5}, 100)

	_, err := extractor.Extract(cardFromHTML(t, html))
	require.Error(t, err)
	assert.True(t, scraper.IsFailure(err, scraper.FailureDateParse))
}

func TestExtractCategoryTitleAttributeFallback(t *testing.T) {
	t.Parallel()
	html := strings.Replace(fullCard,
		`<span class="badge" title="Vulnerability">vuln</span>`,
		`<span class="badge" title="Vulnerability"></span>`, 1)
	extractor := scraper.NewExtractor(testSite(), &fixedScorer{domain.SentimentNeutral, 0.5}, 100,
		scraper.WithClock(pinnedClock(2024, time.December, 1)))

	article, err := extractor.Extract(cardFromHTML(t, html))
	require.NoError(t, err)
	assert.Equal(t, "Vulnerability", article.Category)
}

func TestExtractDefaultsWhenOptionalSelectorsMissing(t *testing.T) {
	t.Parallel()
	html := `
<div class="card">
  <a class="card-link" href="/resource/abc123"></a>
  <div class="card-title">Title only</div>
  <div class="text-body-secondary">Some content.</div>
  <span class="published">Fri 15 Nov</span>
</div>`
	extractor := scraper.NewExtractor(testSite(), &fixedScorer{domain.SentimentNeutral, 0.5}, 100,
		scraper.WithClock(pinnedClock(2024, time.December, 1)))

	article, err := extractor.Extract(cardFromHTML(t, html))
	require.NoError(t, err)
	assert.Equal(t, "talkback", article.Source, "source falls back to the site name")
	assert.Equal(t, "Uncategorized", article.Category)
	assert.Equal(t, "Unknown", article.Author)
}

func TestExtractSnippetTruncation(t *testing.T) {
	t.Parallel()
	long := strings.Repeat("abcde ", 50) // 300 characters
	html := strings.Replace(fullCard,
		"Researchers disclosed a critical flaw affecting enterprise VPN appliances.",
		long, 1)
	extractor := scraper.NewExtractor(testSite(), &fixedScorer{domain.SentimentNeutral, 0.5}, 100,
		scraper.WithClock(pinnedClock(2024, time.December, 1)))

	article, err := extractor.Extract(cardFromHTML(t, html))
	require.NoError(t, err)

	content := strings.TrimSpace(long)
	assert.Equal(t, content[:100]+"...", article.Snippet)
	assert.True(t, strings.HasPrefix(content, strings.TrimSuffix(article.Snippet, "...")))
}

func TestExtractShortContentSnippetNotTruncated(t *testing.T) {
	t.Parallel()
	extractor := scraper.NewExtractor(testSite(), &fixedScorer{domain.SentimentNeutral, 0.5}, 100,
		scraper.WithClock(pinnedClock(2024, time.December, 1)))

	article, err := extractor.Extract(cardFromHTML(t, fullCard))
	require.NoError(t, err)
	assert.Equal(t, article.Content, article.Snippet)
	assert.False(t, strings.HasSuffix(article.Snippet, "..."))
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		text  string
		limit int
		want  string
	}{
		{name: "shorter than limit", text: "short", limit: 10, want: "short"},
		{name: "exactly at limit", text: "exact", limit: 5, want: "exact"},
		{name: "truncated", text: "truncated here", limit: 9, want: "truncated..."},
		{name: "multibyte runes", text: "héllo wörld", limit: 5, want: "héllo..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, scraper.Truncate(tt.text, tt.limit))
		})
	}
}

func TestStripTags(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "plain text", scraper.StripTags("<p>plain <b>text</b></p>"))
	assert.Equal(t, "untouched", scraper.StripTags("untouched"))
}
