// Package sources manages per-site scraping definitions loaded from a
// yaml file: where a listing lives, which selectors extract each field,
// and when a crawl of that site should stop.
package sources

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Selectors defines the CSS selectors used to extract article fields
// from one listing card. ArticleList, ArticleLink, Title, Content and
// Date are required; the rest fall back to per-site defaults.
type Selectors struct {
	// ArticleList matches the card elements on a listing page.
	ArticleList string `yaml:"article_list"`
	// ArticleLink matches the anchor carrying the article URL, relative
	// to a card.
	ArticleLink string `yaml:"article_link"`
	// Title matches the article title within a card.
	Title string `yaml:"title"`
	// Content matches the article body or summary within a card.
	Content string `yaml:"content"`
	// Date matches the publication date text within a card.
	Date string `yaml:"date"`
	// Author matches the author name within a card, optional.
	Author string `yaml:"author"`
	// Category matches the category label within a card, optional.
	Category string `yaml:"category"`
	// Source matches the publisher name within a card, optional.
	Source string `yaml:"source"`
}

// Validate checks that the required selectors are present.
func (s *Selectors) Validate() error {
	if s.ArticleList == "" {
		return fmt.Errorf("%w: article_list", ErrMissingSelector)
	}
	if s.ArticleLink == "" {
		return fmt.Errorf("%w: article_link", ErrMissingSelector)
	}
	if s.Title == "" {
		return fmt.Errorf("%w: title", ErrMissingSelector)
	}
	if s.Content == "" {
		return fmt.Errorf("%w: content", ErrMissingSelector)
	}
	if s.Date == "" {
		return fmt.Errorf("%w: date", ErrMissingSelector)
	}
	return nil
}

// Site is the scraping definition for one news site.
type Site struct {
	// Name identifies the site in logs and as the article source default.
	Name string `yaml:"name"`
	// BaseURL is the listing page URL.
	BaseURL string `yaml:"base_url"`
	// PageParam is the query parameter driving load-more continuations.
	PageParam string `yaml:"page_param"`
	// Selectors extract article fields from listing cards.
	Selectors Selectors `yaml:"selectors"`
	// DefaultAuthor is used when the author selector matches nothing.
	DefaultAuthor string `yaml:"default_author"`
	// DefaultCategory is used when the category selector matches nothing.
	DefaultCategory string `yaml:"default_category"`
	// DateLayout is the Go time layout for the site's date text.
	DateLayout string `yaml:"date_layout"`
	// YearInference appends the current year before parsing when the
	// layout carries no year, stepping back a year for future dates.
	YearInference bool `yaml:"year_inference"`
	// BoundaryMonth stops the crawl when an article dated in this month
	// is reached, e.g. "january". Empty disables the boundary.
	BoundaryMonth string `yaml:"boundary_month"`
	// MaxPages bounds the number of listing pages walked per crawl.
	// Zero means the global default applies.
	MaxPages int `yaml:"max_pages"`
	// RateLimit is the minimum delay between listing requests, as a
	// duration string such as "2s". Empty disables rate limiting.
	RateLimit string `yaml:"rate_limit"`
}

// RateLimitDuration returns the parsed rate limit, or zero when unset.
func (s *Site) RateLimitDuration() time.Duration {
	if s.RateLimit == "" {
		return 0
	}
	d, err := time.ParseDuration(s.RateLimit)
	if err != nil {
		return 0
	}
	return d
}

// Validate checks the site definition for the fields a crawl cannot
// run without.
func (s *Site) Validate() error {
	if s.Name == "" {
		return ErrMissingName
	}
	if s.BaseURL == "" {
		return fmt.Errorf("source %q: %w", s.Name, ErrMissingBaseURL)
	}
	if s.DateLayout == "" {
		return fmt.Errorf("source %q: %w", s.Name, ErrMissingDateLayout)
	}
	if s.BoundaryMonth != "" {
		if _, err := parseMonth(s.BoundaryMonth); err != nil {
			return fmt.Errorf("source %q: %w", s.Name, err)
		}
	}
	if s.RateLimit != "" {
		if _, err := time.ParseDuration(s.RateLimit); err != nil {
			return fmt.Errorf("source %q: invalid rate_limit: %w", s.Name, err)
		}
	}
	if err := s.Selectors.Validate(); err != nil {
		return fmt.Errorf("source %q: %w", s.Name, err)
	}
	return nil
}

// applyDefaults fills optional fields.
func (s *Site) applyDefaults() {
	if s.PageParam == "" {
		s.PageParam = "page"
	}
	if s.DefaultAuthor == "" {
		s.DefaultAuthor = "Unknown"
	}
	if s.DefaultCategory == "" {
		s.DefaultCategory = "Uncategorized"
	}
}

// Boundary returns the crawl boundary predicate for this site. The
// returned function reports whether a date lies on previously-processed
// history, meaning the crawl should stop. Returns nil when the site
// defines no boundary.
func (s *Site) Boundary() func(time.Time) bool {
	if s.BoundaryMonth == "" {
		return nil
	}
	month, err := parseMonth(s.BoundaryMonth)
	if err != nil {
		// Validate rejects unknown months before a crawl starts.
		return nil
	}
	return func(t time.Time) bool {
		return t.Month() == month
	}
}

// months maps lowercase English month names to time.Month.
var months = map[string]time.Month{
	"january":   time.January,
	"february":  time.February,
	"march":     time.March,
	"april":     time.April,
	"may":       time.May,
	"june":      time.June,
	"july":      time.July,
	"august":    time.August,
	"september": time.September,
	"october":   time.October,
	"november":  time.November,
	"december":  time.December,
}

// parseMonth resolves an English month name to a time.Month.
func parseMonth(name string) (time.Month, error) {
	month, ok := months[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMonth, name)
	}
	return month, nil
}

// file is the top-level shape of a sources yaml file.
type file struct {
	Sources []Site `yaml:"sources"`
}

// LoadFile reads, defaults and validates the site definitions in the
// given yaml file.
func LoadFile(path string) ([]Site, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates site definitions from yaml bytes.
func Parse(data []byte) ([]Site, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse sources file: %w", err)
	}
	if len(f.Sources) == 0 {
		return nil, ErrNoSources
	}

	seen := make(map[string]bool, len(f.Sources))
	for i := range f.Sources {
		site := &f.Sources[i]
		site.applyDefaults()
		if err := site.Validate(); err != nil {
			return nil, err
		}
		if seen[site.Name] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, site.Name)
		}
		seen[site.Name] = true
	}

	return f.Sources, nil
}

// FindByName returns the site with the given name, or nil.
func FindByName(sites []Site, name string) *Site {
	for i := range sites {
		if sites[i].Name == name {
			return &sites[i]
		}
	}
	return nil
}
