// Package domain provides domain models used across the application.
package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// DateLayout is the canonical calendar-date layout for persisted articles.
// Articles carry a publication date only, no time of day.
const DateLayout = "2006-01-02"

// Sentiment classifies the tone of an article.
type Sentiment string

const (
	// SentimentPositive marks an article with a positive tone.
	SentimentPositive Sentiment = "Positive"
	// SentimentNeutral marks an article with a neutral tone.
	SentimentNeutral Sentiment = "Neutral"
	// SentimentNegative marks an article with a negative tone.
	SentimentNegative Sentiment = "Negative"
)

// Article represents a scraped security-news article.
type Article struct {
	// Unique identifier, assigned by the storage layer at save time
	ID string `json:"id" mapstructure:"id"`
	// Title of the article
	Title string `json:"title" mapstructure:"title"`
	// Full text content with markup stripped
	Content string `json:"content" mapstructure:"content"`
	// Short preview derived from Content, never supplied independently
	Snippet string `json:"snippet" mapstructure:"snippet"`
	// Name of the publishing site
	Source string `json:"source" mapstructure:"source"`
	// Primary category, "Uncategorized" when the site does not expose one
	Category string `json:"category" mapstructure:"category"`
	// Publication date in DateLayout form
	Date string `json:"date" mapstructure:"date"`
	// Author name, or a fallback derived from the source domain
	Author string `json:"author" mapstructure:"author"`
	// Canonical URL of the article; the deduplication key
	SourceURL string `json:"sourceUrl" mapstructure:"sourceUrl"`
	// Sentiment classification from the configured scorer
	Sentiment Sentiment `json:"sentiment" mapstructure:"sentiment"`
	// Numeric sentiment score; range depends on the scorer
	SentimentScore float64 `json:"sentimentScore" mapstructure:"sentimentScore"`
}

// Validation errors for article records.
var (
	ErrMissingTitle     = errors.New("article title is required")
	ErrMissingContent   = errors.New("article content is required")
	ErrMissingSourceURL = errors.New("article source URL is required")
	ErrInvalidDate      = errors.New("article date must be a valid calendar date")
)

// Validate checks the invariants every persisted article must satisfy.
func (a *Article) Validate() error {
	if strings.TrimSpace(a.Title) == "" {
		return ErrMissingTitle
	}
	if strings.TrimSpace(a.Content) == "" {
		return ErrMissingContent
	}
	if strings.TrimSpace(a.SourceURL) == "" {
		return ErrMissingSourceURL
	}
	if _, err := time.Parse(DateLayout, a.Date); err != nil {
		return ErrInvalidDate
	}
	return nil
}

// Normalize fills optional fields with their documented defaults.
func (a *Article) Normalize() {
	if strings.TrimSpace(a.Category) == "" {
		a.Category = "Uncategorized"
	}
	if strings.TrimSpace(a.Author) == "" {
		if derived := DomainLabel(a.Source); derived != "" {
			a.Author = derived
		} else {
			a.Author = "Unknown"
		}
	}
	if a.Sentiment == "" {
		a.Sentiment = SentimentNeutral
	}
}

// domainLabelPattern captures the label immediately before the public
// suffix, skipping any protocol and leading "www.".
var domainLabelPattern = regexp.MustCompile(`(?:^|://)(?:www\.)?([\w-]+)\.`)

// DomainLabel extracts the registrable domain label from a URL or host
// name, e.g. "https://www.example.com/a" yields "example". Returns the
// empty string when no label can be found.
func DomainLabel(s string) string {
	match := domainLabelPattern.FindStringSubmatch(s)
	if match == nil {
		return ""
	}
	return match[1]
}

// FieldNames returns the article field names in persisted column order.
// The CSV backend uses this as its file header.
func FieldNames() []string {
	return []string{
		"id",
		"title",
		"content",
		"snippet",
		"source",
		"category",
		"date",
		"author",
		"sourceUrl",
		"sentiment",
		"sentimentScore",
	}
}
