package scraper

import (
	"errors"
	"fmt"
)

// FailureKind classifies why a listing item could not be turned into an
// article. Item failures are skipped, never fatal to a page or site.
type FailureKind string

const (
	// FailureMissingLink means the link selector matched nothing.
	FailureMissingLink FailureKind = "missing_link"
	// FailureMissingRequiredField means title or content was absent or
	// empty after trimming.
	FailureMissingRequiredField FailureKind = "missing_required_field"
	// FailureDateParse means the date text did not match the site's
	// date layout. The record is dropped, not retried.
	FailureDateParse FailureKind = "date_parse"
)

// ExtractionError is a structured reason an item was skipped.
type ExtractionError struct {
	// Kind classifies the failure.
	Kind FailureKind
	// Field names the offending field, when one applies.
	Field string
	// URL is the item's resolved URL, when known.
	URL string
	// Err is the underlying cause, when one exists.
	Err error
}

// Error implements the error interface.
func (e *ExtractionError) Error() string {
	msg := fmt.Sprintf("extraction failed (%s)", e.Kind)
	if e.Field != "" {
		msg += fmt.Sprintf(": field %q", e.Field)
	}
	if e.URL != "" {
		msg += fmt.Sprintf(": %s", e.URL)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// IsFailure reports whether err is an ExtractionError of the given kind.
func IsFailure(err error, kind FailureKind) bool {
	var extractionErr *ExtractionError
	if !errors.As(err, &extractionErr) {
		return false
	}
	return extractionErr.Kind == kind
}
