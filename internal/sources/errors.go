package sources

import "errors"

// Source definition errors, surfaced at load time.
var (
	// ErrNoSources is returned when the sources file defines no sites.
	ErrNoSources = errors.New("no sources defined")
	// ErrMissingName is returned when a site has no name.
	ErrMissingName = errors.New("source name is required")
	// ErrMissingBaseURL is returned when a site has no base URL.
	ErrMissingBaseURL = errors.New("base_url is required")
	// ErrMissingDateLayout is returned when a site has no date layout.
	ErrMissingDateLayout = errors.New("date_layout is required")
	// ErrMissingSelector is returned when a required selector is absent.
	ErrMissingSelector = errors.New("required selector missing")
	// ErrInvalidMonth is returned for an unrecognized boundary month.
	ErrInvalidMonth = errors.New("invalid boundary month")
	// ErrDuplicateName is returned when two sites share a name.
	ErrDuplicateName = errors.New("duplicate source name")
)
