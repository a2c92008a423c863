package storage

import "errors"

// Storage errors.
var (
	// ErrNotFound is returned when a lookup matches no article.
	ErrNotFound = errors.New("article not found")
)
