package config

import "errors"

// Configuration validation errors.
var (
	// ErrUnknownBackend is returned for an unrecognized storage backend name.
	ErrUnknownBackend = errors.New("unknown storage backend")
	// ErrMissingAddresses is returned when the elasticsearch backend has no addresses.
	ErrMissingAddresses = errors.New("elasticsearch backend requires at least one address")
	// ErrMissingFilePath is returned when the file backend has no path.
	ErrMissingFilePath = errors.New("file backend requires a path")
)
