package logger

import "errors"

// ErrNilConfig is returned when a nil configuration is passed to New.
var ErrNilConfig = errors.New("logger configuration is nil")
