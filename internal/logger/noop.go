package logger

// NoOpLogger is a logger that does nothing. Used in tests.
type NoOpLogger struct{}

// NewNoOp creates a new no-op logger instance.
func NewNoOp() Interface {
	return &NoOpLogger{}
}

// Debug logs a debug message.
func (l *NoOpLogger) Debug(msg string, fields ...any) {}

// Info logs an info message.
func (l *NoOpLogger) Info(msg string, fields ...any) {}

// Warn logs a warning message.
func (l *NoOpLogger) Warn(msg string, fields ...any) {}

// Error logs an error message.
func (l *NoOpLogger) Error(msg string, fields ...any) {}

// Fatal logs a fatal message and exits.
func (l *NoOpLogger) Fatal(msg string, fields ...any) {}

// With creates a new logger with the given fields.
func (l *NoOpLogger) With(fields ...any) Interface { return l }

// WithComponent adds a component name to the logger.
func (l *NoOpLogger) WithComponent(component string) Interface { return l }

// WithError adds an error to the logger.
func (l *NoOpLogger) WithError(err error) Interface { return l }

// Sync flushes buffered log entries.
func (l *NoOpLogger) Sync() error { return nil }
