// Package logger provides logging functionality for the application.
package logger

// Level represents the logging level.
type Level string

const (
	// DebugLevel logs debug messages.
	DebugLevel Level = "debug"
	// InfoLevel logs info messages.
	InfoLevel Level = "info"
	// WarnLevel logs warning messages.
	WarnLevel Level = "warn"
	// ErrorLevel logs error messages.
	ErrorLevel Level = "error"
	// FatalLevel logs fatal messages and exits.
	FatalLevel Level = "fatal"
)

// Config represents the logger configuration.
type Config struct {
	// Level is the minimum logging level.
	Level Level `yaml:"level" mapstructure:"level"`
	// Development enables development mode formatting and colors.
	Development bool `yaml:"development" mapstructure:"development"`
	// Encoding sets the logger's encoding, "console" or "json".
	Encoding string `yaml:"encoding" mapstructure:"encoding"`
}
