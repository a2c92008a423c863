// Package config provides the typed application configuration, loaded
// through viper and validated before any component starts.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/jonesrussell/secnews/internal/logger"
)

// Storage backend names recognized in configuration.
const (
	BackendFile          = "file"
	BackendElasticsearch = "elasticsearch"
	BackendMemory        = "memory"
)

// Config is the root application configuration.
type Config struct {
	// App holds application-level settings.
	App AppConfig `mapstructure:"app"`
	// Logger holds logger settings.
	Logger logger.Config `mapstructure:"logger"`
	// Server holds HTTP query API settings.
	Server ServerConfig `mapstructure:"server"`
	// Storage selects and configures the persistence backend.
	Storage StorageConfig `mapstructure:"storage"`
	// Database holds the optional execution-history database settings.
	Database DatabaseConfig `mapstructure:"database"`
	// Scraper holds crawl pipeline settings.
	Scraper ScraperConfig `mapstructure:"scraper"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	// Name is the application name.
	Name string `mapstructure:"name"`
	// Environment is "development" or "production".
	Environment string `mapstructure:"environment"`
	// Debug enables debug logging.
	Debug bool `mapstructure:"debug"`
}

// ServerConfig holds HTTP query API settings.
type ServerConfig struct {
	// Address is the listen address, e.g. ":8080".
	Address string `mapstructure:"address"`
	// ReadTimeout bounds request reads.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout bounds response writes.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// IdleTimeout bounds idle keep-alive connections.
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
	// AllowedOrigins are origins permitted by the CORS middleware.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	// Backend is one of "file", "elasticsearch" or "memory".
	Backend string `mapstructure:"backend"`
	// File configures the CSV file backend.
	File FileStorageConfig `mapstructure:"file"`
	// Elasticsearch configures the document-store backend.
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
}

// FileStorageConfig configures the CSV file backend.
type FileStorageConfig struct {
	// Path is the location of the articles CSV file.
	Path string `mapstructure:"path"`
}

// ElasticsearchConfig configures the Elasticsearch backend.
type ElasticsearchConfig struct {
	// Addresses lists the cluster node URLs.
	Addresses []string `mapstructure:"addresses"`
	// IndexName is the article index name.
	IndexName string `mapstructure:"index_name"`
	// Username for basic authentication, optional.
	Username string `mapstructure:"username"`
	// Password for basic authentication, optional.
	Password string `mapstructure:"password"`
	// APIKey for API key authentication, optional.
	APIKey string `mapstructure:"api_key"`
}

// DatabaseConfig holds the optional Postgres execution-history settings.
// Recording is disabled when DSN is empty.
type DatabaseConfig struct {
	// DSN is the Postgres connection string.
	DSN string `mapstructure:"dsn"`
}

// ScraperConfig holds crawl pipeline settings.
type ScraperConfig struct {
	// SourcesFile is the path to the per-site source definitions.
	SourcesFile string `mapstructure:"sources_file"`
	// UserAgent sent with listing requests.
	UserAgent string `mapstructure:"user_agent"`
	// RequestTimeout bounds a single listing fetch or load-more wait.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	// SnippetLength is the maximum snippet length in runes.
	SnippetLength int `mapstructure:"snippet_length"`
	// MaxPages is the default page bound for sites that do not set one.
	MaxPages int `mapstructure:"max_pages"`
	// Interval between scheduled crawl cycles.
	Interval time.Duration `mapstructure:"interval"`
	// FailureBackoff is the shortened wait after a failed cycle.
	FailureBackoff time.Duration `mapstructure:"failure_backoff"`
	// Cron optionally replaces Interval with a cron expression.
	Cron string `mapstructure:"cron"`
}

// Default configuration values.
const (
	DefaultSnippetLength  = 100
	DefaultMaxPages       = 50
	DefaultRequestTimeout = 10 * time.Second
	DefaultInterval       = 30 * time.Minute
	DefaultFailureBackoff = time.Minute
)

// Load unmarshals the viper-managed configuration into a validated Config.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills zero values with documented defaults.
func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "secnews"
	}
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = BackendFile
	}
	if c.Storage.File.Path == "" {
		c.Storage.File.Path = "articles.csv"
	}
	if len(c.Storage.Elasticsearch.Addresses) == 0 {
		c.Storage.Elasticsearch.Addresses = []string{"http://127.0.0.1:9200"}
	}
	if c.Storage.Elasticsearch.IndexName == "" {
		c.Storage.Elasticsearch.IndexName = "articles"
	}
	if c.Scraper.SourcesFile == "" {
		c.Scraper.SourcesFile = "sources.yml"
	}
	if c.Scraper.SnippetLength <= 0 {
		c.Scraper.SnippetLength = DefaultSnippetLength
	}
	if c.Scraper.MaxPages <= 0 {
		c.Scraper.MaxPages = DefaultMaxPages
	}
	if c.Scraper.RequestTimeout <= 0 {
		c.Scraper.RequestTimeout = DefaultRequestTimeout
	}
	if c.Scraper.Interval <= 0 {
		c.Scraper.Interval = DefaultInterval
	}
	if c.Scraper.FailureBackoff <= 0 {
		c.Scraper.FailureBackoff = DefaultFailureBackoff
	}
}

// Validate fails fast on configuration a component would otherwise
// reject deep inside a crawl.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendFile, BackendElasticsearch, BackendMemory:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Storage.Backend)
	}
	if c.Storage.Backend == BackendElasticsearch && len(c.Storage.Elasticsearch.Addresses) == 0 {
		return ErrMissingAddresses
	}
	if c.Storage.Backend == BackendFile && c.Storage.File.Path == "" {
		return ErrMissingFilePath
	}
	return nil
}
