// Package common provides the shared dependency wiring used by every
// command: configuration, logger and storage construction.
package common

import (
	"context"
	"fmt"

	"github.com/jonesrussell/secnews/internal/config"
	"github.com/jonesrussell/secnews/internal/logger"
	"github.com/jonesrussell/secnews/internal/sources"
	"github.com/jonesrussell/secnews/internal/storage"
)

// CommandDeps holds the dependencies shared by commands.
type CommandDeps struct {
	// Config is the loaded application configuration.
	Config *config.Config
	// Logger is the application logger.
	Logger logger.Interface
}

// NewCommandDeps loads configuration and builds the logger.
func NewCommandDeps() (*CommandDeps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.New(&cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return &CommandDeps{Config: cfg, Logger: log}, nil
}

// OpenStorage creates the configured storage backend.
func (d *CommandDeps) OpenStorage(ctx context.Context) (storage.Interface, error) {
	store, err := storage.New(ctx, &d.Config.Storage, d.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage: %w", err)
	}
	return store, nil
}

// LoadSources reads the per-site scraping definitions.
func (d *CommandDeps) LoadSources() ([]sources.Site, error) {
	sites, err := sources.LoadFile(d.Config.Scraper.SourcesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load sources: %w", err)
	}
	return sites, nil
}
