// Package storage provides article persistence behind a single
// interface with file-backed, Elasticsearch-backed and in-memory
// implementations.
package storage

import (
	"context"
	"fmt"

	"github.com/jonesrussell/secnews/internal/config"
	"github.com/jonesrussell/secnews/internal/domain"
	"github.com/jonesrussell/secnews/internal/logger"
)

// Interface is the article storage abstraction. Reads never mutate
// state; Save upserts keyed by source URL so a collision replaces
// fields rather than creating a duplicate.
type Interface interface {
	// Save persists the article and returns its id. The id is assigned
	// here when the article has none; an upsert keeps the existing id.
	Save(ctx context.Context, article *domain.Article) (string, error)
	// GetByID returns the article with the given id, or ErrNotFound.
	GetByID(ctx context.Context, id string) (*domain.Article, error)
	// List returns up to limit articles after skipping skip, in the
	// backend's stable order.
	List(ctx context.Context, skip, limit int) ([]domain.Article, error)
	// Search returns articles whose title or content matches the query,
	// case-insensitively.
	Search(ctx context.Context, query string) ([]domain.Article, error)
	// ExistsByURL reports whether an article with the URL is persisted.
	ExistsByURL(ctx context.Context, url string) (bool, error)
	// SourceURLs returns every persisted source URL. The deduplication
	// tracker rebuilds from this at process start.
	SourceURLs(ctx context.Context) ([]string, error)
	// Count returns the number of persisted articles.
	Count(ctx context.Context) (int64, error)
	// TestConnection verifies the backend is reachable.
	TestConnection(ctx context.Context) error
	// Close releases backend resources.
	Close() error
}

// New creates the storage backend selected by the configuration. For
// the Elasticsearch backend the article index is created with its
// mapping when missing, so the first save never falls back to dynamic
// mapping.
func New(ctx context.Context, cfg *config.StorageConfig, log logger.Interface) (Interface, error) {
	switch cfg.Backend {
	case config.BackendFile:
		return NewCSVStorage(cfg.File.Path, log), nil
	case config.BackendMemory:
		return NewMemoryStorage(), nil
	case config.BackendElasticsearch:
		client, err := NewElasticsearchClient(&cfg.Elasticsearch)
		if err != nil {
			return nil, err
		}
		store := NewElasticsearchStorage(client, cfg.Elasticsearch.IndexName, log)
		if err := store.EnsureIndex(ctx); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownBackend, cfg.Backend)
	}
}

// prepare normalizes and validates an article before persistence and
// assigns an id when the article has none.
func prepare(article *domain.Article, newID func() string) error {
	article.Normalize()
	if err := article.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid article: %w", err)
	}
	if article.ID == "" {
		article.ID = newID()
	}
	return nil
}
