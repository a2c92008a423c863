// Package testutils provides shared testing utilities across the
// application.
package testutils

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/jonesrussell/secnews/internal/domain"
)

// MockStorage is a mock implementation of the storage interface.
type MockStorage struct {
	mock.Mock
}

// NewMockStorage creates a new mock storage instance.
func NewMockStorage() *MockStorage {
	return &MockStorage{}
}

// Save persists an article.
func (m *MockStorage) Save(ctx context.Context, article *domain.Article) (string, error) {
	args := m.Called(ctx, article)
	return args.String(0), args.Error(1)
}

// GetByID returns an article by id.
func (m *MockStorage) GetByID(ctx context.Context, id string) (*domain.Article, error) {
	args := m.Called(ctx, id)
	if article, ok := args.Get(0).(*domain.Article); ok {
		return article, args.Error(1)
	}
	return nil, args.Error(1)
}

// List returns a page of articles.
func (m *MockStorage) List(ctx context.Context, skip, limit int) ([]domain.Article, error) {
	args := m.Called(ctx, skip, limit)
	if articles, ok := args.Get(0).([]domain.Article); ok {
		return articles, args.Error(1)
	}
	return nil, args.Error(1)
}

// Search returns articles matching a query.
func (m *MockStorage) Search(ctx context.Context, query string) ([]domain.Article, error) {
	args := m.Called(ctx, query)
	if articles, ok := args.Get(0).([]domain.Article); ok {
		return articles, args.Error(1)
	}
	return nil, args.Error(1)
}

// ExistsByURL reports whether a URL is persisted.
func (m *MockStorage) ExistsByURL(ctx context.Context, url string) (bool, error) {
	args := m.Called(ctx, url)
	return args.Bool(0), args.Error(1)
}

// SourceURLs returns every persisted source URL.
func (m *MockStorage) SourceURLs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if urls, ok := args.Get(0).([]string); ok {
		return urls, args.Error(1)
	}
	return nil, args.Error(1)
}

// Count returns the number of persisted articles.
func (m *MockStorage) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// TestConnection verifies the backend is reachable.
func (m *MockStorage) TestConnection(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close releases backend resources.
func (m *MockStorage) Close() error {
	args := m.Called()
	return args.Error(0)
}
