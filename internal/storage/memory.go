package storage

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/jonesrussell/secnews/internal/domain"
)

// MemoryStorage keeps articles in memory, in insertion order. Used by
// tests and ephemeral runs.
type MemoryStorage struct {
	mu       sync.RWMutex
	articles []domain.Article
	byURL    map[string]int
}

// NewMemoryStorage creates an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{byURL: make(map[string]int)}
}

// Save persists the article, upserting by source URL.
func (s *MemoryStorage) Save(ctx context.Context, article *domain.Article) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx, ok := s.byURL[article.SourceURL]; ok {
		// Upsert keeps the previously assigned id.
		article.ID = s.articles[idx].ID
		if err := prepare(article, uuid.NewString); err != nil {
			return "", err
		}
		s.articles[idx] = *article
		return article.ID, nil
	}

	if err := prepare(article, uuid.NewString); err != nil {
		return "", err
	}
	s.byURL[article.SourceURL] = len(s.articles)
	s.articles = append(s.articles, *article)
	return article.ID, nil
}

// GetByID returns the article with the given id, or ErrNotFound.
func (s *MemoryStorage) GetByID(ctx context.Context, id string) (*domain.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.articles {
		if s.articles[i].ID == id {
			article := s.articles[i]
			return &article, nil
		}
	}
	return nil, ErrNotFound
}

// List returns up to limit articles after skipping skip, in insertion
// order.
func (s *MemoryStorage) List(ctx context.Context, skip, limit int) ([]domain.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return paginate(s.articles, skip, limit), nil
}

// Search returns articles whose title or content contains the query,
// case-insensitively.
func (s *MemoryStorage) Search(ctx context.Context, query string) ([]domain.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return matchSubstring(s.articles, query), nil
}

// ExistsByURL reports whether an article with the URL is persisted.
func (s *MemoryStorage) ExistsByURL(ctx context.Context, url string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byURL[url]
	return ok, nil
}

// SourceURLs returns every persisted source URL.
func (s *MemoryStorage) SourceURLs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	urls := make([]string, 0, len(s.articles))
	for i := range s.articles {
		urls = append(urls, s.articles[i].SourceURL)
	}
	return urls, nil
}

// Count returns the number of persisted articles.
func (s *MemoryStorage) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.articles)), nil
}

// TestConnection always succeeds for the in-memory store.
func (s *MemoryStorage) TestConnection(ctx context.Context) error {
	return nil
}

// Close releases nothing for the in-memory store.
func (s *MemoryStorage) Close() error {
	return nil
}

// paginate slices articles by skip and limit, copying the result.
func paginate(articles []domain.Article, skip, limit int) []domain.Article {
	if skip < 0 {
		skip = 0
	}
	if skip >= len(articles) || limit <= 0 {
		return []domain.Article{}
	}
	end := skip + limit
	if end > len(articles) {
		end = len(articles)
	}
	out := make([]domain.Article, end-skip)
	copy(out, articles[skip:end])
	return out
}

// matchSubstring filters articles by a case-insensitive substring match
// over title and content.
func matchSubstring(articles []domain.Article, query string) []domain.Article {
	needle := strings.ToLower(query)
	out := make([]domain.Article, 0)
	for i := range articles {
		if strings.Contains(strings.ToLower(articles[i].Title), needle) ||
			strings.Contains(strings.ToLower(articles[i].Content), needle) {
			out = append(out, articles[i])
		}
	}
	return out
}
