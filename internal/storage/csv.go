package storage

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/jonesrussell/secnews/internal/domain"
	"github.com/jonesrussell/secnews/internal/logger"
)

// csvFieldCount is the number of columns in the articles file.
var csvFieldCount = len(domain.FieldNames())

// CSVStorage persists articles to a flat CSV file with a fixed header.
// Every mutation reads and rewrites the whole file under a lock; fine
// for the small record sets this backend is meant for, and a documented
// scalability limit rather than a hidden one.
type CSVStorage struct {
	mu     sync.Mutex
	path   string
	logger logger.Interface
}

// NewCSVStorage creates a file-backed store at the given path. The file
// is created on first save.
func NewCSVStorage(path string, log logger.Interface) *CSVStorage {
	return &CSVStorage{
		path:   path,
		logger: log.WithComponent("csv-storage"),
	}
}

// Save persists the article, upserting by source URL, and rewrites the
// file.
func (s *CSVStorage) Save(ctx context.Context, article *domain.Article) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	articles, err := s.readAll()
	if err != nil {
		return "", err
	}

	replaced := false
	for i := range articles {
		if articles[i].SourceURL == article.SourceURL {
			// Upsert keeps the previously assigned id.
			article.ID = articles[i].ID
			if prepErr := prepare(article, uuid.NewString); prepErr != nil {
				return "", prepErr
			}
			articles[i] = *article
			replaced = true
			break
		}
	}
	if !replaced {
		if prepErr := prepare(article, uuid.NewString); prepErr != nil {
			return "", prepErr
		}
		articles = append(articles, *article)
	}

	if err := s.writeAll(articles); err != nil {
		return "", err
	}
	return article.ID, nil
}

// GetByID returns the article with the given id, or ErrNotFound.
func (s *CSVStorage) GetByID(ctx context.Context, id string) (*domain.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	articles, err := s.readAll()
	if err != nil {
		return nil, err
	}
	for i := range articles {
		if articles[i].ID == id {
			article := articles[i]
			return &article, nil
		}
	}
	return nil, ErrNotFound
}

// List returns up to limit articles after skipping skip, in file order,
// which is insertion order.
func (s *CSVStorage) List(ctx context.Context, skip, limit int) ([]domain.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	articles, err := s.readAll()
	if err != nil {
		return nil, err
	}
	return paginate(articles, skip, limit), nil
}

// Search returns articles whose title or content contains the query,
// case-insensitively.
func (s *CSVStorage) Search(ctx context.Context, query string) ([]domain.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	articles, err := s.readAll()
	if err != nil {
		return nil, err
	}
	return matchSubstring(articles, query), nil
}

// ExistsByURL reports whether an article with the URL is persisted.
func (s *CSVStorage) ExistsByURL(ctx context.Context, url string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	articles, err := s.readAll()
	if err != nil {
		return false, err
	}
	for i := range articles {
		if articles[i].SourceURL == url {
			return true, nil
		}
	}
	return false, nil
}

// SourceURLs returns every persisted source URL.
func (s *CSVStorage) SourceURLs(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	articles, err := s.readAll()
	if err != nil {
		return nil, err
	}
	urls := make([]string, 0, len(articles))
	for i := range articles {
		urls = append(urls, articles[i].SourceURL)
	}
	return urls, nil
}

// Count returns the number of persisted articles.
func (s *CSVStorage) Count(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	articles, err := s.readAll()
	if err != nil {
		return 0, err
	}
	return int64(len(articles)), nil
}

// TestConnection verifies the file's directory exists.
func (s *CSVStorage) TestConnection(ctx context.Context) error {
	dir := filepath.Dir(s.path)
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("storage directory unavailable: %w", err)
	}
	return nil
}

// Close releases nothing for the file store.
func (s *CSVStorage) Close() error {
	return nil
}

// readAll loads every article from the file. A missing file is an empty
// store, not an error.
func (s *CSVStorage) readAll() ([]domain.Article, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open articles file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = csvFieldCount

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read articles file: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	// First row is the header.
	articles := make([]domain.Article, 0, len(records)-1)
	for _, record := range records[1:] {
		article, decodeErr := decodeRecord(record)
		if decodeErr != nil {
			s.logger.Warn("Skipping malformed row", "error", decodeErr)
			continue
		}
		articles = append(articles, article)
	}
	return articles, nil
}

// writeAll rewrites the whole file: header first, then one row per
// article in insertion order.
func (s *CSVStorage) writeAll(articles []domain.Article) error {
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("failed to create articles file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.Write(domain.FieldNames()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i := range articles {
		if err := writer.Write(encodeRecord(&articles[i])); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush articles file: %w", err)
	}
	return nil
}

// encodeRecord renders an article as a CSV row in header order.
func encodeRecord(a *domain.Article) []string {
	return []string{
		a.ID,
		a.Title,
		a.Content,
		a.Snippet,
		a.Source,
		a.Category,
		a.Date,
		a.Author,
		a.SourceURL,
		string(a.Sentiment),
		strconv.FormatFloat(a.SentimentScore, 'f', -1, 64),
	}
}

// decodeRecord parses a CSV row in header order.
func decodeRecord(record []string) (domain.Article, error) {
	if len(record) != csvFieldCount {
		return domain.Article{}, fmt.Errorf("expected %d fields, got %d", csvFieldCount, len(record))
	}
	score, err := strconv.ParseFloat(record[10], 64)
	if err != nil {
		return domain.Article{}, fmt.Errorf("invalid sentiment score %q: %w", record[10], err)
	}
	return domain.Article{
		ID:             record[0],
		Title:          record[1],
		Content:        record[2],
		Snippet:        record[3],
		Source:         record[4],
		Category:       record[5],
		Date:           record[6],
		Author:         record[7],
		SourceURL:      record[8],
		Sentiment:      domain.Sentiment(record[9]),
		SentimentScore: score,
	}, nil
}
