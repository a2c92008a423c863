package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"

	"github.com/jonesrussell/secnews/internal/config"
	"github.com/jonesrussell/secnews/internal/domain"
	"github.com/jonesrussell/secnews/internal/logger"
)

// searchResultSize bounds search responses; well above the expected
// record count for this system.
const searchResultSize = 1000

// ElasticsearchStorage implements the storage interface using
// Elasticsearch. The document id is a digest of the source URL, which
// makes Save a native upsert-by-url: indexing an existing URL replaces
// the document instead of duplicating it.
type ElasticsearchStorage struct {
	client *es.Client
	index  string
	logger logger.Interface
}

// NewElasticsearchClient creates an Elasticsearch client from the
// configuration.
func NewElasticsearchClient(cfg *config.ElasticsearchConfig) (*es.Client, error) {
	client, err := es.NewClient(es.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		APIKey:    cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}
	return client, nil
}

// NewElasticsearchStorage creates a new Elasticsearch storage instance.
func NewElasticsearchStorage(client *es.Client, index string, log logger.Interface) *ElasticsearchStorage {
	return &ElasticsearchStorage{
		client: client,
		index:  index,
		logger: log.WithComponent("es-storage"),
	}
}

// documentID derives the Elasticsearch document id from the source URL.
func documentID(url string) string {
	hash := sha256.Sum256([]byte(url))
	return hex.EncodeToString(hash[:])
}

// articleMapping is the index mapping for article documents.
func articleMapping() map[string]any {
	return map[string]any{
		"mappings": map[string]any{
			"properties": map[string]any{
				"id":             map[string]any{"type": "keyword"},
				"title":          map[string]any{"type": "text"},
				"content":        map[string]any{"type": "text"},
				"snippet":        map[string]any{"type": "text"},
				"source":         map[string]any{"type": "keyword"},
				"category":       map[string]any{"type": "keyword"},
				"date":           map[string]any{"type": "date", "format": "yyyy-MM-dd"},
				"author":         map[string]any{"type": "keyword"},
				"sourceUrl":      map[string]any{"type": "keyword"},
				"sentiment":      map[string]any{"type": "keyword"},
				"sentimentScore": map[string]any{"type": "float"},
			},
		},
	}
}

// EnsureIndex creates the article index with its mapping when it does
// not exist yet.
func (s *ElasticsearchStorage) EnsureIndex(ctx context.Context) error {
	res, err := s.client.Indices.Exists(
		[]string{s.index},
		s.client.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to check index existence: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	return s.createIndex(ctx)
}

// createIndex creates the article index with its mapping.
func (s *ElasticsearchStorage) createIndex(ctx context.Context) error {
	s.logger.Info("Creating article index", "index", s.index)
	res, err := s.client.Indices.Create(
		s.index,
		s.client.Indices.Create.WithContext(ctx),
		s.client.Indices.Create.WithBody(bytes.NewReader(mustJSON(articleMapping()))),
	)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("error creating index: %s", res.String())
	}
	return nil
}

// DeleteIndex drops the article index. The importer uses this for its
// full-replace path.
func (s *ElasticsearchStorage) DeleteIndex(ctx context.Context) error {
	res, err := s.client.Indices.Delete(
		[]string{s.index},
		s.client.Indices.Delete.WithContext(ctx),
		s.client.Indices.Delete.WithIgnoreUnavailable(true),
	)
	if err != nil {
		return fmt.Errorf("failed to delete index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("error deleting index: %s", res.String())
	}
	return nil
}

// Save persists the article, upserting by source URL. The existing id
// is preserved when the URL is already indexed.
func (s *ElasticsearchStorage) Save(ctx context.Context, article *domain.Article) (string, error) {
	docID := documentID(article.SourceURL)

	existing, err := s.getByDocumentID(ctx, docID)
	if err != nil {
		return "", err
	}
	if existing != nil {
		article.ID = existing.ID
	}
	if err := prepare(article, uuid.NewString); err != nil {
		return "", err
	}

	res, err := s.client.Index(
		s.index,
		bytes.NewReader(mustJSON(article)),
		s.client.Index.WithContext(ctx),
		s.client.Index.WithDocumentID(docID),
	)
	if err != nil {
		return "", fmt.Errorf("failed to index article: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return "", fmt.Errorf("error indexing article: %s", res.String())
	}

	return article.ID, nil
}

// getByDocumentID fetches a document by its Elasticsearch id, returning
// nil when it does not exist.
func (s *ElasticsearchStorage) getByDocumentID(ctx context.Context, docID string) (*domain.Article, error) {
	res, err := s.client.Get(
		s.index,
		docID,
		s.client.Get.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if res.IsError() {
		return nil, fmt.Errorf("error getting document: %s", res.String())
	}

	var doc struct {
		Source any `json:"_source"`
	}
	if decodeErr := json.NewDecoder(res.Body).Decode(&doc); decodeErr != nil {
		return nil, fmt.Errorf("error decoding response: %w", decodeErr)
	}
	if doc.Source == nil {
		return nil, nil
	}

	var article domain.Article
	if decodeErr := mapstructure.Decode(doc.Source, &article); decodeErr != nil {
		return nil, fmt.Errorf("error unmarshaling document: %w", decodeErr)
	}
	return &article, nil
}

// GetByID returns the article with the given record id, or ErrNotFound.
// The record id is a field, not the document id, so this is a term
// query.
func (s *ElasticsearchStorage) GetByID(ctx context.Context, id string) (*domain.Article, error) {
	articles, err := s.search(ctx, map[string]any{
		"query": map[string]any{
			"term": map[string]any{"id": id},
		},
		"size": 1,
	})
	if err != nil {
		return nil, err
	}
	if len(articles) == 0 {
		return nil, ErrNotFound
	}
	return &articles[0], nil
}

// List returns up to limit articles after skipping skip, most recent
// publication date first.
func (s *ElasticsearchStorage) List(ctx context.Context, skip, limit int) ([]domain.Article, error) {
	return s.search(ctx, map[string]any{
		"query": map[string]any{"match_all": map[string]any{}},
		"from":  skip,
		"size":  limit,
		"sort": []any{
			map[string]any{"date": map[string]any{"order": "desc"}},
			map[string]any{"id": map[string]any{"order": "asc"}},
		},
	})
}

// Search returns articles matching the query over title and content.
// Matching uses the analyzed text fields, which is case-insensitive.
// Results are capped at searchResultSize documents.
func (s *ElasticsearchStorage) Search(ctx context.Context, query string) ([]domain.Article, error) {
	return s.search(ctx, map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  query,
				"fields": []string{"title", "content"},
			},
		},
		"size": searchResultSize,
	})
}

// ExistsByURL reports whether an article with the URL is indexed.
func (s *ElasticsearchStorage) ExistsByURL(ctx context.Context, url string) (bool, error) {
	res, err := s.client.Exists(
		s.index,
		documentID(url),
		s.client.Exists.WithContext(ctx),
	)
	if err != nil {
		return false, fmt.Errorf("failed to check document existence: %w", err)
	}
	defer res.Body.Close()
	return res.StatusCode == http.StatusOK, nil
}

// SourceURLs returns the indexed source URLs, capped at
// searchResultSize documents. Past that scale a tracker rebuilt from
// this set is incomplete, which costs redundant fetches but not
// duplicate records, since Save upserts by URL.
func (s *ElasticsearchStorage) SourceURLs(ctx context.Context) ([]string, error) {
	articles, err := s.search(ctx, map[string]any{
		"query":   map[string]any{"match_all": map[string]any{}},
		"_source": []string{"sourceUrl"},
		"size":    searchResultSize,
	})
	if err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(articles))
	for i := range articles {
		urls = append(urls, articles[i].SourceURL)
	}
	return urls, nil
}

// Count returns the number of indexed articles.
func (s *ElasticsearchStorage) Count(ctx context.Context) (int64, error) {
	res, err := s.client.Count(
		s.client.Count.WithContext(ctx),
		s.client.Count.WithIndex(s.index),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, fmt.Errorf("error counting articles: %s", res.String())
	}

	var countResult struct {
		Count int64 `json:"count"`
	}
	if decodeErr := json.NewDecoder(res.Body).Decode(&countResult); decodeErr != nil {
		return 0, fmt.Errorf("error decoding response: %w", decodeErr)
	}
	return countResult.Count, nil
}

// TestConnection verifies the cluster answers.
func (s *ElasticsearchStorage) TestConnection(ctx context.Context) error {
	res, err := s.client.Info(s.client.Info.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to connect to Elasticsearch: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("error response from Elasticsearch: %s", res.String())
	}
	return nil
}

// Close closes the Elasticsearch client.
func (s *ElasticsearchStorage) Close() error {
	// The Elasticsearch client has no close method.
	return nil
}

// search runs a query against the article index and decodes the hits.
func (s *ElasticsearchStorage) search(ctx context.Context, query map[string]any) ([]domain.Article, error) {
	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(bytes.NewReader(mustJSON(query))),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("error searching: %s", res.String())
	}

	var searchResult struct {
		Hits struct {
			Hits []struct {
				Source any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if decodeErr := json.NewDecoder(res.Body).Decode(&searchResult); decodeErr != nil {
		return nil, fmt.Errorf("error decoding response: %w", decodeErr)
	}

	articles := make([]domain.Article, 0, len(searchResult.Hits.Hits))
	for _, hit := range searchResult.Hits.Hits {
		var article domain.Article
		if decodeErr := mapstructure.Decode(hit.Source, &article); decodeErr != nil {
			return nil, fmt.Errorf("error unmarshaling hit: %w", decodeErr)
		}
		articles = append(articles, article)
	}
	return articles, nil
}

// mustJSON marshals a value to JSON, panicking on error
func mustJSON(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("failed to marshal to JSON: %v", err))
	}
	return data
}
