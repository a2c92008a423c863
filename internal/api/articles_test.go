package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/secnews/internal/api"
	"github.com/jonesrussell/secnews/internal/config"
	"github.com/jonesrussell/secnews/internal/domain"
	"github.com/jonesrussell/secnews/internal/logger"
	"github.com/jonesrussell/secnews/internal/storage"
	"github.com/jonesrussell/secnews/testutils"
)

func seededRouter(t *testing.T) (*gin.Engine, []domain.Article) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := storage.NewMemoryStorage()
	seeds := []*domain.Article{
		{
			Title:     "Ransomware gang hits hospital",
			Content:   "A ransomware group claimed responsibility for the outage.",
			Source:    "talkback.sh",
			Date:      "2024-11-15",
			SourceURL: "https://talkback.sh/resource/1",
		},
		{
			Title:     "Phishing campaign observed",
			Content:   "Credential harvesting against banking customers.",
			Source:    "talkback.sh",
			Date:      "2024-11-14",
			SourceURL: "https://talkback.sh/resource/2",
		},
		{
			Title:     "Botnet dismantled",
			Content:   "Law enforcement seized command infrastructure.",
			Source:    "talkback.sh",
			Date:      "2024-11-13",
			SourceURL: "https://talkback.sh/resource/3",
		},
	}
	saved := make([]domain.Article, 0, len(seeds))
	for _, seed := range seeds {
		_, err := store.Save(context.Background(), seed)
		require.NoError(t, err)
		saved = append(saved, *seed)
	}

	return api.SetupRouter(logger.NewNoOp(), store, &config.ServerConfig{}), saved
}

func doRequest(router *gin.Engine, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestListArticles(t *testing.T) {
	t.Parallel()
	router, seeded := seededRouter(t)

	w := doRequest(router, "/articles")
	require.Equal(t, http.StatusOK, w.Code)

	var got []domain.Article
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, seeded, got)
}

func TestListArticlesPagination(t *testing.T) {
	t.Parallel()
	router, seeded := seededRouter(t)

	w := doRequest(router, "/articles?skip=1&limit=1")
	require.Equal(t, http.StatusOK, w.Code)

	var got []domain.Article
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, seeded[1], got[0])
}

func TestListArticlesRejectsBadPagination(t *testing.T) {
	t.Parallel()
	router, _ := seededRouter(t)

	tests := []struct {
		name   string
		target string
	}{
		{name: "negative skip", target: "/articles?skip=-1"},
		{name: "zero limit", target: "/articles?limit=0"},
		{name: "limit too large", target: "/articles?limit=101"},
		{name: "non-numeric skip", target: "/articles?skip=abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := doRequest(router, tt.target)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestGetArticleByID(t *testing.T) {
	t.Parallel()
	router, seeded := seededRouter(t)

	w := doRequest(router, "/articles/"+seeded[0].ID)
	require.Equal(t, http.StatusOK, w.Code)

	var got domain.Article
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, seeded[0], got)
}

func TestGetArticleByIDNotFound(t *testing.T) {
	t.Parallel()
	router, _ := seededRouter(t)

	w := doRequest(router, "/articles/no-such-id")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSearchArticles(t *testing.T) {
	t.Parallel()
	router, _ := seededRouter(t)

	w := doRequest(router, "/articles/search?q=ransomware")
	require.Equal(t, http.StatusOK, w.Code)

	var got []domain.Article
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Ransomware gang hits hospital", got[0].Title)
}

func TestSearchRequiresQuery(t *testing.T) {
	t.Parallel()
	router, _ := seededRouter(t)

	w := doRequest(router, "/articles/search")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthz(t *testing.T) {
	t.Parallel()
	router, _ := seededRouter(t)

	w := doRequest(router, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestListArticlesStorageFailure(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	store := testutils.NewMockStorage()
	store.On("List", mock.Anything, 0, 20).Return(nil, errors.New("backend unavailable"))
	router := api.SetupRouter(logger.NewNoOp(), store, &config.ServerConfig{})

	w := doRequest(router, "/articles")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	store.AssertExpectations(t)
}

func TestHealthzStorageFailure(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	store := testutils.NewMockStorage()
	store.On("TestConnection", mock.Anything).Return(errors.New("backend unavailable"))
	router := api.SetupRouter(logger.NewNoOp(), store, &config.ServerConfig{})

	w := doRequest(router, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	store.AssertExpectations(t)
}

func TestCORSHeaders(t *testing.T) {
	t.Parallel()
	router, _ := seededRouter(t)

	w := doRequest(router, "/articles")
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
