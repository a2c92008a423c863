package scraper_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonesrussell/secnews/internal/domain"
	"github.com/jonesrussell/secnews/internal/scraper"
)

func TestRandomScorerScoreInRange(t *testing.T) {
	t.Parallel()
	scorer := scraper.NewRandomScorer()

	for range 100 {
		sentiment, score := scorer.Score("title", "content")
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 1.0)
		assert.Contains(t, []domain.Sentiment{
			domain.SentimentPositive,
			domain.SentimentNeutral,
			domain.SentimentNegative,
		}, sentiment)
	}
}

func TestRandomScorerWithRange(t *testing.T) {
	t.Parallel()
	scorer := scraper.NewRandomScorerWithRange(0.4, 0.6)

	for range 100 {
		_, score := scorer.Score("title", "content")
		assert.GreaterOrEqual(t, score, 0.4)
		assert.LessOrEqual(t, score, 0.6)
	}
}
