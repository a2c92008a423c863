package scraper

import (
	"math/rand"
	"sync"
	"time"

	"github.com/jonesrussell/secnews/internal/domain"
)

// Scorer assigns a sentiment classification and score to an article.
// The extractor treats it as opaque, so a model-backed implementation
// can replace the default without touching extraction.
type Scorer interface {
	Score(title, content string) (domain.Sentiment, float64)
}

// RandomScorer is the placeholder scorer: a uniformly random sentiment
// and a uniform score within the configured range.
type RandomScorer struct {
	mu  sync.Mutex
	rng *rand.Rand
	min float64
	max float64
}

// sentiments are the values the random scorer chooses between.
var sentiments = []domain.Sentiment{
	domain.SentimentPositive,
	domain.SentimentNeutral,
	domain.SentimentNegative,
}

// NewRandomScorer creates a random scorer emitting scores in [0.0, 1.0].
func NewRandomScorer() *RandomScorer {
	return NewRandomScorerWithRange(0.0, 1.0)
}

// NewRandomScorerWithRange creates a random scorer emitting scores in
// [minScore, maxScore], e.g. [-1.0, 1.0] for a signed range.
func NewRandomScorerWithRange(minScore, maxScore float64) *RandomScorer {
	return &RandomScorer{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		min: minScore,
		max: maxScore,
	}
}

// Score returns a random sentiment and score. Safe for concurrent use.
func (s *RandomScorer) Score(title, content string) (domain.Sentiment, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sentiment := sentiments[s.rng.Intn(len(sentiments))]
	score := s.min + s.rng.Float64()*(s.max-s.min)
	return sentiment, score
}
