package cookie

import (
	"math/rand"
	"sync"
	"time"
)

// Scorer ranks cookies for the random selection mode. Scores are relative
// within a single scoring pass; a small random jitter breaks ties so equal
// cookies share load instead of one always winning.
type Scorer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewScorer creates a scorer with a time-seeded jitter source.
func NewScorer() *Scorer {
	return &Scorer{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// newScorerWithSeed pins the jitter for deterministic tests.
func newScorerWithSeed(seed int64) *Scorer {
	return &Scorer{rng: rand.New(rand.NewSource(seed))}
}

// Score rates a raw cookie given its usage history and failure flag.
// Hard penalties short-circuit: a structurally broken cookie scores -100,
// a cookie currently marked failed -50, an expired one -10.
func (s *Scorer) Score(raw string, stats *UsageStats, failed bool) int {
	score := baseScore(raw, stats, failed)
	if score < 0 {
		return score
	}
	s.mu.Lock()
	jitter := s.rng.Intn(21) - 10
	s.mu.Unlock()
	return score + jitter
}

// baseScore is the deterministic portion of the score.
func baseScore(raw string, stats *UsageStats, failed bool) int {
	if !ValidateFormat(raw) {
		return -100
	}
	if failed {
		return -50
	}
	expiryValid, _, daysLeft := CheckExpiry(raw)
	if !expiryValid {
		return -10
	}

	score := 100
	switch {
	case daysLeft > 30:
		score += 50
	case daysLeft > 7:
		score += 20
	case daysLeft > 1:
		score += 10
	}

	if stats != nil && stats.TotalUses > 0 {
		rate := stats.SuccessRate
		switch {
		case rate > 0.9:
			score += 30
		case rate > 0.7:
			score += 15
		case rate < 0.5:
			score -= 20
		}
		if stats.TotalUses >= 5 && stats.TotalUses <= 20 {
			score += 10
		} else if stats.TotalUses > 50 {
			score -= 10
		}
	}
	return score
}
