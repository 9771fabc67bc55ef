package queryplane

import (
	"testing"
	"time"

	"github.com/distrisearch/core/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestDedupeResultsKeepsHighestScore(t *testing.T) {
	byNode := map[string][]NodeResult{
		"node-1": {{DocID: "doc-1", NodeID: "node-1", Score: 1.0}},
		"node-2": {{DocID: "doc-1", NodeID: "node-2", Score: 2.5}},
	}
	out := dedupeResults(byNode)
	assert.Len(t, out, 1)
	assert.Equal(t, "node-2", out[0].NodeID)
	assert.Equal(t, 2.5, out[0].Score)
}

func TestScoreHybridOrdersByWeightedRelevance(t *testing.T) {
	now := time.Now()
	results := []NodeResult{
		{DocID: "old-popular", Score: 1.0, AccessCount: 1000, ModifiedAt: now.AddDate(0, 0, -400)},
		{DocID: "new-quiet", Score: 1.0, AccessCount: 0, ModifiedAt: now},
	}
	weights := types.RankingWeights{Distance: 0.0, Recency: 0.5, Popularity: 0.5}
	ranked := score(results, StrategyHybrid, weights, now)
	assert.Equal(t, "new-quiet", ranked[0].DocID)
}

func TestScoreDistanceStrategyUsesNormalizedScoreOnly(t *testing.T) {
	now := time.Now()
	results := []NodeResult{
		{DocID: "low", Score: 0.1},
		{DocID: "high", Score: 9.9},
	}
	ranked := score(results, StrategyDistance, types.RankingWeights{}, now)
	assert.Equal(t, "high", ranked[0].DocID)
	assert.Equal(t, 1.0, ranked[0].Relevance)
	assert.Equal(t, 0.0, ranked[1].Relevance)
}

func TestScoreTiebreaksByDocID(t *testing.T) {
	now := time.Now()
	results := []NodeResult{
		{DocID: "zzz", Score: 5},
		{DocID: "aaa", Score: 5},
	}
	ranked := score(results, StrategyDistance, types.RankingWeights{}, now)
	assert.Equal(t, "aaa", ranked[0].DocID)
}

func TestRecencyScoreNeutralForZeroTime(t *testing.T) {
	assert.Equal(t, 0.5, recencyScore(time.Time{}, time.Now()))
}

func TestPopularityScoreClipsAtOne(t *testing.T) {
	assert.Equal(t, 1.0, popularityScore(1_000_000))
	assert.Equal(t, 0.0, popularityScore(0))
}
