package queryplane

import (
	"math"
	"sort"
	"time"

	"github.com/distrisearch/core/internal/types"
)

// Strategy is one of the ranking strategies the query plane supports.
type Strategy string

const (
	StrategyDistance   Strategy = "DISTANCE"
	StrategyRecency    Strategy = "RECENCY"
	StrategyPopularity Strategy = "POPULARITY"
	StrategyHybrid     Strategy = "HYBRID"
	StrategyRelevance  Strategy = "RELEVANCE"
)

// NodeResult is one document match a node's local search returned, carrying
// everything the aggregator needs to dedupe, rank, and snippet it without a
// further round trip to the owning node.
type NodeResult struct {
	DocID       string
	NodeID      string
	Score       float64 // the node's local term-frequency score, higher is better
	Content     string
	AccessCount int64
	ModifiedAt  time.Time
	Metadata    map[string]string
}

// RankedItem is one entry of a ranked, paginated response.
type RankedItem struct {
	DocID        string
	NodeID       string
	Score        float64
	Relevance    float64
	Snippet      string
	MatchedTerms []string
}

// dedupeResults flattens per-node results into one list keyed by DocID,
// keeping the highest-scoring copy of any document seen from more than one
// node (keeping the lower-distance / higher-score
// copy").
func dedupeResults(byNode map[string][]NodeResult) []NodeResult {
	best := make(map[string]NodeResult)
	for _, results := range byNode {
		for _, r := range results {
			existing, ok := best[r.DocID]
			if !ok || r.Score > existing.Score {
				best[r.DocID] = r
			}
		}
	}
	out := make([]NodeResult, 0, len(best))
	for _, r := range best {
		out = append(out, r)
	}
	return out
}

// score computes the effective relevance of every result under strategy and
// weights, and returns them sorted best-first. Score normalization happens
// once, over the whole result set, so DISTANCE/HYBRID scores are comparable
// across documents returned by different nodes.
func score(results []NodeResult, strategy Strategy, weights types.RankingWeights, now time.Time) []RankedItem {
	items := make([]RankedItem, len(results))

	minScore, maxScore := math.Inf(1), math.Inf(-1)
	for _, r := range results {
		if r.Score < minScore {
			minScore = r.Score
		}
		if r.Score > maxScore {
			maxScore = r.Score
		}
	}
	scoreRange := maxScore - minScore
	if scoreRange == 0 {
		scoreRange = 1
	}

	for i, r := range results {
		normalizedScore := (r.Score - minScore) / scoreRange // inverse-distance proxy
		recency := recencyScore(r.ModifiedAt, now)
		popularity := popularityScore(r.AccessCount)

		var relevance float64
		switch strategy {
		case StrategyDistance:
			relevance = normalizedScore
		case StrategyRecency:
			relevance = recency
		case StrategyPopularity:
			relevance = popularity
		case StrategyHybrid, StrategyRelevance:
			relevance = weights.Distance*normalizedScore + weights.Recency*recency + weights.Popularity*popularity
		default:
			relevance = normalizedScore
		}

		items[i] = RankedItem{
			DocID:     r.DocID,
			NodeID:    r.NodeID,
			Score:     r.Score,
			Relevance: relevance,
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Relevance != items[j].Relevance {
			return items[i].Relevance > items[j].Relevance
		}
		return items[i].DocID < items[j].DocID
	})
	return items
}

// recencyScore implements exp(-age_days/100), clipped to [0,1]. A missing
// ModifiedAt is treated as neutral (0.5), matching the reference
// implementation's behavior for documents without a modification date.
func recencyScore(modifiedAt time.Time, now time.Time) float64 {
	if modifiedAt.IsZero() {
		return 0.5
	}
	ageDays := now.Sub(modifiedAt).Hours() / 24
	s := math.Exp(-ageDays / 100)
	return clip(s, 0, 1)
}

// popularityScore implements clip(log1p(access_count)/10, 0, 1).
func popularityScore(accessCount int64) float64 {
	if accessCount <= 0 {
		return 0
	}
	s := math.Log1p(float64(accessCount)) / 10
	return clip(s, 0, 1)
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
