package index

import (
	"testing"

	"github.com/distrisearch/core/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestAddAndSearchDocument(t *testing.T) {
	idx := NewInvertedIndex(nil)
	terms := idx.AddDocument(&types.Document{ID: "d1", Content: "hello world"})
	assert.ElementsMatch(t, []string{"hello", "world"}, terms)

	results := idx.Search("hello", 10)
	assert.Len(t, results, 1)
	assert.Equal(t, "d1", results[0].DocID)
}

func TestSearchRanksByAccumulatedScore(t *testing.T) {
	idx := NewInvertedIndex(nil)
	idx.AddDocument(&types.Document{ID: "d1", Content: "search search search engine"})
	idx.AddDocument(&types.Document{ID: "d2", Content: "search engine results"})

	results := idx.Search("search engine", 10)
	assert.Len(t, results, 2)
	assert.Equal(t, "d1", results[0].DocID) // d1 accumulates 3/4+1/4 = 1.0, d2 only 1/3+1/3
}

func TestRemoveDocument(t *testing.T) {
	idx := NewInvertedIndex(nil)
	idx.AddDocument(&types.Document{ID: "d1", Content: "hello world"})

	removed := idx.RemoveDocument("d1")
	assert.ElementsMatch(t, []string{"hello", "world"}, removed)
	assert.Empty(t, idx.Search("hello", 10))
	assert.Nil(t, idx.GetDocument("d1"))
}

func TestReindexingReplacesPostings(t *testing.T) {
	idx := NewInvertedIndex(nil)
	idx.AddDocument(&types.Document{ID: "d1", Content: "hello world"})
	idx.AddDocument(&types.Document{ID: "d1", Content: "goodbye"})

	assert.Empty(t, idx.Search("hello", 10))
	results := idx.Search("goodbye", 10)
	assert.Len(t, results, 1)
}

func TestSearchEmptyQuery(t *testing.T) {
	idx := NewInvertedIndex(nil)
	idx.AddDocument(&types.Document{ID: "d1", Content: "hello world"})
	assert.Empty(t, idx.Search("the a", 10))
}

func TestSearchTopKLimit(t *testing.T) {
	idx := NewInvertedIndex(nil)
	for _, id := range []string{"d1", "d2", "d3"} {
		idx.AddDocument(&types.Document{ID: id, Content: "match"})
	}
	results := idx.Search("match", 2)
	assert.Len(t, results, 2)
}

func TestStats(t *testing.T) {
	idx := NewInvertedIndex(nil)
	idx.AddDocument(&types.Document{ID: "d1", Content: "hello world"})
	idx.AddDocument(&types.Document{ID: "d2", Content: "hello there"})

	stats := idx.Stats()
	assert.Equal(t, 2, stats.NumDocuments)
	assert.Equal(t, 3, stats.NumTerms) // hello, world, there
}
