package queryplane

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/distrisearch/core/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	byNode map[string][]NodeResult
	fail   map[string]bool
	calls  map[string]int
}

func (f *fakeSearcher) SearchLocal(ctx context.Context, nodeID string, query string, limit int, filters map[string]string) ([]NodeResult, error) {
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[nodeID]++
	if f.fail[nodeID] {
		return nil, errors.New("node unreachable")
	}
	return f.byNode[nodeID], nil
}

type fakeCandidates struct {
	ids []string
}

func (f *fakeCandidates) LocateTerms(terms []string) []string { return f.ids }

type fakeNodes struct {
	healthy []*types.Node
}

func (f *fakeNodes) HealthyNodes() []*types.Node { return f.healthy }

func TestPlaneSearchAggregatesAcrossNodes(t *testing.T) {
	searcher := &fakeSearcher{
		byNode: map[string][]NodeResult{
			"node-1": {{DocID: "doc-1", NodeID: "node-1", Score: 3, Content: "invoice for march spending report"}},
			"node-2": {{DocID: "doc-2", NodeID: "node-2", Score: 5, Content: "quarterly invoice summary document"}},
		},
	}
	candidates := &fakeCandidates{ids: []string{"node-1", "node-2"}}
	nodes := &fakeNodes{}

	p := New(Config{}, nil, searcher, candidates, nodes)
	result, err := p.Search(context.Background(), "q-1", "invoice", nil, 1, 10, StrategyDistance)
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalResults)
	assert.Len(t, result.Items, 2)
	assert.Equal(t, "doc-2", result.Items[0].DocID)
	assert.ElementsMatch(t, []string{"node-1", "node-2"}, result.SearchedNodes)
	assert.Empty(t, result.FailedNodes)
}

func TestPlaneSearchFallsBackOnNodeFailure(t *testing.T) {
	searcher := &fakeSearcher{
		byNode: map[string][]NodeResult{
			"node-2": {{DocID: "doc-2", NodeID: "node-2", Score: 1, Content: "invoice report"}},
		},
		fail: map[string]bool{"node-1": true},
	}
	candidates := &fakeCandidates{ids: []string{"node-1"}}
	nodes := &fakeNodes{healthy: []*types.Node{{ID: "node-2"}}}

	p := New(Config{}, nil, searcher, candidates, nodes)
	result, err := p.Search(context.Background(), "q-1", "invoice", nil, 1, 10, StrategyDistance)
	require.NoError(t, err)

	assert.Len(t, result.Items, 1)
	assert.Equal(t, "doc-2", result.Items[0].DocID)
	assert.Contains(t, result.SearchedNodes, "node-2")
	assert.Equal(t, []string{"node-1"}, result.FailedNodes)
}

func TestPlaneSearchUsesCacheOnSecondCall(t *testing.T) {
	searcher := &fakeSearcher{
		byNode: map[string][]NodeResult{
			"node-1": {{DocID: "doc-1", NodeID: "node-1", Score: 1, Content: "invoice"}},
		},
	}
	candidates := &fakeCandidates{ids: []string{"node-1"}}
	p := New(Config{}, nil, searcher, candidates, &fakeNodes{})

	_, err := p.Search(context.Background(), "q-1", "invoice", nil, 1, 10, StrategyDistance)
	require.NoError(t, err)
	_, err = p.Search(context.Background(), "q-2", "invoice", nil, 1, 10, StrategyDistance)
	require.NoError(t, err)

	assert.Equal(t, 1, searcher.calls["node-1"])
}

func TestPlaneSearchPaginates(t *testing.T) {
	searcher := &fakeSearcher{
		byNode: map[string][]NodeResult{
			"node-1": {
				{DocID: "doc-1", NodeID: "node-1", Score: 1, Content: "invoice one"},
				{DocID: "doc-2", NodeID: "node-1", Score: 2, Content: "invoice two"},
				{DocID: "doc-3", NodeID: "node-1", Score: 3, Content: "invoice three"},
			},
		},
	}
	candidates := &fakeCandidates{ids: []string{"node-1"}}
	p := New(Config{}, nil, searcher, candidates, &fakeNodes{})

	result, err := p.Search(context.Background(), "q-1", "invoice", nil, 1, 2, StrategyDistance)
	require.NoError(t, err)
	assert.Len(t, result.Items, 2)
	assert.True(t, result.HasMore)

	result2, err := p.Search(context.Background(), "q-1", "invoice", nil, 2, 2, StrategyDistance)
	require.NoError(t, err)
	assert.Len(t, result2.Items, 1)
	assert.False(t, result2.HasMore)
}

func TestPlaneSearchNoCandidatesReturnsEmpty(t *testing.T) {
	searcher := &fakeSearcher{}
	candidates := &fakeCandidates{ids: nil}
	p := New(Config{}, nil, searcher, candidates, &fakeNodes{})

	result, err := p.Search(context.Background(), "q-1", "invoice", nil, 1, 10, StrategyDistance)
	require.NoError(t, err)
	assert.Empty(t, result.Items)
	assert.Equal(t, 0, result.TotalResults)
}

func TestPlaneSearchRespectsSearchTimeout(t *testing.T) {
	searcher := &fakeSearcher{byNode: map[string][]NodeResult{}}
	candidates := &fakeCandidates{ids: []string{"node-1"}}
	p := New(Config{SearchTimeout: 50 * time.Millisecond}, nil, searcher, candidates, &fakeNodes{})

	start := time.Now()
	_, err := p.Search(context.Background(), "q-1", "invoice", nil, 1, 10, StrategyDistance)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
}
