package queryplane

import (
	"context"
	"time"

	"github.com/distrisearch/core/internal/metrics"
	"github.com/distrisearch/core/internal/scatter"
	"github.com/distrisearch/core/internal/types"
)

// NodeSearcher performs the SearchLocal RPC against one
// candidate node. Implemented by internal/rpc's cluster client.
type NodeSearcher interface {
	SearchLocal(ctx context.Context, nodeID string, query string, limit int, filters map[string]string) ([]NodeResult, error)
}

// CandidateSource resolves which nodes currently hold postings for a set of
// terms — the sharding layer's LocateTerms, consulted after a local cache
// miss.
type CandidateSource interface {
	LocateTerms(terms []string) []string
}

// NodeProvider supplies the live healthy node set, used for fallback
// candidate selection when a queried node fails.
type NodeProvider interface {
	HealthyNodes() []*types.Node
}

// Config bounds a Plane's fan-out and caching behavior.
type Config struct {
	SearchTimeout     time.Duration // overall deadline, default 10s
	NodeTimeout       time.Duration // per-node RPC budget, default 5s
	MaxResultsPerNode int           // hard cap per node, default 200
	MaxTotalResults   int           // cap on the ranked set before pagination, default 1000
	DefaultMaxResults int           // default page size
	MinTokenLength    int
	MaxQueryTokens    int
	RankingWeights    types.RankingWeights
	CacheTTL          time.Duration
	CacheMaxEntries   int
}

// Result is the response shape of the client-facing Search operation
// ranked items plus the fan-out accounting a caller needs to
// decide whether to retry for completeness.
type Result struct {
	QueryID       string
	QueryType     Type
	Items         []RankedItem
	TotalResults  int
	SearchedNodes []string
	FailedNodes   []string
	SearchTimeMs  float64
	Page          int
	PageSize      int
	HasMore       bool
}

// Plane is the distributed query plane: it owns the parser, the result
// cache, and the fan-out/aggregate/rank/paginate pipeline.
type Plane struct {
	cfg        Config
	parser     *Parser
	searcher   NodeSearcher
	candidates CandidateSource
	nodes      NodeProvider
	cache      *resultCache
}

// New creates a Plane. Zero-valued cfg fields fall back to built-in defaults
// where they are used: 10s search timeout, 5s per-node timeout, 200 results
// per node, 1000 total results, page size 100, 32 query tokens, and a cache
// of 1000 entries with a 300s TTL.
func New(cfg Config, parser *Parser, searcher NodeSearcher, candidates CandidateSource, nodes NodeProvider) *Plane {
	if parser == nil {
		parser = NewParser(nil, cfg.MaxQueryTokens)
	}
	return &Plane{
		cfg:        cfg,
		parser:     parser,
		searcher:   searcher,
		candidates: candidates,
		nodes:      nodes,
		cache:      newResultCache(cfg.CacheTTL, cfg.CacheMaxEntries),
	}
}

// InvalidateCache drops every cached query result. Called whenever a
// document write or delete commits, since any cached query may reference
// the affected document.
func (p *Plane) InvalidateCache() { p.cache.Invalidate() }

// Search executes the full parse/locate/fan-out/aggregate/rank pipeline for one query.
func (p *Plane) Search(ctx context.Context, queryID, query string, extraFilters map[string]string, page, pageSize int, strategy Strategy) (*Result, error) {
	start := time.Now()
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = p.defaultMaxResults()
	}
	if strategy == "" {
		strategy = StrategyHybrid
	}

	processed := p.parser.Parse(query)
	for k, v := range extraFilters {
		if processed.Filters == nil {
			processed.Filters = make(map[string]string)
		}
		processed.Filters[k] = v
	}

	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.QueryLatency, string(processed.Type))

	key := cacheKey(query, processed.Filters)
	deduped, searchedNodes, failedNodes, cacheHit := p.fetch(ctx, key, processed)

	ranked := score(deduped, strategy, p.cfg.RankingWeights, time.Now())
	maxTotal := p.cfg.MaxTotalResults
	if maxTotal <= 0 {
		maxTotal = 1000
	}
	totalResults := len(ranked)
	if totalResults > maxTotal {
		ranked = ranked[:maxTotal]
	}

	contentByDoc := make(map[string]NodeResult, len(deduped))
	for _, r := range deduped {
		contentByDoc[r.DocID] = r
	}

	pageItems := paginate(ranked, page, pageSize)
	for i := range pageItems {
		if nr, ok := contentByDoc[pageItems[i].DocID]; ok {
			snippet, matched := buildSnippet(nr.Content, processed.Keywords, defaultSnippetWindow)
			pageItems[i].Snippet = snippet
			pageItems[i].MatchedTerms = matched
		}
	}

	if !cacheHit {
		metrics.QueryFanoutNodes.Observe(float64(len(searchedNodes)))
	} else {
		metrics.QueryCacheHitsTotal.Inc()
	}

	return &Result{
		QueryID:       queryID,
		QueryType:     processed.Type,
		Items:         pageItems,
		TotalResults:  totalResults,
		SearchedNodes: searchedNodes,
		FailedNodes:   failedNodes,
		SearchTimeMs:  float64(time.Since(start).Microseconds()) / 1000.0,
		Page:          page,
		PageSize:      pageSize,
		HasMore:       page*pageSize < totalResults,
	}, nil
}

// fetch returns the deduped NodeResult set for a query, either from cache
// or by running a fresh scatter-gather fan-out with failure fallback.
func (p *Plane) fetch(ctx context.Context, key string, processed ProcessedQuery) (deduped []NodeResult, searchedNodes, failedNodes []string, cacheHit bool) {
	if cached, ok := p.cache.Get(key, time.Now()); ok {
		return cached, nil, nil, true
	}

	candidateIDs := p.candidates.LocateTerms(processed.Tokens)
	if len(candidateIDs) == 0 {
		return nil, nil, nil, false
	}

	perNodeLimit := p.perNodeBudget(len(candidateIDs))
	byNode, searched, failed := p.gather(ctx, candidateIDs, processed, perNodeLimit)

	originalFailed := failed
	if len(failed) > 0 {
		fallbackIDs := p.fallbackCandidates(candidateIDs, searched, failed)
		if len(fallbackIDs) > 0 {
			fbByNode, fbSearched, _ := p.gather(ctx, fallbackIDs, processed, perNodeLimit)
			for node, results := range fbByNode {
				byNode[node] = results
			}
			searched = append(searched, fbSearched...)
		}
	}
	// failed_nodes always reflects the original scatter round; a fallback
	// success fills in Items/SearchedNodes but never erases the failure.
	failed = dedupeStrings(originalFailed)

	metrics.QueryFailedNodesTotal.Add(float64(len(failed)))
	deduped = dedupeResults(byNode)
	p.cache.Put(key, deduped, time.Now())
	return deduped, searched, failed, false
}

// gather runs one scatter-gather round against targetIDs and returns the
// per-node results plus which nodes succeeded/failed.
func (p *Plane) gather(ctx context.Context, targetIDs []string, processed ProcessedQuery, limit int) (byNode map[string][]NodeResult, searched, failed []string) {
	targets := make([]scatter.Target, 0, len(targetIDs))
	for _, id := range targetIDs {
		nodeID := id
		targets = append(targets, scatter.Target{
			ID: nodeID,
			Call: func(ctx context.Context) (interface{}, error) {
				return p.searcher.SearchLocal(ctx, nodeID, processed.Original, limit, processed.Filters)
			},
		})
	}

	results := scatter.Gather(ctx, targets, p.nodeTimeout(), p.searchTimeout())
	byNode = make(map[string][]NodeResult, len(results))
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r.TargetID)
			continue
		}
		searched = append(searched, r.TargetID)
		if nodeResults, ok := r.Value.([]NodeResult); ok {
			byNode[r.TargetID] = nodeResults
		}
	}
	return byNode, searched, failed
}

// fallbackCandidates returns every healthy node that is not among the
// original candidates, the searched nodes or the failed nodes. It does not
// check whether a node holds postings for the query's terms.
func (p *Plane) fallbackCandidates(original, searched, failed []string) []string {
	tried := make(map[string]struct{}, len(searched)+len(failed))
	for _, id := range searched {
		tried[id] = struct{}{}
	}
	for _, id := range failed {
		tried[id] = struct{}{}
	}
	for _, id := range original {
		tried[id] = struct{}{}
	}

	var fallback []string
	for _, n := range p.nodes.HealthyNodes() {
		if _, done := tried[n.ID]; done {
			continue
		}
		fallback = append(fallback, n.ID)
	}
	return fallback
}

func (p *Plane) perNodeBudget(numCandidates int) int {
	budget := p.cfg.MaxResultsPerNode
	if budget <= 0 {
		budget = 200
	}
	if numCandidates > 0 {
		perNode := (p.defaultMaxResults() * 2) / numCandidates
		if perNode > 0 && perNode < budget {
			return perNode
		}
	}
	return budget
}

func (p *Plane) defaultMaxResults() int {
	if p.cfg.DefaultMaxResults > 0 {
		return p.cfg.DefaultMaxResults
	}
	return 100
}

func (p *Plane) nodeTimeout() time.Duration {
	if p.cfg.NodeTimeout > 0 {
		return p.cfg.NodeTimeout
	}
	return 5 * time.Second
}

func (p *Plane) searchTimeout() time.Duration {
	if p.cfg.SearchTimeout > 0 {
		return p.cfg.SearchTimeout
	}
	return 10 * time.Second
}

func paginate(items []RankedItem, page, pageSize int) []RankedItem {
	start := (page - 1) * pageSize
	if start >= len(items) {
		return nil
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	out := make([]RankedItem, end-start)
	copy(out, items[start:end])
	return out
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

