package poliqa

import (
	"context"

	"github.com/poliqa/poliqa/pkg/orchestrator"
	"github.com/poliqa/poliqa/pkg/types"
)

// Search runs one request through the orchestrated pipeline.
func (c *Client) Search(ctx context.Context, req *types.SearchRequest) (*types.SearchResponse, error) {
	return c.orchestrator.Search(ctx, req)
}

// Ask is the one-question convenience wrapper: standard strategy, default
// result count, cache on.
func (c *Client) Ask(ctx context.Context, question string) (*types.SearchResponse, error) {
	return c.Search(ctx, &types.SearchRequest{
		Query:    question,
		UseCache: true,
	})
}

// Analyze exposes the query analyzer directly: intent, entities, routing.
func (c *Client) Analyze(question string) *types.QueryAnalysis {
	return c.analyzer.Analyze(question, nil)
}

// CacheStats snapshots the response cache counters.
func (c *Client) CacheStats() orchestrator.CacheStats {
	return c.orchestrator.CacheStats()
}

// ClearCaches drops the response cache and the embedding cache, for use on
// configuration reload.
func (c *Client) ClearCaches() {
	c.orchestrator.ClearCache()
	c.vector.ClearCache()
}
