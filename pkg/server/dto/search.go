package dto

import "github.com/poliqa/poliqa/pkg/types"

// SearchQuery is the POST /api/v1/search request body.
type SearchQuery struct {
	Query        string  `json:"query" binding:"required"`
	Strategy     string  `json:"strategy,omitempty"`
	TopK         int     `json:"top_k,omitempty"`
	MinScore     float64 `json:"min_score,omitempty"`
	GraphWeight  float64 `json:"graph_weight,omitempty"`
	VectorWeight float64 `json:"vector_weight,omitempty"`
	Rerank       *Rerank `json:"rerank,omitempty"`
	UseCache     *bool   `json:"use_cache,omitempty"`
}

// Rerank gates the lexical reranking pass.
type Rerank struct {
	Enabled         bool    `json:"enabled"`
	BoostExactMatch float64 `json:"boost_exact_match,omitempty"`
	PenalizeLength  bool    `json:"penalize_length,omitempty"`
}

// ToRequest maps the wire shape onto the engine request. Cache use defaults
// to on for the HTTP surface.
func (q *SearchQuery) ToRequest() *types.SearchRequest {
	req := &types.SearchRequest{
		Query:        q.Query,
		Strategy:     types.ParseStrategy(q.Strategy),
		TopK:         q.TopK,
		MinScore:     q.MinScore,
		GraphWeight:  q.GraphWeight,
		VectorWeight: q.VectorWeight,
		UseCache:     true,
	}
	if q.UseCache != nil {
		req.UseCache = *q.UseCache
	}
	if q.Rerank != nil {
		req.Reranking = types.RerankingConfig{
			Enabled:         q.Rerank.Enabled,
			BoostExactMatch: q.Rerank.BoostExactMatch,
			PenalizeLength:  q.Rerank.PenalizeLength,
		}
	}
	return req
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
