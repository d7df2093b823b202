package types

// ResultOrigin marks which retrieval path produced a candidate.
type ResultOrigin string

const (
	OriginGraph  ResultOrigin = "graph"
	OriginVector ResultOrigin = "vector"
)

// RetrievalResult is the common candidate shape emitted by both retrievers
// so the fusion layer can treat them uniformly.
type RetrievalResult struct {
	NodeID     string                 `json:"node_id" mapstructure:"node_id"`
	Score      float64                `json:"score" mapstructure:"score"`
	Source     string                 `json:"source,omitempty" mapstructure:"source"`
	Content    string                 `json:"content,omitempty" mapstructure:"content"`
	Properties map[string]interface{} `json:"properties,omitempty" mapstructure:"properties"`
	Origin     ResultOrigin           `json:"origin" mapstructure:"origin"`
}

// Identity returns the merge key for rank fusion: the node id when present,
// otherwise the text content.
func (r RetrievalResult) Identity() string {
	if r.NodeID != "" {
		return r.NodeID
	}
	return r.Content
}

// FusedResult is a retrieval candidate after merging graph and vector sources
// into one ranked item. Rank is 1-based.
type FusedResult struct {
	RetrievalResult `mapstructure:",squash"`

	FusedScore float64        `json:"fused_score" mapstructure:"fused_score"`
	Rank       int            `json:"rank" mapstructure:"rank"`
	Origins    []ResultOrigin `json:"origins" mapstructure:"origins"`

	// GraphRank and VectorRank are the 0-based positions in the source
	// lists, -1 when the result did not appear in that source. They feed
	// the deterministic tie-break.
	GraphRank  int `json:"graph_rank" mapstructure:"graph_rank"`
	VectorRank int `json:"vector_rank" mapstructure:"vector_rank"`
}

// Strategy is a named execution profile selected per request.
type Strategy string

const (
	StrategyFast          Strategy = "fast"
	StrategyStandard      Strategy = "standard"
	StrategyComprehensive Strategy = "comprehensive"
	// StrategyFallback skips retrieval entirely and returns a canned degraded response.
	StrategyFallback Strategy = "fallback"
)

// ParseStrategy maps a wire value onto the closed strategy set,
// defaulting to StrategyStandard.
func ParseStrategy(s string) Strategy {
	switch Strategy(s) {
	case StrategyFast, StrategyStandard, StrategyComprehensive, StrategyFallback:
		return Strategy(s)
	default:
		return StrategyStandard
	}
}

// RerankingConfig gates and tunes the lexical reranking pass.
type RerankingConfig struct {
	Enabled         bool    `json:"enabled" mapstructure:"enabled"`
	BoostExactMatch float64 `json:"boost_exact_match" mapstructure:"boost_exact_match"`
	PenalizeLength  bool    `json:"penalize_length" mapstructure:"penalize_length"`
}

// SearchRequest is the engine's request shape.
type SearchRequest struct {
	Query        string          `json:"query" mapstructure:"query"`
	Strategy     Strategy        `json:"strategy,omitempty" mapstructure:"strategy"`
	TopK         int             `json:"top_k,omitempty" mapstructure:"top_k"`
	MinScore     float64         `json:"min_score,omitempty" mapstructure:"min_score"`
	GraphWeight  float64         `json:"graph_weight,omitempty" mapstructure:"graph_weight"`
	VectorWeight float64         `json:"vector_weight,omitempty" mapstructure:"vector_weight"`
	Reranking    RerankingConfig `json:"reranking,omitempty" mapstructure:"reranking"`
	UseCache     bool            `json:"use_cache" mapstructure:"use_cache"`
}

// Validate rejects malformed requests before the pipeline starts.
func (r *SearchRequest) Validate() error {
	if r.Query == "" {
		return ErrEmptyQuery
	}
	if r.TopK < 0 {
		return ErrInvalidTopK
	}
	return nil
}

// SearchResponse is the engine's response shape. It is always well-formed:
// retrieval failures surface as Errors entries, never as a transport error.
type SearchResponse struct {
	Strategy      Strategy          `json:"strategy" mapstructure:"strategy"`
	Results       []FusedResult     `json:"results" mapstructure:"results"`
	GraphResults  []RetrievalResult `json:"graph_results,omitempty" mapstructure:"graph_results"`
	VectorResults []RetrievalResult `json:"vector_results,omitempty" mapstructure:"vector_results"`
	TotalCount    int               `json:"total_count" mapstructure:"total_count"`
	SearchTimeMs  int64             `json:"search_time_ms" mapstructure:"search_time_ms"`
	Reranked      bool              `json:"reranked" mapstructure:"reranked"`
	Explanation   string            `json:"explanation,omitempty" mapstructure:"explanation"`
	CacheHit      bool              `json:"cache_hit" mapstructure:"cache_hit"`
	Success       bool              `json:"success" mapstructure:"success"`
	Errors        []string          `json:"errors,omitempty" mapstructure:"errors"`

	Analysis *QueryAnalysis `json:"analysis,omitempty" mapstructure:"analysis"`
	Answer   *Answer        `json:"answer,omitempty" mapstructure:"answer"`
}

// AnswerSource is one cited source in a generated answer.
type AnswerSource struct {
	ID        string  `json:"id" mapstructure:"id"`
	Snippet   string  `json:"snippet" mapstructure:"snippet"`
	Relevance float64 `json:"relevance" mapstructure:"relevance"`
}

// Answer is the downstream answer-generation collaborator's output.
type Answer struct {
	Text       string         `json:"answer" mapstructure:"answer"`
	Confidence float64        `json:"confidence" mapstructure:"confidence"`
	Sources    []AnswerSource `json:"sources,omitempty" mapstructure:"sources"`
}
