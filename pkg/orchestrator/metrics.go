package orchestrator

import (
	"time"

	"github.com/google/uuid"

	"github.com/poliqa/poliqa/pkg/types"
)

// Stage names, in pipeline order.
const (
	StageCacheLookup = "cache_lookup"
	StageAnalysis    = "analysis"
	StageGraph       = "graph_retrieval"
	StageVector      = "vector_retrieval"
	StageFusion      = "fusion"
	StageAnswer      = "answer_generation"
	StageAssembly    = "assembly"
)

// StageMetrics records one stage execution for the request's audit trail.
type StageMetrics struct {
	Stage    string                 `json:"stage"`
	Start    time.Time              `json:"start"`
	End      time.Time              `json:"end"`
	Success  bool                   `json:"success"`
	Error    string                 `json:"error,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Duration is the stage's wall-clock time.
func (m StageMetrics) Duration() time.Duration {
	return m.End.Sub(m.Start)
}

// OrchestrationMetrics aggregates the per-stage records for one request.
// Stages appear in pipeline execution order.
type OrchestrationMetrics struct {
	RequestID     string         `json:"request_id"`
	Strategy      types.Strategy `json:"strategy"`
	Stages        []StageMetrics `json:"stages"`
	TotalDuration time.Duration  `json:"total_duration"`
	CacheHit      bool           `json:"cache_hit"`
}

// OrchestrationContext carries one request's mutable pipeline state. It is
// created per request and never shared across requests.
type OrchestrationContext struct {
	RequestID string
	Strategy  types.Strategy
	Stage     string
	Errors    []string
	Analysis  *types.QueryAnalysis
	Response  *types.SearchResponse
	Metrics   OrchestrationMetrics

	startedAt time.Time
}

func newOrchestrationContext(strategy types.Strategy) *OrchestrationContext {
	id := uuid.NewString()
	return &OrchestrationContext{
		RequestID: id,
		Strategy:  strategy,
		Metrics: OrchestrationMetrics{
			RequestID: id,
			Strategy:  strategy,
		},
		startedAt: time.Now(),
	}
}

// recordStage appends one finished stage to the audit trail and, on
// failure, to the context's append-only error list.
func (c *OrchestrationContext) recordStage(stage string, start time.Time, err error, metadata map[string]interface{}) {
	c.Stage = stage
	m := StageMetrics{
		Stage:    stage,
		Start:    start,
		End:      time.Now(),
		Success:  err == nil,
		Metadata: metadata,
	}
	if err != nil {
		m.Error = err.Error()
		c.Errors = append(c.Errors, (&types.StageError{Stage: stage, Err: err}).Error())
	}
	c.Metrics.Stages = append(c.Metrics.Stages, m)
}

func (c *OrchestrationContext) finish(cacheHit bool) {
	c.Metrics.CacheHit = cacheHit
	c.Metrics.TotalDuration = time.Since(c.startedAt)
}
