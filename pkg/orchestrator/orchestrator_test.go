package orchestrator

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poliqa/poliqa/pkg/types"
)

type mockAnalyzer struct {
	analysis *types.QueryAnalysis
}

func (m *mockAnalyzer) Analyze(question string, _ map[string]string) *types.QueryAnalysis {
	if m.analysis != nil {
		return m.analysis
	}
	return &types.QueryAnalysis{
		Query:        question,
		Intent:       types.IntentCoverageAmount,
		QueryType:    types.QueryHybrid,
		IsAnswerable: true,
	}
}

type mockGraph struct {
	results  []types.RetrievalResult
	buildErr error
	execErr  error
	calls    int32
}

func (m *mockGraph) Build(analysis *types.QueryAnalysis) (*types.GraphQuery, error) {
	if m.buildErr != nil {
		return nil, m.buildErr
	}
	return &types.GraphQuery{Template: "test"}, nil
}

func (m *mockGraph) Execute(ctx context.Context, query *types.GraphQuery) ([]types.RetrievalResult, error) {
	atomic.AddInt32(&m.calls, 1)
	if m.execErr != nil {
		return nil, m.execErr
	}
	return m.results, nil
}

type mockVector struct {
	results []types.RetrievalResult
	err     error
	calls   int32
}

func (m *mockVector) Search(ctx context.Context, question string, topK int, minScore float64, indexName string) ([]types.RetrievalResult, error) {
	atomic.AddInt32(&m.calls, 1)
	if m.err != nil {
		return nil, m.err
	}
	if topK < len(m.results) {
		return m.results[:topK], nil
	}
	return m.results, nil
}

type mockGenerator struct {
	answer *types.Answer
	err    error
	panics bool
	calls  int32
}

func (m *mockGenerator) Generate(ctx context.Context, question string, results []types.FusedResult) (*types.Answer, error) {
	atomic.AddInt32(&m.calls, 1)
	if m.panics {
		panic("generator broke")
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.answer, nil
}

func graphRows(n int) []types.RetrievalResult {
	out := make([]types.RetrievalResult, n)
	for i := range out {
		out[i] = types.RetrievalResult{
			NodeID:  string(rune('a' + i)),
			Score:   0.8,
			Content: "graph row",
			Origin:  types.OriginGraph,
		}
	}
	return out
}

func vectorHits(n int) []types.RetrievalResult {
	out := make([]types.RetrievalResult, n)
	for i := range out {
		out[i] = types.RetrievalResult{
			NodeID:  string(rune('m' + i)),
			Score:   0.9,
			Content: "vector hit",
			Origin:  types.OriginVector,
		}
	}
	return out
}

func newTestOrchestrator(graph *mockGraph, vector *mockVector) *Orchestrator {
	return New(&mockAnalyzer{}, graph, vector, nil)
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	o := newTestOrchestrator(&mockGraph{}, &mockVector{})

	_, err := o.Search(context.Background(), &types.SearchRequest{Query: ""})

	assert.ErrorIs(t, err, types.ErrEmptyQuery)
}

func TestSearchHybridPipeline(t *testing.T) {
	graph := &mockGraph{results: graphRows(2)}
	vector := &mockVector{results: vectorHits(3)}
	o := newTestOrchestrator(graph, vector)

	resp, err := o.Search(context.Background(), &types.SearchRequest{Query: "갑상선암 보장 금액은?"})

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Empty(t, resp.Errors)
	assert.Equal(t, types.StrategyStandard, resp.Strategy)
	assert.Len(t, resp.Results, 5)
	assert.Equal(t, 5, resp.TotalCount)
	assert.False(t, resp.CacheHit)
	assert.Equal(t, int32(1), atomic.LoadInt32(&graph.calls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&vector.calls))
}

func TestSearchCacheRoundTrip(t *testing.T) {
	graph := &mockGraph{results: graphRows(1)}
	vector := &mockVector{results: vectorHits(1)}
	o := newTestOrchestrator(graph, vector)

	req := &types.SearchRequest{Query: "갑상선암 보장 금액은?", UseCache: true}

	first, err := o.Search(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, first.CacheHit)

	second, err := o.Search(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, first.Results, second.Results)

	stats := o.CacheStats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int32(1), atomic.LoadInt32(&graph.calls), "cache hit must not re-run retrieval")
}

func TestSearchGracefulGraphDegradation(t *testing.T) {
	graph := &mockGraph{execErr: errors.New("neo4j unreachable")}
	vector := &mockVector{results: vectorHits(2)}
	o := newTestOrchestrator(graph, vector)

	resp, err := o.Search(context.Background(), &types.SearchRequest{Query: "암 진단시 대기기간은?"})

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Len(t, resp.Results, 2)
	for _, r := range resp.Results {
		assert.Equal(t, types.OriginVector, r.Origin)
	}
	require.NotEmpty(t, resp.Errors)
	assert.Contains(t, resp.Errors[0], "neo4j unreachable")
}

func TestSearchBothRetrieversFail(t *testing.T) {
	graph := &mockGraph{execErr: errors.New("graph down")}
	vector := &mockVector{err: errors.New("index down")}
	o := newTestOrchestrator(graph, vector)

	resp, err := o.Search(context.Background(), &types.SearchRequest{Query: "암 보장 금액"})

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Empty(t, resp.Results)
	assert.Len(t, resp.Errors, 2)
}

func TestSearchVectorOnlyRouting(t *testing.T) {
	graph := &mockGraph{results: graphRows(1)}
	vector := &mockVector{results: vectorHits(1)}
	o := New(&mockAnalyzer{analysis: &types.QueryAnalysis{
		Query:        "보험 약관을 요약해줘",
		Intent:       types.IntentPolicySummary,
		QueryType:    types.QueryVectorSearch,
		IsAnswerable: true,
	}}, graph, vector, nil)

	resp, err := o.Search(context.Background(), &types.SearchRequest{Query: "보험 약관을 요약해줘"})

	require.NoError(t, err)
	assert.Equal(t, int32(0), atomic.LoadInt32(&graph.calls), "vector-routed queries skip the graph path")
	assert.Len(t, resp.Results, 1)
}

func TestSearchFastStrategyCapsTopK(t *testing.T) {
	vector := &mockVector{results: vectorHits(12)}
	o := newTestOrchestrator(&mockGraph{}, vector)

	resp, err := o.Search(context.Background(), &types.SearchRequest{
		Query:    "암 보장",
		Strategy: types.StrategyFast,
	})

	require.NoError(t, err)
	assert.Equal(t, types.StrategyFast, resp.Strategy)
	assert.LessOrEqual(t, len(resp.Results), 5)
}

func TestSearchFallbackStrategySkipsRetrieval(t *testing.T) {
	graph := &mockGraph{results: graphRows(1)}
	vector := &mockVector{results: vectorHits(1)}
	o := newTestOrchestrator(graph, vector)

	resp, err := o.Search(context.Background(), &types.SearchRequest{
		Query:    "아무거나",
		Strategy: types.StrategyFallback,
	})

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Empty(t, resp.Results)
	require.NotNil(t, resp.Answer)
	assert.Equal(t, DefaultFallbackText, resp.Answer.Text)
	assert.Equal(t, int32(0), atomic.LoadInt32(&graph.calls))
	assert.Equal(t, int32(0), atomic.LoadInt32(&vector.calls))
}

func TestSearchCancelledContext(t *testing.T) {
	o := newTestOrchestrator(&mockGraph{results: graphRows(1)}, &mockVector{results: vectorHits(1)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp, err := o.Search(ctx, &types.SearchRequest{Query: "암 보장 금액"})

	require.NoError(t, err, "cancellation degrades, never errors")
	require.NotNil(t, resp)
	assert.NotEmpty(t, resp.Errors)
	assert.Empty(t, resp.Results)
}

func TestSearchAnswerGeneration(t *testing.T) {
	o := newTestOrchestrator(&mockGraph{results: graphRows(1)}, &mockVector{})
	o.SetGenerator(&mockGenerator{answer: &types.Answer{Text: "1천만원이 지급됩니다.", Confidence: 0.9}})

	resp, err := o.Search(context.Background(), &types.SearchRequest{Query: "암진단특약 보장 금액은?"})

	require.NoError(t, err)
	require.NotNil(t, resp.Answer)
	assert.Equal(t, "1천만원이 지급됩니다.", resp.Answer.Text)
}

func TestSearchAnswerFailureFallsBack(t *testing.T) {
	o := newTestOrchestrator(&mockGraph{results: graphRows(1)}, &mockVector{})
	o.SetGenerator(&mockGenerator{err: errors.New("llm unavailable")})

	resp, err := o.Search(context.Background(), &types.SearchRequest{Query: "암진단특약 보장 금액은?"})

	require.NoError(t, err)
	assert.True(t, resp.Success, "answer failure degrades, request still succeeds")
	require.NotNil(t, resp.Answer)
	assert.Equal(t, DefaultFallbackText, resp.Answer.Text)
	assert.InDelta(t, 0.1, resp.Answer.Confidence, 1e-12)
	assert.NotEmpty(t, resp.Errors)
}

func TestSearchGeneratorPanicYieldsFallbackResponse(t *testing.T) {
	o := newTestOrchestrator(&mockGraph{results: graphRows(1)}, &mockVector{})
	o.SetGenerator(&mockGenerator{panics: true})

	resp, err := o.Search(context.Background(), &types.SearchRequest{Query: "암진단특약 보장 금액은?"})

	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.False(t, resp.Success)
	assert.Equal(t, types.StrategyFallback, resp.Strategy)
	assert.NotEmpty(t, resp.Errors)
}

func TestSearchRetryOnLowConfidence(t *testing.T) {
	generator := &mockGenerator{answer: &types.Answer{Text: "잘 모르겠습니다.", Confidence: 0.2}}
	opts := DefaultOptions()
	opts.Retry = RetryPolicy{
		MaxAttempts: 3,
		ShouldRetry: LowConfidenceRetry(0.8),
	}
	o := New(&mockAnalyzer{}, &mockGraph{results: graphRows(1)}, &mockVector{}, opts)
	o.SetGenerator(generator)

	resp, err := o.Search(context.Background(), &types.SearchRequest{Query: "암 보장 금액"})

	require.NoError(t, err)
	require.NotNil(t, resp.Answer)
	assert.Equal(t, int32(3), atomic.LoadInt32(&generator.calls), "bounded retries, last outcome returned")
}

func TestRetryPolicyStopsOnSuccess(t *testing.T) {
	var attempts int32
	policy := RetryPolicy{MaxAttempts: 5, Delay: time.Millisecond}

	resp, err := policy.Do(context.Background(), func(ctx context.Context) (*types.SearchResponse, error) {
		n := atomic.AddInt32(&attempts, 1)
		if n < 3 {
			return nil, errors.New("transient")
		}
		return &types.SearchResponse{Success: true}, nil
	})

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestStageMetricsAppendInPipelineOrder(t *testing.T) {
	octx := newOrchestrationContext(types.StrategyStandard)
	start := time.Now()
	octx.recordStage(StageAnalysis, start, nil, nil)
	octx.recordStage(StageGraph, start, errors.New("boom"), nil)
	octx.recordStage(StageVector, start, nil, nil)

	require.Len(t, octx.Metrics.Stages, 3)
	assert.Equal(t, StageAnalysis, octx.Metrics.Stages[0].Stage)
	assert.Equal(t, StageGraph, octx.Metrics.Stages[1].Stage)
	assert.False(t, octx.Metrics.Stages[1].Success)
	require.Len(t, octx.Errors, 1)
	assert.Contains(t, octx.Errors[0], "graph_retrieval")
}
