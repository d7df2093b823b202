package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/poliqa/poliqa/pkg/fusion"
	"github.com/poliqa/poliqa/pkg/types"
)

// QueryAnalyzer produces the structured reading of a question.
type QueryAnalyzer interface {
	Analyze(question string, hints map[string]string) *types.QueryAnalysis
}

// GraphRetriever builds and executes intent-templated graph queries.
type GraphRetriever interface {
	Build(analysis *types.QueryAnalysis) (*types.GraphQuery, error)
	Execute(ctx context.Context, query *types.GraphQuery) ([]types.RetrievalResult, error)
}

// VectorRetriever runs semantic search over the clause embedding index.
type VectorRetriever interface {
	Search(ctx context.Context, question string, topK int, minScore float64, indexName string) ([]types.RetrievalResult, error)
}

// AnswerGenerator is the downstream answer-generation collaborator.
type AnswerGenerator interface {
	Generate(ctx context.Context, question string, results []types.FusedResult) (*types.Answer, error)
}

// MetricsRecorder receives each request's audit trail, typically a
// telemetry sink. Recording failures are logged, never surfaced.
type MetricsRecorder interface {
	Record(metrics OrchestrationMetrics) error
}

// DefaultFallbackText is returned when answer generation is unavailable.
const DefaultFallbackText = "죄송합니다. 현재 질문에 대한 답변을 생성할 수 없습니다. 잠시 후 다시 시도해 주세요."

// fallbackConfidence marks degraded answers.
const fallbackConfidence = 0.1

// Options enumerates every recognized orchestration knob.
type Options struct {
	DefaultStrategy types.Strategy
	DefaultTopK     int
	DefaultMinScore float64
	GraphWeight     float64
	VectorWeight    float64
	FusionMethod    fusion.Method
	FallbackText    string
	IndexName       string
	CacheSize       int
	CacheTTL        time.Duration
	Retry           RetryPolicy
	Profiles        map[types.Strategy]Profile
	Metrics         MetricsRecorder
	Logger          *slog.Logger
}

// DefaultOptions returns the standard orchestration knobs.
func DefaultOptions() *Options {
	return &Options{
		DefaultStrategy: types.StrategyStandard,
		DefaultTopK:     10,
		GraphWeight:     0.5,
		VectorWeight:    0.5,
		FusionMethod:    fusion.RRF,
		FallbackText:    DefaultFallbackText,
		CacheSize:       DefaultCacheSize,
		CacheTTL:        DefaultCacheTTL,
		Profiles:        DefaultProfiles(),
	}
}

// Orchestrator coordinates the pipeline end to end. Requests are
// independent; the response cache is the only shared mutable state.
type Orchestrator struct {
	analyzer  QueryAnalyzer
	graph     GraphRetriever
	vector    VectorRetriever
	generator AnswerGenerator
	cache     *ResponseCache
	opts      Options
	profiles  map[types.Strategy]Profile
	logger    *slog.Logger
}

// New wires the pipeline components. The cache is constructed here, once,
// and lives for the orchestrator's lifetime; ClearCache drops it on
// configuration reload.
func New(analyzer QueryAnalyzer, graph GraphRetriever, vector VectorRetriever, opts *Options) *Orchestrator {
	if opts == nil {
		opts = DefaultOptions()
	}
	resolved := *opts
	if resolved.DefaultStrategy == "" {
		resolved.DefaultStrategy = types.StrategyStandard
	}
	if resolved.DefaultTopK <= 0 {
		resolved.DefaultTopK = 10
	}
	if resolved.GraphWeight == 0 && resolved.VectorWeight == 0 {
		resolved.GraphWeight, resolved.VectorWeight = 0.5, 0.5
	}
	if resolved.FallbackText == "" {
		resolved.FallbackText = DefaultFallbackText
	}
	if resolved.Profiles == nil {
		resolved.Profiles = DefaultProfiles()
	}
	if resolved.Logger == nil {
		resolved.Logger = slog.Default()
	}
	return &Orchestrator{
		analyzer: analyzer,
		graph:    graph,
		vector:   vector,
		cache:    NewResponseCache(resolved.CacheSize, resolved.CacheTTL),
		opts:     resolved,
		profiles: resolved.Profiles,
		logger:   resolved.Logger,
	}
}

// SetGenerator attaches the answer-generation collaborator. Without one,
// responses carry retrieval results only.
func (o *Orchestrator) SetGenerator(generator AnswerGenerator) {
	o.generator = generator
}

// CacheStats snapshots the response cache counters.
func (o *Orchestrator) CacheStats() CacheStats {
	return o.cache.Stats()
}

// ClearCache drops every cached response.
func (o *Orchestrator) ClearCache() {
	o.cache.Clear()
}

// Search runs one request through the pipeline. Malformed requests are
// rejected synchronously; everything past validation returns a well-formed
// response, with stage failures downgraded to Errors entries.
func (o *Orchestrator) Search(ctx context.Context, req *types.SearchRequest) (*types.SearchResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	strategy := req.Strategy
	if strategy == "" {
		strategy = o.opts.DefaultStrategy
	}
	topK := req.TopK
	if topK == 0 {
		topK = o.profileFor(strategy).TopK
	}
	if topK == 0 {
		topK = o.opts.DefaultTopK
	}

	return o.opts.Retry.Do(ctx, func(ctx context.Context) (*types.SearchResponse, error) {
		return o.runOnce(ctx, req, strategy, topK), nil
	})
}

// runOnce executes the full stage sequence for one attempt. A panic in the
// orchestration loop itself is downgraded to a fallback-strategy response
// with Success false.
func (o *Orchestrator) runOnce(ctx context.Context, req *types.SearchRequest, strategy types.Strategy, topK int) (response *types.SearchResponse) {
	octx := newOrchestrationContext(strategy)
	started := time.Now()

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("orchestration panic",
				"request_id", octx.RequestID,
				"stage", octx.Stage,
				"panic", fmt.Sprint(r))
			err := fmt.Errorf("%w: panic in stage %s: %v", types.ErrOrchestration, octx.Stage, r)
			response = o.crashResponse(started, append(octx.Errors, err.Error()))
		}
	}()

	// Cache lookup short-circuits the whole pipeline.
	if req.UseCache {
		start := time.Now()
		if cached, ok := o.cache.Get(req.Query, strategy, topK); ok {
			octx.recordStage(StageCacheLookup, start, nil, map[string]interface{}{"hit": true})
			octx.finish(true)
			o.record(octx)
			hit := *cached
			hit.CacheHit = true
			return &hit
		}
		octx.recordStage(StageCacheLookup, start, nil, map[string]interface{}{"hit": false})
	}

	if strategy == types.StrategyFallback {
		return o.cannedResponse(octx, started)
	}

	profile := o.profileFor(strategy)
	analysis := o.runAnalysis(ctx, octx, req.Query, profile.AnalysisTimeout)
	octx.Analysis = analysis

	if ctx.Err() != nil {
		octx.Errors = append(octx.Errors, "request cancelled before retrieval")
		return o.assemble(octx, req, started, analysis, nil, nil, nil)
	}

	graphResults, vectorResults := o.runRetrieval(ctx, octx, req, analysis, topK, profile)

	fused := o.runFusion(octx, req, graphResults, vectorResults)
	if len(fused) > topK {
		fused = fused[:topK]
	}

	if req.Reranking.Enabled {
		fused = fusion.Rerank(fused, req.Query, fusion.RerankConfig{
			BoostExactMatch: req.Reranking.BoostExactMatch,
			PenalizeLength:  req.Reranking.PenalizeLength,
		})
	}

	var answer *types.Answer
	if o.generator != nil && ctx.Err() == nil {
		answer = o.runAnswer(ctx, octx, req.Query, fused, profile.AnswerTimeout)
	}

	response = o.assemble(octx, req, started, analysis, fused, graphResults, vectorResults)
	response.Answer = answer

	if req.UseCache && ctx.Err() == nil {
		o.cache.Put(req.Query, strategy, topK, response)
	}
	return response
}

// record hands the request's audit trail to the configured sink.
func (o *Orchestrator) record(octx *OrchestrationContext) {
	if o.opts.Metrics == nil {
		return
	}
	if err := o.opts.Metrics.Record(octx.Metrics); err != nil {
		o.logger.Warn("metrics record failed", "request_id", octx.RequestID, "error", err)
	}
}

// runAnalysis classifies the question under its own timeout. On timeout the
// documented fallback is an unknown-intent analysis routed hybrid.
func (o *Orchestrator) runAnalysis(ctx context.Context, octx *OrchestrationContext, query string, timeout time.Duration) *types.QueryAnalysis {
	start := time.Now()

	done := make(chan *types.QueryAnalysis, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- nil
			}
		}()
		done <- o.analyzer.Analyze(query, nil)
	}()

	var timer <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timer = t.C
	}

	select {
	case analysis := <-done:
		if analysis == nil {
			octx.recordStage(StageAnalysis, start, types.ErrAnalysis, nil)
			break
		}
		octx.recordStage(StageAnalysis, start, nil, map[string]interface{}{
			"intent":     analysis.Intent,
			"query_type": analysis.QueryType,
			"entities":   len(analysis.Entities),
		})
		return analysis
	case <-timer:
		octx.recordStage(StageAnalysis, start, fmt.Errorf("%w: timed out after %s", types.ErrAnalysis, timeout), nil)
	case <-ctx.Done():
		octx.recordStage(StageAnalysis, start, fmt.Errorf("%w: %v", types.ErrAnalysis, ctx.Err()), nil)
	}
	return &types.QueryAnalysis{
		Query:        query,
		Intent:       types.IntentUnknown,
		QueryType:    types.QueryHybrid,
		IsAnswerable: false,
	}
}

// runRetrieval executes the graph and vector paths concurrently and joins
// them before fusion. Either path failing leaves its slice empty with the
// error recorded; the other path's results still flow through.
func (o *Orchestrator) runRetrieval(ctx context.Context, octx *OrchestrationContext, req *types.SearchRequest, analysis *types.QueryAnalysis, topK int, profile Profile) (graphResults, vectorResults []types.RetrievalResult) {
	var wg sync.WaitGroup
	var graphErr, vectorErr error
	graphStart := time.Now()
	vectorStart := graphStart

	skipGraph := analysis.QueryType == types.QueryVectorSearch || o.graph == nil

	if !skipGraph {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					graphErr = fmt.Errorf("%w: panic: %v", types.ErrRetrieval, r)
				}
			}()
			gctx := ctx
			if profile.GraphTimeout > 0 {
				var cancel context.CancelFunc
				gctx, cancel = context.WithTimeout(ctx, profile.GraphTimeout)
				defer cancel()
			}
			query, err := o.graph.Build(analysis)
			if err != nil {
				graphErr = err
				return
			}
			graphResults, graphErr = o.graph.Execute(gctx, query)
		}()
	}

	if o.vector != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					vectorErr = fmt.Errorf("%w: panic: %v", types.ErrRetrieval, r)
				}
			}()
			vctx := ctx
			if profile.VectorTimeout > 0 {
				var cancel context.CancelFunc
				vctx, cancel = context.WithTimeout(ctx, profile.VectorTimeout)
				defer cancel()
			}
			vectorResults, vectorErr = o.vector.Search(vctx, req.Query, topK, req.MinScore, o.opts.IndexName)
		}()
	}

	wg.Wait()

	// Stage metrics append in pipeline order regardless of which
	// retriever finished first.
	if !skipGraph {
		octx.recordStage(StageGraph, graphStart, graphErr, map[string]interface{}{"results": len(graphResults)})
	}
	if o.vector != nil {
		octx.recordStage(StageVector, vectorStart, vectorErr, map[string]interface{}{"results": len(vectorResults)})
	}
	if graphErr != nil {
		graphResults = nil
	}
	if vectorErr != nil {
		vectorResults = nil
	}
	return graphResults, vectorResults
}

// runFusion merges the two result lists. Fusion is pure and total; a panic
// here is a programming defect, downgraded to an empty list so the request
// still completes.
func (o *Orchestrator) runFusion(octx *OrchestrationContext, req *types.SearchRequest, graphResults, vectorResults []types.RetrievalResult) (fused []types.FusedResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			octx.recordStage(StageFusion, start, fmt.Errorf("%w: %v", types.ErrFusion, r), nil)
			fused = nil
		}
	}()

	graphWeight, vectorWeight := req.GraphWeight, req.VectorWeight
	if graphWeight == 0 && vectorWeight == 0 {
		graphWeight, vectorWeight = o.opts.GraphWeight, o.opts.VectorWeight
	}
	fused = fusion.Fuse(graphResults, vectorResults, fusion.Options{
		GraphWeight:  graphWeight,
		VectorWeight: vectorWeight,
		Method:       o.opts.FusionMethod,
	})
	octx.recordStage(StageFusion, start, nil, map[string]interface{}{"results": len(fused)})
	return fused
}

// runAnswer calls the downstream generator under its timeout, substituting
// a static low-confidence answer on failure.
func (o *Orchestrator) runAnswer(ctx context.Context, octx *OrchestrationContext, query string, results []types.FusedResult, timeout time.Duration) *types.Answer {
	start := time.Now()
	actx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	answer, err := o.generator.Generate(actx, query, results)
	if err != nil {
		octx.recordStage(StageAnswer, start, err, nil)
		return &types.Answer{Text: o.opts.FallbackText, Confidence: fallbackConfidence}
	}
	octx.recordStage(StageAnswer, start, nil, map[string]interface{}{"confidence": answer.Confidence})
	return answer
}

// assemble builds the final response from whatever the stages produced.
func (o *Orchestrator) assemble(octx *OrchestrationContext, req *types.SearchRequest, started time.Time, analysis *types.QueryAnalysis, fused []types.FusedResult, graphResults, vectorResults []types.RetrievalResult) *types.SearchResponse {
	start := time.Now()
	octx.recordStage(StageAssembly, start, nil, nil)
	octx.finish(false)
	o.record(octx)

	explanation := ""
	if analysis != nil {
		explanation = fmt.Sprintf("intent=%s type=%s graph=%d vector=%d fused=%d",
			analysis.Intent, analysis.QueryType, len(graphResults), len(vectorResults), len(fused))
	}

	return &types.SearchResponse{
		Strategy:      octx.Strategy,
		Results:       fused,
		GraphResults:  graphResults,
		VectorResults: vectorResults,
		TotalCount:    len(fused),
		SearchTimeMs:  time.Since(started).Milliseconds(),
		Reranked:      req.Reranking.Enabled,
		Explanation:   explanation,
		Success:       true,
		Errors:        octx.Errors,
		Analysis:      analysis,
	}
}

// cannedResponse is the Fallback strategy's fixed degraded output.
func (o *Orchestrator) cannedResponse(octx *OrchestrationContext, started time.Time) *types.SearchResponse {
	octx.finish(false)
	o.record(octx)
	return &types.SearchResponse{
		Strategy:     types.StrategyFallback,
		Results:      []types.FusedResult{},
		SearchTimeMs: time.Since(started).Milliseconds(),
		Explanation:  o.opts.FallbackText,
		Success:      true,
		Errors:       octx.Errors,
		Answer:       &types.Answer{Text: o.opts.FallbackText, Confidence: fallbackConfidence},
	}
}

// crashResponse is the top-level fallback for a crashed orchestration loop.
func (o *Orchestrator) crashResponse(started time.Time, errs []string) *types.SearchResponse {
	return &types.SearchResponse{
		Strategy:     types.StrategyFallback,
		Results:      []types.FusedResult{},
		SearchTimeMs: time.Since(started).Milliseconds(),
		Explanation:  o.opts.FallbackText,
		Success:      false,
		Errors:       errs,
	}
}
