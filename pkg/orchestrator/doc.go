// Package orchestrator coordinates the query pipeline: analysis, graph and
// vector retrieval, fusion, reranking and optional answer generation, with a
// process-wide response cache, per-stage timeouts and stage-level fallbacks.
//
// Every request produces a well-formed SearchResponse. A failing stage is
// recorded and substituted with its documented fallback value rather than
// aborting the request; only a crash of the orchestration loop itself yields
// a fallback-strategy response with Success set to false.
package orchestrator
