// Package poliqa answers natural-language questions against an
// insurance-policy knowledge base indexed two ways: as a property graph of
// coverages, diseases, conditions and clauses, and as a vector index of
// clause-text embeddings.
//
// A question flows through the query analyzer (intent classification and
// Korean entity extraction), then through graph and vector retrieval run
// concurrently, reciprocal rank fusion with deterministic tie-breaks, and
// an orchestration layer providing response caching, per-stage timeouts and
// graceful per-stage fallback. Both stores are consumed read-only.
//
// # Basic Usage
//
// Create a client over a Neo4j store and an OpenAI embedding client:
//
//	// Create Neo4j driver (graph store and vector index in one)
//	neo, err := driver.NewNeo4jDriver("bolt://localhost:7687", "neo4j", "password", "neo4j")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer neo.Close(ctx)
//
//	// Create embedder
//	embedderClient := embedder.NewOpenAIEmbedder("your-api-key", &embedder.Config{
//		Model: "text-embedding-3-small",
//	})
//
//	// Create client
//	client, err := poliqa.NewClient(neo, neo, embedderClient, nil, nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//
// # Asking Questions
//
//	resp, err := client.Ask(ctx, "갑상선암 보장 금액은 얼마인가요?")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	for _, r := range resp.Results {
//		fmt.Printf("%d. %s (%.3f)\n", r.Rank, r.Content, r.FusedScore)
//	}
//
// Search accepts a full types.SearchRequest for strategy, weighting and
// reranking control. Retrieval failures never surface as errors: the
// response's Errors list records degraded stages while the remaining
// pipeline output is still returned.
//
// # Execution Strategies
//
// Each request runs under a named strategy profile:
//
//   - fast: short per-stage timeouts, few results
//   - standard: the default envelope
//   - comprehensive: extended timeouts, more results
//   - fallback: skips retrieval and returns a canned degraded response
//
// # Architecture
//
//   - pkg/analyzer: intent classification and Korean entity extraction
//   - pkg/retriever: intent-templated graph queries and vector search
//   - pkg/fusion: reciprocal rank fusion and lexical reranking
//   - pkg/orchestrator: stage coordination, caching, timeouts, fallbacks
//   - pkg/driver: Neo4j graph store and vector index access
//   - pkg/answer: downstream answer generation with circuit breaking
//
// This design keeps every external system behind a small interface, so
// additional graph backends or embedding services slot in without touching
// the pipeline.
package poliqa
