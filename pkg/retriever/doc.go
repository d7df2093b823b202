// Package retriever issues the two retrieval paths of the engine.
//
// GraphRetriever maps a classified intent onto exactly one parameterized
// Cypher template, fills the template parameters from extracted entities,
// and executes the query against the graph store. VectorRetriever embeds
// the question text (with a process-local embedding cache) and runs a
// nearest-neighbor search against the vector index.
//
// Both retrievers emit the common types.RetrievalResult shape so the fusion
// layer can merge them uniformly, and both are single-attempt: failures
// propagate to the orchestrator, which owns fallback and retry policy.
package retriever
