// Package types defines the core data types for the poliqa retrieval engine.
//
// This package contains the fundamental types shared by the analyzer,
// retrievers, fusion layer, and orchestrator:
//   - ExtractedEntity / QueryAnalysis: the structured reading of a question
//   - GraphQuery: a parameterized graph-store query built from an analysis
//   - RetrievalResult / FusedResult: the common retrieval candidate shape
//     before and after rank fusion
//   - SearchRequest / SearchResponse: the engine's request and response shape
//   - Strategy: a named execution profile (timeouts, result counts, fallback)
//
// # Enumerations
//
// Intents, entity types, query types, result origins, and strategies are
// closed string-typed enums. Consumers should switch over the declared
// constants rather than matching raw strings.
//
// # Errors
//
// The error taxonomy for the pipeline lives here so every layer can classify
// failures with errors.Is / errors.As without importing its neighbors.
package types
