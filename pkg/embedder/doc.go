// Package embedder provides text embedding clients for vector search.
//
// This package defines the Client interface and an OpenAI implementation.
// The reference deployment indexes clause text with 1536-dimensional
// embeddings and cosine similarity; any implementation must return vectors
// of a fixed dimensionality matching the index.
//
//	client := embedder.NewOpenAIEmbedder(apiKey, &embedder.Config{
//	    Model: "text-embedding-3-small",
//	})
//	vectors, err := client.Embed(ctx, []string{"갑상선암 보장 금액"})
package embedder
