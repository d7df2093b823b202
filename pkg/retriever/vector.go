package retriever

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/poliqa/poliqa/pkg/driver"
	"github.com/poliqa/poliqa/pkg/embedder"
	"github.com/poliqa/poliqa/pkg/types"
)

// DefaultIndexName is the clause-embedding vector index.
const DefaultIndexName = "clause_embeddings"

// VectorOptions tunes the vector retriever.
type VectorOptions struct {
	IndexName string
	Logger    *slog.Logger
}

// VectorRetriever embeds question text and runs nearest-neighbor search
// against the vector index. The embedding cache is process-local, keyed by
// exact text, unbounded unless cleared; it may be cleared independently
// without affecting correctness elsewhere.
type VectorRetriever struct {
	embedder  embedder.Client
	index     driver.VectorIndex
	indexName string
	logger    *slog.Logger

	mu    sync.RWMutex
	cache map[string][]float32
}

// NewVectorRetriever creates a vector retriever.
func NewVectorRetriever(embedderClient embedder.Client, index driver.VectorIndex, opts *VectorOptions) *VectorRetriever {
	if opts == nil {
		opts = &VectorOptions{}
	}
	indexName := opts.IndexName
	if indexName == "" {
		indexName = DefaultIndexName
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &VectorRetriever{
		embedder:  embedderClient,
		index:     index,
		indexName: indexName,
		logger:    logger,
		cache:     make(map[string][]float32),
	}
}

// Embed returns the embedding for text, serving repeats from the cache.
func (v *VectorRetriever) Embed(ctx context.Context, text string) ([]float32, error) {
	v.mu.RLock()
	cached, ok := v.cache[text]
	v.mu.RUnlock()
	if ok {
		return cached, nil
	}

	vector, err := v.embedder.EmbedSingle(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding: %v", types.ErrRetrieval, err)
	}

	v.mu.Lock()
	v.cache[text] = vector
	v.mu.Unlock()
	return vector, nil
}

// ClearCache drops every cached embedding.
func (v *VectorRetriever) ClearCache() {
	v.mu.Lock()
	v.cache = make(map[string][]float32)
	v.mu.Unlock()
}

// CacheSize returns the number of cached embeddings.
func (v *VectorRetriever) CacheSize() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.cache)
}

// Search embeds the question and returns the topK nearest candidates with
// similarity >= minScore. Scores are clamped into [0,1]. Single attempt;
// errors propagate as a stage failure.
func (v *VectorRetriever) Search(ctx context.Context, question string, topK int, minScore float64, indexName string) ([]types.RetrievalResult, error) {
	if indexName == "" {
		indexName = v.indexName
	}

	vector, err := v.Embed(ctx, question)
	if err != nil {
		return nil, err
	}

	hits, err := v.index.QueryVector(ctx, indexName, vector, topK)
	if err != nil {
		return nil, fmt.Errorf("%w: vector search: %v", types.ErrRetrieval, err)
	}

	results := make([]types.RetrievalResult, 0, len(hits))
	for _, hit := range hits {
		score := clamp01(hit.Score)
		if score < minScore {
			continue
		}
		results = append(results, types.RetrievalResult{
			NodeID:     hit.NodeID,
			Score:      score,
			Source:     hit.Source,
			Content:    hit.Content,
			Properties: hit.Properties,
			Origin:     types.OriginVector,
		})
	}
	v.logger.Debug("vector retrieval complete", "hits", len(hits), "kept", len(results))
	return results, nil
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
