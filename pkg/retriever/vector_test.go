package retriever

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poliqa/poliqa/pkg/driver"
	"github.com/poliqa/poliqa/pkg/types"
)

// mockEmbedder implements embedder.Client for testing.
type mockEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (m *mockEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		m.calls++
		out[i] = m.vector
	}
	return out, nil
}

func (m *mockEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	vectors, err := m.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (m *mockEmbedder) Dimensions() int { return len(m.vector) }
func (m *mockEmbedder) Close() error    { return nil }

// mockVectorIndex implements driver.VectorIndex for testing.
type mockVectorIndex struct {
	hits  []driver.VectorHit
	err   error
	calls int
}

func (m *mockVectorIndex) QueryVector(ctx context.Context, indexName string, vector []float32, topK int) ([]driver.VectorHit, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hits, nil
}

func TestVectorSearchFiltersAndClamps(t *testing.T) {
	index := &mockVectorIndex{hits: []driver.VectorHit{
		{NodeID: "n1", Score: 0.95, Content: "갑상선암 진단시 1천만원"},
		{NodeID: "n2", Score: 1.2, Content: "clamped above one"},
		{NodeID: "n3", Score: 0.2, Content: "below min score"},
	}}
	v := NewVectorRetriever(&mockEmbedder{vector: []float32{0.1, 0.2}}, index, nil)

	results, err := v.Search(context.Background(), "갑상선암 보장", 10, 0.5, "")

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "n1", results[0].NodeID)
	assert.Equal(t, 0.95, results[0].Score)
	assert.Equal(t, types.OriginVector, results[0].Origin)
	assert.Equal(t, 1.0, results[1].Score)
}

func TestEmbedCachesByExactText(t *testing.T) {
	emb := &mockEmbedder{vector: []float32{0.5}}
	v := NewVectorRetriever(emb, &mockVectorIndex{}, nil)

	_, err := v.Embed(context.Background(), "같은 질문")
	require.NoError(t, err)
	_, err = v.Embed(context.Background(), "같은 질문")
	require.NoError(t, err)

	assert.Equal(t, 1, emb.calls)
	assert.Equal(t, 1, v.CacheSize())

	_, err = v.Embed(context.Background(), "다른 질문")
	require.NoError(t, err)
	assert.Equal(t, 2, emb.calls)

	v.ClearCache()
	assert.Zero(t, v.CacheSize())

	_, err = v.Embed(context.Background(), "같은 질문")
	require.NoError(t, err)
	assert.Equal(t, 3, emb.calls)
}

func TestVectorSearchPropagatesErrors(t *testing.T) {
	t.Run("embedder failure", func(t *testing.T) {
		v := NewVectorRetriever(&mockEmbedder{err: errors.New("api down")}, &mockVectorIndex{}, nil)
		_, err := v.Search(context.Background(), "질문", 5, 0, "")
		assert.ErrorIs(t, err, types.ErrRetrieval)
	})

	t.Run("index failure", func(t *testing.T) {
		v := NewVectorRetriever(&mockEmbedder{vector: []float32{0.1}}, &mockVectorIndex{err: errors.New("index unavailable")}, nil)
		_, err := v.Search(context.Background(), "질문", 5, 0, "")
		assert.ErrorIs(t, err, types.ErrRetrieval)
	})
}
