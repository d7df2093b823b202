package embedder

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const (
	defaultModel      = string(openai.SmallEmbedding3)
	defaultDimensions = 1536
	defaultBatchSize  = 100
)

// OpenAIEmbedder implements Client using the OpenAI embeddings API.
type OpenAIEmbedder struct {
	client *openai.Client
	config *Config
}

// NewOpenAIEmbedder creates an OpenAI embedding client. A nil config selects
// text-embedding-3-small at 1536 dimensions.
func NewOpenAIEmbedder(apiKey string, config *Config) *OpenAIEmbedder {
	if config == nil {
		config = &Config{}
	}
	if config.Model == "" {
		config.Model = defaultModel
	}
	if config.Dimensions == 0 {
		config.Dimensions = defaultDimensions
	}
	if config.BatchSize == 0 {
		config.BatchSize = defaultBatchSize
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}
}

// Embed generates embeddings for the given texts, batching requests to the
// provider limit. Newlines are flattened before embedding.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	cleaned := make([]string, len(texts))
	for i, t := range texts {
		cleaned[i] = strings.ReplaceAll(t, "\n", " ")
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(cleaned); start += e.config.BatchSize {
		end := min(start+e.config.BatchSize, len(cleaned))

		resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input:      cleaned[start:end],
			Model:      openai.EmbeddingModel(e.config.Model),
			Dimensions: e.config.Dimensions,
		})
		if err != nil {
			return nil, fmt.Errorf("embedding request failed: %w", err)
		}
		if len(resp.Data) != end-start {
			return nil, fmt.Errorf("embedding response size mismatch: sent %d texts, got %d vectors", end-start, len(resp.Data))
		}
		for _, item := range resp.Data {
			vectors = append(vectors, item.Embedding)
		}
	}
	return vectors, nil
}

// EmbedSingle generates an embedding for a single text.
func (e *OpenAIEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return vectors[0], nil
}

// Dimensions returns the embedding dimensionality.
func (e *OpenAIEmbedder) Dimensions() int {
	return e.config.Dimensions
}

// Close is a no-op for the HTTP client.
func (e *OpenAIEmbedder) Close() error {
	return nil
}
