package poliqa

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poliqa/poliqa/pkg/alert"
	"github.com/poliqa/poliqa/pkg/analyzer"
	"github.com/poliqa/poliqa/pkg/answer"
	"github.com/poliqa/poliqa/pkg/config"
	"github.com/poliqa/poliqa/pkg/driver"
	"github.com/poliqa/poliqa/pkg/embedder"
	"github.com/poliqa/poliqa/pkg/orchestrator"
	"github.com/poliqa/poliqa/pkg/retriever"
	"github.com/poliqa/poliqa/pkg/telemetry"
	"github.com/poliqa/poliqa/pkg/types"
)

// Client is the main entry point: it wires the analyzer, the graph and
// vector retrievers and the orchestrator into one query engine over an
// insurance-policy knowledge base.
type Client struct {
	store        driver.GraphStore
	embedder     embedder.Client
	analyzer     *analyzer.Analyzer
	graph        *retriever.GraphRetriever
	vector       *retriever.VectorRetriever
	orchestrator *orchestrator.Orchestrator
	generator    answer.Generator
	metrics      *telemetry.MetricsSink
	config       *config.Config
	logger       *slog.Logger
}

// NewClient wires a client over the given store, vector index and embedding
// client. The stores are consumed read-only.
func NewClient(store driver.GraphStore, index driver.VectorIndex, embedderClient embedder.Client, cfg *config.Config, logger *slog.Logger) (*Client, error) {
	if cfg == nil {
		loaded, err := config.Load()
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if logger == nil {
		logger = slog.Default()
	}

	queryAnalyzer := analyzer.New(&analyzer.Options{Logger: logger})

	graphRetriever := retriever.NewGraphRetriever(store, &retriever.GraphOptions{
		DefaultScore: cfg.Search.GraphScore,
		Logger:       logger,
	})
	vectorRetriever := retriever.NewVectorRetriever(embedderClient, index, &retriever.VectorOptions{
		IndexName: cfg.Embedding.IndexName,
		Logger:    logger,
	})

	orchOpts := orchestratorOptions(cfg, logger)

	var metricsSink *telemetry.MetricsSink
	if cfg.Telemetry.ParquetPath != "" {
		sink, err := telemetry.NewMetricsSink(cfg.Telemetry.ParquetPath)
		if err != nil {
			logger.Warn("stage metrics disabled", "error", err)
		} else {
			metricsSink = sink
			orchOpts.Metrics = sink
		}
	}

	orch := orchestrator.New(queryAnalyzer, graphRetriever, vectorRetriever, orchOpts)

	c := &Client{
		store:        store,
		embedder:     embedderClient,
		analyzer:     queryAnalyzer,
		graph:        graphRetriever,
		vector:       vectorRetriever,
		orchestrator: orch,
		metrics:      metricsSink,
		config:       cfg,
		logger:       logger,
	}

	if cfg.Answer.Enabled {
		generator, err := buildGenerator(cfg)
		if err != nil {
			return nil, fmt.Errorf("answer generator: %w", err)
		}
		c.generator = generator
		orch.SetGenerator(generator)
	}

	return c, nil
}

// NewFromConfig builds the full stack from configuration: Neo4j graph
// store and vector index plus the OpenAI embedding client.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	if cfg == nil {
		loaded, err := config.Load()
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	neo, err := driver.NewNeo4jDriver(cfg.Database.URI, cfg.Database.Username, cfg.Database.Password, cfg.Database.Database)
	if err != nil {
		return nil, fmt.Errorf("graph store: %w", err)
	}

	embedderClient := embedder.NewOpenAIEmbedder(cfg.Embedding.APIKey, &embedder.Config{
		Model:      cfg.Embedding.Model,
		BaseURL:    cfg.Embedding.BaseURL,
		Dimensions: cfg.Embedding.Dimensions,
	})

	return NewClient(neo, neo, embedderClient, cfg, logger)
}

// buildGenerator assembles the answer generator with its circuit breaker.
func buildGenerator(cfg *config.Config) (answer.Generator, error) {
	generator, err := answer.NewOpenAIGenerator(cfg.Answer.APIKey, cfg.Answer.Generator)
	if err != nil {
		return nil, err
	}
	if !cfg.Answer.CircuitBreaker.Enabled {
		return generator, nil
	}

	var alerter alert.Alerter = &alert.NoOpAlerter{}
	if cfg.Alert.Enabled {
		alerter = alert.NewEmailAlerter(cfg.Alert)
	}
	return answer.NewCircuitBreakerGenerator(generator, cfg.Answer.CircuitBreaker, alerter, "answer"), nil
}

// orchestratorOptions maps configuration knobs onto the orchestrator.
func orchestratorOptions(cfg *config.Config, logger *slog.Logger) *orchestrator.Options {
	opts := orchestrator.DefaultOptions()
	opts.DefaultTopK = cfg.Search.DefaultTopK
	opts.DefaultMinScore = cfg.Search.DefaultMinScore
	opts.GraphWeight = cfg.Search.GraphWeight
	opts.VectorWeight = cfg.Search.VectorWeight
	opts.IndexName = cfg.Embedding.IndexName
	opts.CacheSize = cfg.Search.CacheMaxSize
	opts.CacheTTL = time.Duration(cfg.Search.CacheTTLSeconds) * time.Second
	opts.Logger = logger
	if cfg.Search.FallbackText != "" {
		opts.FallbackText = cfg.Search.FallbackText
	}
	if cfg.Search.MaxRetries > 1 {
		opts.Retry = orchestrator.RetryPolicy{
			MaxAttempts: cfg.Search.MaxRetries,
			Delay:       time.Duration(cfg.Search.RetryBackoffMs) * time.Millisecond,
		}
	}
	for name, t := range cfg.Search.Timeouts {
		strategy := types.ParseStrategy(name)
		profile := opts.Profiles[strategy]
		if t.Analysis > 0 {
			profile.AnalysisTimeout = secondsToDuration(t.Analysis)
		}
		if t.Graph > 0 {
			profile.GraphTimeout = secondsToDuration(t.Graph)
		}
		if t.Vector > 0 {
			profile.VectorTimeout = secondsToDuration(t.Vector)
		}
		if t.Fusion > 0 {
			profile.FusionTimeout = secondsToDuration(t.Fusion)
		}
		if t.Answer > 0 {
			profile.AnswerTimeout = secondsToDuration(t.Answer)
		}
		opts.Profiles[strategy] = profile
	}
	return opts
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Health checks that the graph store answers.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.store.ExecuteQuery(ctx, "RETURN 1 AS ok", nil)
	if err != nil {
		return fmt.Errorf("graph store unreachable: %w", err)
	}
	return nil
}

// Close releases the store connection and the answer generator.
func (c *Client) Close(ctx context.Context) error {
	var firstErr error
	if c.metrics != nil {
		if err := c.metrics.Flush(); err != nil {
			firstErr = err
		}
	}
	if c.generator != nil {
		if err := c.generator.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := c.embedder.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := c.store.Close(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
