package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/poliqa/poliqa/pkg/alert"
	"github.com/poliqa/poliqa/pkg/answer"
)

// Config holds all configuration for the application
type Config struct {
	// Log configuration
	Log LogConfig `mapstructure:"log"`

	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// Database configuration
	Database DatabaseConfig `mapstructure:"database"`

	// Embedding configuration
	Embedding EmbeddingConfig `mapstructure:"embedding"`

	// Answer generation configuration
	Answer AnswerConfig `mapstructure:"answer"`

	// Search pipeline configuration
	Search SearchConfig `mapstructure:"search"`

	// Telemetry configuration
	Telemetry TelemetryConfig `mapstructure:"telemetry"`

	// Alert configuration
	Alert alert.Config `mapstructure:"alert"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug, release, test
}

// DatabaseConfig holds graph store configuration
type DatabaseConfig struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// EmbeddingConfig holds embedding configuration
type EmbeddingConfig struct {
	Model      string `mapstructure:"model"`
	APIKey     string `mapstructure:"api_key"`
	BaseURL    string `mapstructure:"base_url"`
	Dimensions int    `mapstructure:"dimensions"`
	IndexName  string `mapstructure:"index_name"`
}

// AnswerConfig holds answer-generation configuration
type AnswerConfig struct {
	Enabled        bool                 `mapstructure:"enabled"`
	APIKey         string               `mapstructure:"api_key"`
	Generator      answer.Config        `mapstructure:"generator"`
	CircuitBreaker answer.BreakerConfig `mapstructure:"circuit_breaker"`
	MinConfidence  float64              `mapstructure:"min_confidence"`
}

// StageTimeoutsConfig holds per-stage timeout seconds for one strategy.
type StageTimeoutsConfig struct {
	Analysis float64 `mapstructure:"analysis"`
	Graph    float64 `mapstructure:"graph"`
	Vector   float64 `mapstructure:"vector"`
	Fusion   float64 `mapstructure:"fusion"`
	Answer   float64 `mapstructure:"answer"`
}

// SearchConfig enumerates every recognized pipeline knob.
type SearchConfig struct {
	CacheMaxSize    int     `mapstructure:"cache_max_size"`
	CacheTTLSeconds int     `mapstructure:"cache_ttl_seconds"`
	DefaultTopK     int     `mapstructure:"default_top_k"`
	DefaultMinScore float64 `mapstructure:"default_min_score"`
	GraphWeight     float64 `mapstructure:"graph_weight"`
	VectorWeight    float64 `mapstructure:"vector_weight"`
	GraphScore      float64 `mapstructure:"graph_score"`
	FallbackText    string  `mapstructure:"fallback_text"`
	MaxRetries      int     `mapstructure:"max_retries"`
	RetryBackoffMs  int     `mapstructure:"retry_backoff_ms"`

	Timeouts map[string]StageTimeoutsConfig `mapstructure:"timeouts"` // keyed by strategy name
}

// TelemetryConfig holds telemetry configuration
type TelemetryConfig struct {
	ParquetPath string `mapstructure:"parquet_path"`
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	// Set defaults
	setDefaults()

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Override with environment variables if present
	overrideWithEnv(config)

	return config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Log defaults
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")

	// Server defaults
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "release")

	// Database defaults
	viper.SetDefault("database.uri", "bolt://localhost:7687")
	viper.SetDefault("database.username", "neo4j")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.database", "neo4j")

	// Embedding defaults
	viper.SetDefault("embedding.model", "text-embedding-3-small")
	viper.SetDefault("embedding.dimensions", 1536)
	viper.SetDefault("embedding.index_name", "clause_embeddings")

	// Answer defaults
	viper.SetDefault("answer.enabled", false)
	viper.SetDefault("answer.generator.model", "gpt-4o-mini")
	viper.SetDefault("answer.generator.max_tokens", 1024)
	viper.SetDefault("answer.min_confidence", 0.5)
	viper.SetDefault("answer.circuit_breaker.enabled", true)
	viper.SetDefault("answer.circuit_breaker.timeout", 60)
	viper.SetDefault("answer.circuit_breaker.ready_to_trip_ratio", 0.6)

	// Search defaults
	viper.SetDefault("search.cache_max_size", 256)
	viper.SetDefault("search.cache_ttl_seconds", 300)
	viper.SetDefault("search.default_top_k", 10)
	viper.SetDefault("search.default_min_score", 0.0)
	viper.SetDefault("search.graph_weight", 0.5)
	viper.SetDefault("search.vector_weight", 0.5)
	viper.SetDefault("search.graph_score", 0.8)
	viper.SetDefault("search.max_retries", 1)
	viper.SetDefault("search.retry_backoff_ms", 200)

	// Telemetry defaults
	home, err := os.UserHomeDir()
	if err == nil {
		defaultPath := fmt.Sprintf("%s/.poliqa/telemetry", home)
		viper.SetDefault("telemetry.parquet_path", defaultPath)
	}
}

// overrideWithEnv overrides config with environment variables
func overrideWithEnv(config *Config) {
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.Embedding.APIKey = apiKey
		config.Answer.APIKey = apiKey
	}

	// Database credentials
	if uri := os.Getenv("NEO4J_URI"); uri != "" {
		config.Database.URI = uri
	}
	if user := os.Getenv("NEO4J_USER"); user != "" {
		config.Database.Username = user
	}
	if pass := os.Getenv("NEO4J_PASSWORD"); pass != "" {
		config.Database.Password = pass
	}

	// Server settings
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		viper.Set("server.port", port)
	}

	// Telemetry settings
	if path := os.Getenv("TELEMETRY_PARQUET_PATH"); path != "" {
		config.Telemetry.ParquetPath = path
	}
}
