package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/poliqa/poliqa/pkg/orchestrator"
)

// StageRecord is one pipeline stage execution flattened for Parquet storage.
type StageRecord struct {
	RequestID  string    `parquet:"request_id"`
	Strategy   string    `parquet:"strategy"`
	Stage      string    `parquet:"stage"`
	Start      time.Time `parquet:"start"`
	DurationMs int64     `parquet:"duration_ms"`
	Success    bool      `parquet:"success"`
	Error      string    `parquet:"error"`
	CacheHit   bool      `parquet:"cache_hit"`
}

// MetricsSink buffers per-request orchestration metrics and writes them to
// Parquet audit files in batches.
type MetricsSink struct {
	outputDir string
	mu        sync.Mutex
	buffer    []StageRecord
	batchSize int
}

// NewMetricsSink creates a sink writing under outputDir.
func NewMetricsSink(outputDir string) (*MetricsSink, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create metrics directory: %w", err)
	}
	return &MetricsSink{
		outputDir: outputDir,
		batchSize: 200,
		buffer:    make([]StageRecord, 0, 200),
	}, nil
}

// Record flattens one request's stage metrics into the buffer.
func (s *MetricsSink) Record(m orchestrator.OrchestrationMetrics) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, stage := range m.Stages {
		s.buffer = append(s.buffer, StageRecord{
			RequestID:  m.RequestID,
			Strategy:   string(m.Strategy),
			Stage:      stage.Stage,
			Start:      stage.Start.UTC(),
			DurationMs: stage.Duration().Milliseconds(),
			Success:    stage.Success,
			Error:      stage.Error,
			CacheHit:   m.CacheHit,
		})
	}
	if len(s.buffer) >= s.batchSize {
		return s.flush()
	}
	return nil
}

// Flush writes any buffered records out immediately.
func (s *MetricsSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flush()
}

// flush writes the buffer to a new Parquet file. Caller must hold the lock.
func (s *MetricsSink) flush() error {
	if len(s.buffer) == 0 {
		return nil
	}

	filename := fmt.Sprintf("stage_metrics_%s_%d.parquet", time.Now().Format("20060102_150405"), time.Now().UnixNano())
	path := filepath.Join(s.outputDir, filename)

	if err := parquet.WriteFile(path, s.buffer); err != nil {
		return fmt.Errorf("failed to write metrics parquet file: %w", err)
	}
	s.buffer = s.buffer[:0]
	return nil
}
