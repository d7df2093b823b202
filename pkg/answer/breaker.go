package answer

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/poliqa/poliqa/pkg/alert"
	"github.com/poliqa/poliqa/pkg/types"
)

// BreakerConfig tunes the circuit breaker around the generator.
type BreakerConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	MaxRequests      uint32  `mapstructure:"max_requests"`
	Interval         int     `mapstructure:"interval"`
	Timeout          int     `mapstructure:"timeout"`
	ReadyToTripRatio float64 `mapstructure:"ready_to_trip_ratio"`
}

// CircuitBreakerGenerator wraps a Generator with circuit breaking logic
type CircuitBreakerGenerator struct {
	generator Generator
	cb        *gobreaker.CircuitBreaker
	alerter   alert.Alerter
	name      string
}

// NewCircuitBreakerGenerator creates a new circuit breaker generator
func NewCircuitBreakerGenerator(generator Generator, cfg BreakerConfig, alerter alert.Alerter, name string) *CircuitBreakerGenerator {
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    time.Duration(cfg.Interval) * time.Second,
		Timeout:     time.Duration(cfg.Timeout) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= cfg.ReadyToTripRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			if to == gobreaker.StateOpen && alerter != nil {
				msg := fmt.Sprintf("Circuit Breaker '%s' changed status from %s to %s. Too many failures detected.", name, from, to)
				_ = alerter.Alert(fmt.Sprintf("URGENT: Circuit Breaker Tripped - %s", name), msg)
			}
		},
	}

	return &CircuitBreakerGenerator{
		generator: generator,
		cb:        gobreaker.NewCircuitBreaker(st),
		alerter:   alerter,
		name:      name,
	}
}

// Generate implements Generator
func (g *CircuitBreakerGenerator) Generate(ctx context.Context, question string, results []types.FusedResult) (*types.Answer, error) {
	resp, err := g.cb.Execute(func() (interface{}, error) {
		return g.generator.Generate(ctx, question, results)
	})

	if err != nil {
		return nil, err
	}
	return resp.(*types.Answer), nil
}

// Close implements Generator
func (g *CircuitBreakerGenerator) Close() error {
	return g.generator.Close()
}
