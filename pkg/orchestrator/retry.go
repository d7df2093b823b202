package orchestrator

import (
	"context"
	"time"

	"github.com/poliqa/poliqa/pkg/types"
)

// RetryPolicy bounds whole-request retries with a fixed delay between
// attempts. Retries happen only at the top level; stages are never retried
// internally. The zero value runs exactly one attempt.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration

	// ShouldRetry decides whether an attempt's outcome warrants another
	// try. Nil retries only attempts that returned an error.
	ShouldRetry func(response *types.SearchResponse, err error) bool
}

// LowConfidenceRetry retries on error or when the generated answer's
// confidence falls below threshold, escalation-chain style.
func LowConfidenceRetry(threshold float64) func(*types.SearchResponse, error) bool {
	return func(response *types.SearchResponse, err error) bool {
		if err != nil {
			return true
		}
		if response != nil && response.Answer != nil {
			return response.Answer.Confidence < threshold
		}
		return false
	}
}

// Do runs attempt up to MaxAttempts times, sleeping Delay between tries.
// The last outcome is returned, whether or not it satisfied the predicate.
// Context cancellation stops waiting immediately.
func (p RetryPolicy) Do(ctx context.Context, attempt func(context.Context) (*types.SearchResponse, error)) (*types.SearchResponse, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	shouldRetry := p.ShouldRetry
	if shouldRetry == nil {
		shouldRetry = func(_ *types.SearchResponse, err error) bool { return err != nil }
	}

	var response *types.SearchResponse
	var err error
	for i := 0; i < attempts; i++ {
		response, err = attempt(ctx)
		if !shouldRetry(response, err) || i == attempts-1 {
			return response, err
		}
		if p.Delay > 0 {
			select {
			case <-time.After(p.Delay):
			case <-ctx.Done():
				return response, err
			}
		}
		if ctx.Err() != nil {
			return response, err
		}
	}
	return response, err
}
