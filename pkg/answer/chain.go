package answer

import (
	"context"
	"errors"
	"fmt"

	"github.com/poliqa/poliqa/pkg/types"
)

// FallbackChain tries generators in order, escalating to the next on error
// or when the returned confidence falls below MinConfidence. The first
// acceptable answer wins; if none is acceptable, the best answer seen so
// far is returned, or the accumulated errors when every link failed.
type FallbackChain struct {
	generators    []Generator
	minConfidence float64
}

// NewFallbackChain builds an escalation chain. minConfidence 0 accepts any
// successful answer.
func NewFallbackChain(minConfidence float64, generators ...Generator) *FallbackChain {
	return &FallbackChain{
		generators:    generators,
		minConfidence: minConfidence,
	}
}

// Generate implements Generator.
func (c *FallbackChain) Generate(ctx context.Context, question string, results []types.FusedResult) (*types.Answer, error) {
	if len(c.generators) == 0 {
		return nil, fmt.Errorf("empty fallback chain")
	}

	var best *types.Answer
	var errs []error
	for _, g := range c.generators {
		if ctx.Err() != nil {
			break
		}
		answer, err := g.Generate(ctx, question, results)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if answer.Confidence >= c.minConfidence {
			return answer, nil
		}
		if best == nil || answer.Confidence > best.Confidence {
			best = answer
		}
	}
	if best != nil {
		return best, nil
	}
	return nil, errors.Join(errs...)
}

// Close closes every generator in the chain, returning the first error.
func (c *FallbackChain) Close() error {
	var firstErr error
	for _, g := range c.generators {
		if err := g.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
