package orchestrator

import (
	"time"

	"github.com/poliqa/poliqa/pkg/types"
)

// Profile is one strategy's execution envelope: result-count cap and the
// timeout applied to each pipeline stage.
type Profile struct {
	TopK            int
	AnalysisTimeout time.Duration
	GraphTimeout    time.Duration
	VectorTimeout   time.Duration
	FusionTimeout   time.Duration
	AnswerTimeout   time.Duration
}

// DefaultProfiles returns the built-in strategy envelopes. Fast trades
// recall for latency, Comprehensive the reverse. Fallback carries no
// timeouts because it never reaches retrieval.
func DefaultProfiles() map[types.Strategy]Profile {
	return map[types.Strategy]Profile{
		types.StrategyFast: {
			TopK:            5,
			AnalysisTimeout: 500 * time.Millisecond,
			GraphTimeout:    2 * time.Second,
			VectorTimeout:   2 * time.Second,
			FusionTimeout:   500 * time.Millisecond,
			AnswerTimeout:   3 * time.Second,
		},
		types.StrategyStandard: {
			TopK:            10,
			AnalysisTimeout: time.Second,
			GraphTimeout:    5 * time.Second,
			VectorTimeout:   5 * time.Second,
			FusionTimeout:   time.Second,
			AnswerTimeout:   10 * time.Second,
		},
		types.StrategyComprehensive: {
			TopK:            20,
			AnalysisTimeout: 2 * time.Second,
			GraphTimeout:    15 * time.Second,
			VectorTimeout:   15 * time.Second,
			FusionTimeout:   2 * time.Second,
			AnswerTimeout:   30 * time.Second,
		},
		types.StrategyFallback: {},
	}
}

// profileFor resolves the envelope for a strategy, falling back to the
// Standard profile for anything unrecognized.
func (o *Orchestrator) profileFor(strategy types.Strategy) Profile {
	if p, ok := o.profiles[strategy]; ok {
		return p
	}
	return o.profiles[types.StrategyStandard]
}
