package fusion

import (
	"sort"
	"strings"

	"github.com/poliqa/poliqa/pkg/types"
)

// DefaultLengthThreshold is the text length (in runes) past which the length
// penalty applies.
const DefaultLengthThreshold = 300

// lengthPenalty is applied once to over-long result texts.
const lengthPenalty = 0.9

// RerankConfig tunes the lexical reranking pass.
type RerankConfig struct {
	// BoostExactMatch multiplies the score of results whose text contains
	// the literal query substring. 1.0 disables the boost.
	BoostExactMatch float64
	// PenalizeLength applies the length penalty to texts longer than
	// LengthThreshold runes.
	PenalizeLength  bool
	LengthThreshold int
}

// Rerank adjusts fused scores with lexical boosts and re-sorts under the
// same total order as Fuse. The input is not mutated.
func Rerank(results []types.FusedResult, query string, cfg RerankConfig) []types.FusedResult {
	if cfg.LengthThreshold == 0 {
		cfg.LengthThreshold = DefaultLengthThreshold
	}

	adjusted := make([]types.FusedResult, len(results))
	copy(adjusted, results)

	for i := range adjusted {
		if cfg.BoostExactMatch > 0 && cfg.BoostExactMatch != 1 &&
			query != "" && strings.Contains(adjusted[i].Content, query) {
			adjusted[i].FusedScore *= cfg.BoostExactMatch
		}
		if cfg.PenalizeLength && len([]rune(adjusted[i].Content)) > cfg.LengthThreshold {
			adjusted[i].FusedScore *= lengthPenalty
		}
	}

	sort.SliceStable(adjusted, func(i, j int) bool {
		a, b := adjusted[i], adjusted[j]
		if a.FusedScore != b.FusedScore {
			return a.FusedScore > b.FusedScore
		}
		if va, vb := rankOrInf(a.VectorRank), rankOrInf(b.VectorRank); va != vb {
			return va < vb
		}
		if ga, gb := rankOrInf(a.GraphRank), rankOrInf(b.GraphRank); ga != gb {
			return ga < gb
		}
		return a.NodeID < b.NodeID
	})
	for i := range adjusted {
		adjusted[i].Rank = i + 1
	}
	return adjusted
}
