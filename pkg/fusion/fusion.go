package fusion

import (
	"math"
	"sort"

	"github.com/poliqa/poliqa/pkg/types"
)

// Method selects the fusion formula.
type Method string

const (
	// RRF scores a candidate by weight/(k+rank+1) summed across sources.
	RRF Method = "rrf"
	// WeightedSum scores a candidate by weight*originalScore summed across sources.
	WeightedSum Method = "weighted_sum"
)

// RRFConstant is the fixed k of the reciprocal rank formula.
const RRFConstant = 60

// Options parameterizes one fusion pass.
type Options struct {
	GraphWeight  float64
	VectorWeight float64
	Method       Method
}

// DefaultOptions returns equal-weight RRF.
func DefaultOptions() Options {
	return Options{GraphWeight: 0.5, VectorWeight: 0.5, Method: RRF}
}

// candidate accumulates one logical result across sources.
type candidate struct {
	result     types.RetrievalResult
	score      float64
	graphRank  int // 0-based, -1 when absent
	vectorRank int
	origins    []types.ResultOrigin
}

// Fuse merges the two ranked candidate lists into one total-ordered list.
func Fuse(graphResults, vectorResults []types.RetrievalResult, opts Options) []types.FusedResult {
	if opts.Method == "" {
		opts.Method = RRF
	}

	merged := make(map[string]*candidate)
	order := make([]string, 0, len(graphResults)+len(vectorResults))

	absorb := func(results []types.RetrievalResult, weight float64, origin types.ResultOrigin) {
		for rank, r := range results {
			key := r.Identity()
			c, ok := merged[key]
			if !ok {
				c = &candidate{result: r, graphRank: -1, vectorRank: -1}
				merged[key] = c
				order = append(order, key)
			}
			if c.result.Content == "" && r.Content != "" {
				c.result.Content = r.Content
			}

			var contribution float64
			switch opts.Method {
			case WeightedSum:
				contribution = weight * r.Score
			default:
				contribution = weight / float64(RRFConstant+rank+1)
			}
			c.score += contribution
			c.origins = append(c.origins, origin)

			switch origin {
			case types.OriginGraph:
				if c.graphRank < 0 {
					c.graphRank = rank
				}
			case types.OriginVector:
				if c.vectorRank < 0 {
					c.vectorRank = rank
				}
			}
		}
	}

	absorb(graphResults, opts.GraphWeight, types.OriginGraph)
	absorb(vectorResults, opts.VectorWeight, types.OriginVector)

	candidates := make([]*candidate, 0, len(order))
	for _, key := range order {
		candidates = append(candidates, merged[key])
	}
	sortCandidates(candidates)

	fused := make([]types.FusedResult, len(candidates))
	for i, c := range candidates {
		fused[i] = types.FusedResult{
			RetrievalResult: c.result,
			FusedScore:      c.score,
			Rank:            i + 1,
			Origins:         c.origins,
			GraphRank:       c.graphRank,
			VectorRank:      c.vectorRank,
		}
	}
	return fused
}

// sortCandidates applies the deterministic total order: fused score
// descending, vector rank ascending (absent ranks last), graph rank
// ascending, then node id lexicographic.
func sortCandidates(candidates []*candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if va, vb := rankOrInf(a.vectorRank), rankOrInf(b.vectorRank); va != vb {
			return va < vb
		}
		if ga, gb := rankOrInf(a.graphRank), rankOrInf(b.graphRank); ga != gb {
			return ga < gb
		}
		return a.result.NodeID < b.result.NodeID
	})
}

func rankOrInf(rank int) float64 {
	if rank < 0 {
		return math.Inf(1)
	}
	return float64(rank)
}
