// Package fusion merges graph and vector retrieval candidates into one
// ranked list.
//
// Fuse supports Reciprocal Rank Fusion (the default) and weighted score
// summing. Candidates from the two sources are matched by node id, falling
// back to text content when no id is present, and contributions from the
// same logical result sum across sources.
//
// The output is total-ordered: fused score descending, then vector rank
// ascending (missing ranks last), then graph rank ascending, then node id
// lexicographic. The order is therefore reproducible regardless of which
// retriever finished first.
//
// Both Fuse and Rerank are pure functions: no I/O, no shared state.
package fusion
