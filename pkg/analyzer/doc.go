// Package analyzer turns a raw natural-language question into a structured
// QueryAnalysis: a classified intent, typed entities extracted from the text,
// a keyword set, and a routing decision for the retrieval layer.
//
// The analyzer is a leaf component. It performs no I/O and never fails: the
// worst case is an analysis with IntentUnknown, zero confidence, and
// IsAnswerable=false.
//
// Intent detection runs an ordered table of keyword/regex patterns with
// priority weights. Entity extraction understands Korean insurance questions:
// magnitude amounts (억/천/만/원), periods normalized to days, KCD diagnostic
// codes and ranges, coverage/condition suffix dictionaries, and disease names
// resolved against a small knowledge base with suffix heuristics as fallback.
package analyzer
