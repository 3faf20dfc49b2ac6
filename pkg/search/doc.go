// Package search holds the retrieval-side query shaping: the filter planner
// that over-fetches vector candidates to preserve recall under post-search
// filtering, and the subgraph assembler that expands seed nodes to a bounded
// neighborhood.
//
// The planner's contract is asymmetric on purpose: the vector index only
// sees an expanded k, while scope, context, and temporal predicates run in
// this package against the returned candidates. Results are truncated to the
// caller's limit before the similarity threshold drops low-scoring survivors
// entirely. An empty result set after thresholding is the designed outcome
// of aggressive filtering, not an error.
package search
