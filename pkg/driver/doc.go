// Package driver defines the GraphStore interface the core pipelines depend
// on, plus the Neo4j/Memgraph implementation.
//
// The store owns identity lookups, fact persistence, raw vector search, and
// one-hop traversal. It deliberately does NOT own retrieval filtering: vector
// searches take an over-fetched k and return scored candidates, and the core
// applies scope, context, and temporal predicates afterwards.
package driver
