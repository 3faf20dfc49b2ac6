// Package memograph provides a knowledge-graph memory engine for Go.
//
// Memograph turns unstructured text into a queryable knowledge graph: a
// language model extracts entities and relationships, facts are stored in a
// graph database with vector embeddings, and natural-language questions are
// answered from a retrieved subgraph.
//
// # Basic Usage
//
// Create a client with the required collaborators:
//
//	// Create Neo4j store
//	store, err := driver.NewNeo4jStore("bolt://localhost:7687", "neo4j", "password", "neo4j")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer store.Close(ctx)
//
//	// Create LLM client
//	model := llm.NewOpenAIClient(&llm.Config{APIKey: "your-api-key", Model: "gpt-4o-mini"})
//
//	// Create embedder
//	embed := embedder.NewOpenAIClient(&embedder.Config{APIKey: "your-api-key", Model: "text-embedding-3-small"})
//
//	// Create Memograph client
//	config := &memograph.Config{ScopeID: "user-123"}
//	client, err := memograph.NewClient(store, model, embed, config, nil)
//
// # Learning
//
// Learn ingests one piece of text, extracting entities and relationships:
//
//	result, err := client.Learn(ctx, "Alice works for Acme Corp.", nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Printf("created %d entities\n", result.Created.Entities)
//
// Learning the same text again reuses the stored document and entities; only
// genuinely new facts are created. LearnBatch ingests many items sequentially
// with per-item error isolation.
//
// # Asking
//
// Ask answers a natural-language question from the graph:
//
//	answer, err := client.Ask(ctx, "Who does Alice work for?", nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(answer.Answer)
//
// # Identity and Deduplication
//
// Documents are unique per (scope, exact text); entities per (scope, name).
// Re-learning known text never duplicates records, it accumulates context
// ids tracking every source the fact was seen in. Relationships are created
// fresh on every call.
//
// # Temporal Awareness
//
// Every fact carries:
//
//   - RecordedAt: when the fact was ingested
//   - ValidFrom: when the fact becomes valid (defaults to RecordedAt)
//   - ValidTo: when the fact expires (optional, open-ended when unset)
//
// Ask accepts a ValidAt instant to query the graph as of a point in time.
//
// # Multi-tenancy
//
// Use ScopeID to isolate data for different users or applications:
//
//	config := &memograph.Config{ScopeID: "user-123"}
//
// # Architecture
//
// The library follows a modular architecture:
//
//   - pkg/driver: graph database abstraction layer
//   - pkg/llm: language model client interfaces
//   - pkg/embedder: embedding model client interfaces
//   - pkg/prompts: prompt templates and model-output parsing
//   - pkg/search: retrieval planning and subgraph assembly
//   - pkg/types: core type definitions
//
// This design allows easy extension with additional database backends, LLM
// providers, and embedding services.
package memograph
