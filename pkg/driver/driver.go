package driver

import (
	"context"
	"time"

	"github.com/soundprediction/memograph/pkg/types"
)

// GraphProvider represents the type of graph database backing the store.
type GraphProvider string

const (
	GraphProviderNeo4j    GraphProvider = "neo4j"
	GraphProviderMemgraph GraphProvider = "memgraph"
)

// GraphStore is the graph/vector store collaborator the core depends on.
// Lookups by identity key return (nil, nil) when no record exists so callers
// can branch without error inspection. Vector searches return candidates in
// descending similarity order with the Similarity field populated; all
// post-search filtering (scope, contexts, validity) happens in the core.
type GraphStore interface {
	// Scope and context provenance
	GetScope(ctx context.Context, scopeID string) (*types.Scope, error)
	CreateScope(ctx context.Context, scope *types.Scope) error
	CreateContext(ctx context.Context, kctx *types.Context) error

	// Identity lookups (exact-match keys)
	FindDocumentByText(ctx context.Context, scopeID, text string) (*types.Document, error)
	FindEntityByName(ctx context.Context, scopeID, name string) (*types.Entity, error)

	// Fact creation
	CreateDocument(ctx context.Context, doc *types.Document) error
	CreateEntities(ctx context.Context, entities []*types.Entity) error
	CreateRelationships(ctx context.Context, rels []*types.Relationship) error
	LinkEntityToDocument(ctx context.Context, entityID, documentID, scopeID string) error

	// Context accumulation
	UpdateDocumentContextIDs(ctx context.Context, documentID string, contextIDs types.ContextIDs) error
	UpdateEntityContextIDs(ctx context.Context, entityID string, contextIDs types.ContextIDs) error

	// Vector search. k may exceed the caller-facing limit (over-fetch).
	SearchDocumentsByVector(ctx context.Context, embedding []float32, k int) ([]*types.Document, error)
	SearchEntitiesByVector(ctx context.Context, embedding []float32, k int) ([]*types.Entity, error)

	// Traversal primitives, bounded by an explicit node-id set.
	// GetEntities hydrates entities by id. DocumentEntities resolves
	// documents to their directly linked entities. EntityNeighborhood
	// expands one hop outward from entityIDs.
	GetEntities(ctx context.Context, entityIDs []string, scopeID string) ([]*types.Entity, error)
	DocumentEntities(ctx context.Context, documentIDs []string, scopeID string) ([]*types.Entity, error)
	EntityNeighborhood(ctx context.Context, entityIDs []string, scopeID string) ([]*types.Entity, []*types.Relationship, error)

	// Reads and maintenance
	GetDocument(ctx context.Context, documentID, scopeID string) (*types.Document, error)
	DeleteDocument(ctx context.Context, documentID, scopeID string) (bool, error)
	GetStats(ctx context.Context, scopeID string) (*GraphStats, error)
	CreateIndices(ctx context.Context, vectorDimensions int) error
	Ping(ctx context.Context) error

	Provider() GraphProvider
	Close(ctx context.Context) error
}

// GraphStats holds aggregate counts for one scope.
type GraphStats struct {
	DocumentCount     int64     `json:"document_count"`
	EntityCount       int64     `json:"entity_count"`
	RelationshipCount int64     `json:"relationship_count"`
	ContextCount      int64     `json:"context_count"`
	LastUpdated       time.Time `json:"last_updated"`
}
