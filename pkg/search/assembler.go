package search

import (
	"context"

	"github.com/soundprediction/memograph/pkg/types"
)

// TraversalStore is the subset of the graph store the assembler needs.
type TraversalStore interface {
	GetEntities(ctx context.Context, entityIDs []string, scopeID string) ([]*types.Entity, error)
	DocumentEntities(ctx context.Context, documentIDs []string, scopeID string) ([]*types.Entity, error)
	EntityNeighborhood(ctx context.Context, entityIDs []string, scopeID string) ([]*types.Entity, []*types.Relationship, error)
}

// Subgraph is the assembled neighborhood around the seed nodes.
type Subgraph struct {
	Entities      []*types.Entity
	Relationships []*types.Relationship
}

// Assemble expands from seed documents and entities to a bounded neighborhood.
// Documents are first resolved to their directly linked entities and unioned
// with the directly-seeded entities, then traversal runs hop by hop up to
// maxDepth. Entities and relationships are deduplicated by id, so a node
// reachable via multiple paths appears once. limit caps the total entities
// returned and stops traversal early rather than over-fetching and truncating.
func Assemble(ctx context.Context, store TraversalStore, seedDocumentIDs, seedEntityIDs []string, maxDepth, limit int, scopeID string) (*Subgraph, error) {
	result := &Subgraph{
		Entities:      []*types.Entity{},
		Relationships: []*types.Relationship{},
	}
	if limit <= 0 {
		return result, nil
	}

	seen := map[string]bool{}
	take := func(e *types.Entity) bool {
		if seen[e.ID] || len(result.Entities) >= limit {
			return false
		}
		seen[e.ID] = true
		result.Entities = append(result.Entities, e)
		return true
	}

	var frontier []string
	if len(seedDocumentIDs) > 0 {
		linked, err := store.DocumentEntities(ctx, seedDocumentIDs, scopeID)
		if err != nil {
			return nil, err
		}
		for _, e := range linked {
			if take(e) {
				frontier = append(frontier, e.ID)
			}
		}
	}
	if len(seedEntityIDs) > 0 {
		seeds, err := store.GetEntities(ctx, seedEntityIDs, scopeID)
		if err != nil {
			return nil, err
		}
		for _, e := range seeds {
			if take(e) {
				frontier = append(frontier, e.ID)
			}
		}
	}

	seenRels := map[string]bool{}
	for depth := 0; depth < maxDepth && len(frontier) > 0 && len(result.Entities) < limit; depth++ {
		neighbors, rels, err := store.EntityNeighborhood(ctx, frontier, scopeID)
		if err != nil {
			return nil, err
		}
		for _, r := range rels {
			if seenRels[r.ID] {
				continue
			}
			seenRels[r.ID] = true
			result.Relationships = append(result.Relationships, r)
		}

		frontier = frontier[:0]
		for _, e := range neighbors {
			if take(e) {
				frontier = append(frontier, e.ID)
			}
		}
	}

	// Keep only relationships whose endpoints both made it into the
	// entity set; cap-dropped neighbors must not leave dangling edges.
	kept := result.Relationships[:0]
	for _, r := range result.Relationships {
		if seen[r.FromEntityID] && seen[r.ToEntityID] {
			kept = append(kept, r)
		}
	}
	result.Relationships = kept

	return result, nil
}
