package search

import (
	"time"

	"github.com/soundprediction/memograph/pkg/types"
)

const (
	// DefaultSimilarityThreshold is applied when the caller supplies none.
	DefaultSimilarityThreshold = 0.7

	// Over-fetch heuristic: when any post-search filter is active the
	// vector index is asked for max(limit*overFetchFactor, overFetchFloor)
	// candidates so that filtering does not silently under-return.
	overFetchFactor = 5
	overFetchFloor  = 50
)

// Filters are the post-search constraints applied to vector candidates.
// Filtering happens after the nearest-neighbor search, never inside it.
type Filters struct {
	// ScopeID restricts candidates to one scope when non-empty.
	ScopeID string
	// ContextIDs restricts candidates to those whose context-id set
	// intersects this list, when non-empty.
	ContextIDs []string
	// ValidAt restricts candidates to facts whose validity period contains
	// this instant, when non-nil.
	ValidAt *time.Time
}

// Active reports whether any filter is set.
func (f Filters) Active() bool {
	return f.ScopeID != "" || len(f.ContextIDs) > 0 || f.ValidAt != nil
}

// Plan is the shaped query for one vector search: how many candidates to
// request and which predicate to apply to them afterwards.
type Plan struct {
	Limit     int
	K         int
	Threshold float64
	Filters   Filters
}

// PlanSearch computes the over-fetch factor and filter predicate for a query.
// Without filters, k equals the caller's limit. With any filter active the
// search k is expanded, trading extra search cost for recall safety: naive
// use of limit as k would drop relevant results once the predicate runs.
func PlanSearch(limit int, threshold float64, filters Filters) Plan {
	k := limit
	if filters.Active() {
		k = limit * overFetchFactor
		if k < overFetchFloor {
			k = overFetchFloor
		}
	}
	return Plan{
		Limit:     limit,
		K:         k,
		Threshold: threshold,
		Filters:   filters,
	}
}

// matchTemporal checks validity-period containment: the fact became valid at
// or before validAt and has not expired before it.
func matchTemporal(validFrom time.Time, validTo *time.Time, validAt *time.Time) bool {
	if validAt == nil {
		return true
	}
	if validFrom.After(*validAt) {
		return false
	}
	if validTo != nil && validTo.Before(*validAt) {
		return false
	}
	return true
}

func (p Plan) match(scopeID string, contextIDs types.ContextIDs, validFrom time.Time, validTo *time.Time) bool {
	if p.Filters.ScopeID != "" && scopeID != p.Filters.ScopeID {
		return false
	}
	if len(p.Filters.ContextIDs) > 0 {
		if contextIDs == nil || !contextIDs.Intersects(p.Filters.ContextIDs) {
			return false
		}
	}
	return matchTemporal(validFrom, validTo, p.Filters.ValidAt)
}

// MatchDocument applies the filter predicate to one document candidate.
func (p Plan) MatchDocument(d *types.Document) bool {
	return p.match(d.ScopeID, d.ContextIDs, d.ValidFrom, d.ValidTo)
}

// MatchEntity applies the filter predicate to one entity candidate.
func (p Plan) MatchEntity(e *types.Entity) bool {
	return p.match(e.ScopeID, e.ContextIDs, e.ValidFrom, e.ValidTo)
}

// FilterDocuments reduces over-fetched candidates to the final result set:
// predicate first, then truncation to the caller's limit, then the similarity
// threshold. Candidates below threshold are dropped entirely; an empty result
// is a valid outcome, not an error.
func (p Plan) FilterDocuments(candidates []*types.Document) []*types.Document {
	surviving := make([]*types.Document, 0, p.Limit)
	for _, candidate := range candidates {
		if !p.MatchDocument(candidate) {
			continue
		}
		surviving = append(surviving, candidate)
		if len(surviving) == p.Limit {
			break
		}
	}
	out := surviving[:0]
	for _, candidate := range surviving {
		if candidate.Similarity >= p.Threshold {
			out = append(out, candidate)
		}
	}
	return out
}

// FilterEntities is FilterDocuments for entity candidates.
func (p Plan) FilterEntities(candidates []*types.Entity) []*types.Entity {
	surviving := make([]*types.Entity, 0, p.Limit)
	for _, candidate := range candidates {
		if !p.MatchEntity(candidate) {
			continue
		}
		surviving = append(surviving, candidate)
		if len(surviving) == p.Limit {
			break
		}
	}
	out := surviving[:0]
	for _, candidate := range surviving {
		if candidate.Similarity >= p.Threshold {
			out = append(out, candidate)
		}
	}
	return out
}
