package types

import (
	"errors"
	"time"
)

// Validation errors
var (
	ErrEmptyText    = errors.New("text cannot be empty")
	ErrEmptyScopeID = errors.New("scope_id cannot be empty")
	ErrEmptyID      = errors.New("id cannot be empty")
	ErrEmptyName    = errors.New("name cannot be empty")
	ErrInvalidLimit = errors.New("limit must be positive")
)

// Scope is the multi-tenant isolation boundary. Every fact created under a
// scope carries its id. Scopes are immutable once created.
type Scope struct {
	ID       string                 `json:"id"`
	Type     string                 `json:"type"`
	Name     string                 `json:"name"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Validate checks if the Scope has all required fields set.
func (s *Scope) Validate() error {
	if s.ID == "" {
		return ErrEmptyID
	}
	if s.Name == "" {
		return ErrEmptyName
	}
	return nil
}

// Context is a named knowledge source. One context is created per learn call;
// many facts may reference the same context id over time.
type Context struct {
	ID       string                 `json:"id"`
	ScopeID  string                 `json:"scope_id"`
	Name     string                 `json:"name"`
	Source   string                 `json:"source"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Document is a unit of ingested text. Uniqueness key is (scope, exact text):
// the first sighting of a text within a scope creates the document, later
// sightings reuse it and accumulate context ids.
type Document struct {
	ID         string     `json:"id"`
	Text       string     `json:"text"`
	ScopeID    string     `json:"scope_id"`
	ContextIDs ContextIDs `json:"context_ids"`
	Embedding  []float32  `json:"embedding,omitempty"`

	// Temporal fields
	RecordedAt time.Time  `json:"_recorded_at"`
	ValidFrom  time.Time  `json:"_valid_from"`
	ValidTo    *time.Time `json:"_valid_to,omitempty"`

	// Similarity is transient, populated by vector search. Not persisted.
	Similarity float64 `json:"_similarity,omitempty"`
}

// Validate checks if the Document has all required fields set.
func (d *Document) Validate() error {
	if d.Text == "" {
		return ErrEmptyText
	}
	if d.ScopeID == "" {
		return ErrEmptyScopeID
	}
	return nil
}

// Entity is an extracted entity node. Uniqueness key is (scope, name property);
// the label is not part of the key, so the same name across labels resolves to
// one logical entity.
type Entity struct {
	ID         string                 `json:"id"`
	Label      string                 `json:"label"`
	Properties map[string]interface{} `json:"properties"`
	ScopeID    string                 `json:"scope_id"`
	ContextIDs ContextIDs             `json:"context_ids"`
	Embedding  []float32              `json:"embedding,omitempty"`

	// Temporal fields
	RecordedAt time.Time  `json:"_recorded_at"`
	ValidFrom  time.Time  `json:"_valid_from"`
	ValidTo    *time.Time `json:"_valid_to,omitempty"`

	// Similarity is transient, populated by vector search. Not persisted.
	Similarity float64 `json:"_similarity,omitempty"`
}

// Name returns the identifying name property of the entity, or "" when unset.
func (e *Entity) Name() string {
	if e.Properties == nil {
		return ""
	}
	name, _ := e.Properties["name"].(string)
	return name
}

// Validate checks if the Entity has all required fields set.
func (e *Entity) Validate() error {
	if e.Name() == "" {
		return ErrEmptyName
	}
	if e.ScopeID == "" {
		return ErrEmptyScopeID
	}
	return nil
}

// Relationship is a directed edge between two entities. Relationships are
// created fresh per learn call; there is no cross-call deduplication.
type Relationship struct {
	ID           string                 `json:"id"`
	Type         string                 `json:"type"`
	FromEntityID string                 `json:"from_entity_id"`
	ToEntityID   string                 `json:"to_entity_id"`
	Properties   map[string]interface{} `json:"properties,omitempty"`
	ScopeID      string                 `json:"scope_id"`

	// Temporal fields
	RecordedAt time.Time  `json:"_recorded_at"`
	ValidFrom  time.Time  `json:"_valid_from"`
	ValidTo    *time.Time `json:"_valid_to,omitempty"`
}

// Validate checks if the Relationship has all required fields set.
func (r *Relationship) Validate() error {
	if r.Type == "" {
		return ErrEmptyName
	}
	if r.FromEntityID == "" || r.ToEntityID == "" {
		return ErrEmptyID
	}
	return nil
}

// QueryStatistics holds per-call wall-clock timings for the ask pipeline.
// Derived per query, never persisted or aggregated globally.
type QueryStatistics struct {
	DocumentsFound        int `json:"documents_found"`
	EntitiesFound         int `json:"entities_found"`
	SubgraphEntities      int `json:"subgraph_entities"`
	SubgraphRelationships int `json:"subgraph_relationships"`

	SearchTime   time.Duration `json:"search_time"`
	SubgraphTime time.Duration `json:"subgraph_time"`
	AnswerTime   time.Duration `json:"answer_time"`
	TotalTime    time.Duration `json:"total_time"`
}
