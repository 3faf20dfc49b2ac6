package memograph

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/soundprediction/memograph/pkg/events"
	"github.com/soundprediction/memograph/pkg/llm"
	"github.com/soundprediction/memograph/pkg/prompts"
	"github.com/soundprediction/memograph/pkg/types"
)

// LearnOptions holds the optional parameters of a single Learn call.
type LearnOptions struct {
	// ContextID names the knowledge source this text comes from. A fresh
	// id is generated when empty.
	ContextID string
	// ContextName is a human-readable label for the context record.
	ContextName string
	// ValidFrom and ValidTo bound the real-world validity of every fact
	// produced by this call. ValidFrom defaults to ingestion time;
	// ValidTo stays open when nil.
	ValidFrom *time.Time
	ValidTo   *time.Time
}

// CreatedCounts reports how many records a Learn call genuinely created, as
// opposed to reused.
type CreatedCounts struct {
	Documents     int `json:"documents"`
	Entities      int `json:"entities"`
	Relationships int `json:"relationships"`
}

// Add accumulates other into c.
func (c *CreatedCounts) Add(other CreatedCounts) {
	c.Documents += other.Documents
	c.Entities += other.Entities
	c.Relationships += other.Relationships
}

// ReusedCounts reports how many existing records a Learn call resolved to.
type ReusedCounts struct {
	Documents int `json:"documents"`
	Entities  int `json:"entities"`
}

// Add accumulates other into r.
func (r *ReusedCounts) Add(other ReusedCounts) {
	r.Documents += other.Documents
	r.Entities += other.Entities
}

// LearnResult is the outcome of one Learn call.
type LearnResult struct {
	Document      *types.Document       `json:"document"`
	Entities      []*types.Entity       `json:"entities"`
	Relationships []*types.Relationship `json:"relationships"`
	Context       *types.Context        `json:"context"`
	Created       CreatedCounts         `json:"created"`
	Reused        ReusedCounts          `json:"reused"`
}

// Learn runs the ingestion pipeline for one piece of text: resolve the
// document, extract entities and relationships with the language model,
// resolve each entity against the graph, create the relationships, and link
// every involved entity to the document. Failures surface unmodified; partial
// state from a failed call is not rolled back.
func (c *Client) Learn(ctx context.Context, text string, options *LearnOptions) (*LearnResult, error) {
	if text == "" {
		return nil, types.ErrEmptyText
	}
	scopeID, err := c.requireScope(ctx)
	if err != nil {
		return nil, err
	}
	if options == nil {
		options = &LearnOptions{}
	}

	kctx, err := c.createContext(ctx, scopeID, text, options)
	if err != nil {
		return nil, err
	}
	stamp := c.stamper.Stamp(options.ValidFrom, options.ValidTo)

	doc, docCreated, err := c.resolveDocument(ctx, scopeID, text, kctx.ID, stamp)
	if err != nil {
		return nil, err
	}

	payload, err := c.extract(ctx, text)
	if err != nil {
		return nil, err
	}
	keep := filterExtractedRelationships(payload.Relationships)

	// Resolve entities in extraction order. Within one call a repeated
	// name maps to the already-resolved record without another store
	// round trip.
	byName := map[string]*types.Entity{}
	var entities []*types.Entity
	entitiesCreated := 0
	entitiesReused := 0
	for _, extracted := range payload.Entities {
		name := extracted.Name()
		if _, done := byName[name]; done {
			continue
		}
		entity, created, err := c.resolveEntity(ctx, scopeID, name, extracted.Label, extracted.Properties, kctx.ID, stamp)
		if err != nil {
			return nil, err
		}
		byName[name] = entity
		entities = append(entities, entity)
		if created {
			entitiesCreated++
		} else {
			entitiesReused++
		}
	}

	// Relationships referencing a name the extraction did not resolve are
	// dropped, not fatal.
	var rels []*types.Relationship
	for _, extracted := range keep {
		from, okFrom := byName[extracted.From]
		to, okTo := byName[extracted.To]
		if !okFrom || !okTo {
			c.logger.Debug("dropping relationship with unknown endpoint",
				"from", extracted.From, "to", extracted.To, "type", extracted.Type)
			continue
		}
		rels = append(rels, &types.Relationship{
			ID:           uuid.New().String(),
			Type:         extracted.Type,
			FromEntityID: from.ID,
			ToEntityID:   to.ID,
			Properties:   types.FilterProperties(extracted.Properties),
			ScopeID:      scopeID,
			RecordedAt:   stamp.RecordedAt,
			ValidFrom:    stamp.ValidFrom,
			ValidTo:      stamp.ValidTo,
		})
	}
	if len(rels) > 0 {
		if err := c.store.CreateRelationships(ctx, rels); err != nil {
			return nil, fmt.Errorf("failed to create relationships: %w", err)
		}
		for _, r := range rels {
			c.emitter.Emit(events.Event{
				Type:    events.TypeRelationshipCreated,
				ScopeID: scopeID,
				Payload: map[string]interface{}{"relationship_id": r.ID, "type": r.Type},
			})
		}
	}

	for _, entity := range entities {
		if err := c.store.LinkEntityToDocument(ctx, entity.ID, doc.ID, scopeID); err != nil {
			return nil, fmt.Errorf("failed to link entity %s to document: %w", entity.ID, err)
		}
	}

	result := &LearnResult{
		Document:      doc,
		Entities:      entities,
		Relationships: rels,
		Context:       kctx,
		Created: CreatedCounts{
			Entities:      entitiesCreated,
			Relationships: len(rels),
		},
		Reused: ReusedCounts{
			Entities: entitiesReused,
		},
	}
	if docCreated {
		result.Created.Documents = 1
	} else {
		result.Reused.Documents = 1
	}

	c.logger.Info("learned text",
		"scope_id", scopeID,
		"document_id", doc.ID,
		"document_created", docCreated,
		"entities_created", entitiesCreated,
		"entities_reused", entitiesReused,
		"relationships_created", len(rels))
	return result, nil
}

// createContext records the provenance context for one Learn call.
func (c *Client) createContext(ctx context.Context, scopeID, text string, options *LearnOptions) (*types.Context, error) {
	kctx := &types.Context{
		ID:      options.ContextID,
		ScopeID: scopeID,
		Name:    options.ContextName,
		Source:  text,
	}
	if kctx.ID == "" {
		kctx.ID = uuid.New().String()
	}
	if kctx.Name == "" {
		kctx.Name = "learn"
	}
	if err := c.store.CreateContext(ctx, kctx); err != nil {
		return nil, fmt.Errorf("failed to create context: %w", err)
	}
	return kctx, nil
}

// extract asks the language model for entities and relationships. Malformed
// output that jsonrepair cannot fix is a hard extraction failure.
func (c *Client) extract(ctx context.Context, text string) (*prompts.ExtractionPayload, error) {
	messages := prompts.ExtractionMessages(text, c.config.Ontology)
	raw, err := c.llm.Chat(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("extraction call failed: %w", err)
	}
	if raw == "" {
		return nil, llm.ErrEmptyResponse
	}
	payload, err := prompts.ParseExtraction(raw)
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// filterExtractedRelationships drops self-referential relationships and exact
// duplicate (from, to, type) triples within one extraction.
func filterExtractedRelationships(rels []prompts.ExtractedRelationship) []prompts.ExtractedRelationship {
	seen := map[[3]string]bool{}
	out := make([]prompts.ExtractedRelationship, 0, len(rels))
	for _, r := range rels {
		if r.From == r.To {
			continue
		}
		key := [3]string{r.From, r.To, r.Type}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}
