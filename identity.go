package memograph

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/soundprediction/memograph/pkg/events"
	"github.com/soundprediction/memograph/pkg/types"
)

// resolveDocument implements create-or-reuse document identity. The key is
// (scope, exact text). On first sighting the text is embedded and a document
// created; later sightings reuse the record and accumulate the context id.
// Reused records are never re-embedded.
func (c *Client) resolveDocument(ctx context.Context, scopeID, text, contextID string, stamp types.Stamp) (*types.Document, bool, error) {
	existing, err := c.store.FindDocumentByText(ctx, scopeID, text)
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up document: %w", err)
	}
	if existing != nil {
		grown := existing.ContextIDs.With(contextID)
		if len(grown) != len(existing.ContextIDs) {
			if err := c.store.UpdateDocumentContextIDs(ctx, existing.ID, grown); err != nil {
				return nil, false, fmt.Errorf("failed to update document contexts: %w", err)
			}
			existing.ContextIDs = grown
		}
		c.emitter.Emit(events.Event{
			Type:    events.TypeDocumentReused,
			ScopeID: scopeID,
			Payload: map[string]interface{}{"document_id": existing.ID, "context_id": contextID},
		})
		return existing, false, nil
	}

	embedding, err := c.embedder.EmbedSingle(ctx, text)
	if err != nil {
		return nil, false, fmt.Errorf("failed to embed document text: %w", err)
	}
	doc := &types.Document{
		ID:         uuid.New().String(),
		Text:       text,
		ScopeID:    scopeID,
		ContextIDs: types.NewContextIDs(contextID),
		Embedding:  embedding,
		RecordedAt: stamp.RecordedAt,
		ValidFrom:  stamp.ValidFrom,
		ValidTo:    stamp.ValidTo,
	}
	if err := c.store.CreateDocument(ctx, doc); err != nil {
		return nil, false, fmt.Errorf("failed to create document: %w", err)
	}
	c.emitter.Emit(events.Event{
		Type:    events.TypeDocumentCreated,
		ScopeID: scopeID,
		Payload: map[string]interface{}{"document_id": doc.ID, "context_id": contextID},
	})
	return doc, true, nil
}

// resolveEntity implements create-or-reuse entity identity. The key is
// (scope, name); the label is deliberately not part of the key, so the same
// name under different labels resolves to one logical entity.
func (c *Client) resolveEntity(ctx context.Context, scopeID, name, label string, properties map[string]interface{}, contextID string, stamp types.Stamp) (*types.Entity, bool, error) {
	existing, err := c.store.FindEntityByName(ctx, scopeID, name)
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up entity %q: %w", name, err)
	}
	if existing != nil {
		grown := existing.ContextIDs.With(contextID)
		if len(grown) != len(existing.ContextIDs) {
			if err := c.store.UpdateEntityContextIDs(ctx, existing.ID, grown); err != nil {
				return nil, false, fmt.Errorf("failed to update entity contexts: %w", err)
			}
			existing.ContextIDs = grown
		}
		c.emitter.Emit(events.Event{
			Type:    events.TypeEntityReused,
			ScopeID: scopeID,
			Payload: map[string]interface{}{"entity_id": existing.ID, "name": name},
		})
		return existing, false, nil
	}

	embedding, err := c.embedder.EmbedSingle(ctx, name)
	if err != nil {
		return nil, false, fmt.Errorf("failed to embed entity name %q: %w", name, err)
	}
	props := types.FilterProperties(properties)
	props["name"] = name
	entity := &types.Entity{
		ID:         uuid.New().String(),
		Label:      label,
		Properties: props,
		ScopeID:    scopeID,
		ContextIDs: types.NewContextIDs(contextID),
		Embedding:  embedding,
		RecordedAt: stamp.RecordedAt,
		ValidFrom:  stamp.ValidFrom,
		ValidTo:    stamp.ValidTo,
	}
	if err := c.store.CreateEntities(ctx, []*types.Entity{entity}); err != nil {
		return nil, false, fmt.Errorf("failed to create entity %q: %w", name, err)
	}
	c.emitter.Emit(events.Event{
		Type:    events.TypeEntityCreated,
		ScopeID: scopeID,
		Payload: map[string]interface{}{"entity_id": entity.ID, "name": name},
	})
	return entity, true, nil
}
