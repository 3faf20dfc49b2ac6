package driver

import (
	"testing"
	"time"
)

func TestDocumentFromProps(t *testing.T) {
	t.Parallel()
	recorded := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	props := map[string]any{
		"id":          "doc-1",
		"text":        "Alice works for Acme Corp.",
		"scope_id":    "scope-1",
		"context_ids": []any{"ctx-1", "ctx-2", "ctx-1"},
		"embedding":   []any{0.1, 0.2},
		"recorded_at": recorded,
		"valid_from":  recorded,
	}
	doc := documentFromProps(props)
	if doc.ID != "doc-1" || doc.ScopeID != "scope-1" {
		t.Fatalf("unexpected identity fields: %+v", doc)
	}
	if len(doc.ContextIDs) != 2 {
		t.Errorf("context ids must be deduplicated, got %v", doc.ContextIDs)
	}
	if len(doc.Embedding) != 2 || doc.Embedding[0] != float32(0.1) {
		t.Errorf("unexpected embedding %v", doc.Embedding)
	}
	if !doc.RecordedAt.Equal(recorded) {
		t.Errorf("unexpected recorded_at %v", doc.RecordedAt)
	}
	if doc.ValidTo != nil {
		t.Errorf("absent valid_to must stay nil, got %v", doc.ValidTo)
	}
}

func TestEntityFromProps(t *testing.T) {
	t.Parallel()
	t.Run("properties json decoded", func(t *testing.T) {
		props := map[string]any{
			"id":         "ent-1",
			"label":      "Person",
			"name":       "Alice",
			"properties": `{"name":"Alice","role":"engineer"}`,
			"scope_id":   "scope-1",
		}
		entity := entityFromProps(props)
		if entity.Name() != "Alice" {
			t.Errorf("unexpected name %q", entity.Name())
		}
		if entity.Properties["role"] != "engineer" {
			t.Errorf("unexpected properties %v", entity.Properties)
		}
	})

	t.Run("malformed properties fall back to name column", func(t *testing.T) {
		props := map[string]any{
			"id":         "ent-2",
			"name":       "Acme Corp",
			"properties": `{not json`,
			"scope_id":   "scope-1",
		}
		entity := entityFromProps(props)
		if entity.Name() != "Acme Corp" {
			t.Errorf("expected fallback name, got %q", entity.Name())
		}
	})
}

func TestNullableTime(t *testing.T) {
	t.Parallel()
	if nullableTime(nil) != nil {
		t.Error("nil time must map to a null parameter")
	}
	now := time.Now()
	if v, ok := nullableTime(&now).(time.Time); !ok || !v.Equal(now) {
		t.Errorf("unexpected parameter %v", nullableTime(&now))
	}
}
