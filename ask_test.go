package memograph_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/soundprediction/memograph"
	"github.com/soundprediction/memograph/pkg/prompts"
	"github.com/soundprediction/memograph/pkg/types"
)

// seedGraph loads a small Alice/Acme graph into the store and scripts the
// vector searches to return its records.
func seedGraph(store *memoryStore) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	doc := &types.Document{
		ID:         "doc-1",
		Text:       "Alice works for Acme Corp.",
		ScopeID:    "scope-1",
		ContextIDs: types.NewContextIDs("ctx-1"),
		RecordedAt: now,
		ValidFrom:  now,
		Similarity: 0.92,
	}
	alice := &types.Entity{
		ID:         "ent-alice",
		Label:      "Person",
		Properties: map[string]interface{}{"name": "Alice"},
		ScopeID:    "scope-1",
		ContextIDs: types.NewContextIDs("ctx-1"),
		RecordedAt: now,
		ValidFrom:  now,
		Similarity: 0.88,
	}
	acme := &types.Entity{
		ID:         "ent-acme",
		Label:      "Organization",
		Properties: map[string]interface{}{"name": "Acme Corp"},
		ScopeID:    "scope-1",
		ContextIDs: types.NewContextIDs("ctx-1"),
		RecordedAt: now,
		ValidFrom:  now,
		Similarity: 0.81,
	}
	store.documents[doc.ID] = doc
	store.entities[alice.ID] = alice
	store.entities[acme.ID] = acme
	store.links[doc.ID] = []string{alice.ID, acme.ID}
	store.relationships = []*types.Relationship{{
		ID:           "rel-1",
		Type:         "WORKS_FOR",
		FromEntityID: alice.ID,
		ToEntityID:   acme.ID,
		ScopeID:      "scope-1",
		RecordedAt:   now,
		ValidFrom:    now,
	}}
	store.docSearch = []*types.Document{doc}
	store.entSearch = []*types.Entity{alice, acme}
}

func TestAskEmptyQuery(t *testing.T) {
	client := newTestClient(t, newMemoryStore(), &scriptedLLM{}, &fakeEmbedder{}, nil)
	_, err := client.Ask(context.Background(), "", nil)
	if !errors.Is(err, memograph.ErrNoQuery) {
		t.Fatalf("expected ErrNoQuery, got %v", err)
	}
}

func TestAskUnknownStrategy(t *testing.T) {
	client := newTestClient(t, newMemoryStore(), &scriptedLLM{}, &fakeEmbedder{}, nil)
	_, err := client.Ask(context.Background(), "who is alice?", &memograph.AskOptions{Strategy: "hybrid"})
	if err == nil {
		t.Fatal("expected an error for an unknown strategy")
	}
}

func TestAskShortCircuitsWithoutSeeds(t *testing.T) {
	store := newMemoryStore()
	model := &scriptedLLM{}
	client := newTestClient(t, store, model, &fakeEmbedder{}, nil)

	result, err := client.Ask(context.Background(), "who is alice?", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Answer != prompts.NoRelevantInformationAnswer {
		t.Errorf("expected canned no-information answer, got %q", result.Answer)
	}
	if len(result.Documents) != 0 || len(result.Entities) != 0 || len(result.Relationships) != 0 {
		t.Error("expected empty context arrays")
	}
	if model.calls != 0 {
		t.Errorf("expected no language model calls, got %d", model.calls)
	}
	if store.neighborhoodCalls != 0 {
		t.Errorf("expected no subgraph traversal, got %d calls", store.neighborhoodCalls)
	}
}

func TestAskEndToEnd(t *testing.T) {
	store := newMemoryStore()
	seedGraph(store)
	model := &scriptedLLM{responses: []string{"Alice works for Acme Corp."}}
	client := newTestClient(t, store, model, &fakeEmbedder{}, nil)

	result, err := client.Ask(context.Background(), "who does Alice work for?", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Answer != "Alice works for Acme Corp." {
		t.Errorf("unexpected answer %q", result.Answer)
	}
	if len(result.Documents) != 1 {
		t.Errorf("expected 1 document, got %d", len(result.Documents))
	}
	if len(result.Entities) != 2 {
		t.Errorf("expected 2 entities, got %d", len(result.Entities))
	}
	if len(result.Relationships) != 1 {
		t.Errorf("expected 1 relationship, got %d", len(result.Relationships))
	}
	if result.Statistics != nil {
		t.Error("expected no statistics without opt-in")
	}
}

func TestAskStrategySelectsSearches(t *testing.T) {
	store := newMemoryStore()
	seedGraph(store)
	model := &scriptedLLM{responses: []string{"answer"}}
	client := newTestClient(t, store, model, &fakeEmbedder{}, nil)

	result, err := client.Ask(context.Background(), "alice?", &memograph.AskOptions{Strategy: memograph.StrategyEntities})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Documents) != 0 {
		t.Errorf("entities strategy must not return seed documents, got %d", len(result.Documents))
	}
	if len(result.Entities) == 0 {
		t.Error("expected entities from entity search")
	}
}

func TestAskIncludeStats(t *testing.T) {
	store := newMemoryStore()
	seedGraph(store)
	model := &scriptedLLM{responses: []string{"answer"}}
	client := newTestClient(t, store, model, &fakeEmbedder{}, nil)

	result, err := client.Ask(context.Background(), "alice?", &memograph.AskOptions{IncludeStats: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stats := result.Statistics
	if stats == nil {
		t.Fatal("expected statistics when opted in")
	}
	if stats.DocumentsFound != 1 || stats.EntitiesFound != 2 {
		t.Errorf("unexpected seed counts: %+v", stats)
	}
	if stats.SubgraphEntities != 2 || stats.SubgraphRelationships != 1 {
		t.Errorf("unexpected subgraph counts: %+v", stats)
	}
	if stats.TotalTime <= 0 {
		t.Error("expected a positive total time")
	}
}

func TestAskSimilarityThresholdDropsCandidates(t *testing.T) {
	store := newMemoryStore()
	seedGraph(store)
	// Everything in the seed graph scores below 0.95, so nothing survives
	// and the pipeline short-circuits instead of falling back.
	threshold := 0.95
	model := &scriptedLLM{}
	client := newTestClient(t, store, model, &fakeEmbedder{}, nil)

	result, err := client.Ask(context.Background(), "alice?", &memograph.AskOptions{SimilarityThreshold: &threshold})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Answer != prompts.NoRelevantInformationAnswer {
		t.Errorf("expected short-circuit answer, got %q", result.Answer)
	}
	if model.calls != 0 {
		t.Errorf("expected no language model calls, got %d", model.calls)
	}
}

func TestAskContextFilter(t *testing.T) {
	store := newMemoryStore()
	seedGraph(store)
	model := &scriptedLLM{responses: []string{"answer"}}
	client := newTestClient(t, store, model, &fakeEmbedder{}, nil)

	// A context no fact carries filters everything out.
	result, err := client.Ask(context.Background(), "alice?", &memograph.AskOptions{Contexts: []string{"ctx-other"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Answer != prompts.NoRelevantInformationAnswer {
		t.Errorf("expected short-circuit answer, got %q", result.Answer)
	}

	// The carried context matches.
	result, err = client.Ask(context.Background(), "alice?", &memograph.AskOptions{Contexts: []string{"ctx-1"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Answer != "answer" {
		t.Errorf("expected generated answer, got %q", result.Answer)
	}
}

func TestAskValidAtFilter(t *testing.T) {
	store := newMemoryStore()
	seedGraph(store)
	model := &scriptedLLM{responses: []string{"answer"}}
	client := newTestClient(t, store, model, &fakeEmbedder{}, nil)

	before := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	result, err := client.Ask(context.Background(), "alice?", &memograph.AskOptions{ValidAt: timePtr(before)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Answer != prompts.NoRelevantInformationAnswer {
		t.Errorf("expected no facts valid in 2020, got %q", result.Answer)
	}
}
