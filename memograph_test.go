package memograph_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/soundprediction/memograph"
	"github.com/soundprediction/memograph/pkg/driver"
	"github.com/soundprediction/memograph/pkg/llm"
	"github.com/soundprediction/memograph/pkg/types"
)

// memoryStore is a stateful in-memory GraphStore for pipeline tests.
type memoryStore struct {
	scopes        map[string]*types.Scope
	contexts      map[string]*types.Context
	documents     map[string]*types.Document
	entities      map[string]*types.Entity
	relationships []*types.Relationship
	links         map[string][]string // document id -> entity ids

	// Scripted vector-search results. When nil, searches return all
	// stored records of the kind.
	docSearch []*types.Document
	entSearch []*types.Entity

	// Injectable failures
	createDocumentErr error

	neighborhoodCalls int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		scopes:    map[string]*types.Scope{},
		contexts:  map[string]*types.Context{},
		documents: map[string]*types.Document{},
		entities:  map[string]*types.Entity{},
		links:     map[string][]string{},
	}
}

func (m *memoryStore) GetScope(_ context.Context, scopeID string) (*types.Scope, error) {
	return m.scopes[scopeID], nil
}

func (m *memoryStore) CreateScope(_ context.Context, scope *types.Scope) error {
	m.scopes[scope.ID] = scope
	return nil
}

func (m *memoryStore) CreateContext(_ context.Context, kctx *types.Context) error {
	m.contexts[kctx.ID] = kctx
	return nil
}

func (m *memoryStore) FindDocumentByText(_ context.Context, scopeID, text string) (*types.Document, error) {
	for _, d := range m.documents {
		if d.ScopeID == scopeID && d.Text == text {
			return d, nil
		}
	}
	return nil, nil
}

func (m *memoryStore) FindEntityByName(_ context.Context, scopeID, name string) (*types.Entity, error) {
	for _, e := range m.entities {
		if e.ScopeID == scopeID && e.Name() == name {
			return e, nil
		}
	}
	return nil, nil
}

func (m *memoryStore) CreateDocument(_ context.Context, doc *types.Document) error {
	if m.createDocumentErr != nil {
		return m.createDocumentErr
	}
	m.documents[doc.ID] = doc
	return nil
}

func (m *memoryStore) CreateEntities(_ context.Context, entities []*types.Entity) error {
	for _, e := range entities {
		m.entities[e.ID] = e
	}
	return nil
}

func (m *memoryStore) CreateRelationships(_ context.Context, rels []*types.Relationship) error {
	m.relationships = append(m.relationships, rels...)
	return nil
}

func (m *memoryStore) LinkEntityToDocument(_ context.Context, entityID, documentID, _ string) error {
	for _, id := range m.links[documentID] {
		if id == entityID {
			return nil
		}
	}
	m.links[documentID] = append(m.links[documentID], entityID)
	return nil
}

func (m *memoryStore) UpdateDocumentContextIDs(_ context.Context, documentID string, contextIDs types.ContextIDs) error {
	if d, ok := m.documents[documentID]; ok {
		d.ContextIDs = contextIDs
	}
	return nil
}

func (m *memoryStore) UpdateEntityContextIDs(_ context.Context, entityID string, contextIDs types.ContextIDs) error {
	if e, ok := m.entities[entityID]; ok {
		e.ContextIDs = contextIDs
	}
	return nil
}

func (m *memoryStore) SearchDocumentsByVector(_ context.Context, _ []float32, k int) ([]*types.Document, error) {
	out := m.docSearch
	if out == nil {
		for _, d := range m.documents {
			out = append(out, d)
		}
	}
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

func (m *memoryStore) SearchEntitiesByVector(_ context.Context, _ []float32, k int) ([]*types.Entity, error) {
	out := m.entSearch
	if out == nil {
		for _, e := range m.entities {
			out = append(out, e)
		}
	}
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

func (m *memoryStore) GetEntities(_ context.Context, entityIDs []string, _ string) ([]*types.Entity, error) {
	out := []*types.Entity{}
	for _, id := range entityIDs {
		if e, ok := m.entities[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memoryStore) DocumentEntities(_ context.Context, documentIDs []string, _ string) ([]*types.Entity, error) {
	out := []*types.Entity{}
	for _, docID := range documentIDs {
		for _, id := range m.links[docID] {
			if e, ok := m.entities[id]; ok {
				out = append(out, e)
			}
		}
	}
	return out, nil
}

func (m *memoryStore) EntityNeighborhood(_ context.Context, entityIDs []string, _ string) ([]*types.Entity, []*types.Relationship, error) {
	m.neighborhoodCalls++
	frontier := map[string]bool{}
	for _, id := range entityIDs {
		frontier[id] = true
	}
	var entities []*types.Entity
	var rels []*types.Relationship
	seen := map[string]bool{}
	for _, r := range m.relationships {
		if !frontier[r.FromEntityID] && !frontier[r.ToEntityID] {
			continue
		}
		rels = append(rels, r)
		for _, end := range []string{r.FromEntityID, r.ToEntityID} {
			if frontier[end] || seen[end] {
				continue
			}
			seen[end] = true
			if e, ok := m.entities[end]; ok {
				entities = append(entities, e)
			}
		}
	}
	return entities, rels, nil
}

func (m *memoryStore) GetDocument(_ context.Context, documentID, scopeID string) (*types.Document, error) {
	d, ok := m.documents[documentID]
	if !ok || (scopeID != "" && d.ScopeID != scopeID) {
		return nil, nil
	}
	return d, nil
}

func (m *memoryStore) DeleteDocument(_ context.Context, documentID, _ string) (bool, error) {
	if _, ok := m.documents[documentID]; !ok {
		return false, nil
	}
	delete(m.documents, documentID)
	delete(m.links, documentID)
	return true, nil
}

func (m *memoryStore) GetStats(_ context.Context, _ string) (*driver.GraphStats, error) {
	return &driver.GraphStats{
		DocumentCount:     int64(len(m.documents)),
		EntityCount:       int64(len(m.entities)),
		RelationshipCount: int64(len(m.relationships)),
		ContextCount:      int64(len(m.contexts)),
	}, nil
}

func (m *memoryStore) CreateIndices(context.Context, int) error { return nil }
func (m *memoryStore) Ping(context.Context) error          { return nil }
func (m *memoryStore) Provider() driver.GraphProvider      { return driver.GraphProviderNeo4j }
func (m *memoryStore) Close(context.Context) error         { return nil }

// scriptedLLM returns queued responses in order. Queue an error value to
// fail that call.
type scriptedLLM struct {
	responses []string
	errs      []error
	calls     int
}

func (s *scriptedLLM) Chat(_ context.Context, _ []llm.Message) (string, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if i < len(s.responses) {
		return s.responses[i], nil
	}
	return "", llm.ErrEmptyResponse
}

func (s *scriptedLLM) Close() error { return nil }

// fakeEmbedder returns a fixed vector and records every input.
type fakeEmbedder struct {
	calls []string
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		f.calls = append(f.calls, t)
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedSingle(_ context.Context, text string) ([]float32, error) {
	f.calls = append(f.calls, text)
	return []float32{1, 0, 0}, nil
}

func (f *fakeEmbedder) Dimensions() int { return 3 }
func (f *fakeEmbedder) Close() error    { return nil }

// embedCount returns how many times text was embedded.
func (f *fakeEmbedder) embedCount(text string) int {
	n := 0
	for _, c := range f.calls {
		if c == text {
			n++
		}
	}
	return n
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, store *memoryStore, model *scriptedLLM, embed *fakeEmbedder, config *memograph.Config) *memograph.Client {
	t.Helper()
	if config == nil {
		config = &memograph.Config{ScopeID: "scope-1"}
	}
	client, err := memograph.NewClient(store, model, embed, config, testLogger())
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return client
}

// aliceAcmeExtraction is a canned extraction response for the text
// "Alice works for Acme Corp."
const aliceAcmeExtraction = `{
  "entities": [
    {"label": "Person", "properties": {"name": "Alice"}},
    {"label": "Organization", "properties": {"name": "Acme Corp"}}
  ],
  "relationships": [
    {"from": "Alice", "to": "Acme Corp", "type": "WORKS_FOR", "properties": {}}
  ]
}`

// aliceBobExtraction is a canned extraction response for the text
// "Alice knows Bob."
const aliceBobExtraction = `{
  "entities": [
    {"label": "Person", "properties": {"name": "Alice"}},
    {"label": "Person", "properties": {"name": "Bob"}}
  ],
  "relationships": [
    {"from": "Alice", "to": "Bob", "type": "KNOWS", "properties": {}}
  ]
}`

func timePtr(t time.Time) *time.Time { return &t }
