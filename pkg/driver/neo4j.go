package driver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/db"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
	"github.com/soundprediction/memograph/pkg/types"
)

const (
	documentVectorIndex = "document_embedding"
	entityVectorIndex   = "entity_embedding"
)

// Neo4jStore implements the GraphStore interface for Neo4j and Memgraph.
type Neo4jStore struct {
	client   neo4j.DriverWithContext
	database string
	provider GraphProvider
}

// NewNeo4jStore creates a new Neo4j-backed store.
func NewNeo4jStore(uri, username, password, database string) (*Neo4jStore, error) {
	client, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	if database == "" {
		database = "neo4j"
	}
	return &Neo4jStore{
		client:   client,
		database: database,
		provider: GraphProviderNeo4j,
	}, nil
}

func (n *Neo4jStore) session(ctx context.Context) neo4j.SessionWithContext {
	return n.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database})
}

// GetScope retrieves a scope by id. Returns (nil, nil) when absent.
func (n *Neo4jStore) GetScope(ctx context.Context, scopeID string) (*types.Scope, error) {
	records, err := n.readRecords(ctx, `
		MATCH (s:Scope {id: $id})
		RETURN s
	`, map[string]any{"id": scopeID})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	props, err := nodeProps(records[0], "s")
	if err != nil {
		return nil, err
	}
	return &types.Scope{
		ID:       stringProp(props, "id"),
		Type:     stringProp(props, "type"),
		Name:     stringProp(props, "name"),
		Metadata: jsonProp(props, "metadata"),
	}, nil
}

// CreateScope persists a scope node. Scopes are immutable: an existing id is
// left untouched.
func (n *Neo4jStore) CreateScope(ctx context.Context, scope *types.Scope) error {
	if err := scope.Validate(); err != nil {
		return err
	}
	metadata, err := json.Marshal(scope.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal scope metadata: %w", err)
	}
	return n.write(ctx, `
		MERGE (s:Scope {id: $id})
		ON CREATE SET s.type = $type, s.name = $name, s.metadata = $metadata
	`, map[string]any{
		"id":       scope.ID,
		"type":     scope.Type,
		"name":     scope.Name,
		"metadata": string(metadata),
	})
}

// CreateContext persists a context node and attaches it to its scope.
func (n *Neo4jStore) CreateContext(ctx context.Context, kctx *types.Context) error {
	metadata, err := json.Marshal(kctx.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal context metadata: %w", err)
	}
	return n.write(ctx, `
		MATCH (s:Scope {id: $scope_id})
		CREATE (c:Context {id: $id, scope_id: $scope_id, name: $name, source: $source, metadata: $metadata})
		CREATE (s)-[:HAS_CONTEXT]->(c)
	`, map[string]any{
		"id":       kctx.ID,
		"scope_id": kctx.ScopeID,
		"name":     kctx.Name,
		"source":   kctx.Source,
		"metadata": string(metadata),
	})
}

// FindDocumentByText looks up a document by its exact-match identity key
// (scope, text). Returns (nil, nil) when absent.
func (n *Neo4jStore) FindDocumentByText(ctx context.Context, scopeID, text string) (*types.Document, error) {
	records, err := n.readRecords(ctx, `
		MATCH (d:Document {scope_id: $scope_id, text: $text})
		RETURN d
		LIMIT 1
	`, map[string]any{"scope_id": scopeID, "text": text})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	props, err := nodeProps(records[0], "d")
	if err != nil {
		return nil, err
	}
	return documentFromProps(props), nil
}

// FindEntityByName looks up an entity by its exact-match identity key
// (scope, name). Returns (nil, nil) when absent.
func (n *Neo4jStore) FindEntityByName(ctx context.Context, scopeID, name string) (*types.Entity, error) {
	records, err := n.readRecords(ctx, `
		MATCH (e:Entity {scope_id: $scope_id, name: $name})
		RETURN e
		LIMIT 1
	`, map[string]any{"scope_id": scopeID, "name": name})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	props, err := nodeProps(records[0], "e")
	if err != nil {
		return nil, err
	}
	return entityFromProps(props), nil
}

// CreateDocument persists a new document node.
func (n *Neo4jStore) CreateDocument(ctx context.Context, doc *types.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	params := map[string]any{
		"id":          doc.ID,
		"text":        doc.Text,
		"scope_id":    doc.ScopeID,
		"context_ids": []string(doc.ContextIDs),
		"embedding":   doc.Embedding,
		"recorded_at": doc.RecordedAt,
		"valid_from":  doc.ValidFrom,
		"valid_to":    nullableTime(doc.ValidTo),
	}
	return n.write(ctx, `
		CREATE (d:Document {
			id: $id, text: $text, scope_id: $scope_id, context_ids: $context_ids,
			embedding: $embedding, recorded_at: $recorded_at,
			valid_from: $valid_from, valid_to: $valid_to
		})
	`, params)
}

// CreateEntities persists entity nodes in one write transaction.
func (n *Neo4jStore) CreateEntities(ctx context.Context, entities []*types.Entity) error {
	if len(entities) == 0 {
		return nil
	}
	rows := make([]map[string]any, 0, len(entities))
	for _, e := range entities {
		if err := e.Validate(); err != nil {
			return err
		}
		props, err := json.Marshal(e.Properties)
		if err != nil {
			return fmt.Errorf("failed to marshal entity properties: %w", err)
		}
		rows = append(rows, map[string]any{
			"id":          e.ID,
			"label":       e.Label,
			"name":        e.Name(),
			"properties":  string(props),
			"scope_id":    e.ScopeID,
			"context_ids": []string(e.ContextIDs),
			"embedding":   e.Embedding,
			"recorded_at": e.RecordedAt,
			"valid_from":  e.ValidFrom,
			"valid_to":    nullableTime(e.ValidTo),
		})
	}
	return n.write(ctx, `
		UNWIND $rows AS row
		CREATE (e:Entity {
			id: row.id, label: row.label, name: row.name, properties: row.properties,
			scope_id: row.scope_id, context_ids: row.context_ids, embedding: row.embedding,
			recorded_at: row.recorded_at, valid_from: row.valid_from, valid_to: row.valid_to
		})
	`, map[string]any{"rows": rows})
}

// CreateRelationships persists entity-to-entity edges in one write transaction.
func (n *Neo4jStore) CreateRelationships(ctx context.Context, rels []*types.Relationship) error {
	if len(rels) == 0 {
		return nil
	}
	rows := make([]map[string]any, 0, len(rels))
	for _, r := range rels {
		if err := r.Validate(); err != nil {
			return err
		}
		props, err := json.Marshal(r.Properties)
		if err != nil {
			return fmt.Errorf("failed to marshal relationship properties: %w", err)
		}
		rows = append(rows, map[string]any{
			"id":          r.ID,
			"type":        r.Type,
			"from":        r.FromEntityID,
			"to":          r.ToEntityID,
			"properties":  string(props),
			"scope_id":    r.ScopeID,
			"recorded_at": r.RecordedAt,
			"valid_from":  r.ValidFrom,
			"valid_to":    nullableTime(r.ValidTo),
		})
	}
	return n.write(ctx, `
		UNWIND $rows AS row
		MATCH (from:Entity {id: row.from}), (to:Entity {id: row.to})
		CREATE (from)-[:RELATES_TO {
			id: row.id, type: row.type, properties: row.properties, scope_id: row.scope_id,
			recorded_at: row.recorded_at, valid_from: row.valid_from, valid_to: row.valid_to
		}]->(to)
	`, map[string]any{"rows": rows})
}

// LinkEntityToDocument creates the document-to-entity containment edge.
// Linking the same pair twice is a no-op.
func (n *Neo4jStore) LinkEntityToDocument(ctx context.Context, entityID, documentID, scopeID string) error {
	return n.write(ctx, `
		MATCH (d:Document {id: $document_id, scope_id: $scope_id})
		MATCH (e:Entity {id: $entity_id, scope_id: $scope_id})
		MERGE (d)-[:CONTAINS]->(e)
	`, map[string]any{
		"document_id": documentID,
		"entity_id":   entityID,
		"scope_id":    scopeID,
	})
}

// UpdateDocumentContextIDs replaces a document's context-id set.
func (n *Neo4jStore) UpdateDocumentContextIDs(ctx context.Context, documentID string, contextIDs types.ContextIDs) error {
	return n.write(ctx, `
		MATCH (d:Document {id: $id})
		SET d.context_ids = $context_ids
	`, map[string]any{"id": documentID, "context_ids": []string(contextIDs)})
}

// UpdateEntityContextIDs replaces an entity's context-id set.
func (n *Neo4jStore) UpdateEntityContextIDs(ctx context.Context, entityID string, contextIDs types.ContextIDs) error {
	return n.write(ctx, `
		MATCH (e:Entity {id: $id})
		SET e.context_ids = $context_ids
	`, map[string]any{"id": entityID, "context_ids": []string(contextIDs)})
}

// SearchDocumentsByVector runs a nearest-neighbor query against the document
// vector index. Results carry their similarity score.
func (n *Neo4jStore) SearchDocumentsByVector(ctx context.Context, embedding []float32, k int) ([]*types.Document, error) {
	if len(embedding) == 0 || k <= 0 {
		return []*types.Document{}, nil
	}
	records, err := n.readRecords(ctx, fmt.Sprintf(`
		CALL db.index.vector.queryNodes('%s', $k, $embedding)
		YIELD node, score
		RETURN node, score
	`, documentVectorIndex), map[string]any{"k": k, "embedding": embedding})
	if err != nil {
		return nil, err
	}
	docs := make([]*types.Document, 0, len(records))
	for _, record := range records {
		props, err := nodeProps(record, "node")
		if err != nil {
			continue
		}
		doc := documentFromProps(props)
		doc.Similarity = scoreProp(record)
		docs = append(docs, doc)
	}
	return docs, nil
}

// SearchEntitiesByVector runs a nearest-neighbor query against the entity
// vector index. Results carry their similarity score.
func (n *Neo4jStore) SearchEntitiesByVector(ctx context.Context, embedding []float32, k int) ([]*types.Entity, error) {
	if len(embedding) == 0 || k <= 0 {
		return []*types.Entity{}, nil
	}
	records, err := n.readRecords(ctx, fmt.Sprintf(`
		CALL db.index.vector.queryNodes('%s', $k, $embedding)
		YIELD node, score
		RETURN node, score
	`, entityVectorIndex), map[string]any{"k": k, "embedding": embedding})
	if err != nil {
		return nil, err
	}
	entities := make([]*types.Entity, 0, len(records))
	for _, record := range records {
		props, err := nodeProps(record, "node")
		if err != nil {
			continue
		}
		entity := entityFromProps(props)
		entity.Similarity = scoreProp(record)
		entities = append(entities, entity)
	}
	return entities, nil
}

// GetEntities hydrates entities by id within a scope. Ids that do not exist
// are silently absent from the result.
func (n *Neo4jStore) GetEntities(ctx context.Context, entityIDs []string, scopeID string) ([]*types.Entity, error) {
	if len(entityIDs) == 0 {
		return []*types.Entity{}, nil
	}
	records, err := n.readRecords(ctx, `
		MATCH (e:Entity)
		WHERE e.id IN $entity_ids AND e.scope_id = $scope_id
		RETURN e
	`, map[string]any{"entity_ids": entityIDs, "scope_id": scopeID})
	if err != nil {
		return nil, err
	}
	entities := make([]*types.Entity, 0, len(records))
	for _, record := range records {
		props, err := nodeProps(record, "e")
		if err != nil {
			continue
		}
		entities = append(entities, entityFromProps(props))
	}
	return entities, nil
}

// DocumentEntities resolves documents to their directly contained entities.
func (n *Neo4jStore) DocumentEntities(ctx context.Context, documentIDs []string, scopeID string) ([]*types.Entity, error) {
	if len(documentIDs) == 0 {
		return []*types.Entity{}, nil
	}
	records, err := n.readRecords(ctx, `
		MATCH (d:Document)-[:CONTAINS]->(e:Entity)
		WHERE d.id IN $document_ids AND d.scope_id = $scope_id
		RETURN DISTINCT e
	`, map[string]any{"document_ids": documentIDs, "scope_id": scopeID})
	if err != nil {
		return nil, err
	}
	entities := make([]*types.Entity, 0, len(records))
	for _, record := range records {
		props, err := nodeProps(record, "e")
		if err != nil {
			continue
		}
		entities = append(entities, entityFromProps(props))
	}
	return entities, nil
}

// EntityNeighborhood expands one hop outward from entityIDs, returning the
// neighboring entities and the edges traversed.
func (n *Neo4jStore) EntityNeighborhood(ctx context.Context, entityIDs []string, scopeID string) ([]*types.Entity, []*types.Relationship, error) {
	if len(entityIDs) == 0 {
		return []*types.Entity{}, []*types.Relationship{}, nil
	}
	records, err := n.readRecords(ctx, `
		MATCH (e:Entity)-[r:RELATES_TO]-(m:Entity)
		WHERE e.id IN $entity_ids AND e.scope_id = $scope_id AND m.scope_id = $scope_id
		RETURN DISTINCT r, startNode(r).id AS from_id, endNode(r).id AS to_id, m
	`, map[string]any{"entity_ids": entityIDs, "scope_id": scopeID})
	if err != nil {
		return nil, nil, err
	}

	entities := make([]*types.Entity, 0, len(records))
	rels := make([]*types.Relationship, 0, len(records))
	for _, record := range records {
		if props, err := nodeProps(record, "m"); err == nil {
			entities = append(entities, entityFromProps(props))
		}
		relValue, found := record.Get("r")
		if !found {
			continue
		}
		rel, ok := relValue.(dbtype.Relationship)
		if !ok {
			continue
		}
		fromID, _ := record.Get("from_id")
		toID, _ := record.Get("to_id")
		from, _ := fromID.(string)
		to, _ := toID.(string)
		rels = append(rels, relationshipFromProps(rel.Props, from, to))
	}
	return entities, rels, nil
}

// GetDocument retrieves a document by id within a scope. Returns (nil, nil)
// when absent or when the id exists in a different scope.
func (n *Neo4jStore) GetDocument(ctx context.Context, documentID, scopeID string) (*types.Document, error) {
	records, err := n.readRecords(ctx, `
		MATCH (d:Document {id: $id, scope_id: $scope_id})
		RETURN d
	`, map[string]any{"id": documentID, "scope_id": scopeID})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	props, err := nodeProps(records[0], "d")
	if err != nil {
		return nil, err
	}
	return documentFromProps(props), nil
}

// DeleteDocument removes a document and its containment edges. The second
// return value reports whether a document was actually deleted, so callers
// can branch on not-found without error handling.
func (n *Neo4jStore) DeleteDocument(ctx context.Context, documentID, scopeID string) (bool, error) {
	records, err := n.writeRecords(ctx, `
		MATCH (d:Document {id: $id, scope_id: $scope_id})
		WITH d, count(d) AS found
		DETACH DELETE d
		RETURN found
	`, map[string]any{"id": documentID, "scope_id": scopeID})
	if err != nil {
		return false, err
	}
	return len(records) > 0, nil
}

// GetStats returns aggregate counts for one scope. Each count runs as its
// own query so an empty label does not zero out the others.
func (n *Neo4jStore) GetStats(ctx context.Context, scopeID string) (*GraphStats, error) {
	params := map[string]any{"scope_id": scopeID}
	stats := &GraphStats{LastUpdated: time.Now().UTC()}
	counts := []struct {
		query string
		dest  *int64
	}{
		{`MATCH (d:Document {scope_id: $scope_id}) RETURN count(d) AS n`, &stats.DocumentCount},
		{`MATCH (e:Entity {scope_id: $scope_id}) RETURN count(e) AS n`, &stats.EntityCount},
		{`MATCH (:Entity {scope_id: $scope_id})-[r:RELATES_TO]->(:Entity) RETURN count(r) AS n`, &stats.RelationshipCount},
		{`MATCH (c:Context {scope_id: $scope_id}) RETURN count(c) AS n`, &stats.ContextCount},
	}
	for _, c := range counts {
		records, err := n.readRecords(ctx, c.query, params)
		if err != nil {
			return nil, err
		}
		if len(records) > 0 {
			*c.dest = intProp(records[0], "n")
		}
	}
	return stats, nil
}

// CreateIndices creates the uniqueness constraints and vector indexes the
// store relies on. vectorDimensions sizes the vector indexes to the embedding
// model in use. Safe to call repeatedly.
func (n *Neo4jStore) CreateIndices(ctx context.Context, vectorDimensions int) error {
	vectorOptions := fmt.Sprintf(
		"OPTIONS {indexConfig: {`vector.dimensions`: %d, `vector.similarity_function`: 'cosine'}}",
		vectorDimensions)
	statements := []string{
		`CREATE CONSTRAINT document_id IF NOT EXISTS FOR (d:Document) REQUIRE d.id IS UNIQUE`,
		`CREATE CONSTRAINT entity_id IF NOT EXISTS FOR (e:Entity) REQUIRE e.id IS UNIQUE`,
		`CREATE CONSTRAINT scope_id IF NOT EXISTS FOR (s:Scope) REQUIRE s.id IS UNIQUE`,
		`CREATE INDEX document_identity IF NOT EXISTS FOR (d:Document) ON (d.scope_id, d.text)`,
		`CREATE INDEX entity_identity IF NOT EXISTS FOR (e:Entity) ON (e.scope_id, e.name)`,
		fmt.Sprintf(`CREATE VECTOR INDEX %s IF NOT EXISTS FOR (d:Document) ON (d.embedding) %s`, documentVectorIndex, vectorOptions),
		fmt.Sprintf(`CREATE VECTOR INDEX %s IF NOT EXISTS FOR (e:Entity) ON (e.embedding) %s`, entityVectorIndex, vectorOptions),
	}
	for _, statement := range statements {
		if err := n.write(ctx, statement, nil); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// Ping verifies store connectivity without mutating anything.
func (n *Neo4jStore) Ping(ctx context.Context) error {
	return n.client.VerifyConnectivity(ctx)
}

// Provider returns the backing graph provider.
func (n *Neo4jStore) Provider() GraphProvider {
	return n.provider
}

// Close releases the underlying driver.
func (n *Neo4jStore) Close(ctx context.Context) error {
	return n.client.Close(ctx)
}

// readRecords runs query inside a read transaction and collects all records.
func (n *Neo4jStore) readRecords(ctx context.Context, query string, params map[string]any) ([]*db.Record, error) {
	session := n.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}
	return result.([]*db.Record), nil
}

// writeRecords runs query inside a write transaction and collects all records.
func (n *Neo4jStore) writeRecords(ctx context.Context, query string, params map[string]any) ([]*db.Record, error) {
	session := n.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}
	return result.([]*db.Record), nil
}

func (n *Neo4jStore) write(ctx context.Context, query string, params map[string]any) error {
	_, err := n.writeRecords(ctx, query, params)
	return err
}
