package driver

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/db"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
	"github.com/soundprediction/memograph/pkg/types"
)

// nodeProps extracts the property map of the node bound to key in a record.
func nodeProps(record *db.Record, key string) (map[string]any, error) {
	value, found := record.Get(key)
	if !found {
		return nil, fmt.Errorf("record has no %q binding", key)
	}
	node, ok := value.(dbtype.Node)
	if !ok {
		return nil, fmt.Errorf("unexpected type for %q: got %T, expected dbtype.Node", key, value)
	}
	return node.Props, nil
}

func stringProp(props map[string]any, key string) string {
	s, _ := props[key].(string)
	return s
}

func timeProp(props map[string]any, key string) time.Time {
	switch v := props[key].(type) {
	case time.Time:
		return v
	case dbtype.LocalDateTime:
		return v.Time()
	default:
		return time.Time{}
	}
}

func nullableTimeProp(props map[string]any, key string) *time.Time {
	t := timeProp(props, key)
	if t.IsZero() {
		return nil
	}
	return &t
}

// nullableTime converts an optional time to a driver parameter; nil maps to
// a null property.
func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func stringSliceProp(props map[string]any, key string) []string {
	raw, ok := props[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func embeddingProp(props map[string]any, key string) []float32 {
	raw, ok := props[key].([]any)
	if !ok {
		return nil
	}
	out := make([]float32, 0, len(raw))
	for _, v := range raw {
		switch f := v.(type) {
		case float64:
			out = append(out, float32(f))
		case float32:
			out = append(out, f)
		}
	}
	return out
}

// jsonProp decodes a JSON-string property into a map. Malformed or absent
// values yield nil rather than an error; stored JSON is system-written.
func jsonProp(props map[string]any, key string) map[string]any {
	raw := stringProp(props, key)
	if raw == "" || raw == "null" {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}

func scoreProp(record *db.Record) float64 {
	value, found := record.Get("score")
	if !found {
		return 0
	}
	score, _ := value.(float64)
	return score
}

func intProp(record *db.Record, key string) int64 {
	value, found := record.Get(key)
	if !found {
		return 0
	}
	i, _ := value.(int64)
	return i
}

func documentFromProps(props map[string]any) *types.Document {
	return &types.Document{
		ID:         stringProp(props, "id"),
		Text:       stringProp(props, "text"),
		ScopeID:    stringProp(props, "scope_id"),
		ContextIDs: types.NewContextIDs(stringSliceProp(props, "context_ids")...),
		Embedding:  embeddingProp(props, "embedding"),
		RecordedAt: timeProp(props, "recorded_at"),
		ValidFrom:  timeProp(props, "valid_from"),
		ValidTo:    nullableTimeProp(props, "valid_to"),
	}
}

func entityFromProps(props map[string]any) *types.Entity {
	properties := jsonProp(props, "properties")
	if properties == nil {
		properties = map[string]any{}
	}
	if _, ok := properties["name"]; !ok {
		properties["name"] = stringProp(props, "name")
	}
	return &types.Entity{
		ID:         stringProp(props, "id"),
		Label:      stringProp(props, "label"),
		Properties: properties,
		ScopeID:    stringProp(props, "scope_id"),
		ContextIDs: types.NewContextIDs(stringSliceProp(props, "context_ids")...),
		Embedding:  embeddingProp(props, "embedding"),
		RecordedAt: timeProp(props, "recorded_at"),
		ValidFrom:  timeProp(props, "valid_from"),
		ValidTo:    nullableTimeProp(props, "valid_to"),
	}
}

func relationshipFromProps(props map[string]any, fromID, toID string) *types.Relationship {
	return &types.Relationship{
		ID:           stringProp(props, "id"),
		Type:         stringProp(props, "type"),
		FromEntityID: fromID,
		ToEntityID:   toID,
		Properties:   jsonProp(props, "properties"),
		ScopeID:      stringProp(props, "scope_id"),
		RecordedAt:   timeProp(props, "recorded_at"),
		ValidFrom:    timeProp(props, "valid_from"),
		ValidTo:      nullableTimeProp(props, "valid_to"),
	}
}
