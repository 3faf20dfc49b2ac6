package prompts

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	jsonrepair "github.com/kaptinlin/jsonrepair"
	"github.com/soundprediction/memograph/pkg/llm"
)

// ErrMalformedExtraction is returned when the model output cannot be parsed
// into a schema-valid extraction payload, even after repair. This is a hard
// failure for the learn call that triggered the extraction.
var ErrMalformedExtraction = errors.New("malformed extraction payload")

// ExtractedEntity is one entity in the extraction payload.
type ExtractedEntity struct {
	Label      string                 `json:"label"`
	Properties map[string]interface{} `json:"properties"`
}

// Name returns the identifying name property, or "" when unset.
func (e *ExtractedEntity) Name() string {
	if e.Properties == nil {
		return ""
	}
	name, _ := e.Properties["name"].(string)
	return name
}

// ExtractedRelationship is one relationship in the extraction payload.
// From and To reference entities by their name property, not by graph id.
type ExtractedRelationship struct {
	From       string                 `json:"from"`
	To         string                 `json:"to"`
	Type       string                 `json:"type"`
	Properties map[string]interface{} `json:"properties"`
}

// ExtractionPayload is the JSON contract the extraction prompt demands.
type ExtractionPayload struct {
	Entities      []ExtractedEntity       `json:"entities"`
	Relationships []ExtractedRelationship `json:"relationships"`
}

const extractionSystemPrompt = `You are an AI assistant that extracts entities and relationships from text to build a knowledge graph.
Extract only facts stated or directly implied by the text. Do not invent entities or relationships.`

const defaultOntology = `Entity labels: Person, Organization, Location, Product, Event, Concept.
Relationship types: descriptive upper-snake-case verbs such as WORKS_FOR, KNOWS, LOCATED_IN, PART_OF, PRODUCES.`

// ExtractionMessages builds the chat messages for an extraction call.
// ontology is optional; when empty the default ontology template is used.
func ExtractionMessages(text, ontology string) []llm.Message {
	if ontology == "" {
		ontology = defaultOntology
	}

	prompt := fmt.Sprintf(`Extract entities and relationships from the following text.

%s

Respond with a JSON object only, in exactly this format:
{
  "entities": [{"label": "Person", "properties": {"name": "..."}}],
  "relationships": [{"from": "entity name", "to": "entity name", "type": "RELATION_TYPE", "properties": {}}]
}

Every entity must have a "name" property. Relationship "from" and "to" must use entity names from the entities list.

Text:
%s`, ontology, text)

	return []llm.Message{
		{Role: llm.RoleSystem, Content: extractionSystemPrompt},
		{Role: llm.RoleUser, Content: prompt},
	}
}

var (
	thinkTagRe  = regexp.MustCompile(`(?s)<think>.*?</think>`)
	codeFenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
)

// sanitizeModelOutput strips reasoning tags and code fences so only the JSON
// body remains.
func sanitizeModelOutput(raw string) string {
	out := thinkTagRe.ReplaceAllString(raw, "")
	if m := codeFenceRe.FindStringSubmatch(out); len(m) == 2 {
		out = m[1]
	}
	return strings.TrimSpace(out)
}

// ParseExtraction parses a model response into an ExtractionPayload. The raw
// output is sanitized and run through JSON repair first; anything that still
// fails to unmarshal, or that carries entities without a name property, is a
// malformed-extraction error.
func ParseExtraction(raw string) (*ExtractionPayload, error) {
	content := sanitizeModelOutput(raw)
	if content == "" {
		return nil, fmt.Errorf("%w: empty response", ErrMalformedExtraction)
	}

	if repaired, err := jsonrepair.JSONRepair(content); err == nil {
		content = repaired
	}

	var payload ExtractionPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedExtraction, err)
	}

	for i := range payload.Entities {
		if payload.Entities[i].Name() == "" {
			return nil, fmt.Errorf("%w: entity %d has no name property", ErrMalformedExtraction, i)
		}
	}
	for i, rel := range payload.Relationships {
		if rel.From == "" || rel.To == "" || rel.Type == "" {
			return nil, fmt.Errorf("%w: relationship %d is missing from/to/type", ErrMalformedExtraction, i)
		}
	}
	return &payload, nil
}
