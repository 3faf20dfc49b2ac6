package prompts

import (
	"fmt"
	"strings"

	"github.com/soundprediction/memograph/pkg/llm"
	"github.com/soundprediction/memograph/pkg/types"
	"gopkg.in/yaml.v3"
)

const answerSystemPrompt = `You are an AI assistant that answers questions using only the provided knowledge context.
If the context does not contain the answer, say you do not have that information. Do not use outside knowledge.`

// NoRelevantInformationAnswer is the canned response when retrieval finds
// nothing above threshold.
const NoRelevantInformationAnswer = "I don't have any relevant information to answer that question."

type entitySummary struct {
	Name       string                 `yaml:"name"`
	Label      string                 `yaml:"label,omitempty"`
	Properties map[string]interface{} `yaml:"properties,omitempty"`
}

type relationshipSummary struct {
	From string `yaml:"from"`
	Type string `yaml:"type"`
	To   string `yaml:"to"`
}

// FormatContext renders the retrieved subgraph for the answer prompt.
// Document full text leads, graph summaries follow: the raw text carries
// more information than the graph fragment distilled from it.
func FormatContext(docs []*types.Document, entities []*types.Entity, rels []*types.Relationship) string {
	var b strings.Builder

	if len(docs) > 0 {
		b.WriteString("## Documents\n\n")
		for i, doc := range docs {
			fmt.Fprintf(&b, "[%d] %s\n\n", i+1, doc.Text)
		}
	}

	if len(entities) > 0 {
		names := make(map[string]string, len(entities))
		summaries := make([]entitySummary, 0, len(entities))
		for _, e := range entities {
			names[e.ID] = e.Name()
			summaries = append(summaries, entitySummary{
				Name:       e.Name(),
				Label:      e.Label,
				Properties: types.FilterProperties(e.Properties),
			})
		}
		if rendered, err := yaml.Marshal(summaries); err == nil {
			b.WriteString("## Entities\n\n")
			b.Write(rendered)
			b.WriteString("\n")
		}

		if len(rels) > 0 {
			relSummaries := make([]relationshipSummary, 0, len(rels))
			for _, r := range rels {
				from, to := names[r.FromEntityID], names[r.ToEntityID]
				if from == "" {
					from = r.FromEntityID
				}
				if to == "" {
					to = r.ToEntityID
				}
				relSummaries = append(relSummaries, relationshipSummary{From: from, Type: r.Type, To: to})
			}
			if rendered, err := yaml.Marshal(relSummaries); err == nil {
				b.WriteString("## Relationships\n\n")
				b.Write(rendered)
			}
		}
	}

	return strings.TrimSpace(b.String())
}

// AnswerMessages builds the chat messages for answer generation.
func AnswerMessages(query, formattedContext string) []llm.Message {
	prompt := fmt.Sprintf(`Answer the question using the knowledge context below.

# Knowledge context

%s

# Question

%s`, formattedContext, query)

	return []llm.Message{
		{Role: llm.RoleSystem, Content: answerSystemPrompt},
		{Role: llm.RoleUser, Content: prompt},
	}
}
