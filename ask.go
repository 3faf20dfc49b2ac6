package memograph

import (
	"context"
	"fmt"
	"time"

	"github.com/soundprediction/memograph/pkg/events"
	"github.com/soundprediction/memograph/pkg/prompts"
	"github.com/soundprediction/memograph/pkg/search"
	"github.com/soundprediction/memograph/pkg/types"
)

// Strategy selects which seed searches an Ask call runs.
type Strategy string

const (
	// StrategyDocuments seeds the subgraph from document vector search.
	StrategyDocuments Strategy = "documents"
	// StrategyEntities seeds the subgraph from entity vector search.
	StrategyEntities Strategy = "entities"
	// StrategyBoth runs both searches independently and unions the seeds.
	StrategyBoth Strategy = "both"
)

// AskOptions holds the optional parameters of an Ask call.
type AskOptions struct {
	// Strategy defaults to StrategyBoth.
	Strategy Strategy
	// Limit caps seed-search results and total subgraph entities.
	Limit int
	// MaxDepth bounds subgraph traversal hops.
	MaxDepth int
	// Contexts restricts results to facts carrying at least one of these
	// context ids.
	Contexts []string
	// ValidAt restricts results to facts valid at this instant.
	ValidAt *time.Time
	// SimilarityThreshold overrides the configured threshold. Candidates
	// below it are dropped entirely.
	SimilarityThreshold *float64
	// IncludeStats opts in to per-stage timing in the result.
	IncludeStats bool
}

// AskResult is the outcome of one Ask call. Documents, Entities, and
// Relationships are the retrieved context the answer was generated from.
type AskResult struct {
	Answer        string                 `json:"answer"`
	Documents     []*types.Document      `json:"documents"`
	Entities      []*types.Entity        `json:"entities"`
	Relationships []*types.Relationship  `json:"relationships"`
	Statistics    *types.QueryStatistics `json:"statistics,omitempty"`
}

// Ask answers a natural-language question from the stored graph: embed the
// query, vector-search for seeds per the strategy, filter candidates, expand
// to a bounded subgraph, and generate the answer from the formatted context.
// Zero surviving seeds short-circuit to a canned answer without calling the
// assembler or the language model.
func (c *Client) Ask(ctx context.Context, query string, options *AskOptions) (*AskResult, error) {
	if query == "" {
		return nil, ErrNoQuery
	}
	if options == nil {
		options = &AskOptions{}
	}
	strategy := options.Strategy
	if strategy == "" {
		strategy = StrategyBoth
	}
	switch strategy {
	case StrategyDocuments, StrategyEntities, StrategyBoth:
	default:
		return nil, fmt.Errorf("unknown strategy %q", strategy)
	}
	limit := options.Limit
	if limit <= 0 {
		limit = c.config.DefaultLimit
	}
	maxDepth := options.MaxDepth
	if maxDepth <= 0 {
		maxDepth = c.config.DefaultMaxDepth
	}
	threshold := c.config.SimilarityThreshold
	if options.SimilarityThreshold != nil {
		threshold = *options.SimilarityThreshold
	}

	stats := &types.QueryStatistics{}
	started := time.Now()

	embedding, err := c.embedder.EmbedSingle(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	plan := search.PlanSearch(limit, threshold, search.Filters{
		ScopeID:    c.config.ScopeID,
		ContextIDs: options.Contexts,
		ValidAt:    options.ValidAt,
	})

	searchStart := time.Now()
	var docs []*types.Document
	var seedEntities []*types.Entity
	if strategy == StrategyDocuments || strategy == StrategyBoth {
		candidates, err := c.store.SearchDocumentsByVector(ctx, embedding, plan.K)
		if err != nil {
			return nil, fmt.Errorf("document search failed: %w", err)
		}
		docs = plan.FilterDocuments(candidates)
	}
	if strategy == StrategyEntities || strategy == StrategyBoth {
		candidates, err := c.store.SearchEntitiesByVector(ctx, embedding, plan.K)
		if err != nil {
			return nil, fmt.Errorf("entity search failed: %w", err)
		}
		seedEntities = plan.FilterEntities(candidates)
	}
	stats.SearchTime = time.Since(searchStart)
	stats.DocumentsFound = len(docs)
	stats.EntitiesFound = len(seedEntities)

	result := &AskResult{
		Documents:     []*types.Document{},
		Entities:      []*types.Entity{},
		Relationships: []*types.Relationship{},
	}

	// No relevant seeds is a first-class outcome, not an error.
	if len(docs) == 0 && len(seedEntities) == 0 {
		result.Answer = prompts.NoRelevantInformationAnswer
		stats.TotalTime = time.Since(started)
		c.finishAsk(query, string(strategy), result, stats, options.IncludeStats)
		return result, nil
	}

	seedDocIDs := make([]string, 0, len(docs))
	for _, d := range docs {
		seedDocIDs = append(seedDocIDs, d.ID)
	}
	seedEntityIDs := make([]string, 0, len(seedEntities))
	for _, e := range seedEntities {
		seedEntityIDs = append(seedEntityIDs, e.ID)
	}

	subgraphStart := time.Now()
	subgraph, err := search.Assemble(ctx, c.store, seedDocIDs, seedEntityIDs, maxDepth, limit, c.config.ScopeID)
	if err != nil {
		return nil, fmt.Errorf("subgraph assembly failed: %w", err)
	}
	stats.SubgraphTime = time.Since(subgraphStart)
	stats.SubgraphEntities = len(subgraph.Entities)
	stats.SubgraphRelationships = len(subgraph.Relationships)

	answerStart := time.Now()
	formatted := prompts.FormatContext(docs, subgraph.Entities, subgraph.Relationships)
	answer, err := c.llm.Chat(ctx, prompts.AnswerMessages(query, formatted))
	if err != nil {
		return nil, fmt.Errorf("answer generation failed: %w", err)
	}
	stats.AnswerTime = time.Since(answerStart)
	stats.TotalTime = time.Since(started)

	result.Answer = answer
	result.Documents = docs
	result.Entities = subgraph.Entities
	result.Relationships = subgraph.Relationships
	c.finishAsk(query, string(strategy), result, stats, options.IncludeStats)
	return result, nil
}

// finishAsk attaches statistics when opted in, records telemetry, and emits
// the query event.
func (c *Client) finishAsk(query, strategy string, result *AskResult, stats *types.QueryStatistics, includeStats bool) {
	if includeStats {
		result.Statistics = stats
	}
	if c.recorder != nil {
		c.recorder.Record(c.config.ScopeID, query, strategy, *stats)
	}
	c.emitter.Emit(events.Event{
		Type:    events.TypeQueryAnswered,
		ScopeID: c.config.ScopeID,
		Payload: map[string]interface{}{
			"strategy":        strategy,
			"documents_found": stats.DocumentsFound,
			"entities_found":  stats.EntitiesFound,
			"total_millis":    stats.TotalTime.Milliseconds(),
		},
	})
	c.logger.Info("answered query",
		"scope_id", c.config.ScopeID,
		"strategy", strategy,
		"documents_found", stats.DocumentsFound,
		"entities_found", stats.EntitiesFound,
		"total_ms", stats.TotalTime.Milliseconds())
}
