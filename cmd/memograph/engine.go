package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/soundprediction/memograph"
	"github.com/soundprediction/memograph/pkg/config"
	"github.com/soundprediction/memograph/pkg/driver"
	"github.com/soundprediction/memograph/pkg/embedder"
	"github.com/soundprediction/memograph/pkg/events"
	"github.com/soundprediction/memograph/pkg/llm"
	"github.com/soundprediction/memograph/pkg/telemetry"
)

// newEngine wires a Memograph client from loaded configuration.
func newEngine(cfg *config.Config, logger *slog.Logger) (*memograph.Client, error) {
	store, err := newStore(cfg)
	if err != nil {
		return nil, err
	}

	model, err := newLLMClient(cfg, logger)
	if err != nil {
		return nil, err
	}

	embed, err := newEmbedderClient(cfg)
	if err != nil {
		return nil, err
	}

	var opts []memograph.Option
	if cfg.Events.Enabled {
		emitter := events.NewAsyncEmitter(cfg.Events.BufferSize, logger)
		opts = append(opts, memograph.WithEmitter(emitter))
	}
	if cfg.Telemetry.Enabled {
		recorder, err := telemetry.NewQueryLog(cfg.Telemetry.ParquetPath, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to set up query telemetry: %w", err)
		}
		opts = append(opts, memograph.WithQueryLog(recorder))
	}

	return memograph.NewClient(store, model, embed, &memograph.Config{
		ScopeID:             cfg.Scope.ID,
		ScopeName:           cfg.Scope.Name,
		ScopeType:           cfg.Scope.Type,
		DefaultLimit:        cfg.Retrieval.Limit,
		DefaultMaxDepth:     cfg.Retrieval.MaxDepth,
		SimilarityThreshold: cfg.Retrieval.SimilarityThreshold,
	}, logger, opts...)
}

func newStore(cfg *config.Config) (driver.GraphStore, error) {
	switch cfg.Database.Provider {
	case "neo4j", "memgraph", "":
		store, err := driver.NewNeo4jStore(cfg.Database.URI, cfg.Database.Username, cfg.Database.Password, cfg.Database.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to create graph store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported database provider %q", cfg.Database.Provider)
	}
}

func newLLMClient(cfg *config.Config, logger *slog.Logger) (llm.Client, error) {
	llmConfig := &llm.Config{
		Model:       cfg.LLM.Model,
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	}

	var client llm.Client
	switch cfg.LLM.Provider {
	case "openai", "deepseek", "":
		client = llm.NewOpenAIClient(llmConfig)
	case "anthropic":
		client = llm.NewAnthropicClient(llmConfig)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.LLM.Provider)
	}

	client = llm.NewCircuitBreakerClient(client, llm.CircuitBreakerConfig{
		Enabled:          cfg.CircuitBreaker.Enabled,
		MaxRequests:      cfg.CircuitBreaker.MaxRequests,
		Interval:         time.Duration(cfg.CircuitBreaker.Interval) * time.Second,
		Timeout:          time.Duration(cfg.CircuitBreaker.Timeout) * time.Second,
		ReadyToTripRatio: cfg.CircuitBreaker.ReadyToTripRatio,
	}, "llm", logger)
	return client, nil
}

func newEmbedderClient(cfg *config.Config) (embedder.Client, error) {
	embConfig := &embedder.Config{
		Model:   cfg.Embedding.Model,
		APIKey:  cfg.Embedding.APIKey,
		BaseURL: cfg.Embedding.BaseURL,
	}

	switch cfg.Embedding.Provider {
	case "openai", "":
		return embedder.NewOpenAIClient(embConfig), nil
	case "local":
		return embedder.NewLocalClient(embConfig)
	default:
		return nil, fmt.Errorf("unsupported embedding provider %q", cfg.Embedding.Provider)
	}
}
