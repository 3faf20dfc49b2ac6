package memograph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/soundprediction/memograph/pkg/driver"
	"github.com/soundprediction/memograph/pkg/embedder"
	"github.com/soundprediction/memograph/pkg/events"
	"github.com/soundprediction/memograph/pkg/llm"
	"github.com/soundprediction/memograph/pkg/search"
	"github.com/soundprediction/memograph/pkg/telemetry"
	"github.com/soundprediction/memograph/pkg/types"
)

// Memograph is the main interface for building and querying a knowledge-graph
// memory. Text goes in through Learn, natural-language questions come back
// answered through Ask.
type Memograph interface {
	// Learn extracts entities and relationships from text and stores them
	// in the knowledge graph under the configured scope.
	Learn(ctx context.Context, text string, options *LearnOptions) (*LearnResult, error)

	// LearnBatch ingests items strictly sequentially with per-item error
	// isolation. A failing item is recorded and skipped, never fatal to
	// the batch.
	LearnBatch(ctx context.Context, items []string, options *BatchOptions) (*BatchResult, error)

	// Ask answers a natural-language question from the stored graph.
	Ask(ctx context.Context, query string, options *AskOptions) (*AskResult, error)

	// GetDocument retrieves a document by id. Returns (nil, nil) when no
	// document with that id exists in the configured scope.
	GetDocument(ctx context.Context, documentID string) (*types.Document, error)

	// DeleteDocument removes a document and its containment links. The
	// bool reports whether a document was actually deleted.
	DeleteDocument(ctx context.Context, documentID string) (bool, error)

	// GetStats returns aggregate graph counts for the configured scope.
	GetStats(ctx context.Context) (*driver.GraphStats, error)

	// CreateIndices creates database indices, constraints, and vector
	// indexes for optimal performance.
	CreateIndices(ctx context.Context) error

	// Ping verifies connectivity to the graph store.
	Ping(ctx context.Context) error

	// Close closes all connections and cleans up resources.
	Close(ctx context.Context) error
}

var _ Memograph = (*Client)(nil)

// Client is the main implementation of the Memograph interface.
type Client struct {
	store    driver.GraphStore
	llm      llm.Client
	embedder embedder.Client
	stamper  *types.Stamper
	emitter  events.Emitter
	recorder *telemetry.QueryLog
	config   *Config
	logger   *slog.Logger

	scopeMu    sync.Mutex
	scopeReady bool
}

// Config holds configuration for the Memograph client.
type Config struct {
	// ScopeID is the isolation boundary all facts are created under.
	// Required for ingestion; Ask uses it as a filter when set.
	ScopeID string
	// ScopeName and ScopeType describe the scope record created on first
	// ingestion. Both default from ScopeID when empty.
	ScopeName string
	ScopeType string

	// Ontology is the entity/relationship vocabulary injected into the
	// extraction prompt. Empty selects the built-in default.
	Ontology string

	// Retrieval defaults, applied when AskOptions leave them unset.
	DefaultLimit        int
	DefaultMaxDepth     int
	SimilarityThreshold float64

	// Clock overrides the metadata clock. Nil uses the system clock.
	Clock types.Clock
}

// Option customizes a Client beyond the required collaborators.
type Option func(*Client)

// WithEmitter installs a lifecycle event emitter. The default discards all
// events.
func WithEmitter(emitter events.Emitter) Option {
	return func(c *Client) {
		if emitter != nil {
			c.emitter = emitter
		}
	}
}

// WithQueryLog installs a telemetry recorder that captures per-query
// statistics for every Ask call.
func WithQueryLog(recorder *telemetry.QueryLog) Option {
	return func(c *Client) {
		c.recorder = recorder
	}
}

var (
	// ErrNoScope is returned when an operation requires a scope and none
	// is configured.
	ErrNoScope = errors.New("no scope configured")
	// ErrNoQuery is returned when Ask is called with an empty query.
	ErrNoQuery = errors.New("query cannot be empty")
)

// NewClient creates a new Memograph client with the provided collaborators.
func NewClient(store driver.GraphStore, llmClient llm.Client, embedderClient embedder.Client, config *Config, logger *slog.Logger, opts ...Option) (*Client, error) {
	if store == nil {
		return nil, errors.New("graph store is required")
	}
	if llmClient == nil {
		return nil, errors.New("llm client is required")
	}
	if embedderClient == nil {
		return nil, errors.New("embedder client is required")
	}
	if config == nil {
		config = &Config{}
	}
	if config.DefaultLimit <= 0 {
		config.DefaultLimit = 10
	}
	if config.DefaultMaxDepth <= 0 {
		config.DefaultMaxDepth = 2
	}
	if config.SimilarityThreshold <= 0 {
		config.SimilarityThreshold = search.DefaultSimilarityThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		store:    store,
		llm:      llmClient,
		embedder: embedderClient,
		stamper:  types.NewStamper(config.Clock),
		emitter:  events.NopEmitter{},
		config:   config,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// requireScope fails fast when no scope is configured and lazily creates the
// scope record on first use.
func (c *Client) requireScope(ctx context.Context) (string, error) {
	scopeID := c.config.ScopeID
	if scopeID == "" {
		return "", ErrNoScope
	}

	c.scopeMu.Lock()
	defer c.scopeMu.Unlock()
	if c.scopeReady {
		return scopeID, nil
	}

	existing, err := c.store.GetScope(ctx, scopeID)
	if err != nil {
		return "", fmt.Errorf("failed to look up scope %s: %w", scopeID, err)
	}
	if existing == nil {
		scope := &types.Scope{
			ID:   scopeID,
			Type: c.config.ScopeType,
			Name: c.config.ScopeName,
		}
		if scope.Type == "" {
			scope.Type = "tenant"
		}
		if scope.Name == "" {
			scope.Name = scopeID
		}
		if err := c.store.CreateScope(ctx, scope); err != nil {
			return "", fmt.Errorf("failed to create scope %s: %w", scopeID, err)
		}
		c.logger.Info("created scope", "scope_id", scopeID)
	}
	c.scopeReady = true
	return scopeID, nil
}

// GetDocument retrieves a document by id within the configured scope.
func (c *Client) GetDocument(ctx context.Context, documentID string) (*types.Document, error) {
	if documentID == "" {
		return nil, types.ErrEmptyID
	}
	return c.store.GetDocument(ctx, documentID, c.config.ScopeID)
}

// DeleteDocument removes a document. Entities remain; only the document node
// and its containment links go away.
func (c *Client) DeleteDocument(ctx context.Context, documentID string) (bool, error) {
	if documentID == "" {
		return false, types.ErrEmptyID
	}
	deleted, err := c.store.DeleteDocument(ctx, documentID, c.config.ScopeID)
	if err != nil {
		return false, err
	}
	if deleted {
		c.logger.Info("deleted document", "document_id", documentID, "scope_id", c.config.ScopeID)
	}
	return deleted, nil
}

// GetStats returns aggregate counts for the configured scope.
func (c *Client) GetStats(ctx context.Context) (*driver.GraphStats, error) {
	return c.store.GetStats(ctx, c.config.ScopeID)
}

// CreateIndices creates database indices and constraints, sizing vector
// indexes to the configured embedder.
func (c *Client) CreateIndices(ctx context.Context) error {
	return c.store.CreateIndices(ctx, c.embedder.Dimensions())
}

// Ping verifies graph store connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return c.store.Ping(ctx)
}

// Close closes the graph store, collaborator clients, and the event emitter.
func (c *Client) Close(ctx context.Context) error {
	var errs []error
	if err := c.store.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("graph store close: %w", err))
	}
	if err := c.llm.Close(); err != nil {
		errs = append(errs, fmt.Errorf("llm close: %w", err))
	}
	if err := c.embedder.Close(); err != nil {
		errs = append(errs, fmt.Errorf("embedder close: %w", err))
	}
	c.emitter.Close()
	if c.recorder != nil {
		if err := c.recorder.Close(); err != nil {
			errs = append(errs, fmt.Errorf("query log close: %w", err))
		}
	}
	return errors.Join(errs...)
}
