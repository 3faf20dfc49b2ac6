package embedder

import (
	"context"
	"fmt"

	embedeverything "github.com/soundprediction/go-embedeverything/pkg/embedder"
)

// LocalClient implements the Client interface with an in-process embedding
// model, for deployments without an embedding API.
type LocalClient struct {
	client *embedeverything.Embedder
	config *Config
}

// NewLocalClient creates a new local embedding client.
func NewLocalClient(config *Config) (*LocalClient, error) {
	if config == nil || config.Model == "" {
		return nil, fmt.Errorf("local embedder requires a model name")
	}
	client, err := embedeverything.NewEmbedder(config.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to create local embedder: %w", err)
	}
	return &LocalClient{client: client, config: config}, nil
}

// Embed generates embeddings for the given texts.
func (l *LocalClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	// go-embedeverything does not support context yet
	embeddings, err := l.client.Embed(texts)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embeddings: %w", err)
	}
	return embeddings, nil
}

// EmbedSingle generates an embedding for a single text.
func (l *LocalClient) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := l.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	return embeddings[0], nil
}

// Dimensions returns the embedding dimensionality.
func (l *LocalClient) Dimensions() int {
	return l.config.Dimensions
}

// Close cleans up the underlying model.
func (l *LocalClient) Close() error {
	l.client.Close()
	return nil
}
