package embedder

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

const (
	// DefaultOpenAIModel is the default embedding model.
	DefaultOpenAIModel = "text-embedding-3-small"
	// DefaultBatchSize caps texts per embedding request.
	DefaultBatchSize = 100
)

// OpenAIClient implements the Client interface against the OpenAI embeddings
// API, or any compatible endpoint via BaseURL.
type OpenAIClient struct {
	client *openai.Client
	config *Config
}

// NewOpenAIClient creates a new OpenAI embedding client.
func NewOpenAIClient(config *Config) *OpenAIClient {
	if config == nil {
		config = &Config{}
	}
	if config.Model == "" {
		config.Model = DefaultOpenAIModel
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultBatchSize
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}
}

// Embed generates embeddings for texts, batching requests to the provider
// limit.
func (o *OpenAIClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	embeddings := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += o.config.BatchSize {
		end := start + o.config.BatchSize
		if end > len(texts) {
			end = len(texts)
		}

		resp, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: texts[start:end],
			Model: openai.EmbeddingModel(o.config.Model),
		})
		if err != nil {
			return nil, fmt.Errorf("embedding request failed: %w", err)
		}
		if len(resp.Data) != end-start {
			return nil, fmt.Errorf("expected %d embeddings, got %d", end-start, len(resp.Data))
		}
		for _, item := range resp.Data {
			embeddings = append(embeddings, item.Embedding)
		}
	}
	return embeddings, nil
}

// EmbedSingle generates an embedding for a single text.
func (o *OpenAIClient) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := o.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	return embeddings[0], nil
}

// Dimensions returns the configured embedding dimensionality.
func (o *OpenAIClient) Dimensions() int {
	return o.config.Dimensions
}

// Close cleans up any resources.
func (o *OpenAIClient) Close() error {
	return nil
}
