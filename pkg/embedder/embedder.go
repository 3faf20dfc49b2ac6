package embedder

import "context"

// Client generates vector embeddings for text. Embeddings feed vector search
// only; identity decisions are made on exact text/name match, never on
// embedding proximity.
type Client interface {
	// Embed generates embeddings for texts, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedSingle generates an embedding for a single text.
	EmbedSingle(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding dimensionality.
	Dimensions() int

	// Close cleans up any resources.
	Close() error
}

// Config holds common embedder configuration.
type Config struct {
	Model      string
	APIKey     string
	BaseURL    string
	Dimensions int
	BatchSize  int
}
