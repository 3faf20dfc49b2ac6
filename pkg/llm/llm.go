package llm

import (
	"context"
	"errors"
)

// Role identifies the author of a chat message.
type Role string

const (
	// RoleSystem represents a system message.
	RoleSystem Role = "system"
	// RoleUser represents a user message.
	RoleUser Role = "user"
	// RoleAssistant represents an assistant message.
	RoleAssistant Role = "assistant"
)

// Message is one turn of a chat exchange.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Client is the language-model collaborator. Implementations exist per
// provider family; the core depends only on this interface.
type Client interface {
	// Chat sends a chat completion request and returns the response text.
	Chat(ctx context.Context, messages []Message) (string, error)

	// Close cleans up any resources.
	Close() error
}

// Config holds configuration for an LLM client.
type Config struct {
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	MaxTokens   int
}

// ErrEmptyResponse is returned when the provider yields no content.
var ErrEmptyResponse = errors.New("empty response from language model")

// Generate is the prompt-level convenience used by the pipelines: a system
// message (optional) plus one user prompt.
func Generate(ctx context.Context, client Client, systemMessage, prompt string) (string, error) {
	messages := make([]Message, 0, 2)
	if systemMessage != "" {
		messages = append(messages, Message{Role: RoleSystem, Content: systemMessage})
	}
	messages = append(messages, Message{Role: RoleUser, Content: prompt})
	return client.Chat(ctx, messages)
}
