package server

import "time"

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// LearnRequest is the body of POST /api/v1/learn.
type LearnRequest struct {
	Text        string     `json:"text" binding:"required"`
	ContextID   string     `json:"context_id,omitempty"`
	ContextName string     `json:"context_name,omitempty"`
	ValidFrom   *time.Time `json:"valid_from,omitempty"`
	ValidTo     *time.Time `json:"valid_to,omitempty"`
}

// LearnBatchRequest is the body of POST /api/v1/learn/batch.
type LearnBatchRequest struct {
	Items       []string   `json:"items" binding:"required"`
	ContextName string     `json:"context_name,omitempty"`
	ValidFrom   *time.Time `json:"valid_from,omitempty"`
	ValidTo     *time.Time `json:"valid_to,omitempty"`
}

// AskRequest is the body of POST /api/v1/ask.
type AskRequest struct {
	Query               string     `json:"query" binding:"required"`
	Strategy            string     `json:"strategy,omitempty"`
	Limit               int        `json:"limit,omitempty"`
	MaxDepth            int        `json:"max_depth,omitempty"`
	Contexts            []string   `json:"contexts,omitempty"`
	ValidAt             *time.Time `json:"valid_at,omitempty"`
	SimilarityThreshold *float64   `json:"similarity_threshold,omitempty"`
	IncludeStats        bool       `json:"include_stats,omitempty"`
}
