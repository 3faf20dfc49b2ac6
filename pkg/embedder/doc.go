// Package embedder provides text embedding clients for vector
// representations.
//
// Two implementations are provided: an OpenAI-compatible HTTP client and an
// in-process local model. Both batch internally; callers use Embed for
// multiple texts and EmbedSingle for one.
package embedder
