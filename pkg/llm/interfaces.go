// Package llm provides text-generation and embedding clients for the
// assistant. An OpenAI-compatible client is the default; an Anthropic
// client can be selected by configuration.
package llm

import "context"

// Generator produces text from a system prompt and a user prompt.
type Generator interface {
	// GenerateText returns a plain-text completion.
	GenerateText(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error)

	// GenerateJSON returns the extracted JSON payload of a completion.
	// The prompt is expected to request JSON output; markdown fences and
	// surrounding prose are stripped. On total parse failure the raw
	// response and an error are returned so callers can fall back.
	GenerateJSON(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error)

	// GenerateStream streams a completion, invoking onToken for each
	// content delta, and returns the full accumulated text. Backends
	// without streaming support deliver the full text in one callback.
	GenerateStream(ctx context.Context, systemPrompt, userPrompt string, temperature float64, onToken func(string)) (string, error)
}

// Embedder produces embedding vectors for retrieval.
type Embedder interface {
	CreateEmbedding(ctx context.Context, input string) ([]float32, error)
	CreateEmbeddings(ctx context.Context, inputs []string) ([][]float32, error)
}

// Config holds configuration for creating LLM clients.
type Config struct {
	Provider       string // "openai" (default) or "anthropic"
	Endpoint       string // Base URL for OpenAI-compatible endpoints
	Model          string // Chat model name
	EmbeddingModel string // Embedding model name
	APIKey         string
}
