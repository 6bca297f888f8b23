package llm

import (
	"fmt"

	"go.uber.org/zap"
)

// NewGenerator creates the text-generation client selected by cfg.Provider.
func NewGenerator(cfg *Config, logger *zap.Logger) (Generator, error) {
	switch cfg.Provider {
	case "", "openai":
		return NewClient(cfg, logger)
	case "anthropic":
		return NewAnthropicClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// NewEmbedder creates the embedding client. Embeddings always go through
// the OpenAI-compatible endpoint, whichever provider generates text.
func NewEmbedder(cfg *Config, logger *zap.Logger) (Embedder, error) {
	return NewClient(cfg, logger)
}
