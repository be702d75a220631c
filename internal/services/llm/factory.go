package llm

import (
	"fmt"

	"github.com/gridseye/necomply/internal/common"
	"github.com/gridseye/necomply/internal/interfaces"
	"github.com/ternarybob/arbor"
)

// NewServices creates the vision and embedding service implementations
// based on configuration.
//
// The vision provider is selected by llm.default_provider. Embeddings
// always come from Gemini because Claude has no embedding API: when
// Claude is the vision provider and a Gemini key is configured, a
// second Gemini service is created for embeddings only. Without a
// Gemini key the embedding service is nil and callers degrade to
// category-based retrieval.
func NewServices(cfg *common.Config, logger arbor.ILogger) (interfaces.VisionService, interfaces.EmbeddingService, error) {
	provider := cfg.LLM.DefaultProvider
	if provider == "" {
		provider = common.LLMProviderGemini
	}

	logger.Info().Str("provider", string(provider)).Msg("Initializing LLM services")

	switch provider {
	case common.LLMProviderGemini:
		service, err := NewGeminiService(&cfg.Gemini, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Gemini service: %w", err)
		}
		return service, service, nil

	case common.LLMProviderClaude:
		vision, err := NewClaudeService(&cfg.Claude, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Claude service: %w", err)
		}

		if cfg.Gemini.APIKey == "" {
			logger.Warn().Msg("No Gemini API key configured, semantic search disabled (category retrieval only)")
			return vision, nil, nil
		}

		embedder, err := NewGeminiService(&cfg.Gemini, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to create Gemini embedding service, semantic search disabled")
			return vision, nil, nil
		}
		return vision, embedder, nil

	default:
		return nil, nil, fmt.Errorf("invalid LLM provider '%s': must be 'gemini' or 'claude'", provider)
	}
}
