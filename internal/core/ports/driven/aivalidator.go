package driven

import "github.com/custodia-labs/docqa/internal/core/domain"

// AIConfigValidator checks provider settings by contacting the provider.
type AIConfigValidator interface {
	// ValidateEmbedding creates an embedding service from config and pings it.
	ValidateEmbedding(config *domain.EmbeddingSettings) error

	// ValidateLLM creates an LLM service from config and pings it.
	ValidateLLM(config *domain.LLMSettings) error
}
