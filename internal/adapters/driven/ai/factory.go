// Package ai builds the embedding and LLM adapters selected by settings.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/docqa/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/docqa/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/docqa/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/docqa/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/docqa/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// Models holds the embedding and generation services for one process.
// Both are created once by Init and released by Close.
type Models struct {
	Embedding driven.EmbeddingService
	LLM       driven.LLMService
}

// Init creates both services from settings. It does not contact the
// providers; use Ping for that.
func Init(settings *domain.AppSettings) (*Models, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: no settings", domain.ErrEmbeddingUnavailable)
	}

	embedding, err := CreateEmbeddingService(&settings.Embedding)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'docqa settings set' to fix",
			domain.ErrEmbeddingUnavailable, err)
	}
	if embedding == nil {
		return nil, fmt.Errorf("%w: embedding provider %q is not configured",
			domain.ErrEmbeddingUnavailable, settings.Embedding.Provider)
	}
	if rps := settings.Embedding.RequestsPerSecond; rps > 0 {
		embedding = NewRateLimitedEmbedding(embedding, rps)
	}

	llm, err := CreateLLMService(&settings.LLM)
	if err != nil {
		embedding.Close()
		return nil, fmt.Errorf("%w: %w. Run 'docqa settings set' to fix",
			domain.ErrLLMUnavailable, err)
	}
	if llm == nil {
		embedding.Close()
		return nil, fmt.Errorf("%w: LLM provider %q is not configured",
			domain.ErrLLMUnavailable, settings.LLM.Provider)
	}

	logger.Debug("models: embedding=%s llm=%s", embedding.ModelName(), llm.ModelName())
	return &Models{Embedding: embedding, LLM: llm}, nil
}

// Ping checks that both providers are reachable.
func (m *Models) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	var errs []error
	if m.Embedding != nil {
		if err := m.Embedding.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err))
		}
	}
	if m.LLM != nil {
		if err := m.LLM.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err))
		}
	}
	return errors.Join(errs...)
}

// Close releases both services. Safe on a nil receiver.
func (m *Models) Close() error {
	if m == nil {
		return nil
	}
	var errs []error
	if m.Embedding != nil {
		errs = append(errs, m.Embedding.Close())
	}
	if m.LLM != nil {
		errs = append(errs, m.LLM.Close())
	}
	return errors.Join(errs...)
}

// CreateEmbeddingService creates the embedding service for the configured provider.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, nil
	}
	if settings.Provider == domain.AIProviderAnthropic {
		return nil, errors.New("anthropic does not support embeddings, use ollama or openai")
	}
	if !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return createOllamaEmbedding(settings), nil
	case domain.AIProviderOpenAI:
		return createOpenAIEmbedding(settings)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateLLMService creates the LLM service for the configured provider.
// Returns nil if the provider is not configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return createOllamaLLM(settings), nil
	case domain.AIProviderOpenAI:
		return createOpenAILLM(settings)
	case domain.AIProviderAnthropic:
		return createAnthropicLLM(settings)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}

func createOllamaEmbedding(settings *domain.EmbeddingSettings) driven.EmbeddingService {
	dimensions := domain.EmbeddingDimensions()[settings.Model]
	if dimensions == 0 {
		dimensions = ollamaembed.DefaultDimensions
	}

	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: dimensions,
	})
}

func createOpenAIEmbedding(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	return openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:     settings.APIKey,
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: domain.EmbeddingDimensions()[settings.Model],
	})
}

func createOllamaLLM(settings *domain.LLMSettings) driven.LLMService {
	return ollamallm.NewLLMService(ollamallm.LLMConfig{
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}

func createOpenAILLM(settings *domain.LLMSettings) (driven.LLMService, error) {
	return openaillm.NewLLMService(openaillm.LLMConfig{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}

func createAnthropicLLM(settings *domain.LLMSettings) (driven.LLMService, error) {
	return anthropicllm.NewLLMService(anthropicllm.Config{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}
