package ai

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// maxTemperature is the highest sampling temperature any provider accepts.
const maxTemperature = 2.0

// ConfigValidator checks provider settings before they are used for
// ingestion or answering. Static problems are reported as
// domain.ErrInvalidInput without contacting the provider.
type ConfigValidator struct {
	timeout time.Duration
}

// ValidatorOption configures a ConfigValidator.
type ValidatorOption func(*ConfigValidator)

// WithPingTimeout bounds how long a provider may take to answer.
func WithPingTimeout(d time.Duration) ValidatorOption {
	return func(v *ConfigValidator) {
		if d > 0 {
			v.timeout = d
		}
	}
}

// NewConfigValidator creates a validator that pings with pingTimeout
// unless overridden.
func NewConfigValidator(opts ...ValidatorOption) *ConfigValidator {
	v := &ConfigValidator{timeout: pingTimeout}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// ValidateEmbedding checks config and pings the embedding provider.
func (v *ConfigValidator) ValidateEmbedding(config *domain.EmbeddingSettings) error {
	if err := CheckEmbeddingSettings(config); err != nil {
		return err
	}

	svc, err := CreateEmbeddingService(config)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()
	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	return nil
}

// ValidateLLM checks config and pings the LLM provider.
func (v *ConfigValidator) ValidateLLM(config *domain.LLMSettings) error {
	if err := CheckLLMSettings(config); err != nil {
		return err
	}

	svc, err := CreateLLMService(config)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()
	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}
	return nil
}

// CheckEmbeddingSettings reports problems that need no network access.
func CheckEmbeddingSettings(config *domain.EmbeddingSettings) error {
	if config == nil {
		return fmt.Errorf("%w: no embedding settings", domain.ErrInvalidInput)
	}
	if err := checkProvider("embedding", config.Provider, config.Model, config.APIKey, config.BaseURL); err != nil {
		return err
	}
	if !config.Provider.SupportsEmbeddings() {
		return fmt.Errorf("%w: %s does not provide embeddings, use ollama or openai",
			domain.ErrInvalidInput, config.Provider)
	}
	if config.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: embedding requests per second must not be negative", domain.ErrInvalidInput)
	}
	return nil
}

// CheckLLMSettings reports problems that need no network access.
func CheckLLMSettings(config *domain.LLMSettings) error {
	if config == nil {
		return fmt.Errorf("%w: no LLM settings", domain.ErrInvalidInput)
	}
	if err := checkProvider("llm", config.Provider, config.Model, config.APIKey, config.BaseURL); err != nil {
		return err
	}
	if config.Temperature < 0 || config.Temperature > maxTemperature {
		return fmt.Errorf("%w: llm temperature %.2f outside 0 to %.0f",
			domain.ErrInvalidInput, config.Temperature, maxTemperature)
	}
	if config.MaxTokens < 0 {
		return fmt.Errorf("%w: llm max tokens must not be negative", domain.ErrInvalidInput)
	}
	return nil
}

func checkProvider(role string, provider domain.AIProvider, model, apiKey, baseURL string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: unknown %s provider %q", domain.ErrInvalidInput, role, provider)
	}
	if model == "" {
		return fmt.Errorf("%w: %s model is required", domain.ErrInvalidInput, role)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: %s API key is required for %s, set %s.api_key",
			domain.ErrInvalidInput, role, provider, role)
	}
	if baseURL == "" {
		return nil
	}
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %s base URL %q must be an http or https URL",
			domain.ErrInvalidInput, role, baseURL)
	}
	return nil
}
