package cli

import (
	"bufio"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// mockSettingsService implements driving.SettingsService for testing.
type mockSettingsService struct {
	settings    domain.AppSettings
	setErr      error
	validateErr error
	values      map[string]string

	embedding [3]string
	llm       [3]string
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultAppSettings(), values: map[string]string{}}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	m.settings = *settings
	return nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = value
	return nil
}

func (m *mockSettingsService) Keys() []string {
	return []string{"chunker.chunk_size", "llm.api_key", "retrieval.top_k"}
}

func (m *mockSettingsService) SetEmbeddingProvider(p domain.AIProvider, model, apiKey string) error {
	m.embedding = [3]string{string(p), model, apiKey}
	return nil
}

func (m *mockSettingsService) SetLLMProvider(p domain.AIProvider, model, apiKey string) error {
	m.llm = [3]string{string(p), model, apiKey}
	return nil
}

func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func (m *mockSettingsService) ValidateEmbeddingConfig() error {
	return m.validateErr
}

func (m *mockSettingsService) ValidateLLMConfig() error {
	return m.validateErr
}

// setupSettings installs a settings mock and feeds input to the commands.
func setupSettings(t *testing.T, input string) *mockSettingsService {
	t.Helper()
	settings := newMockSettingsService()
	SetServices(&Services{Settings: settings})
	rootCmd.SetIn(strings.NewReader(input))
	t.Cleanup(func() {
		SetServices(nil)
		rootCmd.SetIn(nil)
	})
	return settings
}

func TestSettingsShow_MasksAPIKeys(t *testing.T) {
	settings := setupSettings(t, "")
	settings.settings.LLM.Provider = domain.AIProviderOpenAI
	settings.settings.LLM.APIKey = "sk-env-1234567890wxyz"
	settings.settings.Retrieval.ScopedTopK = 3

	out, err := execute(t, "settings", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "API Key: sk-e...wxyz")
	assert.NotContains(t, out, "sk-env-1234567890wxyz")
	assert.Contains(t, out, "Scoped top K: 3")
	assert.Contains(t, out, "Chunk size: 450")
}

func TestSettingsShow_OllamaHasNoKeyLine(t *testing.T) {
	setupSettings(t, "")

	out, err := execute(t, "settings")

	require.NoError(t, err)
	assert.Contains(t, out, "Provider: Ollama (local)")
	assert.NotContains(t, out, "API Key")
}

func TestSettingsSet(t *testing.T) {
	t.Run("stores the raw value", func(t *testing.T) {
		settings := setupSettings(t, "")

		out, err := execute(t, "settings", "set", "retrieval.top_k", "8")

		require.NoError(t, err)
		assert.Equal(t, "8", settings.values["retrieval.top_k"])
		assert.Contains(t, out, "Set retrieval.top_k = 8")
	})

	t.Run("masks api keys in the confirmation", func(t *testing.T) {
		settings := setupSettings(t, "")

		out, err := execute(t, "settings", "set", "embedding.api_key", "sk-proj-1234567890abcd")

		require.NoError(t, err)
		assert.Equal(t, "sk-proj-1234567890abcd", settings.values["embedding.api_key"])
		assert.Contains(t, out, "sk-p...abcd")
		assert.NotContains(t, out, "1234567890")
	})

	t.Run("rejected value", func(t *testing.T) {
		settings := setupSettings(t, "")
		settings.setErr = domain.ErrInvalidInput

		_, err := execute(t, "settings", "set", "chunker.overlap", "900")

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("not configured", func(t *testing.T) {
		SetServices(&Services{})
		defer SetServices(nil)

		_, err := execute(t, "settings", "set", "retrieval.top_k", "8")

		assert.ErrorContains(t, err, "settings service not configured")
	})
}

func TestSettingsKeys(t *testing.T) {
	setupSettings(t, "")

	out, err := execute(t, "settings", "keys")

	require.NoError(t, err)
	assert.Equal(t, "chunker.chunk_size\nllm.api_key\nretrieval.top_k\n", out)
}

func TestSettingsAPIKey(t *testing.T) {
	t.Run("reads the key from input", func(t *testing.T) {
		settings := setupSettings(t, "sk-ant-0123456789zz\n")

		out, err := execute(t, "settings", "api-key", "llm")

		require.NoError(t, err)
		assert.Equal(t, "sk-ant-0123456789zz", settings.values["llm.api_key"])
		assert.Contains(t, out, "Saved llm API key sk-a...89zz")
	})

	t.Run("empty key", func(t *testing.T) {
		settings := setupSettings(t, "\n")

		_, err := execute(t, "settings", "api-key", "embedding")

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Empty(t, settings.values)
	})

	t.Run("unknown target", func(t *testing.T) {
		setupSettings(t, "key\n")

		_, err := execute(t, "settings", "api-key", "speech")

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestSettingsCheck(t *testing.T) {
	t.Run("providers reachable", func(t *testing.T) {
		SetServices(&Services{Ping: func(context.Context) error { return nil }})
		defer SetServices(nil)

		out, err := execute(t, "settings", "check")

		require.NoError(t, err)
		assert.Contains(t, out, "OK")
	})

	t.Run("provider down", func(t *testing.T) {
		SetServices(&Services{Ping: func(context.Context) error { return errBoom }})
		defer SetServices(nil)

		out, err := execute(t, "settings", "check")

		assert.ErrorIs(t, err, errBoom)
		assert.Contains(t, out, "FAILED")
	})
}

func TestSettingsEmbedding_Wizard(t *testing.T) {
	settings := setupSettings(t, "2\n\nsk-openai-abcdefgh\n")

	out, err := execute(t, "settings", "embedding")

	require.NoError(t, err)
	assert.Equal(t, [3]string{"openai", "text-embedding-3-small", "sk-openai-abcdefgh"}, settings.embedding)
	assert.Contains(t, out, "Embedding provider configured: OpenAI (cloud) (text-embedding-3-small)")
}

func TestSettingsLLM_Wizard(t *testing.T) {
	t.Run("local provider skips the key", func(t *testing.T) {
		settings := setupSettings(t, "\nmistral\n")

		_, err := execute(t, "settings", "llm")

		require.NoError(t, err)
		assert.Equal(t, [3]string{"ollama", "mistral", ""}, settings.llm)
	})

	t.Run("validation failure", func(t *testing.T) {
		settings := setupSettings(t, "3\n\nsk-ant-abcdefgh\n")
		settings.validateErr = errBoom

		out, err := execute(t, "settings", "llm")

		assert.ErrorIs(t, err, errBoom)
		assert.Equal(t, "anthropic", settings.llm[0])
		assert.Contains(t, out, "FAILED")
	})

	t.Run("cloud provider without key", func(t *testing.T) {
		settings := setupSettings(t, "2\n\n\n")

		_, err := execute(t, "settings", "llm")

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Empty(t, settings.llm[0])
	})
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"", 1},
		{"2", 2},
		{"3", 3},
		{"0", 1},
		{"4", 1},
		{"two", 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseChoice(tt.input, 3, 1), tt.input)
	}
}

func TestReadLine(t *testing.T) {
	reader := bufio.NewReader(strings.NewReader("  first  \nsecond"))

	assert.Equal(t, "first", readLine(reader))
	assert.Equal(t, "second", readLine(reader))
	assert.Equal(t, "", readLine(reader))
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "****", maskAPIKey(""))
	assert.Equal(t, "****", maskAPIKey("12345678"))
	assert.Equal(t, "sk-1...cdef", maskAPIKey("sk-1234567890abcdef"))
}

func TestIsSecretKey(t *testing.T) {
	assert.True(t, isSecretKey("llm.api_key"))
	assert.True(t, isSecretKey("embedding.api_key"))
	assert.False(t, isSecretKey("llm.model"))
}
