package services

import (
	"context"
	"strings"
	"sync"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// vocabulary gives mockEmbeddingService one dimension per word.
var vocabulary = []string{"cat", "dog", "sql", "go", "paragraph"}

// mockEmbeddingService implements driven.EmbeddingService for testing.
// Each dimension counts occurrences of one vocabulary word, so texts
// sharing words are similar.
type mockEmbeddingService struct {
	mu       sync.Mutex
	embedErr error
	calls    int
	batches  int

	// dropLast makes EmbedBatch return an empty vector for the last text.
	dropLast bool
}

func (m *mockEmbeddingService) vector(text string) []float32 {
	lower := strings.ToLower(text)
	v := make([]float32, len(vocabulary))
	for i, w := range vocabulary {
		v[i] = float32(strings.Count(lower, w))
	}
	return v
}

func (m *mockEmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.vector(text), nil
}

func (m *mockEmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.batches++
	m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	result := make([][]float32, len(texts))
	for i, t := range texts {
		result[i] = m.vector(t)
	}
	if m.dropLast && len(result) > 0 {
		result[len(result)-1] = []float32{}
	}
	return result, nil
}

func (m *mockEmbeddingService) Dimensions() int {
	return len(vocabulary)
}

func (m *mockEmbeddingService) ModelName() string {
	return "mock-embed"
}

func (m *mockEmbeddingService) Ping(_ context.Context) error {
	return nil
}

func (m *mockEmbeddingService) Close() error {
	return nil
}

// mockLLMService implements driven.LLMService for testing.
type mockLLMService struct {
	mu          sync.Mutex
	answer      string
	generateErr error
	lastPrompt  string
	lastOpts    driven.GenerateOptions
	calls       int

	// cancel, when set, is called during Generate to simulate the caller
	// going away while the model is still producing output.
	cancel context.CancelFunc
}

func (m *mockLLMService) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastPrompt = prompt
	m.lastOpts = opts
	if m.cancel != nil {
		m.cancel()
	}
	if m.generateErr != nil {
		return "", m.generateErr
	}
	if m.answer != "" {
		return m.answer, nil
	}
	return "generated answer", nil
}

func (m *mockLLMService) ModelName() string {
	return "mock-llm"
}

func (m *mockLLMService) Ping(_ context.Context) error {
	return nil
}

func (m *mockLLMService) Close() error {
	return nil
}

// mockPromptStore implements driven.PromptStore for testing.
type mockPromptStore struct {
	prompts map[string]string
	loadErr error
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if m.loadErr != nil {
		return "", m.loadErr
	}
	p, ok := m.prompts[name]
	if !ok {
		return "", domain.ErrNotFound
	}
	return p, nil
}

func (m *mockPromptStore) Reload() {}

// mockTextExtractor implements driven.TextExtractor for testing.
type mockTextExtractor struct {
	texts map[string]string
	err   error
}

func (m *mockTextExtractor) Extract(_ context.Context, raw *domain.RawDocument) (string, error) {
	return m.ExtractFile(context.Background(), raw.Path)
}

func (m *mockTextExtractor) ExtractFile(_ context.Context, path string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	text, ok := m.texts[path]
	if !ok {
		return "", domain.ErrUnsupportedType
	}
	return text, nil
}

func (m *mockTextExtractor) Register(_ driven.Normaliser) {}

func (m *mockTextExtractor) SupportedExtensions() []string {
	return []string{".md", ".txt"}
}

// mockAIValidator implements driven.AIConfigValidator for testing.
type mockAIValidator struct {
	embeddingErr error
	llmErr       error
	lastModel    string
}

func (m *mockAIValidator) ValidateEmbedding(s *domain.EmbeddingSettings) error {
	m.lastModel = s.Model
	return m.embeddingErr
}

func (m *mockAIValidator) ValidateLLM(s *domain.LLMSettings) error {
	m.lastModel = s.Model
	return m.llmErr
}

// failingStore wraps a KnowledgeStore and fails selected calls.
type failingStore struct {
	driven.KnowledgeStore
	addChunksErr error
	addQAErr     error
	renameErr    error
}

func (f *failingStore) AddChunks(ctx context.Context, chunks []domain.Chunk) error {
	if f.addChunksErr != nil {
		return f.addChunksErr
	}
	return f.KnowledgeStore.AddChunks(ctx, chunks)
}

func (f *failingStore) AddQAEntry(ctx context.Context, entry *domain.QAEntry) error {
	if f.addQAErr != nil {
		return f.addQAErr
	}
	return f.KnowledgeStore.AddQAEntry(ctx, entry)
}

func (f *failingStore) RenameSource(ctx context.Context, oldName, newName string) (domain.SourceChange, error) {
	if f.renameErr != nil {
		return domain.SourceChange{}, f.renameErr
	}
	return f.KnowledgeStore.RenameSource(ctx, oldName, newName)
}
