package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/ranking"
)

type questionFixture struct {
	store    *memory.KnowledgeStore
	embedder *mockEmbeddingService
	llm      *mockLLMService
	service  *QuestionService
}

func newQuestionFixture(t *testing.T) *questionFixture {
	t.Helper()
	f := &questionFixture{
		store:    memory.NewKnowledgeStore(),
		embedder: &mockEmbeddingService{},
		llm:      &mockLLMService{answer: "Cats sleep a lot."},
	}
	engine := NewRetrievalEngine(f.store, f.embedder, ranking.NewLinear())
	f.service = NewQuestionService(f.store, engine, f.embedder, f.llm, nil,
		DefaultQuestionConfig(domain.DefaultAppSettings()))

	addChunk(t, f.store, "pets.md", "The cat sleeps all day.")
	addChunk(t, f.store, "pets.md", "A dog barks at night.")
	addChunk(t, f.store, "db.md", "Write sql queries in go.")
	return f
}

func (f *questionFixture) history(t *testing.T) []domain.QAEntry {
	t.Helper()
	entries, err := f.store.ListHistory(context.Background(), "")
	require.NoError(t, err)
	return entries
}

func TestQuestionService_Ask(t *testing.T) {
	f := newQuestionFixture(t)

	answer, err := f.service.Ask(context.Background(), "  what does the cat do?  ", 1)

	require.NoError(t, err)
	assert.True(t, answer.Found)
	assert.Equal(t, "Cats sleep a lot.", answer.Answer)
	assert.Equal(t, "what does the cat do?", answer.Question)
	assert.Equal(t, []string{"pets.md"}, answer.Sources)
	require.Len(t, answer.Chunks, 1)
	assert.Equal(t, "The cat sleeps all day.", answer.Chunks[0].Chunk.Text)

	assert.Contains(t, f.llm.lastPrompt, "The cat sleeps all day.")
	assert.Contains(t, f.llm.lastPrompt, "what does the cat do?")

	entries := f.history(t)
	require.Len(t, entries, 1)
	assert.Equal(t, "pets.md", entries[0].Source)
	assert.Equal(t, "Cats sleep a lot.", entries[0].Answer)
	assert.NotEmpty(t, entries[0].Embedding)
}

func TestQuestionService_Ask_DefaultKAndSourceSet(t *testing.T) {
	f := newQuestionFixture(t)

	answer, err := f.service.Ask(context.Background(), "cat or sql?", 0)

	require.NoError(t, err)
	assert.Len(t, answer.Chunks, 3)
	assert.ElementsMatch(t, []string{"pets.md", "db.md"}, answer.Sources)

	entries := f.history(t)
	require.Len(t, entries, 1)
	assert.Equal(t, "db.md, pets.md", entries[0].Source)
}

func TestQuestionService_Ask_ContextJoinedWithBlankLines(t *testing.T) {
	f := newQuestionFixture(t)
	prompts := &mockPromptStore{prompts: map[string]string{
		driven.PromptAnswer: "CTX[%s] Q[%s]",
	}}
	engine := NewRetrievalEngine(f.store, f.embedder, ranking.NewLinear())
	service := NewQuestionService(f.store, engine, f.embedder, f.llm, prompts,
		DefaultQuestionConfig(domain.DefaultAppSettings()))

	_, err := service.Ask(context.Background(), "cat dog", 2)

	require.NoError(t, err)
	assert.Equal(t, "CTX[The cat sleeps all day.\n\nA dog barks at night.] Q[cat dog]", f.llm.lastPrompt)
}

func TestQuestionService_Ask_GenerateOptions(t *testing.T) {
	f := newQuestionFixture(t)

	_, err := f.service.Ask(context.Background(), "cat", 1)

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultMaxTokens, f.llm.lastOpts.MaxTokens)
	assert.InDelta(t, domain.DefaultTemperature, f.llm.lastOpts.Temperature, 1e-9)
	assert.Equal(t, []string{"</s>", "User:"}, f.llm.lastOpts.StopWords)
}

func TestQuestionService_Ask_PromptLoadFailureFallsBack(t *testing.T) {
	f := newQuestionFixture(t)
	engine := NewRetrievalEngine(f.store, f.embedder, ranking.NewLinear())
	service := NewQuestionService(f.store, engine, f.embedder, f.llm,
		&mockPromptStore{loadErr: errors.New("permission denied")},
		DefaultQuestionConfig(domain.DefaultAppSettings()))

	_, err := service.Ask(context.Background(), "cat", 1)

	require.NoError(t, err)
	assert.Contains(t, f.llm.lastPrompt, "Context:\nThe cat sleeps all day.")
}

func TestQuestionService_Ask_EmptyQuestion(t *testing.T) {
	f := newQuestionFixture(t)

	_, err := f.service.Ask(context.Background(), "   ", 5)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Zero(t, f.embedder.calls)
}

func TestQuestionService_Ask_NoDocuments(t *testing.T) {
	store := memory.NewKnowledgeStore()
	embedder := &mockEmbeddingService{}
	engine := NewRetrievalEngine(store, embedder, ranking.NewLinear())
	service := NewQuestionService(store, engine, embedder, &mockLLMService{}, nil,
		DefaultQuestionConfig(domain.DefaultAppSettings()))

	_, err := service.Ask(context.Background(), "anything", 5)

	assert.ErrorIs(t, err, domain.ErrNoDocuments)
	assert.Zero(t, embedder.calls)
}

// vanishingStore reports documents but returns no chunks, as if they were
// deleted between the listing and the search.
type vanishingStore struct {
	*memory.KnowledgeStore
}

func (v vanishingStore) AllChunks(_ context.Context) ([]domain.Chunk, error) {
	return nil, nil
}

func TestQuestionService_Ask_NoRelevantChunks(t *testing.T) {
	f := newQuestionFixture(t)
	store := vanishingStore{f.store}
	engine := NewRetrievalEngine(store, f.embedder, ranking.NewLinear())
	service := NewQuestionService(store, engine, f.embedder, f.llm, nil,
		DefaultQuestionConfig(domain.DefaultAppSettings()))

	answer, err := service.Ask(context.Background(), "cat", 5)

	require.NoError(t, err)
	assert.False(t, answer.Found)
	assert.Equal(t, domain.NoRelevantChunksAnswer, answer.Answer)
	assert.Empty(t, answer.Sources)
	assert.Zero(t, f.llm.calls)
	assert.Empty(t, f.history(t))
}

func TestQuestionService_Ask_UpstreamErrors(t *testing.T) {
	t.Run("embedding", func(t *testing.T) {
		f := newQuestionFixture(t)
		f.embedder.embedErr = errors.New("timeout")

		_, err := f.service.Ask(context.Background(), "cat", 1)

		require.ErrorIs(t, err, f.embedder.embedErr)
		assert.Contains(t, err.Error(), "embed question")
		assert.Empty(t, f.history(t))
	})

	t.Run("generation", func(t *testing.T) {
		f := newQuestionFixture(t)
		f.llm.generateErr = errors.New("rate limited")

		_, err := f.service.Ask(context.Background(), "cat", 1)

		require.ErrorIs(t, err, f.llm.generateErr)
		assert.Contains(t, err.Error(), "generate answer")
		assert.Empty(t, f.history(t))
	})

	t.Run("history write", func(t *testing.T) {
		f := newQuestionFixture(t)
		storeErr := errors.New("database is locked")
		store := &failingStore{KnowledgeStore: f.store, addQAErr: storeErr}
		engine := NewRetrievalEngine(store, f.embedder, ranking.NewLinear())
		service := NewQuestionService(store, engine, f.embedder, f.llm, nil,
			DefaultQuestionConfig(domain.DefaultAppSettings()))

		_, err := service.Ask(context.Background(), "cat", 1)

		assert.ErrorIs(t, err, storeErr)
	})
}

func TestQuestionService_Ask_Unavailable(t *testing.T) {
	f := newQuestionFixture(t)
	engine := NewRetrievalEngine(f.store, nil, ranking.NewLinear())

	noEmbed := NewQuestionService(f.store, engine, nil, f.llm, nil, QuestionConfig{TopK: 5})
	_, err := noEmbed.Ask(context.Background(), "cat", 1)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)

	noLLM := NewQuestionService(f.store, engine, f.embedder, nil, nil, QuestionConfig{TopK: 5})
	_, err = noLLM.Ask(context.Background(), "cat", 1)
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	assert.Empty(t, f.history(t))
}

func TestQuestionService_Ask_CancelledDuringGenerationWritesNoHistory(t *testing.T) {
	f := newQuestionFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	f.llm.cancel = cancel

	_, err := f.service.Ask(ctx, "cat", 1)

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, f.llm.calls)
	assert.Empty(t, f.history(t))
}

func TestQuestionService_AskScoped(t *testing.T) {
	f := newQuestionFixture(t)

	answer, err := f.service.AskScoped(context.Background(), []string{"db.md"}, "cat", 5)

	require.NoError(t, err)
	assert.True(t, answer.Found)
	assert.Equal(t, []string{"db.md"}, answer.Sources)
	for _, c := range answer.Chunks {
		assert.Equal(t, "db.md", c.Chunk.Source)
	}

	entries := f.history(t)
	require.Len(t, entries, 1)
	assert.Equal(t, "db.md", entries[0].Source)
}

func TestQuestionService_AskScoped_SourceSetFromHits(t *testing.T) {
	f := newQuestionFixture(t)

	answer, err := f.service.AskScoped(context.Background(), []string{"pets.md", "db.md", "pets.md"}, "cat", 1)

	require.NoError(t, err)
	assert.Equal(t, []string{"pets.md"}, answer.Sources)
	entries := f.history(t)
	require.Len(t, entries, 1)
	assert.Equal(t, "pets.md", entries[0].Source)
}

func TestQuestionService_AskScoped_DefaultK(t *testing.T) {
	f := newQuestionFixture(t)

	answer, err := f.service.AskScoped(context.Background(), []string{"pets.md", "db.md"}, "cat", 0)

	require.NoError(t, err)
	assert.Len(t, answer.Chunks, domain.DefaultScopedTopK)
}

func TestQuestionService_AskScoped_MissingDocuments(t *testing.T) {
	f := newQuestionFixture(t)

	_, err := f.service.AskScoped(context.Background(), []string{"pets.md", "nope.md", "gone.pdf"}, "cat", 2)

	require.ErrorIs(t, err, domain.ErrNotFound)
	var missing *domain.MissingDocumentsError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"gone.pdf", "nope.md"}, missing.Names)
	assert.Zero(t, f.embedder.calls)
	assert.Empty(t, f.history(t))
}

func TestQuestionService_AskScoped_InvalidInput(t *testing.T) {
	f := newQuestionFixture(t)

	_, err := f.service.AskScoped(context.Background(), nil, "cat", 2)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.service.AskScoped(context.Background(), []string{"pets.md"}, "", 2)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDefaultQuestionConfig_FillsZeroK(t *testing.T) {
	settings := domain.DefaultAppSettings()
	settings.Retrieval.TopK = 0
	settings.Retrieval.ScopedTopK = -1

	cfg := DefaultQuestionConfig(settings)

	assert.Equal(t, domain.DefaultTopK, cfg.TopK)
	assert.Equal(t, domain.DefaultScopedTopK, cfg.ScopedTopK)
}
