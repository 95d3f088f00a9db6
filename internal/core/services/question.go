package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure QuestionService implements the interface.
var _ driving.QuestionService = (*QuestionService)(nil)

// fallbackAnswerPrompt is used when no PromptStore is configured or the
// configured one cannot load the answer template.
const fallbackAnswerPrompt = `Answer the question using only the context below.

Context:
%s

Question:
%s

Answer:`

// contextSeparator joins retrieved chunks into the prompt context.
const contextSeparator = "\n\n"

// DefaultStopWords end generation when the model starts a new turn.
var DefaultStopWords = []string{"</s>", "User:"}

// QuestionConfig holds the tunables of QuestionService.
type QuestionConfig struct {
	// TopK is used by Ask when the caller passes k <= 0.
	TopK int

	// ScopedTopK is used by AskScoped when the caller passes k <= 0.
	ScopedTopK int

	// Generate is passed to the LLM for every answer.
	Generate driven.GenerateOptions
}

// DefaultQuestionConfig returns the configuration derived from settings.
func DefaultQuestionConfig(settings domain.AppSettings) QuestionConfig {
	cfg := QuestionConfig{
		TopK:       settings.Retrieval.TopK,
		ScopedTopK: settings.Retrieval.ScopedTopK,
		Generate: driven.GenerateOptions{
			MaxTokens:   settings.LLM.MaxTokens,
			Temperature: settings.LLM.Temperature,
			StopWords:   append([]string(nil), DefaultStopWords...),
		},
	}
	if cfg.TopK <= 0 {
		cfg.TopK = domain.DefaultTopK
	}
	if cfg.ScopedTopK <= 0 {
		cfg.ScopedTopK = domain.DefaultScopedTopK
	}
	return cfg
}

// QuestionService answers questions from the stored documents and records
// each answer in the history.
type QuestionService struct {
	store    driven.KnowledgeStore
	engine   *RetrievalEngine
	embedder driven.EmbeddingService
	llm      driven.LLMService
	prompts  driven.PromptStore
	config   QuestionConfig
}

// NewQuestionService creates a new question service.
// The embedder, llm and prompts parameters are optional (can be nil).
func NewQuestionService(
	store driven.KnowledgeStore,
	engine *RetrievalEngine,
	embedder driven.EmbeddingService,
	llm driven.LLMService,
	prompts driven.PromptStore,
	config QuestionConfig,
) *QuestionService {
	return &QuestionService{
		store:    store,
		engine:   engine,
		embedder: embedder,
		llm:      llm,
		prompts:  prompts,
		config:   config,
	}
}

// Ask answers question from the k most similar chunks of the whole corpus.
func (s *QuestionService) Ask(ctx context.Context, question string, k int) (*domain.Answer, error) {
	logger.Section("Ask")
	logger.Debug("Question: %q", question)

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", domain.ErrInvalidInput)
	}
	if k <= 0 {
		k = s.config.TopK
	}

	docs, err := s.store.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	if len(docs) == 0 {
		return nil, domain.ErrNoDocuments
	}

	vec, err := s.embedQuestion(ctx, question)
	if err != nil {
		return nil, err
	}

	hits, err := s.engine.SearchDocuments(ctx, vec, k)
	if err != nil {
		return nil, err
	}

	return s.answer(ctx, question, vec, hits)
}

// AskScoped answers question from the k most similar chunks of the named
// documents. Every name must exist.
func (s *QuestionService) AskScoped(
	ctx context.Context, names []string, question string, k int,
) (*domain.Answer, error) {
	logger.Section("Ask (scoped)")
	logger.Debug("Documents: %v", names)
	logger.Debug("Question: %q", question)

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", domain.ErrInvalidInput)
	}
	names = domain.SplitSources(domain.JoinSources(names))
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: at least one document name is required", domain.ErrInvalidInput)
	}
	if k <= 0 {
		k = s.config.ScopedTopK
	}

	if err := s.requireDocuments(ctx, names); err != nil {
		return nil, err
	}

	vec, err := s.embedQuestion(ctx, question)
	if err != nil {
		return nil, err
	}

	hits, err := s.engine.SearchInDocuments(ctx, names, vec, k)
	if err != nil {
		return nil, err
	}

	return s.answer(ctx, question, vec, hits)
}

// requireDocuments fails with a *domain.MissingDocumentsError naming every
// missing document.
func (s *QuestionService) requireDocuments(ctx context.Context, names []string) error {
	docs, err := s.store.ListDocuments(ctx)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}
	known := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		known[d.Source] = struct{}{}
	}

	var missing []string
	for _, n := range names {
		if _, ok := known[n]; !ok {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return &domain.MissingDocumentsError{Names: missing}
	}
	return nil
}

func (s *QuestionService) embedQuestion(ctx context.Context, question string) ([]float32, error) {
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	vec, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	return vec, nil
}

// answer generates from hits and stores the result under the source-set
// of the documents the hits came from.
func (s *QuestionService) answer(
	ctx context.Context, question string, vec []float32, hits []domain.ScoredChunk,
) (*domain.Answer, error) {
	result := &domain.Answer{
		Question: question,
		Sources:  distinctSources(hits),
		Chunks:   hits,
	}

	if len(hits) == 0 {
		logger.Info("No relevant chunks found")
		result.Answer = domain.NoRelevantChunksAnswer
		return result, nil
	}
	logger.Debug("Retrieved %d chunks from %v", len(hits), result.Sources)

	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	prompt := fmt.Sprintf(s.answerTemplate(), buildContext(hits), question)

	done := logger.Timed("generate answer")
	text, err := s.llm.Generate(ctx, prompt, s.config.Generate)
	done()
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	// A cancelled request must not leave a history entry behind.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entry := &domain.QAEntry{
		Source:    domain.JoinSources(result.Sources),
		Question:  question,
		Answer:    text,
		Embedding: vec,
	}
	if err := s.store.AddQAEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("store history: %w", err)
	}

	result.Answer = text
	result.Found = true
	return result, nil
}

func (s *QuestionService) answerTemplate() string {
	if s.prompts == nil {
		return fallbackAnswerPrompt
	}
	tmpl, err := s.prompts.Load(driven.PromptAnswer)
	if err != nil {
		logger.Warn("Loading answer prompt failed, using built-in: %v", err)
		return fallbackAnswerPrompt
	}
	return tmpl
}

func buildContext(hits []domain.ScoredChunk) string {
	parts := make([]string, len(hits))
	for i, h := range hits {
		parts[i] = h.Chunk.Text
	}
	return strings.Join(parts, contextSeparator)
}

// distinctSources lists the documents of hits in rank order.
func distinctSources(hits []domain.ScoredChunk) []string {
	seen := make(map[string]struct{}, len(hits))
	out := make([]string, 0, len(hits))
	for _, h := range hits {
		if _, ok := seen[h.Chunk.Source]; ok {
			continue
		}
		seen[h.Chunk.Source] = struct{}{}
		out = append(out, h.Chunk.Source)
	}
	return out
}
