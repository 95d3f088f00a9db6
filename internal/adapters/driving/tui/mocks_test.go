package tui

import (
	"context"
	"sync"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// mockQuestionService implements driving.QuestionService for testing.
type mockQuestionService struct {
	mu        sync.Mutex
	answer    string
	err       error
	lastCtx   context.Context
	lastNames []string
	scoped    bool
}

func (m *mockQuestionService) Ask(ctx context.Context, question string, _ int) (*domain.Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastCtx = ctx
	m.scoped = false
	return m.result(question)
}

func (m *mockQuestionService) AskScoped(
	ctx context.Context, names []string, question string, _ int,
) (*domain.Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastCtx = ctx
	m.lastNames = names
	m.scoped = true
	return m.result(question)
}

func (m *mockQuestionService) result(question string) (*domain.Answer, error) {
	if m.err != nil {
		return nil, m.err
	}
	text := m.answer
	if text == "" {
		text = "an answer"
	}
	return &domain.Answer{
		Question: question,
		Answer:   text,
		Sources:  []string{"notes.md"},
		Found:    true,
	}, nil
}

// mockDocumentService implements driving.DocumentService for testing.
type mockDocumentService struct {
	documents []domain.DocumentSummary
	err       error
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.DocumentSummary, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) Rename(_ context.Context, _, _ string) (*domain.SourceChange, error) {
	return &domain.SourceChange{}, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, _ string) (*domain.SourceChange, error) {
	return &domain.SourceChange{}, m.err
}

// mockHistoryService implements driving.HistoryService for testing.
type mockHistoryService struct {
	entries []domain.QAEntry
	err     error
}

func (m *mockHistoryService) List(_ context.Context, _ string) ([]domain.QAEntry, error) {
	return m.entries, m.err
}

func (m *mockHistoryService) SearchKeyword(_ context.Context, _ string) ([]domain.QAEntry, error) {
	return m.entries, m.err
}

func (m *mockHistoryService) SearchSemantic(_ context.Context, _ string, _ int) (*domain.HistorySearchResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.HistorySearchResult{}, nil
}
