package httpapi

import (
	"context"
	"os"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	result   *domain.IngestResult
	err      error
	lastPath string
	lastName string
	lastData string
}

func (m *mockIngestService) Ingest(_ context.Context, name, _ string) (*domain.IngestResult, error) {
	m.lastName = name
	if m.err != nil {
		return nil, m.err
	}
	return &domain.IngestResult{Document: name, Chunks: 1}, nil
}

func (m *mockIngestService) IngestFile(_ context.Context, path, name string) (*domain.IngestResult, error) {
	m.lastPath = path
	m.lastName = name
	if data, err := os.ReadFile(path); err == nil {
		m.lastData = string(data)
	}
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}
	return &domain.IngestResult{Document: name, Chunks: 3}, nil
}

func (m *mockIngestService) SupportedExtensions() []string {
	return []string{".txt", ".md"}
}

// mockQuestionService is a mock implementation of driving.QuestionService.
type mockQuestionService struct {
	answer       *domain.Answer
	err          error
	lastQuestion string
	lastNames    []string
	lastK        int
}

func (m *mockQuestionService) Ask(_ context.Context, question string, k int) (*domain.Answer, error) {
	m.lastQuestion = question
	m.lastK = k
	return m.result(question)
}

func (m *mockQuestionService) AskScoped(
	_ context.Context, names []string, question string, k int,
) (*domain.Answer, error) {
	m.lastQuestion = question
	m.lastNames = names
	m.lastK = k
	return m.result(question)
}

func (m *mockQuestionService) result(question string) (*domain.Answer, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.answer != nil {
		return m.answer, nil
	}
	return &domain.Answer{Question: question, Answer: domain.NoRelevantChunksAnswer}, nil
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents  []domain.DocumentSummary
	change     domain.SourceChange
	err        error
	lastOld    string
	lastNew    string
	lastDelete string
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.DocumentSummary, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) Rename(_ context.Context, oldName, newName string) (*domain.SourceChange, error) {
	m.lastOld, m.lastNew = oldName, newName
	if m.err != nil {
		return nil, m.err
	}
	return &m.change, nil
}

func (m *mockDocumentService) Delete(_ context.Context, name string) (*domain.SourceChange, error) {
	m.lastDelete = name
	if m.err != nil {
		return nil, m.err
	}
	return &m.change, nil
}

// mockHistoryService is a mock implementation of driving.HistoryService.
type mockHistoryService struct {
	entries    []domain.QAEntry
	scored     *domain.HistorySearchResult
	err        error
	lastSource string
	lastQuery  string
	lastK      int
}

func (m *mockHistoryService) List(_ context.Context, source string) ([]domain.QAEntry, error) {
	m.lastSource = source
	return m.entries, m.err
}

func (m *mockHistoryService) SearchKeyword(_ context.Context, keyword string) ([]domain.QAEntry, error) {
	m.lastQuery = keyword
	return m.entries, m.err
}

func (m *mockHistoryService) SearchSemantic(_ context.Context, query string, k int) (*domain.HistorySearchResult, error) {
	m.lastQuery = query
	m.lastK = k
	if m.err != nil {
		return nil, m.err
	}
	if m.scored == nil {
		return &domain.HistorySearchResult{}, nil
	}
	return m.scored, nil
}
