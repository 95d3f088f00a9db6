// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/docqa/internal/core/domain"
)

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewAsk is the question and answer view.
	ViewAsk
	// ViewDocuments lists stored documents.
	ViewDocuments
	// ViewHistory browses past answers.
	ViewHistory
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewAsk:
		return "ask"
	case ViewDocuments:
		return "documents"
	case ViewHistory:
		return "history"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// AnswerReceived carries the result of a question.
type AnswerReceived struct {
	Question string
	Answer   *domain.Answer
	Err      error
}

// ScopeChanged restricts the ask view to the named documents.
// An empty list asks across every document.
type ScopeChanged struct {
	Documents []string
}

// DocumentsLoaded carries the stored documents.
type DocumentsLoaded struct {
	Documents []domain.DocumentSummary
	Err       error
}

// DocumentRenamed signals a rename finished.
type DocumentRenamed struct {
	OldName string
	NewName string
	Change  *domain.SourceChange
	Err     error
}

// DocumentDeleted signals a delete finished.
type DocumentDeleted struct {
	Name   string
	Change *domain.SourceChange
	Err    error
}

// HistoryLoaded carries history entries. Scores is nil unless the entries
// came from a semantic search.
type HistoryLoaded struct {
	Query   string
	Entries []domain.QAEntry
	Scores  []float64
	Skipped int
	Err     error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
