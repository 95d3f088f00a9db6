// Package tui provides an interactive terminal user interface for docqa.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ports aggregates the driving ports the TUI uses.
type Ports struct {
	// Question answers questions. Required.
	Question driving.QuestionService

	// Document lists, renames and deletes documents.
	Document driving.DocumentService

	// History browses past answers.
	History driving.HistoryService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Question == nil {
		return ErrMissingQuestionService
	}
	return nil
}
