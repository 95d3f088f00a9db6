package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// DocumentService manages stored documents. Rename and delete keep chunks
// and history consistent.
type DocumentService interface {
	// List returns one summary per document, most recently added-to first.
	List(ctx context.Context) ([]domain.DocumentSummary, error)

	// Rename moves every chunk and history reference from oldName to newName.
	Rename(ctx context.Context, oldName, newName string) (*domain.SourceChange, error)

	// Delete removes a document's chunks and its history references.
	Delete(ctx context.Context, name string) (*domain.SourceChange, error)
}
