package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// IngestService adds documents to the knowledge store.
type IngestService interface {
	// Ingest chunks text, embeds every chunk and stores them under name.
	// Text with no content is skipped without error (Result.Skipped).
	Ingest(ctx context.Context, name, text string) (*domain.IngestResult, error)

	// IngestFile extracts the text of the file at path and ingests it.
	// An empty name defaults to the file's base name.
	IngestFile(ctx context.Context, path, name string) (*domain.IngestResult, error)

	// SupportedExtensions lists the file extensions IngestFile accepts.
	SupportedExtensions() []string
}
