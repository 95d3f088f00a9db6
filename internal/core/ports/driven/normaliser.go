package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// Normaliser extracts plain text from one family of file formats.
type Normaliser interface {
	// SupportedExtensions returns the lower-cased extensions this
	// normaliser reads, including the leading dot.
	SupportedExtensions() []string

	// Normalise returns the text content of raw.
	// Documents with no text return an empty string and no error.
	Normalise(ctx context.Context, raw *domain.RawDocument) (string, error)
}

// TextExtractor selects the Normaliser for a document.
type TextExtractor interface {
	// Extract returns the text of raw, or domain.ErrUnsupportedType when
	// no normaliser handles its extension.
	Extract(ctx context.Context, raw *domain.RawDocument) (string, error)

	// ExtractFile reads path and extracts its text.
	ExtractFile(ctx context.Context, path string) (string, error)

	// Register adds a normaliser. Later registrations win for shared extensions.
	Register(normaliser Normaliser)

	// SupportedExtensions returns all extensions that can be extracted.
	SupportedExtensions() []string
}
