package domain

import "fmt"

// Chunk represents a retrievable unit of a document.
// Chunks are produced by the chunker at ingestion time and are never
// edited afterwards, except for their Source on rename.
type Chunk struct {
	// ID is the store-assigned identifier. IDs increase monotonically
	// in insertion order.
	ID int64

	// Source is the document name this chunk was cut from.
	Source string

	// Text is the chunk content. Never blank.
	Text string

	// Embedding is the vector representation of Text.
	Embedding []float32
}

// ValidateChunk reports whether c can be stored and ranked later.
func ValidateChunk(c *Chunk) error {
	if c.Source == "" {
		return fmt.Errorf("%w: chunk has no source", ErrInvalidInput)
	}
	if len(c.Embedding) == 0 {
		return fmt.Errorf("%w: chunk of %q has no embedding", ErrInvalidInput, c.Source)
	}
	return nil
}

// ScoredChunk is a chunk paired with its similarity to a query.
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// DocumentSummary is one row of the document listing.
// It is derived from the chunk table, not stored.
type DocumentSummary struct {
	// Source is the document name.
	Source string

	// ChunkCount is the number of chunks stored for the document.
	ChunkCount int

	// LastChunkID is the highest chunk ID of the document.
	// Listings are ordered by this value, newest first.
	LastChunkID int64
}

// SourceChange reports how many rows a rename or delete touched.
type SourceChange struct {
	// Chunks is the number of chunk rows updated or removed.
	Chunks int64

	// History is the number of history rows updated or removed.
	History int64
}

// IngestResult describes the outcome of ingesting one document.
type IngestResult struct {
	// Document is the name the chunks were stored under.
	Document string

	// Chunks is the number of chunks persisted.
	Chunks int

	// Skipped is true when the document produced no text.
	// Nothing is persisted in that case.
	Skipped bool
}
