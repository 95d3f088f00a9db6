package driven

// Chunker splits document text into the fragments that get embedded.
type Chunker interface {
	// Split returns the non-blank chunks of text in document order.
	// Blank text yields no chunks.
	Split(text string) []string
}
