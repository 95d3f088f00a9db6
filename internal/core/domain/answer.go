package domain

// NoRelevantChunksAnswer is returned in place of a generated answer when
// retrieval finds nothing to ground it on.
const NoRelevantChunksAnswer = "No relevant document chunks found."

// Answer is the result of answering a question.
type Answer struct {
	// Question is the question as asked.
	Question string

	// Answer is the generated text, or NoRelevantChunksAnswer.
	Answer string

	// Sources lists the distinct documents the context was taken from.
	Sources []string

	// Chunks are the retrieved context chunks, best first.
	Chunks []ScoredChunk

	// Found is false when no chunk was retrieved. No history is written then.
	Found bool
}
