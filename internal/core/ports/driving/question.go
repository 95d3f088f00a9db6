package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// QuestionService answers questions from stored documents.
type QuestionService interface {
	// Ask answers from the k most similar chunks across every document.
	// Returns domain.ErrNoDocuments when nothing has been ingested.
	Ask(ctx context.Context, question string, k int) (*domain.Answer, error)

	// AskScoped answers from the k most similar chunks of the named documents.
	// Returns domain.ErrNotFound if any name is unknown.
	AskScoped(ctx context.Context, names []string, question string, k int) (*domain.Answer, error)
}
