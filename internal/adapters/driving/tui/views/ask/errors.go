package ask

import "errors"

// Error definitions for the ask view.
var (
	// ErrNoQuestionService indicates that no question service was provided.
	ErrNoQuestionService = errors.New("question service is required")
)
