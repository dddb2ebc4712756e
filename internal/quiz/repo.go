package quiz

import "context"

// Catalog is the read side used by sessions and the grading service.
// ListQuestions must return the same order on every call for a given generation.
type Catalog interface {
	ListQuestions(ctx context.Context, materialID string) ([]Question, error)
	GetQuestion(ctx context.Context, quizID string) (Question, error)
}

// Ledger is the append-only attempt store.
type Ledger interface {
	AppendAttempt(ctx context.Context, a Attempt) error
	ListAttempts(ctx context.Context, learnerID, materialID string) ([]AttemptView, error)
}

type Store interface {
	Catalog
	Ledger

	UpdateQuestion(ctx context.Context, q Question) error
	DeleteQuestion(ctx context.Context, quizID string) error
	// ReplaceMaterial swaps a material's question set for a new generation.
	// Positions follow slice order. Existing attempts are kept.
	ReplaceMaterial(ctx context.Context, materialID string, qs []Question) ([]Question, error)
}
