package session

import (
	"context"

	sess "github.com/abhisek/sanlang/internal/session"
	"github.com/abhisek/sanlang/internal/store"
)

// Study is the backend a study session runs against.
type Study interface {
	PlanInputs(ctx context.Context) (sess.Inputs, error)
	DripNewWords(ctx context.Context) (int, error)
	DueCards(ctx context.Context, limit int) ([]store.VocabularyItem, error)
	Review(ctx context.Context, itemID string, correct bool) error
	Questions(ctx context.Context, contentType, contentID string) ([]store.Question, error)
	AnswerQuestion(ctx context.Context, correct bool) error
	MarkConsumed(ctx context.Context, contentType, contentID string) error
	Finish(ctx context.Context, r sess.Results, correctReviews int) (sess.StreakInfo, error)
}
