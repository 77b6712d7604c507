// Package vocab manages a learner's personal vocabulary and its review
// schedule.
package vocab

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/sanlang/internal/logging"
	"github.com/abhisek/sanlang/internal/mastery"
	"github.com/abhisek/sanlang/internal/spacedrep"
	"github.com/abhisek/sanlang/internal/store"
)

// ErrDuplicate is returned when the learner already has the word.
var ErrDuplicate = store.ErrDuplicate

// ErrEmptyWord is returned when adding a blank word.
var ErrEmptyWord = errors.New("word is required")

// NewWord describes a word to add.
type NewWord struct {
	Word         string   `json:"word" validate:"required"`
	Reading      string   `json:"reading"`
	Definitions  []string `json:"definitions"`
	SourceDeckID string   `json:"source_deck_id,omitempty"`
}

// ReviewResult is the outcome of a review.
type ReviewResult struct {
	Item       *store.VocabularyItem    `json:"item"`
	Transition *mastery.StateTransition `json:"transition,omitempty"`
}

// Service manages vocabulary items.
type Service struct {
	store         *store.Store
	onFirstReview FirstReviewHook
}

// NewService creates a vocabulary service.
func NewService(s *store.Store) *Service {
	return &Service{store: s}
}

// FirstReviewHook runs inside the review transaction; tx must be used for
// any store access.
type FirstReviewHook func(ctx context.Context, tx *store.Store, item store.VocabularyItem) error

// OnFirstReview registers fn to run the first time an item is reviewed.
func (s *Service) OnFirstReview(fn FirstReviewHook) {
	s.onFirstReview = fn
}

// Add creates a vocabulary item. Adding a word the learner already has
// returns ErrDuplicate.
func (s *Service) Add(ctx context.Context, userID, language string, w NewWord, now time.Time) (*store.VocabularyItem, error) {
	return add(ctx, s.store, userID, language, w, now)
}

// AddTx is Add inside an existing transaction.
func AddTx(ctx context.Context, tx *store.Store, userID, language string, w NewWord, now time.Time) (*store.VocabularyItem, error) {
	return add(ctx, tx, userID, language, w, now)
}

func add(ctx context.Context, st *store.Store, userID, language string, w NewWord, now time.Time) (*store.VocabularyItem, error) {
	word := strings.TrimSpace(w.Word)
	if word == "" {
		return nil, ErrEmptyWord
	}
	defs := w.Definitions
	if defs == nil {
		defs = []string{}
	}
	rs := spacedrep.NewReviewState(now)
	item := &store.VocabularyItem{
		ID:           uuid.NewString(),
		UserID:       userID,
		Language:     language,
		Word:         word,
		Reading:      w.Reading,
		Definitions:  defs,
		MasteryState: string(mastery.StateNew),
		SourceDeckID: w.SourceDeckID,
		NextReviewAt: rs.NextReviewDate,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := st.Vocabulary().Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// List returns the learner's vocabulary.
func (s *Service) List(ctx context.Context, f store.VocabFilter) ([]store.VocabularyItem, error) {
	if f.MasteryState != "" && !mastery.MasteryState(f.MasteryState).Valid() {
		return nil, fmt.Errorf("unknown mastery state %q", f.MasteryState)
	}
	return s.store.Vocabulary().List(ctx, f)
}

// Due returns items due at now, most overdue first. Items due at the same
// moment, such as a freshly imported deck, come out in word order.
func (s *Service) Due(ctx context.Context, userID, language string, now time.Time, limit int) ([]store.VocabularyItem, error) {
	items, err := s.store.Vocabulary().Due(ctx, userID, language, now, limit)
	if err != nil {
		return nil, err
	}
	spacedrep.SortByOverdue(items,
		func(it store.VocabularyItem) *spacedrep.ReviewState { return ReviewState(&it) },
		func(it store.VocabularyItem) string { return it.Word },
		now)
	return items, nil
}

// Scheduled is an item together with its review outlook at a point in
// time.
type Scheduled struct {
	store.VocabularyItem
	ReviewStatus spacedrep.ReviewStatus `json:"review_status"`
	DueInDays    int                    `json:"due_in_days"`
	OverdueDays  float64                `json:"overdue_days,omitempty"`
}

// Annotate attaches the review outlook at now to each item.
func Annotate(items []store.VocabularyItem, now time.Time) []Scheduled {
	out := make([]Scheduled, len(items))
	for i := range items {
		rs := ReviewState(&items[i])
		out[i] = Scheduled{
			VocabularyItem: items[i],
			ReviewStatus:   rs.Status(now),
			DueInDays:      rs.DueInDays(now),
			OverdueDays:    math.Round(rs.OverdueDays(now)*10) / 10,
		}
	}
	return out
}

// DueCount returns the number of items due at now.
func (s *Service) DueCount(ctx context.Context, userID, language string, now time.Time) (int, error) {
	return s.store.Vocabulary().DueCount(ctx, userID, language, now)
}

// CountByState returns item counts keyed by mastery state.
func (s *Service) CountByState(ctx context.Context, userID, language string) (map[string]int, error) {
	return s.store.Vocabulary().CountByState(ctx, userID, language)
}

// ReviewState returns the scheduling state stored on item.
func ReviewState(item *store.VocabularyItem) *spacedrep.ReviewState {
	return &spacedrep.ReviewState{
		Stage:           item.Stage,
		NextReviewDate:  item.NextReviewAt,
		ConsecutiveHits: item.ConsecutiveHits,
		Graduated:       mastery.MasteryState(item.MasteryState) == mastery.StateMastered,
		LastReviewDate:  item.LastReviewedAt,
	}
}

// Review records a review of the learner's item and reschedules it.
// Items of other learners are reported as store.ErrNotFound.
func (s *Service) Review(ctx context.Context, userID, itemID string, correct bool, now time.Time) (*ReviewResult, error) {
	var res *ReviewResult
	err := s.store.Tx(ctx, func(tx *store.Store) error {
		item, err := tx.Vocabulary().Get(ctx, itemID)
		if err != nil {
			return err
		}
		if item.UserID != userID {
			return store.ErrNotFound
		}
		first := item.ReviewCount == 0

		rs := ReviewState(item)
		rs.Record(correct, now)
		from := mastery.MasteryState(item.MasteryState)
		tr := mastery.Apply(item.ID, item.Word, from, rs, correct)

		item.Stage = rs.Stage
		item.ConsecutiveHits = rs.ConsecutiveHits
		item.NextReviewAt = rs.NextReviewDate
		item.LastReviewedAt = rs.LastReviewDate
		item.ReviewCount++
		item.MasteryState = string(mastery.Next(from, rs, correct))
		item.UpdatedAt = now
		if err := tx.Vocabulary().Update(ctx, item); err != nil {
			return err
		}

		if first && s.onFirstReview != nil {
			if err := s.onFirstReview(ctx, tx, *item); err != nil {
				return err
			}
		}
		res = &ReviewResult{Item: item, Transition: tr}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("review %s: %w", itemID, err)
	}

	if res.Transition != nil {
		logging.Ctx(ctx).Info().
			Str("word", res.Transition.Word).
			Str("from", string(res.Transition.From)).
			Str("to", string(res.Transition.To)).
			Str("trigger", res.Transition.Trigger).
			Msg("mastery transition")
	}
	return res, nil
}
