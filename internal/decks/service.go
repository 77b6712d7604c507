// Package decks manages premade vocabulary decks, learner subscriptions
// and the daily drip of new words from the active deck.
package decks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/sanlang/internal/logging"
	"github.com/abhisek/sanlang/internal/metrics"
	"github.com/abhisek/sanlang/internal/store"
	"github.com/abhisek/sanlang/internal/vocab"
)

// Subscription statuses.
const (
	StatusActive    = "active"
	StatusPaused    = "paused"
	StatusCompleted = "completed"
)

var (
	ErrAlreadySubscribed = errors.New("already subscribed to deck")
	ErrNotSubscribed     = errors.New("not subscribed to deck")
	ErrDeckNotFound      = errors.New("deck not found")
	ErrDeckCompleted     = errors.New("deck already completed")
)

// DayFormat is the layout of LastDripDate.
const DayFormat = "2006-01-02"

// DripResult reports one drip run.
type DripResult struct {
	DeckID    string   `json:"deck_id"`
	Added     []string `json:"added"`
	Skipped   int      `json:"skipped"`
	Completed bool     `json:"completed"`
}

// Service manages deck subscriptions.
type Service struct {
	store        *store.Store
	defaultDaily int
}

// NewService creates a deck service. defaultDaily is used when a
// subscription does not name its own daily new-card count.
func NewService(s *store.Store, defaultDaily int) *Service {
	if defaultDaily <= 0 {
		defaultDaily = 10
	}
	return &Service{store: s, defaultDaily: defaultDaily}
}

// Decks lists premade decks for language ("" for all).
func (s *Service) Decks(ctx context.Context, language string) ([]store.Deck, error) {
	return s.store.Decks().List(ctx, language)
}

// Subscriptions lists the learner's subscriptions.
func (s *Service) Subscriptions(ctx context.Context, userID string) ([]store.DeckSubscription, error) {
	return s.store.Subscriptions().ListByUser(ctx, userID)
}

// Subscribe subscribes the learner to a deck. The learner's first
// subscription becomes active; later ones start paused.
func (s *Service) Subscribe(ctx context.Context, userID, deckID string, dailyNewCards int, now time.Time) (*store.DeckSubscription, error) {
	if dailyNewCards <= 0 {
		dailyNewCards = s.defaultDaily
	}
	var sub *store.DeckSubscription
	err := s.store.Tx(ctx, func(tx *store.Store) error {
		deck, err := tx.Decks().Get(ctx, deckID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrDeckNotFound
		} else if err != nil {
			return err
		}

		existing, err := tx.Subscriptions().ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		status := StatusActive
		for _, e := range existing {
			if e.DeckID == deckID {
				return ErrAlreadySubscribed
			}
			if e.Status == StatusActive {
				status = StatusPaused
			}
		}

		sub = &store.DeckSubscription{
			ID:               uuid.NewString(),
			UserID:           userID,
			DeckID:           deckID,
			Status:           status,
			TotalWordsInDeck: deck.TotalWords,
			DailyNewCards:    dailyNewCards,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if deck.TotalWords == 0 {
			sub.Status = StatusCompleted
		}
		if err := tx.Subscriptions().Create(ctx, sub); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return ErrAlreadySubscribed
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// SetActiveDeck pauses the learner's active subscription and activates the
// subscription to deckID.
func (s *Service) SetActiveDeck(ctx context.Context, userID, deckID string, now time.Time) error {
	return s.store.Tx(ctx, func(tx *store.Store) error {
		subs, err := tx.Subscriptions().ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		var target *store.DeckSubscription
		for i := range subs {
			if subs[i].DeckID == deckID {
				target = &subs[i]
			}
		}
		if target == nil {
			return ErrNotSubscribed
		}
		if target.Status == StatusCompleted {
			return ErrDeckCompleted
		}

		for i := range subs {
			sub := &subs[i]
			if sub.Status != StatusActive || sub.DeckID == deckID {
				continue
			}
			sub.Status = StatusPaused
			sub.UpdatedAt = now
			if err := tx.Subscriptions().Update(ctx, sub); err != nil {
				return err
			}
		}
		if target.Status == StatusActive {
			return nil
		}
		target.Status = StatusActive
		target.UpdatedAt = now
		return tx.Subscriptions().Update(ctx, target)
	})
}

// Unsubscribe removes the subscription. Words already added from the deck
// stay in the learner's vocabulary.
func (s *Service) Unsubscribe(ctx context.Context, userID, deckID string) error {
	err := s.store.Subscriptions().Delete(ctx, userID, deckID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotSubscribed
	}
	return err
}

// Drip adds today's new words from the learner's active deck. It returns
// nil when the learner has no active subscription.
func (s *Service) Drip(ctx context.Context, userID string, now time.Time) (*DripResult, error) {
	var res *DripResult
	err := s.store.Tx(ctx, func(tx *store.Store) error {
		subs, err := tx.Subscriptions().ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		for i := range subs {
			if subs[i].Status == StatusActive {
				res, err = drip(ctx, tx, &subs[i], now)
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("drip for %s: %w", userID, err)
	}
	return res, nil
}

// NewWordsToday reports how many words a drip at now would still add from
// the learner's active deck, ignoring words the learner already knows.
func (s *Service) NewWordsToday(ctx context.Context, userID string, now time.Time) (int, error) {
	subs, err := s.store.Subscriptions().ListByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	for _, sub := range subs {
		if sub.Status != StatusActive {
			continue
		}
		added := sub.CardsAddedToday
		if sub.LastDripDate != now.UTC().Format(DayFormat) {
			added = 0
		}
		return max(min(sub.DailyNewCards-added, sub.TotalWordsInDeck-sub.WordsAdded), 0), nil
	}
	return 0, nil
}

func drip(ctx context.Context, tx *store.Store, sub *store.DeckSubscription, now time.Time) (*DripResult, error) {
	deck, err := tx.Decks().Get(ctx, sub.DeckID)
	if err != nil {
		return nil, fmt.Errorf("load deck %s: %w", sub.DeckID, err)
	}

	today := now.UTC().Format(DayFormat)
	if sub.LastDripDate != today {
		sub.CardsAddedToday = 0
		sub.LastDripDate = today
	}

	res := &DripResult{DeckID: sub.DeckID, Added: []string{}}
	remaining := sub.DailyNewCards - sub.CardsAddedToday
	for remaining > 0 && sub.WordsAdded < sub.TotalWordsInDeck {
		words, err := tx.Decks().Words(ctx, sub.DeckID, sub.WordsAdded, remaining)
		if err != nil {
			return nil, err
		}
		if len(words) == 0 {
			// The deck shrank since subscribing.
			sub.TotalWordsInDeck = sub.WordsAdded
			break
		}
		for _, w := range words {
			_, err := vocab.AddTx(ctx, tx, sub.UserID, deck.Language, vocab.NewWord{
				Word:         w.Word,
				Reading:      w.Reading,
				Definitions:  w.Definitions,
				SourceDeckID: sub.DeckID,
			}, now)
			switch {
			case errors.Is(err, vocab.ErrDuplicate):
				res.Skipped++
			case err != nil:
				return nil, fmt.Errorf("add %q: %w", w.Word, err)
			default:
				res.Added = append(res.Added, w.Word)
				sub.CardsAddedToday++
				remaining--
			}
			sub.WordsAdded = w.Position + 1
			if remaining == 0 {
				break
			}
		}
	}

	if sub.WordsAdded >= sub.TotalWordsInDeck {
		sub.Status = StatusCompleted
		res.Completed = true
	}
	sub.UpdatedAt = now
	if err := tx.Subscriptions().Update(ctx, sub); err != nil {
		return nil, err
	}
	return res, nil
}

// DripAll runs the drip for every active subscription. Failures are
// logged per learner and counted; the run continues.
func (s *Service) DripAll(ctx context.Context, now time.Time) (int, error) {
	subs, err := s.store.Subscriptions().ListByStatus(ctx, StatusActive)
	if err != nil {
		return 0, fmt.Errorf("list active subscriptions: %w", err)
	}

	total := 0
	seen := make(map[string]bool, len(subs))
	for _, sub := range subs {
		if seen[sub.UserID] {
			continue
		}
		seen[sub.UserID] = true
		if err := ctx.Err(); err != nil {
			return total, err
		}

		res, err := s.Drip(ctx, sub.UserID, now)
		if err != nil {
			metrics.RecordDrip(0, false, err)
			logging.Error().Err(err).Str("user_id", sub.UserID).Str("deck_id", sub.DeckID).Msg("drip failed")
			continue
		}
		if res == nil {
			continue
		}
		metrics.RecordDrip(len(res.Added), res.Completed, nil)
		total += len(res.Added)
	}
	logging.Info().Int("learners", len(seen)).Int("words_added", total).Msg("daily drip finished")
	return total, nil
}

// MarkStudied counts the first review of a word that came from a deck. It
// is registered as the vocabulary first-review hook.
func MarkStudied(ctx context.Context, tx *store.Store, item store.VocabularyItem) error {
	if item.SourceDeckID == "" {
		return nil
	}
	sub, err := tx.Subscriptions().Get(ctx, item.UserID, item.SourceDeckID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	} else if err != nil {
		return err
	}
	if sub.WordsStudied >= sub.WordsAdded {
		return nil
	}
	sub.WordsStudied++
	sub.UpdatedAt = item.UpdatedAt
	return tx.Subscriptions().Update(ctx, sub)
}
