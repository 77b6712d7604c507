package decks

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/sanlang/internal/store"
	"github.com/abhisek/sanlang/internal/vocab"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	dsn := fmt.Sprintf("file:decks_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	s, err := store.Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

var day1 = time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC)

func seedDeck(t *testing.T, s *store.Store, id string, words ...string) {
	t.Helper()
	dw := make([]store.DeckWord, len(words))
	for i, w := range words {
		dw[i] = store.DeckWord{Word: w, Definitions: []string{w + " (def)"}}
	}
	d := &store.Deck{ID: id, Language: "ja", Name: "Deck " + id, Level: "N5"}
	require.NoError(t, s.Decks().Save(context.Background(), d, dw))
}

func TestSubscribeFirstActiveThenPaused(t *testing.T) {
	s := openTestStore(t)
	seedDeck(t, s, "d1", "水", "火")
	seedDeck(t, s, "d2", "山")
	svc := NewService(s, 5)
	ctx := context.Background()

	first, err := svc.Subscribe(ctx, "u1", "d1", 0, day1)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, first.Status)
	assert.Equal(t, 2, first.TotalWordsInDeck)
	assert.Equal(t, 5, first.DailyNewCards)

	second, err := svc.Subscribe(ctx, "u1", "d2", 3, day1)
	require.NoError(t, err)
	assert.Equal(t, StatusPaused, second.Status)
	assert.Equal(t, 3, second.DailyNewCards)

	_, err = svc.Subscribe(ctx, "u1", "d1", 0, day1)
	assert.ErrorIs(t, err, ErrAlreadySubscribed)

	_, err = svc.Subscribe(ctx, "u1", "missing", 0, day1)
	assert.ErrorIs(t, err, ErrDeckNotFound)

	// Another learner's first subscription is active regardless.
	other, err := svc.Subscribe(ctx, "u2", "d2", 0, day1)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, other.Status)
}

func TestSetActiveDeckSwapsActive(t *testing.T) {
	s := openTestStore(t)
	seedDeck(t, s, "d1", "水")
	seedDeck(t, s, "d2", "山")
	svc := NewService(s, 5)
	ctx := context.Background()

	_, err := svc.Subscribe(ctx, "u1", "d1", 0, day1)
	require.NoError(t, err)
	_, err = svc.Subscribe(ctx, "u1", "d2", 0, day1)
	require.NoError(t, err)

	require.NoError(t, svc.SetActiveDeck(ctx, "u1", "d2", day1))

	subs, err := svc.Subscriptions(ctx, "u1")
	require.NoError(t, err)
	status := map[string]string{}
	for _, sub := range subs {
		status[sub.DeckID] = sub.Status
	}
	assert.Equal(t, map[string]string{"d1": StatusPaused, "d2": StatusActive}, status)

	// Activating the already-active deck is a no-op.
	require.NoError(t, svc.SetActiveDeck(ctx, "u1", "d2", day1))
	assert.ErrorIs(t, svc.SetActiveDeck(ctx, "u1", "d3", day1), ErrNotSubscribed)
}

func TestSetActiveDeckRejectsCompleted(t *testing.T) {
	s := openTestStore(t)
	seedDeck(t, s, "d1", "水")
	seedDeck(t, s, "d2", "山")
	svc := NewService(s, 5)
	ctx := context.Background()

	_, err := svc.Subscribe(ctx, "u1", "d1", 0, day1)
	require.NoError(t, err)
	_, err = svc.Subscribe(ctx, "u1", "d2", 0, day1)
	require.NoError(t, err)

	res, err := svc.Drip(ctx, "u1", day1)
	require.NoError(t, err)
	require.True(t, res.Completed)

	assert.ErrorIs(t, svc.SetActiveDeck(ctx, "u1", "d1", day1), ErrDeckCompleted)
	require.NoError(t, svc.SetActiveDeck(ctx, "u1", "d2", day1))
}

func TestDripRespectsDailyLimit(t *testing.T) {
	s := openTestStore(t)
	seedDeck(t, s, "d1", "一", "二", "三", "四", "五")
	svc := NewService(s, 2)
	ctx := context.Background()

	_, err := svc.Subscribe(ctx, "u1", "d1", 0, day1)
	require.NoError(t, err)

	res, err := svc.Drip(ctx, "u1", day1)
	require.NoError(t, err)
	assert.Equal(t, []string{"一", "二"}, res.Added)
	assert.False(t, res.Completed)

	// Same day: quota already spent.
	res, err = svc.Drip(ctx, "u1", day1.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, res.Added)

	// Next day resets the quota.
	res, err = svc.Drip(ctx, "u1", day1.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, []string{"三", "四"}, res.Added)

	sub, err := s.Subscriptions().Get(ctx, "u1", "d1")
	require.NoError(t, err)
	assert.Equal(t, 4, sub.WordsAdded)
	assert.Equal(t, 2, sub.CardsAddedToday)
	assert.Equal(t, "2026-03-11", sub.LastDripDate)

	res, err = svc.Drip(ctx, "u1", day1.AddDate(0, 0, 2))
	require.NoError(t, err)
	assert.Equal(t, []string{"五"}, res.Added)
	assert.True(t, res.Completed)

	sub, err = s.Subscriptions().Get(ctx, "u1", "d1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, sub.Status)
	assert.Equal(t, 5, sub.WordsAdded)
}

func TestNewWordsToday(t *testing.T) {
	s := openTestStore(t)
	seedDeck(t, s, "d1", "一", "二", "三")
	svc := NewService(s, 2)
	ctx := context.Background()

	n, err := svc.NewWordsToday(ctx, "u1", day1)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "no subscription")

	_, err = svc.Subscribe(ctx, "u1", "d1", 0, day1)
	require.NoError(t, err)
	n, err = svc.NewWordsToday(ctx, "u1", day1)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = svc.Drip(ctx, "u1", day1)
	require.NoError(t, err)
	n, err = svc.NewWordsToday(ctx, "u1", day1)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "quota spent")

	// One word left in the deck tomorrow.
	n, err = svc.NewWordsToday(ctx, "u1", day1.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDripSkipsKnownWords(t *testing.T) {
	s := openTestStore(t)
	seedDeck(t, s, "d1", "水", "火", "山")
	svc := NewService(s, 2)
	ctx := context.Background()

	_, err := vocab.NewService(s).Add(ctx, "u1", "ja", vocab.NewWord{Word: "水"}, day1)
	require.NoError(t, err)
	_, err = svc.Subscribe(ctx, "u1", "d1", 0, day1)
	require.NoError(t, err)

	res, err := svc.Drip(ctx, "u1", day1)
	require.NoError(t, err)
	assert.Equal(t, []string{"火", "山"}, res.Added)
	assert.Equal(t, 1, res.Skipped)
	assert.True(t, res.Completed)

	items, err := s.Vocabulary().List(ctx, store.VocabFilter{UserID: "u1", SourceDeckID: "d1"})
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestDripWithoutActiveSubscription(t *testing.T) {
	svc := NewService(openTestStore(t), 2)
	res, err := svc.Drip(context.Background(), "nobody", day1)
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestUnsubscribeKeepsVocabulary(t *testing.T) {
	s := openTestStore(t)
	seedDeck(t, s, "d1", "水", "火")
	svc := NewService(s, 5)
	ctx := context.Background()

	_, err := svc.Subscribe(ctx, "u1", "d1", 0, day1)
	require.NoError(t, err)
	_, err = svc.Drip(ctx, "u1", day1)
	require.NoError(t, err)

	require.NoError(t, svc.Unsubscribe(ctx, "u1", "d1"))
	assert.ErrorIs(t, svc.Unsubscribe(ctx, "u1", "d1"), ErrNotSubscribed)

	n, err := s.Vocabulary().DueCount(ctx, "u1", "ja", day1)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestDripAllCoversEveryActiveLearner(t *testing.T) {
	s := openTestStore(t)
	seedDeck(t, s, "d1", "水", "火", "山")
	svc := NewService(s, 1)
	ctx := context.Background()

	for _, u := range []string{"u1", "u2", "u3"} {
		_, err := svc.Subscribe(ctx, u, "d1", 0, day1)
		require.NoError(t, err)
	}

	total, err := svc.DripAll(ctx, day1)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

func TestFirstReviewMarksDeckWordStudied(t *testing.T) {
	s := openTestStore(t)
	seedDeck(t, s, "d1", "水", "火")
	svc := NewService(s, 5)
	vs := vocab.NewService(s)
	vs.OnFirstReview(MarkStudied)
	ctx := context.Background()

	_, err := svc.Subscribe(ctx, "u1", "d1", 0, day1)
	require.NoError(t, err)
	_, err = svc.Drip(ctx, "u1", day1)
	require.NoError(t, err)

	items, err := s.Vocabulary().List(ctx, store.VocabFilter{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, items, 2)

	_, err = vs.Review(ctx, "u1", items[0].ID, true, day1)
	require.NoError(t, err)
	// A second review of the same word does not count again.
	_, err = vs.Review(ctx, "u1", items[0].ID, true, day1.AddDate(0, 0, 1))
	require.NoError(t, err)

	sub, err := s.Subscriptions().Get(ctx, "u1", "d1")
	require.NoError(t, err)
	assert.Equal(t, 1, sub.WordsStudied)
}
