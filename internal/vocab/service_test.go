package vocab

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/sanlang/internal/mastery"
	"github.com/abhisek/sanlang/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	dsn := fmt.Sprintf("file:vocab_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	s, err := store.Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

var now = time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

func TestAddIsIdempotentPerWord(t *testing.T) {
	svc := NewService(openTestStore(t))
	ctx := context.Background()

	item, err := svc.Add(ctx, "u1", "ja", NewWord{Word: " 食べる ", Reading: "たべる", Definitions: []string{"to eat"}}, now)
	require.NoError(t, err)
	assert.Equal(t, "食べる", item.Word)
	assert.Equal(t, string(mastery.StateNew), item.MasteryState)

	_, err = svc.Add(ctx, "u1", "ja", NewWord{Word: "食べる"}, now)
	assert.True(t, errors.Is(err, ErrDuplicate))

	// Another learner or language is independent.
	_, err = svc.Add(ctx, "u2", "ja", NewWord{Word: "食べる"}, now)
	require.NoError(t, err)
	_, err = svc.Add(ctx, "u1", "zh", NewWord{Word: "食べる"}, now)
	require.NoError(t, err)

	_, err = svc.Add(ctx, "u1", "ja", NewWord{Word: "  "}, now)
	assert.ErrorIs(t, err, ErrEmptyWord)
}

func TestNewWordsAreDue(t *testing.T) {
	svc := NewService(openTestStore(t))
	ctx := context.Background()

	_, err := svc.Add(ctx, "u1", "ja", NewWord{Word: "水"}, now)
	require.NoError(t, err)

	n, err := svc.DueCount(ctx, "u1", "ja", now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestReviewSchedulesAndTransitions(t *testing.T) {
	svc := NewService(openTestStore(t))
	ctx := context.Background()

	var hooked []string
	svc.OnFirstReview(func(_ context.Context, _ *store.Store, item store.VocabularyItem) error {
		hooked = append(hooked, item.ID)
		return nil
	})

	item, err := svc.Add(ctx, "u1", "ja", NewWord{Word: "猫", SourceDeckID: "d1"}, now)
	require.NoError(t, err)

	res, err := svc.Review(ctx, "u1", item.ID, true, now)
	require.NoError(t, err)
	require.NotNil(t, res.Transition)
	assert.Equal(t, mastery.StateLearning, res.Transition.To)
	assert.Equal(t, now.AddDate(0, 0, 1), res.Item.NextReviewAt)
	assert.Equal(t, 1, res.Item.ReviewCount)

	n, err := svc.DueCount(ctx, "u1", "ja", now)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "reviewed item is no longer due")

	// Walk to graduation.
	at := res.Item.NextReviewAt
	var last *ReviewResult
	for i := 0; i < 5; i++ {
		last, err = svc.Review(ctx, "u1", item.ID, true, at)
		require.NoError(t, err)
		at = last.Item.NextReviewAt
	}
	assert.Equal(t, string(mastery.StateMastered), last.Item.MasteryState)

	// A miss demotes a mastered word.
	res, err = svc.Review(ctx, "u1", item.ID, false, at)
	require.NoError(t, err)
	assert.Equal(t, string(mastery.StateLearning), res.Item.MasteryState)
	assert.Equal(t, 0, res.Item.Stage)

	assert.Equal(t, []string{item.ID}, hooked, "hook runs only on the first review")
}

func TestReviewRejectsOtherLearners(t *testing.T) {
	svc := NewService(openTestStore(t))
	ctx := context.Background()

	item, err := svc.Add(ctx, "u1", "ja", NewWord{Word: "犬"}, now)
	require.NoError(t, err)

	_, err = svc.Review(ctx, "u2", item.ID, true, now)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListRejectsUnknownState(t *testing.T) {
	svc := NewService(openTestStore(t))
	_, err := svc.List(context.Background(), store.VocabFilter{UserID: "u1", MasteryState: "rusty"})
	assert.Error(t, err)
}

func TestDueOrdersByOverdueThenWord(t *testing.T) {
	svc := NewService(openTestStore(t))
	ctx := context.Background()

	for _, w := range []string{"水", "火", "木"} {
		_, err := svc.Add(ctx, "u1", "ja", NewWord{Word: w}, now)
		require.NoError(t, err)
	}
	_, err := svc.Add(ctx, "u1", "ja", NewWord{Word: "金"}, now.Add(-72*time.Hour))
	require.NoError(t, err)

	due, err := svc.Due(ctx, "u1", "ja", now, 10)
	require.NoError(t, err)
	var words []string
	for _, it := range due {
		words = append(words, it.Word)
	}
	assert.Equal(t, []string{"金", "木", "水", "火"}, words)
}

func TestAnnotate(t *testing.T) {
	next := now.Add(36 * time.Hour)
	items := []store.VocabularyItem{
		{Word: "水", MasteryState: string(mastery.StateLearning), Stage: 2, NextReviewAt: next},
		{Word: "火", MasteryState: string(mastery.StateLearning), Stage: 0, NextReviewAt: now.Add(-48 * time.Hour)},
		{Word: "木", MasteryState: string(mastery.StateMastered), Stage: 6, NextReviewAt: now.Add(40 * 24 * time.Hour)},
	}
	got := Annotate(items, now)
	require.Len(t, got, 3)

	assert.Equal(t, "scheduled", string(got[0].ReviewStatus))
	assert.Equal(t, 2, got[0].DueInDays)

	assert.Equal(t, "overdue", string(got[1].ReviewStatus))
	assert.Equal(t, 2.0, got[1].OverdueDays)

	assert.Equal(t, "graduated", string(got[2].ReviewStatus))
	assert.Equal(t, "木", got[2].Word)
}
