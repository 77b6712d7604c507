package progress

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/sanlang/internal/learner"
	"github.com/abhisek/sanlang/internal/store"
	"github.com/abhisek/sanlang/internal/vocab"
)

var now = time.Date(2026, 6, 15, 18, 0, 0, 0, time.UTC)

func snap(day string, vocabScore, ability float64) store.SkillSnapshot {
	return store.SkillSnapshot{Day: day, Skills: store.Skills{Vocabulary: vocabScore}, AbilityEstimate: ability}
}

func TestStreak(t *testing.T) {
	tests := []struct {
		name   string
		active []string
		want   int
	}{
		{"none", nil, 0},
		{"today only", []string{"2026-06-15"}, 1},
		{"ending yesterday", []string{"2026-06-13", "2026-06-14"}, 2},
		{"gap breaks", []string{"2026-06-11", "2026-06-13", "2026-06-14", "2026-06-15"}, 3},
		{"stale", []string{"2026-06-12", "2026-06-13"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			active := map[string]bool{}
			for _, d := range tt.active {
				active[d] = true
			}
			assert.Equal(t, tt.want, Streak(active, now))
		})
	}
}

func TestAggregate(t *testing.T) {
	p := learner.NewProfile("u1", "ja", now)
	p.Skills = store.Skills{Vocabulary: 60, Grammar: 30}
	p.AbilityEstimate = 0.5
	p.AbilityConfidence = 0.3

	sum := Aggregate(nil, Inputs{
		Profile: p,
		Snapshots: []store.SkillSnapshot{
			snap("2026-06-01", 30, -0.5),
			snap("2026-06-08", 42, 0.1),
			snap("2026-06-14", 54, 0.4),
		},
		VocabCounts:        map[string]int{"new": 3, "learning": 2, "mastered": 1},
		DueCount:           4,
		WordsAddedToday:    2,
		WordsAddedThisWeek: 6,
		ActivityDays:       []string{"2026-06-15"},
	}, now)

	assert.Equal(t, 15.0, sum.SkillAverage)
	assert.Equal(t, "N4", sum.Progress.CurrentLevel)
	assert.Equal(t, 50.0, sum.Progress.ProgressPercent)
	assert.False(t, sum.Calibrating)
	assert.Equal(t, learner.VocabCoverage{Known: 1, Learning: 2, Total: 6}, sum.Vocabulary)
	assert.Equal(t, 4, sum.DueCards)
	assert.Equal(t, 2, sum.Streak)

	require.Len(t, sum.Daily, SeriesDays)
	assert.Equal(t, "2026-06-09", sum.Daily[0].Day)
	// Carried forward from the 06-08 snapshot.
	assert.Equal(t, 7.0, sum.Daily[0].SkillAverage)
	assert.Equal(t, 9.0, sum.Daily[5].SkillAverage)
	assert.True(t, sum.Daily[6].Active)
	assert.False(t, sum.Daily[0].Active)

	require.NotNil(t, sum.WeekDelta)
	assert.Equal(t, 18.0, sum.WeekDelta.Vocabulary)
	assert.Equal(t, 30.0, sum.WeekDelta.Grammar)
}

func TestAggregateWithoutHistory(t *testing.T) {
	sum := Aggregate(nil, Inputs{Profile: learner.NewProfile("u1", "fr", now)}, now)

	assert.True(t, sum.Calibrating)
	assert.Equal(t, "A1", sum.Progress.CurrentLevel)
	assert.Zero(t, sum.Streak)
	assert.Nil(t, sum.WeekDelta)
	assert.Len(t, sum.Daily, SeriesDays)
}

func TestServiceForUser(t *testing.T) {
	dsn := fmt.Sprintf("file:progress_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	s, err := store.Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	ctx := context.Background()

	ls := learner.NewService(s, nil)
	_, err = ls.RecordActivity(ctx, "u1", "ja", learner.Activity{Skills: store.Skills{Reading: 5}, Correct: true}, now.AddDate(0, 0, -1))
	require.NoError(t, err)
	_, err = ls.RecordActivity(ctx, "u1", "ja", learner.Activity{Skills: store.Skills{Reading: 5}, Correct: true}, now)
	require.NoError(t, err)

	vs := vocab.NewService(s)
	_, err = vs.Add(ctx, "u1", "ja", vocab.NewWord{Word: "猫"}, now.AddDate(0, 0, -3))
	require.NoError(t, err)
	_, err = vs.Add(ctx, "u1", "ja", vocab.NewWord{Word: "犬"}, now)
	require.NoError(t, err)

	sum, err := NewService(s, nil).ForUser(ctx, "u1", "ja", now)
	require.NoError(t, err)
	assert.Equal(t, 10.0, sum.Skills.Reading)
	assert.Equal(t, 2, sum.Streak)
	assert.Equal(t, 2, sum.DueCards)
	assert.Equal(t, 1, sum.WordsAddedToday)
	assert.Equal(t, 2, sum.WordsAddedThisWeek)
	assert.Equal(t, 2, sum.Vocabulary.Total)

	// Unknown learners get the default profile.
	fresh, err := NewService(s, nil).ForUser(ctx, "u2", "ja", now)
	require.NoError(t, err)
	assert.Equal(t, learner.InitialAbility, fresh.AbilityEstimate)
	assert.True(t, fresh.Calibrating)
}
