// Package progress aggregates a learner's profile, snapshots and
// vocabulary into the figures shown on the progress dashboard.
package progress

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/abhisek/sanlang/internal/learner"
	"github.com/abhisek/sanlang/internal/proficiency"
	"github.com/abhisek/sanlang/internal/store"
)

// SeriesDays is the length of the daily series.
const SeriesDays = 7

// historyDays bounds how far back snapshots and views are read for the
// streak.
const historyDays = 90

// Inputs are the raw records Aggregate works from.
type Inputs struct {
	Profile *store.LearnerProfile

	// Snapshots are ordered oldest first.
	Snapshots          []store.SkillSnapshot
	VocabCounts        map[string]int
	DueCount           int
	WordsAddedToday    int
	WordsAddedThisWeek int

	// ActivityDays are extra days with activity, formatted like snapshot
	// days. Snapshot days always count.
	ActivityDays []string
}

// DayPoint is one entry of the daily series.
type DayPoint struct {
	Day             string  `json:"day"`
	SkillAverage    float64 `json:"skill_average"`
	AbilityEstimate float64 `json:"ability_estimate"`
	Active          bool    `json:"active"`
}

// Summary is the aggregate shown to the learner.
type Summary struct {
	Language           string                `json:"language"`
	Skills             store.Skills          `json:"skills"`
	SkillAverage       float64               `json:"skill_average"`
	AbilityEstimate    float64               `json:"ability_estimate"`
	Progress           proficiency.Progress  `json:"progress"`
	Calibrating        bool                  `json:"calibrating"`
	Readiness          string                `json:"readiness"`
	Vocabulary         learner.VocabCoverage `json:"vocabulary"`
	DueCards           int                   `json:"due_cards"`
	WordsAddedToday    int                   `json:"words_added_today"`
	WordsAddedThisWeek int                   `json:"words_added_this_week"`
	Streak             int                   `json:"streak"`
	Daily              []DayPoint            `json:"daily"`

	// WeekDelta is the skill change against the latest snapshot at least a
	// week old; nil when there is none.
	WeekDelta *store.Skills `json:"week_delta,omitempty"`
}

// Aggregate derives the summary. in.Profile must not be nil.
func Aggregate(model *proficiency.Model, in Inputs, now time.Time) Summary {
	if model == nil {
		model = proficiency.Default()
	}
	p := in.Profile
	sum := Summary{
		Language:           p.Language,
		Skills:             p.Skills,
		SkillAverage:       round1(p.Skills.Average()),
		AbilityEstimate:    p.AbilityEstimate,
		Progress:           model.AbilityToProgress(p.AbilityEstimate, p.Language),
		Calibrating:        model.IsCalibrating(p.AbilityConfidence),
		Readiness:          p.Readiness,
		Vocabulary:         learner.Coverage(in.VocabCounts),
		DueCards:           in.DueCount,
		WordsAddedToday:    in.WordsAddedToday,
		WordsAddedThisWeek: in.WordsAddedThisWeek,
	}

	active := make(map[string]bool, len(in.Snapshots)+len(in.ActivityDays))
	for _, s := range in.Snapshots {
		active[s.Day] = true
	}
	for _, d := range in.ActivityDays {
		active[d] = true
	}
	sum.Streak = Streak(active, now)
	sum.Daily = series(in.Snapshots, active, now)

	weekAgo := now.UTC().AddDate(0, 0, -7).Format(learner.DayFormat)
	for i := len(in.Snapshots) - 1; i >= 0; i-- {
		base := in.Snapshots[i]
		if base.Day > weekAgo {
			continue
		}
		d := diff(p.Skills, base.Skills)
		sum.WeekDelta = &d
		break
	}
	return sum
}

// Streak counts consecutive active days ending today, or ending yesterday
// when today has no activity yet.
func Streak(active map[string]bool, now time.Time) int {
	day := now.UTC()
	if !active[day.Format(learner.DayFormat)] {
		day = day.AddDate(0, 0, -1)
	}
	n := 0
	for active[day.Format(learner.DayFormat)] {
		n++
		day = day.AddDate(0, 0, -1)
	}
	return n
}

// series returns SeriesDays points ending today. Days without a snapshot
// carry the previous value forward.
func series(snaps []store.SkillSnapshot, active map[string]bool, now time.Time) []DayPoint {
	byDay := make(map[string]store.SkillSnapshot, len(snaps))
	for _, s := range snaps {
		byDay[s.Day] = s
	}

	start := now.UTC().AddDate(0, 0, -(SeriesDays - 1))
	startDay := start.Format(learner.DayFormat)
	var last *store.SkillSnapshot
	for i := range snaps {
		if snaps[i].Day < startDay {
			last = &snaps[i]
		}
	}

	out := make([]DayPoint, 0, SeriesDays)
	for i := range SeriesDays {
		day := start.AddDate(0, 0, i).Format(learner.DayFormat)
		if s, ok := byDay[day]; ok {
			last = &s
		}
		pt := DayPoint{Day: day, Active: active[day]}
		if last != nil {
			pt.SkillAverage = round1(last.Skills.Average())
			pt.AbilityEstimate = last.AbilityEstimate
		}
		out = append(out, pt)
	}
	return out
}

func diff(a, b store.Skills) store.Skills {
	return store.Skills{
		Vocabulary: a.Vocabulary - b.Vocabulary,
		Grammar:    a.Grammar - b.Grammar,
		Reading:    a.Reading - b.Reading,
		Listening:  a.Listening - b.Listening,
		Writing:    a.Writing - b.Writing,
		Speaking:   a.Speaking - b.Speaking,
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Service gathers Aggregate inputs from the store.
type Service struct {
	store *store.Store
	model *proficiency.Model
}

// NewService creates a progress service.
func NewService(s *store.Store, model *proficiency.Model) *Service {
	if model == nil {
		model = proficiency.Default()
	}
	return &Service{store: s, model: model}
}

// ForUser builds the learner's summary for language at now.
func (s *Service) ForUser(ctx context.Context, userID, language string, now time.Time) (*Summary, error) {
	p, err := s.store.Profiles().Get(ctx, userID, language)
	if errors.Is(err, store.ErrNotFound) {
		p = learner.NewProfile(userID, language, now)
	} else if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	utc := now.UTC()
	from := utc.AddDate(0, 0, -historyDays)
	snaps, err := s.store.SkillSnapshots().Range(ctx, userID, language,
		from.Format(learner.DayFormat), utc.Format(learner.DayFormat))
	if err != nil {
		return nil, fmt.Errorf("load snapshots: %w", err)
	}

	vocab := s.store.Vocabulary()
	counts, err := vocab.CountByState(ctx, userID, language)
	if err != nil {
		return nil, err
	}
	due, err := vocab.DueCount(ctx, userID, language, now)
	if err != nil {
		return nil, err
	}
	midnight := time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
	today, err := vocab.CountCreatedSince(ctx, userID, language, midnight)
	if err != nil {
		return nil, err
	}
	week, err := vocab.CountCreatedSince(ctx, userID, language, midnight.AddDate(0, 0, -6))
	if err != nil {
		return nil, err
	}

	views, err := s.store.Views().Since(ctx, userID, from)
	if err != nil {
		return nil, fmt.Errorf("load views: %w", err)
	}
	days := make([]string, 0, len(views))
	for _, v := range views {
		d := v.ViewedAt.UTC().Format(learner.DayFormat)
		if !slices.Contains(days, d) {
			days = append(days, d)
		}
	}

	sum := Aggregate(s.model, Inputs{
		Profile:            p,
		Snapshots:          snaps,
		VocabCounts:        counts,
		DueCount:           due,
		WordsAddedToday:    today,
		WordsAddedThisWeek: week,
		ActivityDays:       days,
	}, now)
	return &sum, nil
}
