// Package learner maintains per-language learner profiles: skill scores,
// the ability estimate and its standard error, and daily skill snapshots.
package learner

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/abhisek/sanlang/internal/logging"
	"github.com/abhisek/sanlang/internal/mastery"
	"github.com/abhisek/sanlang/internal/proficiency"
	"github.com/abhisek/sanlang/internal/store"
)

// Defaults for a profile created on first practice.
const (
	InitialAbility    = -0.5
	InitialConfidence = 1.0
)

// Ability update tuning. The K factor scales with the current standard
// error so early answers move the estimate more.
const (
	kScale          = 0.4
	kMin            = 0.05
	confidenceDecay = 0.95
	confidenceFloor = 0.2
)

// DayFormat is the layout of snapshot days.
const DayFormat = "2006-01-02"

// Activity is one graded practice result.
type Activity struct {
	// Skills are added to the profile's scores, which stay within 0..100.
	Skills store.Skills `json:"skills"`

	// Difficulty is the item difficulty on the ability scale.
	Difficulty float64 `json:"difficulty"`
	Correct    bool    `json:"correct"`
}

// VocabCoverage counts the learner's vocabulary by progress.
type VocabCoverage struct {
	Known    int `json:"known"`
	Learning int `json:"learning"`
	Total    int `json:"total"`
}

// Profile is a learner profile with derived fields.
type Profile struct {
	store.LearnerProfile
	VocabCoverage VocabCoverage `json:"vocab_coverage"`
	Calibrating   bool          `json:"calibrating"`
}

// Service reads and updates learner profiles.
type Service struct {
	store *store.Store
	model *proficiency.Model
}

// NewService creates a learner service.
func NewService(s *store.Store, model *proficiency.Model) *Service {
	if model == nil {
		model = proficiency.Default()
	}
	return &Service{store: s, model: model}
}

// NewProfile returns the profile of a learner who has not practiced yet.
func NewProfile(userID, language string, now time.Time) *store.LearnerProfile {
	return &store.LearnerProfile{
		UserID:            userID,
		Language:          language,
		AbilityEstimate:   InitialAbility,
		AbilityConfidence: InitialConfidence,
		Readiness:         string(proficiency.NotReady),
		Interests:         []string{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func (s *Service) load(ctx context.Context, st *store.Store, userID, language string, now time.Time) (*store.LearnerProfile, error) {
	p, err := st.Profiles().Get(ctx, userID, language)
	if errors.Is(err, store.ErrNotFound) {
		return NewProfile(userID, language, now), nil
	}
	return p, err
}

// Get returns the learner's profile, or an unsaved default profile when
// the learner has not practiced the language yet.
func (s *Service) Get(ctx context.Context, userID, language string) (*Profile, error) {
	p, err := s.load(ctx, s.store, userID, language, time.Now())
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	counts, err := s.store.Vocabulary().CountByState(ctx, userID, language)
	if err != nil {
		return nil, err
	}
	return &Profile{
		LearnerProfile: *p,
		VocabCoverage:  Coverage(counts),
		Calibrating:    s.model.IsCalibrating(p.AbilityConfidence),
	}, nil
}

// Coverage summarizes vocabulary counts keyed by mastery state.
func Coverage(counts map[string]int) VocabCoverage {
	var c VocabCoverage
	for state, n := range counts {
		c.Total += n
		switch st := mastery.MasteryState(state); {
		case st.Known():
			c.Known += n
		case st == mastery.StateLearning:
			c.Learning += n
		}
	}
	return c
}

// RecordActivity applies a graded result, saves the profile and refreshes
// today's skill snapshot. The profile is created on the first call.
func (s *Service) RecordActivity(ctx context.Context, userID, language string, a Activity, now time.Time) (*store.LearnerProfile, error) {
	var out *store.LearnerProfile
	err := s.store.Tx(ctx, func(tx *store.Store) error {
		p, err := s.load(ctx, tx, userID, language, now)
		if err != nil {
			return err
		}

		p.Skills = addSkills(p.Skills, a.Skills)
		p.AbilityEstimate, p.AbilityConfidence = UpdateAbility(p.AbilityEstimate, p.AbilityConfidence, a.Difficulty, a.Correct)
		p.Activities++
		p.Readiness = string(s.readiness(p))
		p.UpdatedAt = now

		if err := tx.Profiles().Upsert(ctx, p); err != nil {
			return err
		}
		if err := tx.SkillSnapshots().Upsert(ctx, store.SkillSnapshot{
			UserID:          userID,
			Language:        language,
			Day:             now.UTC().Format(DayFormat),
			Skills:          p.Skills,
			AbilityEstimate: p.AbilityEstimate,
		}); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("record activity: %w", err)
	}

	logging.Ctx(ctx).Debug().
		Str("language", language).
		Float64("ability", out.AbilityEstimate).
		Float64("se", out.AbilityConfidence).
		Bool("correct", a.Correct).
		Msg("activity recorded")
	return out, nil
}

// SetInterests replaces the learner's interest tags.
func (s *Service) SetInterests(ctx context.Context, userID, language string, interests []string, now time.Time) error {
	return s.store.Tx(ctx, func(tx *store.Store) error {
		p, err := s.load(ctx, tx, userID, language, now)
		if err != nil {
			return err
		}
		p.Interests = interests
		p.UpdatedAt = now
		return tx.Profiles().Upsert(ctx, p)
	})
}

// readiness classifies against the next level, or the top level once
// reached.
func (s *Service) readiness(p *store.LearnerProfile) proficiency.Readiness {
	prog := s.model.AbilityToProgress(p.AbilityEstimate, p.Language)
	target := prog.CurrentLevel
	if prog.NextLevel != nil {
		target = *prog.NextLevel
	}
	return s.model.ClassifyReadiness(p.AbilityEstimate, p.AbilityConfidence, p.Language, target)
}

// UpdateAbility applies an Elo-style update against an item of the given
// difficulty and shrinks the standard error towards its floor.
func UpdateAbility(ability, se, difficulty float64, correct bool) (float64, float64) {
	expected := 1 / (1 + math.Exp(-(ability - difficulty)))
	outcome := 0.0
	if correct {
		outcome = 1
	}
	k := max(kScale*se, kMin)
	ability += k * (outcome - expected)
	se = max(se*confidenceDecay, confidenceFloor)
	return ability, se
}

func addSkills(s, d store.Skills) store.Skills {
	return store.Skills{
		Vocabulary: clamp(s.Vocabulary + d.Vocabulary),
		Grammar:    clamp(s.Grammar + d.Grammar),
		Reading:    clamp(s.Reading + d.Reading),
		Listening:  clamp(s.Listening + d.Listening),
		Writing:    clamp(s.Writing + d.Writing),
		Speaking:   clamp(s.Speaking + d.Speaking),
	}
}

func clamp(v float64) float64 {
	return min(max(v, 0), 100)
}
