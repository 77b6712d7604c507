// Package recommend ranks catalog content for a learner.
//
// Recommend filters candidates to the learner's language and a level band
// around their current level, scores what is left and returns the top
// items together with a short reason.
package recommend

import (
	"hash/fnv"
	"slices"
	"strings"
	"time"

	"github.com/abhisek/sanlang/internal/config"
	"github.com/abhisek/sanlang/internal/proficiency"
)

// Item is a piece of content that can be recommended.
type Item interface {
	ContentID() string
	ContentLanguage() string
	ContentLevel() string
	ContentGenre() string
	ContentVocabulary() []string
}

// Reasons shown next to a recommendation.
const (
	ReasonGettingStarted = "Great for getting started"
	ReasonMatchesLevel   = "Matches your level"
	ReasonNewForYou      = "New for you"
	ReasonStepUp         = "A step up from your level"
	ReasonInterests      = "Based on your interests"
	ReasonReview         = "Review favorites"
)

// Profile is what the ranking needs to know about a learner.
type Profile struct {
	AbilityEstimate   float64
	AbilityConfidence float64
	Interests         []string

	// KnownWords holds words the learner has tested or mastered.
	KnownWords map[string]bool

	// Consumed holds content IDs the learner has already opened.
	Consumed map[string]bool
}

// Weights tune the score.
type Weights struct {
	LevelsBelow     int
	LevelsAbove     int
	LevelWeight     float64
	InterestWeight  float64
	CoverageWeight  float64
	ConsumedPenalty float64
}

// DefaultWeights returns the built-in weights.
func DefaultWeights() Weights {
	return WeightsFromConfig(config.Default().Recommend)
}

// WeightsFromConfig converts the recommend config section.
func WeightsFromConfig(c config.RecommendConfig) Weights {
	return Weights{
		LevelsBelow:     c.LevelsBelow,
		LevelsAbove:     c.LevelsAbove,
		LevelWeight:     c.LevelWeight,
		InterestWeight:  c.InterestWeight,
		CoverageWeight:  c.CoverageWeight,
		ConsumedPenalty: c.ConsumedPenalty,
	}
}

// Options vary a single call.
type Options struct {
	// UserID together with Now seeds a daily rotation among equally scored
	// items. Empty keeps catalog order for ties.
	UserID string
	Now    time.Time
}

// Result is a ranked shortlist. Loading is set when the profile or the
// candidate list was not available yet; an empty Items with Loading unset
// means nothing matched.
type Result[T Item] struct {
	Items   []T    `json:"items"`
	Reason  string `json:"reason"`
	Loading bool   `json:"loading"`
}

// Recommender ranks content against a proficiency model.
type Recommender struct {
	model   *proficiency.Model
	weights Weights
}

// New creates a Recommender. A nil model uses the built-in scales.
func New(model *proficiency.Model, w Weights) *Recommender {
	if model == nil {
		model = proficiency.Default()
	}
	return &Recommender{model: model, weights: w}
}

type scored[T Item] struct {
	item     T
	score    float64
	offset   int // level index minus the learner's
	interest bool
	consumed bool
	tie      uint64
	pos      int
}

// Recommend returns up to count items for the learner. A nil profile or a
// nil candidate slice yields a loading result.
func Recommend[T Item](r *Recommender, candidates []T, p *Profile, language string, count int, opts Options) Result[T] {
	if p == nil || candidates == nil {
		return Result[T]{Loading: true}
	}
	if count <= 0 {
		return Result[T]{Items: []T{}}
	}

	calibrating := r.model.IsCalibrating(p.AbilityConfidence)
	current, lo, hi := r.band(p, language, calibrating)
	day := opts.Now.UTC().Format("2006-01-02")

	var pool []scored[T]
	for i, c := range candidates {
		if !strings.EqualFold(c.ContentLanguage(), language) {
			continue
		}
		idx := r.model.LevelIndex(language, c.ContentLevel())
		if idx < 0 || idx < lo || idx > hi {
			continue
		}
		s := scored[T]{
			item:     c,
			offset:   idx - current,
			interest: matchesInterest(c.ContentGenre(), p.Interests),
			consumed: p.Consumed[c.ContentID()],
			pos:      i,
		}
		s.score = r.score(s.offset, s.interest, s.consumed, coverage(c.ContentVocabulary(), p.KnownWords))
		if opts.UserID != "" {
			s.tie = rotation(opts.UserID, day, c.ContentID())
		}
		pool = append(pool, s)
	}

	slices.SortStableFunc(pool, func(a, b scored[T]) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		case a.tie < b.tie:
			return -1
		case a.tie > b.tie:
			return 1
		}
		return a.pos - b.pos
	})

	sawConsumed := slices.ContainsFunc(pool, func(s scored[T]) bool { return s.consumed })
	if len(pool) > count {
		pool = pool[:count]
	}
	items := make([]T, len(pool))
	for i, s := range pool {
		items[i] = s.item
	}
	return Result[T]{Items: items, Reason: reason(pool, calibrating, sawConsumed)}
}

// band returns the learner's level index and the inclusive index range of
// suitable content. Calibrating learners get the two lowest levels.
func (r *Recommender) band(p *Profile, language string, calibrating bool) (current, lo, hi int) {
	if calibrating {
		return 0, 0, 1
	}
	prog := r.model.AbilityToProgress(p.AbilityEstimate, language)
	current = max(r.model.LevelIndex(language, prog.CurrentLevel), 0)
	return current, current - r.weights.LevelsBelow, current + r.weights.LevelsAbove
}

// score adds level fit, interest match and known-vocabulary coverage, and
// subtracts the consumed penalty.
func (r *Recommender) score(offset int, interest, consumed bool, cov float64) float64 {
	w := r.weights
	var fit float64
	switch {
	case offset == 0:
		fit = 1
	case offset > 0:
		fit = 0.6 / float64(offset)
	default:
		fit = 0.3 / float64(-offset)
	}
	total := w.LevelWeight*fit + w.CoverageWeight*cov
	if interest {
		total += w.InterestWeight
	}
	if consumed {
		total -= w.ConsumedPenalty
	}
	return total
}

// coverage is the share of vocab the learner already knows.
func coverage(vocab []string, known map[string]bool) float64 {
	if len(vocab) == 0 || len(known) == 0 {
		return 0
	}
	n := 0
	for _, w := range vocab {
		if known[w] {
			n++
		}
	}
	return float64(n) / float64(len(vocab))
}

func matchesInterest(genre string, interests []string) bool {
	if genre == "" {
		return false
	}
	for _, in := range interests {
		if strings.EqualFold(strings.TrimSpace(in), genre) {
			return true
		}
	}
	return false
}

func rotation(userID, day, id string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(userID))
	h.Write([]byte{0})
	h.Write([]byte(day))
	h.Write([]byte{0})
	h.Write([]byte(id))
	return h.Sum64()
}

// reason explains the shortlist by its top item. sawConsumed reports
// whether consumed items were pushed down the ranking.
func reason[T Item](pool []scored[T], calibrating, sawConsumed bool) string {
	if len(pool) == 0 {
		return ""
	}
	if calibrating {
		return ReasonGettingStarted
	}
	allConsumed := true
	for _, s := range pool {
		if !s.consumed {
			allConsumed = false
			break
		}
	}
	if allConsumed {
		return ReasonReview
	}

	top := pool[0]
	switch {
	case top.interest:
		return ReasonInterests
	case top.offset > 0:
		return ReasonStepUp
	}
	if sawConsumed {
		return ReasonNewForYou
	}
	return ReasonMatchesLevel
}
