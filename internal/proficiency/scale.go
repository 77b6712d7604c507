// Package proficiency places a continuous ability estimate on a language's
// level scale.
package proficiency

import (
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/sanlang/internal/config"
)

// Scale is an ordered list of levels, easiest first. Thresholds[i] is the
// lowest ability that counts as Levels[i].
type Scale struct {
	Levels     []string
	Thresholds []float64
}

// Built-in scales. Thresholds are evenly spaced on the logit scale and can
// be overridden through configuration.
var (
	JLPT = Scale{
		Levels:     []string{"N5", "N4", "N3", "N2", "N1"},
		Thresholds: []float64{-1, 0, 1, 2, 3},
	}
	CEFR = Scale{
		Levels:     []string{"A1", "A2", "B1", "B2", "C1", "C2"},
		Thresholds: []float64{-1, 0, 1, 2, 3, 4},
	}
)

// DefaultCalibrationSEThreshold is the standard error above which an
// estimate is still calibrating.
const DefaultCalibrationSEThreshold = 0.5

func (s Scale) validate() error {
	if len(s.Levels) == 0 {
		return errors.New("scale has no levels")
	}
	if len(s.Levels) != len(s.Thresholds) {
		return fmt.Errorf("%d levels but %d thresholds", len(s.Levels), len(s.Thresholds))
	}
	for i := 1; i < len(s.Thresholds); i++ {
		if s.Thresholds[i] <= s.Thresholds[i-1] {
			return fmt.Errorf("threshold for %s must be above %s", s.Levels[i], s.Levels[i-1])
		}
	}
	return nil
}

// Index returns the position of level in the scale, or -1.
func (s Scale) Index(level string) int {
	for i, l := range s.Levels {
		if strings.EqualFold(l, level) {
			return i
		}
	}
	return -1
}

// Model maps abilities to levels per language.
type Model struct {
	scales      map[string]Scale
	fallback    Scale
	seThreshold float64
}

// Default returns a model with the built-in scales.
func Default() *Model {
	return &Model{
		scales:      map[string]Scale{"ja": JLPT},
		fallback:    CEFR,
		seThreshold: DefaultCalibrationSEThreshold,
	}
}

// New returns a model with configured scales layered over the defaults.
// The scale keyed "default" replaces the CEFR fallback.
func New(cfg config.ProficiencyConfig) (*Model, error) {
	m := Default()
	if cfg.CalibrationSEThreshold > 0 {
		m.seThreshold = cfg.CalibrationSEThreshold
	}
	for lang, sc := range cfg.Scales {
		s := Scale{Levels: sc.Levels, Thresholds: sc.Thresholds}
		if err := s.validate(); err != nil {
			return nil, fmt.Errorf("proficiency scale %q: %w", lang, err)
		}
		if lang == "default" {
			m.fallback = s
			continue
		}
		m.scales[normalize(lang)] = s
	}
	return m, nil
}

func normalize(language string) string {
	return strings.ToLower(strings.TrimSpace(language))
}

// Scale returns the scale used for language.
func (m *Model) Scale(language string) Scale {
	if s, ok := m.scales[normalize(language)]; ok {
		return s
	}
	return m.fallback
}

// Levels returns the level names of language's scale, easiest first.
func (m *Model) Levels(language string) []string {
	return m.Scale(language).Levels
}

// LevelIndex returns the position of level in language's scale, or -1.
func (m *Model) LevelIndex(language, level string) int {
	return m.Scale(language).Index(level)
}

// CalibrationSEThreshold returns the configured standard error gate.
func (m *Model) CalibrationSEThreshold() float64 {
	return m.seThreshold
}

// IsCalibrating reports whether confidence, a standard error, is still too
// high to show a level.
func (m *Model) IsCalibrating(confidence float64) bool {
	return confidence > m.seThreshold
}
