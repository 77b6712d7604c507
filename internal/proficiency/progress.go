package proficiency

import "math"

// Progress is a learner's position on a level scale.
type Progress struct {
	CurrentLevel    string  `json:"current_level"`
	NextLevel       *string `json:"next_level"`
	ProgressPercent float64 `json:"progress_percent"`
}

// AbilityToProgress interpolates linearly inside the level band containing
// ability. Below the lowest threshold it reports the lowest level at 0%; at
// or above the top threshold it reports the top level at 100% with no next
// level.
func (m *Model) AbilityToProgress(ability float64, language string) Progress {
	s := m.Scale(language)
	last := len(s.Levels) - 1

	if math.IsNaN(ability) || ability < s.Thresholds[0] {
		return Progress{CurrentLevel: s.Levels[0], NextLevel: levelPtr(s, 1), ProgressPercent: 0}
	}
	if ability >= s.Thresholds[last] {
		return Progress{CurrentLevel: s.Levels[last], ProgressPercent: 100}
	}

	i := 0
	for i < last && ability >= s.Thresholds[i+1] {
		i++
	}
	lo, hi := s.Thresholds[i], s.Thresholds[i+1]
	pct := (ability - lo) / (hi - lo) * 100
	return Progress{
		CurrentLevel:    s.Levels[i],
		NextLevel:       levelPtr(s, i+1),
		ProgressPercent: math.Round(pct*10) / 10,
	}
}

func levelPtr(s Scale, i int) *string {
	if i >= len(s.Levels) {
		return nil
	}
	l := s.Levels[i]
	return &l
}
