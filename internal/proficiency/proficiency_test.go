package proficiency

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/sanlang/internal/config"
)

func TestAbilityToProgress(t *testing.T) {
	m := Default()

	tests := []struct {
		name    string
		ability float64
		lang    string
		level   string
		next    string
		pct     float64
	}{
		{"below lowest clamps", -4, "ja", "N5", "N4", 0},
		{"initial estimate", -0.5, "ja", "N5", "N4", 50},
		{"on a boundary", 1, "ja", "N3", "N2", 0},
		{"inside band", 1.25, "ja", "N3", "N2", 25},
		{"cefr fallback", 0.5, "es", "A2", "B1", 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := m.AbilityToProgress(tt.ability, tt.lang)
			assert.Equal(t, tt.level, p.CurrentLevel)
			require.NotNil(t, p.NextLevel)
			assert.Equal(t, tt.next, *p.NextLevel)
			assert.InDelta(t, tt.pct, p.ProgressPercent, 0.01)
		})
	}
}

func TestAbilityToProgressTop(t *testing.T) {
	m := Default()
	for _, a := range []float64{3, 3.5, 100} {
		p := m.AbilityToProgress(a, "ja")
		assert.Equal(t, "N1", p.CurrentLevel)
		assert.Nil(t, p.NextLevel)
		assert.Equal(t, 100.0, p.ProgressPercent)
	}
}

func TestAbilityToProgressMonotonicAndIdempotent(t *testing.T) {
	m := Default()
	s := m.Scale("ja")

	prevIdx, prevPct := -1, -1.0
	for a := -3.0; a <= 5.0; a += 0.05 {
		p := m.AbilityToProgress(a, "ja")
		assert.Equal(t, p, m.AbilityToProgress(a, "ja"))

		idx := s.Index(p.CurrentLevel)
		if idx < prevIdx || (idx == prevIdx && p.ProgressPercent < prevPct) {
			t.Fatalf("ability %.2f went backwards: %s %.1f after index %d %.1f", a, p.CurrentLevel, p.ProgressPercent, prevIdx, prevPct)
		}
		prevIdx, prevPct = idx, p.ProgressPercent
	}
}

func TestIsCalibrating(t *testing.T) {
	m := Default()
	assert.True(t, m.IsCalibrating(1.0))
	assert.False(t, m.IsCalibrating(0.5))
	assert.False(t, m.IsCalibrating(0.2))
}

func TestClassifyReadiness(t *testing.T) {
	m := Default()
	tests := []struct {
		ability, se float64
		target      string
		want        Readiness
	}{
		{1.5, 0.3, "N3", Confident},
		{1.1, 0.3, "N3", Ready},
		{0.8, 0.3, "N3", AlmostReady},
		{0.0, 0.3, "N3", NotReady},
		{3.0, 0.9, "N3", AlmostReady}, // calibrating caps the class
		{3.0, 0.3, "Z9", NotReady},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, m.ClassifyReadiness(tt.ability, tt.se, "ja", tt.target), "ability %.1f se %.1f %s", tt.ability, tt.se, tt.target)
	}
}

func TestNewWithConfig(t *testing.T) {
	m, err := New(config.ProficiencyConfig{
		CalibrationSEThreshold: 0.3,
		Scales: map[string]config.ScaleConfig{
			"KO":      {Levels: []string{"TOPIK1", "TOPIK2"}, Thresholds: []float64{0, 2}},
			"default": {Levels: []string{"low", "high"}, Thresholds: []float64{0, 1}},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"TOPIK1", "TOPIK2"}, m.Levels("ko"))
	assert.Equal(t, []string{"low", "high"}, m.Levels("fr"))
	assert.Equal(t, 2, m.LevelIndex("ja", "N3"))
	assert.True(t, m.IsCalibrating(0.4))

	_, err = New(config.ProficiencyConfig{
		Scales: map[string]config.ScaleConfig{"xx": {Levels: []string{"a", "b"}, Thresholds: []float64{1, 0}}},
	})
	assert.Error(t, err)
}
