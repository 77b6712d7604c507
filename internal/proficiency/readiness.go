package proficiency

// Readiness is a coarse exam-preparedness classification.
type Readiness string

const (
	NotReady    Readiness = "not_ready"
	AlmostReady Readiness = "almost_ready"
	Ready       Readiness = "ready"
	Confident   Readiness = "confident"
)

// minSE keeps the margin finite for very confident estimates.
const minSE = 0.1

// ClassifyReadiness compares ability with the lower bound of targetLevel,
// measured in standard errors. A calibrating estimate is never better than
// almost ready. Unknown target levels are not ready.
func (m *Model) ClassifyReadiness(ability, confidence float64, language, targetLevel string) Readiness {
	s := m.Scale(language)
	idx := s.Index(targetLevel)
	if idx < 0 {
		return NotReady
	}

	se := max(confidence, minSE)
	z := (ability - s.Thresholds[idx]) / se

	var r Readiness
	switch {
	case z >= 1:
		r = Confident
	case z >= 0:
		r = Ready
	case z >= -1:
		r = AlmostReady
	default:
		r = NotReady
	}
	if m.IsCalibrating(confidence) && (r == Ready || r == Confident) {
		return AlmostReady
	}
	return r
}
