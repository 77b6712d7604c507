package session

import "time"

// Summary holds the data displayed on the summary screen.
type Summary struct {
	Planned             time.Duration
	Elapsed             time.Duration
	ActivitiesPlanned   int
	ActivitiesCompleted int
	Results             Results
	Streak              StreakInfo
}

// BuildSummary summarizes a completed session; it returns nil otherwise.
func BuildSummary(s *Session) *Summary {
	if s.status != StatusComplete {
		return nil
	}
	return &Summary{
		Planned:             s.plan.Duration,
		Elapsed:             s.endedAt.Sub(s.startedAt),
		ActivitiesPlanned:   len(s.plan.Activities),
		ActivitiesCompleted: s.index + 1,
		Results:             s.Results(),
		Streak:              s.streak,
	}
}
