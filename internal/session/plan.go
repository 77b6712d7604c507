package session

import "time"

// ActivityKind is the role an activity plays in the session.
type ActivityKind string

const (
	ActivityReview ActivityKind = "review"
	ActivityInput  ActivityKind = "input"
	ActivityOutput ActivityKind = "output"
)

// Activity is a single step of the session plan.
type Activity struct {
	Kind    ActivityKind `json:"kind"`
	Title   string       `json:"title"`
	Minutes int          `json:"minutes"`

	// Review targets.
	Cards    int `json:"cards,omitempty"`
	NewWords int `json:"new_words,omitempty"`

	// Input content, when Kind is ActivityInput.
	ContentID   string `json:"content_id,omitempty"`
	ContentType string `json:"content_type,omitempty"`

	// Output target, when Kind is ActivityOutput.
	Sentences int `json:"sentences,omitempty"`
}

// Plan is the ordered list of activities for a session.
type Plan struct {
	Activities []Activity    `json:"activities"`
	Duration   time.Duration `json:"duration"`
}

// Minutes returns the total minutes allocated to activities.
func (p *Plan) Minutes() int {
	n := 0
	for _, a := range p.Activities {
		n += a.Minutes
	}
	return n
}

// DefaultSessionDuration is preselected when planning starts.
const DefaultSessionDuration = 15 * time.Minute

// Durations are the session lengths offered while planning.
var Durations = []time.Duration{10 * time.Minute, 15 * time.Minute, 30 * time.Minute}

// Pacing used to size activity targets.
const (
	CardsPerMinute     = 4
	NewWordsPerMinute  = 2
	MinutesPerSentence = 1
)
