package session

import (
	"math"
	"time"
)

// Content is a recommended item the input activity can use.
type Content struct {
	ID    string
	Title string
	Type  string
}

// Inputs describe what the learner has available to study.
type Inputs struct {
	DueCards          int
	NewWordsAvailable int
	Recommended       []Content
}

// Share of session minutes per activity kind.
const (
	reviewShare = 0.6
	inputShare  = 0.3
)

// BuildPlan splits duration 60/30/10 across review, input and output.
// A kind with nothing to work on gives its minutes to the others: review
// and input pass theirs to each other, and output absorbs the rest.
func BuildPlan(duration time.Duration, in Inputs) *Plan {
	if duration <= 0 {
		duration = DefaultSessionDuration
	}
	total := int(duration.Minutes())
	if total < 1 {
		total = 1
	}

	reviewMin := int(math.Round(float64(total) * reviewShare))
	inputMin := int(math.Round(float64(total) * inputShare))
	outputMin := max(total-reviewMin-inputMin, 0)

	hasReview := in.DueCards > 0 || in.NewWordsAvailable > 0
	hasInput := len(in.Recommended) > 0

	// Redistribute unused minutes.
	switch {
	case !hasReview && !hasInput:
		outputMin += reviewMin + inputMin
		reviewMin, inputMin = 0, 0
	case !hasReview:
		inputMin += reviewMin
		reviewMin = 0
	case !hasInput:
		reviewMin += inputMin
		inputMin = 0
	}

	plan := &Plan{Duration: duration}
	if reviewMin > 0 {
		plan.Activities = append(plan.Activities, reviewActivity(reviewMin, in))
	}
	if inputMin > 0 {
		c := in.Recommended[0]
		plan.Activities = append(plan.Activities, Activity{
			Kind:        ActivityInput,
			Title:       "Read: " + c.Title,
			Minutes:     inputMin,
			ContentID:   c.ID,
			ContentType: c.Type,
		})
	}
	if outputMin > 0 {
		plan.Activities = append(plan.Activities, Activity{
			Kind:      ActivityOutput,
			Title:     "Write sentences",
			Minutes:   outputMin,
			Sentences: max(outputMin/MinutesPerSentence, 1),
		})
	}
	return plan
}

// reviewActivity fills review time with due cards first, then new words.
func reviewActivity(minutes int, in Inputs) Activity {
	cards := min(in.DueCards, minutes*CardsPerMinute)
	spare := minutes - int(math.Ceil(float64(cards)/CardsPerMinute))
	words := min(in.NewWordsAvailable, max(spare, 0)*NewWordsPerMinute)

	title := "Review cards"
	if cards == 0 {
		title = "Learn new words"
	}
	return Activity{
		Kind:     ActivityReview,
		Title:    title,
		Minutes:  minutes,
		Cards:    cards,
		NewWords: words,
	}
}
