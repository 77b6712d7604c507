package storyapi

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrJobFailed is returned when the server reports a failed job.
	ErrJobFailed = errors.New("story generation failed")
	// ErrGenerationTimeout is returned when a job is still running after
	// the last poll attempt.
	ErrGenerationTimeout = errors.New("story generation timed out")
)

// PollOptions controls PollGenerationStatus.
type PollOptions struct {
	Interval    time.Duration
	MaxAttempts int
	// OnProgress, if set, is called with every status received.
	OnProgress func(*JobStatus)
}

// Poll defaults: six minutes of polling every two seconds.
const (
	DefaultPollInterval    = 2 * time.Second
	DefaultPollMaxAttempts = 180
)

func (o PollOptions) withDefaults() PollOptions {
	if o.Interval <= 0 {
		o.Interval = DefaultPollInterval
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultPollMaxAttempts
	}
	return o
}

// PollGenerationStatus polls a job until it completes, fails, or
// MaxAttempts polls have been made. A failed job returns its status
// together with ErrJobFailed. Completion purges the catalog cache.
func (c *Client) PollGenerationStatus(ctx context.Context, jobID string, opts PollOptions) (*JobStatus, error) {
	opts = opts.withDefaults()

	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		st, err := c.GenerationStatus(ctx, jobID)
		if err != nil {
			return nil, fmt.Errorf("poll job %s: %w", jobID, err)
		}
		if opts.OnProgress != nil {
			opts.OnProgress(st)
		}
		switch st.Status {
		case JobCompleted:
			// The new story is not in any cached listing yet.
			c.InvalidateStories()
			return st, nil
		case JobFailed:
			if st.Error != "" {
				return st, fmt.Errorf("%w: %s", ErrJobFailed, st.Error)
			}
			return st, ErrJobFailed
		}
		if attempt == opts.MaxAttempts {
			break
		}

		timer.Reset(opts.Interval)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, fmt.Errorf("job %s after %d attempts: %w", jobID, opts.MaxAttempts, ErrGenerationTimeout)
}
