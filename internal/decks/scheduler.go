package decks

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/abhisek/sanlang/internal/logging"
)

// Scheduler runs the daily drip at a fixed UTC time.
type Scheduler struct {
	svc *Service
	at  string
	now func() time.Time
}

// NewScheduler creates a drip scheduler. at is "HH:MM" in UTC.
func NewScheduler(svc *Service, at string) *Scheduler {
	return &Scheduler{svc: svc, at: at, now: time.Now}
}

func (s *Scheduler) String() string { return "drip-scheduler" }

// Serve runs until ctx is cancelled.
func (s *Scheduler) Serve(ctx context.Context) error {
	sched := gocron.NewScheduler(time.UTC)
	sched.SingletonModeAll()

	_, err := sched.Every(1).Day().At(s.at).Do(func() {
		if _, err := s.svc.DripAll(ctx, s.now()); err != nil {
			logging.Error().Err(err).Msg("daily drip run failed")
		}
	})
	if err != nil {
		return fmt.Errorf("schedule drip at %s: %w", s.at, err)
	}

	sched.StartAsync()
	logging.Info().Str("at", s.at).Msg("drip scheduler started")

	<-ctx.Done()
	sched.Stop()
	return ctx.Err()
}
