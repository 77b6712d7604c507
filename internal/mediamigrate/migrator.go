package mediamigrate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/abhisek/sanlang/internal/logging"
	"github.com/abhisek/sanlang/internal/metrics"
	"github.com/abhisek/sanlang/internal/objstore"
	"github.com/abhisek/sanlang/internal/store"
)

// Record outcomes.
const (
	OutcomeMigrated = "migrated"
	OutcomeSkipped  = "skipped"
	OutcomeDryRun   = "dry_run"
	OutcomeFailed   = "failed"
)

// pageSize bounds each read of candidate records.
const pageSize = 100

// Options bounds one run.
type Options struct {
	// Limit caps the number of records acted on. Zero means no limit.
	Limit  int
	DryRun bool
	// After resumes after the given record ID.
	After string
}

// Result is the outcome for one media record.
type Result struct {
	ID                 string `json:"id"`
	Kind               string `json:"kind"`
	OldURL             string `json:"old_url"`
	NewURL             string `json:"new_url,omitempty"`
	FoundAtDecodedPath bool   `json:"found_at_decoded_path"`
	Strategy           string `json:"strategy,omitempty"`
	Outcome            string `json:"outcome"`
	Error              string `json:"error,omitempty"`
}

// Report summarizes a run.
type Report struct {
	Results  []Result `json:"results"`
	Migrated int      `json:"migrated"`
	Skipped  int      `json:"skipped"`
	Failed   int      `json:"failed"`
	DryRun   bool     `json:"dry_run"`
}

// Migrator moves media objects to canonical keys.
type Migrator struct {
	store      *store.Store
	objects    objstore.Store
	publicBase string
	strategies []KeyStrategy
	limiter    *rate.Limiter
	now        func() time.Time
}

// Option configures a Migrator.
type Option func(*Migrator)

// WithStrategies replaces DefaultStrategies.
func WithStrategies(s []KeyStrategy) Option {
	return func(m *Migrator) { m.strategies = s }
}

// WithRateLimit caps object-store operations per second. Zero or less
// disables the limit.
func WithRateLimit(opsPerSecond float64) Option {
	return func(m *Migrator) {
		if opsPerSecond <= 0 {
			m.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		m.limiter = rate.NewLimiter(rate.Limit(opsPerSecond), 1)
	}
}

// WithClock sets the clock used for updated_at.
func WithClock(now func() time.Time) Option {
	return func(m *Migrator) { m.now = now }
}

// NewMigrator creates a migrator for URLs under publicBase.
func NewMigrator(s *store.Store, objects objstore.Store, publicBase string, opts ...Option) *Migrator {
	m := &Migrator{
		store:      s,
		objects:    objects,
		publicBase: publicBase,
		strategies: DefaultStrategies(),
		limiter:    rate.NewLimiter(rate.Inf, 1),
		now:        time.Now,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Run migrates records whose URL path is percent-encoded. A failing
// record is reported in its Result and does not stop the run.
func (m *Migrator) Run(ctx context.Context, opts Options) (*Report, error) {
	log := logging.Ctx(ctx)
	rep := &Report{Results: []Result{}, DryRun: opts.DryRun}
	after := opts.After
	acted := 0

	for {
		if opts.Limit > 0 && acted >= opts.Limit {
			break
		}
		page, err := m.store.Media().EncodedAfter(ctx, after, pageSize)
		if err != nil {
			return rep, err
		}
		if len(page) == 0 {
			break
		}
		for _, a := range page {
			after = a.ID
			if !HasEncodedPath(a.URL) {
				continue
			}
			if opts.Limit > 0 && acted >= opts.Limit {
				break
			}
			if err := ctx.Err(); err != nil {
				return rep, err
			}

			res := m.migrate(ctx, a, opts.DryRun)
			metrics.RecordMigration(a.Kind, res.Outcome)
			switch res.Outcome {
			case OutcomeSkipped:
				rep.Skipped++
				continue
			case OutcomeFailed:
				rep.Failed++
				log.Warn().Str("id", a.ID).Str("url", a.URL).Str("error", res.Error).Msg("media migration failed")
			case OutcomeMigrated:
				rep.Migrated++
			}
			acted++
			rep.Results = append(rep.Results, res)
		}
		if len(page) < pageSize {
			break
		}
	}

	log.Info().
		Int("migrated", rep.Migrated).
		Int("skipped", rep.Skipped).
		Int("failed", rep.Failed).
		Bool("dry_run", opts.DryRun).
		Msg("media migration finished")
	return rep, nil
}

func (m *Migrator) wait(ctx context.Context) error {
	return m.limiter.Wait(ctx)
}

func (m *Migrator) migrate(ctx context.Context, a store.MediaAsset, dryRun bool) Result {
	res := Result{ID: a.ID, Kind: a.Kind, OldURL: a.URL}
	fail := func(err error) Result {
		res.Outcome = OutcomeFailed
		res.Error = err.Error()
		return res
	}

	legacy, err := LegacyKey(m.publicBase, a.URL)
	if err != nil {
		return fail(err)
	}
	decoded, err := DecodeKey(legacy)
	if err != nil {
		return fail(err)
	}
	res.NewURL = CanonicalURL(m.publicBase, decoded)

	found, err := resolve(ctx, m.strategies, m.objects, legacy, m.wait)
	if err != nil {
		return fail(err)
	}
	if found == nil {
		return fail(fmt.Errorf("object not found for key %q", legacy))
	}
	res.FoundAtDecodedPath = found.AtDecoded
	res.Strategy = found.Strategy

	if found.AtDecoded && res.NewURL == a.URL {
		res.Outcome = OutcomeSkipped
		return res
	}
	if dryRun {
		res.Outcome = OutcomeDryRun
		return res
	}

	if !found.AtDecoded && found.Key != decoded {
		if err := m.move(ctx, found.Key, decoded); err != nil {
			return fail(err)
		}
	}
	if res.NewURL != a.URL {
		if err := m.store.Media().UpdateURL(ctx, a.ID, res.NewURL, m.now()); err != nil {
			return fail(err)
		}
	}
	res.Outcome = OutcomeMigrated
	return res
}

// move copies src to dst and then deletes src. The database is updated
// only after both steps; a crash in between leaves a duplicate object and
// the record is picked up again by the next run.
func (m *Migrator) move(ctx context.Context, src, dst string) error {
	if err := m.wait(ctx); err != nil {
		return err
	}
	if err := m.objects.Copy(ctx, src, dst); err != nil {
		return err
	}
	if err := m.wait(ctx); err != nil {
		return err
	}
	if err := m.objects.Delete(ctx, src); err != nil && !errors.Is(err, objstore.ErrNotFound) {
		return err
	}
	return nil
}
