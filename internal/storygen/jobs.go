package storygen

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/abhisek/sanlang/internal/logging"
	"github.com/abhisek/sanlang/internal/metrics"
	"github.com/abhisek/sanlang/internal/store"
	"github.com/abhisek/sanlang/internal/stories"
)

// Job statuses.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

var (
	// ErrJobNotFound is returned for an unknown job ID.
	ErrJobNotFound = errors.New("generation job not found")
	// ErrQueueFull is returned when no worker slot is free.
	ErrQueueFull = errors.New("generation queue is full")
	// ErrJobCancelled is stored on a job stopped by Cancel.
	ErrJobCancelled = errors.New("generation job cancelled")
	// ErrJobFinished is returned when cancelling a completed or failed job.
	ErrJobFinished = errors.New("generation job already finished")
)

// DefaultListLimit caps List when no limit is given.
const DefaultListLimit = 50

// Jobs runs story generation in a bounded pool of background workers.
// Job state lives in the store so clients can poll it.
type Jobs struct {
	store   *store.Store
	gen     *Generator
	catalog *stories.Catalog
	queue   chan string
	workers int

	mu      sync.Mutex
	queued  map[string]bool
	running map[string]context.CancelCauseFunc
}

// NewJobs creates a job runner with the given number of workers and
// queue capacity.
func NewJobs(s *store.Store, gen *Generator, catalog *stories.Catalog, workers, queueSize int) *Jobs {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = workers
	}
	return &Jobs{
		store:   s,
		gen:     gen,
		catalog: catalog,
		queue:   make(chan string, queueSize),
		workers: workers,
		queued:  make(map[string]bool),
		running: make(map[string]context.CancelCauseFunc),
	}
}

func (j *Jobs) String() string { return "generation-workers" }

// Submit validates req, records a pending job and queues it.
func (j *Jobs) Submit(ctx context.Context, req Request) (*store.GenerationJob, error) {
	req, err := j.gen.Check(req)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	job := &store.GenerationJob{
		ID:      uuid.NewString(),
		Status:  StatusPending,
		Request: string(body),
	}
	if err := j.store.Jobs().Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create generation job: %w", err)
	}

	if !j.tryEnqueue(job.ID) {
		job.Status = StatusFailed
		job.Error = ErrQueueFull.Error()
		if err := j.store.Jobs().Update(ctx, job); err != nil {
			logging.Ctx(ctx).Error().Err(err).Str("job", job.ID).Msg("failed to mark job failed")
		}
		metrics.RecordGeneration(StatusFailed, 0)
		return nil, ErrQueueFull
	}

	logging.Ctx(ctx).Info().
		Str("job", job.ID).
		Str("level", req.Level).
		Str("genre", req.Genre).
		Msg("generation job queued")
	return job, nil
}

// Status returns the job with the given ID.
func (j *Jobs) Status(ctx context.Context, id string) (*store.GenerationJob, error) {
	job, err := j.store.Jobs().Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrJobNotFound
	}
	return job, err
}

// List returns jobs newest first, filtered by status when it is not
// empty. A limit <= 0 means DefaultListLimit.
func (j *Jobs) List(ctx context.Context, status string, limit int) ([]store.GenerationJob, error) {
	switch status {
	case "", StatusPending, StatusRunning, StatusCompleted, StatusFailed:
	default:
		return nil, fmt.Errorf("%w: unknown job status %q", ErrInvalidRequest, status)
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return j.store.Jobs().Recent(ctx, status, limit)
}

// Cancel stops a job. A pending job is marked failed at once. A job
// running in this process has its context cancelled and is marked failed
// by its worker.
func (j *Jobs) Cancel(ctx context.Context, id string) (*store.GenerationJob, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	job, err := j.store.Jobs().Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrJobNotFound
	} else if err != nil {
		return nil, err
	}
	if finished(job.Status) {
		return nil, ErrJobFinished
	}

	if cancel, ok := j.running[id]; ok {
		cancel(ErrJobCancelled)
		logging.Ctx(ctx).Info().Str("job", id).Msg("generation job cancellation requested")
		return job, nil
	}

	job.Status = StatusFailed
	job.Error = ErrJobCancelled.Error()
	if err := j.store.Jobs().Update(ctx, job); err != nil {
		return nil, err
	}
	metrics.RecordGeneration(StatusFailed, 0)
	logging.Ctx(ctx).Info().Str("job", id).Msg("generation job cancelled")
	return job, nil
}

func finished(status string) bool {
	return status == StatusCompleted || status == StatusFailed
}

// Serve runs the workers until ctx is cancelled. Jobs left pending or
// running by a previous process are queued again. A job interrupted by
// shutdown keeps its status so the next Serve resumes it.
func (j *Jobs) Serve(ctx context.Context) error {
	var wg sync.WaitGroup
	for i := 0; i < j.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.work(ctx)
		}()
	}

	if err := j.requeue(ctx); err != nil {
		logging.Error().Err(err).Msg("requeue generation jobs")
	}
	logging.Info().Int("workers", j.workers).Msg("generation workers started")

	<-ctx.Done()
	wg.Wait()
	return ctx.Err()
}

func (j *Jobs) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case id := <-j.queue:
			if err := j.Process(ctx, id); err != nil {
				logging.Error().Err(err).Str("job", id).Msg("generation job failed")
			}
			j.mu.Lock()
			delete(j.queued, id)
			j.mu.Unlock()
		}
	}
}

// mark records id as queued. It reports false if id already is.
func (j *Jobs) mark(id string) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.queued[id] {
		return false
	}
	j.queued[id] = true
	return true
}

func (j *Jobs) tryEnqueue(id string) bool {
	if !j.mark(id) {
		return true
	}
	select {
	case j.queue <- id:
		return true
	default:
		j.mu.Lock()
		delete(j.queued, id)
		j.mu.Unlock()
		return false
	}
}

func (j *Jobs) requeue(ctx context.Context) error {
	for _, status := range []string{StatusRunning, StatusPending} {
		jobs, err := j.store.Jobs().ListByStatus(ctx, status)
		if err != nil {
			return err
		}
		for _, job := range jobs {
			if !j.mark(job.ID) {
				continue
			}
			select {
			case j.queue <- job.ID:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return nil
}

// Process runs one job to completion, recording progress in the store.
// The returned error is also stored on the job. When ctx ends mid-run the
// job is left pending or running and Process returns nil.
func (j *Jobs) Process(ctx context.Context, id string) error {
	started := time.Now()
	jobCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	job, err := j.claim(jobCtx, id, cancel)
	if err != nil || job == nil {
		return err
	}
	defer j.release(id)

	runErr := j.run(jobCtx, job)
	if runErr != nil && ctx.Err() != nil {
		logging.Ctx(ctx).Info().
			Str("job", job.ID).
			Str("status", job.Status).
			Msg("generation job interrupted, will resume on restart")
		return nil
	}

	status := StatusCompleted
	if runErr != nil {
		status = StatusFailed
		if errors.Is(context.Cause(jobCtx), ErrJobCancelled) {
			runErr = ErrJobCancelled
		}
		job.Error = runErr.Error()
	}
	job.Status = status
	if status == StatusCompleted {
		job.Progress = 100
	}
	if err := j.store.Jobs().Update(context.WithoutCancel(ctx), job); err != nil {
		return errors.Join(runErr, err)
	}
	metrics.RecordGeneration(status, time.Since(started))
	logging.Ctx(ctx).Info().
		Str("job", job.ID).
		Str("status", status).
		Str("story", job.StoryID).
		Dur("took", time.Since(started)).
		Msg("generation job finished")
	return runErr
}

// claim loads job id and registers cancel for it. A finished job yields
// nil.
func (j *Jobs) claim(ctx context.Context, id string, cancel context.CancelCauseFunc) (*store.GenerationJob, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	job, err := j.store.Jobs().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if finished(job.Status) {
		return nil, nil
	}
	j.running[id] = cancel
	return job, nil
}

func (j *Jobs) release(id string) {
	j.mu.Lock()
	delete(j.running, id)
	j.mu.Unlock()
}

func (j *Jobs) progress(ctx context.Context, job *store.GenerationJob, status string, pct int) error {
	job.Status = status
	job.Progress = pct
	return j.store.Jobs().Update(ctx, job)
}

func (j *Jobs) run(ctx context.Context, job *store.GenerationJob) error {
	var req Request
	if err := json.Unmarshal([]byte(job.Request), &req); err != nil {
		return fmt.Errorf("decode job request: %w", err)
	}
	if err := j.progress(ctx, job, StatusRunning, 10); err != nil {
		return err
	}

	out, err := j.gen.Generate(ctx, req)
	if err != nil {
		return err
	}
	if err := j.progress(ctx, job, StatusRunning, 60); err != nil {
		return err
	}

	st := out.Story
	if err := j.catalog.Save(ctx, st); err != nil {
		return fmt.Errorf("save story: %w", err)
	}
	job.StoryID = st.ID
	if err := j.progress(ctx, job, StatusRunning, 80); err != nil {
		return err
	}

	// A story without questions is still usable; backfill fills them later.
	qs, err := j.gen.Questions(ctx, st)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("story", st.ID).Msg("question generation failed")
		return nil
	}
	st.Questions = qs
	if err := j.catalog.Save(ctx, st); err != nil {
		return fmt.Errorf("save story questions: %w", err)
	}
	return nil
}

// Backfill generates questions for up to limit stories that have none.
// It returns the number of stories updated; per-story failures are
// joined into the error.
func Backfill(ctx context.Context, gen *Generator, catalog *stories.Catalog, limit int) (int, error) {
	missing, err := catalog.MissingQuestions(ctx, limit)
	if err != nil {
		return 0, err
	}
	var errs []error
	n := 0
	for i := range missing {
		st := &missing[i]
		qs, err := gen.Questions(ctx, st)
		if err != nil {
			errs = append(errs, fmt.Errorf("story %s: %w", st.ID, err))
			continue
		}
		st.Questions = qs
		if err := catalog.Save(ctx, st); err != nil {
			errs = append(errs, fmt.Errorf("story %s: %w", st.ID, err))
			continue
		}
		n++
		logging.Ctx(ctx).Info().Str("story", st.ID).Int("questions", len(qs)).Msg("questions added")
	}
	return n, errors.Join(errs...)
}
