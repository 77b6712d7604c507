package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

type jobRow struct {
	ID        string    `sql:"id"`
	Status    string    `sql:"status"`
	Progress  int       `sql:"progress"`
	Request   string    `sql:"request"`
	StoryID   string    `sql:"story_id"`
	Error     string    `sql:"error"`
	CreatedAt time.Time `sql:"created_at"`
	UpdatedAt time.Time `sql:"updated_at"`
}

type jobRepo struct{ s *Store }

func (r *jobRepo) Create(ctx context.Context, j *GenerationJob) error {
	now := time.Now().UTC()
	if j.CreatedAt.IsZero() {
		j.CreatedAt = now
	}
	j.UpdatedAt = j.CreatedAt
	q := r.s.sb().Insert(tableJobs).
		Columns("id", "status", "progress", "request", "story_id", "error", "created_at", "updated_at").
		Values(j.ID, j.Status, j.Progress, j.Request, j.StoryID, j.Error, j.CreatedAt.UTC(), j.UpdatedAt.UTC())
	if _, err := r.s.exec(ctx, q); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

func (r *jobRepo) list(ctx context.Context, p *entsql.Predicate) ([]GenerationJob, error) {
	q := r.s.sb().Select().From(entsql.Table(tableJobs)).
		Where(p).
		OrderBy(entsql.Asc("created_at"), entsql.Asc("id"))
	return r.scan(ctx, q)
}

func (r *jobRepo) scan(ctx context.Context, q *entsql.Selector) ([]GenerationJob, error) {
	var rows []jobRow
	if err := r.s.scanAll(ctx, q, &rows); err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	out := make([]GenerationJob, len(rows))
	for i, row := range rows {
		out[i] = GenerationJob(row)
	}
	return out, nil
}

func (r *jobRepo) Get(ctx context.Context, id string) (*GenerationJob, error) {
	jobs, err := r.list(ctx, entsql.EQ("id", id))
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, ErrNotFound
	}
	return &jobs[0], nil
}

func (r *jobRepo) Update(ctx context.Context, j *GenerationJob) error {
	j.UpdatedAt = time.Now().UTC()
	u := r.s.sb().Update(tableJobs).
		Set("status", j.Status).
		Set("progress", j.Progress).
		Set("story_id", j.StoryID).
		Set("error", j.Error).
		Set("updated_at", j.UpdatedAt).
		Where(entsql.EQ("id", j.ID))
	res, err := r.s.exec(ctx, u)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return affected(res)
}

func (r *jobRepo) ListByStatus(ctx context.Context, status string) ([]GenerationJob, error) {
	return r.list(ctx, entsql.EQ("status", status))
}

// Recent returns up to limit jobs, newest first. An empty status matches
// every job.
func (r *jobRepo) Recent(ctx context.Context, status string, limit int) ([]GenerationJob, error) {
	q := r.s.sb().Select().From(entsql.Table(tableJobs)).
		OrderBy(entsql.Desc("created_at"), entsql.Desc("id")).
		Limit(limit)
	if status != "" {
		q.Where(entsql.EQ("status", status))
	}
	return r.scan(ctx, q)
}
