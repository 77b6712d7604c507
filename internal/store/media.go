package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

type mediaRow struct {
	ID        string    `sql:"id"`
	Kind      string    `sql:"kind"`
	OwnerID   string    `sql:"owner_id"`
	URL       string    `sql:"url"`
	UpdatedAt time.Time `sql:"updated_at"`
}

type mediaRepo struct{ s *Store }

func (r *mediaRepo) Upsert(ctx context.Context, a MediaAsset) error {
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = time.Now()
	}
	q := r.s.sb().Insert(tableMedia).
		Columns("id", "kind", "owner_id", "url", "updated_at").
		Values(a.ID, a.Kind, a.OwnerID, a.URL, a.UpdatedAt.UTC()).
		OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues())
	if _, err := r.s.exec(ctx, q); err != nil {
		return fmt.Errorf("upsert media asset: %w", err)
	}
	return nil
}

func (r *mediaRepo) Get(ctx context.Context, id string) (*MediaAsset, error) {
	q := r.s.sb().Select().From(entsql.Table(tableMedia)).Where(entsql.EQ("id", id))
	var rows []mediaRow
	if err := r.s.scanAll(ctx, q, &rows); err != nil {
		return nil, fmt.Errorf("get media asset: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	a := MediaAsset(rows[0])
	return &a, nil
}

func (r *mediaRepo) EncodedAfter(ctx context.Context, afterID string, limit int) ([]MediaAsset, error) {
	q := r.s.sb().Select().From(entsql.Table(tableMedia)).
		Where(entsql.And(entsql.Contains("url", "%"), entsql.GT("id", afterID))).
		OrderBy(entsql.Asc("id"))
	if limit > 0 {
		q.Limit(limit)
	}
	var rows []mediaRow
	if err := r.s.scanAll(ctx, q, &rows); err != nil {
		return nil, fmt.Errorf("list encoded media: %w", err)
	}
	out := make([]MediaAsset, len(rows))
	for i, row := range rows {
		out[i] = MediaAsset(row)
	}
	return out, nil
}

func (r *mediaRepo) UpdateURL(ctx context.Context, id, url string, now time.Time) error {
	u := r.s.sb().Update(tableMedia).
		Set("url", url).
		Set("updated_at", now.UTC()).
		Where(entsql.EQ("id", id))
	res, err := r.s.exec(ctx, u)
	if err != nil {
		return fmt.Errorf("update media url: %w", err)
	}
	return affected(res)
}
