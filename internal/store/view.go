package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

type viewRow struct {
	UserID      string    `sql:"user_id"`
	ContentType string    `sql:"content_type"`
	ContentID   string    `sql:"content_id"`
	Completed   bool      `sql:"completed"`
	ViewedAt    time.Time `sql:"viewed_at"`
}

type viewRepo struct{ s *Store }

func (r *viewRepo) Record(ctx context.Context, v ContentView) error {
	if v.ViewedAt.IsZero() {
		v.ViewedAt = time.Now()
	}
	return r.s.Tx(ctx, func(tx *Store) error {
		q := tx.sb().Select().From(entsql.Table(tableViews)).
			Where(entsql.And(
				entsql.EQ("user_id", v.UserID),
				entsql.EQ("content_type", v.ContentType),
				entsql.EQ("content_id", v.ContentID),
			))
		var rows []viewRow
		if err := tx.scanAll(ctx, q, &rows); err != nil {
			return fmt.Errorf("get view: %w", err)
		}
		if len(rows) > 0 && rows[0].Completed {
			v.Completed = true
		}

		upsert := tx.sb().Insert(tableViews).
			Columns("user_id", "content_type", "content_id", "completed", "viewed_at").
			Values(v.UserID, v.ContentType, v.ContentID, v.Completed, v.ViewedAt.UTC()).
			OnConflict(
				entsql.ConflictColumns("user_id", "content_type", "content_id"),
				entsql.ResolveWithNewValues(),
			)
		if _, err := tx.exec(ctx, upsert); err != nil {
			return fmt.Errorf("record view: %w", err)
		}
		return nil
	})
}

func (r *viewRepo) list(ctx context.Context, p *entsql.Predicate) ([]ContentView, error) {
	q := r.s.sb().Select().From(entsql.Table(tableViews)).
		Where(p).
		OrderBy(entsql.Desc("viewed_at"))
	var rows []viewRow
	if err := r.s.scanAll(ctx, q, &rows); err != nil {
		return nil, fmt.Errorf("list views: %w", err)
	}
	out := make([]ContentView, len(rows))
	for i, row := range rows {
		out[i] = ContentView(row)
	}
	return out, nil
}

func (r *viewRepo) List(ctx context.Context, userID, contentType string) ([]ContentView, error) {
	p := entsql.EQ("user_id", userID)
	if contentType != "" {
		p = entsql.And(p, entsql.EQ("content_type", contentType))
	}
	return r.list(ctx, p)
}

func (r *viewRepo) Since(ctx context.Context, userID string, since time.Time) ([]ContentView, error) {
	return r.list(ctx, entsql.And(entsql.EQ("user_id", userID), entsql.GTE("viewed_at", since.UTC())))
}
