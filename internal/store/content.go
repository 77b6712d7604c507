package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

type storyRow struct {
	ID            string    `sql:"id"`
	Language      string    `sql:"language"`
	Level         string    `sql:"level"`
	Title         string    `sql:"title"`
	TitleNative   string    `sql:"title_native"`
	Genre         string    `sql:"genre"`
	Summary       string    `sql:"summary"`
	Tags          string    `sql:"tags"`
	Chapters      string    `sql:"chapters"`
	Vocabulary    string    `sql:"vocabulary"`
	Questions     string    `sql:"questions"`
	IsPremium     bool      `sql:"is_premium"`
	CoverImageURL string    `sql:"cover_image_url"`
	CreatedAt     time.Time `sql:"created_at"`
	UpdatedAt     time.Time `sql:"updated_at"`
}

func (row storyRow) story() (Story, error) {
	st := Story{
		ID:            row.ID,
		Language:      row.Language,
		Level:         row.Level,
		Title:         row.Title,
		TitleNative:   row.TitleNative,
		Genre:         row.Genre,
		Summary:       row.Summary,
		IsPremium:     row.IsPremium,
		CoverImageURL: row.CoverImageURL,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
	for _, c := range []struct {
		raw string
		dst any
	}{
		{row.Tags, &st.Tags},
		{row.Chapters, &st.Chapters},
		{row.Vocabulary, &st.Vocabulary},
		{row.Questions, &st.Questions},
	} {
		if err := decodeJSON(c.raw, c.dst); err != nil {
			return Story{}, err
		}
	}
	return st, nil
}

type storyRepo struct{ s *Store }

func (r *storyRepo) Save(ctx context.Context, st *Story) error {
	now := time.Now().UTC()
	if st.CreatedAt.IsZero() {
		st.CreatedAt = now
	}
	st.UpdatedAt = now

	var tags, chapters, vocab, questions string
	if err := encodeAll(&tags, st.Tags, &chapters, st.Chapters, &vocab, st.Vocabulary, &questions, st.Questions); err != nil {
		return err
	}
	q := r.s.sb().Insert(tableStories).
		Columns("id", "language", "level", "title", "title_native", "genre", "summary", "tags",
			"chapters", "vocabulary", "questions", "is_premium", "cover_image_url",
			"created_at", "updated_at").
		Values(st.ID, st.Language, st.Level, st.Title, st.TitleNative, st.Genre, st.Summary, tags,
			chapters, vocab, questions, st.IsPremium, st.CoverImageURL,
			st.CreatedAt.UTC(), st.UpdatedAt).
		OnConflict(
			entsql.ConflictColumns("id"),
			entsql.ResolveWithNewValues(),
			entsql.ResolveWith(func(u *entsql.UpdateSet) { u.SetIgnore("created_at") }),
		)
	if _, err := r.s.exec(ctx, q); err != nil {
		return fmt.Errorf("save story: %w", err)
	}
	return nil
}

func (r *storyRepo) list(ctx context.Context, q *entsql.Selector) ([]Story, error) {
	var rows []storyRow
	if err := r.s.scanAll(ctx, q, &rows); err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}
	out := make([]Story, 0, len(rows))
	for _, row := range rows {
		st, err := row.story()
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

func (r *storyRepo) Get(ctx context.Context, id string) (*Story, error) {
	stories, err := r.list(ctx, r.s.sb().Select().From(entsql.Table(tableStories)).Where(entsql.EQ("id", id)))
	if err != nil {
		return nil, err
	}
	if len(stories) == 0 {
		return nil, ErrNotFound
	}
	return &stories[0], nil
}

func (r *storyRepo) List(ctx context.Context, f ContentFilter) ([]Story, error) {
	return r.list(ctx, contentQuery(r.s, tableStories, f))
}

func (r *storyRepo) MissingQuestions(ctx context.Context, limit int) ([]Story, error) {
	q := r.s.sb().Select().From(entsql.Table(tableStories)).
		Where(entsql.Or(entsql.EQ("questions", "[]"), entsql.EQ("questions", ""))).
		OrderBy(entsql.Asc("created_at"), entsql.Asc("id"))
	if limit > 0 {
		q.Limit(limit)
	}
	return r.list(ctx, q)
}

// contentQuery builds the shared story/video listing query.
func contentQuery(s *Store, table string, f ContentFilter) *entsql.Selector {
	q := s.sb().Select().From(entsql.Table(table)).
		OrderBy(entsql.Desc("created_at"), entsql.Asc("id"))
	var preds []*entsql.Predicate
	if f.Language != "" {
		preds = append(preds, entsql.EQ("language", f.Language))
	}
	if f.Level != "" {
		preds = append(preds, entsql.EQ("level", f.Level))
	}
	if len(preds) > 0 {
		q.Where(entsql.And(preds...))
	}
	if f.Limit > 0 {
		q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q.Offset(f.Offset)
	}
	return q
}

type videoRow struct {
	ID         string    `sql:"id"`
	Language   string    `sql:"language"`
	Level      string    `sql:"level"`
	Title      string    `sql:"title"`
	Genre      string    `sql:"genre"`
	URL        string    `sql:"url"`
	Transcript string    `sql:"transcript"`
	Vocabulary string    `sql:"vocabulary"`
	Questions  string    `sql:"questions"`
	CreatedAt  time.Time `sql:"created_at"`
}

type videoRepo struct{ s *Store }

func (r *videoRepo) Save(ctx context.Context, v *Video) error {
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	var vocab, questions string
	if err := encodeAll(&vocab, v.Vocabulary, &questions, v.Questions); err != nil {
		return err
	}
	q := r.s.sb().Insert(tableVideos).
		Columns("id", "language", "level", "title", "genre", "url", "transcript",
			"vocabulary", "questions", "created_at").
		Values(v.ID, v.Language, v.Level, v.Title, v.Genre, v.URL, v.Transcript,
			vocab, questions, v.CreatedAt.UTC()).
		OnConflict(
			entsql.ConflictColumns("id"),
			entsql.ResolveWithNewValues(),
			entsql.ResolveWith(func(u *entsql.UpdateSet) { u.SetIgnore("created_at") }),
		)
	if _, err := r.s.exec(ctx, q); err != nil {
		return fmt.Errorf("save video: %w", err)
	}
	return nil
}

func (r *videoRepo) list(ctx context.Context, q *entsql.Selector) ([]Video, error) {
	var rows []videoRow
	if err := r.s.scanAll(ctx, q, &rows); err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	out := make([]Video, 0, len(rows))
	for _, row := range rows {
		v := Video{
			ID:         row.ID,
			Language:   row.Language,
			Level:      row.Level,
			Title:      row.Title,
			Genre:      row.Genre,
			URL:        row.URL,
			Transcript: row.Transcript,
			CreatedAt:  row.CreatedAt,
		}
		if err := decodeJSON(row.Vocabulary, &v.Vocabulary); err != nil {
			return nil, err
		}
		if err := decodeJSON(row.Questions, &v.Questions); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (r *videoRepo) Get(ctx context.Context, id string) (*Video, error) {
	videos, err := r.list(ctx, r.s.sb().Select().From(entsql.Table(tableVideos)).Where(entsql.EQ("id", id)))
	if err != nil {
		return nil, err
	}
	if len(videos) == 0 {
		return nil, ErrNotFound
	}
	return &videos[0], nil
}

func (r *videoRepo) List(ctx context.Context, f ContentFilter) ([]Video, error) {
	return r.list(ctx, contentQuery(r.s, tableVideos, f))
}
