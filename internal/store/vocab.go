package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/lib/pq"
)

type vocabRow struct {
	ID              string     `sql:"id"`
	UserID          string     `sql:"user_id"`
	Language        string     `sql:"language"`
	Word            string     `sql:"word"`
	Reading         string     `sql:"reading"`
	Definitions     string     `sql:"definitions"`
	MasteryState    string     `sql:"mastery_state"`
	SourceDeckID    string     `sql:"source_deck_id"`
	Stage           int        `sql:"stage"`
	ConsecutiveHits int        `sql:"consecutive_hits"`
	ReviewCount     int        `sql:"review_count"`
	NextReviewAt    time.Time  `sql:"next_review_at"`
	LastReviewedAt  *time.Time `sql:"last_reviewed_at"`
	CreatedAt       time.Time  `sql:"created_at"`
	UpdatedAt       time.Time  `sql:"updated_at"`
}

func (row vocabRow) item() (VocabularyItem, error) {
	it := VocabularyItem{
		ID:              row.ID,
		UserID:          row.UserID,
		Language:        row.Language,
		Word:            row.Word,
		Reading:         row.Reading,
		MasteryState:    row.MasteryState,
		SourceDeckID:    row.SourceDeckID,
		Stage:           row.Stage,
		ConsecutiveHits: row.ConsecutiveHits,
		ReviewCount:     row.ReviewCount,
		NextReviewAt:    row.NextReviewAt,
		LastReviewedAt:  row.LastReviewedAt,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
	err := decodeJSON(row.Definitions, &it.Definitions)
	return it, err
}

type vocabRepo struct{ s *Store }

func (r *vocabRepo) Create(ctx context.Context, it *VocabularyItem) error {
	if _, err := r.FindByWord(ctx, it.UserID, it.Language, it.Word); err == nil {
		return ErrDuplicate
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	defs, err := encodeJSON(it.Definitions)
	if err != nil {
		return err
	}
	q := r.s.sb().Insert(tableVocabulary).
		Columns("id", "user_id", "language", "word", "reading", "definitions", "mastery_state",
			"source_deck_id", "stage", "consecutive_hits", "review_count", "next_review_at",
			"last_reviewed_at", "created_at", "updated_at").
		Values(it.ID, it.UserID, it.Language, it.Word, it.Reading, defs, it.MasteryState,
			it.SourceDeckID, it.Stage, it.ConsecutiveHits, it.ReviewCount, it.NextReviewAt.UTC(),
			utcPtr(it.LastReviewedAt), it.CreatedAt.UTC(), it.UpdatedAt.UTC())
	if _, err := r.s.exec(ctx, q); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create vocabulary item: %w", err)
	}
	return nil
}

func (r *vocabRepo) one(ctx context.Context, p *entsql.Predicate) (*VocabularyItem, error) {
	q := r.s.sb().Select().From(entsql.Table(tableVocabulary)).Where(p).Limit(1)
	var rows []vocabRow
	if err := r.s.scanAll(ctx, q, &rows); err != nil {
		return nil, fmt.Errorf("get vocabulary item: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	it, err := rows[0].item()
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *vocabRepo) Get(ctx context.Context, id string) (*VocabularyItem, error) {
	return r.one(ctx, entsql.EQ("id", id))
}

func (r *vocabRepo) FindByWord(ctx context.Context, userID, language, word string) (*VocabularyItem, error) {
	return r.one(ctx, entsql.And(
		entsql.EQ("user_id", userID),
		entsql.EQ("language", language),
		entsql.EQ("word", word),
	))
}

func (r *vocabRepo) list(ctx context.Context, q *entsql.Selector) ([]VocabularyItem, error) {
	var rows []vocabRow
	if err := r.s.scanAll(ctx, q, &rows); err != nil {
		return nil, fmt.Errorf("list vocabulary: %w", err)
	}
	out := make([]VocabularyItem, 0, len(rows))
	for _, row := range rows {
		it, err := row.item()
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, nil
}

func (r *vocabRepo) List(ctx context.Context, f VocabFilter) ([]VocabularyItem, error) {
	preds := []*entsql.Predicate{entsql.EQ("user_id", f.UserID)}
	if f.Language != "" {
		preds = append(preds, entsql.EQ("language", f.Language))
	}
	if f.MasteryState != "" {
		preds = append(preds, entsql.EQ("mastery_state", f.MasteryState))
	}
	if f.SourceDeckID != "" {
		preds = append(preds, entsql.EQ("source_deck_id", f.SourceDeckID))
	}
	q := r.s.sb().Select().From(entsql.Table(tableVocabulary)).
		Where(entsql.And(preds...)).
		OrderBy(entsql.Asc("created_at"), entsql.Asc("id"))
	if f.Limit > 0 {
		q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q.Offset(f.Offset)
	}
	return r.list(ctx, q)
}

func (r *vocabRepo) Update(ctx context.Context, it *VocabularyItem) error {
	defs, err := encodeJSON(it.Definitions)
	if err != nil {
		return err
	}
	u := r.s.sb().Update(tableVocabulary).
		Set("reading", it.Reading).
		Set("definitions", defs).
		Set("mastery_state", it.MasteryState).
		Set("stage", it.Stage).
		Set("consecutive_hits", it.ConsecutiveHits).
		Set("review_count", it.ReviewCount).
		Set("next_review_at", it.NextReviewAt.UTC()).
		Set("updated_at", it.UpdatedAt.UTC()).
		Where(entsql.EQ("id", it.ID))
	if it.LastReviewedAt != nil {
		u.Set("last_reviewed_at", it.LastReviewedAt.UTC())
	} else {
		u.SetNull("last_reviewed_at")
	}
	res, err := r.s.exec(ctx, u)
	if err != nil {
		return fmt.Errorf("update vocabulary item: %w", err)
	}
	return affected(res)
}

func (r *vocabRepo) CountByState(ctx context.Context, userID, language string) (map[string]int, error) {
	q := r.s.sb().Select("mastery_state", entsql.As(entsql.Count("*"), "n")).
		From(entsql.Table(tableVocabulary)).
		Where(entsql.And(entsql.EQ("user_id", userID), entsql.EQ("language", language))).
		GroupBy("mastery_state")
	var rows []struct {
		State string `sql:"mastery_state"`
		N     int    `sql:"n"`
	}
	if err := r.s.scanAll(ctx, q, &rows); err != nil {
		return nil, fmt.Errorf("count vocabulary by state: %w", err)
	}
	out := make(map[string]int, len(rows))
	for _, row := range rows {
		out[row.State] = row.N
	}
	return out, nil
}

func duePredicate(userID, language string, now time.Time) *entsql.Predicate {
	return entsql.And(
		entsql.EQ("user_id", userID),
		entsql.EQ("language", language),
		entsql.LTE("next_review_at", now.UTC()),
	)
}

func (r *vocabRepo) Due(ctx context.Context, userID, language string, now time.Time, limit int) ([]VocabularyItem, error) {
	q := r.s.sb().Select().From(entsql.Table(tableVocabulary)).
		Where(duePredicate(userID, language, now)).
		OrderBy(entsql.Asc("next_review_at"), entsql.Asc("id"))
	if limit > 0 {
		q.Limit(limit)
	}
	return r.list(ctx, q)
}

func (r *vocabRepo) DueCount(ctx context.Context, userID, language string, now time.Time) (int, error) {
	q := r.s.sb().Select().Count().From(entsql.Table(tableVocabulary)).
		Where(duePredicate(userID, language, now))
	n, err := r.s.scanInt(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("count due vocabulary: %w", err)
	}
	return n, nil
}

func (r *vocabRepo) Words(ctx context.Context, userID, language string) ([]string, error) {
	q := r.s.sb().Select("word").From(entsql.Table(tableVocabulary)).
		Where(entsql.And(entsql.EQ("user_id", userID), entsql.EQ("language", language)))
	var words []string
	if err := r.s.scanAll(ctx, q, &words); err != nil {
		return nil, fmt.Errorf("list vocabulary words: %w", err)
	}
	return words, nil
}

func (r *vocabRepo) CountCreatedSince(ctx context.Context, userID, language string, since time.Time) (int, error) {
	q := r.s.sb().Select().Count().From(entsql.Table(tableVocabulary)).
		Where(entsql.And(
			entsql.EQ("user_id", userID),
			entsql.EQ("language", language),
			entsql.GTE("created_at", since.UTC()),
		))
	n, err := r.s.scanInt(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("count new vocabulary: %w", err)
	}
	return n, nil
}

// isUniqueViolation recognizes unique-key errors from both drivers.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
