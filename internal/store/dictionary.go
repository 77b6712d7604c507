package store

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

type dictionaryRow struct {
	ID           int64  `sql:"id"`
	Language     string `sql:"language"`
	Word         string `sql:"word"`
	Reading      string `sql:"reading"`
	Meanings     string `sql:"meanings"`
	PartOfSpeech string `sql:"part_of_speech"`
	Level        string `sql:"level"`
}

type dictionaryRepo struct{ s *Store }

// dictionaryBatch bounds the number of rows per INSERT statement.
const dictionaryBatch = 200

func (r *dictionaryRepo) Insert(ctx context.Context, entries []DictionaryEntry) (int, error) {
	n := 0
	err := r.s.Tx(ctx, func(tx *Store) error {
		for start := 0; start < len(entries); start += dictionaryBatch {
			end := min(start+dictionaryBatch, len(entries))
			q := tx.sb().Insert(tableDictionary).
				Columns("language", "word", "reading", "meanings", "part_of_speech", "level")
			for _, e := range entries[start:end] {
				meanings, err := encodeJSON(e.Meanings)
				if err != nil {
					return err
				}
				q.Values(e.Language, e.Word, e.Reading, meanings, e.PartOfSpeech, e.Level)
			}
			res, err := tx.exec(ctx, q)
			if err != nil {
				return fmt.Errorf("insert dictionary entries: %w", err)
			}
			rows, err := res.RowsAffected()
			if err != nil {
				return err
			}
			n += int(rows)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (r *dictionaryRepo) find(ctx context.Context, q *entsql.Selector) ([]DictionaryEntry, error) {
	var rows []dictionaryRow
	if err := r.s.scanAll(ctx, q, &rows); err != nil {
		return nil, fmt.Errorf("search dictionary: %w", err)
	}
	out := make([]DictionaryEntry, len(rows))
	for i, row := range rows {
		out[i] = DictionaryEntry{
			ID:           row.ID,
			Language:     row.Language,
			Word:         row.Word,
			Reading:      row.Reading,
			PartOfSpeech: row.PartOfSpeech,
			Level:        row.Level,
		}
		if err := decodeJSON(row.Meanings, &out[i].Meanings); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *dictionaryRepo) Exact(ctx context.Context, language, term string) ([]DictionaryEntry, error) {
	q := r.s.sb().Select().From(entsql.Table(tableDictionary)).
		Where(entsql.And(
			entsql.EQ("language", language),
			entsql.Or(entsql.EQ("word", term), entsql.EQ("reading", term)),
		)).
		OrderBy(entsql.Asc("id"))
	return r.find(ctx, q)
}

func (r *dictionaryRepo) Prefix(ctx context.Context, language, prefix string, limit int) ([]DictionaryEntry, error) {
	q := r.s.sb().Select().From(entsql.Table(tableDictionary)).
		Where(entsql.And(
			entsql.EQ("language", language),
			entsql.Or(entsql.HasPrefix("word", prefix), entsql.HasPrefix("reading", prefix)),
		)).
		OrderBy(entsql.Asc("word"), entsql.Asc("id"))
	if limit > 0 {
		q.Limit(limit)
	}
	return r.find(ctx, q)
}
