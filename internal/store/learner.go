package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

type profileRow struct {
	UserID            string    `sql:"user_id"`
	Language          string    `sql:"language"`
	Vocabulary        float64   `sql:"vocabulary"`
	Grammar           float64   `sql:"grammar"`
	Reading           float64   `sql:"reading"`
	Listening         float64   `sql:"listening"`
	Writing           float64   `sql:"writing"`
	Speaking          float64   `sql:"speaking"`
	AbilityEstimate   float64   `sql:"ability_estimate"`
	AbilityConfidence float64   `sql:"ability_confidence"`
	Activities        int       `sql:"activities"`
	Readiness         string    `sql:"readiness"`
	Interests         string    `sql:"interests"`
	CreatedAt         time.Time `sql:"created_at"`
	UpdatedAt         time.Time `sql:"updated_at"`
}

type profileRepo struct{ s *Store }

func (r *profileRepo) Get(ctx context.Context, userID, language string) (*LearnerProfile, error) {
	q := r.s.sb().Select().From(entsql.Table(tableProfiles)).
		Where(entsql.And(entsql.EQ("user_id", userID), entsql.EQ("language", language)))
	var rows []profileRow
	if err := r.s.scanAll(ctx, q, &rows); err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	row := rows[0]
	p := &LearnerProfile{
		UserID:   row.UserID,
		Language: row.Language,
		Skills: Skills{
			Vocabulary: row.Vocabulary,
			Grammar:    row.Grammar,
			Reading:    row.Reading,
			Listening:  row.Listening,
			Writing:    row.Writing,
			Speaking:   row.Speaking,
		},
		AbilityEstimate:   row.AbilityEstimate,
		AbilityConfidence: row.AbilityConfidence,
		Activities:        row.Activities,
		Readiness:         row.Readiness,
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
	}
	if err := decodeJSON(row.Interests, &p.Interests); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *profileRepo) Upsert(ctx context.Context, p *LearnerProfile) error {
	interests, err := encodeJSON(p.Interests)
	if err != nil {
		return err
	}
	q := r.s.sb().Insert(tableProfiles).
		Columns("user_id", "language", "vocabulary", "grammar", "reading", "listening",
			"writing", "speaking", "ability_estimate", "ability_confidence", "activities",
			"readiness", "interests", "created_at", "updated_at").
		Values(p.UserID, p.Language, p.Skills.Vocabulary, p.Skills.Grammar, p.Skills.Reading,
			p.Skills.Listening, p.Skills.Writing, p.Skills.Speaking, p.AbilityEstimate,
			p.AbilityConfidence, p.Activities, p.Readiness, interests, p.CreatedAt.UTC(), p.UpdatedAt.UTC()).
		OnConflict(
			entsql.ConflictColumns("user_id", "language"),
			entsql.ResolveWithNewValues(),
			entsql.ResolveWith(func(u *entsql.UpdateSet) { u.SetIgnore("created_at") }),
		)
	if _, err := r.s.exec(ctx, q); err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

type snapshotRow struct {
	UserID          string  `sql:"user_id"`
	Language        string  `sql:"language"`
	Day             string  `sql:"day"`
	Vocabulary      float64 `sql:"vocabulary"`
	Grammar         float64 `sql:"grammar"`
	Reading         float64 `sql:"reading"`
	Listening       float64 `sql:"listening"`
	Writing         float64 `sql:"writing"`
	Speaking        float64 `sql:"speaking"`
	AbilityEstimate float64 `sql:"ability_estimate"`
}

type skillSnapshotRepo struct{ s *Store }

func (r *skillSnapshotRepo) Upsert(ctx context.Context, snap SkillSnapshot) error {
	sk := snap.Skills
	q := r.s.sb().Insert(tableSnapshots).
		Columns("user_id", "language", "day", "vocabulary", "grammar", "reading",
			"listening", "writing", "speaking", "ability_estimate").
		Values(snap.UserID, snap.Language, snap.Day, sk.Vocabulary, sk.Grammar, sk.Reading,
			sk.Listening, sk.Writing, sk.Speaking, snap.AbilityEstimate).
		OnConflict(
			entsql.ConflictColumns("user_id", "language", "day"),
			entsql.ResolveWithNewValues(),
		)
	if _, err := r.s.exec(ctx, q); err != nil {
		return fmt.Errorf("upsert skill snapshot: %w", err)
	}
	return nil
}

func (r *skillSnapshotRepo) Range(ctx context.Context, userID, language, fromDay, toDay string) ([]SkillSnapshot, error) {
	q := r.s.sb().Select().From(entsql.Table(tableSnapshots)).
		Where(entsql.And(
			entsql.EQ("user_id", userID),
			entsql.EQ("language", language),
			entsql.GTE("day", fromDay),
			entsql.LTE("day", toDay),
		)).
		OrderBy(entsql.Asc("day"))
	var rows []snapshotRow
	if err := r.s.scanAll(ctx, q, &rows); err != nil {
		return nil, fmt.Errorf("range skill snapshots: %w", err)
	}
	out := make([]SkillSnapshot, len(rows))
	for i, row := range rows {
		out[i] = SkillSnapshot{
			UserID:   row.UserID,
			Language: row.Language,
			Day:      row.Day,
			Skills: Skills{
				Vocabulary: row.Vocabulary,
				Grammar:    row.Grammar,
				Reading:    row.Reading,
				Listening:  row.Listening,
				Writing:    row.Writing,
				Speaking:   row.Speaking,
			},
			AbilityEstimate: row.AbilityEstimate,
		}
	}
	return out, nil
}
