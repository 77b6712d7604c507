package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

type deckRow struct {
	ID          string    `sql:"id"`
	Language    string    `sql:"language"`
	Name        string    `sql:"name"`
	Level       string    `sql:"level"`
	Description string    `sql:"description"`
	TotalWords  int       `sql:"total_words"`
	CreatedAt   time.Time `sql:"created_at"`
}

func (row deckRow) deck() Deck {
	return Deck(row)
}

type deckWordRow struct {
	DeckID      string `sql:"deck_id"`
	Position    int    `sql:"position"`
	Word        string `sql:"word"`
	Reading     string `sql:"reading"`
	Definitions string `sql:"definitions"`
}

type deckRepo struct{ s *Store }

func (r *deckRepo) Save(ctx context.Context, d *Deck, words []DeckWord) error {
	d.TotalWords = len(words)
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	return r.s.Tx(ctx, func(tx *Store) error {
		upsert := tx.sb().Insert(tableDecks).
			Columns("id", "language", "name", "level", "description", "total_words", "created_at").
			Values(d.ID, d.Language, d.Name, d.Level, d.Description, d.TotalWords, d.CreatedAt.UTC()).
			OnConflict(
				entsql.ConflictColumns("id"),
				entsql.ResolveWithNewValues(),
				entsql.ResolveWith(func(u *entsql.UpdateSet) { u.SetIgnore("created_at") }),
			)
		if _, err := tx.exec(ctx, upsert); err != nil {
			return fmt.Errorf("save deck: %w", err)
		}

		del := tx.sb().Delete(tableDeckWords).Where(entsql.EQ("deck_id", d.ID))
		if _, err := tx.exec(ctx, del); err != nil {
			return fmt.Errorf("clear deck words: %w", err)
		}
		if len(words) == 0 {
			return nil
		}

		ins := tx.sb().Insert(tableDeckWords).
			Columns("deck_id", "position", "word", "reading", "definitions")
		for i, w := range words {
			defs, err := encodeJSON(w.Definitions)
			if err != nil {
				return err
			}
			ins.Values(d.ID, i, w.Word, w.Reading, defs)
		}
		if _, err := tx.exec(ctx, ins); err != nil {
			return fmt.Errorf("save deck words: %w", err)
		}
		return nil
	})
}

func (r *deckRepo) Get(ctx context.Context, id string) (*Deck, error) {
	q := r.s.sb().Select().From(entsql.Table(tableDecks)).Where(entsql.EQ("id", id))
	var rows []deckRow
	if err := r.s.scanAll(ctx, q, &rows); err != nil {
		return nil, fmt.Errorf("get deck: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	d := rows[0].deck()
	return &d, nil
}

func (r *deckRepo) List(ctx context.Context, language string) ([]Deck, error) {
	q := r.s.sb().Select().From(entsql.Table(tableDecks)).
		OrderBy(entsql.Asc("level"), entsql.Asc("name"))
	if language != "" {
		q.Where(entsql.EQ("language", language))
	}
	var rows []deckRow
	if err := r.s.scanAll(ctx, q, &rows); err != nil {
		return nil, fmt.Errorf("list decks: %w", err)
	}
	out := make([]Deck, len(rows))
	for i, row := range rows {
		out[i] = row.deck()
	}
	return out, nil
}

func (r *deckRepo) Words(ctx context.Context, deckID string, from, limit int) ([]DeckWord, error) {
	q := r.s.sb().Select().From(entsql.Table(tableDeckWords)).
		Where(entsql.And(entsql.EQ("deck_id", deckID), entsql.GTE("position", from))).
		OrderBy(entsql.Asc("position"))
	if limit > 0 {
		q.Limit(limit)
	}
	var rows []deckWordRow
	if err := r.s.scanAll(ctx, q, &rows); err != nil {
		return nil, fmt.Errorf("list deck words: %w", err)
	}
	out := make([]DeckWord, len(rows))
	for i, row := range rows {
		out[i] = DeckWord{
			DeckID:   row.DeckID,
			Position: row.Position,
			Word:     row.Word,
			Reading:  row.Reading,
		}
		if err := decodeJSON(row.Definitions, &out[i].Definitions); err != nil {
			return nil, err
		}
	}
	return out, nil
}

type subscriptionRow struct {
	ID               string    `sql:"id"`
	UserID           string    `sql:"user_id"`
	DeckID           string    `sql:"deck_id"`
	Status           string    `sql:"status"`
	TotalWordsInDeck int       `sql:"total_words_in_deck"`
	WordsAdded       int       `sql:"words_added"`
	WordsStudied     int       `sql:"words_studied"`
	DailyNewCards    int       `sql:"daily_new_cards"`
	CardsAddedToday  int       `sql:"cards_added_today"`
	LastDripDate     string    `sql:"last_drip_date"`
	CreatedAt        time.Time `sql:"created_at"`
	UpdatedAt        time.Time `sql:"updated_at"`
}

type subscriptionRepo struct{ s *Store }

func (r *subscriptionRepo) Create(ctx context.Context, sub *DeckSubscription) error {
	q := r.s.sb().Insert(tableSubscriptions).
		Columns("id", "user_id", "deck_id", "status", "total_words_in_deck", "words_added",
			"words_studied", "daily_new_cards", "cards_added_today", "last_drip_date",
			"created_at", "updated_at").
		Values(sub.ID, sub.UserID, sub.DeckID, sub.Status, sub.TotalWordsInDeck, sub.WordsAdded,
			sub.WordsStudied, sub.DailyNewCards, sub.CardsAddedToday, sub.LastDripDate,
			sub.CreatedAt.UTC(), sub.UpdatedAt.UTC())
	if _, err := r.s.exec(ctx, q); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create subscription: %w", err)
	}
	return nil
}

func (r *subscriptionRepo) list(ctx context.Context, p *entsql.Predicate) ([]DeckSubscription, error) {
	q := r.s.sb().Select().From(entsql.Table(tableSubscriptions)).
		Where(p).
		OrderBy(entsql.Asc("created_at"), entsql.Asc("id"))
	var rows []subscriptionRow
	if err := r.s.scanAll(ctx, q, &rows); err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	out := make([]DeckSubscription, len(rows))
	for i, row := range rows {
		out[i] = DeckSubscription(row)
	}
	return out, nil
}

func (r *subscriptionRepo) Get(ctx context.Context, userID, deckID string) (*DeckSubscription, error) {
	subs, err := r.list(ctx, entsql.And(entsql.EQ("user_id", userID), entsql.EQ("deck_id", deckID)))
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, ErrNotFound
	}
	return &subs[0], nil
}

func (r *subscriptionRepo) ListByUser(ctx context.Context, userID string) ([]DeckSubscription, error) {
	return r.list(ctx, entsql.EQ("user_id", userID))
}

func (r *subscriptionRepo) ListByStatus(ctx context.Context, status string) ([]DeckSubscription, error) {
	return r.list(ctx, entsql.EQ("status", status))
}

func (r *subscriptionRepo) Update(ctx context.Context, sub *DeckSubscription) error {
	u := r.s.sb().Update(tableSubscriptions).
		Set("status", sub.Status).
		Set("total_words_in_deck", sub.TotalWordsInDeck).
		Set("words_added", sub.WordsAdded).
		Set("words_studied", sub.WordsStudied).
		Set("daily_new_cards", sub.DailyNewCards).
		Set("cards_added_today", sub.CardsAddedToday).
		Set("last_drip_date", sub.LastDripDate).
		Set("updated_at", sub.UpdatedAt.UTC()).
		Where(entsql.EQ("id", sub.ID))
	res, err := r.s.exec(ctx, u)
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	return affected(res)
}

func (r *subscriptionRepo) Delete(ctx context.Context, userID, deckID string) error {
	d := r.s.sb().Delete(tableSubscriptions).
		Where(entsql.And(entsql.EQ("user_id", userID), entsql.EQ("deck_id", deckID)))
	res, err := r.s.exec(ctx, d)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return affected(res)
}
