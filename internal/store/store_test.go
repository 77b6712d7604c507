package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	s, err := Open(dsn)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestAutoMigrationCreatesTables(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	for _, table := range Tables {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table.Name,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s: %v", table.Name, err)
		}
	}
}

func TestProfileUpsertKeepsCreatedAt(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.Profiles()

	if _, err := repo.Get(ctx, "u1", "ja"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(missing) error = %v, want ErrNotFound", err)
	}

	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p := &LearnerProfile{
		UserID:          "u1",
		Language:        "ja",
		Skills:          Skills{Vocabulary: 40, Reading: 20},
		AbilityEstimate: -0.5,
		Interests:       []string{"mystery", "food"},
		CreatedAt:       created,
		UpdatedAt:       created,
	}
	if err := repo.Upsert(ctx, p); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	p.Skills.Vocabulary = 55
	p.CreatedAt = created.Add(48 * time.Hour)
	p.UpdatedAt = created.Add(48 * time.Hour)
	if err := repo.Upsert(ctx, p); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err := repo.Get(ctx, "u1", "ja")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Skills.Vocabulary != 55 {
		t.Errorf("Vocabulary = %v, want 55", got.Skills.Vocabulary)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created)
	}
	if len(got.Interests) != 2 || got.Interests[0] != "mystery" {
		t.Errorf("Interests = %v", got.Interests)
	}
}

func TestSkillSnapshotRange(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.SkillSnapshots()

	for i, day := range []string{"2026-03-01", "2026-03-02", "2026-03-03"} {
		err := repo.Upsert(ctx, SkillSnapshot{
			UserID: "u1", Language: "ja", Day: day,
			Skills: Skills{Vocabulary: float64(10 * (i + 1))},
		})
		if err != nil {
			t.Fatalf("upsert %s: %v", day, err)
		}
	}
	// Same day again replaces the row.
	if err := repo.Upsert(ctx, SkillSnapshot{UserID: "u1", Language: "ja", Day: "2026-03-02", Skills: Skills{Vocabulary: 99}}); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}

	got, err := repo.Range(ctx, "u1", "ja", "2026-03-02", "2026-03-03")
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Day != "2026-03-02" || got[0].Skills.Vocabulary != 99 {
		t.Errorf("first = %+v", got[0])
	}
}

func newVocab(id, word string, next time.Time) *VocabularyItem {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return &VocabularyItem{
		ID:           id,
		UserID:       "u1",
		Language:     "ja",
		Word:         word,
		Definitions:  []string{"def of " + word},
		MasteryState: "new",
		NextReviewAt: next,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestVocabularyCreateDuplicate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.Vocabulary()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	if err := repo.Create(ctx, newVocab("v1", "猫", now)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(ctx, newVocab("v2", "猫", now)); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("duplicate create error = %v, want ErrDuplicate", err)
	}

	got, err := repo.FindByWord(ctx, "u1", "ja", "猫")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.ID != "v1" || len(got.Definitions) != 1 {
		t.Errorf("got %+v", got)
	}
	if got.LastReviewedAt != nil {
		t.Errorf("LastReviewedAt = %v, want nil", got.LastReviewedAt)
	}
}

func TestVocabularyDueAndCounts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.Vocabulary()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	items := []*VocabularyItem{
		newVocab("v1", "犬", now.Add(-2*time.Hour)),
		newVocab("v2", "猫", now.Add(-time.Hour)),
		newVocab("v3", "鳥", now.Add(time.Hour)),
	}
	items[2].MasteryState = "learning"
	for _, it := range items {
		if err := repo.Create(ctx, it); err != nil {
			t.Fatalf("create %s: %v", it.ID, err)
		}
	}

	due, err := repo.Due(ctx, "u1", "ja", now, 10)
	if err != nil {
		t.Fatalf("due: %v", err)
	}
	if len(due) != 2 || due[0].ID != "v1" || due[1].ID != "v2" {
		t.Errorf("due = %v", due)
	}

	n, err := repo.DueCount(ctx, "u1", "ja", now)
	if err != nil {
		t.Fatalf("due count: %v", err)
	}
	if n != 2 {
		t.Errorf("DueCount = %d, want 2", n)
	}

	counts, err := repo.CountByState(ctx, "u1", "ja")
	if err != nil {
		t.Fatalf("count by state: %v", err)
	}
	if counts["new"] != 2 || counts["learning"] != 1 {
		t.Errorf("counts = %v", counts)
	}

	words, err := repo.Words(ctx, "u1", "ja")
	if err != nil {
		t.Fatalf("words: %v", err)
	}
	if len(words) != 3 {
		t.Errorf("words = %v", words)
	}
}

func TestVocabularyUpdate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.Vocabulary()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	it := newVocab("v1", "水", now)
	if err := repo.Create(ctx, it); err != nil {
		t.Fatalf("create: %v", err)
	}

	it.MasteryState = "learning"
	it.Stage = 1
	it.ReviewCount = 1
	it.NextReviewAt = now.Add(24 * time.Hour)
	it.LastReviewedAt = &now
	if err := repo.Update(ctx, it); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := repo.Get(ctx, "v1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.MasteryState != "learning" || got.Stage != 1 {
		t.Errorf("got %+v", got)
	}
	if got.LastReviewedAt == nil || !got.LastReviewedAt.Equal(now) {
		t.Errorf("LastReviewedAt = %v, want %v", got.LastReviewedAt, now)
	}

	if err := repo.Update(ctx, &VocabularyItem{ID: "missing"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("update missing error = %v, want ErrNotFound", err)
	}
}

func TestDeckSaveReplacesWords(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.Decks()

	d := &Deck{ID: "n5-core", Language: "ja", Name: "N5 Core", Level: "N5"}
	words := []DeckWord{{Word: "一"}, {Word: "二"}, {Word: "三"}}
	if err := repo.Save(ctx, d, words); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.Save(ctx, d, words[:2]); err != nil {
		t.Fatalf("re-save: %v", err)
	}

	got, err := repo.Get(ctx, "n5-core")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.TotalWords != 2 {
		t.Errorf("TotalWords = %d, want 2", got.TotalWords)
	}

	page, err := repo.Words(ctx, "n5-core", 1, 10)
	if err != nil {
		t.Fatalf("words: %v", err)
	}
	if len(page) != 1 || page[0].Word != "二" || page[0].Position != 1 {
		t.Errorf("page = %+v", page)
	}
}

func TestSubscriptionLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.Subscriptions()

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	sub := &DeckSubscription{
		ID: "s1", UserID: "u1", DeckID: "d1", Status: "active",
		TotalWordsInDeck: 100, DailyNewCards: 10, CreatedAt: now, UpdatedAt: now,
	}
	if err := repo.Create(ctx, sub); err != nil {
		t.Fatalf("create: %v", err)
	}
	dup := *sub
	dup.ID = "s2"
	if err := repo.Create(ctx, &dup); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("duplicate error = %v, want ErrDuplicate", err)
	}

	sub.WordsAdded = 10
	sub.LastDripDate = "2026-03-01"
	if err := repo.Update(ctx, sub); err != nil {
		t.Fatalf("update: %v", err)
	}

	active, err := repo.ListByStatus(ctx, "active")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(active) != 1 || active[0].WordsAdded != 10 || active[0].LastDripDate != "2026-03-01" {
		t.Errorf("active = %+v", active)
	}

	if err := repo.Delete(ctx, "u1", "d1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Get(ctx, "u1", "d1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("get after delete error = %v, want ErrNotFound", err)
	}
}

func TestViewRecordKeepsCompleted(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.Views()

	t0 := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	if err := repo.Record(ctx, ContentView{UserID: "u1", ContentType: "story", ContentID: "st1", Completed: true, ViewedAt: t0}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := repo.Record(ctx, ContentView{UserID: "u1", ContentType: "story", ContentID: "st1", ViewedAt: t0.Add(time.Hour)}); err != nil {
		t.Fatalf("re-record: %v", err)
	}

	views, err := repo.List(ctx, "u1", "story")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("len = %d, want 1", len(views))
	}
	if !views[0].Completed {
		t.Error("completed view was reset")
	}
	if !views[0].ViewedAt.Equal(t0.Add(time.Hour)) {
		t.Errorf("ViewedAt = %v", views[0].ViewedAt)
	}

	since, err := repo.Since(ctx, "u1", t0.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("since: %v", err)
	}
	if len(since) != 0 {
		t.Errorf("since = %v, want none", since)
	}
}

func TestStorySaveAndMissingQuestions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.Stories()

	withQs := &Story{
		ID: "st1", Language: "ja", Level: "N5", Title: "Cat", Genre: "slice-of-life",
		Chapters:  []Chapter{{Title: "One", Paragraphs: []string{"猫がいます。"}}},
		Questions: []Question{{Question: "Who?", Options: []string{"cat", "dog"}}},
	}
	bare := &Story{ID: "st2", Language: "ja", Level: "N4", Title: "Dog", Genre: "adventure"}
	for _, st := range []*Story{withQs, bare} {
		if err := repo.Save(ctx, st); err != nil {
			t.Fatalf("save %s: %v", st.ID, err)
		}
	}

	got, err := repo.Get(ctx, "st1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Chapters) != 1 || got.Chapters[0].Paragraphs[0] != "猫がいます。" {
		t.Errorf("chapters = %+v", got.Chapters)
	}

	missing, err := repo.MissingQuestions(ctx, 10)
	if err != nil {
		t.Fatalf("missing questions: %v", err)
	}
	if len(missing) != 1 || missing[0].ID != "st2" {
		t.Errorf("missing = %+v", missing)
	}

	n5, err := repo.List(ctx, ContentFilter{Language: "ja", Level: "N5"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(n5) != 1 || n5[0].ID != "st1" {
		t.Errorf("list N5 = %+v", n5)
	}
}

func TestVideoSaveAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.Videos()

	v := &Video{ID: "vid1", Language: "ja", Level: "N3", Title: "Ramen", URL: "https://example.com/v.mp4", Vocabulary: []string{"麺"}}
	if err := repo.Save(ctx, v); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := repo.Get(ctx, "vid1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.URL != v.URL || len(got.Vocabulary) != 1 {
		t.Errorf("got %+v", got)
	}
	if _, err := repo.Get(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("get missing error = %v", err)
	}
}

func TestDictionaryLookup(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.Dictionary()

	n, err := repo.Insert(ctx, []DictionaryEntry{
		{Language: "ja", Word: "猫", Reading: "ねこ", Meanings: []string{"cat"}},
		{Language: "ja", Word: "猫舌", Reading: "ねこじた", Meanings: []string{"sensitive to hot food"}},
		{Language: "ja", Word: "犬", Reading: "いぬ", Meanings: []string{"dog"}},
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if n != 3 {
		t.Errorf("inserted = %d, want 3", n)
	}

	exact, err := repo.Exact(ctx, "ja", "ねこ")
	if err != nil {
		t.Fatalf("exact: %v", err)
	}
	if len(exact) != 1 || exact[0].Word != "猫" || exact[0].Meanings[0] != "cat" {
		t.Errorf("exact = %+v", exact)
	}

	prefix, err := repo.Prefix(ctx, "ja", "猫", 10)
	if err != nil {
		t.Fatalf("prefix: %v", err)
	}
	if len(prefix) != 2 {
		t.Errorf("prefix = %+v", prefix)
	}
}

func TestMediaEncodedAfter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.Media()

	assets := []MediaAsset{
		{ID: "a", Kind: MediaImage, OwnerID: "st1", URL: "https://cdn.example.com/%E7%8C%AB.png"},
		{ID: "b", Kind: MediaImage, OwnerID: "st1", URL: "https://cdn.example.com/plain.png"},
		{ID: "c", Kind: MediaWordAudio, OwnerID: "w1", URL: "https://cdn.example.com/%E7%8A%AC.mp3"},
	}
	for _, a := range assets {
		if err := repo.Upsert(ctx, a); err != nil {
			t.Fatalf("upsert %s: %v", a.ID, err)
		}
	}

	got, err := repo.EncodedAfter(ctx, "", 10)
	if err != nil {
		t.Fatalf("encoded: %v", err)
	}
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Errorf("encoded = %+v", got)
	}

	got, err = repo.EncodedAfter(ctx, "a", 10)
	if err != nil {
		t.Fatalf("encoded after a: %v", err)
	}
	if len(got) != 1 || got[0].ID != "c" {
		t.Errorf("encoded after a = %+v", got)
	}

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	if err := repo.UpdateURL(ctx, "a", "https://cdn.example.com/猫.png", now); err != nil {
		t.Fatalf("update url: %v", err)
	}
	a, err := repo.Get(ctx, "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if a.URL != "https://cdn.example.com/猫.png" {
		t.Errorf("URL = %q", a.URL)
	}
}

func TestJobLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.Jobs()

	j := &GenerationJob{ID: "job_deadbeef", Status: "queued", Request: `{"jlpt_level":"N5"}`}
	if err := repo.Create(ctx, j); err != nil {
		t.Fatalf("create: %v", err)
	}
	j.Status = "completed"
	j.Progress = 100
	j.StoryID = "st1"
	if err := repo.Update(ctx, j); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := repo.Get(ctx, "job_deadbeef")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != "completed" || got.StoryID != "st1" || got.Request != j.Request {
		t.Errorf("got %+v", got)
	}

	queued, err := repo.ListByStatus(ctx, "queued")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(queued) != 0 {
		t.Errorf("queued = %+v", queued)
	}
}

func TestLLMEventsAndUsage(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.EventRepo()

	events := []LLMRequestEventData{
		{Provider: "gemini", Model: "m1", Purpose: "story-gen", InputTokens: 100, OutputTokens: 400, LatencyMs: 1000, Success: true},
		{Provider: "gemini", Model: "m1", Purpose: "story-gen", InputTokens: 50, OutputTokens: 200, LatencyMs: 3000, Success: true},
		{Provider: "openai", Model: "m2", Purpose: "question-gen", InputTokens: 10, OutputTokens: 20, LatencyMs: 500},
	}
	for _, e := range events {
		if err := repo.AppendLLMRequest(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	recs, err := repo.QueryLLMEvents(ctx, QueryOpts{Limit: 2})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(recs) != 2 || recs[0].Model != "m2" {
		t.Errorf("query = %+v", recs)
	}

	stories, err := repo.QueryLLMEvents(ctx, QueryOpts{Purpose: "story-gen"})
	if err != nil {
		t.Fatalf("query by purpose: %v", err)
	}
	if len(stories) != 2 {
		t.Errorf("story-gen events = %d, want 2", len(stories))
	}

	rec, err := repo.GetLLMEvent(ctx, recs[0].ID)
	if err != nil || rec == nil {
		t.Fatalf("get: %v %v", rec, err)
	}
	missing, err := repo.GetLLMEvent(ctx, 9999)
	if err != nil || missing != nil {
		t.Errorf("get missing = %v, %v", missing, err)
	}

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	if err != nil {
		t.Fatalf("usage by purpose: %v", err)
	}
	if len(byPurpose) != 2 {
		t.Fatalf("byPurpose = %+v", byPurpose)
	}
	story := byPurpose[1]
	if story.Purpose != "story-gen" || story.Calls != 2 || story.InputTokens != 150 || story.AvgLatencyMs != 2000 {
		t.Errorf("story-gen stats = %+v", story)
	}

	byModel, err := repo.LLMUsageByModel(ctx)
	if err != nil {
		t.Fatalf("usage by model: %v", err)
	}
	if len(byModel) != 2 || byModel[0].Model != "m1" || byModel[0].OutputTokens != 600 {
		t.Errorf("byModel = %+v", byModel)
	}
}

func TestTxRollback(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.Tx(ctx, func(tx *Store) error {
		if err := tx.Media().Upsert(ctx, MediaAsset{ID: "x", Kind: MediaImage, URL: "u"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Tx error = %v, want boom", err)
	}
	if _, err := s.Media().Get(ctx, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("rolled back asset still present: %v", err)
	}
}
