package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/sanlang/internal/authz"
	"github.com/abhisek/sanlang/internal/config"
	"github.com/abhisek/sanlang/internal/decks"
	"github.com/abhisek/sanlang/internal/dictionary"
	"github.com/abhisek/sanlang/internal/learner"
	"github.com/abhisek/sanlang/internal/llm"
	"github.com/abhisek/sanlang/internal/logging"
	"github.com/abhisek/sanlang/internal/mediamigrate"
	"github.com/abhisek/sanlang/internal/objstore"
	"github.com/abhisek/sanlang/internal/progress"
	"github.com/abhisek/sanlang/internal/recommend"
	"github.com/abhisek/sanlang/internal/spacedrep"
	"github.com/abhisek/sanlang/internal/store"
	"github.com/abhisek/sanlang/internal/stories"
	"github.com/abhisek/sanlang/internal/storygen"
	"github.com/abhisek/sanlang/internal/tokenize"
	"github.com/abhisek/sanlang/internal/vocab"
)

const (
	testSecret = "test-secret"
	mediaBase  = "https://media.example.com"
)

var testNow = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	store   *store.Store
	objects *objstore.Memory
	handler http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:api_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	s, err := store.Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	enforcer, err := authz.NewEnforcer("")
	require.NoError(t, err)
	analyzer, err := tokenize.Shared()
	require.NoError(t, err)

	catalog := stories.NewCatalog(s, nil)
	objects := objstore.NewMemory()
	gen := storygen.New(llm.NewMockProvider(), nil, storygen.DefaultConfig())

	cfg := config.Default()
	cfg.Server.RequestsPerMin = 0
	cfg.Auth.JWTSecret = testSecret

	srv := NewServer(cfg.Server, cfg.Auth, Services{
		Store:      s,
		Catalog:    catalog,
		Dictionary: dictionary.NewService(s, 0),
		Learners:   learner.NewService(s, nil),
		Progress:   progress.NewService(s, nil),
		Recommend:  recommend.NewService(s, catalog, recommend.New(nil, recommend.DefaultWeights())),
		Vocab:      vocab.NewService(s),
		Decks:      decks.NewService(s, 5),
		Jobs:       storygen.NewJobs(s, gen, catalog, 1, 4),
		Migrator:   mediamigrate.NewMigrator(s, objects, mediaBase, mediamigrate.WithRateLimit(0)),
		Enforcer:   enforcer,
		Analyzer:   analyzer,
	}, WithClock(func() time.Time { return testNow }), WithMigrationDefaults(cfg.Migration))

	return &testEnv{store: s, objects: objects, handler: srv.Handler()}
}

func token(t *testing.T, userID, role string) string {
	t.Helper()
	claims := jwt.MapClaims{"sub": userID}
	if role != "" {
		claims["role"] = role
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (e *testEnv) do(t *testing.T, method, path, tok string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealthAndRequestID(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc")
	rec = httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	assert.Equal(t, "abc", rec.Header().Get("X-Request-ID"))
}

func TestStoriesEndpoints(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, stories.NewCatalog(e.store, nil).Save(ctx, &store.Story{
		ID: "st1", Language: "ja", Level: "N5", Title: "Momotaro", Genre: "folk-tale",
	}))

	rec := e.do(t, http.MethodGet, "/stories?level=n5&language=ja", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]stories.Summary](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "st1", list[0].ID)

	rec = e.do(t, http.MethodGet, "/stories?level=N1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = e.do(t, http.MethodGet, "/stories/st1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Momotaro", decode[store.Story](t, rec).Title)

	rec = e.do(t, http.MethodGet, "/stories/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decode[errorResponse](t, rec)
	assert.Equal(t, "error", body.Status)
	assert.NotEmpty(t, body.Message)

	rec = e.do(t, http.MethodGet, "/stories?limit=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDictionaryLookup(t *testing.T) {
	e := newTestEnv(t)
	_, err := dictionary.NewService(e.store, 0).Add(context.Background(), []store.DictionaryEntry{
		{Language: "ja", Word: "猫", Reading: "ねこ", Meanings: []string{"cat"}},
	})
	require.NoError(t, err)

	rec := e.do(t, http.MethodGet, "/dictionary?word=ねこ", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[lookupResponse](t, rec)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, "猫", res.Entries[0].Word)

	rec = e.do(t, http.MethodGet, "/dictionary?word=", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthentication(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodGet, "/me/progress", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = e.do(t, http.MethodGet, "/me/progress", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	wrongKey, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u1"}).SignedString([]byte("other"))
	require.NoError(t, err)
	rec = e.do(t, http.MethodGet, "/me/progress", wrongKey, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	rec = e.do(t, http.MethodGet, "/me/progress", noSubject, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = e.do(t, http.MethodGet, "/me/progress?language=ja", token(t, "u1", ""), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthorization(t *testing.T) {
	e := newTestEnv(t)
	req := map[string]any{"language": "ja", "level": "N5", "genre": "mystery"}

	rec := e.do(t, http.MethodPost, "/generate/story", token(t, "u1", authz.RoleLearner), req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = e.do(t, http.MethodPost, "/admin/migrations/media", token(t, "u1", ""), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = e.do(t, http.MethodGet, "/me/vocabulary", token(t, "root", authz.RoleAdmin), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGenerateStoryQueuesJob(t *testing.T) {
	e := newTestEnv(t)
	admin := token(t, "root", authz.RoleAdmin)

	rec := e.do(t, http.MethodPost, "/generate/story", admin,
		map[string]any{"language": "ja", "level": "N5", "genre": "mystery"})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	ack := decode[generateResponse](t, rec)
	assert.Equal(t, storygen.StatusPending, ack.Status)
	assert.NotEmpty(t, ack.StoryID)
	assert.Contains(t, ack.Message, "/generate/status/"+ack.StoryID)

	rec = e.do(t, http.MethodGet, "/generate/status/"+ack.StoryID, admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	job := decode[store.GenerationJob](t, rec)
	assert.Equal(t, ack.StoryID, job.ID)
	assert.Equal(t, storygen.StatusPending, job.Status)

	rec = e.do(t, http.MethodGet, "/generate/status/nope", admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGenerateStoryValidation(t *testing.T) {
	e := newTestEnv(t)
	admin := token(t, "root", authz.RoleAdmin)

	rec := e.do(t, http.MethodPost, "/generate/story", admin, map[string]any{"language": "ja", "level": "N5"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, "/generate/story", admin,
		map[string]any{"language": "ja", "level": "Z9", "genre": "mystery"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVocabularyFlow(t *testing.T) {
	e := newTestEnv(t)
	tok := token(t, "u1", "")

	rec := e.do(t, http.MethodPost, "/me/vocabulary", tok,
		map[string]any{"language": "ja", "word": "猫", "definitions": []string{"cat"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	item := decode[store.VocabularyItem](t, rec)
	assert.Equal(t, "new", item.MasteryState)

	rec = e.do(t, http.MethodPost, "/me/vocabulary", tok, map[string]any{"language": "ja", "word": "猫"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = e.do(t, http.MethodPost, "/me/vocabulary", tok, map[string]any{"language": "ja"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodGet, "/me/vocabulary?language=ja", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	listed := decode[[]vocab.Scheduled](t, rec)
	require.Len(t, listed, 1)
	assert.Equal(t, spacedrep.StatusDue, listed[0].ReviewStatus)
	assert.Equal(t, 0, listed[0].DueInDays)

	rec = e.do(t, http.MethodPost, "/me/vocabulary/"+item.ID+"/review", tok, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, "/me/vocabulary/"+item.ID+"/review", tok, map[string]any{"correct": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[vocab.ReviewResult](t, rec)
	assert.Equal(t, "learning", res.Item.MasteryState)

	rec = e.do(t, http.MethodPost, "/me/vocabulary/"+item.ID+"/review", token(t, "u2", ""), map[string]any{"correct": true})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeckFlow(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, e.store.Decks().Save(ctx, &store.Deck{ID: "core", Language: "ja", Name: "Core", Level: "N5"},
		[]store.DeckWord{
			{Position: 1, Word: "水", Definitions: []string{"water"}},
			{Position: 2, Word: "火", Definitions: []string{"fire"}},
		}))
	tok := token(t, "u1", "")

	rec := e.do(t, http.MethodGet, "/decks?language=ja", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]store.Deck](t, rec), 1)

	rec = e.do(t, http.MethodPost, "/me/decks/drip", tok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(t, http.MethodPost, "/me/decks/missing/subscribe", tok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(t, http.MethodPost, "/me/decks/core/subscribe", tok, map[string]any{"daily_new_cards": 1})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, decks.StatusActive, decode[store.DeckSubscription](t, rec).Status)

	rec = e.do(t, http.MethodPost, "/me/decks/core/subscribe", tok, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = e.do(t, http.MethodPost, "/me/decks/drip", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"水"}, decode[decks.DripResult](t, rec).Added)

	rec = e.do(t, http.MethodPost, "/me/decks/core/activate", tok, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = e.do(t, http.MethodDelete, "/me/decks/core", tok, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = e.do(t, http.MethodGet, "/me/decks", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = e.do(t, http.MethodGet, "/me/vocabulary?language=ja", tok, nil)
	assert.Len(t, decode[[]store.VocabularyItem](t, rec), 1)
}

func TestActivityAndRecommendations(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	catalog := stories.NewCatalog(e.store, nil)
	for _, lvl := range []string{"N5", "N4", "N2"} {
		require.NoError(t, catalog.Save(ctx, &store.Story{ID: "st-" + lvl, Language: "ja", Level: lvl, Title: lvl, Genre: "drama"}))
	}
	tok := token(t, "u1", "")

	rec := e.do(t, http.MethodGet, "/me/recommendations/stories?language=ja&count=5", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[recommend.Result[stories.Summary]](t, rec)
	assert.False(t, res.Loading)
	assert.Equal(t, recommend.ReasonGettingStarted, res.Reason)
	assert.Len(t, res.Items, 2)

	rec = e.do(t, http.MethodGet, "/me/recommendations/stories?count=500", tok, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, "/me/views", tok, map[string]any{"content_type": "story", "content_id": "st-N5"})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = e.do(t, http.MethodPost, "/me/views", tok, map[string]any{"content_type": "podcast", "content_id": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, "/me/activity", tok, map[string]any{
		"language":   "ja",
		"skills":     map[string]float64{"reading": 4},
		"difficulty": -1,
		"correct":    true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	p := decode[store.LearnerProfile](t, rec)
	assert.Equal(t, 4.0, p.Skills.Reading)
	assert.Equal(t, 1, p.Activities)

	rec = e.do(t, http.MethodGet, "/me/profile?language=ja", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[learner.Profile](t, rec).Activities)

	rec = e.do(t, http.MethodGet, "/me/recommendations/videos?language=ja", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[recommend.Result[stories.Video]](t, rec).Items)
}

func TestMigrateMediaEndpoint(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, e.store.Media().Upsert(ctx, store.MediaAsset{
		ID: "w1", Kind: store.MediaWordAudio, OwnerID: "o", URL: mediaBase + "/audio/%E7%8C%AB.mp3x",
	}))
	e.objects.Put("audio/%E7%8C%AB.mp3x", []byte("x"))
	admin := token(t, "root", authz.RoleAdmin)

	rec := e.do(t, http.MethodPost, "/admin/migrations/media", admin, map[string]any{"dry_run": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rep := decode[mediamigrate.Report](t, rec)
	assert.True(t, rep.DryRun)
	require.Len(t, rep.Results, 1)
	assert.Equal(t, mediamigrate.OutcomeDryRun, rep.Results[0].Outcome)

	rec = e.do(t, http.MethodPost, "/admin/migrations/media", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rep = decode[mediamigrate.Report](t, rec)
	assert.Equal(t, 1, rep.Migrated)
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := logging.Logger()
	logging.SetLogger(zerolog.New(&buf))
	t.Cleanup(func() { logging.SetLogger(prev) })
	return &buf
}

func TestRequestLogUsesRealIPAndRoute(t *testing.T) {
	e := newTestEnv(t)
	logs := captureLogs(t)

	req := httptest.NewRequest(http.MethodGet, "/stories/missing", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	out := logs.String()
	assert.Contains(t, out, `"ip":"203.0.113.7"`)
	assert.Contains(t, out, `"route":"/stories/{id}"`)
	assert.Contains(t, out, `"request_id":"req-42"`)
	assert.Contains(t, out, `"status":404`)
}

func TestPanicIsRecoveredAndLogged(t *testing.T) {
	logs := captureLogs(t)
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RequestLogger(logFormatter{}))
	r.Use(middleware.Recoverer)
	r.Get("/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	out := logs.String()
	assert.Contains(t, out, `"panic":"boom"`)
	assert.Contains(t, out, `"stack_trace"`)
	assert.Contains(t, out, `"status":500`)
}

func TestTokenizeEndpoint(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodPost, "/tokenize", "", map[string]string{"text": "猫は魚を食べました。"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[tokenizeResponse](t, rec)
	assert.Equal(t, "猫は魚を食べました。", res.Original)
	require.NotEmpty(t, res.Tokens)
	assert.Equal(t, "猫", res.Tokens[0].Surface)
	assert.Equal(t, "ねこ", res.Tokens[0].Reading)

	var base []string
	for _, tok := range res.Tokens {
		base = append(base, tok.BaseForm)
	}
	assert.Contains(t, base, "食べる")

	rec = e.do(t, http.MethodPost, "/tokenize", "", map[string]string{"text": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDictionarySearch(t *testing.T) {
	e := newTestEnv(t)
	_, err := dictionary.NewService(e.store, 0).Add(context.Background(), []store.DictionaryEntry{
		{Language: "ja", Word: "猫", Reading: "ねこ", Meanings: []string{"cat"}},
		{Language: "ja", Word: "猫舌", Reading: "ねこじた", Meanings: []string{"sensitive to heat"}},
		{Language: "ja", Word: "犬", Reading: "いぬ", Meanings: []string{"dog"}},
	})
	require.NoError(t, err)

	rec := e.do(t, http.MethodGet, "/dictionary/search/"+url.PathEscape("ねこ")+"?language=ja", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[lookupResponse](t, rec)
	assert.Equal(t, "ねこ", res.Word)
	assert.Len(t, res.Entries, 2)

	rec = e.do(t, http.MethodGet, "/dictionary/search/"+url.PathEscape("猫")+"?limit=1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[lookupResponse](t, rec).Entries, 1)

	rec = e.do(t, http.MethodGet, "/dictionary/search/"+url.PathEscape("猫")+"?limit=99", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerationJobsListAndCancel(t *testing.T) {
	e := newTestEnv(t)
	admin := token(t, "root", authz.RoleAdmin)

	rec := e.do(t, http.MethodPost, "/generate/story", admin,
		map[string]any{"language": "ja", "level": "N5", "genre": "mystery"})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	id := decode[generateResponse](t, rec).StoryID

	rec = e.do(t, http.MethodGet, "/generate/jobs", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[jobsResponse](t, rec)
	require.Len(t, list.Jobs, 1)
	assert.Equal(t, id, list.Jobs[0].ID)

	rec = e.do(t, http.MethodPost, "/generate/jobs/"+id+"/cancel", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[cancelResponse](t, rec)
	assert.Equal(t, "cancelled", res.Status)
	assert.Equal(t, storygen.StatusFailed, res.Job.Status)

	rec = e.do(t, http.MethodPost, "/generate/jobs/"+id+"/cancel", admin, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = e.do(t, http.MethodGet, "/generate/jobs?status=failed", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[jobsResponse](t, rec).Jobs, 1)

	rec = e.do(t, http.MethodGet, "/generate/jobs?status=pending", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[jobsResponse](t, rec).Jobs)

	rec = e.do(t, http.MethodGet, "/generate/jobs?status=bogus", admin, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, "/generate/jobs/nope/cancel", admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(t, http.MethodGet, "/generate/jobs", token(t, "u1", ""), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(t, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "error", decode[errorResponse](t, rec).Status)
}
