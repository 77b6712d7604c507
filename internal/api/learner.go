package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/abhisek/sanlang/internal/learner"
	"github.com/abhisek/sanlang/internal/store"
	"github.com/abhisek/sanlang/internal/vocab"
)

// maxRecommendations caps the count query parameter.
const maxRecommendations = 50

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Learners.Get(r.Context(), UserIDFromContext(r.Context()), language(r))
	if err != nil {
		handleErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) getProgress(w http.ResponseWriter, r *http.Request) {
	sum, err := s.svc.Progress.ForUser(r.Context(), UserIDFromContext(r.Context()), language(r), s.now())
	if err != nil {
		handleErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

type activityRequest struct {
	Language string `json:"language" validate:"required"`
	learner.Activity
}

func (s *Server) recordActivity(w http.ResponseWriter, r *http.Request) {
	var req activityRequest
	if err := readJSON(r, &req); err != nil {
		handleErr(w, r, err)
		return
	}
	p, err := s.svc.Learners.RecordActivity(r.Context(), UserIDFromContext(r.Context()), req.Language, req.Activity, s.now())
	if err != nil {
		handleErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type interestsRequest struct {
	Language  string   `json:"language" validate:"required"`
	Interests []string `json:"interests" validate:"max=20,dive,required"`
}

func (s *Server) setInterests(w http.ResponseWriter, r *http.Request) {
	var req interestsRequest
	if err := readJSON(r, &req); err != nil {
		handleErr(w, r, err)
		return
	}
	if req.Interests == nil {
		req.Interests = []string{}
	}
	if err := s.svc.Learners.SetInterests(r.Context(), UserIDFromContext(r.Context()), req.Language, req.Interests, s.now()); err != nil {
		handleErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) recommendStories(w http.ResponseWriter, r *http.Request) {
	count, err := intQuery(r, "count", 5, 0, maxRecommendations)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	res, err := s.svc.Recommend.Stories(r.Context(), UserIDFromContext(r.Context()), language(r), count, s.now())
	if err != nil {
		handleErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) recommendVideos(w http.ResponseWriter, r *http.Request) {
	count, err := intQuery(r, "count", 5, 0, maxRecommendations)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	res, err := s.svc.Recommend.Videos(r.Context(), UserIDFromContext(r.Context()), language(r), count, s.now())
	if err != nil {
		handleErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type viewRequest struct {
	ContentType string `json:"content_type" validate:"required,oneof=story video"`
	ContentID   string `json:"content_id" validate:"required"`
	Completed   bool   `json:"completed"`
}

func (s *Server) recordView(w http.ResponseWriter, r *http.Request) {
	var req viewRequest
	if err := readJSON(r, &req); err != nil {
		handleErr(w, r, err)
		return
	}
	err := s.svc.Store.Views().Record(r.Context(), store.ContentView{
		UserID:      UserIDFromContext(r.Context()),
		ContentType: req.ContentType,
		ContentID:   req.ContentID,
		Completed:   req.Completed,
		ViewedAt:    s.now(),
	})
	if err != nil {
		handleErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listVocabulary(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit", 100, 1, 1000)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	offset, err := intQuery(r, "offset", 0, 0, 1<<30)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	q := r.URL.Query()
	items, err := s.svc.Vocab.List(r.Context(), store.VocabFilter{
		UserID:       UserIDFromContext(r.Context()),
		Language:     language(r),
		MasteryState: q.Get("state"),
		SourceDeckID: q.Get("deck"),
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		handleErr(w, r, badRequest("%v", err))
		return
	}
	writeJSON(w, http.StatusOK, vocab.Annotate(items, s.now()))
}

type addWordRequest struct {
	Language string `json:"language" validate:"required"`
	vocab.NewWord
}

func (s *Server) addVocabulary(w http.ResponseWriter, r *http.Request) {
	var req addWordRequest
	if err := readJSON(r, &req); err != nil {
		handleErr(w, r, err)
		return
	}
	item, err := s.svc.Vocab.Add(r.Context(), UserIDFromContext(r.Context()), req.Language, req.NewWord, s.now())
	if err != nil {
		handleErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

type dueResponse struct {
	Count int               `json:"count"`
	Items []vocab.Scheduled `json:"items"`
}

func (s *Server) dueVocabulary(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit", 20, 1, 500)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	uid, lang, now := UserIDFromContext(r.Context()), language(r), s.now()
	items, err := s.svc.Vocab.Due(r.Context(), uid, lang, now, limit)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	count, err := s.svc.Vocab.DueCount(r.Context(), uid, lang, now)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dueResponse{Count: count, Items: vocab.Annotate(items, now)})
}

type reviewRequest struct {
	Correct *bool `json:"correct" validate:"required"`
}

func (s *Server) reviewVocabulary(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := readJSON(r, &req); err != nil {
		handleErr(w, r, err)
		return
	}
	res, err := s.svc.Vocab.Review(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "id"), *req.Correct, s.now())
	if err != nil {
		handleErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) listSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := s.svc.Decks.Subscriptions(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		handleErr(w, r, err)
		return
	}
	if subs == nil {
		subs = []store.DeckSubscription{}
	}
	writeJSON(w, http.StatusOK, subs)
}

type subscribeRequest struct {
	DailyNewCards int `json:"daily_new_cards" validate:"omitempty,min=1,max=100"`
}

func (s *Server) subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if r.ContentLength != 0 {
		if err := readJSON(r, &req); err != nil {
			handleErr(w, r, err)
			return
		}
	}
	sub, err := s.svc.Decks.Subscribe(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "id"), req.DailyNewCards, s.now())
	if err != nil {
		handleErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (s *Server) unsubscribe(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Decks.Unsubscribe(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		handleErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) activateDeck(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Decks.SetActiveDeck(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "id"), s.now()); err != nil {
		handleErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) drip(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Decks.Drip(r.Context(), UserIDFromContext(r.Context()), s.now())
	if err != nil {
		handleErr(w, r, err)
		return
	}
	if res == nil {
		writeError(w, http.StatusNotFound, "no active deck")
		return
	}
	writeJSON(w, http.StatusOK, res)
}
