package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/abhisek/sanlang/internal/dictionary"
	"github.com/abhisek/sanlang/internal/store"
	"github.com/abhisek/sanlang/internal/stories"
	"github.com/abhisek/sanlang/internal/tokenize"
)

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Store.DB().PingContext(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// listStories returns story summaries as a bare array.
func (s *Server) listStories(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit", 0, 0, 500)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	q := r.URL.Query()
	list, err := s.svc.Catalog.List(r.Context(), store.ContentFilter{
		Language: q.Get("language"),
		Level:    strings.ToUpper(q.Get("level")),
		Limit:    limit,
	})
	if err != nil {
		handleErr(w, r, err)
		return
	}
	if list == nil {
		list = []stories.Summary{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) getStory(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type lookupResponse struct {
	Word    string                  `json:"word"`
	Entries []store.DictionaryEntry `json:"entries"`
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) {
	word := r.URL.Query().Get("word")
	entries, err := s.svc.Dictionary.Lookup(r.Context(), word, language(r))
	if err != nil {
		handleErr(w, r, err)
		return
	}
	if entries == nil {
		entries = []store.DictionaryEntry{}
	}
	writeJSON(w, http.StatusOK, lookupResponse{Word: word, Entries: entries})
}

// searchDictionary returns prefix matches on word or reading.
func (s *Server) searchDictionary(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit", 0, 0, dictionary.MaxSearchLimit)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	query := chi.URLParam(r, "query")
	entries, err := s.svc.Dictionary.Search(r.Context(), query, language(r), limit)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	if entries == nil {
		entries = []store.DictionaryEntry{}
	}
	writeJSON(w, http.StatusOK, lookupResponse{Word: query, Entries: entries})
}

type tokenizeRequest struct {
	Text string `json:"text" validate:"required,max=20000"`
}

type tokenizeResponse struct {
	Tokens   []tokenize.Token `json:"tokens"`
	Original string           `json:"original"`
}

// tokenizeText splits Japanese text into words with readings.
func (s *Server) tokenizeText(w http.ResponseWriter, r *http.Request) {
	if s.svc.Analyzer == nil {
		writeError(w, http.StatusServiceUnavailable, "tokenizer is not configured")
		return
	}
	var req tokenizeRequest
	if err := readJSON(r, &req); err != nil {
		handleErr(w, r, err)
		return
	}
	tokens := s.svc.Analyzer.Tokens(req.Text)
	if tokens == nil {
		tokens = []tokenize.Token{}
	}
	writeJSON(w, http.StatusOK, tokenizeResponse{Tokens: tokens, Original: req.Text})
}

func (s *Server) listDecks(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Decks.Decks(r.Context(), r.URL.Query().Get("language"))
	if err != nil {
		handleErr(w, r, err)
		return
	}
	if list == nil {
		list = []store.Deck{}
	}
	writeJSON(w, http.StatusOK, list)
}
