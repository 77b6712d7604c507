// Package dictionary looks up words in the imported dictionary.
package dictionary

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/sanlang/internal/store"
	"github.com/abhisek/sanlang/internal/tokenize"
)

// DefaultLimit caps the number of entries Lookup returns.
const DefaultLimit = 10

// DefaultLanguage is used when a lookup names no language.
const DefaultLanguage = "ja"

// ErrEmptyQuery is returned for a blank lookup.
var ErrEmptyQuery = errors.New("word is required")

// Service searches dictionary entries.
type Service struct {
	store    *store.Store
	limit    int
	analyzer *tokenize.Analyzer
}

// NewService creates a dictionary service returning at most limit
// entries per lookup. A limit <= 0 means DefaultLimit.
func NewService(s *store.Store, limit int) *Service {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Service{store: s, limit: limit}
}

// WithAnalyzer lets Japanese lookups fall back to the dictionary form of
// an inflected word, so 食べました finds 食べる.
func (s *Service) WithAnalyzer(a *tokenize.Analyzer) *Service {
	s.analyzer = a
	return s
}

// Lookup returns entries whose word or reading equals word, followed by
// entries that start with it.
func (s *Service) Lookup(ctx context.Context, word, language string) ([]store.DictionaryEntry, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return nil, ErrEmptyQuery
	}
	if language == "" {
		language = DefaultLanguage
	}

	repo := s.store.Dictionary()
	exact, err := repo.Exact(ctx, language, word)
	if err != nil {
		return nil, fmt.Errorf("lookup %q: %w", word, err)
	}
	if len(exact) == 0 {
		if base := s.baseForm(word, language); base != "" {
			if exact, err = repo.Exact(ctx, language, base); err != nil {
				return nil, fmt.Errorf("lookup %q: %w", base, err)
			}
		}
	}
	out := make([]store.DictionaryEntry, 0, s.limit)
	seen := make(map[int64]bool)
	for _, e := range exact {
		if len(out) == s.limit {
			return out, nil
		}
		seen[e.ID] = true
		out = append(out, e)
	}

	// Exact matches also satisfy the prefix query.
	prefix, err := repo.Prefix(ctx, language, word, s.limit+len(exact))
	if err != nil {
		return nil, fmt.Errorf("lookup %q: %w", word, err)
	}
	for _, e := range prefix {
		if len(out) == s.limit {
			break
		}
		if seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		out = append(out, e)
	}
	return out, nil
}

// MaxSearchLimit caps Search.
const MaxSearchLimit = 50

// Search returns entries whose word or reading starts with query. A
// limit <= 0 means the service limit.
func (s *Service) Search(ctx context.Context, query, language string, limit int) ([]store.DictionaryEntry, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if language == "" {
		language = DefaultLanguage
	}
	if limit <= 0 {
		limit = s.limit
	}
	limit = min(limit, MaxSearchLimit)
	entries, err := s.store.Dictionary().Prefix(ctx, language, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	return entries, nil
}

// baseForm returns the dictionary form of a single inflected Japanese
// word, or "" when word is already in that form or is not one word.
func (s *Service) baseForm(word, language string) string {
	if s.analyzer == nil || language != "ja" {
		return ""
	}
	var content []tokenize.Token
	for _, t := range s.analyzer.Tokens(word) {
		if tokenize.IsContentWord(t) {
			content = append(content, t)
		}
	}
	if len(content) != 1 || content[0].BaseForm == word || content[0].BaseForm == "*" {
		return ""
	}
	return content[0].BaseForm
}

// Add inserts entries, dropping those without a word. It returns the
// number inserted.
func (s *Service) Add(ctx context.Context, entries []store.DictionaryEntry) (int, error) {
	keep := entries[:0:0]
	for _, e := range entries {
		e.Word = strings.TrimSpace(e.Word)
		if e.Word == "" {
			continue
		}
		if e.Language == "" {
			e.Language = DefaultLanguage
		}
		if e.Meanings == nil {
			e.Meanings = []string{}
		}
		keep = append(keep, e)
	}
	if len(keep) == 0 {
		return 0, nil
	}
	return s.store.Dictionary().Insert(ctx, keep)
}
