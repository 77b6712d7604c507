// Package stories is the graded-reader and video catalog.
package stories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/sanlang/internal/proficiency"
	"github.com/abhisek/sanlang/internal/store"
	"github.com/abhisek/sanlang/internal/tokenize"
)

var (
	ErrNotFound     = errors.New("story not found")
	ErrInvalidLevel = errors.New("unknown level for language")
)

// Content types recorded in views and recommendation metrics.
const (
	TypeStory = "story"
	TypeVideo = "video"
)

// Summary is the list view of a story.
type Summary struct {
	ID            string    `json:"id"`
	Language      string    `json:"language"`
	Level         string    `json:"level"`
	Title         string    `json:"title"`
	TitleNative   string    `json:"title_native,omitempty"`
	Genre         string    `json:"genre"`
	Summary       string    `json:"summary,omitempty"`
	Tags          []string  `json:"tags"`
	Vocabulary    []string  `json:"vocabulary,omitempty"`
	ChapterCount  int       `json:"chapter_count"`
	HasQuestions  bool      `json:"has_questions"`
	IsPremium     bool      `json:"is_premium"`
	CoverImageURL string    `json:"cover_image_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func (s Summary) ContentID() string           { return s.ID }
func (s Summary) ContentLanguage() string     { return s.Language }
func (s Summary) ContentLevel() string        { return s.Level }
func (s Summary) ContentGenre() string        { return s.Genre }
func (s Summary) ContentVocabulary() []string { return s.Vocabulary }

// SummaryOf builds the list view of st.
func SummaryOf(st store.Story) Summary {
	return Summary{
		ID:            st.ID,
		Language:      st.Language,
		Level:         st.Level,
		Title:         st.Title,
		TitleNative:   st.TitleNative,
		Genre:         st.Genre,
		Summary:       st.Summary,
		Tags:          st.Tags,
		Vocabulary:    st.Vocabulary,
		ChapterCount:  len(st.Chapters),
		HasQuestions:  len(st.Questions) > 0,
		IsPremium:     st.IsPremium,
		CoverImageURL: st.CoverImageURL,
		CreatedAt:     st.CreatedAt,
	}
}

// Video is a catalog video.
type Video struct {
	store.Video
}

func (v Video) ContentID() string           { return v.ID }
func (v Video) ContentLanguage() string     { return v.Language }
func (v Video) ContentLevel() string        { return v.Level }
func (v Video) ContentGenre() string        { return v.Genre }
func (v Video) ContentVocabulary() []string { return v.Vocabulary }

// Catalog reads and writes stories and videos.
type Catalog struct {
	store    *store.Store
	model    *proficiency.Model
	analyzer *tokenize.Analyzer
	fetcher  *Fetcher
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithAnalyzer fills story vocabulary for Japanese content on save.
func WithAnalyzer(a *tokenize.Analyzer) Option {
	return func(c *Catalog) { c.analyzer = a }
}

// WithFetcher sets the fetcher used by ImportURL.
func WithFetcher(f *Fetcher) Option {
	return func(c *Catalog) { c.fetcher = f }
}

// NewCatalog creates a catalog. A nil model uses the built-in scales.
func NewCatalog(s *store.Store, model *proficiency.Model, opts ...Option) *Catalog {
	if model == nil {
		model = proficiency.Default()
	}
	c := &Catalog{store: s, model: model, fetcher: NewFetcher(nil)}
	for _, o := range opts {
		o(c)
	}
	return c
}

// List returns story summaries, newest first.
func (c *Catalog) List(ctx context.Context, f store.ContentFilter) ([]Summary, error) {
	all, err := c.store.Stories().List(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, len(all))
	for i, st := range all {
		out[i] = SummaryOf(st)
	}
	return out, nil
}

func (c *Catalog) Get(ctx context.Context, id string) (*store.Story, error) {
	st, err := c.store.Stories().Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	return st, err
}

// Save validates st and stores it, assigning an ID when empty. Japanese
// stories without a vocabulary list get one from the analyzer.
func (c *Catalog) Save(ctx context.Context, st *store.Story) error {
	if strings.TrimSpace(st.Title) == "" {
		return errors.New("story title is required")
	}
	if c.model.LevelIndex(st.Language, st.Level) < 0 {
		return fmt.Errorf("%w: %s %q", ErrInvalidLevel, st.Language, st.Level)
	}
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	if len(st.Vocabulary) == 0 && c.analyzer != nil && st.Language == "ja" {
		st.Vocabulary = c.analyzer.Vocabulary(StoryText(st))
	}
	return c.store.Stories().Save(ctx, st)
}

// MissingQuestions returns stories that have no comprehension questions.
func (c *Catalog) MissingQuestions(ctx context.Context, limit int) ([]store.Story, error) {
	return c.store.Stories().MissingQuestions(ctx, limit)
}

// Videos returns catalog videos, newest first.
func (c *Catalog) Videos(ctx context.Context, f store.ContentFilter) ([]Video, error) {
	all, err := c.store.Videos().List(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]Video, len(all))
	for i, v := range all {
		out[i] = Video{v}
	}
	return out, nil
}

func (c *Catalog) Video(ctx context.Context, id string) (*Video, error) {
	v, err := c.store.Videos().Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &Video{*v}, nil
}

// SaveVideo stores v, assigning an ID when empty.
func (c *Catalog) SaveVideo(ctx context.Context, v *store.Video) error {
	if c.model.LevelIndex(v.Language, v.Level) < 0 {
		return fmt.Errorf("%w: %s %q", ErrInvalidLevel, v.Language, v.Level)
	}
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if len(v.Vocabulary) == 0 && c.analyzer != nil && v.Language == "ja" {
		v.Vocabulary = c.analyzer.Vocabulary(v.Transcript)
	}
	return c.store.Videos().Save(ctx, v)
}

// StoryText joins the story's chapter titles and paragraphs.
func StoryText(st *store.Story) string {
	var b strings.Builder
	for _, ch := range st.Chapters {
		if ch.Title != "" {
			b.WriteString(ch.Title)
			b.WriteByte('\n')
		}
		for _, p := range ch.Paragraphs {
			b.WriteString(p)
			b.WriteByte('\n')
		}
	}
	return b.String()
}
