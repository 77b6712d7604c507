// Package storygen generates graded reader stories and comprehension
// questions with an LLM, and runs generation as background jobs.
package storygen

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/sanlang/internal/llm"
	"github.com/abhisek/sanlang/internal/logging"
	"github.com/abhisek/sanlang/internal/proficiency"
	"github.com/abhisek/sanlang/internal/store"
	"github.com/abhisek/sanlang/internal/stories"
	"github.com/abhisek/sanlang/internal/tokenize"
)

// ErrInvalidRequest wraps request validation failures.
var ErrInvalidRequest = errors.New("invalid generation request")

// Request describes a story to generate.
type Request struct {
	Language        string `json:"language" validate:"required"`
	Level           string `json:"level" validate:"required"`
	Genre           string `json:"genre" validate:"required"`
	Theme           string `json:"theme,omitempty"`
	Chapters        int    `json:"chapters,omitempty" validate:"omitempty,min=1,max=10"`
	WordsPerChapter int    `json:"words_per_chapter,omitempty" validate:"omitempty,min=50,max=500"`
}

// Request defaults.
const (
	DefaultChapters        = 5
	DefaultWordsPerChapter = 100
)

func (r Request) withDefaults() Request {
	if r.Language == "" {
		r.Language = "ja"
	}
	r.Level = strings.ToUpper(strings.TrimSpace(r.Level))
	if r.Chapters == 0 {
		r.Chapters = DefaultChapters
	}
	if r.WordsPerChapter == 0 {
		r.WordsPerChapter = DefaultWordsPerChapter
	}
	return r
}

// Config holds generation settings.
type Config struct {
	MaxTokens     int
	Temperature   float64
	QuestionCount int

	// MaxAttempts bounds regeneration when a story fails vocabulary
	// validation. The last attempt is kept either way.
	MaxAttempts int
}

// DefaultConfig returns the standard generation settings.
func DefaultConfig() Config {
	return Config{
		MaxTokens:     4096,
		Temperature:   0.8,
		QuestionCount: 5,
		MaxAttempts:   2,
	}
}

// Generated is a generated story, not yet saved.
type Generated struct {
	Story      *store.Story
	Validation *ValidationResult
	Attempts   int
}

// Generator produces stories with an LLM provider.
type Generator struct {
	provider  llm.Provider
	model     *proficiency.Model
	analyzer  *tokenize.Analyzer
	validator *VocabularyValidator
	cfg       Config
}

// Option configures a Generator.
type Option func(*Generator)

// WithAnalyzer tokenizes Japanese stories for vocabulary.
func WithAnalyzer(a *tokenize.Analyzer) Option {
	return func(g *Generator) { g.analyzer = a }
}

// WithValidator checks Japanese stories against JLPT word lists.
func WithValidator(v *VocabularyValidator) Option {
	return func(g *Generator) { g.validator = v }
}

// New creates a generator.
func New(provider llm.Provider, model *proficiency.Model, cfg Config, opts ...Option) *Generator {
	if model == nil {
		model = proficiency.Default()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	g := &Generator{provider: provider, model: model, cfg: cfg}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Check normalizes req and verifies its level exists for its language.
func (g *Generator) Check(req Request) (Request, error) {
	req = req.withDefaults()
	if strings.TrimSpace(req.Genre) == "" {
		return req, fmt.Errorf("%w: genre is required", ErrInvalidRequest)
	}
	if g.model.LevelIndex(req.Language, req.Level) < 0 {
		return req, fmt.Errorf("%w: unknown level %q for %s", ErrInvalidRequest, req.Level, req.Language)
	}
	if req.Chapters < 1 || req.Chapters > 10 {
		return req, fmt.Errorf("%w: chapters must be between 1 and 10", ErrInvalidRequest)
	}
	if req.WordsPerChapter < 50 || req.WordsPerChapter > 500 {
		return req, fmt.Errorf("%w: words_per_chapter must be between 50 and 500", ErrInvalidRequest)
	}
	return req, nil
}

type storyOutput struct {
	Title       string `json:"title"`
	TitleNative string `json:"title_native"`
	Summary     string `json:"summary"`
	Chapters    []struct {
		Title      string   `json:"title"`
		Paragraphs []string `json:"paragraphs"`
	} `json:"chapters"`
}

// Generate writes a story for req. Japanese stories that fail vocabulary
// validation are regenerated up to MaxAttempts times.
func (g *Generator) Generate(ctx context.Context, req Request) (*Generated, error) {
	req, err := g.Check(req)
	if err != nil {
		return nil, err
	}
	ctx = llm.WithPurpose(ctx, llm.PurposeStoryGen)

	var out *Generated
	for attempt := 1; attempt <= g.cfg.MaxAttempts; attempt++ {
		st, err := g.generateOnce(ctx, req)
		if err != nil {
			return nil, err
		}
		out = &Generated{Story: st, Attempts: attempt}

		if req.Language != "ja" || g.analyzer == nil {
			return out, nil
		}
		tokens := g.analyzer.Tokens(stories.StoryText(st))
		st.Vocabulary = tokenize.VocabularyOf(tokens)
		if g.validator == nil {
			return out, nil
		}
		res, err := g.validator.Validate(tokens, req.Level)
		if err != nil {
			return nil, err
		}
		out.Validation = res
		if res.Passed {
			return out, nil
		}
		logging.Ctx(ctx).Warn().
			Int("attempt", attempt).
			Str("level", req.Level).
			Str("result", res.Message).
			Msg("generated story failed vocabulary validation")
	}
	return out, nil
}

func (g *Generator) generateOnce(ctx context.Context, req Request) (*store.Story, error) {
	lr := llm.Prompt(storySystemPrompt(req.Language, req.Level), buildStoryUserMessage(req), StorySchema)
	lr.MaxTokens = g.cfg.MaxTokens
	lr.Temperature = g.cfg.Temperature
	resp, err := g.provider.Generate(ctx, lr)
	if err != nil {
		return nil, fmt.Errorf("story generation: %w", err)
	}

	var raw storyOutput
	if err := resp.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse story response: %w", err)
	}
	if len(raw.Chapters) == 0 {
		return nil, errors.New("story generation: no chapters returned")
	}

	st := &store.Story{
		Language:    req.Language,
		Level:       req.Level,
		Title:       raw.Title,
		TitleNative: raw.TitleNative,
		Genre:       req.Genre,
		Summary:     raw.Summary,
		Tags:        []string{req.Genre, "generated"},
		Vocabulary:  []string{},
		Questions:   []store.Question{},
	}
	if req.Theme != "" {
		st.Tags = append(st.Tags, req.Theme)
	}
	for i, ch := range raw.Chapters {
		title := ch.Title
		if title == "" {
			title = fmt.Sprintf("Chapter %d", i+1)
		}
		st.Chapters = append(st.Chapters, store.Chapter{Title: title, Paragraphs: ch.Paragraphs})
	}
	return st, nil
}

type questionsOutput struct {
	Questions []store.Question `json:"questions"`
}

// Questions writes comprehension questions for st. Questions whose answer
// index is out of range are dropped.
func (g *Generator) Questions(ctx context.Context, st *store.Story) ([]store.Question, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeQuestionGen)
	count := g.cfg.QuestionCount
	if count <= 0 {
		count = DefaultConfig().QuestionCount
	}

	lr := llm.Prompt(questionsSystemPrompt, buildQuestionsUserMessage(st, count), QuestionsSchema)
	lr.MaxTokens = g.cfg.MaxTokens
	lr.Temperature = 0.3
	resp, err := g.provider.Generate(ctx, lr)
	if err != nil {
		return nil, fmt.Errorf("question generation: %w", err)
	}

	var raw questionsOutput
	if err := resp.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse questions response: %w", err)
	}
	out := make([]store.Question, 0, len(raw.Questions))
	for _, q := range raw.Questions {
		if strings.TrimSpace(q.Question) == "" || len(q.Options) < 2 ||
			q.AnswerIndex < 0 || q.AnswerIndex >= len(q.Options) {
			continue
		}
		out = append(out, q)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("question generation: no valid questions for %s", st.ID)
	}
	return out, nil
}
