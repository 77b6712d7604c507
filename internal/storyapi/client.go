// Package storyapi is a client for the sanlang story HTTP API: catalog
// reads, dictionary lookups and AI story generation jobs.
package storyapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/abhisek/sanlang/internal/cache"
	"github.com/abhisek/sanlang/internal/logging"
	"github.com/abhisek/sanlang/internal/metrics"
	"github.com/abhisek/sanlang/internal/store"
	"github.com/abhisek/sanlang/internal/stories"
)

// StatusError is a non-2xx response from the API.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("story api: status %d", e.Code)
	}
	return fmt.Sprintf("story api: status %d: %s", e.Code, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}

// Job statuses reported by the generation endpoints.
const (
	JobPending   = "pending"
	JobRunning   = "running"
	JobCompleted = "completed"
	JobFailed    = "failed"
)

// GenerateRequest asks the server to generate a story.
type GenerateRequest struct {
	Language        string `json:"language"`
	Level           string `json:"level"`
	Genre           string `json:"genre"`
	Theme           string `json:"theme,omitempty"`
	Chapters        int    `json:"chapters,omitempty"`
	WordsPerChapter int    `json:"words_per_chapter,omitempty"`
}

// GenerateResponse acknowledges a submitted job. StoryID carries the job
// ID until the story exists.
type GenerateResponse struct {
	Status  string `json:"status"`
	StoryID string `json:"story_id"`
	Message string `json:"message"`
}

// JobStatus is the state of a generation job.
type JobStatus struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	StoryID  string `json:"story_id,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Done reports whether the job reached a final status.
func (s *JobStatus) Done() bool {
	return s.Status == JobCompleted || s.Status == JobFailed
}

type dictionaryResponse struct {
	Entries []store.DictionaryEntry `json:"entries"`
}

type errorBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Client talks to the story API. Reads of the story catalog are cached
// when a cache is configured.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
	cache   *cache.TTL[string, []byte]
	breaker *gobreaker.CircuitBreaker[[]byte]
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithCache caches catalog responses in ttl.
func WithCache(ttl *cache.TTL[string, []byte]) Option {
	return func(c *Client) { c.cache = ttl }
}

// WithToken sends token as a bearer credential.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// breakerName labels the client's circuit breaker in metrics.
const breakerName = "story-api"

// New creates a client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}

	metrics.SetBreakerState(breakerName, 0)
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Client errors mean the server is up.
		IsSuccessful: func(err error) bool {
			var se *StatusError
			if errors.As(err, &se) {
				return se.Code < http.StatusInternalServerError
			}
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			metrics.SetBreakerState(name, breakerState(to))
		},
	})
	return c
}

func breakerState(s gobreaker.State) int {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// ListStories returns story summaries, optionally filtered by level and
// language.
func (c *Client) ListStories(ctx context.Context, level, language string) ([]stories.Summary, error) {
	q := url.Values{}
	if level != "" {
		q.Set("level", level)
	}
	if language != "" {
		q.Set("language", language)
	}
	path := "/stories"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out []stories.Summary
	if err := c.cachedGet(ctx, "list", path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetStory returns a full story.
func (c *Client) GetStory(ctx context.Context, id string) (*store.Story, error) {
	var out store.Story
	if err := c.cachedGet(ctx, "get", "/stories/"+url.PathEscape(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Lookup searches the dictionary.
func (c *Client) Lookup(ctx context.Context, word, language string) ([]store.DictionaryEntry, error) {
	q := url.Values{"word": {word}}
	if language != "" {
		q.Set("language", language)
	}
	body, err := c.call(ctx, "lookup", http.MethodGet, "/dictionary?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	var out dictionaryResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode dictionary response: %w", err)
	}
	return out.Entries, nil
}

// GenerateStory submits a generation job.
func (c *Client) GenerateStory(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	body, err := c.call(ctx, "generate", http.MethodPost, "/generate/story", payload)
	if err != nil {
		return nil, err
	}
	var out GenerateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode generate response: %w", err)
	}
	return &out, nil
}

// GenerationStatus returns the current state of a job.
func (c *Client) GenerationStatus(ctx context.Context, jobID string) (*JobStatus, error) {
	body, err := c.call(ctx, "status", http.MethodGet, "/generate/status/"+url.PathEscape(jobID), nil)
	if err != nil {
		return nil, err
	}
	var out JobStatus
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode job status: %w", err)
	}
	return &out, nil
}

// InvalidateStories drops cached catalog responses.
func (c *Client) InvalidateStories() {
	if c.cache != nil {
		c.cache.Purge()
	}
}

func (c *Client) cachedGet(ctx context.Context, op, path string, v any) error {
	if c.cache != nil {
		if body, ok := c.cache.Get(path); ok {
			metrics.RecordCacheLookup(true)
			return json.Unmarshal(body, v)
		}
		metrics.RecordCacheLookup(false)
	}

	body, err := c.call(ctx, op, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	if c.cache != nil {
		c.cache.Set(path, body)
	}
	return nil
}

func (c *Client) call(ctx context.Context, op, method, path string, payload []byte) ([]byte, error) {
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.do(ctx, method, path, payload)
	})
	metrics.RecordStoryAPICall(op, err)
	return body, err
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var rdr io.Reader
	if payload != nil {
		rdr = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if resp.StatusCode >= 300 {
		se := &StatusError{Code: resp.StatusCode}
		var eb errorBody
		if json.Unmarshal(body, &eb) == nil {
			se.Message = eb.Message
		}
		return nil, se
	}
	return body, nil
}
