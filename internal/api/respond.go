package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/abhisek/sanlang/internal/decks"
	"github.com/abhisek/sanlang/internal/dictionary"
	"github.com/abhisek/sanlang/internal/logging"
	"github.com/abhisek/sanlang/internal/store"
	"github.com/abhisek/sanlang/internal/stories"
	"github.com/abhisek/sanlang/internal/storygen"
	"github.com/abhisek/sanlang/internal/vocab"
)

// maxBodySize bounds JSON request bodies.
const maxBodySize = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

// errorResponse is the body of every error reply.
type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn().Err(err).Msg("failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Status: "error", Message: msg})
}

// readJSON decodes the body into dst and validates it.
func readJSON(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return badRequest("read body: %v", err)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return badRequest("invalid JSON: %v", err)
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return badRequest("%s is invalid (%s)", verrs[0].Field(), verrs[0].Tag())
		}
		return badRequest("%v", err)
	}
	return nil
}

// httpError carries a status code chosen by a handler.
type httpError struct {
	code int
	msg  string
}

func (e *httpError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &httpError{code: http.StatusBadRequest, msg: fmt.Sprintf(format, args...)}
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var he *httpError
	switch {
	case errors.As(err, &he):
		return he.code
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, stories.ErrNotFound),
		errors.Is(err, storygen.ErrJobNotFound),
		errors.Is(err, decks.ErrDeckNotFound),
		errors.Is(err, decks.ErrNotSubscribed):
		return http.StatusNotFound
	case errors.Is(err, store.ErrDuplicate),
		errors.Is(err, decks.ErrAlreadySubscribed),
		errors.Is(err, decks.ErrDeckCompleted),
		errors.Is(err, storygen.ErrJobFinished):
		return http.StatusConflict
	case errors.Is(err, storygen.ErrInvalidRequest),
		errors.Is(err, stories.ErrInvalidLevel),
		errors.Is(err, dictionary.ErrEmptyQuery),
		errors.Is(err, vocab.ErrEmptyWord):
		return http.StatusBadRequest
	case errors.Is(err, storygen.ErrQueueFull):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// handleErr logs err and writes the mapped error response. Internal
// errors are not echoed to the client.
func handleErr(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	msg := err.Error()
	if code >= http.StatusInternalServerError && code != http.StatusServiceUnavailable {
		logging.Ctx(r.Context()).Error().Err(err).
			Str("method", r.Method).
			Str("url", r.URL.String()).
			Msg("request error")
		msg = "internal server error"
	}
	writeError(w, code, msg)
}

// intQuery parses an optional integer query parameter within [lo, hi].
func intQuery(r *http.Request, name string, def, lo, hi int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < lo || n > hi {
		return 0, badRequest("%s must be an integer between %d and %d", name, lo, hi)
	}
	return n, nil
}

// language returns the language query parameter, defaulting to Japanese.
func language(r *http.Request) string {
	if l := r.URL.Query().Get("language"); l != "" {
		return l
	}
	return dictionary.DefaultLanguage
}
