package store

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// encodeJSON renders v for a text column. nil slices become "[]".
func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	if string(b) == "null" {
		return "[]", nil
	}
	return string(b), nil
}

// decodeJSON parses a text column into dst. Empty text leaves dst untouched.
func decodeJSON(raw string, dst any) error {
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("decode column: %w", err)
	}
	return nil
}

// encodeAll encodes pairs of (destination, value) and stops at the first
// error.
func encodeAll(pairs ...any) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		dst := pairs[i].(*string)
		s, err := encodeJSON(pairs[i+1])
		if err != nil {
			return err
		}
		*dst = s
	}
	return nil
}

// utcPtr normalizes an optional timestamp. SQLite compares times as text,
// so every stored time is UTC.
func utcPtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
