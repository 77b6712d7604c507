package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func captureJSON(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevLevel := zerolog.GlobalLevel()
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	t.Cleanup(func() {
		Init(DefaultConfig())
		zerolog.SetGlobalLevel(prevLevel)
	})
	return &buf
}

func TestInfoWritesJSON(t *testing.T) {
	buf := captureJSON(t)

	Info().Str("deck", "d1").Msg("drip complete")

	out := buf.String()
	assert.Contains(t, out, `"message":"drip complete"`)
	assert.Contains(t, out, `"deck":"d1"`)
	assert.Contains(t, out, `"level":"info"`)
}

func TestCtxAddsRequestAndUser(t *testing.T) {
	buf := captureJSON(t)

	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithUserID(ctx, "user-9")
	Ctx(ctx).Info().Msg("hello")

	out := buf.String()
	assert.Contains(t, out, `"request_id":"req-1"`)
	assert.Contains(t, out, `"user_id":"user-9"`)
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "warn", Format: "json", Output: &buf})
	t.Cleanup(func() { Init(DefaultConfig()) })

	Info().Msg("dropped")
	Warn().Msg("kept")

	out := buf.String()
	assert.False(t, strings.Contains(out, "dropped"))
	assert.Contains(t, out, "kept")
}

func TestSlogBridge(t *testing.T) {
	buf := captureJSON(t)

	NewSlogLogger().Warn("service restarted", "service", "drip")

	out := buf.String()
	assert.Contains(t, out, `"message":"service restarted"`)
	assert.Contains(t, out, `"service":"drip"`)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":    zerolog.DebugLevel,
		"WARN":     zerolog.WarnLevel,
		"error":    zerolog.ErrorLevel,
		"disabled": zerolog.Disabled,
		"bogus":    zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}
