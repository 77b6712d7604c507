package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/sanlang/internal/logging"
	"github.com/abhisek/sanlang/internal/metrics"
	"github.com/abhisek/sanlang/internal/store"
)

// LoggingProvider records every LLM request as a stored event, a debug log
// line and a pair of Prometheus counters. Request and response bodies are
// kept so `sanlang llm view` can show exactly what a story was built from.
type LoggingProvider struct {
	inner     Provider
	eventRepo store.EventRepo
}

// WithLogging wraps a Provider with event logging.
func WithLogging(p Provider, repo store.EventRepo) Provider {
	return &LoggingProvider{inner: p, eventRepo: repo}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	purpose := PurposeFrom(ctx)

	resp, err := l.inner.Generate(ctx, req)

	latencyMs := time.Since(start).Milliseconds()

	data := store.LLMRequestEventData{
		Provider:    l.inner.ModelID(),
		Model:       l.inner.ModelID(),
		Purpose:     purpose,
		LatencyMs:   latencyMs,
		Success:     err == nil,
		RequestBody: serializeRequest(req),
	}

	if resp != nil {
		data.InputTokens = resp.Usage.InputTokens
		data.OutputTokens = resp.Usage.OutputTokens
		data.Model = resp.Model
		data.ResponseBody = string(resp.Content)
	}

	if err != nil {
		data.ErrorMessage = err.Error()
	}

	metrics.RecordLLMRequest(purpose, data.Model, data.InputTokens, data.OutputTokens, err)

	logging.Ctx(ctx).Debug().
		Str("model", data.Model).
		Str("purpose", purpose).
		Int("input_tokens", data.InputTokens).
		Int("output_tokens", data.OutputTokens).
		Int64("latency_ms", latencyMs).
		Bool("success", data.Success).
		Msg("llm request")

	if l.eventRepo == nil {
		return resp, err
	}
	// A failed event write never fails the request.
	if logErr := l.eventRepo.AppendLLMRequest(ctx, data); logErr != nil {
		logging.Ctx(ctx).Warn().Err(logErr).Msg("failed to record LLM request event")
	}

	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

// serializeRequest renders req as tagged sections. The schema is reduced
// to its name; its definition lives in code and would only bloat the log.
func serializeRequest(req Request) string {
	var b strings.Builder
	section := func(tag, body string) {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", tag, body)
	}

	if req.System != "" {
		section("system", req.System)
	}
	for _, m := range req.Messages {
		section(string(m.Role), m.Content)
	}
	if req.Schema != nil {
		fmt.Fprintf(&b, "[schema: %s] max_tokens=%d temperature=%.2f\n",
			req.Schema.Name, req.MaxTokens, req.Temperature)
	}
	return b.String()
}
