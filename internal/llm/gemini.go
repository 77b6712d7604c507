package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"

	"google.golang.org/genai"
)

// geminiModels maps friendly names to Gemini model IDs.
var geminiModels = map[string]string{
	"gemini-flash":      "gemini-2.5-flash",
	"gemini-flash-lite": "gemini-2.5-flash-lite",
	"gemini-pro":        "gemini-2.5-pro",
}

// geminiSchemaKeywords are the JSON Schema keywords responseJsonSchema
// accepts. Anything else is dropped before the request is sent.
var geminiSchemaKeywords = map[string]bool{
	"$id": true, "$defs": true, "$ref": true, "$anchor": true,
	"type": true, "format": true, "title": true, "description": true,
	"enum": true, "items": true, "prefixItems": true,
	"minItems": true, "maxItems": true, "minimum": true, "maximum": true,
	"anyOf": true, "oneOf": true, "properties": true,
	"additionalProperties": true, "required": true, "propertyOrdering": true,
}

// Finish reasons that mean the model refused or was cut off by a filter.
// A fresh attempt often gets through.
var geminiFilteredReasons = []genai.FinishReason{
	genai.FinishReasonSafety,
	genai.FinishReasonRecitation,
	genai.FinishReasonBlocklist,
	genai.FinishReasonProhibitedContent,
}

// GeminiProvider implements Provider using the Google Gemini SDK.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a Gemini provider on the Gemini API backend.
func NewGeminiProvider(ctx context.Context, cfg GeminiConfig) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}
	return &GeminiProvider{client: client, model: resolveModel(cfg.Model, geminiModels)}, nil
}

func (p *GeminiProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	result, err := p.client.Models.GenerateContent(ctx, p.model, geminiContents(req.Messages), geminiConfig(req))
	if err != nil {
		return nil, mapGeminiError(err)
	}
	if fb := result.PromptFeedback; fb != nil && fb.BlockReason != "" {
		return nil, &ErrRequestRejected{
			StatusCode: http.StatusBadRequest,
			Err:        fmt.Errorf("gemini blocked the prompt: %s", fb.BlockReason),
		}
	}

	content, err := geminiContent(result)
	if err != nil {
		return nil, err
	}
	if req.Schema != nil {
		content = stripCodeFence(content)
		if err := validateResponse(req.Schema, content); err != nil {
			return nil, err
		}
	}
	return &Response{
		Content:    content,
		Model:      p.model,
		StopReason: "end",
		Usage:      geminiUsage(result.UsageMetadata),
	}, nil
}

func (p *GeminiProvider) ModelID() string {
	return p.model
}

func geminiConfig(req Request) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{MaxOutputTokens: int32(req.MaxTokens)}
	if req.Temperature > 0 {
		temp := float32(req.Temperature)
		config.Temperature = &temp
	}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Schema != nil {
		config.ResponseMIMEType = "application/json"
		config.ResponseJsonSchema = geminiJSONSchema(req.Schema.Definition)
	}
	return config
}

func geminiContents(msgs []Message) []*genai.Content {
	out := make([]*genai.Content, len(msgs))
	for i, m := range msgs {
		role := genai.Role(genai.RoleUser)
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		out[i] = genai.NewContentFromText(m.Content, role)
	}
	return out
}

// geminiJSONSchema copies def without the keywords Gemini rejects. Objects
// without a propertyOrdering get one: required properties in the order
// listed, then the rest by name, so story titles come before chapters.
func geminiJSONSchema(def map[string]any) map[string]any {
	out := make(map[string]any, len(def))
	for k, v := range def {
		if !geminiSchemaKeywords[k] {
			continue
		}
		switch k {
		case "properties", "$defs":
			props, _ := v.(map[string]any)
			sub := make(map[string]any, len(props))
			for name, p := range props {
				if pd, ok := p.(map[string]any); ok {
					sub[name] = geminiJSONSchema(pd)
				}
			}
			out[k] = sub
		case "items", "additionalProperties":
			if d, ok := v.(map[string]any); ok {
				out[k] = geminiJSONSchema(d)
			} else {
				out[k] = v
			}
		case "anyOf", "oneOf", "prefixItems":
			list, _ := v.([]any)
			sub := make([]any, 0, len(list))
			for _, item := range list {
				if d, ok := item.(map[string]any); ok {
					sub = append(sub, geminiJSONSchema(d))
				}
			}
			out[k] = sub
		default:
			out[k] = v
		}
	}

	props, ok := out["properties"].(map[string]any)
	if _, set := out["propertyOrdering"]; ok && !set && len(props) > 1 {
		out["propertyOrdering"] = propertyOrder(props, out["required"])
	}
	return out
}

func propertyOrder(props map[string]any, required any) []string {
	order := make([]string, 0, len(props))
	seen := make(map[string]bool, len(props))
	var names []string
	switch r := required.(type) {
	case []string:
		names = r
	case []any:
		for _, v := range r {
			if s, ok := v.(string); ok {
				names = append(names, s)
			}
		}
	}
	for _, name := range names {
		if _, ok := props[name]; ok && !seen[name] {
			seen[name] = true
			order = append(order, name)
		}
	}
	var rest []string
	for name := range props {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	slices.Sort(rest)
	return append(order, rest...)
}

// geminiContent extracts the answer text, mapping truncation and content
// filters onto the error taxonomy.
func geminiContent(result *genai.GenerateContentResponse) (json.RawMessage, error) {
	reason := geminiFinishReason(result)
	text := result.Text()
	switch {
	case reason == genai.FinishReasonMaxTokens:
		return nil, &ErrMaxTokensExceeded{Content: json.RawMessage(text)}
	case slices.Contains(geminiFilteredReasons, reason):
		return nil, &ErrInvalidResponse{
			Content: json.RawMessage(text),
			Err:     fmt.Errorf("gemini stopped generation: %s", reason),
		}
	case text == "":
		return nil, &ErrInvalidResponse{Err: fmt.Errorf("empty Gemini response (finish reason %q)", reason)}
	}
	return json.RawMessage(text), nil
}

func geminiFinishReason(result *genai.GenerateContentResponse) genai.FinishReason {
	if len(result.Candidates) == 0 {
		return genai.FinishReasonUnspecified
	}
	return result.Candidates[0].FinishReason
}

// geminiUsage bills thinking tokens as output.
func geminiUsage(u *genai.GenerateContentResponseUsageMetadata) Usage {
	if u == nil {
		return Usage{}
	}
	return Usage{
		InputTokens:  int(u.PromptTokenCount),
		OutputTokens: int(u.CandidatesTokenCount + u.ThoughtsTokenCount),
		TotalTokens:  int(u.TotalTokenCount),
	}
}

func mapGeminiError(err error) error {
	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.Code, err)
	}
	return classifyStatus(0, err)
}
