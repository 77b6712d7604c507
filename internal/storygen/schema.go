package storygen

import "github.com/abhisek/sanlang/internal/llm"

// StorySchema defines the JSON schema for graded story generation.
var StorySchema = &llm.Schema{
	Name:        "graded-story",
	Description: "A graded reader story split into chapters of paragraphs",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{
				"type":        "string",
				"description": "English title",
			},
			"title_native": map[string]any{
				"type":        "string",
				"description": "Title in the target language",
			},
			"summary": map[string]any{
				"type":        "string",
				"description": "English summary (2-3 sentences)",
			},
			"chapters": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"title": map[string]any{
							"type":        "string",
							"description": "Chapter title in the target language",
						},
						"paragraphs": map[string]any{
							"type":        "array",
							"minItems":    1,
							"items":       map[string]any{"type": "string"},
							"description": "Paragraphs of narration or dialogue in the target language only",
						},
					},
					"required":             []any{"title", "paragraphs"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"title", "title_native", "summary", "chapters"},
		"additionalProperties": false,
	},
}

// QuestionsSchema defines the JSON schema for comprehension questions.
var QuestionsSchema = &llm.Schema{
	Name:        "comprehension-questions",
	Description: "Multiple-choice comprehension questions about a story",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"question": map[string]any{
							"type":        "string",
							"description": "Question in the target language",
						},
						"options": map[string]any{
							"type":     "array",
							"minItems": 2,
							"maxItems": 4,
							"items":    map[string]any{"type": "string"},
						},
						"answer_index": map[string]any{
							"type":        "integer",
							"minimum":     0,
							"description": "Zero-based index of the correct option",
						},
					},
					"required":             []any{"question", "options", "answer_index"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"questions"},
		"additionalProperties": false,
	},
}
