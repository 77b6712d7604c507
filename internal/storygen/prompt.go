package storygen

import (
	"fmt"
	"strings"

	"github.com/abhisek/sanlang/internal/store"
)

var jlptGuidelines = map[string]string{
	"N5": `- Use only basic vocabulary (~800 words)
- Simple sentence structures (です/ます form)
- Basic particles (は, が, を, に, で, へ, と, も)
- Present and past tense only
- Short, simple sentences about everyday topics`,
	"N4": `- Vocabulary up to ~1,500 words
- て-form, ない-form, た-form
- Potential and volitional forms
- Conditionals (たら, と) and giving/receiving verbs`,
	"N3": `- Vocabulary up to ~3,750 words
- Passive and causative forms
- Formal and informal registers
- Idiomatic expressions and abstract concepts`,
	"N2": `- Vocabulary up to ~6,000 words
- Advanced grammar patterns and formal written style
- Complex conditionals and nuanced expressions`,
	"N1": `- Full vocabulary range
- Literary and formal expressions
- Sophisticated idioms and nested clauses`,
}

var languageNames = map[string]string{
	"ja": "Japanese",
	"fr": "French",
	"es": "Spanish",
	"de": "German",
	"it": "Italian",
}

func languageName(code string) string {
	if n, ok := languageNames[code]; ok {
		return n
	}
	return code
}

func storySystemPrompt(language, level string) string {
	var b strings.Builder
	lang := languageName(language)
	fmt.Fprintf(&b, "You are a %s language educator writing graded reader stories for %s learners.\n\n", lang, level)
	if g, ok := jlptGuidelines[level]; ok && language == "ja" {
		fmt.Fprintf(&b, "JLPT %s guidelines:\n%s\n\n", level, g)
	} else {
		fmt.Fprintf(&b, "Keep vocabulary and grammar within CEFR %s.\n\n", level)
	}
	fmt.Fprintf(&b, `Rules:
1. Write the story text only in %s; titles and summary fields follow the schema
2. Use natural language appropriate for the level
3. Include dialogue where it fits
4. Give each chapter a clear narrative arc
5. Repeat key vocabulary for reinforcement`, lang)
	return b.String()
}

func buildStoryUserMessage(req Request) string {
	theme := ""
	if req.Theme != "" {
		theme = " about " + req.Theme
	}
	unit := "words"
	if req.Language == "ja" {
		unit = "characters"
	}
	return fmt.Sprintf(`Create a %s story%s for %s learners at level %s.

Requirements:
- %d chapters
- About %d %s per chapter
- Engaging plot with character development
- Natural dialogue between characters`,
		req.Genre, theme, languageName(req.Language), req.Level,
		req.Chapters, req.WordsPerChapter, unit)
}

const questionsSystemPrompt = `You write reading comprehension questions for graded readers.
Each question has 3 or 4 options with exactly one correct answer.
Write questions and options in the story's language at the story's level.`

func buildQuestionsUserMessage(st *store.Story, count int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write %d comprehension questions for this %s story (level %s).\n\n",
		count, languageName(st.Language), st.Level)
	fmt.Fprintf(&b, "Title: %s\n", st.Title)
	for _, ch := range st.Chapters {
		fmt.Fprintf(&b, "\n## %s\n", ch.Title)
		for _, p := range ch.Paragraphs {
			b.WriteString(p)
			b.WriteByte('\n')
		}
	}
	return b.String()
}
