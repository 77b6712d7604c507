package storygen

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/abhisek/sanlang/internal/tokenize"
)

// jlptLevels runs from easiest to hardest.
var jlptLevels = []string{"N5", "N4", "N3", "N2", "N1"}

// threshold is base + tokens/scale.
type threshold struct{ base, scale int }

func (t threshold) at(tokens int) int { return t.base + tokens/t.scale }

// Minimum unique words at the target level.
var minTarget = map[string]threshold{
	"N5": {2, 150},
	"N4": {3, 120},
	"N3": {4, 100},
	"N2": {5, 80},
	"N1": {6, 80},
}

// Maximum unique words above the target level. N1 has no limit.
var maxAbove = map[string]threshold{
	"N5": {5, 100},
	"N4": {10, 50},
	"N3": {10, 50},
	"N2": {10, 50},
}

var maxUnknown = threshold{8, 100}

// WordLists maps each JLPT level to the words introduced at that level.
type WordLists map[string]map[string]bool

// LoadWordLists reads n5.txt through n1.txt from dir, one word per line.
// Missing files leave their level empty.
func LoadWordLists(dir string) (WordLists, error) {
	return loadWordLists(os.DirFS(dir))
}

func loadWordLists(fsys fs.FS) (WordLists, error) {
	wl := make(WordLists, len(jlptLevels))
	for _, level := range jlptLevels {
		words := make(map[string]bool)
		wl[level] = words
		f, err := fsys.Open(strings.ToLower(level) + ".txt")
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		sc := bufio.NewScanner(f)
		for sc.Scan() {
			if w := strings.TrimSpace(sc.Text()); w != "" {
				words[w] = true
			}
		}
		f.Close()
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("read %s word list: %w", level, err)
		}
	}
	return wl, nil
}

// Level returns the easiest level listing word, or "".
func (wl WordLists) Level(word string) string {
	for _, level := range jlptLevels {
		if wl[level][word] {
			return level
		}
	}
	return ""
}

func (wl WordLists) empty() bool {
	for _, words := range wl {
		if len(words) > 0 {
			return false
		}
	}
	return true
}

// ValidationResult scores a story's vocabulary against a target level.
type ValidationResult struct {
	TotalTokens  int            `json:"total_tokens"`
	UniqueWords  int            `json:"unique_words"`
	WordsByLevel map[string]int `json:"words_by_level"`

	TargetLevelCount int `json:"target_level_count"`
	AboveLevelCount  int `json:"above_level_count"`
	UnknownCount     int `json:"unknown_count"`

	MinTarget  int `json:"min_target"`
	MaxAbove   int `json:"max_above"` // -1 means no limit
	MaxUnknown int `json:"max_unknown"`

	HasLearningValue bool    `json:"has_learning_value"`
	NotTooHard       bool    `json:"not_too_hard"`
	NotTooObscure    bool    `json:"not_too_obscure"`
	Passed           bool    `json:"passed"`
	Readability      float64 `json:"readability"`
	Message          string  `json:"message"`

	AboveLevelWords []string `json:"above_level_words,omitempty"`
	UnknownWords    []string `json:"unknown_words,omitempty"`
}

// VocabularyValidator checks that generated Japanese stories fit their
// JLPT level.
type VocabularyValidator struct {
	lists WordLists
}

// NewVocabularyValidator creates a validator over lists.
func NewVocabularyValidator(lists WordLists) *VocabularyValidator {
	return &VocabularyValidator{lists: lists}
}

// maxExamples caps the word lists kept in a result.
const maxExamples = 20

// Validate scores tokens against level. Without word lists every story
// passes.
func (v *VocabularyValidator) Validate(tokens []tokenize.Token, level string) (*ValidationResult, error) {
	targetIdx := indexOf(jlptLevels, level)
	if targetIdx < 0 {
		return nil, fmt.Errorf("invalid JLPT level %q", level)
	}
	res := &ValidationResult{TotalTokens: len(tokens), WordsByLevel: map[string]int{}}
	if v == nil || v.lists.empty() {
		res.pass("validation skipped: no word lists")
		return res, nil
	}

	seen := make(map[string]bool)
	var words []string
	for _, t := range tokens {
		w := t.BaseForm
		if w == "" || w == "*" {
			w = t.Surface
		}
		if w == "" || tokenize.Ignored(w) || t.POS == tokenize.POSPunctuation || seen[w] {
			continue
		}
		seen[w] = true
		words = append(words, w)
	}
	if len(words) == 0 {
		res.pass("no words to validate")
		return res, nil
	}

	readable := 0
	for _, w := range words {
		katakana := tokenize.IsKatakana(w)
		wordLevel := v.lists.Level(w)
		if wordLevel == "" {
			if katakana {
				res.WordsByLevel["katakana"]++
				continue
			}
			res.WordsByLevel["unknown"]++
			res.UnknownCount++
			if len(res.UnknownWords) < maxExamples {
				res.UnknownWords = append(res.UnknownWords, w)
			}
			continue
		}
		res.WordsByLevel[wordLevel]++
		switch idx := indexOf(jlptLevels, wordLevel); {
		case idx == targetIdx:
			res.TargetLevelCount++
			readable++
		case idx < targetIdx:
			readable++
		case !katakana:
			res.AboveLevelCount++
			if len(res.AboveLevelWords) < maxExamples {
				res.AboveLevelWords = append(res.AboveLevelWords, w)
			}
		}
	}

	res.UniqueWords = len(words)
	res.Readability = float64(readable) / float64(len(words))
	res.MinTarget = minTarget[level].at(res.TotalTokens)
	res.MaxAbove = -1
	if t, ok := maxAbove[level]; ok {
		res.MaxAbove = t.at(res.TotalTokens)
	}
	res.MaxUnknown = maxUnknown.at(res.TotalTokens)

	res.HasLearningValue = res.TargetLevelCount >= res.MinTarget
	res.NotTooHard = res.MaxAbove < 0 || res.AboveLevelCount <= res.MaxAbove
	res.NotTooObscure = res.UnknownCount <= res.MaxUnknown
	res.Passed = res.HasLearningValue && res.NotTooHard && res.NotTooObscure

	if res.Passed {
		res.Message = fmt.Sprintf("vocabulary fits %s", level)
		return res, nil
	}
	var issues []string
	if !res.HasLearningValue {
		issues = append(issues, fmt.Sprintf("not enough %s words (%d/%d)", level, res.TargetLevelCount, res.MinTarget))
	}
	if !res.NotTooHard {
		issues = append(issues, fmt.Sprintf("too many above-level words (%d/%d)", res.AboveLevelCount, res.MaxAbove))
	}
	if !res.NotTooObscure {
		issues = append(issues, fmt.Sprintf("too many unknown words (%d/%d)", res.UnknownCount, res.MaxUnknown))
	}
	res.Message = fmt.Sprintf("failed %s validation: %s", level, strings.Join(issues, ", "))
	return res, nil
}

func (r *ValidationResult) pass(msg string) {
	r.HasLearningValue = true
	r.NotTooHard = true
	r.NotTooObscure = true
	r.Passed = true
	r.Readability = 1
	r.Message = msg
}

func indexOf(levels []string, level string) int {
	for i, l := range levels {
		if l == level {
			return i
		}
	}
	return -1
}
