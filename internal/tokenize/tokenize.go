// Package tokenize segments Japanese text with kagome and the IPA
// dictionary.
package tokenize

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// Simplified parts of speech.
const (
	POSNoun         = "noun"
	POSVerb         = "verb"
	POSAdjective    = "adjective"
	POSAdverb       = "adverb"
	POSParticle     = "particle"
	POSAuxiliary    = "auxiliary"
	POSConjunction  = "conjunction"
	POSInterjection = "interjection"
	POSAdnominal    = "adnominal"
	POSPrefix       = "prefix"
	POSPunctuation  = "punctuation"
	POSOther        = "other"
)

var posNames = map[string]string{
	"名詞":  POSNoun,
	"動詞":  POSVerb,
	"形容詞": POSAdjective,
	"副詞":  POSAdverb,
	"助詞":  POSParticle,
	"助動詞": POSAuxiliary,
	"接続詞": POSConjunction,
	"感動詞": POSInterjection,
	"連体詞": POSAdnominal,
	"接頭詞": POSPrefix,
	"記号":  POSPunctuation,
}

// Token is one analyzed unit of text.
type Token struct {
	Surface  string `json:"surface"`
	BaseForm string `json:"base_form"`

	// Reading is in hiragana; empty for unknown words.
	Reading string `json:"reading,omitempty"`
	POS     string `json:"pos"`

	// SubPOS is the first IPA sub-category, e.g. 数 or 非自立.
	SubPOS string `json:"-"`
}

// katakanaCompounds are loanwords the dictionary splits in two.
var katakanaCompounds = map[[2]string]string{
	{"スマート", "フォン"}:    "スマートフォン",
	{"アイス", "クリーム"}:    "アイスクリーム",
	{"クレジット", "カード"}:   "クレジットカード",
	{"ショッピング", "センター"}: "ショッピングセンター",
	{"コンピュータ", "ー"}:    "コンピューター",
	{"エア", "コン"}:       "エアコン",
	{"リモート", "コントロール"}: "リモートコントロール",
	{"ソフト", "ウェア"}:     "ソフトウェア",
	{"ハード", "ウェア"}:     "ハードウェア",
}

// Analyzer tokenizes text. It is safe for concurrent use.
type Analyzer struct {
	t *tokenizer.Tokenizer
}

var (
	sharedOnce sync.Once
	shared     *Analyzer
	sharedErr  error
)

// Shared returns a process-wide analyzer; loading the dictionary is slow.
func Shared() (*Analyzer, error) {
	sharedOnce.Do(func() {
		shared, sharedErr = NewAnalyzer()
	})
	return shared, sharedErr
}

// NewAnalyzer loads the IPA dictionary.
func NewAnalyzer() (*Analyzer, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, fmt.Errorf("load ipa dictionary: %w", err)
	}
	return &Analyzer{t: t}, nil
}

// Tokens splits text into tokens. Whitespace is dropped.
func (a *Analyzer) Tokens(text string) []Token {
	var out []Token
	for _, tok := range a.t.Tokenize(text) {
		if tok.Class == tokenizer.DUMMY || strings.TrimSpace(tok.Surface) == "" {
			continue
		}
		// IPA features: pos, sub1, sub2, sub3, conj type, conj form,
		// base form, reading, pronunciation.
		f := tok.Features()
		t := Token{Surface: tok.Surface, BaseForm: tok.Surface, POS: POSOther}
		if len(f) > 0 {
			if p, ok := posNames[f[0]]; ok {
				t.POS = p
			}
		}
		if len(f) > 1 && f[1] != "*" {
			t.SubPOS = f[1]
		}
		if len(f) > 6 && f[6] != "*" {
			t.BaseForm = f[6]
		}
		if len(f) > 7 && f[7] != "*" {
			t.Reading = ToHiragana(f[7])
		}
		out = append(out, t)
	}
	return mergeCompounds(out)
}

func mergeCompounds(tokens []Token) []Token {
	if len(tokens) < 2 {
		return tokens
	}
	out := make([]Token, 0, len(tokens))
	for i := 0; i < len(tokens); i++ {
		if i+1 < len(tokens) {
			if merged, ok := katakanaCompounds[[2]string{tokens[i].Surface, tokens[i+1].Surface}]; ok {
				out = append(out, Token{
					Surface:  merged,
					BaseForm: merged,
					Reading:  ToHiragana(merged),
					POS:      tokens[i].POS,
				})
				i++
				continue
			}
		}
		out = append(out, tokens[i])
	}
	return out
}

// skipSubPOS are noun sub-categories that are not vocabulary.
var skipSubPOS = map[string]bool{
	"数":   true,
	"非自立": true,
	"代名詞": true,
	"接尾":  true,
}

// IsContentWord reports whether t is worth learning as vocabulary.
func IsContentWord(t Token) bool {
	switch t.POS {
	case POSNoun, POSVerb, POSAdjective, POSAdverb:
	default:
		return false
	}
	if skipSubPOS[t.SubPOS] {
		return false
	}
	return !Ignored(t.BaseForm)
}

// Vocabulary returns the unique base forms of content words in text, in
// order of first appearance.
func (a *Analyzer) Vocabulary(text string) []string {
	return VocabularyOf(a.Tokens(text))
}

// VocabularyOf is Vocabulary over already analyzed tokens.
func VocabularyOf(tokens []Token) []string {
	seen := make(map[string]bool)
	words := []string{}
	for _, t := range tokens {
		if !IsContentWord(t) || seen[t.BaseForm] {
			continue
		}
		seen[t.BaseForm] = true
		words = append(words, t.BaseForm)
	}
	return words
}

// ToHiragana converts katakana to hiragana, leaving other runes alone.
func ToHiragana(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'ァ' && r <= 'ヶ' {
			return r - 0x60
		}
		return r
	}, s)
}

// IsKatakana reports whether s is made only of katakana and the long
// vowel mark.
func IsKatakana(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < 'ァ' || r > 'ヶ') && r != 'ー' {
			return false
		}
	}
	return true
}
