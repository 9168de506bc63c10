// Package analysis turns text into search terms. It lower-cases and
// NFC-normalizes input, splits on non-alphanumeric boundaries, removes the
// stop words of a resolved Stopper, and stems what is left with snowball.
package analysis

import (
	"strings"
	"unicode"

	"github.com/kljensen/snowball"
	"golang.org/x/text/unicode/norm"

	"github.com/Adithya-Monish-Kumar-K/search-enrichment/internal/stopwords"
)

// stemLanguages are the languages the snowball package can stem.
var stemLanguages = map[string]struct{}{
	"english": {}, "french": {}, "spanish": {}, "russian": {},
	"swedish": {}, "norwegian": {}, "hungarian": {},
}

// Token represents a single normalised term and its position among the kept
// terms of the original text.
type Token struct {
	Term     string `json:"term"`
	Position int    `json:"position"`
}

// Tokenizer splits text and drops stop words. A nil stopper keeps every
// word; an empty or unsupported stem language disables stemming.
type Tokenizer struct {
	stopper  stopwords.Stopper
	stemLang string
}

func NewTokenizer(stopper stopwords.Stopper, stemLanguage string) *Tokenizer {
	lang := strings.ToLower(strings.TrimSpace(stemLanguage))
	if !CanStem(lang) {
		lang = ""
	}
	return &Tokenizer{stopper: stopper, stemLang: lang}
}

// CanStem reports whether lang has a snowball stemmer.
func CanStem(lang string) bool {
	_, ok := stemLanguages[lang]
	return ok
}

// Tokenize breaks text into lowercased, optionally stemmed Tokens with stop
// words removed. Stop words are matched before stemming.
func (t *Tokenizer) Tokenize(text string) []Token {
	words := Split(text)
	tokens := make([]Token, 0, len(words))
	pos := 0
	for _, word := range words {
		if t.stopper != nil && t.stopper.IsStopWord(word) {
			continue
		}
		term := t.stem(word)
		if term == "" {
			continue
		}
		tokens = append(tokens, Token{
			Term:     term,
			Position: pos,
		})
		pos++
	}
	return tokens
}

// Terms is Tokenize without positions.
func (t *Tokenizer) Terms(text string) []string {
	tokens := t.Tokenize(text)
	terms := make([]string, len(tokens))
	for i, tok := range tokens {
		terms[i] = tok.Term
	}
	return terms
}

// Split lower-cases and normalizes text and cuts it into words. Apostrophes
// inside a word are kept so contractions match stop lists.
func Split(text string) []string {
	text = norm.NFC.String(strings.ToLower(text))
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	words := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, "'")
		if f != "" {
			words = append(words, f)
		}
	}
	return words
}

// FilterTerms drops the stop words from already tokenized terms, keeping
// order.
func FilterTerms(terms []string, stopper stopwords.Stopper) []string {
	kept := make([]string, 0, len(terms))
	for _, term := range terms {
		if stopper.IsStopWord(term) {
			continue
		}
		kept = append(kept, term)
	}
	return kept
}

func (t *Tokenizer) stem(word string) string {
	if t.stemLang == "" {
		return word
	}
	stemmed, err := snowball.Stem(word, t.stemLang, false)
	if err != nil {
		return word
	}
	return stemmed
}
