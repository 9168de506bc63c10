package analysis

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/Adithya-Monish-Kumar-K/search-enrichment/internal/stopwords"
)

// Resolver hands out stoppers; *stopwords.Registry satisfies it.
type Resolver interface {
	Resolve(in stopwords.Input) (stopwords.Stopper, error)
}

// Analyzer tokenizes text with the stop words of a requested language.
type Analyzer struct {
	resolver        Resolver
	defaultLanguage string
}

func NewAnalyzer(resolver Resolver, defaultLanguage string) *Analyzer {
	return &Analyzer{
		resolver:        resolver,
		defaultLanguage: defaultLanguage,
	}
}

// Request describes one piece of text to analyze. A non-empty Stopwords list
// replaces the stop words of Language; Language still picks the stemmer.
type Request struct {
	Text      string   `json:"text"`
	Language  string   `json:"language"`
	Stem      bool     `json:"stem"`
	Stopwords []string `json:"stopwords,omitempty"`
}

// Result is the analyzed text.
type Result struct {
	Language        string  `json:"language"`
	CustomStopwords bool    `json:"custom_stopwords"`
	Tokens          []Token `json:"tokens"`
	Removed         int     `json:"removed"`
}

// Analyze resolves the stopper for req.Language (or the default language),
// or wraps req.Stopwords as a prebuilt one, and tokenizes req.Text with it.
// Stemming uses the same language when requested and available.
func (a *Analyzer) Analyze(req Request) (*Result, error) {
	lang := req.Language
	if lang == "" {
		lang = a.defaultLanguage
	}
	in := stopwords.Language(lang)
	if len(req.Stopwords) > 0 {
		in = stopwords.Prebuilt(customStopper(req.Stopwords))
	}
	stopper, err := a.resolver.Resolve(in)
	if err != nil {
		return nil, fmt.Errorf("resolving stopper: %w", err)
	}
	stemLang := ""
	if req.Stem {
		stemLang = lang
	}
	tokens := NewTokenizer(stopper, stemLang).Tokenize(req.Text)
	return &Result{
		Language:        stopwords.Language(lang).String(),
		CustomStopwords: in.IsPrebuilt(),
		Tokens:          tokens,
		Removed:         len(Split(req.Text)) - len(tokens),
	}, nil
}

// customStopper builds a stopper from caller supplied words, normalized the
// way Split normalizes text.
func customStopper(words []string) *stopwords.SimpleStopper {
	kept := make([]string, 0, len(words))
	for _, w := range words {
		w = norm.NFC.String(strings.ToLower(strings.TrimSpace(w)))
		if w != "" {
			kept = append(kept, w)
		}
	}
	return stopwords.NewSimpleStopper(kept...)
}
