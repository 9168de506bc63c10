// Package stopwords resolves language names to stop word filters. Word lists
// live one file per language under a data directory; each list is read once
// and the resulting Stopper is shared for the lifetime of the Registry.
package stopwords

import (
	"sort"
	"strings"
)

// Stopper decides whether a term should be dropped from indexing and queries.
type Stopper interface {
	IsStopWord(term string) bool
}

// SimpleStopper is a Stopper backed by a fixed set of words. It is filled
// once at construction and never changes afterwards.
type SimpleStopper struct {
	words map[string]struct{}
}

func NewSimpleStopper(words ...string) *SimpleStopper {
	s := &SimpleStopper{words: make(map[string]struct{}, len(words))}
	for _, w := range words {
		s.words[w] = struct{}{}
	}
	return s
}

func (s *SimpleStopper) IsStopWord(term string) bool {
	_, ok := s.words[term]
	return ok
}

func (s *SimpleStopper) Len() int {
	return len(s.words)
}

// Words returns the stop words in ascending order.
func (s *SimpleStopper) Words() []string {
	out := make([]string, 0, len(s.words))
	for w := range s.words {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// Input names what the caller wants a Stopper for: either one it already
// built, or a language whose list should be loaded.
type Input struct {
	prebuilt Stopper
	language string
}

// Prebuilt wraps an existing stopper so Resolve hands it back untouched.
func Prebuilt(s Stopper) Input {
	return Input{prebuilt: s}
}

// Language asks Resolve for the stopper of the named language.
func Language(name string) Input {
	return Input{language: name}
}

// IsPrebuilt reports whether in carries a ready stopper.
func (in Input) IsPrebuilt() bool {
	return in.prebuilt != nil
}

func (in Input) String() string {
	if in.prebuilt != nil {
		return "prebuilt"
	}
	return normalize(in.language)
}

func normalize(lang string) string {
	return strings.TrimSpace(strings.ToLower(lang))
}
