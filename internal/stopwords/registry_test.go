package stopwords

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	apperrors "github.com/Adithya-Monish-Kumar-K/search-enrichment/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-enrichment/pkg/metrics"
)

func writeList(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newTestRegistry(t *testing.T) (*Registry, string, *metrics.Metrics) {
	t.Helper()
	dir := t.TempDir()
	writeList(t, dir, "english.txt", "| English stop words\nthe\n  ignored\nand extra\nOf\n")
	writeList(t, dir, "french.txt", "le\nla\nles\n")
	m := metrics.New(prometheus.NewRegistry())
	return NewRegistry(dir, WithMetrics(m)), dir, m
}

func TestFilename(t *testing.T) {
	r := NewRegistry("/opt/stopwords")
	if got := r.Filename("English"); got != filepath.Join("/opt/stopwords", "english.txt") {
		t.Errorf("Filename() = %q", got)
	}
	if got := r.Filename("  German "); got != filepath.Join("/opt/stopwords", "german.txt") {
		t.Errorf("Filename() = %q", got)
	}
}

func TestStopWordsFor(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	words, err := r.StopWordsFor("english")
	if err != nil {
		t.Fatalf("StopWordsFor: %v", err)
	}
	if diff := cmp.Diff([]string{"the", "and", "of"}, words); diff != "" {
		t.Errorf("StopWordsFor() mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveCachesAndSkipsIO(t *testing.T) {
	r, dir, m := newTestRegistry(t)

	first, err := r.Resolve(Language(" English "))
	if err != nil {
		t.Fatalf("first Resolve: %v", err)
	}
	// With the file gone, only a cache hit can succeed.
	if err := os.Remove(filepath.Join(dir, "english.txt")); err != nil {
		t.Fatal(err)
	}
	second, err := r.Resolve(Language("english"))
	if err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if first != second {
		t.Error("expected the cached stopper on the second call")
	}
	for _, w := range []string{"the", "and", "of"} {
		if !second.IsStopWord(w) {
			t.Errorf("IsStopWord(%q) = false", w)
		}
	}
	if second.IsStopWord("ignored") {
		t.Error("indented line should not be a stop word")
	}
	if got := testutil.ToFloat64(m.StopwordCacheHits); got != 1 {
		t.Errorf("cache hits = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.StopwordLoadsTotal.WithLabelValues("ok")); got != 1 {
		t.Errorf("ok loads = %v, want 1", got)
	}
	if diff := cmp.Diff([]string{"english"}, r.Cached()); diff != "" {
		t.Errorf("Cached() mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveUnsupportedLanguage(t *testing.T) {
	r, _, m := newTestRegistry(t)
	for _, lang := range []string{"klingon", "", "../english", "en/../english"} {
		_, err := r.Resolve(Language(lang))
		if !errors.Is(err, apperrors.ErrUnsupportedLanguage) {
			t.Errorf("Resolve(%q) error = %v, want ErrUnsupportedLanguage", lang, err)
		}
	}
	if got := len(r.Cached()); got != 0 {
		t.Errorf("failed lookups must not be cached, got %d entries", got)
	}
	if got := testutil.ToFloat64(m.StopwordLoadsTotal.WithLabelValues("unsupported")); got != 4 {
		t.Errorf("unsupported loads = %v, want 4", got)
	}
}

func TestResolveLanguageAddedLater(t *testing.T) {
	r, dir, _ := newTestRegistry(t)
	if _, err := r.Resolve(Language("german")); err == nil {
		t.Fatal("expected error before the file exists")
	}
	writeList(t, dir, "german.txt", "der\ndie\ndas\n")
	s, err := r.Resolve(Language("german"))
	if err != nil {
		t.Fatalf("Resolve after adding file: %v", err)
	}
	if !s.IsStopWord("die") {
		t.Error("expected die to be a stop word")
	}
}

func TestResolvePrebuiltPassThrough(t *testing.T) {
	r, _, m := newTestRegistry(t)
	custom := NewSimpleStopper("foo")
	got, err := r.Resolve(Prebuilt(custom))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != Stopper(custom) {
		t.Error("prebuilt stopper must be returned unchanged")
	}
	if len(r.Cached()) != 0 {
		t.Error("prebuilt stopper must not touch the cache")
	}
	if hits, misses := testutil.ToFloat64(m.StopwordCacheHits), testutil.ToFloat64(m.StopwordCacheMisses); hits+misses != 0 {
		t.Errorf("cache counters moved: hits=%v misses=%v", hits, misses)
	}
}

func TestResolveConcurrentSingleBuild(t *testing.T) {
	r, _, _ := newTestRegistry(t)

	const workers = 32
	results := make([]Stopper, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			lang := "english"
			if i%2 == 1 {
				lang = "french"
			}
			s, err := r.Resolve(Language(lang))
			if err != nil {
				t.Errorf("Resolve(%s): %v", lang, err)
				return
			}
			results[i] = s
		}(i)
	}
	wg.Wait()

	for i := 2; i < workers; i++ {
		if results[i] != results[i%2] {
			t.Fatalf("worker %d saw a different stopper instance", i)
		}
	}
	if results[0] == results[1] {
		t.Error("english and french must not share a stopper")
	}
}

func TestPreloadAndLanguages(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	if err := r.Preload("french", "ENGLISH"); err != nil {
		t.Fatalf("Preload: %v", err)
	}
	if diff := cmp.Diff([]string{"english", "french"}, r.Cached()); diff != "" {
		t.Errorf("Cached() mismatch (-want +got):\n%s", diff)
	}
	if err := r.Preload("english", "klingon"); !errors.Is(err, apperrors.ErrUnsupportedLanguage) {
		t.Errorf("Preload error = %v, want ErrUnsupportedLanguage", err)
	}

	langs, err := r.Languages()
	if err != nil {
		t.Fatalf("Languages: %v", err)
	}
	if diff := cmp.Diff([]string{"english", "french"}, langs); diff != "" {
		t.Errorf("Languages() mismatch (-want +got):\n%s", diff)
	}
}

func TestShippedLists(t *testing.T) {
	r := NewRegistry(filepath.Join("..", "..", "data", "stopwords"))
	langs, err := r.Languages()
	if err != nil {
		t.Fatalf("Languages: %v", err)
	}
	if len(langs) == 0 {
		t.Fatal("no stopword lists shipped")
	}
	for _, lang := range langs {
		s, err := r.ForLanguage(lang)
		if err != nil {
			t.Errorf("ForLanguage(%s): %v", lang, err)
			continue
		}
		if s.Len() == 0 {
			t.Errorf("%s list is empty", lang)
		}
	}
	en, err := r.ForLanguage("english")
	if err != nil {
		t.Fatal(err)
	}
	for _, w := range []string{"the", "and", "of", "i"} {
		if !en.IsStopWord(w) {
			t.Errorf("english: %q should be a stop word", w)
		}
	}
}
