package stopwords

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/search-enrichment/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-enrichment/pkg/metrics"
	"golang.org/x/sync/singleflight"
)

// Registry maps normalized language names to stoppers built from the files
// in its data directory. Entries are added on first use and never replaced,
// so every caller asking for a language sees the same *SimpleStopper.
type Registry struct {
	dataDir string
	entries sync.Map
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger
}

type Option func(*Registry)

// WithMetrics records cache and load statistics on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Registry) {
		r.metrics = m
	}
}

// WithLogger replaces the component logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

func NewRegistry(dataDir string, opts ...Option) *Registry {
	r := &Registry{
		dataDir: dataDir,
		logger:  slog.Default().With("component", "stopword-registry"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the stopper described by in. A prebuilt stopper is
// returned as is; a language is looked up in the cache and loaded from disk
// on the first request.
func (r *Registry) Resolve(in Input) (Stopper, error) {
	if in.prebuilt != nil {
		return in.prebuilt, nil
	}
	s, err := r.ForLanguage(in.language)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ForLanguage is Resolve for a language name.
func (r *Registry) ForLanguage(lang string) (*SimpleStopper, error) {
	key := normalize(lang)
	if s, ok := r.entries.Load(key); ok {
		r.hit()
		return s.(*SimpleStopper), nil
	}
	r.miss()

	v, err, shared := r.group.Do(key, func() (any, error) {
		if s, ok := r.entries.Load(key); ok {
			return s, nil
		}
		words, err := r.StopWordsFor(key)
		if err != nil {
			return nil, err
		}
		actual, _ := r.entries.LoadOrStore(key, NewSimpleStopper(words...))
		stopper := actual.(*SimpleStopper)
		if r.metrics != nil {
			r.metrics.StopwordsLoaded.WithLabelValues(key).Set(float64(stopper.Len()))
		}
		r.logger.Info("stopper built", "language", key, "words", stopper.Len())
		return stopper, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		r.logger.Debug("stopper build shared", "language", key)
	}
	return v.(*SimpleStopper), nil
}

// StopWordsFor reads and parses the stopword file for lang, returning the
// words in file order. It fails with ErrUnsupportedLanguage when there is no
// such file.
func (r *Registry) StopWordsFor(lang string) ([]string, error) {
	key := normalize(lang)
	if !validKey(key) {
		r.recordLoad("unsupported", 0)
		return nil, apperrors.UnsupportedLanguage(key)
	}
	start := time.Now()
	f, err := os.Open(r.Filename(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			r.recordLoad("unsupported", 0)
			return nil, apperrors.UnsupportedLanguage(key)
		}
		r.recordLoad("error", 0)
		return nil, fmt.Errorf("opening stopword file for %s: %w", key, err)
	}
	defer f.Close()

	words := ParseWords(f, r.logger.With("language", key))
	r.recordLoad("ok", time.Since(start))
	return words, nil
}

// Filename returns the path of the stopword file for lang. It does no I/O.
func (r *Registry) Filename(lang string) string {
	return filepath.Join(r.dataDir, normalize(lang)+fileExt)
}

// Preload resolves each language up front so request paths only see cache
// hits. It stops at the first language that cannot be loaded.
func (r *Registry) Preload(langs ...string) error {
	for _, lang := range langs {
		if _, err := r.ForLanguage(lang); err != nil {
			return fmt.Errorf("preloading stopwords: %w", err)
		}
	}
	return nil
}

// Languages lists the languages that have a file in the data directory.
func (r *Registry) Languages() ([]string, error) {
	entries, err := os.ReadDir(r.dataDir)
	if err != nil {
		return nil, fmt.Errorf("listing stopword directory %s: %w", r.dataDir, err)
	}
	langs := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		langs = append(langs, strings.TrimSuffix(name, fileExt))
	}
	sort.Strings(langs)
	return langs, nil
}

// Cached lists the languages that already have a stopper, sorted.
func (r *Registry) Cached() []string {
	langs := []string{}
	r.entries.Range(func(k, _ any) bool {
		langs = append(langs, k.(string))
		return true
	})
	sort.Strings(langs)
	return langs
}

// DataDir returns the directory stopword files are read from.
func (r *Registry) DataDir() string {
	return r.dataDir
}

// validKey rejects names that would escape the data directory.
func validKey(key string) bool {
	if key == "" || key == "." || key == ".." {
		return false
	}
	return !strings.ContainsAny(key, `/\`)
}

func (r *Registry) hit() {
	if r.metrics != nil {
		r.metrics.StopwordCacheHits.Inc()
	}
}

func (r *Registry) miss() {
	if r.metrics != nil {
		r.metrics.StopwordCacheMisses.Inc()
	}
}

func (r *Registry) recordLoad(status string, took time.Duration) {
	if r.metrics == nil {
		return
	}
	r.metrics.StopwordLoadsTotal.WithLabelValues(status).Inc()
	if status == "ok" {
		r.metrics.StopwordLoadDuration.Observe(took.Seconds())
	}
}
