package analytics

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-enrichment/pkg/kafka"
)

const (
	maxLatencySamples = 10000
	topListSize       = 10
	// MaxTopList bounds the top lists a caller may ask for.
	MaxTopList = 100
)

type AggregatedStats struct {
	FacetRequests        int64      `json:"facet_requests"`
	StopwordLookups      int64      `json:"stopword_lookups"`
	AnalyzeRequests      int64      `json:"analyze_requests"`
	UnsupportedLookups   int64      `json:"unsupported_lookups"`
	CacheHits            int64      `json:"cache_hits"`
	CacheMisses          int64      `json:"cache_misses"`
	AvgLatencyMs         float64    `json:"avg_latency_ms"`
	P50LatencyMs         int64      `json:"p50_latency_ms"`
	P95LatencyMs         int64      `json:"p95_latency_ms"`
	P99LatencyMs         int64      `json:"p99_latency_ms"`
	TopTerms             []KeyCount `json:"top_terms"`
	TopSlots             []KeyCount `json:"top_slots"`
	TopLanguages         []KeyCount `json:"top_languages"`
	UnsupportedLanguages []KeyCount `json:"unsupported_languages"`
	RequestsPerMinute    float64    `json:"requests_per_minute"`
}

type KeyCount struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

type Aggregator struct {
	mu                 sync.RWMutex
	facetRequests      atomic.Int64
	stopwordLookups    atomic.Int64
	analyzeRequests    atomic.Int64
	unsupportedLookups atomic.Int64
	cacheHits          atomic.Int64
	cacheMisses        atomic.Int64
	latencies          []int64
	termCounts         map[string]int64
	slotCounts         map[string]int64
	languageCounts     map[string]int64
	unsupportedCounts  map[string]int64
	startTime          time.Time

	logger *slog.Logger
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		latencies:         make([]int64, 0, 1024),
		termCounts:        make(map[string]int64),
		slotCounts:        make(map[string]int64),
		languageCounts:    make(map[string]int64),
		unsupportedCounts: make(map[string]int64),
		startTime:         time.Now(),
		logger:            slog.Default().With("component", "analytics-aggregator"),
	}
}

// HandleEvent adapts the aggregator to a Kafka consumer. Undecodable
// messages are logged and acknowledged so they do not block the partition.
func HandleEvent(agg *Aggregator) kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[Event](value)
		if err != nil {
			agg.logger.Error("failed to decode analytics event", "error", err)
			return nil
		}
		agg.Track(event)
		return nil
	}
}

// Track records one event. It satisfies Tracker so a server can aggregate
// in-process without a broker.
func (a *Aggregator) Track(event Event) {
	switch event.Type {
	case EventFacet:
		a.facetRequests.Add(1)
		if event.CacheHit {
			a.cacheHits.Add(1)
		} else {
			a.cacheMisses.Add(1)
		}
	case EventStopwordLookup:
		a.stopwordLookups.Add(1)
	case EventAnalyze:
		a.analyzeRequests.Add(1)
	default:
		a.logger.Warn("unknown analytics event type", "type", event.Type)
		return
	}
	if event.Language != "" && !event.Supported {
		a.unsupportedLookups.Add(1)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.latencies) == maxLatencySamples {
		copy(a.latencies, a.latencies[1:])
		a.latencies = a.latencies[:maxLatencySamples-1]
	}
	a.latencies = append(a.latencies, event.LatencyMs)
	if event.Type == EventFacet {
		a.slotCounts[event.Slot]++
		for _, term := range event.Terms {
			a.termCounts[term]++
		}
	}
	if event.Language != "" {
		if event.Supported {
			a.languageCounts[event.Language]++
		} else {
			a.unsupportedCounts[event.Language]++
		}
	}
}

// Restore seeds counters from a persisted snapshot. Only the top lists of a
// snapshot survive, so long-tail keys start from zero again.
func (a *Aggregator) Restore(stats AggregatedStats) {
	a.facetRequests.Store(stats.FacetRequests)
	a.stopwordLookups.Store(stats.StopwordLookups)
	a.analyzeRequests.Store(stats.AnalyzeRequests)
	a.unsupportedLookups.Store(stats.UnsupportedLookups)
	a.cacheHits.Store(stats.CacheHits)
	a.cacheMisses.Store(stats.CacheMisses)

	a.mu.Lock()
	defer a.mu.Unlock()
	restoreCounts(a.termCounts, stats.TopTerms)
	restoreCounts(a.slotCounts, stats.TopSlots)
	restoreCounts(a.languageCounts, stats.TopLanguages)
	restoreCounts(a.unsupportedCounts, stats.UnsupportedLanguages)
}

func restoreCounts(dst map[string]int64, src []KeyCount) {
	for _, kc := range src {
		dst[kc.Key] += kc.Count
	}
}

// Stats reports the totals with each top list cut to the default size.
func (a *Aggregator) Stats() AggregatedStats {
	return a.StatsWithTop(topListSize)
}

// StatsWithTop is Stats with each top list holding at most n entries.
func (a *Aggregator) StatsWithTop(n int) AggregatedStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := AggregatedStats{
		FacetRequests:      a.facetRequests.Load(),
		StopwordLookups:    a.stopwordLookups.Load(),
		AnalyzeRequests:    a.analyzeRequests.Load(),
		UnsupportedLookups: a.unsupportedLookups.Load(),
		CacheHits:          a.cacheHits.Load(),
		CacheMisses:        a.cacheMisses.Load(),
	}
	if len(a.latencies) > 0 {
		sorted := make([]int64, len(a.latencies))
		copy(sorted, a.latencies)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		var sum int64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyMs = float64(sum) / float64(len(sorted))
		stats.P50LatencyMs = percentile(sorted, 50)
		stats.P95LatencyMs = percentile(sorted, 95)
		stats.P99LatencyMs = percentile(sorted, 99)
	}
	stats.TopTerms = topN(a.termCounts, n)
	stats.TopSlots = topN(a.slotCounts, n)
	stats.TopLanguages = topN(a.languageCounts, n)
	stats.UnsupportedLanguages = topN(a.unsupportedCounts, n)

	total := stats.FacetRequests + stats.StopwordLookups + stats.AnalyzeRequests
	if elapsed := time.Since(a.startTime).Minutes(); elapsed > 0 {
		stats.RequestsPerMinute = float64(total) / elapsed
	}
	return stats
}

func percentile(sorted []int64, pct int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func topN(counts map[string]int64, n int) []KeyCount {
	n = max(n, 0)
	result := make([]KeyCount, 0, len(counts))
	for key, count := range counts {
		result = append(result, KeyCount{Key: key, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Key < result[j].Key
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
