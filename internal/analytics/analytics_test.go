package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/Adithya-Monish-Kumar-K/search-enrichment/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/search-enrichment/pkg/resilience"
)

func TestAggregatorStats(t *testing.T) {
	agg := NewAggregator()
	agg.Track(Event{Type: EventFacet, Slot: "tags", Terms: []string{"cat", "dog"}, LatencyMs: 10})
	agg.Track(Event{Type: EventFacet, Slot: "tags", Terms: []string{"dog"}, CacheHit: true, LatencyMs: 2})
	agg.Track(Event{Type: EventFacet, Slot: "colour", Terms: []string{"red"}, LatencyMs: 4})
	agg.Track(Event{Type: EventStopwordLookup, Language: "english", Supported: true, LatencyMs: 1})
	agg.Track(Event{Type: EventAnalyze, Language: "english", Supported: true, LatencyMs: 3})
	agg.Track(Event{Type: EventStopwordLookup, Language: "klingon", LatencyMs: 1})
	agg.Track(Event{Type: "bogus", LatencyMs: 1000})

	stats := agg.Stats()
	if stats.FacetRequests != 3 || stats.StopwordLookups != 2 || stats.AnalyzeRequests != 1 {
		t.Errorf("counts = %d/%d/%d", stats.FacetRequests, stats.StopwordLookups, stats.AnalyzeRequests)
	}
	if stats.CacheHits != 1 || stats.CacheMisses != 2 {
		t.Errorf("cache = %d hits, %d misses", stats.CacheHits, stats.CacheMisses)
	}
	if stats.UnsupportedLookups != 1 {
		t.Errorf("UnsupportedLookups = %d, want 1", stats.UnsupportedLookups)
	}
	wantTerms := []KeyCount{{"dog", 2}, {"cat", 1}, {"red", 1}}
	if diff := cmp.Diff(wantTerms, stats.TopTerms); diff != "" {
		t.Errorf("TopTerms mismatch (-want +got):\n%s", diff)
	}
	wantSlots := []KeyCount{{"tags", 2}, {"colour", 1}}
	if diff := cmp.Diff(wantSlots, stats.TopSlots); diff != "" {
		t.Errorf("TopSlots mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]KeyCount{{"english", 2}}, stats.TopLanguages); diff != "" {
		t.Errorf("TopLanguages mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]KeyCount{{"klingon", 1}}, stats.UnsupportedLanguages); diff != "" {
		t.Errorf("UnsupportedLanguages mismatch (-want +got):\n%s", diff)
	}
	// latencies sorted: 1 1 2 3 4 10; the bogus event is not recorded.
	if stats.P50LatencyMs != 3 || stats.P99LatencyMs != 10 {
		t.Errorf("p50=%d p99=%d", stats.P50LatencyMs, stats.P99LatencyMs)
	}
}

func TestAggregatorRestore(t *testing.T) {
	agg := NewAggregator()
	agg.Restore(AggregatedStats{
		FacetRequests: 5,
		CacheHits:     3,
		TopTerms:      []KeyCount{{"cat", 4}},
	})
	agg.Track(Event{Type: EventFacet, Terms: []string{"cat"}, CacheHit: true})
	stats := agg.Stats()
	if stats.FacetRequests != 6 || stats.CacheHits != 4 {
		t.Errorf("FacetRequests=%d CacheHits=%d", stats.FacetRequests, stats.CacheHits)
	}
	if diff := cmp.Diff([]KeyCount{{"cat", 5}}, stats.TopTerms); diff != "" {
		t.Errorf("TopTerms mismatch (-want +got):\n%s", diff)
	}
}

func TestHandleEvent(t *testing.T) {
	agg := NewAggregator()
	handle := HandleEvent(agg)
	raw, _ := json.Marshal(Event{Type: EventStopwordLookup, Language: "french", Supported: true})
	if err := handle(context.Background(), nil, raw); err != nil {
		t.Fatal(err)
	}
	if err := handle(context.Background(), nil, []byte("{not json")); err != nil {
		t.Fatalf("undecodable message should be acknowledged, got %v", err)
	}
	if got := agg.Stats().StopwordLookups; got != 1 {
		t.Errorf("StopwordLookups = %d, want 1", got)
	}
}

func TestHandlerStats(t *testing.T) {
	agg := NewAggregator()
	agg.Track(Event{Type: EventAnalyze, Language: "german", Supported: true})
	rec := httptest.NewRecorder()
	NewHandler(agg).Stats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics", nil))
	var stats AggregatedStats
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatal(err)
	}
	if stats.AnalyzeRequests != 1 {
		t.Errorf("AnalyzeRequests = %d, want 1", stats.AnalyzeRequests)
	}
}

func TestHandlerStatsTopParam(t *testing.T) {
	agg := NewAggregator()
	agg.Track(Event{Type: EventFacet, Slot: "tags", Terms: []string{"cat", "dog", "cat", "bird"}})
	h := NewHandler(agg)

	rec := httptest.NewRecorder()
	h.Stats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics?top=1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var stats AggregatedStats
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]KeyCount{{"cat", 2}}, stats.TopTerms); diff != "" {
		t.Errorf("TopTerms mismatch (-want +got):\n%s", diff)
	}

	for _, top := range []string{"0", "-3", "101", "ten"} {
		rec := httptest.NewRecorder()
		h.Stats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics?top="+top, nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("top=%s: status = %d, want 400", top, rec.Code)
		}
	}
}

func TestTrackersSkipsNil(t *testing.T) {
	agg := NewAggregator()
	Trackers(nil, agg).Track(Event{Type: EventFacet})
	if got := agg.Stats().FacetRequests; got != 1 {
		t.Errorf("FacetRequests = %d, want 1", got)
	}
}

type fakePublisher struct {
	mu      sync.Mutex
	batches [][]kafka.Event
	err     error
}

func (p *fakePublisher) PublishBatch(_ context.Context, events []kafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.batches = append(p.batches, append([]kafka.Event(nil), events...))
	return nil
}

func (p *fakePublisher) published() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, b := range p.batches {
		n += len(b)
	}
	return n
}

func TestCollectorFlush(t *testing.T) {
	pub := &fakePublisher{}
	c := NewCollector(pub, 10, 30, time.Hour)
	c.Track(Event{Type: EventFacet, Slot: "tags"})
	c.Track(Event{Type: EventAnalyze})
	if c.BufferLen() != 2 {
		t.Fatalf("BufferLen = %d, want 2", c.BufferLen())
	}
	c.Flush(context.Background())
	if c.BufferLen() != 0 || pub.published() != 2 {
		t.Errorf("after flush: buffered=%d published=%d", c.BufferLen(), pub.published())
	}
	if key := pub.batches[0][0].Key; key != string(EventFacet) {
		t.Errorf("key = %q, want %q", key, EventFacet)
	}
}

func TestCollectorRequeuesOnFailure(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	c := NewCollector(pub, 10, 30, time.Hour)
	for i := 0; i < 5; i++ {
		c.Track(Event{Type: EventFacet})
	}
	c.Flush(context.Background())
	if c.BufferLen() != 5 {
		t.Errorf("BufferLen = %d, want 5 after failed flush", c.BufferLen())
	}
}

func TestCollectorDropsWhenFull(t *testing.T) {
	c := NewCollector(&fakePublisher{}, 10, 30, time.Hour)
	c.buffer = make([]kafka.Event, 30)
	c.Track(Event{Type: EventFacet})
	if c.BufferLen() != 30 {
		t.Errorf("BufferLen = %d, want 30", c.BufferLen())
	}
	if c.Dropped() != 1 {
		t.Errorf("Dropped = %d, want 1", c.Dropped())
	}
}

func TestCollectorFinalFlushOnCancel(t *testing.T) {
	pub := &fakePublisher{}
	c := NewCollector(pub, 10, 30, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)
	c.Track(Event{Type: EventStopwordLookup, Language: "english"})
	cancel()
	c.Close()
	if pub.published() != 1 {
		t.Errorf("published = %d, want 1", pub.published())
	}
}

func TestGuardedPublisherOpensCircuit(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	g := NewGuardedPublisher(pub, nil, time.Second)
	g.retry.InitialDelay = time.Millisecond
	g.retry.MaxDelay = time.Millisecond

	for i := 0; i < 3; i++ {
		if err := g.PublishBatch(context.Background(), []kafka.Event{{Key: "facet"}}); err == nil {
			t.Fatal("expected failure")
		}
	}
	if g.State() != resilience.StateOpen {
		t.Fatalf("state = %s, want open", g.State())
	}
	pub.err = nil
	err := g.PublishBatch(context.Background(), []kafka.Event{{Key: "facet"}})
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Errorf("err = %v, want ErrCircuitOpen", err)
	}
	if pub.published() != 0 {
		t.Errorf("published = %d while circuit open", pub.published())
	}
}
