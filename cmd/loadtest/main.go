// Command loadtest drives a mixed facet, stop-word and analyze workload
// against a running facetd and reports throughput, latency percentiles and
// status codes.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-enrichment/internal/facets"
	"github.com/Adithya-Monish-Kumar-K/search-enrichment/internal/matchspy"
)

type Config struct {
	BaseURL     string
	Concurrency int
	Duration    time.Duration
	Documents   int
	Languages   []string
}

type Stats struct {
	totalRequests atomic.Int64
	successCount  atomic.Int64
	errorCount    atomic.Int64
	latencies     []time.Duration
	latenciesMu   sync.Mutex
	statusCodes   map[int]*atomic.Int64
	statusCodesMu sync.Mutex
}

func NewStats() *Stats {
	return &Stats{
		latencies:   make([]time.Duration, 0, 100000),
		statusCodes: make(map[int]*atomic.Int64),
	}
}

func (s *Stats) RecordRequest(duration time.Duration, statusCode int, err error) {
	s.totalRequests.Add(1)
	if err != nil {
		s.errorCount.Add(1)
		return
	}
	if statusCode >= 200 && statusCode < 300 {
		s.successCount.Add(1)
	} else {
		s.errorCount.Add(1)
	}

	s.latenciesMu.Lock()
	s.latencies = append(s.latencies, duration)
	s.latenciesMu.Unlock()

	s.statusCodesMu.Lock()
	if _, ok := s.statusCodes[statusCode]; !ok {
		s.statusCodes[statusCode] = &atomic.Int64{}
	}
	s.statusCodes[statusCode].Add(1)
	s.statusCodesMu.Unlock()
}

var vocabulary = []string{
	"go", "rust", "search", "index", "facet", "cache", "kafka", "redis",
	"postgres", "stemming", "analytics", "shard", "ranking", "query", "token",
}

var sentences = []string{
	"The quick brown fox jumps over the lazy dog",
	"Search engines remove the most common words before indexing",
	"Les moteurs de recherche suppriment les mots les plus courants",
	"Die Suchmaschine entfernt die häufigsten Wörter",
	"El motor de búsqueda elimina las palabras más comunes",
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "base URL of the enrichment service")
	concurrency := flag.Int("concurrency", 10, "number of concurrent workers")
	duration := flag.Duration("duration", 30*time.Second, "test duration")
	documents := flag.Int("documents", 200, "matched documents per facet request")
	languages := flag.String("languages", "english,french,german,spanish", "comma separated stop-word languages to request")
	flag.Parse()

	cfg := Config{
		BaseURL:     strings.TrimRight(*baseURL, "/"),
		Concurrency: *concurrency,
		Duration:    *duration,
		Documents:   *documents,
		Languages:   strings.Split(*languages, ","),
	}

	fmt.Println("=== Enrichment Load Test ===")
	fmt.Printf("Target:      %s\n", cfg.BaseURL)
	fmt.Printf("Concurrency: %d\n", cfg.Concurrency)
	fmt.Printf("Duration:    %s\n", cfg.Duration)
	fmt.Printf("Documents:   %d per facet request\n", cfg.Documents)
	fmt.Println()

	facetBodies, err := buildFacetBodies(cfg.Documents, 8)
	if err != nil {
		fmt.Fprintf(os.Stderr, "building facet requests: %v\n", err)
		os.Exit(1)
	}
	stats := runLoadTest(cfg, facetBodies)
	printReport(stats, cfg.Duration)
}

// buildFacetBodies pre-renders n distinct facet request bodies, each over
// docs documents whose "tags" slot holds a YAML-encoded term list.
func buildFacetBodies(docs, n int) ([][]byte, error) {
	codec := matchspy.YAMLCodec{}
	rng := rand.New(rand.NewPCG(1, 2))
	bodies := make([][]byte, 0, n)
	for b := 0; b < n; b++ {
		req := facets.Request{Slot: "tags", Top: 5 + b}
		for d := 0; d < docs; d++ {
			terms := make([]string, 1+rng.IntN(4))
			for i := range terms {
				terms[i] = vocabulary[rng.IntN(len(vocabulary))]
			}
			payload, err := codec.Encode(terms)
			if err != nil {
				return nil, err
			}
			req.Documents = append(req.Documents, matchspy.Document{
				ID:     fmt.Sprintf("%d-%d", b, d),
				Values: map[string]string{"tags": payload},
			})
		}
		raw, err := json.Marshal(req)
		if err != nil {
			return nil, err
		}
		bodies = append(bodies, raw)
	}
	return bodies, nil
}

// nextRequest rotates through the three endpoints so every worker exercises
// facets, stop-word lookups and analysis.
func nextRequest(ctx context.Context, cfg Config, facetBodies [][]byte, i int) (*http.Request, error) {
	switch i % 3 {
	case 0:
		body := facetBodies[i%len(facetBodies)]
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.BaseURL+"/api/v1/facets", bytes.NewReader(body))
		if err == nil {
			req.Header.Set("Content-Type", "application/json")
		}
		return req, err
	case 1:
		lang := cfg.Languages[i%len(cfg.Languages)]
		return http.NewRequestWithContext(ctx, http.MethodGet, cfg.BaseURL+"/api/v1/stopwords/"+lang, nil)
	default:
		body, err := json.Marshal(map[string]any{
			"text":     sentences[i%len(sentences)],
			"language": cfg.Languages[i%len(cfg.Languages)],
			"stem":     i%2 == 0,
		})
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.BaseURL+"/api/v1/analyze", bytes.NewReader(body))
		if err == nil {
			req.Header.Set("Content-Type", "application/json")
		}
		return req, err
	}
}

func runLoadTest(cfg Config, facetBodies [][]byte) *Stats {
	stats := NewStats()
	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        cfg.Concurrency * 2,
			MaxIdleConnsPerHost: cfg.Concurrency * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	var wg sync.WaitGroup
	fmt.Print("Running")
	for w := 0; w < cfg.Concurrency; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for i := workerID; ctx.Err() == nil; i += cfg.Concurrency {
				req, err := nextRequest(ctx, cfg, facetBodies, i)
				if err != nil {
					stats.RecordRequest(0, 0, err)
					continue
				}
				start := time.Now()
				resp, err := client.Do(req)
				took := time.Since(start)
				if err != nil {
					if ctx.Err() == nil {
						stats.RecordRequest(took, 0, err)
					}
					continue
				}
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				stats.RecordRequest(took, resp.StatusCode, nil)
			}
		}(w)
	}

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fmt.Print(".")
			}
		}
	}()

	wg.Wait()
	fmt.Println(" done!")
	fmt.Println()
	return stats
}

func printReport(stats *Stats, duration time.Duration) {
	total := stats.totalRequests.Load()
	success := stats.successCount.Load()
	errors := stats.errorCount.Load()

	fmt.Println("=== Results ===")
	fmt.Printf("Total Requests:  %d\n", total)
	fmt.Printf("Successful:      %d\n", success)
	fmt.Printf("Errors:          %d\n", errors)

	if total > 0 {
		errorRate := float64(errors) / float64(total) * 100
		fmt.Printf("Error Rate:      %.2f%%\n", errorRate)
		rps := float64(total) / duration.Seconds()
		fmt.Printf("Requests/sec:    %.2f\n", rps)
	}

	stats.latenciesMu.Lock()
	latencies := make([]time.Duration, len(stats.latencies))
	copy(latencies, stats.latencies)
	stats.latenciesMu.Unlock()

	if len(latencies) > 0 {
		sort.Slice(latencies, func(i, j int) bool {
			return latencies[i] < latencies[j]
		})

		var sum time.Duration
		for _, l := range latencies {
			sum += l
		}
		avg := sum / time.Duration(len(latencies))

		fmt.Println()
		fmt.Println("=== Latency ===")
		fmt.Printf("Min:    %s\n", latencies[0])
		fmt.Printf("Avg:    %s\n", avg)
		fmt.Printf("P50:    %s\n", percentile(latencies, 50))
		fmt.Printf("P90:    %s\n", percentile(latencies, 90))
		fmt.Printf("P95:    %s\n", percentile(latencies, 95))
		fmt.Printf("P99:    %s\n", percentile(latencies, 99))
		fmt.Printf("Max:    %s\n", latencies[len(latencies)-1])

		var sumSquared float64
		avgFloat := float64(avg)
		for _, l := range latencies {
			diff := float64(l) - avgFloat
			sumSquared += diff * diff
		}
		stddev := time.Duration(math.Sqrt(sumSquared / float64(len(latencies))))
		fmt.Printf("StdDev: %s\n", stddev)
	}

	fmt.Println()
	fmt.Println("=== Status Codes ===")
	stats.statusCodesMu.Lock()
	codes := make([]int, 0, len(stats.statusCodes))
	for code := range stats.statusCodes {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	for _, code := range codes {
		count := stats.statusCodes[code].Load()
		fmt.Printf("  %d: %d\n", code, count)
	}
	stats.statusCodesMu.Unlock()

	if total == 0 {
		fmt.Println()
		fmt.Println("WARNING: No requests completed. Is the service running?")
		os.Exit(1)
	}
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
