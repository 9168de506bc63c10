package main

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/search-enrichment/internal/facets"
	"github.com/Adithya-Monish-Kumar-K/search-enrichment/internal/matchspy"
)

func TestBuildFacetBodies(t *testing.T) {
	bodies, err := buildFacetBodies(20, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(bodies) != 3 {
		t.Fatalf("len = %d, want 3", len(bodies))
	}
	svc := facets.NewService(matchspy.YAMLCodec{}, nil, 10, 100)
	for _, body := range bodies {
		var req facets.Request
		if err := json.Unmarshal(body, &req); err != nil {
			t.Fatal(err)
		}
		res, err := svc.Compute(req)
		if err != nil {
			t.Fatalf("Compute: %v", err)
		}
		if res.Matched != 20 || len(res.Terms) == 0 {
			t.Errorf("Matched=%d terms=%d", res.Matched, len(res.Terms))
		}
	}
}

func TestNextRequestRotates(t *testing.T) {
	cfg := Config{BaseURL: "http://svc", Languages: []string{"english"}}
	bodies := [][]byte{[]byte(`{}`)}
	want := []struct{ method, path string }{
		{http.MethodPost, "/api/v1/facets"},
		{http.MethodGet, "/api/v1/stopwords/english"},
		{http.MethodPost, "/api/v1/analyze"},
	}
	for i, w := range want {
		req, err := nextRequest(context.Background(), cfg, bodies, i)
		if err != nil {
			t.Fatal(err)
		}
		if req.Method != w.method || req.URL.Path != w.path {
			t.Errorf("request %d = %s %s, want %s %s", i, req.Method, req.URL.Path, w.method, w.path)
		}
	}
}
