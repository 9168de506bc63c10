package analytics

import "time"

type EventType string

const (
	EventFacet          EventType = "facet"
	EventStopwordLookup EventType = "stopword_lookup"
	EventAnalyze        EventType = "analyze"
)

// Event is published once per served request. Slot, Matched and Terms are
// set for facet events; Language and Supported for lookups and analysis.
type Event struct {
	Type      EventType `json:"type"`
	Slot      string    `json:"slot,omitempty"`
	Matched   int       `json:"matched,omitempty"`
	Terms     []string  `json:"terms,omitempty"`
	Language  string    `json:"language,omitempty"`
	Supported bool      `json:"supported"`
	Removed   int       `json:"removed,omitempty"`
	CacheHit  bool      `json:"cache_hit"`
	LatencyMs int64     `json:"latency_ms"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// Tracker accepts events for publishing or aggregation.
type Tracker interface {
	Track(event Event)
}

type multiTracker []Tracker

func (m multiTracker) Track(event Event) {
	for _, t := range m {
		t.Track(event)
	}
}

// Trackers fans every event out to each non-nil tracker.
func Trackers(trackers ...Tracker) Tracker {
	var out multiTracker
	for _, t := range trackers {
		if t != nil {
			out = append(out, t)
		}
	}
	return out
}
