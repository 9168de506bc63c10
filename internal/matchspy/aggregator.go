package matchspy

import (
	"iter"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-enrichment/pkg/metrics"
)

// ArrayCountAggregator reads a ValueSource whose payloads are serialized term
// lists and reports a frequency per distinct term.
//
// The first time a term is seen it takes the frequency of the item it came
// from; every later sighting, in the same payload or another one, adds one.
// Results are returned in order of first sighting.
type ArrayCountAggregator struct {
	source  ValueSource
	decoder Decoder
	metrics *metrics.Metrics
	logger  *slog.Logger
}

type Option func(*ArrayCountAggregator)

// WithDecoder sets the payload decoder. The default is YAMLCodec.
func WithDecoder(d Decoder) Option {
	return func(a *ArrayCountAggregator) {
		a.decoder = d
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *ArrayCountAggregator) {
		a.metrics = m
	}
}

func NewArrayCountAggregator(source ValueSource, opts ...Option) *ArrayCountAggregator {
	a := &ArrayCountAggregator{
		source:  source,
		decoder: YAMLCodec{},
		logger:  slog.Default().With("component", "array-count-aggregator"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Values aggregates every item of the source.
func (a *ArrayCountAggregator) Values() []Term {
	return a.aggregate("all", a.source.Values())
}

// TopValues aggregates only the first maxValues items in the source's
// ranking order.
func (a *ArrayCountAggregator) TopValues(maxValues int) []Term {
	return a.aggregate("top", take(a.source.TopValues(maxValues), maxValues))
}

func (a *ArrayCountAggregator) aggregate(variant string, items iter.Seq[Item]) []Term {
	start := time.Now()
	terms := make([]Term, 0)
	index := make(map[string]int)
	for item := range items {
		for _, name := range a.decode(item.Payload) {
			if i, ok := index[name]; ok {
				terms[i].Frequency++
				continue
			}
			index[name] = len(terms)
			terms = append(terms, Term{Name: name, Frequency: item.Frequency})
		}
	}
	if a.metrics != nil {
		a.metrics.FacetAggregationsTotal.WithLabelValues(variant).Inc()
		a.metrics.FacetAggregationDuration.WithLabelValues(variant).Observe(time.Since(start).Seconds())
		a.metrics.FacetDistinctTerms.Observe(float64(len(terms)))
	}
	return terms
}

func (a *ArrayCountAggregator) decode(payload string) []string {
	terms, err := a.decoder.Decode(payload)
	if err != nil {
		a.logger.Debug("payload decoded to no terms", "payload_size", len(payload), "error", err)
		if a.metrics != nil {
			a.metrics.FacetUndecodablePayloads.Inc()
		}
		return nil
	}
	return terms
}
