package analytics

import (
	"context"
	"errors"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-enrichment/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/search-enrichment/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/search-enrichment/pkg/resilience"
)

// GuardedPublisher retries failed batches with backoff, bounds every attempt
// by attemptTimeout, and stops calling the broker while its circuit is open.
type GuardedPublisher struct {
	next           Publisher
	breaker        *resilience.CircuitBreaker
	retry          resilience.RetryConfig
	attemptTimeout time.Duration
	metrics        *metrics.Metrics
}

func NewGuardedPublisher(next Publisher, m *metrics.Metrics, attemptTimeout time.Duration) *GuardedPublisher {
	cbCfg := resilience.CircuitBreakerConfig{
		FailureThreshold: 3,
		ResetTimeout:     30 * time.Second,
	}
	if m != nil {
		cbCfg.OnStateChange = func(name string, _, to resilience.State) {
			m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		}
	}
	return &GuardedPublisher{
		next:    next,
		breaker: resilience.NewCircuitBreaker("kafka-analytics", cbCfg),
		retry: resilience.RetryConfig{
			MaxAttempts:  3,
			InitialDelay: 200 * time.Millisecond,
			MaxDelay:     2 * time.Second,
			Retryable: func(err error) bool {
				return !errors.Is(err, context.Canceled)
			},
		},
		attemptTimeout: attemptTimeout,
		metrics:        m,
	}
}

func (g *GuardedPublisher) PublishBatch(ctx context.Context, events []kafka.Event) error {
	err := g.breaker.Execute(func() error {
		return resilience.Retry(ctx, "publish-analytics", g.retry, func() error {
			return resilience.WithTimeout(ctx, g.attemptTimeout, "publish-analytics", func(ctx context.Context) error {
				return g.next.PublishBatch(ctx, events)
			})
		})
	})
	if g.metrics != nil {
		if err != nil {
			g.metrics.AnalyticsPublishFailures.Inc()
		} else {
			g.metrics.AnalyticsEventsPublished.Add(float64(len(events)))
		}
	}
	return err
}

// State reports the breaker state, for health checks.
func (g *GuardedPublisher) State() resilience.State {
	return g.breaker.GetState()
}
