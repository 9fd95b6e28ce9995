package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records resolver round-trips and order submissions.
type CheckoutMetrics struct {
	resolverDuration *prometheus.HistogramVec
	resolverFailure  prometheus.Counter
	resolverStale    prometheus.Counter
	submissions      *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	resolverDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "resolver_request_duration_seconds",
		Help:    "Duration of shipping option resolver calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	resolverFailure := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "resolver_failures_total",
		Help: "Shipping option resolver calls that failed.",
	})
	resolverStale := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "resolver_stale_responses_total",
		Help: "Resolver responses discarded because a newer cart revision was issued.",
	})
	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_submissions_total",
		Help: "Order submissions by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(resolverDuration, resolverFailure, resolverStale, submissions)
	return &CheckoutMetrics{
		resolverDuration: resolverDuration,
		resolverFailure:  resolverFailure,
		resolverStale:    resolverStale,
		submissions:      submissions,
	}
}

// ObserveResolver records the duration of a resolver call.
func (c *CheckoutMetrics) ObserveResolver(duration time.Duration, err error) {
	if c == nil || c.resolverDuration == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
		c.resolverFailure.Inc()
	}
	c.resolverDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// IncStale counts a discarded out-of-date resolver response.
func (c *CheckoutMetrics) IncStale() {
	if c == nil || c.resolverStale == nil {
		return
	}
	c.resolverStale.Inc()
}

// IncSubmission counts an order submission attempt by outcome.
func (c *CheckoutMetrics) IncSubmission(outcome string) {
	if c == nil || c.submissions == nil {
		return
	}
	c.submissions.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
