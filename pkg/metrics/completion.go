package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CompletionMetrics records traffic against the external completion service.
// The fallback counter tracks how often callers served the canned result
// instead of a model response.
type CompletionMetrics struct {
	duration  *prometheus.HistogramVec
	requests  *prometheus.CounterVec
	failures  *prometheus.CounterVec
	fallbacks *prometheus.CounterVec
}

// NewCompletionMetrics registers the completion metrics on the provided registerer.
func NewCompletionMetrics(reg prometheus.Registerer) *CompletionMetrics {
	if reg == nil {
		return &CompletionMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "completion_request_duration_seconds",
		Help:    "Duration of completion-service requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "completion_requests_total",
		Help: "Completion-service requests issued.",
	}, []string{"op"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "completion_failures_total",
		Help: "Completion-service requests that failed after retries.",
	}, []string{"op"})
	fallbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "completion_fallbacks_total",
		Help: "Responses served from the fixed fallback set.",
	}, []string{"op"})
	reg.MustRegister(duration, requests, failures, fallbacks)
	return &CompletionMetrics{
		duration:  duration,
		requests:  requests,
		failures:  failures,
		fallbacks: fallbacks,
	}
}

// ObserveDuration records the duration for the named operation.
func (c *CompletionMetrics) ObserveDuration(op string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(op)).Observe(duration.Seconds())
}

// IncRequest increments the request counter for the named operation.
func (c *CompletionMetrics) IncRequest(op string) {
	if c == nil || c.requests == nil {
		return
	}
	c.requests.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncFailure increments the failure counter for the named operation.
func (c *CompletionMetrics) IncFailure(op string) {
	if c == nil || c.failures == nil {
		return
	}
	c.failures.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncFallback increments the fallback counter for the named operation.
func (c *CompletionMetrics) IncFallback(op string) {
	if c == nil || c.fallbacks == nil {
		return
	}
	c.fallbacks.WithLabelValues(normalizeLabel(op)).Inc()
}

func normalizeLabel(op string) string {
	if op == "" {
		return "unknown"
	}
	return op
}
