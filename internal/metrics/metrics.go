// Package metrics holds the Prometheus collectors for the relay.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "linerelay"

// Event outcomes recorded by the webhook pipeline.
const (
	OutcomeIgnoredType = "ignored_type"
	OutcomeNoMention   = "no_mention"
	OutcomeEmptyPrompt = "empty_prompt"
	OutcomeReplied     = "replied"
	OutcomeFallback    = "fallback"
	OutcomeReplyFailed = "reply_failed"
	OutcomePanic       = "panic"
)

// Metrics holds all Prometheus metrics for the relay.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
	WebhookBatchSize   prometheus.Histogram
	Events             *prometheus.CounterVec
	CompletionDuration *prometheus.HistogramVec
	UsageFetches       *prometheus.CounterVec
	Reports            *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		gatherer: reg,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		WebhookBatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "webhook_batch_events",
			Help:      "Number of events per webhook request",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Webhook events by processing outcome",
		}, []string{"outcome"}),
		CompletionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "completion_duration_seconds",
			Help:      "Completion API call duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"provider", "result"}),
		UsageFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "usage_fetches_total",
			Help:      "Usage API fetches by result",
		}, []string{"result"}),
		Reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "usage_reports_total",
			Help:      "Usage report runs by result",
		}, []string{"result"}),
	}

	reg.MustRegister(
		m.HTTPRequests,
		m.HTTPDuration,
		m.WebhookBatchSize,
		m.Events,
		m.CompletionDuration,
		m.UsageFetches,
		m.Reports,
	)
	return m
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// EventProcessed counts one webhook event outcome.
func (m *Metrics) EventProcessed(outcome string) {
	if m == nil {
		return
	}
	m.Events.WithLabelValues(outcome).Inc()
}

// BatchReceived observes the number of events in one webhook request.
func (m *Metrics) BatchReceived(n int) {
	if m == nil {
		return
	}
	m.WebhookBatchSize.Observe(float64(n))
}

// CompletionObserved records one completion call.
func (m *Metrics) CompletionObserved(provider string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.CompletionDuration.WithLabelValues(provider, result(err)).Observe(d.Seconds())
}

// UsageFetched counts one usage API fetch.
func (m *Metrics) UsageFetched(err error) {
	if m == nil {
		return
	}
	m.UsageFetches.WithLabelValues(result(err)).Inc()
}

// ReportRun counts one usage report run.
func (m *Metrics) ReportRun(err error) {
	if m == nil {
		return
	}
	m.Reports.WithLabelValues(result(err)).Inc()
}

// Middleware records request counts and latency per route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
