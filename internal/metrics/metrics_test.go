package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	t.Parallel()

	m := New(prometheus.NewRegistry())

	m.EventProcessed(OutcomeReplied)
	m.EventProcessed(OutcomeReplied)
	m.EventProcessed(OutcomeNoMention)
	m.UsageFetched(nil)
	m.UsageFetched(errors.New("boom"))
	m.ReportRun(nil)
	m.CompletionObserved("openai", 150*time.Millisecond, nil)
	m.BatchReceived(3)

	assert.InDelta(t, 2, testutil.ToFloat64(m.Events.WithLabelValues(OutcomeReplied)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Events.WithLabelValues(OutcomeNoMention)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.UsageFetches.WithLabelValues("ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.UsageFetches.WithLabelValues("error")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Reports.WithLabelValues("ok")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.CompletionDuration))
}

func TestNilMetricsIsNoop(t *testing.T) {
	t.Parallel()

	var m *Metrics
	assert.NotPanics(t, func() {
		m.EventProcessed(OutcomeFallback)
		m.UsageFetched(nil)
		m.ReportRun(errors.New("x"))
		m.CompletionObserved("gemini", time.Second, nil)
		m.BatchReceived(1)
	})
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	m := New(prometheus.NewRegistry())
	router := gin.New()
	router.Use(m.Middleware())
	router.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", gin.WrapH(m.Handler()))

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.InDelta(t, 1, testutil.ToFloat64(m.HTTPRequests.WithLabelValues(http.MethodGet, "/healthz", "200")), 0)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "linerelay_http_requests_total")
}
