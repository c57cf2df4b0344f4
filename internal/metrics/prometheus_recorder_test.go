package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveDocumentDuration("html", 150*time.Millisecond)
	pr.ObservePassDuration(500 * time.Millisecond)
	pr.IncDocumentResult("html", ResultSuccess)
	pr.IncDocumentResult("html", ResultSuccess)
	pr.IncPassOutcome(PassSuccess)
	pr.AddResolutionGaps(3)
	pr.AddResolutionGaps(0)
	pr.SetWorkers(4)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, mfs)

	require.InDelta(t, 2, testutil.ToFloat64(pr.documentResults.WithLabelValues("html", string(ResultSuccess))), 0)
	require.InDelta(t, 3, testutil.ToFloat64(pr.gaps), 0)
	require.InDelta(t, 4, testutil.ToFloat64(pr.workers), 0)
}

func TestNilPrometheusRecorderIsSafe(t *testing.T) {
	var pr *PrometheusRecorder
	require.NotPanics(t, func() {
		pr.ObservePassDuration(time.Second)
		pr.IncPassOutcome(PassFailed)
		pr.AddResolutionGaps(1)
	})
}

func TestHTTPHandlerServesRegistry(t *testing.T) {
	reg := prom.NewRegistry()
	NewPrometheusRecorder(reg).IncPassOutcome(PassWarning)

	rec := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "docrender_pass_outcomes_total"))
}

var _ Recorder = NoopRecorder{}
var _ Recorder = (*PrometheusRecorder)(nil)
