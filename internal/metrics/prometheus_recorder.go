package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	documentDuration *prom.HistogramVec
	passDuration     prom.Histogram
	documentResults  *prom.CounterVec
	passOutcome      *prom.CounterVec
	gaps             prom.Counter
	workers          prom.Gauge
}

// NewPrometheusRecorder constructs and registers the render metrics on reg.
// A nil reg gets a fresh registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		documentDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "docrender",
			Name:      "document_duration_seconds",
			Help:      "Duration of rendering one document",
			Buckets:   prom.DefBuckets,
		}, []string{"format"}),
		passDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "docrender",
			Name:      "pass_duration_seconds",
			Help:      "Total render pass duration",
			Buckets:   prom.DefBuckets,
		}),
		documentResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docrender",
			Name:      "document_results_total",
			Help:      "Document render results by outcome",
		}, []string{"format", "result"}),
		passOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docrender",
			Name:      "pass_outcomes_total",
			Help:      "Render passes by final status",
		}, []string{"outcome"}),
		gaps: prom.NewCounter(prom.CounterOpts{
			Namespace: "docrender",
			Name:      "resolution_gaps_total",
			Help:      "Link targets that could not be resolved",
		}),
		workers: prom.NewGauge(prom.GaugeOpts{
			Namespace: "docrender",
			Name:      "render_workers",
			Help:      "Render workers used by the last pass",
		}),
	}
	reg.MustRegister(pr.documentDuration, pr.passDuration, pr.documentResults, pr.passOutcome, pr.gaps, pr.workers)
	return pr
}

func (p *PrometheusRecorder) ObserveDocumentDuration(format string, d time.Duration) {
	if p == nil {
		return
	}
	p.documentDuration.WithLabelValues(format).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObservePassDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.passDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncDocumentResult(format string, result ResultLabel) {
	if p == nil {
		return
	}
	p.documentResults.WithLabelValues(format, string(result)).Inc()
}

func (p *PrometheusRecorder) IncPassOutcome(outcome PassOutcomeLabel) {
	if p == nil {
		return
	}
	p.passOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) AddResolutionGaps(n int) {
	if p == nil || n <= 0 {
		return
	}
	p.gaps.Add(float64(n))
}

func (p *PrometheusRecorder) SetWorkers(n int) {
	if p == nil {
		return
	}
	p.workers.Set(float64(n))
}
