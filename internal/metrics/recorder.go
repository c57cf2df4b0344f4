package metrics

import "time"

// ResultLabel enumerates per-document render results for counters.
type ResultLabel string

const (
	ResultSuccess    ResultLabel = "success"
	ResultGaps       ResultLabel = "gaps"
	ResultFailed     ResultLabel = "failed"
	ResultWriteError ResultLabel = "write_error"
)

// PassOutcomeLabel enumerates the final status of a render pass.
type PassOutcomeLabel string

const (
	PassSuccess  PassOutcomeLabel = "success"
	PassWarning  PassOutcomeLabel = "warning"
	PassFailed   PassOutcomeLabel = "failed"
	PassCanceled PassOutcomeLabel = "canceled"
)

// Recorder defines observability hooks for render passes. Implementations
// may forward to Prometheus, OpenTelemetry, etc. Implementations must be
// safe for concurrent use; parallel passes record from several workers.
type Recorder interface {
	ObserveDocumentDuration(format string, d time.Duration)
	ObservePassDuration(d time.Duration)
	IncDocumentResult(format string, result ResultLabel)
	IncPassOutcome(outcome PassOutcomeLabel)
	AddResolutionGaps(n int)
	SetWorkers(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveDocumentDuration(string, time.Duration) {}
func (NoopRecorder) ObservePassDuration(time.Duration)             {}
func (NoopRecorder) IncDocumentResult(string, ResultLabel)         {}
func (NoopRecorder) IncPassOutcome(PassOutcomeLabel)               {}
func (NoopRecorder) AddResolutionGaps(int)                         {}
func (NoopRecorder) SetWorkers(int)                                {}
