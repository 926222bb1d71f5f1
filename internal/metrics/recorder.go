package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultWarning  ResultLabel = "warning"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// Recorder defines observability hooks for builds, stages and the preview
// server. Implementations must be safe for concurrent use.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncBuildOutcome(outcome string) // outcome: success|warning|failed|canceled
	// SetDocuments records a document count of the last build; kind is
	// discovered|published|filtered|skipped.
	SetDocuments(kind string, n int)
	AddFilesEmitted(emitter string, n int)
	IncPluginError(plugin string)
	IncRebuild(trigger string) // trigger: watch|schedule|initial
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)         {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) IncBuildOutcome(string)                     {}
func (NoopRecorder) SetDocuments(string, int)                   {}
func (NoopRecorder) AddFilesEmitted(string, int)                {}
func (NoopRecorder) IncPluginError(string)                      {}
func (NoopRecorder) IncRebuild(string)                          {}
