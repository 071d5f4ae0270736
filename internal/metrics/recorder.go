package metrics

import "time"

// ResultLabel enumerates outcome label values.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailed  ResultLabel = "failed"
)

// ResultFor maps a boolean outcome onto a label.
func ResultFor(success bool) ResultLabel {
	if success {
		return ResultSuccess
	}
	return ResultFailed
}

// Recorder defines observability hooks for composition passes and builds.
type Recorder interface {
	ObserveCompositionDuration(d time.Duration)
	IncCompositionOutcome(result ResultLabel)
	SetRegistrySize(registry string, n int)
	ObserveBuildDuration(key string, d time.Duration, success bool)
	IncReload(trigger string)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveCompositionDuration(time.Duration) {}
func (NoopRecorder) IncCompositionOutcome(ResultLabel) {}
func (NoopRecorder) SetRegistrySize(string, int) {}
func (NoopRecorder) ObserveBuildDuration(string, time.Duration, bool) {}
func (NoopRecorder) IncReload(string) {}
