package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "buildmatrix"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	compositionDuration prom.Histogram
	compositionOutcomes *prom.CounterVec
	registrySize        *prom.GaugeVec
	buildDuration       *prom.HistogramVec
	buildResults        *prom.CounterVec
	reloads             *prom.CounterVec
}

// NewPrometheusRecorder constructs the metrics and registers them with reg.
// A nil reg gets a private registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		compositionDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "composition_duration_seconds",
			Help:      "Duration of a full expansion and composition pass",
			Buckets:   prom.DefBuckets,
		}),
		compositionOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "compositions_total",
			Help:      "Composition passes by outcome",
		}, []string{"result"}),
		registrySize: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "registry_entries",
			Help:      "Number of entries in each published registry",
		}, []string{"registry"}),
		buildDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Duration of individual package builds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		}, []string{"key", "result"}),
		buildResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "builds_total",
			Help:      "Package builds by key and outcome",
		}, []string{"key", "result"}),
		reloads: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "reloads_total",
			Help:      "Recompositions triggered outside of startup",
		}, []string{"trigger"}),
	}
	reg.MustRegister(pr.compositionDuration, pr.compositionOutcomes, pr.registrySize, pr.buildDuration, pr.buildResults, pr.reloads)
	return pr
}

func (p *PrometheusRecorder) ObserveCompositionDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.compositionDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncCompositionOutcome(result ResultLabel) {
	if p == nil {
		return
	}
	p.compositionOutcomes.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) SetRegistrySize(registry string, n int) {
	if p == nil {
		return
	}
	p.registrySize.WithLabelValues(registry).Set(float64(n))
}

func (p *PrometheusRecorder) ObserveBuildDuration(key string, d time.Duration, success bool) {
	if p == nil {
		return
	}
	res := string(ResultFor(success))
	p.buildDuration.WithLabelValues(key, res).Observe(d.Seconds())
	p.buildResults.WithLabelValues(key, res).Inc()
}

func (p *PrometheusRecorder) IncReload(trigger string) {
	if p == nil {
		return
	}
	p.reloads.WithLabelValues(trigger).Inc()
}
