// Package metrics records composition and build metrics.
//
// Components receive a Recorder and default to NoopRecorder, so metrics cost
// nothing unless a PrometheusRecorder is injected:
//
//	reg := prometheus.NewRegistry()
//	composer := app.NewComposer(cfg, app.WithRecorder(metrics.NewPrometheusRecorder(reg)))
//	router.Handle("/metrics", metrics.HTTPHandler(reg))
package metrics
