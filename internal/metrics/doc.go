// Package metrics provides observability hooks for render passes.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no nil checks are needed at call sites:
//
//	renderer := render.NewSetRenderer(r, docs) // NoopRecorder
//	renderer = render.NewSetRenderer(r, docs,
//	    render.WithRecorder(metrics.NewPrometheusRecorder(registry)))
//
// HTTPHandler exposes a registry for scraping; the CLI mounts it when a
// metrics listen address is configured.
package metrics
