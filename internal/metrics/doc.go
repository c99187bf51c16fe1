// Package metrics provides observability hooks for the timing recorder.
//
// The package follows the Null Object pattern: components hold a Recorder and
// default to NoopRecorder, so instrumentation never needs nil checks.
//
//	bench := benchmarker.New(benchmarker.WithRecorder(metrics.NewPrometheusRecorder(reg)))
//
// PrometheusRecorder mirrors every timing scope into Prometheus collectors.
// Because splatbench runs as a short-lived process rather than a scrape
// target, WriteTextfile persists the registry in the node-exporter textfile
// format at session end.
package metrics
