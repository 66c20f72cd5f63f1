// Package metric defines the Prometheus collectors for API calls and the
// handler that exposes them at /metrics.
package metric
