package metric

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "grr"

// Metrics holds the router's collectors. A nil *Metrics records nothing.
type Metrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	pages    *prometheus.CounterVec
	items    *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "calls_total",
			Help:      "API calls dispatched by the router, by method, caller kind and result code.",
		}, []string{"method", "caller", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "call_duration_seconds",
			Help:      "Router dispatch latency.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"method"}),
		pages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "pages_total",
			Help:      "List pages served, by method.",
		}, []string{"method"}),
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "page_items_total",
			Help:      "Items returned in list pages, by method.",
		}, []string{"method"}),
	}
	for _, c := range []prometheus.Collector{m.calls, m.duration, m.pages, m.items} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveCall records one dispatch. caller is "raw" or "apikey".
func (m *Metrics) ObserveCall(method, caller, code string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(method, caller, code).Inc()
	m.duration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// ObservePage records one served page.
func (m *Metrics) ObservePage(method string, items int) {
	if m == nil {
		return
	}
	m.pages.WithLabelValues(method).Inc()
	m.items.WithLabelValues(method).Add(float64(items))
}

// NewRegistry returns a registry with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
