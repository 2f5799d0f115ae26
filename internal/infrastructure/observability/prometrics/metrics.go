package prometrics

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Zhima-Mochi/minishop-pos/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
)

type definition struct {
	help    string
	labels  []string
	buckets []float64
}

var definitions = map[observability.MetricKey]definition{
	observability.MUsecaseRequests: {help: "Total number of use case invocations.", labels: []string{"use_case", "outcome"}},
	observability.MUsecaseDuration: {help: "Duration of use case execution in seconds.", labels: []string{"use_case"}, buckets: prometheus.DefBuckets},
	observability.MSalesAmount:     {help: "Sum of paid order totals.", labels: []string{"payment_method"}},
	observability.MRefundAmount:    {help: "Sum of refunded amounts.", labels: nil},
	observability.MLowStockAlerts:  {help: "Low stock warnings raised after a sale.", labels: []string{"product_id"}},
	observability.MScreenRequests:  {help: "Terminal screens run by the operator.", labels: []string{"screen", "outcome"}},
	observability.MScreenDuration:  {help: "Time spent in a terminal screen in seconds.", labels: []string{"screen"}, buckets: []float64{1, 5, 15, 30, 60, 120, 300}},
}

// Registry owns a private prometheus registry and implements observability.Metrics.
type Registry struct {
	reg        *prometheus.Registry
	namespace  string
	mu         sync.Mutex
	counters   map[observability.MetricKey]*prometheus.CounterVec
	histograms map[observability.MetricKey]*prometheus.HistogramVec
}

func New(namespace string) *Registry {
	return &Registry{
		reg:        prometheus.NewRegistry(),
		namespace:  namespace,
		counters:   make(map[observability.MetricKey]*prometheus.CounterVec),
		histograms: make(map[observability.MetricKey]*prometheus.HistogramVec),
	}
}

// Gatherer exposes the collected families, mainly for tests and textfile export.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

// WriteTextfile dumps the registry in the node-exporter textfile format.
func (r *Registry) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("prometrics: prepare dir: %w", err)
	}
	return prometheus.WriteToTextfile(path, r.reg)
}

type counter struct{ v *prometheus.CounterVec }

func (c *counter) Add(d float64, labels ...observability.Label) {
	c.v.With(labelMap(labels)).Add(d)
}

func (c *counter) Bind(labels ...observability.Label) observability.BoundCounter {
	return &boundCounter{v: c.v, labels: labelMap(labels)}
}

type boundCounter struct {
	v      *prometheus.CounterVec
	labels prometheus.Labels
}

func (c *boundCounter) Add(d float64) {
	if c == nil || c.v == nil {
		return
	}
	c.v.With(c.labels).Add(d)
}

type histogram struct{ v *prometheus.HistogramVec }

func (h *histogram) Observe(v float64, labels ...observability.Label) {
	h.v.With(labelMap(labels)).Observe(v)
}

func (h *histogram) Bind(labels ...observability.Label) observability.BoundHistogram {
	return &boundHistogram{v: h.v, labels: labelMap(labels)}
}

type boundHistogram struct {
	v      *prometheus.HistogramVec
	labels prometheus.Labels
}

func (h *boundHistogram) Observe(v float64) {
	if h == nil || h.v == nil {
		return
	}
	h.v.With(h.labels).Observe(v)
}

func labelMap(ls []observability.Label) prometheus.Labels {
	m := make(prometheus.Labels, len(ls))
	for _, l := range ls {
		m[l.Key] = l.Value
	}
	return m
}

// Counter registers the named counter on first use. Unknown names get a no-op instrument.
func (r *Registry) Counter(name observability.MetricKey) observability.Counter {
	def, ok := definitions[name]
	if !ok {
		return observability.NopCounter()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if cv, ok := r.counters[name]; ok {
		return &counter{v: cv}
	}
	cv := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace, Name: string(name), Help: def.help,
	}, def.labels)
	r.reg.MustRegister(cv)
	r.counters[name] = cv
	return &counter{v: cv}
}

func (r *Registry) Histogram(name observability.MetricKey) observability.Histogram {
	def, ok := definitions[name]
	if !ok {
		return observability.NopHistogram()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if hv, ok := r.histograms[name]; ok {
		return &histogram{v: hv}
	}
	hv := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: r.namespace, Name: string(name), Help: def.help, Buckets: def.buckets,
	}, def.labels)
	r.reg.MustRegister(hv)
	r.histograms[name] = hv
	return &histogram{v: hv}
}
