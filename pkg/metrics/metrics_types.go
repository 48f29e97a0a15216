package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds every metric exported by a coordinator or worker process.
type Registry struct {
	// HTTP metrics (status API)
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPRequestsInFlight  prometheus.Gauge
	HTTPResponseSizeBytes *prometheus.HistogramVec

	// Graph metrics
	GraphNodesTotal     prometheus.Gauge
	GraphMergeDuration  prometheus.Histogram
	GraphMergesTotal    prometheus.Counter
	GraphSerializeBytes prometheus.Histogram
	GraphCoverageRatio  prometheus.Gauge

	// Partition metrics
	PartitionCount         prometheus.Gauge
	PartitionWeight        *prometheus.GaugeVec
	PartitionReassignTotal prometheus.Counter
	PartitionBalanceRatio  prometheus.Gauge

	// Transport metrics
	MessagesSentTotal     *prometheus.CounterVec
	MessagesReceivedTotal *prometheus.CounterVec
	EpochDuration         prometheus.Histogram

	// Objective metrics
	CrashesTotal   prometheus.Counter
	TimeoutsTotal  prometheus.Counter
	TestcasesRoutedTotal prometheus.Counter
	TestcasesDroppedTotal prometheus.Counter

	// System metrics
	UptimeSeconds    prometheus.Gauge
	GoRoutines       prometheus.Gauge
	MemoryAllocBytes prometheus.Gauge
	MemorySysBytes   prometheus.Gauge

	registry *prometheus.Registry
	mu       sync.RWMutex
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global process-wide metrics registry.
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with every metric initialized
// against its own prometheus.Registry, so multiple Registry instances
// (e.g. one per worker in an in-process test harness) never collide.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{registry: reg}

	r.initHTTPMetrics()
	r.initGraphMetrics()
	r.initPartitionMetrics()
	r.initTransportMetrics()
	r.initObjectiveMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry, for
// mounting under promhttp.HandlerFor.
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
