package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initGraphMetrics() {
	r.GraphNodesTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "distfuzz_graph_nodes_total",
			Help: "Number of indexed (edge_id, nth) nodes in the local or master DGraph",
		},
	)

	r.GraphMergeDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "distfuzz_graph_merge_duration_seconds",
			Help:    "Duration of one DGraph merge",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1.0},
		},
	)

	r.GraphMergesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "distfuzz_graph_merges_total",
			Help: "Total number of DGraph merges performed",
		},
	)

	r.GraphSerializeBytes = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "distfuzz_graph_serialize_bytes",
			Help:    "Size in bytes of a serialized DGraph",
			Buckets: []float64{1024, 8192, 65536, 524288, 4194304},
		},
	)

	r.GraphCoverageRatio = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "distfuzz_graph_coverage_ratio",
			Help: "Graph node count over the fixed edge-trace space size (can exceed 1)",
		},
	)
}

func (r *Registry) initPartitionMetrics() {
	r.PartitionCount = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "distfuzz_partition_count",
			Help: "Number of partitions in the current plan",
		},
	)

	r.PartitionWeight = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "distfuzz_partition_weight",
			Help: "Weight of each partition in the current plan, labelled by plan index",
		},
		[]string{"rank"},
	)

	r.PartitionReassignTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "distfuzz_partition_reassign_total",
			Help: "Total number of times a worker received a new partition assignment",
		},
	)

	r.PartitionBalanceRatio = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "distfuzz_partition_balance_ratio",
			Help: "Ratio of the heaviest to the lightest partition weight in the current plan",
		},
	)
}

func (r *Registry) initTransportMetrics() {
	r.MessagesSentTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "distfuzz_messages_sent_total",
			Help: "Total number of wire messages sent, by packet type",
		},
		[]string{"packet_type"},
	)

	r.MessagesReceivedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "distfuzz_messages_received_total",
			Help: "Total number of wire messages received, by packet type",
		},
		[]string{"packet_type"},
	)

	r.EpochDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "distfuzz_epoch_duration_seconds",
			Help:    "Duration of one worker epoch's reconciliation step (upload and drain)",
			Buckets: []float64{0.01, 0.1, 1.0, 10.0, 60.0},
		},
	)
}

func (r *Registry) initObjectiveMetrics() {
	r.CrashesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "distfuzz_crashes_total",
			Help: "Total number of crashing objectives recorded",
		},
	)

	r.TimeoutsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "distfuzz_timeouts_total",
			Help: "Total number of timeout objectives recorded",
		},
	)

	r.TestcasesRoutedTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "distfuzz_testcases_routed_total",
			Help: "Total number of interesting testcases routed to their owning worker",
		},
	)

	r.TestcasesDroppedTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "distfuzz_testcases_dropped_total",
			Help: "Total number of interesting testcases dropped because their edge has no owner yet",
		},
	)
}
