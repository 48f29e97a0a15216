package metrics

import (
	"strconv"
	"time"
)

// RecordHTTPRequest records a status API request with its duration.
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordMerge records one DGraph merge: node count after merge and how
// long the merge took.
func (r *Registry) RecordMerge(nodeCount int, duration time.Duration) {
	r.GraphNodesTotal.Set(float64(nodeCount))
	r.GraphMergesTotal.Inc()
	r.GraphMergeDuration.Observe(duration.Seconds())
}

// RecordSerialize records the byte size of one DGraph serialization.
func (r *Registry) RecordSerialize(size int) {
	r.GraphSerializeBytes.Observe(float64(size))
}

// RecordCoverageRatio sets the graph's node count over the fixed
// edge-trace space size, mirroring feedback.Hook.CoverageRatio.
func (r *Registry) RecordCoverageRatio(ratio float64) {
	r.GraphCoverageRatio.Set(ratio)
}

// RecordPartitionPlan updates the partition gauges from a freshly
// computed plan's per-partition weights, labelled by plan index.
func (r *Registry) RecordPartitionPlan(weights []uint64) {
	r.PartitionCount.Set(float64(len(weights)))
	if len(weights) == 0 {
		return
	}
	min, max := weights[0], weights[0]
	for i, w := range weights {
		r.PartitionWeight.WithLabelValues(strconv.Itoa(i)).Set(float64(w))
		if w < min {
			min = w
		}
		if w > max {
			max = w
		}
	}
	if min == 0 {
		r.PartitionBalanceRatio.Set(0)
		return
	}
	r.PartitionBalanceRatio.Set(float64(max) / float64(min))
}

// RecordReassignment increments the partition-reassignment counter, fired
// whenever a worker accepts a new global-graph broadcast.
func (r *Registry) RecordReassignment() {
	r.PartitionReassignTotal.Inc()
}

// RecordMessageSent/RecordMessageReceived count wire traffic by packet type.
func (r *Registry) RecordMessageSent(packetType uint8) {
	r.MessagesSentTotal.WithLabelValues(strconv.Itoa(int(packetType))).Inc()
}

func (r *Registry) RecordMessageReceived(packetType uint8) {
	r.MessagesReceivedTotal.WithLabelValues(strconv.Itoa(int(packetType))).Inc()
}

// RecordEpoch records the wall-clock duration of one worker epoch.
func (r *Registry) RecordEpoch(duration time.Duration) {
	r.EpochDuration.Observe(duration.Seconds())
}

// RecordObjective increments the crash or timeout counter for kind.
func (r *Registry) RecordObjective(kind string) {
	switch kind {
	case "crash":
		r.CrashesTotal.Inc()
	case "timeout":
		r.TimeoutsTotal.Inc()
	}
}

// RecordTestcaseRouted/RecordTestcaseDropped count OnTestcaseFound outcomes.
func (r *Registry) RecordTestcaseRouted() {
	r.TestcasesRoutedTotal.Inc()
}

func (r *Registry) RecordTestcaseDropped() {
	r.TestcasesDroppedTotal.Inc()
}
