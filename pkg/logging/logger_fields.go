package logging

import (
	"time"
)

// Common field constructors
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

func Uint64(key string, value uint64) Field {
	return Field{Key: key, Value: value}
}

func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Latency is the duration a TimedOperation took; used by StartTimer/End.
func Latency(d time.Duration) Field {
	return Duration("latency", d)
}

// Fuzzing-domain field helpers for the values logged throughout
// pkg/cluster, pkg/feedback, cmd/coordinator, and cmd/worker.

// Rank identifies the transport rank a log line concerns: the
// coordinator is rank 0, workers are 1..worldSize-1.
func Rank(rank int) Field {
	return Int("rank", rank)
}

// EdgeID identifies one coverage-map edge, keyed as in pkg/graph.Key.
func EdgeID(id uint32) Field {
	return Uint64("edge_id", uint64(id))
}

// Epoch is the 1-indexed reconciliation epoch a log line concerns.
func Epoch(n int) Field {
	return Int("epoch", n)
}

// PartitionIndex is a worker's index into the current partition plan
// (its rank minus one).
func PartitionIndex(idx int) Field {
	return Int("partition_index", idx)
}

// NodeCount is a graph's node count at the time of the log line.
func NodeCount(n int) Field {
	return Int("node_count", n)
}
