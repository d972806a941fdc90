package validatorstate

import (
	"sync/atomic"
	"time"
)

// Metrics is a lightweight counter handle for the execution path; no
// external metrics library is in the teacher's dependency set, so these
// are plain atomics exposed for scraping by pkg/rpcapi.
type Metrics struct {
	startedAt          time.Time
	TransactionsExecuted uint64
	TransactionsFailed   uint64
	totalLatencyMicros uint64
}

// NewMetrics constructs a Metrics with its clock started now.
func NewMetrics() *Metrics {
	return &Metrics{startedAt: time.Now()}
}

func (m *Metrics) incExecuted() { atomic.AddUint64(&m.TransactionsExecuted, 1) }
func (m *Metrics) incFailed()   { atomic.AddUint64(&m.TransactionsFailed, 1) }

// recordLatency accumulates the processing time of one HandleConsensusTransaction call.
func (m *Metrics) recordLatency(d time.Duration) {
	atomic.AddUint64(&m.totalLatencyMicros, uint64(d.Microseconds()))
}

// Snapshot is a point-in-time, serializable copy of the counters plus the
// derived averages GetLatestMetrics reports.
type Snapshot struct {
	TransactionsExecuted   uint64
	TransactionsFailed     uint64
	AverageLatencyMicros   uint64
	AverageTPS             float64
}

// Snapshot returns the current counters and their derived averages.
func (m *Metrics) Snapshot() Snapshot {
	executed := atomic.LoadUint64(&m.TransactionsExecuted)
	failed := atomic.LoadUint64(&m.TransactionsFailed)
	totalLatency := atomic.LoadUint64(&m.totalLatencyMicros)

	var avgLatency uint64
	if executed > 0 {
		avgLatency = totalLatency / executed
	}

	var avgTPS float64
	if elapsed := time.Since(m.startedAt).Seconds(); elapsed > 0 {
		avgTPS = float64(executed) / elapsed
	}

	return Snapshot{
		TransactionsExecuted: executed,
		TransactionsFailed:   failed,
		AverageLatencyMicros: avgLatency,
		AverageTPS:           avgTPS,
	}
}
