package bench

import (
	"sync/atomic"
	"time"

	"github.com/samvad-hq/completion-bench/pkg/httpclient"
)

// ConnStats aggregates client traces: request count, pooled-connection reuse
// and the mean server and total times.
type ConnStats struct {
	requests atomic.Int64
	reused   atomic.Int64
	serverNs atomic.Int64
	totalNs  atomic.Int64
}

// ConnSnapshot is the aggregate of every trace observed since the last Reset.
type ConnSnapshot struct {
	Requests       int64
	Reused         int64
	MeanServerTime time.Duration
	MeanTotalTime  time.Duration
}

// Observe is an httpclient.TraceObserver.
func (c *ConnStats) Observe(tr httpclient.Trace) {
	c.requests.Add(1)
	if tr.ConnReused {
		c.reused.Add(1)
	}
	c.serverNs.Add(int64(tr.ServerTime))
	c.totalNs.Add(int64(tr.TotalTime))
}

// Reset zeroes the counters.
func (c *ConnStats) Reset() {
	c.requests.Store(0)
	c.reused.Store(0)
	c.serverNs.Store(0)
	c.totalNs.Store(0)
}

// Snapshot returns the aggregates observed so far.
func (c *ConnStats) Snapshot() ConnSnapshot {
	snap := ConnSnapshot{
		Requests: c.requests.Load(),
		Reused:   c.reused.Load(),
	}
	if snap.Requests > 0 {
		snap.MeanServerTime = time.Duration(c.serverNs.Load() / snap.Requests)
		snap.MeanTotalTime = time.Duration(c.totalNs.Load() / snap.Requests)
	}
	return snap
}
