package gateway

import "sync/atomic"

// Counters tracks webhook traffic with atomic operations. A nil *Counters
// records nothing.
type Counters struct {
	received atomic.Int64
	rejected atomic.Int64
	failed   atomic.Int64
	unknown  atomic.Int64
}

func (c *Counters) recordReceived() {
	if c != nil {
		c.received.Add(1)
	}
}

func (c *Counters) recordRejected() {
	if c != nil {
		c.rejected.Add(1)
	}
}

func (c *Counters) recordFailed() {
	if c != nil {
		c.failed.Add(1)
	}
}

func (c *Counters) recordUnknown() {
	if c != nil {
		c.unknown.Add(1)
	}
}

// Snapshot returns a point-in-time view of the counters.
func (c *Counters) Snapshot() CountersSnapshot {
	if c == nil {
		return CountersSnapshot{}
	}
	return CountersSnapshot{
		Received: c.received.Load(),
		Rejected: c.rejected.Load(),
		Failed:   c.failed.Load(),
		Unknown:  c.unknown.Load(),
	}
}

// CountersSnapshot is a serializable view of webhook traffic. Received
// counts every request for a registered source, Rejected the ones refused
// for bad credentials, Failed the handler errors and Unknown the requests
// for unregistered sources.
type CountersSnapshot struct {
	Received int64 `json:"received"`
	Rejected int64 `json:"rejected"`
	Failed   int64 `json:"failed"`
	Unknown  int64 `json:"unknown"`
}
