package metrics

import (
	"sync/atomic"
	"time"
)

type Counter struct {
	value uint64
}

func (c *Counter) Inc() {
	atomic.AddUint64(&c.value, 1)
}

func (c *Counter) Load() uint64 {
	return atomic.LoadUint64(&c.value)
}

type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// Orders counts order-placement outcomes for the health endpoint.
type Orders struct {
	Created       Counter
	Rejected      Counter
	Failed        Counter
	StatusChanged Counter
}

func (o *Orders) Snapshot() map[string]uint64 {
	return map[string]uint64{
		"created":        o.Created.Load(),
		"rejected":       o.Rejected.Load(),
		"failed":         o.Failed.Load(),
		"status_changed": o.StatusChanged.Load(),
	}
}
