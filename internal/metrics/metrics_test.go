package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCounter_Concurrent(t *testing.T) {
	var c Counter
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Inc()
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(50), c.Load())
}

func TestTimer(t *testing.T) {
	timer := StartTimer()
	time.Sleep(time.Millisecond)
	assert.True(t, timer.Duration() >= time.Millisecond)
}

func TestOrders_Snapshot(t *testing.T) {
	var o Orders
	o.Created.Inc()
	o.Rejected.Inc()
	o.Rejected.Inc()

	assert.Equal(t, map[string]uint64{
		"created":        1,
		"rejected":       2,
		"failed":         0,
		"status_changed": 0,
	}, o.Snapshot())
}
