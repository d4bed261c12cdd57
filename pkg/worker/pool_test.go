package worker

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/araneid-sim/araneid/pkg/callback"
)

func TestPoolExecutesAllEnqueuedTasks(t *testing.T) {
	p := New(2)
	defer p.Stop()

	const n = 200
	var count int64
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		p.Enqueue(callback.Func(func() {
			atomic.AddInt64(&count, 1)
			wg.Done()
		}))
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for tasks")
	}
	assert.Equal(t, int64(n), atomic.LoadInt64(&count))
}

func TestPoolStopIsIdempotent(t *testing.T) {
	p := New(1)
	p.Stop()
	assert.NotPanics(t, func() { p.Stop() })
}

func TestPoolFIFOWithinOneWorker(t *testing.T) {
	p := New(1)
	defer p.Stop()

	var order []int
	var mu sync.Mutex
	var wg sync.WaitGroup
	wg.Add(10)
	for i := 0; i < 10; i++ {
		i := i
		p.Enqueue(callback.Func(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			wg.Done()
		}))
	}
	wg.Wait()

	for i := 0; i < 10; i++ {
		assert.Equal(t, i, order[i])
	}
}
