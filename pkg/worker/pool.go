// Package worker implements the fixed-size callback-draining pool that
// backs the scheduler's dispatch loop. A buffered channel plus a
// sync.WaitGroup gives the FIFO-per-worker, no-cross-worker-order contract
// without any explicit condition variable.
package worker

import (
	"runtime"
	"sync"

	"github.com/araneid-sim/araneid/pkg/callback"
)

// DefaultSize is hardware parallelism clamped to 4, which is plenty for
// driving simulation callbacks.
func DefaultSize() int {
	if n := runtime.GOMAXPROCS(0); n < 4 {
		return n
	}
	return 4
}

// Pool is a fixed number of goroutines draining a shared callback queue.
// Enqueue is safe for concurrent use, including calls made from within a
// callback running on one of the pool's own workers.
type Pool struct {
	tasks    chan callback.Callback
	wg       sync.WaitGroup
	stopOnce sync.Once
	stopped  chan struct{}
}

// New starts size workers. size <= 0 uses DefaultSize().
func New(size int) *Pool {
	if size <= 0 {
		size = DefaultSize()
	}
	p := &Pool{
		tasks:   make(chan callback.Callback, 1024),
		stopped: make(chan struct{}),
	}
	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.run()
	}
	return p
}

func (p *Pool) run() {
	defer p.wg.Done()
	for {
		select {
		case cb, ok := <-p.tasks:
			if !ok {
				return
			}
			cb.Execute()
		case <-p.stopped:
			// Drain whatever is already queued, then exit.
			for {
				select {
				case cb := <-p.tasks:
					cb.Execute()
				default:
					return
				}
			}
		}
	}
}

// Enqueue hands a callback to the pool. It wakes exactly one worker; order
// across workers is not guaranteed, only FIFO within whichever worker picks
// it up relative to what it picked up before.
func (p *Pool) Enqueue(cb callback.Callback) {
	select {
	case p.tasks <- cb:
	case <-p.stopped:
	}
}

// Stop is idempotent: it signals every worker to drain and exit, then
// blocks until they have.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopped)
	})
	p.wg.Wait()
}
