// Package scheduler drives the virtual clock: a priority queue of timed
// tasks dispatched by one dedicated goroutine onto a worker.Pool.
package scheduler

import (
	"container/heap"
	"sync"
	"sync/atomic"
	"time"

	"github.com/araneid-sim/araneid/internal/errx"
	"github.com/araneid-sim/araneid/pkg/callback"
	"github.com/araneid-sim/araneid/pkg/vtime"
	"github.com/araneid-sim/araneid/pkg/worker"
)

// Scheduler holds the task heap and drives it against a Clock. Schedule may
// be called concurrently from any goroutine, including from within a
// callback executing on the worker pool: the queue lock is always released
// before a callback is handed to the pool, so re-entrant scheduling never
// deadlocks.
type Scheduler struct {
	mu    sync.Mutex
	heap  taskHeap
	seq   uint64
	start vtime.TimePoint

	clock vtime.Clock
	pool  *worker.Pool

	wake     chan struct{}
	stopCh   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	started  atomic.Bool
}

// New constructs a Scheduler backed by pool, using the real wall clock.
func New(pool *worker.Pool) *Scheduler {
	return newWithClock(pool, vtime.System)
}

// NewWithClock takes an explicit Clock (for example a *vtime.FakeClock).
// The clock decides the start instant and which tasks are due, but the
// dispatch goroutine still sleeps on real timers: advancing a FakeClock
// does not wake it, and a task it makes due is dispatched when the
// current timer next fires.
func NewWithClock(pool *worker.Pool, clock vtime.Clock) *Scheduler {
	return newWithClock(pool, clock)
}

func newWithClock(pool *worker.Pool, clock vtime.Clock) *Scheduler {
	return &Scheduler{
		clock:  clock,
		pool:   pool,
		start:  clock.Now(),
		wake:   make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

var (
	defaultMu  sync.Mutex
	defaultSch *Scheduler
)

// Init installs and returns the process-wide singleton scheduler, backed
// by pool. Callers that schedule further work from within a callback reach
// the same instance through Default() without needing a handle threaded
// through their call stack.
func Init(pool *worker.Pool) *Scheduler {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultSch = New(pool)
	return defaultSch
}

// Default returns the singleton installed by Init, or nil if Init was
// never called.
func Default() *Scheduler {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultSch
}

// Start records the simulation start instant, schedules a self-stop at
// start+duration, and launches the dedicated dispatch goroutine. Calling
// Start a second time is an error, including after Stop: a Scheduler runs
// once.
func (s *Scheduler) Start(duration vtime.TimeDelta) error {
	if !s.started.CompareAndSwap(false, true) {
		return errx.With(ErrAlreadyStarted, "")
	}
	s.mu.Lock()
	s.start = s.clock.Now()
	s.mu.Unlock()

	go s.dispatchLoop()
	s.Schedule(duration, callback.Func(func() { s.Stop() }))
	return nil
}

// Schedule runs fn once, at s.start + delay.
func (s *Scheduler) Schedule(delay vtime.TimeDelta, fn func()) TaskHandle {
	return s.schedule(delay, vtime.Zero, callback.Func(fn))
}

// ScheduleEvery runs fn at s.start+delay, then every period thereafter,
// until Stop or the handle is canceled.
func (s *Scheduler) ScheduleEvery(delay, period vtime.TimeDelta, fn func()) TaskHandle {
	return s.schedule(delay, period, callback.Func(fn))
}

func (s *Scheduler) schedule(delay, period vtime.TimeDelta, cb callback.Callback) TaskHandle {
	s.mu.Lock()
	t := &timedTask{
		execTime: s.start.Add(delay),
		period:   period,
		cb:       cb,
		seq:      s.seq,
	}
	s.seq++
	heap.Push(&s.heap, t)
	s.mu.Unlock()
	s.signalWake()
	return TaskHandle{s: s, task: t}
}

func (s *Scheduler) signalWake() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Scheduler) cancel(t *timedTask) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.canceled = true
	if t.index >= 0 {
		heap.Remove(&s.heap, t.index)
	}
}

// Done is closed when the dispatch goroutine exits, whether from an
// explicit Stop or the self-stop Start schedules at start+duration.
// Callers that want to wait out a simulation select on it.
func (s *Scheduler) Done() <-chan struct{} { return s.done }

// Stop is idempotent: it tells the dispatch goroutine to exit and blocks
// until it has. Pending scheduled tasks are discarded.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	if s.started.Load() {
		<-s.done
	}
}

// dispatchLoop waits for a task or a wake/stop signal, sleeps until the
// earliest deadline or a signal, then drains everything due.
func (s *Scheduler) dispatchLoop() {
	defer close(s.done)
	for {
		s.mu.Lock()
		empty := s.heap.Len() == 0
		s.mu.Unlock()

		if empty {
			select {
			case <-s.stopCh:
				return
			case <-s.wake:
				continue
			}
		}

		s.mu.Lock()
		next := s.heap[0].execTime
		s.mu.Unlock()

		wait := next.Delta(s.clock.Now()).Duration()
		if wait < 0 {
			wait = 0
		}
		timer := time.NewTimer(wait)
		select {
		case <-s.stopCh:
			timer.Stop()
			return
		case <-s.wake:
			timer.Stop()
			continue
		case <-timer.C:
			s.processExpired()
		}
	}
}

// processExpired pops and dispatches every task whose execution time has
// arrived, reinserting periodic ones at execTime+period. The queue lock is
// released before each callback reaches the worker pool, so a callback
// that itself calls Schedule never deadlocks against this goroutine.
func (s *Scheduler) processExpired() {
	now := s.clock.Now()
	for {
		s.mu.Lock()
		if s.heap.Len() == 0 || s.heap[0].execTime.After(now) {
			s.mu.Unlock()
			return
		}
		t := heap.Pop(&s.heap).(*timedTask)
		s.mu.Unlock()

		if t.canceled {
			continue
		}
		s.pool.Enqueue(t.cb)

		if t.isPeriodic() {
			s.mu.Lock()
			if !t.canceled {
				t.execTime = t.execTime.Add(t.period)
				heap.Push(&s.heap, t)
			}
			s.mu.Unlock()
		}
	}
}
