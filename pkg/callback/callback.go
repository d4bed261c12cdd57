// Package callback provides the simulator's unit of deferred work: a
// type-erased, zero-argument invocation. A closure captures the target
// instance and any arguments in a func() value at bind time.
package callback

// Callback is anything the scheduler or a Queue can run.
type Callback interface {
	Execute()
}

// Func adapts a plain closure to Callback, the way http.HandlerFunc adapts
// a func to http.Handler.
type Func func()

func (f Func) Execute() { f() }

// Queue is a FIFO of pending callbacks for callers that want synchronous
// draining without a worker pool.
type Queue struct {
	pending []Callback
}

func NewQueue() *Queue { return &Queue{} }

func (q *Queue) Enqueue(cb Callback) {
	q.pending = append(q.pending, cb)
}

// ExecuteAll runs every queued callback in FIFO order, draining the queue.
// A callback enqueuing another callback during ExecuteAll is also drained,
// including any callbacks enqueued while draining.
func (q *Queue) ExecuteAll() {
	for len(q.pending) > 0 {
		cb := q.pending[0]
		q.pending = q.pending[1:]
		cb.Execute()
	}
}

func (q *Queue) Len() int { return len(q.pending) }
