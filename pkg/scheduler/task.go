package scheduler

import (
	"container/heap"

	"github.com/araneid-sim/araneid/pkg/callback"
	"github.com/araneid-sim/araneid/pkg/vtime"
)

// timedTask is one entry in the scheduler's priority queue. Periodicity is
// carried as an optional period rather than a separate bool+interval pair.
type timedTask struct {
	execTime vtime.TimePoint
	period   vtime.TimeDelta // zero means one-shot
	cb       callback.Callback
	seq      uint64 // insertion order, for stable tie-break
	index    int    // heap.Interface bookkeeping
	canceled bool
}

func (t *timedTask) isPeriodic() bool { return !t.period.IsZero() }

// taskHeap is a container/heap.Interface ordering by execution time,
// earliest first, with insertion sequence breaking ties so that same-time
// tasks dispatch in insertion order.
type taskHeap []*timedTask

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].execTime.Equal(h[j].execTime) {
		return h[i].seq < h[j].seq
	}
	return h[i].execTime.Before(h[j].execTime)
}

func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *taskHeap) Push(x any) {
	t := x.(*timedTask)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}

var _ heap.Interface = (*taskHeap)(nil)

// TaskHandle lets a caller cancel a task it scheduled before it fires.
type TaskHandle struct {
	s    *Scheduler
	task *timedTask
}

// Cancel removes the task if it has not yet been dispatched. Canceling an
// already-dispatched one-shot, or a periodic task mid-cadence, is a no-op
// for the already-inflight invocation but stops future firings.
func (h TaskHandle) Cancel() {
	h.s.cancel(h.task)
}
