package callback_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/araneid-sim/araneid/pkg/callback"
)

func TestFuncExecute(t *testing.T) {
	ran := false
	var cb callback.Callback = callback.Func(func() { ran = true })
	cb.Execute()
	assert.True(t, ran)
}

func TestQueueExecutesInFIFOOrder(t *testing.T) {
	var order []int
	q := callback.NewQueue()
	q.Enqueue(callback.Func(func() { order = append(order, 1) }))
	q.Enqueue(callback.Func(func() { order = append(order, 2) }))
	q.Enqueue(callback.Func(func() { order = append(order, 3) }))

	q.ExecuteAll()

	assert.Equal(t, []int{1, 2, 3}, order)
	assert.Equal(t, 0, q.Len())
}

func TestQueueDrainsCallbacksEnqueuedDuringExecution(t *testing.T) {
	q := callback.NewQueue()
	ranNested := false
	q.Enqueue(callback.Func(func() {
		q.Enqueue(callback.Func(func() { ranNested = true }))
	}))

	q.ExecuteAll()

	assert.True(t, ranNested)
}
