package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRunsPendingCallbacksInOrder(t *testing.T) {
	q := NewQueue()
	var order []int
	q.RequestFrame(func(float32) { order = append(order, 1) })
	q.RequestFrame(func(float32) { order = append(order, 2) })

	require.Equal(t, 2, q.Pending())
	assert.Equal(t, 2, q.Step(0.016))
	assert.Equal(t, []int{1, 2}, order)
	assert.Zero(t, q.Pending())
}

func TestQueueSelfReschedulingRunsOncePerStep(t *testing.T) {
	q := NewQueue()
	calls := 0
	var cb Callback
	cb = func(float32) {
		calls++
		q.RequestFrame(cb)
	}
	q.RequestFrame(cb)

	for range 5 {
		assert.Equal(t, 1, q.Step(0))
	}
	assert.Equal(t, 5, calls)
	assert.Equal(t, 1, q.Pending())
	assert.Equal(t, uint64(5), q.Frames())
}

func TestQueueIgnoresNilCallback(t *testing.T) {
	q := NewQueue()
	q.RequestFrame(nil)
	assert.Zero(t, q.Pending())
	assert.Zero(t, q.Step(0))
}

func TestQueuePassesDeltaTime(t *testing.T) {
	q := NewQueue()
	var got float32
	q.RequestFrame(func(dt float32) { got = dt })
	q.Step(0.25)
	assert.InDelta(t, 0.25, got, 1e-6)
}
