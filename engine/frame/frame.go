// Package frame abstracts the host's once-per-refresh callback registration.
//
// A Scheduler accepts one-shot callbacks that run on the next display refresh. A callback that
// wants to keep animating registers itself again, which is how a continuous loop is expressed.
// The engine's render goroutine drains a Queue once per refresh; tests drive a Queue directly
// with Step so frames run synchronously.
package frame

import "sync"

// Callback is a function run once on a display refresh.
// It receives the elapsed time since the previous refresh in seconds.
type Callback func(deltaTime float32)

// Scheduler registers callbacks for the next display refresh.
type Scheduler interface {
	// RequestFrame registers a callback to run once on the next refresh.
	// Registration is fire-and-forget: there is no handle and no cancellation.
	//
	// Parameters:
	//   - callback: the function to run on the next refresh (nil is ignored)
	RequestFrame(callback Callback)
}

// Queue is a Scheduler whose pending callbacks run when Step is called.
// Callbacks registered while Step is running are deferred to the following Step,
// so a self-rescheduling callback runs exactly once per Step.
// Safe for concurrent use.
type Queue struct {
	mu      sync.Mutex
	pending []Callback
	frames  uint64
}

var _ Scheduler = &Queue{}

// NewQueue creates an empty Queue.
//
// Returns:
//   - *Queue: the newly created queue
func NewQueue() *Queue {
	return &Queue{
		pending: make([]Callback, 0, 1),
	}
}

func (q *Queue) RequestFrame(callback Callback) {
	if callback == nil {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, callback)
}

// Step runs every callback that was pending when Step was called, in registration order.
//
// Parameters:
//   - deltaTime: elapsed time since the previous refresh in seconds
//
// Returns:
//   - int: the number of callbacks that ran
func (q *Queue) Step(deltaTime float32) int {
	q.mu.Lock()
	batch := q.pending
	q.pending = make([]Callback, 0, 1)
	q.frames++
	q.mu.Unlock()

	for _, cb := range batch {
		cb(deltaTime)
	}
	return len(batch)
}

// Pending returns the number of callbacks waiting for the next Step.
//
// Returns:
//   - int: the pending callback count
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Frames returns how many times Step has been called.
//
// Returns:
//   - uint64: the refresh count
func (q *Queue) Frames() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.frames
}
