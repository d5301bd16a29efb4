package sched

import (
	"errors"
	"sync/atomic"
)

// Errors reported by pool operations.
var (
	// ErrQueueFull is returned by Submit when no contiguous run of free
	// task slots can hold the submission. Existing slots are untouched.
	ErrQueueFull = errors.New("sched: task queue full")

	// ErrPoolClosed is returned when submitting to a closed pool, and
	// recorded for tasks that were still pending when the pool closed.
	ErrPoolClosed = errors.New("sched: pool closed")

	// ErrInvalidTask is returned by Submit for a task with a zero id, a
	// nil run function, or an id already present in the queue.
	ErrInvalidTask = errors.New("sched: invalid task")
)

// State is the lifecycle state of a task slot.
//
// Transitions: Pending -> Running -> {Complete | Failed}. Free marks an
// unoccupied slot; draining a terminal task returns its slot to Free.
type State uint8

const (
	// StateFree marks an unoccupied queue slot.
	StateFree State = iota

	// StatePending marks a submitted task not yet assigned to a worker.
	StatePending

	// StateRunning marks a task currently executing on a worker.
	StateRunning

	// StateComplete marks a task whose result is stored and undrained.
	StateComplete

	// StateFailed marks a task whose run returned an error.
	StateFailed
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateFree:
		return "Free"
	case StatePending:
		return "Pending"
	case StateRunning:
		return "Running"
	case StateComplete:
		return "Complete"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Task is one unit of work: a caller-chosen id and a run function.
//
// Ownership of any data captured by Run transfers to the pool at
// submission time; the caller must not mutate it until the task's result
// has been drained via Wait.
type Task[T any] struct {
	ID  uint64
	Run func() (T, error)
}

// idSeq feeds NextID.
var idSeq atomic.Uint64

// NextID returns a process-unique task id. Ids start at 1; 0 is reserved
// to mean "no task" in the queue arrays.
func NextID() uint64 {
	return idSeq.Add(1)
}
