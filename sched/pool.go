// Package sched provides a fixed-capacity task scheduler for parallel
// decode work.
//
// A Pool owns a fixed set of worker goroutines and a bounded queue of
// task slots tracked in parallel arrays (task id, state, assigned worker).
// Tasks are submitted in bursts, assigned to idle workers, and their
// results collected by id. Workers communicate with the scheduler only
// through channels: an assignment in, a completion out; the slot arrays
// themselves are mutated under a single mutex.
package sched

import (
	"fmt"
	"runtime"
	"sync"
)

// DefaultQueueSize is the task-slot capacity used when Config.QueueSize
// is zero. It bounds in-flight plus completed-but-undrained tasks.
const DefaultQueueSize = 1000

// unassigned is the sentinel worker index for slots without a worker.
const unassigned int32 = -1

// Config holds pool construction parameters. The zero value selects
// GOMAXPROCS workers and DefaultQueueSize slots.
type Config struct {
	// Workers is the number of worker goroutines. 0 means GOMAXPROCS.
	Workers int

	// QueueSize is the fixed task-slot capacity. 0 means DefaultQueueSize.
	QueueSize int
}

// slot is one entry of the task-tracking arrays.
type slot struct {
	id     uint64
	state  State
	worker int32
}

// assignment is the message handing a task to a worker. Ownership of the
// run closure's captured input moves to the worker with the send.
type assignment[T any] struct {
	id  uint64
	run func() (T, error)
}

// Pool is a fixed-capacity task scheduler.
//
// Thread safety: all exported methods are safe for concurrent use. Slot
// mutations (assignment and completion bookkeeping) form a critical
// section guarded by one mutex, matching a single logical scheduling
// thread.
type Pool[T any] struct {
	mu   sync.Mutex
	cond *sync.Cond

	workers int
	queues  []chan assignment[T]

	slots   []slot
	runs    map[uint64]func() (T, error) // pending payloads by task id
	results map[uint64]T
	errs    map[uint64]error

	active int
	closed bool

	wg sync.WaitGroup
}

// NewPool creates a pool and starts its workers. Workers live until Close.
func NewPool[T any](cfg Config) *Pool[T] {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	p := &Pool[T]{
		workers: workers,
		queues:  make([]chan assignment[T], workers),
		slots:   make([]slot, queueSize),
		runs:    make(map[uint64]func() (T, error)),
		results: make(map[uint64]T),
		errs:    make(map[uint64]error),
	}
	p.cond = sync.NewCond(&p.mu)

	for i := range p.slots {
		p.slots[i].worker = unassigned
	}

	// Capacity 1 is enough: a worker only ever receives an assignment
	// while idle, so its queue is empty at send time and the scheduler
	// never blocks while holding the lock.
	for i := range workers {
		p.queues[i] = make(chan assignment[T], 1)
	}

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}

	return p
}

// worker executes assignments until its queue is closed.
func (p *Pool[T]) worker(id int) {
	defer p.wg.Done()

	for a := range p.queues[id] {
		out, err := a.run()
		p.complete(id, a.id, out, err)
	}
}

// Workers returns the number of workers in the pool.
func (p *Pool[T]) Workers() int { return p.workers }

// QueueSize returns the fixed task-slot capacity.
func (p *Pool[T]) QueueSize() int { return len(p.slots) }

// Active returns the number of tasks currently running.
func (p *Pool[T]) Active() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// TaskState reports the queue state of the given task id. ok is false if
// no slot holds the id (never submitted, or already drained).
func (p *Pool[T]) TaskState(id uint64) (State, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.slots {
		if p.slots[i].id == id && p.slots[i].state != StateFree {
			return p.slots[i].state, true
		}
	}
	return StateFree, false
}

// Submit reserves a contiguous run of free queue slots for the tasks,
// marks them Pending, and assigns as many as possible to idle workers.
// Tasks beyond the number of idle workers stay Pending until a running
// task completes.
//
// Submit fails atomically: on ErrQueueFull or ErrInvalidTask no slot is
// modified.
func (p *Pool[T]) Submit(tasks []Task[T]) error {
	if len(tasks) == 0 {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPoolClosed
	}

	seen := make(map[uint64]struct{}, len(tasks))
	for _, t := range tasks {
		if t.ID == 0 {
			return fmt.Errorf("%w: zero task id", ErrInvalidTask)
		}
		if t.Run == nil {
			return fmt.Errorf("%w: nil run for id %d", ErrInvalidTask, t.ID)
		}
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("%w: duplicate id %d in submission", ErrInvalidTask, t.ID)
		}
		seen[t.ID] = struct{}{}
		if _, dup := p.runs[t.ID]; dup {
			return fmt.Errorf("%w: duplicate id %d", ErrInvalidTask, t.ID)
		}
		if _, dup := p.results[t.ID]; dup {
			return fmt.Errorf("%w: undrained id %d", ErrInvalidTask, t.ID)
		}
		if _, dup := p.errs[t.ID]; dup {
			return fmt.Errorf("%w: undrained failed id %d", ErrInvalidTask, t.ID)
		}
	}

	start, ok := p.findFreeRun(len(tasks))
	if !ok {
		return fmt.Errorf("%w: need %d contiguous slots of %d", ErrQueueFull, len(tasks), len(p.slots))
	}

	for i, t := range tasks {
		p.slots[start+i] = slot{id: t.ID, state: StatePending, worker: unassigned}
		p.runs[t.ID] = t.Run
	}

	// Initial assignment pass: one pending task per idle worker.
	for _, w := range p.idleWorkers() {
		if !p.assignNext(w) {
			break
		}
	}

	return nil
}

// findFreeRun first-fit scans for n contiguous free slots.
func (p *Pool[T]) findFreeRun(n int) (int, bool) {
	run := 0
	for i := range p.slots {
		if p.slots[i].state == StateFree {
			run++
			if run == n {
				return i - n + 1, true
			}
		} else {
			run = 0
		}
	}
	return 0, false
}

// idleWorkers returns the indices of workers with no Running slot.
// Caller holds p.mu.
func (p *Pool[T]) idleWorkers() []int {
	busy := make([]bool, p.workers)
	for i := range p.slots {
		if p.slots[i].state == StateRunning {
			busy[p.slots[i].worker] = true
		}
	}
	idle := make([]int, 0, p.workers)
	for w, b := range busy {
		if !b {
			idle = append(idle, w)
		}
	}
	return idle
}

// assignNext hands the first pending task to the given idle worker.
// Returns false when nothing is pending. Caller holds p.mu.
func (p *Pool[T]) assignNext(worker int) bool {
	for i := range p.slots {
		if p.slots[i].state != StatePending {
			continue
		}
		id := p.slots[i].id
		run := p.runs[id]
		p.slots[i].state = StateRunning
		p.slots[i].worker = int32(worker)
		p.active++
		p.queues[worker] <- assignment[T]{id: id, run: run}
		return true
	}
	return false
}

// complete records a worker's report and immediately reassigns the freed
// worker to the next pending task, if any. Completion order across
// workers is unspecified.
func (p *Pool[T]) complete(worker int, id uint64, out T, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range p.slots {
		if p.slots[i].id != id || p.slots[i].worker != int32(worker) || p.slots[i].state != StateRunning {
			continue
		}
		if err != nil {
			p.slots[i].state = StateFailed
			p.errs[id] = err
			slogger().Warn("sched: task failed", "task", id, "worker", worker, "error", err)
		} else {
			p.slots[i].state = StateComplete
			p.results[id] = out
		}
		break
	}

	p.active--
	delete(p.runs, id)

	if !p.closed {
		p.assignNext(worker)
	}

	p.cond.Broadcast()
}

// Wait blocks until every requested id has either a stored result or a
// recorded failure, then drains exactly those ids: their results and
// errors are removed from the pool and their slots freed.
//
// Failed ids are present in the returned result map with a zero value and
// carry their error in the second map, so callers can range over either.
// Ids still pending when the pool closes resolve to ErrPoolClosed.
func (p *Pool[T]) Wait(ids []uint64) (map[uint64]T, map[uint64]error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for !p.allDone(ids) {
		p.cond.Wait()
	}

	out := make(map[uint64]T, len(ids))
	errs := make(map[uint64]error)

	for _, id := range ids {
		if r, ok := p.results[id]; ok {
			out[id] = r
			delete(p.results, id)
			continue
		}
		var zero T
		out[id] = zero
		if e, ok := p.errs[id]; ok {
			errs[id] = e
			delete(p.errs, id)
		} else {
			errs[id] = ErrPoolClosed
		}
	}

	p.freeSlots(ids)

	return out, errs
}

// allDone reports whether every id is terminal. Caller holds p.mu.
func (p *Pool[T]) allDone(ids []uint64) bool {
	for _, id := range ids {
		if _, ok := p.results[id]; ok {
			continue
		}
		if _, ok := p.errs[id]; ok {
			continue
		}
		if p.closed && !p.isRunning(id) {
			continue // never going to run; Wait substitutes ErrPoolClosed
		}
		return false
	}
	return true
}

// isRunning reports whether a slot holds the id in Running state.
// Caller holds p.mu.
func (p *Pool[T]) isRunning(id uint64) bool {
	for i := range p.slots {
		if p.slots[i].id == id && p.slots[i].state == StateRunning {
			return true
		}
	}
	return false
}

// freeSlots returns the drained ids' slots to Free. Caller holds p.mu.
func (p *Pool[T]) freeSlots(ids []uint64) {
	want := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	for i := range p.slots {
		if _, ok := want[p.slots[i].id]; ok && p.slots[i].state != StateFree {
			p.slots[i] = slot{worker: unassigned}
		}
	}
}

// Close shuts the pool down. Running and already-assigned tasks finish;
// unassigned pending tasks are failed with ErrPoolClosed. Close is safe
// to call multiple times and blocks until all workers have exited.
func (p *Pool[T]) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	for _, q := range p.queues {
		close(q)
	}
	p.mu.Unlock()

	p.wg.Wait()

	p.mu.Lock()
	for i := range p.slots {
		if p.slots[i].state == StatePending {
			p.errs[p.slots[i].id] = ErrPoolClosed
			p.slots[i].state = StateFailed
			delete(p.runs, p.slots[i].id)
		}
	}
	p.cond.Broadcast()
	p.mu.Unlock()
}
