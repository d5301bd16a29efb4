package sched

import (
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"testing"
	"time"
)

func makeTasks(n int, run func() (int, error)) ([]Task[int], []uint64) {
	tasks := make([]Task[int], n)
	ids := make([]uint64, n)
	for i := range tasks {
		id := NextID()
		ids[i] = id
		tasks[i] = Task[int]{ID: id, Run: run}
	}
	return tasks, ids
}

// =============================================================================
// Pool Creation Tests
// =============================================================================

func TestPool_Create(t *testing.T) {
	pool := NewPool[int](Config{Workers: 4, QueueSize: 16})
	defer pool.Close()

	if pool.Workers() != 4 {
		t.Errorf("Workers() = %d, want 4", pool.Workers())
	}
	if pool.QueueSize() != 16 {
		t.Errorf("QueueSize() = %d, want 16", pool.QueueSize())
	}
}

func TestPool_CreateDefaults(t *testing.T) {
	pool := NewPool[int](Config{})
	defer pool.Close()

	if pool.Workers() != runtime.GOMAXPROCS(0) {
		t.Errorf("Workers() = %d, want %d (GOMAXPROCS)", pool.Workers(), runtime.GOMAXPROCS(0))
	}
	if pool.QueueSize() != DefaultQueueSize {
		t.Errorf("QueueSize() = %d, want %d", pool.QueueSize(), DefaultQueueSize)
	}
}

// =============================================================================
// Submit / Wait Tests
// =============================================================================

func TestPool_SubmitAndWait(t *testing.T) {
	pool := NewPool[int](Config{Workers: 4, QueueSize: 32})
	defer pool.Close()

	tasks := make([]Task[int], 20)
	ids := make([]uint64, 20)
	for i := range tasks {
		i := i
		id := NextID()
		ids[i] = id
		tasks[i] = Task[int]{ID: id, Run: func() (int, error) { return i * i, nil }}
	}

	if err := pool.Submit(tasks); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	results, errs := pool.Wait(ids)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	for i, id := range ids {
		if results[id] != i*i {
			t.Errorf("result[%d] = %d, want %d", i, results[id], i*i)
		}
	}
}

func TestPool_FailedTask(t *testing.T) {
	pool := NewPool[int](Config{Workers: 2, QueueSize: 8})
	defer pool.Close()

	boom := errors.New("boom")
	good := Task[int]{ID: NextID(), Run: func() (int, error) { return 7, nil }}
	bad := Task[int]{ID: NextID(), Run: func() (int, error) { return 0, boom }}

	if err := pool.Submit([]Task[int]{good, bad}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	results, errs := pool.Wait([]uint64{good.ID, bad.ID})

	if results[good.ID] != 7 {
		t.Errorf("good result = %d, want 7", results[good.ID])
	}
	if results[bad.ID] != 0 {
		t.Errorf("failed task result = %d, want zero value", results[bad.ID])
	}
	if !errors.Is(errs[bad.ID], boom) {
		t.Errorf("failed task error = %v, want %v", errs[bad.ID], boom)
	}
	if _, ok := errs[good.ID]; ok {
		t.Error("good task should not carry an error")
	}
}

func TestPool_SubmitInvalid(t *testing.T) {
	pool := NewPool[int](Config{Workers: 1, QueueSize: 8})
	defer pool.Close()

	run := func() (int, error) { return 0, nil }

	if err := pool.Submit([]Task[int]{{ID: 0, Run: run}}); !errors.Is(err, ErrInvalidTask) {
		t.Errorf("zero id: err = %v, want ErrInvalidTask", err)
	}
	if err := pool.Submit([]Task[int]{{ID: NextID(), Run: nil}}); !errors.Is(err, ErrInvalidTask) {
		t.Errorf("nil run: err = %v, want ErrInvalidTask", err)
	}

	id := NextID()
	dup := []Task[int]{{ID: id, Run: run}, {ID: id, Run: run}}
	if err := pool.Submit(dup); !errors.Is(err, ErrInvalidTask) {
		t.Errorf("duplicate id: err = %v, want ErrInvalidTask", err)
	}
}

func TestPool_SubmitFailedUndrained(t *testing.T) {
	pool := NewPool[int](Config{Workers: 1, QueueSize: 4})
	defer pool.Close()

	id := NextID()
	boom := errors.New("boom")
	bad := []Task[int]{{ID: id, Run: func() (int, error) { return 0, boom }}}
	if err := pool.Submit(bad); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	// The failed task keeps its slot and error until drained.
	deadline := time.Now().Add(5 * time.Second)
	for {
		if s, ok := pool.TaskState(id); ok && s == StateFailed {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("task never reached Failed")
		}
		time.Sleep(time.Millisecond)
	}

	retry := []Task[int]{{ID: id, Run: func() (int, error) { return 7, nil }}}
	if err := pool.Submit(retry); !errors.Is(err, ErrInvalidTask) {
		t.Fatalf("resubmitting undrained failed id: err = %v, want ErrInvalidTask", err)
	}

	_, errs := pool.Wait([]uint64{id})
	if !errors.Is(errs[id], boom) {
		t.Fatalf("drained error = %v, want %v", errs[id], boom)
	}

	// Once drained, the id is free for reuse.
	if err := pool.Submit(retry); err != nil {
		t.Fatalf("Submit after drain: %v", err)
	}
	results, errs := pool.Wait([]uint64{id})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if results[id] != 7 {
		t.Errorf("result = %d, want 7", results[id])
	}
}

func TestPool_SubmitEmpty(t *testing.T) {
	pool := NewPool[int](Config{Workers: 1, QueueSize: 4})
	defer pool.Close()

	if err := pool.Submit(nil); err != nil {
		t.Errorf("Submit(nil) = %v, want nil", err)
	}
}

// =============================================================================
// Queue Capacity Tests
// =============================================================================

func TestPool_QueueFull(t *testing.T) {
	pool := NewPool[int](Config{Workers: 1, QueueSize: 4})
	defer pool.Close()

	gate := make(chan struct{})
	blocked := func() (int, error) { <-gate; return 1, nil }

	tasks, ids := makeTasks(4, blocked)
	if err := pool.Submit(tasks); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	over, _ := makeTasks(1, blocked)
	if err := pool.Submit(over); !errors.Is(err, ErrQueueFull) {
		t.Errorf("overflow Submit = %v, want ErrQueueFull", err)
	}

	// The failed submission must not have disturbed the queued tasks.
	close(gate)
	results, errs := pool.Wait(ids)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(results) != 4 {
		t.Errorf("drained %d results, want 4", len(results))
	}
}

func TestPool_WaitFreesSlots(t *testing.T) {
	pool := NewPool[int](Config{Workers: 2, QueueSize: 4})
	defer pool.Close()

	for round := 0; round < 5; round++ {
		tasks, ids := makeTasks(4, func() (int, error) { return round, nil })
		if err := pool.Submit(tasks); err != nil {
			t.Fatalf("round %d Submit: %v", round, err)
		}
		pool.Wait(ids)

		for _, id := range ids {
			if _, ok := pool.TaskState(id); ok {
				t.Fatalf("round %d: task %d still occupies a slot after Wait", round, id)
			}
		}
	}
}

// =============================================================================
// Scheduling Tests
// =============================================================================

func TestPool_WorkerExclusivity(t *testing.T) {
	const workers = 3
	pool := NewPool[int](Config{Workers: workers, QueueSize: 64})
	defer pool.Close()

	var current, peak atomic.Int64
	run := func() (int, error) {
		n := current.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		current.Add(-1)
		return 0, nil
	}

	tasks, ids := makeTasks(30, run)
	if err := pool.Submit(tasks); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	pool.Wait(ids)

	if peak.Load() > workers {
		t.Errorf("peak concurrency %d exceeds %d workers", peak.Load(), workers)
	}
}

func TestPool_QueueStatesAfterSubmit(t *testing.T) {
	const workers, total = 2, 5
	pool := NewPool[int](Config{Workers: workers, QueueSize: 8})
	defer pool.Close()

	gate := make(chan struct{})
	tasks, ids := makeTasks(total, func() (int, error) { <-gate; return 1, nil })
	if err := pool.Submit(tasks); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	// With every task blocked, Submit leaves exactly one Running task per
	// worker and the rest Pending.
	running, pending := 0, 0
	for _, id := range ids {
		s, ok := pool.TaskState(id)
		if !ok {
			t.Fatalf("task %d has no slot after Submit", id)
		}
		switch s {
		case StateRunning:
			running++
		case StatePending:
			pending++
		default:
			t.Fatalf("task %d in state %s after Submit", id, s)
		}
	}
	if running != workers || pending != total-workers {
		t.Errorf("after Submit: running=%d pending=%d, want %d/%d",
			running, pending, workers, total-workers)
	}

	// No worker index appears twice among Running slots.
	pool.mu.Lock()
	byWorker := make(map[int32]uint64)
	for i := range pool.slots {
		if pool.slots[i].state != StateRunning {
			continue
		}
		w := pool.slots[i].worker
		if w == unassigned {
			t.Errorf("running task %d has no worker", pool.slots[i].id)
		}
		if prev, dup := byWorker[w]; dup {
			t.Errorf("worker %d runs tasks %d and %d", w, prev, pool.slots[i].id)
		}
		byWorker[w] = pool.slots[i].id
	}
	pool.mu.Unlock()

	close(gate)
	_, errs := pool.Wait(ids)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
}

func TestPool_MoreTasksThanWorkers(t *testing.T) {
	pool := NewPool[int](Config{Workers: 1, QueueSize: 16})
	defer pool.Close()

	var ran atomic.Int64
	tasks, ids := makeTasks(10, func() (int, error) { ran.Add(1); return 0, nil })

	if err := pool.Submit(tasks); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	pool.Wait(ids)

	if ran.Load() != 10 {
		t.Errorf("ran %d tasks, want 10", ran.Load())
	}
}

func TestPool_ConcurrentSubmitters(t *testing.T) {
	pool := NewPool[int](Config{Workers: 4, QueueSize: 256})
	defer pool.Close()

	done := make(chan error, 8)
	for g := 0; g < 8; g++ {
		go func() {
			tasks, ids := makeTasks(16, func() (int, error) { return 1, nil })
			if err := pool.Submit(tasks); err != nil {
				done <- err
				return
			}
			results, errs := pool.Wait(ids)
			if len(errs) != 0 {
				done <- fmt.Errorf("errors: %v", errs)
				return
			}
			sum := 0
			for _, v := range results {
				sum += v
			}
			if sum != 16 {
				done <- fmt.Errorf("sum = %d, want 16", sum)
				return
			}
			done <- nil
		}()
	}

	for g := 0; g < 8; g++ {
		select {
		case err := <-done:
			if err != nil {
				t.Fatal(err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timeout waiting for submitters")
		}
	}
}

// =============================================================================
// Close Tests
// =============================================================================

func TestPool_CloseIdempotent(t *testing.T) {
	pool := NewPool[int](Config{Workers: 2, QueueSize: 4})

	pool.Close()
	pool.Close()
	pool.Close()
}

func TestPool_SubmitAfterClose(t *testing.T) {
	pool := NewPool[int](Config{Workers: 2, QueueSize: 4})
	pool.Close()

	tasks, _ := makeTasks(1, func() (int, error) { return 0, nil })
	if err := pool.Submit(tasks); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("Submit after Close = %v, want ErrPoolClosed", err)
	}
}

func TestPool_CloseFailsPending(t *testing.T) {
	pool := NewPool[int](Config{Workers: 1, QueueSize: 8})

	gate := make(chan struct{})
	tasks, ids := makeTasks(5, func() (int, error) { <-gate; return 1, nil })
	if err := pool.Submit(tasks); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	// Let assigned tasks finish, strand the rest as pending.
	go func() {
		time.Sleep(10 * time.Millisecond)
		close(gate)
	}()
	pool.Close()

	_, errs := pool.Wait(ids)
	for _, err := range errs {
		if !errors.Is(err, ErrPoolClosed) {
			t.Errorf("pending task error = %v, want ErrPoolClosed", err)
		}
	}
}

func TestPool_NoGoroutineLeak(t *testing.T) {
	runtime.GC()
	time.Sleep(50 * time.Millisecond)
	baseline := runtime.NumGoroutine()

	for i := 0; i < 5; i++ {
		pool := NewPool[int](Config{Workers: 4, QueueSize: 16})
		tasks, ids := makeTasks(16, func() (int, error) { return 0, nil })
		if err := pool.Submit(tasks); err != nil {
			t.Fatalf("Submit: %v", err)
		}
		pool.Wait(ids)
		pool.Close()
	}

	runtime.GC()
	time.Sleep(100 * time.Millisecond)
	final := runtime.NumGoroutine()

	if final > baseline+2 {
		t.Errorf("goroutine count: baseline=%d, final=%d (leak detected)", baseline, final)
	}
}

// =============================================================================
// ID Tests
// =============================================================================

func TestNextID_Unique(t *testing.T) {
	seen := make(map[uint64]bool)
	for i := 0; i < 1000; i++ {
		id := NextID()
		if id == 0 {
			t.Fatal("NextID returned 0, which is reserved")
		}
		if seen[id] {
			t.Fatalf("duplicate id %d", id)
		}
		seen[id] = true
	}
}

// =============================================================================
// Benchmarks
// =============================================================================

func BenchmarkPool_SubmitWait(b *testing.B) {
	pool := NewPool[int](Config{Workers: runtime.GOMAXPROCS(0), QueueSize: 256})
	defer pool.Close()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		tasks, ids := makeTasks(64, func() (int, error) { return 1, nil })
		if err := pool.Submit(tasks); err != nil {
			b.Fatal(err)
		}
		pool.Wait(ids)
	}
}
