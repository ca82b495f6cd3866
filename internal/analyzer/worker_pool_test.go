package analyzer

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
)

func TestNewWorkerPool(t *testing.T) {
	pool := NewWorkerPool(4)
	if pool == nil {
		t.Fatal("Expected non-nil worker pool")
	}
	if pool.Workers() != 4 {
		t.Errorf("Expected 4 workers, got %d", pool.Workers())
	}
}

func TestNewWorkerPool_ZeroWorkers(t *testing.T) {
	pool := NewWorkerPool(0)
	if pool == nil {
		t.Fatal("Expected non-nil WorkerPool")
	}
	// Should default to runtime.NumCPU() when workers <= 0
	if pool.Workers() != runtime.NumCPU() {
		t.Errorf("Expected %d workers, got %d", runtime.NumCPU(), pool.Workers())
	}
}

func TestWorkerPool_Submit(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Start()
	defer pool.Close()

	// Test submitting jobs and waiting for completion
	var counter int
	var mu sync.Mutex

	for i := 0; i < 5; i++ {
		pool.Submit(func() {
			mu.Lock()
			counter++
			mu.Unlock()
		})
	}

	pool.Wait()

	if counter != 5 {
		t.Errorf("Expected counter to be 5, got %d", counter)
	}
}

func TestWorkerPool_StartOnce(t *testing.T) {
	pool := NewWorkerPool(2)

	// Start should be idempotent
	pool.Start()
	pool.Start() // Should not panic or create duplicate workers

	defer pool.Close()

	// Test that pool still works after multiple Start calls
	var executed bool
	pool.Submit(func() {
		executed = true
	})

	pool.Wait()

	if !executed {
		t.Error("Expected job to be executed")
	}
}

func TestWorkerPool_CloseAndResubmit(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Start()

	// Submit a job
	var executed bool
	pool.Submit(func() {
		executed = true
	})

	pool.Wait()
	pool.Close()
	pool.Close() // Should not panic

	if !executed {
		t.Error("Expected job to be executed before close")
	}
	if pool.Submit(func() {}) {
		t.Error("Expected Submit to be rejected after Close")
	}
}

func TestWorkerPool_Stats(t *testing.T) {
	pool := NewWorkerPool(3)
	pool.Start()
	defer pool.Close()

	// one job per frame, each summing its own slot
	const frames = 24
	sums := make([]float64, frames)
	var accepted int64
	for i := 0; i < frames; i++ {
		i := i
		if pool.Submit(func() {
			for j := 0; j < 2000; j++ {
				sums[i] += float64(j % (i + 1))
			}
		}) {
			accepted++
		}
	}

	// stats stay readable while jobs run
	var wg sync.WaitGroup
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				stats := pool.GetStats()
				if stats.CompletedJobs > stats.TotalJobs {
					t.Errorf("completed %d > total %d", stats.CompletedJobs, stats.TotalJobs)
				}
			}
		}()
	}
	wg.Wait()
	pool.Wait()

	stats := pool.GetStats()
	if stats.TotalJobs != accepted || stats.CompletedJobs != accepted {
		t.Errorf("Expected %d total and completed jobs, got %d/%d", accepted, stats.TotalJobs, stats.CompletedJobs)
	}
	if stats.ActiveWorkers != 0 {
		t.Errorf("Expected 0 active workers after completion, got %d", stats.ActiveWorkers)
	}
	if sums[0] != 0 || sums[1] != 1000 {
		t.Errorf("unexpected frame sums %v", sums[:2])
	}
}

func TestRunIndexed_Sequential(t *testing.T) {
	var order []int
	err := RunIndexed(1, 4, func(i int) error {
		order = append(order, i)
		return nil
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	for i, v := range order {
		if v != i {
			t.Fatalf("Expected in-order execution, got %v", order)
		}
	}
}

func TestRunIndexed_LowestIndexErrorWins(t *testing.T) {
	errLow := errors.New("low")
	errHigh := errors.New("high")

	var calls atomic.Int64
	err := RunIndexed(4, 10, func(i int) error {
		calls.Add(1)
		switch i {
		case 3:
			return errLow
		case 7:
			return errHigh
		}
		return nil
	})

	if !errors.Is(err, errLow) {
		t.Errorf("Expected error from index 3, got %v", err)
	}
	if calls.Load() != 10 {
		t.Errorf("Expected all 10 items to run, got %d", calls.Load())
	}
}

func TestRunIndexed_WritesByIndex(t *testing.T) {
	out := make([]int, 50)
	err := RunIndexed(8, len(out), func(i int) error {
		out[i] = i * i
		return nil
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	for i, v := range out {
		if v != i*i {
			t.Fatalf("Expected out[%d]=%d, got %d", i, i*i, v)
		}
	}
}
