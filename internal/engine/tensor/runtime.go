package tensor

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// workQueueDepth bounds the number of outstanding materialization work
// items (one per chunk of rows or columns) before the pool blocks the submitter, per
// the engine's single-step-at-a-time concurrency model.
const workQueueDepth = 8096

var workers atomic.Int32

// SetWorkers overrides the materialization fan-out width. n<=0 restores the
// default of runtime.NumCPU().
func SetWorkers(n int) {
	workers.Store(int32(n))
}

func materializeWorkers() int {
	if n := int(workers.Load()); n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// parallelFor splits [0,n) into chunks and runs fn over each chunk on its
// own goroutine, draining (joining) before returning. maxWorkers<=1 or n<=1
// runs fn synchronously in a single chunk. Mirrors the teacher's
// internal/runtime/tensor runtime.go chunked-goroutine pattern.
func parallelFor(n, maxWorkers int, fn func(lo, hi int)) {
	if n <= 0 {
		return
	}

	if maxWorkers <= 1 || n == 1 {
		fn(0, n)
		return
	}

	if maxWorkers > n {
		maxWorkers = n
	}

	chunk := (n + maxWorkers - 1) / maxWorkers

	var wg sync.WaitGroup

	sem := make(chan struct{}, workQueueDepth)

	for lo := 0; lo < n; lo += chunk {
		hi := lo + chunk
		if hi > n {
			hi = n
		}

		sem <- struct{}{}
		wg.Add(1)

		go func(lo, hi int) {
			defer wg.Done()
			defer func() { <-sem }()
			fn(lo, hi)
		}(lo, hi)
	}

	wg.Wait()
}
