// Package workerpool provides a persistent worker pool for row-parallel
// encoding and decoding.
//
// Fused codecs process independent rows, so a matrix encode is a
// ParallelFor over row indices. Pools are created once and reused across
// matrices; spawning goroutines per encode would dominate the cost of
// quantizing small tables. The two-phase encoders issue two sequential
// ParallelFor calls, and the blocking Wait between them is the barrier
// that separates the statistics pass from the write pass.
package workerpool

import (
	"os"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
)

// WorkersEnvVar overrides the size of the shared Default pool.
const WorkersEnvVar = "ROWQUANT_WORKERS"

// Pool is a persistent worker pool. Workers are spawned once at creation
// and serve parallel operations until Close.
type Pool struct {
	numWorkers int
	workC      chan workItem
	closeOnce  sync.Once
	closed     atomic.Bool
}

type workItem struct {
	fn      func()
	barrier *sync.WaitGroup
}

// New creates a pool with numWorkers persistent workers.
// If numWorkers <= 0 it uses GOMAXPROCS.
func New(numWorkers int) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	p := &Pool{
		numWorkers: numWorkers,
		workC:      make(chan workItem, numWorkers*2),
	}

	for range numWorkers {
		go p.worker()
	}

	return p
}

func (p *Pool) worker() {
	for item := range p.workC {
		item.fn()
		item.barrier.Done()
	}
}

// NumWorkers returns the number of workers in the pool.
func (p *Pool) NumWorkers() int {
	return p.numWorkers
}

// Close shuts down the pool after pending work completes.
// Close is idempotent, and a closed pool still serves ParallelFor calls
// by running them on the calling goroutine.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		close(p.workC)
	})
}

// ParallelFor runs fn over [0, n) split into contiguous chunks, one per
// worker, and blocks until every chunk has finished. fn receives a
// half-open [start, end) range.
func (p *Pool) ParallelFor(n int, fn func(start, end int)) {
	if n <= 0 {
		return
	}

	workers := min(p.numWorkers, n)
	if workers == 1 || p.closed.Load() {
		fn(0, n)
		return
	}

	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	wg.Add(workers)

	for i := range workers {
		start := i * chunkSize
		end := min(start+chunkSize, n)
		if start >= n {
			// Rounding left this worker without a chunk.
			wg.Done()
			continue
		}

		p.workC <- workItem{
			fn:      func() { fn(start, end) },
			barrier: &wg,
		}
	}

	wg.Wait()
}

// ParallelForEach runs fn for each index in [0, n) with atomic work
// stealing, which balances load when per-item cost varies, such as
// decoding matrices of very different sizes. Blocks until all items
// have finished.
func (p *Pool) ParallelForEach(n int, fn func(i int)) {
	if n <= 0 {
		return
	}

	workers := min(p.numWorkers, n)
	if workers == 1 || p.closed.Load() {
		for i := range n {
			fn(i)
		}

		return
	}

	var nextIdx atomic.Int64
	var wg sync.WaitGroup
	wg.Add(workers)

	for range workers {
		p.workC <- workItem{
			fn: func() {
				for {
					idx := int(nextIdx.Add(1)) - 1
					if idx >= n {
						return
					}
					fn(idx)
				}
			},
			barrier: &wg,
		}
	}

	wg.Wait()
}

var (
	defaultPool *Pool
	defaultOnce sync.Once
)

// Default returns the process-wide shared pool, creating it on first use.
// Its size comes from ROWQUANT_WORKERS when set to a positive integer,
// otherwise GOMAXPROCS. The shared pool is never closed.
func Default() *Pool {
	defaultOnce.Do(func() {
		workers := 0
		if v := os.Getenv(WorkersEnvVar); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				workers = n
			}
		}
		defaultPool = New(workers)
	})

	return defaultPool
}
