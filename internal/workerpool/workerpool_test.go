package workerpool

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParallelFor_CoversEveryIndexOnce(t *testing.T) {
	pool := New(4)
	defer pool.Close()

	for _, n := range []int{1, 3, 4, 7, 100, 1000} {
		visits := make([]int32, n)
		pool.ParallelFor(n, func(start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&visits[i], 1)
			}
		})

		for i, v := range visits {
			require.Equal(t, int32(1), v, "n=%d index %d", n, i)
		}
	}
}

func TestParallelFor_ChunksAreContiguous(t *testing.T) {
	pool := New(3)
	defer pool.Close()

	var covered atomic.Int64
	pool.ParallelFor(10, func(start, end int) {
		require.Less(t, start, end)
		covered.Add(int64(end - start))
	})

	require.Equal(t, int64(10), covered.Load())
}

func TestParallelFor_ZeroAndNegative(t *testing.T) {
	pool := New(2)
	defer pool.Close()

	called := false
	pool.ParallelFor(0, func(int, int) { called = true })
	pool.ParallelFor(-5, func(int, int) { called = true })
	require.False(t, called)
}

func TestParallelFor_SequentialBarrier(t *testing.T) {
	pool := New(8)
	defer pool.Close()

	// Phase A fills the cache, phase B consumes it. The Wait inside
	// ParallelFor must make every phase A write visible to phase B.
	const n = 512
	cache := make([]float32, n)

	pool.ParallelFor(n, func(start, end int) {
		for i := start; i < end; i++ {
			cache[i] = float32(i) * 2
		}
	})
	pool.ParallelFor(n, func(start, end int) {
		for i := start; i < end; i++ {
			require.Equal(t, float32(i)*2, cache[i])
		}
	})
}

func TestParallelForEach_CoversEveryIndexOnce(t *testing.T) {
	pool := New(4)
	defer pool.Close()

	const n = 257
	visits := make([]int32, n)
	pool.ParallelForEach(n, func(i int) {
		atomic.AddInt32(&visits[i], 1)
	})

	for i, v := range visits {
		require.Equal(t, int32(1), v, "index %d", i)
	}
}

func TestPool_SingleWorkerRunsInline(t *testing.T) {
	pool := New(1)
	defer pool.Close()

	spans := 0
	pool.ParallelFor(100, func(start, end int) {
		spans++
		require.Equal(t, 0, start)
		require.Equal(t, 100, end)
	})
	require.Equal(t, 1, spans)
}

func TestPool_ClosedFallsBackToSequential(t *testing.T) {
	pool := New(4)
	pool.Close()
	pool.Close() // idempotent

	var total atomic.Int64
	pool.ParallelFor(50, func(start, end int) {
		total.Add(int64(end - start))
	})
	require.Equal(t, int64(50), total.Load())

	count := 0
	pool.ParallelForEach(10, func(int) { count++ })
	require.Equal(t, 10, count)
}

func TestNew_DefaultsWorkerCount(t *testing.T) {
	pool := New(0)
	defer pool.Close()
	require.Positive(t, pool.NumWorkers())

	pool6 := New(6)
	defer pool6.Close()
	require.Equal(t, 6, pool6.NumWorkers())
}

func TestDefault_SharedInstance(t *testing.T) {
	p1 := Default()
	p2 := Default()

	require.NotNil(t, p1)
	require.Same(t, p1, p2)
	require.Positive(t, p1.NumWorkers())
}

func BenchmarkParallelFor(b *testing.B) {
	pool := New(0)
	defer pool.Close()

	rows := make([]float32, 8192)
	b.ResetTimer()
	for b.Loop() {
		pool.ParallelFor(len(rows), func(start, end int) {
			for i := start; i < end; i++ {
				rows[i] += 1
			}
		})
	}
}
