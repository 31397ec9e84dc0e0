package pool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetFloat32Slice(t *testing.T) {
	t.Run("returns slice with requested length", func(t *testing.T) {
		slice, cleanup := GetFloat32Slice(100)
		defer cleanup()

		require.Len(t, slice, 100)
		require.GreaterOrEqual(t, cap(slice), 100)
	})

	t.Run("reuses pooled slice when capacity sufficient", func(t *testing.T) {
		slice1, cleanup1 := GetFloat32Slice(50)
		ptr1 := &slice1[0]
		cleanup1()

		slice2, cleanup2 := GetFloat32Slice(50)
		defer cleanup2()

		require.Equal(t, ptr1, &slice2[0], "should reuse same underlying array")
	})

	t.Run("allocates when capacity insufficient", func(t *testing.T) {
		_, cleanup1 := GetFloat32Slice(10)
		cleanup1()

		slice2, cleanup2 := GetFloat32Slice(1000)
		defer cleanup2()

		require.Len(t, slice2, 1000)
		require.GreaterOrEqual(t, cap(slice2), 1000)
	})

	t.Run("usable as a per-row range cache", func(t *testing.T) {
		ranges, cleanup := GetFloat32Slice(32)
		defer cleanup()

		for i := range ranges {
			ranges[i] = float32(i) * 0.5
		}
		require.Equal(t, float32(15.5), ranges[31])
	})
}

func TestSlicePoolConcurrency(t *testing.T) {
	const goroutines = 100
	done := make(chan struct{}, goroutines)

	for range goroutines {
		go func() {
			slice, cleanup := GetFloat32Slice(64)
			defer cleanup()

			for j := range slice {
				slice[j] = float32(j)
			}

			done <- struct{}{}
		}()
	}

	for range goroutines {
		<-done
	}
}
