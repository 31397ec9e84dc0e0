package quant

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/s4ayub/rowquant/errs"
)

func scanMinMax(row []float32) (float32, float32) {
	mn := float32(math.Inf(1))
	mx := float32(math.Inf(-1))
	for _, v := range row {
		mn = min(mn, v)
		mx = max(mx, v)
	}

	return mn, mx
}

func randomRow(rng *rand.Rand, n int, lo, hi float32) []float32 {
	row := make([]float32, n)
	for i := range row {
		row[i] = lo + rng.Float32()*(hi-lo)
	}

	return row
}

func TestRowMinMax(t *testing.T) {
	tests := []struct {
		name    string
		row     []float32
		wantMin float32
		wantMax float32
	}{
		{name: "single element", row: []float32{3.5}, wantMin: 3.5, wantMax: 3.5},
		{name: "ascending", row: []float32{1, 2, 3, 4}, wantMin: 1, wantMax: 4},
		{name: "descending", row: []float32{4, 3, 2, 1}, wantMin: 1, wantMax: 4},
		{name: "all equal", row: []float32{7, 7, 7, 7, 7}, wantMin: 7, wantMax: 7},
		{name: "negative", row: []float32{-1.5, -8, 2.25, 0}, wantMin: -8, wantMax: 2.25},
		{name: "signed zero", row: []float32{0, float32(math.Copysign(0, -1))}, wantMin: 0, wantMax: 0},
		{name: "extremes", row: []float32{-math.MaxFloat32, math.MaxFloat32}, wantMin: -math.MaxFloat32, wantMax: math.MaxFloat32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mn, mx := RowMinMax(tt.row)
			require.Equal(t, tt.wantMin, mn)
			require.Equal(t, tt.wantMax, mx)
		})
	}
}

func TestRowMinMax_MatchesScan(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	// Lengths around the lane-count boundaries matter most.
	for _, n := range []int{1, 2, 3, 4, 5, 7, 8, 9, 15, 16, 17, 31, 32, 33, 63, 64, 100, 1000} {
		row := randomRow(rng, n, -100, 100)
		mn, mx := RowMinMax(row)
		wantMin, wantMax := scanMinMax(row)
		require.Equal(t, wantMin, mn, "min mismatch at n=%d", n)
		require.Equal(t, wantMax, mx, "max mismatch at n=%d", n)
	}
}

func TestRowMinMax_EmptyRow(t *testing.T) {
	mn, mx := RowMinMax(nil)
	require.True(t, math.IsInf(float64(mn), 1))
	require.True(t, math.IsInf(float64(mx), -1))
}

func TestGroupMinMax_ParityAcrossWidths(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, n := range []int{1, 3, 8, 31, 32, 33, 64, 257} {
		row := randomRow(rng, n, -50, 50)
		wantMin, wantMax := RowMinMax(row)
		for width := 1; width <= maxGroupWidth; width <<= 1 {
			mn, mx, err := GroupMinMax(row, width)
			require.NoError(t, err)
			require.Equal(t, wantMin, mn, "min mismatch at n=%d width=%d", n, width)
			require.Equal(t, wantMax, mx, "max mismatch at n=%d width=%d", n, width)
		}
	}
}

func TestGroupMinMax_InvalidWidth(t *testing.T) {
	row := []float32{1, 2, 3}
	for _, width := range []int{0, -1, 3, 5, 6, 33, 64} {
		_, _, err := GroupMinMax(row, width)
		require.ErrorIs(t, err, errs.ErrInvalidLaneCount, "width=%d", width)
	}
}

func TestGroupMinMax_NaNPoisons(t *testing.T) {
	nan := float32(math.NaN())
	row := []float32{1, 2, nan, 4, 5, 6, 7, 8}
	for width := 1; width <= maxGroupWidth; width <<= 1 {
		mn, mx, err := GroupMinMax(row, width)
		require.NoError(t, err)
		require.True(t, math.IsNaN(float64(mn)), "width=%d", width)
		require.True(t, math.IsNaN(float64(mx)), "width=%d", width)
	}

	mn, mx := RowMinMax(row)
	require.True(t, math.IsNaN(float64(mn)))
	require.True(t, math.IsNaN(float64(mx)))
}

func TestGroupWidth(t *testing.T) {
	tests := []struct {
		cols int
		want int
	}{
		{cols: 1, want: 1},
		{cols: 2, want: 2},
		{cols: 3, want: 4},
		{cols: 4, want: 4},
		{cols: 5, want: 8},
		{cols: 17, want: 32},
		{cols: 31, want: 32},
		{cols: 32, want: 32},
		{cols: 33, want: 32},
		{cols: 4096, want: 32},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, groupWidth(tt.cols), "cols=%d", tt.cols)
	}
}

func BenchmarkRowMinMax(b *testing.B) {
	rng := rand.New(rand.NewSource(42))
	row := randomRow(rng, 1024, -10, 10)
	for b.Loop() {
		RowMinMax(row)
	}
}
