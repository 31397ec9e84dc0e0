package quant

import (
	"fmt"
	"math"

	"github.com/s4ayub/rowquant/errs"
)

// maxGroupWidth is the widest cooperating reduction group. Group widths
// are powers of two in [1, maxGroupWidth].
const maxGroupWidth = 32

// reduceLanes is the number of independent accumulators RowMinMax
// strides across, set per platform in minmax_*.go. Any power of two
// produces identical results; wider spreads the loop over more
// independent dependency chains.
var reduceLanes = 4

// RowMinMax returns the minimum and maximum element of row.
//
// The scan accumulates into reduceLanes independent lanes and folds them
// at the end. min and max are associative and commutative and both
// propagate NaN, so the result is bit-identical to a plain left-to-right
// scan for every lane count.
//
// An empty row yields (+Inf, -Inf), the reduction seeds. Callers
// short-circuit empty shapes before reducing.
func RowMinMax(row []float32) (float32, float32) {
	lanes := reduceLanes
	if len(row) < lanes {
		lanes = 1
	}

	var mins, maxs [maxGroupWidth]float32
	for i := range lanes {
		mins[i] = float32(math.Inf(1))
		maxs[i] = float32(math.Inf(-1))
	}

	for i, v := range row {
		lane := i & (lanes - 1)
		mins[lane] = min(mins[lane], v)
		maxs[lane] = max(maxs[lane], v)
	}

	mn, mx := mins[0], maxs[0]
	for i := 1; i < lanes; i++ {
		mn = min(mn, mins[i])
		mx = max(mx, maxs[i])
	}

	return mn, mx
}

// GroupMinMax reduces row with a cooperating group of the given width.
//
// Each lane strides through the columns congruent to its index, then the
// group runs log2(width) butterfly rounds: every round each lane combines
// with the partner whose index differs in one bit, halving the exchange
// distance until lane 0 holds the full reduction. The result equals
// RowMinMax for every valid width.
//
// width must be a power of two in [1, 32].
func GroupMinMax(row []float32, width int) (float32, float32, error) {
	if width < 1 || width > maxGroupWidth || width&(width-1) != 0 {
		return 0, 0, fmt.Errorf("%w: %d", errs.ErrInvalidLaneCount, width)
	}

	mn, mx := butterflyMinMax(row, width)

	return mn, mx, nil
}

// butterflyMinMax is GroupMinMax without the width validation. Callers
// pass widths produced by groupWidth.
func butterflyMinMax(row []float32, width int) (float32, float32) {
	var mins, maxs [maxGroupWidth]float32
	for lane := range width {
		mn := float32(math.Inf(1))
		mx := float32(math.Inf(-1))
		for c := lane; c < len(row); c += width {
			mn = min(mn, row[c])
			mx = max(mx, row[c])
		}
		mins[lane], maxs[lane] = mn, mx
	}

	// Exchange rounds read the partner values from before the round, so
	// snapshot the arrays. Arrays copy by value.
	for dist := width / 2; dist > 0; dist >>= 1 {
		snapMins, snapMaxs := mins, maxs
		for lane := range width {
			partner := lane ^ dist
			mins[lane] = min(snapMins[lane], snapMins[partner])
			maxs[lane] = max(snapMaxs[lane], snapMaxs[partner])
		}
	}

	return mins[0], maxs[0]
}

// groupWidth picks the reduction group for a row of cols elements: the
// smallest power of two covering the columns, capped at maxGroupWidth.
func groupWidth(cols int) int {
	w := min(cols, maxGroupWidth)
	g := 1
	for g < w {
		g <<= 1
	}

	return g
}
