package quant

import (
	"cmp"
	"fmt"

	"github.com/s4ayub/rowquant/endian"
	"github.com/s4ayub/rowquant/errs"
	"github.com/s4ayub/rowquant/internal/options"
	"github.com/s4ayub/rowquant/internal/workerpool"
)

// rangeEpsilon guards the 8-bit inverse scale against division by zero.
// It is added in float32, where it disappears below half an ulp for any
// ordinary range, so non-degenerate rows keep an exact inverse scale.
const rangeEpsilon float32 = 1e-8

// singlePassRowThreshold is the row count at or below which the 8-bit
// encoder runs its single-pass path instead of the two-phase path.
const singlePassRowThreshold = 20

// codecConfig carries the knobs shared by every encoder and decoder in
// this package: the byte order used for trailers and the worker pool
// that schedules row chunks.
type codecConfig struct {
	engine endian.EndianEngine
	pool   *workerpool.Pool
}

func defaultCodecConfig() codecConfig {
	return codecConfig{
		engine: endian.GetLittleEndianEngine(),
		pool:   workerpool.Default(),
	}
}

// Option configures an encoder or decoder at construction time.
type Option = options.Option[*codecConfig]

// WithLittleEndian stores row trailers in little-endian byte order.
// This is the default.
func WithLittleEndian() Option {
	return options.NoError(func(c *codecConfig) {
		c.engine = endian.GetLittleEndianEngine()
	})
}

// WithBigEndian stores row trailers in big-endian byte order.
func WithBigEndian() Option {
	return options.NoError(func(c *codecConfig) {
		c.engine = endian.GetBigEndianEngine()
	})
}

// WithEngine stores row trailers using the given engine.
func WithEngine(engine endian.EndianEngine) Option {
	return options.New(func(c *codecConfig) error {
		if engine == nil {
			return fmt.Errorf("%w: nil endian engine", errs.ErrInvalidEndianness)
		}
		c.engine = engine
		return nil
	})
}

// WithWorkerPool runs encode and decode row loops on the given pool
// instead of the shared default pool.
func WithWorkerPool(pool *workerpool.Pool) Option {
	return options.New(func(c *codecConfig) error {
		if pool == nil {
			return fmt.Errorf("%w: nil worker pool", errs.ErrInvalidWorkerPool)
		}
		c.pool = pool
		return nil
	})
}

// clamp pins v to the inclusive interval [lo, hi].
func clamp[T cmp.Ordered](v, lo, hi T) T {
	return min(max(v, lo), hi)
}

// checkMatrixShape validates the (rows, cols) pair against the flat
// element slice backing the matrix.
func checkMatrixShape(elems int, rows, cols int) error {
	if rows < 0 || cols < 0 {
		return fmt.Errorf("%w: %dx%d", errs.ErrInvalidShape, rows, cols)
	}
	if elems != rows*cols {
		return fmt.Errorf("%w: %dx%d needs %d elements, have %d",
			errs.ErrInvalidShape, rows, cols, rows*cols, elems)
	}
	return nil
}
