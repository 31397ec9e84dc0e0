package quant

import (
	"fmt"
	"math"

	"github.com/s4ayub/rowquant/errs"
	"github.com/s4ayub/rowquant/internal/options"
	"github.com/s4ayub/rowquant/internal/pool"
	"github.com/s4ayub/rowquant/section"
)

// Fused8RowWidth returns the encoded byte width of one 8-bit fused row
// holding cols elements.
func Fused8RowWidth(cols int) int {
	return section.Fused8RowWidth(cols)
}

// Fused8EncodedLen returns the encoded byte length of a rows×cols matrix.
func Fused8EncodedLen(rows, cols int) int {
	return rows * section.Fused8RowWidth(cols)
}

// Fused8DecodedCols returns the column count an 8-bit fused row of the
// given byte width decodes to when the true column count is unknown.
// Padding columns are included; they decode to the row bias.
func Fused8DecodedCols(rowWidth int) int {
	return rowWidth - section.Trailer8Size
}

// Fused8Encoder quantizes float32 matrices to one code byte per element
// with a float32 (scale, bias) trailer per row.
type Fused8Encoder struct {
	cfg codecConfig
}

// NewFused8Encoder creates an 8-bit row encoder. By default trailers are
// little-endian and row loops run on the shared worker pool.
func NewFused8Encoder(opts ...Option) (*Fused8Encoder, error) {
	e := &Fused8Encoder{cfg: defaultCodecConfig()}
	if err := options.Apply(&e.cfg, opts...); err != nil {
		return nil, err
	}

	return e, nil
}

// Encode quantizes a rows×cols row-major matrix into a fresh buffer of
// Fused8EncodedLen(rows, cols) bytes.
func (e *Fused8Encoder) Encode(src []float32, rows, cols int) ([]byte, error) {
	if err := checkMatrixShape(len(src), rows, cols); err != nil {
		return nil, err
	}

	dst := make([]byte, Fused8EncodedLen(rows, cols))
	e.encode(src, rows, cols, dst)

	return dst, nil
}

// EncodeTo quantizes a rows×cols row-major matrix into dst, which must
// be exactly Fused8EncodedLen(rows, cols) bytes. Every byte of dst is
// written, padding included, so dst may come from a pool.
func (e *Fused8Encoder) EncodeTo(src []float32, rows, cols int, dst []byte) error {
	if err := checkMatrixShape(len(src), rows, cols); err != nil {
		return err
	}
	if len(dst) != Fused8EncodedLen(rows, cols) {
		return fmt.Errorf("%w: destination is %d bytes, need %d",
			errs.ErrInvalidRowWidth, len(dst), Fused8EncodedLen(rows, cols))
	}

	e.encode(src, rows, cols, dst)

	return nil
}

// EncodeRow quantizes a single row into dst, which must be exactly
// Fused8RowWidth(len(src)) bytes.
func (e *Fused8Encoder) EncodeRow(src []float32, dst []byte) error {
	if len(src) == 0 {
		return fmt.Errorf("%w: cannot quantize a row without columns", errs.ErrEmptyRow)
	}
	if len(dst) != Fused8RowWidth(len(src)) {
		return fmt.Errorf("%w: destination is %d bytes, need %d",
			errs.ErrInvalidRowWidth, len(dst), Fused8RowWidth(len(src)))
	}

	e.encodeRow(src, dst, section.Fused8Layout{Cols: len(src)})

	return nil
}

func (e *Fused8Encoder) encode(src []float32, rows, cols int, dst []byte) {
	if rows == 0 {
		return
	}
	if cols == 0 {
		// Trailer-only rows: zero scale and bias, no codes.
		clear(dst)
		return
	}

	layout := section.Fused8Layout{Cols: cols}
	if rows <= singlePassRowThreshold {
		e.encodeSinglePass(src, rows, layout, dst)
	} else {
		e.encodeTwoPhase(src, rows, layout, dst)
	}
}

// encodeSinglePass scans each row twice back to back: once for min/max,
// once to write codes.
func (e *Fused8Encoder) encodeSinglePass(src []float32, rows int, layout section.Fused8Layout, dst []byte) {
	width := layout.Width()
	e.cfg.pool.ParallelFor(rows, func(start, end int) {
		for r := start; r < end; r++ {
			e.encodeRow(src[r*layout.Cols:(r+1)*layout.Cols], dst[r*width:(r+1)*width], layout)
		}
	})
}

// encodeTwoPhase splits reduction from code emission. Phase A reduces
// every row with a butterfly group, writes the trailer and caches the
// raw range. Phase B reads the bias back from the trailer, rebuilds the
// inverse scale from the cached range and writes codes. Output bytes
// match the single-pass path exactly.
func (e *Fused8Encoder) encodeTwoPhase(src []float32, rows int, layout section.Fused8Layout, dst []byte) {
	width := layout.Width()
	ranges, release := pool.GetFloat32Slice(rows)
	defer release()

	gw := groupWidth(layout.Cols)
	e.cfg.pool.ParallelFor(rows, func(start, end int) {
		for r := start; r < end; r++ {
			mn, mx := butterflyMinMax(src[r*layout.Cols:(r+1)*layout.Cols], gw)
			rangeV := mx - mn
			layout.PutTrailer(dst[r*width:(r+1)*width], rangeV/255, mn, e.cfg.engine)
			ranges[r] = rangeV
		}
	})

	// Every trailer is complete once phase A returns, so phase B may
	// read any row's bias.
	e.cfg.pool.ParallelFor(rows, func(start, end int) {
		for r := start; r < end; r++ {
			row := dst[r*width : (r+1)*width]
			bias := layout.Bias(row, e.cfg.engine)
			inv := 255 / (ranges[r] + rangeEpsilon)
			putCodes8(src[r*layout.Cols:(r+1)*layout.Cols], bias, inv, layout.Codes(row))
		}
	})
}

func (e *Fused8Encoder) encodeRow(src []float32, row []byte, layout section.Fused8Layout) {
	mn, mx := RowMinMax(src)
	rangeV := mx - mn
	layout.PutTrailer(row, rangeV/255, mn, e.cfg.engine)

	inv := 255 / (rangeV + rangeEpsilon)
	putCodes8(src, mn, inv, layout.Codes(row))
}

// putCodes8 writes one code per element and zeroes the padding tail.
// The scaled offset stays in float32 before widening for the round, so
// inverse scales that are exact in float32 quantize exactly. Rounding is
// half away from zero.
func putCodes8(src []float32, bias, inv float32, codes []byte) {
	for i, v := range src {
		codes[i] = uint8(math.Round(float64((v - bias) * inv)))
	}
	clear(codes[len(src):])
}

// Fused8Decoder reconstructs float32 matrices from 8-bit fused rows.
type Fused8Decoder struct {
	cfg codecConfig
}

// NewFused8Decoder creates an 8-bit row decoder.
func NewFused8Decoder(opts ...Option) (*Fused8Decoder, error) {
	d := &Fused8Decoder{cfg: defaultCodecConfig()}
	if err := options.Apply(&d.cfg, opts...); err != nil {
		return nil, err
	}

	return d, nil
}

// Decode dequantizes rows×cols from src into a fresh float32 slice.
// cols is the true column count; padding columns are skipped.
func (d *Fused8Decoder) Decode(src []byte, rows, cols int) ([]float32, error) {
	if rows < 0 || cols < 0 {
		return nil, fmt.Errorf("%w: %dx%d", errs.ErrInvalidShape, rows, cols)
	}

	dst := make([]float32, rows*cols)
	if err := d.DecodeTo(src, rows, cols, dst); err != nil {
		return nil, err
	}

	return dst, nil
}

// DecodeTo dequantizes rows×cols from src into dst, which must hold
// exactly rows*cols elements.
func (d *Fused8Decoder) DecodeTo(src []byte, rows, cols int, dst []float32) error {
	if err := checkMatrixShape(len(dst), rows, cols); err != nil {
		return err
	}
	if len(src) != Fused8EncodedLen(rows, cols) {
		return fmt.Errorf("%w: source is %d bytes, need %d",
			errs.ErrInvalidRowWidth, len(src), Fused8EncodedLen(rows, cols))
	}
	if rows == 0 || cols == 0 {
		return nil
	}

	layout := section.Fused8Layout{Cols: cols}
	width := layout.Width()
	d.cfg.pool.ParallelFor(rows, func(start, end int) {
		for r := start; r < end; r++ {
			row := src[r*width : (r+1)*width]
			scale := layout.Scale(row, d.cfg.engine)
			bias := layout.Bias(row, d.cfg.engine)
			expandCodes8(row, scale, bias, dst[r*cols:(r+1)*cols])
		}
	})

	return nil
}

// DecodeRow dequantizes a single fused row. The trailer is read from the
// last 8 bytes of row, so dst may cover any prefix of the code region up
// to Fused8DecodedCols(len(row)) elements.
func (d *Fused8Decoder) DecodeRow(row []byte, dst []float32) error {
	nbytes := len(row) - section.Trailer8Size
	if nbytes < 0 || len(dst) > nbytes {
		return fmt.Errorf("%w: row of %d bytes holds at most %d columns",
			errs.ErrInvalidRowWidth, len(row), max(nbytes, 0))
	}

	scale := math.Float32frombits(d.cfg.engine.Uint32(row[nbytes : nbytes+4]))
	bias := math.Float32frombits(d.cfg.engine.Uint32(row[nbytes+4 : nbytes+8]))
	expandCodes8(row, scale, bias, dst)

	return nil
}

func expandCodes8(codes []byte, scale, bias float32, dst []float32) {
	for i := range dst {
		dst[i] = float32(codes[i])*scale + bias
	}
}
