package quant

import (
	"fmt"
	"math"

	"github.com/s4ayub/rowquant/errs"
	"github.com/s4ayub/rowquant/format"
	"github.com/s4ayub/rowquant/fp16"
	"github.com/s4ayub/rowquant/internal/options"
	"github.com/s4ayub/rowquant/section"
)

// FusedNRowWidth returns the encoded byte width of one sub-byte fused
// row holding cols elements at the given rate. cols must satisfy the
// rate's alignment rule.
func FusedNRowWidth(cols int, rate format.BitRate) int {
	return section.FusedNRowWidth(cols, rate)
}

// FusedNEncodedLen returns the encoded byte length of a rows×cols matrix
// at the given rate.
func FusedNEncodedLen(rows, cols int, rate format.BitRate) int {
	return rows * section.FusedNRowWidth(cols, rate)
}

// FusedNDecodedCols returns the column count a sub-byte fused row of the
// given byte width decodes to.
func FusedNDecodedCols(rowWidth int, rate format.BitRate) int {
	return (rowWidth - section.TrailerNSize) * rate.ElemsPerByte()
}

// checkColsAligned enforces the packed-layout rule: the column count
// must divide into whole bytes and leave the fp16 trailer 2-byte
// aligned, i.e. cols must be a multiple of twice the codes per byte.
func checkColsAligned(cols int, rate format.BitRate) error {
	if step := 2 * rate.ElemsPerByte(); cols%step != 0 {
		return fmt.Errorf("%w: %d columns at %s, need a multiple of %d",
			errs.ErrColumnsNotAligned, cols, rate, step)
	}

	return nil
}

// FusedNEncoder quantizes float32 matrices to packed 2, 4 or 8 bit codes
// with an fp16 (scale, bias) trailer per row.
type FusedNEncoder struct {
	cfg  codecConfig
	rate format.BitRate
}

// NewFusedNEncoder creates a sub-byte row encoder for the given rate.
func NewFusedNEncoder(rate format.BitRate, opts ...Option) (*FusedNEncoder, error) {
	if !rate.IsValid() {
		return nil, fmt.Errorf("%w: %d", errs.ErrInvalidBitRate, uint8(rate))
	}

	e := &FusedNEncoder{cfg: defaultCodecConfig(), rate: rate}
	if err := options.Apply(&e.cfg, opts...); err != nil {
		return nil, err
	}

	return e, nil
}

// BitRate returns the encoder's code width in bits.
func (e *FusedNEncoder) BitRate() format.BitRate {
	return e.rate
}

// Encode quantizes a rows×cols row-major matrix into a fresh buffer of
// FusedNEncodedLen(rows, cols, rate) bytes.
func (e *FusedNEncoder) Encode(src []float32, rows, cols int) ([]byte, error) {
	if err := checkMatrixShape(len(src), rows, cols); err != nil {
		return nil, err
	}
	if err := checkColsAligned(cols, e.rate); err != nil {
		return nil, err
	}

	dst := make([]byte, FusedNEncodedLen(rows, cols, e.rate))
	e.encode(src, rows, cols, dst)

	return dst, nil
}

// EncodeTo quantizes a rows×cols row-major matrix into dst, which must
// be exactly FusedNEncodedLen(rows, cols, rate) bytes. Every byte of dst
// is written, so dst may come from a pool.
func (e *FusedNEncoder) EncodeTo(src []float32, rows, cols int, dst []byte) error {
	if err := checkMatrixShape(len(src), rows, cols); err != nil {
		return err
	}
	if err := checkColsAligned(cols, e.rate); err != nil {
		return err
	}
	if len(dst) != FusedNEncodedLen(rows, cols, e.rate) {
		return fmt.Errorf("%w: destination is %d bytes, need %d",
			errs.ErrInvalidRowWidth, len(dst), FusedNEncodedLen(rows, cols, e.rate))
	}

	e.encode(src, rows, cols, dst)

	return nil
}

// EncodeRow quantizes a single row into dst, which must be exactly
// FusedNRowWidth(len(src), rate) bytes.
func (e *FusedNEncoder) EncodeRow(src []float32, dst []byte) error {
	if len(src) == 0 {
		return fmt.Errorf("%w: cannot quantize a row without columns", errs.ErrEmptyRow)
	}
	if err := checkColsAligned(len(src), e.rate); err != nil {
		return err
	}
	if len(dst) != FusedNRowWidth(len(src), e.rate) {
		return fmt.Errorf("%w: destination is %d bytes, need %d",
			errs.ErrInvalidRowWidth, len(dst), FusedNRowWidth(len(src), e.rate))
	}

	e.encodeRow(src, dst, section.FusedNLayout{Cols: len(src), Rate: e.rate})

	return nil
}

func (e *FusedNEncoder) encode(src []float32, rows, cols int, dst []byte) {
	if rows == 0 {
		return
	}
	if cols == 0 {
		clear(dst)
		return
	}

	layout := section.FusedNLayout{Cols: cols, Rate: e.rate}
	width := layout.Width()
	e.cfg.pool.ParallelFor(rows, func(start, end int) {
		for r := start; r < end; r++ {
			e.encodeRow(src[r*cols:(r+1)*cols], dst[r*width:(r+1)*width], layout)
		}
	})
}

// encodeRow derives the row parameters through half precision. The bias
// is the rounded minimum and the scale is the rounded range divided by
// the code ceiling. Codes are computed against the rounded values, so
// the decoder reconstructs with exactly the parameters used here.
func (e *FusedNEncoder) encodeRow(src []float32, row []byte, layout section.FusedNLayout) {
	mn, mx := RowMinMax(src)

	bias := fp16.FromFloat32(mn)
	bias32 := bias.Float32()
	rangeV := mx - bias32

	var scale fp16.Value
	if rangeV == 0 {
		scale = fp16.One
	} else {
		scale = fp16.FromFloat32(rangeV / float32(e.rate.MaxCode()))
		if scale.IsZero() {
			scale = fp16.One
		}
	}

	inv := 1 / scale.Float32()
	if math.IsNaN(float64(inv)) || math.IsInf(float64(inv), 0) {
		scale = fp16.One
		inv = 1
	}

	layout.PutTrailer(row, scale, bias, e.cfg.engine)
	packCodesN(src, bias32, inv, e.rate, layout.Codes(row))
}

// packCodesN quantizes src LSB-first into the packed code region. The
// first code of each byte assigns the whole byte and later codes OR in,
// so the region needs no pre-clearing.
func packCodesN(src []float32, bias, inv float32, rate format.BitRate, codes []byte) {
	n := int(rate)
	epb := rate.ElemsPerByte()
	hi := float64(rate.MaxCode())
	for c, v := range src {
		code := byte(clamp(math.Round(float64((v-bias)*inv)), 0, hi))
		if shift := (c % epb) * n; shift == 0 {
			codes[c/epb] = code
		} else {
			codes[c/epb] |= code << shift
		}
	}
}

// FusedNDecoder reconstructs float32 matrices from sub-byte fused rows.
type FusedNDecoder struct {
	cfg  codecConfig
	rate format.BitRate
}

// NewFusedNDecoder creates a sub-byte row decoder for the given rate.
func NewFusedNDecoder(rate format.BitRate, opts ...Option) (*FusedNDecoder, error) {
	if !rate.IsValid() {
		return nil, fmt.Errorf("%w: %d", errs.ErrInvalidBitRate, uint8(rate))
	}

	d := &FusedNDecoder{cfg: defaultCodecConfig(), rate: rate}
	if err := options.Apply(&d.cfg, opts...); err != nil {
		return nil, err
	}

	return d, nil
}

// BitRate returns the decoder's code width in bits.
func (d *FusedNDecoder) BitRate() format.BitRate {
	return d.rate
}

// Decode dequantizes rows×cols from src into a fresh float32 slice.
func (d *FusedNDecoder) Decode(src []byte, rows, cols int) ([]float32, error) {
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
func (d *FusedNDecoder) DecodeTo(src []byte, rows, cols int, dst []float32) error {
	if err := checkMatrixShape(len(dst), rows, cols); err != nil {
		return err
	}
	if err := checkColsAligned(cols, d.rate); err != nil {
		return err
	}
	if len(src) != FusedNEncodedLen(rows, cols, d.rate) {
		return fmt.Errorf("%w: source is %d bytes, need %d",
			errs.ErrInvalidRowWidth, len(src), FusedNEncodedLen(rows, cols, d.rate))
	}
	if rows == 0 || cols == 0 {
		return nil
	}

	layout := section.FusedNLayout{Cols: cols, Rate: d.rate}
	width := layout.Width()
	d.cfg.pool.ParallelFor(rows, func(start, end int) {
		for r := start; r < end; r++ {
			row := src[r*width : (r+1)*width]
			scale := layout.Scale(row, d.cfg.engine).Float32()
			bias := layout.Bias(row, d.cfg.engine).Float32()
			unpackCodesN(row, scale, bias, d.rate, dst[r*cols:(r+1)*cols])
		}
	})

	return nil
}

// DecodeRow dequantizes a single fused row. The trailer is read from the
// last 4 bytes of row, so dst may cover any prefix of the packed region
// up to FusedNDecodedCols(len(row), rate) elements.
func (d *FusedNDecoder) DecodeRow(row []byte, dst []float32) error {
	nbytes := len(row) - section.TrailerNSize
	if nbytes < 0 || len(dst) > nbytes*d.rate.ElemsPerByte() {
		return fmt.Errorf("%w: row of %d bytes holds at most %d columns at %s",
			errs.ErrInvalidRowWidth, len(row), max(nbytes, 0)*d.rate.ElemsPerByte(), d.rate)
	}

	scale := fp16.FromBits(d.cfg.engine.Uint16(row[nbytes : nbytes+2])).Float32()
	bias := fp16.FromBits(d.cfg.engine.Uint16(row[nbytes+2 : nbytes+4])).Float32()
	unpackCodesN(row, scale, bias, d.rate, dst)

	return nil
}

func unpackCodesN(codes []byte, scale, bias float32, rate format.BitRate, dst []float32) {
	n := int(rate)
	epb := rate.ElemsPerByte()
	mask := rate.MaxCode()
	for c := range dst {
		code := (codes[c/epb] >> ((c % epb) * n)) & mask
		dst[c] = float32(code)*scale + bias
	}
}
