package section

import (
	"math"

	"github.com/s4ayub/rowquant/endian"
	"github.com/s4ayub/rowquant/format"
	"github.com/s4ayub/rowquant/fp16"
)

// Fused8Layout describes the byte layout of one 8-bit fused row:
//
//	┌──────────────────────────┬─────────┬──────────────┬─────────────┐
//	│ codes (Cols × 1 byte)    │ padding │ scale float32│ bias float32│
//	└──────────────────────────┴─────────┴──────────────┴─────────────┘
//
// The code region is padded with zero bytes to a 4-byte boundary so the
// float32 trailer of every row sits 4-byte aligned within the payload.
type Fused8Layout struct {
	// Cols is the number of float columns, before padding.
	Cols int
}

// CodeBytes returns the size of the code region, padding included.
func (l Fused8Layout) CodeBytes() int {
	return Align4(l.Cols)
}

// Width returns the total byte width of one fused row.
func (l Fused8Layout) Width() int {
	return Fused8RowWidth(l.Cols)
}

// Codes returns the code region of row, padding included.
func (l Fused8Layout) Codes(row []byte) []byte {
	return row[:l.CodeBytes()]
}

// Scale reads the float32 scale from the row trailer.
func (l Fused8Layout) Scale(row []byte, engine endian.EndianEngine) float32 {
	off := l.CodeBytes()
	return math.Float32frombits(engine.Uint32(row[off : off+4]))
}

// Bias reads the float32 bias from the row trailer.
func (l Fused8Layout) Bias(row []byte, engine endian.EndianEngine) float32 {
	off := l.CodeBytes() + 4
	return math.Float32frombits(engine.Uint32(row[off : off+4]))
}

// PutTrailer writes the scale and bias into the row trailer.
func (l Fused8Layout) PutTrailer(row []byte, scale, bias float32, engine endian.EndianEngine) {
	off := l.CodeBytes()
	engine.PutUint32(row[off:off+4], math.Float32bits(scale))
	engine.PutUint32(row[off+4:off+8], math.Float32bits(bias))
}

// FusedNLayout describes the byte layout of one sub-byte fused row:
//
//	┌──────────────────────────────┬────────────┬───────────┐
//	│ packed codes (Cols/epb bytes)│ scale fp16 │ bias fp16 │
//	└──────────────────────────────┴────────────┴───────────┘
//
// Codes pack LSB-first: within each byte, the code of the lowest column
// index occupies the least significant bits. Cols must satisfy the codec
// alignment rule so the packed region divides evenly.
type FusedNLayout struct {
	// Cols is the number of float columns per row.
	Cols int
	// Rate is the number of bits per packed code.
	Rate format.BitRate
}

// CodeBytes returns the size of the packed code region.
func (l FusedNLayout) CodeBytes() int {
	return l.Cols / l.Rate.ElemsPerByte()
}

// Width returns the total byte width of one fused row.
func (l FusedNLayout) Width() int {
	return FusedNRowWidth(l.Cols, l.Rate)
}

// Codes returns the packed code region of row.
func (l FusedNLayout) Codes(row []byte) []byte {
	return row[:l.CodeBytes()]
}

// Scale reads the fp16 scale from the row trailer.
func (l FusedNLayout) Scale(row []byte, engine endian.EndianEngine) fp16.Value {
	off := l.CodeBytes()
	return fp16.FromBits(engine.Uint16(row[off : off+2]))
}

// Bias reads the fp16 bias from the row trailer.
func (l FusedNLayout) Bias(row []byte, engine endian.EndianEngine) fp16.Value {
	off := l.CodeBytes() + 2
	return fp16.FromBits(engine.Uint16(row[off : off+2]))
}

// PutTrailer writes the scale and bias into the row trailer.
func (l FusedNLayout) PutTrailer(row []byte, scale, bias fp16.Value, engine endian.EndianEngine) {
	off := l.CodeBytes()
	engine.PutUint16(row[off:off+2], scale.Bits())
	engine.PutUint16(row[off+2:off+4], bias.Bits())
}
