package section

import (
	"math"

	"github.com/s4ayub/rowquant/format"
)

const (
	// Bit masks for the Options field
	EndiannessMask   = 0x0001 // Mask for endianness bit (bit 0)
	MatrixNamesMask  = 0x0002 // Mask for matrix names payload bit (bit 1)
	ReservedBitsMask = 0x000C // Mask for reserved bits (bits 2-3)
	MagicNumberMask  = 0xFFF0 // Mask for magic number (bits 4-15)

	// MagicMatrixV1Opt is the version 1 magic number for the fused matrix blob format.
	MagicMatrixV1Opt = 0xFA10
)

// Offsets and section sizes in the blob file.
const (
	HeaderSize           = 32             // fixed header size in bytes
	MatrixIndexEntrySize = 24             // fixed index entry size in bytes
	IndexOffsetOffset    = HeaderSize     // byte offset where the index section starts when no names payload is present
	MaxMatrixCount       = math.MaxUint16 // maximum number of matrices per blob
	MaxSectionOffset     = math.MaxUint32 // maximum byte offset addressable by header and index fields
)

// Fused row trailer sizes. Every fused row ends with a (scale, bias) pair:
// 8-bit rows carry two float32 values, sub-byte rows carry two half
// precision values.
const (
	Trailer8Size = 8 // float32 scale + float32 bias
	TrailerNSize = 4 // fp16 scale + fp16 bias
)

// Align4 rounds n up to the next multiple of 4.
func Align4(n int) int {
	return (n + 3) &^ 3
}

// Fused8RowWidth returns the byte width of one 8-bit fused row: the code
// region padded to a 4-byte boundary plus the float32 trailer.
func Fused8RowWidth(cols int) int {
	return Align4(cols) + Trailer8Size
}

// FusedNRowWidth returns the byte width of one sub-byte fused row: the
// packed code region plus the fp16 trailer. cols must already satisfy the
// codec's alignment rule, so the code region divides evenly.
func FusedNRowWidth(cols int, rate format.BitRate) int {
	return cols/rate.ElemsPerByte() + TrailerNSize
}
