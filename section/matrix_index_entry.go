package section

import (
	"github.com/s4ayub/rowquant/endian"
	"github.com/s4ayub/rowquant/errs"
	"github.com/s4ayub/rowquant/format"
)

// Entry flag bits (byte 20 of the index entry).
const (
	// EntryFlagHalfTrailer marks rows carrying the 4-byte fp16 trailer of
	// the sub-byte codec family. When clear, rows carry the 8-byte float32
	// trailer of the byte codec.
	EntryFlagHalfTrailer = 0x01
)

// MatrixIndexEntry records one matrix in the blob index section.
// It is a fixed size of 24 bytes and stores absolute payload offsets:
// fused payloads grow past 64KiB quickly, so offsets are uint32 on disk.
//
//	Bytes  | Field         | Type   | Description
//	-------|---------------|--------|-----------------------------------
//	0-7    | MatrixID      | uint64 | xxHash64 of the matrix name
//	8-11   | Rows          | uint32 | Row count
//	12-15  | Cols          | uint32 | Column count before padding
//	16-19  | PayloadOffset | uint32 | Absolute offset in the payload section
//	20     | Flags         | uint8  | Entry flag bits
//	21     | BitRate       | uint8  | Bits per code (2, 4 or 8)
//	22-23  | Reserved      | uint16 | Must be 0
type MatrixIndexEntry struct {
	// MatrixID is the unsigned 64-bit matrix id, the xxHash64 hash of the
	// matrix name string.
	MatrixID uint64

	// Rows is the number of matrix rows.
	//
	// Stored on disk as uint32; int in memory to avoid conversions.
	Rows int

	// Cols is the number of float columns per row, before any code padding
	// or packing. Decoders need the true width because the code region of
	// an 8-bit row is padded to a 4-byte boundary.
	Cols int

	// PayloadOffset is the absolute byte offset of this matrix's first
	// fused row within the uncompressed payload section.
	PayloadOffset int

	// Flags carries the entry flag bits, including the trailer kind.
	Flags uint8

	// BitRate is the number of bits per stored code.
	BitRate format.BitRate
}

// NewMatrixIndexEntry creates an entry for an 8-bit fused matrix with the
// float32 trailer.
func NewMatrixIndexEntry(matrixID uint64, rows, cols int) MatrixIndexEntry {
	return MatrixIndexEntry{
		MatrixID: matrixID,
		Rows:     rows,
		Cols:     cols,
		BitRate:  format.BitRate8,
	}
}

// NewMatrixIndexEntryN creates an entry for a sub-byte fused matrix with
// the fp16 trailer.
func NewMatrixIndexEntryN(matrixID uint64, rows, cols int, rate format.BitRate) MatrixIndexEntry {
	return MatrixIndexEntry{
		MatrixID: matrixID,
		Rows:     rows,
		Cols:     cols,
		Flags:    EntryFlagHalfTrailer,
		BitRate:  rate,
	}
}

// HasHalfTrailer reports whether rows carry the 4-byte fp16 trailer.
func (e MatrixIndexEntry) HasHalfTrailer() bool {
	return e.Flags&EntryFlagHalfTrailer != 0
}

// RowWidth returns the byte width of one fused row of this matrix.
func (e MatrixIndexEntry) RowWidth() int {
	if e.HasHalfTrailer() {
		return FusedNRowWidth(e.Cols, e.BitRate)
	}

	return Fused8RowWidth(e.Cols)
}

// PayloadLength returns the total byte length of this matrix's fused rows.
func (e MatrixIndexEntry) PayloadLength() int {
	return e.Rows * e.RowWidth()
}

// Bytes returns the index entry as a byte slice using the specified
// endian engine.
func (e *MatrixIndexEntry) Bytes(engine endian.EndianEngine) []byte {
	var b [MatrixIndexEntrySize]byte // stack allocation
	engine.PutUint64(b[0:8], e.MatrixID)
	engine.PutUint32(b[8:12], uint32(e.Rows))           //nolint: gosec
	engine.PutUint32(b[12:16], uint32(e.Cols))          //nolint: gosec
	engine.PutUint32(b[16:20], uint32(e.PayloadOffset)) //nolint: gosec
	b[20] = e.Flags
	b[21] = uint8(e.BitRate)
	b[22] = 0
	b[23] = 0

	return b[:]
}

// WriteToSlice writes the entry into a pre-allocated slice at offset and
// returns the next write position. This is the hot path when the encoder
// lays down the index section in one pass.
func (e *MatrixIndexEntry) WriteToSlice(data []byte, offset int, engine endian.EndianEngine) int {
	engine.PutUint64(data[offset:offset+8], e.MatrixID)
	engine.PutUint32(data[offset+8:offset+12], uint32(e.Rows))           //nolint: gosec
	engine.PutUint32(data[offset+12:offset+16], uint32(e.Cols))          //nolint: gosec
	engine.PutUint32(data[offset+16:offset+20], uint32(e.PayloadOffset)) //nolint: gosec
	data[offset+20] = e.Flags
	data[offset+21] = uint8(e.BitRate)
	data[offset+22] = 0
	data[offset+23] = 0

	return offset + MatrixIndexEntrySize
}

// ParseMatrixIndexEntry parses a MatrixIndexEntry from a byte slice of at
// least MatrixIndexEntrySize bytes.
func ParseMatrixIndexEntry(data []byte, engine endian.EndianEngine) (MatrixIndexEntry, error) {
	if len(data) < MatrixIndexEntrySize {
		return MatrixIndexEntry{}, errs.ErrInvalidIndexEntrySize
	}

	return MatrixIndexEntry{
		MatrixID:      engine.Uint64(data[0:8]),
		Rows:          int(engine.Uint32(data[8:12])),
		Cols:          int(engine.Uint32(data[12:16])),
		PayloadOffset: int(engine.Uint32(data[16:20])),
		Flags:         data[20],
		BitRate:       format.BitRate(data[21]),
	}, nil
}
