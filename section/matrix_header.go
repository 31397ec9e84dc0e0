package section

import (
	"time"
	"unsafe"

	"github.com/s4ayub/rowquant/errs"
)

// MatrixHeader is the fixed-size header section at the start of a fused
// matrix blob.
type MatrixHeader struct {
	// CreatedAt is the blob creation time as a unix timestamp in microseconds.
	CreatedAt int64 // byte offset 4-11
	// MatrixCount is the number of matrices stored in the blob, max 65535.
	MatrixCount uint32 // byte offset 12-15
	// IndexOffset is the byte offset to the start of the matrix index section.
	// The optional names payload sits between the header and the index.
	IndexOffset uint32 // byte offset 16-19
	// PayloadOffset is the byte offset to the start of the fused payload
	// section, after the index and after compression has been applied.
	PayloadOffset uint32 // byte offset 20-23
	// Checksum is the xxHash64 of every byte following the header:
	// names payload, index section and fused payload.
	Checksum uint64 // byte offset 24-31

	// Flag is the packed field for format options and payload compression.
	Flag MatrixFlag // byte offset 0-3
}

// NewMatrixHeader creates a MatrixHeader with the given creation time.
// Counts, offsets and the checksum are filled in when the encoder finishes.
func NewMatrixHeader(createdAt time.Time) *MatrixHeader {
	return &MatrixHeader{
		CreatedAt:   createdAt.UnixMicro(),
		Flag:        NewMatrixFlag(),
		IndexOffset: IndexOffsetOffset,
	}
}

// Parse parses the header from a byte slice of exactly HeaderSize bytes.
// Returns ErrInvalidHeaderSize for wrong sizes, or flag validation errors.
func (h *MatrixHeader) Parse(data []byte) error {
	if len(data) != HeaderSize {
		return errs.ErrInvalidHeaderSize
	}

	// The Options field is always little-endian so the endianness bit can
	// be read before the byte order is known.
	h.Flag.Options = uint16(data[0]) | uint16(data[1])<<8
	h.Flag.CompressionType = data[2]
	h.Flag.Reserved = data[3]

	engine := h.Flag.GetEndianEngine()

	createdAtBits := engine.Uint64(data[4:12])
	h.CreatedAt = *(*int64)(unsafe.Pointer(&createdAtBits))

	h.MatrixCount = engine.Uint32(data[12:16])
	h.IndexOffset = engine.Uint32(data[16:20])
	h.PayloadOffset = engine.Uint32(data[20:24])
	h.Checksum = engine.Uint64(data[24:32])

	return h.Flag.Validate()
}

// Bytes serializes the header into a fresh HeaderSize byte slice.
func (h *MatrixHeader) Bytes() []byte {
	b := make([]byte, HeaderSize)

	engine := h.Flag.GetEndianEngine()

	b[0] = byte(h.Flag.Options)
	b[1] = byte(h.Flag.Options >> 8)
	b[2] = h.Flag.CompressionType
	b[3] = h.Flag.Reserved
	// Timestamps are stored bit-for-bit, negative values included.
	engine.PutUint64(b[4:12], *(*uint64)(unsafe.Pointer(&h.CreatedAt)))
	engine.PutUint32(b[12:16], h.MatrixCount)
	engine.PutUint32(b[16:20], h.IndexOffset)
	engine.PutUint32(b[20:24], h.PayloadOffset)
	engine.PutUint64(b[24:32], h.Checksum)

	return b
}

// CreatedAtTime returns the creation time as a time.Time.
func (h *MatrixHeader) CreatedAtTime() time.Time {
	return time.UnixMicro(h.CreatedAt)
}

// ParseMatrixHeader parses a MatrixHeader from the first HeaderSize bytes
// of data.
func ParseMatrixHeader(data []byte) (MatrixHeader, error) {
	if len(data) < HeaderSize {
		return MatrixHeader{}, errs.ErrInvalidHeaderSize
	}

	h := MatrixHeader{}
	if err := h.Parse(data[:HeaderSize]); err != nil {
		return MatrixHeader{}, err
	}

	return h, nil
}
