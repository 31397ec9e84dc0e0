package section

import (
	"github.com/s4ayub/rowquant/endian"
	"github.com/s4ayub/rowquant/errs"
	"github.com/s4ayub/rowquant/format"
)

// MatrixFlag is the packed flag field at the start of the matrix blob header.
type MatrixFlag struct {
	// Options is a packed field for format options.
	// Bit 0 is the endianness flag, 0 means little-endian, 1 means big-endian.
	// Bit 1 is the matrix names payload flag, 1 means the blob embeds names.
	// Bits 2-3 are reserved and must be 0.
	// Bits 4-15 are the magic number identifying the blob format:
	//   - 0xFA10 (0b1111_1010_0001_0000): fused matrix blob format v1
	Options uint16

	// CompressionType is the compression applied to the fused payload section.
	CompressionType uint8

	// Reserved pads the flag to 4 bytes and must be 0.
	Reserved uint8
}

var validPayloadCompressions = map[uint8]struct{}{
	uint8(format.CompressionNone): {},
	uint8(format.CompressionZstd): {},
	uint8(format.CompressionS2):   {},
	uint8(format.CompressionLZ4):  {},
}

// NewMatrixFlag creates a MatrixFlag with default settings: little-endian,
// no names payload, no payload compression.
func NewMatrixFlag() MatrixFlag {
	flag := MatrixFlag{
		Options:         MagicMatrixV1Opt,
		CompressionType: uint8(format.CompressionNone),
	}
	flag.WithLittleEndian()

	return flag
}

// HasMatrixNames returns whether the blob embeds the matrix name payload.
// Names are embedded on request or when two names hash to the same ID.
func (f MatrixFlag) HasMatrixNames() bool {
	return (f.Options & MatrixNamesMask) != 0
}

// SetHasMatrixNames enables or disables the matrix names payload.
func (f *MatrixFlag) SetHasMatrixNames(enabled bool) {
	if enabled {
		f.Options |= MatrixNamesMask
	} else {
		f.Options &^= MatrixNamesMask
	}
}

// IsLittleEndian returns whether blob fields are little-endian.
func (f MatrixFlag) IsLittleEndian() bool {
	return (f.Options & EndiannessMask) == 0
}

// IsBigEndian returns whether blob fields are big-endian.
func (f MatrixFlag) IsBigEndian() bool {
	return (f.Options & EndiannessMask) != 0
}

// WithLittleEndian sets little-endian byte order.
func (f *MatrixFlag) WithLittleEndian() {
	f.Options &^= uint16(EndiannessMask)
}

// WithBigEndian sets big-endian byte order.
func (f *MatrixFlag) WithBigEndian() {
	f.Options |= EndiannessMask
}

// GetMagicNumber returns the magic number from the Options field.
func (f MatrixFlag) GetMagicNumber() uint16 {
	return f.Options & MagicNumberMask
}

// Compression returns the payload compression type.
func (f MatrixFlag) Compression() format.CompressionType {
	return format.CompressionType(f.CompressionType)
}

// SetCompression sets the payload compression type.
func (f *MatrixFlag) SetCompression(compression format.CompressionType) {
	f.CompressionType = uint8(compression)
}

// IsValidMagicNumber checks if the magic number identifies this format.
func (f MatrixFlag) IsValidMagicNumber() bool {
	return f.GetMagicNumber() == MagicMatrixV1Opt
}

// IsValidCompression checks if the compression type is supported.
func (f MatrixFlag) IsValidCompression() bool {
	_, ok := validPayloadCompressions[f.CompressionType]
	return ok
}

// Validate checks that the flag field holds a well-formed configuration.
func (f MatrixFlag) Validate() error {
	if !f.IsValidMagicNumber() {
		return errs.ErrInvalidHeaderFlags
	}

	if f.Options&ReservedBitsMask != 0 || f.Reserved != 0 {
		return errs.ErrInvalidHeaderFlags
	}

	if !f.IsValidCompression() {
		return errs.ErrInvalidHeaderFlags
	}

	return nil
}

// GetEndianEngine returns the endian engine matching the endianness bit.
func (f MatrixFlag) GetEndianEngine() endian.EndianEngine {
	if f.IsLittleEndian() {
		return endian.GetLittleEndianEngine()
	}

	return endian.GetBigEndianEngine()
}
