// Package errs defines the sentinel errors shared across rowquant packages.
//
// All errors are flat sentinels so callers can classify failures with
// errors.Is. Call sites wrap them with context via
// fmt.Errorf("%w: detail", errs.ErrXxx).
package errs

import "errors"

// Codec precondition errors. These are reported synchronously, before any
// parallel work is dispatched, and always leave the output untouched.
var (
	// ErrInvalidBitRate indicates a bit rate outside the supported set {2, 4, 8}.
	ErrInvalidBitRate = errors.New("invalid bit rate")

	// ErrInvalidShape indicates a negative row or column count.
	ErrInvalidShape = errors.New("invalid matrix shape")

	// ErrNotContiguous indicates the flat data slice does not match
	// nrows*ncols, i.e. the input is not a contiguous row-major matrix.
	ErrNotContiguous = errors.New("input is not contiguous row-major")

	// ErrColumnsNotAligned indicates a column count that violates the
	// divisibility requirement of the sub-byte packed layout.
	ErrColumnsNotAligned = errors.New("column count not aligned for bit rate")

	// ErrInvalidRowWidth indicates a fused row width that cannot hold the
	// trailer or does not match the layout formula.
	ErrInvalidRowWidth = errors.New("invalid fused row width")

	// ErrInvalidLaneCount indicates a reducer lane count that is not a
	// power of two in [1, 32].
	ErrInvalidLaneCount = errors.New("invalid lane count")

	// ErrEmptyRow indicates a min/max reduction over zero columns.
	ErrEmptyRow = errors.New("empty row")
)

// Configuration errors returned while applying construction options.
var (
	// ErrInvalidEndianness indicates a nil or unsupported endian engine.
	ErrInvalidEndianness = errors.New("invalid endianness")

	// ErrInvalidWorkerPool indicates a nil worker pool.
	ErrInvalidWorkerPool = errors.New("invalid worker pool")
)

// Blob encoding errors.
var (
	// ErrInvalidMatrixName indicates an empty matrix name.
	ErrInvalidMatrixName = errors.New("invalid matrix name")

	// ErrMatrixAlreadyAdded indicates the same matrix name was added twice.
	ErrMatrixAlreadyAdded = errors.New("matrix already added")

	// ErrMixedIdentifierMode indicates a blob mixing named matrices with
	// caller-assigned IDs. A blob uses one identifier scheme throughout.
	ErrMixedIdentifierMode = errors.New("mixed matrix identifier modes")

	// ErrHashCollision indicates two distinct identifiers hashed to the
	// same 64-bit matrix ID.
	ErrHashCollision = errors.New("matrix ID hash collision")

	// ErrMatrixCountExceeded indicates the per-blob matrix limit was hit.
	ErrMatrixCountExceeded = errors.New("matrix count exceeded")

	// ErrPayloadTooLarge indicates a fused payload section that outgrew the
	// uint32 offset space of the blob format.
	ErrPayloadTooLarge = errors.New("payload section too large")

	// ErrNoMatricesAdded indicates Finish was called on an empty encoder.
	ErrNoMatricesAdded = errors.New("no matrices added")

	// ErrEncoderFinished indicates use of an encoder after Finish.
	ErrEncoderFinished = errors.New("encoder already finished")
)

// Blob decoding errors.
var (
	// ErrInvalidHeaderSize indicates a blob shorter than the fixed header.
	ErrInvalidHeaderSize = errors.New("invalid header size")

	// ErrInvalidHeaderFlags indicates a bad magic number or flag bits.
	ErrInvalidHeaderFlags = errors.New("invalid header flags")

	// ErrInvalidIndexEntrySize indicates a truncated index entry.
	ErrInvalidIndexEntrySize = errors.New("invalid index entry size")

	// ErrInvalidIndexOffset indicates index or payload offsets that do not
	// fit inside the blob or overlap each other.
	ErrInvalidIndexOffset = errors.New("invalid index offset")

	// ErrInvalidPayload indicates a payload section that does not match the
	// sizes recorded in the index entries.
	ErrInvalidPayload = errors.New("invalid payload section")

	// ErrInvalidNamesPayload indicates a truncated or malformed matrix
	// names section.
	ErrInvalidNamesPayload = errors.New("invalid matrix names payload")

	// ErrChecksumMismatch indicates the stored payload checksum does not
	// match the blob contents.
	ErrChecksumMismatch = errors.New("payload checksum mismatch")

	// ErrMatrixNotFound indicates a lookup for an unknown matrix.
	ErrMatrixNotFound = errors.New("matrix not found")
)
