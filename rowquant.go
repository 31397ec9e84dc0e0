// Package rowquant compresses float32 matrices into compact row-wise
// quantized byte layouts and reconstructs them losslessly up to
// quantization error.
//
// Every row is quantized independently with its own observed minimum and
// maximum: values map to small integer codes through the affine relation
// value = code·scale + bias, and each fused row carries its own (scale,
// bias) trailer after the codes. No information crosses row boundaries,
// so rows encode, decode and parallelize independently.
//
// # Fused Row Layouts
//
// The 8-bit codec stores one code byte per element, pads the code region
// to a 4-byte boundary, and appends the parameters as two float32 values:
//
//	┌──────────────────────────┬─────────┬──────────────┬─────────────┐
//	│ codes (ncols × 1 byte)   │ padding │ scale float32│ bias float32│
//	└──────────────────────────┴─────────┴──────────────┴─────────────┘
//
// The sub-byte codecs (4-bit and 2-bit) pack 2 or 4 codes per byte,
// least significant bits first, and append the parameters as two
// half-precision values:
//
//	┌──────────────────────────────┬────────────┬───────────┐
//	│ packed codes (ncols/epb B)   │ scale fp16 │ bias fp16 │
//	└──────────────────────────────┴────────────┴───────────┘
//
// Both layouts are self-describing per row and stable, suitable for
// persistence or transmission as-is.
//
// # Quick Start
//
// Encoding and decoding a single matrix:
//
//	m := rowquant.Matrix{Data: values, Rows: 128, Cols: 64}
//	fused, err := rowquant.EncodeFused8(m)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	restored, err := rowquant.DecodeFused8(fused, 128, 64)
//	// restored.Data[i] ≈ values[i], within scale/2 per element
//
// The sub-byte variants trade accuracy for space:
//
//	fused4, err := rowquant.EncodeFusedNBit(format.BitRate4, m)
//	restored4, err := rowquant.DecodeFusedNBit(format.BitRate4, fused4, 128, 64)
//
// # Container Blobs
//
// Multiple matrices can be packed into one self-describing blob with a
// header, an index and optional payload compression:
//
//	encoder, _ := rowquant.NewMatrixEncoder(time.Now(),
//	    blob.WithPayloadCompression(format.CompressionZstd))
//	encoder.AddMatrix("embedding", embData, 512, 768)
//	encoder.AddMatrixBitRate("attention", attnData, 64, 64, format.BitRate4)
//	data, _ := encoder.Finish()
//
//	parsed, _ := rowquant.ParseMatrixBlob(data)
//	view, _ := parsed.MatrixByName("embedding")
//	values, _ := view.Dequantize()
//
// # Package Structure
//
// This package provides convenient top-level wrappers around the quant
// and blob packages, simplifying the most common use cases. For
// fine-grained control (reusable codecs, custom endianness, worker
// pools), use those packages directly.
package rowquant

import (
	"fmt"
	"time"

	"github.com/s4ayub/rowquant/blob"
	"github.com/s4ayub/rowquant/errs"
	"github.com/s4ayub/rowquant/format"
	"github.com/s4ayub/rowquant/internal/hash"
	"github.com/s4ayub/rowquant/quant"
)

// Matrix describes a row-major float32 matrix. Stride is the distance in
// elements between the starts of consecutive rows; zero means densely
// packed (Stride == Cols). A Stride larger than Cols describes a view
// into a wider buffer, which the codecs reject.
type Matrix struct {
	// Data holds the matrix values in row-major order.
	Data []float32
	// Rows and Cols are the matrix dimensions.
	Rows int
	Cols int
	// Stride is the row pitch in elements, 0 for dense.
	Stride int
}

// Contiguous validates that the matrix is densely packed and correctly
// shaped, and returns its backing slice.
//
// Returns ErrNotContiguous when the stride leaves gaps between rows, or
// ErrInvalidShape when the data length does not match Rows×Cols.
func (m Matrix) Contiguous() ([]float32, error) {
	stride := m.Stride
	if stride == 0 {
		stride = m.Cols
	}
	if stride != m.Cols {
		return nil, fmt.Errorf("%w: row stride %d with %d columns", errs.ErrNotContiguous, stride, m.Cols)
	}
	if m.Rows < 0 || m.Cols < 0 || len(m.Data) != m.Rows*m.Cols {
		return nil, fmt.Errorf("%w: %d values for a %dx%d matrix", errs.ErrInvalidShape, len(m.Data), m.Rows, m.Cols)
	}

	return m.Data, nil
}

// EncodeFused8 quantizes a matrix with the 8-bit codec: one code byte per
// element, row padded to a 4-byte boundary, float32 (scale, bias) trailer.
//
// The encoded width per row is Fused8EncodedLen(1, m.Cols).
func EncodeFused8(m Matrix) ([]byte, error) {
	src, err := m.Contiguous()
	if err != nil {
		return nil, err
	}

	encoder, err := quant.NewFused8Encoder()
	if err != nil {
		return nil, err
	}

	return encoder.Encode(src, m.Rows, m.Cols)
}

// DecodeFused8 reconstructs a matrix encoded by EncodeFused8. The caller
// supplies the true dimensions; the byte layout alone cannot distinguish
// real columns from alignment padding.
func DecodeFused8(fused []byte, rows, cols int) (Matrix, error) {
	decoder, err := quant.NewFused8Decoder()
	if err != nil {
		return Matrix{}, err
	}

	data, err := decoder.Decode(fused, rows, cols)
	if err != nil {
		return Matrix{}, err
	}

	return Matrix{Data: data, Rows: rows, Cols: cols}, nil
}

// EncodeFusedNBit quantizes a matrix with the sub-byte codec at the given
// bit rate: packed codes plus a half-precision (scale, bias) trailer.
// m.Cols must be divisible by twice the codes-per-byte count for the rate.
func EncodeFusedNBit(rate format.BitRate, m Matrix) ([]byte, error) {
	src, err := m.Contiguous()
	if err != nil {
		return nil, err
	}

	encoder, err := quant.NewFusedNEncoder(rate)
	if err != nil {
		return nil, err
	}

	return encoder.Encode(src, m.Rows, m.Cols)
}

// DecodeFusedNBit reconstructs a matrix encoded by EncodeFusedNBit at the
// same bit rate.
func DecodeFusedNBit(rate format.BitRate, fused []byte, rows, cols int) (Matrix, error) {
	decoder, err := quant.NewFusedNDecoder(rate)
	if err != nil {
		return Matrix{}, err
	}

	data, err := decoder.Decode(fused, rows, cols)
	if err != nil {
		return Matrix{}, err
	}

	return Matrix{Data: data, Rows: rows, Cols: cols}, nil
}

// Fused8EncodedLen returns the encoded byte length of a rows×cols matrix
// under the 8-bit codec.
func Fused8EncodedLen(rows, cols int) int {
	return quant.Fused8EncodedLen(rows, cols)
}

// FusedNEncodedLen returns the encoded byte length of a rows×cols matrix
// under the sub-byte codec at the given bit rate.
func FusedNEncodedLen(rows, cols int, rate format.BitRate) int {
	return quant.FusedNEncodedLen(rows, cols, rate)
}

// NewMatrixEncoder creates an encoder that packs multiple quantized
// matrices into one self-describing blob.
//
// Parameters:
//   - createdAt: Creation timestamp stored in the blob header
//   - opts: Optional configuration (see blob.MatrixEncoderOption)
//
// Available options:
//   - blob.WithLittleEndian() / blob.WithBigEndian()
//   - blob.WithPayloadCompression(format.CompressionNone|Zstd|S2|LZ4)
//   - blob.WithMatrixNames(true|false)
//
// Example:
//
//	encoder, err := rowquant.NewMatrixEncoder(time.Now(),
//	    blob.WithPayloadCompression(format.CompressionS2))
func NewMatrixEncoder(createdAt time.Time, opts ...blob.MatrixEncoderOption) (*blob.MatrixEncoder, error) {
	return blob.NewMatrixEncoder(createdAt, opts...)
}

// ParseMatrixBlob parses and validates a blob produced by a MatrixEncoder,
// returning zero-copy access to the matrices inside.
//
// Example:
//
//	parsed, err := rowquant.ParseMatrixBlob(data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for name, view := range parsed.All() {
//	    values, _ := view.Dequantize()
//	    fmt.Printf("%s: %dx%d at %s\n", name, view.Rows(), view.Cols(), view.BitRate())
//	}
func ParseMatrixBlob(data []byte) (*blob.MatrixBlob, error) {
	return blob.ParseMatrixBlob(data)
}

// MatrixID converts a matrix name to its 64-bit xxHash64 identifier.
//
// The blob index stores matrices under this hash. The mapping is
// deterministic, so IDs can be precomputed for frequently accessed
// matrices and used with MatrixBlob.MatrixByID. When two names collide,
// encoders embed the name payload and decoders verify it, so name-based
// lookups stay exact.
//
// Example:
//
//	id := rowquant.MatrixID("embedding")
//	view, err := parsed.MatrixByID(id)
func MatrixID(name string) uint64 {
	return hash.ID(name)
}
