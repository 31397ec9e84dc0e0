package compress

import (
	"fmt"

	"github.com/s4ayub/rowquant/format"
)

// Compressor compresses fused matrix payloads before they are written into
// a blob.
//
// The input is the payload section laid out by the encoder: fused rows of
// one or more matrices, code bytes followed by per-row trailers. Payloads
// range from a few hundred bytes for small matrices to many megabytes for
// embedding tables.
type Compressor interface {
	// Compress compresses the input data and returns the compressed result.
	//
	// Memory management:
	//   - Returned slice is newly allocated and owned by the caller
	//   - Input slice is not modified
	//   - Internal buffers may be reused for efficiency
	Compress(data []byte) ([]byte, error)
}

// Decompressor restores fused matrix payloads read from a blob.
//
// This interface mirrors Compressor but focuses on the decompression
// operation. Separate interfaces allow asymmetric implementations where
// compression and decompression have different performance characteristics
// or resource requirements.
//
// Example:
//
//	decompressor := NewZstdCompressor()
//	payload, err := decompressor.Decompress(compressedPayload)
//	if err != nil {
//	    return fmt.Errorf("decompression failed: %w", err)
//	}
//
// Thread Safety: Decompressor implementations must be safe for concurrent
// use or document their thread safety requirements clearly.
type Decompressor interface {
	// Decompress decompresses the input data and returns the original result.
	//
	// The input must have been compressed with the same algorithm. The
	// decompressor validates the data format and returns an error if the
	// data is corrupted or uses an incompatible format.
	//
	// Memory management:
	//   - Returned slice is newly allocated and owned by the caller
	//   - Input slice is not modified
	//   - Internal buffers may be reused for efficiency
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both compression and decompression capabilities.
//
// This interface is useful for implementations that can handle both
// operations efficiently with shared internal state.
type Codec interface {
	Compressor
	Decompressor
}

// CompressionStats provides detailed information about compression
// operations on a fused payload.
//
// This is useful for monitoring and for choosing a codec per table: dense
// random matrices barely compress while clustered embedding rows shrink
// substantially, and the tradeoff only shows up in measurements.
type CompressionStats struct {
	// Algorithm identifies the compression algorithm used
	Algorithm format.CompressionType

	// OriginalSize is the size of the payload before compression
	OriginalSize int64

	// CompressedSize is the size of the payload after compression
	CompressedSize int64

	// CompressionTimeNs is the time taken to compress the payload
	CompressionTimeNs int64

	// DecompressionTimeNs is the time taken to decompress the payload
	// (if measured)
	DecompressionTimeNs int64
}

// CompressionRatio returns the compression ratio (compressed size /
// original size).
//
// Values less than 1.0 indicate successful compression.
// Values equal to 1.0 indicate no compression benefit.
// Values greater than 1.0 indicate compression overhead, which is common
// for near-uniform quantized codes.
//
// Returns:
//   - float64: Compression ratio (0.0 if original size is zero)
func (s CompressionStats) CompressionRatio() float64 {
	if s.OriginalSize == 0 {
		return 0.0
	}

	return float64(s.CompressedSize) / float64(s.OriginalSize)
}

// SpaceSavings returns the space savings as a percentage (0-100%).
//
// Higher values indicate better compression. Negative values indicate the
// compressed payload grew.
func (s CompressionStats) SpaceSavings() float64 {
	return (1.0 - s.CompressionRatio()) * 100.0
}

// CreateCodec is a factory function that creates a Codec for the specified
// compression type.
//
// Parameters:
//   - compressionType: Type of compression (None, Zstd, S2, or LZ4)
//   - target: Description of target usage (for error messages)
//
// Returns:
//   - Codec: Codec instance for the specified type
//   - error: Invalid compression type error
func CreateCodec(compressionType format.CompressionType, target string) (Codec, error) {
	switch compressionType {
	case format.CompressionNone:
		return NewNoOpCompressor(), nil
	case format.CompressionZstd:
		return NewZstdCompressor(), nil
	case format.CompressionS2:
		return NewS2Compressor(), nil
	case format.CompressionLZ4:
		return NewLZ4Compressor(), nil
	default:
		return nil, fmt.Errorf("invalid %s compression: %s", target, compressionType)
	}
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone: NewNoOpCompressor(),
	format.CompressionZstd: NewZstdCompressor(),
	format.CompressionS2:   NewS2Compressor(),
	format.CompressionLZ4:  NewLZ4Compressor(),
}

// GetCodec retrieves a built-in Codec for the specified compression type.
//
// Built-in codecs are stateless or internally pooled, so the returned
// instance is shared and safe for concurrent use.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("unsupported compression type: %s", compressionType)
}
