// Package compress provides compression codecs for fused matrix payloads.
//
// Compression is applied per blob section after quantization. Quantized
// code bytes are already dense, so the win depends on the data: embedding
// tables with repeated or clustered rows compress well, while
// near-uniform codes barely shrink. Row trailers (scale, bias pairs at a
// fixed stride) give general-purpose compressors an easy pattern either
// way.
//
// # Interfaces
//
// The package defines three core interfaces:
//
//	type Compressor interface {
//	    Compress(data []byte) ([]byte, error)
//	}
//
//	type Decompressor interface {
//	    Decompress(data []byte) ([]byte, error)
//	}
//
//	type Codec interface {
//	    Compressor
//	    Decompressor
//	}
//
// # Supported algorithms
//
//   - None (format.CompressionNone): pass-through. For payloads that are
//     read constantly or do not compress.
//   - Zstd (format.CompressionZstd): best ratio, moderate speed. Cold
//     storage and network transfer of large embedding tables. Built on
//     valyala/gozstd when cgo is available, klauspost/compress/zstd
//     otherwise; both speak the standard frame format.
//   - S2 (format.CompressionS2): balanced ratio and speed for ingest
//     paths that quantize and persist in one pass.
//   - LZ4 (format.CompressionLZ4): fastest decompression, for blobs on
//     the serving path that are decoded far more often than written.
//
// # Selecting a codec
//
// Rough guidance for fused payloads:
//
//	Workload                      | Codec | Why
//	------------------------------|-------|--------------------------------
//	Archival of embedding tables  | Zstd  | ratio dominates
//	Write-heavy ingest            | S2    | compression speed
//	Read-heavy serving            | LZ4   | decompression speed
//	Random dense matrices         | None  | codes are near-incompressible
//
// Sub-byte payloads (2 and 4 bit) pack more structure per byte and
// usually compress worse than 8-bit payloads of the same matrix; measure
// before paying the CPU cost.
//
// # Integration
//
// The blob package compresses the fused payload section through these
// codecs and records the algorithm in the header flag, so decoders pick
// the matching decompressor without configuration:
//
//	encoder, _ := blob.NewMatrixEncoder(time.Now(),
//	    blob.WithPayloadCompression(format.CompressionZstd),
//	)
//
// All codecs are safe for concurrent use; pooled internal state is
// returned after each call.
package compress
