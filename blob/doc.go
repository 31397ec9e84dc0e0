// Package blob provides high-level APIs for packing quantized matrices
// into self-describing binary blobs and reading them back.
//
// A blob holds any number of fused matrices, each quantized independently
// at its own bit rate, behind a fixed 32-byte header and a fixed-size
// index. The fused row layout inside the payload is exactly the codec
// layout from the quant package, so reading a matrix back is a bounds
// check and a slice, not a deserialization pass.
//
// # Core Types
//
// **MatrixEncoder**: Builds a blob incrementally
//   - AddMatrix / AddMatrixBitRate: quantize under a name (xxHash64 ID)
//   - AddMatrixID / AddMatrixIDBitRate: quantize under a caller ID
//   - Finish: assemble header, optional names payload, index, payload
//
// **MatrixBlob**: A parsed, validated blob
//   - MatrixByName / MatrixByID / MatrixAt: zero-copy views
//   - All: iterator over (name, view) pairs in index order
//   - Materialize: dequantize everything in parallel
//
// **MatrixView**: One matrix inside a parsed blob
//   - Rows / Cols / BitRate / RowWidth / Bytes: layout access
//   - RowScaleBias: per-row dequantization parameters
//   - Dequantize: decode back to row-major float32
//
// # Encoding Workflow
//
//	encoder, err := blob.NewMatrixEncoder(time.Now(),
//	    blob.WithPayloadCompression(format.CompressionZstd),
//	)
//
//	err = encoder.AddMatrix("embedding.weight", weights, 50000, 128)
//	err = encoder.AddMatrixBitRate("attention.bias", bias, 512, 64, format.BitRate4)
//
//	data, err := encoder.Finish()
//
// # Decoding Workflow
//
//	parsed, err := blob.ParseMatrixBlob(data)
//
//	view, err := parsed.MatrixByName("embedding.weight")
//	floats, err := view.Dequantize()
//
//	// Or walk everything in index order.
//	for name, view := range parsed.All() {
//	    fmt.Printf("%s: %dx%d @ %s\n", name, view.Rows(), view.Cols(), view.BitRate())
//	}
//
// # Identifier Modes
//
// A blob identifies matrices either by name or by caller-assigned ID, never
// both. Named matrices hash to 64-bit IDs with xxHash64; if two names
// collide, the encoder embeds the names payload so decoders can still tell
// the matrices apart, and lookups by name stay exact. Caller IDs skip the
// name hashing, and duplicate IDs are rejected.
//
// # Wire Layout
//
//	┌────────────┬───────────────────┬───────────────┬─────────────────┐
//	│ header 32B │ names (optional)  │ index 24B × N │ fused payload   │
//	└────────────┴───────────────────┴───────────────┴─────────────────┘
//
// The payload section is optionally compressed (Zstd, S2 or LZ4); the
// header, names and index never are, so a reader can list the contents of
// a blob without touching the payload. The header checksum (xxHash64)
// covers every byte after the header.
//
// # Configuration Options
//
//   - blob.WithLittleEndian() / blob.WithBigEndian() - Byte order
//   - blob.WithPayloadCompression(format.CompressionNone|Zstd|S2|LZ4) - Payload compression
//   - blob.WithMatrixNames(true) - Embed names even without a collision
//
// # Thread Safety
//
// **MatrixEncoder**: Not thread-safe. Use one encoder per goroutine.
//
// **MatrixBlob / MatrixView**: Immutable and safe for concurrent reads
// once created.
//
// # Error Handling
//
// Common errors:
//   - ErrInvalidHeaderFlags: wrong magic number or malformed flags
//   - ErrChecksumMismatch: corruption after the header
//   - ErrMixedIdentifierMode: AddMatrix and AddMatrixID on the same blob
//   - ErrMatrixAlreadyAdded / ErrHashCollision: duplicate name or ID
//   - ErrMatrixNotFound: lookup for a matrix the blob does not hold
//
// All errors wrap sentinels from the errs package for errors.Is checks.
//
// # Examples
//
// See the examples directory for complete working examples:
//   - examples/blob_demo: multi-matrix container with compression options
//   - examples/quantize_demo: codec-level round trips at each bit rate
package blob
