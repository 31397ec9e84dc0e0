package compress

// ZstdCompressor provides Zstandard compression for fused matrix payloads.
//
// This compressor targets scenarios where compression ratio matters more
// than compression speed, making it ideal for:
//   - Cold storage and archival of quantized embedding tables
//   - Network transmission where bandwidth is limited
//   - Blobs written once and decoded infrequently
//
// Performance characteristics:
//   - Compression: ~5-20 ns/byte (depending on backend)
//   - Decompression: ~2-5 ns/byte
//   - Compression ratio: data-dependent; clustered rows compress far
//     better than dense random codes
//
// Two backends produce and consume the same zstd frame format: a cgo
// wrapper around libzstd when cgo is enabled, and a pure Go implementation
// otherwise. Blobs written by one backend decode with the other.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd compressor with default settings.
//
// Example:
//
//	compressor := NewZstdCompressor()
//	compressed, err := compressor.Compress(payload)
//	if err != nil {
//		return err
//	}
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
