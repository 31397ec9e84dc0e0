package compress

import (
	"fmt"
	"testing"

	"github.com/s4ayub/rowquant/format"
)

// generateBenchmarkData creates payload bytes for benchmarks. The classes
// mirror how quantized matrices actually look: constant matrices quantize
// to zero codes, clustered embeddings to repeating patterns, and dense
// random weights to incompressible bytes.
func generateBenchmarkData(size int, class string) []byte {
	data := make([]byte, size)

	switch class {
	case "constant_codes":
		// All zeros, what a constant matrix quantizes to.
	case "clustered_codes":
		// Repeating gradient, similar rows quantize to similar codes.
		for i := range data {
			data[i] = byte(i % 97)
		}
	case "semi_random":
		for i := range data {
			if i%100 < 50 {
				data[i] = byte(i % 256)
			} else {
				data[i] = byte((i*7 + i*i) % 256)
			}
		}
	default:
		// Incompressible, like codes of a dense random matrix.
		seed := uint32(2463534242)
		for i := range data {
			seed ^= seed << 13
			seed ^= seed >> 17
			seed ^= seed << 5
			data[i] = byte(seed)
		}
	}

	return data
}

func BenchmarkAllCodecs_Compress(b *testing.B) {
	sizes := []int{
		16384,   // 16 KB, a 64x256 8-bit table
		262144,  // 256 KB
		1048576, // 1 MB
	}

	classes := []string{
		"constant_codes",
		"clustered_codes",
		"semi_random",
		"random_codes",
	}

	codecs := getAllCodecs()

	for codecName, codec := range codecs {
		b.Run(codecName, func(b *testing.B) {
			for _, size := range sizes {
				for _, class := range classes {
					b.Run(fmt.Sprintf("%s_%s", formatSize(size), class), func(b *testing.B) {
						data := generateBenchmarkData(size, class)

						b.ReportAllocs()
						b.SetBytes(int64(len(data)))

						for b.Loop() {
							_, err := codec.Compress(data)
							if err != nil {
								b.Fatal(err)
							}
						}
					})
				}
			}
		})
	}
}

func BenchmarkAllCodecs_Decompress(b *testing.B) {
	sizes := []int{
		16384,   // 16 KB
		262144,  // 256 KB
		1048576, // 1 MB
	}

	classes := []string{
		"constant_codes",
		"clustered_codes",
		"semi_random",
		"random_codes",
	}

	codecs := getAllCodecs()

	for codecName, codec := range codecs {
		b.Run(codecName, func(b *testing.B) {
			for _, size := range sizes {
				for _, class := range classes {
					b.Run(fmt.Sprintf("%s_%s", formatSize(size), class), func(b *testing.B) {
						data := generateBenchmarkData(size, class)

						compressed, err := codec.Compress(data)
						if err != nil {
							b.Fatal(err)
						}

						b.ReportAllocs()
						b.SetBytes(int64(len(data)))

						for b.Loop() {
							_, err := codec.Decompress(compressed)
							if err != nil {
								b.Fatal(err)
							}
						}
					})
				}
			}
		})
	}
}

func BenchmarkAllCodecs_RoundTrip(b *testing.B) {
	sizes := []int{
		16384,   // 16 KB
		1048576, // 1 MB
	}

	codecs := getAllCodecs()

	for codecName, codec := range codecs {
		b.Run(codecName, func(b *testing.B) {
			for _, size := range sizes {
				b.Run(formatSize(size), func(b *testing.B) {
					data := generateBenchmarkData(size, "clustered_codes")

					b.ReportAllocs()
					b.SetBytes(int64(len(data)))

					for b.Loop() {
						compressed, err := codec.Compress(data)
						if err != nil {
							b.Fatal(err)
						}
						_, err = codec.Decompress(compressed)
						if err != nil {
							b.Fatal(err)
						}
					}
				})
			}
		})
	}
}

// BenchmarkAllCodecs_CompressionRatio reports the achieved ratio per data
// class alongside the compression throughput.
func BenchmarkAllCodecs_CompressionRatio(b *testing.B) {
	size := 1048576 // 1 MB

	classes := []string{
		"constant_codes",
		"clustered_codes",
		"semi_random",
		"random_codes",
	}

	codecs := getAllCodecs()

	for codecName, codec := range codecs {
		b.Run(codecName, func(b *testing.B) {
			for _, class := range classes {
				b.Run(class, func(b *testing.B) {
					data := generateBenchmarkData(size, class)

					compressed, err := codec.Compress(data)
					if err != nil {
						b.Fatal(err)
					}

					ratio := float64(len(compressed)) / float64(len(data)) * 100
					b.ReportMetric(ratio, "ratio%")
					b.ReportMetric(float64(len(compressed)), "compressed_bytes")

					b.ReportAllocs()
					b.SetBytes(int64(len(data)))

					for b.Loop() {
						_, err := codec.Compress(data)
						if err != nil {
							b.Fatal(err)
						}
					}
				})
			}
		})
	}
}

// BenchmarkAllCodecs_SmallPayloads covers payloads the size of a handful
// of fused rows, where per-call overhead dominates.
func BenchmarkAllCodecs_SmallPayloads(b *testing.B) {
	sizes := []int{
		72,   // one 64-column 8-bit row
		264,  // one 256-column 8-bit row
		520,  // one 512-column 8-bit row
		1056, // four 256-column 8-bit rows
	}

	codecs := getAllCodecs()

	for codecName, codec := range codecs {
		b.Run(codecName, func(b *testing.B) {
			for _, size := range sizes {
				b.Run(fmt.Sprintf("%d_bytes", size), func(b *testing.B) {
					data := generateBenchmarkData(size, "clustered_codes")

					b.ReportAllocs()
					b.SetBytes(int64(len(data)))

					for b.Loop() {
						compressed, err := codec.Compress(data)
						if err != nil {
							b.Fatal(err)
						}
						_, err = codec.Decompress(compressed)
						if err != nil {
							b.Fatal(err)
						}
					}
				})
			}
		})
	}
}

func BenchmarkAllCodecs_Parallel(b *testing.B) {
	size := 65536 // 64 KB
	data := generateBenchmarkData(size, "clustered_codes")

	codecs := getAllCodecs()

	for codecName, codec := range codecs {
		b.Run(codecName+"_Compress", func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(data)))

			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					_, err := codec.Compress(data)
					if err != nil {
						b.Fatal(err)
					}
				}
			})
		})

		b.Run(codecName+"_Decompress", func(b *testing.B) {
			compressed, err := codec.Compress(data)
			if err != nil {
				b.Fatal(err)
			}

			b.ReportAllocs()
			b.SetBytes(int64(len(data)))

			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					_, err := codec.Decompress(compressed)
					if err != nil {
						b.Fatal(err)
					}
				}
			})
		})
	}
}

// ==============================================================================
// Pooling Benchmarks
// ==============================================================================

func BenchmarkZstdCompress(b *testing.B) {
	sizes := []int{
		1 * 1024,
		16 * 1024,
		64 * 1024,
		512 * 1024,
	}

	for _, size := range sizes {
		data := generateBenchmarkData(size, "clustered_codes")
		compressor := NewZstdCompressor()

		b.Run(formatSize(size), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(size))

			for b.Loop() {
				_, _ = compressor.Compress(data)
			}
		})
	}
}

func BenchmarkZstdDecompress(b *testing.B) {
	sizes := []int{
		1 * 1024,
		16 * 1024,
		64 * 1024,
		512 * 1024,
	}

	for _, size := range sizes {
		data := generateBenchmarkData(size, "clustered_codes")
		compressor := NewZstdCompressor()
		compressed, _ := compressor.Compress(data)

		b.Run(formatSize(size), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(compressed)))

			for b.Loop() {
				_, _ = compressor.Decompress(compressed)
			}
		})
	}
}

// BenchmarkZstdDecompress_Sequential decodes many payloads back to back,
// the pool reuse pattern of a blob server materializing matrices.
func BenchmarkZstdDecompress_Sequential(b *testing.B) {
	const payloadSize = 16 * 1024
	data := generateBenchmarkData(payloadSize, "clustered_codes")
	compressor := NewZstdCompressor()
	compressed, _ := compressor.Compress(data)

	b.Run("128payloads", func(b *testing.B) {
		b.ReportAllocs()
		b.SetBytes(int64(len(compressed)))

		for b.Loop() {
			for range 128 {
				_, _ = compressor.Decompress(compressed)
			}
		}
	})
}

func BenchmarkLZ4Compress(b *testing.B) {
	sizes := []int{
		1 * 1024,
		16 * 1024,
		64 * 1024,
		512 * 1024,
	}

	for _, size := range sizes {
		data := generateBenchmarkData(size, "clustered_codes")
		compressor := NewLZ4Compressor()

		b.Run(formatSize(size), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(size))

			for b.Loop() {
				_, _ = compressor.Compress(data)
			}
		})
	}
}

func BenchmarkLZ4Decompress(b *testing.B) {
	sizes := []int{
		1 * 1024,
		16 * 1024,
		64 * 1024,
		512 * 1024,
	}

	for _, size := range sizes {
		data := generateBenchmarkData(size, "clustered_codes")
		compressor := NewLZ4Compressor()
		compressed, _ := compressor.Compress(data)

		b.Run(formatSize(size), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(compressed)))

			for b.Loop() {
				_, _ = compressor.Decompress(compressed)
			}
		})
	}
}

// ==============================================================================
// Comparison Benchmarks (All Codecs)
// ==============================================================================

func BenchmarkCodecComparison_Compress(b *testing.B) {
	const size = 16 * 1024
	data := generateBenchmarkData(size, "clustered_codes")

	codecs := []struct {
		name string
		typ  format.CompressionType
	}{
		{"NoOp", format.CompressionNone},
		{"LZ4", format.CompressionLZ4},
		{"S2", format.CompressionS2},
		{"Zstd", format.CompressionZstd},
	}

	for _, codec := range codecs {
		c, _ := CreateCodec(codec.typ, "bench")

		b.Run(codec.name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(size))

			for b.Loop() {
				_, _ = c.Compress(data)
			}
		})
	}
}

func BenchmarkCodecComparison_Decompress(b *testing.B) {
	const size = 16 * 1024
	data := generateBenchmarkData(size, "clustered_codes")

	codecs := []struct {
		name string
		typ  format.CompressionType
	}{
		{"NoOp", format.CompressionNone},
		{"LZ4", format.CompressionLZ4},
		{"S2", format.CompressionS2},
		{"Zstd", format.CompressionZstd},
	}

	for _, codec := range codecs {
		c, _ := CreateCodec(codec.typ, "bench")
		compressed, _ := c.Compress(data)

		b.Run(codec.name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(compressed)))

			for b.Loop() {
				_, _ = c.Decompress(compressed)
			}
		})
	}
}

// ==============================================================================
// Pool Effectiveness Benchmarks
// ==============================================================================

// BenchmarkZstdDecompress_Parallel tests pool behavior under concurrent load.
func BenchmarkZstdDecompress_Parallel(b *testing.B) {
	const size = 16 * 1024
	data := generateBenchmarkData(size, "clustered_codes")
	compressor := NewZstdCompressor()
	compressed, _ := compressor.Compress(data)

	b.ReportAllocs()
	b.SetBytes(int64(len(compressed)))

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _ = compressor.Decompress(compressed)
		}
	})
}

// BenchmarkLZ4Compress_Parallel tests LZ4 pool behavior under concurrent load.
func BenchmarkLZ4Compress_Parallel(b *testing.B) {
	const size = 16 * 1024
	data := generateBenchmarkData(size, "clustered_codes")
	compressor := NewLZ4Compressor()

	b.ReportAllocs()
	b.SetBytes(int64(size))

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _ = compressor.Compress(data)
		}
	})
}

func formatSize(size int) string {
	if size < 1024 {
		return fmt.Sprintf("%dB", size)
	}

	if size < 1024*1024 {
		return fmt.Sprintf("%dKB", size/1024)
	}

	return fmt.Sprintf("%dMB", size/(1024*1024))
}
