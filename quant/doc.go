// Package quant implements row-wise quantization codecs for float32
// matrices.
//
// Each matrix row is quantized independently against its own observed
// minimum and maximum, producing one small integer code per element plus
// a per-row (scale, bias) trailer that reconstructs approximate floats as
//
//	value = code·scale + bias
//
// No information crosses row boundaries, so rows are both the unit of
// parallelism and the unit of self-description: a fused row can be
// dequantized with nothing but its own bytes.
//
// # Codecs
//
// Two codec families share the layout discipline defined in the section
// package:
//
//   - Fused8Encoder / Fused8Decoder: one byte per element, code region
//     zero-padded to a 4-byte boundary, float32 (scale, bias) trailer.
//     scale = (max−min)/255 and bias = min.
//   - FusedNEncoder / FusedNDecoder: 2, 4 or 8 bits per element packed
//     LSB-first, fp16 (scale, bias) trailer. bias and scale are rounded
//     through half precision during encode so decode re-derives exactly
//     the arithmetic the encoder used.
//
// Quantization rounds half away from zero in float32 arithmetic. The
// 8-bit epsilon guard (range + 1e-8) relies on float32 evaluation: the
// epsilon vanishes below half an ulp for ordinary ranges, keeping
// inverse scales exact where the reference arithmetic has them exact.
//
// # Encoding paths
//
// The 8-bit encoder picks between two equivalent paths on row count.
// Small matrices run a single pass: each row is scanned once for min/max
// and once to write codes. Large matrices run two phases: phase A
// reduces every row and writes trailers while caching raw ranges, then
// phase B re-reads bias from the trailer and range from the cache to
// write codes. The two paths are byte-identical on the same input;
// the split exists so each pass can be scheduled along its favorable
// axis. Sub-byte encoding is always one pass per row, since packed
// bytes make column-split writes awkward.
//
// Row min/max reduction is associative and commutative, so every
// reduction shape, from the serial scan to the widest butterfly group,
// produces bit-identical results, NaN poisoning included.
//
// # Degenerate rows
//
// Constant rows never fail: the 8-bit path stores scale = 0 with all
// codes 0 and reconstructs through the bias; the sub-byte path forces
// scale = 1 whenever the rounded scale collapses to zero or the inverse
// scale is non-finite. Both decode a constant row back to the stored
// bias exactly.
package quant
