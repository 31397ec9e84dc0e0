// Package fp16 implements IEEE 754 binary16 conversion.
//
// Sub-byte fused rows carry their scale and bias as half precision values
// to keep the trailer at 4 bytes. This package provides the float32
// round trip for those fields: FromFloat32 rounds to nearest even, and
// Value.Float32 expands exactly (every binary16 value is representable
// as a float32).
//
// Layout: 1 sign bit, 5 exponent bits (bias 15), 10 mantissa bits.
//
//	S | EEEEE | MMMMMMMMMM
package fp16

import "math"

// Value is an IEEE 754 half-precision number stored as raw bits.
type Value uint16

const (
	Zero    Value = 0x0000 // positive zero
	NegZero Value = 0x8000 // negative zero
	One     Value = 0x3C00 // 1.0
	Max     Value = 0x7BFF // 65504, largest finite value
	Inf     Value = 0x7C00 // positive infinity
	NegInf  Value = 0xFC00 // negative infinity
	NaN     Value = 0x7E00 // canonical quiet NaN
)

const (
	roundBit   = 0x1000 // bit 12, first truncated bit of the float32 mantissa
	stickyMask = 0x0FFF // bits 0-11, the rest of the truncated tail
	lsbBit     = 0x2000 // bit 13, least significant kept mantissa bit
)

// FromFloat32 converts f to half precision with round-to-nearest-even.
// Values above 65504 in magnitude become infinities, values below the
// smallest denormal become signed zeros, and NaN payloads are narrowed
// into a quiet NaN.
func FromFloat32(f float32) Value {
	bits := math.Float32bits(f)
	sign := uint16(bits >> 16 & 0x8000)
	exp := int(bits>>23&0xFF) - 127 + 15
	mant := bits & 0x7FFFFF

	switch {
	case exp <= 0:
		if exp < -10 {
			// Below half the smallest denormal, round to signed zero.
			return Value(sign)
		}
		// Denormal result. Shift the mantissa (with its implicit
		// leading 1) into denormal position, then round.
		mant = (mant | 0x800000) >> uint(1-exp)
		if mant&roundBit != 0 && mant&(stickyMask|lsbBit) != 0 {
			mant += lsbBit
		}
		// A denormal that rounds up past the top of the mantissa
		// carries into the exponent bits, producing the smallest
		// normal.
		return Value(sign | uint16(mant>>13))

	case exp == 0xFF-127+15:
		if mant != 0 {
			return Value(sign) | NaN | Value(mant>>13)
		}

		return Value(sign) | Inf

	case exp >= 31:
		return Value(sign) | Inf
	}

	if mant&roundBit != 0 && mant&(stickyMask|lsbBit) != 0 {
		mant += lsbBit
		if mant&0x800000 != 0 {
			// Mantissa rounded over, carry into the exponent.
			mant = 0
			exp++
			if exp >= 31 {
				return Value(sign) | Inf
			}
		}
	}

	return Value(sign | uint16(exp)<<10 | uint16(mant>>13))
}

// Float32 expands v to float32. The conversion is exact.
func (v Value) Float32() float32 {
	bits := uint32(v)
	sign := bits >> 15
	exp := bits >> 10 & 0x1F
	mant := bits & 0x3FF

	switch {
	case exp == 0:
		if mant == 0 {
			return math.Float32frombits(sign << 31)
		}
		// Denormal. Normalize by walking the leading 1 up to the
		// implicit position, adjusting the exponent as it moves.
		exp = 1
		for mant&0x400 == 0 {
			mant <<= 1
			exp--
		}
		mant &= 0x3FF
		exp = uint32(int32(exp) + 127 - 15)

	case exp == 31:
		if mant == 0 {
			return math.Float32frombits(sign<<31 | 0x7F800000)
		}

		return math.Float32frombits(sign<<31 | 0x7FC00000 | mant<<13)

	default:
		exp = exp + 127 - 15
	}

	return math.Float32frombits(sign<<31 | exp<<23 | mant<<13)
}

// FromBits reinterprets raw trailer bytes as a half precision value.
func FromBits(bits uint16) Value {
	return Value(bits)
}

// Bits returns the raw bit pattern for storage.
func (v Value) Bits() uint16 {
	return uint16(v)
}

// IsNaN reports whether v is any NaN encoding.
func (v Value) IsNaN() bool {
	return v&0x7C00 == 0x7C00 && v&0x3FF != 0
}

// IsInf reports whether v is positive or negative infinity.
func (v Value) IsInf() bool {
	return v&0x7FFF == 0x7C00
}

// IsZero reports whether v is positive or negative zero.
func (v Value) IsZero() bool {
	return v&0x7FFF == 0
}
