// Package format defines the shared wire-level enumerations used by fused
// row codecs and matrix blobs: the bit rate of packed codes and the
// compression applied to blob payloads.
package format

type (
	BitRate         uint8
	CompressionType uint8
)

const (
	BitRate2 BitRate = 2 // BitRate2 packs four 2-bit codes per byte.
	BitRate4 BitRate = 4 // BitRate4 packs two 4-bit codes per byte.
	BitRate8 BitRate = 8 // BitRate8 stores one 8-bit code per byte.

	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

// IsValid reports whether b is one of the supported sub-byte rates.
func (b BitRate) IsValid() bool {
	return b == BitRate2 || b == BitRate4 || b == BitRate8
}

// ElemsPerByte returns how many packed codes fit in one payload byte.
// It returns 0 for invalid rates.
func (b BitRate) ElemsPerByte() int {
	if !b.IsValid() {
		return 0
	}

	return 8 / int(b)
}

// MaxCode returns the largest code value representable at this rate,
// i.e. 2^b - 1. It returns 0 for invalid rates.
func (b BitRate) MaxCode() uint8 {
	if !b.IsValid() {
		return 0
	}

	return uint8(1<<b - 1)
}

func (b BitRate) String() string {
	switch b {
	case BitRate2:
		return "2bit"
	case BitRate4:
		return "4bit"
	case BitRate8:
		return "8bit"
	default:
		return "Unknown"
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}
