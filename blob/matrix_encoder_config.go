package blob

import (
	"fmt"
	"time"

	"github.com/s4ayub/rowquant/compress"
	"github.com/s4ayub/rowquant/endian"
	"github.com/s4ayub/rowquant/format"
	"github.com/s4ayub/rowquant/internal/options"
	"github.com/s4ayub/rowquant/section"
)

// MaxMatrixCount is the maximum number of matrices allowed in a single
// blob. The names payload stores its count as a uint16, and the same
// ceiling applies whether or not names are embedded.
const MaxMatrixCount = section.MaxMatrixCount

// Index entry capacity growth strategy constants.
const (
	// initialIndexCapacity is the starting capacity of the index entry
	// slice. Small enough to avoid waste for small blobs, large enough to
	// avoid early reallocations.
	initialIndexCapacity = 16

	// indexGrowthThreshold is the entry count where capacity growth
	// switches from 2x doubling to conservative 1.25x steps.
	indexGrowthThreshold = 256
)

// MatrixEncoderConfig holds the encoder configuration shared by the option
// setters and the encoder itself.
type MatrixEncoderConfig struct {
	header       *section.MatrixHeader
	entries      []section.MatrixIndexEntry
	payloadCodec compress.Codec
	engine       endian.EndianEngine
	embedNames   bool
}

// NewMatrixEncoderConfig creates a configuration with the given creation
// time and the header defaults: little-endian, no payload compression, no
// names payload.
func NewMatrixEncoderConfig(createdAt time.Time) *MatrixEncoderConfig {
	header := section.NewMatrixHeader(createdAt)

	return &MatrixEncoderConfig{
		header:  header,
		entries: make([]section.MatrixIndexEntry, 0, initialIndexCapacity),
		engine:  header.Flag.GetEndianEngine(),
	}
}

// setEndianness sets the byte order used for header, index and row trailer
// fields.
func (c *MatrixEncoderConfig) setEndianness(order endianness) {
	switch order {
	case bigEndianOpt:
		c.header.Flag.WithBigEndian()
	default:
		c.header.Flag.WithLittleEndian()
	}

	// Update the engine after changing endianness
	c.engine = c.header.Flag.GetEndianEngine()
}

// setPayloadCompression sets the payload compression type.
func (c *MatrixEncoderConfig) setPayloadCompression(comp format.CompressionType) error {
	switch comp {
	case format.CompressionNone, format.CompressionZstd, format.CompressionS2, format.CompressionLZ4:
		c.header.Flag.SetCompression(comp)
		return nil
	default:
		return fmt.Errorf("invalid payload compression: %v", comp)
	}
}

// MatrixCount returns the number of matrices added so far.
func (c *MatrixEncoderConfig) MatrixCount() int {
	return len(c.entries)
}

// addEntry appends a completed index entry.
// Uses amortized growth to minimize allocations: 2x doubling below
// indexGrowthThreshold entries, 1.25x beyond it.
func (c *MatrixEncoderConfig) addEntry(entry section.MatrixIndexEntry) {
	if len(c.entries) == cap(c.entries) {
		oldCap := cap(c.entries)
		var newCap int
		if oldCap < indexGrowthThreshold {
			newCap = oldCap * 2
		} else {
			newCap = oldCap + oldCap/4
		}

		if newCap > MaxMatrixCount {
			newCap = MaxMatrixCount
		}

		grown := make([]section.MatrixIndexEntry, len(c.entries), newCap)
		copy(grown, c.entries)
		c.entries = grown
	}

	c.entries = append(c.entries, entry)
}

// setCodec creates the payload codec from the configured compression type.
// Called once after all options have been applied.
func (c *MatrixEncoderConfig) setCodec() error {
	codec, err := compress.CreateCodec(c.header.Flag.Compression(), "payload")
	if err != nil {
		return err
	}

	c.payloadCodec = codec

	return nil
}

// endianness represents the byte order configuration option.
type endianness uint8

const (
	littleEndianOpt endianness = iota
	bigEndianOpt
)

// MatrixEncoderOption represents a functional option for configuring the
// MatrixEncoderConfig.
type MatrixEncoderOption = options.Option[*MatrixEncoderConfig]

// WithLittleEndian sets the encoder to use little-endian byte order for
// header, index and row trailer fields. It is the default option.
func WithLittleEndian() MatrixEncoderOption {
	return options.NoError(func(c *MatrixEncoderConfig) {
		c.setEndianness(littleEndianOpt)
	})
}

// WithBigEndian sets the encoder to use big-endian byte order.
// It rarely needs to be used unless interoperability with big-endian
// consumers is required.
func WithBigEndian() MatrixEncoderOption {
	return options.NoError(func(c *MatrixEncoderConfig) {
		c.setEndianness(bigEndianOpt)
	})
}

// WithPayloadCompression sets the compression applied to the fused payload
// section. The names payload and index section are never compressed.
func WithPayloadCompression(comp format.CompressionType) MatrixEncoderOption {
	return options.New(func(c *MatrixEncoderConfig) error {
		return c.setPayloadCompression(comp)
	})
}

// WithMatrixNames embeds the names payload even when no hash collision
// occurred, so decoders can list exact names instead of IDs. It only
// applies to name-identified matrices; blobs built from caller IDs carry
// no names.
func WithMatrixNames(enabled bool) MatrixEncoderOption {
	return options.NoError(func(c *MatrixEncoderConfig) {
		c.embedNames = enabled
	})
}
