package blob

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/s4ayub/rowquant/errs"
	"github.com/s4ayub/rowquant/format"
	"github.com/s4ayub/rowquant/internal/hash"
	"github.com/s4ayub/rowquant/quant"
	"github.com/s4ayub/rowquant/section"
)

// testMatrix fills a rows×cols matrix with a deterministic mix of positive
// and negative values so every row quantizes with a non-degenerate range.
func testMatrix(rows, cols int, seed float32) []float32 {
	data := make([]float32, rows*cols)
	for i := range data {
		data[i] = seed + float32(i%97)*0.25 - float32(i%13)
	}

	return data
}

func newTestEncoder(t *testing.T, opts ...MatrixEncoderOption) *MatrixEncoder {
	t.Helper()

	encoder, err := NewMatrixEncoder(time.Now(), opts...)
	require.NoError(t, err)
	require.NotNil(t, encoder)

	return encoder
}

func TestNewMatrixEncoder(t *testing.T) {
	createdAt := time.Now()

	t.Run("defaults", func(t *testing.T) {
		encoder, err := NewMatrixEncoder(createdAt)
		require.NoError(t, err)
		require.NotNil(t, encoder)
		require.Equal(t, 0, encoder.MatrixCount())
		require.Equal(t, initialIndexCapacity, cap(encoder.entries))
		require.True(t, encoder.header.Flag.IsLittleEndian())
		require.Equal(t, format.CompressionNone, encoder.header.Flag.Compression())
		require.Equal(t, createdAt.UnixMicro(), encoder.header.CreatedAt)
	})

	t.Run("with options", func(t *testing.T) {
		encoder, err := NewMatrixEncoder(createdAt,
			WithBigEndian(),
			WithPayloadCompression(format.CompressionZstd),
			WithMatrixNames(true))
		require.NoError(t, err)
		require.True(t, encoder.header.Flag.IsBigEndian())
		require.Equal(t, format.CompressionZstd, encoder.header.Flag.Compression())
		require.True(t, encoder.embedNames)
	})

	t.Run("invalid compression", func(t *testing.T) {
		_, err := NewMatrixEncoder(createdAt, WithPayloadCompression(format.CompressionType(0x7F)))
		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid payload compression")
	})
}

func TestMatrixEncoder_AddMatrix(t *testing.T) {
	t.Run("single matrix", func(t *testing.T) {
		encoder := newTestEncoder(t)

		err := encoder.AddMatrix("weights", testMatrix(4, 10, 1.0), 4, 10)
		require.NoError(t, err)
		require.Equal(t, 1, encoder.MatrixCount())
		require.Equal(t, quant.Fused8EncodedLen(4, 10), encoder.payload.Len())

		entry := encoder.entries[0]
		require.Equal(t, hash.ID("weights"), entry.MatrixID)
		require.Equal(t, 4, entry.Rows)
		require.Equal(t, 10, entry.Cols)
		require.Equal(t, 0, entry.PayloadOffset)
		require.Equal(t, format.BitRate8, entry.BitRate)
		require.False(t, entry.HasHalfTrailer())
	})

	t.Run("payload offsets accumulate", func(t *testing.T) {
		encoder := newTestEncoder(t)

		require.NoError(t, encoder.AddMatrix("a", testMatrix(2, 8, 0), 2, 8))
		require.NoError(t, encoder.AddMatrix("b", testMatrix(3, 5, 2.5), 3, 5))

		require.Equal(t, 0, encoder.entries[0].PayloadOffset)
		require.Equal(t, quant.Fused8EncodedLen(2, 8), encoder.entries[1].PayloadOffset)
		require.Equal(t, quant.Fused8EncodedLen(2, 8)+quant.Fused8EncodedLen(3, 5), encoder.payload.Len())
	})

	t.Run("empty name", func(t *testing.T) {
		encoder := newTestEncoder(t)

		err := encoder.AddMatrix("", testMatrix(1, 4, 0), 1, 4)
		require.ErrorIs(t, err, errs.ErrInvalidMatrixName)
		require.Equal(t, 0, encoder.MatrixCount())
	})

	t.Run("shape mismatch", func(t *testing.T) {
		encoder := newTestEncoder(t)

		err := encoder.AddMatrix("bad", make([]float32, 7), 2, 4)
		require.ErrorIs(t, err, errs.ErrInvalidShape)

		err = encoder.AddMatrix("bad", nil, -1, 4)
		require.ErrorIs(t, err, errs.ErrInvalidShape)

		require.Equal(t, 0, encoder.MatrixCount())
		require.Equal(t, 0, encoder.payload.Len())
	})

	t.Run("duplicate name rolls back", func(t *testing.T) {
		encoder := newTestEncoder(t)

		require.NoError(t, encoder.AddMatrix("dup", testMatrix(2, 4, 1), 2, 4))
		lenBefore := encoder.payload.Len()

		err := encoder.AddMatrix("dup", testMatrix(3, 4, 2), 3, 4)
		require.ErrorIs(t, err, errs.ErrMatrixAlreadyAdded)
		require.Equal(t, 1, encoder.MatrixCount())
		require.Equal(t, lenBefore, encoder.payload.Len())

		// The encoder stays usable after the failed add.
		require.NoError(t, encoder.AddMatrix("other", testMatrix(1, 4, 3), 1, 4))
		data, err := encoder.Finish()
		require.NoError(t, err)

		parsed, err := ParseMatrixBlob(data)
		require.NoError(t, err)
		require.Equal(t, 2, parsed.MatrixCount())
	})

	t.Run("empty matrix", func(t *testing.T) {
		encoder := newTestEncoder(t)

		require.NoError(t, encoder.AddMatrix("empty", nil, 0, 0))
		require.Equal(t, 1, encoder.MatrixCount())
		require.Equal(t, 0, encoder.payload.Len())
	})

	t.Run("count limit", func(t *testing.T) {
		encoder := newTestEncoder(t)
		encoder.entries = make([]section.MatrixIndexEntry, MaxMatrixCount)

		err := encoder.AddMatrix("one too many", testMatrix(1, 4, 0), 1, 4)
		require.ErrorIs(t, err, errs.ErrMatrixCountExceeded)
	})
}

func TestMatrixEncoder_AddMatrixBitRate(t *testing.T) {
	t.Run("sub-byte rates", func(t *testing.T) {
		for _, rate := range []format.BitRate{format.BitRate2, format.BitRate4} {
			encoder := newTestEncoder(t)

			err := encoder.AddMatrixBitRate("packed", testMatrix(3, 16, 0.5), 3, 16, rate)
			require.NoError(t, err)

			entry := encoder.entries[0]
			require.True(t, entry.HasHalfTrailer())
			require.Equal(t, rate, entry.BitRate)
			require.Equal(t, quant.FusedNEncodedLen(3, 16, rate), encoder.payload.Len())
		}
	})

	t.Run("rate 8 equals AddMatrix", func(t *testing.T) {
		createdAt := time.Now()
		data := testMatrix(5, 12, -2)

		byName, err := NewMatrixEncoder(createdAt)
		require.NoError(t, err)
		require.NoError(t, byName.AddMatrix("m", data, 5, 12))
		direct, err := byName.Finish()
		require.NoError(t, err)

		byRate, err := NewMatrixEncoder(createdAt)
		require.NoError(t, err)
		require.NoError(t, byRate.AddMatrixBitRate("m", data, 5, 12, format.BitRate8))
		viaRate, err := byRate.Finish()
		require.NoError(t, err)

		require.Equal(t, direct, viaRate)
	})

	t.Run("unaligned columns roll back", func(t *testing.T) {
		encoder := newTestEncoder(t)

		err := encoder.AddMatrixBitRate("odd", testMatrix(2, 6, 0), 2, 6, format.BitRate4)
		require.ErrorIs(t, err, errs.ErrColumnsNotAligned)
		require.Equal(t, 0, encoder.MatrixCount())
		require.Equal(t, 0, encoder.payload.Len())

		// 6 columns work at 8 bits where no packing applies.
		require.NoError(t, encoder.AddMatrixBitRate("odd", testMatrix(2, 6, 0), 2, 6, format.BitRate8))
	})

	t.Run("invalid rate", func(t *testing.T) {
		encoder := newTestEncoder(t)

		err := encoder.AddMatrixBitRate("bad", testMatrix(1, 8, 0), 1, 8, format.BitRate(3))
		require.ErrorIs(t, err, errs.ErrInvalidBitRate)
		require.Equal(t, 0, encoder.MatrixCount())
	})
}

func TestMatrixEncoder_IdentifierModes(t *testing.T) {
	t.Run("ID after name", func(t *testing.T) {
		encoder := newTestEncoder(t)

		require.NoError(t, encoder.AddMatrix("named", testMatrix(1, 4, 0), 1, 4))
		err := encoder.AddMatrixID(42, testMatrix(1, 4, 0), 1, 4)
		require.ErrorIs(t, err, errs.ErrMixedIdentifierMode)
	})

	t.Run("name after ID", func(t *testing.T) {
		encoder := newTestEncoder(t)

		require.NoError(t, encoder.AddMatrixID(42, testMatrix(1, 4, 0), 1, 4))
		err := encoder.AddMatrix("named", testMatrix(1, 4, 0), 1, 4)
		require.ErrorIs(t, err, errs.ErrMixedIdentifierMode)
	})

	t.Run("duplicate ID", func(t *testing.T) {
		encoder := newTestEncoder(t)

		require.NoError(t, encoder.AddMatrixID(7, testMatrix(1, 4, 0), 1, 4))
		err := encoder.AddMatrixID(7, testMatrix(2, 4, 0), 2, 4)
		require.ErrorIs(t, err, errs.ErrHashCollision)
		require.Equal(t, 1, encoder.MatrixCount())
	})

	t.Run("ID mode blob has no names", func(t *testing.T) {
		encoder := newTestEncoder(t, WithMatrixNames(true))

		require.NoError(t, encoder.AddMatrixIDBitRate(1, testMatrix(2, 8, 0), 2, 8, format.BitRate4))
		require.NoError(t, encoder.AddMatrixID(2, testMatrix(2, 8, 1), 2, 8))

		data, err := encoder.Finish()
		require.NoError(t, err)

		parsed, err := ParseMatrixBlob(data)
		require.NoError(t, err)
		require.False(t, parsed.HasMatrixNames())
		require.Nil(t, parsed.Names())
		require.True(t, parsed.HasMatrixID(1))
		require.True(t, parsed.HasMatrixID(2))

		_, err = parsed.MatrixByName("anything")
		require.ErrorIs(t, err, errs.ErrMatrixNotFound)
	})
}

func TestMatrixEncoder_Finish(t *testing.T) {
	t.Run("no matrices", func(t *testing.T) {
		encoder := newTestEncoder(t)

		_, err := encoder.Finish()
		require.ErrorIs(t, err, errs.ErrNoMatricesAdded)
	})

	t.Run("double finish", func(t *testing.T) {
		encoder := newTestEncoder(t)
		require.NoError(t, encoder.AddMatrix("m", testMatrix(1, 4, 0), 1, 4))

		_, err := encoder.Finish()
		require.NoError(t, err)

		_, err = encoder.Finish()
		require.ErrorIs(t, err, errs.ErrEncoderFinished)
	})

	t.Run("add after finish", func(t *testing.T) {
		encoder := newTestEncoder(t)
		require.NoError(t, encoder.AddMatrix("m", testMatrix(1, 4, 0), 1, 4))

		_, err := encoder.Finish()
		require.NoError(t, err)

		err = encoder.AddMatrix("late", testMatrix(1, 4, 0), 1, 4)
		require.ErrorIs(t, err, errs.ErrEncoderFinished)
	})

	t.Run("header fields", func(t *testing.T) {
		createdAt := time.Now()
		encoder, err := NewMatrixEncoder(createdAt)
		require.NoError(t, err)

		require.NoError(t, encoder.AddMatrix("a", testMatrix(4, 6, 0), 4, 6))
		require.NoError(t, encoder.AddMatrix("b", testMatrix(2, 6, 1), 2, 6))

		data, err := encoder.Finish()
		require.NoError(t, err)

		header, err := section.ParseMatrixHeader(data)
		require.NoError(t, err)
		require.True(t, header.Flag.IsValidMagicNumber())
		require.False(t, header.Flag.HasMatrixNames())
		require.Equal(t, uint32(2), header.MatrixCount)
		require.Equal(t, createdAt.UnixMicro(), header.CreatedAt)
		require.Equal(t, uint32(section.HeaderSize), header.IndexOffset)
		require.Equal(t, uint32(section.HeaderSize+2*section.MatrixIndexEntrySize), header.PayloadOffset)
		require.Equal(t, hash.Checksum(data[section.HeaderSize:]), header.Checksum)

		// No compression: the blob is header + index + raw fused payload.
		payloadLen := quant.Fused8EncodedLen(4, 6) + quant.Fused8EncodedLen(2, 6)
		require.Len(t, data, section.HeaderSize+2*section.MatrixIndexEntrySize+payloadLen)
	})

	t.Run("forced names payload", func(t *testing.T) {
		encoder := newTestEncoder(t, WithMatrixNames(true))

		require.NoError(t, encoder.AddMatrix("first", testMatrix(1, 4, 0), 1, 4))
		require.NoError(t, encoder.AddMatrix("second", testMatrix(1, 4, 1), 1, 4))

		data, err := encoder.Finish()
		require.NoError(t, err)

		header, err := section.ParseMatrixHeader(data)
		require.NoError(t, err)
		require.True(t, header.Flag.HasMatrixNames())

		namesLen := 2 + (2 + len("first")) + (2 + len("second"))
		require.Equal(t, uint32(section.HeaderSize+namesLen), header.IndexOffset)

		parsed, err := ParseMatrixBlob(data)
		require.NoError(t, err)
		require.True(t, parsed.HasMatrixNames())
		require.Equal(t, []string{"first", "second"}, parsed.Names())
	})
}
