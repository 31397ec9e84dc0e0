package section

import (
	"testing"
	"time"

	"github.com/s4ayub/rowquant/errs"
	"github.com/s4ayub/rowquant/format"
	"github.com/stretchr/testify/require"
)

func TestNewMatrixHeader(t *testing.T) {
	createdAt := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	header := NewMatrixHeader(createdAt)

	require.NotNil(t, header)
	require.Equal(t, createdAt.UnixMicro(), header.CreatedAt)
	require.Equal(t, uint32(IndexOffsetOffset), header.IndexOffset)
	require.Equal(t, uint32(0), header.MatrixCount)
	require.Equal(t, uint32(0), header.PayloadOffset)
	require.Equal(t, uint64(0), header.Checksum)
	require.True(t, header.Flag.IsValidMagicNumber())
	require.True(t, header.Flag.IsLittleEndian())
}

func TestMatrixHeader_RoundTrip(t *testing.T) {
	createdAt := time.Date(2025, 3, 1, 12, 30, 45, 123456000, time.UTC)
	original := NewMatrixHeader(createdAt)
	original.MatrixCount = 7
	original.IndexOffset = 96
	original.PayloadOffset = 264
	original.Checksum = 0xDEADBEEFCAFEF00D
	original.Flag.SetHasMatrixNames(true)
	original.Flag.SetCompression(format.CompressionZstd)

	data := original.Bytes()
	require.Len(t, data, HeaderSize)

	parsed := &MatrixHeader{}
	require.NoError(t, parsed.Parse(data))
	require.Equal(t, original.CreatedAt, parsed.CreatedAt)
	require.Equal(t, original.MatrixCount, parsed.MatrixCount)
	require.Equal(t, original.IndexOffset, parsed.IndexOffset)
	require.Equal(t, original.PayloadOffset, parsed.PayloadOffset)
	require.Equal(t, original.Checksum, parsed.Checksum)
	require.True(t, parsed.Flag.HasMatrixNames())
	require.Equal(t, format.CompressionZstd, parsed.Flag.Compression())
}

func TestMatrixHeader_RoundTrip_BigEndian(t *testing.T) {
	original := NewMatrixHeader(time.Unix(0, 0))
	original.Flag.WithBigEndian()
	original.MatrixCount = 3
	original.PayloadOffset = 1 << 20

	parsed := &MatrixHeader{}
	require.NoError(t, parsed.Parse(original.Bytes()))
	require.True(t, parsed.Flag.IsBigEndian())
	require.Equal(t, uint32(3), parsed.MatrixCount)
	require.Equal(t, uint32(1<<20), parsed.PayloadOffset)
}

func TestMatrixHeader_ByteOffsets(t *testing.T) {
	header := NewMatrixHeader(time.UnixMicro(0x0102030405060708))
	header.MatrixCount = 0x11223344
	header.IndexOffset = 0x55667788
	header.PayloadOffset = 0x99AABBCC
	header.Checksum = 0xF0E1D2C3B4A59687
	header.Flag.SetCompression(format.CompressionLZ4)

	data := header.Bytes()

	// Flag: options little-endian, then compression and reserved bytes.
	require.Equal(t, byte(0x10), data[0])
	require.Equal(t, byte(0xFA), data[1])
	require.Equal(t, byte(format.CompressionLZ4), data[2])
	require.Equal(t, byte(0), data[3])

	// Remaining fields little-endian at their documented offsets.
	require.Equal(t, []byte{0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01}, data[4:12])
	require.Equal(t, []byte{0x44, 0x33, 0x22, 0x11}, data[12:16])
	require.Equal(t, []byte{0x88, 0x77, 0x66, 0x55}, data[16:20])
	require.Equal(t, []byte{0xCC, 0xBB, 0xAA, 0x99}, data[20:24])
	require.Equal(t, []byte{0x87, 0x96, 0xA5, 0xB4, 0xC3, 0xD2, 0xE1, 0xF0}, data[24:32])
}

func TestMatrixHeader_Parse_Errors(t *testing.T) {
	t.Run("wrong size", func(t *testing.T) {
		header := &MatrixHeader{}
		require.ErrorIs(t, header.Parse([]byte{1, 2, 3}), errs.ErrInvalidHeaderSize)
		require.ErrorIs(t, header.Parse(make([]byte, HeaderSize+1)), errs.ErrInvalidHeaderSize)
	})

	t.Run("bad magic", func(t *testing.T) {
		data := make([]byte, HeaderSize)
		header := &MatrixHeader{}
		require.ErrorIs(t, header.Parse(data), errs.ErrInvalidHeaderFlags)
	})

	t.Run("bad compression", func(t *testing.T) {
		good := NewMatrixHeader(time.Now())
		data := good.Bytes()
		data[2] = 0x7F

		header := &MatrixHeader{}
		require.ErrorIs(t, header.Parse(data), errs.ErrInvalidHeaderFlags)
	})
}

func TestMatrixHeader_CreatedAtTime(t *testing.T) {
	expected := time.Date(2025, 6, 15, 12, 30, 45, 123456000, time.UTC)
	header := NewMatrixHeader(expected)

	require.Equal(t, expected.UnixMicro(), header.CreatedAtTime().UnixMicro())
}

func TestParseMatrixHeader(t *testing.T) {
	original := NewMatrixHeader(time.Now())
	original.MatrixCount = 2

	// Extra trailing bytes are fine, the helper reads the header prefix.
	data := append(original.Bytes(), 0xFF, 0xFF)
	parsed, err := ParseMatrixHeader(data)
	require.NoError(t, err)
	require.Equal(t, uint32(2), parsed.MatrixCount)

	_, err = ParseMatrixHeader(make([]byte, HeaderSize-1))
	require.ErrorIs(t, err, errs.ErrInvalidHeaderSize)
}
