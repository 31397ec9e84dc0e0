package section

import (
	"testing"

	"github.com/s4ayub/rowquant/endian"
	"github.com/s4ayub/rowquant/errs"
	"github.com/s4ayub/rowquant/format"
	"github.com/stretchr/testify/require"
)

func TestNewMatrixFlag(t *testing.T) {
	flag := NewMatrixFlag()

	require.True(t, flag.IsValidMagicNumber())
	require.Equal(t, uint16(MagicMatrixV1Opt), flag.GetMagicNumber())
	require.True(t, flag.IsLittleEndian())
	require.False(t, flag.IsBigEndian())
	require.False(t, flag.HasMatrixNames())
	require.Equal(t, format.CompressionNone, flag.Compression())
	require.NoError(t, flag.Validate())
}

func TestMatrixFlag_Endianness(t *testing.T) {
	flag := NewMatrixFlag()

	flag.WithBigEndian()
	require.True(t, flag.IsBigEndian())
	require.False(t, flag.IsLittleEndian())
	require.Equal(t, endian.GetBigEndianEngine(), flag.GetEndianEngine())
	require.True(t, flag.IsValidMagicNumber(), "endianness must not disturb the magic bits")

	flag.WithLittleEndian()
	require.True(t, flag.IsLittleEndian())
	require.Equal(t, endian.GetLittleEndianEngine(), flag.GetEndianEngine())
}

func TestMatrixFlag_MatrixNames(t *testing.T) {
	flag := NewMatrixFlag()

	flag.SetHasMatrixNames(true)
	require.True(t, flag.HasMatrixNames())
	require.NoError(t, flag.Validate())

	flag.SetHasMatrixNames(false)
	require.False(t, flag.HasMatrixNames())
}

func TestMatrixFlag_Compression(t *testing.T) {
	flag := NewMatrixFlag()

	for _, c := range []format.CompressionType{
		format.CompressionNone,
		format.CompressionZstd,
		format.CompressionS2,
		format.CompressionLZ4,
	} {
		flag.SetCompression(c)
		require.Equal(t, c, flag.Compression())
		require.True(t, flag.IsValidCompression())
		require.NoError(t, flag.Validate())
	}

	flag.SetCompression(format.CompressionType(0x9))
	require.False(t, flag.IsValidCompression())
	require.ErrorIs(t, flag.Validate(), errs.ErrInvalidHeaderFlags)
}

func TestMatrixFlag_Validate(t *testing.T) {
	t.Run("bad magic", func(t *testing.T) {
		flag := NewMatrixFlag()
		flag.Options = 0x0000
		require.ErrorIs(t, flag.Validate(), errs.ErrInvalidHeaderFlags)
	})

	t.Run("reserved option bits set", func(t *testing.T) {
		flag := NewMatrixFlag()
		flag.Options |= 0x0004
		require.ErrorIs(t, flag.Validate(), errs.ErrInvalidHeaderFlags)
	})

	t.Run("reserved byte set", func(t *testing.T) {
		flag := NewMatrixFlag()
		flag.Reserved = 1
		require.ErrorIs(t, flag.Validate(), errs.ErrInvalidHeaderFlags)
	})
}
