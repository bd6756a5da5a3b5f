package kap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/kap/errs"
)

func TestNewBitmap(t *testing.T) {
	bm := NewBitmap(4, 3)
	require.Equal(t, uint16(4), bm.Width())
	require.Equal(t, uint16(3), bm.Height())
	require.Len(t, bm.PixelIndices(), 12)
}

func TestNewBitmapFromRaw(t *testing.T) {
	t.Run("Matching dimensions", func(t *testing.T) {
		bm, err := NewBitmapFromRaw(2, 2, []byte{1, 2, 3, 4})
		require.NoError(t, err)
		require.Equal(t, []byte{1, 2, 3, 4}, bm.PixelIndices())
	})

	t.Run("Mismatching dimensions", func(t *testing.T) {
		_, err := NewBitmapFromRaw(2, 2, []byte{1, 2, 3})
		require.ErrorIs(t, err, errs.ErrMismatchDimensions)
	})
}

func TestBitmap_SetPixelIndex(t *testing.T) {
	bm := NewBitmap(2, 2)
	bm.SetPixelIndex(1, 1, 9)
	require.Equal(t, []byte{0, 0, 0, 9}, bm.PixelIndices())

	// Out of bounds writes are tolerated and ignored.
	bm.SetPixelIndex(2, 0, 7)
	bm.SetPixelIndex(0, 2, 7)
	require.Equal(t, []byte{0, 0, 0, 9}, bm.PixelIndices())
}

func TestBitmap_Row(t *testing.T) {
	bm, err := NewBitmapFromRaw(3, 2, []byte{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)

	require.Equal(t, []byte{1, 2, 3}, bm.Row(0))
	require.Equal(t, []byte{4, 5, 6}, bm.Row(1))
	require.Nil(t, bm.Row(2))

	// Rows alias the backing store.
	bm.Row(0)[0] = 9
	require.Equal(t, byte(9), bm.PixelIndices()[0])
}
