package kap

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/kap/errs"
	"github.com/arloliu/kap/format"
	"github.com/arloliu/kap/header"
)

// testChart builds a small depth-7 chart with a 4-entry palette and a
// deterministic pixel pattern.
func testChart(t *testing.T, width, height uint16) *ImageFile {
	t.Helper()

	h := &header.ImageHeader{IFM: format.DepthSeven}
	h.General.ChartName = "test chart"
	h.General.Width = width
	h.General.Height = height
	h.RGB = []format.RGB{
		{R: 199, G: 231, B: 252},
		{R: 174, G: 234, B: 84},
		{R: 255, G: 254, B: 206},
		{R: 226, G: 65, B: 6},
	}

	pixels := make([]byte, int(width)*int(height))
	for i := range pixels {
		pixels[i] = byte(i%4) + 1
	}

	f, err := New(h, pixels)
	require.NoError(t, err)

	return f
}

func TestNew_MismatchDimensions(t *testing.T) {
	h := &header.ImageHeader{IFM: format.DepthFour}
	h.General.Width = 4
	h.General.Height = 4

	_, err := New(h, make([]byte, 15))
	require.ErrorIs(t, err, errs.ErrMismatchDimensions)
}

func TestEncode_RoundTrip(t *testing.T) {
	chart := testChart(t, 25, 18)

	var buf bytes.Buffer
	require.NoError(t, chart.Encode(&buf))

	got, err := FromReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	require.Equal(t, chart.Width(), got.Width())
	require.Equal(t, chart.Height(), got.Height())
	require.Equal(t, chart.PixelIndices(), got.PixelIndices())

	// The header survives the trip up to its own serialization.
	require.Equal(t, chart.Header().Bytes(), got.Header().Bytes())
}

func TestEncode_Deterministic(t *testing.T) {
	chart := testChart(t, 40, 30)

	var first, second bytes.Buffer
	require.NoError(t, chart.Encode(&first))
	require.NoError(t, chart.Encode(&second))

	require.Equal(t, xxhash.Sum64(first.Bytes()), xxhash.Sum64(second.Bytes()))
}

func TestEncode_IndexLayout(t *testing.T) {
	// 10x10 depth-1 all-zero image.
	h := &header.ImageHeader{IFM: format.DepthOne}
	h.General.Width = 10
	h.General.Height = 10

	chart, err := New(h, make([]byte, 100))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, chart.Encode(&buf))
	data := buf.Bytes()

	// The last 4 bytes locate the first index entry.
	indexStart := binary.BigEndian.Uint32(data[len(data)-4:])
	require.Equal(t, len(data)-4-10*4, int(indexStart))

	// Ten strictly increasing offsets, each pointing into the raster body.
	prev := -1
	for i := range 10 {
		off := int(binary.BigEndian.Uint32(data[int(indexStart)+i*4:]))
		require.Greater(t, off, prev)
		require.Less(t, off, int(indexStart))
		prev = off
	}

	got, err := FromReader(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, make([]byte, 100), got.PixelIndices())
}

func TestFromReader_UnsupportedDepthByte(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("BSB/RA=2,2\r\nIFM/4\r\n")
	buf.Write([]byte{ctrlZ, 0x00, 5})

	_, err := FromReader(&buf)
	require.ErrorIs(t, err, errs.ErrUnsupportedDepth)
}

func TestFromReader_InvalidIndexSize(t *testing.T) {
	chart := testChart(t, 4, 4)

	var buf bytes.Buffer
	require.NoError(t, chart.Encode(&buf))

	// Chop one index entry off the tail; the pointer in the last 4 bytes no
	// longer agrees with the declared height.
	data := buf.Bytes()
	truncated := append([]byte{}, data[:len(data)-8]...)
	truncated = append(truncated, data[len(data)-4:]...)

	_, err := FromReader(bytes.NewReader(truncated))
	require.ErrorIs(t, err, errs.ErrInvalidIndexSize)
}

func TestFromReader_ToleratesSeparatorPadding(t *testing.T) {
	chart := testChart(t, 6, 3)

	var buf bytes.Buffer
	require.NoError(t, chart.Encode(&buf))
	data := buf.Bytes()

	// Some legacy files pad extra bytes between CTRL-Z and the NUL. Splice
	// padding in and fix up the row offsets.
	sep := bytes.IndexByte(data, ctrlZ)
	require.Greater(t, sep, 0)

	const pad = 4
	var padded bytes.Buffer
	padded.Write(data[:sep+1])
	padded.Write(bytes.Repeat([]byte{0x20}, pad))
	padded.Write(data[sep+1 : len(data)-4*(3+1)])
	indexStart := len(data) - 4*(3+1)
	for i := 0; i < 4; i++ {
		off := binary.BigEndian.Uint32(data[indexStart+i*4:])
		var tmp [4]byte
		binary.BigEndian.PutUint32(tmp[:], off+pad)
		padded.Write(tmp[:])
	}

	got, err := FromReader(bytes.NewReader(padded.Bytes()))
	require.NoError(t, err)
	require.Equal(t, chart.PixelIndices(), got.PixelIndices())
}

func TestOpenAndSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chart.kap")

	chart := testChart(t, 12, 9)
	require.NoError(t, chart.Save(path))

	got, err := Open(path)
	require.NoError(t, err)
	require.Equal(t, chart.PixelIndices(), got.PixelIndices())
	require.Equal(t, "test chart", got.Header().General.ChartName)
}

func TestOpen_Gzip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chart.kap.gz")

	chart := testChart(t, 8, 8)

	var raw bytes.Buffer
	require.NoError(t, chart.Encode(&raw))

	out, err := os.Create(path)
	require.NoError(t, err)
	zw := gzip.NewWriter(out)
	_, err = zw.Write(raw.Bytes())
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, out.Close())

	got, err := Open(path)
	require.NoError(t, err)
	require.Equal(t, chart.PixelIndices(), got.PixelIndices())
}

func TestReadHeader(t *testing.T) {
	chart := testChart(t, 5, 5)

	var buf bytes.Buffer
	require.NoError(t, chart.Encode(&buf))

	h, err := ReadHeader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, uint16(5), h.General.Width)
	require.Equal(t, format.DepthSeven, h.IFM)
	require.Len(t, h.RGB, 4)
}

func TestColors(t *testing.T) {
	chart := testChart(t, 2, 2)

	colors, err := chart.Colors(format.PaletteRGB)
	require.NoError(t, err)

	var got []format.RGB
	for c := range colors {
		got = append(got, c)
	}
	require.Equal(t, []format.RGB{
		{R: 199, G: 231, B: 252},
		{R: 174, G: 234, B: 84},
		{R: 255, G: 254, B: 206},
		{R: 226, G: 65, B: 6},
	}, got)

	_, err = chart.Colors(format.PaletteNgt)
	require.ErrorIs(t, err, errs.ErrNonExistentPalette)
}

func TestAppendIndex_Overflow(t *testing.T) {
	_, err := appendIndex(nil, []int64{0, math.MaxUint32 + 1})
	require.ErrorIs(t, err, errs.ErrIndexOverflow)
}

func TestDepthForColors(t *testing.T) {
	cases := []struct {
		colors int
		want   format.Depth
	}{
		{1, format.DepthOne},
		{2, format.DepthFour},
		{15, format.DepthFour},
		{16, format.DepthSeven},
		{127, format.DepthSeven},
	}
	for _, tc := range cases {
		got, err := DepthForColors(tc.colors)
		require.NoError(t, err)
		require.Equal(t, tc.want, got)
	}

	_, err := DepthForColors(128)
	require.ErrorIs(t, err, errs.ErrUnsupportedDepth)
}

func TestFromReader_InvalidHeaderText(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0xFF, 0xFE, 'B', 'S', 'B'})
	buf.Write([]byte{ctrlZ, 0x00, 4})

	_, err := FromReader(&buf)
	require.ErrorIs(t, err, errs.ErrInvalidHeaderText)
}

func TestFromReader_TruncatedAfterHeader(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("BSB/RA=2,2\r\nIFM/4\r\n")
	buf.WriteByte(ctrlZ)

	_, err := FromReader(&buf)
	require.ErrorIs(t, err, errs.ErrUnexpectedStreamEnd)
}
