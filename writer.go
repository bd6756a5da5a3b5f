package kap

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/arloliu/kap/errs"
	"github.com/arloliu/kap/format"
	"github.com/arloliu/kap/internal/pool"
	"github.com/arloliu/kap/internal/rle"
)

// Encode serializes the image to w: header text, the {CTRL-Z, NUL, depth}
// separator, one RLE stream per raster row, and the trailing offset index.
//
// Row offsets are captured before each row's bytes are written, so every
// index entry points at the first byte of its row. A partial write leaves a
// truncated stream; callers wanting atomic replacement should encode to a
// temporary path and rename.
func (f *ImageFile) Encode(w io.Writer) error {
	if !f.header.IFM.Valid() {
		return fmt.Errorf("%w: %d", errs.ErrUnsupportedDepth, uint8(f.header.IFM))
	}

	bw := bufio.NewWriter(w)
	var pos int64

	n, err := bw.Write(f.header.Bytes())
	if err != nil {
		return err
	}
	pos += int64(n)

	if _, err := bw.Write([]byte{ctrlZ, 0x00, byte(f.header.IFM)}); err != nil {
		return err
	}
	pos += 3

	width, height := int(f.Width()), int(f.Height())
	depth := f.header.IFM

	buf := pool.GetRowBuffer()
	defer pool.PutRowBuffer(buf)

	offsets := make([]int64, 0, height+1)
	for y := range height {
		buf.Reset()
		rle.CompressRow(buf, f.bitmap.Row(uint16(y)), depth, y, width, width)

		offsets = append(offsets, pos)
		n, err := bw.Write(buf.Bytes())
		if err != nil {
			return err
		}
		pos += int64(n)
	}
	offsets = append(offsets, pos)

	index, err := appendIndex(make([]byte, 0, 4*len(offsets)), offsets)
	if err != nil {
		return err
	}
	if _, err := bw.Write(index); err != nil {
		return err
	}

	return bw.Flush()
}

// Save encodes the image to a file at path, truncating any existing file.
func (f *ImageFile) Save(path string) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := f.Encode(out); err != nil {
		out.Close()

		return err
	}

	return out.Close()
}

// DepthForColors returns the smallest depth whose palette can hold n
// colors, or errs.ErrUnsupportedDepth when n exceeds 127.
func DepthForColors(n int) (format.Depth, error) {
	switch {
	case n <= 1:
		return format.DepthOne, nil
	case n <= 15:
		return format.DepthFour, nil
	case n <= 127:
		return format.DepthSeven, nil
	default:
		return 0, fmt.Errorf("%w: %d colors need more than 7 bits", errs.ErrUnsupportedDepth, n)
	}
}
