// Package rle implements the run-length encoding used by the raster body of
// BSB/KAP files.
//
// The encoding interleaves a pixel value and a run count into chains of
// 7-bit units. The first byte of a chain carries the pixel value in its high
// bits (shifted by 7-depth) and the low bits of the count; while the 0x80
// continuation bit is set, further bytes extend the count 7 bits at a time.
// Each encoded row starts with the row number (same chain encoding, no pixel
// bits) and ends with a literal 0x00 terminator.
package rle

import (
	"fmt"

	"github.com/arloliu/kap/errs"
	"github.com/arloliu/kap/format"
	"github.com/arloliu/kap/internal/pool"
)

// lineNumberMax is the count threshold for the row number chain. The row
// number carries no pixel bits, so all 7 payload bits hold the count.
const lineNumberMax = 0x7F

// reader is a byte cursor over one row's compressed stream.
type reader struct {
	data []byte
	pos  int
}

func (r *reader) next() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, errs.ErrUnexpectedStreamEnd
	}
	c := r.data[r.pos]
	r.pos++

	return c, nil
}

func clampByte(n int) byte {
	if n > 0xFF {
		return 0xFF
	}

	return byte(n)
}

// compressNumber appends the chain encoding of count n combined with the
// given pixel bits. A byte that would be 0 is preceded by 0x80, because a
// literal 0 terminates the row. Returns the number of bytes written.
func compressNumber(buf *pool.ByteBuffer, n int, pixel byte, max int) int {
	if n > max {
		written := compressNumber(buf, n>>7, pixel|0x80, max)
		_ = buf.WriteByte(byte(n&0x7F) | (pixel & 0x80))

		return written + 1
	}

	pixel |= clampByte(n)
	written := 0
	if pixel == 0 {
		_ = buf.WriteByte(0x80)
		written++
	}
	_ = buf.WriteByte(pixel)

	return written + 1
}

// decompressNumber reads one (pixel, count) chain. The decoded pixel value is
// stored through pixel; the returned count includes the run's first pixel.
func decompressNumber(r *reader, pixel *byte, dec, maxin int) (int, error) {
	c, err := r.next()
	if err != nil {
		return 0, err
	}

	count := int(c) & 0x7F
	*pixel = byte(count >> dec)
	count &= maxin

	for c&0x80 != 0 {
		c, err = r.next()
		if err != nil {
			return 0, err
		}
		count = count<<7 + int(c&0x7F)
	}

	return count + 1, nil
}

// CompressRow appends the encoding of one raster row to buf and returns the
// number of bytes written.
//
// line is the 0-based row number stored at the front of the stream. widthOut
// stretches runs toward a different output width; every current caller
// passes widthOut == widthIn, which makes the stretch a no-op, but the
// parameter is part of the row format's compression contract and is kept.
func CompressRow(buf *pool.ByteBuffer, row []byte, depth format.Depth, line, widthIn, widthOut int) int {
	dec := 7 - int(depth)
	max := 1<<dec - 1

	written := compressNumber(buf, line, 0, lineNumberMax)

	ipixelIn, ipixelOut := 0, 0
	for ipixelIn < widthIn {
		last := int(row[ipixelIn])
		ipixelIn++
		ipixelOut++

		// Run length counts the pixels equal to the first one, excluding it.
		runLength := 0
		for ipixelIn < widthIn && int(row[ipixelIn]) == last {
			ipixelIn++
			ipixelOut++
			runLength++
		}

		// Stretch the run toward widthOut.
		xout := (ipixelIn<<1 + 1) * widthOut / (widthIn << 1)
		if xout > ipixelOut {
			runLength += xout - ipixelOut
			ipixelOut = xout
		}

		written += compressNumber(buf, runLength, clampByte(last<<dec), max)
	}
	_ = buf.WriteByte(0)

	return written + 1
}

// DecompressRow decodes one row from data into dst, which must hold at least
// width bytes. It returns the decoded row-number chain value (one past the
// stored row index, since the shared count primitive adds one) and the
// number of bytes consumed; excess bytes after the row are left untouched
// for the next read.
//
// The deposit rule depends on the depth: depth 1 packs pixels as bits into
// the front of dst, depths 4 and 7 store one pixel per byte.
func DecompressRow(data []byte, dst []byte, width int, depth format.Depth) (int, int, error) {
	dec := 7 - int(depth)
	maxin := 1<<dec - 1

	r := reader{data: data}

	var pixel byte
	line, err := decompressNumber(&r, &pixel, 0, lineNumberMax)
	if err != nil {
		return 0, r.pos, fmt.Errorf("row number: %w", err)
	}

	remaining := width
	xout := 0
	for remaining > 0 {
		count, err := decompressNumber(&r, &pixel, dec, maxin)
		if err != nil {
			return line, r.pos, fmt.Errorf("row %d: %w", line, err)
		}
		if count > remaining {
			count = remaining
		}
		remaining -= count

		switch depth {
		case format.DepthOne:
			for ; count > 0; count-- {
				dst[xout>>3] |= pixel << (7 - (xout & 0x7))
				xout++
			}
		case format.DepthFour:
			for ; count > 0; count-- {
				dst[xout] = pixel & 0x0F
				xout++
			}
		default:
			for ; count > 0; count-- {
				dst[xout] = pixel
				xout++
			}
		}
	}

	return line, r.pos, nil
}
