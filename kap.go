// Package kap reads, writes and round-trips raster nautical charts in the
// MapTech BSB/KAP file format.
//
// A KAP file is a hybrid container: an ASCII header carrying chart metadata
// (projection, datum, georeference polynomials, control points, palettes),
// a CTRL-Z/NUL separator and a depth byte, a run-length compressed raster
// body at 1, 4 or 7 bits per pixel, and a trailing table of big-endian
// 32-bit row offsets.
//
// # Basic Usage
//
// Reading a chart and resolving pixels through a palette:
//
//	chart, err := kap.Open("12221_1.kap")
//	if err != nil {
//	    return err
//	}
//	colors, err := chart.Colors(format.PaletteRGB)
//	if err != nil {
//	    return err
//	}
//	for c := range colors {
//	    // c is a format.RGB triple, one per pixel in row-major order.
//	}
//
// Building a chart from scratch:
//
//	hdr := &header.ImageHeader{IFM: format.DepthSeven}
//	hdr.General.ChartName = "test chart"
//	hdr.General.Width = width
//	hdr.General.Height = height
//	hdr.RGB = palette
//
//	chart, err := kap.New(hdr, pixels)
//	if err != nil {
//	    return err
//	}
//	err = chart.Save("out.kap")
//
// The library validates structure, not chart semantics: callers are
// responsible for supplying a palette of at most 127 colors and metadata
// that makes hydrographic sense.
//
// # Package Structure
//
// The header model and its text codec live in the header package, the wire
// enums in format, and the sentinel errors in errs. This package ties them
// to the raster codec and the container layout.
package kap

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"unicode/utf8"

	"github.com/klauspost/compress/gzip"

	"github.com/arloliu/kap/errs"
	"github.com/arloliu/kap/format"
	"github.com/arloliu/kap/header"
)

const ctrlZ = 0x1A

// ImageFile is a parsed BSB/KAP image file: the header and the decompressed
// raster bitmap. The two always agree on the image dimensions.
type ImageFile struct {
	header *header.ImageHeader
	bitmap *Bitmap
}

// New creates an ImageFile from a header and row-major raster data. It
// fails with errs.ErrMismatchDimensions when the header's width/height does
// not match the raster length.
func New(h *header.ImageHeader, rasterData []byte) (*ImageFile, error) {
	bitmap, err := NewBitmapFromRaw(h.General.Width, h.General.Height, rasterData)
	if err != nil {
		return nil, err
	}

	return &ImageFile{header: h, bitmap: bitmap}, nil
}

// Header returns the image header.
func (f *ImageFile) Header() *header.ImageHeader {
	return f.header
}

// Width returns the image width in pixels.
func (f *ImageFile) Width() uint16 {
	return f.header.General.Width
}

// Height returns the image height in pixels.
func (f *ImageFile) Height() uint16 {
	return f.header.General.Height
}

// PixelIndices returns the raw row-major palette index data, one byte per
// pixel.
func (f *ImageFile) PixelIndices() []byte {
	return f.bitmap.PixelIndices()
}

// Colors returns an iterator over the image's pixels resolved through the
// selected palette, in row-major order. It fails with
// errs.ErrNonExistentPalette when the header does not carry the palette.
//
// Palette indices start at 1; index 0 resolves to the first entry, and an
// index past the palette yields the zero RGB value.
func (f *ImageFile) Colors(palette format.ColorPalette) (iter.Seq[format.RGB], error) {
	colors := f.header.Palette(palette)
	if colors == nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrNonExistentPalette, palette)
	}

	return func(yield func(format.RGB) bool) {
		for _, idx := range f.bitmap.PixelIndices() {
			var c format.RGB
			if i := int(idx) - 1; i >= 0 && i < len(colors) {
				c = colors[i]
			} else if i < 0 && len(colors) > 0 {
				c = colors[0]
			}
			if !yield(c) {
				return
			}
		}
	}, nil
}

// ReadHeader parses just the ASCII header of a KAP stream, without decoding
// the raster body. Gzip-compressed input is detected and decompressed
// transparently.
func ReadHeader(r io.Reader) (*header.ImageHeader, error) {
	br := bufio.NewReader(r)

	if magic, err := br.Peek(2); err == nil && isGzip(magic) {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("open gzip stream: %w", err)
		}
		defer zr.Close()
		br = bufio.NewReader(zr)
	}

	raw, err := br.ReadBytes(ctrlZ)
	if err != nil && err != io.EOF {
		return nil, err
	}
	if n := len(raw); n > 0 && raw[n-1] == ctrlZ {
		raw = raw[:n-1]
	}

	return parseHeaderBytes(raw)
}

func parseHeaderBytes(raw []byte) (*header.ImageHeader, error) {
	if !utf8.Valid(raw) {
		return nil, errs.ErrInvalidHeaderText
	}

	return header.Parse(string(raw))
}

func isGzip(data []byte) bool {
	return len(data) >= 2 && data[0] == 0x1F && data[1] == 0x8B
}
