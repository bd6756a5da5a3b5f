package kap

import (
	"fmt"

	"github.com/arloliu/kap/errs"
)

// Bitmap is the decompressed raster of a KAP image: a width by height grid
// of palette indices, one byte per pixel regardless of the wire depth.
//
// Storing a full byte per pixel keeps iteration and palette resolution
// uniform across depths; the RLE codec shifts values into the packed wire
// form on its own.
type Bitmap struct {
	width  uint16
	height uint16
	pixels []byte
}

// NewBitmap creates a zeroed width by height bitmap.
func NewBitmap(width, height uint16) *Bitmap {
	return &Bitmap{
		width:  width,
		height: height,
		pixels: make([]byte, int(width)*int(height)),
	}
}

// NewBitmapFromRaw wraps row-major pixel data in a Bitmap. It fails with
// errs.ErrMismatchDimensions when len(data) != width*height.
func NewBitmapFromRaw(width, height uint16, data []byte) (*Bitmap, error) {
	if len(data) != int(width)*int(height) {
		return nil, fmt.Errorf("%w: %dx%d header, %d raster bytes",
			errs.ErrMismatchDimensions, width, height, len(data))
	}

	return &Bitmap{width: width, height: height, pixels: data}, nil
}

// Width returns the image width in pixels.
func (b *Bitmap) Width() uint16 {
	return b.width
}

// Height returns the image height in pixels.
func (b *Bitmap) Height() uint16 {
	return b.height
}

// PixelIndices returns the row-major palette index data.
func (b *Bitmap) PixelIndices() []byte {
	return b.pixels
}

// SetPixelIndex sets the palette index of pixel (x, y). Out-of-bounds
// coordinates are silently ignored.
func (b *Bitmap) SetPixelIndex(x, y uint16, value uint8) {
	if x < b.width && y < b.height {
		b.pixels[int(y)*int(b.width)+int(x)] = value
	}
}

// Row returns the pixels of row y as a slice aliasing the bitmap's backing
// store, or nil when y is past the last row.
func (b *Bitmap) Row(y uint16) []byte {
	if y >= b.height {
		return nil
	}
	start := int(y) * int(b.width)

	return b.pixels[start : start+int(b.width)]
}
