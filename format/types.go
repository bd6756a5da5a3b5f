// Package format defines the wire-level enumerations of the BSB/KAP
// container: the pixel depth, the named color palettes, and the RGB triple
// stored in palette records.
package format

import (
	"fmt"

	"github.com/arloliu/kap/errs"
)

// Depth is the number of bits used to encode one pixel on the wire.
// The KAP container supports exactly three depths.
type Depth uint8

const (
	DepthOne   Depth = 1 // DepthOne uses 1 bit per pixel (1 color).
	DepthFour  Depth = 4 // DepthFour uses 4 bits per pixel (up to 15 colors).
	DepthSeven Depth = 7 // DepthSeven uses 7 bits per pixel (up to 127 colors).
)

// ParseDepth validates a depth byte read from disk.
// Any value other than 1, 4 or 7 is rejected with errs.ErrUnsupportedDepth.
func ParseDepth(v uint8) (Depth, error) {
	switch Depth(v) {
	case DepthOne, DepthFour, DepthSeven:
		return Depth(v), nil
	default:
		return 0, fmt.Errorf("%w: %d", errs.ErrUnsupportedDepth, v)
	}
}

// Valid reports whether d is one of the three supported depths.
func (d Depth) Valid() bool {
	return d == DepthOne || d == DepthFour || d == DepthSeven
}

func (d Depth) String() string {
	return fmt.Sprintf("%d", uint8(d))
}

// ColorPalette selects one of the eight named palettes a KAP header can carry.
type ColorPalette uint8

const (
	PaletteRGB ColorPalette = iota // PaletteRGB is the default color palette.
	PaletteDay                     // PaletteDay is the day color palette.
	PaletteDsk                     // PaletteDsk is the dusk color palette.
	PaletteNgt                     // PaletteNgt is the night color palette.
	PaletteNgr                     // PaletteNgr is the night red color palette.
	PaletteGry                     // PaletteGry is the gray color palette.
	PalettePrc                     // PalettePrc is the optional color palette.
	PalettePrg                     // PalettePrg is the optional gray palette.
)

func (p ColorPalette) String() string {
	switch p {
	case PaletteRGB:
		return "RGB"
	case PaletteDay:
		return "DAY"
	case PaletteDsk:
		return "DSK"
	case PaletteNgt:
		return "NGT"
	case PaletteNgr:
		return "NGR"
	case PaletteGry:
		return "GRY"
	case PalettePrc:
		return "PRC"
	case PalettePrg:
		return "PRG"
	default:
		return "Unknown"
	}
}

// RGB is one palette entry. Palette records index entries from 1; index 0 is
// reserved by the format.
type RGB struct {
	R uint8
	G uint8
	B uint8
}
