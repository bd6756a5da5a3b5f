package main

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arloliu/kap"
	"github.com/arloliu/kap/format"
	"github.com/arloliu/kap/header"
)

func newKapImgCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "kapimg <chart.kap>",
		Short: "Convert a BSB/KAP chart to a PNG image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := args[0]
			if output == "" {
				output = defaultOutput(in, "png")
			}

			return kapToImage(in, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file name")

	return cmd
}

func newImgKapCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "imgkap <image.png>",
		Short: "Convert a palette-reduced PNG image to a BSB/KAP chart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := args[0]
			if output == "" {
				output = defaultOutput(in, "kap")
			}

			return imageToKap(in, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file name")

	return cmd
}

func kapToImage(in, out string) error {
	chart, err := kap.Open(in)
	if err != nil {
		return err
	}

	colors, err := chart.Colors(format.PaletteRGB)
	if err != nil {
		return err
	}

	width, height := int(chart.Width()), int(chart.Height())
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	i := 0
	for c := range colors {
		img.SetRGBA(i%width, i/width, color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xFF})
		i++
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()

		return err
	}

	return f.Close()
}

func imageToKap(in, out string) error {
	f, err := os.Open(in)
	if err != nil {
		return err
	}
	img, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return err
	}

	bounds := img.Bounds()
	if bounds.Dx() > 0xFFFF || bounds.Dy() > 0xFFFF {
		return fmt.Errorf("image %dx%d does not fit 16-bit chart dimensions", bounds.Dx(), bounds.Dy())
	}
	width, height := uint16(bounds.Dx()), uint16(bounds.Dy())

	// Collect the palette in first-seen order and index the pixels into it.
	// Chart palette indices start at 1.
	indexOf := make(map[format.RGB]uint8)
	var palette []format.RGB
	pixels := make([]byte, int(width)*int(height))

	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			c := format.RGB{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8)}

			idx, ok := indexOf[c]
			if !ok {
				if len(palette) >= 127 {
					return fmt.Errorf("image has more than 127 colors, reduce the palette first")
				}
				palette = append(palette, c)
				idx = uint8(len(palette))
				indexOf[c] = idx
			}
			pixels[i] = idx
			i++
		}
	}

	depth, err := kap.DepthForColors(len(palette))
	if err != nil {
		return err
	}

	hdr := &header.ImageHeader{IFM: depth}
	hdr.General.ChartName = strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	hdr.General.Width = width
	hdr.General.Height = height
	hdr.RGB = palette

	chart, err := kap.New(hdr, pixels)
	if err != nil {
		return err
	}

	return chart.Save(out)
}
