// Package preview renders height data to images for inspection: 16-bit
// greyscale height maps and region colour maps.
package preview

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"strconv"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
)

// Field is a grid of normalized heights. Both noise maps and height fields
// satisfy it.
type Field interface {
	Width() int
	Height() int
	At(x, y int) float32
}

// Region colours every height up to and including Height.
type Region struct {
	Name   string
	Height float32
	Colour color.RGBA
}

// DefaultRegions is the classic water-to-snow palette.
func DefaultRegions() []Region {
	return []Region{
		{Name: "deep water", Height: 0.3, Colour: color.RGBA{0x32, 0x63, 0xc3, 0xff}},
		{Name: "shallow water", Height: 0.4, Colour: color.RGBA{0x36, 0x67, 0xc6, 0xff}},
		{Name: "sand", Height: 0.45, Colour: color.RGBA{0xd2, 0xd0, 0x7d, 0xff}},
		{Name: "grass", Height: 0.55, Colour: color.RGBA{0x56, 0x97, 0x18, 0xff}},
		{Name: "forest", Height: 0.6, Colour: color.RGBA{0x3e, 0x6b, 0x13, 0xff}},
		{Name: "rock", Height: 0.7, Colour: color.RGBA{0x5a, 0x45, 0x3c, 0xff}},
		{Name: "high rock", Height: 0.9, Colour: color.RGBA{0x4b, 0x3c, 0x35, 0xff}},
		{Name: "snow", Height: 1, Colour: color.RGBA{0xff, 0xff, 0xff, 0xff}},
	}
}

// ParseHexColour parses "#rrggbb" or "rrggbb".
func ParseHexColour(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) != 6 {
		return color.RGBA{}, fmt.Errorf("colour %q: want #rrggbb", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("colour %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

func clamp01(v float32) float32 {
	return min(max(v, 0), 1)
}

// HeightImage maps [0,1] heights onto the full 16-bit grey range. Values
// outside the range are clamped.
func HeightImage(f Field) *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, f.Width(), f.Height()))
	for y := range f.Height() {
		for x := range f.Width() {
			img.SetGray16(x, y, color.Gray16{Y: uint16(clamp01(f.At(x, y)) * 0xffff)})
		}
	}
	return img
}

// ColourMap colours each sample with the first region whose height is not
// below it; samples above every region take the last region's colour.
func ColourMap(f Field, regions []Region) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width(), f.Height()))
	if len(regions) == 0 {
		return img
	}
	for y := range f.Height() {
		for x := range f.Width() {
			img.SetRGBA(x, y, regionColour(regions, f.At(x, y)))
		}
	}
	return img
}

func regionColour(regions []Region, v float32) color.RGBA {
	for _, r := range regions {
		if v <= r.Height {
			return r.Colour
		}
	}
	return regions[len(regions)-1].Colour
}

// Upscale enlarges img by factor with nearest-neighbour sampling so single
// samples stay crisp.
func Upscale(img image.Image, factor int) *image.RGBA {
	factor = max(factor, 1)
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// EncodeTIFF writes img as a Deflate-compressed TIFF.
func EncodeTIFF(w io.Writer, img image.Image) error {
	if err := tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate}); err != nil {
		return fmt.Errorf("encode tiff: %w", err)
	}
	return nil
}
