package preview

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// NewLegendFace loads the bundled Go Regular font at fontPixels.
func NewLegendFace(fontPixels int) (font.Face, error) {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: float64(fontPixels), DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("new face: %w", err)
	}
	return face, nil
}

// WithLegend returns a copy of img with a strip on the right listing each
// region's swatch, name and upper height.
func WithLegend(img image.Image, regions []Region, face font.Face) *image.RGBA {
	metrics := face.Metrics()
	rowH := (metrics.Ascent + metrics.Descent).Ceil() + 4
	swatch := rowH - 4
	padding := 6

	// widest label decides the strip width
	labels := make([]string, len(regions))
	textW := 0
	for i, r := range regions {
		labels[i] = fmt.Sprintf("%s <= %.2f", r.Name, r.Height)
		textW = max(textW, font.MeasureString(face, labels[i]).Ceil())
	}
	stripW := padding*3 + swatch + textW

	b := img.Bounds()
	h := max(b.Dy(), padding*2+rowH*len(regions))
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()+stripW, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.RGBA{0x20, 0x20, 0x20, 0xff}), image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(0, 0, b.Dx(), b.Dy()), img, b.Min, draw.Src)

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.White),
		Face: face,
	}
	x0 := b.Dx() + padding
	for i, r := range regions {
		top := padding + i*rowH
		sw := image.Rect(x0, top, x0+swatch, top+swatch)
		draw.Draw(dst, sw, image.NewUniform(r.Colour), image.Point{}, draw.Src)

		d.Dot = fixed.P(x0+swatch+padding, top+metrics.Ascent.Ceil())
		d.DrawString(labels[i])
	}
	return dst
}
