// Package ggrenderer provides a renderer implementation using the gg
// library.
package ggrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	"github.com/fogleman/gg"

	"github.com/user/clipset/pkg/ports"
)

// sheetGap is the pixel gap between frames on a contact sheet.
const sheetGap = 4

// Renderer implements ports.Renderer using the gg library.
type Renderer struct{}

// New creates a new Renderer.
func New() *Renderer {
	return &Renderer{}
}

// ContactSheet lays frames out on a grid, left to right, top to bottom.
// All frames are assumed to share the dimensions of the first one.
func (r *Renderer) ContactSheet(frames []image.Image, columns int) image.Image {
	if len(frames) == 0 {
		return image.NewRGBA(image.Rect(0, 0, 1, 1))
	}
	if columns <= 0 {
		columns = 4
	}
	if columns > len(frames) {
		columns = len(frames)
	}
	rows := (len(frames) + columns - 1) / columns

	bounds := frames[0].Bounds()
	fw, fh := bounds.Dx(), bounds.Dy()
	width := columns*fw + (columns+1)*sheetGap
	height := rows*fh + (rows+1)*sheetGap

	dc := gg.NewContext(width, height)
	dc.SetColor(color.RGBA{R: 30, G: 30, B: 30, A: 255})
	dc.Clear()

	for i, frame := range frames {
		col := i % columns
		row := i / columns
		x := sheetGap + col*(fw+sheetGap)
		y := sheetGap + row*(fh+sheetGap)
		dc.DrawImage(frame, x, y)
	}

	return dc.Image()
}

// EncodeImage encodes an image to the specified format.
func (r *Renderer) EncodeImage(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
	var buf bytes.Buffer

	switch format {
	case ports.FormatJPEG:
		opts := &jpeg.Options{Quality: quality}
		if err := jpeg.Encode(&buf, img, opts); err != nil {
			return nil, fmt.Errorf("encode JPEG: %w", err)
		}
	case ports.FormatPNG:
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode PNG: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format: %d", format)
	}

	return buf.Bytes(), nil
}

// Ensure Renderer implements ports.Renderer
var _ ports.Renderer = (*Renderer)(nil)
