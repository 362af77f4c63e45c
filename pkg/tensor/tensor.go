// Package tensor provides the 4D video tensor exchanged between the
// decoder, spatial transforms and the dataset.
package tensor

import (
	"fmt"
	"image"
)

// Channels is the number of color channels in a video tensor.
const Channels = 3

// Video is a (C,T,H,W) float32 tensor. Values are in [0,255] after
// decoding and in [-1,1] after Normalize.
type Video struct {
	data       []float32
	c, t, h, w int
}

// New creates a zero-valued video tensor with the given dimensions.
func New(c, t, h, w int) *Video {
	return &Video{
		data: make([]float32, c*t*h*w),
		c:    c, t: t, h: h, w: w,
	}
}

// FromFrames converts decoded frames (T,H,W,C layout, one image per time
// step) into a (C,T,H,W) tensor. All frames must share the same bounds.
func FromFrames(frames []image.Image) (*Video, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("no frames to convert")
	}

	bounds := frames[0].Bounds()
	h, w := bounds.Dy(), bounds.Dx()
	v := New(Channels, len(frames), h, w)

	for t, frame := range frames {
		fb := frame.Bounds()
		if fb.Dy() != h || fb.Dx() != w {
			return nil, fmt.Errorf("frame %d is %dx%d, want %dx%d", t, fb.Dx(), fb.Dy(), w, h)
		}
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				r, g, b, _ := frame.At(fb.Min.X+x, fb.Min.Y+y).RGBA()
				v.Set(0, t, y, x, float32(r>>8))
				v.Set(1, t, y, x, float32(g>>8))
				v.Set(2, t, y, x, float32(b>>8))
			}
		}
	}

	return v, nil
}

// C returns the number of channels.
func (v *Video) C() int { return v.c }

// T returns the number of frames.
func (v *Video) T() int { return v.t }

// H returns the frame height.
func (v *Video) H() int { return v.h }

// W returns the frame width.
func (v *Video) W() int { return v.w }

// At returns the value at (c,t,y,x).
func (v *Video) At(c, t, y, x int) float32 {
	return v.data[((c*v.t+t)*v.h+y)*v.w+x]
}

// Set stores a value at (c,t,y,x).
func (v *Video) Set(c, t, y, x int, val float32) {
	v.data[((c*v.t+t)*v.h+y)*v.w+x] = val
}

// Data returns the backing slice in (C,T,H,W) order.
func (v *Video) Data() []float32 { return v.data }

// Crop returns a new tensor containing the spatial window of height ch and
// width cw whose top-left corner is (y0,x0) in every frame.
func (v *Video) Crop(y0, x0, ch, cw int) (*Video, error) {
	if y0 < 0 || x0 < 0 || y0+ch > v.h || x0+cw > v.w {
		return nil, fmt.Errorf("crop %dx%d at (%d,%d) exceeds frame %dx%d", cw, ch, x0, y0, v.w, v.h)
	}
	out := New(v.c, v.t, ch, cw)
	for c := 0; c < v.c; c++ {
		for t := 0; t < v.t; t++ {
			for y := 0; y < ch; y++ {
				srcRow := ((c*v.t+t)*v.h + y0 + y) * v.w
				dstRow := ((c*out.t+t)*out.h + y) * out.w
				copy(out.data[dstRow:dstRow+cw], v.data[srcRow+x0:srcRow+x0+cw])
			}
		}
	}
	return out, nil
}

// Normalize rescales pixel values from [0,255] to [-1,1] in place.
func (v *Video) Normalize() {
	for i, x := range v.data {
		v.data[i] = (x/255 - 0.5) * 2
	}
}

// FrameImage renders the frame at time t as an RGBA image. Values are
// clamped to [0,255], so it is only meaningful before Normalize.
func (v *Video) FrameImage(t int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, v.w, v.h))
	for y := 0; y < v.h; y++ {
		for x := 0; x < v.w; x++ {
			off := img.PixOffset(x, y)
			img.Pix[off+0] = clampByte(v.At(0, t, y, x))
			img.Pix[off+1] = clampByte(v.At(1, t, y, x))
			img.Pix[off+2] = clampByte(v.At(2, t, y, x))
			img.Pix[off+3] = 255
		}
	}
	return img
}

func clampByte(x float32) uint8 {
	if x < 0 {
		return 0
	}
	if x > 255 {
		return 255
	}
	return uint8(x + 0.5)
}
