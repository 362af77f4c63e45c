package tensor

import (
	"image"
	"image/color"
	"testing"
)

func solidFrame(w, h int, c color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestFromFrames_Permute(t *testing.T) {
	// Two frames with distinct channel values: the tensor must be laid
	// out channel-first with time as the second axis.
	frames := []image.Image{
		solidFrame(4, 2, color.RGBA{R: 10, G: 20, B: 30, A: 255}),
		solidFrame(4, 2, color.RGBA{R: 40, G: 50, B: 60, A: 255}),
	}

	v, err := FromFrames(frames)
	if err != nil {
		t.Fatalf("FromFrames() error = %v", err)
	}

	if v.C() != 3 || v.T() != 2 || v.H() != 2 || v.W() != 4 {
		t.Fatalf("dims = (%d,%d,%d,%d), want (3,2,2,4)", v.C(), v.T(), v.H(), v.W())
	}

	checks := []struct {
		c, t int
		want float32
	}{
		{0, 0, 10}, {1, 0, 20}, {2, 0, 30},
		{0, 1, 40}, {1, 1, 50}, {2, 1, 60},
	}
	for _, check := range checks {
		if got := v.At(check.c, check.t, 1, 2); got != check.want {
			t.Errorf("At(%d,%d,1,2) = %f, want %f", check.c, check.t, got, check.want)
		}
	}
}

func TestFromFrames_MismatchedSizes(t *testing.T) {
	frames := []image.Image{
		solidFrame(4, 4, color.RGBA{A: 255}),
		solidFrame(2, 4, color.RGBA{A: 255}),
	}
	if _, err := FromFrames(frames); err == nil {
		t.Fatal("FromFrames() accepted frames of different sizes")
	}
}

func TestFromFrames_Empty(t *testing.T) {
	if _, err := FromFrames(nil); err == nil {
		t.Fatal("FromFrames() accepted an empty frame list")
	}
}

func TestNormalize(t *testing.T) {
	v := New(1, 1, 1, 3)
	v.Set(0, 0, 0, 0, 0)
	v.Set(0, 0, 0, 1, 127.5)
	v.Set(0, 0, 0, 2, 255)

	v.Normalize()

	wants := []float32{-1, 0, 1}
	for x, want := range wants {
		if got := v.At(0, 0, 0, x); got != want {
			t.Errorf("At(0,0,0,%d) = %f, want %f", x, got, want)
		}
	}
}

func TestCrop(t *testing.T) {
	v := New(1, 1, 4, 4)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			v.Set(0, 0, y, x, float32(y*4+x))
		}
	}

	out, err := v.Crop(1, 2, 2, 2)
	if err != nil {
		t.Fatalf("Crop() error = %v", err)
	}
	if out.H() != 2 || out.W() != 2 {
		t.Fatalf("cropped dims = %dx%d, want 2x2", out.W(), out.H())
	}
	// Top-left of the window is (y=1,x=2), so value 1*4+2 = 6.
	if got := out.At(0, 0, 0, 0); got != 6 {
		t.Errorf("At(0,0,0,0) = %f, want 6", got)
	}
	if got := out.At(0, 0, 1, 1); got != 11 {
		t.Errorf("At(0,0,1,1) = %f, want 11", got)
	}
}

func TestCrop_OutOfBounds(t *testing.T) {
	v := New(1, 1, 4, 4)
	if _, err := v.Crop(2, 2, 4, 4); err == nil {
		t.Fatal("Crop() accepted an out-of-bounds window")
	}
}

func TestFrameImage_RoundTrip(t *testing.T) {
	frames := []image.Image{solidFrame(3, 3, color.RGBA{R: 10, G: 20, B: 30, A: 255})}
	v, err := FromFrames(frames)
	if err != nil {
		t.Fatalf("FromFrames() error = %v", err)
	}

	img := v.FrameImage(0)
	r, g, b, _ := img.At(1, 1).RGBA()
	if r>>8 != 10 || g>>8 != 20 || b>>8 != 30 {
		t.Errorf("pixel = (%d,%d,%d), want (10,20,30)", r>>8, g>>8, b>>8)
	}
}
