// Package transform implements the spatial transform policies applied to
// sampled clips before normalization.
package transform

import (
	"errors"
	"fmt"
	"image"
	"math/rand"
	"time"

	"golang.org/x/image/draw"

	"github.com/user/clipset/pkg/ports"
	"github.com/user/clipset/pkg/tensor"
)

// Policy identifies a spatial transform policy. Policies are resolved once
// at construction; an unknown name is a configuration error.
type Policy int

const (
	// PolicyNone passes frames through untouched.
	PolicyNone Policy = iota
	// PolicyRandomCrop crops to the crop resolution at a uniformly random
	// position.
	PolicyRandomCrop
	// PolicyCenterCrop crops to the target resolution, centered.
	PolicyCenterCrop
	// PolicyResizeCenterCrop resizes the shortest side to the smaller
	// target dimension, then center-crops to the exact target resolution.
	PolicyResizeCenterCrop
	// PolicyResize scales directly to the target resolution, ignoring the
	// aspect ratio.
	PolicyResize
)

// ErrUnknownPolicy is returned for an unrecognized policy name.
var ErrUnknownPolicy = errors.New("transform: unknown spatial transform policy")

// String returns the policy name.
func (p Policy) String() string {
	switch p {
	case PolicyNone:
		return "none"
	case PolicyRandomCrop:
		return "random_crop"
	case PolicyCenterCrop:
		return "center_crop"
	case PolicyResizeCenterCrop:
		return "resize_center_crop"
	case PolicyResize:
		return "resize"
	default:
		return "unknown"
	}
}

// ParsePolicy parses a policy name. The empty string and "none" map to
// PolicyNone.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "none":
		return PolicyNone, nil
	case "random_crop":
		return PolicyRandomCrop, nil
	case "center_crop":
		return PolicyCenterCrop, nil
	case "resize_center_crop":
		return PolicyResizeCenterCrop, nil
	case "resize":
		return PolicyResize, nil
	default:
		return PolicyNone, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// Options configures transform construction.
type Options struct {
	// Height and Width are the target resolution. Required by every
	// policy except random_crop and none.
	Height int
	Width  int

	// CropHeight and CropWidth are the crop size for random_crop.
	CropHeight int
	CropWidth  int

	// Rand is the randomness source for random_crop. A time-seeded source
	// is used when nil.
	Rand *rand.Rand
}

// New builds the transform for a policy. It returns (nil, nil) for
// PolicyNone; the caller treats a nil transform as passthrough.
func New(p Policy, opts Options) (ports.SpatialTransform, error) {
	switch p {
	case PolicyNone:
		return nil, nil
	case PolicyRandomCrop:
		if opts.CropHeight <= 0 || opts.CropWidth <= 0 {
			return nil, fmt.Errorf("transform: random_crop requires a crop resolution")
		}
		rng := opts.Rand
		if rng == nil {
			rng = rand.New(rand.NewSource(time.Now().UnixNano()))
		}
		return &randomCrop{h: opts.CropHeight, w: opts.CropWidth, rng: rng}, nil
	case PolicyCenterCrop:
		if opts.Height <= 0 || opts.Width <= 0 {
			return nil, fmt.Errorf("transform: center_crop requires a target resolution")
		}
		return &centerCrop{h: opts.Height, w: opts.Width}, nil
	case PolicyResizeCenterCrop:
		if opts.Height <= 0 || opts.Width <= 0 {
			return nil, fmt.Errorf("transform: resize_center_crop requires a target resolution")
		}
		return &resizeCenterCrop{h: opts.Height, w: opts.Width}, nil
	case PolicyResize:
		if opts.Height <= 0 || opts.Width <= 0 {
			return nil, fmt.Errorf("transform: resize requires a target resolution")
		}
		return &resize{h: opts.Height, w: opts.Width}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownPolicy, p)
	}
}

type randomCrop struct {
	h, w int
	rng  *rand.Rand
}

func (t *randomCrop) Apply(v *tensor.Video) (*tensor.Video, error) {
	if v.H() < t.h || v.W() < t.w {
		return nil, fmt.Errorf("transform: frame %dx%d smaller than crop %dx%d", v.W(), v.H(), t.w, t.h)
	}
	y0, x0 := 0, 0
	if v.H() > t.h {
		y0 = t.rng.Intn(v.H() - t.h + 1)
	}
	if v.W() > t.w {
		x0 = t.rng.Intn(v.W() - t.w + 1)
	}
	return v.Crop(y0, x0, t.h, t.w)
}

type centerCrop struct {
	h, w int
}

func (t *centerCrop) Apply(v *tensor.Video) (*tensor.Video, error) {
	if v.H() < t.h || v.W() < t.w {
		return nil, fmt.Errorf("transform: frame %dx%d smaller than crop %dx%d", v.W(), v.H(), t.w, t.h)
	}
	return v.Crop((v.H()-t.h)/2, (v.W()-t.w)/2, t.h, t.w)
}

type resizeCenterCrop struct {
	h, w int
}

func (t *resizeCenterCrop) Apply(v *tensor.Video) (*tensor.Video, error) {
	// Resize so the shortest side matches the smaller target dimension,
	// preserving aspect ratio, then crop the center.
	short := t.h
	if t.w < short {
		short = t.w
	}
	var newH, newW int
	if v.H() <= v.W() {
		newH = short
		newW = roundScale(v.W(), short, v.H())
	} else {
		newW = short
		newH = roundScale(v.H(), short, v.W())
	}
	resized, err := scaleFrames(v, newH, newW)
	if err != nil {
		return nil, err
	}
	if resized.H() < t.h || resized.W() < t.w {
		return nil, fmt.Errorf("transform: resized frame %dx%d smaller than crop %dx%d", resized.W(), resized.H(), t.w, t.h)
	}
	return resized.Crop((resized.H()-t.h)/2, (resized.W()-t.w)/2, t.h, t.w)
}

type resize struct {
	h, w int
}

func (t *resize) Apply(v *tensor.Video) (*tensor.Video, error) {
	return scaleFrames(v, t.h, t.w)
}

// roundScale computes round(side * short / other).
func roundScale(side, short, other int) int {
	return (side*short + other/2) / other
}

// scaleFrames resizes every frame to (h,w) with Catmull-Rom interpolation.
func scaleFrames(v *tensor.Video, h, w int) (*tensor.Video, error) {
	if h <= 0 || w <= 0 {
		return nil, fmt.Errorf("transform: invalid resize target %dx%d", w, h)
	}
	if h == v.H() && w == v.W() {
		return v, nil
	}
	frames := make([]image.Image, v.T())
	for t := 0; t < v.T(); t++ {
		src := v.FrameImage(t)
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
		frames[t] = dst
	}
	return tensor.FromFrames(frames)
}

var (
	_ ports.SpatialTransform = (*randomCrop)(nil)
	_ ports.SpatialTransform = (*centerCrop)(nil)
	_ ports.SpatialTransform = (*resizeCenterCrop)(nil)
	_ ports.SpatialTransform = (*resize)(nil)
)
