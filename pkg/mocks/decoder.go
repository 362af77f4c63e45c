package mocks

import (
	"fmt"
	"image"
	"image/color"

	"github.com/user/clipset/pkg/ports"
)

// Video describes one fake video file served by the mock decoder.
type Video struct {
	FrameCount int
	AvgFPS     float64
	Width      int
	Height     int

	// OpenErr makes Open fail for this video.
	OpenErr error
	// BatchErr makes GetBatch fail for this video.
	BatchErr error
}

// VideoDecoder is a mock implementation of ports.VideoDecoder backed by a
// map from path to fake video.
type VideoDecoder struct {
	Videos map[string]Video

	// OpenCalls records every opened path in order.
	OpenCalls []string
	// Handles records every handle returned by Open, in order.
	Handles []*VideoHandle
	// LastOpenOptions records the options of the most recent Open.
	LastOpenOptions ports.OpenOptions

	OpenFunc func(path string, opts ports.OpenOptions) (ports.VideoHandle, error)
}

// NewVideoDecoder creates a mock decoder with no videos.
func NewVideoDecoder() *VideoDecoder {
	return &VideoDecoder{Videos: make(map[string]Video)}
}

func (m *VideoDecoder) Open(path string, opts ports.OpenOptions) (ports.VideoHandle, error) {
	m.OpenCalls = append(m.OpenCalls, path)
	m.LastOpenOptions = opts
	if m.OpenFunc != nil {
		return m.OpenFunc(path, opts)
	}
	video, ok := m.Videos[path]
	if !ok {
		return nil, fmt.Errorf("video not found: %s", path)
	}
	if video.OpenErr != nil {
		return nil, video.OpenErr
	}
	handle := &VideoHandle{Video: video, Opts: opts}
	m.Handles = append(m.Handles, handle)
	return handle, nil
}

// VideoHandle is the mock handle returned by VideoDecoder.
type VideoHandle struct {
	Video Video
	Opts  ports.OpenOptions

	// BatchCalls records every requested index batch.
	BatchCalls [][]int
	Closed     bool

	GetBatchFunc func(indices []int) ([]image.Image, error)
}

func (m *VideoHandle) FrameCount() int {
	return m.Video.FrameCount
}

func (m *VideoHandle) AvgFPS() float64 {
	return m.Video.AvgFPS
}

// GetBatch returns uniform gray frames whose shade encodes the frame
// index, so tests can verify which frames were decoded.
func (m *VideoHandle) GetBatch(indices []int) ([]image.Image, error) {
	m.BatchCalls = append(m.BatchCalls, append([]int(nil), indices...))
	if m.GetBatchFunc != nil {
		return m.GetBatchFunc(indices)
	}
	if m.Video.BatchErr != nil {
		return nil, m.Video.BatchErr
	}
	w, h := m.Video.Width, m.Video.Height
	if m.Opts.DecodeWidth > 0 && m.Opts.DecodeHeight > 0 {
		w, h = m.Opts.DecodeWidth, m.Opts.DecodeHeight
	}
	if w == 0 {
		w = 8
	}
	if h == 0 {
		h = 8
	}
	frames := make([]image.Image, len(indices))
	for i, idx := range indices {
		if idx < 0 || idx >= m.Video.FrameCount {
			return nil, fmt.Errorf("frame index %d out of range", idx)
		}
		img := image.NewRGBA(image.Rect(0, 0, w, h))
		shade := uint8(idx % 256)
		for p := 0; p < len(img.Pix); p += 4 {
			img.Pix[p+0] = shade
			img.Pix[p+1] = shade
			img.Pix[p+2] = shade
			img.Pix[p+3] = 255
		}
		frames[i] = img
	}
	return frames, nil
}

func (m *VideoHandle) Close() error {
	m.Closed = true
	return nil
}

// FrameShade returns the gray shade the default GetBatch uses for a frame
// index.
func FrameShade(idx int) color.Gray {
	return color.Gray{Y: uint8(idx % 256)}
}

// Ensure mocks implement the ports
var (
	_ ports.VideoDecoder = (*VideoDecoder)(nil)
	_ ports.VideoHandle  = (*VideoHandle)(nil)
)
