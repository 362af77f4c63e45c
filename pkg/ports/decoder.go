package ports

import "image"

// OpenOptions controls how a video file is opened for decoding.
type OpenOptions struct {
	// DecodeWidth and DecodeHeight request decoding at a fixed size.
	// When both are zero the video is decoded at its native resolution.
	DecodeWidth  int
	DecodeHeight int
}

// VideoDecoder abstracts opening video files for random-access decoding.
type VideoDecoder interface {
	// Open opens a video file and probes its sample table.
	// It returns an error if the file is missing or not a parseable video.
	Open(path string, opts OpenOptions) (VideoHandle, error)
}

// VideoHandle is an open video ready for frame retrieval.
type VideoHandle interface {
	// FrameCount returns the number of decodable frames.
	FrameCount() int

	// AvgFPS returns the average frame rate of the source.
	AvgFPS() float64

	// GetBatch decodes exactly the frames at the given indices, in order.
	// Indices must be in [0, FrameCount()). It returns an error if any
	// requested frame cannot be decoded.
	GetBatch(indices []int) ([]image.Image, error)

	// Close releases decoder resources.
	Close() error
}
