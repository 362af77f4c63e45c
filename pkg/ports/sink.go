package ports

import "image"

// DebugSink receives intermediate results of clip sampling for inspection.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SaveClipFrames saves the decoded frames of one sample.
	SaveClipFrames(sampleIndex int, frames []image.Image) error

	// SaveSampleJSON saves the bookkeeping of one sample as JSON.
	SaveSampleJSON(sampleIndex int, data []byte) error
}
