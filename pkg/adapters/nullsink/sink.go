// Package nullsink provides a no-op debug sink.
package nullsink

import (
	"image"

	"github.com/user/clipset/pkg/ports"
)

// Sink discards all debug output.
type Sink struct{}

// New creates a new null Sink.
func New() *Sink {
	return &Sink{}
}

// Enabled returns false so callers can skip preparing debug data.
func (s *Sink) Enabled() bool {
	return false
}

// SaveClipFrames does nothing.
func (s *Sink) SaveClipFrames(sampleIndex int, frames []image.Image) error {
	return nil
}

// SaveSampleJSON does nothing.
func (s *Sink) SaveSampleJSON(sampleIndex int, data []byte) error {
	return nil
}

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)
