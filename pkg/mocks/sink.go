package mocks

import (
	"image"
	"sync"

	"github.com/user/clipset/pkg/ports"
)

// DebugSink is a mock implementation of ports.DebugSink that records what
// was saved.
type DebugSink struct {
	mu sync.Mutex

	// EnabledValue is returned by Enabled. Defaults to true.
	EnabledValue bool

	ClipFrames map[int][]image.Image
	SampleJSON map[int][]byte

	SaveClipFramesFunc func(sampleIndex int, frames []image.Image) error
	SaveSampleJSONFunc func(sampleIndex int, data []byte) error
}

// NewDebugSink creates an enabled recording sink.
func NewDebugSink() *DebugSink {
	return &DebugSink{
		EnabledValue: true,
		ClipFrames:   make(map[int][]image.Image),
		SampleJSON:   make(map[int][]byte),
	}
}

func (m *DebugSink) Enabled() bool {
	return m.EnabledValue
}

func (m *DebugSink) SaveClipFrames(sampleIndex int, frames []image.Image) error {
	if m.SaveClipFramesFunc != nil {
		return m.SaveClipFramesFunc(sampleIndex, frames)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ClipFrames[sampleIndex] = frames
	return nil
}

func (m *DebugSink) SaveSampleJSON(sampleIndex int, data []byte) error {
	if m.SaveSampleJSONFunc != nil {
		return m.SaveSampleJSONFunc(sampleIndex, data)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SampleJSON[sampleIndex] = data
	return nil
}

// Ensure DebugSink implements ports.DebugSink
var _ ports.DebugSink = (*DebugSink)(nil)
