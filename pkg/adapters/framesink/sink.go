// Package framesink provides a file-based debug sink implementation.
package framesink

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/user/clipset/pkg/ports"
)

// Columns per contact sheet row.
const sheetColumns = 4

// Sink saves sampled clips to files for visual inspection.
type Sink struct {
	baseDir  string
	fs       ports.FileSystem
	renderer ports.Renderer
}

// New creates a new Sink writing under baseDir.
func New(baseDir string, fs ports.FileSystem, renderer ports.Renderer) *Sink {
	return &Sink{
		baseDir:  baseDir,
		fs:       fs,
		renderer: renderer,
	}
}

// Enabled returns true as this sink saves output.
func (s *Sink) Enabled() bool {
	return true
}

// SaveClipFrames renders the frames of one sample as a contact sheet PNG.
func (s *Sink) SaveClipFrames(sampleIndex int, frames []image.Image) error {
	sheet := s.renderer.ContactSheet(frames, sheetColumns)
	data, err := s.renderer.EncodeImage(sheet, ports.FormatPNG, 0)
	if err != nil {
		return fmt.Errorf("encode contact sheet: %w", err)
	}
	path := filepath.Join(s.baseDir, fmt.Sprintf("sample-%06d.png", sampleIndex))
	return s.fs.WriteFile(path, data)
}

// SaveSampleJSON saves the bookkeeping of one sample as JSON.
func (s *Sink) SaveSampleJSON(sampleIndex int, data []byte) error {
	path := filepath.Join(s.baseDir, fmt.Sprintf("sample-%06d.json", sampleIndex))
	return s.fs.WriteFile(path, data)
}

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)
