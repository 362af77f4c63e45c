// Package mp4decoder provides random-access frame decoding for MP4 files.
//
// The sample table is parsed with mp4ff to obtain the frame count and
// average frame rate without touching pixel data. Frame batches are then
// decoded by an external ffmpeg process selecting exactly the requested
// frame indices.
package mp4decoder

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/user/clipset/pkg/ports"
)

// Decoder implements ports.VideoDecoder for MP4 files.
type Decoder struct {
	logger ports.Logger
}

// New creates a new Decoder.
func New(logger ports.Logger) *Decoder {
	return &Decoder{logger: logger.WithComponent("mp4decoder")}
}

// Open opens and probes an MP4 file. The returned handle decodes frames
// lazily on GetBatch.
func (d *Decoder) Open(path string, opts ports.OpenOptions) (ports.VideoHandle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	d.logger.Debug("Probing %s", path)
	info, err := probe(f)
	if err != nil {
		return nil, err
	}

	return &handle{
		path:   path,
		opts:   opts,
		info:   info,
		logger: d.logger,
	}, nil
}

// handle is an open, probed MP4 file.
type handle struct {
	path   string
	opts   ports.OpenOptions
	info   probeInfo
	logger ports.Logger
}

// FrameCount returns the number of decodable frames.
func (h *handle) FrameCount() int {
	return h.info.frameCount
}

// AvgFPS returns the average frame rate of the source.
func (h *handle) AvgFPS() float64 {
	return h.info.avgFPS
}

// Close releases decoder resources. The handle holds no open file, so
// this is a no-op kept for the VideoHandle contract.
func (h *handle) Close() error {
	return nil
}

// GetBatch decodes the frames at the given indices with a single ffmpeg
// invocation writing PNGs to a temporary directory.
func (h *handle) GetBatch(indices []int) ([]image.Image, error) {
	if len(indices) == 0 {
		return nil, fmt.Errorf("no frame indices requested")
	}
	for _, idx := range indices {
		if idx < 0 || idx >= h.info.frameCount {
			return nil, fmt.Errorf("frame index %d out of range [0,%d)", idx, h.info.frameCount)
		}
	}

	ffmpegPath, err := findFFmpeg()
	if err != nil {
		return nil, err
	}

	tmpDir, err := os.MkdirTemp("", "clipset-frames-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	// ffmpeg emits selected frames in stream order; decode the sorted
	// unique set and map back to the requested order afterwards.
	sorted := uniqueSorted(indices)

	h.logger.Debug("Decoding %d frames from %s", len(sorted), h.path)

	outPattern := filepath.Join(tmpDir, "frame_%05d.png")
	cmd := exec.Command(ffmpegPath,
		"-i", h.path,
		"-vf", h.filterGraph(sorted),
		"-vsync", "0",
		"-f", "image2",
		outPattern,
		"-y",
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("ffmpeg: %w: %s", err, lastLine(output))
	}

	decoded := make(map[int]image.Image, len(sorted))
	for i, frameIdx := range sorted {
		framePath := filepath.Join(tmpDir, fmt.Sprintf("frame_%05d.png", i+1))
		img, err := readPNG(framePath)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", frameIdx, err)
		}
		decoded[frameIdx] = img
	}

	frames := make([]image.Image, len(indices))
	for i, idx := range indices {
		frames[i] = decoded[idx]
	}
	return frames, nil
}

// filterGraph builds the select (and optional scale) filter for a batch.
func (h *handle) filterGraph(sorted []int) string {
	terms := make([]string, len(sorted))
	for i, idx := range sorted {
		terms[i] = fmt.Sprintf("eq(n,%d)", idx)
	}
	graph := fmt.Sprintf("select='%s'", strings.Join(terms, "+"))
	if h.opts.DecodeWidth > 0 && h.opts.DecodeHeight > 0 {
		graph += fmt.Sprintf(",scale=%d:%d", h.opts.DecodeWidth, h.opts.DecodeHeight)
	}
	return graph
}

func uniqueSorted(indices []int) []int {
	out := make([]int, 0, len(indices))
	seen := make(map[int]bool, len(indices))
	for _, idx := range indices {
		if !seen[idx] {
			seen[idx] = true
			out = append(out, idx)
		}
	}
	sort.Ints(out)
	return out
}

func readPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return png.Decode(f)
}

func lastLine(output []byte) string {
	lines := strings.Split(strings.TrimSpace(string(output)), "\n")
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}

// Ensure interfaces are implemented
var (
	_ ports.VideoDecoder = (*Decoder)(nil)
	_ ports.VideoHandle  = (*handle)(nil)
)
