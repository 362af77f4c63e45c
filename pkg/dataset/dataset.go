// Package dataset implements the sampleable clip source: an indexable,
// retry-on-failure view of a video corpus with paired captions.
package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"math"
	"math/rand"
	"path/filepath"
	"sync"
	"time"

	"github.com/user/clipset/pkg/metadata"
	"github.com/user/clipset/pkg/ports"
	"github.com/user/clipset/pkg/tensor"
	"github.com/user/clipset/pkg/transform"
)

// Default decode size when not decoding at native resolution.
const (
	DefaultDecodeWidth  = 530
	DefaultDecodeHeight = 300
)

var (
	// ErrEmptyDataset is returned when the metadata table has no usable
	// rows.
	ErrEmptyDataset = errors.New("dataset: no metadata rows")

	// ErrNoValidSample is returned when the retry budget is exhausted
	// without producing a sample.
	ErrNoValidSample = errors.New("dataset: no valid sample found")

	// ErrResolutionMismatch signals a transform/config bug: the
	// transformed frames do not match the configured target resolution.
	// It is never retried.
	ErrResolutionMismatch = errors.New("dataset: transformed resolution does not match target")
)

// Options configures a ClipSource.
type Options struct {
	// MetaPath is the path of the metadata CSV.
	MetaPath string

	// DataDir is the corpus root. Videos live at
	// DataDir/videos/<page_dir>/<videoid>.mp4.
	DataDir string

	// Subsample keeps only this many metadata rows when positive, drawn
	// deterministically with SubsampleSeed.
	Subsample     int
	SubsampleSeed int64

	// VideoLength is the number of frames per clip.
	VideoLength int

	// Height and Width are the target resolution. Zero means no target
	// resolution (and no post-transform size check).
	Height int
	Width  int

	// FrameStride is the gap between consecutive sampled frame indices.
	// When RandomStride is set, the stride is drawn uniformly from
	// [FrameStrideMin, FrameStride] per attempt.
	FrameStride    int
	FrameStrideMin int
	RandomStride   bool

	// SpatialTransform names the transform policy (see pkg/transform).
	SpatialTransform string

	// CropHeight and CropWidth configure the random_crop policy.
	CropHeight int
	CropWidth  int

	// FPSMax caps the reported playback fps when positive.
	FPSMax int

	// LoadRawResolution decodes at the source resolution instead of the
	// fixed decode size.
	LoadRawResolution bool

	// DecodeWidth and DecodeHeight override the fixed decode size.
	DecodeWidth  int
	DecodeHeight int

	// FixedFPS rescales the stride so clips play at this fps regardless
	// of the source frame rate. Zero disables fps normalization.
	FixedFPS float64

	// MaxAttempts bounds the retry loop. Zero means one full pass over
	// the metadata table.
	MaxAttempts int

	// Seed seeds stride and window randomization. Zero uses the clock.
	Seed int64
}

// Sample is one training sample: a clip tensor with its caption and
// frame-rate bookkeeping.
type Sample struct {
	// Video is a (C,T,H,W) float32 tensor with values in [-1,1].
	Video *tensor.Video

	// Caption is the paired text description.
	Caption string

	// Path is the resolved video file path.
	Path string

	// FPS is the effective playback rate of the clip, capped at the
	// configured ceiling.
	FPS int

	// FrameStride is the effective gap between sampled frame indices.
	FrameStride int
}

// ClipSource samples fixed-length clips from a video corpus. It retries
// internally over subsequent rows when a file is corrupt or too short, so
// callers always receive a valid sample or a fatal error.
type ClipSource struct {
	opts     Options
	table    *metadata.Table
	decoder  ports.VideoDecoder
	spatial  ports.SpatialTransform
	logger   ports.Logger
	sink     ports.DebugSink
	openOpts ports.OpenOptions
	stats    *Stats

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

// New builds a ClipSource. It loads the metadata table eagerly and fails
// on an unrecognized spatial transform policy.
func New(opts Options, decoder ports.VideoDecoder, fs ports.FileSystem, logger ports.Logger, sink ports.DebugSink) (*ClipSource, error) {
	if opts.VideoLength < 1 {
		return nil, fmt.Errorf("dataset: video length must be at least 1, got %d", opts.VideoLength)
	}
	if opts.FrameStride < 1 {
		opts.FrameStride = 1
	}
	if opts.FrameStrideMin < 1 {
		opts.FrameStrideMin = 1
	}
	if opts.FrameStrideMin > opts.FrameStride {
		return nil, fmt.Errorf("dataset: minimum stride %d exceeds stride %d", opts.FrameStrideMin, opts.FrameStride)
	}

	policy, err := transform.ParsePolicy(opts.SpatialTransform)
	if err != nil {
		return nil, err
	}

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	spatial, err := transform.New(policy, transform.Options{
		Height:     opts.Height,
		Width:      opts.Width,
		CropHeight: opts.CropHeight,
		CropWidth:  opts.CropWidth,
		Rand:       rand.New(rand.NewSource(seed + 1)),
	})
	if err != nil {
		return nil, err
	}

	table, err := metadata.Load(fs, opts.MetaPath, opts.Subsample, opts.SubsampleSeed)
	if err != nil {
		return nil, err
	}
	logger.Info("%d metadata rows loaded", table.Len())

	openOpts := ports.OpenOptions{}
	if !opts.LoadRawResolution {
		openOpts.DecodeWidth = opts.DecodeWidth
		openOpts.DecodeHeight = opts.DecodeHeight
		if openOpts.DecodeWidth == 0 {
			openOpts.DecodeWidth = DefaultDecodeWidth
		}
		if openOpts.DecodeHeight == 0 {
			openOpts.DecodeHeight = DefaultDecodeHeight
		}
	}

	if sink == nil {
		sink = noSink{}
	}

	return &ClipSource{
		opts:     opts,
		table:    table,
		decoder:  decoder,
		spatial:  spatial,
		logger:   logger.WithComponent("dataset"),
		sink:     sink,
		openOpts: openOpts,
		stats:    newStats(),
		rng:      rng,
	}, nil
}

// Len returns the number of metadata rows.
func (s *ClipSource) Len() int {
	return s.table.Len()
}

// Stats returns a snapshot of the fps and stride histograms accumulated
// over all successful samples.
func (s *ClipSource) Stats() (fps, stride map[int]int) {
	return s.stats.Snapshot()
}

// VideoPath resolves the file path for a metadata row.
func (s *ClipSource) VideoPath(row metadata.Row) string {
	return filepath.Join(s.opts.DataDir, "videos", row.PageDir, row.VideoID+".mp4")
}

// Get returns the sample for an index. Any integer index is valid: it is
// wrapped modulo the row count. Rows that cannot produce a clip (missing
// file, too few frames, decode failure) are skipped in favor of the next
// row, up to the retry bound.
func (s *ClipSource) Get(index int) (*Sample, error) {
	n := s.table.Len()
	if n == 0 {
		return nil, ErrEmptyDataset
	}

	maxAttempts := s.opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = n
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		idx := ((index + attempt) % n + n) % n
		sample, err := s.sampleRow(idx)
		if err == nil {
			return sample, nil
		}
		if !errors.Is(err, errSkipRow) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("%w after %d attempts starting at index %d", ErrNoValidSample, maxAttempts, index)
}

// errSkipRow marks recoverable per-row failures inside the retry loop.
var errSkipRow = errors.New("skip row")

func skipRowf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, errSkipRow)...)
}

// sampleRow attempts to produce a sample from one metadata row. Failures
// that should advance the retry loop wrap errSkipRow.
func (s *ClipSource) sampleRow(idx int) (*Sample, error) {
	row := s.table.Row(idx)
	path := s.VideoPath(row)
	length := s.opts.VideoLength

	stride := s.opts.FrameStride
	if s.opts.RandomStride {
		stride = s.randInt(s.opts.FrameStrideMin, s.opts.FrameStride)
	}

	handle, err := s.decoder.Open(path, s.openOpts)
	if err != nil {
		s.logger.Warn("Load video failed: %s (%v)", path, err)
		return nil, skipRowf("open %s", path)
	}
	defer handle.Close()

	frameCount := handle.FrameCount()
	if frameCount < length {
		s.logger.Warn("Video too short: %s has %d frames, need %d", path, frameCount, length)
		return nil, skipRowf("short video %s", path)
	}

	fpsOri := handle.AvgFPS()
	if s.opts.FixedFPS > 0 {
		// Rescale the stride so the clip plays back at the fixed fps.
		stride = int(math.Round(float64(stride) * fpsOri / s.opts.FixedFPS))
	}
	if stride < 1 {
		stride = 1
	}

	required := stride*(length-1) + 1
	if frameCount < required {
		if s.opts.FixedFPS > 0 && float64(frameCount) < 0.5*float64(required) {
			// Too short even after adjustment: honoring the fixed fps
			// would halve the stride or worse.
			s.logger.Warn("Video too short for fixed fps: %s has %d frames, need %d", path, frameCount, required)
			return nil, skipRowf("short video for fixed fps %s", path)
		}
		stride = frameCount / length
		required = stride*(length-1) + 1
	}

	slack := frameCount - required
	start := 0
	if slack > 0 {
		start = s.randInt(0, slack)
	}

	indices := make([]int, length)
	for i := range indices {
		indices[i] = start + stride*i
	}

	frames, err := handle.GetBatch(indices)
	if err != nil {
		s.logger.Warn("Get frames failed: %s (max index %d of %d frames): %v", path, indices[length-1], frameCount, err)
		return nil, skipRowf("decode %s", path)
	}

	video, err := tensor.FromFrames(frames)
	if err != nil {
		s.logger.Warn("Convert frames failed: %s (%v)", path, err)
		return nil, skipRowf("convert %s", path)
	}

	if s.spatial != nil {
		video, err = s.spatial.Apply(video)
		if err != nil {
			s.logger.Warn("Spatial transform failed: %s (%v)", path, err)
			return nil, skipRowf("transform %s", path)
		}
	}

	if s.opts.Height > 0 && s.opts.Width > 0 {
		if video.H() != s.opts.Height || video.W() != s.opts.Width {
			// A mismatch here is a configuration bug, not bad data.
			return nil, fmt.Errorf("%w: got %dx%d, want %dx%d",
				ErrResolutionMismatch, video.W(), video.H(), s.opts.Width, s.opts.Height)
		}
	}

	s.saveDebug(idx, row, path, video, indices, stride)

	video.Normalize()

	// Reported fps always reflects the effective stride, including the
	// fallback path.
	fps := int(math.Floor(fpsOri / float64(stride)))
	if s.opts.FPSMax > 0 && fps > s.opts.FPSMax {
		fps = s.opts.FPSMax
	}

	s.stats.Record(fps, stride)

	return &Sample{
		Video:       video,
		Caption:     row.Caption,
		Path:        path,
		FPS:         fps,
		FrameStride: stride,
	}, nil
}

// randInt draws a uniform integer in [min, max] inclusive.
func (s *ClipSource) randInt(min, max int) int {
	if max <= min {
		return min
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return min + s.rng.Intn(max-min+1)
}

func (s *ClipSource) saveDebug(idx int, row metadata.Row, path string, video *tensor.Video, indices []int, stride int) {
	if !s.sink.Enabled() {
		return
	}

	frames := make([]image.Image, video.T())
	for t := range frames {
		frames[t] = video.FrameImage(t)
	}
	if err := s.sink.SaveClipFrames(idx, frames); err != nil {
		s.logger.Warn("Save clip frames failed: %v", err)
	}

	info := struct {
		Path         string `json:"path"`
		Caption      string `json:"caption"`
		FrameStride  int    `json:"frame_stride"`
		FrameIndices []int  `json:"frame_indices"`
	}{path, row.Caption, stride, indices}
	data, err := json.MarshalIndent(info, "", "  ")
	if err == nil {
		if err := s.sink.SaveSampleJSON(idx, data); err != nil {
			s.logger.Warn("Save sample info failed: %v", err)
		}
	}
}

// noSink is the default disabled sink.
type noSink struct{}

func (noSink) Enabled() bool                           { return false }
func (noSink) SaveClipFrames(int, []image.Image) error { return nil }
func (noSink) SaveSampleJSON(int, []byte) error        { return nil }
