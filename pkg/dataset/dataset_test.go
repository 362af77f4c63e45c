package dataset

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/user/clipset/pkg/mocks"
	"github.com/user/clipset/pkg/ports"
)

const testDataDir = "/corpus"

// newFixture builds a mock filesystem holding a metadata table with the
// given captions and a mock decoder with one video per row.
func newFixture(t *testing.T, rows int, video mocks.Video) (*mocks.FileSystem, *mocks.VideoDecoder) {
	t.Helper()

	var csv strings.Builder
	csv.WriteString("videoid,page_dir,name\n")
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&csv, "%d,000001_000050,caption %d\n", i+1, i+1)
	}

	fs := mocks.NewFileSystem()
	fs.SetFile("/corpus/meta.csv", []byte(csv.String()))

	decoder := mocks.NewVideoDecoder()
	for i := 0; i < rows; i++ {
		decoder.Videos[videoPath(i+1)] = video
	}

	return fs, decoder
}

func videoPath(id int) string {
	return fmt.Sprintf("/corpus/videos/000001_000050/%d.mp4", id)
}

func defaultOptions() Options {
	return Options{
		MetaPath:          "/corpus/meta.csv",
		DataDir:           testDataDir,
		VideoLength:       16,
		FrameStride:       6,
		LoadRawResolution: true,
		Seed:              42,
	}
}

func newSource(t *testing.T, opts Options, fs *mocks.FileSystem, decoder *mocks.VideoDecoder) (*ClipSource, *mocks.Logger) {
	t.Helper()
	log := mocks.NewLogger()
	source, err := New(opts, decoder, fs, log, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return source, log
}

func TestGet_BasicScenario(t *testing.T) {
	// 200-frame 30fps source, length 16, stride 6: required span is
	// 6*15+1 = 91, slack 109, reported fps 30/6 = 5.
	fs, decoder := newFixture(t, 1, mocks.Video{FrameCount: 200, AvgFPS: 30, Width: 32, Height: 32})
	source, _ := newSource(t, defaultOptions(), fs, decoder)

	sample, err := source.Get(0)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if sample.FrameStride != 6 {
		t.Errorf("FrameStride = %d, want 6", sample.FrameStride)
	}
	if sample.FPS != 5 {
		t.Errorf("FPS = %d, want 5", sample.FPS)
	}
	if sample.Video.T() != 16 {
		t.Errorf("T = %d, want 16", sample.Video.T())
	}
	if sample.Caption != "caption 1" {
		t.Errorf("Caption = %q, want %q", sample.Caption, "caption 1")
	}
	if sample.Path != videoPath(1) {
		t.Errorf("Path = %q, want %q", sample.Path, videoPath(1))
	}

	if len(decoder.Handles) != 1 {
		t.Fatalf("expected 1 handle, got %d", len(decoder.Handles))
	}
	handle := decoder.Handles[0]
	if !handle.Closed {
		t.Error("handle was not closed")
	}
	if len(handle.BatchCalls) != 1 {
		t.Fatalf("expected 1 batch call, got %d", len(handle.BatchCalls))
	}
	indices := handle.BatchCalls[0]
	if len(indices) != 16 {
		t.Fatalf("expected 16 indices, got %d", len(indices))
	}
	start := indices[0]
	if start < 0 || start > 109 {
		t.Errorf("start = %d, want in [0,109]", start)
	}
	for i, idx := range indices {
		if idx != start+6*i {
			t.Errorf("indices[%d] = %d, want %d", i, idx, start+6*i)
		}
	}
	if last := indices[15]; last >= 200 {
		t.Errorf("last index %d exceeds frame count 200", last)
	}
}

func TestGet_ValuesInRange(t *testing.T) {
	fs, decoder := newFixture(t, 1, mocks.Video{FrameCount: 40, AvgFPS: 30, Width: 8, Height: 8})
	source, _ := newSource(t, defaultOptions(), fs, decoder)

	sample, err := source.Get(0)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	v := sample.Video
	for c := 0; c < v.C(); c++ {
		for tt := 0; tt < v.T(); tt++ {
			for y := 0; y < v.H(); y++ {
				for x := 0; x < v.W(); x++ {
					val := v.At(c, tt, y, x)
					if val < -1 || val > 1 {
						t.Fatalf("value %f at (%d,%d,%d,%d) outside [-1,1]", val, c, tt, y, x)
					}
				}
			}
		}
	}
}

func TestGet_FallbackStride(t *testing.T) {
	// Only 50 frames: fallback stride is 50/16 = 3, required span 46.
	fs, decoder := newFixture(t, 1, mocks.Video{FrameCount: 50, AvgFPS: 30, Width: 8, Height: 8})
	source, _ := newSource(t, defaultOptions(), fs, decoder)

	sample, err := source.Get(0)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if sample.FrameStride != 3 {
		t.Errorf("FrameStride = %d, want 3", sample.FrameStride)
	}
	// Reported fps uses the effective stride: 30/3 = 10.
	if sample.FPS != 10 {
		t.Errorf("FPS = %d, want 10", sample.FPS)
	}

	indices := decoder.Handles[0].BatchCalls[0]
	if indices[0] < 0 || indices[0] > 4 {
		t.Errorf("start = %d, want in [0,4]", indices[0])
	}
	if last := indices[len(indices)-1]; last >= 50 {
		t.Errorf("last index %d exceeds frame count 50", last)
	}
}

func TestGet_SkipsCorruptRow(t *testing.T) {
	fs, decoder := newFixture(t, 5, mocks.Video{FrameCount: 100, AvgFPS: 30, Width: 8, Height: 8})
	corrupt := decoder.Videos[videoPath(4)]
	corrupt.OpenErr = errors.New("moov box missing")
	decoder.Videos[videoPath(4)] = corrupt

	source, log := newSource(t, defaultOptions(), fs, decoder)

	sample, err := source.Get(3)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if sample.Path != videoPath(5) {
		t.Errorf("Path = %q, want the next row %q", sample.Path, videoPath(5))
	}
	if log.CountLevel(ports.LevelWarn) == 0 {
		t.Error("expected a warning for the skipped row")
	}
}

func TestGet_SkipsShortVideo(t *testing.T) {
	fs, decoder := newFixture(t, 2, mocks.Video{FrameCount: 100, AvgFPS: 30, Width: 8, Height: 8})
	short := decoder.Videos[videoPath(1)]
	short.FrameCount = 10 // below the clip length of 16
	decoder.Videos[videoPath(1)] = short

	source, _ := newSource(t, defaultOptions(), fs, decoder)

	sample, err := source.Get(0)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if sample.Path != videoPath(2) {
		t.Errorf("Path = %q, want %q", sample.Path, videoPath(2))
	}
}

func TestGet_SkipsDecodeFailure(t *testing.T) {
	fs, decoder := newFixture(t, 2, mocks.Video{FrameCount: 100, AvgFPS: 30, Width: 8, Height: 8})
	bad := decoder.Videos[videoPath(1)]
	bad.BatchErr = errors.New("truncated mdat")
	decoder.Videos[videoPath(1)] = bad

	source, _ := newSource(t, defaultOptions(), fs, decoder)

	sample, err := source.Get(0)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if sample.Path != videoPath(2) {
		t.Errorf("Path = %q, want %q", sample.Path, videoPath(2))
	}
}

func TestGet_Wraparound(t *testing.T) {
	fs, decoder := newFixture(t, 3, mocks.Video{FrameCount: 100, AvgFPS: 30, Width: 8, Height: 8})
	source, _ := newSource(t, defaultOptions(), fs, decoder)

	for _, k := range []int{0, 1, 2} {
		wrapped, err := source.Get(3 + k)
		if err != nil {
			t.Fatalf("Get(%d) error = %v", 3+k, err)
		}
		direct, err := source.Get(k)
		if err != nil {
			t.Fatalf("Get(%d) error = %v", k, err)
		}
		if wrapped.Path != direct.Path {
			t.Errorf("Get(%d).Path = %q, Get(%d).Path = %q, want equal", 3+k, wrapped.Path, k, direct.Path)
		}
	}

	// Negative indices wrap as well.
	sample, err := source.Get(-1)
	if err != nil {
		t.Fatalf("Get(-1) error = %v", err)
	}
	if sample.Path != videoPath(3) {
		t.Errorf("Get(-1).Path = %q, want %q", sample.Path, videoPath(3))
	}
}

func TestGet_Exhaustion(t *testing.T) {
	fs, decoder := newFixture(t, 3, mocks.Video{FrameCount: 100, AvgFPS: 30, OpenErr: errors.New("corrupt"), Width: 8, Height: 8})
	source, _ := newSource(t, defaultOptions(), fs, decoder)

	_, err := source.Get(0)
	if !errors.Is(err, ErrNoValidSample) {
		t.Fatalf("Get() error = %v, want ErrNoValidSample", err)
	}
	// One full pass over the table by default.
	if len(decoder.OpenCalls) != 3 {
		t.Errorf("open calls = %d, want 3", len(decoder.OpenCalls))
	}
}

func TestGet_EmptyDataset(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.SetFile("/corpus/meta.csv", []byte("videoid,page_dir,name\n"))
	source, _ := newSource(t, defaultOptions(), fs, mocks.NewVideoDecoder())

	if source.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", source.Len())
	}
	if _, err := source.Get(0); !errors.Is(err, ErrEmptyDataset) {
		t.Fatalf("Get() error = %v, want ErrEmptyDataset", err)
	}
}

func TestGet_FixedFPSRescalesStride(t *testing.T) {
	// 30fps source with fixed fps 15 doubles the requested stride.
	fs, decoder := newFixture(t, 1, mocks.Video{FrameCount: 200, AvgFPS: 30, Width: 8, Height: 8})
	opts := defaultOptions()
	opts.FrameStride = 2
	opts.FixedFPS = 15
	source, _ := newSource(t, opts, fs, decoder)

	sample, err := source.Get(0)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if sample.FrameStride != 4 {
		t.Errorf("FrameStride = %d, want 4", sample.FrameStride)
	}
}

func TestGet_StrideNeverBelowOne(t *testing.T) {
	// Fixed fps far above the source fps would compute a zero stride.
	fs, decoder := newFixture(t, 1, mocks.Video{FrameCount: 100, AvgFPS: 10, Width: 8, Height: 8})
	opts := defaultOptions()
	opts.FrameStride = 1
	opts.FixedFPS = 60
	source, _ := newSource(t, opts, fs, decoder)

	sample, err := source.Get(0)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if sample.FrameStride != 1 {
		t.Errorf("FrameStride = %d, want 1", sample.FrameStride)
	}
}

func TestGet_FixedFPSSkipsVeryShortVideo(t *testing.T) {
	// With fixed fps active, a file with fewer than half the required
	// frames is skipped instead of falling back to a coarser stride.
	fs, decoder := newFixture(t, 2, mocks.Video{FrameCount: 200, AvgFPS: 30, Width: 8, Height: 8})
	short := decoder.Videos[videoPath(1)]
	short.FrameCount = 40 // required is 6*2*15+1 = 181, and 40 < 90.5
	decoder.Videos[videoPath(1)] = short

	opts := defaultOptions()
	opts.FixedFPS = 15
	source, _ := newSource(t, opts, fs, decoder)

	sample, err := source.Get(0)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if sample.Path != videoPath(2) {
		t.Errorf("Path = %q, want %q", sample.Path, videoPath(2))
	}
}

func TestGet_FPSCap(t *testing.T) {
	fs, decoder := newFixture(t, 1, mocks.Video{FrameCount: 200, AvgFPS: 60, Width: 8, Height: 8})
	opts := defaultOptions()
	opts.FrameStride = 1
	opts.FPSMax = 8
	source, _ := newSource(t, opts, fs, decoder)

	sample, err := source.Get(0)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if sample.FPS != 8 {
		t.Errorf("FPS = %d, want capped at 8", sample.FPS)
	}
}

func TestGet_DeterministicStrideWithoutRandomization(t *testing.T) {
	fs, decoder := newFixture(t, 1, mocks.Video{FrameCount: 200, AvgFPS: 30, Width: 8, Height: 8})
	source, _ := newSource(t, defaultOptions(), fs, decoder)

	first, err := source.Get(0)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	second, err := source.Get(0)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if first.FrameStride != second.FrameStride {
		t.Errorf("strides differ: %d vs %d", first.FrameStride, second.FrameStride)
	}
}

func TestGet_RandomStrideWithinBounds(t *testing.T) {
	fs, decoder := newFixture(t, 1, mocks.Video{FrameCount: 500, AvgFPS: 30, Width: 8, Height: 8})
	opts := defaultOptions()
	opts.RandomStride = true
	opts.FrameStrideMin = 2
	opts.FrameStride = 6
	source, _ := newSource(t, opts, fs, decoder)

	seen := map[int]bool{}
	for i := 0; i < 50; i++ {
		sample, err := source.Get(0)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if sample.FrameStride < 2 || sample.FrameStride > 6 {
			t.Fatalf("FrameStride = %d, want in [2,6]", sample.FrameStride)
		}
		seen[sample.FrameStride] = true
	}
	if len(seen) < 2 {
		t.Error("expected multiple strides over 50 randomized draws")
	}
}

func TestGet_TargetResolutionWithCenterCrop(t *testing.T) {
	fs, decoder := newFixture(t, 1, mocks.Video{FrameCount: 100, AvgFPS: 30})
	opts := defaultOptions()
	opts.LoadRawResolution = false // decode at the fixed 530x300 size
	opts.Height = 256
	opts.Width = 256
	opts.SpatialTransform = "center_crop"
	source, _ := newSource(t, opts, fs, decoder)

	sample, err := source.Get(0)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if sample.Video.H() != 256 || sample.Video.W() != 256 {
		t.Errorf("resolution = %dx%d, want 256x256", sample.Video.W(), sample.Video.H())
	}
	if decoder.LastOpenOptions.DecodeWidth != DefaultDecodeWidth || decoder.LastOpenOptions.DecodeHeight != DefaultDecodeHeight {
		t.Errorf("decode size = %dx%d, want %dx%d",
			decoder.LastOpenOptions.DecodeWidth, decoder.LastOpenOptions.DecodeHeight,
			DefaultDecodeWidth, DefaultDecodeHeight)
	}
}

func TestGet_ResolutionMismatchIsFatal(t *testing.T) {
	// Target resolution configured with a passthrough transform and
	// frames of a different size: a config bug, not a retryable row.
	fs, decoder := newFixture(t, 3, mocks.Video{FrameCount: 100, AvgFPS: 30, Width: 8, Height: 8})
	opts := defaultOptions()
	opts.Height = 256
	opts.Width = 256
	source, _ := newSource(t, opts, fs, decoder)

	_, err := source.Get(0)
	if !errors.Is(err, ErrResolutionMismatch) {
		t.Fatalf("Get() error = %v, want ErrResolutionMismatch", err)
	}
	if len(decoder.OpenCalls) != 1 {
		t.Errorf("open calls = %d, want 1 (no retry on contract violation)", len(decoder.OpenCalls))
	}
}

func TestGet_UpdatesHistograms(t *testing.T) {
	fs, decoder := newFixture(t, 1, mocks.Video{FrameCount: 200, AvgFPS: 30, Width: 8, Height: 8})
	source, _ := newSource(t, defaultOptions(), fs, decoder)

	for i := 0; i < 3; i++ {
		if _, err := source.Get(i); err != nil {
			t.Fatalf("Get(%d) error = %v", i, err)
		}
	}

	fps, stride := source.Stats()
	if fps[5] != 3 {
		t.Errorf("fps histogram[5] = %d, want 3", fps[5])
	}
	if stride[6] != 3 {
		t.Errorf("stride histogram[6] = %d, want 3", stride[6])
	}
}

func TestGet_SavesDebugOutput(t *testing.T) {
	fs, decoder := newFixture(t, 1, mocks.Video{FrameCount: 100, AvgFPS: 30, Width: 8, Height: 8})
	sink := mocks.NewDebugSink()
	log := mocks.NewLogger()
	source, err := New(defaultOptions(), decoder, fs, log, sink)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := source.Get(0); err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	frames, ok := sink.ClipFrames[0]
	if !ok {
		t.Fatal("sink did not receive clip frames")
	}
	if len(frames) != 16 {
		t.Errorf("sink received %d frames, want 16", len(frames))
	}
	if _, ok := sink.SampleJSON[0]; !ok {
		t.Error("sink did not receive sample JSON")
	}
}

func TestNew_UnknownTransformPolicy(t *testing.T) {
	fs, decoder := newFixture(t, 1, mocks.Video{FrameCount: 100, AvgFPS: 30})
	opts := defaultOptions()
	opts.SpatialTransform = "zoom_pan"

	if _, err := New(opts, decoder, fs, mocks.NewLogger(), nil); err == nil {
		t.Fatal("New() accepted an unknown transform policy")
	}
}

func TestNew_InvalidStrideBounds(t *testing.T) {
	fs, decoder := newFixture(t, 1, mocks.Video{FrameCount: 100, AvgFPS: 30})
	opts := defaultOptions()
	opts.FrameStrideMin = 10
	opts.FrameStride = 6

	if _, err := New(opts, decoder, fs, mocks.NewLogger(), nil); err == nil {
		t.Fatal("New() accepted a minimum stride above the stride")
	}
}

func TestGet_MaxAttemptsOverride(t *testing.T) {
	fs, decoder := newFixture(t, 10, mocks.Video{FrameCount: 100, AvgFPS: 30, OpenErr: errors.New("corrupt"), Width: 8, Height: 8})
	opts := defaultOptions()
	opts.MaxAttempts = 4
	source, _ := newSource(t, opts, fs, decoder)

	_, err := source.Get(0)
	if !errors.Is(err, ErrNoValidSample) {
		t.Fatalf("Get() error = %v, want ErrNoValidSample", err)
	}
	if len(decoder.OpenCalls) != 4 {
		t.Errorf("open calls = %d, want 4", len(decoder.OpenCalls))
	}
}
