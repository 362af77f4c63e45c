package mp4decoder

import (
	"fmt"
	"io"

	"github.com/Eyevinn/mp4ff/mp4"
)

// probeInfo holds the sample-table facts needed for clip sampling.
type probeInfo struct {
	frameCount int
	avgFPS     float64
}

// probe parses an MP4 and derives the video track's frame count and
// average frame rate from its sample tables.
func probe(reader io.ReadSeeker) (probeInfo, error) {
	mp4File, err := mp4.DecodeFile(reader)
	if err != nil {
		return probeInfo{}, fmt.Errorf("decode mp4: %w", err)
	}

	if mp4File.IsFragmented() {
		return probeFragmented(mp4File)
	}
	return probeProgressive(mp4File)
}

func probeProgressive(mp4File *mp4.File) (probeInfo, error) {
	if mp4File.Moov == nil {
		return probeInfo{}, fmt.Errorf("no moov box found")
	}

	trak := findVideoTrak(mp4File.Moov.Traks)
	if trak == nil {
		return probeInfo{}, fmt.Errorf("no video track found")
	}

	timescale := trackTimescale(trak)

	if trak.Mdia == nil || trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil {
		return probeInfo{}, fmt.Errorf("no sample table found")
	}
	stbl := trak.Mdia.Minf.Stbl
	if stbl.Stsz == nil {
		return probeInfo{}, fmt.Errorf("no stsz box found")
	}
	frameCount := int(stbl.Stsz.SampleNumber)
	if frameCount == 0 {
		return probeInfo{}, fmt.Errorf("video track has no samples")
	}

	// Total duration in timescale units: decode time of the last sample
	// plus its duration.
	var totalDur uint64
	if stbl.Stts != nil {
		decodeTime, dur := stbl.Stts.GetDecodeTime(uint32(frameCount))
		totalDur = decodeTime + uint64(dur)
	}

	return probeInfo{
		frameCount: frameCount,
		avgFPS:     averageFPS(frameCount, totalDur, timescale),
	}, nil
}

func probeFragmented(mp4File *mp4.File) (probeInfo, error) {
	if mp4File.Init == nil || mp4File.Init.Moov == nil {
		return probeInfo{}, fmt.Errorf("no init segment found")
	}

	trak := findVideoTrak(mp4File.Init.Moov.Traks)
	if trak == nil {
		return probeInfo{}, fmt.Errorf("no video track found")
	}
	trackID := trak.Tkhd.TrackID
	timescale := trackTimescale(trak)

	var defaultDur uint32
	if mp4File.Init.Moov.Mvex != nil {
		for _, trex := range mp4File.Init.Moov.Mvex.Trexs {
			if trex.TrackID == trackID {
				defaultDur = trex.DefaultSampleDuration
				break
			}
		}
	}

	frameCount := 0
	var totalDur uint64
	for _, seg := range mp4File.Segments {
		for _, frag := range seg.Fragments {
			if frag.Moof == nil {
				continue
			}
			for _, traf := range frag.Moof.Trafs {
				if traf.Tfhd == nil || traf.Tfhd.TrackID != trackID {
					continue
				}
				fragDefault := defaultDur
				if traf.Tfhd.HasDefaultSampleDuration() {
					fragDefault = traf.Tfhd.DefaultSampleDuration
				}
				for _, trun := range traf.Truns {
					n := int(trun.SampleCount())
					frameCount += n
					if trun.HasSampleDuration() {
						for _, sample := range trun.Samples {
							totalDur += uint64(sample.Dur)
						}
					} else {
						totalDur += uint64(n) * uint64(fragDefault)
					}
				}
			}
		}
	}

	if frameCount == 0 {
		return probeInfo{}, fmt.Errorf("video track has no samples")
	}

	return probeInfo{
		frameCount: frameCount,
		avgFPS:     averageFPS(frameCount, totalDur, timescale),
	}, nil
}

func findVideoTrak(traks []*mp4.TrakBox) *mp4.TrakBox {
	for _, trak := range traks {
		if trak.Mdia != nil && trak.Mdia.Hdlr != nil && trak.Mdia.Hdlr.HandlerType == "vide" {
			return trak
		}
	}
	return nil
}

func trackTimescale(trak *mp4.TrakBox) uint32 {
	if trak.Mdia != nil && trak.Mdia.Mdhd != nil && trak.Mdia.Mdhd.Timescale > 0 {
		return trak.Mdia.Mdhd.Timescale
	}
	return 1000
}

func averageFPS(frameCount int, totalDur uint64, timescale uint32) float64 {
	if totalDur == 0 {
		return 0
	}
	return float64(frameCount) * float64(timescale) / float64(totalDur)
}
