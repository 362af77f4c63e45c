package dataset

import "sync"

// Stats accumulates fps and frame-stride histograms across all successful
// samples. It is safe for concurrent use so a single ClipSource can be
// shared by parallel workers.
type Stats struct {
	mu     sync.Mutex
	fps    map[int]int
	stride map[int]int
}

func newStats() *Stats {
	return &Stats{
		fps:    make(map[int]int),
		stride: make(map[int]int),
	}
}

// Record increments the histogram buckets for one sample.
func (s *Stats) Record(fps, stride int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fps[fps]++
	s.stride[stride]++
}

// Snapshot returns copies of both histograms.
func (s *Stats) Snapshot() (fps, stride map[int]int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fps = make(map[int]int, len(s.fps))
	for k, v := range s.fps {
		fps[k] = v
	}
	stride = make(map[int]int, len(s.stride))
	for k, v := range s.stride {
		stride[k] = v
	}
	return fps, stride
}
