package video

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockSource plays back a fixed slice of frames for testing.
type MockSource struct {
	frames  []*gocv.Mat
	index   int
	fps     float64
	mu      sync.Mutex
	running bool
}

// NewMockSource creates a MockSource over the given frames.
func NewMockSource(frames []*gocv.Mat, fps float64) *MockSource {
	return &MockSource{frames: frames, fps: fps}
}

func (s *MockSource) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = true
	s.index = 0
	return nil
}

func (s *MockSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	return nil
}

// ReadFrame returns a clone of the next frame so callers may close it freely.
func (s *MockSource) ReadFrame() (*gocv.Mat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil, ErrSourceNotOpen
	}
	if s.index >= len(s.frames) {
		return nil, ErrEOF
	}

	frame := s.frames[s.index].Clone()
	s.index++
	return &frame, nil
}

func (s *MockSource) FPS() float64 { return s.fps }

func (s *MockSource) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
