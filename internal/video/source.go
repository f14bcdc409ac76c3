// Package video provides sequential frame access to video files using GoCV (OpenCV).
package video

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// ErrSourceNotOpen is returned when reading from a source that is not open.
var ErrSourceNotOpen = errors.New("video source is not open")

// ErrEOF is returned when the source has no more frames.
var ErrEOF = errors.New("end of video stream")

// Source defines the interface for ordered, finite frame sequences.
// Frames are consumed one at a time in order; sources never seek backward.
type Source interface {
	Open() error
	Close() error
	ReadFrame() (*gocv.Mat, error)
	FPS() float64
	IsOpen() bool
}

// fileSource reads frames from a video file using GoCV.
type fileSource struct {
	path    string
	capture *gocv.VideoCapture
	mu      sync.Mutex
	running bool
	fps     float64
}

// NewFileSource creates a Source for the video file at path.
func NewFileSource(path string) Source {
	return &fileSource{path: path}
}

// Open opens the video file for reading.
func (s *fileSource) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	capture, err := gocv.VideoCaptureFile(s.path)
	if err != nil {
		return fmt.Errorf("open video %s: %w", s.path, err)
	}

	s.capture = capture
	s.fps = capture.Get(gocv.VideoCaptureFPS)
	s.running = true

	return nil
}

// Close closes the video file and releases resources.
func (s *fileSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || s.capture == nil {
		s.running = false
		return nil
	}

	err := s.capture.Close()
	s.capture = nil
	s.running = false

	return err
}

// ReadFrame reads the next frame from the video.
// The caller is responsible for closing the returned Mat.
// Returns ErrEOF once the stream is exhausted.
func (s *fileSource) ReadFrame() (*gocv.Mat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || s.capture == nil {
		return nil, ErrSourceNotOpen
	}

	mat := gocv.NewMat()
	if ok := s.capture.Read(&mat); !ok {
		mat.Close()
		return nil, ErrEOF
	}

	if mat.Empty() {
		mat.Close()
		return nil, ErrEOF
	}

	return &mat, nil
}

// FPS returns the frame rate reported by the video file.
func (s *fileSource) FPS() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.fps
}

// IsOpen returns true if the source is currently open.
func (s *fileSource) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}
