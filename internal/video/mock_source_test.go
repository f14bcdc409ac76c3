package video

import (
	"errors"
	"testing"

	"gocv.io/x/gocv"
)

func TestMockSource_Playback(t *testing.T) {
	frame1 := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer frame1.Close()
	frame2 := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer frame2.Close()

	src := NewMockSource([]*gocv.Mat{&frame1, &frame2}, 30)

	if err := src.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer src.Close()

	if got := src.FPS(); got != 30 {
		t.Errorf("FPS() = %v, want 30", got)
	}

	// Both frames read in order.
	for i := 0; i < 2; i++ {
		f, err := src.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() frame %d error = %v", i, err)
		}
		f.Close()
	}

	// Exhausted source reports end of stream.
	_, err := src.ReadFrame()
	if !errors.Is(err, ErrEOF) {
		t.Errorf("ReadFrame() after last frame error = %v, want ErrEOF", err)
	}
}

func TestMockSource_ReadBeforeOpen(t *testing.T) {
	frame := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer frame.Close()

	src := NewMockSource([]*gocv.Mat{&frame}, 15)

	_, err := src.ReadFrame()
	if !errors.Is(err, ErrSourceNotOpen) {
		t.Errorf("ReadFrame() error = %v, want ErrSourceNotOpen", err)
	}
}

func TestMockSource_ReopenRestarts(t *testing.T) {
	frame := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer frame.Close()

	src := NewMockSource([]*gocv.Mat{&frame}, 15)
	src.Open()

	f, err := src.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame() error = %v", err)
	}
	f.Close()

	src.Close()
	src.Open()

	// Reopening rewinds to the first frame.
	f, err = src.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame() after reopen error = %v", err)
	}
	f.Close()
}
