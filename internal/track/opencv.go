package track

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
	"gocv.io/x/gocv/contrib"
)

// OpenCVTracker wraps one of the library-provided trackers behind the
// Method interface. The underlying algorithm is opaque: only the reported
// bounding box and success flag are consumed.
type OpenCVTracker struct {
	name    string
	tracker gocv.Tracker
	lost    bool
	inited  bool
}

// NewOpenCV creates a wrapper around the named contrib tracker
// (csrt, kcf or mosse).
func NewOpenCV(name string) (*OpenCVTracker, error) {
	var tracker gocv.Tracker
	switch name {
	case MethodCSRT:
		tracker = contrib.NewTrackerCSRT()
	case MethodKCF:
		tracker = contrib.NewTrackerKCF()
	case MethodMOSSE:
		tracker = contrib.NewTrackerMOSSE()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, name)
	}

	return &OpenCVTracker{name: name, tracker: tracker}, nil
}

// Name returns the method name.
func (t *OpenCVTracker) Name() string { return t.name }

// Init hands the first frame and region to the underlying tracker.
func (t *OpenCVTracker) Init(frame gocv.Mat, roi image.Rectangle) error {
	if ok := t.tracker.Init(frame, roi); !ok {
		return fmt.Errorf("%w: %s", ErrInitFailed, t.name)
	}
	t.lost = false
	t.inited = true
	return nil
}

// Update advances the tracker by one frame. A failed update or a
// degenerate box latches the lost state; the run continues without this
// method.
func (t *OpenCVTracker) Update(frame gocv.Mat) (Result, error) {
	if !t.inited {
		return Result{}, ErrNotInitialized
	}
	if t.lost {
		return Result{Lost: true}, nil
	}

	box, ok := t.tracker.Update(frame)
	if !ok || box.Dx() <= 0 || box.Dy() <= 0 {
		t.lost = true
		return Result{Lost: true}, nil
	}

	box = clampBox(box, frame)
	if box.Empty() {
		t.lost = true
		return Result{Lost: true}, nil
	}

	return Result{Box: box}, nil
}

// Close releases the native tracker resources.
func (t *OpenCVTracker) Close() error {
	if t.tracker != nil {
		t.tracker.Close()
		t.tracker = nil
	}
	return nil
}
