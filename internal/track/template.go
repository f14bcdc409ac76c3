package track

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/d-naGit/cs-4337-FinalProject-d-naGit/internal/match"
)

// DefaultLossThreshold is the score below which the template method
// declares the target lost.
const DefaultLossThreshold = 0.5

// TemplateTracker tracks by matching a fixed grayscale template captured
// from the first frame. Each update is an independent full-frame search;
// the only state carried between frames is the template itself and the
// lost latch.
type TemplateTracker struct {
	metric    match.Metric
	threshold float64
	smoother  *Smoother
	smoothDt  float64

	template *image.Gray
	size     image.Point
	lost     bool
	inited   bool
}

// TemplateOption configures a TemplateTracker.
type TemplateOption func(*TemplateTracker)

// WithMetric selects the similarity metric.
func WithMetric(m match.Metric) TemplateOption {
	return func(t *TemplateTracker) { t.metric = m }
}

// WithLossThreshold sets the score below which the target counts as lost.
func WithLossThreshold(threshold float64) TemplateOption {
	return func(t *TemplateTracker) { t.threshold = threshold }
}

// WithSmoothing enables Kalman smoothing of the box center. dt is the
// frame interval in seconds.
func WithSmoothing(dt float64) TemplateOption {
	return func(t *TemplateTracker) { t.smoothDt = dt }
}

// NewTemplate creates a template tracker. Defaults: zero-mean normalized
// cross-correlation with a loss threshold of 0.5, no smoothing.
func NewTemplate(opts ...TemplateOption) *TemplateTracker {
	t := &TemplateTracker{
		metric:    match.MetricZNCC,
		threshold: DefaultLossThreshold,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Name returns the method name.
func (t *TemplateTracker) Name() string { return MethodTemplate }

// Init captures the template from roi in the first frame.
func (t *TemplateTracker) Init(frame gocv.Mat, roi image.Rectangle) error {
	gray, err := match.GrayFromMat(&frame)
	if err != nil {
		return fmt.Errorf("init template: %w", err)
	}

	tmpl, err := match.Crop(gray, roi)
	if err != nil {
		return fmt.Errorf("init template: %w", err)
	}

	t.template = tmpl
	t.size = image.Pt(tmpl.Bounds().Dx(), tmpl.Bounds().Dy())
	t.lost = false
	t.inited = true

	if t.smoothDt > 0 {
		center := image.Pt(roi.Min.X+t.size.X/2, roi.Min.Y+t.size.Y/2)
		t.smoother = NewSmoother(t.smoothDt, center)
	}

	return nil
}

// Update searches frame for the template and derives a bounding box from
// the best position. A score below the loss threshold latches the lost
// state; a malformed frame aborts the method with an error.
func (t *TemplateTracker) Update(frame gocv.Mat) (Result, error) {
	if !t.inited {
		return Result{}, ErrNotInitialized
	}
	if t.lost {
		return Result{Lost: true}, nil
	}

	gray, err := match.GrayFromMat(&frame)
	if err != nil {
		return Result{}, fmt.Errorf("template update: %w", err)
	}

	res, err := match.Match(gray, t.template, t.metric)
	if err != nil {
		return Result{}, fmt.Errorf("template update: %w", err)
	}

	if res.Score < t.threshold {
		t.lost = true
		return Result{Score: res.Score, HasScore: true, Lost: true}, nil
	}

	box := image.Rect(res.Point.X, res.Point.Y, res.Point.X+t.size.X, res.Point.Y+t.size.Y)

	if t.smoother != nil {
		center, err := t.smoother.Smooth(box)
		if err != nil {
			return Result{}, fmt.Errorf("template update: %w", err)
		}
		box = image.Rect(
			center.X-t.size.X/2, center.Y-t.size.Y/2,
			center.X-t.size.X/2+t.size.X, center.Y-t.size.Y/2+t.size.Y,
		)
	}

	box = clampBox(box, frame)
	if box.Empty() {
		t.lost = true
		return Result{Score: res.Score, HasScore: true, Lost: true}, nil
	}

	return Result{Box: box, Score: res.Score, HasScore: true}, nil
}

// Close releases resources. The template tracker holds none.
func (t *TemplateTracker) Close() error { return nil }
