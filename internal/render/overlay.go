// Package render draws per-method tracking overlays and drives the
// on-screen comparison window.
package render

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/d-naGit/cs-4337-FinalProject-d-naGit/internal/track"
)

// Drawing constants.
const (
	// WindowName is the title of the comparison window.
	WindowName = "Tracking comparison"
	// ROIWindowName is the title of the region selection window.
	ROIWindowName = "Select ROI"
	// BoxThickness is the rectangle line width in pixels.
	BoxThickness = 2
	// LabelScale is the font scale for method labels.
	LabelScale = 0.5
	// WaitMs is the per-frame display delay in milliseconds.
	WaitMs = 30
)

// MethodColors assigns each method a distinct color.
var MethodColors = map[string]color.RGBA{
	track.MethodTemplate: {G: 255, A: 255},
	track.MethodCSRT:     {R: 255, A: 255},
	track.MethodKCF:      {B: 255, A: 255},
	track.MethodMOSSE:    {R: 255, G: 255, A: 255},
}

var fallbackColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// Overlay annotates frames with per-method boxes and optionally shows
// them in a window.
type Overlay struct {
	display bool
	window  *gocv.Window
}

// New creates an Overlay. With display enabled, frames are shown in a
// window and the user may quit with 'q' or ESC.
func New(display bool) *Overlay {
	o := &Overlay{display: display}
	if display {
		o.window = gocv.NewWindow(WindowName)
	}
	return o
}

// SelectROI opens a selection window on frame and blocks until the user
// confirms a region. Only meaningful in display mode.
func (o *Overlay) SelectROI(frame gocv.Mat) image.Rectangle {
	win := gocv.NewWindow(ROIWindowName)
	defer win.Close()
	return win.SelectROI(frame)
}

// Annotate draws every method's current result onto a copy of frame.
// Lost methods are skipped. The caller owns the returned Mat.
func (o *Overlay) Annotate(frame gocv.Mat, results map[string]track.Result) gocv.Mat {
	annotated := frame.Clone()

	for _, name := range track.AllMethods() {
		res, ok := results[name]
		if !ok || res.Lost {
			continue
		}

		c, ok := MethodColors[name]
		if !ok {
			c = fallbackColor
		}

		gocv.Rectangle(&annotated, res.Box, c, BoxThickness)

		label := name
		if res.HasScore {
			label = fmt.Sprintf("%s (%.2f)", name, res.Score)
		}
		labelY := res.Box.Min.Y - 10
		if labelY < 0 {
			labelY = 0
		}
		gocv.PutText(&annotated, label, image.Pt(res.Box.Min.X, labelY),
			gocv.FontHersheySimplex, LabelScale, c, 1)
	}

	return annotated
}

// Show displays an annotated frame and reports whether the user asked to
// quit. Without a window it returns false immediately.
func (o *Overlay) Show(annotated gocv.Mat) bool {
	if !o.display || o.window == nil {
		return false
	}

	o.window.IMShow(annotated)
	key := o.window.WaitKey(WaitMs)
	return key == 'q' || key == 27 // ESC
}

// Close releases the window.
func (o *Overlay) Close() {
	if o.window != nil {
		o.window.Close()
		o.window = nil
	}
}
