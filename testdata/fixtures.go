// Package testdata builds synthetic frames for tests.
package testdata

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Default fixture frame size.
const (
	FrameWidth  = 100
	FrameHeight = 100
	TargetSize  = 10
)

// NewFrame returns a solid black BGR frame of the given size.
// The caller is responsible for closing the returned Mat.
func NewFrame(width, height int) gocv.Mat {
	return gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)
}

// DrawTarget paints a trackable target at topLeft: a white square with a
// dark center dot so the patch has internal contrast.
func DrawTarget(frame *gocv.Mat, topLeft image.Point, size int) {
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	dark := color.RGBA{R: 30, G: 30, B: 30, A: 255}

	outer := image.Rect(topLeft.X, topLeft.Y, topLeft.X+size, topLeft.Y+size)
	gocv.Rectangle(frame, outer, white, -1)

	inset := size / 3
	inner := image.Rect(topLeft.X+inset, topLeft.Y+inset, topLeft.X+size-inset, topLeft.Y+size-inset)
	gocv.Rectangle(frame, inner, dark, -1)
}

// DrawSolidSquare paints a plain solid white square at topLeft.
func DrawSolidSquare(frame *gocv.Mat, topLeft image.Point, size int) {
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	gocv.Rectangle(frame, image.Rect(topLeft.X, topLeft.Y, topLeft.X+size, topLeft.Y+size), white, -1)
}

// TargetSequence builds n frames with the target moving from start by step
// per frame. The caller owns the returned Mats.
func TargetSequence(n int, start, step image.Point) []*gocv.Mat {
	frames := make([]*gocv.Mat, 0, n)
	for i := 0; i < n; i++ {
		frame := NewFrame(FrameWidth, FrameHeight)
		pos := image.Pt(start.X+i*step.X, start.Y+i*step.Y)
		DrawTarget(&frame, pos, TargetSize)
		frames = append(frames, &frame)
	}
	return frames
}

// CloseFrames releases a frame slice.
func CloseFrames(frames []*gocv.Mat) {
	for _, f := range frames {
		f.Close()
	}
}
