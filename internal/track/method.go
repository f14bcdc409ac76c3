// Package track provides a uniform interface over the tracking methods
// being compared: the hand-rolled template matcher and the OpenCV
// trackers (CSRT, KCF, MOSSE).
package track

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"gocv.io/x/gocv"
)

// Method names form a closed set.
const (
	MethodTemplate = "template"
	MethodCSRT     = "csrt"
	MethodKCF      = "kcf"
	MethodMOSSE    = "mosse"
)

// ErrUnknownMethod is returned for a method name outside the closed set.
var ErrUnknownMethod = errors.New("unknown tracking method")

// ErrNotInitialized is returned when Update is called before Init.
var ErrNotInitialized = errors.New("tracker not initialized")

// ErrInitFailed is returned when a tracker rejects its initial frame and region.
var ErrInitFailed = errors.New("tracker initialization failed")

// Result is one method's estimate for one frame.
type Result struct {
	Box      image.Rectangle
	Score    float64
	HasScore bool
	Lost     bool
}

// Method is a tracking method driven frame by frame. Init is called once
// with the first frame and the user-selected region; Update once per
// subsequent frame. A method that loses its target stays lost: there is
// no re-acquisition.
type Method interface {
	Name() string
	Init(frame gocv.Mat, roi image.Rectangle) error
	Update(frame gocv.Mat) (Result, error)
	Close() error
}

// AllMethods returns the closed set of method names in canonical order.
func AllMethods() []string {
	return []string{MethodTemplate, MethodCSRT, MethodKCF, MethodMOSSE}
}

// ParseMethods splits a comma-separated method list and validates each
// name against the closed set. Duplicates are removed, order preserved.
func ParseMethods(list string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)

	for _, raw := range strings.Split(list, ",") {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" {
			continue
		}
		switch name {
		case MethodTemplate, MethodCSRT, MethodKCF, MethodMOSSE:
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, name)
		}
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%w: empty method list", ErrUnknownMethod)
	}
	return out, nil
}

// New creates the method registered under name with default settings.
func New(name string) (Method, error) {
	if name == MethodTemplate {
		return NewTemplate(), nil
	}
	return NewOpenCV(name)
}

// clampBox confines box to the frame bounds. An estimate entirely outside
// the frame clamps to an empty rectangle, which callers treat as lost.
func clampBox(box image.Rectangle, frame gocv.Mat) image.Rectangle {
	return box.Intersect(image.Rect(0, 0, frame.Cols(), frame.Rows()))
}
