// Package match implements template matching over grayscale images.
package match

import (
	"errors"
	"fmt"
	"image"
	"math"
)

// ErrInvalidInput is returned when a frame or template is missing, empty,
// or when the template does not fit inside the frame.
var ErrInvalidInput = errors.New("invalid input")

// Metric selects the similarity measure used to compare the template
// against a candidate window. Every metric is reported as a similarity
// (higher is better) so maximum selection applies uniformly.
type Metric int

const (
	// MetricNCC is normalized cross-correlation, scored in [0, 1].
	MetricNCC Metric = iota
	// MetricZNCC is zero-mean normalized cross-correlation, scored in [-1, 1].
	MetricZNCC
	// MetricSSD is sum of squared differences, normalized to [0, 1].
	MetricSSD
	// MetricSAD is sum of absolute differences, normalized to [0, 1].
	MetricSAD
)

// String returns the metric name as used on the command line.
func (m Metric) String() string {
	switch m {
	case MetricNCC:
		return "ncc"
	case MetricZNCC:
		return "zncc"
	case MetricSSD:
		return "ssd"
	case MetricSAD:
		return "sad"
	default:
		return "unknown"
	}
}

// Range returns the lower and upper bound of the metric's score.
func (m Metric) Range() (lo, hi float64) {
	if m == MetricZNCC {
		return -1, 1
	}
	return 0, 1
}

// ParseMetric resolves a metric name. Unknown names are an error.
func ParseMetric(name string) (Metric, error) {
	switch name {
	case "ncc":
		return MetricNCC, nil
	case "zncc":
		return MetricZNCC, nil
	case "ssd":
		return MetricSSD, nil
	case "sad":
		return MetricSAD, nil
	}
	return 0, fmt.Errorf("%w: unknown metric %q", ErrInvalidInput, name)
}

// Result is the outcome of a single match: the top-left corner of the
// best-scoring window in the frame's coordinate space, and its score.
type Result struct {
	Point image.Point
	Score float64
}

// Match locates the position in frame whose content best matches tmpl
// under the given metric.
//
// Every top-left position where the template fully fits inside the frame
// is scored; the maximum wins. Ties are broken by the first position in
// row-major scan order. The call is stateless and deterministic.
//
// Match fails with ErrInvalidInput if either image is nil or empty, or if
// the template exceeds the frame in either dimension.
func Match(frame, tmpl *image.Gray, metric Metric) (Result, error) {
	if frame == nil || frame.Bounds().Empty() {
		return Result{}, fmt.Errorf("%w: empty frame", ErrInvalidInput)
	}
	if tmpl == nil || tmpl.Bounds().Empty() {
		return Result{}, fmt.Errorf("%w: empty template", ErrInvalidInput)
	}

	fb := frame.Bounds()
	tb := tmpl.Bounds()
	tw, th := tb.Dx(), tb.Dy()

	if tw > fb.Dx() || th > fb.Dy() {
		return Result{}, fmt.Errorf("%w: template %dx%d exceeds frame %dx%d",
			ErrInvalidInput, tw, th, fb.Dx(), fb.Dy())
	}

	best := Result{Point: fb.Min, Score: math.Inf(-1)}

	maxY := fb.Max.Y - th
	maxX := fb.Max.X - tw
	for y := fb.Min.Y; y <= maxY; y++ {
		for x := fb.Min.X; x <= maxX; x++ {
			// Strict > keeps the first maximum in scan order.
			score := scoreAt(frame, tmpl, x, y, metric)
			if score > best.Score {
				best.Point = image.Point{X: x, Y: y}
				best.Score = score
			}
		}
	}

	return best, nil
}

// Crop copies the rectangular region r out of img. The region must lie
// fully inside the image; a region that hangs over the edge is invalid
// rather than silently clamped. The returned template has its origin at
// (0,0) and does not alias the source pixels.
func Crop(img *image.Gray, r image.Rectangle) (*image.Gray, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty image", ErrInvalidInput)
	}
	if r.Empty() {
		return nil, fmt.Errorf("%w: empty region", ErrInvalidInput)
	}
	if !r.In(img.Bounds()) {
		return nil, fmt.Errorf("%w: region %v exceeds image bounds %v",
			ErrInvalidInput, r, img.Bounds())
	}

	out := image.NewGray(image.Rect(0, 0, r.Dx(), r.Dy()))
	for y := 0; y < r.Dy(); y++ {
		src := img.PixOffset(r.Min.X, r.Min.Y+y)
		copy(out.Pix[y*out.Stride:y*out.Stride+r.Dx()], img.Pix[src:src+r.Dx()])
	}
	return out, nil
}

// scoreAt computes the similarity between tmpl and the window of frame
// whose top-left corner is (x, y).
func scoreAt(frame, tmpl *image.Gray, x, y int, metric Metric) float64 {
	switch metric {
	case MetricZNCC:
		return scoreZNCC(frame, tmpl, x, y)
	case MetricSSD:
		return scoreSSD(frame, tmpl, x, y)
	case MetricSAD:
		return scoreSAD(frame, tmpl, x, y)
	default:
		return scoreNCC(frame, tmpl, x, y)
	}
}

func scoreNCC(frame, tmpl *image.Gray, x, y int) float64 {
	tb := tmpl.Bounds()
	tw, th := tb.Dx(), tb.Dy()

	var sumFT, sumFF, sumTT float64
	for ty := 0; ty < th; ty++ {
		fi := frame.PixOffset(x, y+ty)
		ti := tmpl.PixOffset(tb.Min.X, tb.Min.Y+ty)
		for tx := 0; tx < tw; tx++ {
			f := float64(frame.Pix[fi+tx])
			t := float64(tmpl.Pix[ti+tx])
			sumFT += f * t
			sumFF += f * f
			sumTT += t * t
		}
	}

	denom := math.Sqrt(sumFF * sumTT)
	if denom == 0 {
		// Either window carries no energy; there is nothing to correlate.
		return 0
	}
	return sumFT / denom
}

func scoreZNCC(frame, tmpl *image.Gray, x, y int) float64 {
	tb := tmpl.Bounds()
	tw, th := tb.Dx(), tb.Dy()
	n := float64(tw * th)

	var sumF, sumT, sumFT, sumFF, sumTT float64
	for ty := 0; ty < th; ty++ {
		fi := frame.PixOffset(x, y+ty)
		ti := tmpl.PixOffset(tb.Min.X, tb.Min.Y+ty)
		for tx := 0; tx < tw; tx++ {
			f := float64(frame.Pix[fi+tx])
			t := float64(tmpl.Pix[ti+tx])
			sumF += f
			sumT += t
			sumFT += f * t
			sumFF += f * f
			sumTT += t * t
		}
	}

	num := sumFT - sumF*sumT/n
	denomF := sumFF - sumF*sumF/n
	denomT := sumTT - sumT*sumT/n
	if denomF <= 0 || denomT <= 0 {
		// A zero-variance window has no correlation with anything.
		return 0
	}
	return num / math.Sqrt(denomF*denomT)
}

func scoreSSD(frame, tmpl *image.Gray, x, y int) float64 {
	tb := tmpl.Bounds()
	tw, th := tb.Dx(), tb.Dy()

	var ssd uint64
	for ty := 0; ty < th; ty++ {
		fi := frame.PixOffset(x, y+ty)
		ti := tmpl.PixOffset(tb.Min.X, tb.Min.Y+ty)
		for tx := 0; tx < tw; tx++ {
			d := int(frame.Pix[fi+tx]) - int(tmpl.Pix[ti+tx])
			ssd += uint64(d * d)
		}
	}

	maxSSD := float64(tw*th) * 255 * 255
	return 1 - float64(ssd)/maxSSD
}

func scoreSAD(frame, tmpl *image.Gray, x, y int) float64 {
	tb := tmpl.Bounds()
	tw, th := tb.Dx(), tb.Dy()

	var sad uint64
	for ty := 0; ty < th; ty++ {
		fi := frame.PixOffset(x, y+ty)
		ti := tmpl.PixOffset(tb.Min.X, tb.Min.Y+ty)
		for tx := 0; tx < tw; tx++ {
			d := int(frame.Pix[fi+tx]) - int(tmpl.Pix[ti+tx])
			if d < 0 {
				d = -d
			}
			sad += uint64(d)
		}
	}

	maxSAD := float64(tw*th) * 255
	return 1 - float64(sad)/maxSAD
}
