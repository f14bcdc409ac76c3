package run

import "image"

// IoU returns the intersection over union of two rectangles in [0, 1].
// Disjoint or empty rectangles score 0.
func IoU(a, b image.Rectangle) float64 {
	inter := a.Intersect(b)
	if inter.Empty() {
		return 0
	}

	interArea := float64(inter.Dx() * inter.Dy())
	union := float64(a.Dx()*a.Dy()+b.Dx()*b.Dy()) - interArea
	if union <= 0 {
		return 0
	}
	return interArea / union
}
