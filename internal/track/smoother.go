package track

import (
	"image"
	"math"

	kalman_filter "github.com/LdDl/kalman-filter"
	"github.com/pkg/errors"
)

// Kalman filter parameters for box-center smoothing.
const (
	controlX = 1.0
	controlY = 1.0
	stdDevA  = 2.0
	stdDevMx = 0.1
	stdDevMy = 0.1
)

// Smoother filters the jitter of per-frame box centers with a 2D Kalman
// filter. Only the center is smoothed; box dimensions stay fixed.
type Smoother struct {
	kf *kalman_filter.Kalman2D
}

// NewSmoother creates a Smoother seeded with the initial box center.
// dt is the frame interval in seconds.
func NewSmoother(dt float64, center image.Point) *Smoother {
	kf := kalman_filter.NewKalman2D(dt, controlX, controlY, stdDevA, stdDevMx, stdDevMy,
		kalman_filter.WithState2D(float64(center.X), float64(center.Y)))
	return &Smoother{kf: kf}
}

// Smooth folds the measured box center into the filter state and returns
// the smoothed center.
func (s *Smoother) Smooth(box image.Rectangle) (image.Point, error) {
	measuredX := float64(box.Min.X) + float64(box.Dx())/2.0
	measuredY := float64(box.Min.Y) + float64(box.Dy())/2.0

	s.kf.Predict()
	if err := s.kf.Update(measuredX, measuredY); err != nil {
		return image.Point{}, errors.Wrap(err, "can't update center smoother")
	}

	stateX, stateY := s.kf.GetState()
	return image.Pt(int(math.Round(stateX)), int(math.Round(stateY))), nil
}
