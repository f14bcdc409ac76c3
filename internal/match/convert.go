package match

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// GrayFromMat converts a frame Mat to a grayscale image suitable for
// matching. Color frames are converted first; single-channel frames are
// used as-is.
func GrayFromMat(mat *gocv.Mat) (*image.Gray, error) {
	if mat == nil || mat.Empty() {
		return nil, fmt.Errorf("%w: empty frame", ErrInvalidInput)
	}

	gray := gocv.NewMat()
	defer gray.Close()

	if mat.Channels() > 1 {
		gocv.CvtColor(*mat, &gray, gocv.ColorBGRToGray)
	} else {
		mat.CopyTo(&gray)
	}

	img, err := gray.ToImage()
	if err != nil {
		return nil, fmt.Errorf("convert frame: %w", err)
	}

	grayImg, ok := img.(*image.Gray)
	if !ok {
		return nil, fmt.Errorf("convert frame: unexpected image type %T", img)
	}
	return grayImg, nil
}
