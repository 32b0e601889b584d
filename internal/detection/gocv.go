//go:build gocv

package detection

import (
	"context"
	"image"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// ErrBackendUnavailable is returned for a backend not compiled into the binary.
var ErrBackendUnavailable = errors.New("detector backend not available in this build")

// GoCVDetector detects OpenCV's predefined 5x5 250 marker dictionary through
// the OpenCV ArUco module.
type GoCVDetector struct {
	dictionary gocv.ArucoDictionaryCode
}

func newGoCVDetector() (Detector, error) {
	return &GoCVDetector{dictionary: gocv.ArucoDict5x5_250}, nil
}

// Name implements Detector.
func (d *GoCVDetector) Name() string { return BackendGoCV }

// Detect implements Detector.
func (d *GoCVDetector) Detect(ctx context.Context, gray *image.Gray) ([]Candidate, error) {
	if gray == nil {
		return nil, errors.New("nil image")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src, err := gocv.ImageGrayToMatGray(gray)
	if err != nil {
		return nil, errors.Wrap(err, "convert image to mat")
	}
	defer src.Close()

	detector := gocv.NewArucoDetectorWithParams(gocv.GetPredefinedDictionary(d.dictionary), gocv.NewArucoDetectorParameters())
	defer detector.Close()

	corners, ids, _ := detector.DetectMarkers(src)
	offset := r2.Point{X: float64(gray.Rect.Min.X), Y: float64(gray.Rect.Min.Y)}
	candidates := make([]Candidate, 0, len(ids))
	for i, id := range ids {
		if len(corners[i]) != 4 {
			continue
		}
		var c Candidate
		c.ID = id
		for k, p := range corners[i] {
			c.Corners[k] = r2.Point{X: float64(p.X), Y: float64(p.Y)}.Add(offset)
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}
