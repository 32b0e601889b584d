package marker

import (
	"context"
	"image"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ironsheep/fiducial-tools/internal/camera"
	"github.com/ironsheep/fiducial-tools/internal/detection"
	"github.com/ironsheep/fiducial-tools/internal/geometry"
)

// DefaultLength is the printed side length of a marker, in the units the
// translation vectors are reported in.
const DefaultLength = 100.0

// Locator finds markers and estimates their poses.
type Locator struct {
	detector detection.Detector
	length   float64
	logger   *zap.SugaredLogger
}

// LocatorOption configures a Locator.
type LocatorOption func(*Locator)

// WithLength sets the marker side length.
func WithLength(length float64) LocatorOption {
	return func(l *Locator) {
		if length > 0 {
			l.length = length
		}
	}
}

// WithLogger sets the logger used for skipped markers.
func WithLogger(logger *zap.SugaredLogger) LocatorOption {
	return func(l *Locator) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLocator returns a Locator over d.
func NewLocator(d detection.Detector, opts ...LocatorOption) *Locator {
	l := &Locator{
		detector: d,
		length:   DefaultLength,
		logger:   zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Length returns the marker side length.
func (l *Locator) Length() float64 { return l.length }

// Detect finds every marker in img and returns one record per marker, in
// detector order. An image without markers yields an empty list.
//
// A marker whose pose cannot be recovered is logged and left out.
func (l *Locator) Detect(ctx context.Context, img image.Image, cam *camera.Model) (List, error) {
	if img == nil {
		return nil, errors.New("nil image")
	}
	if cam == nil {
		return nil, errors.New("nil camera model")
	}

	candidates, err := l.detector.Detect(ctx, detection.Grayscale(img))
	if err != nil {
		return nil, &DetectionError{Backend: l.detector.Name(), Err: err}
	}

	list := make(List, 0, len(candidates))
	for _, c := range candidates {
		pose, err := cam.EstimatePoseSquare(c.Corners, l.length)
		if err != nil {
			l.logger.Warnw("Skipping marker without pose", "id", c.ID, "error", err)
			continue
		}
		rec, err := NewRecord(c.ID, Centroid(c.Corners), pose.Rvec, pose.Tvec)
		if err != nil {
			l.logger.Warnw("Skipping invalid marker", "id", c.ID, "error", err)
			continue
		}
		list = append(list, rec)
	}
	l.logger.Debugw("Detected markers", "backend", l.detector.Name(), "candidates", len(candidates), "markers", len(list))
	return list, nil
}

// Centroid returns the mean of the four corners.
func Centroid(corners [4]r2.Point) r2.Point {
	return geometry.Centroid(corners[:])
}
