package detection

import (
	"context"
	"image"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"github.com/ironsheep/fiducial-tools/internal/geometry"
)

// Defaults for NativeDetector.
const (
	DefaultMinSide         = 14.0
	DefaultMaxBorderErrors = 3
)

// NativeDetector is a pure Go marker detector.
//
// # Algorithm
//
//  1. Threshold: Otsu level over the intensity histogram, or a fixed level
//  2. Regions: 8-connected flood fill of dark pixels
//  3. Quads: extreme-point quadrilateral per region, checked for convexity,
//     minimum side and fill ratio
//  4. Decode: majority vote per cell through the grid homography, black
//     border check, dictionary match over four rotations
//  5. Nesting: candidates whose center lies inside a larger candidate are
//     dropped
type NativeDetector struct {
	dict            *Dictionary
	level           uint8
	minSide         float64
	maxBorderErrors int
}

// Option configures a NativeDetector.
type Option func(*NativeDetector)

// WithDictionary replaces the default dictionary.
func WithDictionary(d *Dictionary) Option {
	return func(n *NativeDetector) {
		if d != nil {
			n.dict = d
		}
	}
}

// WithThreshold fixes the binarization level. Zero selects Otsu.
func WithThreshold(level uint8) Option {
	return func(n *NativeDetector) { n.level = level }
}

// WithMinSide sets the smallest accepted quad side in pixels.
func WithMinSide(px float64) Option {
	return func(n *NativeDetector) {
		if px > 0 {
			n.minSide = px
		}
	}
}

// WithMaxBorderErrors sets how many border cells may read white.
func WithMaxBorderErrors(count int) Option {
	return func(n *NativeDetector) {
		if count >= 0 {
			n.maxBorderErrors = count
		}
	}
}

// NewNativeDetector returns a detector using the default dictionary unless
// overridden.
func NewNativeDetector(opts ...Option) *NativeDetector {
	n := &NativeDetector{
		minSide:         DefaultMinSide,
		maxBorderErrors: DefaultMaxBorderErrors,
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.dict == nil {
		n.dict = DefaultDictionary()
	}
	return n
}

// Name implements Detector.
func (n *NativeDetector) Name() string { return BackendNative }

// Dictionary returns the dictionary markers are matched against.
func (n *NativeDetector) Dictionary() *Dictionary { return n.dict }

// Detect implements Detector.
func (n *NativeDetector) Detect(ctx context.Context, gray *image.Gray) ([]Candidate, error) {
	if gray == nil {
		return nil, errors.New("nil image")
	}
	bounds := gray.Rect
	width, height := bounds.Dx(), bounds.Dy()
	candidates := make([]Candidate, 0)
	if width == 0 || height == 0 {
		return candidates, nil
	}

	level := n.level
	if level == 0 {
		var ok bool
		if level, ok = otsuLevel(gray); !ok {
			return candidates, nil
		}
	}
	dark := binarize(gray, level)

	regions := findRegions(dark, width, height, int(4*n.minSide))
	areas := make([]float64, 0)
	for _, r := range regions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if r.touchesEdge {
			continue
		}
		quad, ok := fitQuad(r.pixels, n.minSide)
		if !ok {
			continue
		}
		code, ok := readCode(dark, width, height, quad, n.dict.Size, n.maxBorderErrors)
		if !ok {
			continue
		}
		id, rotation, corrected, ok := n.dict.Match(code)
		if !ok {
			continue
		}

		var corners [4]r2.Point
		offset := r2.Point{X: float64(bounds.Min.X), Y: float64(bounds.Min.Y)}
		for i := range corners {
			corners[i] = quad[(i+rotation)%4].Add(offset)
		}
		candidates = append(candidates, Candidate{ID: id, Corners: corners, Corrected: corrected})
		areas = append(areas, geometry.SignedArea(quad[:]))
	}
	return dropNested(candidates, areas), nil
}

// dropNested removes candidates centered inside a larger candidate, keeping
// detection order.
func dropNested(candidates []Candidate, areas []float64) []Candidate {
	kept := make([]Candidate, 0, len(candidates))
	for i, c := range candidates {
		center := geometry.Centroid(c.Corners[:])
		nested := false
		for j, outer := range candidates {
			if i != j && areas[j] > areas[i] && containsPoint(clockwise(outer.Corners), center) {
				nested = true
				break
			}
		}
		if !nested {
			kept = append(kept, c)
		}
	}
	return kept
}

// clockwise returns the corners in on-screen clockwise order. Marker order
// is already clockwise unless the marker is seen mirrored.
func clockwise(q [4]r2.Point) [4]r2.Point {
	if geometry.SignedArea(q[:]) < 0 {
		q[1], q[3] = q[3], q[1]
	}
	return q
}

// New returns the detector for a backend name.
func New(backend string, opts ...Option) (Detector, error) {
	switch backend {
	case "", BackendNative:
		return NewNativeDetector(opts...), nil
	case BackendGoCV:
		return newGoCVDetector()
	default:
		return nil, errors.Errorf("unknown detector backend %q", backend)
	}
}
