package annotate

import (
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/ironsheep/fiducial-tools/internal/camera"
	"github.com/ironsheep/fiducial-tools/internal/marker"
)

// ErrProjection is returned when a shape point projects to a non-finite pixel.
var ErrProjection = errors.New("shape does not project into the image plane")

// Draw dispatches to DrawAxis, DrawCube or DrawCylinder.
func Draw(shape Shape, img *image.RGBA, markers marker.List, id int, cam *camera.Model, opts ...Option) (*image.RGBA, error) {
	switch shape {
	case Axis:
		return DrawAxis(img, markers, id, cam, opts...)
	case Cube:
		return DrawCube(img, markers, id, cam, opts...)
	case Cylinder:
		return DrawCylinder(img, markers, id, cam, opts...)
	default:
		return nil, errors.Errorf("unknown shape %q", shape)
	}
}

// DrawAxis strokes the marker's X, Y and Z axes onto img and returns it.
func DrawAxis(img *image.RGBA, markers marker.List, id int, cam *camera.Model, opts ...Option) (*image.RGBA, error) {
	s := resolve(opts)
	pts, err := project(markers, id, cam, AxisPoints(s.length))
	if err != nil {
		return nil, err
	}

	dc := gg.NewContextForRGBA(img)
	dc.SetLineWidth(s.lineWidth)
	strokeLine(dc, pts[0], pts[1], s.axisX)
	strokeLine(dc, pts[0], pts[2], s.axisY)
	strokeLine(dc, pts[0], pts[3], s.axisZ)
	return img, nil
}

// DrawCube strokes a cube standing on the marker onto img and returns it.
func DrawCube(img *image.RGBA, markers marker.List, id int, cam *camera.Model, opts ...Option) (*image.RGBA, error) {
	s := resolve(opts)
	pts, err := project(markers, id, cam, CubePoints(s.length))
	if err != nil {
		return nil, err
	}

	dc := gg.NewContextForRGBA(img)
	dc.SetLineWidth(s.lineWidth)
	strokeContour(dc, pts[:4], s.cube)
	for i := 0; i < 4; i++ {
		strokeLine(dc, pts[i], pts[i+4], s.cube)
	}
	strokeContour(dc, pts[4:], s.cube)
	return img, nil
}

// DrawCylinder strokes a faceted cylinder standing on the marker onto img and
// returns it.
func DrawCylinder(img *image.RGBA, markers marker.List, id int, cam *camera.Model, opts ...Option) (*image.RGBA, error) {
	s := resolve(opts)
	bottom, top := CylinderRims(s.length, s.sides)
	height := 1.5 * s.length

	// axis ends, then both rims
	points := make([]r3.Vector, 0, 2+2*s.sides)
	points = append(points, r3.Vector{}, r3.Vector{Z: height})
	points = append(points, bottom...)
	points = append(points, top...)
	pts, err := project(markers, id, cam, points)
	if err != nil {
		return nil, err
	}
	axisBottom, axisTop := pts[0], pts[1]
	rimBottom := pts[2 : 2+s.sides]
	rimTop := pts[2+s.sides:]

	dc := gg.NewContextForRGBA(img)
	dc.SetLineWidth(s.lineWidth)
	for i := 0; i < s.sides; i += spokeEvery {
		strokeContour(dc, []r2.Point{axisBottom, rimBottom[i], rimTop[i], axisTop}, s.cylinder)
	}
	strokeContour(dc, rimBottom, s.cylinder)
	strokeContour(dc, rimTop, s.cylinder)
	return img, nil
}

func resolve(opts []Option) style {
	s := defaultStyle()
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// project looks up the marker and projects shape points with its pose.
func project(markers marker.List, id int, cam *camera.Model, points []r3.Vector) ([]r2.Point, error) {
	if cam == nil {
		return nil, errors.New("nil camera model")
	}
	rec, err := markers.Find(id)
	if err != nil {
		return nil, err
	}
	pts := cam.ProjectPoints(points, rec.Rvec, rec.Tvec)
	for _, p := range pts {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return nil, errors.Wrapf(ErrProjection, "marker %d", id)
		}
	}
	return pts, nil
}

func strokeLine(dc *gg.Context, a, b r2.Point, c color.Color) {
	dc.SetColor(c)
	dc.DrawLine(a.X, a.Y, b.X, b.Y)
	dc.Stroke()
}

// strokeContour strokes a closed polyline.
func strokeContour(dc *gg.Context, pts []r2.Point, c color.Color) {
	if len(pts) == 0 {
		return
	}
	dc.SetColor(c)
	dc.MoveTo(pts[0].X, pts[0].Y)
	for _, p := range pts[1:] {
		dc.LineTo(p.X, p.Y)
	}
	dc.ClosePath()
	dc.Stroke()
}
