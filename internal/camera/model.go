package camera

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ErrInvalidModel is returned when intrinsic or distortion parameters are unusable.
var ErrInvalidModel = errors.New("invalid camera model")

// Model is an immutable pinhole camera with Brown-Conrady lens distortion.
type Model struct {
	intrinsics [9]float64
	distortion BrownConrady

	// Width and Height are the calibrated image size in pixels, zero when unknown.
	Width  int
	Height int
}

// NewModel builds a Model from a row-major 3x3 intrinsic matrix and an OpenCV
// ordered distortion vector (k1, k2, p1, p2, k3).
func NewModel(intrinsics []float64, distortion []float64) (*Model, error) {
	if len(intrinsics) != 9 {
		return nil, errors.Wrapf(ErrInvalidModel, "intrinsic matrix needs 9 values, got %d", len(intrinsics))
	}
	bc, err := NewBrownConrady(distortion)
	if err != nil {
		return nil, err
	}
	m := &Model{distortion: *bc}
	copy(m.intrinsics[:], intrinsics)
	if err := m.CheckValid(); err != nil {
		return nil, err
	}
	return m, nil
}

// NewModelFromIntrinsics builds a skew-free Model from focal lengths and the
// principal point.
func NewModelFromIntrinsics(fx, fy, cx, cy float64, distortion []float64) (*Model, error) {
	return NewModel([]float64{fx, 0, cx, 0, fy, cy, 0, 0, 1}, distortion)
}

// CheckValid checks the intrinsic matrix for usable values.
func (m *Model) CheckValid() error {
	if m == nil {
		return errors.Wrap(ErrInvalidModel, "model is nil")
	}
	for i, v := range m.intrinsics {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.Wrapf(ErrInvalidModel, "intrinsic[%d] is not finite", i)
		}
	}
	if m.Fx() <= 0 {
		return errors.Wrap(ErrInvalidModel, fmt.Sprintf("invalid focal length fx = %v", m.Fx()))
	}
	if m.Fy() <= 0 {
		return errors.Wrap(ErrInvalidModel, fmt.Sprintf("invalid focal length fy = %v", m.Fy()))
	}
	if m.intrinsics[3] != 0 || m.intrinsics[6] != 0 || m.intrinsics[7] != 0 || m.intrinsics[8] != 1 {
		return errors.Wrap(ErrInvalidModel, "intrinsic matrix must have the form [[fx s cx] [0 fy cy] [0 0 1]]")
	}
	return nil
}

// Fx is the horizontal focal length in pixels.
func (m *Model) Fx() float64 { return m.intrinsics[0] }

// Fy is the vertical focal length in pixels.
func (m *Model) Fy() float64 { return m.intrinsics[4] }

// Cx is the principal point X coordinate.
func (m *Model) Cx() float64 { return m.intrinsics[2] }

// Cy is the principal point Y coordinate.
func (m *Model) Cy() float64 { return m.intrinsics[5] }

// Skew is the axis skew term, zero for most cameras.
func (m *Model) Skew() float64 { return m.intrinsics[1] }

// Distortion returns the lens distortion model.
func (m *Model) Distortion() BrownConrady { return m.distortion }

// Intrinsics returns a copy of the row-major intrinsic matrix.
func (m *Model) Intrinsics() []float64 {
	return append([]float64(nil), m.intrinsics[:]...)
}

// CameraMatrix returns the intrinsic matrix as a gonum matrix.
// Camera matrix:
// [[fx s  cx],
//
//	[0  fy cy],
//	[0  0  1]]
func (m *Model) CameraMatrix() *mat.Dense {
	return mat.NewDense(3, 3, m.Intrinsics())
}

// toPixel applies the intrinsics to a normalized, distorted image point.
func (m *Model) toPixel(x, y float64) (float64, float64) {
	return m.Fx()*x + m.Skew()*y + m.Cx(), m.Fy()*y + m.Cy()
}

// toNormalized inverts the intrinsics, returning the distorted normalized point.
func (m *Model) toNormalized(u, v float64) (float64, float64) {
	y := (v - m.Cy()) / m.Fy()
	x := (u - m.Cx() - m.Skew()*y) / m.Fx()
	return x, y
}
