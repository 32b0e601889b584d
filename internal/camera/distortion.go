package camera

import (
	"github.com/pkg/errors"
)

// BrownConrady holds radial (K1, K2, K3) and tangential (P1, P2) distortion
// coefficients for normalized image coordinates.
type BrownConrady struct {
	K1 float64 `json:"rk1"`
	K2 float64 `json:"rk2"`
	K3 float64 `json:"rk3"`
	P1 float64 `json:"tp1"`
	P2 float64 `json:"tp2"`
}

// NewBrownConrady reads coefficients in OpenCV order (k1, k2, p1, p2, k3).
// Missing trailing values are zero. Longer vectors are accepted only when the
// extra rational/thin-prism terms are all zero.
func NewBrownConrady(coeffs []float64) (*BrownConrady, error) {
	for i := 5; i < len(coeffs); i++ {
		if coeffs[i] != 0 {
			return nil, errors.Wrapf(ErrInvalidModel,
				"distortion coefficient %d is non-zero; only (k1, k2, p1, p2, k3) are supported", i)
		}
	}
	padded := make([]float64, 5)
	copy(padded, coeffs)
	return &BrownConrady{K1: padded[0], K2: padded[1], P1: padded[2], P2: padded[3], K3: padded[4]}, nil
}

// Coefficients returns the coefficients in OpenCV order.
func (bc BrownConrady) Coefficients() []float64 {
	return []float64{bc.K1, bc.K2, bc.P1, bc.P2, bc.K3}
}

// IsZero reports whether the model applies no distortion.
func (bc BrownConrady) IsZero() bool {
	return bc == BrownConrady{}
}

// Distort maps an undistorted normalized point to its distorted position.
//
//	x_d = x * (1 + k1*r² + k2*r⁴ + k3*r⁶) + 2*p1*x*y + p2*(r² + 2*x²)
//	y_d = y * (1 + k1*r² + k2*r⁴ + k3*r⁶) + p1*(r² + 2*y²) + 2*p2*x*y
func (bc BrownConrady) Distort(x, y float64) (float64, float64) {
	r2 := x*x + y*y
	radial := 1 + r2*(bc.K1+r2*(bc.K2+r2*bc.K3))
	xd := x*radial + 2*bc.P1*x*y + bc.P2*(r2+2*x*x)
	yd := y*radial + bc.P1*(r2+2*y*y) + 2*bc.P2*x*y
	return xd, yd
}

// Undistort inverts Distort with Newton-Raphson iterations starting from the
// distorted point.
func (bc BrownConrady) Undistort(xd, yd float64) (float64, float64) {
	if bc.IsZero() {
		return xd, yd
	}

	const maxIterations = 20
	const tolerance = 1e-12

	xu, yu := xd, yd
	for i := 0; i < maxIterations; i++ {
		ex, ey := bc.Distort(xu, yu)
		ex -= xd
		ey -= yd
		if ex*ex+ey*ey < tolerance*tolerance {
			break
		}

		r2 := xu*xu + yu*yu
		r4 := r2 * r2
		radial := 1 + bc.K1*r2 + bc.K2*r4 + bc.K3*r4*r2
		dRadial := bc.K1 + 2*bc.K2*r2 + 3*bc.K3*r4
		dRdx := 2 * xu * dRadial
		dRdy := 2 * yu * dRadial

		j11 := radial + xu*dRdx + 2*bc.P1*yu + 6*bc.P2*xu
		j12 := xu*dRdy + 2*bc.P1*xu + 2*bc.P2*yu
		j21 := yu*dRdx + 2*bc.P1*xu + 2*bc.P2*yu
		j22 := radial + yu*dRdy + 6*bc.P1*yu + 2*bc.P2*xu

		det := j11*j22 - j12*j21
		if det == 0 {
			break
		}
		xu -= (j22*ex - j12*ey) / det
		yu -= (-j21*ex + j11*ey) / det
	}
	return xu, yu
}
