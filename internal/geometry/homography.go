package geometry

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ErrDegenerate is returned when a point configuration cannot define a homography.
var ErrDegenerate = errors.New("degenerate point configuration")

// Homography is a 3x3 projective transform stored row-major.
type Homography [9]float64

// Identity returns the identity homography.
func Identity() Homography {
	return Homography{1, 0, 0, 0, 1, 0, 0, 0, 1}
}

// Apply maps p through the homography.
func (h Homography) Apply(p r2.Point) r2.Point {
	w := h[6]*p.X + h[7]*p.Y + h[8]
	if w == 0 {
		w = 1
	}
	return r2.Point{
		X: (h[0]*p.X + h[1]*p.Y + h[2]) / w,
		Y: (h[3]*p.X + h[4]*p.Y + h[5]) / w,
	}
}

// At returns the element at row i, column j.
func (h Homography) At(i, j int) float64 {
	return h[i*3+j]
}

// Dense returns the homography as a gonum matrix.
func (h Homography) Dense() *mat.Dense {
	return mat.NewDense(3, 3, append([]float64(nil), h[:]...))
}

// EstimateHomography computes the homography that maps each src point onto the
// dst point at the same index. At least four correspondences are required.
func EstimateHomography(src, dst []r2.Point) (Homography, error) {
	if len(src) != len(dst) {
		return Homography{}, errors.Errorf("point count mismatch: %d src, %d dst", len(src), len(dst))
	}
	if len(src) < 4 {
		return Homography{}, errors.Wrapf(ErrDegenerate, "need 4 correspondences, got %d", len(src))
	}

	srcN, srcT, err := normalize(src)
	if err != nil {
		return Homography{}, err
	}
	dstN, dstT, err := normalize(dst)
	if err != nil {
		return Homography{}, err
	}

	a := mat.NewDense(2*len(src), 9, nil)
	for i := range srcN {
		x, y := srcN[i].X, srcN[i].Y
		u, v := dstN[i].X, dstN[i].Y
		a.SetRow(2*i, []float64{-x, -y, -1, 0, 0, 0, u * x, u * y, u})
		a.SetRow(2*i+1, []float64{0, 0, 0, -x, -y, -1, v * x, v * y, v})
	}

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDFull); !ok {
		return Homography{}, errors.New("failed to factorize homography system")
	}
	var vt mat.Dense
	svd.VTo(&vt)
	hn := mat.NewDense(3, 3, nil)
	for k := 0; k < 9; k++ {
		hn.Set(k/3, k%3, vt.At(k, 8))
	}

	// H = inv(dstT) * Hn * srcT
	var dstInv mat.Dense
	if err := dstInv.Inverse(dstT); err != nil {
		return Homography{}, errors.Wrap(ErrDegenerate, err.Error())
	}
	var tmp, full mat.Dense
	tmp.Mul(hn, srcT)
	full.Mul(&dstInv, &tmp)

	scale := full.At(2, 2)
	if math.Abs(scale) < 1e-12 {
		return Homography{}, errors.Wrap(ErrDegenerate, "homography has no finite scale")
	}
	var h Homography
	for k := 0; k < 9; k++ {
		h[k] = full.At(k/3, k%3) / scale
	}
	return h, nil
}

// normalize translates points to their centroid and scales them to an average
// distance of sqrt(2). It returns the normalized points and the 3x3 transform.
func normalize(pts []r2.Point) ([]r2.Point, *mat.Dense, error) {
	c := Centroid(pts)
	var mean float64
	for _, p := range pts {
		mean += p.Sub(c).Norm()
	}
	mean /= float64(len(pts))
	if mean < 1e-12 {
		return nil, nil, errors.Wrap(ErrDegenerate, "points coincide")
	}
	s := math.Sqrt2 / mean
	out := make([]r2.Point, len(pts))
	for i, p := range pts {
		out[i] = p.Sub(c).Mul(s)
	}
	t := mat.NewDense(3, 3, []float64{
		s, 0, -s * c.X,
		0, s, -s * c.Y,
		0, 0, 1,
	})
	return out, t, nil
}
