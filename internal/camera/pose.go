package camera

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/ironsheep/fiducial-tools/internal/geometry"
)

// ErrPoseFailed is returned when no pose can be recovered from a set of corners.
var ErrPoseFailed = errors.New("pose estimation failed")

// Pose is a rigid transform from object to camera coordinates.
type Pose struct {
	Rvec r3.Vector
	Tvec r3.Vector
}

// SquareObjectPoints returns the marker-frame corners of a square with the
// given side length, in detector order: top-left, top-right, bottom-right,
// bottom-left.
func SquareObjectPoints(length float64) [4]r3.Vector {
	m := length / 2
	return [4]r3.Vector{
		{X: -m, Y: m, Z: 0},
		{X: m, Y: m, Z: 0},
		{X: m, Y: -m, Z: 0},
		{X: -m, Y: -m, Z: 0},
	}
}

// EstimatePoseSquare recovers the pose of a square marker of side length from
// its four pixel corners.
//
// # Algorithm
//
//  1. Undistort the corners into normalized camera coordinates
//  2. Initial guess: decompose the plane-to-image homography of the
//     undistorted corners into a rotation and translation
//  3. Refine with Levenberg-Marquardt on the pixel reprojection error of the
//     distorted projection
//
// # Parameters
//
//   - corners: pixel corners in detector order (top-left, top-right,
//     bottom-right, bottom-left)
//   - length: marker side; the translation comes back in the same unit
//
// # Returns
//
//   - the marker-to-camera pose, with the marker center at the origin of the
//     marker frame
//   - an error for a non-positive length or degenerate corners
func (m *Model) EstimatePoseSquare(corners [4]r2.Point, length float64) (Pose, error) {
	if length <= 0 {
		return Pose{}, errors.Wrapf(ErrPoseFailed, "marker length must be positive, got %v", length)
	}
	obj := SquareObjectPoints(length)

	plane := make([]r2.Point, 4)
	norm := make([]r2.Point, 4)
	for i := range corners {
		plane[i] = r2.Point{X: obj[i].X, Y: obj[i].Y}
		norm[i] = m.UndistortPixel(corners[i])
	}

	h, err := geometry.EstimateHomography(plane, norm)
	if err != nil {
		return Pose{}, errors.Wrap(ErrPoseFailed, err.Error())
	}
	initial, err := decomposePlanarHomography(h)
	if err != nil {
		return Pose{}, err
	}

	return m.refinePose(obj[:], corners[:], initial), nil
}

// decomposePlanarHomography splits H = s*[r1 r2 t] into a rotation and a
// translation in front of the camera.
func decomposePlanarHomography(h geometry.Homography) (Pose, error) {
	h1 := r3.Vector{X: h.At(0, 0), Y: h.At(1, 0), Z: h.At(2, 0)}
	h2 := r3.Vector{X: h.At(0, 1), Y: h.At(1, 1), Z: h.At(2, 1)}
	h3 := r3.Vector{X: h.At(0, 2), Y: h.At(1, 2), Z: h.At(2, 2)}

	n1, n2 := h1.Norm(), h2.Norm()
	if n1 < 1e-12 || n2 < 1e-12 {
		return Pose{}, errors.Wrap(ErrPoseFailed, "degenerate homography")
	}
	lambda := 2 / (n1 + n2)
	r1 := h1.Mul(lambda)
	r2 := h2.Mul(lambda)
	t := h3.Mul(lambda)
	if t.Z < 0 {
		r1, r2, t = r1.Mul(-1), r2.Mul(-1), t.Mul(-1)
	}
	r3v := r1.Cross(r2)

	approx := mat.NewDense(3, 3, []float64{
		r1.X, r2.X, r3v.X,
		r1.Y, r2.Y, r3v.Y,
		r1.Z, r2.Z, r3v.Z,
	})
	rot, err := nearestRotation(approx)
	if err != nil {
		return Pose{}, err
	}
	return Pose{Rvec: RotationVector(rot), Tvec: t}, nil
}

// nearestRotation projects a 3x3 matrix onto SO(3) with an SVD.
func nearestRotation(a *mat.Dense) (Rotation, error) {
	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDFull); !ok {
		return Rotation{}, errors.Wrap(ErrPoseFailed, "failed to factorize rotation")
	}
	var u, v, r mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	r.Mul(&u, v.T())
	if mat.Det(&r) < 0 {
		// flip the axis of the smallest singular value
		for i := 0; i < 3; i++ {
			u.Set(i, 2, -u.At(i, 2))
		}
		r.Mul(&u, v.T())
	}
	var out Rotation
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = r.At(i, j)
		}
	}
	return out, nil
}

// refinePose runs Levenberg-Marquardt over (rvec, tvec) with a central
// difference Jacobian. The best pose seen is returned.
func (m *Model) refinePose(obj []r3.Vector, img []r2.Point, initial Pose) Pose {
	const (
		maxIterations = 50
		minStep       = 1e-12
	)

	params := poseParams(initial)
	residuals := func(p []float64) []float64 {
		rvec := r3.Vector{X: p[0], Y: p[1], Z: p[2]}
		tvec := r3.Vector{X: p[3], Y: p[4], Z: p[5]}
		proj := m.ProjectPoints(obj, rvec, tvec)
		res := make([]float64, 2*len(proj))
		for i := range proj {
			res[2*i] = proj[i].X - img[i].X
			res[2*i+1] = proj[i].Y - img[i].Y
		}
		return res
	}
	cost := func(res []float64) float64 {
		var c float64
		for _, r := range res {
			c += r * r
		}
		return c
	}

	res := residuals(params)
	best := cost(res)
	lambda := 1e-3

	for iter := 0; iter < maxIterations && best > 1e-18; iter++ {
		jac := mat.NewDense(len(res), 6, nil)
		for j := 0; j < 6; j++ {
			step := 1e-6 * math.Max(1, math.Abs(params[j]))
			plus := append([]float64(nil), params...)
			minus := append([]float64(nil), params...)
			plus[j] += step
			minus[j] -= step
			rp, rm := residuals(plus), residuals(minus)
			for i := range res {
				jac.Set(i, j, (rp[i]-rm[i])/(2*step))
			}
		}

		var jtj mat.Dense
		jtj.Mul(jac.T(), jac)
		g := mat.NewVecDense(6, nil)
		g.MulVec(jac.T(), mat.NewVecDense(len(res), res))

		improved := false
		for attempt := 0; attempt < 10; attempt++ {
			a := mat.DenseCopyOf(&jtj)
			for d := 0; d < 6; d++ {
				a.Set(d, d, a.At(d, d)*(1+lambda)+1e-12)
			}
			var delta mat.VecDense
			if err := delta.SolveVec(a, g); err != nil {
				lambda *= 10
				continue
			}
			candidate := make([]float64, 6)
			var stepNorm float64
			for k := range candidate {
				candidate[k] = params[k] - delta.AtVec(k)
				stepNorm += delta.AtVec(k) * delta.AtVec(k)
			}
			candRes := residuals(candidate)
			if c := cost(candRes); c < best {
				params, res, best = candidate, candRes, c
				lambda = math.Max(lambda/10, 1e-12)
				improved = true
				if stepNorm < minStep*minStep {
					return paramsPose(params)
				}
				break
			}
			lambda *= 10
		}
		if !improved {
			break
		}
	}
	return paramsPose(params)
}

func poseParams(p Pose) []float64 {
	return []float64{p.Rvec.X, p.Rvec.Y, p.Rvec.Z, p.Tvec.X, p.Tvec.Y, p.Tvec.Z}
}

func paramsPose(p []float64) Pose {
	return Pose{
		Rvec: r3.Vector{X: p[0], Y: p[1], Z: p[2]},
		Tvec: r3.Vector{X: p[3], Y: p[4], Z: p[5]},
	}
}
