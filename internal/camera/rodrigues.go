package camera

import (
	"math"

	"github.com/golang/geo/r3"
)

// Rotation is a row-major 3x3 rotation matrix.
type Rotation [3][3]float64

// Apply rotates v.
func (r Rotation) Apply(v r3.Vector) r3.Vector {
	return r3.Vector{
		X: r[0][0]*v.X + r[0][1]*v.Y + r[0][2]*v.Z,
		Y: r[1][0]*v.X + r[1][1]*v.Y + r[1][2]*v.Z,
		Z: r[2][0]*v.X + r[2][1]*v.Y + r[2][2]*v.Z,
	}
}

// Column returns column j as a vector.
func (r Rotation) Column(j int) r3.Vector {
	return r3.Vector{X: r[0][j], Y: r[1][j], Z: r[2][j]}
}

// Rodrigues converts an axis-angle rotation vector into a rotation matrix.
func Rodrigues(rvec r3.Vector) Rotation {
	theta := rvec.Norm()
	if theta < 1e-12 {
		return Rotation{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	}
	k := rvec.Mul(1 / theta)
	c, s := math.Cos(theta), math.Sin(theta)
	t := 1 - c
	return Rotation{
		{c + t*k.X*k.X, t*k.X*k.Y - s*k.Z, t*k.X*k.Z + s*k.Y},
		{t*k.Y*k.X + s*k.Z, c + t*k.Y*k.Y, t*k.Y*k.Z - s*k.X},
		{t*k.Z*k.X - s*k.Y, t*k.Z*k.Y + s*k.X, c + t*k.Z*k.Z},
	}
}

// RotationVector converts a rotation matrix into its axis-angle vector. The
// angle is in [0, pi].
func RotationVector(r Rotation) r3.Vector {
	cosTheta := (r[0][0] + r[1][1] + r[2][2] - 1) / 2
	cosTheta = math.Max(-1, math.Min(1, cosTheta))

	// axis is 2 sin(theta) k
	axis := r3.Vector{
		X: r[2][1] - r[1][2],
		Y: r[0][2] - r[2][0],
		Z: r[1][0] - r[0][1],
	}
	sinTheta := axis.Norm() / 2
	theta := math.Atan2(sinTheta, cosTheta)

	switch {
	case theta < 1e-9:
		return axis.Mul(0.5)
	case cosTheta > -0.99:
		return axis.Mul(theta / (2 * sinTheta))
	}

	// Near pi the antisymmetric part vanishes. The symmetric part is
	// cos(theta) I + (1-cos(theta)) kk': the largest component of k comes from
	// the diagonal and the others from the off-diagonal sums.
	t := 1 - cosTheta
	j := 0
	for i := 1; i < 3; i++ {
		if r[i][i] > r[j][j] {
			j = i
		}
	}
	var k [3]float64
	k[j] = math.Sqrt(math.Max(0, (r[j][j]-cosTheta)/t))
	for i := 0; i < 3; i++ {
		if i != j {
			k[i] = (r[i][j] + r[j][i]) / (2 * t * k[j])
		}
	}
	kv := r3.Vector{X: k[0], Y: k[1], Z: k[2]}
	// the overall sign follows the antisymmetric part while it is non-zero
	if kv.Dot(axis) < 0 {
		kv = kv.Mul(-1)
	}
	return kv.Normalize().Mul(theta)
}
