package geometry

import (
	"math"

	"github.com/golang/geo/r2"
)

// Centroid returns the arithmetic mean of the points.
// An empty slice yields the zero point.
func Centroid(pts []r2.Point) r2.Point {
	if len(pts) == 0 {
		return r2.Point{}
	}
	var sum r2.Point
	for _, p := range pts {
		sum = sum.Add(p)
	}
	return sum.Mul(1 / float64(len(pts)))
}

// SignedArea returns the shoelace area of a closed polygon. With Y pointing
// down, clockwise polygons have a positive area.
func SignedArea(pts []r2.Point) float64 {
	if len(pts) < 3 {
		return 0
	}
	var a float64
	for i := range pts {
		j := (i + 1) % len(pts)
		a += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return a / 2
}

// IsConvex reports whether the polygon turns the same way at every vertex.
// Degenerate (collinear) vertices make it non-convex.
func IsConvex(pts []r2.Point) bool {
	if len(pts) < 3 {
		return false
	}
	sign := 0
	for i := range pts {
		a := pts[i]
		b := pts[(i+1)%len(pts)]
		c := pts[(i+2)%len(pts)]
		cross := b.Sub(a).Cross(c.Sub(b))
		if cross == 0 {
			return false
		}
		s := 1
		if cross < 0 {
			s = -1
		}
		if sign == 0 {
			sign = s
		} else if s != sign {
			return false
		}
	}
	return true
}

// MinSide returns the length of the shortest edge of a closed polygon.
func MinSide(pts []r2.Point) float64 {
	minSide := math.Inf(1)
	for i := range pts {
		d := pts[(i+1)%len(pts)].Sub(pts[i]).Norm()
		if d < minSide {
			minSide = d
		}
	}
	return minSide
}

// Bounds returns the axis-aligned bounding box of the points as min and max corners.
func Bounds(pts []r2.Point) (r2.Point, r2.Point) {
	if len(pts) == 0 {
		return r2.Point{}, r2.Point{}
	}
	lo, hi := pts[0], pts[0]
	for _, p := range pts[1:] {
		lo.X = math.Min(lo.X, p.X)
		lo.Y = math.Min(lo.Y, p.Y)
		hi.X = math.Max(hi.X, p.X)
		hi.Y = math.Max(hi.Y, p.Y)
	}
	return lo, hi
}
