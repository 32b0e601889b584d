package detection

import (
	"image"
	"math"

	"github.com/golang/geo/r2"

	"github.com/ironsheep/fiducial-tools/internal/geometry"
)

// Fill ratio bounds of a marker region against its quad. The black border
// alone covers 24 of the 49 cells of a 5x5 marker.
const (
	minFillRatio = 0.35
	maxFillRatio = 1.15
)

// fitQuad approximates a region by the quadrilateral through its extreme
// pixels: the pixel farthest from the centroid, the pixel farthest from that
// one, and the farthest pixel on each side of the diagonal they span. The
// corners are returned clockwise on screen and pushed half a pixel outward so
// they sit on the region's outer boundary.
func fitQuad(pixels []image.Point, minSide float64) ([4]r2.Point, bool) {
	var quad [4]r2.Point
	if len(pixels) < 4 {
		return quad, false
	}

	var cx, cy float64
	for _, p := range pixels {
		cx += float64(p.X)
		cy += float64(p.Y)
	}
	center := r2.Point{X: cx / float64(len(pixels)), Y: cy / float64(len(pixels))}

	p0 := farthestFrom(pixels, center)
	p2 := farthestFrom(pixels, p0)
	diag := p2.Sub(p0)
	if diag.Norm() < minSide {
		return quad, false
	}

	var p1, p3 r2.Point
	maxCross, minCross := 0.0, 0.0
	for _, p := range pixels {
		q := toPoint(p)
		c := diag.Cross(q.Sub(p0))
		if c > maxCross {
			maxCross, p1 = c, q
		}
		if c < minCross {
			minCross, p3 = c, q
		}
	}
	if maxCross == 0 || minCross == 0 {
		return quad, false
	}

	quad = [4]r2.Point{p0, p1, p2, p3}
	if geometry.SignedArea(quad[:]) < 0 {
		quad[1], quad[3] = quad[3], quad[1]
	}

	mid := geometry.Centroid(quad[:])
	for i := range quad {
		quad[i] = pushOutward(quad[i], mid)
	}

	if !geometry.IsConvex(quad[:]) || geometry.MinSide(quad[:]) < minSide {
		return quad, false
	}
	fill := float64(len(pixels)) / geometry.SignedArea(quad[:])
	if fill < minFillRatio || fill > maxFillRatio {
		return quad, false
	}
	return quad, true
}

func farthestFrom(pixels []image.Point, from r2.Point) r2.Point {
	var best r2.Point
	bestDist := -1.0
	for _, p := range pixels {
		q := toPoint(p)
		if d := q.Sub(from).Norm(); d > bestDist {
			best, bestDist = q, d
		}
	}
	return best
}

// pushOutward moves a pixel-center corner half a pixel away from the quad
// center along each axis it leans on.
func pushOutward(corner, center r2.Point) r2.Point {
	const lean = 0.38 // cos(67.5 deg)
	d := corner.Sub(center)
	if n := d.Norm(); n > 0 {
		d = d.Mul(1 / n)
	}
	if math.Abs(d.X) > lean {
		corner.X += math.Copysign(0.5, d.X)
	}
	if math.Abs(d.Y) > lean {
		corner.Y += math.Copysign(0.5, d.Y)
	}
	return corner
}

// containsPoint reports whether p lies inside the clockwise convex quad.
func containsPoint(quad [4]r2.Point, p r2.Point) bool {
	for i := range quad {
		edge := quad[(i+1)%4].Sub(quad[i])
		if edge.Cross(p.Sub(quad[i])) < 0 {
			return false
		}
	}
	return true
}

func toPoint(p image.Point) r2.Point {
	return r2.Point{X: float64(p.X), Y: float64(p.Y)}
}
