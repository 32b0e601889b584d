package annotate

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Shape selects a wireframe.
type Shape string

// Supported shapes.
const (
	Axis     Shape = "axis"
	Cube     Shape = "cube"
	Cylinder Shape = "cylinder"
)

// Shapes lists every shape in drawing order.
var Shapes = []Shape{Axis, Cube, Cylinder}

// ParseShape validates a shape name.
func ParseShape(name string) (Shape, error) {
	for _, s := range Shapes {
		if string(s) == name {
			return s, nil
		}
	}
	return "", errors.Errorf("unknown shape %q (want axis, cube or cylinder)", name)
}

// AxisPoints returns the axis origin followed by the X, Y and Z ends. The
// origin is the marker's top-left corner; each arrow is half a side long.
func AxisPoints(length float64) []r3.Vector {
	m := length / 2
	return []r3.Vector{
		{X: -m, Y: m, Z: 0},
		{X: 0, Y: m, Z: 0},
		{X: -m, Y: 0, Z: 0},
		{X: -m, Y: m, Z: m},
	}
}

// CubePoints returns the top face followed by the bottom face, each in
// marker corner order. The bottom face is the marker outline.
func CubePoints(length float64) []r3.Vector {
	m := length / 2
	return []r3.Vector{
		{X: -m, Y: m, Z: length},
		{X: m, Y: m, Z: length},
		{X: m, Y: -m, Z: length},
		{X: -m, Y: -m, Z: length},
		{X: -m, Y: m, Z: 0},
		{X: m, Y: m, Z: 0},
		{X: m, Y: -m, Z: 0},
		{X: -m, Y: -m, Z: 0},
	}
}

// CylinderRims returns the bottom and top rim points of a cylinder of radius
// length/2 and height 1.5*length standing on the marker center. Point i sits
// at i*360/sides degrees.
func CylinderRims(length float64, sides int) (bottom, top []r3.Vector) {
	radius := length / 2
	height := 1.5 * length
	step := 360 / float64(sides)
	bottom = make([]r3.Vector, sides)
	top = make([]r3.Vector, sides)
	for i := 0; i < sides; i++ {
		x := radius * cosDeg(step*float64(i))
		y := radius * sinDeg(step*float64(i))
		bottom[i] = r3.Vector{X: x, Y: y, Z: 0}
		top[i] = r3.Vector{X: x, Y: y, Z: height}
	}
	return bottom, top
}

// spokeEvery is the facet interval of cylinder spokes.
const spokeEvery = 3

func sinDeg(deg float64) float64 { return math.Sin(deg * math.Pi / 180) }

func cosDeg(deg float64) float64 { return math.Cos(deg * math.Pi / 180) }
