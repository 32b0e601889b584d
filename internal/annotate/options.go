package annotate

import (
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"

	"github.com/ironsheep/fiducial-tools/internal/marker"
)

// Default drawing parameters.
const (
	DefaultLineWidth = 4.0
	DefaultSides     = 40
)

// Default colors.
var (
	Green = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	Blue  = color.RGBA{R: 0, G: 0, B: 255, A: 255}
	Red   = color.RGBA{R: 255, G: 0, B: 0, A: 255}
)

// style holds the resolved drawing parameters.
type style struct {
	lineWidth float64
	length    float64
	sides     int
	axisX     color.Color
	axisY     color.Color
	axisZ     color.Color
	cube      color.Color
	cylinder  color.Color
}

func defaultStyle() style {
	return style{
		lineWidth: DefaultLineWidth,
		length:    marker.DefaultLength,
		sides:     DefaultSides,
		axisX:     Green,
		axisY:     Blue,
		axisZ:     Red,
		cube:      Red,
		cylinder:  Red,
	}
}

// Option adjusts drawing.
type Option func(*style)

// WithLineWidth sets the stroke width in pixels.
func WithLineWidth(px float64) Option {
	return func(s *style) {
		if px > 0 {
			s.lineWidth = px
		}
	}
}

// WithLength sets the marker side length the shapes are sized from. It must
// match the length the poses were estimated with.
func WithLength(length float64) Option {
	return func(s *style) {
		if length > 0 {
			s.length = length
		}
	}
}

// WithSides sets the number of cylinder facets.
func WithSides(n int) Option {
	return func(s *style) {
		if n >= 3 {
			s.sides = n
		}
	}
}

// WithAxisColors sets the X, Y and Z axis colors.
func WithAxisColors(x, y, z color.Color) Option {
	return func(s *style) {
		s.axisX, s.axisY, s.axisZ = x, y, z
	}
}

// WithCubeColor sets the cube color.
func WithCubeColor(c color.Color) Option {
	return func(s *style) { s.cube = c }
}

// WithCylinderColor sets the cylinder color.
func WithCylinderColor(c color.Color) Option {
	return func(s *style) { s.cylinder = c }
}

// ParseColor parses a "#rrggbb" hex color.
func ParseColor(hex string) (color.RGBA, error) {
	if !isHexColor(hex) {
		return color.RGBA{}, errors.Errorf("parse color %q: want #rrggbb", hex)
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, errors.Wrapf(err, "parse color %q", hex)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

// isHexColor reports whether s is "#" followed by exactly six hex digits.
// colorful.Hex scans with Sscanf and accepts short or long input.
func isHexColor(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for _, c := range s[1:] {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
