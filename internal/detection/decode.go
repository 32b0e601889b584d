package detection

import (
	"math"

	"github.com/golang/geo/r2"

	"github.com/ironsheep/fiducial-tools/internal/geometry"
)

// sampleOffsets are the per-axis sample positions inside a cell, in cells
// from the cell center.
var sampleOffsets = [3]float64{-0.25, 0, 0.25}

// readCode samples the cell grid of a quad (border included) through the
// homography from cell coordinates to pixels. It fails when more than
// maxBorderErrors border cells read white.
func readCode(dark []bool, width, height int, quad [4]r2.Point, size, maxBorderErrors int) (uint64, bool) {
	cells := float64(size + 2)
	grid := []r2.Point{{X: 0, Y: 0}, {X: cells, Y: 0}, {X: cells, Y: cells}, {X: 0, Y: cells}}
	h, err := geometry.EstimateHomography(grid, quad[:])
	if err != nil {
		return 0, false
	}

	var code uint64
	borderErrors := 0
	n := size + 2
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			white, ok := cellIsWhite(dark, width, height, h, r, c)
			if !ok {
				return 0, false
			}
			if r == 0 || c == 0 || r == n-1 || c == n-1 {
				if white {
					borderErrors++
					if borderErrors > maxBorderErrors {
						return 0, false
					}
				}
				continue
			}
			if white {
				code |= cellBit(r-1, c-1, size)
			}
		}
	}
	return code, true
}

// cellIsWhite takes a majority vote over a 3x3 sample pattern in cell (r, c).
func cellIsWhite(dark []bool, width, height int, h geometry.Homography, r, c int) (white, ok bool) {
	votes := 0
	for _, oy := range sampleOffsets {
		for _, ox := range sampleOffsets {
			p := h.Apply(r2.Point{X: float64(c) + 0.5 + ox, Y: float64(r) + 0.5 + oy})
			x := int(math.Floor(p.X + 0.5))
			y := int(math.Floor(p.Y + 0.5))
			if x < 0 || y < 0 || x >= width || y >= height {
				return false, false
			}
			if !dark[y*width+x] {
				votes++
			}
		}
	}
	return votes > len(sampleOffsets)*len(sampleOffsets)/2, true
}
