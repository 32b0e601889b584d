package detection

import "image"

// region is a connected set of dark pixels.
type region struct {
	pixels []image.Point
	// touchesEdge is set when the region reaches the image border, where a
	// marker cannot be fully visible.
	touchesEdge bool
}

// findRegions groups dark pixels into 8-connected regions, scanning in
// raster order. Regions smaller than minPixels are dropped as noise.
func findRegions(dark []bool, width, height, minPixels int) []region {
	visited := make([]bool, len(dark))
	regions := make([]region, 0)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*width + x
			if !dark[i] || visited[i] {
				continue
			}
			r := floodFill(dark, visited, x, y, width, height)
			if len(r.pixels) >= minPixels {
				regions = append(regions, r)
			}
		}
	}
	return regions
}

// floodFill collects the region containing (startX, startY) with an explicit
// stack.
func floodFill(dark, visited []bool, startX, startY, width, height int) region {
	var r region
	stack := []image.Point{{X: startX, Y: startY}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < 0 || p.X >= width || p.Y < 0 || p.Y >= height {
			continue
		}
		i := p.Y*width + p.X
		if visited[i] || !dark[i] {
			continue
		}

		visited[i] = true
		r.pixels = append(r.pixels, p)
		if p.X == 0 || p.Y == 0 || p.X == width-1 || p.Y == height-1 {
			r.touchesEdge = true
		}

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				stack = append(stack, image.Point{X: p.X + dx, Y: p.Y + dy})
			}
		}
	}
	return r
}
