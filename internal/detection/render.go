package detection

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
)

// Render draws marker id as a grayscale image: a white quiet zone of
// quietCells cells, a one-cell black border and the Size x Size data cells,
// each cell cellPx pixels wide.
func (d *Dictionary) Render(id, cellPx, quietCells int) (*image.Gray, error) {
	code, err := d.Code(id)
	if err != nil {
		return nil, err
	}
	if cellPx <= 0 {
		return nil, errors.Errorf("cell size must be positive, got %d", cellPx)
	}
	if quietCells < 0 {
		return nil, errors.Errorf("quiet zone must not be negative, got %d", quietCells)
	}

	cells := d.Size + 2
	side := (cells + 2*quietCells) * cellPx
	img := image.NewGray(image.Rect(0, 0, side, side))
	for i := range img.Pix {
		img.Pix[i] = 0xFF
	}

	for r := 0; r < cells; r++ {
		for c := 0; c < cells; c++ {
			white := false
			if r > 0 && r < cells-1 && c > 0 && c < cells-1 {
				white = code&cellBit(r-1, c-1, d.Size) != 0
			}
			if white {
				continue
			}
			x0 := (c + quietCells) * cellPx
			y0 := (r + quietCells) * cellPx
			for y := y0; y < y0+cellPx; y++ {
				for x := x0; x < x0+cellPx; x++ {
					img.SetGray(x, y, color.Gray{Y: 0})
				}
			}
		}
	}
	return img, nil
}
