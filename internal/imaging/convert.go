package imaging

import (
	"image"

	"github.com/disintegration/imaging"
)

// ToRGBA returns a private copy of img as *image.RGBA with bounds starting at
// (0,0), ready to be drawn on.
func ToRGBA(img image.Image) *image.RGBA {
	n := imaging.Clone(img)
	// NRGBA and RGBA share a layout; only translucent pixels need
	// premultiplying.
	pix := n.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		a := uint32(pix[i+3])
		if a == 0xff {
			continue
		}
		pix[i] = uint8(uint32(pix[i]) * a / 0xff)
		pix[i+1] = uint8(uint32(pix[i+1]) * a / 0xff)
		pix[i+2] = uint8(uint32(pix[i+2]) * a / 0xff)
	}
	return &image.RGBA{Pix: pix, Stride: n.Stride, Rect: n.Rect}
}
