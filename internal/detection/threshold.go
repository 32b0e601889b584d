package detection

import (
	"image"

	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"
)

// Grayscale converts img to single channel intensity. Gray images are
// returned as is.
//
// bild returns the luminance replicated into the R, G and B channels of an
// RGBA image; the red channel is copied out.
func Grayscale(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	rgba := effect.Grayscale(img)
	b := rgba.Rect
	g := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		src := rgba.PixOffset(b.Min.X, y)
		dst := g.PixOffset(b.Min.X, y)
		for x := 0; x < b.Dx(); x++ {
			g.Pix[dst+x] = rgba.Pix[src+4*x]
		}
	}
	return g
}

// otsuLevel returns the intensity that best separates the histogram of gray
// into two classes. Pixels below the level are dark. ok is false for an image
// with a single intensity.
func otsuLevel(gray *image.Gray) (level uint8, ok bool) {
	var hist [256]int
	b := gray.Rect
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := gray.Pix[gray.PixOffset(b.Min.X, y):gray.PixOffset(b.Max.X-1, y)+1]
		for _, v := range row {
			hist[v]++
		}
	}

	total := b.Dx() * b.Dy()
	if total == 0 {
		return 0, false
	}
	var sum float64
	distinct := 0
	for v, n := range hist {
		sum += float64(v * n)
		if n > 0 {
			distinct++
		}
	}
	if distinct < 2 {
		return 0, false
	}

	var (
		sumDark   float64
		countDark int
		best      = -1.0
		bestT     int
	)
	for t := 0; t < 255; t++ {
		countDark += hist[t]
		if countDark == 0 {
			continue
		}
		countLight := total - countDark
		if countLight == 0 {
			break
		}
		sumDark += float64(t * hist[t])
		meanDark := sumDark / float64(countDark)
		meanLight := (sum - sumDark) / float64(countLight)
		between := float64(countDark) * float64(countLight) * (meanDark - meanLight) * (meanDark - meanLight)
		if between > best {
			best, bestT = between, t
		}
	}
	return uint8(bestT + 1), true
}

// binarize thresholds gray and returns a dark mask indexed from the image
// origin, row-major.
func binarize(gray *image.Gray, level uint8) []bool {
	bin := segment.Threshold(gray, level)
	b := bin.Bounds()
	w, h := b.Dx(), b.Dy()
	dark := make([]bool, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dark[y*w+x] = bin.Pix[bin.PixOffset(b.Min.X+x, b.Min.Y+y)] == 0
		}
	}
	return dark
}
