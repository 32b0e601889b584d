// Package testscene builds synthetic camera scenes for tests: a calibrated
// pinhole camera looking at printed markers on a white background.
package testscene

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/golang/geo/r3"

	"github.com/ironsheep/fiducial-tools/internal/camera"
	"github.com/ironsheep/fiducial-tools/internal/detection"
)

// Scene geometry. A 100 unit marker at 1000 units facing the camera covers
// 70 pixels, which is 10 pixels per cell.
const (
	Width  = 640
	Height = 480
	Focal  = 700.0
	Length = 100.0
	Depth  = 1000.0
	CellPx = 10
)

// Placement puts marker ID with its top-left pixel at (X, Y).
type Placement struct {
	ID   int
	X, Y int
}

// Centered is marker 7 centered in the frame.
var Centered = Placement{ID: 7, X: 285, Y: 205}

// Camera returns the distortion-free scene camera.
func Camera() *camera.Model {
	cam, err := camera.NewModelFromIntrinsics(Focal, Focal, Width/2, Height/2, nil)
	if err != nil {
		panic(err)
	}
	cam.Width, cam.Height = Width, Height
	return cam
}

// CenteredPose is the pose of the Centered marker: facing the camera, upright
// on screen, Depth units away.
func CenteredPose() camera.Pose {
	return camera.Pose{Rvec: r3.Vector{X: math.Pi}, Tvec: r3.Vector{Z: Depth}}
}

// Image renders the placements onto a white RGBA frame.
func Image(placements ...Placement) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, Width, Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	for _, p := range placements {
		m, err := detection.DefaultDictionary().Render(p.ID, CellPx, 0)
		if err != nil {
			panic(err)
		}
		draw.Draw(img, m.Bounds().Add(image.Pt(p.X, p.Y)), m, image.Point{}, draw.Src)
	}
	return img
}
