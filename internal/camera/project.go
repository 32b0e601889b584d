package camera

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// ProjectPoints maps object points into pixel coordinates.
//
// # Algorithm
//
//  1. Rotate by Rodrigues(rvec) and translate by tvec into the camera frame
//  2. Divide by depth; points on the camera plane (Z == 0) are divided by
//     one, matching cv2.projectPoints
//  3. Apply the lens distortion, then the intrinsic matrix
//
// # Parameters
//
//   - points: object points in the marker frame
//   - rvec, tvec: the object-to-camera pose
//
// # Returns
//
//   - one pixel per input point, in input order
func (m *Model) ProjectPoints(points []r3.Vector, rvec, tvec r3.Vector) []r2.Point {
	rot := Rodrigues(rvec)
	out := make([]r2.Point, len(points))
	for i, p := range points {
		out[i] = m.projectCameraPoint(rot.Apply(p).Add(tvec))
	}
	return out
}

// ProjectPoint projects a single point expressed in camera coordinates.
func (m *Model) ProjectPoint(pc r3.Vector) r2.Point {
	return m.projectCameraPoint(pc)
}

func (m *Model) projectCameraPoint(pc r3.Vector) r2.Point {
	invZ := 1.0
	if pc.Z != 0 {
		invZ = 1 / pc.Z
	}
	xd, yd := m.distortion.Distort(pc.X*invZ, pc.Y*invZ)
	u, v := m.toPixel(xd, yd)
	return r2.Point{X: u, Y: v}
}

// UndistortPixel returns the undistorted normalized coordinates of a pixel.
func (m *Model) UndistortPixel(p r2.Point) r2.Point {
	x, y := m.toNormalized(p.X, p.Y)
	x, y = m.distortion.Undistort(x, y)
	return r2.Point{X: x, Y: y}
}
