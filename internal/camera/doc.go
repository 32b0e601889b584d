// Package camera models a calibrated pinhole camera and the geometry that sits
// on top of it: loading a calibration, projecting 3-D points into pixels, and
// recovering the pose of a square marker from its four image corners.
//
// # Conventions
//
// The camera follows the OpenCV conventions so that calibrations produced by
// cv2.calibrateCamera can be used unchanged:
//
//   - The intrinsic matrix is [[fx s cx] [0 fy cy] [0 0 1]].
//   - Distortion coefficients are ordered (k1, k2, p1, p2, k3). Shorter vectors
//     are zero-padded.
//   - A pose is a Rodrigues rotation vector plus a translation vector mapping
//     object coordinates into camera coordinates: Xc = R*X + t.
//   - Camera Z points forward, X right and Y down.
//
// A square marker of side L has its own frame centered on the marker with X
// to the right, Y up and Z out of the marker face. Its corners, in detector
// order, are (-L/2, L/2, 0), (L/2, L/2, 0), (L/2, -L/2, 0) and (-L/2, -L/2, 0).
//
// # Calibration Files
//
// Load accepts two formats:
//   - ".npz" NumPy archives holding "mtx" and "dist" arrays (as written by
//     numpy.savez after calibration); "rvecs" and "tvecs" may be present and
//     are ignored.
//   - ".json" documents with "intrinsic_parameters" and
//     "distortion_parameters" objects.
//
// Both return a *CalibrationLoadError when the file is missing, unreadable or
// lacks a required field.
//
// # Thread Safety
//
// A Model is never mutated after construction and may be shared freely.
package camera
