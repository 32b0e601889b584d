// Package marker turns detector output into posed marker records.
//
// A Locator runs a detection.Detector over one image, then estimates the pose
// of every decoded marker with the camera model. The result is a List of
// Records in detection order. Each Record carries the marker ID, the pixel
// centroid of its four corners and the rotation and translation vectors that
// map marker coordinates into the camera frame.
//
// Records are only meaningful together with the camera model that produced
// them.
package marker
