// Package detection finds square fiducial markers in grayscale images.
//
// A marker is a black square border one cell wide around a grid of data
// cells. Each dictionary entry is a distinct cell pattern; its index is the
// marker ID. Patterns are chosen so no two markers, under any of the four
// rotations, differ in fewer than a fixed number of cells, which lets the
// decoder correct a few misread cells and recover the marker's orientation.
//
// # Backends
//
// Two Detector implementations are available:
//
//   - native: pure Go, matching the built-in 5x5 dictionary (or one loaded
//     with LoadDictionary)
//   - gocv: OpenCV's ArUco module with its predefined 5x5 250 dictionary,
//     compiled in with the gocv build tag
//
// # Corner Order
//
// Candidate corners always follow the printed marker: top-left, top-right,
// bottom-right, bottom-left. A marker photographed upside down reports its
// printed top-left corner first even though it appears at the bottom right.
//
// # Coordinate System
//
// Corners are in pixel coordinates with the origin at the top-left, X to the
// right and Y down. Integer coordinates are pixel centers.
//
// # Limitations
//
// The native backend works on a single global threshold. Strong shadows or
// gradients across the frame can break the black border into pieces, and
// markers touching the image edge are skipped.
package detection
