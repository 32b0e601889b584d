// Package annotate draws 3-D wireframes on detected markers.
//
// Every shape is a fixed set of points in the marker frame (X right, Y up,
// Z out of the printed face, origin at the marker center). The points are
// projected through the camera model with the marker's pose and stroked
// onto the image in place.
//
//   - Axis: three half-length arrows from the marker's top-left corner,
//     X green, Y blue, Z red
//   - Cube: a cube of the marker's side length standing on the marker
//   - Cylinder: a 40-facet cylinder of radius L/2 and height 1.5 L with a
//     spoke quadrilateral on every third facet boundary
//
// Drawing looks the marker up by ID in the list; the first record with that
// ID is used. A missing ID fails with marker.ErrNotFound and leaves the image
// untouched.
package annotate
