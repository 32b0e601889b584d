// Package geometry provides the small amount of planar geometry shared by the
// marker detector and the pose estimator.
//
// Points are github.com/golang/geo/r2 points in pixel (or normalized image)
// coordinates. The origin is the top-left corner of the image, X increases
// rightward and Y increases downward, so a polygon listed clockwise on screen
// has a positive signed area.
//
// # Homographies
//
// Homography maps one plane onto another. It is estimated with the normalized
// direct linear transform: both point sets are translated to their centroid and
// scaled to an average distance of sqrt(2) before the 2n x 9 system is solved
// through gonum's SVD, then the normalization is undone.
package geometry
