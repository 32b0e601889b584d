// Package imaging loads, converts and stores the images the marker pipeline
// works on.
//
// Input images are decoded through github.com/disintegration/imaging with
// EXIF orientation applied, so a phone photo of a marker is analysed the way
// it is displayed. PNG, JPEG, GIF, BMP and TIFF are supported.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner, X
// increasing rightward and Y increasing downward.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. Cached images are shared and must
// not be drawn on; use ToRGBA to get a private, mutable copy first.
//
// # Output
//
// Save writes through a temporary file in the destination directory and
// renames it into place, so a reader never sees a partially written image
// and a failed write leaves any previous file intact.
package imaging
