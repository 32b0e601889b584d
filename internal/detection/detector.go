package detection

import (
	"context"
	"image"

	"github.com/golang/geo/r2"
)

// Candidate is a decoded marker in image coordinates.
type Candidate struct {
	// ID is the dictionary index of the marker.
	ID int `json:"id"`

	// Corners are the outer corners in marker order: top-left, top-right,
	// bottom-right, bottom-left as printed, whatever the in-image rotation.
	Corners [4]r2.Point `json:"corners"`

	// Corrected is the number of bits that differed from the dictionary code.
	Corrected int `json:"corrected"`
}

// Detector finds markers in a grayscale image.
type Detector interface {
	// Detect returns every decoded marker. An image without markers yields an
	// empty slice and no error.
	Detect(ctx context.Context, gray *image.Gray) ([]Candidate, error)

	// Name identifies the backend.
	Name() string
}

// Backend names accepted by New.
const (
	BackendNative = "native"
	BackendGoCV   = "gocv"
)
