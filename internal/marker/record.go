package marker

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/ironsheep/fiducial-tools/internal/camera"
)

// Record is one detected marker. Create records with NewRecord.
type Record struct {
	// ID is the dictionary index of the marker.
	ID int `json:"id"`

	// Centroid is the mean of the four corner pixels.
	Centroid r2.Point `json:"centroid"`

	// Rvec is the Rodrigues rotation from marker to camera frame.
	Rvec r3.Vector `json:"rvec"`

	// Tvec is the marker center in the camera frame, in the unit the marker
	// length is given in.
	Tvec r3.Vector `json:"tvec"`
}

// NewRecord validates and returns a record. Negative IDs and non-finite
// coordinates are rejected.
func NewRecord(id int, centroid r2.Point, rvec, tvec r3.Vector) (Record, error) {
	if id < 0 {
		return Record{}, errors.Wrapf(ErrInvalidRecord, "negative id %d", id)
	}
	values := []float64{centroid.X, centroid.Y, rvec.X, rvec.Y, rvec.Z, tvec.X, tvec.Y, tvec.Z}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Record{}, errors.Wrapf(ErrInvalidRecord, "id %d: non-finite value", id)
		}
	}
	return Record{ID: id, Centroid: centroid, Rvec: rvec, Tvec: tvec}, nil
}

// Pose returns the marker pose.
func (r Record) Pose() camera.Pose {
	return camera.Pose{Rvec: r.Rvec, Tvec: r.Tvec}
}

// List holds the records of one image in detection order. IDs may repeat.
type List []Record

// Find returns the first record with the given ID.
func (l List) Find(id int) (Record, error) {
	for _, r := range l {
		if r.ID == id {
			return r, nil
		}
	}
	return Record{}, errors.Wrapf(ErrNotFound, "id %d", id)
}

// IDs returns the marker IDs in list order.
func (l List) IDs() []int {
	ids := make([]int, len(l))
	for i, r := range l {
		ids[i] = r.ID
	}
	return ids
}
