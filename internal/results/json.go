package results

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"

	"github.com/ironsheep/fiducial-tools/internal/marker"
)

// Marker is the JSON form of a marker record.
type Marker struct {
	ID       int        `json:"id"`
	Centroid [2]float64 `json:"centroid"`
	Rvec     [3]float64 `json:"rvec"`
	Tvec     [3]float64 `json:"tvec"`
}

// Image is the JSON form of one image's markers.
type Image struct {
	// Index is the 1-based image number.
	Index   int      `json:"image"`
	Path    string   `json:"path,omitempty"`
	Markers []Marker `json:"markers"`
	Error   string   `json:"error,omitempty"`
}

// FromList converts records to their JSON form.
func FromList(list marker.List) []Marker {
	out := make([]Marker, len(list))
	for i, r := range list {
		out[i] = Marker{
			ID:       r.ID,
			Centroid: [2]float64{r.Centroid.X, r.Centroid.Y},
			Rvec:     [3]float64{r.Rvec.X, r.Rvec.Y, r.Rvec.Z},
			Tvec:     [3]float64{r.Tvec.X, r.Tvec.Y, r.Tvec.Z},
		}
	}
	return out
}

// WriteJSON writes indented JSON for a set of images.
func WriteJSON(w io.Writer, images []Image) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(images); err != nil {
		return errors.Wrap(err, "encode results")
	}
	return nil
}
