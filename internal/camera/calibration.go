package camera

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sbinet/npyio/npz"
)

// CalibrationLoadError reports a calibration file that is missing, unreadable
// or lacks a required field.
type CalibrationLoadError struct {
	Path  string
	Field string
	Err   error
}

func (e *CalibrationLoadError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("load calibration %q: field %q: %v", e.Path, e.Field, e.Err)
	}
	return fmt.Sprintf("load calibration %q: %v", e.Path, e.Err)
}

func (e *CalibrationLoadError) Unwrap() error { return e.Err }

// errMissingField marks a required array or object that is absent.
var errMissingField = errors.New("missing required field")

// Load reads a calibration from an .npz or .json file.
func Load(path string) (*Model, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".npz":
		return LoadNPZ(path)
	case ".json":
		return LoadJSON(path)
	default:
		return nil, &CalibrationLoadError{Path: path, Err: errors.Errorf("unsupported calibration format %q", filepath.Ext(path))}
	}
}

// LoadNPZ reads the "mtx" and "dist" arrays of a NumPy archive.
func LoadNPZ(path string) (*Model, error) {
	f, err := npz.Open(path)
	if err != nil {
		return nil, &CalibrationLoadError{Path: path, Err: err}
	}
	defer f.Close()

	mtx, err := readArray(f, "mtx")
	if err != nil {
		return nil, &CalibrationLoadError{Path: path, Field: "mtx", Err: err}
	}
	if len(mtx) != 9 {
		return nil, &CalibrationLoadError{Path: path, Field: "mtx", Err: errors.Errorf("expected 3x3 matrix, got %d values", len(mtx))}
	}
	dist, err := readArray(f, "dist")
	if err != nil {
		return nil, &CalibrationLoadError{Path: path, Field: "dist", Err: err}
	}

	model, err := NewModel(mtx, dist)
	if err != nil {
		return nil, &CalibrationLoadError{Path: path, Err: err}
	}
	return model, nil
}

// readArray reads a named float array, accepting keys with or without the
// ".npy" suffix and float32 or float64 storage. Fortran-ordered 2-D arrays
// are returned in row-major order.
func readArray(f *npz.Reader, name string) ([]float64, error) {
	key := ""
	for _, k := range f.Keys() {
		if k == name || k == name+".npy" {
			key = k
			break
		}
	}
	if key == "" {
		return nil, errMissingField
	}

	var data []float64
	if err := f.Read(key, &data); err != nil {
		var data32 []float32
		if err32 := f.Read(key, &data32); err32 != nil {
			return nil, errors.Wrap(err, "read array")
		}
		data = make([]float64, len(data32))
		for i, v := range data32 {
			data[i] = float64(v)
		}
	}

	if hdr := f.Header(key); hdr != nil && hdr.Descr.Fortran && len(hdr.Descr.Shape) == 2 {
		rows, cols := hdr.Descr.Shape[0], hdr.Descr.Shape[1]
		if rows*cols == len(data) {
			rowMajor := make([]float64, len(data))
			for r := 0; r < rows; r++ {
				for c := 0; c < cols; c++ {
					rowMajor[r*cols+c] = data[c*rows+r]
				}
			}
			data = rowMajor
		}
	}
	return data, nil
}

// jsonCalibration is the JSON calibration document.
type jsonCalibration struct {
	Intrinsics *struct {
		Width  int     `json:"width_px"`
		Height int     `json:"height_px"`
		Fx     float64 `json:"fx"`
		Fy     float64 `json:"fy"`
		Ppx    float64 `json:"ppx"`
		Ppy    float64 `json:"ppy"`
	} `json:"intrinsic_parameters"`
	Distortion *BrownConrady `json:"distortion_parameters"`
}

// LoadJSON reads a calibration with "intrinsic_parameters" and
// "distortion_parameters" objects. Distortion may be omitted.
func LoadJSON(path string) (*Model, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &CalibrationLoadError{Path: path, Err: err}
	}
	var doc jsonCalibration
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &CalibrationLoadError{Path: path, Err: errors.Wrap(err, "error parsing JSON string")}
	}
	if doc.Intrinsics == nil {
		return nil, &CalibrationLoadError{Path: path, Field: "intrinsic_parameters", Err: errMissingField}
	}

	var dist []float64
	if doc.Distortion != nil {
		dist = doc.Distortion.Coefficients()
	}
	in := doc.Intrinsics
	model, err := NewModelFromIntrinsics(in.Fx, in.Fy, in.Ppx, in.Ppy, dist)
	if err != nil {
		return nil, &CalibrationLoadError{Path: path, Err: err}
	}
	model.Width, model.Height = in.Width, in.Height
	return model, nil
}
