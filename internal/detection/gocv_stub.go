//go:build !gocv

package detection

import "github.com/pkg/errors"

// ErrBackendUnavailable is returned for a backend not compiled into the binary.
var ErrBackendUnavailable = errors.New("detector backend not available in this build")

func newGoCVDetector() (Detector, error) {
	return nil, errors.Wrap(ErrBackendUnavailable, "rebuild with -tags gocv for the OpenCV backend")
}
