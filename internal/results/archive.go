package results

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/sbinet/npyio/npz"
	"gonum.org/v1/gonum/mat"

	"github.com/ironsheep/fiducial-tools/internal/marker"
)

// Array name suffixes.
const (
	suffixIDs       = "_ids"
	suffixCentroids = "_centroids"
	suffixRvecs     = "_rvecs"
	suffixTvecs     = "_tvecs"
)

var idsKey = regexp.MustCompile(`^image(\d+)_ids(\.npy)?$`)

// ArrayName returns the archive array name of image index (1-based) with the
// given suffix.
func ArrayName(index int, suffix string) string {
	return "image" + strconv.Itoa(index) + suffix
}

// WriteArchive writes the marker lists of a run to an npz archive.
//
// # Layout
//
// Image i (1-based) gets four arrays:
//
//   - image<i>_ids: int64, one per marker
//   - image<i>_centroids: float64, n x 2
//   - image<i>_rvecs: float64, n x 3
//   - image<i>_tvecs: float64, n x 3
//
// Images without markers get empty flat arrays.
//
// # Parameters
//
//   - path: archive file, created or truncated
//   - lists: one list per image; lists[0] is image 1
//
// # Returns
//
//   - an error from creating, writing or closing the archive
func WriteArchive(path string, lists []marker.List) (err error) {
	w, err := npz.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create archive %q", path)
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "close archive %q", path)
		}
	}()

	for i, list := range lists {
		index := i + 1
		ids, centroids, rvecs, tvecs := columns(list)
		arrays := []struct {
			suffix string
			value  interface{}
		}{
			{suffixIDs, ids},
			{suffixCentroids, centroids},
			{suffixRvecs, rvecs},
			{suffixTvecs, tvecs},
		}
		for _, a := range arrays {
			name := ArrayName(index, a.suffix)
			if err := w.Write(name, a.value); err != nil {
				return errors.Wrapf(err, "write %s", name)
			}
		}
	}
	return nil
}

// columns splits a list into archive arrays. Empty lists become empty flat
// slices since a matrix needs at least one row.
func columns(list marker.List) (ids []int64, centroids, rvecs, tvecs interface{}) {
	n := len(list)
	ids = make([]int64, n)
	if n == 0 {
		return ids, []float64{}, []float64{}, []float64{}
	}
	c := mat.NewDense(n, 2, nil)
	r := mat.NewDense(n, 3, nil)
	t := mat.NewDense(n, 3, nil)
	for i, rec := range list {
		ids[i] = int64(rec.ID)
		c.SetRow(i, []float64{rec.Centroid.X, rec.Centroid.Y})
		r.SetRow(i, []float64{rec.Rvec.X, rec.Rvec.Y, rec.Rvec.Z})
		t.SetRow(i, []float64{rec.Tvec.X, rec.Tvec.Y, rec.Tvec.Z})
	}
	return ids, c, r, t
}

// ReadArchive reads an archive written by WriteArchive. Image indices
// missing from the archive come back as empty lists.
func ReadArchive(path string) ([]marker.List, error) {
	f, err := npz.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open archive %q", path)
	}
	defer f.Close()

	indices := make([]int, 0)
	for _, k := range f.Keys() {
		m := idsKey.FindStringSubmatch(k)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 {
			continue
		}
		indices = append(indices, n)
	}
	sort.Ints(indices)
	if len(indices) == 0 {
		return []marker.List{}, nil
	}

	lists := make([]marker.List, indices[len(indices)-1])
	for i := range lists {
		lists[i] = marker.List{}
	}
	for _, index := range indices {
		list, err := readImage(f, index)
		if err != nil {
			return nil, errors.Wrapf(err, "archive %q image %d", path, index)
		}
		lists[index-1] = list
	}
	return lists, nil
}

func readImage(f *npz.Reader, index int) (marker.List, error) {
	var ids []int64
	if err := readArray(f, ArrayName(index, suffixIDs), &ids); err != nil {
		return nil, err
	}
	n := len(ids)
	var centroids, rvecs, tvecs []float64
	for _, a := range []struct {
		suffix string
		dst    *[]float64
		width  int
	}{
		{suffixCentroids, &centroids, 2},
		{suffixRvecs, &rvecs, 3},
		{suffixTvecs, &tvecs, 3},
	} {
		name := ArrayName(index, a.suffix)
		if err := readArray(f, name, a.dst); err != nil {
			return nil, err
		}
		if len(*a.dst) != n*a.width {
			return nil, errors.Errorf("%s has %d values, want %d", name, len(*a.dst), n*a.width)
		}
	}

	list := make(marker.List, 0, n)
	for i := 0; i < n; i++ {
		rec, err := marker.NewRecord(
			int(ids[i]),
			r2.Point{X: centroids[2*i], Y: centroids[2*i+1]},
			r3.Vector{X: rvecs[3*i], Y: rvecs[3*i+1], Z: rvecs[3*i+2]},
			r3.Vector{X: tvecs[3*i], Y: tvecs[3*i+1], Z: tvecs[3*i+2]},
		)
		if err != nil {
			return nil, errors.Wrapf(err, "record %d", i)
		}
		list = append(list, rec)
	}
	return list, nil
}

// readArray reads a named array, accepting keys with or without the ".npy"
// suffix. Zero-length arrays are returned without decoding.
func readArray(f *npz.Reader, name string, dst interface{}) error {
	key := ""
	for _, k := range f.Keys() {
		if k == name || strings.TrimSuffix(k, ".npy") == name {
			key = k
			break
		}
	}
	if key == "" {
		return errors.Errorf("missing array %s", name)
	}
	if hdr := f.Header(key); hdr != nil {
		for _, dim := range hdr.Descr.Shape {
			if dim == 0 {
				return nil
			}
		}
	}
	if err := f.Read(key, dst); err != nil {
		return errors.Wrapf(err, "read %s", name)
	}
	return nil
}
