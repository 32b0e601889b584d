package results

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/google/go-cmp/cmp"
	"github.com/sbinet/npyio/npz"

	"github.com/ironsheep/fiducial-tools/internal/marker"
)

func sampleLists() []marker.List {
	return []marker.List{
		{
			{ID: 7, Centroid: r2.Point{X: 319.5, Y: 239.5}, Rvec: r3.Vector{X: 3.14, Y: 0.01, Z: -0.02}, Tvec: r3.Vector{X: -0.7, Y: -0.7, Z: 1000}},
			{ID: 42, Centroid: r2.Point{X: 74.5, Y: 74.5}, Rvec: r3.Vector{X: 3.1}, Tvec: r3.Vector{X: -350, Y: -237, Z: 1001}},
		},
		{},
		{
			{ID: 0, Centroid: r2.Point{X: 1, Y: 2}, Rvec: r3.Vector{X: 0.1, Y: 0.2, Z: 0.3}, Tvec: r3.Vector{X: 4, Y: 5, Z: 6}},
		},
	}
}

func TestArchiveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Results.npz")
	want := sampleLists()

	if err := WriteArchive(path, want); err != nil {
		t.Fatalf("WriteArchive failed: %v", err)
	}
	got, err := ReadArchive(path)
	if err != nil {
		t.Fatalf("ReadArchive failed: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestArchiveKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Results.npz")
	if err := WriteArchive(path, sampleLists()[:1]); err != nil {
		t.Fatalf("WriteArchive failed: %v", err)
	}

	f, err := npz.Open(path)
	if err != nil {
		t.Fatalf("npz.Open failed: %v", err)
	}
	defer f.Close()

	for _, name := range []string{"image1_ids", "image1_centroids", "image1_rvecs", "image1_tvecs"} {
		found := false
		for _, k := range f.Keys() {
			if k == name || k == name+".npy" {
				found = true
			}
		}
		if !found {
			t.Errorf("archive keys %v missing %s", f.Keys(), name)
		}
	}

	var ids []int64
	if err := readArray(f, "image1_ids", &ids); err != nil {
		t.Fatalf("read ids: %v", err)
	}
	if diff := cmp.Diff([]int64{7, 42}, ids); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteArchive_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Results.npz")
	if err := WriteArchive(path, nil); err != nil {
		t.Fatalf("WriteArchive failed: %v", err)
	}
	got, err := ReadArchive(path)
	if err != nil {
		t.Fatalf("ReadArchive failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ReadArchive = %v, want no images", got)
	}
}

func TestArchiveErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := ReadArchive(filepath.Join(dir, "missing.npz")); err == nil {
		t.Error("ReadArchive of a missing file should fail")
	}
	if err := WriteArchive(filepath.Join(dir, "no", "such", "dir.npz"), sampleLists()); err == nil {
		t.Error("WriteArchive into a missing directory should fail")
	}
}

func TestArrayName(t *testing.T) {
	if got := ArrayName(3, suffixTvecs); got != "image3_tvecs" {
		t.Errorf("ArrayName = %q, want image3_tvecs", got)
	}
}

func TestWriteJSON(t *testing.T) {
	images := []Image{
		{Index: 1, Path: "image_1.jpg", Markers: FromList(sampleLists()[0])},
		{Index: 2, Markers: FromList(nil), Error: "decode failed"},
	}
	var buf bytes.Buffer
	if err := WriteJSON(&buf, images); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	var got []Image
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if diff := cmp.Diff(images, got); diff != "" {
		t.Errorf("JSON mismatch (-want +got):\n%s", diff)
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"markers": []`)) {
		t.Errorf("empty marker list should encode as [], got:\n%s", buf.String())
	}
}
