package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"golang.org/x/image/bmp"
)

// createTestImage writes a solid color PNG into a temp dir and returns its path.
func createTestImage(t *testing.T, width, height int, c color.Color) string {
	t.Helper()
	img := solidImage(width, height, c)

	path := filepath.Join(t.TempDir(), "test-image.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

func solidImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestImageCache_Load(t *testing.T) {
	cache := NewImageCache()
	imgPath := createTestImage(t, 100, 80, color.RGBA{255, 0, 0, 255})

	img1, err := cache.Load(imgPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	bounds := img1.Bounds()
	if bounds.Dx() != 100 || bounds.Dy() != 80 {
		t.Errorf("unexpected dimensions: got %dx%d, want 100x80", bounds.Dx(), bounds.Dy())
	}

	img2, err := cache.Load(imgPath)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if img1 != img2 {
		t.Error("second Load did not return cached image")
	}
	if cache.Len() != 1 {
		t.Errorf("Len() = %d, want 1", cache.Len())
	}
}

func TestImageCache_Load_Errors(t *testing.T) {
	cache := NewImageCache()
	if _, err := cache.Load("/nonexistent/path/to/image.png"); err == nil {
		t.Error("Load should fail for non-existent file")
	}

	path := filepath.Join(t.TempDir(), "invalid.png")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := cache.Load(path); err == nil {
		t.Error("Load should fail for invalid image data")
	}
	if cache.Len() != 0 {
		t.Errorf("failed loads should not be cached, Len() = %d", cache.Len())
	}
}

func TestImageCache_ClearAndEvict(t *testing.T) {
	cache := NewImageCache()
	a := createTestImage(t, 10, 10, color.White)
	b := createTestImage(t, 12, 12, color.Black)
	for _, p := range []string{a, b} {
		if _, err := cache.Load(p); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
	}

	cache.Evict(a)
	cache.Evict("/nonexistent/path")
	if cache.Len() != 1 {
		t.Errorf("after Evict Len() = %d, want 1", cache.Len())
	}
	cache.Clear()
	if cache.Len() != 0 {
		t.Errorf("after Clear Len() = %d, want 0", cache.Len())
	}
}

func TestImageCache_ConcurrentAccess(t *testing.T) {
	cache := NewImageCache()
	imgPath := createTestImage(t, 50, 50, color.RGBA{128, 128, 128, 255})

	var wg sync.WaitGroup
	errs := make(chan error, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Load(imgPath); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent Load error: %v", err)
	}
}

func TestLoadImageInfo(t *testing.T) {
	cache := NewImageCache()
	imgPath := createTestImage(t, 200, 150, color.RGBA{255, 128, 64, 255})

	info, err := LoadImageInfo(cache, imgPath)
	if err != nil {
		t.Fatalf("LoadImageInfo failed: %v", err)
	}
	if info.Width != 200 || info.Height != 150 {
		t.Errorf("size: got %dx%d, want 200x150", info.Width, info.Height)
	}
	if info.Format != "png" {
		t.Errorf("Format: got %s, want png", info.Format)
	}
	if info.FileSizeBytes <= 0 {
		t.Error("FileSizeBytes should be positive")
	}
	if info.Path != imgPath {
		t.Errorf("Path: got %s, want %s", info.Path, imgPath)
	}
}

func TestLoadImageInfo_FormatFromContents(t *testing.T) {
	img := solidImage(8, 6, color.RGBA{10, 20, 30, 255})
	dir := t.TempDir()

	tests := []struct {
		name   string
		file   string
		encode func(f *os.File) error
		format string
	}{
		{"png with jpg extension", "a.jpg", func(f *os.File) error { return png.Encode(f, img) }, "png"},
		{"jpeg", "b.jpeg", func(f *os.File) error { return jpeg.Encode(f, img, nil) }, "jpeg"},
		{"bmp", "c.bmp", func(f *os.File) error { return bmp.Encode(f, img) }, "bmp"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			f, err := os.Create(path)
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			if err := tt.encode(f); err != nil {
				t.Fatalf("encode: %v", err)
			}
			f.Close()

			info, err := LoadImageInfo(NewImageCache(), path)
			if err != nil {
				t.Fatalf("LoadImageInfo failed: %v", err)
			}
			if info.Format != tt.format {
				t.Errorf("Format: got %s, want %s", info.Format, tt.format)
			}
		})
	}
}

func TestToRGBA(t *testing.T) {
	src := solidImage(4, 3, color.RGBA{1, 2, 3, 255})
	dst := ToRGBA(src)
	if dst.Bounds() != image.Rect(0, 0, 4, 3) {
		t.Fatalf("bounds = %v, want 4x3 at origin", dst.Bounds())
	}
	if got := dst.RGBAAt(2, 1); got != (color.RGBA{1, 2, 3, 255}) {
		t.Errorf("pixel = %v, want {1 2 3 255}", got)
	}

	dst.SetRGBA(0, 0, color.RGBA{9, 9, 9, 255})
	if got := src.RGBAAt(0, 0); got != (color.RGBA{1, 2, 3, 255}) {
		t.Error("ToRGBA should copy, not alias, the source")
	}

	sub := solidImage(10, 10, color.White).SubImage(image.Rect(5, 5, 8, 9))
	if got := ToRGBA(sub).Bounds(); got != image.Rect(0, 0, 3, 4) {
		t.Errorf("sub-image bounds = %v, want 3x4 at origin", got)
	}

	half := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	half.SetNRGBA(0, 0, color.NRGBA{200, 100, 50, 128})
	if got := ToRGBA(half).RGBAAt(0, 0); got.A != 128 || got.R > 128 {
		t.Errorf("translucent pixel = %v, want premultiplied", got)
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	img := solidImage(16, 16, color.RGBA{0, 0, 255, 255})

	tests := []struct {
		file   string
		format string
	}{
		{"out/axis1.jpg", "jpeg"},
		{"out/axis1.png", "png"},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			if err := Save(img, path, 90); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
			info, err := LoadImageInfo(NewImageCache(), path)
			if err != nil {
				t.Fatalf("LoadImageInfo failed: %v", err)
			}
			if info.Format != tt.format || info.Width != 16 {
				t.Errorf("saved %s %dpx, want %s 16px", info.Format, info.Width, tt.format)
			}
		})
	}

	entries, err := os.ReadDir(filepath.Join(dir, "out"))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("output directory has %d entries, want 2 (no temp files left)", len(entries))
	}
}

func TestSave_Errors(t *testing.T) {
	img := solidImage(4, 4, color.White)
	dir := t.TempDir()

	if err := Save(img, filepath.Join(dir, "out.xyz"), 0); err == nil {
		t.Error("Save with unknown extension should fail")
	}

	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := Save(img, filepath.Join(blocker, "out.png"), 0); err == nil {
		t.Error("Save under a regular file should fail")
	}
}

func TestEncodePNGBase64(t *testing.T) {
	img := solidImage(5, 7, color.RGBA{10, 20, 30, 255})
	s, err := EncodePNGBase64(img)
	if err != nil {
		t.Fatalf("EncodePNGBase64 failed: %v", err)
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		t.Fatalf("not valid base64: %v", err)
	}
	decoded, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("not a PNG: %v", err)
	}
	if decoded.Bounds().Dx() != 5 || decoded.Bounds().Dy() != 7 {
		t.Errorf("decoded size %v, want 5x7", decoded.Bounds())
	}
}
