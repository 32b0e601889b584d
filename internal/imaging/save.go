package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// DefaultJPEGQuality is used by Save when no quality is given.
const DefaultJPEGQuality = 95

// Save encodes img to path atomically. The format follows the file
// extension; quality applies to JPEG output and falls back to
// DefaultJPEGQuality when not in 1..100. Missing parent directories are
// created.
func Save(img image.Image, path string, quality int) error {
	format, err := imaging.FormatFromFilename(path)
	if err != nil {
		return errors.Wrapf(err, "save %q", path)
	}
	if quality < 1 || quality > 100 {
		quality = DefaultJPEGQuality
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create directory %q", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "create temp file for %q", path)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpName)
		}
	}()

	if err := imaging.Encode(tmp, img, format, imaging.JPEGQuality(quality)); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "encode %q", path)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "sync %q", path)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "close %q", path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return errors.Wrapf(err, "rename into %q", path)
	}
	committed = true
	return nil
}

// EncodePNGBase64 encodes img as a base64 PNG, the form MCP image content
// carries.
func EncodePNGBase64(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return "", errors.Wrap(err, "failed to encode PNG")
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
