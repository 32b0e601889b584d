// Package batch runs detection and annotation over a numbered image set.
//
// For every input image the runner detects markers, draws the axis, cube and
// cylinder of every detected marker on three separate copies, and writes the
// copies to their shape directories. A failing image is recorded and skipped;
// the remaining images still run. After the last image the marker lists of
// all images are written to one results archive.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/fiducial-tools/internal/annotate"
	"github.com/ironsheep/fiducial-tools/internal/camera"
	"github.com/ironsheep/fiducial-tools/internal/config"
	"github.com/ironsheep/fiducial-tools/internal/imaging"
	"github.com/ironsheep/fiducial-tools/internal/marker"
	"github.com/ironsheep/fiducial-tools/internal/results"
)

// ImageResult is the outcome of one input image.
type ImageResult struct {
	// Index is the image number from the input pattern.
	Index int

	// Path is the input file.
	Path string

	// Markers are the detected markers, set once detection succeeded. They
	// are kept when drawing or saving fails afterwards; empty when the image
	// could not be loaded or detected.
	Markers marker.List

	// Outputs are the annotated files written, in shape order.
	Outputs []string

	// Err is set when the image could not be processed.
	Err error
}

// Runner processes the configured image set.
type Runner struct {
	cfg      *config.Config
	cam      *camera.Model
	locator  *marker.Locator
	drawOpts []annotate.Option
	logger   *zap.SugaredLogger
}

// NewRunner returns a runner. The camera model is shared read-only by all
// workers.
func NewRunner(cfg *config.Config, cam *camera.Model, locator *marker.Locator, logger *zap.SugaredLogger) (*Runner, error) {
	if cfg == nil || cam == nil || locator == nil {
		return nil, errors.New("batch: config, camera and locator are required")
	}
	drawOpts, err := cfg.DrawOptions()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Runner{cfg: cfg, cam: cam, locator: locator, drawOpts: drawOpts, logger: logger}, nil
}

// Run processes every configured image and writes the results archive.
//
// # Algorithm
//
//  1. Enumerate the image indices from the configured range.
//  2. Run ProcessImage for each index on at most Workers goroutines.
//  3. Collect the per-image marker lists in input order, failed images
//     contributing their (possibly empty) list.
//  4. Write the lists to the results archive.
//
// Cancelling ctx stops scheduling new images; those are reported with the
// context error. Images already running finish.
//
// # Parameters
//
//   - ctx: cancels scheduling and is passed to marker detection
//
// # Returns
//
//   - one ImageResult per index in input order
//   - the combined error of every failed image and of the archive write, or
//     nil
func (r *Runner) Run(ctx context.Context) ([]ImageResult, error) {
	indices := r.cfg.Indices()
	out := make([]ImageResult, len(indices))

	g := new(errgroup.Group)
	g.SetLimit(r.cfg.Workers)
	for i, index := range indices {
		i, index := i, index
		if err := ctx.Err(); err != nil {
			out[i] = ImageResult{Index: index, Path: r.cfg.InputPath(index), Markers: marker.List{}, Err: err}
			continue
		}
		g.Go(func() error {
			out[i] = r.ProcessImage(ctx, index)
			return nil
		})
	}
	_ = g.Wait()

	var err error
	lists := make([]marker.List, len(out))
	for i, res := range out {
		lists[i] = res.Markers
		if res.Err != nil {
			err = multierr.Append(err, errors.Wrapf(res.Err, "image %d", res.Index))
		}
	}

	archive := r.cfg.ResultsPath()
	if werr := r.writeArchive(archive, lists); werr != nil {
		err = multierr.Append(err, werr)
	} else {
		r.logger.Infow("Wrote results archive", "path", archive, "images", len(lists))
	}
	return out, err
}

func (r *Runner) writeArchive(path string, lists []marker.List) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create results directory")
	}
	if err := results.WriteArchive(path, lists); err != nil {
		return errors.Wrap(err, "write results archive")
	}
	return nil
}

// ProcessImage detects and annotates one image.
func (r *Runner) ProcessImage(ctx context.Context, index int) ImageResult {
	res := ImageResult{Index: index, Path: r.cfg.InputPath(index), Markers: marker.List{}}
	log := r.logger.With("index", index, "path", res.Path)

	img, err := imaging.Open(res.Path)
	if err != nil {
		res.Err = err
		log.Errorw("Failed to load image", "error", err)
		return res
	}

	list, err := r.locator.Detect(ctx, img, r.cam)
	if err != nil {
		res.Err = err
		log.Errorw("Failed to detect markers", "error", err)
		return res
	}
	res.Markers = list
	log.Infow("Detected markers", "ids", list.IDs())

	for _, shape := range annotate.Shapes {
		canvas := imaging.ToRGBA(img)
		for _, rec := range list {
			if _, err := annotate.Draw(shape, canvas, list, rec.ID, r.cam, r.drawOpts...); err != nil {
				res.Err = errors.Wrapf(err, "draw %s on marker %d", shape, rec.ID)
				log.Errorw("Failed to draw", "shape", shape, "id", rec.ID, "error", err)
				return res
			}
		}
		path := r.OutputPath(shape, index)
		if err := imaging.Save(canvas, path, r.cfg.Output.JPEGQuality); err != nil {
			res.Err = err
			log.Errorw("Failed to save image", "shape", shape, "error", err)
			return res
		}
		res.Outputs = append(res.Outputs, path)
	}
	log.Debugw("Wrote annotated images", "outputs", res.Outputs)
	return res
}

// OutputPath returns the annotated file of a shape and image, such as
// SavedResults/drawAxis/axis3.jpg.
func (r *Runner) OutputPath(shape annotate.Shape, index int) string {
	return filepath.Join(r.cfg.ShapeDir(shape), fmt.Sprintf("%s%d.jpg", shape, index))
}
