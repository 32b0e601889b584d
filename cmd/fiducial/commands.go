package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/ironsheep/fiducial-tools/internal/annotate"
	"github.com/ironsheep/fiducial-tools/internal/batch"
	"github.com/ironsheep/fiducial-tools/internal/camera"
	"github.com/ironsheep/fiducial-tools/internal/config"
	"github.com/ironsheep/fiducial-tools/internal/detection"
	"github.com/ironsheep/fiducial-tools/internal/imaging"
	"github.com/ironsheep/fiducial-tools/internal/logging"
	"github.com/ironsheep/fiducial-tools/internal/marker"
	"github.com/ironsheep/fiducial-tools/internal/results"
	"github.com/ironsheep/fiducial-tools/internal/server"
)

const (
	// Flags.
	flagConfig      = "config"
	flagLogLevel    = "log-level"
	flagWorkers     = "workers"
	flagCalibration = "calibration"
	flagShape       = "shape"
	flagMarker      = "marker"
	flagOutput      = "output"
	flagCellPx      = "cell-px"
	flagQuiet       = "quiet"
)

// session holds what every command needs: the loaded configuration and the
// logger built from it.
type session struct {
	cfg    *config.Config
	logger *zap.SugaredLogger
}

func (s *session) init(c *cli.Context) error {
	cfg, err := config.Load(c.String(flagConfig))
	if err != nil {
		return err
	}
	if lvl := c.String(flagLogLevel); lvl != "" {
		cfg.Log.Level = lvl
	}
	logger, err := logging.New("fiducial", cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	s.cfg, s.logger = cfg, logger
	s.logger.Debugw("Starting", "version", Version, "built", BuildTime, "commit", GitCommit)
	return nil
}

func (s *session) close() {
	if s.logger != nil {
		_ = s.logger.Sync()
	}
}

// camera loads the calibration named by the command's flag, or the
// configured one.
func (s *session) camera(c *cli.Context) (*camera.Model, error) {
	path := s.cfg.Calibration
	if c.IsSet(flagCalibration) {
		path = c.String(flagCalibration)
	}
	return camera.Load(path)
}

func (s *session) locator() (*marker.Locator, error) {
	opts, err := s.cfg.DetectorOptions()
	if err != nil {
		return nil, err
	}
	d, err := detection.New(s.cfg.Detector.Backend, opts...)
	if err != nil {
		return nil, err
	}
	s.logger.Debugw("Using detector", "backend", d.Name())
	return marker.NewLocator(d,
		marker.WithLength(s.cfg.Marker.Length),
		marker.WithLogger(s.logger.Named("locator")),
	), nil
}

func (s *session) dictionary() (*detection.Dictionary, error) {
	if s.cfg.Marker.Dictionary == "" {
		return detection.DefaultDictionary(), nil
	}
	return detection.LoadDictionary(s.cfg.Marker.Dictionary)
}

func (s *session) runAction(c *cli.Context) error {
	if c.IsSet(flagWorkers) {
		s.cfg.Workers = c.Int(flagWorkers)
		if err := s.cfg.Validate(); err != nil {
			return err
		}
	}
	cam, err := s.camera(c)
	if err != nil {
		return err
	}
	loc, err := s.locator()
	if err != nil {
		return err
	}
	runner, err := batch.NewRunner(s.cfg, cam, loc, s.logger.Named("batch"))
	if err != nil {
		return err
	}

	out, err := runner.Run(c.Context)
	for _, res := range out {
		status := "ok"
		if res.Err != nil {
			status = "failed: " + res.Err.Error()
		}
		fmt.Fprintf(c.App.Writer, "image %d: %d markers %v, %s\n", res.Index, len(res.Markers), res.Markers.IDs(), status)
	}
	return err
}

func (s *session) detectAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.New("detect needs at least one image")
	}
	cam, err := s.camera(c)
	if err != nil {
		return err
	}
	loc, err := s.locator()
	if err != nil {
		return err
	}

	images := make([]results.Image, 0, c.NArg())
	for i, path := range c.Args().Slice() {
		entry := results.Image{Index: i + 1, Path: path, Markers: []results.Marker{}}
		img, err := imaging.Open(path)
		if err == nil {
			var list marker.List
			if list, err = loc.Detect(c.Context, img, cam); err == nil {
				entry.Markers = results.FromList(list)
			}
		}
		if err != nil {
			s.logger.Errorw("Failed to detect markers", "path", path, "error", err)
			entry.Error = err.Error()
		}
		images = append(images, entry)
	}
	return results.WriteJSON(c.App.Writer, images)
}

func (s *session) annotateAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("annotate needs exactly one image")
	}
	path := c.Args().First()
	shape, err := annotate.ParseShape(c.String(flagShape))
	if err != nil {
		return err
	}
	drawOpts, err := s.cfg.DrawOptions()
	if err != nil {
		return err
	}
	cam, err := s.camera(c)
	if err != nil {
		return err
	}
	loc, err := s.locator()
	if err != nil {
		return err
	}

	img, err := imaging.Open(path)
	if err != nil {
		return err
	}
	list, err := loc.Detect(c.Context, img, cam)
	if err != nil {
		return err
	}
	ids := list.IDs()
	if id := c.Int(flagMarker); id >= 0 {
		if _, err := list.Find(id); err != nil {
			return err
		}
		ids = []int{id}
	}

	canvas := imaging.ToRGBA(img)
	for _, id := range ids {
		if _, err := annotate.Draw(shape, canvas, list, id, cam, drawOpts...); err != nil {
			return errors.Wrapf(err, "draw %s on marker %d", shape, id)
		}
	}
	out := c.String(flagOutput)
	if err := imaging.Save(canvas, out, s.cfg.Output.JPEGQuality); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "%s: drew %s on markers %v, wrote %s\n", path, shape, ids, out)
	return nil
}

func (s *session) renderAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("render needs exactly one marker id")
	}
	id, err := strconv.Atoi(c.Args().First())
	if err != nil {
		return errors.Wrapf(err, "invalid marker id %q", c.Args().First())
	}
	dict, err := s.dictionary()
	if err != nil {
		return err
	}
	img, err := dict.Render(id, c.Int(flagCellPx), c.Int(flagQuiet))
	if err != nil {
		return err
	}
	out := c.String(flagOutput)
	if err := imaging.Save(img, out, s.cfg.Output.JPEGQuality); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "marker %d of %s: %dx%d px, wrote %s\n", id, dict.Name, img.Bounds().Dx(), img.Bounds().Dy(), out)
	return nil
}

func (s *session) serveAction(c *cli.Context) error {
	loc, err := s.locator()
	if err != nil {
		return err
	}
	dict, err := s.dictionary()
	if err != nil {
		return err
	}
	drawOpts, err := s.cfg.DrawOptions()
	if err != nil {
		return err
	}

	opts := []server.Option{
		server.WithLocator(loc),
		server.WithDictionary(dict),
		server.WithDrawOptions(drawOpts...),
		server.WithLogger(s.logger.Named("mcp")),
		server.WithVersion(Version),
	}
	// the server still runs without a calibration; pose tools then need one
	// per call
	if cam, err := camera.Load(s.cfg.Calibration); err != nil {
		s.logger.Warnw("Starting without a default calibration", "error", err)
	} else {
		opts = append(opts, server.WithCamera(cam))
	}

	s.logger.Infow("Serving MCP on stdio", "version", Version)
	return server.New(opts...).Run(c.Context, os.Stdin, os.Stdout)
}
