// Package config loads fiducial-tools settings with viper.
//
// Settings come from built-in defaults, an optional YAML or JSON file and
// FIDUCIAL_* environment variables, in increasing priority. Nested keys map
// to environment names with underscores: output.results is
// FIDUCIAL_OUTPUT_RESULTS.
package config

import (
	"fmt"
	"image/color"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/ironsheep/fiducial-tools/internal/annotate"
	"github.com/ironsheep/fiducial-tools/internal/detection"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FIDUCIAL"

// Config is the full set of settings.
type Config struct {
	Calibration string         `mapstructure:"calibration"`
	Input       InputConfig    `mapstructure:"input"`
	Output      OutputConfig   `mapstructure:"output"`
	Marker      MarkerConfig   `mapstructure:"marker"`
	Detector    DetectorConfig `mapstructure:"detector"`
	Draw        DrawConfig     `mapstructure:"draw"`
	Workers     int            `mapstructure:"workers"`
	Log         LogConfig      `mapstructure:"log"`
}

// InputConfig selects the numbered input images.
type InputConfig struct {
	Dir     string `mapstructure:"dir"`
	Pattern string `mapstructure:"pattern"`
	First   int    `mapstructure:"first"`
	Last    int    `mapstructure:"last"`
}

// OutputConfig places annotated images and the results archive.
type OutputConfig struct {
	Dir         string `mapstructure:"dir"`
	AxisDir     string `mapstructure:"axisDir"`
	CubeDir     string `mapstructure:"cubeDir"`
	CylinderDir string `mapstructure:"cylinderDir"`
	Results     string `mapstructure:"results"`
	JPEGQuality int    `mapstructure:"jpegQuality"`
}

// MarkerConfig describes the printed markers.
type MarkerConfig struct {
	Length     float64 `mapstructure:"length"`
	Dictionary string  `mapstructure:"dictionary"`
}

// DetectorConfig tunes marker detection.
type DetectorConfig struct {
	Backend         string  `mapstructure:"backend"`
	Threshold       int     `mapstructure:"threshold"`
	MinSide         float64 `mapstructure:"minSide"`
	MaxBorderErrors int     `mapstructure:"maxBorderErrors"`
}

// DrawConfig styles the overlays. Colors are "#rrggbb".
type DrawConfig struct {
	LineWidth     float64 `mapstructure:"lineWidth"`
	Sides         int     `mapstructure:"sides"`
	AxisX         string  `mapstructure:"axisX"`
	AxisY         string  `mapstructure:"axisY"`
	AxisZ         string  `mapstructure:"axisZ"`
	CubeColor     string  `mapstructure:"cube"`
	CylinderColor string  `mapstructure:"cylinder"`
}

// LogConfig selects log verbosity and encoding.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("calibration", "System.npz")

	v.SetDefault("input.dir", "TestCases")
	v.SetDefault("input.pattern", "image_%d.jpg")
	v.SetDefault("input.first", 1)
	v.SetDefault("input.last", 8)

	v.SetDefault("output.dir", "SavedResults")
	v.SetDefault("output.axisDir", "drawAxis")
	v.SetDefault("output.cubeDir", "drawCube")
	v.SetDefault("output.cylinderDir", "drawCylinder")
	v.SetDefault("output.results", "Results.npz")
	v.SetDefault("output.jpegQuality", 95)

	v.SetDefault("marker.length", 100.0)
	v.SetDefault("marker.dictionary", "")

	v.SetDefault("detector.backend", detection.BackendNative)
	v.SetDefault("detector.threshold", 0)
	v.SetDefault("detector.minSide", detection.DefaultMinSide)
	v.SetDefault("detector.maxBorderErrors", detection.DefaultMaxBorderErrors)

	v.SetDefault("draw.lineWidth", annotate.DefaultLineWidth)
	v.SetDefault("draw.sides", annotate.DefaultSides)
	v.SetDefault("draw.axisX", "#00ff00")
	v.SetDefault("draw.axisY", "#0000ff")
	v.SetDefault("draw.axisZ", "#ff0000")
	v.SetDefault("draw.cube", "#ff0000")
	v.SetDefault("draw.cylinder", "#ff0000")

	v.SetDefault("workers", 1)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Load reads the settings. path may be empty to use defaults and the
// environment only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "error reading config file %q", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "error decoding config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks ranges and formats.
func (c *Config) Validate() error {
	switch {
	case c.Calibration == "":
		return errors.New("config: calibration path is required")
	case !strings.Contains(c.Input.Pattern, "%d"):
		return errors.Errorf("config: input.pattern %q must contain %%d", c.Input.Pattern)
	case c.Input.First < 0 || c.Input.Last < c.Input.First:
		return errors.Errorf("config: invalid input range %d..%d", c.Input.First, c.Input.Last)
	case c.Marker.Length <= 0:
		return errors.Errorf("config: marker.length must be positive, got %v", c.Marker.Length)
	case c.Workers < 1:
		return errors.Errorf("config: workers must be at least 1, got %d", c.Workers)
	case c.Detector.Threshold < 0 || c.Detector.Threshold > 255:
		return errors.Errorf("config: detector.threshold must be in 0..255, got %d", c.Detector.Threshold)
	case c.Output.Results == "":
		return errors.New("config: output.results is required")
	}
	if _, err := c.DrawOptions(); err != nil {
		return errors.Wrap(err, "config")
	}
	return nil
}

// InputPath returns the path of input image index.
func (c *Config) InputPath(index int) string {
	return filepath.Join(c.Input.Dir, fmt.Sprintf(c.Input.Pattern, index))
}

// Indices returns the input image numbers in order.
func (c *Config) Indices() []int {
	out := make([]int, 0, c.Input.Last-c.Input.First+1)
	for i := c.Input.First; i <= c.Input.Last; i++ {
		out = append(out, i)
	}
	return out
}

// ResultsPath returns the archive path inside the output directory.
func (c *Config) ResultsPath() string {
	if filepath.IsAbs(c.Output.Results) {
		return c.Output.Results
	}
	return filepath.Join(c.Output.Dir, c.Output.Results)
}

// ShapeDir returns the output directory of a shape.
func (c *Config) ShapeDir(shape annotate.Shape) string {
	sub := map[annotate.Shape]string{
		annotate.Axis:     c.Output.AxisDir,
		annotate.Cube:     c.Output.CubeDir,
		annotate.Cylinder: c.Output.CylinderDir,
	}[shape]
	return filepath.Join(c.Output.Dir, sub)
}

// DrawOptions converts the draw and marker settings into annotate options.
func (c *Config) DrawOptions() ([]annotate.Option, error) {
	colors := make(map[string]color.Color)
	for key, hex := range map[string]string{
		"draw.axisX":    c.Draw.AxisX,
		"draw.axisY":    c.Draw.AxisY,
		"draw.axisZ":    c.Draw.AxisZ,
		"draw.cube":     c.Draw.CubeColor,
		"draw.cylinder": c.Draw.CylinderColor,
	} {
		col, err := annotate.ParseColor(hex)
		if err != nil {
			return nil, errors.Wrap(err, key)
		}
		colors[key] = col
	}
	return []annotate.Option{
		annotate.WithLength(c.Marker.Length),
		annotate.WithLineWidth(c.Draw.LineWidth),
		annotate.WithSides(c.Draw.Sides),
		annotate.WithAxisColors(colors["draw.axisX"], colors["draw.axisY"], colors["draw.axisZ"]),
		annotate.WithCubeColor(colors["draw.cube"]),
		annotate.WithCylinderColor(colors["draw.cylinder"]),
	}, nil
}

// DetectorOptions converts the detector and marker settings into native
// detector options, loading a custom dictionary when one is configured.
func (c *Config) DetectorOptions() ([]detection.Option, error) {
	opts := []detection.Option{
		detection.WithThreshold(uint8(c.Detector.Threshold)),
		detection.WithMinSide(c.Detector.MinSide),
		detection.WithMaxBorderErrors(c.Detector.MaxBorderErrors),
	}
	if c.Marker.Dictionary != "" {
		dict, err := detection.LoadDictionary(c.Marker.Dictionary)
		if err != nil {
			return nil, err
		}
		opts = append(opts, detection.WithDictionary(dict))
	}
	return opts, nil
}
