// Package main is the fiducial command: batch marker detection and
// annotation, single-image tools and the MCP server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "fiducial: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// newApp builds the command tree. Logs go to stderr; stdout carries command
// output and the MCP protocol.
func newApp() *cli.App {
	var env session

	return &cli.App{
		Name:    "fiducial",
		Usage:   "detect fiducial markers, estimate their pose and draw 3D overlays",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load configuration from `FILE` (yaml, json or toml)",
				EnvVars: []string{"FIDUCIAL_CONFIG"},
			},
			&cli.StringFlag{
				Name:  flagLogLevel,
				Usage: "override the configured log level (debug, info, warn, error)",
			},
		},
		Before: func(c *cli.Context) error {
			return env.init(c)
		},
		After: func(c *cli.Context) error {
			env.close()
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "detect markers in the configured image set, write the annotated images and the results archive",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  flagWorkers,
						Usage: "number of images processed in parallel (default from config)",
					},
				},
				Action: env.runAction,
			},
			{
				Name:      "detect",
				Usage:     "print the markers found in images as JSON",
				ArgsUsage: "<image>...",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  flagCalibration,
						Usage: "camera calibration `FILE` (.npz or .json), overrides the config",
					},
				},
				Action: env.detectAction,
			},
			{
				Name:      "annotate",
				Usage:     "draw an axis, cube or cylinder on the markers of one image",
				ArgsUsage: "<image>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  flagCalibration,
						Usage: "camera calibration `FILE` (.npz or .json), overrides the config",
					},
					&cli.StringFlag{
						Name:  flagShape,
						Value: "axis",
						Usage: "overlay to draw: axis, cube or cylinder",
					},
					&cli.IntFlag{
						Name:  flagMarker,
						Value: -1,
						Usage: "only annotate this marker id; every marker when negative",
					},
					&cli.StringFlag{
						Name:     flagOutput,
						Aliases:  []string{"o"},
						Required: true,
						Usage:    "write the annotated image to `FILE`",
					},
				},
				Action: env.annotateAction,
			},
			{
				Name:      "render",
				Usage:     "render a printable marker from the configured dictionary",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  flagCellPx,
						Value: 20,
						Usage: "pixels per marker cell",
					},
					&cli.IntFlag{
						Name:  flagQuiet,
						Value: 1,
						Usage: "white margin in cells",
					},
					&cli.StringFlag{
						Name:     flagOutput,
						Aliases:  []string{"o"},
						Required: true,
						Usage:    "write the marker image to `FILE`",
					},
				},
				Action: env.renderAction,
			},
			{
				Name:   "serve",
				Usage:  "serve the marker tools over MCP on stdin and stdout",
				Action: env.serveAction,
			},
			{
				Name:  "version",
				Usage: "print version information",
				Action: func(c *cli.Context) error {
					fmt.Fprintf(c.App.Writer, "fiducial %s\n", Version)
					fmt.Fprintf(c.App.Writer, "  Build time: %s\n", BuildTime)
					fmt.Fprintf(c.App.Writer, "  Git commit: %s\n", GitCommit)
					return nil
				},
			},
		},
	}
}
