// Command icedrift corrects an airborne LiDAR point file for sea-ice drift
// between the survey pass and a reference pass.
//
// Usage:
//
//	icedrift -input line1.txt -output line1_corrected.txt \
//	    -drift-speed 2.11 -drift-bearing 197 -extra-drift 6 \
//	    -ref-t0 232571.1 -ref-t1 232566.3
//
// Settings may also come from a JSON or YAML file given with -config; flags
// set on the command line take precedence over the file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/banshee-data/icedrift/internal/config"
	"github.com/banshee-data/icedrift/internal/monitoring"
	"github.com/banshee-data/icedrift/internal/pointcloud"
	"github.com/banshee-data/icedrift/internal/units"
	"github.com/banshee-data/icedrift/internal/version"
)

// cliFlags holds the parsed command line. Only flags the user actually set
// are copied into the configuration overlay.
type cliFlags struct {
	fs *flag.FlagSet

	configPath  string
	showVersion bool

	input, output, format string
	driftSpeedUnit        string
	plot, runLog          string
	logLevel              string

	driftSpeed, driftBearing, extraDrift float64
	refT0, refT1                         float64
	sameDirection                        bool
}

func newCLIFlags(name string, output io.Writer) *cliFlags {
	f := &cliFlags{fs: flag.NewFlagSet(name, flag.ContinueOnError)}
	fs := f.fs
	fs.SetOutput(output)

	fs.StringVar(&f.configPath, "config", "", "path to a .json, .yaml or .yml run configuration")
	fs.BoolVar(&f.showVersion, "version", false, "print version and exit")

	fs.StringVar(&f.input, "input", "", "input point file")
	fs.StringVar(&f.output, "output", "", "output point file (written atomically)")
	fs.StringVar(&f.format, "format", pointcloud.FormatGreen, "record format: nir (t x y z) or green (c t x y z)")

	fs.Float64Var(&f.driftSpeed, "drift-speed", 0, "ice drift speed")
	fs.StringVar(&f.driftSpeedUnit, "drift-speed-unit", units.DefaultDriftUnit, "drift speed unit: "+units.GetValidUnitsString())
	fs.Float64Var(&f.driftBearing, "drift-bearing", 0, "ice drift bearing, degrees clockwise from north")
	fs.Float64Var(&f.extraDrift, "extra-drift", 0, "constant extra offset along the drift bearing, metres")

	fs.Float64Var(&f.refT0, "ref-t0", 0, "reference pass start time, GPS seconds")
	fs.Float64Var(&f.refT1, "ref-t1", 0, "reference pass end time, GPS seconds")
	fs.BoolVar(&f.sameDirection, "same-direction", false, "reference pass was flown in the same direction as the survey pass")

	fs.StringVar(&f.plot, "plot", "", "write a quicklook plot to this path (.png, .svg, .pdf)")
	fs.StringVar(&f.runLog, "runlog", "", "record the run in this SQLite database")
	fs.StringVar(&f.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	return f
}

// overlay returns a RunConfig holding only the flags set on the command line.
func (f *cliFlags) overlay() *config.RunConfig {
	cfg := config.EmptyRunConfig()
	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "input":
			cfg.Input = &f.input
		case "output":
			cfg.Output = &f.output
		case "format":
			cfg.Format = &f.format
		case "drift-speed":
			cfg.DriftSpeed = &f.driftSpeed
		case "drift-speed-unit":
			cfg.DriftSpeedUnit = &f.driftSpeedUnit
		case "drift-bearing":
			cfg.DriftBearing = &f.driftBearing
		case "extra-drift":
			cfg.ExtraDrift = &f.extraDrift
		case "ref-t0":
			cfg.ReferenceT0 = &f.refT0
		case "ref-t1":
			cfg.ReferenceT1 = &f.refT1
		case "same-direction":
			cfg.SameDirection = &f.sameDirection
		case "plot":
			cfg.Plot = &f.plot
		case "runlog":
			cfg.RunLog = &f.runLog
		case "log-level":
			cfg.LogLevel = &f.logLevel
		}
	})
	return cfg
}

// errVersion signals that -version was requested.
var errVersion = errors.New("version requested")

// parseArgs parses args and layers the command line over the optional
// configuration file.
func parseArgs(args []string, output io.Writer) (config.Run, error) {
	f := newCLIFlags("icedrift", output)
	if err := f.fs.Parse(args); err != nil {
		return config.Run{}, err
	}
	if f.showVersion {
		return config.Run{}, errVersion
	}
	if f.fs.NArg() > 0 {
		return config.Run{}, fmt.Errorf("unexpected arguments: %v", f.fs.Args())
	}

	cfg := config.EmptyRunConfig()
	if f.configPath != "" {
		fileCfg, err := config.LoadRunConfig(f.configPath)
		if err != nil {
			return config.Run{}, err
		}
		cfg.Merge(fileCfg)
	}
	cfg.Merge(f.overlay())
	return cfg.Resolve()
}

func main() {
	cfg, err := parseArgs(os.Args[1:], os.Stderr)
	switch {
	case errors.Is(err, errVersion):
		fmt.Println(version.String())
		return
	case errors.Is(err, flag.ErrHelp):
		return
	case err != nil:
		monitoring.Fatalf("%v", err)
	}

	if err := monitoring.SetLevel(cfg.LogLevel); err != nil {
		monitoring.Fatalf("set log level: %v", err)
	}
	runID := uuid.New().String()
	monitoring.With("run_id", runID)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sum, err := run(ctx, cfg, runID)
	if err != nil {
		stop()
		monitoring.Fatalf("drift correction failed after %d records: %v", sum.Records, err)
	}
}
