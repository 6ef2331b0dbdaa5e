package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/banshee-data/icedrift/internal/config"
	"github.com/banshee-data/icedrift/internal/drift"
	"github.com/banshee-data/icedrift/internal/fsutil"
	"github.com/banshee-data/icedrift/internal/monitoring"
	"github.com/banshee-data/icedrift/internal/pointcloud"
	"github.com/banshee-data/icedrift/internal/quicklook"
	"github.com/banshee-data/icedrift/internal/runlog"
	"github.com/banshee-data/icedrift/internal/timeutil"
	"github.com/banshee-data/icedrift/internal/version"
)

// run corrects cfg.Input into cfg.Output, then writes the optional plot and
// ledger entry. A failed run is still recorded in the ledger.
func run(ctx context.Context, cfg config.Run, runID string) (drift.Summary, error) {
	return runWith(ctx, fsutil.OSFileSystem{}, timeutil.RealClock{}, cfg, runID)
}

func runWith(ctx context.Context, fsys fsutil.FileSystem, clock timeutil.Clock, cfg config.Run, runID string) (drift.Summary, error) {
	started := clock.Now()

	format, err := pointcloud.FormatByName(cfg.Format)
	if err != nil {
		return drift.Summary{}, err
	}

	// Open the ledger first so a bad path fails before any work is done.
	var store *runlog.Store
	if cfg.RunLog != "" {
		store, err = runlog.Open(cfg.RunLog)
		if err != nil {
			return drift.Summary{}, err
		}
		defer store.Close()
	}

	v := cfg.Vector()
	opts := drift.Options{
		Format:        format,
		Reference:     cfg.Reference(),
		SameDirection: cfg.SameDirection,
		Vector:        v,
	}
	var plotter *quicklook.Plotter
	if cfg.Plot != "" {
		plotter = quicklook.New(quicklook.DefaultMaxPoints)
		opts.Observers = append(opts.Observers, plotter)
	}

	monitoring.Logf("correcting %s -> %s (format=%s, speed=%g %s, bearing=%g, extra=%gm, same_direction=%t)",
		cfg.Input, cfg.Output, cfg.Format, cfg.DriftSpeed, cfg.DriftSpeedUnit, cfg.DriftBearing, cfg.ExtraDrift, cfg.SameDirection)
	monitoring.Debugf("drift velocity vx=%v vy=%v m/s, bias x=%v y=%v m", v.Velocity.X, v.Velocity.Y, v.Bias.X, v.Bias.Y)

	c, err := drift.NewCorrector(fsys, opts)
	if err != nil {
		return drift.Summary{}, err
	}
	sum, runErr := c.Run(ctx, cfg.Input, cfg.Output)
	if runErr == nil {
		logSummary(sum, clock.Since(started))
		if plotter != nil {
			if err := plotter.Save(cfg.Plot); err != nil {
				runErr = fmt.Errorf("quicklook: %w", err)
			}
		}
	}

	if store != nil {
		entry := newEntry(runID, cfg, sum, runErr)
		entry.StartedAt = started.UnixNano()
		entry.FinishedAt = clock.Now().UnixNano()
		// A cancelled ctx must not prevent recording the failure.
		if err := store.Insert(context.WithoutCancel(ctx), entry); err != nil {
			monitoring.Warnf("runlog: %v", err)
		}
	}
	return sum, runErr
}

func logSummary(sum drift.Summary, elapsed time.Duration) {
	monitoring.Logf("corrected %d records (%d lines skipped) in %s", sum.Records, sum.Skipped, elapsed)
	monitoring.Logf("moving pass %v -> %v (%gs), reference pass %v -> %v (%gs)",
		sum.Moving.T0, sum.Moving.T1, sum.Moving.Duration(),
		sum.Reference.T0, sum.Reference.T1, sum.Reference.Duration())
	monitoring.Logf("deltaT %.3f .. %.3f s, displacement %.3f .. %.3f m",
		sum.MinDeltaT, sum.MaxDeltaT, sum.MinDisplacement, sum.MaxDisplacement)
}

// newEntry builds the ledger row for a run. Statistics that were never
// computed are left NULL.
func newEntry(runID string, cfg config.Run, sum drift.Summary, runErr error) *runlog.Entry {
	e := &runlog.Entry{
		RunID:         runID,
		Status:        runlog.StatusSucceeded,
		InputPath:     cfg.Input,
		OutputPath:    cfg.Output,
		Format:        cfg.Format,
		DriftSpeedMPS: cfg.DriftSpeedMPS(),
		DriftBearing:  cfg.DriftBearing,
		ExtraDrift:    cfg.ExtraDrift,
		SameDirection: cfg.SameDirection,
		ReferenceT0:   cfg.ReferenceT0,
		ReferenceT1:   cfg.ReferenceT1,
		Records:       sum.Records,
		SkippedLines:  sum.Skipped,
	}
	if runErr != nil {
		e.Status = runlog.StatusFailed
		e.Error = runErr.Error()
	}
	if sum.Moving.Duration() != 0 {
		e.MovingT0 = ptr(sum.Moving.T0)
		e.MovingT1 = ptr(sum.Moving.T1)
	}
	if sum.Records > 0 {
		e.MinDeltaT = ptr(sum.MinDeltaT)
		e.MaxDeltaT = ptr(sum.MaxDeltaT)
		e.MaxDisplacement = ptr(sum.MaxDisplacement)
	}

	params := struct {
		Version string     `json:"version"`
		Config  config.Run `json:"config"`
	}{version.String(), cfg}
	if b, err := json.Marshal(params); err == nil {
		e.ParamsJSON = b
	}
	return e
}

func ptr(v float64) *float64 { return &v }
