package drift

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/icedrift/internal/fsutil"
	"github.com/banshee-data/icedrift/internal/monitoring"
	"github.com/banshee-data/icedrift/internal/pointcloud"
)

// cancelCheckInterval is how many records are processed between context
// checks.
const cancelCheckInterval = 4096

// Observer receives every corrected point in output order. Begin is called
// once with the record count before the first Observe.
type Observer interface {
	Begin(total int)
	Observe(in, out pointcloud.Point, c Correction)
}

// Options configures a Corrector. All fields are fixed for the run.
type Options struct {
	Format        pointcloud.Format
	Reference     PassInterval
	SameDirection bool
	Vector        Vector
	// Observers are notified of each corrected point, e.g. for plotting.
	Observers []Observer
}

// Summary describes a completed (or aborted) run.
type Summary struct {
	Records         int // records written (or, on failure, processed before the error)
	Skipped         int // blank and comment lines
	Moving          PassInterval
	Reference       PassInterval
	MinDeltaT       float64
	MaxDeltaT       float64
	MinDisplacement float64 // metres, magnitude
	MaxDisplacement float64
}

func (s *Summary) add(c Correction) {
	d := r2.Norm(c.Displacement)
	if s.Records == 0 {
		s.MinDeltaT, s.MaxDeltaT = c.DeltaT, c.DeltaT
		s.MinDisplacement, s.MaxDisplacement = d, d
	} else {
		s.MinDeltaT = math.Min(s.MinDeltaT, c.DeltaT)
		s.MaxDeltaT = math.Max(s.MaxDeltaT, c.DeltaT)
		s.MinDisplacement = math.Min(s.MinDisplacement, d)
		s.MaxDisplacement = math.Max(s.MaxDisplacement, d)
	}
	s.Records++
}

// Corrector runs the drift correction over a point file.
type Corrector struct {
	fsys fsutil.FileSystem
	opts Options
}

// NewCorrector validates opts and returns a Corrector reading and writing
// through fsys.
func NewCorrector(fsys fsutil.FileSystem, opts Options) (*Corrector, error) {
	if fsys == nil {
		return nil, errors.New("nil filesystem")
	}
	if opts.Format == nil {
		return nil, errors.New("record format not set")
	}
	if opts.Reference.Duration() == 0 {
		return nil, &DegenerateIntervalError{Pass: PassReference, T0: opts.Reference.T0, T1: opts.Reference.T1}
	}
	return &Corrector{fsys: fsys, opts: opts}, nil
}

// ScanInterval reads inputPath once, validating every record, and returns
// the moving-pass interval together with the record and skipped-line counts.
func (c *Corrector) ScanInterval(ctx context.Context, inputPath string) (PassInterval, int, int, error) {
	f, err := c.fsys.Open(inputPath)
	if err != nil {
		return PassInterval{}, 0, 0, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	r := pointcloud.NewReader(f, c.opts.Format)
	var s IntervalScanner
	for {
		if s.Count()%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return PassInterval{}, s.Count(), r.Skipped(), err
			}
		}
		p, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return PassInterval{}, s.Count(), r.Skipped(), err
		}
		s.Observe(p.T)
	}

	moving, err := s.Interval()
	if err != nil {
		var empty *EmptyInputError
		if errors.As(err, &empty) {
			empty.Source = inputPath
		}
		return PassInterval{}, s.Count(), r.Skipped(), err
	}
	return moving, s.Count(), r.Skipped(), nil
}

// Run corrects every record of inputPath and writes the result to
// outputPath in input order. Output is committed only if every record
// succeeds; on error no file appears at outputPath and the returned Summary
// reports how many records were processed before the failure.
func (c *Corrector) Run(ctx context.Context, inputPath, outputPath string) (Summary, error) {
	sum := Summary{Reference: c.opts.Reference}

	moving, total, skipped, err := c.ScanInterval(ctx, inputPath)
	sum.Skipped = skipped
	if err != nil {
		return sum, fmt.Errorf("scan %s: %w", inputPath, err)
	}
	sum.Moving = moving
	monitoring.Debugf("moving pass t0=%v t1=%v duration=%vs records=%d", moving.T0, moving.T1, moving.Duration(), total)

	tr, err := NewTransformer(moving, c.opts.Reference, c.opts.SameDirection, c.opts.Vector)
	if err != nil {
		return sum, err
	}

	f, err := c.fsys.Open(inputPath)
	if err != nil {
		return sum, fmt.Errorf("reopen input: %w", err)
	}
	defer f.Close()

	out, err := fsutil.AtomicCreate(c.fsys, outputPath)
	if err != nil {
		return sum, err
	}
	defer out.Abort()

	for _, o := range c.opts.Observers {
		o.Begin(total)
	}

	r := pointcloud.NewReader(f, c.opts.Format)
	w := pointcloud.NewWriter(out, c.opts.Format)
	for {
		if sum.Records%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return sum, err
			}
		}
		p, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return sum, fmt.Errorf("correct %s: %w", inputPath, err)
		}
		corrected, corr := tr.Apply(p)
		if err := w.Write(corrected); err != nil {
			return sum, fmt.Errorf("write %s: %w", outputPath, err)
		}
		for _, o := range c.opts.Observers {
			o.Observe(p, corrected, corr)
		}
		sum.add(corr)
	}

	// The input changed between passes.
	if sum.Records != total {
		return sum, fmt.Errorf("input %s changed during run: scanned %d records, corrected %d", inputPath, total, sum.Records)
	}

	if err := w.Flush(); err != nil {
		return sum, fmt.Errorf("flush %s: %w", outputPath, err)
	}
	if err := out.Commit(); err != nil {
		return sum, err
	}
	return sum, nil
}
