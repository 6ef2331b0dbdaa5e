// Package quicklook renders a diagnostic plot of a drift-correction run:
// input and corrected positions, and the time offset applied along the pass.
package quicklook

import (
	"fmt"
	"image/color"
	"path/filepath"
	"strings"
	"sync"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/icedrift/internal/drift"
	"github.com/banshee-data/icedrift/internal/monitoring"
	"github.com/banshee-data/icedrift/internal/pointcloud"
)

// DefaultMaxPoints bounds how many points are kept per series.
const DefaultMaxPoints = 20000

var (
	inputColor     = color.RGBA{R: 160, G: 160, B: 160, A: 255}
	correctedColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
)

// Plotter samples corrected points and writes the plots. It implements
// drift.Observer.
type Plotter struct {
	mu        sync.Mutex
	maxPoints int
	stride    int
	seen      int

	input     plotter.XYs
	corrected plotter.XYs
	deltaT    plotter.XYs // fraction along moving pass vs deltaT
}

var _ drift.Observer = (*Plotter)(nil)

// New returns a Plotter keeping at most maxPoints samples per series
// (DefaultMaxPoints if maxPoints <= 0).
func New(maxPoints int) *Plotter {
	if maxPoints <= 0 {
		maxPoints = DefaultMaxPoints
	}
	return &Plotter{maxPoints: maxPoints, stride: 1}
}

// Begin sizes the sampling stride from the record count so the kept points
// are spread evenly over the whole pass.
func (p *Plotter) Begin(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stride = 1
	if total > p.maxPoints {
		p.stride = (total + p.maxPoints - 1) / p.maxPoints
	}
	n := total/p.stride + 1
	if n > p.maxPoints {
		n = p.maxPoints
	}
	p.seen = 0
	p.input = make(plotter.XYs, 0, n)
	p.corrected = make(plotter.XYs, 0, n)
	p.deltaT = make(plotter.XYs, 0, n)
}

// Observe records every stride-th point.
func (p *Plotter) Observe(in, out pointcloud.Point, c drift.Correction) {
	p.mu.Lock()
	defer p.mu.Unlock()

	keep := p.seen%p.stride == 0
	p.seen++
	if !keep || len(p.input) >= p.maxPoints {
		return
	}
	p.input = append(p.input, plotter.XY{X: in.X, Y: in.Y})
	p.corrected = append(p.corrected, plotter.XY{X: out.X, Y: out.Y})
	p.deltaT = append(p.deltaT, plotter.XY{X: c.FractionMoving, Y: c.DeltaT})
}

// Len returns the number of sampled points.
func (p *Plotter) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.input)
}

// DeltaTPath returns the companion file name used for the time-offset plot.
func DeltaTPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_deltat" + ext
}

// Save writes the position plot to path and the time-offset plot to
// DeltaTPath(path). The image format follows the extension (.png, .svg,
// .pdf, ...).
func (p *Plotter) Save(path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.input) == 0 {
		return fmt.Errorf("no points to plot")
	}

	pos := plot.New()
	pos.Title.Text = "Drift correction"
	pos.X.Label.Text = "Easting (m)"
	pos.Y.Label.Text = "Northing (m)"
	pos.Add(plotter.NewGrid())

	in, err := plotter.NewScatter(p.input)
	if err != nil {
		return err
	}
	in.GlyphStyle.Color = inputColor
	in.GlyphStyle.Radius = vg.Points(1)
	in.GlyphStyle.Shape = draw.CircleGlyph{}

	out, err := plotter.NewScatter(p.corrected)
	if err != nil {
		return err
	}
	out.GlyphStyle.Color = correctedColor
	out.GlyphStyle.Radius = vg.Points(1)
	out.GlyphStyle.Shape = draw.CircleGlyph{}

	pos.Add(in, out)
	pos.Legend.Add("input", in)
	pos.Legend.Add("corrected", out)
	pos.Legend.Top = true

	if err := pos.Save(8*vg.Inch, 8*vg.Inch, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}

	dt := plot.New()
	dt.Title.Text = "Time offset along moving pass"
	dt.X.Label.Text = "Fraction of moving pass"
	dt.Y.Label.Text = "deltaT (s)"
	dt.Add(plotter.NewGrid())

	line, err := plotter.NewLine(p.deltaT)
	if err != nil {
		return err
	}
	line.Color = correctedColor
	line.Width = vg.Points(1)
	dt.Add(line)

	dtPath := DeltaTPath(path)
	if err := dt.Save(10*vg.Inch, 4*vg.Inch, dtPath); err != nil {
		return fmt.Errorf("save %s: %w", dtPath, err)
	}

	monitoring.Logf("quicklook: wrote %s and %s (%d sampled points, stride %d)", path, dtPath, len(p.input), p.stride)
	return nil
}
