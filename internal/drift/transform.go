package drift

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/icedrift/internal/pointcloud"
)

// Correction holds the intermediate quantities computed for one point.
type Correction struct {
	FractionMoving    float64 // position along the moving pass, nominally [0,1]
	FractionReference float64 // matching position along the reference pass
	ReferenceTime     float64 // when the reference platform would have seen the point
	DeltaT            float64 // t - ReferenceTime, seconds
	Displacement      r2.Vec  // metres removed from X/Y
}

// Transformer applies the drift correction to individual points. It is
// immutable and safe for concurrent use.
type Transformer struct {
	moving        PassInterval
	reference     PassInterval
	sameDirection bool
	vector        Vector
}

// NewTransformer validates both intervals and returns a Transformer.
// sameDirection reports whether both platforms crossed the area in the same
// order; when false, the start of one pass matches the end of the other.
func NewTransformer(moving, reference PassInterval, sameDirection bool, v Vector) (*Transformer, error) {
	if moving.Duration() == 0 {
		return nil, &DegenerateIntervalError{Pass: PassMoving, T0: moving.T0, T1: moving.T1}
	}
	if reference.Duration() == 0 {
		return nil, &DegenerateIntervalError{Pass: PassReference, T0: reference.T0, T1: reference.T1}
	}
	return &Transformer{
		moving:        moving,
		reference:     reference,
		sameDirection: sameDirection,
		vector:        v,
	}, nil
}

// Correct computes the correction for a point observed at time t.
// Fractions are not clamped; timestamps outside the moving pass extrapolate.
func (tr *Transformer) Correct(t float64) Correction {
	var c Correction
	c.FractionMoving = (t - tr.moving.T0) / tr.moving.Duration()
	if tr.sameDirection {
		c.FractionReference = c.FractionMoving
	} else {
		c.FractionReference = 1 - c.FractionMoving
	}
	c.ReferenceTime = tr.reference.T0 + tr.reference.Duration()*c.FractionReference
	c.DeltaT = t - c.ReferenceTime
	c.Displacement = tr.vector.Displacement(c.DeltaT)
	return c
}

// Apply returns a corrected copy of p. Z and the channel code pass through.
func (tr *Transformer) Apply(p pointcloud.Point) (pointcloud.Point, Correction) {
	c := tr.Correct(p.T)
	out := p
	out.X = p.X - c.Displacement.X
	out.Y = p.Y - c.Displacement.Y
	out.T = p.T + c.DeltaT
	return out, c
}

// Moving returns the moving-pass interval.
func (tr *Transformer) Moving() PassInterval { return tr.moving }

// Reference returns the reference-pass interval.
func (tr *Transformer) Reference() PassInterval { return tr.reference }

// CorrectPoints derives the moving interval from points and returns
// corrected copies in the same order.
func CorrectPoints(points []pointcloud.Point, reference PassInterval, sameDirection bool, v Vector) ([]pointcloud.Point, error) {
	var s IntervalScanner
	for _, p := range points {
		s.Observe(p.T)
	}
	moving, err := s.Interval()
	if err != nil {
		return nil, err
	}
	tr, err := NewTransformer(moving, reference, sameDirection, v)
	if err != nil {
		return nil, err
	}
	out := make([]pointcloud.Point, len(points))
	for i, p := range points {
		out[i], _ = tr.Apply(p)
	}
	return out, nil
}
