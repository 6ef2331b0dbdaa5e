package drift

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Vector is the constant ice motion applied to every point: a velocity in
// metres per second and a fixed bias in metres, both in an east=+X,
// north=+Y frame.
type Vector struct {
	Velocity r2.Vec
	Bias     r2.Vec
}

// NewVector builds a Vector from a compass bearing (degrees clockwise from
// north), a speed in m/s and a bias magnitude in metres. The bias is applied
// along the same bearing.
func NewVector(bearingDeg, speedMPS, biasMeters float64) Vector {
	rad := PolarDegrees(bearingDeg) * math.Pi / 180.0
	dir := r2.Vec{X: math.Cos(rad), Y: math.Sin(rad)}
	return Vector{
		Velocity: r2.Scale(speedMPS, dir),
		Bias:     r2.Scale(biasMeters, dir),
	}
}

// PolarDegrees converts a compass bearing to a mathematical angle measured
// counter-clockwise from east, normalised into [0, 360).
func PolarDegrees(bearingDeg float64) float64 {
	d := math.Mod(90.0-bearingDeg, 360.0)
	if d < 0 {
		d += 360.0
	}
	if d >= 360.0 || d == 0 {
		// Rounding can land exactly on 360; also folds -0 to 0.
		return 0
	}
	return d
}

// Displacement returns how far the ice moved during deltaT seconds,
// including the bias.
func (v Vector) Displacement(deltaT float64) r2.Vec {
	return r2.Add(r2.Scale(deltaT, v.Velocity), v.Bias)
}

// Speed returns the velocity magnitude in m/s.
func (v Vector) Speed() float64 {
	return r2.Norm(v.Velocity)
}
