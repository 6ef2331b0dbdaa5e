// Package units provides shared constants and conversion for drift speed units
package units

import (
	"fmt"
	"strings"
)

// Unit constants
const (
	MPS   = "mps"
	MPM   = "mpm"
	KMPH  = "kmph"
	KPH   = "kph"
	KNOTS = "knots"
)

// DefaultDriftUnit is the unit drift speeds are quoted in by the survey
// teams: metres per minute.
const DefaultDriftUnit = MPM

// ValidUnits contains all valid unit values
var ValidUnits = []string{MPS, MPM, KMPH, KPH, KNOTS}

// metresPerSecond holds the number of m/s in one of each unit.
var metresPerSecond = map[string]float64{
	MPS:   1,
	MPM:   1.0 / 60.0,
	KMPH:  1000.0 / 3600.0,
	KPH:   1000.0 / 3600.0,
	KNOTS: 1852.0 / 3600.0,
}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	_, ok := metresPerSecond[unit]
	return ok
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return strings.Join(ValidUnits, ", ")
}

// ToMetresPerSecond converts a speed expressed in unit to metres per second.
// Drift velocities are always applied against GPS-second timestamps, so every
// speed goes through here before it is turned into a vector.
func ToMetresPerSecond(speed float64, unit string) (float64, error) {
	if unit == MPM {
		// Divide rather than multiply by 1/60 so values quoted in m/min
		// convert exactly as the field sheets compute them.
		return speed / 60.0, nil
	}
	f, ok := metresPerSecond[unit]
	if !ok {
		return 0, fmt.Errorf("unknown speed unit %q (valid: %s)", unit, GetValidUnitsString())
	}
	return speed * f, nil
}

// FromMetresPerSecond converts a speed in m/s to the target unit. Unknown
// units fall back to m/s.
func FromMetresPerSecond(speedMPS float64, unit string) float64 {
	switch unit {
	case MPM:
		return speedMPS * 60.0
	case KMPH, KPH:
		return speedMPS * 3.6
	case KNOTS:
		return speedMPS * 3600.0 / 1852.0
	default:
		return speedMPS
	}
}
