package drift

import "fmt"

// Pass names used in errors and logs.
const (
	PassMoving    = "moving"
	PassReference = "reference"
)

// EmptyInputError means a pass had no records from which to establish its
// time span.
type EmptyInputError struct {
	Source string
}

func (e *EmptyInputError) Error() string {
	if e.Source == "" {
		return "no point records in input"
	}
	return fmt.Sprintf("no point records in %s", e.Source)
}

// DegenerateIntervalError means a pass starts and ends at the same time, so
// time fractions along it are undefined.
type DegenerateIntervalError struct {
	Pass    string
	T0, T1  float64
	Records int // records seen, 0 when the interval came from configuration
}

func (e *DegenerateIntervalError) Error() string {
	if e.Records > 0 {
		return fmt.Sprintf("%s pass has zero duration (t0=%v, t1=%v, %d records)", e.Pass, e.T0, e.T1, e.Records)
	}
	return fmt.Sprintf("%s pass has zero duration (t0=%v, t1=%v)", e.Pass, e.T0, e.T1)
}
