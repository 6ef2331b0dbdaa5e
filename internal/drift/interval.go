package drift

// PassInterval is the time span of one overflight in GPS seconds. T1 may be
// earlier than T0 when the pass is listed in reverse order.
type PassInterval struct {
	T0 float64
	T1 float64
}

// Duration returns T1 - T0. It is negative for reversed passes.
func (p PassInterval) Duration() float64 {
	return p.T1 - p.T0
}

// NewReferenceInterval validates a reference pass supplied by configuration.
// A negative duration is accepted; a zero duration is not.
func NewReferenceInterval(t0, t1 float64) (PassInterval, error) {
	p := PassInterval{T0: t0, T1: t1}
	if p.Duration() == 0 {
		return PassInterval{}, &DegenerateIntervalError{Pass: PassReference, T0: t0, T1: t1}
	}
	return p, nil
}

// IntervalScanner derives a PassInterval from a stream of timestamps. The
// first and last observed timestamps define the pass; input order is
// trusted and nothing is sorted.
type IntervalScanner struct {
	first, last float64
	n           int
}

// Observe records the next timestamp in input order.
func (s *IntervalScanner) Observe(t float64) {
	if s.n == 0 {
		s.first = t
	}
	s.last = t
	s.n++
}

// Count returns the number of timestamps observed.
func (s *IntervalScanner) Count() int { return s.n }

// Interval returns the moving-pass interval. It fails with
// *EmptyInputError when nothing was observed and *DegenerateIntervalError
// when the first and last timestamps are equal (which includes the
// single-record case).
func (s *IntervalScanner) Interval() (PassInterval, error) {
	if s.n == 0 {
		return PassInterval{}, &EmptyInputError{}
	}
	p := PassInterval{T0: s.first, T1: s.last}
	if p.Duration() == 0 {
		return PassInterval{}, &DegenerateIntervalError{Pass: PassMoving, T0: p.T0, T1: p.T1, Records: s.n}
	}
	return p, nil
}

// IntervalFromTimestamps is the slice form of IntervalScanner.
func IntervalFromTimestamps(ts []float64) (PassInterval, error) {
	var s IntervalScanner
	for _, t := range ts {
		s.Observe(t)
	}
	return s.Interval()
}
