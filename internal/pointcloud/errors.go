package pointcloud

import "fmt"

// MalformedRecordError reports a line that does not match the active record
// format: wrong field count, an unparseable number or a non-finite value.
type MalformedRecordError struct {
	Line   int    // 1-based line number in the input
	Text   string // raw line content
	Reason string
	Err    error // underlying parse error, if any
}

func (e *MalformedRecordError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed record at line %d (%q): %s: %v", e.Line, e.Text, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed record at line %d (%q): %s", e.Line, e.Text, e.Reason)
}

func (e *MalformedRecordError) Unwrap() error { return e.Err }

// fieldError is returned by Format.Parse and promoted to a
// MalformedRecordError by the Reader, which knows the line number.
type fieldError struct {
	reason string
	err    error
}

func (e *fieldError) Error() string {
	if e.err != nil {
		return e.reason + ": " + e.err.Error()
	}
	return e.reason
}

func (e *fieldError) Unwrap() error { return e.err }
