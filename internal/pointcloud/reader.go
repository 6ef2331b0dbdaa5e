package pointcloud

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// maxLineBytes bounds a single record line.
const maxLineBytes = 1 << 20

// Reader yields Points from a line-oriented text stream. Blank lines and
// lines whose first non-space character is '#' are skipped and counted.
type Reader struct {
	sc      *bufio.Scanner
	format  Format
	line    int
	skipped int
	fields  []string
}

// NewReader returns a Reader decoding r with format f.
func NewReader(r io.Reader, f Format) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &Reader{sc: sc, format: f}
}

// Next returns the next record, or io.EOF after the last one. A line that
// does not fit the format yields a *MalformedRecordError.
func (r *Reader) Next() (Point, error) {
	for r.sc.Scan() {
		r.line++
		text := r.sc.Text()
		trimmed := strings.TrimSpace(text)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			r.skipped++
			continue
		}

		r.fields = appendFields(r.fields[:0], trimmed)
		if len(r.fields) != r.format.FieldCount() {
			return Point{}, &MalformedRecordError{
				Line:   r.line,
				Text:   text,
				Reason: fmt.Sprintf("%s format expects %d fields, got %d", r.format.Name(), r.format.FieldCount(), len(r.fields)),
			}
		}

		p, err := r.format.Parse(r.fields)
		if err != nil {
			mre := &MalformedRecordError{Line: r.line, Text: text, Reason: err.Error()}
			var fe *fieldError
			if errors.As(err, &fe) {
				mre.Reason = fe.reason
				mre.Err = fe.err
			}
			return Point{}, mre
		}
		return p, nil
	}
	if err := r.sc.Err(); err != nil {
		return Point{}, fmt.Errorf("read line %d: %w", r.line+1, err)
	}
	return Point{}, io.EOF
}

// Line returns the number of the line most recently consumed.
func (r *Reader) Line() int { return r.line }

// Skipped returns the number of blank or comment lines seen so far.
func (r *Reader) Skipped() int { return r.skipped }

// appendFields splits s on runs of spaces and tabs without allocating a new
// slice per line.
func appendFields(dst []string, s string) []string {
	start := -1
	for i := 0; i < len(s); i++ {
		if s[i] == ' ' || s[i] == '\t' || s[i] == '\r' {
			if start >= 0 {
				dst = append(dst, s[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		dst = append(dst, s[start:])
	}
	return dst
}
