package pointcloud

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Format names accepted by FormatByName.
const (
	// FormatNIR is the near-infrared export: "t x y z".
	FormatNIR = "nir"
	// FormatGreen is the green (bathymetric) export: "c t x y z".
	FormatGreen = "green"
)

// ValidFormats lists the supported record layouts.
var ValidFormats = []string{FormatNIR, FormatGreen}

// Format is a fixed-field-count record layout. A run selects one Format up
// front; lines are never sniffed.
type Format interface {
	// Name returns the layout name (FormatNIR or FormatGreen).
	Name() string
	// FieldCount is the exact number of whitespace-separated fields per line.
	FieldCount() int
	// Parse decodes already-split fields. len(fields) == FieldCount().
	Parse(fields []string) (Point, error)
	// AppendRecord appends p as one line, including the trailing newline.
	AppendRecord(dst []byte, p Point) []byte
}

// FormatByName returns the Format registered under name.
func FormatByName(name string) (Format, error) {
	switch name {
	case FormatNIR:
		return nirFormat{}, nil
	case FormatGreen:
		return greenFormat{}, nil
	default:
		return nil, fmt.Errorf("unknown record format %q (valid: %s)", name, strings.Join(ValidFormats, ", "))
	}
}

type nirFormat struct{}

func (nirFormat) Name() string    { return FormatNIR }
func (nirFormat) FieldCount() int { return 4 }

func (nirFormat) Parse(fields []string) (Point, error) {
	var p Point
	var err error
	if p.T, err = parseFloat("t", fields[0]); err != nil {
		return Point{}, err
	}
	if p.X, err = parseFloat("x", fields[1]); err != nil {
		return Point{}, err
	}
	if p.Y, err = parseFloat("y", fields[2]); err != nil {
		return Point{}, err
	}
	if p.Z, err = parseFloat("z", fields[3]); err != nil {
		return Point{}, err
	}
	return p, nil
}

func (nirFormat) AppendRecord(dst []byte, p Point) []byte {
	dst = appendFloat(dst, p.T)
	dst = append(dst, ' ')
	dst = appendFloat(dst, p.X)
	dst = append(dst, ' ')
	dst = appendFloat(dst, p.Y)
	dst = append(dst, ' ')
	dst = appendFloat(dst, p.Z)
	return append(dst, '\n')
}

type greenFormat struct{}

func (greenFormat) Name() string    { return FormatGreen }
func (greenFormat) FieldCount() int { return 5 }

func (greenFormat) Parse(fields []string) (Point, error) {
	c, err := strconv.Atoi(fields[0])
	if err != nil {
		return Point{}, &fieldError{reason: "field c", err: err}
	}
	p, err := nirFormat{}.Parse(fields[1:])
	if err != nil {
		return Point{}, err
	}
	p.C = c
	p.HasCode = true
	return p, nil
}

func (greenFormat) AppendRecord(dst []byte, p Point) []byte {
	dst = strconv.AppendInt(dst, int64(p.C), 10)
	dst = append(dst, ' ')
	return nirFormat{}.AppendRecord(dst, p)
}

func parseFloat(name, s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &fieldError{reason: "field " + name, err: err}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &fieldError{reason: "field " + name + " is not finite"}
	}
	return v, nil
}

// appendFloat writes the shortest decimal that parses back to exactly v,
// without an exponent.
func appendFloat(dst []byte, v float64) []byte {
	return strconv.AppendFloat(dst, v, 'f', -1, 64)
}
