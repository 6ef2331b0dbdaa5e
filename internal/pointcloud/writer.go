package pointcloud

import (
	"bufio"
	"io"
)

// Writer encodes Points in a fixed Format, one line per record, preserving
// call order.
type Writer struct {
	bw     *bufio.Writer
	format Format
	buf    []byte
	count  int
}

// NewWriter returns a buffered Writer. Call Flush when done.
func NewWriter(w io.Writer, f Format) *Writer {
	return &Writer{bw: bufio.NewWriterSize(w, 256*1024), format: f, buf: make([]byte, 0, 128)}
}

// Write appends one record.
func (w *Writer) Write(p Point) error {
	w.buf = w.format.AppendRecord(w.buf[:0], p)
	if _, err := w.bw.Write(w.buf); err != nil {
		return err
	}
	w.count++
	return nil
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error { return w.bw.Flush() }

// Count returns the number of records written.
func (w *Writer) Count() int { return w.count }
