package textfmt

import (
	"bufio"
	"fmt"
	"io"

	"github.com/danmuck/fitconv/internal/protocol"
)

// maxLineBytes bounds one text line: 255 fields of 255 bytes rendered
// as opaque bytes take just under 256 KiB.
const maxLineBytes = 1 << 20

// Reader yields parsed non-comment lines with their line numbers.
type Reader struct {
	sc   *bufio.Scanner
	line int
}

func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &Reader{sc: sc}
}

// Next returns the next meaningful line, or io.EOF once input ends.
func (r *Reader) Next() (Line, error) {
	for r.sc.Scan() {
		r.line++
		l, err := Parse(r.sc.Text())
		if err != nil {
			return Line{}, err
		}
		if l.Kind == KindBlank || l.Kind == KindComment {
			continue
		}
		return l, nil
	}
	if err := r.sc.Err(); err != nil {
		if err == bufio.ErrTooLong {
			return Line{}, fmt.Errorf("%w: line exceeds %d bytes", protocol.ErrFormat, maxLineBytes)
		}
		return Line{}, fmt.Errorf("%w: read text: %w", protocol.ErrIO, err)
	}
	return Line{}, io.EOF
}

// LineNumber is the 1-based number of the last line read.
func (r *Reader) LineNumber() int {
	return r.line
}

// Writer emits lines terminated by '\n'.
type Writer struct {
	w     *bufio.Writer
	lines int
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

func (w *Writer) WriteLine(s string) error {
	if _, err := w.w.WriteString(s); err != nil {
		return fmt.Errorf("%w: write text: %w", protocol.ErrIO, err)
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return fmt.Errorf("%w: write text: %w", protocol.ErrIO, err)
	}
	w.lines++
	return nil
}

// Lines is the number of lines written so far.
func (w *Writer) Lines() int {
	return w.lines
}

func (w *Writer) Flush() error {
	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("%w: flush text: %w", protocol.ErrIO, err)
	}
	return nil
}
