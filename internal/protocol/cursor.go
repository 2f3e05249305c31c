package protocol

import "fmt"

// cursor is a bounds-checked position over an owned buffer.
type cursor struct {
	buf []byte
	off int
}

func newCursor(size int) *cursor {
	return &cursor{buf: make([]byte, size)}
}

func wrapCursor(b []byte) *cursor {
	return &cursor{buf: b}
}

func (c *cursor) remaining() int {
	return len(c.buf) - c.off
}

func (c *cursor) putByte(v byte) error {
	if c.remaining() < 1 {
		return fmt.Errorf("%w: write past end of %d-byte record", ErrFormat, len(c.buf))
	}
	c.buf[c.off] = v
	c.off++
	return nil
}

// next reserves n bytes for writing and returns them.
func (c *cursor) next(n int) ([]byte, error) {
	if n < 0 || c.remaining() < n {
		return nil, fmt.Errorf("%w: %d bytes past end of %d-byte record", ErrFormat, n, len(c.buf))
	}
	out := c.buf[c.off : c.off+n : c.off+n]
	c.off += n
	return out, nil
}

// take consumes n bytes for reading.
func (c *cursor) take(n int) ([]byte, error) {
	if n < 0 || c.remaining() < n {
		return nil, fmt.Errorf("%w: need %d bytes, %d left", ErrTruncated, n, c.remaining())
	}
	out := c.buf[c.off : c.off+n : c.off+n]
	c.off += n
	return out, nil
}

func (c *cursor) bytes() []byte {
	return c.buf[:c.off]
}

func (c *cursor) full() bool {
	return c.off == len(c.buf)
}
