package convert

import (
	"bufio"
	"fmt"
	"io"

	"github.com/danmuck/fitconv/internal/protocol"
	"github.com/danmuck/fitconv/internal/protocol/crc"
)

// bodyReader threads every body byte read through the running checksum.
type bodyReader struct {
	r   io.Reader
	crc uint16
	n   int64
}

func newBodyReader(r io.Reader, size uint32) *bodyReader {
	return &bodyReader{r: io.LimitReader(r, int64(size))}
}

func (b *bodyReader) Read(p []byte) (int, error) {
	n, err := b.r.Read(p)
	b.crc = crc.Update(b.crc, p[:n])
	b.n += int64(n)
	return n, err
}

// bodyWriter threads every body byte written through the running checksum.
type bodyWriter struct {
	w   *bufio.Writer
	crc uint16
	n   int64
}

func newBodyWriter(w io.Writer) *bodyWriter {
	return &bodyWriter{w: bufio.NewWriter(w)}
}

func (b *bodyWriter) write(p []byte) error {
	if _, err := b.w.Write(p); err != nil {
		return fmt.Errorf("%w: write body: %w", protocol.ErrIO, err)
	}
	b.crc = crc.Update(b.crc, p)
	b.n += int64(len(p))
	return nil
}

func (b *bodyWriter) flush() error {
	if err := b.w.Flush(); err != nil {
		return fmt.Errorf("%w: flush body: %w", protocol.ErrIO, err)
	}
	return nil
}
