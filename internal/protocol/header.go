package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/danmuck/fitconv/internal/protocol/crc"
)

const (
	HeaderSize       = 14
	LegacyHeaderSize = 12

	ProtocolVersion20 uint8  = 0x20
	ProfileVersion    uint16 = 21141
)

// Magic is the data type literal at header offset 8.
var Magic = [4]byte{'.', 'F', 'I', 'T'}

// StreamHeader is the fixed file header.
type StreamHeader struct {
	Size            uint8
	ProtocolVersion uint8
	ProfileVersion  uint16
	DataSize        uint32
	Magic           [4]byte
	CRC             uint16
}

// NewStreamHeader returns a header with default versions and no body.
func NewStreamHeader() StreamHeader {
	return StreamHeader{
		Size:            HeaderSize,
		ProtocolVersion: ProtocolVersion20,
		ProfileVersion:  ProfileVersion,
		Magic:           Magic,
	}
}

// EncodeHeader returns the 14-byte header. Size and Magic are forced to
// their canonical values and the header checksum is recomputed.
func EncodeHeader(h StreamHeader) []byte {
	buf := make([]byte, HeaderSize)
	buf[0] = HeaderSize
	buf[1] = h.ProtocolVersion
	binary.LittleEndian.PutUint16(buf[2:4], h.ProfileVersion)
	binary.LittleEndian.PutUint32(buf[4:8], h.DataSize)
	copy(buf[8:12], Magic[:])
	binary.LittleEndian.PutUint16(buf[12:14], crc.Calculate(buf[:12]))
	return buf
}

// DecodeHeader parses a complete header. b must be exactly as long as
// its own size byte claims. A zero checksum is treated as absent.
func DecodeHeader(b []byte) (StreamHeader, error) {
	if len(b) == 0 {
		return StreamHeader{}, fmt.Errorf("%w: empty header", ErrTruncated)
	}
	size := int(b[0])
	if size != HeaderSize && size != LegacyHeaderSize {
		return StreamHeader{}, fmt.Errorf("%w: unsupported header size %d", ErrFormat, size)
	}
	if len(b) != size {
		return StreamHeader{}, fmt.Errorf("%w: header has %d bytes, want %d", ErrTruncated, len(b), size)
	}

	h := StreamHeader{
		Size:            b[0],
		ProtocolVersion: b[1],
		ProfileVersion:  binary.LittleEndian.Uint16(b[2:4]),
		DataSize:        binary.LittleEndian.Uint32(b[4:8]),
	}
	copy(h.Magic[:], b[8:12])
	if h.Magic != Magic {
		return StreamHeader{}, fmt.Errorf("%w: invalid magic %q", ErrFormat, h.Magic[:])
	}
	if size == HeaderSize {
		h.CRC = binary.LittleEndian.Uint16(b[12:14])
		if h.CRC != 0 {
			if got := crc.Calculate(b[:12]); got != h.CRC {
				return StreamHeader{}, fmt.Errorf("%w: header crc %#04x, computed %#04x", ErrChecksum, h.CRC, got)
			}
		}
	}
	return h, nil
}

// ReadHeader reads and decodes one header from r.
func ReadHeader(r io.Reader) (StreamHeader, error) {
	var buf [HeaderSize]byte
	if _, err := io.ReadFull(r, buf[:1]); err != nil {
		return StreamHeader{}, readError("header size", err)
	}
	size := int(buf[0])
	if size != HeaderSize && size != LegacyHeaderSize {
		return StreamHeader{}, fmt.Errorf("%w: unsupported header size %d", ErrFormat, size)
	}
	if _, err := io.ReadFull(r, buf[1:size]); err != nil {
		return StreamHeader{}, readError("header", err)
	}
	return DecodeHeader(buf[:size])
}

func readError(what string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: short %s", ErrTruncated, what)
	}
	return fmt.Errorf("%w: read %s: %w", ErrIO, what, err)
}
