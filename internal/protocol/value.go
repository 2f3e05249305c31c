package protocol

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

const (
	// ArrayDelimiter joins the elements of a multi-element integer field.
	ArrayDelimiter = "|"
	// ByteDelimiter joins the bytes of an opaque field.
	ByteDelimiter = "/"
	// NullString stands for a string field whose first byte is zero.
	NullString = "NULL"
)

// ValueCodec converts one field between its wire bytes and its text
// token. The declared size is the length of dst or src.
type ValueCodec interface {
	Encode(text string, dst []byte, order binary.ByteOrder) error
	Decode(src []byte, order binary.ByteOrder) (string, error)
}

var (
	sint8Codec  = intCodec{width: 1, signed: true}
	uint8Codec  = intCodec{width: 1}
	sint16Codec = intCodec{width: 2, signed: true}
	uint16Codec = intCodec{width: 2}
	sint32Codec = intCodec{width: 4, signed: true}
	uint32Codec = intCodec{width: 4}
	sint64Codec = intCodec{width: 8, signed: true}
	uint64Codec = intCodec{width: 8}
)

// ValueCodecFor selects the codec for a field. Floating point kinds are
// handled as unsigned bit patterns of the same width. Unknown base types,
// byte fields and integer fields whose size is not a whole number of
// elements use the opaque byte codec.
func ValueCodecFor(t BaseType, size int) ValueCodec {
	var c intCodec
	switch t {
	case BaseEnum, BaseUint8, BaseUint8z:
		c = uint8Codec
	case BaseSint8:
		c = sint8Codec
	case BaseSint16:
		c = sint16Codec
	case BaseUint16, BaseUint16z:
		c = uint16Codec
	case BaseSint32:
		c = sint32Codec
	case BaseUint32, BaseUint32z, BaseFloat32:
		c = uint32Codec
	case BaseSint64:
		c = sint64Codec
	case BaseUint64, BaseUint64z, BaseFloat64:
		c = uint64Codec
	case BaseString:
		return stringCodec{}
	default:
		return opaqueCodec{}
	}
	if size%c.width != 0 {
		return opaqueCodec{}
	}
	return c
}

// DevValueCodec is the codec used for every developer field.
func DevValueCodec() ValueCodec {
	return opaqueCodec{}
}

type intCodec struct {
	width  int
	signed bool
}

func (c intCodec) pad() int {
	switch c.width {
	case 1:
		return 3
	case 2:
		return 6
	case 4:
		return 11
	default:
		return 21
	}
}

func (c intCodec) Encode(text string, dst []byte, order binary.ByteOrder) error {
	count := len(dst) / c.width
	elems := strings.Split(text, ArrayDelimiter)
	if len(elems) != count || len(dst)%c.width != 0 {
		return fmt.Errorf("%w: %d elements for %d-byte field of width %d", ErrFormat, len(elems), len(dst), c.width)
	}
	for i, elem := range elems {
		elem = strings.TrimSpace(elem)
		var raw uint64
		if c.signed {
			v, err := strconv.ParseInt(elem, 10, c.width*8)
			if err != nil {
				return fmt.Errorf("%w: element %d: %v", ErrFormat, i, err)
			}
			raw = uint64(v)
		} else {
			v, err := strconv.ParseUint(elem, 10, c.width*8)
			if err != nil {
				return fmt.Errorf("%w: element %d: %v", ErrFormat, i, err)
			}
			raw = v
		}
		putUint(dst[i*c.width:(i+1)*c.width], raw, order)
	}
	return nil
}

func (c intCodec) Decode(src []byte, order binary.ByteOrder) (string, error) {
	if len(src) == 0 || len(src)%c.width != 0 {
		return "", fmt.Errorf("%w: %d-byte field is not a multiple of width %d", ErrFormat, len(src), c.width)
	}
	count := len(src) / c.width
	elems := make([]string, count)
	for i := 0; i < count; i++ {
		raw := getUint(src[i*c.width:(i+1)*c.width], order)
		if c.signed {
			elems[i] = fmt.Sprintf("%0*d", c.pad(), signExtend(raw, c.width))
		} else {
			elems[i] = fmt.Sprintf("%0*d", c.pad(), raw)
		}
	}
	return strings.Join(elems, ArrayDelimiter), nil
}

func putUint(dst []byte, v uint64, order binary.ByteOrder) {
	switch len(dst) {
	case 1:
		dst[0] = byte(v)
	case 2:
		order.PutUint16(dst, uint16(v))
	case 4:
		order.PutUint32(dst, uint32(v))
	case 8:
		order.PutUint64(dst, v)
	}
}

func getUint(src []byte, order binary.ByteOrder) uint64 {
	switch len(src) {
	case 1:
		return uint64(src[0])
	case 2:
		return uint64(order.Uint16(src))
	case 4:
		return uint64(order.Uint32(src))
	default:
		return order.Uint64(src)
	}
}

func signExtend(v uint64, width int) int64 {
	switch width {
	case 1:
		return int64(int8(v))
	case 2:
		return int64(int16(v))
	case 4:
		return int64(int32(v))
	default:
		return int64(v)
	}
}

type stringCodec struct{}

func (stringCodec) Encode(text string, dst []byte, _ binary.ByteOrder) error {
	clear(dst)
	if text == NullString {
		return nil
	}
	if len(text) > len(dst) {
		return fmt.Errorf("%w: %d-byte string exceeds %d-byte field", ErrFormat, len(text), len(dst))
	}
	copy(dst, text)
	return nil
}

func (stringCodec) Decode(src []byte, _ binary.ByteOrder) (string, error) {
	end := len(src)
	for i, b := range src {
		if b == 0 {
			end = i
			break
		}
	}
	for _, b := range src[end:] {
		if b != 0 {
			return "", fmt.Errorf("%w: string field carries data after its terminator", ErrFormat)
		}
	}
	if end == 0 {
		return NullString, nil
	}
	s := string(src[:end])
	if s == NullString || strings.TrimSpace(s) == "" || strings.ContainsAny(s, ",\r\n") {
		return "", fmt.Errorf("%w: string %q cannot be represented as a text token", ErrFormat, s)
	}
	return s, nil
}

type opaqueCodec struct{}

func (opaqueCodec) Encode(text string, dst []byte, _ binary.ByteOrder) error {
	clear(dst)
	elems := strings.Split(text, ByteDelimiter)
	if len(elems) > len(dst) {
		return fmt.Errorf("%w: %d bytes for %d-byte field", ErrFormat, len(elems), len(dst))
	}
	for i, elem := range elems {
		elem = strings.TrimSpace(elem)
		if elem == "" {
			continue
		}
		v, err := strconv.ParseUint(elem, 10, 8)
		if err != nil {
			return fmt.Errorf("%w: byte %d: %v", ErrFormat, i, err)
		}
		dst[i] = byte(v)
	}
	return nil
}

func (opaqueCodec) Decode(src []byte, _ binary.ByteOrder) (string, error) {
	var b strings.Builder
	b.Grow(len(src) * 4)
	for i, v := range src {
		if i > 0 {
			b.WriteString(ByteDelimiter)
		}
		fmt.Fprintf(&b, "%03d", v)
	}
	return b.String(), nil
}
