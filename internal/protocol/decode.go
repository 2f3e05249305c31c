package protocol

import (
	"fmt"
	"io"
)

// ReadRecordHeader reads and validates the discriminator byte of the
// next record.
func ReadRecordHeader(r io.Reader) (RecordHeader, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, readError("record header", err)
	}
	h := RecordHeader(b[0])
	return h, h.Validate()
}

// DecodeDefinition reads the body of a definition record whose header
// has already been consumed and installs it in the table.
func (c *Codec) DecodeDefinition(h RecordHeader, r io.Reader) (*MessageDefinition, error) {
	if !h.IsDefinition() {
		return nil, fmt.Errorf("%w: header %#02x is not a definition", ErrFormat, byte(h))
	}
	if err := h.Validate(); err != nil {
		return nil, err
	}
	prefix, err := readN(r, definitionPrefixSize, "definition prefix")
	if err != nil {
		return nil, err
	}
	if prefix[0] != 0 {
		return nil, fmt.Errorf("%w: definition reserved byte is %#02x", ErrFormat, prefix[0])
	}
	def := MessageDefinition{
		LocalType: h.LocalType(),
		Arch:      Arch(prefix[1]),
	}
	if def.Arch != ArchLittleEndian && def.Arch != ArchBigEndian {
		return nil, fmt.Errorf("%w: unknown architecture %d", ErrFormat, prefix[1])
	}
	def.GlobalNum = def.Arch.ByteOrder().Uint16(prefix[2:4])

	fields, err := readN(r, fieldDefinitionSize*int(prefix[4]), "field definitions")
	if err != nil {
		return nil, err
	}
	cur := wrapCursor(fields)
	for !cur.full() {
		t, err := cur.take(fieldDefinitionSize)
		if err != nil {
			return nil, err
		}
		def.Fields = append(def.Fields, FieldDefinition{Num: t[0], Size: t[1], Type: BaseType(t[2])})
	}

	if h.HasDevData() {
		count, err := readN(r, 1, "developer field count")
		if err != nil {
			return nil, err
		}
		if count[0] == 0 {
			return nil, fmt.Errorf("%w: developer data bit set with zero developer fields", ErrFormat)
		}
		devFields, err := readN(r, fieldDefinitionSize*int(count[0]), "developer field definitions")
		if err != nil {
			return nil, err
		}
		cur := wrapCursor(devFields)
		for !cur.full() {
			t, err := cur.take(fieldDefinitionSize)
			if err != nil {
				return nil, err
			}
			def.DevFields = append(def.DevFields, DevFieldDefinition{Num: t[0], Size: t[1], DevIndex: t[2]})
		}
	}
	return c.table.Define(def)
}

// DecodeData reads the payload of a data record whose header has already
// been consumed. The slot must hold a definition before any payload byte
// is read.
func (c *Codec) DecodeData(h RecordHeader, r io.Reader) (DataRecord, error) {
	if h.IsDefinition() {
		return DataRecord{}, fmt.Errorf("%w: header %#02x is a definition", ErrFormat, byte(h))
	}
	if err := h.Validate(); err != nil {
		return DataRecord{}, err
	}
	rec := DataRecord{
		LocalType:  h.LocalType(),
		Compressed: h.IsCompressed(),
		TimeOffset: h.TimeOffset(),
	}
	def, err := c.table.Lookup(rec.LocalType)
	if err != nil {
		return DataRecord{}, err
	}
	payload, err := readN(r, def.payloadLen, "data payload")
	if err != nil {
		return DataRecord{}, err
	}

	cur := wrapCursor(payload)
	order := def.Arch.ByteOrder()
	rec.Values = make([]string, 0, def.ValueCount())
	for _, f := range def.Fields {
		src, err := cur.take(int(f.Size))
		if err != nil {
			return DataRecord{}, err
		}
		v, err := ValueCodecFor(f.Type, int(f.Size)).Decode(src, order)
		if err != nil {
			return DataRecord{}, fmt.Errorf("field %d (%s): %w", f.Num, f.Type, err)
		}
		rec.Values = append(rec.Values, v)
	}
	dev := DevValueCodec()
	for _, f := range def.DevFields {
		src, err := cur.take(int(f.Size))
		if err != nil {
			return DataRecord{}, err
		}
		v, err := dev.Decode(src, order)
		if err != nil {
			return DataRecord{}, fmt.Errorf("developer field %d: %w", f.Num, err)
		}
		rec.Values = append(rec.Values, v)
	}
	return rec, nil
}

func readN(r io.Reader, n int, what string) ([]byte, error) {
	buf := make([]byte, n)
	if n == 0 {
		return buf, nil
	}
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, readError(what, err)
	}
	return buf, nil
}
