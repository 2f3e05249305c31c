package protocol

import "fmt"

// EncodeDefinition returns the wire bytes of a definition record and
// installs the definition at its local type.
func (c *Codec) EncodeDefinition(def MessageDefinition) ([]byte, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	order := def.Arch.ByteOrder()
	cur := newCursor(definitionSize(&def))

	prefix, err := cur.next(1 + definitionPrefixSize)
	if err != nil {
		return nil, err
	}
	prefix[0] = byte(DefinitionHeader(def.LocalType, len(def.DevFields) > 0))
	prefix[1] = 0
	prefix[2] = byte(def.Arch)
	order.PutUint16(prefix[3:5], def.GlobalNum)
	prefix[5] = uint8(len(def.Fields))

	for _, f := range def.Fields {
		if err := putTriple(cur, f.Num, f.Size, uint8(f.Type)); err != nil {
			return nil, err
		}
	}
	if len(def.DevFields) > 0 {
		if err := cur.putByte(uint8(len(def.DevFields))); err != nil {
			return nil, err
		}
		for _, f := range def.DevFields {
			if err := putTriple(cur, f.Num, f.Size, f.DevIndex); err != nil {
				return nil, err
			}
		}
	}
	if !cur.full() {
		return nil, fmt.Errorf("%w: definition wrote %d of %d bytes", ErrFormat, cur.off, len(cur.buf))
	}
	if _, err := c.table.Define(def); err != nil {
		return nil, err
	}
	return cur.bytes(), nil
}

func putTriple(cur *cursor, a, b, c uint8) error {
	dst, err := cur.next(fieldDefinitionSize)
	if err != nil {
		return err
	}
	dst[0], dst[1], dst[2] = a, b, c
	return nil
}

// EncodeData returns the wire bytes of a data record. The compressed
// timestamp header is used only when rec asks for it and the local type
// fits in two bits; otherwise a normal header is written.
func (c *Codec) EncodeData(rec DataRecord) ([]byte, error) {
	def, err := c.table.Lookup(rec.LocalType)
	if err != nil {
		return nil, err
	}
	if len(rec.Values) != def.ValueCount() {
		return nil, fmt.Errorf("%w: local type %d expects %d values, got %d",
			ErrFormat, rec.LocalType, def.ValueCount(), len(rec.Values))
	}

	header := DataHeader(rec.LocalType)
	if rec.Compressed && rec.LocalType <= MaxCompressedLocalType {
		header, err = CompressedHeader(rec.LocalType, rec.TimeOffset)
		if err != nil {
			return nil, err
		}
	}

	cur := newCursor(1 + def.payloadLen)
	if err := cur.putByte(byte(header)); err != nil {
		return nil, err
	}
	order := def.Arch.ByteOrder()
	for i, f := range def.Fields {
		dst, err := cur.next(int(f.Size))
		if err != nil {
			return nil, err
		}
		if err := ValueCodecFor(f.Type, int(f.Size)).Encode(rec.Values[i], dst, order); err != nil {
			return nil, fmt.Errorf("field %d (%s): %w", f.Num, f.Type, err)
		}
	}
	dev := DevValueCodec()
	for i, f := range def.DevFields {
		dst, err := cur.next(int(f.Size))
		if err != nil {
			return nil, err
		}
		if err := dev.Encode(rec.Values[len(def.Fields)+i], dst, order); err != nil {
			return nil, fmt.Errorf("developer field %d: %w", f.Num, err)
		}
	}
	if !cur.full() {
		return nil, fmt.Errorf("%w: data record wrote %d of %d bytes", ErrFormat, cur.off, len(cur.buf))
	}
	return cur.bytes(), nil
}
