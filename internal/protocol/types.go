package protocol

import (
	"encoding/binary"
	"fmt"
)

// MaxLocalTypes is the number of local message type slots.
const MaxLocalTypes = 16

// BaseType is the primitive type code carried by a field definition.
type BaseType uint8

const (
	BaseEnum    BaseType = 0x00
	BaseSint8   BaseType = 0x01
	BaseUint8   BaseType = 0x02
	BaseSint16  BaseType = 0x83
	BaseUint16  BaseType = 0x84
	BaseSint32  BaseType = 0x85
	BaseUint32  BaseType = 0x86
	BaseString  BaseType = 0x07
	BaseFloat32 BaseType = 0x88
	BaseFloat64 BaseType = 0x89
	BaseUint8z  BaseType = 0x0A
	BaseUint16z BaseType = 0x8B
	BaseUint32z BaseType = 0x8C
	BaseByte    BaseType = 0x0D
	BaseSint64  BaseType = 0x8E
	BaseUint64  BaseType = 0x8F
	BaseUint64z BaseType = 0x90
)

var baseTypeNames = map[BaseType]string{
	BaseEnum:    "enum",
	BaseSint8:   "sint8",
	BaseUint8:   "uint8",
	BaseSint16:  "sint16",
	BaseUint16:  "uint16",
	BaseSint32:  "sint32",
	BaseUint32:  "uint32",
	BaseString:  "string",
	BaseFloat32: "float32",
	BaseFloat64: "float64",
	BaseUint8z:  "uint8z",
	BaseUint16z: "uint16z",
	BaseUint32z: "uint32z",
	BaseByte:    "byte",
	BaseSint64:  "sint64",
	BaseUint64:  "uint64",
	BaseUint64z: "uint64z",
}

func (t BaseType) String() string {
	if name, ok := baseTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("base_type(%#02x)", uint8(t))
}

// Arch is the architecture byte of a definition message.
type Arch uint8

const (
	ArchLittleEndian Arch = 0
	ArchBigEndian    Arch = 1
)

// ByteOrder returns the multi-byte value order for the architecture.
func (a Arch) ByteOrder() binary.ByteOrder {
	if a == ArchBigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// FieldDefinition is one number/size/type triple of a definition message.
type FieldDefinition struct {
	Num  uint8
	Size uint8
	Type BaseType
}

// DevFieldDefinition is one developer field triple. DevIndex points into
// the developer data catalog and is carried without interpretation.
type DevFieldDefinition struct {
	Num      uint8
	Size     uint8
	DevIndex uint8
}

// MessageDefinition is the layout installed at one local type slot.
type MessageDefinition struct {
	LocalType uint8
	Arch      Arch
	GlobalNum uint16
	Fields    []FieldDefinition
	DevFields []DevFieldDefinition

	payloadLen int
}

// PayloadLength is the byte length of every data record using this
// definition. It is computed when the definition is installed.
func (d *MessageDefinition) PayloadLength() int {
	return d.payloadLen
}

// ValueCount is the number of value tokens a data record carries.
func (d *MessageDefinition) ValueCount() int {
	return len(d.Fields) + len(d.DevFields)
}

// Validate checks the definition against wire limits.
func (d *MessageDefinition) Validate() error {
	if d.LocalType >= MaxLocalTypes {
		return fmt.Errorf("%w: local type %d out of range", ErrFormat, d.LocalType)
	}
	if d.Arch != ArchLittleEndian && d.Arch != ArchBigEndian {
		return fmt.Errorf("%w: unknown architecture %d", ErrFormat, d.Arch)
	}
	if len(d.Fields) > 0xFF {
		return fmt.Errorf("%w: %d fields exceed 255", ErrFormat, len(d.Fields))
	}
	if len(d.DevFields) > 0xFF {
		return fmt.Errorf("%w: %d developer fields exceed 255", ErrFormat, len(d.DevFields))
	}
	for _, f := range d.Fields {
		if f.Size == 0 {
			return fmt.Errorf("%w: field %d declares zero size", ErrFormat, f.Num)
		}
	}
	for _, f := range d.DevFields {
		if f.Size == 0 {
			return fmt.Errorf("%w: developer field %d declares zero size", ErrFormat, f.Num)
		}
	}
	return nil
}

func (d *MessageDefinition) clone() *MessageDefinition {
	out := &MessageDefinition{
		LocalType: d.LocalType,
		Arch:      d.Arch,
		GlobalNum: d.GlobalNum,
		Fields:    append([]FieldDefinition(nil), d.Fields...),
		DevFields: append([]DevFieldDefinition(nil), d.DevFields...),
	}
	for _, f := range out.Fields {
		out.payloadLen += int(f.Size)
	}
	for _, f := range out.DevFields {
		out.payloadLen += int(f.Size)
	}
	return out
}

// DataRecord is one data message in text-token form. Values holds one
// token per field followed by one token per developer field.
type DataRecord struct {
	LocalType  uint8
	Compressed bool
	TimeOffset uint8
	Values     []string
}
