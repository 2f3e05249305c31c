package protocol

import "fmt"

const (
	headerCompressedBit      = 0x80
	headerDefinitionBit      = 0x40
	headerDevDataBit         = 0x20
	headerReservedBit        = 0x10
	headerLocalTypeMask      = 0x0F
	headerCompressedTypeMask = 0x60
	headerCompressedShift    = 5
	headerTimeOffsetMask     = 0x1F

	// MaxCompressedLocalType is the highest slot a compressed timestamp
	// header can address.
	MaxCompressedLocalType = 3
	// MaxTimeOffset is the largest compressed timestamp offset.
	MaxTimeOffset = 31
)

// RecordHeader is the one-byte discriminator in front of every record.
type RecordHeader byte

// DefinitionHeader builds the header of a definition record.
func DefinitionHeader(slot uint8, devFields bool) RecordHeader {
	h := RecordHeader(headerDefinitionBit | slot&headerLocalTypeMask)
	if devFields {
		h |= headerDevDataBit
	}
	return h
}

// Validate rejects header bits that no record shape defines: the
// reserved bit of a normal header and the developer data bit on a data
// record header.
func (h RecordHeader) Validate() error {
	if h.IsCompressed() {
		return nil
	}
	if h&headerReservedBit != 0 {
		return fmt.Errorf("%w: record header %#02x sets reserved bit", ErrFormat, byte(h))
	}
	if !h.IsDefinition() && h&headerDevDataBit != 0 {
		return fmt.Errorf("%w: data record header %#02x sets developer data bit", ErrFormat, byte(h))
	}
	return nil
}

// DataHeader builds a normal data record header.
func DataHeader(slot uint8) RecordHeader {
	return RecordHeader(slot & headerLocalTypeMask)
}

// CompressedHeader builds a compressed timestamp data record header.
func CompressedHeader(slot, offset uint8) (RecordHeader, error) {
	if slot > MaxCompressedLocalType {
		return 0, fmt.Errorf("%w: local type %d does not fit a compressed timestamp header", ErrFormat, slot)
	}
	if offset > MaxTimeOffset {
		return 0, fmt.Errorf("%w: time offset %d exceeds %d", ErrFormat, offset, MaxTimeOffset)
	}
	return RecordHeader(headerCompressedBit | slot<<headerCompressedShift | offset), nil
}

func (h RecordHeader) IsCompressed() bool {
	return h&headerCompressedBit != 0
}

func (h RecordHeader) IsDefinition() bool {
	return !h.IsCompressed() && h&headerDefinitionBit != 0
}

// HasDevData reports the developer-fields-present bit of a definition.
func (h RecordHeader) HasDevData() bool {
	return h.IsDefinition() && h&headerDevDataBit != 0
}

// LocalType resolves the slot for either header shape.
func (h RecordHeader) LocalType() uint8 {
	if h.IsCompressed() {
		return uint8(h&headerCompressedTypeMask) >> headerCompressedShift
	}
	return uint8(h & headerLocalTypeMask)
}

// TimeOffset is the compressed timestamp offset, zero for other shapes.
func (h RecordHeader) TimeOffset() uint8 {
	if !h.IsCompressed() {
		return 0
	}
	return uint8(h & headerTimeOffsetMask)
}
