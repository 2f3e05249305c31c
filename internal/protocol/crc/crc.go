// Package crc implements the 16-bit FIT checksum.
//
// FIT uses CRC-16/ARC: reflected polynomial 0xA001, a zero initial value
// and no final xor.
package crc

import (
	"math/bits"

	"github.com/sigurn/crc16"
)

var table = crc16.MakeTable(crc16.CRC16_ARC)

// Update folds b into a running checksum and returns the new checksum.
// state is a finished checksum value, so Update(Calculate(a), b) equals
// Calculate of a followed by b.
func Update(state uint16, b []byte) uint16 {
	// The library register runs unreflected; a finished ARC value is its
	// bit reversal.
	reg := crc16.Update(bits.Reverse16(state), b, table)
	return crc16.Complete(reg, table)
}

// Calculate returns the checksum of b from a zero state.
func Calculate(b []byte) uint16 {
	return crc16.Checksum(b, table)
}
