package crc

import (
	"bytes"
	"testing"
)

func TestCalculateGoldenVectors(t *testing.T) {
	cases := []struct {
		name string
		in   []byte
		want uint16
	}{
		{name: "empty", in: nil, want: 0x0000},
		{name: "check string", in: []byte("123456789"), want: 0xBB3D},
		{name: "single zero", in: []byte{0x00}, want: 0x0000},
		{name: "single one", in: []byte{0x01}, want: 0xC0C1},
		{name: "single ff", in: []byte{0xFF}, want: 0x4040},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Calculate(tc.in); got != tc.want {
				t.Fatalf("calculate(%q)=%#04x want %#04x", tc.in, got, tc.want)
			}
		})
	}
}

func TestUpdateComposesAcrossSplits(t *testing.T) {
	data := []byte("\x0e\x20\x95\x52\x00\x00\x00\x00.FIT\x40\x00\x00\x00\x00\x01\x00\x01\x02")
	whole := Calculate(data)
	for i := 0; i <= len(data); i++ {
		got := Update(Update(0, data[:i]), data[i:])
		if got != whole {
			t.Fatalf("split at %d: got %#04x want %#04x", i, got, whole)
		}
	}
}

func TestCalculateDoesNotMutateInput(t *testing.T) {
	data := []byte{1, 2, 3, 4}
	snapshot := bytes.Clone(data)
	first := Calculate(data)
	second := Calculate(data)
	if first != second {
		t.Fatalf("calculate not deterministic: %#04x vs %#04x", first, second)
	}
	if !bytes.Equal(data, snapshot) {
		t.Fatalf("input mutated: %v", data)
	}
}

// fitNibble is the FIT SDK's nibble-table form of the same checksum.
func fitNibble(b []byte) uint16 {
	table := [16]uint16{
		0x0000, 0xCC01, 0xD801, 0x1400, 0xF001, 0x3C00, 0x2800, 0xE401,
		0xA001, 0x6C00, 0x7800, 0xB401, 0x5000, 0x9C01, 0x8801, 0x4400,
	}
	var crc uint16
	for _, c := range b {
		tmp := table[crc&0xF]
		crc = (crc >> 4) & 0x0FFF
		crc = crc ^ tmp ^ table[c&0xF]
		tmp = table[crc&0xF]
		crc = (crc >> 4) & 0x0FFF
		crc = crc ^ tmp ^ table[(c>>4)&0xF]
	}
	return crc
}

func TestCalculateMatchesFITNibbleTable(t *testing.T) {
	data := make([]byte, 512)
	for i := range data {
		data[i] = byte(i*31 + 7)
	}
	for n := 0; n <= len(data); n += 17 {
		if got, want := Calculate(data[:n]), fitNibble(data[:n]); got != want {
			t.Fatalf("len %d: calculate=%#04x nibble=%#04x", n, got, want)
		}
	}
}
