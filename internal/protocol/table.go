package protocol

import "fmt"

// Table holds the active definition for each local message type.
type Table struct {
	slots [MaxLocalTypes]*MessageDefinition
}

// Define installs a private copy of def at its local type, discarding
// whatever occupied the slot before.
func (t *Table) Define(def MessageDefinition) (*MessageDefinition, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	installed := def.clone()
	t.slots[def.LocalType] = installed
	return installed, nil
}

// Lookup returns the definition at slot.
func (t *Table) Lookup(slot uint8) (*MessageDefinition, error) {
	if slot >= MaxLocalTypes {
		return nil, fmt.Errorf("%w: local type %d out of range", ErrFormat, slot)
	}
	def := t.slots[slot]
	if def == nil {
		return nil, fmt.Errorf("%w: %d", ErrUndefinedSlot, slot)
	}
	return def, nil
}

// PayloadLength returns the cached data payload length for slot.
func (t *Table) PayloadLength(slot uint8) (int, error) {
	def, err := t.Lookup(slot)
	if err != nil {
		return 0, err
	}
	return def.payloadLen, nil
}
