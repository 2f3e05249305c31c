package protocol

// Codec encodes and decodes records against its own definition table.
// A Codec belongs to one conversion run and is not safe for concurrent use.
type Codec struct {
	table Table
}

func NewCodec() *Codec {
	return &Codec{}
}

// Table exposes the definition table backing the codec.
func (c *Codec) Table() *Table {
	return &c.table
}

func definitionSize(def *MessageDefinition) int {
	size := 1 + definitionPrefixSize + fieldDefinitionSize*len(def.Fields)
	if len(def.DevFields) > 0 {
		size += 1 + fieldDefinitionSize*len(def.DevFields)
	}
	return size
}

const (
	definitionPrefixSize = 5
	fieldDefinitionSize  = 3
)
