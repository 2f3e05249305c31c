package textfmt

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/danmuck/fitconv/internal/protocol"
)

const (
	KeywordProtocolVersion = "FIT_PROTOCOL_VERSION"
	KeywordProfileVersion  = "FIT_PROFILE_VERSION"
	KeywordDefinition      = "DEF"
	KeywordData            = "DATA"
	KeywordEnd             = "END"

	CommentMarker = "#"

	keyLocalType = "M_TYPE"
	keyGlobalNum = "M_NUM"
	keyFields    = "FIELDS"
	keyDevFields = "DEV_FIELDS"
	keyArch      = "ARCH"
	keyCT        = "CT"
)

type Kind int

const (
	KindBlank Kind = iota
	KindComment
	KindProtocolVersion
	KindProfileVersion
	KindDefinition
	KindData
	KindEnd
)

func (k Kind) String() string {
	switch k {
	case KindBlank:
		return "blank"
	case KindComment:
		return "comment"
	case KindProtocolVersion:
		return "protocol_version"
	case KindProfileVersion:
		return "profile_version"
	case KindDefinition:
		return "definition"
	case KindData:
		return "data"
	case KindEnd:
		return "end"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Line is one parsed text line.
type Line struct {
	Kind            Kind
	ProtocolVersion uint8
	ProfileVersion  uint16
	Definition      protocol.MessageDefinition
	Data            protocol.DataRecord
}

// Parse classifies and parses one line without its terminator.
func Parse(raw string) (Line, error) {
	raw = strings.TrimRight(raw, "\r\n")
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Line{Kind: KindBlank}, nil
	}
	if strings.HasPrefix(trimmed, CommentMarker) {
		return Line{Kind: KindComment}, nil
	}

	keyword, rest := trimmed, ""
	if i := strings.IndexAny(trimmed, ":,"); i >= 0 {
		keyword, rest = strings.TrimSpace(trimmed[:i]), trimmed[i+1:]
	}
	s := &scanner{toks: tokens(rest)}

	switch keyword {
	case KeywordProtocolVersion:
		v, err := s.u8("protocol version")
		if err != nil {
			return Line{}, err
		}
		return Line{Kind: KindProtocolVersion, ProtocolVersion: v}, s.done()
	case KeywordProfileVersion:
		v, err := s.u16("profile version")
		if err != nil {
			return Line{}, err
		}
		return Line{Kind: KindProfileVersion, ProfileVersion: v}, s.done()
	case KeywordDefinition:
		def, err := parseDefinition(s)
		if err != nil {
			return Line{}, err
		}
		return Line{Kind: KindDefinition, Definition: def}, nil
	case KeywordData:
		rec, err := parseData(s)
		if err != nil {
			return Line{}, err
		}
		return Line{Kind: KindData, Data: rec}, nil
	case KeywordEnd:
		return Line{Kind: KindEnd}, s.done()
	default:
		return Line{}, fmt.Errorf("%w: unknown line keyword %q", protocol.ErrFormat, keyword)
	}
}

func parseDefinition(s *scanner) (protocol.MessageDefinition, error) {
	var def protocol.MessageDefinition
	var err error
	if def.LocalType, err = s.pairUint8(keyLocalType); err != nil {
		return def, err
	}
	if def.GlobalNum, err = s.pairUint16(keyGlobalNum); err != nil {
		return def, err
	}
	numFields, err := s.pairUint8(keyFields)
	if err != nil {
		return def, err
	}
	numDev, err := s.pairUint8(keyDevFields)
	if err != nil {
		return def, err
	}
	if s.peek() == keyArch {
		arch, err := s.pairUint8(keyArch)
		if err != nil {
			return def, err
		}
		def.Arch = protocol.Arch(arch)
	}

	for i := 0; i < int(numFields); i++ {
		var f protocol.FieldDefinition
		var typ uint8
		if f.Num, err = s.u8("field number"); err != nil {
			return def, err
		}
		if f.Size, err = s.u8("field size"); err != nil {
			return def, err
		}
		if typ, err = s.u8("field base type"); err != nil {
			return def, err
		}
		f.Type = protocol.BaseType(typ)
		def.Fields = append(def.Fields, f)
	}
	for i := 0; i < int(numDev); i++ {
		var f protocol.DevFieldDefinition
		if f.Num, err = s.u8("developer field number"); err != nil {
			return def, err
		}
		if f.Size, err = s.u8("developer field size"); err != nil {
			return def, err
		}
		if f.DevIndex, err = s.u8("developer data index"); err != nil {
			return def, err
		}
		def.DevFields = append(def.DevFields, f)
	}
	if err := s.done(); err != nil {
		return def, err
	}
	return def, def.Validate()
}

func parseData(s *scanner) (protocol.DataRecord, error) {
	var rec protocol.DataRecord
	ct, err := s.pairUint8(keyCT)
	if err != nil {
		return rec, err
	}
	switch ct {
	case 0:
	case 1:
		rec.Compressed = true
	default:
		return rec, fmt.Errorf("%w: CT must be 0 or 1, got %d", protocol.ErrFormat, ct)
	}
	if rec.LocalType, err = s.pairUint8(keyLocalType); err != nil {
		return rec, err
	}
	if rec.LocalType >= protocol.MaxLocalTypes {
		return rec, fmt.Errorf("%w: local type %d out of range", protocol.ErrFormat, rec.LocalType)
	}
	if rec.Compressed {
		if rec.TimeOffset, err = s.u8("time offset"); err != nil {
			return rec, err
		}
		if rec.TimeOffset > protocol.MaxTimeOffset {
			return rec, fmt.Errorf("%w: time offset %d exceeds %d", protocol.ErrFormat, rec.TimeOffset, protocol.MaxTimeOffset)
		}
	}
	rec.Values = s.rest()
	return rec, nil
}

func tokens(rest string) []string {
	parts := strings.Split(rest, ",")
	out := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

type scanner struct {
	toks []string
	pos  int
}

func (s *scanner) peek() string {
	if s.pos >= len(s.toks) {
		return ""
	}
	return strings.TrimSpace(s.toks[s.pos])
}

func (s *scanner) next(what string) (string, error) {
	if s.pos >= len(s.toks) {
		return "", fmt.Errorf("%w: missing %s", protocol.ErrFormat, what)
	}
	tok := s.toks[s.pos]
	s.pos++
	return tok, nil
}

func (s *scanner) keyword(name string) error {
	tok, err := s.next(name)
	if err != nil {
		return err
	}
	if strings.TrimSpace(tok) != name {
		return fmt.Errorf("%w: expected %s, got %q", protocol.ErrFormat, name, strings.TrimSpace(tok))
	}
	return nil
}

func (s *scanner) u8(what string) (uint8, error) {
	v, err := s.number(what, 8)
	return uint8(v), err
}

func (s *scanner) u16(what string) (uint16, error) {
	v, err := s.number(what, 16)
	return uint16(v), err
}

func (s *scanner) number(what string, bits int) (uint64, error) {
	tok, err := s.next(what)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(strings.TrimSpace(tok), 10, bits)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q: %v", protocol.ErrFormat, what, strings.TrimSpace(tok), err)
	}
	return v, nil
}

func (s *scanner) pairUint8(name string) (uint8, error) {
	if err := s.keyword(name); err != nil {
		return 0, err
	}
	return s.u8(name)
}

func (s *scanner) pairUint16(name string) (uint16, error) {
	if err := s.keyword(name); err != nil {
		return 0, err
	}
	return s.u16(name)
}

func (s *scanner) rest() []string {
	out := append([]string(nil), s.toks[s.pos:]...)
	s.pos = len(s.toks)
	return out
}

func (s *scanner) done() error {
	if s.pos < len(s.toks) {
		return fmt.Errorf("%w: unexpected token %q", protocol.ErrFormat, strings.TrimSpace(s.toks[s.pos]))
	}
	return nil
}
