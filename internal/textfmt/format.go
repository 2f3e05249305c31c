package textfmt

import (
	"fmt"
	"strings"

	"github.com/danmuck/fitconv/internal/profile"
	"github.com/danmuck/fitconv/internal/protocol"
)

func FormatProtocolVersion(v uint8) string {
	return fmt.Sprintf("%s, %d", KeywordProtocolVersion, v)
}

func FormatProfileVersion(v uint16) string {
	return fmt.Sprintf("%s, %d", KeywordProfileVersion, v)
}

// FormatDefinition renders a definition line. ARCH is written only for
// big-endian messages.
func FormatDefinition(def *protocol.MessageDefinition) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s,%d, %s,%d, %s,%d, %s,%d,",
		KeywordDefinition,
		keyLocalType, def.LocalType,
		keyGlobalNum, def.GlobalNum,
		keyFields, len(def.Fields),
		keyDevFields, len(def.DevFields))
	if def.Arch != protocol.ArchLittleEndian {
		fmt.Fprintf(&b, " %s,%d,", keyArch, def.Arch)
	}
	b.WriteString(",")
	for _, f := range def.Fields {
		fmt.Fprintf(&b, "%d,%d,%d,,", f.Num, f.Size, uint8(f.Type))
	}
	for _, f := range def.DevFields {
		fmt.Fprintf(&b, "%d,%d,%d,,", f.Num, f.Size, f.DevIndex)
	}
	return b.String()
}

// FormatData renders a data line from already-encoded value tokens.
func FormatData(rec protocol.DataRecord) string {
	var b strings.Builder
	ct := 0
	if rec.Compressed {
		ct = 1
	}
	fmt.Fprintf(&b, "%s: %s,%d, %s,%02d,,", KeywordData, keyCT, ct, keyLocalType, rec.LocalType)
	if rec.Compressed {
		fmt.Fprintf(&b, "%d,,", rec.TimeOffset)
	}
	for _, v := range rec.Values {
		b.WriteString(v)
		b.WriteString(",")
	}
	return b.String()
}

func FormatEnd() string {
	return KeywordEnd + ","
}

func FormatComment(text string) string {
	return CommentMarker + " " + text
}

// DefinitionComment names a definition's message and fields through
// titles. It reports false when the message itself is unknown.
func DefinitionComment(def *protocol.MessageDefinition, titles profile.Lookup) (string, bool) {
	if titles == nil {
		return "", false
	}
	msg, ok := titles.MessageName(def.GlobalNum)
	if !ok {
		return "", false
	}
	names := make([]string, 0, def.ValueCount())
	for _, f := range def.Fields {
		name, ok := titles.FieldName(def.GlobalNum, f.Num)
		if !ok {
			name = "unknown"
		}
		names = append(names, fmt.Sprintf("%s(%d)", name, f.Num))
	}
	for _, f := range def.DevFields {
		names = append(names, fmt.Sprintf("dev%d(%d)", f.DevIndex, f.Num))
	}
	return FormatComment(msg + ": " + strings.Join(names, " ")), true
}
