// Package profile provides advisory display names for global message
// numbers and field numbers. Names feed comment lines only.
package profile

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog/log"
)

//go:embed catalog.toml
var builtinCatalog string

// Lookup resolves display names. Implementations may know nothing.
type Lookup interface {
	MessageName(global uint16) (string, bool)
	FieldName(global uint16, field uint8) (string, bool)
}

type fileCatalog struct {
	Message []fileMessage `toml:"message"`
}

type fileMessage struct {
	Num    uint16      `toml:"num"`
	Name   string      `toml:"name"`
	Fields []fileField `toml:"fields"`
}

type fileField struct {
	Num  uint8  `toml:"num"`
	Name string `toml:"name"`
}

type message struct {
	name   string
	fields map[uint8]string
}

// Catalog is a Lookup backed by TOML catalog documents.
type Catalog struct {
	messages map[uint16]message
}

type ValidationError struct {
	Message uint16
	Field   int
	Reason  string
}

func (e ValidationError) Error() string {
	if e.Field < 0 {
		return fmt.Sprintf("profile: message=%d: %s", e.Message, e.Reason)
	}
	return fmt.Sprintf("profile: message=%d field=%d: %s", e.Message, e.Field, e.Reason)
}

// Builtin returns a catalog holding the embedded message titles.
func Builtin() *Catalog {
	c := &Catalog{messages: make(map[uint16]message)}
	if err := c.merge(builtinCatalog); err != nil {
		panic("profile: builtin catalog invalid: " + err.Error())
	}
	return c
}

// Load returns the builtin catalog with the file at path merged over it.
// Entries in the file replace builtin names for the same numbers.
func Load(path string) (*Catalog, error) {
	c := Builtin()
	if strings.TrimSpace(path) == "" {
		return c, nil
	}
	var raw fileCatalog
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, fmt.Errorf("catalog load failed (%s): %w", path, err)
	}
	if err := c.apply(raw); err != nil {
		return nil, fmt.Errorf("catalog invalid (%s): %w", path, err)
	}
	log.Debug().Str("path", path).Int("messages", len(raw.Message)).Msg("merged title catalog")
	return c, nil
}

func (c *Catalog) merge(doc string) error {
	var raw fileCatalog
	if _, err := toml.Decode(doc, &raw); err != nil {
		return err
	}
	return c.apply(raw)
}

func (c *Catalog) apply(raw fileCatalog) error {
	for _, m := range raw.Message {
		name := strings.TrimSpace(m.Name)
		if name == "" {
			return ValidationError{Message: m.Num, Field: -1, Reason: "missing name"}
		}
		entry, ok := c.messages[m.Num]
		if !ok {
			entry = message{fields: make(map[uint8]string)}
		}
		entry.name = name
		for _, f := range m.Fields {
			fieldName := strings.TrimSpace(f.Name)
			if fieldName == "" {
				return ValidationError{Message: m.Num, Field: int(f.Num), Reason: "missing name"}
			}
			entry.fields[f.Num] = fieldName
		}
		c.messages[m.Num] = entry
	}
	return nil
}

func (c *Catalog) MessageName(global uint16) (string, bool) {
	m, ok := c.messages[global]
	if !ok {
		return "", false
	}
	return m.name, true
}

func (c *Catalog) FieldName(global uint16, field uint8) (string, bool) {
	m, ok := c.messages[global]
	if !ok {
		return "", false
	}
	name, ok := m.fields[field]
	return name, ok
}

// None is a Lookup that knows no names.
type None struct{}

func (None) MessageName(uint16) (string, bool)      { return "", false }
func (None) FieldName(uint16, uint8) (string, bool) { return "", false }
