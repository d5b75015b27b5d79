// Handles schema definition, column types and JSON Schema generation.

package jsondb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ColumnType is the declared type tag of a column.
//
// Only [ColumnTypeString] is produced; values are compared as strings
// regardless of the tag.
type ColumnType string

const (
	// ColumnTypeString is the type tag of every column created by this package.
	ColumnTypeString ColumnType = "string"
	// columnTypeLegacyString is found in older table files.
	columnTypeLegacyString ColumnType = "str"
)

// Column is a named, typed column.
type Column struct {
	Name string
	Type ColumnType
}

// Schema is an ordered mapping from column name to type tag.
//
// The zero value is an empty schema. A Schema is never modified after it is
// constructed, so it is safe to share.
type Schema struct {
	cols *orderedmap.OrderedMap[string, ColumnType]
}

// NewSchema returns a schema with the given columns, in order.
func NewSchema(cols ...Column) (Schema, error) {
	m := orderedmap.New[string, ColumnType]()
	for i, c := range cols {
		if c.Name == "" {
			return Schema{}, fmt.Errorf("%w: column %d: name is required", ErrSchema, i)
		}
		if c.Type == "" {
			c.Type = ColumnTypeString
		}
		if _, present := m.Set(c.Name, c.Type); present {
			return Schema{}, fmt.Errorf("%w: duplicate column %q", ErrSchema, c.Name)
		}
	}
	return Schema{cols: m}, nil
}

// StringSchema returns a schema where every column is a string.
func StringSchema(names ...string) (Schema, error) {
	cols := make([]Column, len(names))
	for i, n := range names {
		cols[i] = Column{Name: n, Type: ColumnTypeString}
	}
	return NewSchema(cols...)
}

// Len returns the number of columns.
func (s Schema) Len() int {
	if s.cols == nil {
		return 0
	}
	return s.cols.Len()
}

// Has reports whether name is a column of the schema.
func (s Schema) Has(name string) bool {
	_, ok := s.Type(name)
	return ok
}

// Type returns the type tag of a column.
func (s Schema) Type(name string) (ColumnType, bool) {
	if s.cols == nil {
		return "", false
	}
	return s.cols.Get(name)
}

// Names returns the column names in declaration order.
func (s Schema) Names() []string {
	names := make([]string, 0, s.Len())
	if s.cols == nil {
		return names
	}
	for p := s.cols.Oldest(); p != nil; p = p.Next() {
		names = append(names, p.Key)
	}
	return names
}

// Columns returns the columns in declaration order.
func (s Schema) Columns() []Column {
	cols := make([]Column, 0, s.Len())
	if s.cols == nil {
		return cols
	}
	for p := s.cols.Oldest(); p != nil; p = p.Next() {
		cols = append(cols, Column{Name: p.Key, Type: p.Value})
	}
	return cols
}

// SameColumns reports whether both schemas declare the same column names in
// the same order. Type tags are ignored since every value is a string.
func (s Schema) SameColumns(o Schema) bool {
	return slices.Equal(s.Names(), o.Names())
}

// MarshalJSON implements json.Marshaler, keeping column order.
func (s Schema) MarshalJSON() ([]byte, error) {
	if s.cols == nil {
		return []byte("{}"), nil
	}
	return s.cols.MarshalJSON()
}

// UnmarshalJSON implements json.Unmarshaler, keeping column order.
func (s *Schema) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = Schema{}
		return nil
	}
	m := orderedmap.New[string, ColumnType]()
	if err := m.UnmarshalJSON(data); err != nil {
		return err
	}
	for p := m.Oldest(); p != nil; p = p.Next() {
		if p.Key == "" {
			return fmt.Errorf("%w: empty column name", ErrSchema)
		}
		if p.Value == columnTypeLegacyString || p.Value == "" {
			m.Set(p.Key, ColumnTypeString)
		}
	}
	s.cols = m
	return nil
}

// OrderedRow returns the row as an ordered map with the schema's columns
// first, in declaration order, followed by any extra keys sorted by name.
//
// Missing columns are omitted.
func (s Schema) OrderedRow(row Row) *orderedmap.OrderedMap[string, any] {
	out := orderedmap.New[string, any](len(row))
	for _, name := range s.Names() {
		if v, ok := row[name]; ok {
			out.Set(name, v)
		}
	}
	if out.Len() == len(row) {
		return out
	}
	var extra []string
	for k := range row {
		if !s.Has(k) {
			extra = append(extra, k)
		}
	}
	slices.Sort(extra)
	for _, k := range extra {
		out.Set(k, row[k])
	}
	return out
}

// JSONSchema returns a JSON Schema describing a single row.
//
// Every column is a required string; unknown properties are rejected, the
// same way [Table.Validate] does.
func (s Schema) JSONSchema(title string) *jsonschema.Schema {
	js := &jsonschema.Schema{
		Version:              jsonschema.Version,
		Title:                title,
		Type:                 "object",
		Properties:           jsonschema.NewProperties(),
		Required:             s.Names(),
		AdditionalProperties: jsonschema.FalseSchema,
	}
	for _, c := range s.Columns() {
		js.Properties.Set(c.Name, &jsonschema.Schema{
			Type:        "string",
			Description: fmt.Sprintf("Column %q (declared %s).", c.Name, c.Type),
		})
	}
	return js
}

// String returns the column names, for error messages.
func (s Schema) String() string {
	return fmt.Sprint(s.Names())
}

var (
	_ json.Marshaler   = Schema{}
	_ json.Unmarshaler = (*Schema)(nil)
)
