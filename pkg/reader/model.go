// Package reader implements the read-path assembler: it binds a target
// record model to a stored physical schema by field name and rebuilds
// host values from sequential per-column reads.
//
// The target model may differ from the one used at write time: fields
// are matched by name, int32 columns widen into int64 targets, and
// enum-annotated columns resolve either into plain strings or into a
// target enumerated type by exact name. The write model and the read
// model meet only through the stored schema, never through shared host
// type identity.
//
// An Assembler reads records strictly sequentially and is not safe for
// concurrent use.
package reader

import (
	"fmt"

	"github.com/loomdata/loom/pkg/model"
)

// Assign stores one assembled field value into an instance produced by
// the model factory. v is nil for absent values.
type Assign func(rec any, v any)

// Field pairs a column name, a target type descriptor and the assign
// function placing the value into the record under construction.
type Field struct {
	Name   string
	Type   model.FieldType
	Assign Assign
}

// RecordModel is the read-side record model: a factory producing empty
// instances plus an ordered list of uniquely named, typed fields. It
// implements model.RecordSchema, so record models nest through
// model.Record like any other descriptor.
type RecordModel struct {
	name    string
	factory func() any
	fields  []Field
	index   map[string]int
}

// NewRecordModel creates an empty read model with the given schema name
// and instance factory.
func NewRecordModel(name string, factory func() any) *RecordModel {
	if name == "" {
		panic("reader: record model name is empty")
	}
	if factory == nil {
		panic(fmt.Sprintf("reader: record model %q has nil factory", name))
	}
	return &RecordModel{
		name:    name,
		factory: factory,
		index:   make(map[string]int),
	}
}

// Field appends a field and returns the model for chaining. A duplicate
// name or nil type/assign panics at construction time.
func (m *RecordModel) Field(name string, t model.FieldType, assign Assign) *RecordModel {
	if name == "" {
		panic("reader: field name is empty")
	}
	if t == nil {
		panic(fmt.Sprintf("reader: field %q has nil type", name))
	}
	if assign == nil {
		panic(fmt.Sprintf("reader: field %q has nil assign", name))
	}
	if _, exists := m.index[name]; exists {
		panic(fmt.Sprintf("reader: field %q already defined", name))
	}
	m.index[name] = len(m.fields)
	m.fields = append(m.fields, Field{Name: name, Type: t, Assign: assign})
	return m
}

// Fields returns the fields in declaration order.
func (m *RecordModel) Fields() []Field { return m.fields }

// SchemaName implements model.RecordSchema.
func (m *RecordModel) SchemaName() string { return m.name }

// NumFields implements model.RecordSchema.
func (m *RecordModel) NumFields() int { return len(m.fields) }

// FieldName implements model.RecordSchema.
func (m *RecordModel) FieldName(i int) string { return m.fields[i].Name }

// FieldType implements model.RecordSchema.
func (m *RecordModel) FieldType(i int) model.FieldType { return m.fields[i].Type }
