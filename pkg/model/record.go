package model

import (
	"fmt"
)

// Accessor extracts one field's value from a host record value. Returning
// untyped nil means the field is absent.
type Accessor func(v any) any

// WriteField pairs a column name, its type descriptor and the accessor
// that extracts the field value from a host record.
type WriteField struct {
	Name   string
	Type   FieldType
	Access Accessor
}

// WriteRecordModel is an ordered, uniquely named collection of write
// fields. Declaration order is significant: it fixes column order in the
// compiled schema. Models are built once and shared read-only; they are
// not safe for mutation after first use.
type WriteRecordModel struct {
	name   string
	fields []WriteField
	index  map[string]int
}

// NewWriteRecordModel creates an empty write model with the given schema
// name.
func NewWriteRecordModel(name string) *WriteRecordModel {
	if name == "" {
		panic("model: record model name is empty")
	}
	return &WriteRecordModel{
		name:  name,
		index: make(map[string]int),
	}
}

// Field appends a field in declaration order and returns the model for
// chaining. A duplicate name or nil type/accessor panics at construction
// time.
func (m *WriteRecordModel) Field(name string, t FieldType, access Accessor) *WriteRecordModel {
	if name == "" {
		panic("model: field name is empty")
	}
	if t == nil {
		panic(fmt.Sprintf("model: field %q has nil type", name))
	}
	if access == nil {
		panic(fmt.Sprintf("model: field %q has nil accessor", name))
	}
	if _, exists := m.index[name]; exists {
		panic(fmt.Sprintf("model: field %q already defined", name))
	}
	m.index[name] = len(m.fields)
	m.fields = append(m.fields, WriteField{Name: name, Type: t, Access: access})
	return m
}

// Fields returns the fields in declaration order.
func (m *WriteRecordModel) Fields() []WriteField { return m.fields }

// FieldAt returns the i-th field.
func (m *WriteRecordModel) FieldAt(i int) WriteField { return m.fields[i] }

// SchemaName implements RecordSchema.
func (m *WriteRecordModel) SchemaName() string { return m.name }

// NumFields implements RecordSchema.
func (m *WriteRecordModel) NumFields() int { return len(m.fields) }

// FieldName implements RecordSchema.
func (m *WriteRecordModel) FieldName(i int) string { return m.fields[i].Name }

// FieldType implements RecordSchema.
func (m *WriteRecordModel) FieldType(i int) FieldType { return m.fields[i].Type }
