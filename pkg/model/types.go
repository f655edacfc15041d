// Package model defines the reflection-free type descriptor tree and the
// write-side record model that together describe how host values map onto
// the columnar schema.
//
// A FieldType is an immutable descriptor: a primitive leaf, an enum leaf, a
// list, a map, or a nested record. Descriptors are nullable by default;
// NotNull returns a required variant. Composite constructors accept any
// previously built descriptor for their slots, so maps of maps, lists of
// records of maps, and so on compose to arbitrary depth.
//
// Descriptors are built once, never mutated, and shared read-only across
// every record a writer or reader instance processes.
package model

import (
	"fmt"
)

// FieldType is the closed set of type descriptors recognized by the engine:
// PrimitiveType, EnumType, ListType, MapType and RecordType.
type FieldType interface {
	// Nullable reports whether an absent value is allowed for this type.
	// For map key slots the flag is advisory only: keys are always
	// compiled required and written non-null.
	Nullable() bool

	fieldType()
}

// PrimitiveKind identifies the host representation of a primitive leaf.
type PrimitiveKind int

const (
	KindBoolean PrimitiveKind = iota
	KindInt32
	KindInt64
	KindFloat32
	KindFloat64
	KindString
	KindBinary
	KindTimestamp
)

// String returns the kind name used in error messages.
func (k PrimitiveKind) String() string {
	switch k {
	case KindBoolean:
		return "boolean"
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	case KindString:
		return "string"
	case KindBinary:
		return "binary"
	case KindTimestamp:
		return "timestamp"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// LogicalAnnotation marks an alternate semantic interpretation of a
// string leaf. It affects the physical column annotation, not the host
// representation.
type LogicalAnnotation int

const (
	AnnotationNone LogicalAnnotation = iota
	// AnnotationEnum stores the string as an enum-annotated binary column.
	AnnotationEnum
	// AnnotationJSON stores the string byte-exact as a JSON-annotated
	// binary column. The engine never parses or reformats the content.
	AnnotationJSON
)

// PrimitiveType describes a primitive leaf column.
type PrimitiveType struct {
	kind       PrimitiveKind
	notNull    bool
	annotation LogicalAnnotation
}

// Boolean returns a nullable boolean descriptor.
func Boolean() PrimitiveType { return PrimitiveType{kind: KindBoolean} }

// Int32 returns a nullable 32 bit integer descriptor.
func Int32() PrimitiveType { return PrimitiveType{kind: KindInt32} }

// Int64 returns a nullable 64 bit integer descriptor.
func Int64() PrimitiveType { return PrimitiveType{kind: KindInt64} }

// Float32 returns a nullable single precision float descriptor.
func Float32() PrimitiveType { return PrimitiveType{kind: KindFloat32} }

// Float64 returns a nullable double precision float descriptor.
func Float64() PrimitiveType { return PrimitiveType{kind: KindFloat64} }

// String returns a nullable string descriptor.
func String() PrimitiveType { return PrimitiveType{kind: KindString} }

// Binary returns a nullable raw byte slice descriptor.
func Binary() PrimitiveType { return PrimitiveType{kind: KindBinary} }

// Timestamp returns a nullable timestamp descriptor. Host values are
// time.Time, stored as UTC adjusted millisecond epoch offsets.
func Timestamp() PrimitiveType { return PrimitiveType{kind: KindTimestamp} }

// NotNull returns a required variant of the descriptor.
func (t PrimitiveType) NotNull() PrimitiveType {
	t.notNull = true
	return t
}

// AsEnum returns a variant stored with the enum annotation. Valid only on
// string descriptors; any other kind panics at construction time.
func (t PrimitiveType) AsEnum() PrimitiveType {
	if t.kind != KindString {
		panic(fmt.Sprintf("model: enum annotation not supported on %s", t.kind))
	}
	t.annotation = AnnotationEnum
	return t
}

// AsJSON returns a variant stored with the JSON annotation. Valid only on
// string descriptors; any other kind panics at construction time.
func (t PrimitiveType) AsJSON() PrimitiveType {
	if t.kind != KindString {
		panic(fmt.Sprintf("model: json annotation not supported on %s", t.kind))
	}
	t.annotation = AnnotationJSON
	return t
}

// Kind returns the primitive kind.
func (t PrimitiveType) Kind() PrimitiveKind { return t.kind }

// Annotation returns the logical annotation, AnnotationNone if unset.
func (t PrimitiveType) Annotation() LogicalAnnotation { return t.annotation }

// Nullable implements FieldType.
func (t PrimitiveType) Nullable() bool { return !t.notNull }

func (PrimitiveType) fieldType() {}

// EnumType describes a leaf whose host representation is a set of named
// constants, stored physically as an enum-annotated binary column. The
// mapping is by exact name: writing a constant stores its name, reading a
// name resolves the constant, and an unmatched name on read is a
// type-conversion failure.
type EnumType struct {
	notNull bool
	values  map[string]any
	names   map[any]string
}

// Enum returns a nullable enum descriptor over the given name to constant
// mapping. Constants must be unique and comparable; an empty mapping
// panics at construction time.
func Enum(values map[string]any) EnumType {
	if len(values) == 0 {
		panic("model: enum requires at least one value")
	}
	vals := make(map[string]any, len(values))
	names := make(map[any]string, len(values))
	for name, constant := range values {
		if _, dup := names[constant]; dup {
			panic(fmt.Sprintf("model: enum constant for %q already mapped", name))
		}
		vals[name] = constant
		names[constant] = name
	}
	return EnumType{values: vals, names: names}
}

// NotNull returns a required variant of the descriptor.
func (t EnumType) NotNull() EnumType {
	t.notNull = true
	return t
}

// NameOf returns the stored name for a constant.
func (t EnumType) NameOf(constant any) (string, bool) {
	name, ok := t.names[constant]
	return name, ok
}

// ValueOf resolves a stored name to its constant.
func (t EnumType) ValueOf(name string) (any, bool) {
	v, ok := t.values[name]
	return v, ok
}

// Nullable implements FieldType.
func (t EnumType) Nullable() bool { return !t.notNull }

func (EnumType) fieldType() {}

// ListType describes an ordered sequence of elements of a single type.
// Host values are []any: nil is an absent list, an empty slice is an empty
// list, and the two round-trip distinctly.
type ListType struct {
	element FieldType
	notNull bool
}

// List returns a nullable list descriptor over the given element type.
func List(element FieldType) ListType {
	if element == nil {
		panic("model: list element type is nil")
	}
	return ListType{element: element}
}

// NotNull returns a required variant of the descriptor.
func (t ListType) NotNull() ListType {
	t.notNull = true
	return t
}

// Element returns the element descriptor.
func (t ListType) Element() FieldType { return t.element }

// Nullable implements FieldType.
func (t ListType) Nullable() bool { return !t.notNull }

func (ListType) fieldType() {}

// MapType describes a keyed collection. Host values are map[string]any,
// map[any]any, or an ordered []MapEntry. nil is an absent map, an empty
// one is an empty map, and the two round-trip distinctly. Keys are always
// written non-null regardless of the key type's declared nullability; a
// nil key is an invalid-record failure at write time.
type MapType struct {
	key     FieldType
	value   FieldType
	notNull bool
}

// Map returns a nullable map descriptor over the given key and value types.
func Map(key, value FieldType) MapType {
	if key == nil {
		panic("model: map key type is nil")
	}
	if value == nil {
		panic("model: map value type is nil")
	}
	return MapType{key: key, value: value}
}

// NotNull returns a required variant of the descriptor.
func (t MapType) NotNull() MapType {
	t.notNull = true
	return t
}

// Key returns the key descriptor.
func (t MapType) Key() FieldType { return t.key }

// Value returns the value descriptor.
func (t MapType) Value() FieldType { return t.value }

// Nullable implements FieldType.
func (t MapType) Nullable() bool { return !t.notNull }

func (MapType) fieldType() {}

// MapEntry is the ordered host representation of one map entry, used when
// keys are not comparable or insertion order matters.
type MapEntry struct {
	Key   any
	Value any
}

// RecordSchema is the structural view of a record model: an ordered list
// of uniquely named, typed fields. Both the write-side WriteRecordModel
// and the read-side record model implement it; the schema compiler
// depends only on this interface.
type RecordSchema interface {
	SchemaName() string
	NumFields() int
	FieldName(i int) string
	FieldType(i int) FieldType
}

// RecordType describes a nested record field.
type RecordType struct {
	schema  RecordSchema
	notNull bool
}

// Record returns a nullable record descriptor over the given model.
func Record(schema RecordSchema) RecordType {
	if schema == nil {
		panic("model: record schema is nil")
	}
	return RecordType{schema: schema}
}

// NotNull returns a required variant of the descriptor.
func (t RecordType) NotNull() RecordType {
	t.notNull = true
	return t
}

// Schema returns the underlying record model.
func (t RecordType) Schema() RecordSchema { return t.schema }

// Nullable implements FieldType.
func (t RecordType) Nullable() bool { return !t.notNull }

func (RecordType) fieldType() {}
