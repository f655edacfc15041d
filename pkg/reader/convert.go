package reader

import (
	"time"

	"github.com/apache/arrow-go/v18/parquet"

	"github.com/loomdata/loom/pkg/loomerrors"
	"github.com/loomdata/loom/pkg/model"
	"github.com/loomdata/loom/pkg/schema"
)

// convertFunc lifts one raw column value into the target host
// representation. Raw values arrive as the physical reading types: bool,
// int32, int64, float32, float64 or parquet.ByteArray.
type convertFunc func(raw any) (any, error)

// storedLeafShape normalizes a stored leaf descriptor to its kind and
// annotation, folding enum descriptors into enum-annotated strings.
func storedLeafShape(n *schema.Node) (model.PrimitiveKind, model.LogicalAnnotation) {
	switch t := n.Type.(type) {
	case model.PrimitiveType:
		return t.Kind(), t.Annotation()
	case model.EnumType:
		return model.KindString, model.AnnotationEnum
	}
	return model.KindBinary, model.AnnotationNone
}

// buildConvert resolves the conversion from a stored leaf into a target
// leaf descriptor, or fails binding with a schema error.
func buildConvert(stored *schema.Node, target model.FieldType) (convertFunc, error) {
	kind, annotation := storedLeafShape(stored)

	switch tt := target.(type) {
	case model.EnumType:
		// Stored enum or plain string columns resolve into the target
		// constants by exact name.
		if kind != model.KindString || annotation == model.AnnotationJSON {
			return nil, bindMismatch(stored, "enum")
		}
		column := stored.Name
		return func(raw any) (any, error) {
			name := string(raw.(parquet.ByteArray))
			v, ok := tt.ValueOf(name)
			if !ok {
				return nil, loomerrors.Newf(loomerrors.ErrorTypeConversion,
					"stored name %q does not match any constant of the target enum type", name).
					WithDetail("column", column)
			}
			return v, nil
		}, nil

	case model.PrimitiveType:
		switch tt.Kind() {
		case model.KindBoolean:
			if kind != model.KindBoolean {
				return nil, bindMismatch(stored, "boolean")
			}
			return func(raw any) (any, error) { return raw.(bool), nil }, nil

		case model.KindInt32:
			if kind != model.KindInt32 {
				return nil, bindMismatch(stored, "int32")
			}
			return func(raw any) (any, error) { return raw.(int32), nil }, nil

		case model.KindInt64:
			switch kind {
			case model.KindInt64:
				return func(raw any) (any, error) { return raw.(int64), nil }, nil
			case model.KindInt32:
				// Widening read.
				return func(raw any) (any, error) { return int64(raw.(int32)), nil }, nil
			}
			return nil, bindMismatch(stored, "int64")

		case model.KindFloat32:
			if kind != model.KindFloat32 {
				return nil, bindMismatch(stored, "float32")
			}
			return func(raw any) (any, error) { return raw.(float32), nil }, nil

		case model.KindFloat64:
			switch kind {
			case model.KindFloat64:
				return func(raw any) (any, error) { return raw.(float64), nil }, nil
			case model.KindFloat32:
				return func(raw any) (any, error) { return float64(raw.(float32)), nil }, nil
			}
			return nil, bindMismatch(stored, "float64")

		case model.KindString:
			// Enum-annotated columns read as their raw name; json ones
			// as the exact stored bytes.
			if kind != model.KindString {
				return nil, bindMismatch(stored, "string")
			}
			return func(raw any) (any, error) { return string(raw.(parquet.ByteArray)), nil }, nil

		case model.KindBinary:
			if kind != model.KindBinary && kind != model.KindString {
				return nil, bindMismatch(stored, "binary")
			}
			return func(raw any) (any, error) { return []byte(raw.(parquet.ByteArray)), nil }, nil

		case model.KindTimestamp:
			if kind != model.KindTimestamp {
				return nil, bindMismatch(stored, "timestamp")
			}
			return func(raw any) (any, error) {
				return time.UnixMilli(raw.(int64)).UTC(), nil
			}, nil
		}
	}
	return nil, bindMismatch(stored, "leaf")
}

// genericTarget derives the natural host descriptor of a stored leaf,
// used when reading without a caller model. Enum names and json text
// both surface as plain strings.
func genericTarget(stored *schema.Node) model.FieldType {
	kind, _ := storedLeafShape(stored)
	switch kind {
	case model.KindBoolean:
		return model.Boolean()
	case model.KindInt32:
		return model.Int32()
	case model.KindInt64:
		return model.Int64()
	case model.KindFloat32:
		return model.Float32()
	case model.KindFloat64:
		return model.Float64()
	case model.KindTimestamp:
		return model.Timestamp()
	case model.KindBinary:
		return model.Binary()
	default:
		return model.String()
	}
}

func bindMismatch(stored *schema.Node, target string) error {
	kind, annotation := storedLeafShape(stored)
	err := loomerrors.Newf(loomerrors.ErrorTypeSchema,
		"column %q of stored kind %s cannot be read as %s", stored.Name, kind, target)
	if annotation != model.AnnotationNone {
		err = err.WithDetail("annotation", annotation)
	}
	return err
}
