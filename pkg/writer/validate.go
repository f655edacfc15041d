package writer

import (
	"github.com/loomdata/loom/pkg/loomerrors"
	"github.com/loomdata/loom/pkg/model"
)

// validateRecord walks the full value graph of one record before any
// event is emitted. The column store is non-transactional, so this pass
// is what makes record materialization atomic: after it succeeds,
// emission cannot fail.
func validateRecord(m *model.WriteRecordModel, v any) error {
	if v == nil {
		return loomerrors.New(loomerrors.ErrorTypeInvalidRecord, "record value is nil")
	}
	return validateRecordFields(m, v, m.SchemaName())
}

func validateRecordFields(m *model.WriteRecordModel, v any, path string) error {
	for _, f := range m.Fields() {
		if err := validateValue(f.Type, f.Access(v), false, path+"."+f.Name); err != nil {
			return err
		}
	}
	return nil
}

func validateValue(t model.FieldType, v any, isMapKey bool, path string) error {
	if absent(v) {
		if isMapKey {
			return loomerrors.New(loomerrors.ErrorTypeInvalidRecord, "null map key").
				WithDetail("field", path)
		}
		if !t.Nullable() {
			return loomerrors.New(loomerrors.ErrorTypeInvalidRecord, "null value in required field").
				WithDetail("field", path)
		}
		return nil
	}

	switch ft := t.(type) {
	case model.PrimitiveType:
		if !coercible(ft, v) {
			return loomerrors.Newf(loomerrors.ErrorTypeData,
				"value of type %T cannot be written as %s", v, ft.Kind()).
				WithDetail("field", path)
		}
	case model.EnumType:
		if _, ok := ft.NameOf(v); !ok {
			return loomerrors.Newf(loomerrors.ErrorTypeData,
				"value %v is not a constant of the enum type", v).
				WithDetail("field", path)
		}
	case model.ListType:
		elems, ok := listElems(v)
		if !ok {
			return loomerrors.Newf(loomerrors.ErrorTypeData,
				"value of type %T cannot be written as a list", v).
				WithDetail("field", path)
		}
		for _, elem := range elems {
			if err := validateValue(ft.Element(), elem, false, path+".element"); err != nil {
				return err
			}
		}
	case model.MapType:
		entries, ok := mapEntries(v)
		if !ok {
			return loomerrors.Newf(loomerrors.ErrorTypeData,
				"value of type %T cannot be written as a map", v).
				WithDetail("field", path)
		}
		for _, e := range entries {
			if err := validateValue(ft.Key(), e.Key, true, path+".key"); err != nil {
				return err
			}
			if err := validateValue(ft.Value(), e.Value, false, path+".value"); err != nil {
				return err
			}
		}
	case model.RecordType:
		wm, ok := ft.Schema().(*model.WriteRecordModel)
		if !ok {
			return loomerrors.Newf(loomerrors.ErrorTypeSchema,
				"record field is not backed by a write model").
				WithDetail("field", path)
		}
		return validateRecordFields(wm, v, path)
	}
	return nil
}
