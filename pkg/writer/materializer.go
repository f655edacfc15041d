package writer

import (
	"github.com/loomdata/loom/pkg/model"
)

const (
	listGroupName     = "list"
	elementFieldName  = "element"
	keyValueGroupName = "key_value"
	keyFieldName      = "key"
	valueFieldName    = "value"
)

// Materializer turns host values of one write model into event sequences
// against a RecordConsumer, one record per call.
type Materializer struct {
	model    *model.WriteRecordModel
	consumer RecordConsumer
}

// NewMaterializer creates a materializer for the given model and store.
// The model must already have passed schema compilation.
func NewMaterializer(m *model.WriteRecordModel, consumer RecordConsumer) *Materializer {
	return &Materializer{model: m, consumer: consumer}
}

// WriteRecord validates and emits one record. On a validation failure the
// record is rejected before its first event, the error propagates to the
// caller, and the store is left exactly as it was: the caller may skip
// the record or abort the whole write.
func (w *Materializer) WriteRecord(v any) error {
	if err := validateRecord(w.model, v); err != nil {
		return err
	}
	w.consumer.StartMessage()
	w.writeRecordFields(w.model, v)
	w.consumer.EndMessage()
	return nil
}

func (w *Materializer) writeRecordFields(m *model.WriteRecordModel, v any) {
	for i, f := range m.Fields() {
		w.writeField(f.Name, i, f.Type, f.Access(v))
	}
}

// writeField emits the events of one present field. Absent nullable
// fields, including typed-nil containers, emit nothing, which the store
// records as null at this level.
func (w *Materializer) writeField(name string, idx int, t model.FieldType, v any) {
	if absent(v) {
		return
	}

	switch ft := t.(type) {
	case model.PrimitiveType:
		w.consumer.StartField(name, idx)
		w.addPrimitive(ft, v)
		w.consumer.EndField(name, idx)

	case model.EnumType:
		w.consumer.StartField(name, idx)
		enumName, _ := ft.NameOf(v)
		w.consumer.AddByteArray([]byte(enumName))
		w.consumer.EndField(name, idx)

	case model.ListType:
		elems, _ := listElems(v)
		w.consumer.StartField(name, idx)
		w.consumer.StartGroup()
		if len(elems) > 0 {
			w.consumer.StartField(listGroupName, 0)
			for _, elem := range elems {
				w.consumer.StartGroup()
				w.writeField(elementFieldName, 0, ft.Element(), elem)
				w.consumer.EndGroup()
			}
			w.consumer.EndField(listGroupName, 0)
		}
		w.consumer.EndGroup()
		w.consumer.EndField(name, idx)

	case model.MapType:
		entries, _ := mapEntries(v)
		w.consumer.StartField(name, idx)
		w.consumer.StartGroup()
		if len(entries) > 0 {
			w.consumer.StartField(keyValueGroupName, 0)
			for _, e := range entries {
				w.consumer.StartGroup()
				w.writeField(keyFieldName, 0, ft.Key(), e.Key)
				w.writeField(valueFieldName, 1, ft.Value(), e.Value)
				w.consumer.EndGroup()
			}
			w.consumer.EndField(keyValueGroupName, 0)
		}
		w.consumer.EndGroup()
		w.consumer.EndField(name, idx)

	case model.RecordType:
		w.consumer.StartField(name, idx)
		w.consumer.StartGroup()
		w.writeRecordFields(ft.Schema().(*model.WriteRecordModel), v)
		w.consumer.EndGroup()
		w.consumer.EndField(name, idx)
	}
}

func (w *Materializer) addPrimitive(t model.PrimitiveType, v any) {
	switch t.Kind() {
	case model.KindBoolean:
		b, _ := coerceBool(v)
		w.consumer.AddBoolean(b)
	case model.KindInt32:
		n, _ := coerceInt32(v)
		w.consumer.AddInt32(n)
	case model.KindInt64:
		n, _ := coerceInt64(v)
		w.consumer.AddInt64(n)
	case model.KindFloat32:
		f, _ := coerceFloat32(v)
		w.consumer.AddFloat32(f)
	case model.KindFloat64:
		f, _ := coerceFloat64(v)
		w.consumer.AddFloat64(f)
	case model.KindString:
		// Annotated strings (enum, json) store the exact bytes of the
		// host string; json content is never reformatted.
		s, _ := coerceString(v)
		w.consumer.AddByteArray([]byte(s))
	case model.KindBinary:
		b, _ := coerceBinary(v)
		w.consumer.AddByteArray(b)
	case model.KindTimestamp:
		ts, _ := coerceTimestamp(v)
		w.consumer.AddInt64(ts.UnixMilli())
	}
}
