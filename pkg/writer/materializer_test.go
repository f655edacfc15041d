package writer

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomdata/loom/pkg/loomerrors"
	"github.com/loomdata/loom/pkg/model"
)

// eventLog records the consumer calls as compact strings.
type eventLog struct {
	events []string
}

func (l *eventLog) add(e string)  { l.events = append(l.events, e) }
func (l *eventLog) StartMessage() { l.add("start_message") }
func (l *eventLog) EndMessage()   { l.add("end_message") }
func (l *eventLog) StartField(name string, idx int) {
	l.add(fmt.Sprintf("start_field:%s/%d", name, idx))
}
func (l *eventLog) EndField(name string, idx int) {
	l.add(fmt.Sprintf("end_field:%s/%d", name, idx))
}
func (l *eventLog) StartGroup()           { l.add("start_group") }
func (l *eventLog) EndGroup()             { l.add("end_group") }
func (l *eventLog) AddBoolean(v bool)     { l.add(fmt.Sprintf("bool:%v", v)) }
func (l *eventLog) AddInt32(v int32)      { l.add(fmt.Sprintf("int32:%d", v)) }
func (l *eventLog) AddInt64(v int64)      { l.add(fmt.Sprintf("int64:%d", v)) }
func (l *eventLog) AddFloat32(v float32)  { l.add(fmt.Sprintf("float32:%g", v)) }
func (l *eventLog) AddFloat64(v float64)  { l.add(fmt.Sprintf("float64:%g", v)) }
func (l *eventLog) AddByteArray(v []byte) { l.add(fmt.Sprintf("bytes:%s", v)) }

func field(rec any, name string) any { return rec.(map[string]any)[name] }

func access(name string) model.Accessor {
	return func(v any) any { return field(v, name) }
}

func TestWriteFlatRecord(t *testing.T) {
	m := model.NewWriteRecordModel("point").
		Field("x", model.Int64().NotNull(), access("x")).
		Field("label", model.String(), access("label"))

	log := &eventLog{}
	err := NewMaterializer(m, log).WriteRecord(map[string]any{"x": int64(7), "label": "origin"})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"start_message",
		"start_field:x/0", "int64:7", "end_field:x/0",
		"start_field:label/1", "bytes:origin", "end_field:label/1",
		"end_message",
	}, log.events)
}

func TestAbsentOptionalEmitsNothing(t *testing.T) {
	m := model.NewWriteRecordModel("point").
		Field("x", model.Int64().NotNull(), access("x")).
		Field("label", model.String(), access("label"))

	log := &eventLog{}
	err := NewMaterializer(m, log).WriteRecord(map[string]any{"x": int64(1)})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"start_message",
		"start_field:x/0", "int64:1", "end_field:x/0",
		"end_message",
	}, log.events)
}

// An accessor returning a struct's nil slice or map field yields a typed
// nil, not interface nil. It must still write as absent, never as a
// present empty container.
func TestTypedNilContainersWriteAsAbsent(t *testing.T) {
	type host struct {
		Tags  []any
		Attrs map[string]any
		Pairs []model.MapEntry
	}
	m := model.NewWriteRecordModel("r").
		Field("tags", model.List(model.String()), func(v any) any { return v.(*host).Tags }).
		Field("attrs", model.Map(model.String().NotNull(), model.String()),
			func(v any) any { return v.(*host).Attrs }).
		Field("pairs", model.Map(model.String().NotNull(), model.Int32()),
			func(v any) any { return v.(*host).Pairs })

	log := &eventLog{}
	err := NewMaterializer(m, log).WriteRecord(&host{})
	require.NoError(t, err)

	assert.Equal(t, []string{"start_message", "end_message"}, log.events)
}

func TestTypedNilRequiredContainerRejected(t *testing.T) {
	m := model.NewWriteRecordModel("r").
		Field("tags", model.List(model.String()).NotNull(), func(v any) any { return []any(nil) })

	log := &eventLog{}
	err := NewMaterializer(m, log).WriteRecord(map[string]any{})
	require.Error(t, err)
	assert.True(t, loomerrors.IsType(err, loomerrors.ErrorTypeInvalidRecord))
	assert.Empty(t, log.events)
}

func TestEmptyListOpensOuterGroupOnly(t *testing.T) {
	m := model.NewWriteRecordModel("r").
		Field("tags", model.List(model.String()), access("tags"))

	log := &eventLog{}
	err := NewMaterializer(m, log).WriteRecord(map[string]any{"tags": []any{}})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"start_message",
		"start_field:tags/0", "start_group", "end_group", "end_field:tags/0",
		"end_message",
	}, log.events)
}

func TestListEntriesAndNullElement(t *testing.T) {
	m := model.NewWriteRecordModel("r").
		Field("tags", model.List(model.String()), access("tags"))

	log := &eventLog{}
	err := NewMaterializer(m, log).WriteRecord(map[string]any{"tags": []any{"a", nil}})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"start_message",
		"start_field:tags/0", "start_group",
		"start_field:list/0",
		"start_group", "start_field:element/0", "bytes:a", "end_field:element/0", "end_group",
		"start_group", "end_group",
		"end_field:list/0",
		"end_group", "end_field:tags/0",
		"end_message",
	}, log.events)
}

func TestMapEntriesEmitKeyThenValue(t *testing.T) {
	m := model.NewWriteRecordModel("r").
		Field("attrs", model.Map(model.String(), model.Int32()), access("attrs"))

	entries := []model.MapEntry{
		{Key: "a", Value: int32(1)},
		{Key: "b", Value: nil},
	}
	log := &eventLog{}
	err := NewMaterializer(m, log).WriteRecord(map[string]any{"attrs": entries})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"start_message",
		"start_field:attrs/0", "start_group",
		"start_field:key_value/0",
		"start_group",
		"start_field:key/0", "bytes:a", "end_field:key/0",
		"start_field:value/1", "int32:1", "end_field:value/1",
		"end_group",
		"start_group",
		"start_field:key/0", "bytes:b", "end_field:key/0",
		"end_group",
		"end_field:key_value/0",
		"end_group", "end_field:attrs/0",
		"end_message",
	}, log.events)
}

func TestNullMapKeyRejectedBeforeAnyEvent(t *testing.T) {
	m := model.NewWriteRecordModel("r").
		Field("attrs", model.Map(model.String(), model.Int32()), access("attrs"))

	log := &eventLog{}
	err := NewMaterializer(m, log).WriteRecord(map[string]any{
		"attrs": []model.MapEntry{{Key: "ok", Value: int32(1)}, {Key: nil, Value: int32(2)}},
	})
	require.Error(t, err)
	assert.True(t, loomerrors.IsType(err, loomerrors.ErrorTypeInvalidRecord))
	assert.Empty(t, log.events)
}

func TestNullRequiredFieldRejected(t *testing.T) {
	m := model.NewWriteRecordModel("r").
		Field("x", model.Int64().NotNull(), access("x"))

	log := &eventLog{}
	err := NewMaterializer(m, log).WriteRecord(map[string]any{})
	require.Error(t, err)
	assert.True(t, loomerrors.IsType(err, loomerrors.ErrorTypeInvalidRecord))
	assert.Empty(t, log.events)
}

func TestHostTypeMismatchRejected(t *testing.T) {
	m := model.NewWriteRecordModel("r").
		Field("x", model.Int64(), access("x"))

	log := &eventLog{}
	err := NewMaterializer(m, log).WriteRecord(map[string]any{"x": "seven"})
	require.Error(t, err)
	assert.True(t, loomerrors.IsType(err, loomerrors.ErrorTypeData))
	assert.Empty(t, log.events)
}

func TestEnumValueOutsideMapping(t *testing.T) {
	e := model.Enum(map[string]any{"ON": 1, "OFF": 0})
	m := model.NewWriteRecordModel("r").
		Field("state", e, access("state"))

	log := &eventLog{}
	mat := NewMaterializer(m, log)

	require.NoError(t, mat.WriteRecord(map[string]any{"state": 1}))
	assert.Contains(t, log.events, "bytes:ON")

	err := mat.WriteRecord(map[string]any{"state": 5})
	require.Error(t, err)
	assert.True(t, loomerrors.IsType(err, loomerrors.ErrorTypeData))
}

func TestTimestampStoredAsMillis(t *testing.T) {
	m := model.NewWriteRecordModel("r").
		Field("at", model.Timestamp().NotNull(), access("at"))

	at := time.Date(2024, 5, 17, 10, 30, 0, 0, time.UTC)
	log := &eventLog{}
	err := NewMaterializer(m, log).WriteRecord(map[string]any{"at": at})
	require.NoError(t, err)
	assert.Contains(t, log.events, fmt.Sprintf("int64:%d", at.UnixMilli()))
}

func TestJSONStoredByteExact(t *testing.T) {
	m := model.NewWriteRecordModel("r").
		Field("payload", model.String().AsJSON(), access("payload"))

	raw := `{"b": 2,  "a": 1}`
	log := &eventLog{}
	err := NewMaterializer(m, log).WriteRecord(map[string]any{"payload": raw})
	require.NoError(t, err)
	assert.Contains(t, log.events, "bytes:"+raw)
}
