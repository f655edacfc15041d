package parquetio

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomdata/loom/pkg/loomerrors"
	"github.com/loomdata/loom/pkg/model"
	"github.com/loomdata/loom/pkg/reader"
	"github.com/loomdata/loom/pkg/testutil"
)

func writeOrders(t *testing.T, config WriterConfig, orders []*testutil.Order) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := NewWriter(&buf, testutil.OrderModel(), config)
	require.NoError(t, err)
	for _, o := range orders {
		require.NoError(t, w.Write(o))
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestFileRoundTripGeneric(t *testing.T) {
	data := writeOrders(t, WriterConfig{}, testutil.SampleOrders())

	r, err := NewGenericReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer r.Close()

	require.Equal(t, int64(4), r.NumRows())
	got, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, map[string]any{
		"id":       int64(1),
		"customer": "acme",
		"tags":     []any{"priority", "bulk"},
		"attrs":    map[any]any{"region": "emea"},
		"lines": []any{
			map[string]any{"sku": "A-1", "qty": int32(2)},
			map[string]any{"sku": "B-7", "qty": int32(1)},
		},
	}, got[0])

	assert.Equal(t, map[string]any{
		"id": int64(2), "customer": nil, "tags": nil, "attrs": nil, "lines": nil,
	}, got[1])

	assert.Equal(t, map[string]any{
		"id": int64(3), "customer": nil,
		"tags": []any{}, "attrs": map[any]any{}, "lines": []any{},
	}, got[2])

	_, err = r.Read()
	assert.Equal(t, io.EOF, err)
}

func TestFileRoundTripModel(t *testing.T) {
	data := writeOrders(t, WriterConfig{}, testutil.SampleOrders())

	type rec struct {
		ID   int64
		Tags any
	}
	rm := reader.NewRecordModel("order", func() any { return &rec{} }).
		Field("id", model.Int64().NotNull(), func(r, v any) { r.(*rec).ID = v.(int64) }).
		Field("tags", model.List(model.String()), func(r, v any) { r.(*rec).Tags = v })

	r, err := NewReader(bytes.NewReader(data), rm)
	require.NoError(t, err)
	defer r.Close()

	got, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, []any{"priority", "bulk"}, got[0].(*rec).Tags)
	assert.Nil(t, got[1].(*rec).Tags)
	assert.Equal(t, []any{}, got[2].(*rec).Tags)
	assert.Equal(t, []any{nil, "fragile"}, got[3].(*rec).Tags)
}

func TestMultipleRowGroups(t *testing.T) {
	orders := make([]*testutil.Order, 10)
	for i := range orders {
		orders[i] = &testutil.Order{ID: int64(i), Tags: []any{"t"}}
	}
	data := writeOrders(t, WriterConfig{RowGroupRecords: 3}, orders)

	r, err := NewGenericReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer r.Close()

	require.Equal(t, int64(10), r.NumRows())
	got, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, got, 10)
	for i, rec := range got {
		assert.Equal(t, int64(i), rec.(map[string]any)["id"])
		assert.Equal(t, []any{"t"}, rec.(map[string]any)["tags"])
	}
}

func TestCompressionCodecs(t *testing.T) {
	for _, name := range []string{"snappy", "zstd", "gzip", "none"} {
		data := writeOrders(t, WriterConfig{Compression: name}, testutil.SampleOrders())

		r, err := NewGenericReader(bytes.NewReader(data))
		require.NoError(t, err, name)
		got, err := r.ReadAll()
		require.NoError(t, err, name)
		assert.Len(t, got, 4, name)
		require.NoError(t, r.Close())
	}
}

func TestUnknownCompressionRejected(t *testing.T) {
	var buf bytes.Buffer
	_, err := NewWriter(&buf, testutil.OrderModel(), WriterConfig{Compression: "brotli9000"})
	require.Error(t, err)
	assert.True(t, loomerrors.IsType(err, loomerrors.ErrorTypeConfig))
}

func TestFailedRecordLeavesWriterUsable(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, testutil.OrderModel(), WriterConfig{})
	require.NoError(t, err)

	require.NoError(t, w.Write(&testutil.Order{ID: 1}))

	// Host-type mismatch: rejected before anything reaches the store.
	err = w.Write(&testutil.Order{
		ID:   2,
		Tags: []any{42},
	})
	require.Error(t, err)
	assert.True(t, loomerrors.IsType(err, loomerrors.ErrorTypeData))

	require.NoError(t, w.Write(&testutil.Order{ID: 3}))
	require.NoError(t, w.Close())

	r, err := NewGenericReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer r.Close()

	got, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].(map[string]any)["id"])
	assert.Equal(t, int64(3), got[1].(map[string]any)["id"])
}

func TestWriteAfterCloseFails(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, testutil.OrderModel(), WriterConfig{})
	require.NoError(t, err)
	require.NoError(t, w.Write(&testutil.Order{ID: 1}))
	require.NoError(t, w.Close())

	err = w.Write(&testutil.Order{ID: 2})
	require.Error(t, err)
	assert.True(t, loomerrors.IsType(err, loomerrors.ErrorTypeFile))
}

func TestCrossModelFileRead(t *testing.T) {
	// Written as int32, read as int64: columns meet only through the
	// stored schema region, never through shared host types.
	wm := model.NewWriteRecordModel("m").
		Field("n", model.Int32().NotNull(), func(v any) any { return v.(int32) })

	var buf bytes.Buffer
	w, err := NewWriter(&buf, wm, WriterConfig{})
	require.NoError(t, err)
	require.NoError(t, w.Write(int32(12)))
	require.NoError(t, w.Close())

	type rec struct{ N int64 }
	rm := reader.NewRecordModel("m", func() any { return &rec{} }).
		Field("n", model.Int64().NotNull(), func(r, v any) { r.(*rec).N = v.(int64) })

	r, err := NewReader(bytes.NewReader(buf.Bytes()), rm)
	require.NoError(t, err)
	defer r.Close()

	got, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, int64(12), got.(*rec).N)
}
