package schema

import (
	"testing"

	"github.com/apache/arrow-go/v18/parquet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomdata/loom/pkg/loomerrors"
	"github.com/loomdata/loom/pkg/model"
	"github.com/loomdata/loom/pkg/testutil"
)

func TestCompileFlatRecord(t *testing.T) {
	m := model.NewWriteRecordModel("point").
		Field("x", model.Int64().NotNull(), nopAccess).
		Field("y", model.Float64(), nopAccess)

	c, err := Compile(m)
	require.NoError(t, err)
	require.Equal(t, 2, c.NumColumns())

	x := c.Root.Children[0]
	assert.Equal(t, KindLeaf, x.Kind)
	assert.Equal(t, parquet.Repetitions.Required, x.Repetition)
	assert.Equal(t, int16(0), x.DefLevel)
	assert.Equal(t, int16(0), x.RepLevel)
	assert.Equal(t, 0, x.Column)
	assert.Equal(t, parquet.Types.Int64, x.Physical)

	y := c.Root.Children[1]
	assert.Equal(t, parquet.Repetitions.Optional, y.Repetition)
	assert.Equal(t, int16(1), y.DefLevel)
	assert.Equal(t, 1, y.Column)
	assert.Equal(t, parquet.Types.Double, y.Physical)
}

func TestCompileNestedLevels(t *testing.T) {
	c, err := Compile(testutil.OrderModel())
	require.NoError(t, err)
	require.Equal(t, 7, c.NumColumns())

	tags := c.Root.Children[2]
	require.Equal(t, KindList, tags.Kind)
	assert.Equal(t, int16(1), tags.DefLevel)
	assert.Equal(t, int16(0), tags.RepLevel)

	repeated := tags.RepeatedChild()
	assert.Equal(t, KindRepeated, repeated.Kind)
	assert.Equal(t, "list", repeated.Name)
	assert.Equal(t, int16(2), repeated.DefLevel)
	assert.Equal(t, int16(1), repeated.RepLevel)

	element := repeated.Children[0]
	assert.Equal(t, "element", element.Name)
	assert.Equal(t, int16(3), element.DefLevel)
	assert.Equal(t, int16(1), element.RepLevel)
	assert.Equal(t, 2, element.Column)

	attrs := c.Root.Children[3]
	require.Equal(t, KindMap, attrs.Kind)
	kv := attrs.RepeatedChild()
	assert.Equal(t, "key_value", kv.Name)

	key := kv.Children[0]
	assert.Equal(t, "key", key.Name)
	assert.Equal(t, parquet.Repetitions.Required, key.Repetition)
	assert.Equal(t, int16(2), key.DefLevel)
	assert.Equal(t, int16(1), key.RepLevel)

	value := kv.Children[1]
	assert.Equal(t, parquet.Repetitions.Optional, value.Repetition)
	assert.Equal(t, int16(3), value.DefLevel)

	lines := c.Root.Children[4]
	line := lines.RepeatedChild().Children[0]
	require.Equal(t, KindRecord, line.Kind)
	assert.Equal(t, int16(3), line.DefLevel)
	sku := line.Children[0]
	assert.Equal(t, int16(3), sku.DefLevel)
	assert.Equal(t, int16(1), sku.RepLevel)
	assert.Equal(t, []int{5, 6}, line.LeafColumns())
}

func TestCompileMapKeyAlwaysRequired(t *testing.T) {
	m := model.NewWriteRecordModel("r").
		Field("m", model.Map(model.String(), model.Int32()), nopAccess)

	c, err := Compile(m)
	require.NoError(t, err)

	key := c.Root.Children[0].RepeatedChild().Children[0]
	assert.Equal(t, parquet.Repetitions.Required, key.Repetition)
}

func TestCompileRejectsSelfNesting(t *testing.T) {
	m := model.NewWriteRecordModel("node").
		Field("label", model.String(), nopAccess)
	m.Field("child", model.Record(m), nopAccess)

	_, err := Compile(m)
	require.Error(t, err)
	assert.True(t, loomerrors.IsType(err, loomerrors.ErrorTypeSchema))
}

func TestCompileRejectsEmptyRecord(t *testing.T) {
	_, err := Compile(model.NewWriteRecordModel("empty"))
	require.Error(t, err)
	assert.True(t, loomerrors.IsType(err, loomerrors.ErrorTypeSchema))
}

func TestFromParquetRoundTrip(t *testing.T) {
	c, err := Compile(testutil.OrderModel())
	require.NoError(t, err)

	back, err := FromParquet(c.Parquet)
	require.NoError(t, err)
	require.Equal(t, c.NumColumns(), back.NumColumns())

	var check func(a, b *Node)
	check = func(a, b *Node) {
		assert.Equal(t, a.Name, b.Name)
		assert.Equal(t, a.Kind, b.Kind)
		assert.Equal(t, a.Repetition, b.Repetition)
		assert.Equal(t, a.DefLevel, b.DefLevel)
		assert.Equal(t, a.RepLevel, b.RepLevel)
		assert.Equal(t, a.Column, b.Column)
		require.Equal(t, len(a.Children), len(b.Children))
		for i := range a.Children {
			check(a.Children[i], b.Children[i])
		}
	}
	check(c.Root, back.Root)
}

func nopAccess(v any) any { return nil }
