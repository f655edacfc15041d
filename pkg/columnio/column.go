// Package columnio is the reference column store of the engine: it
// consumes the write path's group/field event stream, stripes each
// committed record into per-leaf repetition/definition level vectors with
// densely packed values, and serves the read path through sequential
// per-column cursors.
//
// The level vectors are exactly the shape the parquet column chunk
// writers and readers exchange, so the same store backs both pure
// in-memory round trips and file persistence.
package columnio

import (
	"github.com/apache/arrow-go/v18/parquet"

	"github.com/loomdata/loom/pkg/schema"
)

// ColumnData holds one leaf column: full-length definition and repetition
// level vectors plus densely packed values for the entries whose
// definition level reaches the leaf.
type ColumnData struct {
	Leaf *schema.Node

	Defs []int16
	Reps []int16

	Bools      []bool
	Int32s     []int32
	Int64s     []int64
	Float32s   []float32
	Float64s   []float64
	ByteArrays []parquet.ByteArray
}

// NewColumnData creates an empty column for the given leaf node.
func NewColumnData(leaf *schema.Node) *ColumnData {
	return &ColumnData{Leaf: leaf}
}

// NumLevels returns the number of level entries in the column.
func (c *ColumnData) NumLevels() int { return len(c.Defs) }

// NumValues returns the number of present values in the column.
func (c *ColumnData) NumValues() int {
	switch c.Leaf.Physical {
	case parquet.Types.Boolean:
		return len(c.Bools)
	case parquet.Types.Int32:
		return len(c.Int32s)
	case parquet.Types.Int64:
		return len(c.Int64s)
	case parquet.Types.Float:
		return len(c.Float32s)
	case parquet.Types.Double:
		return len(c.Float64s)
	default:
		return len(c.ByteArrays)
	}
}

// ValueAt returns the i-th present value.
func (c *ColumnData) ValueAt(i int) any {
	switch c.Leaf.Physical {
	case parquet.Types.Boolean:
		return c.Bools[i]
	case parquet.Types.Int32:
		return c.Int32s[i]
	case parquet.Types.Int64:
		return c.Int64s[i]
	case parquet.Types.Float:
		return c.Float32s[i]
	case parquet.Types.Double:
		return c.Float64s[i]
	default:
		return c.ByteArrays[i]
	}
}

func (c *ColumnData) appendLevel(rep, def int16) {
	c.Reps = append(c.Reps, rep)
	c.Defs = append(c.Defs, def)
}

func (c *ColumnData) appendValue(v any) {
	switch c.Leaf.Physical {
	case parquet.Types.Boolean:
		c.Bools = append(c.Bools, v.(bool))
	case parquet.Types.Int32:
		c.Int32s = append(c.Int32s, v.(int32))
	case parquet.Types.Int64:
		c.Int64s = append(c.Int64s, v.(int64))
	case parquet.Types.Float:
		c.Float32s = append(c.Float32s, v.(float32))
	case parquet.Types.Double:
		c.Float64s = append(c.Float64s, v.(float64))
	default:
		c.ByteArrays = append(c.ByteArrays, v.(parquet.ByteArray))
	}
}

// Reset drops all levels and values, keeping capacity.
func (c *ColumnData) Reset() {
	c.Defs = c.Defs[:0]
	c.Reps = c.Reps[:0]
	c.Bools = c.Bools[:0]
	c.Int32s = c.Int32s[:0]
	c.Int64s = c.Int64s[:0]
	c.Float32s = c.Float32s[:0]
	c.Float64s = c.Float64s[:0]
	c.ByteArrays = c.ByteArrays[:0]
}

// Cursor reads one column sequentially: level entries in order, values
// surfacing only where the definition level reaches the leaf.
type Cursor struct {
	col  *ColumnData
	pos  int
	vpos int
}

// NewCursor creates a cursor at the start of the column.
func NewCursor(col *ColumnData) *Cursor {
	return &Cursor{col: col}
}

// More reports whether any level entries remain.
func (c *Cursor) More() bool { return c.pos < len(c.col.Defs) }

// PeekRep returns the repetition level of the next entry.
func (c *Cursor) PeekRep() int16 { return c.col.Reps[c.pos] }

// PeekDef returns the definition level of the next entry.
func (c *Cursor) PeekDef() int16 { return c.col.Defs[c.pos] }

// Next consumes one entry, returning its definition level and, when the
// entry carries a value, the value.
func (c *Cursor) Next() (int16, any) {
	def := c.col.Defs[c.pos]
	c.pos++
	if def == c.col.Leaf.DefLevel {
		v := c.col.ValueAt(c.vpos)
		c.vpos++
		return def, v
	}
	return def, nil
}
