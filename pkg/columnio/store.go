package columnio

import (
	"github.com/apache/arrow-go/v18/parquet"

	"github.com/loomdata/loom/pkg/schema"
)

// cell is either a leaf value or a *groupVal.
type cell = any

// groupVal buffers one group instance of the in-flight record: one cell
// slice per child field, nil while the field is unset. Repeated middle
// groups accumulate one cell per entry under their parent's single field
// slot.
type groupVal struct {
	fields [][]cell
}

func newGroupVal(node *schema.Node) *groupVal {
	return &groupVal{fields: make([][]cell, len(node.Children))}
}

// frame tracks one open group during event consumption.
type frame struct {
	node  *schema.Node
	val   *groupVal
	field int
}

// Store implements the column write store: a writer.RecordConsumer that
// buffers each record's events and stripes them into level vectors on
// EndMessage. A record is committed atomically or not at all: an
// abandoned StartMessage discards the previous buffer.
//
// A Store is not safe for concurrent use.
type Store struct {
	compiled *schema.Compiled
	columns  []*ColumnData
	rows     int

	cur   *groupVal
	stack []frame
}

// NewStore creates an empty store shaped by the compiled schema.
func NewStore(compiled *schema.Compiled) *Store {
	columns := make([]*ColumnData, len(compiled.Leaves))
	for i, leaf := range compiled.Leaves {
		columns[i] = NewColumnData(leaf)
	}
	return &Store{compiled: compiled, columns: columns}
}

// Compiled returns the schema the store is shaped by.
func (s *Store) Compiled() *schema.Compiled { return s.compiled }

// Rows returns the number of committed records.
func (s *Store) Rows() int { return s.rows }

// Columns returns the committed column vectors in column order.
func (s *Store) Columns() []*ColumnData { return s.columns }

// Cursors returns fresh read cursors over the committed columns.
func (s *Store) Cursors() []*Cursor {
	cursors := make([]*Cursor, len(s.columns))
	for i, col := range s.columns {
		cursors[i] = NewCursor(col)
	}
	return cursors
}

// Reset drops all committed records, keeping the schema and capacity.
func (s *Store) Reset() {
	for _, col := range s.columns {
		col.Reset()
	}
	s.rows = 0
	s.cur = nil
	s.stack = s.stack[:0]
}

// StartMessage implements writer.RecordConsumer.
func (s *Store) StartMessage() {
	s.cur = newGroupVal(s.compiled.Root)
	s.stack = append(s.stack[:0], frame{node: s.compiled.Root, val: s.cur, field: -1})
}

// EndMessage implements writer.RecordConsumer, committing the buffered
// record into the column vectors.
func (s *Store) EndMessage() {
	stripeGroup(s.columns, s.compiled.Root, s.cur, 0, 0)
	s.rows++
	s.cur = nil
	s.stack = s.stack[:0]
}

// StartField implements writer.RecordConsumer.
func (s *Store) StartField(name string, idx int) {
	s.stack[len(s.stack)-1].field = idx
}

// EndField implements writer.RecordConsumer.
func (s *Store) EndField(name string, idx int) {
	s.stack[len(s.stack)-1].field = -1
}

// StartGroup implements writer.RecordConsumer, opening one instance of
// the group-typed current field.
func (s *Store) StartGroup() {
	top := &s.stack[len(s.stack)-1]
	node := top.node.Children[top.field]
	val := newGroupVal(node)
	top.val.fields[top.field] = append(top.val.fields[top.field], val)
	s.stack = append(s.stack, frame{node: node, val: val, field: -1})
}

// EndGroup implements writer.RecordConsumer.
func (s *Store) EndGroup() {
	s.stack = s.stack[:len(s.stack)-1]
}

func (s *Store) addLeaf(v cell) {
	top := &s.stack[len(s.stack)-1]
	top.val.fields[top.field] = append(top.val.fields[top.field], v)
}

// AddBoolean implements writer.RecordConsumer.
func (s *Store) AddBoolean(v bool) { s.addLeaf(v) }

// AddInt32 implements writer.RecordConsumer.
func (s *Store) AddInt32(v int32) { s.addLeaf(v) }

// AddInt64 implements writer.RecordConsumer.
func (s *Store) AddInt64(v int64) { s.addLeaf(v) }

// AddFloat32 implements writer.RecordConsumer.
func (s *Store) AddFloat32(v float32) { s.addLeaf(v) }

// AddFloat64 implements writer.RecordConsumer.
func (s *Store) AddFloat64(v float64) { s.addLeaf(v) }

// AddByteArray implements writer.RecordConsumer. The bytes are copied;
// callers may reuse the slice.
func (s *Store) AddByteArray(v []byte) {
	b := make(parquet.ByteArray, len(v))
	copy(b, v)
	s.addLeaf(b)
}
