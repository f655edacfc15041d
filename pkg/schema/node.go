// Package schema lowers record models into the canonical Parquet
// nested-group physical schema and derives models back from stored
// schemas.
//
// Compilation produces two synchronized artifacts: an internal node tree
// annotated with absolute definition/repetition levels and leaf column
// indexes, consumed by the striping and assembly layers, and the
// equivalent arrow-go parquet schema handed to the storage engine.
//
// Lists and maps use the standard three-level encoding: an outer
// optional-or-required group wrapping one repeated group ("list" or
// "key_value"), itself wrapping the element or key/value children. Map
// keys compile required regardless of the declared key nullability.
package schema

import (
	"github.com/apache/arrow-go/v18/parquet"
	pqschema "github.com/apache/arrow-go/v18/parquet/schema"

	"github.com/loomdata/loom/pkg/model"
)

// NodeKind discriminates compiled node shapes.
type NodeKind int

const (
	// KindLeaf is a primitive column.
	KindLeaf NodeKind = iota
	// KindRecord is a plain group of named fields.
	KindRecord
	// KindList is the outer list group wrapping one repeated "list" node.
	KindList
	// KindMap is the outer map group wrapping one repeated "key_value" node.
	KindMap
	// KindRepeated is the repeated middle group of a list or map.
	KindRepeated
)

// Node is one node of the compiled schema tree. Levels are absolute:
// DefLevel is the definition level of a value present at this node, and
// RepLevel is the repetition level identifying entries of the nearest
// repeated ancestor (or this node itself when repeated).
type Node struct {
	Name       string
	Kind       NodeKind
	Repetition parquet.Repetition
	DefLevel   int16
	RepLevel   int16

	// Column is the leaf column index in depth-first order, -1 for
	// non-leaf nodes.
	Column int

	// Physical is the parquet physical type of a leaf column.
	Physical parquet.Type

	// Type is the leaf descriptor (PrimitiveType or EnumType) for leaf
	// nodes, nil otherwise.
	Type model.FieldType

	Children []*Node
}

// Required reports whether the node's repetition is required.
func (n *Node) Required() bool {
	return n.Repetition == parquet.Repetitions.Required
}

// Repeated returns the repeated middle group of a list or map node.
func (n *Node) RepeatedChild() *Node {
	return n.Children[0]
}

// LeafColumns returns the column indexes of all leaves under this node,
// in depth-first order.
func (n *Node) LeafColumns() []int {
	var cols []int
	n.collectLeaves(&cols)
	return cols
}

func (n *Node) collectLeaves(cols *[]int) {
	if n.Kind == KindLeaf {
		*cols = append(*cols, n.Column)
		return
	}
	for _, c := range n.Children {
		c.collectLeaves(cols)
	}
}

// Compiled is the result of lowering a record model: the internal node
// tree, its leaves in column order, and the equivalent parquet schema.
type Compiled struct {
	Root        *Node
	Leaves      []*Node
	Parquet     *pqschema.Schema
	ParquetRoot *pqschema.GroupNode
}

// NumColumns returns the number of leaf columns.
func (c *Compiled) NumColumns() int { return len(c.Leaves) }
