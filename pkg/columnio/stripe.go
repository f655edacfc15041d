package columnio

import (
	"github.com/loomdata/loom/pkg/schema"
)

// Striping walks a committed record buffer in schema order and assigns
// each leaf column its level entries. rep is the repetition level that
// marks the first value each column receives within the current subtree;
// def is the definition level of the deepest present ancestor.

func stripeGroup(cols []*ColumnData, node *schema.Node, g *groupVal, rep, def int16) {
	for i, child := range node.Children {
		stripeField(cols, child, g.fields[i], rep, def)
	}
}

func stripeField(cols []*ColumnData, child *schema.Node, cells []cell, rep, def int16) {
	if len(cells) == 0 {
		// Field never written: null at the parent's level for every
		// leaf underneath.
		writeNulls(cols, child, rep, def)
		return
	}

	switch child.Kind {
	case schema.KindLeaf:
		col := cols[child.Column]
		col.appendLevel(rep, child.DefLevel)
		col.appendValue(cells[0])

	case schema.KindRecord:
		stripeGroup(cols, child, cells[0].(*groupVal), rep, child.DefLevel)

	case schema.KindList, schema.KindMap:
		outer := cells[0].(*groupVal)
		repeated := child.RepeatedChild()
		entries := outer.fields[0]
		if len(entries) == 0 {
			// Present but empty: definition reaches the outer group,
			// not the repeated one. This is what keeps the empty and
			// absent cases distinct on disk.
			writeNulls(cols, child, rep, child.DefLevel)
			return
		}
		for j, e := range entries {
			entryRep := rep
			if j > 0 {
				entryRep = repeated.RepLevel
			}
			stripeGroup(cols, repeated, e.(*groupVal), entryRep, repeated.DefLevel)
		}
	}
}

func writeNulls(cols []*ColumnData, node *schema.Node, rep, def int16) {
	if node.Kind == schema.KindLeaf {
		cols[node.Column].appendLevel(rep, def)
		return
	}
	for _, c := range node.Children {
		writeNulls(cols, c, rep, def)
	}
}
