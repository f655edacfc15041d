package schema

import (
	"github.com/apache/arrow-go/v18/parquet"
	pqschema "github.com/apache/arrow-go/v18/parquet/schema"

	"github.com/loomdata/loom/pkg/loomerrors"
	"github.com/loomdata/loom/pkg/model"
)

// FromParquet derives a compiled tree from a stored parquet schema,
// recognizing the three-level list and map shapes produced by Compile.
// It is the entry point for reading files written by independent writers
// of the same physical format.
func FromParquet(sc *pqschema.Schema) (*Compiled, error) {
	d := &decompiler{}
	root := sc.Root()

	children := make([]*Node, 0, root.NumFields())
	for i := 0; i < root.NumFields(); i++ {
		node, err := d.fromNode(root.Field(i), 0, 0)
		if err != nil {
			return nil, err
		}
		children = append(children, node)
	}

	return &Compiled{
		Root: &Node{
			Name:       root.Name(),
			Kind:       KindRecord,
			Repetition: parquet.Repetitions.Required,
			Column:     -1,
			Children:   children,
		},
		Leaves:      d.leaves,
		Parquet:     sc,
		ParquetRoot: root,
	}, nil
}

type decompiler struct {
	leaves []*Node
}

func (d *decompiler) fromNode(n pqschema.Node, def, rep int16) (*Node, error) {
	repetition := n.RepetitionType()
	ownDef := def
	ownRep := rep
	switch repetition {
	case parquet.Repetitions.Optional:
		ownDef++
	case parquet.Repetitions.Repeated:
		ownDef++
		ownRep++
	}

	if n.Type() == pqschema.Primitive {
		return d.fromPrimitive(n.(*pqschema.PrimitiveNode), repetition, ownDef, ownRep)
	}

	group := n.(*pqschema.GroupNode)
	if repeated, shape := containerShape(group); repeated != nil {
		return d.fromContainer(group, repeated, shape, repetition, ownDef, ownRep)
	}
	if repetition == parquet.Repetitions.Repeated {
		return nil, loomerrors.Newf(loomerrors.ErrorTypeSchema,
			"group %q: bare repeated groups outside a list or map wrapper are not supported", n.Name())
	}

	children := make([]*Node, 0, group.NumFields())
	for i := 0; i < group.NumFields(); i++ {
		child, err := d.fromNode(group.Field(i), ownDef, ownRep)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return &Node{
		Name:       group.Name(),
		Kind:       KindRecord,
		Repetition: repetition,
		DefLevel:   ownDef,
		RepLevel:   ownRep,
		Column:     -1,
		Children:   children,
	}, nil
}

// containerShape recognizes the three-level list and map wrappers: a group
// holding exactly one repeated group, with one child for lists and two for
// maps. The converted type settles ambiguity when present.
func containerShape(group *pqschema.GroupNode) (*pqschema.GroupNode, NodeKind) {
	if group.NumFields() != 1 {
		return nil, KindRecord
	}
	inner := group.Field(0)
	if inner.Type() != pqschema.Group || inner.RepetitionType() != parquet.Repetitions.Repeated {
		return nil, KindRecord
	}
	repeated := inner.(*pqschema.GroupNode)

	switch group.ConvertedType() {
	case pqschema.ConvertedTypes.Map, pqschema.ConvertedTypes.MapKeyValue:
		return repeated, KindMap
	case pqschema.ConvertedTypes.List:
		return repeated, KindList
	}
	switch repeated.NumFields() {
	case 1:
		if repeated.Name() == listGroupName || repeated.Field(0).Name() == elementFieldName {
			return repeated, KindList
		}
	case 2:
		if repeated.Name() == keyValueGroupName {
			return repeated, KindMap
		}
	}
	return nil, KindRecord
}

func (d *decompiler) fromContainer(group, repeated *pqschema.GroupNode, kind NodeKind, repetition parquet.Repetition, def, rep int16) (*Node, error) {
	repeatedDef := def + 1
	repeatedRep := rep + 1

	if kind == KindMap && repeated.NumFields() != 2 {
		return nil, loomerrors.Newf(loomerrors.ErrorTypeSchema,
			"map group %q: key_value group must have exactly key and value children", group.Name())
	}
	if kind == KindMap && repeated.Field(0).RepetitionType() != parquet.Repetitions.Required {
		return nil, loomerrors.Newf(loomerrors.ErrorTypeSchema,
			"map group %q: key column must be required", group.Name())
	}

	children := make([]*Node, 0, repeated.NumFields())
	for i := 0; i < repeated.NumFields(); i++ {
		child, err := d.fromNode(repeated.Field(i), repeatedDef, repeatedRep)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}

	return &Node{
		Name:       group.Name(),
		Kind:       kind,
		Repetition: repetition,
		DefLevel:   def,
		RepLevel:   rep,
		Column:     -1,
		Children: []*Node{{
			Name:       repeated.Name(),
			Kind:       KindRepeated,
			Repetition: parquet.Repetitions.Repeated,
			DefLevel:   repeatedDef,
			RepLevel:   repeatedRep,
			Column:     -1,
			Children:   children,
		}},
	}, nil
}

func (d *decompiler) fromPrimitive(n *pqschema.PrimitiveNode, repetition parquet.Repetition, def, rep int16) (*Node, error) {
	if repetition == parquet.Repetitions.Repeated {
		return nil, loomerrors.Newf(loomerrors.ErrorTypeSchema,
			"column %q: bare repeated columns are not supported", n.Name())
	}

	var t model.PrimitiveType
	switch n.PhysicalType() {
	case parquet.Types.Boolean:
		t = model.Boolean()
	case parquet.Types.Int32:
		t = model.Int32()
	case parquet.Types.Int64:
		if n.ConvertedType() == pqschema.ConvertedTypes.TimestampMillis {
			t = model.Timestamp()
		} else {
			t = model.Int64()
		}
	case parquet.Types.Float:
		t = model.Float32()
	case parquet.Types.Double:
		t = model.Float64()
	case parquet.Types.ByteArray:
		switch n.ConvertedType() {
		case pqschema.ConvertedTypes.UTF8:
			t = model.String()
		case pqschema.ConvertedTypes.Enum:
			t = model.String().AsEnum()
		case pqschema.ConvertedTypes.JSON:
			t = model.String().AsJSON()
		case pqschema.ConvertedTypes.None:
			t = model.Binary()
		default:
			return nil, loomerrors.Newf(loomerrors.ErrorTypeSchema,
				"column %q: unsupported binary annotation %s", n.Name(), n.ConvertedType())
		}
	default:
		return nil, loomerrors.Newf(loomerrors.ErrorTypeSchema,
			"column %q: unsupported physical type %s", n.Name(), n.PhysicalType())
	}
	if repetition == parquet.Repetitions.Required {
		t = t.NotNull()
	}

	node := &Node{
		Name:       n.Name(),
		Kind:       KindLeaf,
		Repetition: repetition,
		DefLevel:   def,
		RepLevel:   rep,
		Column:     len(d.leaves),
		Physical:   n.PhysicalType(),
		Type:       t,
	}
	d.leaves = append(d.leaves, node)
	return node, nil
}
