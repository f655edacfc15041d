package schema

import (
	"github.com/apache/arrow-go/v18/parquet"
	pqschema "github.com/apache/arrow-go/v18/parquet/schema"

	"github.com/loomdata/loom/pkg/loomerrors"
	"github.com/loomdata/loom/pkg/model"
)

const (
	listGroupName     = "list"
	elementFieldName  = "element"
	keyValueGroupName = "key_value"
	keyFieldName      = "key"
	valueFieldName    = "value"
)

// Compile lowers a record model into the canonical nested-group physical
// schema. Ill-formed compositions, including self-referential record
// definitions, are rejected here once, never at per-record time.
func Compile(rs model.RecordSchema) (*Compiled, error) {
	c := &compiler{visited: make(map[model.RecordSchema]bool)}

	nodes, fields, err := c.compileRecordFields(rs, 0, 0)
	if err != nil {
		return nil, err
	}

	root := &Node{
		Name:       rs.SchemaName(),
		Kind:       KindRecord,
		Repetition: parquet.Repetitions.Required,
		Column:     -1,
		Children:   nodes,
	}
	pqRoot, err := pqschema.NewGroupNode(rs.SchemaName(), parquet.Repetitions.Required, fields, -1)
	if err != nil {
		return nil, loomerrors.Wrap(err, loomerrors.ErrorTypeSchema, "building root group node")
	}

	return &Compiled{
		Root:        root,
		Leaves:      c.leaves,
		Parquet:     pqschema.NewSchema(pqRoot),
		ParquetRoot: pqRoot,
	}, nil
}

type compiler struct {
	visited map[model.RecordSchema]bool
	leaves  []*Node
}

func (c *compiler) compileRecordFields(rs model.RecordSchema, def, rep int16) ([]*Node, pqschema.FieldList, error) {
	if c.visited[rs] {
		return nil, nil, loomerrors.Newf(loomerrors.ErrorTypeSchema,
			"record model %q is nested inside itself", rs.SchemaName())
	}
	c.visited[rs] = true
	defer delete(c.visited, rs)

	if rs.NumFields() == 0 {
		return nil, nil, loomerrors.Newf(loomerrors.ErrorTypeSchema,
			"record model %q has no fields", rs.SchemaName())
	}

	nodes := make([]*Node, 0, rs.NumFields())
	fields := make(pqschema.FieldList, 0, rs.NumFields())
	for i := 0; i < rs.NumFields(); i++ {
		node, pqNode, err := c.compileField(rs.FieldName(i), rs.FieldType(i), false, def, rep)
		if err != nil {
			return nil, nil, err
		}
		nodes = append(nodes, node)
		fields = append(fields, pqNode)
	}
	return nodes, fields, nil
}

// compileField lowers one field. forceRequired overrides the declared
// nullability; it is set for map key slots, whose nullability flag is
// advisory only.
func (c *compiler) compileField(name string, t model.FieldType, forceRequired bool, def, rep int16) (*Node, pqschema.Node, error) {
	repetition := parquet.Repetitions.Optional
	ownDef := def + 1
	if forceRequired || !t.Nullable() {
		repetition = parquet.Repetitions.Required
		ownDef = def
	}

	switch ft := t.(type) {
	case model.PrimitiveType:
		return c.compileLeaf(name, ft, repetition, ownDef, rep)
	case model.EnumType:
		return c.compileEnumLeaf(name, ft, repetition, ownDef, rep)
	case model.ListType:
		return c.compileList(name, ft, repetition, ownDef, rep)
	case model.MapType:
		return c.compileMap(name, ft, repetition, ownDef, rep)
	case model.RecordType:
		children, fields, err := c.compileRecordFields(ft.Schema(), ownDef, rep)
		if err != nil {
			return nil, nil, err
		}
		node := &Node{
			Name:       name,
			Kind:       KindRecord,
			Repetition: repetition,
			DefLevel:   ownDef,
			RepLevel:   rep,
			Column:     -1,
			Children:   children,
		}
		pqNode, err := pqschema.NewGroupNode(name, repetition, fields, -1)
		if err != nil {
			return nil, nil, loomerrors.Wrap(err, loomerrors.ErrorTypeSchema, "building group node")
		}
		return node, pqNode, nil
	}
	return nil, nil, loomerrors.Newf(loomerrors.ErrorTypeSchema,
		"field %q has unsupported type %T", name, t)
}

func (c *compiler) compileLeaf(name string, t model.PrimitiveType, repetition parquet.Repetition, def, rep int16) (*Node, pqschema.Node, error) {
	var physical parquet.Type
	logical := pqschema.LogicalType(pqschema.NoLogicalType{})

	switch t.Kind() {
	case model.KindBoolean:
		physical = parquet.Types.Boolean
	case model.KindInt32:
		physical = parquet.Types.Int32
	case model.KindInt64:
		physical = parquet.Types.Int64
	case model.KindFloat32:
		physical = parquet.Types.Float
	case model.KindFloat64:
		physical = parquet.Types.Double
	case model.KindString:
		physical = parquet.Types.ByteArray
		switch t.Annotation() {
		case model.AnnotationEnum:
			logical = pqschema.EnumLogicalType{}
		case model.AnnotationJSON:
			logical = pqschema.JSONLogicalType{}
		default:
			logical = pqschema.StringLogicalType{}
		}
	case model.KindBinary:
		physical = parquet.Types.ByteArray
	case model.KindTimestamp:
		physical = parquet.Types.Int64
		logical = pqschema.NewTimestampLogicalType(true, pqschema.TimeUnitMillis)
	default:
		return nil, nil, loomerrors.Newf(loomerrors.ErrorTypeSchema,
			"column %q has unsupported primitive kind %s", name, t.Kind())
	}

	return c.addLeaf(name, t, physical, logical, repetition, def, rep)
}

func (c *compiler) compileEnumLeaf(name string, t model.EnumType, repetition parquet.Repetition, def, rep int16) (*Node, pqschema.Node, error) {
	return c.addLeaf(name, t, parquet.Types.ByteArray, pqschema.EnumLogicalType{}, repetition, def, rep)
}

func (c *compiler) addLeaf(name string, t model.FieldType, physical parquet.Type, logical pqschema.LogicalType, repetition parquet.Repetition, def, rep int16) (*Node, pqschema.Node, error) {
	node := &Node{
		Name:       name,
		Kind:       KindLeaf,
		Repetition: repetition,
		DefLevel:   def,
		RepLevel:   rep,
		Column:     len(c.leaves),
		Physical:   physical,
		Type:       t,
	}
	c.leaves = append(c.leaves, node)

	pqNode, err := pqschema.NewPrimitiveNodeLogical(name, repetition, logical, physical, -1, -1)
	if err != nil {
		return nil, nil, loomerrors.Wrap(err, loomerrors.ErrorTypeSchema, "building column "+name)
	}
	return node, pqNode, nil
}

func (c *compiler) compileList(name string, t model.ListType, repetition parquet.Repetition, def, rep int16) (*Node, pqschema.Node, error) {
	repeatedDef := def + 1
	repeatedRep := rep + 1

	elemNode, elemPQ, err := c.compileField(elementFieldName, t.Element(), false, repeatedDef, repeatedRep)
	if err != nil {
		return nil, nil, err
	}

	repeated := &Node{
		Name:       listGroupName,
		Kind:       KindRepeated,
		Repetition: parquet.Repetitions.Repeated,
		DefLevel:   repeatedDef,
		RepLevel:   repeatedRep,
		Column:     -1,
		Children:   []*Node{elemNode},
	}
	node := &Node{
		Name:       name,
		Kind:       KindList,
		Repetition: repetition,
		DefLevel:   def,
		RepLevel:   rep,
		Column:     -1,
		Children:   []*Node{repeated},
	}

	repeatedPQ, err := pqschema.NewGroupNode(listGroupName, parquet.Repetitions.Repeated, pqschema.FieldList{elemPQ}, -1)
	if err != nil {
		return nil, nil, loomerrors.Wrap(err, loomerrors.ErrorTypeSchema, "building list group")
	}
	outerPQ, err := pqschema.NewGroupNodeLogical(name, repetition, pqschema.FieldList{repeatedPQ}, pqschema.ListLogicalType{}, -1)
	if err != nil {
		return nil, nil, loomerrors.Wrap(err, loomerrors.ErrorTypeSchema, "building list field "+name)
	}
	return node, outerPQ, nil
}

func (c *compiler) compileMap(name string, t model.MapType, repetition parquet.Repetition, def, rep int16) (*Node, pqschema.Node, error) {
	repeatedDef := def + 1
	repeatedRep := rep + 1

	// Keys compile required no matter what the key descriptor declares.
	keyNode, keyPQ, err := c.compileField(keyFieldName, t.Key(), true, repeatedDef, repeatedRep)
	if err != nil {
		return nil, nil, err
	}
	valueNode, valuePQ, err := c.compileField(valueFieldName, t.Value(), false, repeatedDef, repeatedRep)
	if err != nil {
		return nil, nil, err
	}

	repeated := &Node{
		Name:       keyValueGroupName,
		Kind:       KindRepeated,
		Repetition: parquet.Repetitions.Repeated,
		DefLevel:   repeatedDef,
		RepLevel:   repeatedRep,
		Column:     -1,
		Children:   []*Node{keyNode, valueNode},
	}
	node := &Node{
		Name:       name,
		Kind:       KindMap,
		Repetition: repetition,
		DefLevel:   def,
		RepLevel:   rep,
		Column:     -1,
		Children:   []*Node{repeated},
	}

	repeatedPQ, err := pqschema.NewGroupNode(keyValueGroupName, parquet.Repetitions.Repeated, pqschema.FieldList{keyPQ, valuePQ}, -1)
	if err != nil {
		return nil, nil, loomerrors.Wrap(err, loomerrors.ErrorTypeSchema, "building key_value group")
	}
	outerPQ, err := pqschema.NewGroupNodeLogical(name, repetition, pqschema.FieldList{repeatedPQ}, pqschema.MapLogicalType{}, -1)
	if err != nil {
		return nil, nil, loomerrors.Wrap(err, loomerrors.ErrorTypeSchema, "building map field "+name)
	}
	return node, outerPQ, nil
}
