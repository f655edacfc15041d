package reader

import (
	"github.com/loomdata/loom/pkg/loomerrors"
	"github.com/loomdata/loom/pkg/model"
	"github.com/loomdata/loom/pkg/schema"
)

// Binding resolves a target model against a stored schema once; the
// resulting bound tree is immutable and shared by every record an
// assembler reads.
type Binding struct {
	stored *schema.Compiled
	root   *boundGroup
}

// Stored returns the stored schema the binding was resolved against.
func (b *Binding) Stored() *schema.Compiled { return b.stored }

// Columns returns the projected column indexes, in stored column order.
func (b *Binding) Columns() []int {
	cols := append([]int(nil), b.root.leaves...)
	return cols
}

// boundGroup assembles one record level. A nil model means generic
// assembly into map[string]any.
type boundGroup struct {
	model  *RecordModel
	fields []boundGroupField
	leaves []int
}

type boundGroupField struct {
	name   string
	assign Assign // nil in generic mode
	// value is nil when the read model declares a nullable field the
	// stored schema does not have; such fields assemble as nil.
	value *boundValue
}

// boundValue binds one stored node to its target shape.
type boundValue struct {
	stored *schema.Node
	kind   schema.NodeKind
	// leaves lists the projected columns under the stored subtree, used
	// for presence peeks and null consumption.
	leaves []int

	convert convertFunc // leaf
	group   *boundGroup // record
	elem    *boundValue // list
	key     *boundValue // map
	value   *boundValue // map

	// asEntries selects the ordered []model.MapEntry host shape for
	// maps whose assembled keys are not comparable.
	asEntries bool
}

// Bind resolves a read model against a stored schema by field name.
// Shape or type incompatibilities fail here once, never per record.
func Bind(stored *schema.Compiled, m *RecordModel) (*Binding, error) {
	root, err := bindModelGroup(stored.Root, m)
	if err != nil {
		return nil, err
	}
	return &Binding{stored: stored, root: root}, nil
}

// BindGeneric derives the binding for model-free reads: records assemble
// into map[string]any, maps into map[any]any (or entry slices for
// non-comparable keys), lists into []any.
func BindGeneric(stored *schema.Compiled) (*Binding, error) {
	root, err := bindGenericGroup(stored.Root)
	if err != nil {
		return nil, err
	}
	return &Binding{stored: stored, root: root}, nil
}

func bindModelGroup(storedNode *schema.Node, m *RecordModel) (*boundGroup, error) {
	byName := make(map[string]*schema.Node, len(storedNode.Children))
	for _, child := range storedNode.Children {
		byName[child.Name] = child
	}

	g := &boundGroup{model: m}
	for _, f := range m.Fields() {
		sn, ok := byName[f.Name]
		if !ok {
			if !f.Type.Nullable() {
				return nil, loomerrors.Newf(loomerrors.ErrorTypeSchema,
					"required field %q is not present in the stored schema", f.Name)
			}
			g.fields = append(g.fields, boundGroupField{name: f.Name, assign: f.Assign})
			continue
		}
		bv, err := bindValue(sn, f.Type)
		if err != nil {
			return nil, err
		}
		g.fields = append(g.fields, boundGroupField{name: f.Name, assign: f.Assign, value: bv})
		g.leaves = append(g.leaves, bv.leaves...)
	}
	if len(g.leaves) == 0 {
		return nil, loomerrors.Newf(loomerrors.ErrorTypeSchema,
			"read model %q matches no stored field", m.SchemaName())
	}
	return g, nil
}

func bindValue(sn *schema.Node, target model.FieldType) (*boundValue, error) {
	if !sn.Required() && !target.Nullable() {
		return nil, loomerrors.Newf(loomerrors.ErrorTypeSchema,
			"optional stored field %q cannot be read into a required target", sn.Name)
	}

	switch tt := target.(type) {
	case model.PrimitiveType, model.EnumType:
		if sn.Kind != schema.KindLeaf {
			return nil, shapeMismatch(sn, "a leaf value")
		}
		convert, err := buildConvert(sn, target)
		if err != nil {
			return nil, err
		}
		return &boundValue{
			stored:  sn,
			kind:    schema.KindLeaf,
			leaves:  []int{sn.Column},
			convert: convert,
		}, nil

	case model.ListType:
		if sn.Kind != schema.KindList {
			return nil, shapeMismatch(sn, "a list")
		}
		elem, err := bindValue(sn.RepeatedChild().Children[0], tt.Element())
		if err != nil {
			return nil, err
		}
		return &boundValue{
			stored: sn,
			kind:   schema.KindList,
			leaves: elem.leaves,
			elem:   elem,
		}, nil

	case model.MapType:
		if sn.Kind != schema.KindMap {
			return nil, shapeMismatch(sn, "a map")
		}
		repeated := sn.RepeatedChild()
		key, err := bindValue(repeated.Children[0], tt.Key())
		if err != nil {
			return nil, err
		}
		value, err := bindValue(repeated.Children[1], tt.Value())
		if err != nil {
			return nil, err
		}
		bv := &boundValue{
			stored:    sn,
			kind:      schema.KindMap,
			key:       key,
			value:     value,
			asEntries: !comparableTarget(tt.Key()),
		}
		bv.leaves = append(append([]int(nil), key.leaves...), value.leaves...)
		return bv, nil

	case model.RecordType:
		if sn.Kind != schema.KindRecord {
			return nil, shapeMismatch(sn, "a record")
		}
		rm, ok := tt.Schema().(*RecordModel)
		if !ok {
			return nil, loomerrors.Newf(loomerrors.ErrorTypeSchema,
				"record field %q is not backed by a read model", sn.Name)
		}
		group, err := bindModelGroup(sn, rm)
		if err != nil {
			return nil, err
		}
		return &boundValue{
			stored: sn,
			kind:   schema.KindRecord,
			leaves: group.leaves,
			group:  group,
		}, nil
	}
	return nil, shapeMismatch(sn, "a supported target")
}

func bindGenericGroup(storedNode *schema.Node) (*boundGroup, error) {
	g := &boundGroup{}
	for _, child := range storedNode.Children {
		bv, err := bindGenericValue(child)
		if err != nil {
			return nil, err
		}
		g.fields = append(g.fields, boundGroupField{name: child.Name, value: bv})
		g.leaves = append(g.leaves, bv.leaves...)
	}
	return g, nil
}

func bindGenericValue(sn *schema.Node) (*boundValue, error) {
	switch sn.Kind {
	case schema.KindLeaf:
		convert, err := buildConvert(sn, genericTarget(sn))
		if err != nil {
			return nil, err
		}
		return &boundValue{
			stored:  sn,
			kind:    schema.KindLeaf,
			leaves:  []int{sn.Column},
			convert: convert,
		}, nil

	case schema.KindList:
		elem, err := bindGenericValue(sn.RepeatedChild().Children[0])
		if err != nil {
			return nil, err
		}
		return &boundValue{stored: sn, kind: schema.KindList, leaves: elem.leaves, elem: elem}, nil

	case schema.KindMap:
		repeated := sn.RepeatedChild()
		key, err := bindGenericValue(repeated.Children[0])
		if err != nil {
			return nil, err
		}
		value, err := bindGenericValue(repeated.Children[1])
		if err != nil {
			return nil, err
		}
		bv := &boundValue{
			stored:    sn,
			kind:      schema.KindMap,
			key:       key,
			value:     value,
			asEntries: repeated.Children[0].Kind != schema.KindLeaf,
		}
		bv.leaves = append(append([]int(nil), key.leaves...), value.leaves...)
		return bv, nil

	default:
		group, err := bindGenericGroup(sn)
		if err != nil {
			return nil, err
		}
		return &boundValue{stored: sn, kind: schema.KindRecord, leaves: group.leaves, group: group}, nil
	}
}

// comparableTarget reports whether assembled keys of the target type can
// serve as Go map keys. Record, list and map keys assemble into
// reference or slice values, so maps keyed by them fall back to the
// ordered entry representation.
func comparableTarget(t model.FieldType) bool {
	switch tt := t.(type) {
	case model.PrimitiveType:
		return tt.Kind() != model.KindBinary
	case model.EnumType:
		return true
	default:
		return false
	}
}

func shapeMismatch(sn *schema.Node, target string) error {
	return loomerrors.Newf(loomerrors.ErrorTypeSchema,
		"stored field %q cannot be read as %s", sn.Name, target)
}
