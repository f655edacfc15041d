package reader

import (
	"github.com/loomdata/loom/pkg/columnio"
	"github.com/loomdata/loom/pkg/loomerrors"
	"github.com/loomdata/loom/pkg/model"
	"github.com/loomdata/loom/pkg/schema"
)

// Assembler rebuilds host records from per-column level/value streams.
// Every projected cursor advances in lockstep, one entry per record per
// column, so records must be read strictly in order.
type Assembler struct {
	binding *Binding
	cursors []*columnio.Cursor
}

// NewAssembler creates an assembler over the given cursors, indexed by
// stored column. Columns outside the binding's projection may be nil.
func NewAssembler(binding *Binding, cursors []*columnio.Cursor) (*Assembler, error) {
	for _, col := range binding.Columns() {
		if col >= len(cursors) || cursors[col] == nil {
			return nil, loomerrors.Newf(loomerrors.ErrorTypeInternal,
				"no cursor for projected column %d", col)
		}
	}
	return &Assembler{binding: binding, cursors: cursors}, nil
}

// More reports whether any records remain.
func (a *Assembler) More() bool {
	return a.cursors[a.binding.root.leaves[0]].More()
}

// ReadRecord assembles the next record. With a bound read model the
// result is a factory instance; generic bindings yield map[string]any.
func (a *Assembler) ReadRecord() (any, error) {
	return a.readGroup(a.binding.root)
}

func (a *Assembler) readGroup(g *boundGroup) (any, error) {
	if g.model == nil {
		rec := make(map[string]any, len(g.fields))
		for i := range g.fields {
			v, err := a.readValue(g.fields[i].value)
			if err != nil {
				return nil, err
			}
			rec[g.fields[i].name] = v
		}
		return rec, nil
	}

	rec := g.model.factory()
	for i := range g.fields {
		f := &g.fields[i]
		if f.value == nil {
			// Declared by the read model, absent from the file.
			f.assign(rec, nil)
			continue
		}
		v, err := a.readValue(f.value)
		if err != nil {
			return nil, err
		}
		f.assign(rec, v)
	}
	return rec, nil
}

// readValue consumes exactly one slot of the bound subtree: one level
// entry per projected leaf, more when repeated descendants carry
// multiple entries.
func (a *Assembler) readValue(bv *boundValue) (any, error) {
	first := a.cursors[bv.leaves[0]]

	switch bv.kind {
	case schema.KindLeaf:
		def, raw := first.Next()
		if def < bv.stored.DefLevel {
			return nil, nil
		}
		return bv.convert(raw)

	case schema.KindRecord:
		if first.PeekDef() < bv.stored.DefLevel {
			a.consumeNulls(bv)
			return nil, nil
		}
		return a.readGroup(bv.group)

	case schema.KindList:
		repeated := bv.stored.RepeatedChild()
		if first.PeekDef() < bv.stored.DefLevel {
			a.consumeNulls(bv)
			return nil, nil
		}
		if first.PeekDef() < repeated.DefLevel {
			// Present outer group with no entries.
			a.consumeNulls(bv)
			return []any{}, nil
		}
		elems := []any{}
		for {
			v, err := a.readValue(bv.elem)
			if err != nil {
				return nil, err
			}
			elems = append(elems, v)
			if !first.More() || first.PeekRep() != repeated.RepLevel {
				break
			}
		}
		return elems, nil

	default: // schema.KindMap
		repeated := bv.stored.RepeatedChild()
		if first.PeekDef() < bv.stored.DefLevel {
			a.consumeNulls(bv)
			return nil, nil
		}
		if first.PeekDef() < repeated.DefLevel {
			a.consumeNulls(bv)
			if bv.asEntries {
				return []model.MapEntry{}, nil
			}
			return map[any]any{}, nil
		}
		if bv.asEntries {
			entries := []model.MapEntry{}
			for {
				k, v, err := a.readEntry(bv)
				if err != nil {
					return nil, err
				}
				entries = append(entries, model.MapEntry{Key: k, Value: v})
				if !first.More() || first.PeekRep() != repeated.RepLevel {
					break
				}
			}
			return entries, nil
		}
		m := map[any]any{}
		for {
			k, v, err := a.readEntry(bv)
			if err != nil {
				return nil, err
			}
			m[k] = v
			if !first.More() || first.PeekRep() != repeated.RepLevel {
				break
			}
		}
		return m, nil
	}
}

// readEntry assembles one key_value slot. The key column is required, so
// a present entry always yields a key; the value may be nil.
func (a *Assembler) readEntry(bv *boundValue) (any, any, error) {
	k, err := a.readValue(bv.key)
	if err != nil {
		return nil, nil, err
	}
	v, err := a.readValue(bv.value)
	if err != nil {
		return nil, nil, err
	}
	return k, v, nil
}

// consumeNulls pops the single level entry an absent or empty subtree
// contributes to every projected leaf beneath it.
func (a *Assembler) consumeNulls(bv *boundValue) {
	for _, col := range bv.leaves {
		a.cursors[col].Next()
	}
}
