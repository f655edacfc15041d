package writer

import (
	"math"
	"time"

	"github.com/loomdata/loom/pkg/model"
)

// Host value coercion shared by the pre-validator and the emitter. Every
// coercion accepted here must succeed again during emission, so the two
// passes can never disagree.

// absent reports whether a host value is absent. Besides interface nil,
// a typed-nil container counts as absent: an accessor returning a
// struct's nil slice or map field directly writes null, not an empty
// container.
func absent(v any) bool {
	if v == nil {
		return true
	}
	switch c := v.(type) {
	case []any:
		return c == nil
	case map[string]any:
		return c == nil
	case map[any]any:
		return c == nil
	case []model.MapEntry:
		return c == nil
	}
	return false
}

func coerceBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

func coerceInt32(v any) (int32, bool) {
	switch n := v.(type) {
	case int32:
		return n, true
	case int16:
		return int32(n), true
	case int8:
		return int32(n), true
	case int:
		if n < math.MinInt32 || n > math.MaxInt32 {
			return 0, false
		}
		return int32(n), true
	}
	return 0, false
}

func coerceInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int:
		return int64(n), true
	}
	return 0, false
}

func coerceFloat32(v any) (float32, bool) {
	f, ok := v.(float32)
	return f, ok
}

func coerceFloat64(v any) (float64, bool) {
	switch f := v.(type) {
	case float64:
		return f, true
	case float32:
		return float64(f), true
	}
	return 0, false
}

func coerceString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func coerceBinary(v any) ([]byte, bool) {
	switch b := v.(type) {
	case []byte:
		return b, true
	case string:
		return []byte(b), true
	}
	return nil, false
}

func coerceTimestamp(v any) (time.Time, bool) {
	t, ok := v.(time.Time)
	return t, ok
}

// coercible reports whether v can serve as a value of the primitive kind.
func coercible(t model.PrimitiveType, v any) bool {
	switch t.Kind() {
	case model.KindBoolean:
		_, ok := coerceBool(v)
		return ok
	case model.KindInt32:
		_, ok := coerceInt32(v)
		return ok
	case model.KindInt64:
		_, ok := coerceInt64(v)
		return ok
	case model.KindFloat32:
		_, ok := coerceFloat32(v)
		return ok
	case model.KindFloat64:
		_, ok := coerceFloat64(v)
		return ok
	case model.KindString:
		_, ok := coerceString(v)
		return ok
	case model.KindBinary:
		_, ok := coerceBinary(v)
		return ok
	case model.KindTimestamp:
		_, ok := coerceTimestamp(v)
		return ok
	}
	return false
}

// listElems normalizes a host list value.
func listElems(v any) ([]any, bool) {
	elems, ok := v.([]any)
	return elems, ok
}

// mapEntries normalizes a host map value into entry order. Plain Go maps
// iterate in unspecified order, which is preserved as stored order; the
// []model.MapEntry form is for callers that need a deterministic or
// non-comparable-key layout.
func mapEntries(v any) ([]model.MapEntry, bool) {
	switch m := v.(type) {
	case []model.MapEntry:
		return m, true
	case map[string]any:
		entries := make([]model.MapEntry, 0, len(m))
		for k, val := range m {
			entries = append(entries, model.MapEntry{Key: k, Value: val})
		}
		return entries, true
	case map[any]any:
		entries := make([]model.MapEntry, 0, len(m))
		for k, val := range m {
			entries = append(entries, model.MapEntry{Key: k, Value: val})
		}
		return entries, true
	}
	return nil, false
}
