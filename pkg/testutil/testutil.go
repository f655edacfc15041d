// Package testutil provides shared fixtures for loom tests: a test
// logger and a nested order model exercised by the write, store and
// file layers.
package testutil

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/loomdata/loom/pkg/model"
)

// TestLogger creates a logger that writes to the test output and is
// cleaned up when the test completes.
func TestLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

// Order is the host record shared by tests. Nil-able fields hold nil
// for absent values.
type Order struct {
	ID       int64
	Customer any            // string or nil
	Tags     []any          // list<string>, nil for absent
	Attrs    map[string]any // map<string,string>, nil for absent
	Lines    []any          // list of *OrderLine, nil for absent
}

// OrderLine is the nested line record of an Order.
type OrderLine struct {
	SKU string
	Qty int32
}

// LineModel builds the write model of an order line.
func LineModel() *model.WriteRecordModel {
	return model.NewWriteRecordModel("line").
		Field("sku", model.String().NotNull(), func(v any) any { return v.(*OrderLine).SKU }).
		Field("qty", model.Int32().NotNull(), func(v any) any { return v.(*OrderLine).Qty })
}

// OrderModel builds the write model of an Order, covering required and
// optional leaves, a list, a map and a nested record list.
func OrderModel() *model.WriteRecordModel {
	return model.NewWriteRecordModel("order").
		Field("id", model.Int64().NotNull(), func(v any) any { return v.(*Order).ID }).
		Field("customer", model.String(), func(v any) any { return v.(*Order).Customer }).
		Field("tags", model.List(model.String()), func(v any) any { return v.(*Order).Tags }).
		Field("attrs", model.Map(model.String().NotNull(), model.String()), func(v any) any { return v.(*Order).Attrs }).
		Field("lines", model.List(model.Record(LineModel())), func(v any) any { return v.(*Order).Lines })
}

// SampleOrders returns records that together exercise absent fields,
// empty containers and nested entries.
func SampleOrders() []*Order {
	return []*Order{
		{
			ID:       1,
			Customer: "acme",
			Tags:     []any{"priority", "bulk"},
			Attrs:    map[string]any{"region": "emea"},
			Lines: []any{
				&OrderLine{SKU: "A-1", Qty: 2},
				&OrderLine{SKU: "B-7", Qty: 1},
			},
		},
		{
			// Absent optionals all the way down.
			ID: 2,
		},
		{
			// Empty containers, distinct from absent ones.
			ID:    3,
			Tags:  []any{},
			Attrs: map[string]any{},
			Lines: []any{},
		},
		{
			ID:       4,
			Customer: "globex",
			Tags:     []any{nil, "fragile"},
			Attrs:    map[string]any{"carrier": nil},
			Lines:    []any{&OrderLine{SKU: "C-3", Qty: 9}},
		},
	}
}
