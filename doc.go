// Package loom is a schema-driven object/parquet mapping engine. It
// maps host records to and from parquet files through explicit record
// models, with full support for nested records, lists and maps and
// without any use of reflection.
//
// # Architecture
//
// Loom is organized as a small pipeline of cooperating packages:
//
//   - model: type descriptors (primitives, enums, lists, maps, records)
//     and the write-side record model
//   - schema: lowers record models into the canonical parquet
//     nested-group schema with absolute definition/repetition levels,
//     and derives models back from stored schemas
//   - writer: validates host records and materializes them as a
//     group/field event stream
//   - columnio: the in-memory column store; stripes the event stream
//     into per-column level/value vectors and serves read cursors
//   - reader: binds a read model to a stored schema by field name and
//     assembles host records from column cursors
//   - parquetio: persists the column store to parquet files and loads
//     stored column chunks back
//
// # Quick Start
//
// Define a write model, write records, read them back:
//
//	type Point struct{ X, Y int64 }
//
//	wm := model.NewWriteRecordModel("point").
//	    Field("x", model.Int64().NotNull(), func(v any) any { return v.(*Point).X }).
//	    Field("y", model.Int64().NotNull(), func(v any) any { return v.(*Point).Y })
//
//	var buf bytes.Buffer
//	w, _ := parquetio.NewWriter(&buf, wm, parquetio.WriterConfig{})
//	_ = w.Write(&Point{X: 1, Y: 2})
//	_ = w.Close()
//
//	rm := reader.NewRecordModel("point", func() any { return &Point{} }).
//	    Field("x", model.Int64().NotNull(), func(rec, v any) { rec.(*Point).X = v.(int64) }).
//	    Field("y", model.Int64().NotNull(), func(rec, v any) { rec.(*Point).Y = v.(int64) })
//
//	r, _ := parquetio.NewReader(bytes.NewReader(buf.Bytes()), rm)
//	rec, _ := r.Read()
//
// The write model and the read model never have to be the same: fields
// are matched by name against the stored schema, columns absent from
// the read model are skipped, and compatible conversions (int32 into
// int64 targets, enum names into enumerated constants) are applied per
// column.
//
// # Nulls and Empty Containers
//
// A nil host value is an absent value; typed-nil containers such as a
// struct's nil slice or map field count as nil. Absent and empty
// containers are distinct and round-trip distinctly: a nil list stores
// as an absent field, an empty list stores as a present group with zero
// entries.
// Map keys are always stored required; a record containing a nil map
// key is rejected before any of it reaches storage.
package loom
