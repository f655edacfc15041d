// Package writer implements the write-path materializer: a depth-first
// traversal that turns one host value graph at a time into a single,
// internally consistent sequence of group/field events against a column
// store collaborator.
//
// Atomicity is guaranteed by pre-validation: the full value graph of a
// record is validated (no nil map keys anywhere, no nil in required
// slots, host types coercible) before the first event for that record is
// emitted, so a failed record never leaves columns partially written.
//
// A Materializer drives records strictly sequentially and is not safe for
// concurrent use; callers serialize access to one instance.
package writer

// RecordConsumer is the ordered event interface of the column write
// store. The materializer calls it strictly in schema order, one complete
// StartMessage/EndMessage sequence per record, with no re-entrant or
// out-of-order calls.
//
// Absent optional fields emit no events at all: the store infers nulls
// for unwritten columns. A present-but-empty list or map opens and closes
// its outer group without opening the repeated field, which is how the
// empty and absent cases stay distinct on disk.
type RecordConsumer interface {
	// StartMessage begins a record. Any previously started, unfinished
	// record is discarded.
	StartMessage()
	// EndMessage commits the record.
	EndMessage()

	// StartField positions on a field of the current group before its
	// value events; EndField closes it.
	StartField(name string, idx int)
	EndField(name string, idx int)

	// StartGroup opens one instance of the group-typed current field;
	// repeated groups open one instance per entry.
	StartGroup()
	EndGroup()

	AddBoolean(v bool)
	AddInt32(v int32)
	AddInt64(v int64)
	AddFloat32(v float32)
	AddFloat64(v float64)
	AddByteArray(v []byte)
}
