// Package parquetio persists the in-memory column store to parquet files
// and loads stored column chunks back into cursor-readable vectors. The
// level/value vectors the striping layer produces are handed to the
// column chunk writers unchanged, so the file path and the pure
// in-memory path share every encoding decision.
package parquetio

import (
	"io"

	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"go.uber.org/zap"

	"github.com/loomdata/loom/pkg/columnio"
	"github.com/loomdata/loom/pkg/logger"
	"github.com/loomdata/loom/pkg/loomerrors"
	"github.com/loomdata/loom/pkg/model"
	"github.com/loomdata/loom/pkg/schema"
	"github.com/loomdata/loom/pkg/writer"
)

// WriterConfig tunes file output. The zero value selects snappy
// compression and the default row group size.
type WriterConfig struct {
	// Compression is one of "snappy", "zstd", "gzip" or "none".
	Compression string
	// RowGroupRecords is the number of records buffered per row group.
	RowGroupRecords int
}

const defaultRowGroupRecords = 4096

func compressionCodec(name string) (compress.Compression, error) {
	switch name {
	case "", "snappy":
		return compress.Codecs.Snappy, nil
	case "zstd":
		return compress.Codecs.Zstd, nil
	case "gzip":
		return compress.Codecs.Gzip, nil
	case "none":
		return compress.Codecs.Uncompressed, nil
	}
	return compress.Codecs.Uncompressed, loomerrors.Newf(loomerrors.ErrorTypeConfig,
		"unknown compression codec %q", name)
}

// Writer writes records of one model to a parquet stream. Records are
// validated and striped into a column store; the store is flushed as a
// row group whenever it reaches the configured size and once more on
// Close.
//
// A Writer is not safe for concurrent use.
type Writer struct {
	compiled *schema.Compiled
	store    *columnio.Store
	mat      *writer.Materializer
	fw       *file.Writer

	rowGroupRecords int
	records         int64
	rowGroups       int
	closed          bool

	log *zap.Logger
}

// NewWriter compiles the write model and opens a parquet writer on w.
func NewWriter(w io.Writer, m *model.WriteRecordModel, config WriterConfig) (*Writer, error) {
	compiled, err := schema.Compile(m)
	if err != nil {
		return nil, err
	}
	codec, err := compressionCodec(config.Compression)
	if err != nil {
		return nil, err
	}
	if config.RowGroupRecords <= 0 {
		config.RowGroupRecords = defaultRowGroupRecords
	}

	props := parquet.NewWriterProperties(
		parquet.WithCompression(codec),
	)
	fw := file.NewParquetWriter(w, compiled.ParquetRoot, file.WithWriterProps(props))

	store := columnio.NewStore(compiled)
	return &Writer{
		compiled:        compiled,
		store:           store,
		mat:             writer.NewMaterializer(m, store),
		fw:              fw,
		rowGroupRecords: config.RowGroupRecords,
		log: logger.Get().With(
			zap.String("component", "parquet_writer"),
			zap.String("schema", m.SchemaName()),
		),
	}, nil
}

// Schema returns the compiled stored schema.
func (w *Writer) Schema() *schema.Compiled { return w.compiled }

// Write validates and appends one record. A failed record leaves the
// writer unchanged and usable.
func (w *Writer) Write(v any) error {
	if w.closed {
		return loomerrors.New(loomerrors.ErrorTypeFile, "writer is closed")
	}
	if err := w.mat.WriteRecord(v); err != nil {
		return err
	}
	w.records++
	if w.store.Rows() >= w.rowGroupRecords {
		return w.flush()
	}
	return nil
}

// WriteAll appends records in order, stopping at the first failure.
func (w *Writer) WriteAll(vs []any) error {
	for _, v := range vs {
		if err := w.Write(v); err != nil {
			return err
		}
	}
	return nil
}

// flush emits the buffered store as one row group and resets it.
func (w *Writer) flush() error {
	rows := w.store.Rows()
	if rows == 0 {
		return nil
	}

	rgw := w.fw.AppendRowGroup()
	for _, col := range w.store.Columns() {
		cw, err := rgw.NextColumn()
		if err != nil {
			return loomerrors.Wrap(err, loomerrors.ErrorTypeFile, "open column chunk")
		}
		if err := writeColumn(cw, col); err != nil {
			return err
		}
	}
	if err := rgw.Close(); err != nil {
		return loomerrors.Wrap(err, loomerrors.ErrorTypeFile, "close row group")
	}

	w.rowGroups++
	w.log.Debug("flushed row group",
		zap.Int("rows", rows),
		zap.Int("row_group", w.rowGroups),
	)
	w.store.Reset()
	return nil
}

// writeColumn hands one column's level and value vectors to the typed
// chunk writer. Definition and repetition levels are omitted where the
// column's maxima are zero, as the chunk writers require.
func writeColumn(cw file.ColumnChunkWriter, col *columnio.ColumnData) error {
	defs := col.Defs
	if col.Leaf.DefLevel == 0 {
		defs = nil
	}
	reps := col.Reps
	if col.Leaf.RepLevel == 0 {
		reps = nil
	}

	var err error
	switch tw := cw.(type) {
	case *file.BooleanColumnChunkWriter:
		_, err = tw.WriteBatch(col.Bools, defs, reps)
	case *file.Int32ColumnChunkWriter:
		_, err = tw.WriteBatch(col.Int32s, defs, reps)
	case *file.Int64ColumnChunkWriter:
		_, err = tw.WriteBatch(col.Int64s, defs, reps)
	case *file.Float32ColumnChunkWriter:
		_, err = tw.WriteBatch(col.Float32s, defs, reps)
	case *file.Float64ColumnChunkWriter:
		_, err = tw.WriteBatch(col.Float64s, defs, reps)
	case *file.ByteArrayColumnChunkWriter:
		_, err = tw.WriteBatch(col.ByteArrays, defs, reps)
	default:
		return loomerrors.Newf(loomerrors.ErrorTypeInternal,
			"unsupported column chunk writer for column %q", col.Leaf.Name)
	}
	if err != nil {
		return loomerrors.Wrap(err, loomerrors.ErrorTypeFile, "write column chunk").
			WithDetail("column", col.Leaf.Name)
	}
	return nil
}

// Records returns the number of records written so far.
func (w *Writer) Records() int64 { return w.records }

// Close flushes the remaining buffer and finalizes the file footer.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.flush(); err != nil {
		return err
	}
	if err := w.fw.Close(); err != nil {
		return loomerrors.Wrap(err, loomerrors.ErrorTypeFile, "close parquet writer")
	}
	w.log.Info("closed parquet stream",
		zap.Int64("records", w.records),
		zap.Int("row_groups", w.rowGroups),
	)
	return nil
}
