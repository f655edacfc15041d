package parquetio

import (
	"io"

	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/file"
	"go.uber.org/zap"

	"github.com/loomdata/loom/pkg/columnio"
	"github.com/loomdata/loom/pkg/logger"
	"github.com/loomdata/loom/pkg/loomerrors"
	"github.com/loomdata/loom/pkg/reader"
	"github.com/loomdata/loom/pkg/schema"
)

// readBatchSize bounds one ReadBatch call per column chunk.
const readBatchSize = 1024

// Reader assembles records from a parquet stream. The stored schema is
// derived from the file footer and bound to the caller's read model (or
// read generically), then only the projected columns are loaded.
//
// A Reader reads records strictly in row order and is not safe for
// concurrent use.
type Reader struct {
	pf      *file.Reader
	stored  *schema.Compiled
	binding *reader.Binding
	asm     *reader.Assembler
	rows    int64
	read    int64
}

// NewReader opens r and binds the read model to the stored schema.
func NewReader(r parquet.ReaderAtSeeker, m *reader.RecordModel) (*Reader, error) {
	return newReader(r, func(stored *schema.Compiled) (*reader.Binding, error) {
		return reader.Bind(stored, m)
	})
}

// NewGenericReader opens r for model-free reads: records assemble into
// map[string]any.
func NewGenericReader(r parquet.ReaderAtSeeker) (*Reader, error) {
	return newReader(r, reader.BindGeneric)
}

func newReader(r parquet.ReaderAtSeeker, bind func(*schema.Compiled) (*reader.Binding, error)) (*Reader, error) {
	pf, err := file.NewParquetReader(r)
	if err != nil {
		return nil, loomerrors.Wrap(err, loomerrors.ErrorTypeFile, "open parquet stream")
	}
	stored, err := schema.FromParquet(pf.MetaData().Schema)
	if err != nil {
		return nil, err
	}
	binding, err := bind(stored)
	if err != nil {
		return nil, err
	}
	cursors, err := loadColumns(pf, stored, binding.Columns())
	if err != nil {
		return nil, err
	}
	asm, err := reader.NewAssembler(binding, cursors)
	if err != nil {
		return nil, err
	}

	logger.Get().Debug("opened parquet stream",
		zap.String("component", "parquet_reader"),
		zap.Int64("rows", pf.NumRows()),
		zap.Int("row_groups", pf.NumRowGroups()),
		zap.Int("projected_columns", len(binding.Columns())),
	)
	return &Reader{
		pf:      pf,
		stored:  stored,
		binding: binding,
		asm:     asm,
		rows:    pf.NumRows(),
	}, nil
}

// Schema returns the stored schema derived from the file footer.
func (r *Reader) Schema() *schema.Compiled { return r.stored }

// NumRows returns the stored record count.
func (r *Reader) NumRows() int64 { return r.rows }

// Read assembles the next record, or io.EOF after the last one.
func (r *Reader) Read() (any, error) {
	if !r.asm.More() {
		return nil, io.EOF
	}
	rec, err := r.asm.ReadRecord()
	if err != nil {
		return nil, err
	}
	r.read++
	return rec, nil
}

// ReadAll assembles every remaining record.
func (r *Reader) ReadAll() ([]any, error) {
	var out []any
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
}

// Close releases the underlying file reader.
func (r *Reader) Close() error {
	if err := r.pf.Close(); err != nil {
		return loomerrors.Wrap(err, loomerrors.ErrorTypeFile, "close parquet reader")
	}
	return nil
}

// loadColumns reads the projected column chunks of every row group into
// cursor-backed vectors, concatenated in row group order. Unprojected
// columns stay unread and their cursor slots nil.
func loadColumns(pf *file.Reader, stored *schema.Compiled, projected []int) ([]*columnio.Cursor, error) {
	data := make([]*columnio.ColumnData, stored.NumColumns())
	for _, c := range projected {
		data[c] = columnio.NewColumnData(stored.Leaves[c])
	}

	for rg := 0; rg < pf.NumRowGroups(); rg++ {
		rgr := pf.RowGroup(rg)
		for _, c := range projected {
			cr, err := rgr.Column(c)
			if err != nil {
				return nil, loomerrors.Wrap(err, loomerrors.ErrorTypeFile, "open column chunk").
					WithDetail("column", stored.Leaves[c].Name)
			}
			if err := readColumn(cr, data[c]); err != nil {
				return nil, err
			}
		}
	}

	cursors := make([]*columnio.Cursor, len(data))
	for c, col := range data {
		if col != nil {
			cursors[c] = columnio.NewCursor(col)
		}
	}
	return cursors, nil
}

// readColumn drains one column chunk into the column vectors. Levels the
// chunk does not carry (required columns, flat columns) are synthesized
// as zeros so the cursors always see full-length vectors.
func readColumn(cr file.ColumnChunkReader, col *columnio.ColumnData) error {
	leaf := col.Leaf
	var defs, reps []int16
	if leaf.DefLevel > 0 {
		defs = make([]int16, readBatchSize)
	}
	if leaf.RepLevel > 0 {
		reps = make([]int16, readBatchSize)
	}

	appendLevels := func(total int64) {
		n := int(total)
		if defs != nil {
			col.Defs = append(col.Defs, defs[:n]...)
		} else {
			for i := 0; i < n; i++ {
				col.Defs = append(col.Defs, leaf.DefLevel)
			}
		}
		if reps != nil {
			col.Reps = append(col.Reps, reps[:n]...)
		} else {
			for i := 0; i < n; i++ {
				col.Reps = append(col.Reps, 0)
			}
		}
	}

	var err error
	switch tr := cr.(type) {
	case *file.BooleanColumnChunkReader:
		buf := make([]bool, readBatchSize)
		for tr.HasNext() {
			total, valuesRead, rerr := tr.ReadBatch(readBatchSize, buf, defs, reps)
			if rerr != nil {
				err = rerr
				break
			}
			col.Bools = append(col.Bools, buf[:valuesRead]...)
			appendLevels(total)
		}
	case *file.Int32ColumnChunkReader:
		buf := make([]int32, readBatchSize)
		for tr.HasNext() {
			total, valuesRead, rerr := tr.ReadBatch(readBatchSize, buf, defs, reps)
			if rerr != nil {
				err = rerr
				break
			}
			col.Int32s = append(col.Int32s, buf[:valuesRead]...)
			appendLevels(total)
		}
	case *file.Int64ColumnChunkReader:
		buf := make([]int64, readBatchSize)
		for tr.HasNext() {
			total, valuesRead, rerr := tr.ReadBatch(readBatchSize, buf, defs, reps)
			if rerr != nil {
				err = rerr
				break
			}
			col.Int64s = append(col.Int64s, buf[:valuesRead]...)
			appendLevels(total)
		}
	case *file.Float32ColumnChunkReader:
		buf := make([]float32, readBatchSize)
		for tr.HasNext() {
			total, valuesRead, rerr := tr.ReadBatch(readBatchSize, buf, defs, reps)
			if rerr != nil {
				err = rerr
				break
			}
			col.Float32s = append(col.Float32s, buf[:valuesRead]...)
			appendLevels(total)
		}
	case *file.Float64ColumnChunkReader:
		buf := make([]float64, readBatchSize)
		for tr.HasNext() {
			total, valuesRead, rerr := tr.ReadBatch(readBatchSize, buf, defs, reps)
			if rerr != nil {
				err = rerr
				break
			}
			col.Float64s = append(col.Float64s, buf[:valuesRead]...)
			appendLevels(total)
		}
	case *file.ByteArrayColumnChunkReader:
		buf := make([]parquet.ByteArray, readBatchSize)
		for tr.HasNext() {
			total, valuesRead, rerr := tr.ReadBatch(readBatchSize, buf, defs, reps)
			if rerr != nil {
				err = rerr
				break
			}
			// Reader-owned buffers; copy before the next batch.
			for i := 0; i < valuesRead; i++ {
				b := make(parquet.ByteArray, len(buf[i]))
				copy(b, buf[i])
				col.ByteArrays = append(col.ByteArrays, b)
			}
			appendLevels(total)
		}
	default:
		return loomerrors.Newf(loomerrors.ErrorTypeInternal,
			"unsupported column chunk reader for column %q", leaf.Name)
	}
	if err != nil {
		return loomerrors.Wrap(err, loomerrors.ErrorTypeFile, "read column chunk").
			WithDetail("column", leaf.Name)
	}
	return nil
}
