package formats

import (
	"bytes"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/ajitpratap0/colingest/pkg/columnar"
	"github.com/ajitpratap0/colingest/pkg/errors"
	"github.com/ajitpratap0/colingest/pkg/models"
)

// ArrowSchema is the Arrow layout of a city table.
func ArrowSchema() *arrow.Schema {
	return arrow.NewSchema([]arrow.Field{
		{Name: "city", Type: arrow.BinaryTypes.String},
		{Name: "state", Type: arrow.BinaryTypes.String},
		{Name: "population", Type: arrow.PrimitiveTypes.Uint64, Nullable: true},
		{Name: "latitude", Type: arrow.PrimitiveTypes.Float64},
		{Name: "longitude", Type: arrow.PrimitiveTypes.Float64},
	}, nil)
}

// ToArrowRecord copies rows [start, end) of t into an Arrow record. The
// caller must Release it.
func ToArrowRecord(t *columnar.Table, start, end int, mem memory.Allocator) arrow.Record {
	b := array.NewRecordBuilder(mem, ArrowSchema())
	defer b.Release()

	b.Field(models.ColCity).(*array.StringBuilder).AppendValues(t.City.Values()[start:end], nil)
	b.Field(models.ColState).(*array.StringBuilder).AppendValues(t.State.Values()[start:end], nil)
	valid := make([]bool, end-start)
	for i := range valid {
		valid[i] = t.Population.IsValid(start + i)
	}
	b.Field(models.ColPopulation).(*array.Uint64Builder).AppendValues(t.Population.Values()[start:end], valid)
	b.Field(models.ColLatitude).(*array.Float64Builder).AppendValues(t.Latitude.Values()[start:end], nil)
	b.Field(models.ColLongitude).(*array.Float64Builder).AppendValues(t.Longitude.Values()[start:end], nil)

	return b.NewRecord()
}

func writeArrow(w io.Writer, t *columnar.Table, cfg WriterConfig) (WriteStats, error) {
	pool := memory.NewGoAllocator()
	fw, err := ipc.NewFileWriter(w, ipc.WithSchema(ArrowSchema()), ipc.WithAllocator(pool))
	if err != nil {
		return WriteStats{}, errors.Wrap(err, errors.ErrorTypeFormat, "create arrow writer")
	}

	n, err := batches(t.Len(), cfg.BatchSize, func(start, end int) error {
		rec := ToArrowRecord(t, start, end, pool)
		defer rec.Release()
		if err := fw.Write(rec); err != nil {
			return errors.Wrap(err, errors.ErrorTypeFormat, "write record batch")
		}
		return nil
	})
	if err != nil {
		_ = fw.Close()
		return WriteStats{Batches: n}, err
	}
	if err := fw.Close(); err != nil {
		return WriteStats{Batches: n}, errors.Wrap(err, errors.ErrorTypeFormat, "close arrow writer")
	}
	return WriteStats{Rows: t.Len(), Batches: n}, nil
}

func readArrow(r io.Reader) (*columnar.Table, error) {
	// ipc.FileReader needs random access, so the file is buffered in memory.
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFormat, "read arrow data")
	}
	fr, err := ipc.NewFileReader(bytes.NewReader(data), ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFormat, "open arrow file")
	}
	defer fr.Close()

	acc := columnar.NewAccumulator(0)
	for i := 0; i < fr.NumRecords(); i++ {
		// Valid until the next call to Record; not released here.
		rec, err := fr.Record(i)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFormat, "read record batch")
		}
		if err := appendRecord(acc, rec); err != nil {
			return nil, err
		}
	}
	return acc.Finish(), nil
}

// appendRecord copies a record laid out as ArrowSchema into acc.
func appendRecord(acc *columnar.Accumulator, rec arrow.Record) error {
	if rec.NumCols() != models.NumColumns {
		return errors.Newf(errors.ErrorTypeFormat, "record has %d columns, want %d", rec.NumCols(), models.NumColumns)
	}
	city, ok1 := rec.Column(models.ColCity).(*array.String)
	state, ok2 := rec.Column(models.ColState).(*array.String)
	pop, ok3 := rec.Column(models.ColPopulation).(*array.Uint64)
	lat, ok4 := rec.Column(models.ColLatitude).(*array.Float64)
	lon, ok5 := rec.Column(models.ColLongitude).(*array.Float64)
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 {
		return errors.Newf(errors.ErrorTypeFormat, "unexpected record schema: %s", rec.Schema())
	}

	n := int(rec.NumRows())
	acc.Reserve(n)
	for j := 0; j < n; j++ {
		row := models.Row{
			City:      city.Value(j),
			State:     state.Value(j),
			Latitude:  lat.Value(j),
			Longitude: lon.Value(j),
		}
		if pop.IsValid(j) {
			row.Population, row.HasPopulation = pop.Value(j), true
		}
		if err := acc.Append(row); err != nil {
			return err
		}
	}
	return nil
}
