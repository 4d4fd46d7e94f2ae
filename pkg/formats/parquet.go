package formats

import (
	"bytes"
	"context"
	"io"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/ajitpratap0/colingest/pkg/columnar"
	"github.com/ajitpratap0/colingest/pkg/errors"
)

// writeParquet stores every batch as its own row group.
func writeParquet(w io.Writer, t *columnar.Table, cfg WriterConfig) (WriteStats, error) {
	pool := memory.NewGoAllocator()
	props := parquet.NewWriterProperties(
		parquet.WithCompression(getParquetCompression(cfg.ParquetCompression)),
		parquet.WithAllocator(pool),
	)
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithAllocator(pool))

	fw, err := pqarrow.NewFileWriter(ArrowSchema(), w, props, arrowProps)
	if err != nil {
		return WriteStats{}, errors.Wrap(err, errors.ErrorTypeFormat, "create parquet writer")
	}
	n, err := batches(t.Len(), cfg.BatchSize, func(start, end int) error {
		rec := ToArrowRecord(t, start, end, pool)
		defer rec.Release()
		if err := fw.Write(rec); err != nil {
			return errors.Wrap(err, errors.ErrorTypeFormat, "write row group")
		}
		return nil
	})
	if err != nil {
		_ = fw.Close()
		return WriteStats{Batches: n}, err
	}
	if err := fw.Close(); err != nil {
		return WriteStats{Batches: n}, errors.Wrap(err, errors.ErrorTypeFormat, "close parquet writer")
	}
	return WriteStats{Rows: t.Len(), Batches: n}, nil
}

func readParquet(r io.Reader) (*columnar.Table, error) {
	// parquet footers live at the end of the file
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFormat, "read parquet data")
	}
	pf, err := file.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFormat, "open parquet file")
	}
	defer pf.Close()

	fr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{BatchSize: DefaultBatchSize}, memory.NewGoAllocator())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFormat, "open parquet arrow reader")
	}
	rr, err := fr.GetRecordReader(context.Background(), nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFormat, "read parquet row groups")
	}
	defer rr.Release()

	acc := columnar.NewAccumulator(int(pf.NumRows()))
	for rr.Next() {
		if err := appendRecord(acc, rr.Record()); err != nil {
			return nil, err
		}
	}
	if err := rr.Err(); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, errors.ErrorTypeFormat, "read parquet record")
	}
	return acc.Finish(), nil
}

func getParquetCompression(name string) compress.Compression {
	switch name {
	case "none", "uncompressed":
		return compress.Codecs.Uncompressed
	case "gzip":
		return compress.Codecs.Gzip
	case "zstd":
		return compress.Codecs.Zstd
	default:
		return compress.Codecs.Snappy
	}
}
