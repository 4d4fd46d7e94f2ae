package formats

import (
	"io"
	"math"

	"github.com/linkedin/goavro/v2"

	"github.com/ajitpratap0/colingest/pkg/columnar"
	"github.com/ajitpratap0/colingest/pkg/errors"
	"github.com/ajitpratap0/colingest/pkg/models"
)

// AvroSchema is the record schema of an exported row. Avro has no unsigned
// type, so population is a nullable long.
const AvroSchema = `{
  "type": "record",
  "name": "City",
  "namespace": "colingest",
  "fields": [
    {"name": "city", "type": "string"},
    {"name": "state", "type": "string"},
    {"name": "population", "type": ["null", "long"], "default": null},
    {"name": "latitude", "type": "double"},
    {"name": "longitude", "type": "double"}
  ]
}`

func writeAvro(w io.Writer, t *columnar.Table, cfg WriterConfig) (WriteStats, error) {
	codec, err := goavro.NewCodec(AvroSchema)
	if err != nil {
		return WriteStats{}, errors.Wrap(err, errors.ErrorTypeFormat, "create avro codec")
	}
	ocfWriter, err := goavro.NewOCFWriter(goavro.OCFConfig{
		W:               w,
		Codec:           codec,
		CompressionName: getAvroCompression(cfg.AvroCompression),
	})
	if err != nil {
		return WriteStats{}, errors.Wrap(err, errors.ErrorTypeFormat, "create avro writer")
	}

	buf := make([]interface{}, 0, min(cfg.BatchSize, t.Len()))
	n, err := batches(t.Len(), cfg.BatchSize, func(start, end int) error {
		buf = buf[:0]
		for i := start; i < end; i++ {
			native, err := rowToAvroNative(t, i)
			if err != nil {
				return err
			}
			buf = append(buf, native)
		}
		if err := ocfWriter.Append(buf); err != nil {
			return errors.Wrap(err, errors.ErrorTypeFormat, "write avro block")
		}
		return nil
	})
	if err != nil {
		return WriteStats{Batches: n}, err
	}
	return WriteStats{Rows: t.Len(), Batches: n}, nil
}

func rowToAvroNative(t *columnar.Table, i int) (map[string]interface{}, error) {
	var pop interface{}
	if v, ok := t.Population.Value(i); ok {
		if v > math.MaxInt64 {
			return nil, errors.Newf(errors.ErrorTypeFormat, "population %d at row %d does not fit an avro long", v, i)
		}
		pop = goavro.Union("long", int64(v))
	}
	return map[string]interface{}{
		"city":       t.City.Value(i),
		"state":      t.State.Value(i),
		"population": pop,
		"latitude":   t.Latitude.Value(i),
		"longitude":  t.Longitude.Value(i),
	}, nil
}

func readAvro(r io.Reader) (*columnar.Table, error) {
	ocfReader, err := goavro.NewOCFReader(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFormat, "open avro file")
	}

	acc := columnar.NewAccumulator(0)
	for ocfReader.Scan() {
		datum, err := ocfReader.Read()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFormat, "read avro record")
		}
		row, err := avroNativeToRow(datum)
		if err != nil {
			return nil, err
		}
		if err := acc.Append(row); err != nil {
			return nil, err
		}
	}
	if err := ocfReader.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFormat, "scan avro file")
	}
	return acc.Finish(), nil
}

func avroNativeToRow(datum interface{}) (models.Row, error) {
	m, ok := datum.(map[string]interface{})
	if !ok {
		return models.Row{}, errors.Newf(errors.ErrorTypeFormat, "unexpected avro datum %T", datum)
	}
	row := models.Row{}
	row.City, _ = m["city"].(string)
	row.State, _ = m["state"].(string)
	row.Latitude, _ = m["latitude"].(float64)
	row.Longitude, _ = m["longitude"].(float64)
	if u, ok := m["population"].(map[string]interface{}); ok {
		if v, ok := u["long"].(int64); ok && v >= 0 {
			row.Population, row.HasPopulation = uint64(v), true
		}
	}
	return row, nil
}

func getAvroCompression(compression string) string {
	switch compression {
	case "deflate":
		return goavro.CompressionDeflateLabel
	case "none", "null":
		return goavro.CompressionNullLabel
	default:
		return goavro.CompressionSnappyLabel
	}
}
