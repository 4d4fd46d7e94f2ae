package parser

import (
	"bufio"
	"encoding/csv"
	"io"

	"github.com/ajitpratap0/colingest/pkg/coerce"
	"github.com/ajitpratap0/colingest/pkg/errors"
	"github.com/ajitpratap0/colingest/pkg/models"
)

// schemaParser reads records with encoding/csv and validates each one
// against a declared schema before coercion. It is the only strategy that
// rejects rows.
//
// The csv reader is fed whole lines by a lineReader, so a transport error
// drops the rest of the broken line exactly as in the other strategies.
type schemaParser struct {
	r      *csv.Reader
	schema models.Schema
}

func newSchemaParser(br *bufio.Reader, schema models.Schema) *schemaParser {
	cr := csv.NewReader(&lineSource{lines: lineReader{r: br}})
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	return &schemaParser{r: cr, schema: schema}
}

// lineSource exposes a lineReader as an io.Reader. A line is handed out
// completely before the next one is read, so the consumer never sees the
// leftover of a line that failed mid-read.
type lineSource struct {
	lines   lineReader
	pending []byte
}

func (s *lineSource) Read(p []byte) (int, error) {
	if len(s.pending) == 0 {
		line, err := s.lines.next()
		if err != nil {
			return 0, err
		}
		s.pending = line
	}
	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

func (p *schemaParser) Strategy() Strategy { return StrategySchema }

func (p *schemaParser) Next() (models.Row, error) {
	rec, err := p.r.Read()
	if err != nil {
		if err == io.EOF {
			return models.Row{}, io.EOF
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return models.Row{}, errors.Wrap(err, errors.ErrorTypeStructure, "malformed record")
		}
		if errors.IsType(err, errors.ErrorTypeRead) {
			return models.Row{}, err
		}
		return models.Row{}, errors.Wrap(err, errors.ErrorTypeRead, "read record")
	}
	if len(rec) != len(p.schema.Fields) {
		return models.Row{}, errors.Newf(errors.ErrorTypeStructure,
			"expected %d fields, got %d", len(p.schema.Fields), len(rec)).
			WithDetail("schema", p.schema.Name)
	}
	if err := p.validate(rec); err != nil {
		return models.Row{}, err
	}

	pop, hasPop := coerce.Population(rec[models.ColPopulation], true)
	return models.Row{
		City:          coerce.Text(rec[models.ColCity], true),
		State:         coerce.Text(rec[models.ColState], true),
		Population:    pop,
		HasPopulation: hasPop,
		Latitude:      coerce.Float(rec[models.ColLatitude], true),
		Longitude:     coerce.Float(rec[models.ColLongitude], true),
	}, nil
}

// validate checks every non-empty field against its declared type. Empty
// fields count as missing and are left to the coercion fallbacks.
func (p *schemaParser) validate(rec []string) error {
	for i, f := range p.schema.Fields {
		v := rec[i]
		if v == "" {
			continue
		}
		ok := true
		switch f.Type {
		case models.FieldTypeOptionalUint:
			_, ok = coerce.Population(v, true)
		case models.FieldTypeFloat:
			_, ok = coerce.ParseFloat(v)
		}
		if !ok {
			return errors.Newf(errors.ErrorTypeStructure,
				"field %q: %q is not a valid %s", f.Name, v, f.Type).
				WithDetail("column", i)
		}
	}
	return nil
}
